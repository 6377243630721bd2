package transform

import (
	"testing"
	"time"

	"github.com/gitsocial-org/gitsocial-sub002/collab"
	"github.com/gitsocial-org/gitsocial-sub002/gitmsg"
	"github.com/gitsocial-org/gitsocial-sub002/post"
)

func TestFromRealCommitWorkspacePost(t *testing.T) {
	msg := "Hello\n\n--- GitMsg: ext=\"social\"; type=\"post\"; v=\"1\"; ext-v=\"1\" ---"
	in := RealCommitInput{
		Commit: collab.Commit{
			Hash:      "abc123def456789",
			Author:    "Ada",
			Email:     "ada@example.com",
			Timestamp: time.Now(),
			Message:   msg,
			RefName:   "refs/heads/main",
		},
		Branch: "main",
	}
	p, err := FromRealCommit(in, nil)
	if err != nil {
		t.Fatal(err)
	}
	if p.ID != "#commit:abc123def456" {
		t.Errorf("id = %q", p.ID)
	}
	if !p.IsWorkspacePost {
		t.Error("expected workspace post")
	}
	if p.Source != post.SourceExplicit {
		t.Errorf("source = %q", p.Source)
	}
}

func TestFromRealCommitExternalDedupIdentity(t *testing.T) {
	in := RealCommitInput{
		Commit: collab.Commit{
			Hash:    "abc123def456789",
			Message: "no header here",
		},
		RepositoryURL: "https://origin/repo",
		RemoteName:    "upstream",
	}
	p, err := FromRealCommit(in, nil)
	if err != nil {
		t.Fatal(err)
	}
	if p.ID != "https://origin/repo#commit:abc123def456" {
		t.Errorf("id = %q", p.ID)
	}
	if p.IsWorkspacePost {
		t.Error("expected external post")
	}
	if p.Source != post.SourceImplicit {
		t.Errorf("source = %q", p.Source)
	}
}

func TestFromRealCommitRejectsMissingOriginal(t *testing.T) {
	msg := "Comment\n\n--- GitMsg: ext=\"social\"; type=\"comment\"; v=\"1\"; ext-v=\"1\" ---"
	in := RealCommitInput{
		Commit: collab.Commit{Hash: "abc123def456789", Message: msg},
	}
	_, err := FromRealCommit(in, nil)
	if err == nil {
		t.Fatal("expected rejection for comment without originalPostId")
	}
}

func TestFromVirtualReference(t *testing.T) {
	f := gitmsg.NewFields()
	f.Set("type", "comment")
	f.Set("original", "#commit:abc123def456")
	ref := &gitmsg.Reference{
		Ext:    "social",
		Author: "Ada",
		Email:  "ada@example.com",
		Time:   "2024-01-15T10:00:00Z",
		Fields: f,
		Ref:    "https://origin/repo#commit:fff000111222",
		Quoted: []string{"this is the quoted body"},
	}
	p, err := FromVirtualReference(VirtualCommitInput{Ref: ref}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !p.IsVirtual {
		t.Error("expected virtual post")
	}
	if p.ID != "https://origin/repo#commit:fff000111222" {
		t.Errorf("id = %q", p.ID)
	}
	if p.OriginalPostID != "https://origin/repo#commit:abc123def456" {
		t.Errorf("originalPostId = %q", p.OriginalPostID)
	}
}

func TestFromVirtualReferenceRejectsEmptyQuote(t *testing.T) {
	ref := &gitmsg.Reference{
		Ref:    "#commit:abc123def456",
		Fields: gitmsg.NewFields(),
	}
	_, err := FromVirtualReference(VirtualCommitInput{Ref: ref}, nil)
	if err == nil {
		t.Fatal("expected rejection for empty quoted body")
	}
}
