package ingest

import (
	"testing"
	"time"

	"github.com/gitsocial-org/gitsocial-sub002/gitmsg"
	"github.com/gitsocial-org/gitsocial-sub002/post"
	"github.com/gitsocial-org/gitsocial-sub002/protocol"
)

const origin = "https://origin/repo"

func workspacePost(hash string) *post.Post {
	p := &post.Post{
		ID:              protocol.CreateRef(protocol.RefCommit, hash),
		Type:            post.TypePost,
		Source:          post.SourceExplicit,
		IsWorkspacePost: true,
		Timestamp:       time.Now(),
	}
	p.Raw.Commit.Hash, _ = protocol.NormalizeHash(hash)
	return p
}

// Scenario 3: workspace vs external dedup.
func TestProcessExternalDuplicateDropped(t *testing.T) {
	idx := post.NewIndex()
	w := workspacePost("abc123def456")
	ext := &post.Post{
		ID:         protocol.CreateRef(protocol.RefCommit, "abc123def456", origin),
		Type:       post.TypePost,
		Source:     post.SourceImplicit,
		IsWorkspacePost: false,
	}
	ext.Raw.Commit.Hash = w.Raw.Commit.Hash

	working := Process([]Item{{Post: w}, {Post: ext}}, origin, idx, nil)

	if len(working) != 1 {
		t.Fatalf("expected exactly 1 admitted post, got %d: %v", len(working), working)
	}
	if _, ok := working[w.ID]; !ok {
		t.Fatalf("expected workspace post %q to remain admitted", w.ID)
	}
	rel, ok := idx.ResolveAbsolute(ext.ID)
	if !ok || rel != w.ID {
		t.Fatalf("expected absolute mapping %q -> %q, got %q (%v)", ext.ID, w.ID, rel, ok)
	}
}

// Scenario 4: merge-virtual-into-workspace avoids double counting
// when combined with the subsequent Interaction Counter pass.
func TestMergeThenCountIsIdempotent(t *testing.T) {
	idx := post.NewIndex()
	w := workspacePost("a")

	extComment := &post.Post{
		ID:              protocol.CreateRef(protocol.RefCommit, "c", origin),
		Type:            post.TypeComment,
		Source:          post.SourceExplicit,
		OriginalPostID:  protocol.CreateRef(protocol.RefCommit, "a", origin),
		IsWorkspacePost: false,
	}
	extComment.Raw.Commit.Hash, _ = protocol.NormalizeHash("c")

	f := gitmsg.NewFields()
	f.Set("type", "comment")
	f.Set("original", protocol.CreateRef(protocol.RefCommit, "a", origin))
	ref := &gitmsg.Reference{
		Ext: "social", Author: "x", Email: "x@example.com", Time: "2024-01-01T00:00:00Z",
		Fields: f,
		Ref:    protocol.CreateRef(protocol.RefCommit, "a", origin),
		Quoted: []string{"quoted body"},
	}

	working := Process([]Item{
		{Post: w},
		{Post: extComment, References: []*gitmsg.Reference{ref}},
	}, origin, idx, nil)

	// The virtual post must not appear standalone.
	if _, ok := working[ref.Ref]; ok {
		t.Fatalf("expected virtual post to be merged, not admitted standalone")
	}

	var fresh []*post.Post
	for _, p := range working {
		fresh = append(fresh, p)
	}
	union := Recompute(nil, fresh, origin, idx)

	var wOut *post.Post
	for _, p := range union {
		if p.ID == w.ID {
			wOut = p
		}
	}
	if wOut == nil {
		t.Fatal("workspace post missing from recomputed union")
	}
	if wOut.Interactions.Comments != 1 {
		t.Errorf("expected exactly 1 comment after recompute, got %d", wOut.Interactions.Comments)
	}
}
