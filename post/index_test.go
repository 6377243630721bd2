package post

import (
	"testing"
	"time"
)

func newTestPost(id, hash, repo string) *Post {
	p := &Post{ID: id, Repository: repo, Type: TypePost, Timestamp: time.Now()}
	p.Raw.Commit.Hash = hash
	return p
}

func TestIndexAddAndLookup(t *testing.T) {
	idx := NewIndex()
	p := newTestPost("#commit:abc123def456", "abc123def456", "")
	idx.AddPost(p)

	ids := idx.ByHash("abc123def456")
	if len(ids) != 1 || ids[0] != p.ID {
		t.Fatalf("byHash lookup failed: %v", ids)
	}
}

func TestIndexByRepository(t *testing.T) {
	idx := NewIndex()
	p := newTestPost("https://github.com/u/r#commit:abc123def456", "abc123def456", "https://github.com/u/r#branch:main")
	idx.AddPost(p)

	ids := idx.ByRepository("https://github.com/u/r#branch:main")
	if len(ids) != 1 || ids[0] != p.ID {
		t.Fatalf("byRepository lookup failed: %v", ids)
	}
}

func TestIndexAbsoluteMapping(t *testing.T) {
	idx := NewIndex()
	idx.SetAbsolute("https://origin/repo#commit:abc123def456", "#commit:abc123def456")
	rel, ok := idx.ResolveAbsolute("https://origin/repo#commit:abc123def456")
	if !ok || rel != "#commit:abc123def456" {
		t.Fatalf("absolute resolution failed: %q, %v", rel, ok)
	}
}

func TestIndexMergedExclusion(t *testing.T) {
	idx := NewIndex()
	idx.MarkMerged("virtual-id")
	if !idx.IsMerged("virtual-id") {
		t.Error("expected virtual-id to be marked merged")
	}
	if idx.IsMerged("other-id") {
		t.Error("expected other-id to not be merged")
	}
}

func TestIndexRemove(t *testing.T) {
	idx := NewIndex()
	p := newTestPost("#commit:abc123def456", "abc123def456", "")
	idx.AddPost(p)
	idx.RemovePost(p)
	if ids := idx.ByHash("abc123def456"); len(ids) != 0 {
		t.Errorf("expected empty after removal, got %v", ids)
	}
}
