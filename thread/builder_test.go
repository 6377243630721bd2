package thread

import (
	"testing"
	"time"

	"github.com/gitsocial-org/gitsocial-sub002/post"
)

func mkPost(id string, typ post.Type, original, parent string) *post.Post {
	return &post.Post{
		ID:              id,
		Type:            typ,
		OriginalPostID:  original,
		ParentCommentID: parent,
		Timestamp:       time.Now(),
	}
}

// Scenario 5: P1 (#commit:p1, post), P2 (#commit:p2, comment,
// originalPostId #commit:p1), P3 (#commit:p3, comment, originalPostId
// #commit:p1, parentCommentId #commit:p2). thread:#commit:p2 should
// return anchor P2, parents [P1], children [P3], threadRootId
// #commit:p1.
func TestBuildScenario5(t *testing.T) {
	p1 := mkPost("#commit:p1", post.TypePost, "", "")
	p2 := mkPost("#commit:p2", post.TypeComment, "#commit:p1", "")
	p3 := mkPost("#commit:p3", post.TypeComment, "#commit:p1", "#commit:p2")

	all := []*post.Post{p1, p2, p3}

	r := Build(all, "#commit:p2", SortLatest)
	if !r.Success {
		t.Fatalf("expected success, got %v", r.Err)
	}
	res := r.Data

	if res.Anchor.ID != "#commit:p2" {
		t.Errorf("anchor = %q", res.Anchor.ID)
	}
	if res.ThreadRootID != "#commit:p1" {
		t.Errorf("threadRootId = %q", res.ThreadRootID)
	}
	if len(res.ParentPosts) != 1 || res.ParentPosts[0].ID != "#commit:p1" {
		t.Errorf("parents = %v", res.ParentPosts)
	}
	if len(res.ChildPosts) != 1 || res.ChildPosts[0].ID != "#commit:p3" {
		t.Errorf("children = %v", res.ChildPosts)
	}
}

func TestBuildAnchorNotFound(t *testing.T) {
	r := Build(nil, "#commit:missing", SortLatest)
	if r.Success {
		t.Fatal("expected failure for missing anchor")
	}
	if r.Err.Kind != "not_found" {
		t.Errorf("kind = %q", r.Err.Kind)
	}
}

// A repost of the anchor should not show up as a child comment, but a
// reply to the anchor should.
func TestBuildExcludesRepostsFromChildrenUnlessAlsoAReply(t *testing.T) {
	anchor := mkPost("#commit:a", post.TypePost, "", "")
	repost := mkPost("#commit:r", post.TypeRepost, "#commit:a", "")
	reply := mkPost("#commit:c", post.TypeComment, "", "#commit:a")

	all := []*post.Post{anchor, repost, reply}
	r := Build(all, "#commit:a", SortLatest)
	if !r.Success {
		t.Fatalf("expected success, got %v", r.Err)
	}
	for _, c := range r.Data.ChildPosts {
		if c.ID == "#commit:r" {
			t.Errorf("repost should not appear as a thread child")
		}
	}
	found := false
	for _, c := range r.Data.ChildPosts {
		if c.ID == "#commit:c" {
			found = true
		}
	}
	if !found {
		t.Error("expected reply comment among children")
	}
}

func TestBuildTopSortOrdersByInteractionCount(t *testing.T) {
	anchor := mkPost("#commit:a", post.TypePost, "", "")
	low := mkPost("#commit:low", post.TypeComment, "", "#commit:a")
	low.Timestamp = time.Now().Add(-time.Hour)
	high := mkPost("#commit:high", post.TypeComment, "", "#commit:a")
	high.Interactions.Comments = 5

	all := []*post.Post{anchor, low, high}
	r := Build(all, "#commit:a", SortTop)
	if !r.Success {
		t.Fatalf("expected success, got %v", r.Err)
	}
	if len(r.Data.ChildPosts) != 2 || r.Data.ChildPosts[0].ID != "#commit:high" {
		t.Errorf("expected high-interaction child first, got %v", r.Data.ChildPosts)
	}
}
