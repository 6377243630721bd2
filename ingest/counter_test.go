package ingest

import (
	"testing"

	"github.com/gitsocial-org/gitsocial-sub002/post"
	"github.com/gitsocial-org/gitsocial-sub002/protocol"
)

func TestResolveToCanonicalPrefersAbsoluteMapping(t *testing.T) {
	idx := post.NewIndex()
	idx.SetAbsolute(origin+"#commit:abcdef012345", "#commit:abcdef012345")

	got := ResolveToCanonical(origin+"#commit:abcdef012345", origin, idx)
	if got != "#commit:abcdef012345" {
		t.Errorf("got %q", got)
	}
}

func TestResolveToCanonicalMyRepositoryPassesThrough(t *testing.T) {
	idx := post.NewIndex()
	got := ResolveToCanonical("#commit:abcdef012345", origin, idx)
	if got != "#commit:abcdef012345" {
		t.Errorf("got %q", got)
	}
}

func TestResolveToCanonicalStripsConfiguredOrigin(t *testing.T) {
	idx := post.NewIndex()
	id := protocol.NormalizeURL(origin) + "#commit:abcdef012345"
	got := ResolveToCanonical(id, origin, idx)
	if got != "#commit:abcdef012345" {
		t.Errorf("got %q", got)
	}
}

func TestResolveToCanonicalNoOriginConfigured(t *testing.T) {
	idx := post.NewIndex()
	id := "https://other/repo#commit:abcdef012345"
	got := ResolveToCanonical(id, protocol.NoOriginSentinel, idx)
	if got != id {
		t.Errorf("expected passthrough, got %q", got)
	}
}

func TestRecomputeCountsEachInteractionOnce(t *testing.T) {
	idx := post.NewIndex()
	target := workspacePost("t")
	comment := &post.Post{
		ID:             protocol.CreateRef(protocol.RefCommit, "c"),
		Type:           post.TypeComment,
		OriginalPostID: target.ID,
	}
	comment.Raw.Commit.Hash, _ = protocol.NormalizeHash("c")

	union := Recompute(nil, []*post.Post{target, comment}, origin, idx)

	var got *post.Post
	for _, p := range union {
		if p.ID == target.ID {
			got = p
		}
	}
	if got == nil {
		t.Fatal("target missing from union")
	}
	if got.Interactions.Comments != 1 {
		t.Errorf("comments = %d", got.Interactions.Comments)
	}
	if got.Display.TotalReposts != 0 {
		t.Errorf("totalReposts = %d", got.Display.TotalReposts)
	}
}

func TestRecomputeResetsPriorCounters(t *testing.T) {
	idx := post.NewIndex()
	target := workspacePost("t")
	target.Interactions.Comments = 99

	union := Recompute([]*post.Post{target}, nil, origin, idx)
	if union[0].Interactions.Comments != 0 {
		t.Errorf("expected reset to 0, got %d", union[0].Interactions.Comments)
	}
}

func TestRecomputeDedupesRepeatedPairAcrossCachedAndFresh(t *testing.T) {
	idx := post.NewIndex()
	target := workspacePost("t")
	comment := &post.Post{
		ID:             protocol.CreateRef(protocol.RefCommit, "c"),
		Type:           post.TypeComment,
		OriginalPostID: target.ID,
	}
	comment.Raw.Commit.Hash, _ = protocol.NormalizeHash("c")

	// Same (source, target) pair present in both cached and fresh sets
	// must still count once.
	union := Recompute([]*post.Post{target, comment}, []*post.Post{comment.Clone()}, origin, idx)

	var got *post.Post
	for _, p := range union {
		if p.ID == target.ID {
			got = p
		}
	}
	if got == nil {
		t.Fatal("target missing from union")
	}
	if got.Interactions.Comments != 1 {
		t.Errorf("expected deduped count of 1, got %d", got.Interactions.Comments)
	}
}

func TestLookupTargetFallsBackToAbsoluteThenOrigin(t *testing.T) {
	idx := post.NewIndex()
	target := workspacePost("t")
	byID := map[string]*post.Post{target.ID: target}

	abs := origin + "#commit:" + target.Raw.Commit.Hash
	idx.SetAbsolute(abs, target.ID)

	got := lookupTarget(byID, idx, origin, abs)
	if got != target {
		t.Fatalf("expected absolute-mapping fallback to resolve target")
	}

	idx2 := post.NewIndex()
	relID := protocol.CreateRef(protocol.RefCommit, target.Raw.Commit.Hash)
	byID2 := map[string]*post.Post{relID: target}
	stripped := protocol.NormalizeURL(origin) + "#commit:" + target.Raw.Commit.Hash
	got2 := lookupTarget(byID2, idx2, origin, stripped)
	if got2 != target {
		t.Fatalf("expected origin-stripping fallback to resolve target")
	}
}
