// Package thread implements Thread Builder (spec §4.8): reconstructs
// an anchor-plus-parents-plus-children view from the indexed cache.
package thread

import (
	"sort"

	"github.com/gitsocial-org/gitsocial-sub002/post"
	"github.com/gitsocial-org/gitsocial-sub002/protocol"
	"github.com/gitsocial-org/gitsocial-sub002/result"
)

// SortOrder controls how Children are ordered.
type SortOrder string

const (
	SortTop    SortOrder = "top"
	SortOldest SortOrder = "oldest"
	SortLatest SortOrder = "latest"
)

// Result is the reconstructed thread view.
type Result struct {
	Anchor       *post.Post
	ParentPosts  []*post.Post // [original?, ...chain], top-to-bottom
	ChildPosts   []*post.Post
	ThreadRootID string
}

// refsMatch considers two ids equal when string-equal, or when both
// parse as commit references with identical hash values (spec §4.8
// step 3).
func refsMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	pa := protocol.ParseRef(a)
	pb := protocol.ParseRef(b)
	return pa.Type == protocol.RefCommit && pb.Type == protocol.RefCommit && pa.Value == pb.Value
}

func findByMatch(all []*post.Post, byID map[string]*post.Post, targetID string) *post.Post {
	if targetID == "" {
		return nil
	}
	if p, ok := byID[targetID]; ok {
		return p
	}
	for _, p := range all {
		if refsMatch(p.ID, targetID) {
			return p
		}
	}
	return nil
}

// Build reconstructs the thread rooted (eventually) at anchorID.
func Build(all []*post.Post, anchorID string, order SortOrder) result.Result[*Result] {
	byID := make(map[string]*post.Post, len(all))
	for _, p := range all {
		byID[p.ID] = p
	}

	anchor, ok := byID[anchorID]
	if !ok {
		return result.NotFound[*Result]("POST_NOT_FOUND")
	}

	// Step 3: walk originalPostId chain upward to find the thread root.
	root := anchor
	visited := map[string]bool{root.ID: true}
	for root.OriginalPostID != "" {
		next := findByMatch(all, byID, root.OriginalPostID)
		if next == nil || visited[next.ID] {
			break
		}
		visited[next.ID] = true
		root = next
	}
	threadRootID := root.ID

	// Step 4: walk parentCommentId chain upward from the anchor.
	var chain []*post.Post
	seenParents := map[string]bool{}
	cur := anchor
	for cur.ParentCommentID != "" {
		parent := findByMatch(all, byID, cur.ParentCommentID)
		if parent == nil || seenParents[parent.ID] {
			break
		}
		seenParents[parent.ID] = true
		chain = append(chain, parent) // nearest-parent-first
		cur = parent
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i] // now top-to-bottom
	}

	// Step 5: locate the extra "original" to display above the chain.
	var original *post.Post
	topParent := anchor
	if len(chain) > 0 {
		topParent = chain[0]
	}
	if topParent.OriginalPostID != "" {
		original = findByMatch(all, byID, topParent.OriginalPostID)
	} else if anchor.OriginalPostID != "" && anchor.Type != post.TypeQuote {
		original = findByMatch(all, byID, anchor.OriginalPostID)
	}

	parents := make([]*post.Post, 0, len(chain)+1)
	if original != nil {
		parents = append(parents, original)
	}
	parents = append(parents, chain...)

	// Step 6: children.
	var children []*post.Post
	for _, p := range all {
		if p.ID == anchor.ID {
			continue
		}
		matchOriginal := refsMatch(p.OriginalPostID, anchor.ID)
		matchParent := refsMatch(p.ParentCommentID, anchor.ID)
		if !matchOriginal && !matchParent {
			continue
		}
		if matchOriginal && !matchParent && p.Type == post.TypeRepost {
			continue
		}
		children = append(children, p)
	}

	sortChildren(children, order)

	return result.Ok(&Result{
		Anchor:       anchor,
		ParentPosts:  parents,
		ChildPosts:   children,
		ThreadRootID: threadRootID,
	})
}

func sortChildren(children []*post.Post, order SortOrder) {
	switch order {
	case SortOldest:
		sort.SliceStable(children, func(i, j int) bool {
			return children[i].Timestamp.Before(children[j].Timestamp)
		})
	case SortTop:
		sort.SliceStable(children, func(i, j int) bool {
			si, sj := children[i].RankScore(), children[j].RankScore()
			if si != sj {
				return si > sj
			}
			return children[i].Timestamp.After(children[j].Timestamp)
		})
	default: // SortLatest
		sort.SliceStable(children, func(i, j int) bool {
			return children[i].Timestamp.After(children[j].Timestamp)
		})
	}
}
