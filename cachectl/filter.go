package cachectl

import (
	"sort"
	"time"

	"github.com/gitsocial-org/gitsocial-sub002/post"
	"github.com/gitsocial-org/gitsocial-sub002/thread"
)

// SortBy is the getCachedPosts filter.sortBy enum.
type SortBy string

const (
	SortLatest SortBy = "latest"
	SortOldest SortBy = "oldest"
	SortTop    SortBy = "top"
)

func (s SortBy) threadOrder() thread.SortOrder {
	switch s {
	case SortOldest:
		return thread.SortOldest
	case SortTop:
		return thread.SortTop
	default:
		return thread.SortLatest
	}
}

// Filter bounds a getCachedPosts query.
type Filter struct {
	Types     []post.Type
	Since     time.Time
	Until     time.Time
	Limit     int
	SortBy    SortBy
	SkipCache bool
}

// ListContext supplies the repository set for a list: scope that
// falls through list membership (spec §4.6 scope grammar).
type ListContext struct {
	Repositories []string
}

// QueryContext is the optional extra context a getCachedPosts caller
// may supply.
type QueryContext struct {
	List ListContext
}

// ScopeResult is what a getCachedPosts query returns: a flat post list
// for every scope except thread:<id>, which populates Thread instead.
type ScopeResult struct {
	Posts  []*post.Post
	Thread *thread.Result
}

func matchesType(p *post.Post, types []post.Type) bool {
	if len(types) == 0 {
		return true
	}
	for _, t := range types {
		if p.Type == t {
			return true
		}
	}
	return false
}

// applyFilter filters, sorts, limits and deep-copies posts per spec
// §4.6 filter options.
func applyFilter(posts []*post.Post, f Filter) []*post.Post {
	out := make([]*post.Post, 0, len(posts))
	for _, p := range posts {
		if !matchesType(p, f.Types) {
			continue
		}
		if !f.Since.IsZero() && p.Timestamp.Before(f.Since) {
			continue
		}
		if !f.Until.IsZero() && p.Timestamp.After(f.Until) {
			continue
		}
		out = append(out, p)
	}

	switch f.SortBy {
	case SortOldest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	case SortTop:
		sort.SliceStable(out, func(i, j int) bool {
			si, sj := out[i].RankScore(), out[j].RankScore()
			if si != sj {
				return si > sj
			}
			return out[i].Timestamp.After(out[j].Timestamp)
		})
	default: // SortLatest, the default
		sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	}

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}

	clones := make([]*post.Post, len(out))
	for i, p := range out {
		clones[i] = p.Clone()
	}
	return clones
}
