package ingest

import (
	"strings"

	"github.com/gitsocial-org/gitsocial-sub002/post"
	"github.com/gitsocial-org/gitsocial-sub002/protocol"
)

// ResolveToCanonical implements spec §4.5 resolveToCanonical: rewrite
// an id into the unique form used as a cache key before any
// cross-reference comparison.
func ResolveToCanonical(id, originURL string, idx *post.Index) string {
	if rel, ok := idx.ResolveAbsolute(id); ok {
		return rel
	}
	if protocol.IsMyRepository(id) {
		return id
	}
	if isOriginConfigured(originURL) {
		norm := protocol.NormalizeURL(originURL)
		if strings.HasPrefix(id, norm) {
			return strings.TrimPrefix(id, norm)
		}
	}
	return id
}

// Recompute implements spec §4.5: reset every post's interaction
// counters to zero, then recompute them over the union of cached and
// newly-ingested posts, deduplicating by (canonicalSource,
// canonicalTarget) pair so a merged virtual / re-ingested duplicate
// never double-counts. cached posts are cloned before being reset (the
// originals are left untouched); fresh posts are mutated in place. The
// full union is returned in fresh-last order (fresh overrides cached
// on id collision, matching admission order).
func Recompute(cached []*post.Post, fresh []*post.Post, originURL string, idx *post.Index) []*post.Post {
	byID := map[string]*post.Post{}
	union := make([]*post.Post, 0, len(cached)+len(fresh))

	for _, p := range cached {
		cp := p.Clone()
		union = append(union, cp)
		byID[cp.ID] = cp
	}
	for _, p := range fresh {
		union = append(union, p)
		byID[p.ID] = p
	}

	for _, p := range union {
		p.Interactions = post.Interactions{}
		p.Display.TotalReposts = 0
	}

	counted := map[string]struct{}{}

	for _, p := range union {
		if p.OriginalPostID == "" {
			continue
		}
		if p.Type != post.TypeComment && p.Type != post.TypeRepost && p.Type != post.TypeQuote {
			continue
		}

		canonSource := ResolveToCanonical(p.ID, originURL, idx)
		canonTarget := ResolveToCanonical(p.OriginalPostID, originURL, idx)
		pairKey := canonSource + "\x00" + canonTarget
		if _, seen := counted[pairKey]; seen {
			continue
		}
		counted[pairKey] = struct{}{}

		target := lookupTarget(byID, idx, originURL, p.OriginalPostID)
		if target == nil {
			continue
		}

		switch p.Type {
		case post.TypeComment:
			target.Interactions.Comments++
		case post.TypeRepost:
			target.Interactions.Reposts++
		case post.TypeQuote:
			target.Interactions.Quotes++
		}
		target.RecomputeTotalReposts()
	}

	return union
}

// lookupTarget implements the three-step target resolution of spec
// §4.5: direct lookup, then index.absolute[target], then (if target
// carries the configured origin URL) strip to "#commit:hash" and look
// that up.
func lookupTarget(byID map[string]*post.Post, idx *post.Index, originURL, target string) *post.Post {
	if t, ok := byID[target]; ok {
		return t
	}
	if rel, ok := idx.ResolveAbsolute(target); ok {
		if t, ok := byID[rel]; ok {
			return t
		}
	}
	if isOriginConfigured(originURL) {
		norm := protocol.NormalizeURL(originURL)
		if strings.HasPrefix(target, norm) {
			if t, ok := byID[strings.TrimPrefix(target, norm)]; ok {
				return t
			}
		}
	}
	return nil
}
