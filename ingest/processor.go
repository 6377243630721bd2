// Package ingest implements the Reference Processor & Deduplicator
// (spec §4.4) and the Interaction Counter (spec §4.5), which together
// turn a freshly-transformed batch of posts into the unified,
// duplicate-free, interaction-counted graph the Cache Controller
// admits.
package ingest

import (
	"strings"

	"github.com/thoas/go-funk"

	"github.com/gitsocial-org/gitsocial-sub002/gitmsg"
	"github.com/gitsocial-org/gitsocial-sub002/post"
	"github.com/gitsocial-org/gitsocial-sub002/protocol"
	"github.com/gitsocial-org/gitsocial-sub002/transform"
)

// Logger is the minimal logging surface ingest needs.
type Logger interface {
	Warn(msg string, keyValues ...interface{})
	Debug(msg string, keyValues ...interface{})
}

// Item pairs a transformed Post with the GitMsg-Ref sections found in
// its original commit message (empty for virtual posts and for posts
// with no GitMsg header at all), so the processor can expand them
// into candidate virtual posts (spec §4.4e).
type Item struct {
	Post       *post.Post
	References []*gitmsg.Reference
}

func isOriginConfigured(originURL string) bool {
	return originURL != "" && originURL != protocol.NoOriginSentinel
}

// Process runs the Reference Processor & Deduplicator over items in
// order, admitting posts into a fresh working map and updating idx
// with absolute↔relative mappings and merged-virtual markers.
func Process(items []Item, originURL string, idx *post.Index, log Logger) map[string]*post.Post {
	working := map[string]*post.Post{}
	normOrigin := ""
	if isOriginConfigured(originURL) {
		normOrigin = protocol.NormalizeURL(originURL)
	}

	for _, it := range items {
		p := it.Post
		renormalizeInnerRefs(p, normOrigin)

		if p.IsWorkspacePost && normOrigin != "" {
			abs := protocol.CreateRef(protocol.RefCommit, p.Hash12(), normOrigin)
			idx.SetAbsolute(abs, p.ID)
		}

		if !p.IsWorkspacePost && normOrigin != "" {
			if dup := tryDropExternalDuplicate(p, normOrigin, working, idx); dup {
				continue
			}
		}

		admit(working, p)

		for _, ref := range it.References {
			expandReference(ref, normOrigin, working, idx, log)
		}
	}

	return working
}

// renormalizeInnerRefs re-applies reference normalization now that
// the full repository context (origin URL for workspace posts, or the
// post's own repository for external posts) is known (spec §4.4a).
func renormalizeInnerRefs(p *post.Post, normOrigin string) {
	ctx := ""
	if p.IsWorkspacePost {
		if normOrigin == "" {
			return
		}
		ctx = normOrigin
	} else {
		ctx = protocol.ParseRef(p.ID).Repo
	}

	rewrite := func(ref string) string {
		if ref == "" {
			return ref
		}
		parsed := protocol.ParseRef(ref)
		if parsed.Type == protocol.RefUnknown {
			return ref
		}
		if parsed.IsAbsolute() {
			return protocol.NormalizeRef(ref)
		}
		return protocol.NormalizeHashInRefWithContext(ref, ctx)
	}

	p.OriginalPostID = rewrite(p.OriginalPostID)
	p.ParentCommentID = rewrite(p.ParentCommentID)
}

// tryDropExternalDuplicate implements spec §4.4c: an external post
// that duplicates an already-admitted workspace post is dropped, and
// the absolute→relative mapping recorded.
func tryDropExternalDuplicate(p *post.Post, normOrigin string, working map[string]*post.Post, idx *post.Index) bool {
	parsed := protocol.ParseRef(p.ID)
	if parsed.Repo != normOrigin {
		return false
	}
	relative := protocol.CreateRef(protocol.RefCommit, parsed.Value)
	if _, exists := working[relative]; !exists {
		return false
	}
	idx.SetAbsolute(p.ID, relative)
	return true
}

// admit implements spec §4.4d: admitted when there is no existing
// entry, or when the incoming post is explicit and the existing one
// is not. Two explicit posts with the same id resolve to the
// existing one.
func admit(working map[string]*post.Post, p *post.Post) {
	existing, ok := working[p.ID]
	if !ok {
		working[p.ID] = p
		return
	}
	if p.Source == post.SourceExplicit && existing.Source != post.SourceExplicit {
		working[p.ID] = p
	}
}

// expandReference implements spec §4.4e/f: every ext=social reference
// with non-empty quoted metadata becomes a candidate virtual post;
// when it targets an existing workspace post it is merged instead of
// admitted.
func expandReference(ref *gitmsg.Reference, normOrigin string, working map[string]*post.Post, idx *post.Index, log Logger) {
	if ref.Ext != "social" {
		return
	}
	if strings.TrimSpace(ref.QuotedBody()) == "" {
		return
	}

	vp, err := transform.FromVirtualReference(transform.VirtualCommitInput{Ref: ref}, log)
	if err != nil {
		if log != nil {
			log.Debug("ingest: skipping embedded reference", "ref", ref.Ref, "err", err.Error())
		}
		return
	}

	if mergeVirtualIntoWorkspace(vp, normOrigin, working, idx) {
		return
	}

	if _, exists := working[vp.ID]; !exists {
		working[vp.ID] = vp
	}
}

// mergeVirtualIntoWorkspace implements spec §4.4f.
func mergeVirtualIntoWorkspace(vp *post.Post, normOrigin string, working map[string]*post.Post, idx *post.Index) bool {
	var targetRel string
	switch {
	case vp.IsWorkspacePost:
		targetRel = vp.ID
	case normOrigin != "":
		parsed := protocol.ParseRef(vp.ID)
		if parsed.Repo == normOrigin {
			targetRel = protocol.CreateRef(protocol.RefCommit, parsed.Value)
		}
	}
	if targetRel == "" {
		return false
	}

	target, exists := working[targetRel]
	if !exists {
		return false
	}

	if funk.ContainsString([]string{string(post.TypeComment), string(post.TypeRepost), string(post.TypeQuote)}, string(vp.Type)) {
		switch vp.Type {
		case post.TypeComment:
			target.Interactions.Comments++
		case post.TypeRepost:
			target.Interactions.Reposts++
		case post.TypeQuote:
			target.Interactions.Quotes++
		}
		target.RecomputeTotalReposts()
	}

	if !protocol.IsMyRepository(vp.ID) {
		idx.SetAbsolute(vp.ID, targetRel)
	}
	idx.MarkMerged(vp.ID)
	return true
}
