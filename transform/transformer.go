// Package transform converts a raw commit or an embedded reference
// body into a Post (spec §4.3).
package transform

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/pkg/errors"

	"github.com/gitsocial-org/gitsocial-sub002/collab"
	"github.com/gitsocial-org/gitsocial-sub002/gitmsg"
	"github.com/gitsocial-org/gitsocial-sub002/post"
	"github.com/gitsocial-org/gitsocial-sub002/protocol"
)

// ErrRejected marks a post dropped by an invariant check (spec §4.3
// step 8 / §7 InternalInvariant).
var ErrRejected = errors.New("transform: post rejected")

// RealCommitInput is everything the Transformer needs to turn one
// real commit into a Post.
type RealCommitInput struct {
	Commit collab.Commit

	// RepositoryURL is the external mirror's identifier, ignored for
	// workspace commits.
	RepositoryURL string

	Branch string

	// RemoteName is the name the commit was read through ("" for the
	// local workspace HEAD, "upstream" for a mirrored repository per
	// the MirrorStorage contract's remote naming convention).
	RemoteName string

	// HasOrigin, OriginURL describe the workspace's configured origin
	// remote, or the zero value / protocol.NoOriginSentinel when
	// absent.
	HasOrigin bool
	OriginURL string

	// UnpushedHashes is nil when the collaborator call that would
	// produce it failed; non-nil (possibly empty) otherwise.
	UnpushedHashes map[string]struct{}
}

// VirtualCommitInput is everything the Transformer needs to turn one
// embedded GitMsg-Ref section into a virtual Post.
type VirtualCommitInput struct {
	Ref *gitmsg.Reference
}

// Logger is the minimal logging surface the Transformer needs, kept
// narrow so tests can pass a no-op without pulling in pkgs/logger.
type Logger interface {
	Warn(msg string, keyValues ...interface{})
}

// FromRealCommit implements spec §4.3 for a real commit.
func FromRealCommit(in RealCommitInput, log Logger) (*post.Post, error) {
	isWorkspace := in.RemoteName != "upstream"

	parsed := gitmsg.Parse(in.Commit.Message, nil)

	var content, cleanContent string
	var src post.Source
	var typ post.Type = post.TypePost
	var originalRaw, replyToRaw string
	var headerSnap *post.HeaderSnapshot

	if parsed != nil {
		content = parsed.Content
		cleanContent = parsed.CleanContent
		src = post.SourceExplicit
		if t, ok := parsed.Header.Fields.Get("type"); ok && t != "" {
			typ = post.Type(t)
		}
		originalRaw, _ = parsed.Header.Fields.Get("original")
		replyToRaw, _ = parsed.Header.Fields.Get("reply-to")
		headerSnap = &post.HeaderSnapshot{
			Ext:        parsed.Header.Ext,
			Type:       string(typ),
			Version:    parsed.Header.Version,
			ExtVersion: parsed.Header.ExtVersion,
		}
	} else {
		content = in.Commit.Message
		cleanContent = in.Commit.Message
		src = post.SourceImplicit
	}

	hash, err := protocol.NormalizeHash(in.Commit.Hash)
	if err != nil {
		return nil, errors.Wrapf(err, "transform: bad commit hash %q", in.Commit.Hash)
	}

	var repoURL string
	if isWorkspace {
		if in.OriginURL != "" && in.OriginURL != protocol.NoOriginSentinel {
			repoURL = protocol.NormalizeURL(in.OriginURL)
		}
	} else {
		repoURL = protocol.NormalizeURL(in.RepositoryURL)
	}

	repository := ""
	if repoURL != "" {
		if in.Branch != "" {
			repository = protocol.RepositoryID{Repo: repoURL, Branch: in.Branch}.String()
		} else {
			repository = repoURL
		}
	}

	var id string
	if isWorkspace {
		id = protocol.CreateRef(protocol.RefCommit, hash)
	} else {
		id = protocol.CreateRef(protocol.RefCommit, hash, repoURL)
	}

	isUnpushed := false
	if in.HasOrigin {
		if in.UnpushedHashes != nil {
			_, isUnpushed = in.UnpushedHashes[hash]
		} else {
			isUnpushed = !strings.HasPrefix(in.Commit.RefName, "refs/remotes/origin/")
		}
	}

	p := &post.Post{
		ID:              id,
		Repository:      repository,
		Branch:          in.Branch,
		Author:          post.Author{Name: in.Commit.Author, Email: in.Commit.Email},
		Timestamp:       in.Commit.Timestamp,
		Content:         content,
		CleanContent:    cleanContent,
		Type:            typ,
		Source:          src,
		IsWorkspacePost: isWorkspace,
		IsVirtual:       false,
		Raw: post.Raw{
			Commit: post.RawCommit{
				Hash:      hash,
				Author:    in.Commit.Author,
				Email:     in.Commit.Email,
				Timestamp: in.Commit.Timestamp,
				Message:   in.Commit.Message,
				RefName:   in.Commit.RefName,
			},
			Header: headerSnap,
		},
		Display: post.Display{
			RepositoryName:  repository,
			CommitHash:      hash,
			IsUnpushed:      isUnpushed,
			IsWorkspacePost: isWorkspace,
		},
	}

	p.OriginalPostID = normalizeInnerRef(originalRaw, isWorkspace, repoURL)
	p.ParentCommentID = normalizeInnerRef(replyToRaw, isWorkspace, repoURL)

	if p.Type != post.TypePost && p.OriginalPostID == "" {
		if log != nil {
			log.Warn("transform: dropping post lacking originalPostId", "id", p.ID, "type", p.Type)
		}
		return nil, errors.Wrapf(ErrRejected, "post %q of type %q has no originalPostId", p.ID, p.Type)
	}

	return p, nil
}

// FromVirtualReference implements spec §4.3 for an embedded reference
// body.
func FromVirtualReference(in VirtualCommitInput, log Logger) (*post.Post, error) {
	ref := in.Ref

	quoted := ref.QuotedBody()
	if strings.TrimSpace(quoted) == "" {
		return nil, errors.Wrap(ErrRejected, "virtual post has no quoted metadata body")
	}

	parsedRef := protocol.ParseRef(ref.Ref)
	if parsedRef.Type != protocol.RefCommit {
		return nil, errors.Wrapf(ErrRejected, "virtual post ref %q is not a commit reference", ref.Ref)
	}

	isWorkspace := protocol.IsMyRepository(ref.Ref)
	repoURL := parsedRef.Repo

	var id string
	if isWorkspace {
		id = protocol.CreateRef(protocol.RefCommit, parsedRef.Value)
	} else {
		id = protocol.CreateRef(protocol.RefCommit, parsedRef.Value, repoURL)
	}

	typ := post.TypePost
	if t, ok := ref.Fields.Get("type"); ok && t != "" {
		typ = post.Type(t)
	}
	originalRaw, _ := ref.Fields.Get("original")
	replyToRaw, _ := ref.Fields.Get("reply-to")

	ts := time.Time{}
	if parsedTime, err := dateparse.ParseAny(ref.Time); err == nil {
		ts = parsedTime
	} else if log != nil {
		log.Warn("transform: could not parse virtual post timestamp", "raw", ref.Time)
	}

	repository := repoURL

	p := &post.Post{
		ID:              id,
		Repository:      repository,
		Author:          post.Author{Name: ref.Author, Email: ref.Email},
		Timestamp:       ts.Round(time.Millisecond),
		Content:         quoted,
		CleanContent:    quoted,
		Type:            typ,
		Source:          post.SourceExplicit,
		IsWorkspacePost: isWorkspace,
		IsVirtual:       true,
		Raw: post.Raw{
			Commit: post.RawCommit{
				Hash:      parsedRef.Value,
				Author:    ref.Author,
				Email:     ref.Email,
				Timestamp: ts,
				Message:   quoted,
			},
			Header: &post.HeaderSnapshot{Ext: ref.Ext, Type: string(typ), Version: ref.Version, ExtVersion: ref.ExtVersion},
		},
		Display: post.Display{
			RepositoryName:  repository,
			CommitHash:      parsedRef.Value,
			IsWorkspacePost: isWorkspace,
		},
	}

	p.OriginalPostID = normalizeInnerRef(originalRaw, isWorkspace, repoURL)
	p.ParentCommentID = normalizeInnerRef(replyToRaw, isWorkspace, repoURL)

	if p.Type != post.TypePost && p.OriginalPostID == "" {
		if log != nil {
			log.Warn("transform: dropping virtual post lacking originalPostId", "id", p.ID)
		}
		return nil, errors.Wrapf(ErrRejected, "virtual post %q of type %q has no originalPostId", p.ID, p.Type)
	}

	return p, nil
}

// normalizeInnerRef implements spec §4.3 step 7: external posts always
// resolve their stored references to an absolute form; workspace
// posts keep them relative (only canonicalized).
func normalizeInnerRef(raw string, isWorkspace bool, ctxRepoURL string) string {
	if raw == "" {
		return ""
	}
	if isWorkspace {
		return protocol.NormalizeRef(raw)
	}
	p := protocol.ParseRef(raw)
	if p.Type == protocol.RefUnknown {
		return raw
	}
	if p.IsAbsolute() {
		return protocol.NormalizeRef(raw)
	}
	return protocol.NormalizeHashInRefWithContext(raw, ctxRepoURL)
}
