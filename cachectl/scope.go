package cachectl

import (
	"fmt"
	"strings"

	"github.com/gitsocial-org/gitsocial-sub002/protocol"
)

// ScopeKind identifies one of the getCachedPosts scope grammar shapes
// (spec §4.6 Scope grammar table).
type ScopeKind string

const (
	ScopeAll        ScopeKind = "all"
	ScopeRepository ScopeKind = "repository"
	ScopeTimeline   ScopeKind = "timeline"
	ScopeList       ScopeKind = "list"
	ScopePost       ScopeKind = "post"
	ScopeByID       ScopeKind = "byId"
	ScopeThread     ScopeKind = "thread"
)

// myRepositoryMarker is the literal used in "repository:my".
const myRepositoryMarker = "my"

// Scope is the parsed form of a getCachedPosts scope string.
type Scope struct {
	Kind ScopeKind

	RepoURL    string // "my", or a normalized repository URL
	RepoBranch string
	ListID     string // scope=list, or the optional "/list:<id>" suffix on repository

	PostID string
	IDs    []string

	ThreadID string
}

// ParseScope parses one of: all, repository:my, repository:<url>[/list:<id>],
// timeline, list:<id>, post:<id>, byId:<csv>, thread:<id>.
func ParseScope(raw string) (Scope, error) {
	raw = strings.TrimSpace(raw)

	switch raw {
	case string(ScopeAll):
		return Scope{Kind: ScopeAll}, nil
	case string(ScopeTimeline):
		return Scope{Kind: ScopeTimeline}, nil
	}

	if value, ok := cutPrefix(raw, "repository:"); ok {
		return parseRepositoryScope(value)
	}
	if value, ok := cutPrefix(raw, "list:"); ok {
		if value == "" {
			return Scope{}, fmt.Errorf("cachectl: empty list scope")
		}
		return Scope{Kind: ScopeList, ListID: value}, nil
	}
	if value, ok := cutPrefix(raw, "post:"); ok {
		if value == "" {
			return Scope{}, fmt.Errorf("cachectl: empty post scope")
		}
		return Scope{Kind: ScopePost, PostID: value}, nil
	}
	if value, ok := cutPrefix(raw, "byId:"); ok {
		ids := splitCSV(value)
		if len(ids) == 0 {
			return Scope{}, fmt.Errorf("cachectl: empty byId scope")
		}
		return Scope{Kind: ScopeByID, IDs: ids}, nil
	}
	if value, ok := cutPrefix(raw, "thread:"); ok {
		if value == "" {
			return Scope{}, fmt.Errorf("cachectl: empty thread scope")
		}
		return Scope{Kind: ScopeThread, ThreadID: value}, nil
	}

	return Scope{}, fmt.Errorf("cachectl: invalid scope %q", raw)
}

func parseRepositoryScope(value string) (Scope, error) {
	if value == myRepositoryMarker {
		return Scope{Kind: ScopeRepository, RepoURL: myRepositoryMarker}, nil
	}

	listID := ""
	if idx := strings.LastIndex(value, "/list:"); idx >= 0 {
		listID = value[idx+len("/list:"):]
		value = value[:idx]
	}

	if !protocol.ValidateURL(value) {
		return Scope{}, fmt.Errorf("cachectl: invalid repository scope url %q", value)
	}

	repoID := protocol.ParseRepositoryID(value)
	return Scope{Kind: ScopeRepository, RepoURL: repoID.Repo, RepoBranch: repoID.Branch, ListID: listID}, nil
}

func cutPrefix(s, prefix string) (string, bool) {
	if !strings.HasPrefix(s, prefix) {
		return "", false
	}
	return strings.TrimPrefix(s, prefix), true
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// RefreshScopeKind identifies one of the refresh() scope shapes.
type RefreshScopeKind string

const (
	RefreshAll          RefreshScopeKind = "all"
	RefreshHashes       RefreshScopeKind = "hashes"
	RefreshRepositories RefreshScopeKind = "repositories"
	RefreshLists        RefreshScopeKind = "lists"
)

// RefreshScope is the parsed form of a refresh() scope argument.
type RefreshScope struct {
	Kind         RefreshScopeKind
	Hashes       []string
	Repositories []string
	Lists        []string
}
