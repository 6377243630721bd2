// Package collab defines the collaborator contracts the Cache
// Controller depends on (spec §6): git command execution, isolated
// mirror storage, and list management. These are intentionally
// interfaces only — the core engine never assumes a particular git
// backend or storage layout. Reference implementations live in
// gitcollab/, mirror/ and config/.
package collab

import "time"

// Commit is a single commit record as read from a repository
// (workspace or mirror), independent of how it was fetched.
type Commit struct {
	Hash      string
	Author    string
	Email     string
	Timestamp time.Time
	Message   string
	RefName   string
}

// CommitQuery bounds a commit enumeration.
type CommitQuery struct {
	Branch string
	Since  time.Time
	Until  time.Time // zero means unbounded
	Limit  int        // 0 means unbounded
}

// Remote is a configured git remote.
type Remote struct {
	Name string
	URL  string
}

// Git is the collaborator boundary for reading the workspace
// repository's state.
type Git interface {
	// GetConfiguredBranch reads the repository-level social config
	// (refs/gitmsg/social/config), falling back to origin/HEAD or
	// "main".
	GetConfiguredBranch(workdir string) (string, error)

	// GetCommits returns commits on q.Branch reachable within the
	// requested date window.
	GetCommits(workdir string, q CommitQuery) ([]Commit, error)

	// GetUnpushedCommits returns the set of hashes on branch not
	// present under refs/remotes/origin/.
	GetUnpushedCommits(workdir, branch string) (map[string]struct{}, error)

	// GetOriginUrl returns the origin remote URL, or the literal
	// protocol.NoOriginSentinel when no remote is configured.
	GetOriginUrl(workdir string) (string, error)

	// ListRemotes returns every configured remote.
	ListRemotes(workdir string) ([]Remote, error)
}

// EnsureOptions configures mirror provisioning.
type EnsureOptions struct {
	IsPersistent bool
}

// FetchOptions bounds an incremental mirror fetch.
type FetchOptions struct {
	Since time.Time
}

// DateRange is an inclusive {start,end} window of fetched history.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// MirrorConfig is the persisted record of a provisioned mirror.
type MirrorConfig struct {
	Version       int
	LastFetch     time.Time
	FetchedRanges []DateRange
	IsPersistent  bool
	CreatedAt     time.Time
	Branch        string
}

// MirrorStorage is the collaborator boundary for isolated,
// externally-mirrored repositories on disk.
type MirrorStorage interface {
	// Ensure provisions a bare partial-clone mirror of url/branch
	// under storageBase, idempotently.
	Ensure(storageBase, url, branch string, opts EnsureOptions) error

	// Fetch extends the shallow history of an existing mirror,
	// merging the new range into its fetchedRanges (adjacency <= 1
	// day merges). A no-op when the requested range is already
	// covered.
	Fetch(storageBase, url, branch string, opts FetchOptions) error

	// GetCommits reads commits from a mirror.
	GetCommits(storageBase, url string, q CommitQuery) ([]Commit, error)

	// ReadConfig reads a mirror's persisted configuration.
	ReadConfig(storageBase, url string) (MirrorConfig, error)
}

// List is a named collection of repository references a workdir
// tracks.
type List struct {
	ID           string
	Repositories []string // normalized repository URLs
}

// ListStorage is the collaborator boundary for persisted reading
// lists.
type ListStorage interface {
	GetLists(workdir string) ([]List, error)
	GetAllListsFromStorage(workdir string) ([]List, error)
	IsPostInList(postRepository, listID, workdir string) (bool, error)
}
