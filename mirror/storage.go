// Package mirror implements the Mirror Storage collaborator (spec
// §6): isolated, externally-mirrored bare repositories on disk,
// grounded on the teacher's go-git/v5 usage (remote/repo/repo.go,
// remote/fetcher/object_fetcher.go) for cloning/fetching and its
// backoff.Retry pattern for network resilience.
package mirror

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pkg/errors"

	"github.com/gitsocial-org/gitsocial-sub002/collab"
	"github.com/gitsocial-org/gitsocial-sub002/protocol"
)

const (
	remoteName       = "upstream"
	mirrorConfigFile = "gitsocial-mirror.json"
	configVersion    = 1
	mergeAdjacency   = 24 * time.Hour
	retryMaxElapsed  = 2 * time.Minute
)

// Store is the reference collab.MirrorStorage implementation.
type Store struct{}

// New returns a Store.
func New() *Store { return &Store{} }

func mirrorDir(storageBase, url string) string {
	sum := sha1.Sum([]byte(protocol.NormalizeURL(url)))
	return filepath.Join(storageBase, hex.EncodeToString(sum[:]))
}

func configPath(dir string) string {
	return filepath.Join(dir, mirrorConfigFile)
}

func retry(op func() error) error {
	bf := backoff.NewExponentialBackOff()
	bf.MaxElapsedTime = retryMaxElapsed
	return backoff.Retry(op, bf)
}

// Ensure implements collab.MirrorStorage: idempotently provisions a
// bare mirror of url/branch under storageBase. The mirror is a
// single-branch clone of depth 100; no partial-clone blob filter is
// applied, so blobs are fetched along with commits.
func (Store) Ensure(storageBase, url, branch string, opts collab.EnsureOptions) error {
	dir := mirrorDir(storageBase, url)
	if _, err := os.Stat(dir); err == nil {
		return nil
	}

	err := retry(func() error {
		_, cloneErr := git.PlainClone(dir, true, &git.CloneOptions{
			URL:           url,
			RemoteName:    remoteName,
			ReferenceName: plumbing.NewBranchReferenceName(branch),
			SingleBranch:  true,
			Depth:         100,
			Tags:          git.NoTags,
		})
		return cloneErr
	})
	if err != nil {
		return errors.Wrapf(err, "mirror: clone %q", url)
	}

	now := time.Now()
	return writeConfig(dir, collab.MirrorConfig{
		Version:      configVersion,
		LastFetch:    now,
		IsPersistent: opts.IsPersistent,
		CreatedAt:    now,
		Branch:       branch,
	})
}

// Fetch implements collab.MirrorStorage: extends the shallow history,
// skipping when the requested range is already covered.
func (Store) Fetch(storageBase, url, branch string, opts collab.FetchOptions) error {
	dir := mirrorDir(storageBase, url)
	cfg, err := readConfig(dir)
	if err != nil {
		return errors.Wrap(err, "mirror: fetch: read config")
	}

	today := time.Now()
	rng := collab.DateRange{Start: opts.Since, End: today}
	if rangeCovered(cfg.FetchedRanges, rng) {
		return nil
	}

	r, err := git.PlainOpen(dir)
	if err != nil {
		return errors.Wrapf(err, "mirror: open %q", dir)
	}

	err = retry(func() error {
		fetchErr := r.Fetch(&git.FetchOptions{
			RemoteName: remoteName,
			RefSpecs:   []config.RefSpec{config.RefSpec("+refs/heads/" + branch + ":refs/heads/" + branch)},
			Depth:      100,
		})
		if fetchErr == git.NoErrAlreadyUpToDate {
			return nil
		}
		return fetchErr
	})
	if err != nil {
		return errors.Wrapf(err, "mirror: fetch %q", url)
	}

	cfg.FetchedRanges = mergeRanges(cfg.FetchedRanges, rng)
	cfg.LastFetch = today
	return writeConfig(dir, cfg)
}

// GetCommits implements collab.MirrorStorage.
func (Store) GetCommits(storageBase, url string, q collab.CommitQuery) ([]collab.Commit, error) {
	dir := mirrorDir(storageBase, url)
	r, err := git.PlainOpen(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "mirror: open %q", dir)
	}

	branch := q.Branch
	if branch == "" {
		branch = protocol.DefaultBranch
	}
	refname := plumbing.ReferenceName("refs/heads/" + branch)
	ref, err := r.Reference(refname, true)
	if err != nil {
		return nil, errors.Wrapf(err, "mirror: resolve branch %q", branch)
	}

	iter, err := r.Log(&git.LogOptions{From: ref.Hash(), Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, errors.Wrap(err, "mirror: log")
	}

	var out []collab.Commit
	err = iter.ForEach(func(c *object.Commit) error {
		when := c.Committer.When
		if !q.Since.IsZero() && when.Before(q.Since) {
			return errStopWalk
		}
		if !q.Until.IsZero() && when.After(q.Until) {
			return nil
		}
		out = append(out, collab.Commit{
			Hash:      c.Hash.String(),
			Author:    c.Author.Name,
			Email:     c.Author.Email,
			Timestamp: when,
			Message:   c.Message,
			RefName:   string(refname),
		})
		if q.Limit > 0 && len(out) >= q.Limit {
			return errStopWalk
		}
		return nil
	})
	if err != nil && err != errStopWalk {
		return nil, err
	}
	return out, nil
}

var errStopWalk = errors.New("mirror: stop walk")

// ReadConfig implements collab.MirrorStorage.
func (Store) ReadConfig(storageBase, url string) (collab.MirrorConfig, error) {
	return readConfig(mirrorDir(storageBase, url))
}

func writeConfig(dir string, cfg collab.MirrorConfig) error {
	f, err := os.Create(configPath(dir))
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(cfg)
}

func readConfig(dir string) (collab.MirrorConfig, error) {
	var cfg collab.MirrorConfig
	f, err := os.Open(configPath(dir))
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	err = json.NewDecoder(f).Decode(&cfg)
	return cfg, err
}

// rangeCovered reports whether rng falls entirely within the union of
// ranges (gap-aware).
func rangeCovered(ranges []collab.DateRange, rng collab.DateRange) bool {
	for _, r := range ranges {
		if !rng.Start.Before(r.Start) && !rng.End.After(r.End) {
			return true
		}
	}
	return false
}

// mergeRanges inserts rng into ranges, merging with any range within
// mergeAdjacency (spec §6: "adjacency <=1 day merges").
func mergeRanges(ranges []collab.DateRange, rng collab.DateRange) []collab.DateRange {
	var merged []collab.DateRange
	for _, r := range ranges {
		if adjacent(r, rng) {
			rng = union(r, rng)
			continue
		}
		merged = append(merged, r)
	}
	return append(merged, rng)
}

func adjacent(a, b collab.DateRange) bool {
	if a.End.Add(mergeAdjacency).Before(b.Start) {
		return false
	}
	if b.End.Add(mergeAdjacency).Before(a.Start) {
		return false
	}
	return true
}

func union(a, b collab.DateRange) collab.DateRange {
	start := a.Start
	if b.Start.Before(start) {
		start = b.Start
	}
	end := a.End
	if b.End.After(end) {
		end = b.End
	}
	return collab.DateRange{Start: start, End: end}
}
