// Package gitcollab implements the Git collaborator (spec §6) against
// a real on-disk working tree, grounded on the teacher's go-git/v5
// repository wrapper (remote/repo/repo.go): open once with
// git.PlainOpen, walk history with the object.CommitIter, and resolve
// remotes/refs through the same plumbing package.
package gitcollab

import (
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pkg/errors"

	"github.com/gitsocial-org/gitsocial-sub002/collab"
	"github.com/gitsocial-org/gitsocial-sub002/protocol"
)

// socialConfigRef is the repository-level ref read by
// GetConfiguredBranch (spec §6).
const socialConfigRef = "refs/gitmsg/social/config"

// Repo is the reference collab.Git implementation.
type Repo struct{}

// New returns a Repo. It carries no state: every call re-opens the
// working tree at the given path, matching the collaborator contract
// of taking workdir per call.
func New() *Repo {
	return &Repo{}
}

func open(workdir string) (*git.Repository, error) {
	r, err := git.PlainOpen(workdir)
	if err != nil {
		return nil, errors.Wrapf(err, "gitcollab: open %q", workdir)
	}
	return r, nil
}

// GetConfiguredBranch implements collab.Git.
func (Repo) GetConfiguredBranch(workdir string) (string, error) {
	r, err := open(workdir)
	if err != nil {
		return "", err
	}

	if ref, err := r.Reference(plumbing.ReferenceName(socialConfigRef), true); err == nil {
		if blob, err := r.BlobObject(ref.Hash()); err == nil {
			if rd, err := blob.Reader(); err == nil {
				defer rd.Close()
				buf := make([]byte, 256)
				n, _ := rd.Read(buf)
				if name := strings.TrimSpace(string(buf[:n])); name != "" {
					return name, nil
				}
			}
		}
	}

	if ref, err := r.Reference(plumbing.ReferenceName("refs/remotes/origin/HEAD"), true); err == nil {
		return strings.TrimPrefix(ref.Name().Short(), "origin/"), nil
	}

	return protocol.DefaultBranch, nil
}

// GetCommits implements collab.Git.
func (Repo) GetCommits(workdir string, q collab.CommitQuery) ([]collab.Commit, error) {
	r, err := open(workdir)
	if err != nil {
		return nil, err
	}

	branch := q.Branch
	if branch == "" {
		branch = protocol.DefaultBranch
	}
	refname := plumbing.ReferenceName("refs/heads/" + branch)

	ref, err := r.Reference(refname, true)
	if err != nil {
		return nil, errors.Wrapf(err, "gitcollab: resolve branch %q", branch)
	}

	iter, err := r.Log(&git.LogOptions{From: ref.Hash(), Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, errors.Wrap(err, "gitcollab: log")
	}

	var out []collab.Commit
	err = iter.ForEach(func(c *object.Commit) error {
		when := c.Committer.When
		// The iterator walks newest-first, so once a commit predates
		// the requested window every remaining ancestor does too.
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

var errStopWalk = errors.New("gitcollab: stop walk")

// GetUnpushedCommits implements collab.Git: every commit reachable
// from refs/heads/<branch> but not from refs/remotes/origin/<branch>.
func (Repo) GetUnpushedCommits(workdir, branch string) (map[string]struct{}, error) {
	r, err := open(workdir)
	if err != nil {
		return nil, err
	}

	localRef, err := r.Reference(plumbing.ReferenceName("refs/heads/"+branch), true)
	if err != nil {
		return nil, errors.Wrapf(err, "gitcollab: resolve local branch %q", branch)
	}

	remoteRef, err := r.Reference(plumbing.ReferenceName("refs/remotes/origin/"+branch), true)
	if err != nil {
		// No remote-tracking ref: every local commit is unpushed.
		return walkHashes(r, localRef.Hash(), nil)
	}

	remoteHash := remoteRef.Hash()
	return walkHashes(r, localRef.Hash(), &remoteHash)
}

// walkHashes collects every commit hash reachable from from, stopping
// descent at (and excluding) stopAt, when given.
func walkHashes(r *git.Repository, from plumbing.Hash, stopAt *plumbing.Hash) (map[string]struct{}, error) {
	commit, err := r.CommitObject(from)
	if err != nil {
		return nil, err
	}

	out := map[string]struct{}{}
	seen := map[plumbing.Hash]bool{}
	var stack []*object.Commit
	stack = append(stack, commit)

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur.Hash] {
			continue
		}
		seen[cur.Hash] = true
		if stopAt != nil && cur.Hash == *stopAt {
			continue
		}
		out[cur.Hash.String()] = struct{}{}

		err := cur.Parents().ForEach(func(p *object.Commit) error {
			if !seen[p.Hash] {
				stack = append(stack, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// GetOriginUrl implements collab.Git.
func (Repo) GetOriginUrl(workdir string) (string, error) {
	r, err := open(workdir)
	if err != nil {
		return "", err
	}
	remote, err := r.Remote("origin")
	if err != nil {
		return protocol.NoOriginSentinel, nil
	}
	cfg := remote.Config()
	if len(cfg.URLs) == 0 {
		return protocol.NoOriginSentinel, nil
	}
	return cfg.URLs[0], nil
}

// ListRemotes implements collab.Git.
func (Repo) ListRemotes(workdir string) ([]collab.Remote, error) {
	r, err := open(workdir)
	if err != nil {
		return nil, err
	}
	remotes, err := r.Remotes()
	if err != nil {
		return nil, errors.Wrap(err, "gitcollab: remotes")
	}
	out := make([]collab.Remote, 0, len(remotes))
	for _, rm := range remotes {
		cfg := rm.Config()
		url := ""
		if len(cfg.URLs) > 0 {
			url = cfg.URLs[0]
		}
		out = append(out, collab.Remote{Name: cfg.Name, URL: url})
	}
	return out, nil
}
