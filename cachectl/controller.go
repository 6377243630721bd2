// Package cachectl implements the Cache Controller (spec §4.6): the
// public surface orchestrating initial load, refresh, incremental add,
// scope-based query and thread assembly over an LRU of frozen Posts.
package cachectl

import (
	"sync"
	"time"

	"github.com/gitsocial-org/gitsocial-sub002/collab"
	"github.com/gitsocial-org/gitsocial-sub002/gitmsg"
	"github.com/gitsocial-org/gitsocial-sub002/ingest"
	"github.com/gitsocial-org/gitsocial-sub002/pkgs/cache"
	"github.com/gitsocial-org/gitsocial-sub002/post"
	"github.com/gitsocial-org/gitsocial-sub002/protocol"
	"github.com/gitsocial-org/gitsocial-sub002/result"
	"github.com/gitsocial-org/gitsocial-sub002/thread"
	"github.com/gitsocial-org/gitsocial-sub002/transform"
)

const (
	minMaxSize     = 1000
	maxMaxSize     = 1000000
	defaultMaxSize = 100000
	postTTL        = 30 * 24 * time.Hour
)

// Logger is the minimal logging surface the controller and the
// pipeline stages it drives need.
type Logger interface {
	Warn(msg string, keyValues ...interface{})
	Debug(msg string, keyValues ...interface{})
}

// Stats is the getStats() snapshot.
type Stats struct {
	Size    int
	MaxSize int
	Enabled bool
}

type inflight struct {
	done chan struct{}
	res  result.Result[struct{}]
}

// Controller is the Cache Controller.
type Controller struct {
	git    collab.Git
	mirror collab.MirrorStorage
	lists  collab.ListStorage
	log    Logger

	mu          sync.Mutex
	enabled     bool
	initialized bool
	maxSize     int
	branches    map[string]string // workdir -> configured branch
	origins     map[string]string // workdir -> normalized origin URL, or protocol.NoOriginSentinel
	inFlight    map[string]*inflight

	cache *cache.Cache
	idx   *post.Index
	cov   *coveredSet
}

// NewController builds a Controller with maxSize clamped to
// [1,000, 1,000,000] (0 selects the default of 100,000).
func NewController(git collab.Git, mirror collab.MirrorStorage, lists collab.ListStorage, log Logger, maxSize int) *Controller {
	if maxSize == 0 {
		maxSize = defaultMaxSize
	}
	maxSize = clampMaxSize(maxSize)
	return &Controller{
		git: git, mirror: mirror, lists: lists, log: log,
		enabled:  true,
		maxSize:  maxSize,
		branches: map[string]string{},
		origins:  map[string]string{},
		inFlight: map[string]*inflight{},
		cache:    cache.New(maxSize),
		idx:      post.NewIndex(),
		cov:      newCoveredSet(),
	}
}

func clampMaxSize(n int) int {
	if n < minMaxSize {
		return minMaxSize
	}
	if n > maxMaxSize {
		return maxMaxSize
	}
	return n
}

// SetEnabled toggles the cache; disabling clears all state.
func (c *Controller) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
	if !enabled {
		c.cache.Purge()
		c.idx.Clear()
		c.cov.Clear()
		c.initialized = false
	}
}

// SetMaxSize clamps n to [1,000, 1,000,000] and replaces the LRU with
// one of the new capacity, preserving as many entries as fit.
func (c *Controller) SetMaxSize(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n = clampMaxSize(n)
	c.cache.Resize(n)
	c.maxSize = n
}

// GetStats returns the current size/capacity/enabled snapshot.
func (c *Controller) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Size: c.cache.Len(), MaxSize: c.maxSize, Enabled: c.enabled}
}

// IsCacheRangeCovered reports exact string membership of since's date
// in the covered-set (spec §4.7).
func (c *Controller) IsCacheRangeCovered(since time.Time) bool {
	return c.cov.Contains(toDateString(since))
}

// GetCachedRanges returns the covered date strings in sorted order.
func (c *Controller) GetCachedRanges() []string {
	return c.cov.Sorted()
}

// Warn and Debug let the Controller itself satisfy ingest.Logger and
// transform.Logger, so the pipeline stages it drives can log through
// the same sink it was constructed with.
func (c *Controller) Warn(msg string, kv ...interface{}) {
	if c.log != nil {
		c.log.Warn(msg, kv...)
	}
}

func (c *Controller) Debug(msg string, kv ...interface{}) {
	if c.log != nil {
		c.log.Debug(msg, kv...)
	}
}

// coalesce shares an in-flight call keyed by key across concurrent
// invocations with identical parameters (spec §5).
func (c *Controller) coalesce(key string, fn func() result.Result[struct{}]) result.Result[struct{}] {
	c.mu.Lock()
	if f, ok := c.inFlight[key]; ok {
		c.mu.Unlock()
		<-f.done
		return f.res
	}
	f := &inflight{done: make(chan struct{})}
	c.inFlight[key] = f
	c.mu.Unlock()

	res := fn()

	c.mu.Lock()
	delete(c.inFlight, key)
	c.mu.Unlock()
	f.res = res
	close(f.done)
	return res
}

// Initialize implements spec §4.6 initialize.
func (c *Controller) Initialize(workdir, storageBase string, sinceOverride *time.Time) result.Result[struct{}] {
	key := "init:" + workdir + "\x00" + storageBase
	return c.coalesce(key, func() result.Result[struct{}] {
		return c.doInitialize(workdir, storageBase, sinceOverride)
	})
}

func (c *Controller) doInitialize(workdir, storageBase string, sinceOverride *time.Time) result.Result[struct{}] {
	if !c.enabled {
		return result.Ok(struct{}{})
	}

	branch := protocol.DefaultBranch
	if b, err := c.git.GetConfiguredBranch(workdir); err == nil && b != "" {
		branch = b
	} else if err != nil {
		c.Warn("cachectl: getConfiguredBranch failed, defaulting", "workdir", workdir, "err", err)
	}

	originURL, err := c.git.GetOriginUrl(workdir)
	hasOrigin := err == nil && originURL != "" && originURL != protocol.NoOriginSentinel
	originSentinel := protocol.NoOriginSentinel
	if hasOrigin {
		originSentinel = protocol.NormalizeURL(originURL)
	}

	since := defaultFetchStart()
	if sinceOverride != nil {
		since = *sinceOverride
	}

	items := c.gatherItems(workdir, storageBase, branch, originURL, hasOrigin, since)

	working := ingest.Process(items, originSentinel, c.idx, c)
	fresh := make([]*post.Post, 0, len(working))
	for _, p := range working {
		fresh = append(fresh, p)
	}
	union := ingest.Recompute(nil, fresh, originSentinel, c.idx)
	c.admit(union)

	c.mu.Lock()
	c.branches[workdir] = branch
	c.origins[workdir] = originSentinel
	c.cov.Add(toDateString(since))
	c.initialized = true
	c.mu.Unlock()

	return result.Ok(struct{}{})
}

// gatherItems loads workspace commits and, when storageBase is set,
// every mirrored repository referenced by a list, transforming each
// into an ingest.Item (spec §4.6 steps 4-6).
func (c *Controller) gatherItems(workdir, storageBase, branch, originURL string, hasOrigin bool, since time.Time) []ingest.Item {
	var items []ingest.Item

	var unpushed map[string]struct{}
	if u, err := c.git.GetUnpushedCommits(workdir, branch); err == nil {
		unpushed = u
	} else {
		c.Warn("cachectl: getUnpushedCommits failed", "workdir", workdir, "err", err)
	}

	commits, err := c.git.GetCommits(workdir, collab.CommitQuery{Branch: branch, Since: since})
	if err != nil {
		c.Warn("cachectl: getCommits failed", "workdir", workdir, "err", err)
		commits = nil
	}
	for _, cm := range commits {
		item, terr := c.transformCommit(cm, transform.RealCommitInput{
			Commit: cm, Branch: branch, HasOrigin: hasOrigin, OriginURL: originURL, UnpushedHashes: unpushed,
		})
		if terr != nil {
			c.Debug("cachectl: dropping workspace commit", "hash", cm.Hash, "err", terr)
			continue
		}
		items = append(items, item)
	}

	if storageBase == "" || c.lists == nil {
		return items
	}

	lists, err := c.lists.GetAllListsFromStorage(workdir)
	if err != nil {
		c.Warn("cachectl: getAllListsFromStorage failed", "workdir", workdir, "err", err)
		return items
	}

	seenRepos := map[string]struct{}{}
	for _, l := range lists {
		for _, repoURL := range l.Repositories {
			norm := protocol.NormalizeURL(repoURL)
			if _, dup := seenRepos[norm]; dup {
				continue
			}
			seenRepos[norm] = struct{}{}

			mcommits, merr := c.mirror.GetCommits(storageBase, norm, collab.CommitQuery{Branch: protocol.DefaultBranch, Since: since})
			if merr != nil {
				c.Warn("cachectl: mirror getCommits failed", "repo", norm, "err", merr)
				continue
			}
			for _, cm := range mcommits {
				item, terr := c.transformCommit(cm, transform.RealCommitInput{
					Commit: cm, RepositoryURL: norm, Branch: protocol.DefaultBranch, RemoteName: "upstream",
				})
				if terr != nil {
					c.Debug("cachectl: dropping mirror commit", "repo", norm, "hash", cm.Hash, "err", terr)
					continue
				}
				items = append(items, item)
			}
		}
	}

	return items
}

func (c *Controller) admit(posts []*post.Post) {
	for _, p := range posts {
		frozen := p.Freeze()
		c.cache.Add(frozen.ID, frozen, time.Now().Add(postTTL))
		c.idx.AddPost(frozen)
	}
}

// Refresh implements spec §4.6 refresh.
func (c *Controller) Refresh(scope RefreshScope, workdir, storageBase string) result.Result[struct{}] {
	switch scope.Kind {
	case RefreshAll:
		c.cache.Purge()
		c.idx.Clear()
		c.cov.Clear()
		c.mu.Lock()
		c.initialized = false
		c.mu.Unlock()
		if workdir == "" {
			return result.Ok(struct{}{})
		}
		since := c.oldestFromMirrors(storageBase, scope)
		return c.Initialize(workdir, storageBase, &since)

	case RefreshHashes:
		for _, h := range scope.Hashes {
			norm, err := protocol.NormalizeHash(h)
			if err != nil {
				return result.InvalidInput[struct{}]("cachectl: bad hash " + h)
			}
			for _, id := range c.idx.ByHash(norm) {
				if p, ok := c.cache.Peek(id); ok {
					c.idx.RemovePost(p.(*post.Post))
				}
				c.cache.Remove(id)
			}
		}
		return result.Ok(struct{}{})

	case RefreshRepositories, RefreshLists:
		c.mu.Lock()
		c.initialized = false
		c.mu.Unlock()
		if workdir == "" {
			return result.Ok(struct{}{})
		}
		since := c.oldestFromMirrors(storageBase, scope)
		return c.Initialize(workdir, storageBase, &since)
	}

	return result.InvalidInput[struct{}]("cachectl: invalid refresh scope")
}

// oldestFromMirrors recomputes an oldest-date override from the
// mirrors' stored fetched-ranges, falling back to defaultFetchStart().
func (c *Controller) oldestFromMirrors(storageBase string, scope RefreshScope) time.Time {
	if c.mirror == nil || storageBase == "" {
		return defaultFetchStart()
	}
	repos := scope.Repositories
	var oldest time.Time
	for _, r := range repos {
		cfg, err := c.mirror.ReadConfig(storageBase, protocol.NormalizeURL(r))
		if err != nil {
			continue
		}
		for _, rng := range cfg.FetchedRanges {
			if oldest.IsZero() || rng.Start.Before(oldest) {
				oldest = rng.Start
			}
		}
	}
	if oldest.IsZero() {
		return defaultFetchStart()
	}
	return oldest
}

// LoadAdditional implements spec §4.6 loadAdditional.
func (c *Controller) LoadAdditional(workdir, storageBase string, since time.Time) result.Result[struct{}] {
	key := "load:" + workdir + "\x00" + storageBase + "\x00" + toDateString(since)
	return c.coalesce(key, func() result.Result[struct{}] {
		return c.doLoadAdditional(workdir, storageBase, since)
	})
}

func (c *Controller) doLoadAdditional(workdir, storageBase string, since time.Time) result.Result[struct{}] {
	ds := toDateString(since)
	if c.cov.Contains(ds) {
		return result.Ok(struct{}{})
	}

	c.mu.Lock()
	branch, ok := c.branches[workdir]
	if !ok {
		branch = protocol.DefaultBranch
	}
	originSentinel, hasOriginRecord := c.origins[workdir]
	c.mu.Unlock()

	hasOrigin := hasOriginRecord && originSentinel != protocol.NoOriginSentinel
	originURL := originSentinel
	if !hasOrigin {
		originSentinel = protocol.NoOriginSentinel
	}

	items := c.gatherItems(workdir, storageBase, branch, originURL, hasOrigin, since)
	working := ingest.Process(items, originSentinel, c.idx, c)

	newOnly := false
	fresh := make([]*post.Post, 0, len(working))
	for id, p := range working {
		if !c.cache.Has(id) {
			newOnly = true
		}
		fresh = append(fresh, p)
	}

	cached := c.allCachedPosts()
	union := ingest.Recompute(cached, fresh, originSentinel, c.idx)
	c.admit(union)

	if newOnly {
		c.cov.Add(ds)
	}
	return result.Ok(struct{}{})
}

func (c *Controller) allCachedPosts() []*post.Post {
	keys := c.cache.Keys()
	out := make([]*post.Post, 0, len(keys))
	for _, k := range keys {
		if v, ok := c.cache.Peek(k); ok {
			out = append(out, v.(*post.Post))
		}
	}
	return out
}

// GetCachedPosts implements spec §4.6 getCachedPosts and its scope
// grammar, §4.8 thread delegation.
func (c *Controller) GetCachedPosts(workdir, rawScope string, filter Filter, ctx QueryContext) result.Result[ScopeResult] {
	if !c.enabled {
		return result.Ok(ScopeResult{Posts: []*post.Post{}})
	}

	scope, err := ParseScope(rawScope)
	if err != nil {
		return result.InvalidInput[ScopeResult](err.Error())
	}

	all := c.allCachedPosts()

	switch scope.Kind {
	case ScopeAll, ScopeTimeline:
		return result.Ok(ScopeResult{Posts: applyFilter(all, filter)})

	case ScopeRepository:
		return result.Ok(ScopeResult{Posts: applyFilter(c.scopeRepository(workdir, scope, all), filter)})

	case ScopeList:
		return result.Ok(ScopeResult{Posts: applyFilter(c.scopeList(workdir, scope, ctx, all), filter)})

	case ScopePost:
		id := scope.PostID
		if rel, ok := c.idx.ResolveAbsolute(id); ok {
			id = rel
		}
		v, ok := c.cache.Get(id)
		if !ok {
			return result.Ok(ScopeResult{Posts: []*post.Post{}})
		}
		return result.Ok(ScopeResult{Posts: applyFilter([]*post.Post{v.(*post.Post)}, filter)})

	case ScopeByID:
		var posts []*post.Post
		for _, id := range scope.IDs {
			if rel, ok := c.idx.ResolveAbsolute(id); ok {
				id = rel
			}
			if v, ok := c.cache.Get(id); ok {
				posts = append(posts, v.(*post.Post))
			}
		}
		return result.Ok(ScopeResult{Posts: applyFilter(posts, filter)})

	case ScopeThread:
		tr := thread.Build(all, scope.ThreadID, filter.SortBy.threadOrder())
		if !tr.Success {
			return result.Fail[ScopeResult](tr.Err.Kind, tr.Err.Message, tr.Err.Cause)
		}
		return result.Ok(ScopeResult{Thread: tr.Data})
	}

	return result.InvalidInput[ScopeResult]("cachectl: unhandled scope")
}

func (c *Controller) scopeRepository(workdir string, scope Scope, all []*post.Post) []*post.Post {
	if scope.RepoURL == myRepositoryMarker {
		c.mu.Lock()
		origin := c.origins[workdir]
		branch := c.branches[workdir]
		c.mu.Unlock()

		var myRepo string
		if origin != "" && origin != protocol.NoOriginSentinel {
			myRepo = protocol.RepositoryID{Repo: origin, Branch: branch}.String()
		}

		var out []*post.Post
		for _, p := range all {
			if protocol.IsMyRepository(p.ID) || (myRepo != "" && p.Repository == myRepo) {
				out = append(out, p)
			}
		}
		return out
	}

	repoKey := protocol.RepositoryID{Repo: scope.RepoURL, Branch: scope.RepoBranch}.String()
	ids := c.idx.ByRepository(repoKey)
	posts := c.postsForIDs(ids)
	if scope.ListID == "" {
		return posts
	}
	inList := map[string]struct{}{}
	for _, id := range c.idx.ByList(workdir, scope.ListID) {
		inList[id] = struct{}{}
	}
	var out []*post.Post
	for _, p := range posts {
		if _, ok := inList[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (c *Controller) scopeList(workdir string, scope Scope, ctx QueryContext, all []*post.Post) []*post.Post {
	ids := c.idx.ByList(workdir, scope.ListID)
	if len(ids) > 0 {
		return c.postsForIDs(ids)
	}
	if len(ctx.List.Repositories) == 0 {
		return nil
	}

	repoSet := map[string]struct{}{}
	for _, r := range ctx.List.Repositories {
		repoSet[protocol.NormalizeURL(r)] = struct{}{}
	}

	var out []*post.Post
	for _, p := range all {
		rid := protocol.ParseRepositoryID(p.Repository)
		if _, ok := repoSet[rid.Repo]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (c *Controller) postsForIDs(ids []string) []*post.Post {
	out := make([]*post.Post, 0, len(ids))
	for _, id := range ids {
		if v, ok := c.cache.Peek(id); ok {
			out = append(out, v.(*post.Post))
		}
	}
	return out
}

// transformCommit runs the Transformer over one commit and pairs the
// resulting Post with any GitMsg-Ref sections found in its message, so
// the Reference Processor can expand them (spec §4.4e).
func (c *Controller) transformCommit(cm collab.Commit, in transform.RealCommitInput) (ingest.Item, error) {
	parsed := gitmsg.Parse(cm.Message, nil)
	var refs []*gitmsg.Reference
	if parsed != nil {
		refs = parsed.References
	}

	p, err := transform.FromRealCommit(in, c)
	if err != nil {
		return ingest.Item{}, err
	}
	return ingest.Item{Post: p, References: refs}, nil
}
