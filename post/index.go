package post

import "sync"

// Index is the PostIndex: four maps plus one set, giving O(1) lookup
// by hash, by repository, by list membership, and the
// absolute↔relative identity mapping; plus the set of merged virtual
// ids. The index owns no Post — it stores only opaque id strings; the
// LRU (owned by the Cache Controller) owns the Post values.
type Index struct {
	mu sync.RWMutex

	byHash       map[string]map[string]struct{} // 12-hex hash -> post ids
	byRepository map[string]map[string]struct{} // "url#branch:b" -> post ids
	byList       map[string]map[string]struct{} // "<workdir>:<listId>" -> post ids
	absolute     map[string]string              // absolute id -> relative id
	merged       map[string]struct{}            // virtual ids merged into a workspace post
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{
		byHash:       map[string]map[string]struct{}{},
		byRepository: map[string]map[string]struct{}{},
		byList:       map[string]map[string]struct{}{},
		absolute:     map[string]string{},
		merged:       map[string]struct{}{},
	}
}

// Clear removes all entries (used on setEnabled(false) and on a
// {all}-scoped refresh).
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.byHash = map[string]map[string]struct{}{}
	idx.byRepository = map[string]map[string]struct{}{}
	idx.byList = map[string]map[string]struct{}{}
	idx.absolute = map[string]string{}
	idx.merged = map[string]struct{}{}
}

func addTo(m map[string]map[string]struct{}, key, id string) {
	if key == "" {
		return
	}
	set, ok := m[key]
	if !ok {
		set = map[string]struct{}{}
		m[key] = set
	}
	set[id] = struct{}{}
}

func removeFrom(m map[string]map[string]struct{}, key, id string) {
	set, ok := m[key]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(m, key)
	}
}

// AddPost admits a Post's id into byHash and, when it has a
// repository, byRepository.
func (idx *Index) AddPost(p *Post) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	addTo(idx.byHash, p.Hash12(), p.ID)
	if p.Repository != "" {
		addTo(idx.byRepository, p.Repository, p.ID)
	}
}

// RemovePost removes a Post's id from byHash/byRepository. listKeys, if
// given, are the "<workdir>:<listId>" keys this post had also been
// filed under.
func (idx *Index) RemovePost(p *Post, listKeys ...string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	removeFrom(idx.byHash, p.Hash12(), p.ID)
	if p.Repository != "" {
		removeFrom(idx.byRepository, p.Repository, p.ID)
	}
	for _, lk := range listKeys {
		removeFrom(idx.byList, lk, p.ID)
	}
}

// AddToList files a post id under a "<workdir>:<listId>" key.
func (idx *Index) AddToList(workdir, listID, postID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	addTo(idx.byList, workdir+":"+listID, postID)
}

// ByHash returns the post ids sharing the given 12-hex hash.
func (idx *Index) ByHash(hash string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return keys(idx.byHash[hash])
}

// ByRepository returns the post ids belonging to a normalized
// "url#branch:b" repository key.
func (idx *Index) ByRepository(repo string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return keys(idx.byRepository[repo])
}

// ByList returns the post ids filed under a "<workdir>:<listId>" key.
func (idx *Index) ByList(workdir, listID string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return keys(idx.byList[workdir+":"+listID])
}

// SetAbsolute registers the absolute→relative identity mapping.
func (idx *Index) SetAbsolute(absolute, relative string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.absolute[absolute] = relative
}

// ResolveAbsolute looks up an absolute id's relative equivalent.
func (idx *Index) ResolveAbsolute(absolute string) (string, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	rel, ok := idx.absolute[absolute]
	return rel, ok
}

// MarkMerged records that a virtual id has been merged into an
// existing workspace post and must not appear as a standalone post.
func (idx *Index) MarkMerged(virtualID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.merged[virtualID] = struct{}{}
}

// IsMerged reports whether an id has been merged away.
func (idx *Index) IsMerged(id string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.merged[id]
	return ok
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
