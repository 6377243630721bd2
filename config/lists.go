package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/gitsocial-org/gitsocial-sub002/collab"
	"github.com/gitsocial-org/gitsocial-sub002/protocol"
)

// listFile is the on-disk shape of the YAML list store. Repositories
// are stored as the user wrote them and normalized on read, so the
// file stays human-editable.
type listFile struct {
	Lists []listEntry `yaml:"lists"`
}

type listEntry struct {
	ID           string   `yaml:"id"`
	Repositories []string `yaml:"repositories"`
}

// ListStore is the reference collab.ListStorage implementation: a
// single YAML file, read fresh on every call (nothing is cached), with
// reads and writes serialized by a mutex since the Cache Controller is
// single-threaded but the CLI may query it from multiple goroutines.
type ListStore struct {
	mu   sync.Mutex
	path string
}

// NewListStore returns a ListStore reading/writing path. When path is
// empty, each method uses the lists file of the process-wide AppConfig
// (GetConfig); the workdir argument does not affect the location.
func NewListStore(path string) *ListStore {
	return &ListStore{path: path}
}

func (s *ListStore) resolvePath(workdir string) string {
	if s.path != "" {
		return s.path
	}
	return GetConfig().ListsFile()
}

func (s *ListStore) read(workdir string) ([]collab.List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.resolvePath(workdir)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "config: open list store %q", path)
	}
	defer f.Close()

	var lf listFile
	if err := yaml.NewDecoder(f).Decode(&lf); err != nil {
		return nil, errors.Wrapf(err, "config: decode list store %q", path)
	}

	out := make([]collab.List, 0, len(lf.Lists))
	for _, e := range lf.Lists {
		repos := make([]string, 0, len(e.Repositories))
		for _, r := range e.Repositories {
			repos = append(repos, protocol.NormalizeURL(r))
		}
		out = append(out, collab.List{ID: e.ID, Repositories: repos})
	}
	return out, nil
}

// GetLists implements collab.ListStorage: every list defined for
// workdir, regardless of whether its repositories have been mirrored
// yet.
func (s *ListStore) GetLists(workdir string) ([]collab.List, error) {
	return s.read(workdir)
}

// GetAllListsFromStorage implements collab.ListStorage. The YAML
// store holds no per-repository mirror state, so this is equivalent
// to GetLists; the Cache Controller is responsible for deduping
// repository URLs across lists before mirroring.
func (s *ListStore) GetAllListsFromStorage(workdir string) ([]collab.List, error) {
	return s.read(workdir)
}

// IsPostInList implements collab.ListStorage: true when postRepository
// (already normalized) appears in the named list.
func (s *ListStore) IsPostInList(postRepository, listID, workdir string) (bool, error) {
	lists, err := s.read(workdir)
	if err != nil {
		return false, err
	}
	target := protocol.NormalizeURL(postRepository)
	for _, l := range lists {
		if l.ID != listID {
			continue
		}
		for _, r := range l.Repositories {
			if r == target {
				return true, nil
			}
		}
		return false, nil
	}
	return false, nil
}

// Save writes lists to the store's path, creating parent directories
// as needed. Not part of collab.ListStorage; used by the CLI's list
// management commands.
func (s *ListStore) Save(workdir string, lists []collab.List) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.resolvePath(workdir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "config: create list store directory for %q", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "config: create list store %q", path)
	}
	defer f.Close()

	lf := listFile{Lists: make([]listEntry, 0, len(lists))}
	for _, l := range lists {
		lf.Lists = append(lf.Lists, listEntry{ID: l.ID, Repositories: l.Repositories})
	}
	return yaml.NewEncoder(f).Encode(lf)
}
