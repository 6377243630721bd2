package cachectl

import (
	"testing"
	"time"

	"github.com/gitsocial-org/gitsocial-sub002/collab"
	"github.com/gitsocial-org/gitsocial-sub002/protocol"
)

type fakeGit struct {
	branch  string
	commits []collab.Commit
	origin  string
	reads   int
}

func (g *fakeGit) GetConfiguredBranch(string) (string, error) { return g.branch, nil }
func (g *fakeGit) GetCommits(_ string, q collab.CommitQuery) ([]collab.Commit, error) {
	g.reads++
	return g.commits, nil
}
func (g *fakeGit) GetUnpushedCommits(string, string) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}
func (g *fakeGit) GetOriginUrl(string) (string, error) { return g.origin, nil }
func (g *fakeGit) ListRemotes(string) ([]collab.Remote, error) { return nil, nil }

func newFakeGit() *fakeGit {
	return &fakeGit{
		branch: "main",
		origin: protocol.NoOriginSentinel,
		commits: []collab.Commit{
			{
				Hash:      "abcdef012345678",
				Author:    "Ada",
				Email:     "ada@example.com",
				Timestamp: time.Now(),
				Message:   "hello\n\n--- GitMsg: ext=\"social\"; type=\"post\"; v=\"1\"; ext-v=\"1\" ---",
				RefName:   "refs/heads/main",
			},
		},
	}
}

// Scenario 6: loadAdditional is a no-op on a second call with the same
// date once the first call admitted at least one post.
func TestLoadAdditionalCoveredRangeMemoization(t *testing.T) {
	git := newFakeGit()
	ctl := NewController(git, nil, nil, nil, 0)

	since := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	r1 := ctl.LoadAdditional("/repo", "", since)
	if !r1.Success {
		t.Fatalf("first loadAdditional failed: %v", r1.Err)
	}
	if got := git.reads; got != 1 {
		t.Fatalf("expected 1 git read after first call, got %d", got)
	}

	ranges := ctl.GetCachedRanges()
	count := 0
	for _, r := range ranges {
		if r == "2024-01-15" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected \"2024-01-15\" exactly once, got %v", ranges)
	}

	r2 := ctl.LoadAdditional("/repo", "", since)
	if !r2.Success {
		t.Fatalf("second loadAdditional failed: %v", r2.Err)
	}
	if got := git.reads; got != 1 {
		t.Fatalf("expected zero additional git reads on covered date, total stayed at %d", got)
	}
}

func TestInitializeAdmitsWorkspacePost(t *testing.T) {
	git := newFakeGit()
	ctl := NewController(git, nil, nil, nil, 0)

	r := ctl.Initialize("/repo", "", nil)
	if !r.Success {
		t.Fatalf("initialize failed: %v", r.Err)
	}

	res := ctl.GetCachedPosts("/repo", "all", Filter{}, QueryContext{})
	if !res.Success {
		t.Fatalf("getCachedPosts failed: %v", res.Err)
	}
	if len(res.Data.Posts) != 1 {
		t.Fatalf("expected 1 admitted post, got %d", len(res.Data.Posts))
	}
	if res.Data.Posts[0].ID != "#commit:abcdef012345" {
		t.Errorf("id = %q", res.Data.Posts[0].ID)
	}

	stats := ctl.GetStats()
	if stats.Size != 1 || !stats.Enabled {
		t.Errorf("stats = %+v", stats)
	}
}

func TestSetEnabledFalseClearsState(t *testing.T) {
	git := newFakeGit()
	ctl := NewController(git, nil, nil, nil, 0)
	ctl.Initialize("/repo", "", nil)

	ctl.SetEnabled(false)
	res := ctl.GetCachedPosts("/repo", "all", Filter{}, QueryContext{})
	if !res.Success || len(res.Data.Posts) != 0 {
		t.Fatalf("expected empty result when disabled, got %+v", res)
	}
	if ctl.GetStats().Size != 0 {
		t.Errorf("expected LRU cleared on disable")
	}
}

func TestParseScopeGrammar(t *testing.T) {
	cases := []struct {
		raw  string
		kind ScopeKind
	}{
		{"all", ScopeAll},
		{"timeline", ScopeTimeline},
		{"repository:my", ScopeRepository},
		{"repository:https://github.com/u/r", ScopeRepository},
		{"list:abc123", ScopeList},
		{"post:#commit:abcdef012345", ScopePost},
		{"byId:#commit:a,#commit:b", ScopeByID},
		{"thread:#commit:abcdef012345", ScopeThread},
	}
	for _, tc := range cases {
		s, err := ParseScope(tc.raw)
		if err != nil {
			t.Errorf("ParseScope(%q) error: %v", tc.raw, err)
			continue
		}
		if s.Kind != tc.kind {
			t.Errorf("ParseScope(%q).Kind = %q, want %q", tc.raw, s.Kind, tc.kind)
		}
	}
}

func TestParseScopeRejectsInvalid(t *testing.T) {
	if _, err := ParseScope("bogus"); err == nil {
		t.Fatal("expected error for invalid scope")
	}
	if _, err := ParseScope("repository:not-a-url"); err == nil {
		t.Fatal("expected error for malformed repository url")
	}
}

func TestParseScopeRepositoryWithListSuffix(t *testing.T) {
	s, err := ParseScope("repository:https://github.com/u/r/list:abc123")
	if err != nil {
		t.Fatal(err)
	}
	if s.ListID != "abc123" {
		t.Errorf("listID = %q", s.ListID)
	}
	if s.RepoURL != "https://github.com/u/r" {
		t.Errorf("repoURL = %q", s.RepoURL)
	}
}
