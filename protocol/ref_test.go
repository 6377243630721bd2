package protocol

import "testing"

func TestCreateRefRelative(t *testing.T) {
	got := CreateRef(RefCommit, "ABC123DEF456789")
	want := "#commit:abc123def456"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseRefAbsoluteGitStripped(t *testing.T) {
	p := ParseRef("https://GitHub.com/u/r.git#commit:ABC123DEF456789")
	if p.Type != RefCommit {
		t.Fatalf("expected commit type, got %v", p.Type)
	}
	if p.Repo != "https://github.com/u/r" {
		t.Errorf("repo = %q", p.Repo)
	}
	if p.Value != "abc123def456" {
		t.Errorf("value = %q", p.Value)
	}
}

func TestParseRefUnknown(t *testing.T) {
	p := ParseRef("not a ref at all")
	if p.Type != RefUnknown {
		t.Errorf("expected unknown, got %v", p.Type)
	}
}

func TestRefRoundTrip(t *testing.T) {
	refs := []string{
		"#commit:abc123def456",
		"https://github.com/u/r#commit:abc123def456",
		"#branch:main",
		"https://github.com/u/r#list:my-list",
	}
	for _, r := range refs {
		p := ParseRef(r)
		if p.Type == RefUnknown {
			t.Fatalf("ref %q failed to parse", r)
		}
		got := CreateRef(p.Type, p.Value, p.Repo)
		want := NormalizeRef(r)
		if got != want {
			t.Errorf("round trip %q: got %q, want %q", r, got, want)
		}
	}
}

func TestIsMyRepository(t *testing.T) {
	if !IsMyRepository("#commit:abc123def456") {
		t.Error("expected relative ref to be mine")
	}
	if IsMyRepository("https://github.com/u/r#commit:abc123def456") {
		t.Error("expected absolute ref to not be mine")
	}
}

func TestParseRepositoryID(t *testing.T) {
	r := ParseRepositoryID("https://github.com/u/r#branch:dev")
	if r.Repo != "https://github.com/u/r" || r.Branch != "dev" {
		t.Errorf("got %+v", r)
	}
	r2 := ParseRepositoryID("https://github.com/u/r")
	if r2.Branch != DefaultBranch {
		t.Errorf("expected default branch, got %q", r2.Branch)
	}
}

func TestNormalizeHashInRefWithContext(t *testing.T) {
	got := NormalizeHashInRefWithContext("#commit:abc123def456", "https://github.com/u/r.git")
	want := "https://github.com/u/r#commit:abc123def456"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	// Already absolute: context is ignored.
	got2 := NormalizeHashInRefWithContext("https://other/repo#commit:abc123def456", "https://github.com/u/r")
	if got2 != "https://other/repo#commit:abc123def456" {
		t.Errorf("got %q", got2)
	}

	// No context: behaves like NormalizeRef.
	got3 := NormalizeHashInRefWithContext("#commit:abc123def456", "")
	if got3 != "#commit:abc123def456" {
		t.Errorf("got %q", got3)
	}
}
