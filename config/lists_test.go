package config

import (
	"path/filepath"
	"testing"

	"github.com/gitsocial-org/gitsocial-sub002/collab"
)

func TestListStoreSaveAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lists.yml")
	s := NewListStore(path)

	err := s.Save("", []collab.List{
		{ID: "friends", Repositories: []string{"https://github.com/u/r"}},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	lists, err := s.GetLists("")
	if err != nil {
		t.Fatalf("get lists: %v", err)
	}
	if len(lists) != 1 || lists[0].ID != "friends" {
		t.Fatalf("lists = %+v", lists)
	}

	ok, err := s.IsPostInList("https://github.com/u/r", "friends", "")
	if err != nil {
		t.Fatalf("is post in list: %v", err)
	}
	if !ok {
		t.Error("expected repository to be in list")
	}

	ok, err = s.IsPostInList("https://github.com/other/repo", "friends", "")
	if err != nil {
		t.Fatalf("is post in list: %v", err)
	}
	if ok {
		t.Error("expected non-member repository to not be in list")
	}
}

func TestListStoreMissingFileReturnsEmpty(t *testing.T) {
	s := NewListStore(filepath.Join(t.TempDir(), "missing.yml"))
	lists, err := s.GetLists("")
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if len(lists) != 0 {
		t.Errorf("expected no lists, got %+v", lists)
	}
}
