package filter

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func newTestBookmarks(t *testing.T) *Bookmarks {
	t.Helper()
	b, err := OpenBookmarks(filepath.Join(t.TempDir(), "data", "setu.db"))
	if err != nil {
		t.Fatalf("OpenBookmarks failed: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func TestBookmarkSaveAndList(t *testing.T) {
	b := newTestBookmarks(t)

	for _, expr := range []string{"users[].name", "total"} {
		saved, err := b.Save(expr)
		if err != nil || !saved {
			t.Fatalf("Save(%q) = %v, %v", expr, saved, err)
		}
	}

	saved, err := b.Save("  total ")
	if err != nil || saved {
		t.Errorf("Expected duplicate ignored, got %v, %v", saved, err)
	}

	all, err := b.List("")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].Expression != "total" {
		t.Errorf("Expected newest first, got %+v", all)
	}

	matched, _ := b.List("name")
	if len(matched) != 1 || matched[0].Expression != "users[].name" {
		t.Errorf("Unexpected search result %+v", matched)
	}
}

func TestBookmarkSaveRejectsInvalid(t *testing.T) {
	b := newTestBookmarks(t)

	if _, err := b.Save(""); err == nil {
		t.Error("Expected empty expression rejected")
	}
	if _, err := b.Save("users[?"); err == nil {
		t.Error("Expected invalid expression rejected")
	}
}

func TestBookmarkDelete(t *testing.T) {
	b := newTestBookmarks(t)
	b.Save("total")
	all, _ := b.List("")

	if err := b.Delete(all[0].ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := b.Delete(all[0].ID); !errors.Is(err, ErrBookmarkNotFound) {
		t.Errorf("Expected ErrBookmarkNotFound, got %v", err)
	}
}

func TestBookmarkExpand(t *testing.T) {
	b := newTestBookmarks(t)
	b.Save("users[?active]")

	got, err := b.Expand([]string{"@1", "[].name"})
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	if want := []string{"users[?active]", "[].name"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	if _, err := b.Expand([]string{"@x"}); err == nil {
		t.Error("Expected invalid reference rejected")
	}
	if _, err := b.Expand([]string{"@99"}); !errors.Is(err, ErrBookmarkNotFound) {
		t.Errorf("Expected ErrBookmarkNotFound, got %v", err)
	}

	if !HasReferences([]string{"a", " @1"}) || HasReferences([]string{"a"}) {
		t.Error("HasReferences mismatch")
	}
}
