package cli

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/studiowebux/setu/internal/filter"
)

func TestQueryCommands(t *testing.T) {
	b, err := filter.OpenBookmarks(filepath.Join(t.TempDir(), "setu.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	streams, out, errOut := testIO("")

	if err := ListQueries(streams, b, ""); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(errOut.String(), "No saved queries") {
		t.Errorf("Unexpected empty output %q", errOut.String())
	}

	if err := SaveQuery(streams, b, "users[].name"); err != nil {
		t.Fatal(err)
	}
	if err := SaveQuery(streams, b, "users[].name"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(errOut.String(), "Query already saved") {
		t.Errorf("Expected duplicate notice, got %q", errOut.String())
	}

	if err := ListQueries(streams, b, "name"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "@1") || !strings.Contains(out.String(), "users[].name") {
		t.Errorf("Unexpected listing:\n%s", out.String())
	}

	if err := RemoveQuery(streams, b, "@1"); err != nil {
		t.Fatal(err)
	}
	if err := RemoveQuery(streams, b, "1"); !errors.Is(err, filter.ErrBookmarkNotFound) {
		t.Errorf("Expected ErrBookmarkNotFound, got %v", err)
	}
	if err := RemoveQuery(streams, b, "@one"); err == nil {
		t.Error("Expected invalid reference rejected")
	}
}
