package rotate

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// seedFiles writes names into dir with strictly increasing mtimes, oldest
// first.
func seedFiles(t *testing.T, dir string, names []string) {
	t.Helper()
	base := time.Now().Add(-time.Hour)
	for i, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(name), 0644); err != nil {
			t.Fatal(err)
		}
		mtime := base.Add(time.Duration(i) * time.Minute)
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}
}

func remaining(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestApplyKeepsMostRecent(t *testing.T) {
	dir := t.TempDir()
	seedFiles(t, dir, []string{"oldest", "older", "middle", "newer", "newest"})

	removed, err := Apply(dir, 2)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(removed) != 3 {
		t.Fatalf("removed %d entries, want 3: %v", len(removed), removed)
	}

	left := remaining(t, dir)
	if len(left) != 2 {
		t.Fatalf("remaining = %v, want 2 entries", left)
	}
	for _, name := range left {
		if name != "newer" && name != "newest" {
			t.Errorf("unexpected survivor %q", name)
		}
	}

	// Idempotent: a second pass deletes nothing.
	removed, err = Apply(dir, 2)
	if err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if len(removed) != 0 {
		t.Errorf("second pass removed %v, want none", removed)
	}
}

func TestApplyNoOpBelowKeep(t *testing.T) {
	dir := t.TempDir()
	seedFiles(t, dir, []string{"a", "b"})

	removed, err := Apply(dir, 7)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(removed) != 0 {
		t.Errorf("removed %v, want none", removed)
	}
	if len(remaining(t, dir)) != 2 {
		t.Error("files should be untouched")
	}
}

func TestApplySkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	seedFiles(t, dir, []string{"a", "b", "c"})
	if err := os.MkdirAll(filepath.Join(dir, "subdir"), 0755); err != nil {
		t.Fatal(err)
	}

	if _, err := Apply(dir, 0); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	fi, err := os.Stat(filepath.Join(dir, "subdir"))
	if err != nil || !fi.IsDir() {
		t.Errorf("subdirectory should survive: %v", err)
	}
}

func TestApplyTieBreakByName(t *testing.T) {
	dir := t.TempDir()
	mtime := time.Now().Add(-time.Hour)
	for _, name := range []string{"b", "c", "a"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(name), 0644); err != nil {
			t.Fatal(err)
		}
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := Apply(dir, 1)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	// Equal mtimes order by name ascending, so "a" survives.
	left := remaining(t, dir)
	if len(left) != 1 || left[0] != "a" {
		t.Errorf("remaining = %v, want [a]", left)
	}
	if len(removed) != 2 {
		t.Errorf("removed = %v, want 2 entries", removed)
	}
}

func TestApplyNegativeKeep(t *testing.T) {
	if _, err := Apply(t.TempDir(), -1); err == nil {
		t.Fatal("expected error for negative keep")
	}
}

func TestApplyMissingDir(t *testing.T) {
	if _, err := Apply(filepath.Join(t.TempDir(), "gone"), 2); err == nil {
		t.Fatal("expected error for missing destination")
	}
}
