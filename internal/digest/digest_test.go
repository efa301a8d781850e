package digest

import (
	"os"
	"path/filepath"
	"testing"
)

// sha256("hello")
const helloDigest = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

func TestFileKnownDigest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := File(path)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if got != helloDigest {
		t.Errorf("digest = %s, want %s", got, helloDigest)
	}
}

func TestFileMissing(t *testing.T) {
	if _, err := File(filepath.Join(t.TempDir(), "gone")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFileLargeConstantChunks(t *testing.T) {
	// Larger than one read chunk, so the streaming path is exercised.
	path := filepath.Join(t.TempDir(), "big.bin")
	data := make([]byte, 3*chunkSize+17)
	for i := range data {
		data[i] = byte(i)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	first, err := File(path)
	if err != nil {
		t.Fatal(err)
	}
	second, err := File(path)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("digest not deterministic")
	}
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestTreeOrderIndependence(t *testing.T) {
	a := t.TempDir()
	writeTree(t, a, map[string]string{"x.txt": "one", "sub/y.txt": "two", "z.txt": "three"})

	// Same file set created in a different order, with different mtimes.
	b := t.TempDir()
	writeTree(t, b, map[string]string{"z.txt": "three", "x.txt": "one", "sub/y.txt": "two"})

	da, err := Tree(a)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	db, err := Tree(b)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if da != db {
		t.Error("equal trees produced different aggregate digests")
	}
}

func TestTreeContentSensitivity(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "hello", "b.txt": "world"})

	before, err := Tree(root)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(root, "b.txt"), []byte("WORLD"), 0644); err != nil {
		t.Fatal(err)
	}
	after, err := Tree(root)
	if err != nil {
		t.Fatal(err)
	}
	if before == after {
		t.Error("content change not reflected in aggregate digest")
	}
}

func TestTreeMembershipSensitivity(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "hello"})

	before, err := Tree(root)
	if err != nil {
		t.Fatal(err)
	}

	writeTree(t, root, map[string]string{"b.txt": "world"})
	withAdded, err := Tree(root)
	if err != nil {
		t.Fatal(err)
	}
	if before == withAdded {
		t.Error("added file not reflected in aggregate digest")
	}

	if err := os.Remove(filepath.Join(root, "b.txt")); err != nil {
		t.Fatal(err)
	}
	removed, err := Tree(root)
	if err != nil {
		t.Fatal(err)
	}
	if removed != before {
		t.Error("digest should return to original after removing the added file")
	}
}

func TestTreeRenameSensitivity(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "hello"})

	before, err := Tree(root)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.Rename(filepath.Join(root, "a.txt"), filepath.Join(root, "renamed.txt")); err != nil {
		t.Fatal(err)
	}
	after, err := Tree(root)
	if err != nil {
		t.Fatal(err)
	}
	if before == after {
		t.Error("rename not reflected in aggregate digest")
	}
}
