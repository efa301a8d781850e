// Package digest computes the content digests used to prove that an
// archive reproduces its source.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// chunkSize bounds the working memory of a single file digest.
const chunkSize = 64 * 1024

// File computes the hex-encoded SHA-256 digest of a file's content.
// The file is streamed in fixed-size chunks, so arbitrarily large files
// hash in constant memory. Identical content always yields an identical
// digest regardless of chunk size.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.CopyBuffer(h, f, make([]byte, chunkSize)); err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Tree computes an aggregate digest over every regular file under root.
// Files are ordered by their slash-separated relative path, so the result
// does not depend on filesystem enumeration order but does change when
// any file's content changes or a file is added, removed or renamed.
//
// Each file contributes its slash-relative path and the hex text form of
// its content digest to the accumulator, so a rename changes the result
// even when it leaves the sort order intact. This is a hash of hashes,
// not a Merkle tree: it proves whole-tree equality and nothing smaller.
func Tree(root string) (string, error) {
	var rels []string
	abs := make(map[string]string)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		rels = append(rels, rel)
		abs[rel] = path
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walking %s: %w", root, err)
	}

	sort.Strings(rels)

	h := sha256.New()
	for _, rel := range rels {
		fd, err := File(abs[rel])
		if err != nil {
			return "", err
		}
		h.Write([]byte(rel))
		h.Write([]byte{0})
		h.Write([]byte(fd))
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
