// Package verify proves that an archive reproduces its source.
package verify

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bianoble/snapkeep/internal/archive"
	"github.com/bianoble/snapkeep/internal/digest"
)

// Verifier extracts container artifacts into an exclusive scratch
// directory and compares content digests against the live source.
type Verifier struct {
	// ScratchParent is where per-call scratch directories are created.
	// Empty means the system temp directory.
	ScratchParent string
}

// Verify reports whether art faithfully reproduces source. A content
// mismatch returns (false, nil): divergence is an expected, reportable
// outcome, not an error. I/O and extraction failures return errors.
//
// Each call owns a uniquely named scratch directory that is removed on
// every exit path, so one attempt's leftovers can never leak into the
// next attempt's comparison.
func (v *Verifier) Verify(source string, art *archive.Archive) (bool, error) {
	info, err := os.Stat(source)
	if err != nil {
		return false, fmt.Errorf("stat source: %w", err)
	}

	if !art.Container() {
		want, err := digest.File(source)
		if err != nil {
			return false, err
		}
		got, err := digest.File(art.Path)
		if err != nil {
			return false, err
		}
		return want == got, nil
	}

	scratch, err := os.MkdirTemp(v.ScratchParent, "snapkeep-verify-")
	if err != nil {
		return false, fmt.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	if err := archive.Extract(art.Path, scratch); err != nil {
		return false, err
	}

	base := filepath.Base(filepath.Clean(source))

	if info.IsDir() {
		want, err := digest.Tree(source)
		if err != nil {
			return false, err
		}
		got, err := digest.Tree(filepath.Join(scratch, base))
		if err != nil {
			return false, err
		}
		return want == got, nil
	}

	restored, err := locate(scratch, base)
	if err != nil {
		return false, err
	}
	if restored == "" {
		// The member the archive was created from is absent: a malformed
		// archive, not a content mismatch.
		return false, &archive.ArchiveError{
			Path: art.Path,
			Op:   "locate",
			Err:  fmt.Errorf("no file named %q in extracted archive", base),
		}
	}

	want, err := digest.File(source)
	if err != nil {
		return false, err
	}
	got, err := digest.File(restored)
	if err != nil {
		return false, err
	}
	return want == got, nil
}

// locate finds the extracted copy of a file source by base name anywhere
// under root: first regular file in lexical walk order wins. Returns ""
// when no match exists.
func locate(root, base string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && d.Name() == base {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("searching extracted tree: %w", err)
	}
	return found, nil
}
