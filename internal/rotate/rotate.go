// Package rotate prunes a backup destination down to a retention count.
package rotate

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/bianoble/snapkeep/internal/sandbox"
)

// Apply deletes every non-directory entry in destDir beyond the keep most
// recently modified ones and returns the names it removed, most recent
// first. Entries with equal modification times are ordered by name
// ascending, so repeated runs over identical inputs delete identically.
// Subdirectories are never touched. A no-op when destDir holds keep or
// fewer entries.
func Apply(destDir string, keep int) ([]string, error) {
	if keep < 0 {
		return nil, fmt.Errorf("retention count must be >= 0, got %d", keep)
	}

	entries, err := os.ReadDir(destDir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", destDir, err)
	}

	type candidate struct {
		name  string
		mtime time.Time
	}
	var files []candidate
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, candidate{name: e.Name(), mtime: fi.ModTime()})
	}

	sort.Slice(files, func(i, j int) bool {
		if !files[i].mtime.Equal(files[j].mtime) {
			return files[i].mtime.After(files[j].mtime)
		}
		return files[i].name < files[j].name
	})

	if len(files) <= keep {
		return nil, nil
	}

	var removed []string
	for _, f := range files[keep:] {
		if err := sandbox.SafeRemove(destDir, f.name); err != nil {
			return removed, fmt.Errorf("removing %s: %w", f.name, err)
		}
		removed = append(removed, f.name)
	}
	return removed, nil
}
