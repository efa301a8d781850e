// Package archive produces and unpacks backup artifacts.
//
// A directory source becomes a tar (optionally gzip-compressed) whose
// members all live under the directory's own base name. A file source
// becomes either a single-member tar.gz or a byte-for-byte copy.
package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"
)

// Format identifies the artifact layout on disk.
type Format string

const (
	// FormatTarGz is a gzip-compressed tar of a directory tree.
	FormatTarGz Format = "tar.gz"
	// FormatTar is an uncompressed tar of a directory tree.
	FormatTar Format = "tar"
	// FormatGz is a gzip-compressed single-member tar of one file.
	FormatGz Format = "gz"
	// FormatCopy is a byte-for-byte copy of one file, no container.
	FormatCopy Format = "copy"
)

// Archive describes one produced artifact. Never mutated after creation.
type Archive struct {
	Path       string
	Source     string
	Format     Format
	Compressed bool
	CreatedAt  time.Time
}

// Container reports whether the artifact is a tar container that must be
// extracted before its content can be compared.
func (a *Archive) Container() bool {
	return a.Format != FormatCopy
}

// ArchiveError reports a malformed, unwritable or unextractable artifact.
type ArchiveError struct {
	Path string
	Op   string // "create", "extract", "locate"
	Err  error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("archive %s %s: %s", e.Op, e.Path, e.Err)
}

func (e *ArchiveError) Unwrap() error {
	return e.Err
}

// timestampFormat names artifacts to second precision in UTC.
const timestampFormat = "20060102T150405Z"

// Archiver packages a source path into a single artifact.
type Archiver struct {
	// Now supplies the capture timestamp. Nil means time.Now.
	Now func() time.Time
}

// Create packages source into one artifact inside destDir, creating
// destDir if absent. The artifact is staged in a temp file and renamed
// into place only once fully written, so a failed create never leaves a
// partial artifact under the final name. Creating the same source twice
// within one second is an error rather than a silent overwrite.
func (a *Archiver) Create(source, destDir string, compress bool) (*Archive, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("stat source: %w", err)
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("creating destination %s: %w", destDir, err)
	}

	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	created := now().UTC()
	base := filepath.Base(filepath.Clean(source))

	art := &Archive{Source: source, Compressed: compress, CreatedAt: created}
	name := base + "_" + created.Format(timestampFormat)
	switch {
	case info.IsDir() && compress:
		art.Format = FormatTarGz
		name += ".tar.gz"
	case info.IsDir():
		art.Format = FormatTar
		name += ".tar"
	case compress:
		art.Format = FormatGz
		name += ".gz"
	default:
		art.Format = FormatCopy
	}
	art.Path = filepath.Join(destDir, name)

	if _, err := os.Lstat(art.Path); err == nil {
		return nil, &ArchiveError{Path: art.Path, Op: "create", Err: fmt.Errorf("artifact already exists")}
	}

	if err := write(art, source, info, base); err != nil {
		return nil, err
	}
	return art, nil
}

func write(art *Archive, source string, info os.FileInfo, base string) error {
	dir := filepath.Dir(art.Path)
	tmp, err := os.CreateTemp(dir, ".snapkeep-*.tmp")
	if err != nil {
		return &ArchiveError{Path: art.Path, Op: "create", Err: err}
	}
	tmpPath := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	var werr error
	switch art.Format {
	case FormatTarGz, FormatGz:
		gz := gzip.NewWriter(tmp)
		werr = writeTar(gz, source, info, base)
		if cerr := gz.Close(); werr == nil {
			werr = cerr
		}
	case FormatTar:
		werr = writeTar(tmp, source, info, base)
	case FormatCopy:
		werr = copyContent(tmp, source)
	}
	if werr != nil {
		return &ArchiveError{Path: art.Path, Op: "create", Err: werr}
	}

	if err := tmp.Sync(); err != nil {
		return &ArchiveError{Path: art.Path, Op: "create", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &ArchiveError{Path: art.Path, Op: "create", Err: err}
	}

	if art.Format == FormatCopy {
		// The plain copy preserves the source's mode and mtime.
		if err := os.Chmod(tmpPath, info.Mode().Perm()); err != nil {
			return &ArchiveError{Path: art.Path, Op: "create", Err: err}
		}
		if err := os.Chtimes(tmpPath, time.Time{}, info.ModTime()); err != nil {
			return &ArchiveError{Path: art.Path, Op: "create", Err: err}
		}
	} else if err := os.Chmod(tmpPath, 0644); err != nil {
		return &ArchiveError{Path: art.Path, Op: "create", Err: err}
	}

	if err := os.Rename(tmpPath, art.Path); err != nil {
		return &ArchiveError{Path: art.Path, Op: "create", Err: err}
	}
	committed = true
	return nil
}

// writeTar streams source as a tar. Directory sources are stored under
// root (the source's base name) so extraction reproduces a directory
// matching the source; file sources become a single member named root.
func writeTar(w io.Writer, source string, info os.FileInfo, root string) error {
	tw := tar.NewWriter(w)

	if !info.IsDir() {
		if err := addFile(tw, source, root, info); err != nil {
			tw.Close()
			return err
		}
		return tw.Close()
	}

	err := filepath.Walk(source, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}
		name := root
		if rel != "." {
			name = root + "/" + filepath.ToSlash(rel)
		}

		switch {
		case fi.IsDir():
			hdr, err := tar.FileInfoHeader(fi, "")
			if err != nil {
				return err
			}
			hdr.Name = name + "/"
			return tw.WriteHeader(hdr)
		case fi.Mode()&os.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			hdr, err := tar.FileInfoHeader(fi, target)
			if err != nil {
				return err
			}
			hdr.Name = name
			return tw.WriteHeader(hdr)
		case fi.Mode().IsRegular():
			return addFile(tw, path, name, fi)
		default:
			// Sockets, devices and the like cannot be reproduced by
			// extraction, so the archive would not verify anyway.
			return fmt.Errorf("unsupported file type at %s", path)
		}
	})
	if err != nil {
		tw.Close()
		return err
	}
	return tw.Close()
}

func addFile(tw *tar.Writer, path, name string, fi os.FileInfo) error {
	hdr, err := tar.FileInfoHeader(fi, "")
	if err != nil {
		return err
	}
	hdr.Name = name
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("archiving %s: %w", path, err)
	}
	return nil
}

func copyContent(dst io.Writer, source string) error {
	f, err := os.Open(source)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(dst, f)
	return err
}
