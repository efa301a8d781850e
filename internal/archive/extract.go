package archive

import (
	"archive/tar"
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/bianoble/snapkeep/internal/sandbox"
)

// Extract unpacks a tar or tar.gz artifact fully into targetDir, creating
// it if absent. Member paths are confined to targetDir; an entry that
// resolves outside it fails with an ArchiveError.
func Extract(archivePath, targetDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return fmt.Errorf("creating target %s: %w", targetDir, err)
	}

	br := bufio.NewReader(f)
	var r io.Reader = br
	if hasGzipMagic(br) {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return &ArchiveError{Path: archivePath, Op: "extract", Err: err}
		}
		defer gz.Close()
		r = gz
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &ArchiveError{Path: archivePath, Op: "extract", Err: err}
		}
		if err := extractMember(tr, hdr, archivePath, targetDir); err != nil {
			return err
		}
	}
}

func extractMember(tr *tar.Reader, hdr *tar.Header, archivePath, targetDir string) error {
	name := filepath.FromSlash(hdr.Name)
	resolved, err := sandbox.ValidatePath(targetDir, name)
	if err != nil {
		return &ArchiveError{Path: archivePath, Op: "extract", Err: fmt.Errorf("unsafe member %q: %w", hdr.Name, err)}
	}

	switch hdr.Typeflag {
	case tar.TypeDir:
		return os.MkdirAll(resolved, os.FileMode(hdr.Mode).Perm()|0700)
	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(resolved), 0755); err != nil {
			return err
		}
		out, err := os.OpenFile(resolved, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(hdr.Mode).Perm())
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, tr); err != nil {
			out.Close()
			return &ArchiveError{Path: archivePath, Op: "extract", Err: err}
		}
		return out.Close()
	case tar.TypeSymlink:
		if filepath.IsAbs(hdr.Linkname) {
			return &ArchiveError{Path: archivePath, Op: "extract", Err: fmt.Errorf("absolute symlink target %q", hdr.Linkname)}
		}
		if err := os.MkdirAll(filepath.Dir(resolved), 0755); err != nil {
			return err
		}
		return os.Symlink(hdr.Linkname, resolved)
	default:
		// Hard links, devices and the like are never produced by Create.
		return nil
	}
}

// Restore reproduces an artifact under targetDir with no verification.
// Container artifacts are extracted fully; a plain copy artifact is
// copied in under its artifact name.
func Restore(archivePath, targetDir string) error {
	container, err := IsContainer(archivePath)
	if err != nil {
		return err
	}
	if container {
		return Extract(archivePath, targetDir)
	}

	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return fmt.Errorf("creating target %s: %w", targetDir, err)
	}

	info, err := os.Stat(archivePath)
	if err != nil {
		return fmt.Errorf("stat archive: %w", err)
	}

	dst := filepath.Join(targetDir, filepath.Base(archivePath))
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	if err := copyContent(out, archivePath); err != nil {
		out.Close()
		return fmt.Errorf("copying archive: %w", err)
	}
	return out.Close()
}

// IsContainer reports whether the artifact at path starts a readable tar
// stream, optionally gzip-compressed.
func IsContainer(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var r io.Reader = br
	if hasGzipMagic(br) {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return false, nil
		}
		defer gz.Close()
		r = gz
	}

	if _, err := tar.NewReader(r).Next(); err != nil {
		return false, nil
	}
	return true, nil
}

func hasGzipMagic(br *bufio.Reader) bool {
	magic, err := br.Peek(2)
	return err == nil && magic[0] == 0x1f && magic[1] == 0x8b
}
