// Package target locates prepared receptor targets and unpacks target archives.
//
// A target is a directory named after the target inside the configured target
// directory. Archives are distributed as <name>.zip next to it.
package target

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bulkdock/bulkdock/pkg/core"
)

// Dir returns root/name after checking that it is an existing directory.
func Dir(root, name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	path := filepath.Join(root, name)
	info, err := os.Stat(path)
	switch {
	case err != nil:
		return "", &core.InputError{Path: path, Reason: "target not found", Err: err}
	case !info.IsDir():
		return "", &core.InputError{Path: path, Reason: "target is not a directory"}
	}
	return path, nil
}

// ArchivePath is where the archive of name is expected.
func ArchivePath(root, name string) string {
	return filepath.Join(root, name+".zip")
}

// Extract unpacks root/<name>.zip into root/<name>, overwriting files that
// already exist. It returns the number of files written.
func Extract(root, name string) (int, error) {
	if err := validateName(name); err != nil {
		return 0, err
	}
	archive := ArchivePath(root, name)
	zr, err := zip.OpenReader(archive)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, &core.InputError{Path: archive, Reason: "target archive not found", Err: err}
		}
		return 0, &core.InputError{Path: archive, Reason: "unreadable target archive", Err: err}
	}
	defer zr.Close()

	dest := filepath.Join(root, name)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return 0, fmt.Errorf("create target directory %s: %w", dest, err)
	}

	written := 0
	for _, f := range zr.File {
		path, err := entryPath(dest, f.Name)
		if err != nil {
			return written, &core.InputError{Path: archive, Reason: err.Error()}
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(path, 0o755); err != nil {
				return written, fmt.Errorf("create %s: %w", path, err)
			}
			continue
		}
		if !f.Mode().IsRegular() {
			continue
		}
		if err := extractFile(f, path); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// entryPath joins an archive entry name onto dest, rejecting names that
// would land outside it.
func entryPath(dest, name string) (string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("absolute entry %q", name)
	}
	path := filepath.Join(dest, name)
	rel, err := filepath.Rel(dest, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("entry %q escapes the target directory", name)
	}
	return path, nil
}

func extractFile(f *zip.File, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, f.Mode().Perm()|0o600)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return out.Close()
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return &core.NamingError{Field: "target", Value: name, Reason: "must be a plain directory name"}
	}
	return nil
}
