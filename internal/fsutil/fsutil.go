// Package fsutil provides file system utility functions on top of an
// injected afero.Fs, so callers never touch the host disk directly.
package fsutil

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"
)

// ListDirs returns the names of the immediate subdirectories of path,
// sorted lexicographically. A missing path yields an empty slice, not an
// error; callers decide whether absence is fatal.
func ListDirs(fs afero.Fs, path string) ([]string, error) {
	exists, err := afero.DirExists(fs, path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	entries, err := afero.ReadDir(fs, path)
	if err != nil {
		return nil, err
	}

	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name())
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// ListFilesByExt returns the names (not paths) of the regular files directly
// under path whose name ends with the given extension, sorted. The search is
// not recursive. A missing path yields an empty slice.
func ListFilesByExt(fs afero.Fs, path, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	exists, err := afero.DirExists(fs, path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	entries, err := afero.ReadDir(fs, path)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), extension) {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// ListFiles returns the names of all regular files directly under path,
// sorted. A missing path yields an empty slice.
func ListFiles(fs afero.Fs, path string) ([]string, error) {
	exists, err := afero.DirExists(fs, path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	entries, err := afero.ReadDir(fs, path)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// HashFile returns the xxhash digest of the file's content.
func HashFile(fs afero.Fs, path string) (uint64, error) {
	f, err := fs.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, fmt.Errorf("hashing %s: %w", path, err)
	}
	return h.Sum64(), nil
}

// CopyFile copies src to dst, creating dst's parent directories as needed.
func CopyFile(fs afero.Fs, src, dst string) error {
	in, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	out, err := fs.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	return out.Close()
}

// WriteFile writes data to path, creating parent directories as needed.
func WriteFile(fs afero.Fs, path string, data []byte) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return afero.WriteFile(fs, path, data, 0o644)
}
