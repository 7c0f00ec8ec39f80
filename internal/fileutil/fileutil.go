// Package fileutil provides file copy, temp-space, and naming helpers shared
// by the optimisers.
package fileutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// CopyFile streams src to dst using io.Copy with default permissions (0o644).
func CopyFile(src, dst string) error {
	return CopyFileMode(src, dst, 0o644)
}

// CopyFileMode streams src to dst, setting the given file mode on dst.
func CopyFileMode(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// MoveFile renames src to dst, falling back to copy+remove across devices.
func MoveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := CopyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

// FileSize returns the size of path in bytes.
func FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// CopyTimestamps applies src's modification time to dst.
func CopyTimestamps(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// NewTempDir creates a collision-free per-request scratch directory under
// base (or the system temp dir when base is empty).
func NewTempDir(base string) (string, error) {
	if base == "" {
		base = os.TempDir()
	}
	dir := filepath.Join(base, "clop-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	return dir, nil
}

// Ext returns the lowercase extension of path without the leading dot.
func Ext(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// Stem returns the base name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// OutputPath builds the conventional optimised-file name
// "<stem>.clop.<ext>" in dir (or beside source when dir is empty).
func OutputPath(source, dir, ext string) string {
	if dir == "" {
		dir = filepath.Dir(source)
	}
	return filepath.Join(dir, fmt.Sprintf("%s.clop.%s", Stem(source), ext))
}

// NumberedOutputPath appends a sequence number ahead of the extension:
// "<stem>.clop.<n>.<ext>".
func NumberedOutputPath(source, dir, ext string, n uint64) string {
	if dir == "" {
		dir = filepath.Dir(source)
	}
	return filepath.Join(dir, fmt.Sprintf("%s.clop.%d.%s", Stem(source), n, ext))
}
