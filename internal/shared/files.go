package shared

import (
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FindByBaseName returns the path of the first regular file in dir whose
// name is base plus an extension. Used both to detect already-downloaded
// tracks and to locate fetch output whose extension is chosen by the
// download source.
func FindByBaseName(dir, base string) (string, bool) {
	if base == "" {
		return "", false
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), base+".") {
			return filepath.Join(dir, entry.Name()), true
		}
	}

	return "", false
}

// EnsureDir creates dir and any missing parents.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// MoveFile renames src to dst, falling back to copy-and-remove when the
// two paths sit on different filesystems.
func MoveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}

	return os.Remove(src)
}
