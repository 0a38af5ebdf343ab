package cache

import (
	"os"
	"path/filepath"
	"strings"
)

const partialSuffix = ".partial"

// Path returns the on-disk location of a generated artifact. Stable: the same
// fileName always maps to the same path under root.
// Generators write to a file from CreatePartial and the caller renames it into place when complete.
func Path(root, fileName string) string {
	return filepath.Join(root, sanitizeName(fileName))
}

// CreatePartial creates an empty, uniquely named file next to Path(root, fileName)
// for one write attempt and returns its path. Concurrent attempts, in this
// process or another, never share a partial file.
func CreatePartial(root, fileName string) (string, error) {
	f, err := os.CreateTemp(root, sanitizeName(fileName)+".*"+partialSuffix)
	if err != nil {
		return "", err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}

// IsPartial reports whether name is an in-progress file produced by CreatePartial.
func IsPartial(name string) bool {
	return strings.HasSuffix(name, partialSuffix)
}

func sanitizeName(name string) string {
	s := strings.ReplaceAll(name, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, "\x00", "_")
	if s == "" || s == "." || s == ".." {
		s = "unknown"
	}
	return s
}
