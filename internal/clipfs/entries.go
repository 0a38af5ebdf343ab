// Package clipfs exposes generated clips as a read-only FUSE filesystem.
// Only clips registered in this process appear; everything else is ENOENT.
package clipfs

import (
	"hash/fnv"

	"github.com/snapetech/clipgen/internal/content"
)

// Source is the part of content.Coordinator the filesystem reads from.
type Source interface {
	Catalog() *content.Catalog
	Artifact(tag content.Tag) (content.Artifact, error)
}

// listing returns the registered artifacts in catalog order.
func listing(src Source) []content.Artifact {
	var out []content.Artifact
	for _, d := range src.Catalog().Descriptors() {
		if a, err := src.Artifact(d.Tag); err == nil {
			out = append(out, a)
		}
	}
	return out
}

// lookup resolves a directory entry name to its registered artifact.
func lookup(src Source, name string) (content.Artifact, bool) {
	d, ok := src.Catalog().ByFileName(name)
	if !ok {
		return content.Artifact{}, false
	}
	a, err := src.Artifact(d.Tag)
	return a, err == nil
}

// Stable inode numbers from file names so the same clip keeps its inode across lookups.
func ino(name string) uint64 {
	h := fnv.New64a()
	h.Write([]byte("clipgen:" + name))
	return h.Sum64()
}
