package server

import (
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/zeebo/blake3"
	"go.uber.org/zap"

	"github.com/snapetech/clipgen/internal/content"
)

func (s *Server) serveArtifact(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("file")
	desc, ok := s.Coordinator.Catalog().ByFileName(name)
	if !ok {
		http.NotFound(w, r)
		return
	}
	a, err := s.Coordinator.Artifact(desc.Tag)
	if err != nil {
		if content.IsNotFound(err) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	f, err := os.Open(a.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.Error(w, "artifact missing on disk", http.StatusNotFound)
			return
		}
		s.Log.Warn("open artifact", zap.String("path", a.Path), zap.Error(err))
		http.Error(w, "open failed", http.StatusInternalServerError)
		return
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		http.Error(w, "stat failed", http.StatusInternalServerError)
		return
	}
	tag, err := s.etags.get(a.Path, fi, f)
	if err != nil {
		s.Log.Warn("hash artifact", zap.String("path", a.Path), zap.Error(err))
	} else {
		w.Header().Set("ETag", tag)
	}
	w.Header().Set("Content-Type", "video/mp4")
	http.ServeContent(w, r, a.Name, fi.ModTime(), f)
}

type etagEntry struct {
	mod  time.Time
	size int64
	tag  string
}

// etagCache memoizes content hashes by path, invalidated by mtime and size.
type etagCache struct {
	mu      sync.Mutex
	entries map[string]etagEntry
}

// get returns the quoted ETag for f, hashing it when the cached entry is stale.
// f is rewound before returning.
func (c *etagCache) get(path string, fi os.FileInfo, f io.ReadSeeker) (string, error) {
	c.mu.Lock()
	e, ok := c.entries[path]
	c.mu.Unlock()
	if ok && e.mod.Equal(fi.ModTime()) && e.size == fi.Size() {
		return e.tag, nil
	}

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	tag := `"` + hex.EncodeToString(h.Sum(nil)[:16]) + `"`

	c.mu.Lock()
	if c.entries == nil {
		c.entries = make(map[string]etagEntry)
	}
	c.entries[path] = etagEntry{mod: fi.ModTime(), size: fi.Size(), tag: tag}
	c.mu.Unlock()
	return tag, nil
}
