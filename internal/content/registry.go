package content

import (
	"sort"
	"sync"
)

// Registry maps tags to completed artifacts. All access goes through one mutex.
type Registry struct {
	mu      sync.Mutex
	entries map[Tag]Artifact
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[Tag]Artifact)}
}

// Get returns the artifact for tag or NotFoundError.
func (r *Registry) Get(tag Tag) (Artifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.entries[tag]
	if !ok {
		return Artifact{}, NotFoundError{Tag: tag}
	}
	return a, nil
}

// Put inserts or overwrites the entry for a.Tag.
func (r *Registry) Put(a Artifact) {
	r.mu.Lock()
	r.entries[a.Tag] = a
	r.mu.Unlock()
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Snapshot returns all entries ordered by tag.
func (r *Registry) Snapshot() []Artifact {
	r.mu.Lock()
	out := make([]Artifact, 0, len(r.entries))
	for _, a := range r.entries {
		out = append(out, a)
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out
}

// reset drops every entry. Only the first Initialize calls it.
func (r *Registry) reset() {
	r.mu.Lock()
	r.entries = make(map[Tag]Artifact)
	r.mu.Unlock()
}
