package content

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_getPut(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get(tagSliders)
	assert.True(t, IsNotFound(err))

	r.Put(Artifact{Tag: tagSliders, Path: "/a", Size: 1})
	r.Put(Artifact{Tag: tagEightRects, Path: "/b"})
	r.Put(Artifact{Tag: tagSliders, Path: "/c", Size: 2})

	a, err := r.Get(tagSliders)
	require.NoError(t, err)
	assert.Equal(t, "/c", a.Path, "put overwrites")
	assert.Equal(t, 2, r.Len())

	snap := r.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, tagEightRects, snap[0].Tag)
	assert.Equal(t, tagSliders, snap[1].Tag)

	r.reset()
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_concurrent(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Put(Artifact{Tag: Tag(j % 2), Size: int64(i)})
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if _, err := r.Get(Tag(j % 2)); err != nil {
					assert.True(t, IsNotFound(err))
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 2, r.Len())
}
