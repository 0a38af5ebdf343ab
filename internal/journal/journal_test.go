package journal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapetech/clipgen/internal/content"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "state", "journal.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournal_startFinish(t *testing.T) {
	j := openTemp(t)
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	j.RunStarted(content.RunInfo{ID: "a", Tags: []content.Tag{0, 1}, Started: t0})
	j.RunFinished(content.RunInfo{ID: "a", Finished: t0.Add(time.Second)}, nil)
	j.RunStarted(content.RunInfo{ID: "b", Tags: []content.Tag{1}, Started: t0.Add(time.Minute)})
	j.RunFinished(content.RunInfo{ID: "b", Finished: t0.Add(2 * time.Minute)}, errors.New("generate gen-sliders.mp4: boom"))
	j.RunStarted(content.RunInfo{ID: "c", Tags: nil, Started: t0.Add(time.Hour)})

	got, err := j.Recent(10)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "c", got[0].ID)
	assert.False(t, got[0].Done())
	assert.Empty(t, got[0].Tags)

	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, []content.Tag{1}, got[1].Tags)
	assert.Equal(t, "generate gen-sliders.mp4: boom", got[1].Error)
	assert.True(t, got[1].Done())

	assert.Equal(t, "a", got[2].ID)
	assert.Equal(t, []content.Tag{0, 1}, got[2].Tags)
	assert.True(t, got[2].Started.Equal(t0))
	assert.True(t, got[2].Finished.Equal(t0.Add(time.Second)))
	assert.Empty(t, got[2].Error)

	limited, err := j.Recent(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestJournal_reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path, nil)
	require.NoError(t, err)
	j.RunStarted(content.RunInfo{ID: "x", Tags: []content.Tag{0}, Started: time.Now()})
	require.NoError(t, j.Close())

	j, err = Open(path, nil)
	require.NoError(t, err)
	defer j.Close()
	got, err := j.Recent(0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "x", got[0].ID)
}

func TestJournal_observesCoordinator(t *testing.T) {
	j := openTemp(t)
	ok := content.FactoryFunc(func(ctx context.Context, dest string, progress content.ProgressFunc) (content.Artifact, error) {
		return content.Artifact{}, os.WriteFile(dest, []byte("x"), 0o644)
	})
	fail := content.FactoryFunc(func(ctx context.Context, dest string, progress content.ProgressFunc) (content.Artifact, error) {
		return content.Artifact{}, errors.New("encoder missing")
	})
	cat, err := content.NewCatalog(
		content.Descriptor{Tag: 0, Name: "a", FileName: "a.mp4", Factory: ok},
		content.Descriptor{Tag: 1, Name: "b", FileName: "b.mp4", Factory: fail},
	)
	require.NoError(t, err)
	c := content.New(cat, content.WithObserver(j))
	require.NoError(t, c.Initialize(t.TempDir()))

	run := c.GenerateAll(nil)
	require.Error(t, run.Wait())

	got, err := j.Recent(5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, run.ID, got[0].ID)
	assert.Equal(t, []content.Tag{0, 1}, got[0].Tags)
	assert.Contains(t, got[0].Error, "encoder missing")
	assert.True(t, got[0].Done())
}

func TestTagsRoundTrip(t *testing.T) {
	assert.Equal(t, "", formatTags(nil))
	assert.Equal(t, []content.Tag{3, 0, 1}, parseTags(formatTags([]content.Tag{3, 0, 1})))
	assert.Equal(t, []content.Tag{2}, parseTags("2,x"))
}
