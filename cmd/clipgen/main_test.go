package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapetech/clipgen/internal/config"
	"github.com/snapetech/clipgen/internal/content"
	"github.com/snapetech/clipgen/internal/journal"
)

type fakeClips struct {
	calls [2]atomic.Int32
	fail  bool
}

func (f *fakeClips) catalog(*config.Config) (*content.Catalog, error) {
	mk := func(i int) content.Factory {
		return content.FactoryFunc(func(ctx context.Context, dest string, progress content.ProgressFunc) (content.Artifact, error) {
			f.calls[i].Add(1)
			if f.fail {
				return content.Artifact{}, errors.New("encoder exploded")
			}
			progress(100)
			return content.Artifact{}, os.WriteFile(dest, []byte("clip"), 0o644)
		})
	}
	return content.NewCatalog(
		content.Descriptor{Tag: 0, Name: "eight-rects", FileName: "gen-eight-rects.mp4", Factory: mk(0)},
		content.Descriptor{Tag: 1, Name: "sliders", FileName: "gen-sliders.mp4", Factory: mk(1)},
	)
}

type harness struct {
	storage string
	clips   *fakeClips
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	for _, k := range []string{"CLIPGEN_CONFIG", "CLIPGEN_STORAGE", "CLIPGEN_JOURNAL", "CLIPGEN_LOG_FORMAT", "CLIPGEN_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	t.Setenv("CLIPGEN_FFMPEG", filepath.Join(t.TempDir(), "no-ffmpeg"))
	return &harness{storage: t.TempDir(), clips: &fakeClips{}}
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	a := newApp()
	a.envFile = filepath.Join(t.TempDir(), "missing.env")
	a.buildCatalog = h.clips.catalog
	a.interactive = func() bool { return false }

	cmd := newRootCmd(a)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--storage", h.storage, "--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGenerate_buildsThenNoop(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "generate")
	require.NoError(t, err)
	assert.Contains(t, out, "gen-eight-rects.mp4")
	assert.Contains(t, out, "gen-sliders.mp4")
	assert.FileExists(t, filepath.Join(h.storage, "gen-sliders.mp4"))

	out, err = h.run(t, "generate")
	require.NoError(t, err)
	assert.Contains(t, out, "content ready")
	assert.EqualValues(t, 1, h.clips.calls[0].Load())

	_, err = h.run(t, "generate", "--force")
	require.NoError(t, err)
	assert.EqualValues(t, 2, h.clips.calls[0].Load())
	assert.EqualValues(t, 2, h.clips.calls[1].Load())
}

func TestGenerate_tag(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "generate", "--tag", "sliders")
	require.NoError(t, err)
	assert.Contains(t, out, "gen-sliders.mp4")
	assert.NotContains(t, out, "gen-eight-rects.mp4")
	assert.EqualValues(t, 0, h.clips.calls[0].Load())
	assert.EqualValues(t, 1, h.clips.calls[1].Load())

	_, err = h.run(t, "generate", "--tag", "nope")
	assert.Error(t, err)
}

func TestGenerate_failure(t *testing.T) {
	h := newHarness(t)
	h.clips.fail = true

	_, err := h.run(t, "generate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encoder exploded")
	var ge content.GenerationError
	assert.True(t, errors.As(err, &ge))
	assert.EqualValues(t, 0, h.clips.calls[1].Load(), "run stops at the first failure")
}

func TestStatus(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "ready:   false")
	assert.Contains(t, out, "missing: gen-eight-rects.mp4")
	assert.Contains(t, out, "encoder: encoder unavailable")

	_, err = h.run(t, "generate")
	require.NoError(t, err)
	out, err = h.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "ready:   true")
	assert.NotContains(t, out, "missing:")
	assert.Contains(t, out, "clip:    gen-sliders.mp4 (4 bytes")
}

func TestRuns(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "runs")
	require.Error(t, err, "journal disabled by default")

	t.Setenv("CLIPGEN_JOURNAL", filepath.Join(t.TempDir(), "runs.db"))
	_, err = h.run(t, "generate")
	require.NoError(t, err)

	out, err := h.run(t, "runs", "--json")
	require.NoError(t, err)
	var entries []journal.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Done())
	assert.Empty(t, entries[0].Error)

	out, err = h.run(t, "runs")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "0,1")
	assert.Contains(t, lines[1], "ok (")
}
