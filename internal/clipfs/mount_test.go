//go:build linux

package clipfs

import (
	"context"
	"os"
	"syscall"
	"testing"

	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClipNode_openReadsCurrentFile(t *testing.T) {
	c := newCoordinator(t)
	require.Error(t, c.GenerateAll(nil).Wait())
	ctx := context.Background()
	n := &clipNode{src: c, name: "gen-a.mp4"}

	fh, flags, errno := n.Open(ctx, syscall.O_RDONLY)
	require.Equal(t, syscall.Errno(0), errno)
	assert.Zero(t, flags&fuse.FOPEN_KEEP_CACHE, "page cache must not survive regeneration")

	h := fh.(*clipHandle)
	res, errno := h.Read(ctx, make([]byte, 16), 0)
	require.Equal(t, syscall.Errno(0), errno)
	data, status := res.Bytes(make([]byte, 16))
	require.Equal(t, fuse.OK, status)
	assert.Equal(t, "clip", string(data))
	assert.Equal(t, syscall.Errno(0), h.Release(ctx))

	_, errno = h.Read(ctx, make([]byte, 4), 0)
	assert.Equal(t, syscall.EBADF, errno)
}

func TestClipNode_openRejects(t *testing.T) {
	c := newCoordinator(t)
	require.Error(t, c.GenerateAll(nil).Wait())
	ctx := context.Background()

	_, _, errno := (&clipNode{src: c, name: "gen-a.mp4"}).Open(ctx, syscall.O_RDWR)
	assert.Equal(t, syscall.EROFS, errno)

	_, _, errno = (&clipNode{src: c, name: "gen-b.mp4"}).Open(ctx, syscall.O_RDONLY)
	assert.Equal(t, syscall.ENOENT, errno, "unregistered clip")

	p, err := c.Path(0)
	require.NoError(t, err)
	require.NoError(t, os.Remove(p))
	_, _, errno = (&clipNode{src: c, name: "gen-a.mp4"}).Open(ctx, syscall.O_RDONLY)
	assert.Equal(t, syscall.ENOENT, errno, "registered clip gone from disk")
}
