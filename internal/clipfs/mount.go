//go:build linux

package clipfs

import (
	"context"
	"io"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"go.uber.org/zap"
)

const attrTimeout = time.Second

// Options tune the mount.
type Options struct {
	AllowOther bool
	Log        *zap.Logger
}

// Serve mounts src at dir and blocks until ctx is done or the filesystem is
// unmounted externally.
func Serve(ctx context.Context, dir string, src Source, opts Options) error {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	to := attrTimeout
	server, err := fs.Mount(dir, &rootNode{src: src, log: log}, &fs.Options{
		MountOptions: fuse.MountOptions{
			AllowOther: opts.AllowOther,
			FsName:     "clipgen",
			Name:       "clipgen",
		},
		EntryTimeout: &to,
		AttrTimeout:  &to,
	})
	if err != nil {
		return err
	}
	log.Info("mounted", zap.String("dir", dir))

	done := make(chan struct{})
	go func() {
		server.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if err := server.Unmount(); err != nil {
			log.Warn("unmount", zap.String("dir", dir), zap.Error(err))
		}
		<-done
	}
	log.Info("unmounted", zap.String("dir", dir))
	return nil
}

type rootNode struct {
	fs.Inode
	src Source
	log *zap.Logger
}

var _ fs.NodeGetattrer = (*rootNode)(nil)
var _ fs.NodeReaddirer = (*rootNode)(nil)
var _ fs.NodeLookuper = (*rootNode)(nil)

func (r *rootNode) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = fuse.S_IFDIR | 0o555
	return 0
}

func (r *rootNode) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	arts := listing(r.src)
	entries := make([]fuse.DirEntry, 0, len(arts))
	for _, a := range arts {
		entries = append(entries, fuse.DirEntry{Name: a.Name, Ino: ino(a.Name), Mode: fuse.S_IFREG})
	}
	return fs.NewListDirStream(entries), 0
}

func (r *rootNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	a, ok := lookup(r.src, name)
	if !ok {
		return nil, syscall.ENOENT
	}
	fi, err := os.Stat(a.Path)
	if err != nil {
		r.log.Debug("registered clip missing on disk", zap.String("path", a.Path))
		return nil, syscall.ENOENT
	}
	fillAttr(&out.Attr, fi)
	out.SetAttrTimeout(attrTimeout)
	out.SetEntryTimeout(attrTimeout)
	ch := r.NewInode(ctx, &clipNode{src: r.src, name: name}, fs.StableAttr{Mode: fuse.S_IFREG, Ino: ino(name)})
	return ch, 0
}

func fillAttr(attr *fuse.Attr, fi os.FileInfo) {
	mtime := fi.ModTime()
	attr.Mode = fuse.S_IFREG | 0o444
	attr.Size = uint64(fi.Size())
	attr.SetTimes(nil, &mtime, nil)
}

// clipNode re-resolves its artifact on every call so a regenerated clip is
// picked up without remounting.
type clipNode struct {
	fs.Inode
	src  Source
	name string
}

var _ fs.NodeGetattrer = (*clipNode)(nil)
var _ fs.NodeOpener = (*clipNode)(nil)

func (n *clipNode) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	a, ok := lookup(n.src, n.name)
	if !ok {
		return syscall.ENOENT
	}
	fi, err := os.Stat(a.Path)
	if err != nil {
		return syscall.ENOENT
	}
	fillAttr(&out.Attr, fi)
	return 0
}

func (n *clipNode) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	if flags&(syscall.O_WRONLY|syscall.O_RDWR|syscall.O_TRUNC|syscall.O_APPEND) != 0 {
		return nil, 0, syscall.EROFS
	}
	a, ok := lookup(n.src, n.name)
	if !ok {
		return nil, 0, syscall.ENOENT
	}
	f, err := os.Open(a.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, syscall.ENOENT
		}
		return nil, 0, syscall.EIO
	}
	// no FOPEN_KEEP_CACHE: the inode outlives regenerated content
	return &clipHandle{f: f}, 0, 0
}

// clipHandle keeps the clip open for reads. An open handle keeps reading the
// old inode if the clip is regenerated underneath it.
type clipHandle struct {
	mu sync.Mutex
	f  *os.File
}

var _ fs.FileReleaser = (*clipHandle)(nil)
var _ fs.FileReader = (*clipHandle)(nil)

func (h *clipHandle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.f == nil {
		return nil, syscall.EBADF
	}
	n, err := h.f.ReadAt(dest, off)
	if err != nil && err != io.EOF {
		return nil, syscall.EIO
	}
	return fuse.ReadResultData(dest[:n]), 0
}

func (h *clipHandle) Release(ctx context.Context) syscall.Errno {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.f != nil {
		h.f.Close()
		h.f = nil
	}
	return 0
}
