//go:build !linux

package clipfs

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Options tune the mount.
type Options struct {
	AllowOther bool
	Log        *zap.Logger
}

// Serve is unavailable on non-Linux builds because the mount depends on go-fuse.
func Serve(ctx context.Context, dir string, src Source, opts Options) error {
	return fmt.Errorf("clipfs mount is only supported on linux builds")
}
