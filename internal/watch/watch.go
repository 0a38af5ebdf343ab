// Package watch regenerates the clip catalog when a clip file disappears
// from the storage root while the process is running.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/snapetech/clipgen/internal/cache"
	"github.com/snapetech/clipgen/internal/content"
)

// Target is the part of the coordinator the watcher drives.
type Target interface {
	Catalog() *content.Catalog
	StorageRoot() string
	Missing() []content.Tag
	GenerateAll(sink content.ProgressSink) *content.Run
}

// Watcher watches the storage root for removed or renamed clip files and
// requests a full generation once events settle for the debounce period.
type Watcher struct {
	target   Target
	debounce time.Duration
	sink     func() content.ProgressSink
	log      *zap.Logger
	fsw      *fsnotify.Watcher
}

// New starts watching target's storage root. sink builds the progress sink
// for each triggered run; it may be nil.
func New(target Target, debounce time.Duration, sink func() content.ProgressSink, log *zap.Logger) (*Watcher, error) {
	root := target.StorageRoot()
	if root == "" {
		return nil, content.ErrNotInitialized
	}
	if log == nil {
		log = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = time.Second
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watcher: %w", err)
	}
	if err := fsw.Add(root); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", root, err)
	}
	return &Watcher{target: target, debounce: debounce, sink: sink, log: log, fsw: fsw}, nil
}

// Run processes events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false
	var inflight <-chan struct{}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.log.Debug("clip file changed", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			pending = true
			timer.Reset(w.debounce)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))
		case <-timer.C:
			if !pending {
				continue
			}
			if inflight != nil {
				select {
				case <-inflight:
					inflight = nil
				default:
					// a run is still going; look again after it had time to finish
					timer.Reset(w.debounce)
					continue
				}
			}
			pending = false
			missing := w.target.Missing()
			if len(missing) == 0 {
				continue
			}
			w.log.Info("clip files missing; regenerating", zap.Int("missing", len(missing)))
			var sink content.ProgressSink
			if w.sink != nil {
				sink = w.sink()
			}
			inflight = w.target.GenerateAll(sink).Done()
		}
	}
}

// relevant reports whether ev removed or renamed a catalog clip file.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(ev.Name)
	if cache.IsPartial(name) {
		return false
	}
	_, ok := w.target.Catalog().ByFileName(name)
	return ok
}
