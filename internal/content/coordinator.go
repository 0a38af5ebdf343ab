// Package content coordinates lazy generation of the clip catalog: readiness
// checks against the storage root, sequential background generation with
// progress reporting, and the in-memory registry of finished artifacts.
package content

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/snapetech/clipgen/internal/cache"
)

// Coordinator owns the storage root and the artifact registry. Construct one
// per process in the composition root and pass it to consumers.
type Coordinator struct {
	catalog  *Catalog
	registry *Registry
	log      *zap.Logger
	metrics  *Metrics
	observer RunObserver
	now      func() time.Time

	initMu      sync.Mutex
	initialized atomic.Bool
	root        string

	// one generation per tag at a time; later runs wait on the channel
	inFlightMu sync.Mutex
	inFlight   map[Tag]chan struct{}
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger; the default discards output.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetrics records run and artifact metrics into m.
func WithMetrics(m *Metrics) Option { return func(c *Coordinator) { c.metrics = m } }

// WithObserver notifies o when runs start and finish.
func WithObserver(o RunObserver) Option { return func(c *Coordinator) { c.observer = o } }

// WithClock replaces time.Now for timestamps and durations.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// New returns an uninitialized coordinator over catalog. Call Initialize before generating.
func New(catalog *Catalog, opts ...Option) *Coordinator {
	c := &Coordinator{
		catalog:  catalog,
		registry: NewRegistry(),
		log:      zap.NewNop(),
		now:      time.Now,
		inFlight: make(map[Tag]chan struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Catalog returns the descriptor table the coordinator was built with.
func (c *Coordinator) Catalog() *Catalog { return c.catalog }

// Initialize sets the storage root and clears the registry. Only the first
// successful call has any effect; later calls return nil without touching state.
func (c *Coordinator) Initialize(root string) error {
	c.initMu.Lock()
	defer c.initMu.Unlock()
	if c.initialized.Load() {
		return nil
	}
	if root == "" {
		return fmt.Errorf("storage root required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("storage root %q: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("create storage root: %w", err)
	}
	c.root = abs
	c.registry.reset()
	c.initialized.Store(true)
	c.log.Info("storage initialized", zap.String("root", abs))
	return nil
}

// StorageRoot returns the root set by Initialize, or "" before that.
func (c *Coordinator) StorageRoot() string {
	if !c.initialized.Load() {
		return ""
	}
	c.initMu.Lock()
	defer c.initMu.Unlock()
	return c.root
}

// Path returns the final on-disk path for tag.
func (c *Coordinator) Path(tag Tag) (string, error) {
	desc, err := c.catalog.Lookup(tag)
	if err != nil {
		return "", err
	}
	root := c.StorageRoot()
	if root == "" {
		return "", ErrNotInitialized
	}
	return cache.Path(root, desc.FileName), nil
}

// IsContentReady reports whether every catalog tag has a readable file under
// the storage root. It only probes the filesystem; registry state is ignored.
func (c *Coordinator) IsContentReady() bool {
	if c.StorageRoot() == "" {
		return false
	}
	return len(c.Missing()) == 0
}

// Missing returns the tags whose files are not readable, in tag order.
func (c *Coordinator) Missing() []Tag {
	root := c.StorageRoot()
	if root == "" {
		return c.catalog.Tags()
	}
	var missing []Tag
	for _, d := range c.catalog.descs {
		p := cache.Path(root, d.FileName)
		if !readable(p) {
			c.log.Debug("can't find readable artifact", zap.String("path", p))
			missing = append(missing, d.Tag)
		}
	}
	return missing
}

func readable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	fi, err := f.Stat()
	return err == nil && fi.Mode().IsRegular()
}

// Artifact returns the registry entry for tag. It fails with NotFoundError if
// tag was not generated (or adopted) in this process lifetime.
func (c *Coordinator) Artifact(tag Tag) (Artifact, error) {
	if _, err := c.catalog.Lookup(tag); err != nil {
		return Artifact{}, err
	}
	return c.registry.Get(tag)
}

// Artifacts returns every registered artifact ordered by tag.
func (c *Coordinator) Artifacts() []Artifact { return c.registry.Snapshot() }

// Adopt registers artifacts already present on disk that the registry does
// not hold yet, and returns how many were added.
func (c *Coordinator) Adopt() int {
	root := c.StorageRoot()
	if root == "" {
		return 0
	}
	n := 0
	for _, d := range c.catalog.descs {
		if _, err := c.registry.Get(d.Tag); err == nil {
			continue
		}
		p := cache.Path(root, d.FileName)
		if !readable(p) {
			continue
		}
		fi, err := os.Stat(p)
		if err != nil {
			continue
		}
		var a Artifact
		if desc, ok := d.Factory.(Describer); ok {
			a = desc.Describe()
		}
		a.Tag, a.Name, a.Path = d.Tag, d.FileName, p
		a.Size, a.GeneratedAt = fi.Size(), fi.ModTime()
		c.registry.Put(a)
		n++
	}
	c.metrics.setRegistered(c.registry.Len())
	if n > 0 {
		c.log.Info("adopted artifacts from disk", zap.Int("count", n), zap.String("root", root))
	}
	return n
}

// GenerateAll requests generation of every catalog tag.
func (c *Coordinator) GenerateAll(sink ProgressSink) *Run {
	return c.RequestGeneration(c.catalog.Tags(), sink)
}

// RequestGeneration starts a run over tags and returns immediately. Artifacts
// are built one at a time in the given order on a background goroutine; sink
// receives progress and exactly one OnComplete from a separate goroutine.
// The first failure aborts the rest of the run. There is no cancellation.
func (c *Coordinator) RequestGeneration(tags []Tag, sink ProgressSink) *Run {
	if sink == nil {
		sink = SinkFuncs{}
	}
	run := newRun(tags)
	go deliver(run, sink)
	go c.work(run)
	return run
}

// deliver is the run's foreground side: the only goroutine that calls sink.
func deliver(run *Run, sink ProgressSink) {
	defer close(run.done)
	for ev := range run.events {
		switch ev.Kind {
		case EventProgress:
			sink.OnProgress(ev.Index, ev.Tag, ev.Percent)
		case EventComplete:
			run.err = ev.Err
			sink.OnComplete(ev.Err)
		}
	}
}

func (c *Coordinator) work(run *Run) {
	log := c.log.With(zap.String("run", run.ID))
	info := RunInfo{ID: run.ID, Tags: run.Tags, Started: c.now()}
	if c.observer != nil {
		c.observer.RunStarted(info)
	}
	log.Debug("generation started", zap.Int("tags", len(run.Tags)))

	err := c.generate(run, log)

	info.Finished = c.now()
	c.metrics.runDone(err)
	if c.observer != nil {
		c.observer.RunFinished(info, err)
	}
	if err != nil {
		log.Warn("failed while generating content", zap.Error(err))
	} else {
		log.Debug("generation complete", zap.Duration("elapsed", info.Finished.Sub(info.Started)))
	}
	run.events <- Event{Kind: EventComplete, Err: err}
	close(run.events)
}

func (c *Coordinator) generate(run *Run, log *zap.Logger) error {
	root := c.StorageRoot()
	if root == "" {
		return ErrNotInitialized
	}
	for i, tag := range run.Tags {
		desc, err := c.catalog.Lookup(tag)
		if err != nil {
			return err
		}
		if err := c.generateOne(run, i, desc, root, log); err != nil {
			return err
		}
	}
	return nil
}

func (c *Coordinator) generateOne(run *Run, index int, desc Descriptor, root string, log *zap.Logger) error {
	emit := func(percent int) {
		run.events <- Event{Kind: EventProgress, Index: index, Tag: desc.Tag, Percent: clampPercent(percent)}
		c.metrics.progressEvent()
	}
	finalPath := cache.Path(root, desc.FileName)

	emit(0)
	release := c.acquire(desc.Tag)
	defer release()

	start := c.now()
	partialPath, err := cache.CreatePartial(root, desc.FileName)
	if err != nil {
		log.Warn("create partial failed", zap.String("artifact", desc.FileName), zap.Error(err))
		return asGenerationError(desc, err)
	}
	a, err := create(desc.Factory, partialPath, emit)
	if err != nil {
		os.Remove(partialPath)
		log.Warn("generate failed", zap.String("artifact", desc.FileName), zap.Error(err))
		return asGenerationError(desc, err)
	}
	if fi, err := os.Stat(partialPath); err != nil || fi.Size() == 0 {
		os.Remove(partialPath)
		log.Warn("generate wrote no output", zap.String("artifact", desc.FileName))
		return asGenerationError(desc, errNoOutput)
	}
	if err := os.Rename(partialPath, finalPath); err != nil {
		os.Remove(partialPath)
		log.Warn("rename failed", zap.String("from", partialPath), zap.String("to", finalPath), zap.Error(err))
		return asGenerationError(desc, fmt.Errorf("rename: %w", err))
	}
	a.Tag, a.Name, a.Path = desc.Tag, desc.FileName, finalPath
	if fi, err := os.Stat(finalPath); err == nil {
		a.Size = fi.Size()
	}
	if a.GeneratedAt.IsZero() {
		a.GeneratedAt = c.now()
	}
	c.registry.Put(a)
	c.metrics.setRegistered(c.registry.Len())
	c.metrics.observeArtifact(desc.FileName, c.now().Sub(start))
	log.Info("generate ok", zap.String("artifact", desc.FileName), zap.String("path", finalPath), zap.Int64("size", a.Size))
	emit(100)
	return nil
}

var errNoOutput = errors.New("factory wrote no output")

// acquire blocks until no other run is generating tag, then claims it.
// The returned func releases the claim and wakes waiters.
func (c *Coordinator) acquire(tag Tag) (release func()) {
	for {
		c.inFlightMu.Lock()
		busy, ok := c.inFlight[tag]
		if !ok {
			done := make(chan struct{})
			c.inFlight[tag] = done
			c.inFlightMu.Unlock()
			return func() {
				c.inFlightMu.Lock()
				delete(c.inFlight, tag)
				c.inFlightMu.Unlock()
				close(done)
			}
		}
		c.inFlightMu.Unlock()
		<-busy
	}
}

// create runs the factory and converts a panic into an error.
func create(f Factory, dest string, progress ProgressFunc) (a Artifact, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return f.Create(context.Background(), dest, progress)
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}
