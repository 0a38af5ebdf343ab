package content

import (
	"context"
	"time"
)

// Artifact is the handle for one generated file.
type Artifact struct {
	Tag         Tag
	Name        string // file name
	Path        string
	Size        int64
	Frames      int
	Duration    time.Duration
	GeneratedAt time.Time
}

// ProgressFunc receives a percentage (0-100) for the artifact being built.
type ProgressFunc func(percent int)

// Factory builds one artifact kind. Create writes the artifact to dest and
// reports progress through progress, which it calls only from the calling
// goroutine and should finish with 100. Failures should be GenerationError
// or plain errors; the coordinator wraps the latter.
type Factory interface {
	Create(ctx context.Context, dest string, progress ProgressFunc) (Artifact, error)
}

// Describer is implemented by factories that can describe an artifact
// without building it. Used when adopting files left on disk by an earlier process.
type Describer interface {
	Describe() Artifact
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(ctx context.Context, dest string, progress ProgressFunc) (Artifact, error)

func (f FactoryFunc) Create(ctx context.Context, dest string, progress ProgressFunc) (Artifact, error) {
	return f(ctx, dest, progress)
}
