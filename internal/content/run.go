package content

import (
	"time"

	"github.com/google/uuid"
)

// EventKind distinguishes progress events from the terminal event of a run.
type EventKind int

const (
	EventProgress EventKind = iota
	EventComplete
)

// Event is one message sent from a run's worker to its delivery loop.
type Event struct {
	Kind    EventKind
	Index   int // position of Tag in the run
	Tag     Tag
	Percent int
	Err     error // EventComplete only
}

// eventBuffer bounds how far the worker may run ahead of the sink. The worker
// blocks rather than drops when the buffer is full.
const eventBuffer = 64

// Run is one generation request over an ordered tag list. The worker
// goroutine only sends on events; the delivery goroutine owns err and closes
// done after the terminal event.
type Run struct {
	ID   string
	Tags []Tag

	events chan Event
	done   chan struct{}
	err    error
}

func newRun(tags []Tag) *Run {
	return &Run{
		ID:     uuid.NewString(),
		Tags:   append([]Tag(nil), tags...),
		events: make(chan Event, eventBuffer),
		done:   make(chan struct{}),
	}
}

// Done is closed after the sink has received OnComplete.
func (r *Run) Done() <-chan struct{} { return r.done }

// Err returns the terminal error. Valid only after Done is closed.
func (r *Run) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}

// Wait blocks until the run finishes and returns its terminal error.
func (r *Run) Wait() error {
	<-r.done
	return r.err
}

// RunInfo describes a run for observers such as the journal.
type RunInfo struct {
	ID       string
	Tags     []Tag
	Started  time.Time
	Finished time.Time
}

// RunObserver is notified from the worker goroutine when runs start and finish.
type RunObserver interface {
	RunStarted(info RunInfo)
	RunFinished(info RunInfo, err error)
}
