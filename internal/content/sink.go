package content

import (
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ProgressSink observes one run. Calls arrive from a single goroutine in the
// order the worker produced them; OnComplete is always last and happens once.
type ProgressSink interface {
	OnProgress(index int, tag Tag, percent int)
	OnComplete(err error)
}

// SinkFuncs adapts plain functions to ProgressSink. Nil fields are ignored.
type SinkFuncs struct {
	Progress func(index int, tag Tag, percent int)
	Complete func(err error)
}

func (s SinkFuncs) OnProgress(index int, tag Tag, percent int) {
	if s.Progress != nil {
		s.Progress(index, tag, percent)
	}
}

func (s SinkFuncs) OnComplete(err error) {
	if s.Complete != nil {
		s.Complete(err)
	}
}

type teeSink []ProgressSink

// Tee fans every call out to each non-nil sink in order.
func Tee(sinks ...ProgressSink) ProgressSink {
	out := make(teeSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (t teeSink) OnProgress(index int, tag Tag, percent int) {
	for _, s := range t {
		s.OnProgress(index, tag, percent)
	}
}

func (t teeSink) OnComplete(err error) {
	for _, s := range t {
		s.OnComplete(err)
	}
}

// LogSink writes run progress to a zap logger. Start and finish of each
// artifact are logged at info; intermediate percentages at debug, at most
// once per second.
type LogSink struct {
	log     *zap.Logger
	catalog *Catalog
	every   rate.Sometimes
}

func NewLogSink(log *zap.Logger, catalog *Catalog) *LogSink {
	return &LogSink{
		log:     log,
		catalog: catalog,
		every:   rate.Sometimes{Interval: time.Second},
	}
}

func (s *LogSink) OnProgress(index int, tag Tag, percent int) {
	name := s.catalog.Label(tag)
	switch percent {
	case 0:
		s.log.Info("generating", zap.Int("index", index), zap.String("artifact", name))
	case 100:
		s.log.Info("generated", zap.Int("index", index), zap.String("artifact", name))
	default:
		s.every.Do(func() {
			s.log.Debug("progress", zap.String("artifact", name), zap.Int("percent", percent))
		})
	}
}

func (s *LogSink) OnComplete(err error) {
	if err != nil {
		s.log.Error("content generation failed", zap.Error(err))
		return
	}
	s.log.Info("content generation complete")
}
