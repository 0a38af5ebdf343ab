package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestTee(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	s := Tee(a, nil, b)
	s.OnProgress(0, tagSliders, 30)
	s.OnComplete(nil)
	for _, r := range []*recorder{a, b} {
		events, completes, _ := r.snapshot()
		assert.Equal(t, []Event{{Kind: EventProgress, Index: 0, Tag: tagSliders, Percent: 30}}, events)
		assert.Equal(t, 1, completes)
	}
}

func TestSinkFuncs_nilFields(t *testing.T) {
	var s SinkFuncs
	s.OnProgress(0, 0, 1)
	s.OnComplete(errEncode)

	var got []int
	s = SinkFuncs{Progress: func(_ int, _ Tag, p int) { got = append(got, p) }}
	s.OnProgress(0, 0, 7)
	assert.Equal(t, []int{7}, got)
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	cat := newTestCatalog(t, &fakeFactory{}, &fakeFactory{})
	s := NewLogSink(zap.New(core), cat)

	s.OnProgress(0, tagEightRects, 0)
	s.OnProgress(0, tagEightRects, 10)
	s.OnProgress(0, tagEightRects, 20)
	s.OnProgress(0, tagEightRects, 100)
	s.OnComplete(nil)
	s.OnComplete(errEncode)

	assert.Equal(t, 1, logs.FilterMessage("generating").Len())
	assert.Equal(t, "gen-eight-rects.mp4", logs.FilterMessage("generating").All()[0].ContextMap()["artifact"])
	assert.Equal(t, 1, logs.FilterMessage("progress").Len(), "intermediate progress is throttled")
	assert.Equal(t, 1, logs.FilterMessage("generated").Len())
	assert.Equal(t, 1, logs.FilterMessage("content generation complete").Len())
	assert.Equal(t, 1, logs.FilterMessage("content generation failed").Len())
}
