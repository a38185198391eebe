package profiler

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Duration }

func (c *fakeClock) now() time.Duration { return c.t }

func TestProfilerReportsPerInterval(t *testing.T) {
	clock := &fakeClock{t: time.Second}
	p := newProfilerWithClock(slog.New(slog.NewTextHandler(io.Discard, nil)), time.Second, clock.now)

	frameTimes := []time.Duration{2 * time.Millisecond, 6 * time.Millisecond, 4 * time.Millisecond}
	reported := false
	for _, ft := range frameTimes {
		p.BeginFrame()
		clock.t += ft
		reported = p.Tick()
		assert.False(t, reported)
		// idle time between frames
		clock.t += 100 * time.Millisecond
	}

	clock.t += time.Second
	p.BeginFrame()
	clock.t += 4 * time.Millisecond
	reported = p.Tick()
	assert.True(t, reported)

	s := p.Last()
	assert.Equal(t, 4, s.Frames)
	assert.Equal(t, 2*time.Millisecond, s.MinFrameTime)
	assert.Equal(t, 6*time.Millisecond, s.MaxFrameTime)
	assert.Equal(t, 4*time.Millisecond, s.AvgFrameTime)
	assert.InDelta(t, 4/(1.316), s.FPS, 0.01)

	// counters reset for the next interval
	p.BeginFrame()
	clock.t += time.Millisecond
	assert.False(t, p.Tick())
}

func TestNewProfilerDefaults(t *testing.T) {
	p := NewProfiler(nil, 0)
	assert.Equal(t, time.Second, p.updateInterval)
	assert.NotNil(t, p.logger)
}
