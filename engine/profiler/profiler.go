package profiler

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/loov/hrtime"
)

// Snapshot is the frame statistics of one reporting interval.
type Snapshot struct {
	Frames       int
	FPS          float64
	AvgFrameTime time.Duration
	MinFrameTime time.Duration
	MaxFrameTime time.Duration
	HeapMB       float64
	GCCount      uint32
}

// Profiler tracks frame rate, frame time and memory statistics for performance monitoring.
// Outputs stats to the logger at a configurable interval.
type Profiler struct {
	logger         *slog.Logger
	now            func() time.Duration
	updateInterval time.Duration

	frameCount int
	lastTime   time.Duration
	frameStart time.Duration
	frameTotal time.Duration
	frameMin   time.Duration
	frameMax   time.Duration

	memStats runtime.MemStats
	last     Snapshot
}

// NewProfiler creates a new Profiler timed with the high resolution clock.
//
// Parameters:
//   - logger: the logger stats are written to, nil for slog.Default()
//   - updateInterval: how often stats are reported, non-positive for one second
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(logger *slog.Logger, updateInterval time.Duration) *Profiler {
	return newProfilerWithClock(logger, updateInterval, hrtime.Now)
}

func newProfilerWithClock(logger *slog.Logger, updateInterval time.Duration, now func() time.Duration) *Profiler {
	if logger == nil {
		logger = slog.Default()
	}
	if updateInterval <= 0 {
		updateInterval = time.Second
	}
	p := &Profiler{
		logger:         logger,
		now:            now,
		updateInterval: updateInterval,
	}
	p.lastTime = now()
	return p
}

// BeginFrame marks the start of a frame's CPU work.
func (p *Profiler) BeginFrame() {
	p.frameStart = p.now()
}

// Tick should be called once per frame, after the frame was presented.
// Logs performance statistics when the update interval has elapsed.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	current := p.now()
	frameTime := current - p.frameStart
	if p.frameStart == 0 {
		frameTime = 0
	}
	p.frameCount++
	p.frameTotal += frameTime
	if p.frameCount == 1 || frameTime < p.frameMin {
		p.frameMin = frameTime
	}
	if frameTime > p.frameMax {
		p.frameMax = frameTime
	}

	elapsed := current - p.lastTime
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	p.last = Snapshot{
		Frames:       p.frameCount,
		FPS:          float64(p.frameCount) / elapsed.Seconds(),
		AvgFrameTime: p.frameTotal / time.Duration(p.frameCount),
		MinFrameTime: p.frameMin,
		MaxFrameTime: p.frameMax,
		HeapMB:       float64(p.memStats.Alloc) / 1024 / 1024,
		GCCount:      p.memStats.NumGC,
	}
	p.logger.Info("frame stats",
		"fps", p.last.FPS,
		"frame_avg", p.last.AvgFrameTime,
		"frame_min", p.last.MinFrameTime,
		"frame_max", p.last.MaxFrameTime,
		"heap_mb", p.last.HeapMB,
		"gc", p.last.GCCount,
	)

	p.frameCount = 0
	p.frameTotal = 0
	p.frameMin = 0
	p.frameMax = 0
	p.lastTime = current
	return true
}

// Last returns the most recently reported snapshot.
func (p *Profiler) Last() Snapshot {
	return p.last
}
