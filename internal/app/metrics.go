package app

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Metrics tracks render performance.
type Metrics struct {
	// Frame timing covers one engine Draw call
	frameCount   atomic.Uint64
	frameTotalNs atomic.Int64
	frameMinNs   atomic.Int64
	frameMaxNs   atomic.Int64
	lastFrameNs  atomic.Int64

	// Cells handed to Draw and changes rejected as out of bounds
	cellsPainted atomic.Uint64
	cellsSkipped atomic.Uint64

	// Scene script time per frame
	sceneCount   atomic.Uint64
	sceneTotalNs atomic.Int64

	// Completed renders, including export
	renderCount   atomic.Uint64
	renderTotalNs atomic.Int64

	startTime atomic.Int64
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.Reset()
	return m
}

// RecordFrame records the duration of one Draw call and the number of
// changes it applied.
func (m *Metrics) RecordFrame(duration time.Duration, cells int) {
	ns := duration.Nanoseconds()

	m.frameCount.Add(1)
	m.frameTotalNs.Add(ns)
	m.lastFrameNs.Store(ns)
	m.cellsPainted.Add(uint64(cells))

	for {
		old := m.frameMinNs.Load()
		if ns >= old || m.frameMinNs.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.frameMaxNs.Load()
		if ns <= old || m.frameMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordSkipped records changes rejected as out of bounds.
func (m *Metrics) RecordSkipped(n int) {
	m.cellsSkipped.Add(uint64(n))
}

// RecordScene records time spent in scene code for one frame.
func (m *Metrics) RecordScene(duration time.Duration) {
	m.sceneCount.Add(1)
	m.sceneTotalNs.Add(duration.Nanoseconds())
}

// RecordRender records a completed render.
func (m *Metrics) RecordRender(duration time.Duration) {
	m.renderCount.Add(1)
	m.renderTotalNs.Add(duration.Nanoseconds())
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.frameCount.Store(0)
	m.frameTotalNs.Store(0)
	m.frameMinNs.Store(1<<63 - 1)
	m.frameMaxNs.Store(0)
	m.lastFrameNs.Store(0)
	m.cellsPainted.Store(0)
	m.cellsSkipped.Store(0)
	m.sceneCount.Store(0)
	m.sceneTotalNs.Store(0)
	m.renderCount.Store(0)
	m.renderTotalNs.Store(0)
	m.startTime.Store(time.Now().UnixNano())
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	avg := func(total int64, count uint64) time.Duration {
		if count == 0 {
			return 0
		}
		return time.Duration(total / int64(count))
	}

	frameCount := m.frameCount.Load()
	minFrameNs := m.frameMinNs.Load()
	if minFrameNs == 1<<63-1 {
		minFrameNs = 0
	}

	return MetricsSnapshot{
		Uptime:       time.Since(time.Unix(0, m.startTime.Load())),
		FrameCount:   frameCount,
		AvgFrame:     avg(m.frameTotalNs.Load(), frameCount),
		MinFrame:     time.Duration(minFrameNs),
		MaxFrame:     time.Duration(m.frameMaxNs.Load()),
		LastFrame:    time.Duration(m.lastFrameNs.Load()),
		CellsPainted: m.cellsPainted.Load(),
		CellsSkipped: m.cellsSkipped.Load(),
		AvgScene:     avg(m.sceneTotalNs.Load(), m.sceneCount.Load()),
		RenderCount:  m.renderCount.Load(),
		AvgRender:    avg(m.renderTotalNs.Load(), m.renderCount.Load()),
	}
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	Uptime       time.Duration
	FrameCount   uint64
	AvgFrame     time.Duration
	MinFrame     time.Duration
	MaxFrame     time.Duration
	LastFrame    time.Duration
	CellsPainted uint64
	CellsSkipped uint64
	AvgScene     time.Duration
	RenderCount  uint64
	AvgRender    time.Duration
}

// AvgFPS returns the average frames per second the engine sustained.
func (s MetricsSnapshot) AvgFPS() float64 {
	if s.AvgFrame == 0 {
		return 0
	}
	return float64(time.Second) / float64(s.AvgFrame)
}

// String formats the snapshot for a log line.
func (s MetricsSnapshot) String() string {
	return fmt.Sprintf("frames=%d avg=%s min=%s max=%s cells=%d skipped=%d scene=%s renders=%d",
		s.FrameCount, s.AvgFrame, s.MinFrame, s.MaxFrame, s.CellsPainted, s.CellsSkipped, s.AvgScene, s.RenderCount)
}

// Timer provides a simple way to measure elapsed time.
type Timer struct {
	start time.Time
}

// StartTimer creates a new timer.
func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the elapsed time since the timer started.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// Stop returns the elapsed time and resets the timer.
func (t *Timer) Stop() time.Duration {
	elapsed := t.Elapsed()
	t.start = time.Now()
	return elapsed
}
