package app

import (
	"strings"
	"testing"
	"time"
)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics()
	if m == nil {
		t.Fatal("NewMetrics() returned nil")
	}

	snapshot := m.Snapshot()
	if snapshot.FrameCount != 0 {
		t.Errorf("expected 0 frame count, got %d", snapshot.FrameCount)
	}
	if snapshot.MinFrame != 0 {
		t.Errorf("expected 0 min frame time (sentinel handled), got %v", snapshot.MinFrame)
	}
	if snapshot.AvgFPS() != 0 {
		t.Errorf("expected 0 fps without frames, got %v", snapshot.AvgFPS())
	}
}

func TestMetrics_RecordFrame(t *testing.T) {
	m := NewMetrics()

	m.RecordFrame(10*time.Millisecond, 100)
	m.RecordFrame(20*time.Millisecond, 5)
	m.RecordFrame(5*time.Millisecond, 0)

	snapshot := m.Snapshot()
	if snapshot.FrameCount != 3 {
		t.Errorf("expected 3 frames, got %d", snapshot.FrameCount)
	}
	if snapshot.MinFrame != 5*time.Millisecond {
		t.Errorf("expected min 5ms, got %v", snapshot.MinFrame)
	}
	if snapshot.MaxFrame != 20*time.Millisecond {
		t.Errorf("expected max 20ms, got %v", snapshot.MaxFrame)
	}
	if snapshot.LastFrame != 5*time.Millisecond {
		t.Errorf("expected last 5ms, got %v", snapshot.LastFrame)
	}
	if snapshot.AvgFrame != 35*time.Millisecond/3 {
		t.Errorf("expected avg 11.67ms, got %v", snapshot.AvgFrame)
	}
	if snapshot.CellsPainted != 105 {
		t.Errorf("expected 105 cells, got %d", snapshot.CellsPainted)
	}
}

func TestMetrics_SceneAndRender(t *testing.T) {
	m := NewMetrics()

	m.RecordScene(2 * time.Millisecond)
	m.RecordScene(4 * time.Millisecond)
	m.RecordRender(50 * time.Millisecond)
	m.RecordSkipped(3)

	snapshot := m.Snapshot()
	if snapshot.AvgScene != 3*time.Millisecond {
		t.Errorf("expected avg scene 3ms, got %v", snapshot.AvgScene)
	}
	if snapshot.RenderCount != 1 || snapshot.AvgRender != 50*time.Millisecond {
		t.Errorf("unexpected render stats: %d %v", snapshot.RenderCount, snapshot.AvgRender)
	}
	if snapshot.CellsSkipped != 3 {
		t.Errorf("expected 3 skipped, got %d", snapshot.CellsSkipped)
	}
}

func TestMetrics_Reset(t *testing.T) {
	m := NewMetrics()
	m.RecordFrame(time.Millisecond, 10)
	m.RecordRender(time.Millisecond)

	m.Reset()

	snapshot := m.Snapshot()
	if snapshot.FrameCount != 0 || snapshot.CellsPainted != 0 || snapshot.RenderCount != 0 {
		t.Errorf("expected cleared metrics, got %+v", snapshot)
	}
	if snapshot.MinFrame != 0 {
		t.Errorf("expected min frame reset, got %v", snapshot.MinFrame)
	}
}

func TestMetricsSnapshot_AvgFPS(t *testing.T) {
	s := MetricsSnapshot{AvgFrame: 16 * time.Millisecond}
	if fps := s.AvgFPS(); fps < 62 || fps > 63 {
		t.Errorf("expected ~62.5 fps, got %v", fps)
	}
}

func TestMetricsSnapshot_String(t *testing.T) {
	s := MetricsSnapshot{FrameCount: 4, CellsPainted: 12}
	str := s.String()
	if !strings.Contains(str, "frames=4") || !strings.Contains(str, "cells=12") {
		t.Errorf("unexpected summary %q", str)
	}
}

func TestTimer(t *testing.T) {
	timer := StartTimer()
	time.Sleep(5 * time.Millisecond)

	if timer.Elapsed() < 5*time.Millisecond {
		t.Errorf("expected at least 5ms elapsed, got %v", timer.Elapsed())
	}

	elapsed := timer.Stop()
	if elapsed < 5*time.Millisecond {
		t.Errorf("expected Stop() >= 5ms, got %v", elapsed)
	}
	if timer.Elapsed() >= elapsed {
		t.Error("expected Stop() to reset the timer")
	}
}
