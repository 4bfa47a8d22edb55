package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newWatcher(t *testing.T, opts ...Option) *Watcher {
	t.Helper()
	w, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = w.Stop() })
	return w
}

// firstEvent records the first event delivered to it.
type firstEvent struct {
	mu    sync.Mutex
	got   bool
	event Event
}

func (f *firstEvent) handle(e Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.got {
		f.got = true
		f.event = e
	}
}

func (f *firstEvent) wait(t *testing.T, d time.Duration) Event {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		got, ev := f.got, f.event
		f.mu.Unlock()
		if got {
			return ev
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("did not receive file event")
	return Event{}
}

func TestNew(t *testing.T) {
	w := newWatcher(t)
	if w.debounce != 100*time.Millisecond {
		t.Errorf("default debounce = %v, want 100ms", w.debounce)
	}

	w = newWatcher(t, WithDebounce(50*time.Millisecond))
	if w.debounce != 50*time.Millisecond {
		t.Errorf("debounce = %v, want 50ms", w.debounce)
	}

	w = newWatcher(t, WithDebounce(-1))
	if w.debounce != 100*time.Millisecond {
		t.Errorf("negative debounce should be ignored, got %v", w.debounce)
	}
}

func TestOperation_String(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{OpWrite, "write"},
		{OpCreate, "create"},
		{OpRemove, "remove"},
		{OpRename, "rename"},
		{Operation(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func TestWatcher_WatchUnwatch(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "test.toml")
	if err := os.WriteFile(tmpFile, []byte("test"), 0644); err != nil {
		t.Fatal(err)
	}

	w := newWatcher(t)

	if err := w.Watch(tmpFile); err != nil {
		t.Errorf("Watch() error = %v", err)
	}
	// Watching twice is a no-op
	if err := w.Watch(tmpFile); err != nil {
		t.Errorf("second Watch() error = %v", err)
	}
	// Non-existent file in an existing directory
	if err := w.Watch(filepath.Join(tmpDir, "later.lua")); err != nil {
		t.Errorf("Watch() for non-existent file error = %v", err)
	}
	if got := len(w.WatchedFiles()); got != 2 {
		t.Errorf("WatchedFiles() = %d files, want 2", got)
	}
	if got := w.dirs[tmpDir]; got != 2 {
		t.Errorf("directory refcount = %d, want 2", got)
	}

	if err := w.Unwatch(tmpFile); err != nil {
		t.Errorf("Unwatch() error = %v", err)
	}
	if err := w.Unwatch(filepath.Join(tmpDir, "later.lua")); err != nil {
		t.Errorf("Unwatch() error = %v", err)
	}
	if got := len(w.WatchedFiles()); got != 0 {
		t.Errorf("WatchedFiles() = %d files, want 0", got)
	}
	if _, ok := w.dirs[tmpDir]; ok {
		t.Error("directory should no longer be watched")
	}
}

func TestWatcher_WatchMissingDir(t *testing.T) {
	w := newWatcher(t)
	if err := w.Watch(filepath.Join(t.TempDir(), "nope", "x.toml")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestWatcher_StartStop(t *testing.T) {
	w := newWatcher(t)

	if w.IsRunning() {
		t.Error("IsRunning() = true before Start()")
	}

	w.Start()
	w.Start() // idempotent
	if !w.IsRunning() {
		t.Error("IsRunning() = false after Start()")
	}

	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if w.IsRunning() {
		t.Error("IsRunning() = true after Stop()")
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
	if err := w.Watch(t.TempDir()); !errors.Is(err, ErrWatcherClosed) {
		t.Errorf("Watch() after Stop() = %v, want ErrWatcherClosed", err)
	}
}

func TestWatcher_DetectsFileModification(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "test.toml")
	if err := os.WriteFile(tmpFile, []byte("initial"), 0644); err != nil {
		t.Fatal(err)
	}

	w := newWatcher(t, WithDebounce(0))
	var first firstEvent
	w.OnChange(first.handle)

	if err := w.Watch(tmpFile); err != nil {
		t.Fatal(err)
	}
	w.Start()

	if err := os.WriteFile(tmpFile, []byte("modified"), 0644); err != nil {
		t.Fatal(err)
	}

	ev := first.wait(t, time.Second)
	if ev.Op != OpWrite {
		t.Errorf("event.Op = %v, want write", ev.Op)
	}
	if ev.Path != tmpFile {
		t.Errorf("event.Path = %q, want %q", ev.Path, tmpFile)
	}
}

func TestWatcher_DetectsFileCreation(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "new.toml")

	w := newWatcher(t, WithDebounce(0))
	var first firstEvent
	w.OnChange(first.handle)

	_ = w.Watch(tmpFile)
	w.Start()

	if err := os.WriteFile(tmpFile, []byte("created"), 0644); err != nil {
		t.Fatal(err)
	}

	if ev := first.wait(t, time.Second); ev.Op != OpCreate {
		t.Errorf("event.Op = %v, want create", ev.Op)
	}
}

func TestWatcher_DetectsFileDeletion(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "delete.toml")
	if err := os.WriteFile(tmpFile, []byte("initial"), 0644); err != nil {
		t.Fatal(err)
	}

	w := newWatcher(t, WithDebounce(0))
	var first firstEvent
	w.OnChange(first.handle)

	_ = w.Watch(tmpFile)
	w.Start()

	if err := os.Remove(tmpFile); err != nil {
		t.Fatal(err)
	}

	if ev := first.wait(t, time.Second); ev.Op != OpRemove {
		t.Errorf("event.Op = %v, want remove", ev.Op)
	}
}

func TestWatcher_IgnoresSiblings(t *testing.T) {
	tmpDir := t.TempDir()
	watched := filepath.Join(tmpDir, "scene.lua")
	if err := os.WriteFile(watched, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	w := newWatcher(t, WithDebounce(0))
	var count atomic.Int32
	w.OnChange(func(Event) { count.Add(1) })

	_ = w.Watch(watched)
	w.Start()

	if err := os.WriteFile(filepath.Join(tmpDir, "other.lua"), []byte("y"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)

	if got := count.Load(); got != 0 {
		t.Errorf("received %d events for an unwatched sibling", got)
	}
}

func TestWatcher_Debounce(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "debounce.toml")
	if err := os.WriteFile(tmpFile, []byte("initial"), 0644); err != nil {
		t.Fatal(err)
	}

	w := newWatcher(t, WithDebounce(100*time.Millisecond))
	var eventCount atomic.Int32
	w.OnChange(func(Event) { eventCount.Add(1) })

	_ = w.Watch(tmpFile)
	w.Start()

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(tmpFile, []byte("modified"), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(400 * time.Millisecond)

	count := eventCount.Load()
	if count < 1 || count > 2 {
		t.Errorf("received %d events, expected 1-2 (debounced)", count)
	}
}

func TestWatcher_QueueCoalesces(t *testing.T) {
	w := newWatcher(t)
	now := time.Now()

	w.queueEvent(Event{Path: "/a", Op: OpCreate, Time: now})
	w.queueEvent(Event{Path: "/a", Op: OpWrite, Time: now})
	w.queueEvent(Event{Path: "/b", Op: OpWrite, Time: now})
	w.queueEvent(Event{Path: "/b", Op: OpRemove, Time: now})

	if got := w.pendingFiles["/a"].Op; got != OpCreate {
		t.Errorf("create+write = %v, want create", got)
	}
	if got := w.pendingFiles["/b"].Op; got != OpRemove {
		t.Errorf("write+remove = %v, want remove", got)
	}
}

func TestWatcher_MultipleHandlersAndPanics(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "multi.toml")
	if err := os.WriteFile(tmpFile, []byte("initial"), 0644); err != nil {
		t.Fatal(err)
	}

	w := newWatcher(t, WithDebounce(0))

	var count atomic.Int32
	w.OnChange(func(Event) { panic("handler failure") })
	w.OnChange(func(Event) { count.Add(1) })

	_ = w.Watch(tmpFile)
	w.Start()

	if err := os.WriteFile(tmpFile, []byte("modified"), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(time.Second)
	for count.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if count.Load() < 1 {
		t.Error("second handler did not receive event after first panicked")
	}
}
