package notify

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestMarkersSetClearPending(t *testing.T) {
	m, err := NewMarkers(t.TempDir())
	if err != nil {
		t.Fatalf("NewMarkers: %v", err)
	}

	pending, err := m.Pending()
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending markers, got %v", pending)
	}

	if err := m.Set("mem-1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := m.Set("mem-2"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	pending, err = m.Pending()
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending markers, got %v", pending)
	}

	m.Clear("mem-1")
	pending, _ = m.Pending()
	if len(pending) != 1 || pending[0] != "mem-2" {
		t.Fatalf("expected [mem-2], got %v", pending)
	}
}

func TestMarkersClearIdempotent(t *testing.T) {
	m, err := NewMarkers(t.TempDir())
	if err != nil {
		t.Fatalf("NewMarkers: %v", err)
	}
	m.Clear("never-set")
	m.Clear("never-set")
	if pending, _ := m.Pending(); len(pending) != 0 {
		t.Fatalf("pending = %v", pending)
	}
}

func TestPendingOlderThan(t *testing.T) {
	dir := t.TempDir()
	m, err := NewMarkers(dir)
	if err != nil {
		t.Fatalf("NewMarkers: %v", err)
	}
	if err := m.Set("old"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := m.Set("fresh"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	past := time.Now().Add(-10 * time.Minute)
	if err := os.Chtimes(m.path("old"), past, past); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	ids, err := m.PendingOlderThan(time.Minute)
	if err != nil {
		t.Fatalf("PendingOlderThan: %v", err)
	}
	if len(ids) != 1 || ids[0] != "old" {
		t.Fatalf("ids = %v, want [old]", ids)
	}

	// Pending still reports both.
	all, err := m.Pending()
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("pending = %v", all)
	}
}

func TestWatcherDrainsExistingMarkers(t *testing.T) {
	dir := t.TempDir()
	m, err := NewMarkers(dir)
	if err != nil {
		t.Fatalf("NewMarkers: %v", err)
	}
	if err := m.Set("leftover"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	called := make(chan struct{}, 4)
	w := NewWatcher(m, func() { called <- struct{}{} }, zerolog.Nop())
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("startup drain did not fire callback")
	}
}

func TestWatcherFiresOnNewMarker(t *testing.T) {
	dir := t.TempDir()
	m, err := NewMarkers(dir)
	if err != nil {
		t.Fatalf("NewMarkers: %v", err)
	}

	called := make(chan struct{}, 4)
	w := NewWatcher(m, func() { called <- struct{}{} }, zerolog.Nop())
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := m.Set("fresh"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not react to new marker")
	}
}

func TestWatcherStopWithoutStart(t *testing.T) {
	dir := t.TempDir()
	m, err := NewMarkers(dir)
	if err != nil {
		t.Fatalf("NewMarkers: %v", err)
	}

	done := make(chan struct{})
	go func() {
		NewWatcher(m, func() {}, zerolog.Nop()).Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked without a prior Start")
	}
}

func TestWatcherStopAfterFailedStart(t *testing.T) {
	dir := t.TempDir()
	m, err := NewMarkers(dir)
	if err != nil {
		t.Fatalf("NewMarkers: %v", err)
	}
	// Removing the marker directory makes Add fail inside Start.
	if err := os.RemoveAll(m.dir); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}

	w := NewWatcher(m, func() {}, zerolog.Nop())
	if err := w.Start(); err == nil {
		t.Fatal("Start succeeded with a missing marker directory")
	}

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked after a failed Start")
	}
}

func TestWatcherIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	m, err := NewMarkers(dir)
	if err != nil {
		t.Fatalf("NewMarkers: %v", err)
	}

	called := make(chan struct{}, 4)
	w := NewWatcher(m, func() { called <- struct{}{} }, zerolog.Nop())
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(m.dir, "notes.txt"), nil, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case <-called:
		t.Fatal("callback fired for a non-marker file")
	case <-time.After(300 * time.Millisecond):
	}
}
