package worker_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/verdant-lab/pythia/pkg/service/worker"
)

func countingIngest(count *atomic.Int32, err error) worker.IngestFunc {
	return func(ctx context.Context) error {
		count.Add(1)
		return err
	}
}

func TestRefreshWorker_StartValidation(t *testing.T) {
	t.Run("requires ingest function", func(t *testing.T) {
		w := worker.NewRefreshWorker(nil, time.Minute)
		if err := w.Start(context.Background()); err == nil {
			t.Error("expected error for nil ingest function")
		}
	})

	t.Run("requires interval or watch dir", func(t *testing.T) {
		var count atomic.Int32
		w := worker.NewRefreshWorker(countingIngest(&count, nil), 0)
		if err := w.Start(context.Background()); err == nil {
			t.Error("expected error when neither interval nor watch dir is set")
		}
	})
}

func TestRefreshWorker_ImmediateInitialRefresh(t *testing.T) {
	ctx := context.Background()
	var count atomic.Int32

	w := worker.NewRefreshWorker(countingIngest(&count, nil), 10*time.Minute)
	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}
	defer w.Stop()

	// Wait for the background initial pass to complete
	time.Sleep(50 * time.Millisecond)

	if got := count.Load(); got != 1 {
		t.Errorf("expected 1 initial ingestion pass, got %d", got)
	}
}

func TestRefreshWorker_PeriodicRefresh(t *testing.T) {
	ctx := context.Background()
	var count atomic.Int32

	w := worker.NewRefreshWorker(countingIngest(&count, nil), 100*time.Millisecond)
	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}
	defer w.Stop()

	// Initial pass plus at least two ticks
	time.Sleep(350 * time.Millisecond)

	if got := count.Load(); got < 3 {
		t.Errorf("expected at least 3 ingestion passes, got %d", got)
	}
}

func TestRefreshWorker_ContinuesAfterError(t *testing.T) {
	ctx := context.Background()
	var count atomic.Int32

	w := worker.NewRefreshWorker(countingIngest(&count, fmt.Errorf("index unavailable")), 100*time.Millisecond)
	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}
	defer w.Stop()

	time.Sleep(250 * time.Millisecond)

	// Failures are logged, not fatal: the worker keeps retrying
	if got := count.Load(); got < 2 {
		t.Errorf("expected worker to keep retrying after errors, got %d passes", got)
	}
}

func TestRefreshWorker_StopsCleanly(t *testing.T) {
	ctx := context.Background()
	var count atomic.Int32

	w := worker.NewRefreshWorker(countingIngest(&count, nil), 100*time.Millisecond)
	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	stopStart := time.Now()
	w.Stop()
	stopDuration := time.Since(stopStart)

	if stopDuration > time.Second {
		t.Errorf("Stop() took too long: %v", stopDuration)
	}
}

func TestRefreshWorker_WatchTriggersRefresh(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	var count atomic.Int32

	w := worker.NewRefreshWorker(countingIngest(&count, nil), 0,
		worker.WithWatchDir(dir),
		worker.WithDebounce(50*time.Millisecond),
	)
	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}
	defer w.Stop()

	// Let the initial pass finish before touching the directory
	time.Sleep(100 * time.Millisecond)
	initial := count.Load()

	if err := os.WriteFile(filepath.Join(dir, "houtmulch.txt"), []byte("# PRODUCT: Houtmulch"), 0644); err != nil {
		t.Fatalf("failed to write corpus file: %v", err)
	}

	// Change + debounce window + scheduling slack
	time.Sleep(400 * time.Millisecond)

	if got := count.Load(); got <= initial {
		t.Errorf("expected a refresh after a corpus file change, passes before=%d after=%d", initial, got)
	}
}

func TestIsCorpusChange(t *testing.T) {
	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{name: "txt create", ev: fsnotify.Event{Name: "/kb/houtmulch.txt", Op: fsnotify.Create}, want: true},
		{name: "md write", ev: fsnotify.Event{Name: "/kb/retour.md", Op: fsnotify.Write}, want: true},
		{name: "txt remove", ev: fsnotify.Event{Name: "/kb/oud.txt", Op: fsnotify.Remove}, want: true},
		{name: "md rename", ev: fsnotify.Event{Name: "/kb/oud.md", Op: fsnotify.Rename}, want: true},
		{name: "chmod only", ev: fsnotify.Event{Name: "/kb/houtmulch.txt", Op: fsnotify.Chmod}, want: false},
		{name: "non-corpus extension", ev: fsnotify.Event{Name: "/kb/prijslijst.pdf", Op: fsnotify.Write}, want: false},
		{name: "editor swap file", ev: fsnotify.Event{Name: "/kb/.houtmulch.txt.swp", Op: fsnotify.Create}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := worker.IsCorpusChange(tt.ev); got != tt.want {
				t.Errorf("isCorpusChange(%v) = %v, want %v", tt.ev, got, tt.want)
			}
		})
	}
}
