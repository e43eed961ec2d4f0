package worker

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/m-mizutani/goerr/v2"
	"github.com/verdant-lab/pythia/pkg/service/ingest"
	"github.com/verdant-lab/pythia/pkg/utils/logging"
	"github.com/verdant-lab/pythia/pkg/utils/safe"
)

// DefaultDebounce is how long the worker waits after the last file change
// before re-ingesting, so an editor save burst triggers one refresh
const DefaultDebounce = 2 * time.Second

// IngestFunc runs one corpus ingestion pass
type IngestFunc func(ctx context.Context) error

// RefreshWorker re-ingests the corpus on a fixed interval and, when a watch
// directory is configured, shortly after knowledge base files change.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
type RefreshWorker struct {
	ingest   IngestFunc
	interval time.Duration
	watchDir string
	debounce time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// Option is a functional option for worker configuration
type Option func(*RefreshWorker)

// WithWatchDir enables fsnotify-driven refresh for the given directory
func WithWatchDir(dir string) Option {
	return func(w *RefreshWorker) {
		w.watchDir = dir
	}
}

// WithDebounce sets the quiet period between a file change and the refresh
func WithDebounce(d time.Duration) Option {
	return func(w *RefreshWorker) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewRefreshWorker creates a worker that keeps the index in sync with the
// corpus. An interval of 0 disables periodic refresh, leaving only the watch
func NewRefreshWorker(ingestFn IngestFunc, interval time.Duration, opts ...Option) *RefreshWorker {
	w := &RefreshWorker{
		ingest:   ingestFn,
		interval: interval,
		debounce: DefaultDebounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Start begins the background refresh loop
// - Initial ingestion and later refreshes run in a background goroutine
// - Does not block server startup
func (w *RefreshWorker) Start(ctx context.Context) error {
	if w.ingest == nil {
		return goerr.New("ingest function is required")
	}
	if w.interval <= 0 && w.watchDir == "" {
		return goerr.New("refresh worker needs an interval or a watch directory")
	}

	logging.Default().Info("corpus refresh worker starting",
		"interval", w.interval.String(),
		"watch_dir", w.watchDir)

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *RefreshWorker) Stop() {
	logging.Default().Info("corpus refresh worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("corpus refresh worker stopped")
}

// run is the main worker loop (runs in goroutine)
func (w *RefreshWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	logger := logging.Default()

	// Initial pass (runs in goroutine, does not block server startup)
	w.refresh(ctx)

	var tickerCh <-chan time.Time
	if w.interval > 0 {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tickerCh = ticker.C
	}

	eventCh, watchErrCh, closeWatch := w.openWatcher(ctx)
	defer closeWatch()

	var (
		debounce   *time.Timer
		debounceCh <-chan time.Time
	)
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-tickerCh:
			w.refresh(ctx)

		case ev, ok := <-eventCh:
			if !ok {
				eventCh = nil
				continue
			}
			if !isCorpusChange(ev) {
				continue
			}
			logger.Debug("knowledge base change detected",
				"file", ev.Name, "op", ev.Op.String())
			if debounce == nil {
				debounce = time.NewTimer(w.debounce)
				debounceCh = debounce.C
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(w.debounce)
			}

		case <-debounceCh:
			debounce = nil
			debounceCh = nil
			w.refresh(ctx)

		case err, ok := <-watchErrCh:
			if !ok {
				watchErrCh = nil
				continue
			}
			logger.Error("knowledge base watcher error", "error", err.Error())

		case <-w.stopCh:
			logger.Info("corpus refresh worker received stop signal")
			return

		case <-ctx.Done():
			logger.Info("corpus refresh worker context cancelled")
			return
		}
	}
}

// refresh performs a single ingestion pass, logging failures and carrying on
func (w *RefreshWorker) refresh(ctx context.Context) {
	startTime := time.Now()
	logging.Default().Info("corpus refresh starting")

	if err := w.ingest(ctx); err != nil {
		logging.Default().Error("corpus refresh failed (will retry on next trigger)",
			"error", err.Error())
		return
	}

	logging.Default().Info("corpus refresh completed",
		"duration", time.Since(startTime).String())
}

// openWatcher starts the fsnotify watch when a directory is configured.
// A watch that cannot be established is logged and skipped; the interval
// refresh still runs.
func (w *RefreshWorker) openWatcher(ctx context.Context) (<-chan fsnotify.Event, <-chan error, func()) {
	noop := func() {}
	if w.watchDir == "" {
		return nil, nil, noop
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Default().Error("failed to create knowledge base watcher",
			"error", err.Error())
		return nil, nil, noop
	}

	if err := watcher.Add(w.watchDir); err != nil {
		logging.Default().Error("failed to watch knowledge base directory",
			"dir", w.watchDir, "error", err.Error())
		safe.Close(ctx, watcher)
		return nil, nil, noop
	}

	return watcher.Events, watcher.Errors, func() { safe.Close(ctx, watcher) }
}

// isCorpusChange reports whether a file event warrants re-ingestion.
// Chmod-only events and non-corpus files are ignored.
func isCorpusChange(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return ingest.IsCorpusFile(ev.Name)
}
