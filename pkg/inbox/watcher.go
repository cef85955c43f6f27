package inbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"mercator-hq/vesta/pkg/evidence"
)

// Enqueuer persists a captured file. evidence.Queue satisfies it.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload []byte, metadata evidence.ItemMetadata) (string, error)
}

// CaptureFunc is called after a file has been enqueued.
type CaptureFunc func(id string, metadata evidence.ItemMetadata)

// Config configures a Watcher.
type Config struct {
	// Path is the directory to watch. Subdirectories are ignored.
	Path string

	// ProcessedDir receives files once they are enqueued. Relative paths
	// are resolved against Path's parent.
	ProcessedDir string

	// Debounce is the quiet period a file must see before it is read, so
	// files still being copied in are not captured half-written.
	Debounce time.Duration

	// Device is recorded as the capture device of every item.
	Device string
}

// Watcher enqueues files dropped into an inbox directory.
type Watcher struct {
	config    Config
	queue     Enqueuer
	watcher   *fsnotify.Watcher
	logger    *slog.Logger
	onCapture CaptureFunc

	mu      sync.Mutex
	timers  map[string]*time.Timer
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	wg      sync.WaitGroup
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithCaptureFunc sets a callback invoked for every enqueued file.
func WithCaptureFunc(fn CaptureFunc) Option {
	return func(w *Watcher) { w.onCapture = fn }
}

// New creates a watcher. The inbox and processed directories are created
// if they do not exist.
func New(cfg Config, queue Enqueuer, opts ...Option) (*Watcher, error) {
	if cfg.Path == "" {
		return nil, errors.New("inbox path is required")
	}
	if cfg.ProcessedDir == "" {
		cfg.ProcessedDir = filepath.Join(cfg.Path, "processed")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}

	for _, dir := range []string{cfg.Path, cfg.ProcessedDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create %q: %w", dir, err)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		config:  cfg,
		queue:   queue,
		watcher: fsw,
		logger:  slog.Default().With("component", "inbox"),
		timers:  make(map[string]*time.Timer),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Watch captures files already in the inbox, then captures new files until
// ctx is cancelled or Stop is called.
func (w *Watcher) Watch(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer close(w.doneCh)

	if err := w.watcher.Add(w.config.Path); err != nil {
		return fmt.Errorf("failed to watch inbox %q: %w", w.config.Path, err)
	}

	if n, err := w.Scan(ctx); err != nil {
		w.logger.Error("initial inbox scan failed", "error", err)
	} else if n > 0 {
		w.logger.Info("captured files already in inbox", "count", n)
	}

	w.logger.Info("inbox watcher started",
		"path", w.config.Path,
		"debounce_ms", w.config.Debounce.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("inbox watcher stopped (context cancelled)")
			return nil

		case <-w.stopCh:
			w.logger.Info("inbox watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !w.shouldProcessEvent(event) {
				continue
			}
			w.logger.Debug("inbox event", "path", event.Name, "op", event.Op.String())
			w.schedule(ctx, event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.logger.Error("inbox watcher error", "error", err)
		}
	}
}

// Stop stops the watcher, cancels pending captures and waits for captures
// in flight.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	running := w.running
	for path, timer := range w.timers {
		if timer.Stop() {
			w.wg.Done()
		}
		delete(w.timers, path)
	}
	w.mu.Unlock()

	if running {
		select {
		case <-w.stopCh:
		default:
			close(w.stopCh)
		}
		<-w.doneCh
	}
	w.wg.Wait()

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

// Scan captures every regular file currently in the inbox and returns how
// many were enqueued.
func (w *Watcher) Scan(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(w.config.Path)
	if err != nil {
		return 0, fmt.Errorf("failed to read inbox: %w", err)
	}

	count := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() || hidden(entry.Name()) {
			continue
		}
		err := w.capture(ctx, filepath.Join(w.config.Path, entry.Name()))
		if errors.Is(err, errEmptyFile) {
			w.logger.Debug("skipping empty inbox file", "file", entry.Name())
			continue
		}
		if err != nil {
			w.logger.Error("inbox capture failed", "file", entry.Name(), "error", err)
			continue
		}
		count++
	}
	return count, nil
}

// schedule (re)starts the quiet-period timer of one file.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[path]; ok && timer.Stop() {
		w.wg.Done()
	}

	w.wg.Add(1)
	w.timers[path] = time.AfterFunc(w.config.Debounce, func() {
		defer w.wg.Done()

		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		err := w.capture(ctx, path)
		if err != nil && !errors.Is(err, os.ErrNotExist) && !errors.Is(err, errEmptyFile) {
			w.logger.Error("inbox capture failed", "file", filepath.Base(path), "error", err)
		}
	})
}

// errEmptyFile marks a zero-length file, which the queue would reject.
var errEmptyFile = errors.New("empty file")

// capture enqueues one file and moves it out of the inbox. The file stays in
// place when the enqueue fails so the next scan picks it up again.
func (w *Watcher) capture(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", path, err)
	}

	name := filepath.Base(path)
	if len(data) == 0 {
		// Still being written; the next write event captures it.
		return errEmptyFile
	}
	modified := info.ModTime().UTC()
	metadata := evidence.ItemMetadata{
		FileName:  name,
		FileType:  evidence.DetectMIME(name, data),
		FileSize:  int64(len(data)),
		Timestamp: &modified,
		Device:    w.config.Device,
	}

	id, err := w.queue.Enqueue(ctx, data, metadata)
	if err != nil {
		return fmt.Errorf("failed to enqueue %q: %w", name, err)
	}

	if err := os.Rename(path, w.processedPath(id, name)); err != nil {
		// The item is durable; a leftover file would be captured twice.
		if rmErr := os.Remove(path); rmErr != nil {
			w.logger.Error("failed to clear captured file", "file", name, "error", rmErr)
		}
		w.logger.Warn("failed to move captured file", "file", name, "error", err)
	}

	w.logger.Info("file captured",
		"item_id", id,
		"file", name,
		"kind", evidence.KindFromMIME(metadata.FileType).String(),
		"size", metadata.FileSize,
	)
	if w.onCapture != nil {
		w.onCapture(id, metadata)
	}
	return nil
}

func (w *Watcher) processedPath(id, name string) string {
	return filepath.Join(w.config.ProcessedDir, id+"-"+name)
}

// shouldProcessEvent reports whether an event may carry a new capture.
func (w *Watcher) shouldProcessEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	if hidden(filepath.Base(event.Name)) {
		return false
	}
	if filepath.Dir(event.Name) != filepath.Clean(w.config.Path) {
		return false
	}
	info, err := os.Stat(event.Name)
	return err == nil && info.Mode().IsRegular()
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~")
}
