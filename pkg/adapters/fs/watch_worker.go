package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/lifecycle/pkg/core/supervisor"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/sticky/pkg/core"
	"github.com/aretw0/sticky/pkg/debounce"
)

// WatchDebounce coalesces bursts of filesystem events for the same sheet.
const WatchDebounce = 50 * time.Millisecond

// Watch reports sheet files created, modified or deleted under Path whose id
// matches pattern (doublestar syntax, "" for all). The watcher runs under a
// supervisor that restarts it on failure. The channel is closed after ctx is
// done and the watcher has stopped.
func (s *Store) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern == "" {
		pattern = "*"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern %q", pattern)
	}

	events := make(chan core.Event, 64)
	spec := watcherSpec(func() *watchWorker {
		return newWatchWorker(s, pattern, events)
	}, watchBackoff)

	sup := supervisor.New("sticky-watch", supervisor.StrategyOneForOne, spec)
	if err := sup.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start watcher: %w", err)
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := sup.Stop(stopCtx)
		close(events)
		return err
	}, lifecycle.WithErrorHandler(s.reportError))

	return events, nil
}

var watchBackoff = supervisor.Backoff{
	InitialInterval: 100 * time.Millisecond,
	MaxInterval:     5 * time.Second,
	Multiplier:      2,
	ResetDuration:   time.Minute,
	MaxRestarts:     5,
	MaxDuration:     5 * time.Minute,
}

// watcherSpec describes the supervised watch worker; each restart gets a
// fresh worker from newWorker.
func watcherSpec(newWorker func() *watchWorker, backoff supervisor.Backoff) supervisor.Spec {
	return supervisor.Spec{
		Name: "fs-watcher",
		Type: string(worker.TypeGoroutine),
		Factory: func() (worker.Worker, error) {
			return newWorker(), nil
		},
		Backoff:       backoff,
		RestartPolicy: supervisor.RestartOnFailure,
	}
}

// Reconcile compares the directory with a snapshot of modification times and
// returns the events that explain the difference. The snapshot is updated.
func (s *Store) Reconcile(known map[string]time.Time) ([]core.Event, error) {
	current, err := s.modTimes()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var events []core.Event
	for id, mod := range current {
		prev, ok := known[id]
		switch {
		case !ok:
			events = append(events, core.Event{Type: core.EventCreate, SheetID: id, Timestamp: now})
		case !prev.Equal(mod):
			events = append(events, core.Event{Type: core.EventModify, SheetID: id, Timestamp: now})
		}
		known[id] = mod
	}
	for id := range known {
		if _, ok := current[id]; !ok {
			events = append(events, core.Event{Type: core.EventDelete, SheetID: id, Timestamp: now})
			delete(known, id)
		}
	}

	s.recordReconcile()
	return events, nil
}

func (s *Store) modTimes() (map[string]time.Time, error) {
	files, err := s.sheetFiles()
	if err != nil {
		return nil, err
	}
	out := make(map[string]time.Time, len(files))
	for _, name := range files {
		info, err := os.Stat(filepath.Join(s.Path, name))
		if err != nil {
			continue
		}
		out[strings.TrimSuffix(name, Extension)] = info.ModTime()
	}
	return out, nil
}

func (s *Store) reportError(err error) {
	if s.config.ErrorHandler != nil {
		s.config.ErrorHandler(err)
	} else if s.config.Logger != nil {
		s.config.Logger.Error("watcher failure", "error", err)
	}
}

func (s *Store) debug(msg string, args ...any) {
	if s.config.Logger != nil {
		s.config.Logger.Debug(msg, args...)
	}
}

type watchWorker struct {
	*worker.BaseWorker
	store     *Store
	pattern   string
	events    chan<- core.Event
	watcher   *fsnotify.Watcher
	coalescer *coalescer
	cancel    context.CancelFunc

	mu    sync.Mutex
	known map[string]time.Time
}

func newWatchWorker(store *Store, pattern string, events chan<- core.Event) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("fs-watcher"),
		store:      store,
		pattern:    pattern,
		events:     events,
	}
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	known, err := w.store.modTimes()
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(w.store.Path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.store.Path, err)
	}
	if w.store.config.Versioned {
		_ = watcher.Add(filepath.Join(w.store.Path, ".git"))
	}

	w.known = known
	w.watcher = watcher
	w.coalescer = newCoalescer(WatchDebounce)
	w.store.setWatcherActive(true)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}
	return w.BaseWorker.Stop(ctx)
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"pattern":           w.pattern,
		}
	})
}

// handleGitLockEvent tracks .git/index.lock so events caused by git itself
// are skipped while a commit is in progress.
func (w *watchWorker) handleGitLockEvent(event fsnotify.Event, gitLocked bool) (handled bool, locked bool) {
	if filepath.Base(event.Name) != "index.lock" || filepath.Base(filepath.Dir(event.Name)) != ".git" {
		return false, gitLocked
	}
	switch {
	case event.Has(fsnotify.Create):
		w.store.debug("git operations detected, pausing watcher")
		return true, true
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		w.store.debug("git operations finished, reconciling")
		return true, false
	}
	return true, gitLocked
}

// reconcileAfterGitUnlock replays what changed while events were skipped.
func (w *watchWorker) reconcileAfterGitUnlock(ctx context.Context) {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		w.mu.Lock()
		reconciled, err := w.store.Reconcile(w.known)
		w.mu.Unlock()
		if err != nil {
			err = fmt.Errorf("reconcile failed: %w", err)
			w.store.reportError(err)
			return err
		}
		for _, e := range reconciled {
			if w.matches(e.SheetID) {
				w.sendEvent(ctx, e)
			}
		}
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		w.store.reportError(fmt.Errorf("reconcile panic: %w", err))
	}))
}

// sheetID maps a path to a sheet id, or "" for files that are not sheets.
func (w *watchWorker) sheetID(path string) string {
	if filepath.Clean(filepath.Dir(path)) != filepath.Clean(w.store.Path) {
		return ""
	}
	name := filepath.Base(path)
	if !strings.HasSuffix(name, Extension) || strings.HasPrefix(name, TempFilePrefix) {
		return ""
	}
	id := strings.TrimSuffix(name, Extension)
	if core.ValidateID(id) != nil || !w.matches(id) {
		return ""
	}
	return id
}

func (w *watchWorker) matches(id string) bool {
	ok, err := doublestar.Match(w.pattern, id)
	return err == nil && ok
}

// mapEventType classifies an event against the known set. Atomic writes
// surface as Create on the target name, so existence decides create vs modify.
func (w *watchWorker) mapEventType(event fsnotify.Event, id string) core.EventType {
	w.mu.Lock()
	defer w.mu.Unlock()

	info, err := os.Stat(event.Name)
	if err != nil {
		if _, ok := w.known[id]; ok && os.IsNotExist(err) {
			delete(w.known, id)
			return core.EventDelete
		}
		return ""
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return ""
	}

	_, existed := w.known[id]
	w.known[id] = info.ModTime()
	if existed {
		return core.EventModify
	}
	return core.EventCreate
}

func (w *watchWorker) processFilesystemEvent(ctx context.Context, event fsnotify.Event) bool {
	w.store.debug("event received", "name", event.Name, "op", event.Op.String())

	id := w.sheetID(event.Name)
	if id == "" {
		return false
	}
	eType := w.mapEventType(event, id)
	if eType == "" {
		return false
	}

	w.sendEvent(ctx, core.Event{
		Type:      eType,
		SheetID:   id,
		Timestamp: time.Now().UTC(),
	})
	return true
}

// sendEvent enqueues an event via the coalescer, protecting against channel
// closure during shutdown.
func (w *watchWorker) sendEvent(ctx context.Context, event core.Event) {
	w.coalescer.add(event, func(e core.Event) {
		defer func() {
			_ = recover()
		}()
		select {
		case w.events <- e:
		case <-ctx.Done():
		}
	})
}

func (w *watchWorker) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			logger := w.store.config.Logger
			if logger == nil {
				return
			}
			// Stack traces only at debug level.
			if logger.Enabled(ctx, slog.LevelDebug) {
				logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				logger.Error("watcher panic", "error", err)
			}
		}
	}()
	defer w.store.setWatcherActive(false)
	defer w.watcher.Close()

	err = w.mainEventLoop(ctx)
	w.coalescer.stop()
	return err
}

func (w *watchWorker) mainEventLoop(ctx context.Context) error {
	var gitLocked bool
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}

			if handled, locked := w.handleGitLockEvent(event, gitLocked); handled {
				if gitLocked && !locked {
					w.reconcileAfterGitUnlock(ctx)
				}
				gitLocked = locked
				continue
			}
			if gitLocked {
				continue
			}
			w.processFilesystemEvent(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.store.reportError(wErr)
		}
	}
}

// coalescer keeps one debouncer per sheet id; the last event of a burst wins,
// except that a create followed by modifications is still reported as a create.
type coalescer struct {
	mu      sync.Mutex
	delay   time.Duration
	pending map[string]*debounce.Debouncer
	types   map[string]core.EventType
	stopped bool
}

func newCoalescer(delay time.Duration) *coalescer {
	return &coalescer{
		delay:   delay,
		pending: make(map[string]*debounce.Debouncer),
		types:   make(map[string]core.EventType),
	}
}

func (c *coalescer) add(e core.Event, emit func(core.Event)) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	if c.types[e.SheetID] == core.EventCreate && e.Type == core.EventModify {
		e.Type = core.EventCreate
	}
	c.types[e.SheetID] = e.Type
	d, ok := c.pending[e.SheetID]
	if !ok {
		d = debounce.New(c.delay)
		c.pending[e.SheetID] = d
	}
	c.mu.Unlock()

	d.Exec(func() {
		c.mu.Lock()
		stopped := c.stopped
		delete(c.types, e.SheetID)
		c.mu.Unlock()
		if !stopped {
			emit(e)
		}
	})
}

// stop drops pending events and refuses new ones.
func (c *coalescer) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	for _, d := range c.pending {
		d.Cancel()
	}
	c.pending = nil
	c.types = nil
}
