// Package board composes a Sheet, its drag controllers and a Store into the
// live sticky-notes board: gestures move and raise notes, every change is
// persisted after a quiet period, and undo, import and export operate on the
// same document.
package board

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/sticky/pkg/core"
	"github.com/aretw0/sticky/pkg/debounce"
	"github.com/aretw0/sticky/pkg/gesture"
)

// DefaultPersistDelay is how long the board waits after the last change
// before writing the sheet.
const DefaultPersistDelay = time.Second

// DefaultChangeBuffer is the capacity of the Changes channel.
const DefaultChangeBuffer = 100

// Option configures a Board.
type Option func(*Board)

// WithLogger sets the logger. Nil disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Board) {
		b.logger = logger
	}
}

// WithPersistDelay overrides DefaultPersistDelay.
func WithPersistDelay(d time.Duration) Option {
	return func(b *Board) {
		b.persist = debounce.New(d)
	}
}

// WithHistoryDelay sets the sheet's history coalescing window.
func WithHistoryDelay(d time.Duration) Option {
	return func(b *Board) {
		b.historyDelay = d
	}
}

// WithScrollLockout sets how long gestures stay disabled after a scroll.
func WithScrollLockout(d time.Duration) Option {
	return func(b *Board) {
		b.scrollLockout = d
	}
}

// WithClock replaces time.Now for sheet timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Board) {
		b.now = now
	}
}

// WithRand sets the source for default note placement.
func WithRand(r *rand.Rand) Option {
	return func(b *Board) {
		b.rand = r
	}
}

// WithContext sets the context background writes and pastes run under.
func WithContext(ctx context.Context) Option {
	return func(b *Board) {
		b.ctx = ctx
	}
}

// WithChangeBuffer overrides DefaultChangeBuffer.
func WithChangeBuffer(n int) Option {
	return func(b *Board) {
		b.bufferSize = n
	}
}

// Board owns one Sheet at a time plus the controllers that drive it.
type Board struct {
	store  core.Store
	logger *slog.Logger
	ctx    context.Context

	historyDelay  time.Duration
	scrollLockout time.Duration
	now           func() time.Time
	rand          *rand.Rand
	bufferSize    int

	persist *debounce.Debouncer
	writes  sync.WaitGroup
	pastes  sync.WaitGroup

	mu        sync.Mutex
	sheet     *core.Sheet
	pan       *gesture.Controller
	items     map[string]*gesture.Controller
	changes   chan core.Event
	closed    bool
	flushing  int
	written   int
	lastError error
}

// New creates a board over store holding an empty, unsaved sheet. Call Open
// to load or create a specific sheet.
func New(store core.Store, opts ...Option) *Board {
	b := &Board{
		store:      store,
		ctx:        context.Background(),
		persist:    debounce.New(DefaultPersistDelay),
		bufferSize: DefaultChangeBuffer,
		items:      make(map[string]*gesture.Controller),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.changes = make(chan core.Event, b.bufferSize)
	b.pan = gesture.NewController(gesture.Config{
		ModifierRequired: true,
		ScrollLockout:    b.scrollLockout,
		Logger:           b.logger,
	})
	b.install(b.newSheet(""))
	return b
}

func (b *Board) newSheet(id string) *core.Sheet {
	opts := []core.SheetOption{core.WithSheetID(id)}
	if b.historyDelay > 0 {
		opts = append(opts, core.WithHistoryDelay(b.historyDelay))
	}
	if b.now != nil {
		opts = append(opts, core.WithClock(b.now))
	}
	if b.rand != nil {
		opts = append(opts, core.WithRand(b.rand))
	}
	return core.NewSheet(opts...)
}

// Open makes id the active sheet. A stored record is loaded; an unknown id
// empties the store, which only ever carries the active sheet, and saves a
// fresh empty sheet under id. A stored record that cannot be decoded is an
// error and leaves the current sheet in place.
func (b *Board) Open(ctx context.Context, id string) error {
	if err := core.ValidateID(id); err != nil {
		return err
	}

	rec, ok, err := b.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("open sheet %s: %w", id, err)
	}

	sheet := b.newSheet(id)
	if ok {
		if err := sheet.Deserialize(rec.Data); err != nil {
			return fmt.Errorf("open sheet %s: %w", id, err)
		}
		b.install(sheet)
		b.info("sheet opened", "sheet", sheet.ID(), "notes", sheet.Len())
		return nil
	}

	b.install(sheet)
	b.info("sheet created", "sheet", id)
	b.emit(core.Event{Type: core.EventCreate, SheetID: id, Timestamp: time.Now().UTC()})

	if err := b.store.Clear(ctx); err != nil {
		b.warn("clear store failed", "error", err)
	}
	if err := b.put(ctx, sheet); err != nil {
		b.warn("save new sheet failed", "sheet", id, "error", err)
	}
	return nil
}

// install swaps the active sheet and rebuilds the note controllers.
func (b *Board) install(sheet *core.Sheet) {
	b.persist.Cancel()

	b.mu.Lock()
	old := b.sheet
	b.sheet = sheet
	for id, c := range b.items {
		c.Close()
		delete(b.items, id)
	}
	b.mu.Unlock()

	if old != nil {
		old.SetOnChange(nil)
		old.DiscardHistory()
	}
	b.syncControllers()
	sheet.SetOnChange(func(f core.Field) { b.changed(sheet, f) })
}

// Sheet returns the active sheet.
func (b *Board) Sheet() *core.Sheet {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sheet
}

// ID returns the active sheet id.
func (b *Board) ID() string {
	return b.Sheet().ID()
}

// Changes streams every change of the active sheet. Events are dropped when
// the buffer is full. The channel is closed by Close.
func (b *Board) Changes() <-chan core.Event {
	return b.changes
}

// changed runs on every sheet notification.
func (b *Board) changed(sheet *core.Sheet, field core.Field) {
	if sheet != b.Sheet() {
		return
	}
	if field == core.FieldNotes || field == core.FieldPosition {
		b.syncControllers()
	}
	b.emit(core.Event{
		Type:      core.EventModify,
		SheetID:   sheet.ID(),
		Field:     field,
		Timestamp: sheet.LastChange(),
	})
	b.persist.Exec(b.persistAsync)
}

func (b *Board) emit(e core.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	select {
	case b.changes <- e:
	default:
		b.debug("change dropped", "event", e.String())
	}
}

// persistAsync writes the active sheet in the background. Failures are
// logged and otherwise ignored; the next change retries. A timer that fires
// while Flush runs is dropped since Flush writes the newer state.
func (b *Board) persistAsync() {
	b.mu.Lock()
	if b.flushing > 0 || b.closed {
		b.mu.Unlock()
		return
	}
	sheet := b.sheet
	b.writes.Add(1)
	b.mu.Unlock()

	lifecycle.Go(b.ctx, func(ctx context.Context) error {
		defer b.writes.Done()
		if err := b.put(ctx, sheet); err != nil {
			b.warn("persist failed", "sheet", sheet.ID(), "error", err)
			return err
		}
		b.debug("sheet persisted", "sheet", sheet.ID())
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		b.warn("persist goroutine failed", "error", err)
	}))
}

func (b *Board) put(ctx context.Context, sheet *core.Sheet) error {
	data, err := sheet.Serialize()
	if err == nil {
		err = b.store.Put(ctx, core.Record{ID: sheet.ID(), Data: data})
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastError = err
	if err == nil {
		b.written++
	}
	return err
}

// Flush cancels the pending debounced write, waits for writes in flight and
// saves the sheet synchronously, returning any store error.
func (b *Board) Flush(ctx context.Context) error {
	b.mu.Lock()
	b.flushing++
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.flushing--
		b.mu.Unlock()
	}()

	b.persist.Cancel()
	b.writes.Wait()
	if err := b.put(ctx, b.Sheet()); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	return nil
}

// Wait blocks until in-flight image pastes have finished.
func (b *Board) Wait() {
	b.pastes.Wait()
}

// Close drops pending timers and closes the Changes channel. State not yet
// written is lost; call Flush first to keep it.
func (b *Board) Close() {
	b.persist.Cancel()
	b.pan.Close()

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.items {
		c.Close()
	}
	b.sheet.SetOnChange(nil)
	b.sheet.DiscardHistory()
	if !b.closed {
		b.closed = true
		close(b.changes)
	}
}

func (b *Board) info(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Info(msg, args...)
	}
}

func (b *Board) warn(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Warn(msg, args...)
	}
}

func (b *Board) debug(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Debug(msg, args...)
	}
}
