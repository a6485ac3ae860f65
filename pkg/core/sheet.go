package core

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/sticky/pkg/debounce"
)

// DefaultHistoryDelay is the quiet period after which a burst of mutations
// becomes one undo step.
const DefaultHistoryDelay = time.Second

// SheetOption configures a Sheet.
type SheetOption func(*Sheet)

// WithSheetID sets the sheet id instead of a random one.
func WithSheetID(id string) SheetOption {
	return func(s *Sheet) {
		if id != "" {
			s.id = id
		}
	}
}

// WithClock replaces time.Now for change timestamps.
func WithClock(now func() time.Time) SheetOption {
	return func(s *Sheet) {
		s.now = now
	}
}

// WithRand sets the source used to jitter default note positions.
func WithRand(r *rand.Rand) SheetOption {
	return func(s *Sheet) {
		s.rand = r
	}
}

// WithHistoryDelay sets the quiet period used to coalesce history snapshots.
func WithHistoryDelay(d time.Duration) SheetOption {
	return func(s *Sheet) {
		s.history = debounce.New(d)
	}
}

// WithIDGenerator replaces the UUID generator for note ids.
func WithIDGenerator(gen func() string) SheetOption {
	return func(s *Sheet) {
		s.newID = gen
	}
}

// Sheet is the document aggregate: an ordered set of notes plus change and
// history metadata. It is safe for concurrent use; the change observer is
// always called without the internal lock held.
type Sheet struct {
	mu         sync.Mutex
	id         string
	notes      []Note
	lastChange time.Time
	onChange   func(Field)

	snapshots [][]byte
	pending   []byte // pre-mutation snapshot of the current burst
	history   *debounce.Debouncer

	now   func() time.Time
	rand  *rand.Rand
	newID func() string
}

// NewSheet creates an empty sheet with a fresh random id.
func NewSheet(opts ...SheetOption) *Sheet {
	s := &Sheet{
		id:      uuid.NewString(),
		notes:   []Note{},
		history: debounce.New(DefaultHistoryDelay),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rand == nil {
		s.rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	s.lastChange = s.stamp()
	return s
}

// ID returns the sheet id.
func (s *Sheet) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// LastChange returns the time of the most recent observed mutation.
func (s *Sheet) LastChange() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastChange
}

// SetOnChange installs the change observer. Every notification first moves
// LastChange to now, then calls fn with the source field.
func (s *Sheet) SetOnChange(fn func(Field)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Notes returns a copy of the notes in z-order.
func (s *Sheet) Notes() []Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Note, len(s.notes))
	for i, n := range s.notes {
		out[i] = n.clone()
	}
	return out
}

// Note returns a copy of the note with the given id.
func (s *Sheet) Note(id string) (Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.notes[i].clone(), true
	}
	return Note{}, false
}

// Len returns the number of notes.
func (s *Sheet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notes)
}

// AddNote appends a note built from initial (nil for all defaults) on top of
// the z-order.
func (s *Sheet) AddNote(initial *NoteData) (Note, error) {
	var data NoteData
	if initial != nil {
		data = *initial
	}

	s.mu.Lock()
	if data.ID != "" && s.indexLocked(data.ID) >= 0 {
		s.mu.Unlock()
		return Note{}, fmt.Errorf("%w: %s", ErrDuplicateNote, data.ID)
	}
	n := s.buildLocked(data)
	s.captureLocked()
	s.notes = append(s.notes, n)
	s.mu.Unlock()

	s.scheduleHistory()
	s.notify(FieldNotes)
	return n.clone(), nil
}

// RemoveNote deletes the note with the given id.
func (s *Sheet) RemoveNote(id string) error {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNoteNotFound, id)
	}
	s.captureLocked()
	s.notes = slices.Delete(slices.Clone(s.notes), i, i+1)
	s.mu.Unlock()

	s.scheduleHistory()
	s.notify(FieldNotes)
	return nil
}

// Reorder moves the note to the top of the z-order. Reordering the note that
// is already on top changes nothing and notifies nobody.
func (s *Sheet) Reorder(id string) error {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNoteNotFound, id)
	}
	if i == len(s.notes)-1 {
		s.mu.Unlock()
		return nil
	}
	s.captureLocked()
	n := s.notes[i]
	notes := slices.Delete(slices.Clone(s.notes), i, i+1)
	s.notes = append(notes, n)
	s.mu.Unlock()

	s.scheduleHistory()
	s.notify(FieldNotes)
	return nil
}

// SetPosition moves a note. The position is rounded to integers.
func (s *Sheet) SetPosition(id string, p Position) error {
	return s.mutate(id, FieldPosition, func(n *Note) error {
		n.Position = p.Round()
		return nil
	})
}

// SetDimensions resizes a note. Sides are rounded and must stay positive.
func (s *Sheet) SetDimensions(id string, d Dimensions) error {
	return s.mutate(id, FieldDimensions, func(n *Note) error {
		if !d.Valid() {
			return fmt.Errorf("%w: %vx%v", ErrInvalidDimensions, d.Width, d.Height)
		}
		n.Dimensions = d.Round()
		return nil
	})
}

// SetBackgroundColor recolors a note's background.
func (s *Sheet) SetBackgroundColor(id, color string) error {
	return s.mutate(id, FieldBackgroundColor, func(n *Note) error {
		n.BackgroundColor = color
		return nil
	})
}

// SetTextColor recolors a note's text.
func (s *Sheet) SetTextColor(id, color string) error {
	return s.mutate(id, FieldTextColor, func(n *Note) error {
		n.TextColor = color
		return nil
	})
}

// SetText replaces a note's text. nil hides the text layer.
func (s *Sheet) SetText(id string, text *string) error {
	return s.mutate(id, FieldText, func(n *Note) error {
		if text == nil {
			n.Text = nil
			return nil
		}
		t := *text
		n.Text = &t
		return nil
	})
}

// ToggleText shows a hidden text layer as "" or hides a visible one.
func (s *Sheet) ToggleText(id string) error {
	return s.mutate(id, FieldText, func(n *Note) error {
		if n.Text == nil {
			empty := ""
			n.Text = &empty
		} else {
			n.Text = nil
		}
		return nil
	})
}

// SetImage replaces a note's image. "" removes it.
func (s *Sheet) SetImage(id, image string) error {
	return s.mutate(id, FieldImage, func(n *Note) error {
		n.Image = image
		return nil
	})
}

// Touch marks the sheet as changed now without touching any note.
func (s *Sheet) Touch() {
	s.notify(FieldLastChange)
}

// mutate applies fn to a copy of the note, and commits it only if fn succeeds.
func (s *Sheet) mutate(id string, field Field, fn func(*Note) error) error {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNoteNotFound, id)
	}
	n := s.notes[i].clone()
	if err := fn(&n); err != nil {
		s.mu.Unlock()
		return err
	}
	s.captureLocked()
	s.notes[i] = n
	s.mu.Unlock()

	s.scheduleHistory()
	s.notify(field)
	return nil
}

func (s *Sheet) notify(field Field) {
	s.mu.Lock()
	s.lastChange = s.stamp()
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(field)
	}
}

// stamp returns now at the precision the save-file keeps.
func (s *Sheet) stamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *Sheet) indexLocked(id string) int {
	return slices.IndexFunc(s.notes, func(n Note) bool { return n.ID == id })
}

// buildLocked is the single construction path for notes, interactive or decoded.
func (s *Sheet) buildLocked(d NoteData) Note {
	n := Note{
		ID:              d.ID,
		BackgroundColor: d.BackgroundColor,
		TextColor:       d.TextColor,
		Image:           d.Image,
	}
	if n.ID == "" {
		n.ID = s.newID()
	}
	if n.BackgroundColor == "" {
		n.BackgroundColor = DefaultBackgroundColor
	}
	if n.TextColor == "" {
		n.TextColor = DefaultTextColor
	}

	if d.Position != nil {
		n.Position = d.Position.Round()
	} else {
		n.Position = Position{
			X: DefaultOriginX + s.rand.Float64()*DefaultJitter - s.rand.Float64()*DefaultJitter,
			Y: DefaultOriginY + s.rand.Float64()*DefaultJitter - s.rand.Float64()*DefaultJitter,
		}.Round()
	}

	if d.Dimensions != nil && d.Dimensions.Valid() {
		n.Dimensions = d.Dimensions.Round()
	} else {
		n.Dimensions = Dimensions{Width: DefaultWidth, Height: DefaultHeight}
	}

	switch {
	case d.HideText:
		n.Text = nil
	case d.Text != nil:
		t := *d.Text
		n.Text = &t
	default:
		empty := ""
		n.Text = &empty
	}
	return n
}
