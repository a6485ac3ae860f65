package core_test

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/sticky/pkg/core"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeClock advances one millisecond per reading.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

type observed struct {
	mu     sync.Mutex
	fields []core.Field
}

func (o *observed) record(f core.Field) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fields = append(o.fields, f)
}

func (o *observed) all() []core.Field {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]core.Field(nil), o.fields...)
}

func newTestSheet(t *testing.T, opts ...core.SheetOption) (*core.Sheet, *observed) {
	t.Helper()
	var seq int
	clock := &fakeClock{now: epoch}
	base := []core.SheetOption{
		core.WithSheetID("sheet-1"),
		core.WithClock(clock.Now),
		core.WithRand(rand.New(rand.NewPCG(1, 2))),
		core.WithHistoryDelay(20 * time.Millisecond),
		core.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("note-%d", seq)
		}),
	}
	s := core.NewSheet(append(base, opts...)...)
	obs := &observed{}
	s.SetOnChange(obs.record)
	return s, obs
}

func ids(notes []core.Note) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.ID
	}
	return out
}

func TestSheet_AddNoteDefaults(t *testing.T) {
	s, obs := newTestSheet(t)

	n, err := s.AddNote(nil)
	require.NoError(t, err)

	assert.Equal(t, "note-1", n.ID)
	assert.Equal(t, core.DefaultBackgroundColor, n.BackgroundColor)
	assert.Equal(t, core.DefaultTextColor, n.TextColor)
	assert.Equal(t, core.Dimensions{Width: 160, Height: 160}, n.Dimensions)
	assert.InDelta(t, 100, n.Position.X, 50)
	assert.InDelta(t, 100, n.Position.Y, 50)
	assert.Equal(t, n.Position.Round(), n.Position, "position is integral")
	require.NotNil(t, n.Text)
	assert.Equal(t, "", *n.Text)
	assert.Empty(t, n.Image)

	assert.Equal(t, []core.Field{core.FieldNotes}, obs.all())
}

func TestSheet_AddNoteKeepsProvidedFields(t *testing.T) {
	s, _ := newTestSheet(t)
	text := "hello"

	n, err := s.AddNote(&core.NoteData{
		ID:              "custom",
		BackgroundColor: "#000000",
		Position:        &core.Position{X: 10.4, Y: 20.6},
		Dimensions:      &core.Dimensions{Width: 0, Height: 10},
		Text:            &text,
	})
	require.NoError(t, err)
	assert.Equal(t, "custom", n.ID)
	assert.Equal(t, "#000000", n.BackgroundColor)
	assert.Equal(t, core.DefaultTextColor, n.TextColor)
	assert.Equal(t, core.Position{X: 10, Y: 21}, n.Position)
	assert.Equal(t, core.Dimensions{Width: 160, Height: 160}, n.Dimensions, "invalid sizes fall back")
	assert.Equal(t, "hello", *n.Text)

	_, err = s.AddNote(&core.NoteData{ID: "custom"})
	assert.ErrorIs(t, err, core.ErrDuplicateNote)
	assert.Equal(t, 1, s.Len())
}

func TestSheet_SelectReordersToTop(t *testing.T) {
	s, obs := newTestSheet(t)

	a, err := s.AddNote(nil)
	require.NoError(t, err)
	b, err := s.AddNote(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, b.ID}, ids(s.Notes()))

	require.NoError(t, s.Reorder(a.ID))
	assert.Equal(t, []string{b.ID, a.ID}, ids(s.Notes()))

	data, err := s.Serialize()
	require.NoError(t, err)
	exported, err := core.DecodeNotes(data)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, a.ID}, ids(exported))

	assert.Len(t, obs.all(), 3)
}

func TestSheet_ReorderLastIsNoop(t *testing.T) {
	s, obs := newTestSheet(t)

	_, err := s.AddNote(nil)
	require.NoError(t, err)
	b, err := s.AddNote(nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return s.HistoryLen() == 1 }, time.Second, 5*time.Millisecond)

	before := s.LastChange()
	require.NoError(t, s.Reorder(b.ID))

	assert.Len(t, obs.all(), 2, "no notification")
	assert.Equal(t, before, s.LastChange())
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, s.HistoryLen(), "no history entry")
}

func TestSheet_ToggleTextFromNull(t *testing.T) {
	s, obs := newTestSheet(t)

	n, err := s.AddNote(&core.NoteData{HideText: true})
	require.NoError(t, err)
	require.Nil(t, n.Text)
	require.Empty(t, n.Image)

	require.NoError(t, s.ToggleText(n.ID))
	got, ok := s.Note(n.ID)
	require.True(t, ok)
	require.NotNil(t, got.Text)
	assert.Equal(t, "", *got.Text)
	assert.Equal(t, []core.Field{core.FieldNotes, core.FieldText}, obs.all())

	require.NoError(t, s.ToggleText(n.ID))
	got, _ = s.Note(n.ID)
	assert.Nil(t, got.Text)
}

func TestSheet_SettersNotifyOnce(t *testing.T) {
	s, obs := newTestSheet(t)
	n, err := s.AddNote(nil)
	require.NoError(t, err)
	text := "memo"

	require.NoError(t, s.SetPosition(n.ID, core.Position{X: 1.5, Y: -2.5}))
	require.NoError(t, s.SetDimensions(n.ID, core.Dimensions{Width: 200.2, Height: 99.7}))
	require.NoError(t, s.SetBackgroundColor(n.ID, "#ff0000"))
	require.NoError(t, s.SetTextColor(n.ID, "#00ff00"))
	require.NoError(t, s.SetText(n.ID, &text))
	require.NoError(t, s.SetImage(n.ID, "data:image/png;base64,AA=="))

	assert.Equal(t, []core.Field{
		core.FieldNotes,
		core.FieldPosition,
		core.FieldDimensions,
		core.FieldBackgroundColor,
		core.FieldTextColor,
		core.FieldText,
		core.FieldImage,
	}, obs.all())

	got, _ := s.Note(n.ID)
	assert.Equal(t, core.Position{X: 2, Y: -2}, got.Position)
	assert.Equal(t, core.Dimensions{Width: 200, Height: 100}, got.Dimensions)
	assert.Equal(t, "#ff0000", got.BackgroundColor)
	assert.Equal(t, "#00ff00", got.TextColor)
	assert.Equal(t, "memo", *got.Text)
	assert.Equal(t, "data:image/png;base64,AA==", got.Image)

	text = "changed after the call"
	got, _ = s.Note(n.ID)
	assert.Equal(t, "memo", *got.Text, "sheet keeps its own copy")
}

func TestRound_HalvesGoUp(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{2.5, 3},
		{-2.5, -2},
		{-0.5, 0},
		{-2.6, -3},
		{1.4, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, core.Position{X: tt.want, Y: tt.want}, core.Position{X: tt.in, Y: tt.in}.Round(), "%v", tt.in)
		assert.Equal(t, core.Dimensions{Width: tt.want, Height: tt.want}, core.Dimensions{Width: tt.in, Height: tt.in}.Round(), "%v", tt.in)
	}
}

func TestSheet_InvalidMutationsLeaveStateAlone(t *testing.T) {
	s, obs := newTestSheet(t)
	n, err := s.AddNote(nil)
	require.NoError(t, err)

	assert.ErrorIs(t, s.SetDimensions(n.ID, core.Dimensions{Width: -1, Height: 10}), core.ErrInvalidDimensions)
	assert.ErrorIs(t, s.SetDimensions(n.ID, core.Dimensions{Width: 0.4, Height: 10}), core.ErrInvalidDimensions)
	assert.ErrorIs(t, s.SetPosition("missing", core.Position{}), core.ErrNoteNotFound)
	assert.ErrorIs(t, s.RemoveNote("missing"), core.ErrNoteNotFound)
	assert.ErrorIs(t, s.Reorder("missing"), core.ErrNoteNotFound)

	got, _ := s.Note(n.ID)
	assert.Equal(t, core.Dimensions{Width: 160, Height: 160}, got.Dimensions)
	assert.Len(t, obs.all(), 1)
}

func TestSheet_RemoveNote(t *testing.T) {
	s, obs := newTestSheet(t)
	a, _ := s.AddNote(nil)
	b, _ := s.AddNote(nil)

	require.NoError(t, s.RemoveNote(a.ID))
	assert.Equal(t, []string{b.ID}, ids(s.Notes()))
	assert.Equal(t, core.FieldNotes, obs.all()[2])
}

func TestSheet_LastChangeFollowsNotifications(t *testing.T) {
	s, _ := newTestSheet(t)
	start := s.LastChange()

	s.Touch()
	touched := s.LastChange()
	assert.True(t, touched.After(start))
	assert.Equal(t, time.UTC, touched.Location())

	n, _ := s.AddNote(nil)
	added := s.LastChange()
	assert.True(t, added.After(touched))

	// Without an observer the timestamp still moves.
	s.SetOnChange(nil)
	require.NoError(t, s.SetTextColor(n.ID, "#111111"))
	assert.True(t, s.LastChange().After(added))
}

func TestSheet_ObserverMayReadSheet(t *testing.T) {
	s := core.NewSheet(core.WithHistoryDelay(time.Hour))
	var seen int
	s.SetOnChange(func(core.Field) {
		seen = s.Len()
	})

	_, err := s.AddNote(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, seen)
}

func TestSheet_State(t *testing.T) {
	s, _ := newTestSheet(t, core.WithHistoryDelay(time.Hour))
	n, _ := s.AddNote(nil)

	state, ok := s.State().(core.SheetState)
	require.True(t, ok)
	assert.Equal(t, "sheet-1", state.ID)
	assert.Equal(t, 1, state.Notes)
	assert.Equal(t, n.ID, state.Selected)
	assert.True(t, state.BurstOpen)
	assert.Equal(t, "sheet", s.ComponentType())
}
