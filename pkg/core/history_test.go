package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/sticky/pkg/core"
)

const historyDelay = 40 * time.Millisecond

func waitHistory(t *testing.T, s *core.Sheet, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return s.HistoryLen() == n }, time.Second, 5*time.Millisecond)
}

func TestHistory_BurstCollapsesToOneEntry(t *testing.T) {
	s, _ := newTestSheet(t, core.WithHistoryDelay(historyDelay))
	n, err := s.AddNote(&core.NoteData{Position: &core.Position{X: 0, Y: 0}})
	require.NoError(t, err)

	for i := 1; i <= 10; i++ {
		require.NoError(t, s.SetPosition(n.ID, core.Position{X: float64(i), Y: float64(i)}))
	}

	waitHistory(t, s, 1)
	time.Sleep(3 * historyDelay)
	assert.Equal(t, 1, s.HistoryLen())

	ok, err := s.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, s.Len(), "the burst started before the note existed")
}

func TestHistory_UndoIsLIFO(t *testing.T) {
	s, obs := newTestSheet(t, core.WithHistoryDelay(historyDelay))
	n, err := s.AddNote(&core.NoteData{BackgroundColor: "c0"})
	require.NoError(t, err)
	waitHistory(t, s, 1)

	color := func() string {
		got, ok := s.Note(n.ID)
		require.True(t, ok)
		return got.BackgroundColor
	}

	require.NoError(t, s.SetBackgroundColor(n.ID, "c1")) // M1
	waitHistory(t, s, 2)
	require.NoError(t, s.SetBackgroundColor(n.ID, "c2")) // M2
	waitHistory(t, s, 3)
	require.NoError(t, s.SetBackgroundColor(n.ID, "c3")) // M3

	ok, err := s.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "c1", color(), "state before M2")

	ok, err = s.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "c0", color(), "state before M1")

	assert.Equal(t, core.FieldNotes, obs.all()[len(obs.all())-1])

	time.Sleep(3 * historyDelay)
	assert.Equal(t, 1, s.HistoryLen(), "restored states are not pushed back")
}

func TestHistory_UndoEmptyIsNoop(t *testing.T) {
	s, obs := newTestSheet(t)
	before := s.LastChange()

	ok, err := s.Undo()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, obs.all())
	assert.Equal(t, before, s.LastChange())
}

func TestHistory_SaveHistoryCapturesCurrentState(t *testing.T) {
	s, _ := newTestSheet(t, core.WithHistoryDelay(historyDelay))
	_, err := s.AddNote(nil)
	require.NoError(t, err)
	waitHistory(t, s, 1)

	s.SaveHistory()
	waitHistory(t, s, 2)

	ok, err := s.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestHistory_DiscardHistory(t *testing.T) {
	s, _ := newTestSheet(t, core.WithHistoryDelay(historyDelay))
	_, err := s.AddNote(nil)
	require.NoError(t, err)
	waitHistory(t, s, 1)

	s.DiscardHistory()
	assert.Equal(t, 0, s.HistoryLen())
	ok, err := s.Undo()
	require.NoError(t, err)
	assert.False(t, ok)
}
