package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/aretw0/sticky/pkg/core"
)

func TestSaveFile_RoundTrip(t *testing.T) {
	s, _ := newTestSheet(t)
	text := "hi"
	_, err := s.AddNote(&core.NoteData{Text: &text, Image: "data:image/gif;base64,R0lG"})
	require.NoError(t, err)
	_, err = s.AddNote(&core.NoteData{HideText: true, BackgroundColor: "#123456"})
	require.NoError(t, err)
	_, err = s.AddNote(nil)
	require.NoError(t, err)

	data, err := s.Serialize()
	require.NoError(t, err)

	restored := core.NewSheet()
	require.NoError(t, restored.Deserialize(data))

	assert.Equal(t, s.ID(), restored.ID())
	assert.Equal(t, s.Notes(), restored.Notes())
	assert.True(t, s.LastChange().Equal(restored.LastChange()))
}

func TestSaveFile_Shape(t *testing.T) {
	s, _ := newTestSheet(t)
	_, err := s.AddNote(&core.NoteData{HideText: true})
	require.NoError(t, err)

	data, err := s.Serialize()
	require.NoError(t, err)
	doc := gjson.ParseBytes(data)

	assert.Equal(t, int64(1), doc.Get("version").Int())
	assert.Equal(t, "sheet-1", doc.Get("id").String())
	assert.Equal(t, gjson.Null, doc.Get("notes.0.text").Type)
	assert.True(t, doc.Get("notes.0.text").Exists())
	assert.Equal(t, "", doc.Get("notes.0.image").String())
	assert.Equal(t, float64(160), doc.Get("notes.0.dimensions.width").Float())

	ts, err := time.Parse(time.RFC3339, doc.Get("lastChange").String())
	require.NoError(t, err)
	assert.True(t, ts.Equal(s.LastChange()))
	assert.Regexp(t, `\.\d{3}Z$`, doc.Get("lastChange").String())
}

func TestSaveFile_EmptySheetSerializesEmptyArray(t *testing.T) {
	s, _ := newTestSheet(t)
	data, err := s.Serialize()
	require.NoError(t, err)
	assert.True(t, gjson.GetBytes(data, "notes").IsArray())
}

func TestSaveFile_PermissiveDecode(t *testing.T) {
	partial := []byte(`{
		"id": "abc",
		"lastChange": "2023-05-06T07:08:09.123Z",
		"notes": [
			{"id": "n1"},
			{"id": "n2", "text": null, "position": {"x": 5}, "dimensions": {"width": 10, "height": 20}},
			{"id": "n1", "text": "dup"},
			"garbage"
		]
	}`)

	s := core.NewSheet()
	require.NoError(t, s.Deserialize(partial))

	assert.Equal(t, "abc", s.ID())
	assert.Equal(t, time.Date(2023, 5, 6, 7, 8, 9, 123_000_000, time.UTC), s.LastChange())

	notes := s.Notes()
	require.Len(t, notes, 3)

	assert.Equal(t, "n1", notes[0].ID)
	assert.Equal(t, core.DefaultBackgroundColor, notes[0].BackgroundColor)
	require.NotNil(t, notes[0].Text)
	assert.Equal(t, "", *notes[0].Text)

	assert.Nil(t, notes[1].Text)
	assert.InDelta(t, 100, notes[1].Position.X, 50, "partial position falls back to the default")
	assert.Equal(t, core.Dimensions{Width: 10, Height: 20}, notes[1].Dimensions)

	assert.NotEqual(t, "n1", notes[2].ID, "duplicate ids are regenerated")
	assert.Equal(t, "dup", *notes[2].Text)
}

func TestSaveFile_MalformedLeavesSheetAlone(t *testing.T) {
	s, _ := newTestSheet(t)
	_, err := s.AddNote(nil)
	require.NoError(t, err)
	before, err := s.Serialize()
	require.NoError(t, err)

	for _, input := range []string{`{"notes": [`, `[]`, `"sheet"`, ``} {
		assert.ErrorIs(t, s.Deserialize([]byte(input)), core.ErrMalformedSaveFile, input)
		assert.ErrorIs(t, s.ReplaceNotes([]byte(input)), core.ErrMalformedSaveFile, input)
	}

	after, err := s.Serialize()
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestSaveFile_ReplaceNotesKeepsID(t *testing.T) {
	s, obs := newTestSheet(t, core.WithHistoryDelay(historyDelay))
	_, err := s.AddNote(nil)
	require.NoError(t, err)
	waitHistory(t, s, 1)

	require.NoError(t, s.ReplaceNotes([]byte(`{"id":"other","notes":[{"id":"x"},{"id":"y"}]}`)))
	assert.Equal(t, "sheet-1", s.ID())
	assert.Equal(t, []string{"x", "y"}, ids(s.Notes()))
	assert.Equal(t, core.FieldNotes, obs.all()[len(obs.all())-1])

	waitHistory(t, s, 2)
	ok, err := s.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"note-1"}, ids(s.Notes()))
}

func TestSaveFile_DeserializeDoesNotNotify(t *testing.T) {
	s, obs := newTestSheet(t)
	require.NoError(t, s.Deserialize([]byte(`{"id":"z","notes":[]}`)))
	assert.Empty(t, obs.all())
	assert.Equal(t, "z", s.ID())
}
