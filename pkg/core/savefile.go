package core

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// SaveFileVersion is written into every serialized sheet.
const SaveFileVersion = 1

// TimestampFormat is the ISO-8601 layout used for lastChange.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

type saveFile struct {
	Version    int    `json:"version"`
	ID         string `json:"id"`
	Notes      []Note `json:"notes"`
	LastChange string `json:"lastChange"`
}

// document is a decoded save-file before notes are materialized.
type document struct {
	id         string
	notes      []NoteData
	lastChange time.Time
}

// Serialize encodes the sheet as a save-file.
func (s *Sheet) Serialize() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.encodeLocked()
}

// Deserialize replaces id, notes and LastChange from a save-file. Missing
// fields fall back to defaults. Nothing is applied when data is not a JSON
// object. Observers are not notified.
func (s *Sheet) Deserialize(data []byte) error {
	doc, err := decodeSaveFile(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocked(doc)
	return nil
}

// ReplaceNotes swaps the note sequence for the one in a save-file, keeping
// the sheet id. It records history and notifies "notes".
func (s *Sheet) ReplaceNotes(data []byte) error {
	doc, err := decodeSaveFile(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.captureLocked()
	s.notes = s.buildAllLocked(doc.notes)
	s.mu.Unlock()

	s.scheduleHistory()
	s.notify(FieldNotes)
	return nil
}

// DecodeNotes reads the note sequence of a save-file, backfilling defaults the
// same way Deserialize does.
func DecodeNotes(data []byte) ([]Note, error) {
	doc, err := decodeSaveFile(data)
	if err != nil {
		return nil, err
	}
	s := NewSheet()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buildAllLocked(doc.notes), nil
}

func (s *Sheet) encodeLocked() ([]byte, error) {
	notes := s.notes
	if notes == nil {
		notes = []Note{}
	}
	data, err := json.Marshal(saveFile{
		Version:    SaveFileVersion,
		ID:         s.id,
		Notes:      notes,
		LastChange: s.lastChange.UTC().Format(TimestampFormat),
	})
	if err != nil {
		return nil, fmt.Errorf("encode sheet %s: %w", s.id, err)
	}
	return data, nil
}

func (s *Sheet) applyLocked(doc document) {
	if doc.id != "" {
		s.id = doc.id
	}
	s.notes = s.buildAllLocked(doc.notes)
	if doc.lastChange.IsZero() {
		s.lastChange = s.stamp()
	} else {
		s.lastChange = doc.lastChange
	}
}

// buildAllLocked materializes decoded notes, replacing ids that are missing
// or already taken.
func (s *Sheet) buildAllLocked(data []NoteData) []Note {
	seen := make(map[string]bool, len(data))
	notes := make([]Note, 0, len(data))
	for _, d := range data {
		if seen[d.ID] {
			d.ID = ""
		}
		n := s.buildLocked(d)
		seen[n.ID] = true
		notes = append(notes, n)
	}
	return notes
}

func decodeSaveFile(data []byte) (document, error) {
	if !gjson.ValidBytes(data) {
		return document{}, fmt.Errorf("%w: invalid JSON", ErrMalformedSaveFile)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return document{}, fmt.Errorf("%w: expected an object", ErrMalformedSaveFile)
	}

	doc := document{id: stringField(root, "id")}

	if ts := root.Get("lastChange"); ts.Type == gjson.String {
		if t, err := time.Parse(time.RFC3339Nano, ts.Str); err == nil {
			doc.lastChange = t.UTC().Truncate(time.Millisecond)
		}
	}

	root.Get("notes").ForEach(func(_, n gjson.Result) bool {
		if n.IsObject() {
			doc.notes = append(doc.notes, decodeNote(n))
		}
		return true
	})
	return doc, nil
}

func decodeNote(n gjson.Result) NoteData {
	d := NoteData{
		ID:              stringField(n, "id"),
		BackgroundColor: stringField(n, "backgroundColor"),
		TextColor:       stringField(n, "textColor"),
		Image:           stringField(n, "image"),
	}

	if x, y := n.Get("position.x"), n.Get("position.y"); x.Type == gjson.Number && y.Type == gjson.Number {
		d.Position = &Position{X: x.Num, Y: y.Num}
	}
	if w, h := n.Get("dimensions.width"), n.Get("dimensions.height"); w.Type == gjson.Number && h.Type == gjson.Number {
		d.Dimensions = &Dimensions{Width: w.Num, Height: h.Num}
	}

	switch text := n.Get("text"); text.Type {
	case gjson.Null:
		// Explicit null hides the text layer; an absent key gets the default.
		d.HideText = text.Exists()
	case gjson.String:
		t := text.Str
		d.Text = &t
	}
	return d
}

func stringField(r gjson.Result, path string) string {
	if v := r.Get(path); v.Type == gjson.String {
		return v.Str
	}
	return ""
}
