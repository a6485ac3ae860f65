// Package core holds the sticky-notes document model.
//
// A Sheet owns an ordered sequence of Notes. Order is z-order: the last note
// renders on top and is the selected one. Notes are plain values; every
// mutation goes through the Sheet, which snapshots history, timestamps the
// change and notifies a single observer.
package core

import (
	"fmt"
	"math"
	"time"
)

// Position is a canvas-space coordinate, integer-rounded on commit.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Round rounds both axes to the nearest integer, halves toward +Inf.
func (p Position) Round() Position {
	return Position{X: roundHalfUp(p.X), Y: roundHalfUp(p.Y)}
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

// Dimensions is a note size in pixels.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Round rounds both sides to the nearest integer, halves up.
func (d Dimensions) Round() Dimensions {
	return Dimensions{Width: roundHalfUp(d.Width), Height: roundHalfUp(d.Height)}
}

// Valid reports whether both sides are positive after rounding.
func (d Dimensions) Valid() bool {
	r := d.Round()
	return r.Width > 0 && r.Height > 0
}

// Note is one movable, resizable, colorable card.
type Note struct {
	ID              string     `json:"id"`
	BackgroundColor string     `json:"backgroundColor"`
	TextColor       string     `json:"textColor"`
	Position        Position   `json:"position"`
	Dimensions      Dimensions `json:"dimensions"`
	// Text is nil when the text layer is hidden, which is not the same as "".
	Text *string `json:"text"`
	// Image is a self-contained data URL, or "" for none.
	Image string `json:"image"`
}

// clone returns a copy that shares no pointers with n.
func (n Note) clone() Note {
	if n.Text != nil {
		text := *n.Text
		n.Text = &text
	}
	return n
}

// Defaults applied to missing note fields.
const (
	DefaultBackgroundColor = "#3b82f6"
	DefaultTextColor       = "#ffffff"
	DefaultWidth           = 160
	DefaultHeight          = 160
	DefaultOriginX         = 100
	DefaultOriginY         = 100
	DefaultJitter          = 50
)

// NoteData is the partial input a note is built from. Zero values are backfilled.
type NoteData struct {
	ID              string      `json:"id,omitempty"`
	BackgroundColor string      `json:"backgroundColor,omitempty"`
	TextColor       string      `json:"textColor,omitempty"`
	Position        *Position   `json:"position,omitempty"`
	Dimensions      *Dimensions `json:"dimensions,omitempty"`
	// Text nil means "use the default" unless HideText is set.
	Text     *string `json:"text,omitempty"`
	HideText bool    `json:"hideText,omitempty"`
	Image    string  `json:"image,omitempty"`
}

// Field names the part of the document a change touched.
type Field string

const (
	FieldNotes           Field = "notes"
	FieldLastChange      Field = "lastChange"
	FieldBackgroundColor Field = "backgroundColor"
	FieldTextColor       Field = "textColor"
	FieldPosition        Field = "position"
	FieldDimensions      Field = "dimensions"
	FieldText            Field = "text"
	FieldImage           Field = "image"
)

// EventType represents the type of change.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change to a sheet, either in memory or in a store.
type Event struct {
	Type      EventType
	SheetID   string
	Field     Field // empty for store-level events
	Timestamp time.Time
}

// String implements lifecycle.Event.
func (e Event) String() string {
	if e.Field == "" {
		return fmt.Sprintf("%s %s", e.Type, e.SheetID)
	}
	return fmt.Sprintf("%s %s (%s)", e.Type, e.SheetID, e.Field)
}
