package board

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/lifecycle"
	"github.com/gabriel-vasile/mimetype"

	"github.com/aretw0/sticky/pkg/core"
)

// AddNote adds a note on top of the z-order. nil uses every default.
func (b *Board) AddNote(data *core.NoteData) (core.Note, error) {
	return b.Sheet().AddNote(data)
}

// RemoveNote deletes a note.
func (b *Board) RemoveNote(id string) error {
	return b.Sheet().RemoveNote(id)
}

// Select raises a note to the top of the z-order.
func (b *Board) Select(id string) error {
	return b.Sheet().Reorder(id)
}

// Move places a note at p without a gesture.
func (b *Board) Move(id string, p core.Position) error {
	return b.Sheet().SetPosition(id, p)
}

// Resize sets a note's size. Sides are rounded to whole pixels.
func (b *Board) Resize(id string, width, height float64) error {
	return b.Sheet().SetDimensions(id, core.Dimensions{Width: width, Height: height})
}

// SetBackgroundColor recolors a note.
func (b *Board) SetBackgroundColor(id, color string) error {
	return b.Sheet().SetBackgroundColor(id, color)
}

// SetTextColor recolors a note's text.
func (b *Board) SetTextColor(id, color string) error {
	return b.Sheet().SetTextColor(id, color)
}

// SetText replaces a note's text; nil hides it.
func (b *Board) SetText(id string, text *string) error {
	return b.Sheet().SetText(id, text)
}

// ToggleText shows or hides a note's text layer.
func (b *Board) ToggleText(id string) error {
	return b.Sheet().ToggleText(id)
}

// RemoveImage clears a note's image.
func (b *Board) RemoveImage(id string) error {
	return b.Sheet().SetImage(id, "")
}

// Undo reverts to the latest history entry. It reports false when there is
// nothing to undo.
func (b *Board) Undo() (bool, error) {
	return b.Sheet().Undo()
}

// Touch marks the sheet as changed now, which also schedules a write.
func (b *Board) Touch() {
	b.Sheet().Touch()
}

// Notes returns the notes in z-order.
func (b *Board) Notes() []core.Note {
	return b.Sheet().Notes()
}

// Export returns the save-file of the displayed sheet.
func (b *Board) Export() ([]byte, error) {
	return b.Sheet().Serialize()
}

// Import replaces every note with the ones in a save-file. Undecodable input
// changes nothing.
func (b *Board) Import(data []byte) error {
	if err := b.Sheet().ReplaceNotes(data); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	return nil
}

// PasteImage reads r in the background and, if it holds an image, stores it
// on the note as a data URL. Anything else is ignored. Overlapping pastes on
// the same note are not ordered: the last one to finish wins. Use Wait to
// block until they are done.
func (b *Board) PasteImage(ctx context.Context, id string, r io.Reader) error {
	sheet := b.Sheet()
	if _, ok := sheet.Note(id); !ok {
		return fmt.Errorf("%w: %s", core.ErrNoteNotFound, id)
	}

	b.pastes.Add(1)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer b.pastes.Done()

		data, err := io.ReadAll(r)
		if err != nil {
			b.warn("paste read failed", "note", id, "error", err)
			return err
		}
		url, ok := DataURL(data)
		if !ok {
			b.debug("paste ignored, no image data", "note", id)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := sheet.SetImage(id, url); err != nil {
			b.debug("paste target vanished", "note", id, "error", err)
		}
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		b.warn("paste goroutine failed", "note", id, "error", err)
	}))
	return nil
}

// DataURL encodes data as a base64 data URL when its content sniffs as an
// image.
func DataURL(data []byte) (string, bool) {
	if len(data) == 0 {
		return "", false
	}
	mtype := mimetype.Detect(data)
	media, _, _ := strings.Cut(mtype.String(), ";")
	if !strings.HasPrefix(media, "image/") {
		return "", false
	}
	return "data:" + media + ";base64," + base64.StdEncoding.EncodeToString(data), true
}
