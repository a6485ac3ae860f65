package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aretw0/sticky/pkg/board"
	"github.com/aretw0/sticky/pkg/core"
	"github.com/aretw0/sticky/pkg/gesture"
)

// maxImageBytes bounds a pasted image.
const maxImageBytes = 10 << 20

// NotePatch is the body of PATCH /sheets/:id/notes/:note. Absent fields are
// left alone; hideText clears the text layer.
type NotePatch struct {
	BackgroundColor *string          `json:"backgroundColor"`
	TextColor       *string          `json:"textColor"`
	Text            *string          `json:"text"`
	HideText        bool             `json:"hideText"`
	Position        *core.Position   `json:"position"`
	Dimensions      *core.Dimensions `json:"dimensions"`
}

// GestureRequest is the body of POST /sheets/:id/gestures.
type GestureRequest struct {
	// Phase is one of start, move, end, click or scroll.
	Phase string `json:"phase" binding:"required,oneof=start move end click scroll"`
	// Target is a note id; empty means the canvas.
	Target  string  `json:"target"`
	Kind    string  `json:"kind"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Ctrl    bool    `json:"ctrl"`
	Touches int     `json:"touches"`
}

func (r GestureRequest) event() gesture.Event {
	p := gesture.Position{X: r.X, Y: r.Y}
	ev := gesture.Event{Kind: gesture.KindPointer, Client: p, Page: p, Ctrl: r.Ctrl}
	if r.Kind == gesture.KindTouch.String() {
		ev.Kind = gesture.KindTouch
		ev.Ctrl = false
		ev.Touches = r.Touches
	}
	return ev
}

// GestureResponse reports who claimed the event and where the canvas is.
type GestureResponse struct {
	Claim    string           `json:"claim"`
	Viewport gesture.Position `json:"viewport"`
}

func (s *Server) export(c *gin.Context) {
	s.writeSheet(c)
}

func (s *Server) importSheet(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if err := s.board.Import(data); err != nil {
		respondError(c, err)
		return
	}
	s.writeSheet(c)
}

func (s *Server) addNote(c *gin.Context) {
	var data *core.NoteData
	if c.Request.ContentLength != 0 {
		data = &core.NoteData{}
		if err := c.ShouldBindJSON(data); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}
	}
	note, err := s.board.AddNote(data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, note)
}

func (s *Server) removeNote(c *gin.Context) {
	if err := s.board.RemoveNote(c.Param("note")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) patchNote(c *gin.Context) {
	id := c.Param("note")
	var patch NotePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if _, ok := s.board.Sheet().Note(id); !ok {
		respondError(c, fmt.Errorf("%w: %s", core.ErrNoteNotFound, id))
		return
	}
	if patch.Dimensions != nil && !patch.Dimensions.Valid() {
		respondError(c, fmt.Errorf("%w: %gx%g", core.ErrInvalidDimensions, patch.Dimensions.Width, patch.Dimensions.Height))
		return
	}

	var steps []func() error
	if patch.BackgroundColor != nil {
		steps = append(steps, func() error { return s.board.SetBackgroundColor(id, *patch.BackgroundColor) })
	}
	if patch.TextColor != nil {
		steps = append(steps, func() error { return s.board.SetTextColor(id, *patch.TextColor) })
	}
	if patch.Text != nil {
		steps = append(steps, func() error { return s.board.SetText(id, patch.Text) })
	} else if patch.HideText {
		steps = append(steps, func() error { return s.board.SetText(id, nil) })
	}
	if patch.Position != nil {
		steps = append(steps, func() error { return s.board.Move(id, *patch.Position) })
	}
	if patch.Dimensions != nil {
		steps = append(steps, func() error {
			return s.board.Resize(id, patch.Dimensions.Width, patch.Dimensions.Height)
		})
	}
	for _, step := range steps {
		if err := step(); err != nil {
			respondError(c, err)
			return
		}
	}
	s.writeNote(c, id)
}

func (s *Server) toggleText(c *gin.Context) {
	id := c.Param("note")
	if err := s.board.ToggleText(id); err != nil {
		respondError(c, err)
		return
	}
	s.writeNote(c, id)
}

// pasteImage takes the raw request body as the pasted payload. Non-image
// payloads leave the note unchanged.
func (s *Server) pasteImage(c *gin.Context) {
	id := c.Param("note")
	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxImageBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("image exceeds %d bytes", tooLarge.Limit)})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if err := s.board.PasteImage(c.Request.Context(), id, bytes.NewReader(data)); err != nil {
		respondError(c, err)
		return
	}
	s.board.Wait()
	s.writeNote(c, id)
}

func (s *Server) removeImage(c *gin.Context) {
	id := c.Param("note")
	if err := s.board.RemoveImage(id); err != nil {
		respondError(c, err)
		return
	}
	s.writeNote(c, id)
}

func (s *Server) gesture(c *gin.Context) {
	var req GestureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	claim := board.ClaimNone
	var err error
	switch req.Phase {
	case "start":
		claim, err = s.board.PointerStart(req.Target, req.event())
	case "move":
		claim = s.board.PointerMove(req.event())
	case "end":
		s.board.PointerEnd(req.event())
	case "click":
		err = s.board.Click(req.Target)
	case "scroll":
		s.board.Scroll()
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, GestureResponse{Claim: claim.String(), Viewport: s.board.Viewport()})
}

func (s *Server) undo(c *gin.Context) {
	undone, err := s.board.Undo()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"undone": undone})
}

func (s *Server) touch(c *gin.Context) {
	s.board.Touch()
	c.Status(http.StatusNoContent)
}

func (s *Server) writeNote(c *gin.Context, id string) {
	note, ok := s.board.Sheet().Note(id)
	if !ok {
		respondError(c, fmt.Errorf("%w: %s", core.ErrNoteNotFound, id))
		return
	}
	c.JSON(http.StatusOK, note)
}
