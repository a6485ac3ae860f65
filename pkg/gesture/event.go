package gesture

import "math"

// Position is a point in canvas or client space.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p + o.
func (p Position) Add(o Position) Position {
	return Position{X: p.X + o.X, Y: p.Y + o.Y}
}

// Sub returns p - o.
func (p Position) Sub(o Position) Position {
	return Position{X: p.X - o.X, Y: p.Y - o.Y}
}

// Round rounds both axes to the nearest integer.
func (p Position) Round() Position {
	return Position{X: math.Floor(p.X + 0.5), Y: math.Floor(p.Y + 0.5)}
}

// IsZero reports whether both axes are zero.
func (p Position) IsZero() bool {
	return p.X == 0 && p.Y == 0
}

// Kind distinguishes pointer gestures from touch gestures.
type Kind uint8

const (
	// KindPointer is a mouse or pen drag.
	KindPointer Kind = iota
	// KindTouch is a touch-screen gesture.
	KindTouch
)

// String returns a string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindPointer:
		return "pointer"
	case KindTouch:
		return "touch"
	default:
		return "unknown"
	}
}

// Event is one raw input sample.
type Event struct {
	// Kind selects the gating rule.
	Kind Kind `json:"kind"`

	// Client is the viewport-relative coordinate of the pointer or of the
	// first target touch.
	Client Position `json:"client"`

	// Page is the document-relative coordinate. Only used to detect the
	// all-zero spurious move.
	Page Position `json:"page"`

	// Ctrl reports whether the secondary modifier is held (pointer only).
	Ctrl bool `json:"ctrl"`

	// Touches is the number of simultaneous touch points (touch only).
	Touches int `json:"touches"`
}

// PointerAt builds a pointer event at the given client coordinate.
func PointerAt(x, y float64, ctrl bool) Event {
	p := Position{X: x, Y: y}
	return Event{Kind: KindPointer, Client: p, Page: p, Ctrl: ctrl}
}

// TouchAt builds a touch event at the given client coordinate.
func TouchAt(x, y float64, touches int) Event {
	p := Position{X: x, Y: y}
	return Event{Kind: KindTouch, Client: p, Page: p, Touches: touches}
}

// spurious reports the all-zero sample some platforms emit as the final drag move.
func (e Event) spurious() bool {
	return e.Client.IsZero() && e.Page.IsZero()
}

// panGesture reports whether the event carries the pan discriminator.
func (e Event) panGesture() bool {
	if e.Kind == KindTouch {
		return e.Touches == 2
	}
	return e.Ctrl
}
