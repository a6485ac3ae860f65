package board

import (
	"github.com/aretw0/introspection"

	"github.com/aretw0/sticky/pkg/gesture"
)

// BoardState exposes internal state for observability.
type BoardState struct {
	Sheet          any              `json:"sheet"`
	Store          string           `json:"store"`
	Viewport       gesture.Position `json:"viewport"`
	Controllers    int              `json:"controllers"`
	ActiveGestures int              `json:"active_gestures"`
	PersistPending bool             `json:"persist_pending"`
	Writes         int              `json:"writes"`
	LastError      string           `json:"last_error,omitempty"`
}

// State implements introspection.Introspectable.
func (b *Board) State() any {
	active := len(b.activeItems())
	if b.pan.Active() {
		active++
	}

	storeType := "store"
	if comp, ok := b.store.(introspection.Component); ok {
		storeType = comp.ComponentType()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	state := BoardState{
		Sheet:          b.sheet.State(),
		Store:          storeType,
		Viewport:       b.pan.Position(),
		Controllers:    len(b.items),
		ActiveGestures: active,
		PersistPending: b.persist.Pending(),
		Writes:         b.written,
	}
	if b.lastError != nil {
		state.LastError = b.lastError.Error()
	}
	return state
}

// ComponentType implements introspection.Component.
func (b *Board) ComponentType() string {
	return "board"
}

var _ introspection.Introspectable = (*Board)(nil)
var _ introspection.Component = (*Board)(nil)
