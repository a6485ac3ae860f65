package core

import (
	"github.com/aretw0/introspection"
)

// SheetState exposes internal state for observability.
type SheetState struct {
	ID             string `json:"id"`
	Notes          int    `json:"notes"`
	Selected       string `json:"selected,omitempty"`
	LastChange     string `json:"last_change"`
	HistoryEntries int    `json:"history_entries"`
	BurstOpen      bool   `json:"burst_open"`
}

// State implements introspection.Introspectable.
func (s *Sheet) State() any {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := SheetState{
		ID:             s.id,
		Notes:          len(s.notes),
		LastChange:     s.lastChange.Format(TimestampFormat),
		HistoryEntries: len(s.snapshots),
		BurstOpen:      s.pending != nil,
	}
	if n := len(s.notes); n > 0 {
		state.Selected = s.notes[n-1].ID
	}
	return state
}

// ComponentType implements introspection.Component.
func (s *Sheet) ComponentType() string {
	return "sheet"
}

var _ introspection.Introspectable = (*Sheet)(nil)
var _ introspection.Component = (*Sheet)(nil)
