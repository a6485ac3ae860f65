package core

import "fmt"

// SaveHistory records the current state as an undo point. Calls within one
// history delay of each other form a burst: the state before the first call is
// kept and pushed once the burst has been quiet for the full delay.
//
// Mutating methods call it themselves; it is exported for callers that
// change the sheet through Deserialize.
func (s *Sheet) SaveHistory() {
	s.mu.Lock()
	s.captureLocked()
	s.mu.Unlock()
	s.scheduleHistory()
}

// Undo restores the most recent history entry and notifies "notes". It
// reports false when there is nothing to undo. A burst that has not been
// pushed yet is discarded, so undo always steps back to a settled state.
func (s *Sheet) Undo() (bool, error) {
	s.history.Cancel()

	s.mu.Lock()
	s.pending = nil
	if len(s.snapshots) == 0 {
		s.mu.Unlock()
		return false, nil
	}
	last := len(s.snapshots) - 1
	snap := s.snapshots[last]

	doc, err := decodeSaveFile(snap)
	if err != nil {
		s.mu.Unlock()
		return false, fmt.Errorf("undo: %w", err)
	}
	s.snapshots = s.snapshots[:last]
	s.applyLocked(doc)
	s.mu.Unlock()

	s.notify(FieldNotes)
	return true, nil
}

// HistoryLen returns the number of pushed history entries.
func (s *Sheet) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapshots)
}

// DiscardHistory drops pushed and pending entries.
func (s *Sheet) DiscardHistory() {
	s.history.Cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = nil
	s.pending = nil
}

// captureLocked snapshots the current state if no burst is open yet.
func (s *Sheet) captureLocked() {
	if s.pending != nil {
		return
	}
	data, err := s.encodeLocked()
	if err != nil {
		return
	}
	s.pending = data
}

func (s *Sheet) scheduleHistory() {
	s.history.Exec(s.commitHistory)
}

func (s *Sheet) commitHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return
	}
	s.snapshots = append(s.snapshots, s.pending)
	s.pending = nil
}
