// Package sticky is the composition root of the sticky-notes board.
//
// It wires the document model (pkg/core), the drag state machine
// (pkg/gesture) and a storage adapter into a Board (pkg/board) using the
// hexagonal layout: the core knows nothing about where sheets are kept.
//
// Features:
//
//   - **Sheets of notes**: ordered notes where the last one is on top and selected.
//   - **Gestures**: per-note drag controllers plus a canvas pan controller gated by a modifier.
//   - **Undo**: bursts of edits collapse into one history entry after a quiet period.
//   - **Debounced persistence**: one write per quiet period, failures logged and dropped.
//   - **Adapters**: memory, fs (JSON files with optional git commits and fsnotify watch), redis and postgres.
//
// Usage:
//
//	store, err := sticky.OpenStore(ctx, "./board", sticky.WithVersioning(false))
//	b := sticky.New(store)
//	defer b.Close()
//
//	if err := b.Open(ctx, "my-sheet"); err != nil {
//		return err
//	}
//	note, err := b.AddNote(nil)
package sticky
