package core

import (
	"context"
	"fmt"
	"strings"
)

type contextKey string

// ChangeReasonKey carries a human-readable reason for a write. Versioned
// stores use it as the commit subject.
const ChangeReasonKey contextKey = "change_reason"

// ValidateID reports whether id can be used as a store key. Ids are used as
// file names and key suffixes, so path separators and leading dots are refused.
func ValidateID(id string) error {
	if id == "" {
		return ErrEmptyID
	}
	if strings.ContainsAny(id, `/\:*?"<>|`) || strings.HasPrefix(id, ".") || len(id) > 128 {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// Record is the unit a Store persists: one serialized sheet under its id.
type Record struct {
	ID   string
	Data []byte
}

// Store defines the contract for persisting sheets.
// The board depends only on this minimal key-value contract, not on any
// particular storage engine (filesystem, Redis, SQL).
type Store interface {
	// Get retrieves the record for key. ok is false when it is absent.
	Get(ctx context.Context, key string) (rec Record, ok bool, err error)

	// Put creates or replaces the record under rec.ID.
	Put(ctx context.Context, rec Record) error

	// Clear removes every record.
	Clear(ctx context.Context) error
}

// Lister is implemented by stores that can enumerate their keys.
type Lister interface {
	Keys(ctx context.Context) ([]string, error)
}

// Watchable is implemented by stores that can report external changes.
type Watchable interface {
	// Watch emits an event whenever a record whose key matches pattern
	// changes. The channel is closed when ctx is done.
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}
