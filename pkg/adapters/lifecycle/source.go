// Package lifecycle exposes sheet change streams as lifecycle sources.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/sticky/pkg/core"
)

type sheetSource struct {
	events <-chan core.Event
	out    chan lifecycle.Event
}

// NewSource bridges a core.Event channel (a board's Changes or a store's
// Watch) to the generic lifecycle.Event interface.
func NewSource(events <-chan core.Event) lifecycle.Source {
	return &sheetSource{
		events: events,
		out:    make(chan lifecycle.Event),
	}
}

func (s *sheetSource) Events() <-chan lifecycle.Event {
	return s.out
}

// Start forwards events until ctx is done or the input closes, then closes
// the output.
func (s *sheetSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
