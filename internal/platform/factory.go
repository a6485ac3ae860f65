package platform

import (
	"context"
	"log/slog"

	"github.com/aretw0/sticky/pkg/board"
	"github.com/aretw0/sticky/pkg/core"
)

// Open opens the store described by cfg and a board over it. Extra options
// are applied after the ones derived from cfg. The caller releases both with
// Board.Close and CloseStore.
//
//	b, store, err := platform.Open(ctx, cfg, logger)
func Open(ctx context.Context, cfg Config, logger *slog.Logger, opts ...Option) (*board.Board, core.Store, error) {
	storeOpts := append(cfg.Options(), WithLogger(logger))
	storeOpts = append(storeOpts, opts...)

	store, err := OpenStore(ctx, cfg.URI(), storeOpts...)
	if err != nil {
		return nil, nil, err
	}

	b := board.New(store, cfg.BoardOptions(ctx, logger)...)
	return b, store, nil
}

// BoardOptions translates the timing settings into board options.
func (c Config) BoardOptions(ctx context.Context, logger *slog.Logger) []board.Option {
	opts := []board.Option{
		board.WithLogger(logger),
		board.WithContext(ctx),
	}
	if c.PersistDelay > 0 {
		opts = append(opts, board.WithPersistDelay(c.PersistDelay))
	}
	if c.HistoryDelay > 0 {
		opts = append(opts, board.WithHistoryDelay(c.HistoryDelay))
	}
	return opts
}
