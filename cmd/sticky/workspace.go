package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/sticky/internal/platform"
	"github.com/aretw0/sticky/pkg/adapters/fs"
	"github.com/aretw0/sticky/pkg/board"
	"github.com/aretw0/sticky/pkg/core"
)

// workspace is what every command works against: the resolved config, the
// store, a board over it and the remembered-sheet session.
type workspace struct {
	cfg     platform.Config
	store   core.Store
	board   *board.Board
	session platform.Session
}

func loadConfig() (platform.Config, error) {
	cfg, err := platform.LoadConfig(configFile)
	if err != nil {
		return cfg, err
	}
	if adapter != "" {
		cfg.Adapter = adapter
	}
	if storePath != "" {
		cfg.Path = storePath
	} else if cfg.Path == "." {
		if root, err := platform.FindRoot("."); err == nil {
			cfg.Path = root
		}
	}
	return cfg, nil
}

func openWorkspace(ctx context.Context) (*workspace, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	b, store, err := platform.Open(ctx, cfg, slog.Default())
	if err != nil {
		return nil, err
	}

	dir := cfg.Path
	if s, ok := store.(*fs.Store); ok {
		dir = s.Path
	}
	return &workspace{
		cfg:     cfg,
		store:   store,
		board:   b,
		session: platform.Session{Dir: dir, SystemDir: cfg.SystemDir},
	}, nil
}

// openSheet opens the --sheet flag, else the remembered sheet, else a fresh
// one, and remembers it when the routing rule says so.
func (w *workspace) openSheet(ctx context.Context) error {
	current, err := w.session.Current()
	if err != nil {
		return err
	}
	route := board.ResolveSheet(sheetID, current)
	if err := w.board.Open(ctx, route.ID); err != nil {
		return err
	}
	if route.Remember {
		if err := w.session.Remember(route.ID); err != nil {
			slog.Warn("could not remember sheet", "sheet", route.ID, "error", err)
		}
	}
	if route.Fresh {
		slog.Info("started a new sheet", "sheet", route.ID)
	}
	return nil
}

// save writes the sheet now, with reason as the commit subject on versioned
// stores.
func (w *workspace) save(ctx context.Context, reason string) error {
	ctx = context.WithValue(ctx, core.ChangeReasonKey, reason)
	if err := w.board.Flush(ctx); err != nil {
		return fmt.Errorf("save sheet: %w", err)
	}
	return nil
}

func (w *workspace) close() {
	w.board.Close()
	if err := platform.CloseStore(w.store); err != nil {
		slog.Warn("close store failed", "error", err)
	}
}

// withSheet opens the workspace and the active sheet, runs fn and saves
// with the reason fn returns. An empty reason skips the save.
func withSheet(ctx context.Context, fn func(w *workspace) (string, error)) {
	w, err := openWorkspace(ctx)
	if err != nil {
		fatal("Failed to open store", err)
	}
	defer w.close()

	if err := w.openSheet(ctx); err != nil {
		w.close()
		fatal("Failed to open sheet", err)
	}

	reason, err := fn(w)
	if err != nil {
		w.close()
		fatal("Error", err)
	}
	if reason == "" {
		return
	}
	if err := w.save(ctx, reason); err != nil {
		w.close()
		fatal("Failed to save", err)
	}
}
