package sticky

import (
	"context"
	"log/slog"

	"github.com/aretw0/sticky/internal/platform"
	"github.com/aretw0/sticky/pkg/board"
	"github.com/aretw0/sticky/pkg/core"
)

// --- Types ---

// Board is the live sticky-notes board.
type Board = board.Board

// Note is one card on a sheet.
type Note = core.Note

// NoteData is the partial input AddNote backfills.
type NoteData = core.NoteData

// Config is the process-level configuration.
type Config = platform.Config

// --- Configuration ---

// Option configures store selection.
type Option = platform.Option

// WithAdapter selects the storage adapter by name: fs, memory, redis or postgres.
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithStore injects a ready store.
func WithStore(store core.Store) Option {
	return platform.WithStore(store)
}

// WithLogger sets the logger handed to the adapter.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithVersioning enables or disables git commits per write (fs only).
func WithVersioning(enabled bool) Option {
	return platform.WithVersioning(enabled)
}

// WithAutoInit creates the directory and git repository when missing.
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithMustExist fails when the fs directory is missing.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithForceTemp forces the fs directory into the temp dir.
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithReadOnly rejects every write.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithSystemDir overrides the hidden ".sticky" directory name.
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// --- Factory ---

// OpenStore builds and initializes a store. The uri is a directory for fs
// and a connection URL for redis and postgres.
func OpenStore(ctx context.Context, uri string, opts ...Option) (core.Store, error) {
	return platform.OpenStore(ctx, uri, opts...)
}

// New creates a board over store. Call Open on it to pick a sheet.
func New(store core.Store, opts ...board.Option) *Board {
	return board.New(store, opts...)
}

// Open loads the configuration at configFile (empty for the defaults) and
// returns a board over the configured store.
func Open(ctx context.Context, configFile string, logger *slog.Logger) (*Board, core.Store, error) {
	cfg, err := platform.LoadConfig(configFile)
	if err != nil {
		return nil, nil, err
	}
	return platform.Open(ctx, cfg, logger)
}

// CloseStore releases connections held by network-backed stores.
func CloseStore(store core.Store) error {
	return platform.CloseStore(store)
}

// --- Safety & Utils ---

// IsDevRun reports whether the process runs under `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindRoot looks upwards for a directory holding .sticky or sticky.yaml.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
