package platform

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aretw0/sticky/pkg/adapters/fs"
	"github.com/aretw0/sticky/pkg/adapters/memory"
	"github.com/aretw0/sticky/pkg/adapters/postgres"
	"github.com/aretw0/sticky/pkg/adapters/redis"
	"github.com/aretw0/sticky/pkg/core"
)

// OpenStore builds and initializes the store selected by the adapter option.
// The uri is adapter-specific: a directory for fs, a connection URL for redis
// and postgres, ignored for memory.
func OpenStore(ctx context.Context, uri string, opts ...Option) (core.Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	if o.store != nil {
		return o.store, nil
	}

	var store core.Store
	switch o.adapter {
	case "fs":
		s, err := initFS(ctx, uri, o)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		store = memory.NewStore()
	case "redis":
		if uri == "" {
			return nil, fmt.Errorf("redis adapter: %s is not set", EnvRedisURL)
		}
		s, err := redis.NewStore(uri)
		if err != nil {
			return nil, err
		}
		store = s
	case "postgres":
		if uri == "" {
			return nil, fmt.Errorf("postgres adapter: %s is not set", EnvDatabaseURL)
		}
		s, err := postgres.Open(ctx, uri)
		if err != nil {
			return nil, err
		}
		store = s
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}

	if o.readOnly {
		store = readOnly{store}
	}
	return store, nil
}

// initFS resolves the directory, detects versioning and initializes the fs
// store.
func initFS(ctx context.Context, path string, o *options) (*fs.Store, error) {
	bypassSafety := o.readOnly || !o.devSafety
	useTemp := o.forceTemp || (IsDevRun() && !bypassSafety)
	resolved := ResolvePath(path, useTemp)

	if o.logger != nil && useTemp && resolved != filepath.Clean(path) {
		o.logger.Warn("running in SAFE MODE (dev sandbox)", "original_path", path, "resolved_path", resolved)
	}

	versioned := false
	if o.versioned != nil {
		versioned = *o.versioned
	} else if _, err := os.Stat(filepath.Join(resolved, ".git")); err == nil {
		versioned = true
		if o.logger != nil {
			o.logger.Debug("auto-detected versioned mode", "reason", ".git present")
		}
	}

	store := fs.NewStore(fs.Config{
		Path:         resolved,
		AutoInit:     o.autoInit,
		MustExist:    o.mustExist || (!o.autoInit && !useTemp),
		Versioned:    versioned,
		ReadOnly:     o.readOnly,
		SystemDir:    o.systemDir,
		Logger:       o.logger,
		ErrorHandler: o.errorHandler,
	})
	if o.readOnly {
		return store, nil
	}
	if err := store.Initialize(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// CloseStore releases connections held by network-backed stores.
func CloseStore(store core.Store) error {
	if ro, ok := store.(readOnly); ok {
		store = ro.Store
	}
	if c, ok := store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// readOnly rejects writes on adapters that have no read-only mode of their own.
type readOnly struct {
	core.Store
}

func (readOnly) Put(context.Context, core.Record) error { return core.ErrReadOnly }

func (readOnly) Clear(context.Context) error { return core.ErrReadOnly }

// Keys lists the wrapped store's sheets when it can.
func (r readOnly) Keys(ctx context.Context) ([]string, error) {
	if l, ok := r.Store.(core.Lister); ok {
		return l.Keys(ctx)
	}
	return nil, fmt.Errorf("store does not list sheets")
}
