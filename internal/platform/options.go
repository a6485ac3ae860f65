package platform

import (
	"log/slog"

	"github.com/aretw0/sticky/pkg/core"
)

// DefaultSystemDir is the hidden directory holding local state such as the
// remembered sheet id.
const DefaultSystemDir = ".sticky"

// options holds the internal configuration for OpenStore.
type options struct {
	store        core.Store
	logger       *slog.Logger
	adapter      string
	versioned    *bool
	autoInit     bool
	mustExist    bool
	forceTemp    bool
	readOnly     bool
	devSafety    bool
	systemDir    string
	errorHandler func(error)
}

// Option defines a functional option for OpenStore.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		adapter:   "fs",
		autoInit:  true,
		devSafety: true,
		systemDir: DefaultSystemDir,
	}
}

// WithAdapter selects the storage adapter by name: "fs" (default), "memory",
// "redis" or "postgres".
func WithAdapter(name string) Option {
	return func(o *options) {
		if name != "" {
			o.adapter = name
		}
	}
}

// WithStore injects a ready store. The adapter settings are then ignored.
func WithStore(store core.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithLogger sets the logger handed to the adapter.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithVersioning turns git commits per write on or off for the fs adapter.
// When unset, an existing .git directory decides.
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		o.versioned = &enabled
	}
}

// WithAutoInit creates the directory (and git repository, when versioned)
// if missing. Enabled by default.
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.autoInit = auto
	}
}

// WithMustExist fails when the fs directory does not exist.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithForceTemp re-roots the fs directory under the temp dir.
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithReadOnly rejects every write with core.ErrReadOnly.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.readOnly = enabled
	}
}

// WithDevSafety controls the sandbox used under `go run` and `go test`: when
// enabled (the default) the fs directory is moved into the temp dir.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}

// WithSystemDir overrides DefaultSystemDir.
func WithSystemDir(name string) Option {
	return func(o *options) {
		if name != "" {
			o.systemDir = name
		}
	}
}

// WithWatcherErrorHandler receives background watcher failures of the fs
// adapter.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}
