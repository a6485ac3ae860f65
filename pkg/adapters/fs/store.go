// Package fs stores sheets as JSON files in a directory, one file per sheet,
// with optional git versioning and an fsnotify-based watcher.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/sticky/pkg/core"
	"github.com/aretw0/sticky/pkg/git"
)

// Extension is appended to the sheet id to form its file name.
const Extension = ".json"

// Store implements core.Store on top of the filesystem and, optionally, git.
type Store struct {
	Path   string
	git    *git.Client
	config Config

	mu            sync.RWMutex
	watcherActive bool
	lastReconcile *time.Time
	lastWrite     *time.Time
}

// Config holds the configuration for the filesystem store.
type Config struct {
	Path      string
	AutoInit  bool
	MustExist bool
	// Versioned commits every write to a git repository rooted at Path.
	Versioned bool
	ReadOnly  bool
	SystemDir string // e.g. ".sticky"
	Logger    *slog.Logger
	// ErrorHandler receives background watcher failures. Optional.
	ErrorHandler func(error)
}

// NewStore creates a filesystem-backed store. Call Initialize before use.
func NewStore(config Config) *Store {
	if config.SystemDir == "" {
		config.SystemDir = ".sticky"
	}
	return &Store{
		Path:   config.Path,
		git:    git.NewClient(config.Path, config.SystemDir+".lock", config.Logger),
		config: config,
	}
}

// Initialize creates the directory and, when versioned, the git repository.
func (s *Store) Initialize(ctx context.Context) error {
	if s.config.MustExist {
		info, err := os.Stat(s.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("store path does not exist: %s", s.Path)
		}
		if err != nil {
			return fmt.Errorf("failed to stat store path: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("store path is not a directory: %s", s.Path)
		}
	} else if err := os.MkdirAll(s.Path, 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	if !s.config.Versioned {
		return nil
	}
	if !git.IsInstalled() {
		return fmt.Errorf("git is not installed")
	}

	wasNewRepo := false
	if !s.git.IsRepo() {
		if !s.config.AutoInit {
			return fmt.Errorf("path is not a git repository: %s", s.Path)
		}
		if err := s.git.Init(ctx); err != nil {
			return fmt.Errorf("failed to git init: %w", err)
		}
		wasNewRepo = true
	}

	mod, err := s.ensureIgnore()
	if err != nil {
		return fmt.Errorf("failed to ensure .gitignore: %w", err)
	}
	if mod && wasNewRepo {
		if err := s.git.Add(ctx, ".gitignore"); err != nil {
			return fmt.Errorf("failed to add .gitignore: %w", err)
		}
		msg := git.FormatCommitMessage(git.CommitTypeChore, "", "configure "+s.config.SystemDir+" ignore", "")
		if err := s.git.Commit(ctx, msg); err != nil {
			return fmt.Errorf("failed to commit .gitignore: %w", err)
		}
	}
	return nil
}

// ensureIgnore keeps the system dir, lock file and temp files out of git.
func (s *Store) ensureIgnore() (bool, error) {
	ignorePath := filepath.Join(s.Path, ".gitignore")
	wanted := []string{s.config.SystemDir + "/", s.config.SystemDir + ".lock", TempFilePrefix + "*"}

	content, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(content), "\n") {
		present[strings.TrimSpace(line)] = true
	}

	var missing []string
	for _, entry := range wanted {
		if !present[entry] {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return false, nil
	}

	f, err := os.OpenFile(ignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return false, err
		}
	}
	if _, err := f.WriteString(strings.Join(missing, "\n") + "\n"); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) filename(id string) string {
	return id + Extension
}

// Get reads <Path>/<id>.json.
func (s *Store) Get(ctx context.Context, id string) (core.Record, bool, error) {
	if err := core.ValidateID(id); err != nil {
		return core.Record{}, false, err
	}
	data, err := os.ReadFile(filepath.Join(s.Path, s.filename(id)))
	if errors.Is(err, fs.ErrNotExist) {
		return core.Record{}, false, nil
	}
	if err != nil {
		return core.Record{}, false, fmt.Errorf("failed to read sheet %s: %w", id, err)
	}
	return core.Record{ID: id, Data: data}, true, nil
}

// Put writes the record atomically and, when versioned, commits it.
//
// The commit subject is taken from core.ChangeReasonKey when present.
func (s *Store) Put(ctx context.Context, rec core.Record) error {
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}
	if err := core.ValidateID(rec.ID); err != nil {
		return err
	}

	filename := s.filename(rec.ID)
	if err := writeFileAtomic(filepath.Join(s.Path, filename), rec.Data, 0644); err != nil {
		return fmt.Errorf("failed to write sheet %s: %w", rec.ID, err)
	}
	s.recordWrite()

	if !s.config.Versioned {
		return nil
	}

	subject := "save " + rec.ID
	if val, ok := ctx.Value(core.ChangeReasonKey).(string); ok && val != "" {
		subject = val
	}
	return s.commit(ctx, git.FormatCommitMessage(git.CommitTypeFeat, "sheet", subject, ""), func() error {
		return s.git.Add(ctx, filename)
	})
}

// Clear removes every sheet file.
func (s *Store) Clear(ctx context.Context) error {
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}

	files, err := s.sheetFiles()
	if err != nil {
		return err
	}
	for _, name := range files {
		if err := os.Remove(filepath.Join(s.Path, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", name, err)
		}
	}

	if !s.config.Versioned || len(files) == 0 {
		return nil
	}
	return s.commit(ctx, git.FormatCommitMessage(git.CommitTypeChore, "sheet", "clear store", ""), func() error {
		return s.git.Rm(ctx, files...)
	})
}

// Keys lists sheet ids in lexical order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	files, err := s.sheetFiles()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(files))
	for _, name := range files {
		keys = append(keys, strings.TrimSuffix(name, Extension))
	}
	slices.Sort(keys)
	return keys, nil
}

// sheetFiles returns the top-level sheet file names.
func (s *Store) sheetFiles() ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(s.Path), "*"+Extension)
	if err != nil {
		return nil, fmt.Errorf("failed to list sheets: %w", err)
	}
	out := matches[:0]
	for _, m := range matches {
		if !strings.HasPrefix(m, TempFilePrefix) && core.ValidateID(strings.TrimSuffix(m, Extension)) == nil {
			out = append(out, m)
		}
	}
	return out, nil
}

// commit stages with stage and commits msg under the git lock. A write that
// leaves the index unchanged makes no commit.
func (s *Store) commit(ctx context.Context, msg string, stage func() error) error {
	unlock, err := s.git.Lock(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire git lock: %w", err)
	}
	defer unlock()

	if err := stage(); err != nil {
		return fmt.Errorf("failed to stage: %w", err)
	}
	changed, err := s.git.HasStagedChanges(ctx)
	if err != nil {
		return fmt.Errorf("failed to inspect index: %w", err)
	}
	if !changed {
		return nil
	}
	if err := s.git.Commit(ctx, msg); err != nil {
		return fmt.Errorf("failed to git commit: %w", err)
	}
	return nil
}

func (s *Store) recordWrite() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.lastWrite = &now
}

var (
	_ core.Store     = (*Store)(nil)
	_ core.Lister    = (*Store)(nil)
	_ core.Watchable = (*Store)(nil)
)
