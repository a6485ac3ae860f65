package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/sticky/pkg/core"
)

// currentFile holds the remembered sheet id inside the system dir.
const currentFile = "current"

// Session remembers the active sheet of a workspace between CLI runs, the way
// a browser keeps the sheetId cookie.
type Session struct {
	Dir       string
	SystemDir string
}

func (s Session) path() string {
	sys := s.SystemDir
	if sys == "" {
		sys = DefaultSystemDir
	}
	return filepath.Join(s.Dir, sys, currentFile)
}

// Current returns the remembered id, or "" when none is.
func (s Session) Current() (string, error) {
	data, err := os.ReadFile(s.path())
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read current sheet: %w", err)
	}
	id := strings.TrimSpace(string(data))
	if core.ValidateID(id) != nil {
		return "", nil
	}
	return id, nil
}

// Remember stores id as the current sheet.
func (s Session) Remember(id string) error {
	if err := core.ValidateID(id); err != nil {
		return err
	}
	p := s.path()
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("remember sheet: %w", err)
	}
	if err := os.WriteFile(p, []byte(id+"\n"), 0644); err != nil {
		return fmt.Errorf("remember sheet: %w", err)
	}
	return nil
}

// Forget drops the remembered id.
func (s Session) Forget() error {
	if err := os.Remove(s.path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("forget sheet: %w", err)
	}
	return nil
}
