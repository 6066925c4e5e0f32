// Package workspace is the catalogue of files a user works on, with the
// state of each file in the editor.
package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/sppas/phoenix/internal/files"
)

// State of a catalogued file.
type State int

const (
	Unused State = iota
	// Checked files are chosen for the next action, e.g. opening.
	Checked
	// Locked files are opened in the editor and cannot be removed.
	Locked
	// Missing files are catalogued but no longer on disk.
	Missing
)

var stateNames = [...]string{"unused", "checked", "locked", "missing"}

func (s State) String() string {
	if int(s) < 0 || int(s) >= len(stateNames) {
		return "unused"
	}
	return stateNames[s]
}

func (s State) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

func (s *State) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for i, n := range stateNames {
		if strings.EqualFold(n, name) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown file state %q", name)
}

var (
	ErrUnknownFile = errors.New("file is not in the workspace")
	ErrLocked      = errors.New("file is locked")
	ErrNotLocked   = errors.New("file is not locked")
)

// File is one catalogued file.
type File struct {
	Path  string `json:"path"`
	State State  `json:"state"`
}

// Workspace is an ordered file catalogue.
type Workspace struct {
	Version int     `json:"version"`
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Files   []*File `json:"files"`
}

const CurrentVersion = 1

func New(name string) *Workspace {
	return &Workspace{Version: CurrentVersion, ID: uuid.NewString(), Name: name}
}

func (w *Workspace) find(path string) *File {
	clean := filepath.Clean(path)
	for _, f := range w.Files {
		if f.Path == clean {
			return f
		}
	}
	return nil
}

// Add catalogues path; adding a known file returns it unchanged.
func (w *Workspace) Add(path string) *File {
	if f := w.find(path); f != nil {
		return f
	}
	f := &File{Path: filepath.Clean(path)}
	w.Files = append(w.Files, f)
	return f
}

// Remove drops an unlocked file from the catalogue.
func (w *Workspace) Remove(path string) error {
	f := w.find(path)
	if f == nil {
		return fmt.Errorf("%w: %s", ErrUnknownFile, path)
	}
	if f.State == Locked {
		return fmt.Errorf("%w: %s", ErrLocked, path)
	}
	for i, g := range w.Files {
		if g == f {
			w.Files = append(w.Files[:i], w.Files[i+1:]...)
			break
		}
	}
	return nil
}

func (w *Workspace) State(path string) (State, error) {
	f := w.find(path)
	if f == nil {
		return Unused, fmt.Errorf("%w: %s", ErrUnknownFile, path)
	}
	return f.State, nil
}

// Check sets or clears the checked state. Locked files stay locked.
func (w *Workspace) Check(path string, checked bool) error {
	f := w.find(path)
	if f == nil {
		return fmt.Errorf("%w: %s", ErrUnknownFile, path)
	}
	if f.State == Locked {
		return fmt.Errorf("%w: %s", ErrLocked, path)
	}
	if checked {
		f.State = Checked
	} else {
		f.State = Unused
	}
	return nil
}

// Checked returns the checked paths in catalogue order.
func (w *Workspace) Checked() []string {
	var out []string
	for _, f := range w.Files {
		if f.State == Checked {
			out = append(out, f.Path)
		}
	}
	return out
}

// Lock marks a file opened in the editor, adding it when needed.
func (w *Workspace) Lock(path string) {
	w.Add(path).State = Locked
}

// Unlock releases a file closed in the editor; it goes back to checked.
func (w *Workspace) Unlock(path string) error {
	f := w.find(path)
	if f == nil {
		return fmt.Errorf("%w: %s", ErrUnknownFile, path)
	}
	if f.State != Locked {
		return fmt.Errorf("%w: %s", ErrNotLocked, path)
	}
	f.State = Checked
	return nil
}

// Refresh marks files gone from disk as missing.
func (w *Workspace) Refresh() {
	for _, f := range w.Files {
		if _, err := os.Stat(f.Path); err != nil && f.State != Locked {
			f.State = Missing
		} else if err == nil && f.State == Missing {
			f.State = Unused
		}
	}
}

// Validate checks a loaded workspace.
func (w *Workspace) Validate() error {
	if w.Version != CurrentVersion {
		return fmt.Errorf("unsupported workspace version: %d", w.Version)
	}
	seen := make(map[string]bool, len(w.Files))
	for _, f := range w.Files {
		if f == nil || f.Path == "" {
			return fmt.Errorf("workspace has an empty file entry")
		}
		if seen[f.Path] {
			return fmt.Errorf("duplicate file in workspace: %s", f.Path)
		}
		seen[f.Path] = true
	}
	return nil
}

// Save writes the workspace as JSON. Locks are not persisted: a saved
// workspace reopens with its locked files checked.
func Save(path string, w *Workspace) error {
	out := *w
	out.Files = make([]*File, len(w.Files))
	for i, f := range w.Files {
		c := *f
		if c.State == Locked {
			c.State = Checked
		}
		out.Files[i] = &c
	}
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return err
	}
	return files.AtomicWrite(path, data, 0o644)
}

func Load(path string) (*Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var w Workspace
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	if w.Version == 0 {
		w.Version = CurrentVersion
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &w, nil
}
