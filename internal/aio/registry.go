// Package aio is the annotation format registry: it maps file extensions
// to readers and writers of transcriptions.
package aio

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sppas/phoenix/internal/anndata"
	"github.com/sppas/phoenix/internal/apperrors"
	"github.com/sppas/phoenix/internal/logger"
)

// Format reads and writes one family of annotation files.
type Format interface {
	// Extensions are lower-case and start with a dot.
	Extensions() []string
	// Software is the human-readable name of the tool owning the format.
	Software() string
	Read(path string) (*anndata.Transcription, error)
	Write(trs *anndata.Transcription, path string) error
}

type Registry struct {
	byExt map[string]Format
}

// NewRegistry returns a registry with the built-in formats.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]Format)}
	r.Register(xraFormat{})
	r.Register(subtitleFormat{})
	return r
}

// Register adds f; a later format wins on shared extensions.
func (r *Registry) Register(f Format) {
	for _, ext := range f.Extensions() {
		r.byExt[strings.ToLower(ext)] = f
	}
}

// Extensions returns the sorted list of readable and writable extensions.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) lookup(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	f, ok := r.byExt[ext]
	if !ok {
		return nil, apperrors.New(apperrors.KindUnsupportedFile,
			fmt.Sprintf("No annotation format handles %q files.", ext), nil)
	}
	return f, nil
}

// Supports reports whether path has a registered extension.
func (r *Registry) Supports(path string) bool {
	_, err := r.lookup(path)
	return err == nil
}

// Software returns the name of the tool owning ext, or "".
func (r *Registry) Software(ext string) string {
	if f, ok := r.byExt[strings.ToLower(ext)]; ok {
		return f.Software()
	}
	return ""
}

// Read parses path into a transcription named after the file.
func (r *Registry) Read(path string) (*anndata.Transcription, error) {
	f, err := r.lookup(path)
	if err != nil {
		return nil, err
	}
	trs, err := f.Read(path)
	if err != nil {
		return nil, apperrors.New(apperrors.KindUnsupportedFile,
			fmt.Sprintf("Cannot read %s: %v", filepath.Base(path), err), err)
	}
	if trs.Name == "" {
		trs.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	logger.Debug("Transcription read", "path", path, "tiers", trs.Len())
	return trs, nil
}

// Write stores trs at path, in the format of its extension.
func (r *Registry) Write(trs *anndata.Transcription, path string) error {
	f, err := r.lookup(path)
	if err != nil {
		return err
	}
	if err := f.Write(trs, path); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	logger.Info("Transcription saved", "path", path)
	return nil
}
