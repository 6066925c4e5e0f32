// Package settings holds the user's editor preferences and their JSON file.
//
// The file is a JSON object whose values are arrays led by a kind:
//
//	{"bg_color": ["color", 250, 250, 240], "text_font": ["font", 12, "sans"],
//	 "window_size": ["size", 1024, 768]}
//
// Unknown keys and malformed entries are skipped on read.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"github.com/sppas/phoenix/internal/files"
	"github.com/sppas/phoenix/internal/logger"
)

const (
	KindFont  = "font"
	KindColor = "color"
	KindSize  = "size"
)

// Font is a face request; the UI maps Family to what it can render.
type Font struct {
	Size   float32
	Family string
}

type Settings struct {
	Background   color.NRGBA
	Foreground   color.NRGBA
	Header       color.NRGBA
	Selection    color.NRGBA
	AltSelection color.NRGBA
	Point        color.NRGBA

	TextFont Font
	MonoFont Font

	WindowWidth  int
	WindowHeight int

	// Alpha steps of the fade timers, negative values fade out.
	FadeInDelta  int
	FadeOutDelta int

	WatchdogTick     time.Duration
	WatchdogDeadline time.Duration
}

func Default() *Settings {
	return &Settings{
		Background:       color.NRGBA{R: 250, G: 250, B: 240, A: 255},
		Foreground:       color.NRGBA{R: 20, G: 20, B: 20, A: 255},
		Header:           color.NRGBA{R: 220, G: 220, B: 210, A: 255},
		Selection:        color.NRGBA{R: 250, G: 170, B: 10, A: 255},
		AltSelection:     color.NRGBA{R: 90, G: 160, B: 240, A: 255},
		Point:            color.NRGBA{R: 20, G: 120, B: 200, A: 255},
		TextFont:         Font{Size: 12, Family: "sans"},
		MonoFont:         Font{Size: 12, Family: "mono"},
		WindowWidth:      1280,
		WindowHeight:     800,
		FadeInDelta:      10,
		FadeOutDelta:     -10,
		WatchdogTick:     500 * time.Millisecond,
		WatchdogDeadline: 3 * time.Second,
	}
}

// DefaultPath is the settings file in the user configuration directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sppas", "phoenix.json"), nil
}

type entry struct {
	kind   string
	fields func(*Settings) []any
	set    func(*Settings, []json.RawMessage) error
}

func colorEntry(field func(*Settings) *color.NRGBA) entry {
	return entry{
		kind: KindColor,
		fields: func(s *Settings) []any {
			c := field(s)
			return []any{c.R, c.G, c.B}
		},
		set: func(s *Settings, v []json.RawMessage) error {
			if len(v) < 3 || len(v) > 4 {
				return fmt.Errorf("want 3 or 4 components, got %d", len(v))
			}
			c := color.NRGBA{A: 255}
			dst := []*uint8{&c.R, &c.G, &c.B, &c.A}
			for i, raw := range v {
				var n int
				if err := json.Unmarshal(raw, &n); err != nil {
					return err
				}
				if n < 0 || n > 255 {
					return fmt.Errorf("component %d out of range", n)
				}
				*dst[i] = uint8(n)
			}
			*field(s) = c
			return nil
		},
	}
}

func fontEntry(field func(*Settings) *Font) entry {
	return entry{
		kind: KindFont,
		fields: func(s *Settings) []any {
			f := field(s)
			return []any{f.Size, f.Family}
		},
		set: func(s *Settings, v []json.RawMessage) error {
			if len(v) != 2 {
				return fmt.Errorf("want size and family, got %d values", len(v))
			}
			var f Font
			if err := json.Unmarshal(v[0], &f.Size); err != nil {
				return err
			}
			if err := json.Unmarshal(v[1], &f.Family); err != nil {
				return err
			}
			if f.Size <= 0 {
				return fmt.Errorf("font size %v", f.Size)
			}
			*field(s) = f
			return nil
		},
	}
}

func sizeEntry(fields ...func(*Settings) *int) entry {
	return entry{
		kind: KindSize,
		fields: func(s *Settings) []any {
			out := make([]any, len(fields))
			for i, f := range fields {
				out[i] = *f(s)
			}
			return out
		},
		set: func(s *Settings, v []json.RawMessage) error {
			if len(v) != len(fields) {
				return fmt.Errorf("want %d values, got %d", len(fields), len(v))
			}
			vals := make([]int, len(v))
			for i, raw := range v {
				if err := json.Unmarshal(raw, &vals[i]); err != nil {
					return err
				}
			}
			for i, f := range fields {
				*f(s) = vals[i]
			}
			return nil
		},
	}
}

func msEntry(field func(*Settings) *time.Duration) entry {
	return entry{
		kind:   KindSize,
		fields: func(s *Settings) []any { return []any{field(s).Milliseconds()} },
		set: func(s *Settings, v []json.RawMessage) error {
			if len(v) != 1 {
				return fmt.Errorf("want 1 value, got %d", len(v))
			}
			var ms int
			if err := json.Unmarshal(v[0], &ms); err != nil {
				return err
			}
			if ms <= 0 {
				return fmt.Errorf("duration %d ms", ms)
			}
			*field(s) = time.Duration(ms) * time.Millisecond
			return nil
		},
	}
}

var entries = map[string]entry{
	"bg_color":            colorEntry(func(s *Settings) *color.NRGBA { return &s.Background }),
	"fg_color":            colorEntry(func(s *Settings) *color.NRGBA { return &s.Foreground }),
	"header_bg_color":     colorEntry(func(s *Settings) *color.NRGBA { return &s.Header }),
	"selection_color":     colorEntry(func(s *Settings) *color.NRGBA { return &s.Selection }),
	"alt_selection_color": colorEntry(func(s *Settings) *color.NRGBA { return &s.AltSelection }),
	"point_color":         colorEntry(func(s *Settings) *color.NRGBA { return &s.Point }),
	"text_font":           fontEntry(func(s *Settings) *Font { return &s.TextFont }),
	"mono_font":           fontEntry(func(s *Settings) *Font { return &s.MonoFont }),
	"window_size": sizeEntry(
		func(s *Settings) *int { return &s.WindowWidth },
		func(s *Settings) *int { return &s.WindowHeight },
	),
	"fade_in_delta":     sizeEntry(func(s *Settings) *int { return &s.FadeInDelta }),
	"fade_out_delta":    sizeEntry(func(s *Settings) *int { return &s.FadeOutDelta }),
	"watchdog_tick":     msEntry(func(s *Settings) *time.Duration { return &s.WatchdogTick }),
	"watchdog_deadline": msEntry(func(s *Settings) *time.Duration { return &s.WatchdogDeadline }),
}

// Load reads the settings file over the defaults. A missing file gives
// the defaults without error.
func Load(path string) (*Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return s, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}
	for key, value := range raw {
		e, ok := entries[key]
		if !ok {
			logger.Debug("Ignoring unknown setting", "key", key)
			continue
		}
		var values []json.RawMessage
		if err := json.Unmarshal(value, &values); err != nil || len(values) == 0 {
			logger.Warn("Ignoring setting that is not a [kind, ...] list", "key", key)
			continue
		}
		var kind string
		if err := json.Unmarshal(values[0], &kind); err != nil || kind != e.kind {
			logger.Warn("Ignoring setting of the wrong kind", "key", key, "want", e.kind)
			continue
		}
		if err := e.set(s, values[1:]); err != nil {
			logger.Warn("Ignoring malformed setting", "key", key, "error", err)
		}
	}
	if s.WatchdogDeadline < s.WatchdogTick {
		logger.Warn("Watchdog deadline shorter than its tick, using defaults")
		d := Default()
		s.WatchdogTick, s.WatchdogDeadline = d.WatchdogTick, d.WatchdogDeadline
	}
	return s, nil
}

// Save writes every setting, creating the directory when needed.
func Save(path string, s *Settings) error {
	out := make(map[string][]any, len(entries))
	for k, e := range entries {
		out[k] = append([]any{e.kind}, e.fields(s)...)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	return files.AtomicWrite(path, data, 0o644)
}
