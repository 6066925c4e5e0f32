package settings

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "none.json"))
	if err != nil {
		t.Fatal(err)
	}
	if *s != *Default() {
		t.Errorf("got %+v", s)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sppas", "phoenix.json")
	s := Default()
	s.Background = color.NRGBA{R: 1, G: 2, B: 3, A: 255}
	s.MonoFont = Font{Size: 14, Family: "courier"}
	s.WindowWidth, s.WindowHeight = 800, 600
	s.WatchdogDeadline = 5 * time.Second
	if err := Save(path, s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *got != *s {
		t.Errorf("round trip:\n got %+v\nwant %+v", got, s)
	}
}

func TestLoad_SkipsBadEntries(t *testing.T) {
	data := `{
		"bg_color": ["color", 10, 20, 30],
		"fg_color": ["font", 10, "sans"],
		"point_color": ["color", 300, 0, 0],
		"text_font": ["font", 16, "serif"],
		"mono_font": ["font", -1, "mono"],
		"window_size": ["size", 640],
		"watchdog_tick": ["size", 250],
		"splash": ["size", 3],
		"header_bg_color": 12,
		"selection_color": []
	}`
	path := filepath.Join(t.TempDir(), "s.json")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	d := Default()
	tests := []struct {
		name      string
		got, want any
	}{
		{"bg_color applied", s.Background, color.NRGBA{R: 10, G: 20, B: 30, A: 255}},
		{"wrong kind ignored", s.Foreground, d.Foreground},
		{"out of range ignored", s.Point, d.Point},
		{"text_font applied", s.TextFont, Font{Size: 16, Family: "serif"}},
		{"bad size ignored", s.MonoFont, d.MonoFont},
		{"short size ignored", s.WindowWidth, d.WindowWidth},
		{"tick applied", s.WatchdogTick, 250 * time.Millisecond},
		{"not a list ignored", s.Header, d.Header},
		{"empty list ignored", s.Selection, d.Selection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestLoad_InconsistentWatchdog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.json")
	os.WriteFile(path, []byte(`{"watchdog_tick": ["size", 5000], "watchdog_deadline": ["size", 100]}`), 0o644)
	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.WatchdogTick != 500*time.Millisecond || s.WatchdogDeadline != 3*time.Second {
		t.Errorf("watchdog = %v / %v", s.WatchdogTick, s.WatchdogDeadline)
	}
}

func TestLoad_NotAnObject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.json")
	os.WriteFile(path, []byte(`[1, 2]`), 0o644)
	s, err := Load(path)
	if err == nil {
		t.Fatal("want a parse error")
	}
	if s == nil || *s != *Default() {
		t.Errorf("defaults expected alongside the error")
	}
}
