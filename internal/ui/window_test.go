package ui

import (
	"math"
	"testing"

	"github.com/sppas/phoenix/internal/editor"
)

func TestZoomWindow(t *testing.T) {
	tests := []struct {
		name               string
		start, end, total  float64
		factor             float64
		wantStart, wantEnd float64
		wantOK             bool
	}{
		{"zoom in around the centre", 10, 20, 100, 0.5, 12.5, 17.5, true},
		{"zoom out", 10, 20, 100, 2, 5, 25, true},
		{"zoom out past the start", 0, 10, 100, 4, 0, 40, true},
		{"zoom out past the end", 90, 100, 100, 4, 60, 100, true},
		{"never longer than the media", 10, 20, 30, 10, 0, 30, true},
		{"never shorter than drawable", 1, 1.01, 10, 0.1, 1.005 - editor.MinDuration/2, 1.005 + editor.MinDuration/2, true},
		{"nothing loaded", 0, 0, 0, 2, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, e, ok := zoomWindow(tt.start, tt.end, tt.total, tt.factor)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v", ok)
			}
			if math.Abs(s-tt.wantStart) > 1e-9 || math.Abs(e-tt.wantEnd) > 1e-9 {
				t.Errorf("window = [%v, %v], want [%v, %v]", s, e, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestScrollWindow(t *testing.T) {
	tests := []struct {
		name               string
		start, end         float64
		frac               float64
		wantStart, wantEnd float64
	}{
		{"forward half a window", 10, 20, 0.5, 15, 25},
		{"back half a window", 10, 20, -0.5, 5, 15},
		{"stops at the start", 2, 12, -0.5, 0, 10},
		{"stops at the end", 85, 95, 1, 90, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, e, ok := scrollWindow(tt.start, tt.end, 100, tt.frac)
			if !ok || s != tt.wantStart || e != tt.wantEnd {
				t.Errorf("window = [%v, %v] %v, want [%v, %v]", s, e, ok, tt.wantStart, tt.wantEnd)
			}
		})
	}
	if _, _, ok := scrollWindow(5, 5, 100, 1); ok {
		t.Error("empty window scrolled")
	}
}

func TestFormatClock(t *testing.T) {
	tests := map[float64]string{
		0:        "00:00:00.000",
		1.5:      "00:00:01.500",
		61.0004:  "00:01:01.000",
		3723.25:  "01:02:03.250",
		-3:       "00:00:00.000",
		59.99951: "00:01:00.000",
	}
	for in, want := range tests {
		if got := formatClock(in); got != want {
			t.Errorf("formatClock(%v) = %q, want %q", in, got, want)
		}
	}
}
