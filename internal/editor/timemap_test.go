package editor

import (
	"math"
	"testing"

	"github.com/sppas/phoenix/internal/anndata"
)

func TestTimeMap(t *testing.T) {
	m := NewTimeMap(10, 20, 50, 1000)
	if m.PxPerSec() != 100 {
		t.Fatalf("px/s = %v", m.PxPerSec())
	}
	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"x of start", m.XOf(10), 50},
		{"x of middle", m.XOf(15), 550},
		{"x clamped left", m.XOf(0), 50},
		{"x clamped right", m.XOf(99), 1050},
		{"t of dx", m.TOf(250), 12.5},
		{"width of radius", m.WidthOf(anndata.NewPoint(12, 0.05)), 10},
		{"width of bare point", m.WidthOf(anndata.NewPoint(12, 0)), 1},
		{"width outside", m.WidthOf(anndata.NewPoint(30, 0.05)), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if math.Abs(tt.got-tt.want) > 1e-9 {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestTimeMap_TooShortToDraw(t *testing.T) {
	m := NewTimeMap(1, 1.01, 0, 500)
	if m.Drawable() || m.PxPerSec() != 0 {
		t.Errorf("a 10 ms window must not be drawn")
	}
	if m.TOf(100) != 1 {
		t.Errorf("TOf on an undrawable map = %v", m.TOf(100))
	}
	if NewTimeMap(0, 0.02, 0, 500).PxPerSec() == 0 {
		t.Errorf("a 20 ms window is drawable")
	}
}

func TestTimeMap_Tolerance(t *testing.T) {
	tests := []struct {
		name       string
		start, end float64
		want       float64
	}{
		{"zoomed out", 0, 100, 4.0 / 10},
		{"zoomed in", 0, 1, 2.0 / 1000},
		{"floor", 0, 0.1, minTolerance},
		{"undrawable", 0, 0.001, minTolerance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewTimeMap(tt.start, tt.end, 0, 1000).Tolerance()
			if tt.want < minTolerance {
				tt.want = minTolerance
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Tolerance() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimeMap_XWClipsToContent(t *testing.T) {
	m := NewTimeMap(0, 10, 0, 1000)
	x, w := m.XW(anndata.NewPoint(0, 0.1))
	if x != 0 || w != 10 {
		t.Errorf("XW at the left edge = %v, %v", x, w)
	}
	x, w = m.XW(anndata.NewPoint(5, 0.1))
	if x != 490 || w != 20 {
		t.Errorf("XW in the middle = %v, %v", x, w)
	}
}
