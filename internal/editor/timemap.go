// Package editor is the display-independent core of the annotation editor:
// geometry, lanes, selection, label editing, boundary commits and search.
// The fyne widgets in internal/ui only translate pointer events and paint
// what this package computes.
package editor

import (
	"math"

	"github.com/sppas/phoenix/internal/anndata"
)

// MinDuration is the shortest window that can be drawn.
const MinDuration = 0.020

// minTolerance is the smallest click tolerance, in seconds.
const minTolerance = 0.005

// TimeMap converts between seconds and pixels for one visible window and
// content width. It is rebuilt on every resize.
type TimeMap struct {
	Start, End float64
	// X is the left edge of the content area and Width its size, in px.
	X, Width float64

	pps float64
}

func NewTimeMap(start, end, x, width float64) TimeMap {
	m := TimeMap{Start: start, End: end, X: x, Width: width}
	if d := end - start; d >= MinDuration && width > 0 {
		m.pps = width / d
	}
	return m
}

// PxPerSec is zero when the window is too short to draw.
func (m TimeMap) PxPerSec() float64 { return m.pps }

func (m TimeMap) Drawable() bool { return m.pps > 0 }

// XOf returns the x coordinate of t, clamped to the content area.
func (m TimeMap) XOf(t float64) float64 {
	x := m.X + (t-m.Start)*m.pps
	return math.Max(m.X, math.Min(x, m.X+m.Width))
}

// TOf returns the time at dx pixels from the content's left edge.
func (m TimeMap) TOf(dx float64) float64 {
	if m.pps == 0 {
		return m.Start
	}
	return m.Start + dx/m.pps
}

// WidthOf is the painted width of p: at least 1 px, 0 when p is outside
// the window.
func (m TimeMap) WidthOf(p anndata.Point) float64 {
	if m.pps == 0 || !p.InWindow(m.Start, m.End) {
		return 0
	}
	return math.Max(1, 2*p.Radius*m.pps)
}

// XW returns the left edge and width of the glyph of p. The glyph is
// centred on the midpoint and clipped to the content area.
func (m TimeMap) XW(p anndata.Point) (x, w float64) {
	w = m.WidthOf(p)
	if w == 0 {
		return m.XOf(p.Midpoint), 0
	}
	left := m.X + (p.Midpoint-m.Start)*m.pps - w/2
	right := left + w
	left = math.Max(left, m.X)
	right = math.Min(right, m.X+m.Width)
	if right-left < 1 {
		right = left + 1
	}
	return left, right - left
}

// Tolerance is the half-width, in seconds, of the window used to
// interpret a click. It covers four pixels when zoomed out and two when
// zoomed in, never less than 5 ms.
func (m TimeMap) Tolerance() float64 {
	if m.pps == 0 {
		return minTolerance
	}
	k := 4.0
	if m.pps >= 100 {
		k = 2
	}
	return math.Max(k/m.pps, minTolerance)
}

// Visible returns the indexes of the annotations of t drawn in the window.
func (m TimeMap) Visible(t *anndata.Tier) []int {
	if t == nil || !m.Drawable() {
		return nil
	}
	return t.Find(m.Start, m.End)
}
