package editor

import (
	"math"
	"testing"

	"github.com/sppas/phoenix/internal/anndata"
	"github.com/sppas/phoenix/internal/apperrors"
)

// dragBoundary presses the glyph of the selected boundary and releases
// it at the pixel of t.
func dragBoundary(l *TierLane, to float64) Result {
	from := l.Point.Mid()
	l.Down(from)
	l.Drag(l.TimeMap().XOf(to), false)
	return l.Up(l.TimeMap().XOf(to))
}

func bounds(tier *anndata.Tier) [][2]float64 {
	out := make([][2]float64, tier.Len())
	for i, a := range tier.Annotations() {
		out[i] = [2]float64{a.Location.Begin.Midpoint, a.Location.End.Midpoint}
	}
	return out
}

func TestBoundaryMove_WithConflict(t *testing.T) {
	trs := anndata.NewTranscription("f")
	tier := buildTier(t, trs, "T1", span{1, 2, "a"}, span{2, 3, "b"}, span{5, 6, "c"})
	l := laneOn(trs, tier, 0, 10, 1000)
	l.Click(l.TimeMap().XOf(1.5))
	if r := l.Click(l.TimeMap().XOf(2)); r.Kind != ResultBoundary {
		t.Fatalf("boundary not selected: %+v", r)
	}
	other := tier.At(2).Copy()

	r := dragBoundary(l, 1.5)
	if r.Kind != ResultUpdated || len(r.Indexes) != 2 || r.Before == nil {
		t.Fatalf("first drag = %+v", r)
	}
	want := [][2]float64{{1, 1.5}, {1.5, 3}, {5, 6}}
	got := bounds(tier)
	for i := range want {
		if math.Abs(got[i][0]-want[i][0]) > 1e-9 || math.Abs(got[i][1]-want[i][1]) > 1e-9 {
			t.Fatalf("after move: %v, want %v", got, want)
		}
	}
	if tier.At(2).Location != other.Location || tier.At(2).ID() != other.ID() {
		t.Errorf("an annotation without the boundary changed")
	}
	if p, _ := l.Boundary(); p == nil || math.Abs(p.Midpoint-1.5) > 1e-9 {
		t.Errorf("selected boundary = %v", p)
	}

	before := tier.Snapshot()
	mid := l.Point.Mid()
	r = dragBoundary(l, 0.8)
	if r.Kind != ResultRejected || !apperrors.IsModelViolation(r.Err) {
		t.Fatalf("second drag = %+v", r)
	}
	restored := anndata.NewTier("x", anndata.TagString)
	restored.Restore(before)
	if !anndata.SameAnnotations(tier, restored) {
		t.Errorf("tier changed after a rejected move: %v", bounds(tier))
	}
	if l.Point.Mid() != mid {
		t.Errorf("glyph at %v, want back at %v", l.Point.Mid(), mid)
	}
}

func TestBoundaryResize(t *testing.T) {
	trs := anndata.NewTranscription("f")
	tier := buildTier(t, trs, "T1", span{1, 2, "a"}, span{2, 3, "b"})
	l := laneOn(trs, tier, 0, 10, 1000)
	l.Click(150)
	l.Click(200)
	from := l.Point.Mid()
	l.Down(from)
	l.Drag(from+5, true)
	r := l.Up(from + 5)
	if r.Kind != ResultUpdated {
		t.Fatalf("resize = %+v", r)
	}
	// Width 1 + 2*5 px at 100 px/s.
	for _, a := range tier.Annotations() {
		p := a.Location.End
		if a == tier.At(1) {
			p = a.Location.Begin
		}
		if math.Abs(p.Radius-0.055) > 1e-9 || p.Midpoint != 2 {
			t.Errorf("boundary = %s", p)
		}
	}
}

func TestMoveBoundaryTo(t *testing.T) {
	tests := []struct {
		name string
		to   float64
		want ResultKind
	}{
		{"inside neighbours", 2.4, ResultUpdated},
		{"past the next end", 3.5, ResultRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trs := anndata.NewTranscription("f")
			tier := buildTier(t, trs, "T1", span{1, 2, "a"}, span{2, 3, "b"})
			l := laneOn(trs, tier, 0, 10, 1000)
			l.Click(150)
			l.Click(200)
			before := bounds(tier)
			r := l.MoveBoundaryTo(tt.to)
			if r.Kind != tt.want {
				t.Fatalf("result = %+v", r)
			}
			if tt.want == ResultRejected && bounds(tier)[1] != before[1] {
				t.Errorf("tier changed: %v", bounds(tier))
			}
			if tt.want == ResultUpdated && tier.At(1).Location.Begin.Midpoint != tt.to {
				t.Errorf("begin = %v", tier.At(1).Location.Begin.Midpoint)
			}
		})
	}
}

func TestBoundaryGlyph_ClickKeepsBoundary(t *testing.T) {
	trs := anndata.NewTranscription("f")
	tier := buildTier(t, trs, "T1", span{1, 2, "a"}, span{2, 3, "b"})
	l := laneOn(trs, tier, 0, 10, 1000)
	l.Click(150)
	l.Click(200)
	x := l.Point.Mid()
	l.Down(x)
	r := l.Up(x)
	if r.Kind != ResultPointSelected || r.Index != 0 || len(r.Indexes) != 2 {
		t.Fatalf("glyph click = %+v", r)
	}
	if p, _ := l.Boundary(); p == nil || p.Midpoint != 2 {
		t.Errorf("boundary = %v", p)
	}
	if tier.At(0).Location.End.Midpoint != 2 || tier.At(1).Location.Begin.Midpoint != 2 {
		t.Errorf("tier changed by a click")
	}
}

func TestBoundaryDrag_LeaveCancels(t *testing.T) {
	trs := anndata.NewTranscription("f")
	tier := buildTier(t, trs, "T1", span{1, 2, "a"}, span{2, 3, "b"})
	l := laneOn(trs, tier, 0, 10, 1000)
	l.Click(150)
	l.Click(200)
	l.Down(l.Point.Mid())
	l.Drag(260, false)
	l.Leave()
	if r := l.Up(260); r.Kind != ResultNone {
		t.Errorf("up after leave = %+v", r)
	}
	if tier.At(0).Location.End.Midpoint != 2 {
		t.Errorf("tier changed after leave")
	}
}
