package editor

import (
	"fmt"
	"math"

	"github.com/sppas/phoenix/internal/anndata"
	"github.com/sppas/phoenix/internal/labels"
)

// ViewMode selects what a TierLane paints.
type ViewMode int

const (
	ViewTimeline ViewMode = iota
	ViewInfo
)

const (
	// minBandWidth is the smallest rubber band creating an annotation, in px.
	minBandWidth = 5
	// createRadius is the radius given to the endpoints of created intervals.
	createRadius = 0.005
)

// Glyph is the painted span of one endpoint. W is 0 when not painted.
type Glyph struct {
	X, W float64
}

func (g Glyph) Visible() bool { return g.W > 0 }

func (g Glyph) right() float64 { return g.X + g.W }

// AnnLayout is how one annotation is painted in the current window.
type AnnLayout struct {
	Index      int
	Begin, End Glyph
	// LabelX and LabelW bound the label rectangle; ShowLabel is false
	// when both endpoints collapsed to the same pixel.
	LabelX, LabelW float64
	ShowLabel      bool
	Text           string
	Selected       bool
}

// ResultKind is the outcome of a pointer gesture on a lane.
type ResultKind int

const (
	ResultNone ResultKind = iota
	// ResultAnnSelected: a click selected Index (Ambiguous if several matched).
	ResultAnnSelected
	// ResultBoundary: a click landed on an endpoint of the selected annotation.
	ResultBoundary
	// ResultBoundaryCleared: a click hit nothing.
	ResultBoundaryCleared
	// ResultPointSelected: the boundary glyph was pressed and released
	// without a drag; the boundary stays selected.
	ResultPointSelected
	// ResultUpdated: a boundary drag changed Indexes.
	ResultUpdated
	// ResultCreated: a rubber band created Index.
	ResultCreated
	// ResultRejected: the gesture would break the tier; Err says why.
	ResultRejected
)

// Result is returned by the pointer methods of a lane. Before holds the
// tier content preceding a successful change.
type Result struct {
	Kind      ResultKind
	Index     int
	Indexes   []int
	Ambiguous bool
	Err       error
	Before    *anndata.Snapshot
}

// TierLane renders one tier of a transcription and interprets pointer
// gestures on it. It holds the tier id, never the tier itself: the
// transcription stays the only owner.
type TierLane struct {
	Mode      ViewMode
	Selected  bool
	Ambiguous bool
	Point     *PointWindow

	trs      *anndata.Transcription
	tierID   string
	tm       TimeMap
	selAnn   int
	boundary *anndata.Point
	sharing  []int

	downX     float64
	pressed   bool
	banding   bool
	bandStart float64
	bandEnd   float64
}

func NewTierLane(trs *anndata.Transcription, tier *anndata.Tier) *TierLane {
	return &TierLane{
		trs:    trs,
		tierID: tier.ID(),
		selAnn: -1,
		Point:  NewPointWindow(0),
	}
}

// Tier resolves the lane's tier in its transcription, or nil once the
// tier was removed.
func (l *TierLane) Tier() *anndata.Tier {
	for _, t := range l.trs.Tiers() {
		if t.ID() == l.tierID {
			return t
		}
	}
	return nil
}

func (l *TierLane) Name() string {
	if t := l.Tier(); t != nil {
		return t.Name
	}
	return ""
}

func (l *TierLane) TimeMap() TimeMap { return l.tm }

// SetTimeMap installs a new geometry and re-places the boundary glyph.
func (l *TierLane) SetTimeMap(m TimeMap) {
	l.tm = m
	l.Point.MinX = m.X
	l.Point.MaxX = m.X + m.Width
	l.placePoint()
}

// EffectiveMode is ViewInfo whenever the window cannot be drawn.
func (l *TierLane) EffectiveMode() ViewMode {
	if !l.tm.Drawable() {
		return ViewInfo
	}
	return l.Mode
}

// InfoText is what the lane shows in info mode.
func (l *TierLane) InfoText() string {
	t := l.Tier()
	if t == nil {
		return ""
	}
	s := fmt.Sprintf("%s: %d annotations", t.Name, t.Len())
	if l.selAnn >= 0 {
		s += fmt.Sprintf(", selected %d", l.selAnn)
	}
	return s
}

func (l *TierLane) SelectedAnn() int { return l.selAnn }

// SetSelectedAnn selects annotation i (-1 for none) and forgets the boundary.
func (l *TierLane) SetSelectedAnn(i int) {
	if t := l.Tier(); t == nil || t.At(i) == nil {
		i = -1
	}
	l.selAnn = i
	l.Ambiguous = false
	l.clearBoundary()
}

// Boundary returns the selected endpoint and the annotations sharing it.
func (l *TierLane) Boundary() (*anndata.Point, []int) { return l.boundary, l.sharing }

func (l *TierLane) clearBoundary() {
	l.boundary = nil
	l.sharing = nil
}

func (l *TierLane) selectBoundary(p anndata.Point) {
	l.boundary = &p
	l.sharing = l.Tier().SharingBoundary(p)
	l.placePoint()
}

func (l *TierLane) placePoint() {
	if l.boundary == nil {
		return
	}
	x, w := l.tm.XW(*l.boundary)
	l.Point.Place(x, w)
}

// Layout computes the glyphs and label rectangles of the visible
// annotations. charWidth converts display cells to pixels for the
// truncation of labels.
func (l *TierLane) Layout(charWidth float64) []AnnLayout {
	t := l.Tier()
	if t == nil || l.EffectiveMode() != ViewTimeline {
		return nil
	}
	idx := l.tm.Visible(t)
	out := make([]AnnLayout, 0, len(idx))
	sel := -1
	for _, i := range idx {
		a := t.At(i)
		al := AnnLayout{Index: i, Selected: i == l.selAnn}
		al.Begin.X, al.Begin.W = l.tm.XW(a.Location.Begin)
		if a.Location.IsPoint {
			al.End = al.Begin
		} else {
			al.End.X, al.End.W = l.tm.XW(a.Location.End)
		}
		if al.Selected {
			sel = len(out)
		}
		out = append(out, al)
	}
	for k := range out {
		l.labelArea(t, out, k)
	}
	if sel >= 0 {
		pushNeighbours(out, sel)
	}
	for k := range out {
		al := &out[k]
		if !al.ShowLabel {
			continue
		}
		text := labels.Text(t.At(al.Index).Labels)
		if charWidth > 0 {
			text = TruncateMiddle(text, int(al.LabelW/charWidth))
		}
		al.Text = text
	}
	return out
}

// labelArea places the label between the endpoints of an interval, or
// between a point and the next point of the window.
func (l *TierLane) labelArea(t *anndata.Tier, out []AnnLayout, k int) {
	al := &out[k]
	left := al.Begin.right()
	if !al.Begin.Visible() {
		left = al.Begin.X
	}
	right := al.End.X
	if t.At(al.Index).Location.IsPoint {
		right = l.tm.X + l.tm.Width
		if k+1 < len(out) {
			right = out[k+1].Begin.X
		}
	}
	if al.Begin.X >= al.End.X && !t.At(al.Index).Location.IsPoint {
		return
	}
	if right > left {
		al.LabelX, al.LabelW, al.ShowLabel = left, right-left, true
	}
}

// pushNeighbours keeps the selected annotation on top: endpoints of other
// annotations under its glyphs are hidden and their labels are clipped so
// they never cover the highlight.
func pushNeighbours(out []AnnLayout, sel int) {
	s := out[sel]
	lo, hi := s.Begin.X, s.End.right()
	for k := range out {
		if k == sel {
			continue
		}
		al := &out[k]
		for _, g := range []*Glyph{&al.Begin, &al.End} {
			if g.Visible() && g.X < hi && g.right() > lo {
				g.W = 0
			}
		}
		if !al.ShowLabel {
			continue
		}
		left, right := al.LabelX, al.LabelX+al.LabelW
		switch {
		case k < sel && right > lo:
			right = lo
		case k > sel && left < hi:
			left = hi
		}
		if right <= left {
			al.ShowLabel = false
			al.LabelW = 0
			continue
		}
		al.LabelX, al.LabelW = left, right-left
	}
}

// Click interprets a press and release without drag at x.
func (l *TierLane) Click(x float64) Result {
	t := l.Tier()
	if t == nil || !l.tm.Drawable() {
		return Result{Kind: ResultNone, Index: -1}
	}
	at := l.tm.TOf(x - l.tm.X)
	d := l.tm.Tolerance()

	if a := t.At(l.selAnn); a != nil {
		var hit *anndata.Point
		best := math.Inf(1)
		for _, p := range []anndata.Point{a.Location.Begin, a.Location.End} {
			if dist := math.Abs(p.Midpoint - at); dist < d && dist < best {
				q := p
				hit, best = &q, dist
			}
		}
		if hit != nil {
			l.selectBoundary(*hit)
			return Result{Kind: ResultBoundary, Index: l.selAnn, Indexes: l.sharing}
		}
	}

	found := t.Find(at-d, at+d)
	switch len(found) {
	case 0:
		l.clearBoundary()
		return Result{Kind: ResultBoundaryCleared, Index: l.selAnn}
	case 1:
		l.SetSelectedAnn(found[0])
		return Result{Kind: ResultAnnSelected, Index: found[0]}
	}
	pick := -1
	for _, i := range found {
		if i == l.selAnn {
			pick = i
		}
	}
	if pick < 0 {
		best := math.Inf(1)
		for _, i := range found {
			if dist := math.Abs(t.At(i).Location.Center() - at); dist < best {
				pick, best = i, dist
			}
		}
	}
	l.SetSelectedAnn(pick)
	l.Ambiguous = true
	return Result{Kind: ResultAnnSelected, Index: pick, Ambiguous: true}
}

// Down starts a gesture: a drag of the boundary glyph when the press is on
// it, else a possible rubber band.
func (l *TierLane) Down(x float64) {
	l.pressed = true
	l.downX = x
	l.banding = false
	if l.boundary != nil {
		l.Point.Down(x)
	}
}

// Drag follows the pointer while the button is held.
func (l *TierLane) Drag(x float64, shift bool) {
	if !l.pressed {
		return
	}
	if l.Point.captured {
		l.Point.Move(x, shift)
		return
	}
	if !l.canBand() {
		return
	}
	if !l.banding && x != l.downX {
		l.banding = true
		l.bandStart = l.downX
	}
	if l.banding {
		l.bandEnd = math.Max(l.tm.X, math.Min(x, l.tm.X+l.tm.Width))
	}
}

func (l *TierLane) canBand() bool {
	t := l.Tier()
	return l.Selected && t != nil && !t.IsPoint() && l.tm.Drawable()
}

// Band returns the rubber band being drawn.
func (l *TierLane) Band() (x, w float64, ok bool) {
	if !l.banding {
		return 0, 0, false
	}
	lo, hi := math.Min(l.bandStart, l.bandEnd), math.Max(l.bandStart, l.bandEnd)
	return lo, hi - lo, true
}

// Leave cancels any gesture when the pointer leaves the lane above or below.
func (l *TierLane) Leave() {
	l.Point.Leave()
	l.pressed = false
	l.banding = false
}

// Up ends the gesture started by Down.
func (l *TierLane) Up(x float64) Result {
	if !l.pressed {
		return Result{Kind: ResultNone, Index: -1}
	}
	l.pressed = false
	if l.Point.captured {
		return l.commitPoint()
	}
	if l.banding {
		l.banding = false
		return l.createFromBand()
	}
	return l.Click(x)
}

func (l *TierLane) createFromBand() Result {
	lo, hi := math.Min(l.bandStart, l.bandEnd), math.Max(l.bandStart, l.bandEnd)
	if hi-lo < minBandWidth {
		return Result{Kind: ResultNone, Index: -1}
	}
	t := l.Tier()
	begin, end := l.tm.TOf(lo-l.tm.X), l.tm.TOf(hi-l.tm.X)
	before := t.Snapshot()
	i, err := t.Create(anndata.Interval(begin, end, createRadius))
	if err != nil {
		return Result{Kind: ResultRejected, Index: -1, Err: err}
	}
	l.SetSelectedAnn(i)
	return Result{Kind: ResultCreated, Index: i, Before: &before}
}

// AnnInserted and AnnRemoved keep the selected index in step with the tier.
func (l *TierLane) AnnInserted(i int) {
	if l.selAnn >= i {
		l.selAnn++
	}
}

func (l *TierLane) AnnRemoved(i int) {
	switch {
	case l.selAnn == i:
		l.SetSelectedAnn(-1)
	case l.selAnn > i:
		l.selAnn--
	}
}
