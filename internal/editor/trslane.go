package editor

import (
	"errors"
	"fmt"

	"github.com/sppas/phoenix/internal/anndata"
)

// ErrNoTier is returned for a tier name that is not in the file.
var ErrNoTier = errors.New("no such tier")

func tierMissing(tier string) error { return fmt.Errorf("%w: %q", ErrNoTier, tier) }

// TrsLane is the stack of tier lanes of one transcription file. At most
// one of its tier lanes is selected.
type TrsLane struct {
	// OnTierSelected is called once each time the selected tier changes.
	OnTierSelected func(tier string)

	name   string
	trs    *anndata.Transcription
	lanes  []*TierLane
	hidden map[string]bool
	dirty  bool

	x, width   float64
	start, end float64
}

func NewTrsLane(name string, trs *anndata.Transcription) *TrsLane {
	l := &TrsLane{name: name, trs: trs, hidden: make(map[string]bool)}
	l.Sync()
	return l
}

func (l *TrsLane) Name() string   { return l.name }
func (l *TrsLane) Kind() FileKind { return FileTranscription }
func (l *TrsLane) Dirty() bool    { return l.dirty }
func (l *TrsLane) Err() error     { return nil }

func (l *TrsLane) MarkDirty() { l.dirty = true }
func (l *TrsLane) MarkSaved() { l.dirty = false }

func (l *TrsLane) Transcription() *anndata.Transcription { return l.trs }

// Duration is the largest endpoint of the transcription.
func (l *TrsLane) Duration() float64 { return l.trs.Duration() }

// Sync rebuilds the tier lanes after tiers were added or removed, keeping
// the state of the lanes whose tier survived.
func (l *TrsLane) Sync() {
	old := make(map[string]*TierLane, len(l.lanes))
	for _, tl := range l.lanes {
		old[tl.tierID] = tl
	}
	lanes := make([]*TierLane, 0, l.trs.Len())
	for _, t := range l.trs.Tiers() {
		tl, ok := old[t.ID()]
		if !ok {
			tl = NewTierLane(l.trs, t)
		}
		tl.SetTimeMap(NewTimeMap(l.start, l.end, l.x, l.width))
		lanes = append(lanes, tl)
	}
	l.lanes = lanes
}

// SetGeometry sets the content area shared by all tier lanes.
func (l *TrsLane) SetGeometry(x, width float64) {
	l.x, l.width = x, width
	l.rebuild()
}

func (l *TrsLane) SetVisibleRange(start, end float64) {
	l.start, l.end = start, end
	l.rebuild()
}

func (l *TrsLane) VisibleRange() (float64, float64) { return l.start, l.end }

func (l *TrsLane) rebuild() {
	m := NewTimeMap(l.start, l.end, l.x, l.width)
	for _, tl := range l.lanes {
		tl.SetTimeMap(m)
	}
}

// Lanes returns every tier lane, hidden ones included.
func (l *TrsLane) Lanes() []*TierLane { return l.lanes }

// VisibleLanes returns the lanes of the tiers checked in the filter.
func (l *TrsLane) VisibleLanes() []*TierLane {
	out := make([]*TierLane, 0, len(l.lanes))
	for _, tl := range l.lanes {
		if !l.hidden[tl.tierID] {
			out = append(out, tl)
		}
	}
	return out
}

// Lane returns the lane of the named tier, or nil.
func (l *TrsLane) Lane(tier string) *TierLane {
	t := l.trs.Find(tier)
	if t == nil {
		return nil
	}
	for _, tl := range l.lanes {
		if tl.tierID == t.ID() {
			return tl
		}
	}
	return nil
}

// SelectedTier returns the selected lane or nil.
func (l *TrsLane) SelectedTier() *TierLane {
	for _, tl := range l.lanes {
		if tl.Selected {
			return tl
		}
	}
	return nil
}

// SetSelectedTier selects the named tier and deselects the others; an
// empty name deselects all. It reports whether the selection changed.
func (l *TrsLane) SetSelectedTier(tier string) bool {
	target := l.Lane(tier)
	if target != nil && target.Selected {
		return false
	}
	changed := false
	for _, tl := range l.lanes {
		if tl.Selected && tl != target {
			tl.Selected = false
			tl.SetSelectedAnn(-1)
			changed = true
		}
	}
	if target != nil {
		target.Selected = true
		changed = true
	}
	if changed && l.OnTierSelected != nil {
		l.OnTierSelected(tier)
	}
	return changed
}

// SetSelectedAnnotation selects annotation i of tier, selecting the tier too.
func (l *TrsLane) SetSelectedAnnotation(tier string, i int) {
	tl := l.Lane(tier)
	if tl == nil {
		return
	}
	l.SetSelectedTier(tier)
	tl.SetSelectedAnn(i)
}

// UpdateAnn refreshes the lane after annotation i of tier changed.
func (l *TrsLane) UpdateAnn(tier string, i int) {
	if tl := l.Lane(tier); tl != nil {
		tl.placePoint()
		l.dirty = true
	}
}

// CreateAnn adds an annotation to tier and returns its index.
func (l *TrsLane) CreateAnn(tier string, loc anndata.Location, labs ...anndata.Label) (int, error) {
	tl := l.Lane(tier)
	if tl == nil {
		return -1, tierMissing(tier)
	}
	i, err := tl.Tier().Create(loc, labs...)
	if err != nil {
		return -1, err
	}
	tl.AnnInserted(i)
	l.dirty = true
	return i, nil
}

// DeleteAnn removes annotation i of tier.
func (l *TrsLane) DeleteAnn(tier string, i int) (*anndata.Annotation, error) {
	tl := l.Lane(tier)
	if tl == nil {
		return nil, tierMissing(tier)
	}
	a, err := tl.Tier().Remove(i)
	if err != nil {
		return nil, err
	}
	tl.AnnRemoved(i)
	l.dirty = true
	return a, nil
}

// Down, Drag, Up and Leave route pointer gestures to the lane of tier.
// A release on another tier's lane first moves the selection there.
func (l *TrsLane) Down(tier string, x float64) {
	if tl := l.Lane(tier); tl != nil {
		tl.Down(x)
	}
}

func (l *TrsLane) Drag(tier string, x float64, shift bool) {
	if tl := l.Lane(tier); tl != nil {
		tl.Drag(x, shift)
	}
}

func (l *TrsLane) Up(tier string, x float64) Result {
	tl := l.Lane(tier)
	if tl == nil {
		return Result{Kind: ResultNone, Index: -1}
	}
	l.SetSelectedTier(tier)
	r := tl.Up(x)
	if r.Kind == ResultUpdated || r.Kind == ResultCreated {
		l.dirty = true
	}
	return r
}

func (l *TrsLane) Leave(tier string) {
	if tl := l.Lane(tier); tl != nil {
		tl.Leave()
	}
}

// FilterItem is one entry of the tier filter pop-up.
type FilterItem struct {
	Tier    string
	Checked bool
	Enabled bool
}

// FilterItems lists the tiers for the filter. When only is non-nil,
// tiers of another tag type are disabled.
func (l *TrsLane) FilterItems(only *anndata.TagType) []FilterItem {
	out := make([]FilterItem, 0, len(l.lanes))
	for _, tl := range l.lanes {
		t := tl.Tier()
		out = append(out, FilterItem{
			Tier:    t.Name,
			Checked: !l.hidden[tl.tierID],
			Enabled: only == nil || t.TagType == *only,
		})
	}
	return out
}

// SetTierVisible hides or shows a tier. Hidden tiers stay in the model.
// Hiding the selected tier deselects it.
func (l *TrsLane) SetTierVisible(tier string, visible bool) {
	tl := l.Lane(tier)
	if tl == nil {
		return
	}
	if visible {
		delete(l.hidden, tl.tierID)
		return
	}
	l.hidden[tl.tierID] = true
	if tl.Selected {
		l.SetSelectedTier("")
	}
}

func (l *TrsLane) TierVisible(tier string) bool {
	tl := l.Lane(tier)
	return tl != nil && !l.hidden[tl.tierID]
}
