package editor

import (
	"github.com/sppas/phoenix/internal/anndata"
	"github.com/sppas/phoenix/internal/logger"
)

// commitPoint applies the release of the boundary glyph to the tier.
// Every annotation sharing the boundary is repointed at once; when the
// tier would break, nothing changes and the glyph goes back to where the
// drag started.
func (l *TierLane) commitPoint() Result {
	act := l.Point.Up()
	switch {
	case act == PointNoAction || l.boundary == nil:
		return Result{Kind: ResultNone, Index: l.selAnn}
	case act == PointClicked:
		return Result{Kind: ResultPointSelected, Index: l.selAnn, Indexes: l.sharing}
	}
	t := l.Tier()
	old := *l.boundary
	before := t.Snapshot()
	sel := t.At(l.selAnn)

	var (
		changed []int
		err     error
		moved   anndata.Point
	)
	if act == PointMoved {
		moved = anndata.NewPoint(l.tm.TOf(l.Point.Mid()-l.tm.X), old.Radius)
		changed, err = t.MoveBoundary(old, moved.Midpoint)
	} else {
		radius := 0.0
		if pps := l.tm.PxPerSec(); pps > 0 {
			radius = l.Point.W / 2 / pps
		}
		moved = anndata.NewPoint(old.Midpoint, radius)
		changed, err = t.SetBoundaryRadius(old, radius)
	}
	if err != nil {
		if act == PointMoved {
			l.Point.RestorePosition()
		} else {
			l.Point.RestoreSize()
		}
		logger.Warn("Boundary change rejected", "tier", t.Name, "boundary", old.String(), "error", err)
		return Result{Kind: ResultRejected, Index: l.selAnn, Err: err}
	}

	l.follow(sel, moved, changed)
	logger.Debug("Boundary changed", "tier", t.Name, "from", old.String(), "to", moved.String(), "annotations", len(changed))
	return Result{Kind: ResultUpdated, Index: l.selAnn, Indexes: changed, Before: &before}
}

// MoveBoundaryTo moves the selected boundary to t without a drag, as the
// keyboard shortcuts do. It follows the same all-or-nothing rule.
func (l *TierLane) MoveBoundaryTo(at float64) Result {
	if l.boundary == nil {
		return Result{Kind: ResultNone, Index: l.selAnn}
	}
	t := l.Tier()
	old := *l.boundary
	before := t.Snapshot()
	sel := t.At(l.selAnn)
	changed, err := t.MoveBoundary(old, at)
	if err != nil {
		return Result{Kind: ResultRejected, Index: l.selAnn, Err: err}
	}
	l.follow(sel, anndata.NewPoint(at, old.Radius), changed)
	return Result{Kind: ResultUpdated, Index: l.selAnn, Indexes: changed, Before: &before}
}

// follow keeps the selection on sel after a move that may have reordered
// the tier.
func (l *TierLane) follow(sel *anndata.Annotation, moved anndata.Point, changed []int) {
	for i, a := range l.Tier().Annotations() {
		if a == sel {
			l.selAnn = i
			break
		}
	}
	l.boundary = &moved
	l.sharing = changed
	l.placePoint()
}
