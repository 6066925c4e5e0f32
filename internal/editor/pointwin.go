package editor

import "math"

// PointState is the interaction state of a PointWindow.
type PointState int

const (
	PointNormal PointState = iota
	PointFocused
	PointSelected
	PointMoving
	PointResizing
)

func (s PointState) String() string {
	switch s {
	case PointFocused:
		return "focused"
	case PointSelected:
		return "selected"
	case PointMoving:
		return "moving"
	case PointResizing:
		return "resizing"
	}
	return "normal"
}

// PointAction is what a PointWindow reports when the button is released.
type PointAction int

const (
	PointNoAction PointAction = iota
	PointClicked
	PointMoved
	PointResized
)

// minResizeWidth is the smallest width of a glyph being resized.
const minResizeWidth = 2

// PointWindow is the glyph of one boundary point, in lane pixels. It
// never touches the model: the owning TierLane turns the reported
// geometry into times.
type PointWindow struct {
	X, W float64
	// MinX and MaxX bound the midpoint pixel while moving.
	MinX, MaxX float64

	state    PointState
	x0, w0   float64
	downX    float64
	dragged  bool
	captured bool
}

// NewPointWindow returns a glyph bounded by [0, parentWidth].
func NewPointWindow(parentWidth float64) *PointWindow {
	return &PointWindow{W: 1, MaxX: parentWidth}
}

func (p *PointWindow) State() PointState { return p.state }

// Mid is the midpoint pixel.
func (p *PointWindow) Mid() float64 { return p.X + p.W/2 }

// Place moves the glyph without any event, e.g. on a new selection.
func (p *PointWindow) Place(x, w float64) {
	p.X, p.W = x, math.Max(1, w)
	p.x0, p.w0 = p.X, p.W
}

func (p *PointWindow) Contains(x float64) bool {
	return x >= p.X && x <= p.X+math.Max(p.W, 1)
}

// Focus and Blur follow the pointer entering and exiting the glyph.
func (p *PointWindow) Focus() {
	if p.state == PointNormal {
		p.state = PointFocused
	}
}

func (p *PointWindow) Blur() {
	if p.state == PointFocused {
		p.state = PointNormal
	}
}

// Down captures the pointer when x is inside the glyph.
func (p *PointWindow) Down(x float64) bool {
	if !p.Contains(x) {
		return false
	}
	p.captured = true
	p.dragged = false
	p.state = PointSelected
	p.x0, p.w0 = p.X, p.W
	p.downX = x
	return true
}

// Move drags the glyph. The first move decides between a move-drag and,
// with shift held, a resize-drag.
func (p *PointWindow) Move(x float64, shift bool) {
	if !p.captured {
		return
	}
	if !p.dragged {
		p.dragged = true
		if shift {
			p.state = PointResizing
		} else {
			p.state = PointMoving
		}
	}
	dx := x - p.downX
	switch p.state {
	case PointMoving:
		mid := p.x0 + p.w0/2 + dx
		mid = math.Max(p.MinX, math.Min(mid, p.MaxX))
		p.X = mid - p.W/2
	case PointResizing:
		w := math.Max(minResizeWidth, p.w0+2*dx)
		mid := p.x0 + p.w0/2
		p.X, p.W = mid-w/2, w
	}
}

// Leave rolls back an ongoing drag when the pointer leaves the lane above
// or below. Nothing is reported.
func (p *PointWindow) Leave() {
	if !p.captured {
		return
	}
	p.X, p.W = p.x0, p.w0
	p.captured = false
	p.dragged = false
	p.state = PointSelected
}

// Up releases the pointer and returns what happened.
func (p *PointWindow) Up() PointAction {
	if !p.captured {
		return PointNoAction
	}
	p.captured = false
	state := p.state
	p.state = PointSelected
	if !p.dragged {
		return PointClicked
	}
	p.dragged = false
	if state == PointResizing {
		return PointResized
	}
	return PointMoved
}

// RestorePosition puts the glyph back where the last drag started.
func (p *PointWindow) RestorePosition() { p.X = p.x0 + (p.w0-p.W)/2 }

// RestoreSize restores the width of the last drag start, keeping the midpoint.
func (p *PointWindow) RestoreSize() {
	mid := p.Mid()
	p.W = p.w0
	p.X = mid - p.W/2
}
