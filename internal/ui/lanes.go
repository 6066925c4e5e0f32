package ui

import (
	"image/color"
	"math"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/sppas/phoenix/internal/apperrors"
	"github.com/sppas/phoenix/internal/editor"
	"github.com/sppas/phoenix/internal/media"
)

const (
	laneHeight    = 28
	nameColWidth  = 140
	fadeFrame     = 20 * time.Millisecond
	restingAlpha  = 110
	mediaHeight   = 72
	videoFrameMax = 160
)

// panel is the widget of one opened file.
type panel interface {
	object() fyne.CanvasObject
	// refresh repaints; rebuild also recreates the rows.
	refresh()
	rebuild()
}

func shiftHeld() bool {
	if d, ok := fyne.CurrentApp().Driver().(desktop.Driver); ok {
		return d.CurrentKeyModifiers()&fyne.KeyModifierShift != 0
	}
	return false
}

// tierWidget paints one TierLane and feeds it the pointer.
type tierWidget struct {
	widget.BaseWidget
	a     *App
	file  string
	lane  *editor.TierLane
	alpha uint8
	anim  *fyne.Animation
}

func newTierWidget(a *App, file string, lane *editor.TierLane) *tierWidget {
	w := &tierWidget{a: a, file: file, lane: lane, alpha: restingAlpha}
	w.ExtendBaseWidget(w)
	return w
}

func (w *tierWidget) tier() string { return w.lane.Name() }

func (w *tierWidget) MinSize() fyne.Size { return fyne.NewSize(200, laneHeight) }

func (w *tierWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	w.a.guard("lane.down", func() {
		w.a.tl.Down(w.file, w.tier(), float64(e.Position.X))
		w.Refresh()
	})
}

func (w *tierWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	w.a.guard("lane.up", func() {
		r := w.a.tl.Up(w.file, w.tier(), float64(e.Position.X))
		w.a.afterGesture(r)
	})
}

func (w *tierWidget) Dragged(e *fyne.DragEvent) {
	w.a.guard("lane.drag", func() {
		if e.Position.Y < 0 || e.Position.Y > w.Size().Height {
			w.a.tl.Leave(w.file, w.tier())
		} else {
			w.a.tl.Drag(w.file, w.tier(), float64(e.Position.X), shiftHeld())
		}
		w.Refresh()
	})
}

func (w *tierWidget) DragEnd() {}

func (w *tierWidget) MouseIn(*desktop.MouseEvent) {}

func (w *tierWidget) MouseMoved(e *desktop.MouseEvent) {
	p := w.lane.Point
	over := w.lane.SelectedAnn() >= 0 && p.Contains(float64(e.Position.X))
	switch {
	case over && p.State() == editor.PointNormal:
		p.Focus()
		w.fade(w.a.settings.FadeInDelta)
	case !over && p.State() == editor.PointFocused:
		p.Blur()
		w.fade(w.a.settings.FadeOutDelta)
	}
}

func (w *tierWidget) MouseOut() {
	if w.lane.Point.State() == editor.PointFocused {
		w.lane.Point.Blur()
		w.fade(w.a.settings.FadeOutDelta)
	}
}

func (w *tierWidget) Cursor() desktop.Cursor {
	if w.lane.Point.State() != editor.PointNormal {
		return desktop.HResizeCursor
	}
	return desktop.DefaultCursor
}

// fade steps the alpha of the boundary glyph by delta per frame, up to
// opaque or down to the resting alpha.
func (w *tierWidget) fade(delta int) {
	if delta == 0 {
		return
	}
	if w.anim != nil {
		w.anim.Stop()
	}
	target := 255
	if delta < 0 {
		target = restingAlpha
	}
	from := int(w.alpha)
	steps := int(math.Abs(float64(target-from))) / int(math.Abs(float64(delta)))
	if steps == 0 {
		return
	}
	w.anim = fyne.NewAnimation(time.Duration(steps)*fadeFrame, func(f float32) {
		w.alpha = uint8(float32(from) + f*float32(target-from))
		w.Refresh()
	})
	w.anim.Start()
}

func (w *tierWidget) CreateRenderer() fyne.WidgetRenderer {
	return &tierRenderer{w: w}
}

type tierRenderer struct {
	w       *tierWidget
	objects []fyne.CanvasObject
}

func (r *tierRenderer) Layout(s fyne.Size) {
	r.w.a.setContentWidth(s.Width)
	r.build(s)
}

func (r *tierRenderer) MinSize() fyne.Size { return r.w.MinSize() }

func (r *tierRenderer) Refresh() {
	r.build(r.w.Size())
	canvas.Refresh(r.w)
}

func (r *tierRenderer) Objects() []fyne.CanvasObject { return r.objects }

func (r *tierRenderer) Destroy() {}

func rect(c color.Color, x, y, w, h float32) *canvas.Rectangle {
	o := canvas.NewRectangle(c)
	o.Move(fyne.NewPos(x, y))
	o.Resize(fyne.NewSize(w, h))
	return o
}

func withAlpha(c color.NRGBA, a uint8) color.NRGBA {
	c.A = a
	return c
}

func (r *tierRenderer) build(size fyne.Size) {
	w := r.w
	s := w.a.settings
	lane := w.lane
	fg := theme.Color(theme.ColorNameForeground)
	h := size.Height

	bg := color.Color(color.Transparent)
	if lane.Selected {
		bg = s.Header
	}
	objs := []fyne.CanvasObject{rect(bg, 0, 0, size.Width, h)}

	if lane.EffectiveMode() == editor.ViewInfo {
		txt := canvas.NewText(lane.InfoText(), fg)
		txt.Move(fyne.NewPos(theme.Padding(), (h-txt.MinSize().Height)/2))
		r.objects = append(objs, txt)
		return
	}

	textSize := theme.TextSize()
	charWidth := float64(fyne.MeasureText("m", textSize, fyne.TextStyle{}).Width)
	for _, al := range lane.Layout(charWidth) {
		if al.ShowLabel {
			fill := color.Color(color.Transparent)
			if al.Selected {
				fill = withAlpha(s.Selection, 90)
				if lane.Ambiguous {
					fill = withAlpha(s.AltSelection, 90)
				}
			}
			objs = append(objs, rect(fill, float32(al.LabelX), 1, float32(al.LabelW), h-2))
			txt := canvas.NewText(al.Text, fg)
			txt.TextSize = textSize
			txt.Move(fyne.NewPos(float32(al.LabelX)+2, (h-txt.MinSize().Height)/2))
			objs = append(objs, txt)
		}
		for _, g := range []editor.Glyph{al.Begin, al.End} {
			if g.Visible() {
				objs = append(objs, rect(withAlpha(s.Point, restingAlpha), float32(g.X), 0, float32(g.W), h))
			}
		}
	}
	if p, _ := lane.Boundary(); p != nil {
		pw := lane.Point
		objs = append(objs, rect(withAlpha(s.Point, w.alpha), float32(pw.X), 0, float32(pw.W), h))
	}
	if x, bw, ok := lane.Band(); ok {
		band := rect(withAlpha(s.Selection, 60), float32(x), 0, float32(bw), h)
		band.StrokeColor = s.Selection
		band.StrokeWidth = 1
		objs = append(objs, band)
	}
	r.objects = objs
}

// trsPanel shows one transcription: a header and one row per visible tier.
type trsPanel struct {
	a     *App
	lane  *editor.TrsLane
	title *widget.Label
	rows  *fyne.Container
	box   *fyne.Container
	tiers []*tierWidget
}

func newTrsPanel(a *App, lane *editor.TrsLane) *trsPanel {
	p := &trsPanel{a: a, lane: lane, title: widget.NewLabel(""), rows: container.NewVBox()}
	p.title.TextStyle = fyne.TextStyle{Bold: true}
	filter := widget.NewButtonWithIcon("", theme.VisibilityIcon(), p.showFilter)
	filter.Importance = widget.LowImportance
	header := container.NewBorder(nil, nil, nil, filter, p.title)
	p.box = container.NewVBox(header, p.rows)
	p.rebuild()
	return p
}

func (p *trsPanel) object() fyne.CanvasObject { return p.box }

func (p *trsPanel) rebuild() {
	p.rows.RemoveAll()
	p.tiers = p.tiers[:0]
	for _, tl := range p.lane.VisibleLanes() {
		tw := newTierWidget(p.a, p.lane.Name(), tl)
		name := widget.NewLabel(tl.Name())
		name.Truncation = fyne.TextTruncateEllipsis
		col := container.New(layout.NewGridWrapLayout(fyne.NewSize(nameColWidth, laneHeight)), name)
		p.rows.Add(container.NewBorder(nil, nil, col, nil, tw))
		p.tiers = append(p.tiers, tw)
	}
	p.refresh()
}

func (p *trsPanel) refresh() {
	title := filepath.Base(p.lane.Name())
	if p.lane.Dirty() {
		title += " *"
	}
	p.title.SetText(title)
	for _, tw := range p.tiers {
		tw.Refresh()
	}
}

// showFilter lists the tiers with a check box each; unchecked tiers are
// hidden but kept in the file.
func (p *trsPanel) showFilter() {
	var checks []fyne.CanvasObject
	for _, it := range p.lane.FilterItems(nil) {
		tier := it.Tier
		c := widget.NewCheck(tier, func(on bool) {
			p.lane.SetTierVisible(tier, on)
			p.rebuild()
		})
		c.SetChecked(it.Checked)
		if !it.Enabled {
			c.Disable()
		}
		checks = append(checks, c)
	}
	d := dialog.NewCustom("Tiers of "+filepath.Base(p.lane.Name()), "Close",
		container.NewVScroll(container.NewVBox(checks...)), p.a.window)
	d.Resize(fyne.NewSize(320, 360))
	d.Show()
}

// mediaPanel shows the waveform of an audio file or the current frame of
// a video, or the load error once the media failed.
type mediaPanel struct {
	a      *App
	lane   *editor.MediaLane
	title  *widget.Label
	status *widget.Label
	wave   *canvas.Raster
	frame  *canvas.Image
	box    *fyne.Container

	peaks   []media.Peak
	peakKey [3]float64
}

func newMediaPanel(a *App, lane *editor.MediaLane) *mediaPanel {
	p := &mediaPanel{a: a, lane: lane, title: widget.NewLabel(filepath.Base(lane.Name())), status: widget.NewLabel("")}
	p.title.TextStyle = fyne.TextStyle{Bold: true}
	p.wave = canvas.NewRasterWithPixels(p.pixel)
	p.wave.SetMinSize(fyne.NewSize(200, mediaHeight))
	p.frame = canvas.NewImageFromImage(nil)
	p.frame.FillMode = canvas.ImageFillContain
	p.frame.SetMinSize(fyne.NewSize(videoFrameMax, videoFrameMax*9/16))
	body := container.NewStack(p.wave, container.NewHBox(p.frame))
	p.box = container.NewVBox(container.NewHBox(p.title, p.status), body)
	p.refresh()
	return p
}

func (p *mediaPanel) object() fyne.CanvasObject { return p.box }

func (p *mediaPanel) rebuild() { p.refresh() }

func (p *mediaPanel) refresh() {
	switch p.lane.State() {
	case editor.MediaLoading:
		p.status.SetText("loading...")
		p.wave.Hide()
		p.frame.Hide()
		return
	case editor.MediaFailed:
		p.status.Importance = widget.DangerImportance
		p.status.SetText(apperrors.PublicMessage(p.lane.Err()))
		p.wave.Hide()
		p.frame.Hide()
		return
	}
	p.status.SetText("")
	if p.lane.Kind() == editor.FileVideo {
		p.wave.Hide()
		if img, err := p.a.tl.Player.Frame(p.lane.Name(), p.a.tl.Player.CurrentTime()); err == nil {
			p.frame.Image = img
			p.frame.Show()
			p.frame.Refresh()
		}
		return
	}
	p.frame.Hide()
	p.wave.Show()
	p.wave.Refresh()
}

func (p *mediaPanel) peaksFor(columns int) []media.Peak {
	start, end := p.lane.VisibleRange()
	key := [3]float64{start, end, float64(columns)}
	if key == p.peakKey && p.peaks != nil {
		return p.peaks
	}
	peaks, err := p.a.tl.Player.Waveform(p.lane.Name(), start, end, columns)
	if err != nil {
		peaks = nil
	}
	p.peaks, p.peakKey = peaks, key
	return peaks
}

// pixel paints the waveform: a column is filled between its min and max.
func (p *mediaPanel) pixel(x, y, w, h int) color.Color {
	peaks := p.peaksFor(w)
	if x >= len(peaks) || h == 0 {
		return color.Transparent
	}
	v := 1 - 2*float64(y)/float64(h)
	if pk := peaks[x]; v >= pk.Min && v <= pk.Max {
		return p.a.settings.Foreground
	}
	if y == h/2 {
		return withAlpha(p.a.settings.Foreground, 60)
	}
	return color.Transparent
}

// errorPanel stands for a file that could not be opened.
type errorPanel struct {
	box *fyne.Container
}

func newErrorPanel(l editor.Lane) *errorPanel {
	title := widget.NewLabel(filepath.Base(l.Name()))
	title.TextStyle = fyne.TextStyle{Bold: true}
	msg := widget.NewLabel(apperrors.PublicMessage(l.Err()))
	msg.Importance = widget.DangerImportance
	msg.Wrapping = fyne.TextWrapWord
	return &errorPanel{box: container.NewVBox(title, msg)}
}

func (p *errorPanel) object() fyne.CanvasObject { return p.box }
func (p *errorPanel) refresh()                  {}
func (p *errorPanel) rebuild()                  {}
