package editor

import (
	"errors"

	"github.com/sppas/phoenix/internal/anndata"
	"github.com/sppas/phoenix/internal/labels"
)

// ErrLossyView is returned when a view switch would drop information.
var ErrLossyView = errors.New("the selected view cannot show these labels exactly")

// Text states returned by LabelEditor.TextModified.
const (
	TextUnchanged = 0
	TextChanged   = 1
	TextInvalid   = -1
)

// LabelEditor holds the text of the labels of one annotation in one of
// the label views. It never writes to the model; the TiersBook does.
type LabelEditor struct {
	mode labels.Mode
	text string
	ann  *anndata.Annotation
	typ  anndata.TagType
}

func NewLabelEditor() *LabelEditor { return &LabelEditor{mode: labels.Review} }

func (e *LabelEditor) Mode() labels.Mode { return e.mode }

func (e *LabelEditor) Text() string { return e.text }

// SetText replaces the buffer, as typing does.
func (e *LabelEditor) SetText(s string) { e.text = s }

func (e *LabelEditor) Annotation() *anndata.Annotation { return e.ann }

// SetAnn loads a's labels, typed like its tier, in the current view. A
// nil annotation clears the editor.
func (e *LabelEditor) SetAnn(a *anndata.Annotation, typ anndata.TagType) {
	e.ann, e.typ = a, typ
	e.Reload()
}

// Reload discards the buffer and renders the model again.
func (e *LabelEditor) Reload() {
	if e.ann == nil {
		e.text = ""
		return
	}
	e.text = labels.Render(e.ann.Labels, e.mode)
}

// TextLabels parses the buffer under the current view.
func (e *LabelEditor) TextLabels() ([]anndata.Label, error) {
	return labels.Parse(e.text, e.mode, e.typ)
}

// TextModified compares the buffer with the model: TextUnchanged,
// TextChanged when it parses to different labels, TextInvalid when it
// does not parse. A buffer still holding the rendering of the model is
// unchanged even when the view cannot show every detail of it.
func (e *LabelEditor) TextModified() int {
	if e.ann == nil || e.text == labels.Render(e.ann.Labels, e.mode) {
		return TextUnchanged
	}
	got, err := e.TextLabels()
	if err != nil {
		return TextInvalid
	}
	if anndata.LabelsEqual(got, e.ann.Labels) {
		return TextUnchanged
	}
	return TextChanged
}

// SwitchView re-renders the buffer in mode m. The buffer is parsed under
// the old view first so that unsaved edits survive; when it does not
// parse, the switch is refused and buffer and view are left as they were.
// A switch to a view that would lose scores or empty labels is refused
// unless force is set.
func (e *LabelEditor) SwitchView(m labels.Mode, force bool) error {
	if m == e.mode {
		return nil
	}
	if e.ann == nil {
		e.mode = m
		return nil
	}
	current, err := e.TextLabels()
	if err != nil {
		return err
	}
	if !force && !labels.Lossless(current, m) {
		return ErrLossyView
	}
	e.mode = m
	e.text = labels.Render(current, m)
	return nil
}

// Highlight returns the syntax colouring of the buffer.
func (e *LabelEditor) Highlight() []labels.Span { return labels.Highlight(e.text, e.mode) }
