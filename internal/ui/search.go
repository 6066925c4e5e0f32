package ui

import (
	"errors"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/sppas/phoenix/internal/anndata"
	"github.com/sppas/phoenix/internal/apperrors"
	"github.com/sppas/phoenix/internal/editor"
)

var tagTypes = []anndata.TagType{anndata.TagString, anndata.TagInt, anndata.TagFloat, anndata.TagBool}

// searchWindow finds annotations by label in the checked tiers. It stays
// open while the user moves from match to match.
type searchWindow struct {
	a      *App
	win    fyne.Window
	typ    *widget.Select
	op     *widget.Select
	ignore *widget.Check
	negate *widget.Check
	entry  *widget.Entry
	tiers  *widget.CheckGroup
	status *widget.Label

	refs []editor.TierRef
}

func (a *App) showSearch() {
	if a.search != nil {
		a.search.refreshTiers()
		a.search.win.RequestFocus()
		return
	}
	s := &searchWindow{a: a, status: widget.NewLabel("")}
	s.win = fyne.CurrentApp().NewWindow("Search")
	s.win.SetOnClosed(func() { a.search = nil })

	var typeNames []string
	for _, t := range tagTypes {
		typeNames = append(typeNames, t.String())
	}
	s.entry = widget.NewEntry()
	s.entry.SetPlaceHolder("Pattern")
	s.entry.OnSubmitted = func(string) { s.find(editor.Forward) }
	s.ignore = widget.NewCheck("Ignore case", nil)
	s.negate = widget.NewCheck("Not matching", nil)
	s.op = widget.NewSelect(nil, nil)
	s.typ = widget.NewSelect(typeNames, func(string) {
		s.fillOps()
		s.refreshTiers()
	})
	s.tiers = widget.NewCheckGroup(nil, nil)

	prev := widget.NewButton("Previous", func() { s.find(editor.Backward) })
	next := widget.NewButton("Next", func() { s.find(editor.Forward) })
	next.Importance = widget.HighImportance

	form := widget.NewForm(
		widget.NewFormItem("Type", s.typ),
		widget.NewFormItem("Match", s.op),
		widget.NewFormItem("Pattern", s.entry),
		widget.NewFormItem("", container.NewHBox(s.ignore, s.negate)),
	)
	content := container.NewBorder(form,
		container.NewVBox(s.status, container.NewGridWithColumns(2, prev, next)),
		nil, nil,
		container.NewVScroll(s.tiers))
	s.win.SetContent(container.NewPadded(content))

	c := s.win.Canvas()
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyG, Modifier: fyne.KeyModifierShortcutDefault},
		func(fyne.Shortcut) { s.find(editor.Forward) })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyG, Modifier: fyne.KeyModifierShortcutDefault | fyne.KeyModifierShift},
		func(fyne.Shortcut) { s.find(editor.Backward) })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyW, Modifier: fyne.KeyModifierShortcutDefault},
		func(fyne.Shortcut) { s.win.Close() })

	s.typ.SetSelectedIndex(0)
	a.search = s
	s.win.Resize(fyne.NewSize(420, 480))
	s.win.Show()
}

func (s *searchWindow) tagType() anndata.TagType {
	if i := s.typ.SelectedIndex(); i >= 0 {
		return tagTypes[i]
	}
	return anndata.TagString
}

// fillOps offers the comparisons of the selected tag type.
func (s *searchWindow) fillOps() {
	var opts []string
	switch s.tagType() {
	case anndata.TagString:
		for _, o := range editor.StrOps() {
			opts = append(opts, o.String())
		}
		s.ignore.Enable()
	case anndata.TagBool:
		opts = []string{editor.NumEqual.String()}
		s.ignore.Disable()
	default:
		for _, o := range editor.NumOps() {
			opts = append(opts, o.String())
		}
		s.ignore.Disable()
	}
	s.op.Options = opts
	s.op.SetSelectedIndex(0)
}

// refreshTiers lists the tiers of the selected type, keeping the checks.
func (s *searchWindow) refreshTiers() {
	checked := make(map[string]bool, len(s.tiers.Selected))
	for _, c := range s.tiers.Selected {
		checked[c] = true
	}
	s.refs = s.a.tl.SearchTiers(s.tagType())
	opts := make([]string, len(s.refs))
	var sel []string
	for i, r := range s.refs {
		opts[i] = refLabel(r)
		if checked[opts[i]] || len(checked) == 0 {
			sel = append(sel, opts[i])
		}
	}
	s.tiers.Options = opts
	s.tiers.SetSelected(sel)
	s.tiers.Refresh()
}

func refLabel(r editor.TierRef) string { return filepath.Base(r.File) + " : " + r.Tier }

func (s *searchWindow) query() editor.Query {
	q := editor.Query{
		Type:    s.tagType(),
		Pattern: s.entry.Text,
		Negate:  s.negate.Checked,
	}
	i := s.op.SelectedIndex()
	if i < 0 {
		i = 0
	}
	if q.Type == anndata.TagString {
		q.Str = editor.StrOps()[i]
		q.IgnoreCase = s.ignore.Checked
	} else if q.Type != anndata.TagBool {
		q.Num = editor.NumOps()[i]
	}
	return q
}

func (s *searchWindow) find(dir editor.Direction) {
	s.a.guard("search.find", func() {
		checked := make(map[string]bool, len(s.tiers.Selected))
		for _, c := range s.tiers.Selected {
			checked[c] = true
		}
		var refs []editor.TierRef
		for _, r := range s.refs {
			if checked[refLabel(r)] {
				refs = append(refs, r)
			}
		}
		err := s.a.tl.Search(s.query(), refs, dir)
		switch {
		case err == nil:
			sel := s.a.tl.Selection()
			s.status.SetText("Found in " + refLabel(editor.TierRef{File: sel.File, Tier: sel.Tier}))
			s.a.refreshAll()
		case errors.Is(err, editor.ErrNotFound):
			s.status.SetText("No more matches")
		case s.a.tl.Book.State() == editor.BookPendingEdit:
			s.a.askCancelEdit()
		default:
			s.status.SetText(apperrors.PublicMessage(err))
		}
	})
}
