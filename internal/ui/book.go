package ui

import (
	"errors"
	"fmt"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/sppas/phoenix/internal/anndata"
	"github.com/sppas/phoenix/internal/editor"
	"github.com/sppas/phoenix/internal/labels"
)

// bookView shows one tab per tier with the list of its annotations, and
// the label editor of the selected annotation.
type bookView struct {
	a       *App
	tabs    *container.AppTabs
	lists   []*widget.List
	entry   *widget.Entry
	preview *widget.RichText
	modes   *widget.RadioGroup
	box     fyne.CanvasObject

	// syncing is set while the widgets are put in step with the book,
	// so that their callbacks do not act on the model.
	syncing bool
	mode    string
}

func newBookView(a *App) *bookView {
	v := &bookView{a: a, tabs: container.NewAppTabs(), preview: widget.NewRichText()}
	v.tabs.SetTabLocation(container.TabLocationTop)
	v.tabs.OnSelected = v.onTab

	v.entry = widget.NewMultiLineEntry()
	v.entry.TextStyle = fyne.TextStyle{Monospace: a.settings.MonoFont.Family == "mono"}
	v.entry.SetMinRowsVisible(3)
	v.entry.OnChanged = v.onText

	var names []string
	for _, m := range labels.Modes() {
		names = append(names, m.String())
	}
	v.modes = widget.NewRadioGroup(names, v.onMode)
	v.modes.Horizontal = true
	v.modes.Required = true
	v.mode = labels.Review.String()
	v.modes.SetSelected(v.mode)

	editorBox := container.NewBorder(v.modes, v.preview, nil, nil, v.entry)
	split := container.NewHSplit(v.tabs, editorBox)
	split.SetOffset(0.45)
	v.box = split
	return v
}

func (v *bookView) object() fyne.CanvasObject { return v.box }

func (v *bookView) tier(p editor.Page) *anndata.Tier {
	l, ok := v.a.tl.Lane(p.File).(*editor.TrsLane)
	if !ok {
		return nil
	}
	return l.Transcription().Find(p.Tier)
}

// rebuild recreates the tabs after pages were added or removed.
func (v *bookView) rebuild() {
	v.syncing = true
	defer func() { v.syncing = false }()

	pages := v.a.tl.Book.Pages()
	items := make([]*container.TabItem, 0, len(pages))
	v.lists = v.lists[:0]
	for _, p := range pages {
		p := p
		list := widget.NewList(
			func() int {
				if t := v.tier(p); t != nil {
					return t.Len()
				}
				return 0
			},
			func() fyne.CanvasObject {
				l := widget.NewLabel("")
				l.Truncation = fyne.TextTruncateEllipsis
				return l
			},
			func(id widget.ListItemID, o fyne.CanvasObject) {
				t := v.tier(p)
				if t == nil || t.At(id) == nil {
					return
				}
				a := t.At(id)
				o.(*widget.Label).SetText(fmt.Sprintf("%s  %s", a.Location, labels.Text(a.Labels)))
			},
		)
		list.OnSelected = func(id widget.ListItemID) {
			if v.syncing {
				return
			}
			v.a.selectAnn(p.File, p.Tier, id)
		}
		v.lists = append(v.lists, list)
		items = append(items, container.NewTabItem(filepath.Base(p.File)+" : "+p.Tier, list))
	}
	v.tabs.SetItems(items)
	v.syncLocked()
}

func (v *bookView) onTab(item *container.TabItem) {
	if v.syncing {
		return
	}
	i := v.tabs.SelectedIndex()
	book := v.a.tl.Book
	if !book.SetPage(i) {
		v.sync()
		v.a.askCancelEdit()
		return
	}
	p := book.Pages()[i]
	if err := v.a.tl.SetSelectedTier(p.File, p.Tier); err != nil {
		v.a.showError(err)
	}
	v.a.refreshPanels()
	v.sync()
}

func (v *bookView) onText(s string) {
	if v.syncing {
		return
	}
	ed := v.a.tl.Book.Editor
	ed.SetText(s)
	if v.a.tl.Book.State() == editor.BookPendingEdit && ed.TextModified() != editor.TextInvalid {
		v.a.tl.Book.Resume()
	}
	v.showPreview()
}

func (v *bookView) onMode(name string) {
	if v.syncing || name == v.mode {
		return
	}
	m, err := labels.ParseMode(name)
	if err != nil {
		return
	}
	ed := v.a.tl.Book.Editor
	switch err := ed.SwitchView(m, false); {
	case err == nil:
		v.mode = name
		v.sync()
	case errors.Is(err, editor.ErrLossyView):
		dialog.ShowConfirm("Switch view",
			fmt.Sprintf("The %s view cannot show scores or empty labels; they will be dropped from the edited labels. Switch anyway?", name),
			func(ok bool) {
				if ok && ed.SwitchView(m, true) == nil {
					v.mode = name
				}
				v.sync()
			}, v.a.window)
	default:
		v.a.showError(fmt.Errorf("the label does not parse; fix it before changing the view: %w", err))
		v.sync()
	}
}

func (v *bookView) showPreview() {
	ed := v.a.tl.Book.Editor
	text := ed.Text()
	var segs []widget.RichTextSegment
	for _, sp := range ed.Highlight() {
		style := widget.RichTextStyleInline
		style.TextStyle.Bold = sp.Bold
		segs = append(segs, &widget.TextSegment{Text: text[sp.Start:sp.End], Style: style})
	}
	v.preview.Segments = segs
	v.preview.Refresh()
}

// sync puts the tabs, list and editor in step with the book.
func (v *bookView) sync() {
	v.syncing = true
	defer func() { v.syncing = false }()
	v.syncLocked()
}

func (v *bookView) syncLocked() {
	book := v.a.tl.Book
	if cur := book.Current(); cur >= 0 && cur < len(v.tabs.Items) && v.tabs.SelectedIndex() != cur {
		v.tabs.SelectIndex(cur)
	}
	file, tier, ann := book.Selected()
	for i, p := range book.Pages() {
		if i >= len(v.lists) {
			break
		}
		if p.File == file && p.Tier == tier && ann >= 0 {
			v.lists[i].Select(ann)
			v.lists[i].ScrollTo(ann)
		} else {
			v.lists[i].UnselectAll()
		}
	}
	ed := book.Editor
	if v.entry.Text != ed.Text() {
		v.entry.SetText(ed.Text())
	}
	if ed.Annotation() == nil {
		v.entry.Disable()
	} else {
		v.entry.Enable()
	}
	v.mode = ed.Mode().String()
	v.modes.SetSelected(v.mode)
	v.showPreview()
}

// refreshLists repaints the annotation lists after model changes.
func (v *bookView) refreshLists() {
	for _, l := range v.lists {
		l.Refresh()
	}
}
