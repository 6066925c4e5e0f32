package editor

import (
	"github.com/sppas/phoenix/internal/anndata"
	"github.com/sppas/phoenix/internal/logger"
)

// BookState is the state of the annotation selected in the TiersBook.
type BookState int

const (
	BookNone BookState = iota
	BookSelected
	// BookPendingEdit: the editor holds text that does not parse and the
	// user chose to keep editing it.
	BookPendingEdit
)

func (s BookState) String() string {
	switch s {
	case BookSelected:
		return "selected"
	case BookPendingEdit:
		return "pending-edit"
	}
	return "none"
}

// Page is one list view of the book: the annotations of one tier of one file.
type Page struct {
	File string
	Tier string
}

// ConfirmFunc is asked what to do with labels that do not parse. It
// returns true to cancel the edit and false to continue editing.
type ConfirmFunc func(err error) bool

// bookHost gives the book access to the model it edits.
type bookHost interface {
	lookupTier(file, tier string) *anndata.Tier
	// recordUndo keeps before, the content of t preceding a change that
	// succeeded, and marks the file modified.
	recordUndo(file string, t *anndata.Tier, before anndata.Snapshot, what string)
	emit(Event)
}

// TiersBook holds one page per (file, tier) and the label editor of the
// selected annotation. Its deselect validator is the only place where
// edited labels are written to the model.
type TiersBook struct {
	Editor  *LabelEditor
	Confirm ConfirmFunc

	host    bookHost
	pages   []Page
	current int
	state   BookState
	file    string
	tier    string
	ann     int
}

func newTiersBook(host bookHost) *TiersBook {
	return &TiersBook{Editor: NewLabelEditor(), host: host, current: -1, ann: -1}
}

func (b *TiersBook) State() BookState { return b.state }

// Selected returns the selected annotation, or ann = -1.
func (b *TiersBook) Selected() (file, tier string, ann int) {
	if b.state == BookNone {
		return "", "", -1
	}
	return b.file, b.tier, b.ann
}

func (b *TiersBook) Pages() []Page { return b.pages }

// Current is the index of the displayed page, -1 when the book is empty.
func (b *TiersBook) Current() int { return b.current }

func (b *TiersBook) pageIndex(file, tier string) int {
	for i, p := range b.pages {
		if p.File == file && p.Tier == tier {
			return i
		}
	}
	return -1
}

// AddPages appends one page per tier of file.
func (b *TiersBook) AddPages(file string, tiers []string) {
	for _, t := range tiers {
		if b.pageIndex(file, t) < 0 {
			b.pages = append(b.pages, Page{File: file, Tier: t})
		}
	}
	if b.current < 0 && len(b.pages) > 0 {
		b.current = 0
	}
}

// RemovePages drops the pages of file, forgetting its selection.
func (b *TiersBook) RemovePages(file string) {
	if b.file == file {
		b.reset()
	}
	kept := b.pages[:0]
	for _, p := range b.pages {
		if p.File != file {
			kept = append(kept, p)
		}
	}
	b.pages = kept
	if b.current >= len(b.pages) {
		b.current = len(b.pages) - 1
	}
}

// RemovePage drops the page of one tier, e.g. after a cut.
func (b *TiersBook) RemovePage(file, tier string) {
	i := b.pageIndex(file, tier)
	if i < 0 {
		return
	}
	if b.file == file && b.tier == tier {
		b.reset()
	}
	b.pages = append(b.pages[:i], b.pages[i+1:]...)
	if b.current >= len(b.pages) {
		b.current = len(b.pages) - 1
	}
}

// RenamePage follows a tier renamed in the model.
func (b *TiersBook) RenamePage(file, from, to string) {
	if i := b.pageIndex(file, from); i >= 0 {
		b.pages[i].Tier = to
	}
	if b.file == file && b.tier == from {
		b.tier = to
	}
}

// SetPage displays page i. The selected annotation is validated first;
// when the user keeps editing, the book stays on its page.
func (b *TiersBook) SetPage(i int) bool {
	if i < 0 || i >= len(b.pages) || i == b.current {
		return i == b.current
	}
	if b.state == BookPendingEdit {
		return false
	}
	if b.state == BookSelected && !b.Deselect() {
		return false
	}
	b.current = i
	return true
}

// Select selects annotation ann of a tier, validating the previously
// selected annotation first. It returns false when that validation
// vetoed the change; the previous annotation then stays selected.
func (b *TiersBook) Select(file, tier string, ann int) bool {
	if b.state != BookNone && b.file == file && b.tier == tier && b.ann == ann {
		return true
	}
	if b.state != BookNone && !b.Deselect() {
		return false
	}
	t := b.host.lookupTier(file, tier)
	if t == nil || t.At(ann) == nil {
		return false
	}
	a := t.At(ann)
	if i := b.pageIndex(file, tier); i >= 0 {
		b.current = i
	}
	b.file, b.tier, b.ann = file, tier, ann
	b.state = BookSelected
	b.Editor.SetAnn(a, t.TagType)
	b.host.emit(Event{Kind: EvAnnSelected, File: file, Tier: tier, Index: ann})
	return true
}

// Deselect validates the editor and releases the selection. It returns
// false when the user chose to continue editing text that does not parse.
func (b *TiersBook) Deselect() bool {
	if b.state == BookNone {
		return true
	}
	switch b.Editor.TextModified() {
	case TextUnchanged:
	case TextChanged:
		if err := b.write(); err != nil {
			if !b.askCancel(err) {
				return false
			}
		}
	case TextInvalid:
		_, err := b.Editor.TextLabels()
		if !b.askCancel(err) {
			return false
		}
	}
	b.reset()
	return true
}

// askCancel asks the user; on cancel the editor is reloaded from the model,
// otherwise the book enters PendingEdit.
func (b *TiersBook) askCancel(err error) bool {
	if b.Confirm != nil && b.Confirm(err) {
		b.Editor.Reload()
		return true
	}
	b.state = BookPendingEdit
	logger.Debug("Label edit kept pending", "tier", b.tier, "index", b.ann, "error", err)
	return false
}

func (b *TiersBook) write() error {
	t := b.host.lookupTier(b.file, b.tier)
	labs, err := b.Editor.TextLabels()
	if err != nil {
		return err
	}
	before := t.Snapshot()
	if err := t.SetLabels(b.ann, labs); err != nil {
		return err
	}
	b.host.recordUndo(b.file, t, before, "edit labels")
	b.host.emit(Event{Kind: EvAnnUpdate, File: b.file, Tier: b.tier, Index: b.ann})
	return nil
}

// Commit writes a valid modified buffer without releasing the selection.
func (b *TiersBook) Commit() error {
	if b.state == BookNone {
		return nil
	}
	switch b.Editor.TextModified() {
	case TextChanged:
		if err := b.write(); err != nil {
			return err
		}
	case TextInvalid:
		_, err := b.Editor.TextLabels()
		return err
	}
	b.state = BookSelected
	return nil
}

// Discard drops a pending edit and releases the selection.
func (b *TiersBook) Discard() {
	b.Editor.Reload()
	b.reset()
}

// Resume leaves PendingEdit after the text was fixed.
func (b *TiersBook) Resume() {
	if b.state == BookPendingEdit {
		b.state = BookSelected
	}
}

func (b *TiersBook) reset() {
	b.state = BookNone
	b.file, b.tier, b.ann = "", "", -1
	b.Editor.SetAnn(nil, anndata.TagString)
}

// Follow moves the selection to index ann of the selected tier, after a
// boundary move reordered it.
func (b *TiersBook) Follow(file, tier string, ann int) {
	if b.state != BookNone && b.file == file && b.tier == tier && ann >= 0 {
		b.ann = ann
	}
}

// AnnInserted and AnnRemoved keep the selected index in step with its tier.
func (b *TiersBook) AnnInserted(file, tier string, i int) {
	if b.state != BookNone && b.file == file && b.tier == tier && b.ann >= i {
		b.ann++
	}
}

func (b *TiersBook) AnnRemoved(file, tier string, i int) {
	if b.state == BookNone || b.file != file || b.tier != tier {
		return
	}
	switch {
	case b.ann == i:
		b.reset()
	case b.ann > i:
		b.ann--
	}
}

// Refresh reloads the editor after the selected annotation changed in the
// model, unless the user is editing it.
func (b *TiersBook) Refresh() {
	if b.state != BookSelected || b.Editor.TextModified() != TextUnchanged {
		return
	}
	if t := b.host.lookupTier(b.file, b.tier); t != nil {
		b.Editor.SetAnn(t.At(b.ann), t.TagType)
	}
}
