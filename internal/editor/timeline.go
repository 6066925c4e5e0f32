package editor

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/iancoleman/orderedmap"

	"github.com/sppas/phoenix/internal/aio"
	"github.com/sppas/phoenix/internal/anndata"
	"github.com/sppas/phoenix/internal/apperrors"
	"github.com/sppas/phoenix/internal/logger"
	"github.com/sppas/phoenix/internal/media"
	"github.com/sppas/phoenix/internal/workspace"
)

// DefaultWindow is the longest window shown when the first file opens.
const DefaultWindow = 30.0

var (
	ErrNoFile      = errors.New("file is not opened")
	ErrNoSelection = errors.New("nothing is selected")
	ErrNotFound    = errors.New("no matching annotation")
	ErrEmptyClip   = errors.New("the tier clipboard is empty")
)

// Progress reports a long multi-file operation.
type Progress interface {
	SetNew()
	SetHeader(string)
	SetFraction(float64)
	SetText(string)
	Close()
}

// TierRef names one tier of one opened file.
type TierRef struct {
	File string
	Tier string
}

// Timeline owns the lanes of the opened files, in display order, and the
// single editor-wide selection. It routes pointer gestures to the lanes
// and turns their results into model changes, undo entries and events.
type Timeline struct {
	Book   *TiersBook
	Player *media.Player

	formats   *aio.Registry
	ws        *workspace.Workspace
	lanes     *orderedmap.OrderedMap
	sel       Selection
	undo      *UndoStack
	clipboard []*anndata.Tier
	listeners []Listener

	x, width float64
}

// NewTimeline wires a timeline to its player; ws may be nil.
func NewTimeline(formats *aio.Registry, player *media.Player, ws *workspace.Workspace) *Timeline {
	tl := &Timeline{
		Player:  player,
		formats: formats,
		ws:      ws,
		lanes:   orderedmap.New(),
		sel:     NoSelection(),
		undo:    NewUndoStack(DefaultUndoDepth),
	}
	tl.Book = newTiersBook(tl)
	player.OnEvent = tl.onMediaEvent
	return tl
}

// Subscribe adds a listener of editor events.
func (tl *Timeline) Subscribe(l Listener) { tl.listeners = append(tl.listeners, l) }

func (tl *Timeline) emit(e Event) {
	if e.Kind == EvAnnUpdate {
		if l := tl.trsLane(e.File); l != nil {
			l.UpdateAnn(e.Tier, e.Index)
		}
	}
	logger.Debug("Editor event", "event", e.String(), "file", e.File, "tier", e.Tier)
	for _, l := range tl.listeners {
		l(e)
	}
}

func (tl *Timeline) lookupTier(file, tier string) *anndata.Tier {
	if l := tl.trsLane(file); l != nil {
		return l.Transcription().Find(tier)
	}
	return nil
}

func (tl *Timeline) recordUndo(file string, t *anndata.Tier, before anndata.Snapshot, what string) {
	if t == nil {
		return
	}
	tl.undo.Push(UndoEntry{File: file, TierID: t.ID(), What: what, Snap: before})
	if l := tl.trsLane(file); l != nil {
		l.MarkDirty()
	}
}

// Files returns the opened file names in display order.
func (tl *Timeline) Files() []string { return tl.lanes.Keys() }

// Lane returns the lane of an opened file, or nil.
func (tl *Timeline) Lane(name string) Lane {
	v, ok := tl.lanes.Get(name)
	if !ok {
		return nil
	}
	return v.(Lane)
}

// Lanes returns the lanes in display order.
func (tl *Timeline) Lanes() []Lane {
	keys := tl.lanes.Keys()
	out := make([]Lane, 0, len(keys))
	for _, k := range keys {
		out = append(out, tl.Lane(k))
	}
	return out
}

func (tl *Timeline) trsLane(name string) *TrsLane {
	l, _ := tl.Lane(name).(*TrsLane)
	return l
}

func (tl *Timeline) trsLanes() []*TrsLane {
	var out []*TrsLane
	for _, l := range tl.Lanes() {
		if t, ok := l.(*TrsLane); ok {
			out = append(out, t)
		}
	}
	return out
}

// Selection returns the current selection.
func (tl *Timeline) Selection() Selection { return tl.sel }

// Dirty reports whether an opened file has unsaved changes.
func (tl *Timeline) Dirty() bool {
	for _, l := range tl.Lanes() {
		if tl.FileDirty(l.Name()) {
			return true
		}
	}
	return false
}

// FileDirty reports whether name has unsaved changes, counting a label
// edit still in the editor buffer.
func (tl *Timeline) FileDirty(name string) bool {
	l := tl.Lane(name)
	if l == nil {
		return false
	}
	if l.Dirty() {
		return true
	}
	f, _, _ := tl.Book.Selected()
	return f == name && tl.Book.Editor.TextModified() != TextUnchanged
}

// AppendFile opens name in a new lane at the bottom of the timeline.
// Media load asynchronously; the other kinds are ready on return. A file
// no reader accepts gets an error lane, and the error is returned too.
func (tl *Timeline) AppendFile(name string) error {
	if tl.Lane(name) != nil {
		return fmt.Errorf("%s is already opened", filepath.Base(name))
	}
	kind := GuessType(name, tl.formats)
	logger.Info("Opening file", "name", name, "kind", kind.String())
	switch kind {
	case FileTranscription:
		trs, err := tl.formats.Read(name)
		if err != nil {
			tl.lanes.Set(name, NewErrorLane(name, err))
			return err
		}
		l := NewTrsLane(name, trs)
		l.SetGeometry(tl.x, tl.width)
		l.OnTierSelected = func(tier string) { tl.tierSelected(name, tier) }
		tl.lanes.Set(name, l)
		tl.Player.AddUnsupported(name, trs.Duration())
		names := make([]string, 0, trs.Len())
		for _, t := range trs.Tiers() {
			names = append(names, t.Name)
		}
		tl.Book.AddPages(name, names)
		if tl.ws != nil {
			tl.ws.Lock(name)
		}
		tl.emit(Event{Kind: EvTiersAdded, File: name, Index: -1})
		tl.fitWindow()
		return nil

	case FileAudio, FileVideo:
		mk := media.Audio
		if kind == FileVideo {
			mk = media.Video
		}
		tl.lanes.Set(name, NewMediaLane(name, kind))
		return tl.Player.Add(name, mk)
	}
	err := apperrors.UnsupportedFile(fmt.Errorf("%s: unknown file type", filepath.Base(name)))
	tl.lanes.Set(name, NewErrorLane(name, err))
	return err
}

// AppendFiles opens several files, reporting to p when it is not nil.
// It stops at nothing: the errors of all files are joined.
func (tl *Timeline) AppendFiles(names []string, p Progress) error {
	if p != nil {
		p.SetNew()
		p.SetHeader("Open files")
		defer p.Close()
	}
	var errs []error
	for i, name := range names {
		if p != nil {
			p.SetText(filepath.Base(name))
			p.SetFraction(float64(i) / float64(len(names)))
		}
		if err := tl.AppendFile(name); err != nil {
			logger.Warn("File not opened", "name", name, "error", err)
			errs = append(errs, err)
		}
	}
	if p != nil {
		p.SetFraction(1)
	}
	return errors.Join(errs...)
}

func (tl *Timeline) onMediaEvent(ev media.Event) {
	l, ok := tl.Lane(ev.Name).(*MediaLane)
	if !ok {
		return
	}
	if !ev.Loaded {
		l.setFailed(ev.Err)
		tl.emit(Event{Kind: EvMediaNotLoaded, File: ev.Name, Index: -1, Err: l.Err()})
		return
	}
	l.setLoaded()
	if tl.ws != nil {
		tl.ws.Lock(ev.Name)
	}
	tl.emit(Event{Kind: EvMediaLoaded, File: ev.Name, Index: -1})
	tl.fitWindow()
}

// fitWindow shows the start of the media when nothing is shown yet, and
// keeps the window inside the media otherwise.
func (tl *Timeline) fitWindow() {
	total := tl.Player.Duration()
	start, end := tl.Player.VisibleRange()
	if total <= 0 {
		return
	}
	if end <= start {
		tl.SetVisibleRange(0, math.Min(total, DefaultWindow))
		return
	}
	if end > total {
		tl.SetVisibleRange(math.Max(0, total-(end-start)), total)
		return
	}
	tl.SetVisibleRange(start, end)
}

// RemoveFile closes a file. A file with unsaved changes is kept unless
// force is set.
func (tl *Timeline) RemoveFile(name string, force bool) error {
	l := tl.Lane(name)
	if l == nil {
		return fmt.Errorf("%w: %s", ErrNoFile, name)
	}
	if tl.FileDirty(name) && !force {
		return apperrors.Dirty(fmt.Errorf("%s has unsaved changes", filepath.Base(name)))
	}
	if tl.sel.File == name {
		tl.sel = NoSelection()
	}
	tl.Book.RemovePages(name)
	tl.undo.Forget(name)
	tl.Player.Remove(name)
	tl.lanes.Delete(name)
	if tl.ws != nil {
		if err := tl.ws.Unlock(name); err != nil {
			logger.Debug("File was not locked", "name", name)
		}
	}
	tl.emit(Event{Kind: EvFileRemoved, File: name, Index: -1})
	return nil
}

// SaveFile writes a transcription in the format of its extension. The
// label being edited in this file is committed first.
func (tl *Timeline) SaveFile(name string) error {
	l := tl.trsLane(name)
	if l == nil {
		return fmt.Errorf("%w: %s", ErrNoFile, name)
	}
	if f, _, _ := tl.Book.Selected(); f == name {
		if err := tl.Book.Commit(); err != nil {
			return apperrors.Parse(err)
		}
	}
	if err := tl.formats.Write(l.Transcription(), name); err != nil {
		return err
	}
	l.MarkSaved()
	tl.emit(Event{Kind: EvFileSaved, File: name, Index: -1})
	return nil
}

// Reorder changes the display order; names must list every opened file.
func (tl *Timeline) Reorder(names []string) error {
	keys := tl.lanes.Keys()
	if len(names) != len(keys) {
		return fmt.Errorf("reorder: got %d files, %d are opened", len(names), len(keys))
	}
	rank := make(map[string]int, len(names))
	for i, n := range names {
		if tl.Lane(n) == nil {
			return fmt.Errorf("%w: %s", ErrNoFile, n)
		}
		rank[n] = i
	}
	if len(rank) != len(names) {
		return fmt.Errorf("reorder: duplicate file")
	}
	tl.lanes.SortKeys(func(k []string) {
		for i, n := range names {
			k[i] = n
		}
	})
	return nil
}

// SetGeometry sets the content area of every lane, in pixels.
func (tl *Timeline) SetGeometry(x, width float64) {
	tl.x, tl.width = x, width
	for _, l := range tl.trsLanes() {
		l.SetGeometry(x, width)
	}
}

// SetVisibleRange shows [start, end] in every lane.
func (tl *Timeline) SetVisibleRange(start, end float64) {
	if end < start {
		start, end = end, start
	}
	for _, l := range tl.Lanes() {
		l.SetVisibleRange(start, end)
	}
	tl.Player.SetVisibleRange(start, end)
	tl.emit(Event{Kind: EvRangeChanged, Index: -1})
}

func (tl *Timeline) VisibleRange() (float64, float64) { return tl.Player.VisibleRange() }

// widen recentres the window on at when at is not shown.
func (tl *Timeline) widen(at float64) {
	start, end := tl.Player.VisibleRange()
	if at >= start && at <= end {
		return
	}
	total := tl.Player.Duration()
	half := total / 10
	s := math.Max(0, at-half)
	e := math.Min(total, at+half)
	if e-s < MinDuration {
		return
	}
	logger.Debug("Visible window moved to the selection", "at", at, "start", s, "end", e)
	tl.SetVisibleRange(s, e)
}

// tierSelected keeps a single selected tier across files.
func (tl *Timeline) tierSelected(file, tier string) {
	if tier == "" {
		return
	}
	for _, l := range tl.trsLanes() {
		if l.Name() != file {
			l.SetSelectedTier("")
		}
	}
	if tl.sel.File != file || !strings.EqualFold(tl.sel.Tier, tier) {
		tl.sel = Selection{File: file, Tier: tier, Ann: -1}
	}
	tl.emit(Event{Kind: EvTierSelected, File: file, Tier: tier, Index: -1})
}

// showSelection puts the lanes in step with sel.
func (tl *Timeline) showSelection(sel Selection) {
	for _, l := range tl.trsLanes() {
		if l.Name() != sel.File {
			l.SetSelectedTier("")
		}
	}
	if l := tl.trsLane(sel.File); l != nil {
		if sel.Tier == "" {
			l.SetSelectedTier("")
		} else {
			l.SetSelectedAnnotation(sel.Tier, sel.Ann)
		}
	}
	sel.Boundary, sel.Sharing = nil, nil
	tl.sel = sel
}

// SetSelectedTier selects a tier without an annotation.
func (tl *Timeline) SetSelectedTier(file, tier string) error {
	l := tl.trsLane(file)
	if l == nil {
		return fmt.Errorf("%w: %s", ErrNoFile, file)
	}
	if l.Lane(tier) == nil {
		return tierMissing(tier)
	}
	l.SetSelectedTier(tier)
	return nil
}

// Select selects annotation ann, as a click in the annotation list does.
// It returns false when the label being edited vetoed the change.
func (tl *Timeline) Select(file, tier string, ann int) bool {
	t := tl.lookupTier(file, tier)
	if t == nil || t.At(ann) == nil {
		return false
	}
	prev := tl.sel
	if !tl.Book.Select(file, tier, ann) {
		tl.showSelection(prev)
		return false
	}
	tl.showSelection(Selection{File: file, Tier: tier, Ann: ann})
	tl.widen(t.At(ann).Location.Center())
	return true
}

// Down, Drag, Up and Leave take the pointer gestures on the lane of one
// tier; x is in the timeline's pixel space.
func (tl *Timeline) Down(file, tier string, x float64) {
	if l := tl.trsLane(file); l != nil {
		l.Down(tier, x)
	}
}

func (tl *Timeline) Drag(file, tier string, x float64, shift bool) {
	if l := tl.trsLane(file); l != nil {
		l.Drag(tier, x, shift)
	}
}

func (tl *Timeline) Leave(file, tier string) {
	if l := tl.trsLane(file); l != nil {
		l.Leave(tier)
	}
}

func (tl *Timeline) Up(file, tier string, x float64) Result {
	l := tl.trsLane(file)
	if l == nil {
		return Result{Kind: ResultNone, Index: -1}
	}
	prev := tl.sel
	r := l.Up(tier, x)
	return tl.apply(prev, file, tier, r)
}

// MoveSelectedBoundary moves the selected boundary to at.
func (tl *Timeline) MoveSelectedBoundary(at float64) Result {
	if tl.sel.Boundary == nil {
		return Result{Kind: ResultNone, Index: -1}
	}
	l := tl.trsLane(tl.sel.File)
	tier := l.Lane(tl.sel.Tier)
	if tier == nil {
		return Result{Kind: ResultNone, Index: -1}
	}
	r := tier.MoveBoundaryTo(at)
	if r.Kind == ResultUpdated {
		l.MarkDirty()
	}
	return tl.apply(tl.sel, tl.sel.File, tl.sel.Tier, r)
}

// apply turns the result of a gesture on a tier into selection changes,
// undo entries and events.
func (tl *Timeline) apply(prev Selection, file, tier string, r Result) Result {
	l := tl.trsLane(file)
	lane := l.Lane(tier)
	switch r.Kind {
	case ResultAnnSelected:
		if !tl.Book.Select(file, tier, r.Index) {
			tl.showSelection(prev)
			return Result{Kind: ResultNone, Index: -1}
		}
		tl.sel = Selection{File: file, Tier: tier, Ann: r.Index}
		tl.widen(lane.Tier().At(r.Index).Location.Center())

	case ResultBoundary, ResultPointSelected:
		tl.sel = Selection{File: file, Tier: tier, Ann: r.Index}
		tl.sel.Boundary, tl.sel.Sharing = lane.Boundary()

	case ResultBoundaryCleared:
		if bf, bt, _ := tl.Book.Selected(); bf != "" && (bf != file || !strings.EqualFold(bt, tier)) {
			if !tl.Book.Deselect() {
				tl.showSelection(prev)
				return Result{Kind: ResultNone, Index: -1}
			}
		}
		tl.sel = Selection{File: file, Tier: tier, Ann: lane.SelectedAnn()}

	case ResultUpdated:
		tl.undo.Push(UndoEntry{File: file, TierID: lane.tierID, What: "move boundary", Snap: *r.Before})
		for _, i := range r.Indexes {
			tl.emit(Event{Kind: EvAnnUpdate, File: file, Tier: tier, Index: i})
		}
		tl.sel.Ann = r.Index
		tl.sel.Boundary, tl.sel.Sharing = lane.Boundary()
		tl.Book.Follow(file, tier, r.Index)
		tl.Book.Refresh()
		tl.Player.AddUnsupported(file, l.Duration())

	case ResultCreated:
		tl.undo.Push(UndoEntry{File: file, TierID: lane.tierID, What: "create annotation", Snap: *r.Before})
		tl.Book.AnnInserted(file, tier, r.Index)
		tl.emit(Event{Kind: EvAnnCreate, File: file, Tier: tier, Index: r.Index})
		tl.Player.AddUnsupported(file, l.Duration())
		if !tl.Book.Select(file, tier, r.Index) {
			tl.showBook()
			return r
		}
		tl.sel = Selection{File: file, Tier: tier, Ann: r.Index}

	case ResultRejected:
		if !apperrors.IsModelViolation(r.Err) {
			r.Err = apperrors.ModelViolation(r.Err)
		}
	}
	return r
}

// showBook puts the lanes back on the book's annotation.
func (tl *Timeline) showBook() {
	f, t, a := tl.Book.Selected()
	if f == "" {
		tl.showSelection(NoSelection())
		return
	}
	tl.showSelection(Selection{File: f, Tier: t, Ann: a})
}

// DeleteAnn removes the selected annotation.
func (tl *Timeline) DeleteAnn() error {
	if !tl.sel.HasAnn() {
		return ErrNoSelection
	}
	file, tier, i := tl.sel.File, tl.sel.Tier, tl.sel.Ann
	l := tl.trsLane(file)
	t := tl.lookupTier(file, tier)
	if l == nil || t == nil {
		return ErrNoSelection
	}
	before := t.Snapshot()
	if _, err := l.DeleteAnn(tier, i); err != nil {
		return err
	}
	tl.recordUndo(file, t, before, "delete annotation")
	tl.Book.AnnRemoved(file, tier, i)
	tl.sel = Selection{File: file, Tier: tier, Ann: -1}
	tl.emit(Event{Kind: EvAnnDelete, File: file, Tier: tier, Index: i})
	tl.Player.AddUnsupported(file, l.Duration())
	return nil
}

// CanUndo describes the change Undo would revert.
func (tl *Timeline) CanUndo() (string, bool) { return tl.undo.Peek() }

// Undo puts back the tier content preceding the last change. The
// selection in that tier is dropped.
func (tl *Timeline) Undo() error {
	e, ok := tl.undo.Pop()
	if !ok {
		return errors.New("nothing to undo")
	}
	l := tl.trsLane(e.File)
	if l == nil {
		return fmt.Errorf("%w: %s", ErrNoFile, e.File)
	}
	var t *anndata.Tier
	for _, c := range l.Transcription().Tiers() {
		if c.ID() == e.TierID {
			t = c
		}
	}
	if t == nil {
		return fmt.Errorf("undo %s: the tier was removed", e.What)
	}
	if f, bt, _ := tl.Book.Selected(); f == e.File && strings.EqualFold(bt, t.Name) {
		tl.Book.Discard()
	}
	if tl.sel.File == e.File && strings.EqualFold(tl.sel.Tier, t.Name) {
		tl.showSelection(Selection{File: e.File, Tier: t.Name, Ann: -1})
	}
	t.Restore(e.Snap)
	l.MarkDirty()
	tl.Player.AddUnsupported(e.File, l.Duration())
	logger.Info("Undone", "what", e.What, "tier", t.Name)
	tl.emit(Event{Kind: EvAnnUpdate, File: e.File, Tier: t.Name, Index: -1})
	return nil
}

// Clipboard returns the names of the tiers waiting to be pasted.
func (tl *Timeline) Clipboard() []string {
	out := make([]string, len(tl.clipboard))
	for i, t := range tl.clipboard {
		out[i] = t.Name
	}
	return out
}

func (tl *Timeline) selectedTier() (*TrsLane, *anndata.Tier, error) {
	if tl.sel.File == "" || tl.sel.Tier == "" {
		return nil, nil, ErrNoSelection
	}
	l := tl.trsLane(tl.sel.File)
	t := tl.lookupTier(tl.sel.File, tl.sel.Tier)
	if l == nil || t == nil {
		return nil, nil, ErrNoSelection
	}
	return l, t, nil
}

// CopyTier puts a copy of the selected tier in the clipboard.
func (tl *Timeline) CopyTier() error {
	_, t, err := tl.selectedTier()
	if err != nil {
		return err
	}
	tl.clipboard = []*anndata.Tier{t.Copy()}
	return nil
}

// CutTier moves the selected tier to the clipboard.
func (tl *Timeline) CutTier() error {
	l, t, err := tl.selectedTier()
	if err != nil {
		return err
	}
	if f, bt, _ := tl.Book.Selected(); f == l.Name() && strings.EqualFold(bt, t.Name) && !tl.Book.Deselect() {
		return apperrors.Parse(errors.New("the label being edited does not parse"))
	}
	trs := l.Transcription()
	if _, err := trs.Pop(trs.TierIndex(t.Name)); err != nil {
		return err
	}
	tl.clipboard = []*anndata.Tier{t}
	l.SetSelectedTier("")
	l.Sync()
	l.MarkDirty()
	tl.Book.RemovePage(l.Name(), t.Name)
	tl.sel = NoSelection()
	tl.Player.AddUnsupported(l.Name(), l.Duration())
	tl.emit(Event{Kind: EvTierRemoved, File: l.Name(), Tier: t.Name, Index: -1})
	return nil
}

// PasteTiers appends the clipboard tiers to a transcription, renaming
// them when their name is taken. The clipboard is kept.
func (tl *Timeline) PasteTiers(file string) error {
	l := tl.trsLane(file)
	if l == nil {
		return fmt.Errorf("%w: %s", ErrNoFile, file)
	}
	if len(tl.clipboard) == 0 {
		return ErrEmptyClip
	}
	trs := l.Transcription()
	names := make([]string, 0, len(tl.clipboard))
	for _, t := range tl.clipboard {
		c := t.Clone()
		c.Name = trs.UniqueName(c.Name)
		if err := trs.Append(c); err != nil {
			return err
		}
		names = append(names, c.Name)
	}
	l.Sync()
	l.MarkDirty()
	tl.Book.AddPages(file, names)
	tl.Player.AddUnsupported(file, l.Duration())
	tl.emit(Event{Kind: EvTiersAdded, File: file, Index: -1})
	return nil
}

// SearchTiers lists the tiers of the opened files for the search dialog.
// Tiers of another tag type than typ are disabled.
func (tl *Timeline) SearchTiers(typ anndata.TagType) []TierRef {
	var out []TierRef
	for _, l := range tl.trsLanes() {
		for _, it := range l.FilterItems(&typ) {
			if it.Enabled {
				out = append(out, TierRef{File: l.Name(), Tier: it.Tier})
			}
		}
	}
	return out
}

// Search selects the next annotation of the checked tiers matching q,
// starting after (or before) the selected annotation.
func (tl *Timeline) Search(q Query, checked []TierRef, dir Direction) error {
	match, err := q.Matcher()
	if err != nil {
		return apperrors.Parse(err)
	}
	var from *anndata.Annotation
	if tl.sel.HasAnn() {
		if t := tl.lookupTier(tl.sel.File, tl.sel.Tier); t != nil {
			from = t.At(tl.sel.Ann)
		}
	}
	tiers := make([]*anndata.Tier, len(checked))
	for i, ref := range checked {
		if t := tl.lookupTier(ref.File, ref.Tier); t != nil && t.TagType == q.Type {
			tiers[i] = t
		}
	}
	ti, ai, ok := Search(tiers, match, SearchFrom(from, dir), dir)
	if !ok {
		return ErrNotFound
	}
	ref := checked[ti]
	if !tl.Select(ref.File, ref.Tier, ai) {
		return apperrors.Parse(errors.New("the label being edited does not parse"))
	}
	tl.emit(Event{Kind: EvTierSelected, File: ref.File, Tier: ref.Tier, Index: -1})
	return nil
}

// Close releases the media.
func (tl *Timeline) Close() {
	tl.Player.Close()
}
