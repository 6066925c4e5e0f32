// Package ui binds the editor core to fyne widgets: one panel per opened
// file, the tiers book with its label editor, the player controls and the
// search window. Everything here runs on the fyne UI goroutine.
package ui

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/sppas/phoenix/internal/aio"
	"github.com/sppas/phoenix/internal/apperrors"
	"github.com/sppas/phoenix/internal/editor"
	"github.com/sppas/phoenix/internal/logger"
	"github.com/sppas/phoenix/internal/media"
	"github.com/sppas/phoenix/internal/settings"
	"github.com/sppas/phoenix/internal/version"
	"github.com/sppas/phoenix/internal/workspace"
)

const prefLastDir = "LastDirectory"

// Options configure the editor window.
type Options struct {
	Settings  *settings.Settings
	Workspace *workspace.Workspace
	// Files are opened once the window shows.
	Files       []string
	SplashDelay time.Duration
}

// App is the editor window.
type App struct {
	fyneApp  fyne.App
	window   fyne.Window
	settings *settings.Settings
	tl       *editor.Timeline

	lanesBox   *fyne.Container
	panels     map[string]panel
	book       *bookView
	controls   *playerControls
	search     *searchWindow
	progress   *progressDialog
	rangeLabel *widget.Label

	contentWidth    float32
	lastParseErr    error
	panicNoticeOnce sync.Once
	files           []string
	splash          time.Duration
}

func New(fa fyne.App, opts Options) *App {
	s := opts.Settings
	if s == nil {
		s = settings.Default()
	}
	fa.Settings().SetTheme(newTheme(s))

	player := media.NewPlayer(Post, media.WithWatchdog(s.WatchdogTick, s.WatchdogDeadline))
	a := &App{
		fyneApp:  fa,
		settings: s,
		tl:       editor.NewTimeline(aio.NewRegistry(), player, opts.Workspace),
		panels:   make(map[string]panel),
		files:    opts.Files,
		splash:   opts.SplashDelay,
	}
	a.tl.Subscribe(a.onEvent)
	a.tl.Book.Confirm = func(err error) bool {
		// The dialog cannot block: keep editing, then ask.
		a.lastParseErr = err
		return false
	}

	a.window = fa.NewWindow(version.Name)
	a.window.SetMaster()
	a.window.Resize(fyne.NewSize(float32(s.WindowWidth), float32(s.WindowHeight)))
	a.progress = newProgress(a.window)
	a.setupUI()
	return a
}

// Settings returns the settings, updated with the window size on quit.
func (a *App) Settings() *settings.Settings { return a.settings }

// Run shows the window and blocks until it is closed.
func (a *App) Run() {
	if len(a.files) > 0 {
		files := a.files
		safeDo("open.args", func() { a.openFiles(files) })
	}
	if a.splash > 0 {
		a.showSplash()
	}
	a.window.ShowAndRun()
}

func (a *App) showSplash() {
	drv, ok := a.fyneApp.Driver().(desktop.Driver)
	if !ok {
		return
	}
	w := drv.CreateSplashWindow()
	title := widget.NewLabel(version.Software())
	title.TextStyle = fyne.TextStyle{Bold: true}
	w.SetContent(container.NewPadded(container.NewCenter(title)))
	w.Show()
	delay := a.splash
	safeGo("splash", func() {
		time.Sleep(delay)
		safeDo("splash.close", w.Close)
	})
}

func (a *App) setupUI() {
	a.lanesBox = container.NewVBox()
	a.book = newBookView(a)
	a.controls = newPlayerControls(a)
	a.rangeLabel = widget.NewLabel("")

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.FolderOpenIcon(), a.showOpenDialog),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), a.saveAll),
		widget.NewToolbarAction(theme.CancelIcon(), a.closeFile),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentUndoIcon(), a.undo),
		widget.NewToolbarAction(theme.DeleteIcon(), a.deleteAnn),
		widget.NewToolbarAction(theme.ContentCutIcon(), func() { a.clip("cut", a.tl.CutTier) }),
		widget.NewToolbarAction(theme.ContentCopyIcon(), func() { a.clip("copy", a.tl.CopyTier) }),
		widget.NewToolbarAction(theme.ContentPasteIcon(), a.paste),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.SearchIcon(), a.showSearch),
		widget.NewToolbarAction(theme.ListIcon(), a.showSort),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.NavigateBackIcon(), func() { a.scroll(-0.5) }),
		widget.NewToolbarAction(theme.ZoomInIcon(), func() { a.zoom(0.5) }),
		widget.NewToolbarAction(theme.ZoomOutIcon(), func() { a.zoom(2) }),
		widget.NewToolbarAction(theme.ZoomFitIcon(), a.showAll),
		widget.NewToolbarAction(theme.NavigateNextIcon(), func() { a.scroll(0.5) }),
	)

	lanes := container.NewVScroll(a.lanesBox)
	split := container.NewVSplit(lanes, a.book.object())
	split.SetOffset(0.6)
	bottom := container.NewBorder(nil, nil, a.controls.object(), a.rangeLabel)
	a.window.SetContent(container.NewBorder(toolbar, bottom, nil, nil, split))

	c := a.window.Canvas()
	shortcut := func(k fyne.KeyName, fn func()) {
		c.AddShortcut(&desktop.CustomShortcut{KeyName: k, Modifier: fyne.KeyModifierShortcutDefault},
			func(fyne.Shortcut) { a.guard("shortcut", fn) })
	}
	shortcut(fyne.KeyO, a.showOpenDialog)
	shortcut(fyne.KeyS, a.saveAll)
	shortcut(fyne.KeyF, a.showSearch)
	shortcut(fyne.KeyZ, a.undo)

	a.window.SetOnDropped(func(_ fyne.Position, uris []fyne.URI) {
		var paths []string
		for _, u := range uris {
			paths = append(paths, u.Path())
		}
		a.openFiles(paths)
	})
	a.window.SetCloseIntercept(func() {
		if !a.tl.Dirty() {
			a.quit()
			return
		}
		dialog.ShowConfirm("Unsaved changes",
			"Some files have unsaved changes. Quit without saving them?",
			func(ok bool) {
				if ok {
					a.quit()
				}
			}, a.window)
	})
}

func (a *App) quit() {
	size := a.window.Canvas().Size()
	if size.Width > 0 && size.Height > 0 {
		a.settings.WindowWidth, a.settings.WindowHeight = int(size.Width), int(size.Height)
	}
	if a.search != nil {
		a.search.win.Close()
	}
	a.tl.Close()
	a.window.SetCloseIntercept(nil)
	a.window.Close()
}

func (a *App) showError(err error) {
	if err == nil {
		return
	}
	if !apperrors.IsRecoverable(err) {
		logger.Error("Editor action failed", "error", err)
	}
	dialog.ShowError(errors.New(apperrors.PublicMessage(err)), a.window)
}

// setContentWidth gives the lanes the width of their drawing area.
func (a *App) setContentWidth(w float32) {
	if w <= 0 || w == a.contentWidth {
		return
	}
	a.contentWidth = w
	a.tl.SetGeometry(0, float64(w))
	safeDo("lanes.resize", a.refreshPanels)
}

func (a *App) onEvent(e editor.Event) {
	switch e.Kind {
	case editor.EvTiersAdded, editor.EvTierRemoved:
		if p, ok := a.panels[e.File]; ok {
			p.rebuild()
		}
		a.book.rebuild()
	case editor.EvFileRemoved:
		a.syncPanels()
		a.book.rebuild()
	case editor.EvMediaLoaded, editor.EvMediaNotLoaded:
		if p, ok := a.panels[e.File]; ok {
			p.refresh()
		}
	case editor.EvAnnUpdate, editor.EvAnnCreate, editor.EvAnnDelete:
		if p, ok := a.panels[e.File]; ok {
			p.refresh()
		}
		a.book.refreshLists()
		if e.Index < 0 {
			a.book.sync()
		}
	case editor.EvAnnSelected:
		if l, ok := a.tl.Lane(e.File).(*editor.TrsLane); ok {
			if t := l.Transcription().Find(e.Tier); t != nil && t.At(e.Index) != nil {
				loc := t.At(e.Index).Location
				a.tl.Player.SetSelectionRange(loc.Begin.Midpoint, loc.End.Midpoint)
				a.controls.update()
			}
		}
	case editor.EvRangeChanged:
		start, end := a.tl.VisibleRange()
		a.rangeLabel.SetText(fmt.Sprintf("%s - %s", formatClock(start), formatClock(end)))
		a.refreshPanels()
	case editor.EvFileSaved, editor.EvTierSelected:
		a.refreshPanels()
	}
}

// syncPanels creates the panels of new lanes and lays them out in the
// timeline order.
func (a *App) syncPanels() {
	files := a.tl.Files()
	keep := make(map[string]bool, len(files))
	objs := make([]fyne.CanvasObject, 0, 2*len(files))
	for _, name := range files {
		keep[name] = true
		p, ok := a.panels[name]
		if !ok {
			switch l := a.tl.Lane(name).(type) {
			case *editor.TrsLane:
				p = newTrsPanel(a, l)
			case *editor.MediaLane:
				p = newMediaPanel(a, l)
			default:
				p = newErrorPanel(l)
			}
			a.panels[name] = p
		}
		if len(objs) > 0 {
			objs = append(objs, widget.NewSeparator())
		}
		objs = append(objs, p.object())
	}
	for name := range a.panels {
		if !keep[name] {
			delete(a.panels, name)
		}
	}
	a.lanesBox.Objects = objs
	a.lanesBox.Refresh()
}

func (a *App) refreshPanels() {
	for _, p := range a.panels {
		p.refresh()
	}
}

func (a *App) refreshVideo() {
	for _, p := range a.panels {
		if m, ok := p.(*mediaPanel); ok && m.lane.Kind() == editor.FileVideo {
			m.refresh()
		}
	}
}

func (a *App) refreshAll() {
	a.refreshPanels()
	a.book.refreshLists()
	a.book.sync()
}

// afterGesture reports the outcome of a pointer gesture on a lane.
func (a *App) afterGesture(r editor.Result) {
	switch r.Kind {
	case editor.ResultRejected:
		a.refreshPanels()
		a.showError(r.Err)
		return
	case editor.ResultNone:
		if a.tl.Book.State() == editor.BookPendingEdit {
			a.refreshAll()
			a.askCancelEdit()
			return
		}
	}
	a.refreshAll()
}

func (a *App) selectAnn(file, tier string, i int) {
	a.guard("book.select", func() {
		if !a.tl.Select(file, tier, i) {
			a.refreshAll()
			a.askCancelEdit()
			return
		}
		a.refreshAll()
	})
}

// askCancelEdit follows a refused selection change: the label being
// edited does not parse, and the user either cancels the edit or goes on
// fixing it.
func (a *App) askCancelEdit() {
	if a.tl.Book.State() != editor.BookPendingEdit {
		return
	}
	msg := "The label being edited does not parse"
	if a.lastParseErr != nil {
		msg += ":\n" + a.lastParseErr.Error()
	}
	dialog.ShowConfirm("Invalid label", msg+"\n\nCancel the edit and restore the label?", func(cancel bool) {
		if cancel {
			a.tl.Book.Discard()
			a.refreshAll()
			return
		}
		a.window.Canvas().Focus(a.book.entry)
	}, a.window)
}

func (a *App) showOpenDialog() {
	prefs := a.fyneApp.Preferences()
	fd := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
		if err != nil {
			a.showError(err)
			return
		}
		if r == nil {
			return
		}
		path := r.URI().Path()
		r.Close()
		prefs.SetString(prefLastDir, filepath.Dir(path))
		a.openFiles([]string{path})
	}, a.window)
	if dir := prefs.String(prefLastDir); dir != "" {
		if l, err := storage.ListerForURI(storage.NewFileURI(dir)); err == nil {
			fd.SetLocation(l)
		}
	}
	fd.Resize(fyne.NewSize(900, 640))
	fd.Show()
}

func (a *App) openFiles(paths []string) {
	a.guard("files.open", func() {
		var p editor.Progress
		if len(paths) > 1 {
			p = a.progress
		}
		err := a.tl.AppendFiles(paths, p)
		a.syncPanels()
		a.book.rebuild()
		if err != nil {
			a.showError(err)
		}
	})
}

func (a *App) saveAll() {
	a.guard("files.save", func() {
		var errs []error
		for _, name := range a.tl.Files() {
			if _, ok := a.tl.Lane(name).(*editor.TrsLane); !ok || !a.tl.FileDirty(name) {
				continue
			}
			if err := a.tl.SaveFile(name); err != nil {
				errs = append(errs, err)
			}
		}
		a.refreshPanels()
		if err := errors.Join(errs...); err != nil {
			if apperrors.IsParse(err) {
				a.askCancelEdit()
			}
			a.showError(err)
		}
	})
}

// closeFile closes the file of the selection, or asks which one.
func (a *App) closeFile() {
	files := a.tl.Files()
	if len(files) == 0 {
		return
	}
	if name := a.tl.Selection().File; name != "" {
		a.removeFile(name)
		return
	}
	if len(files) == 1 {
		a.removeFile(files[0])
		return
	}
	bases := make([]string, len(files))
	for i, f := range files {
		bases[i] = filepath.Base(f)
	}
	choice := widget.NewSelect(bases, nil)
	dialog.ShowCustomConfirm("Close file", "Close", "Cancel", choice, func(ok bool) {
		if ok && choice.SelectedIndex() >= 0 {
			a.removeFile(files[choice.SelectedIndex()])
		}
	}, a.window)
}

func (a *App) removeFile(name string) {
	err := a.tl.RemoveFile(name, false)
	if apperrors.IsDirty(err) {
		dialog.ShowConfirm("Unsaved changes",
			filepath.Base(name)+" has unsaved changes. Close it anyway?",
			func(ok bool) {
				if ok {
					a.showError(a.tl.RemoveFile(name, true))
				}
			}, a.window)
		return
	}
	a.showError(err)
}

func (a *App) undo() {
	a.guard("edit.undo", func() {
		if _, ok := a.tl.CanUndo(); !ok {
			return
		}
		a.showError(a.tl.Undo())
		a.refreshAll()
	})
}

func (a *App) deleteAnn() {
	a.guard("edit.delete", func() {
		if err := a.tl.DeleteAnn(); err != nil && !errors.Is(err, editor.ErrNoSelection) {
			a.showError(err)
		}
		a.refreshAll()
	})
}

func (a *App) clip(what string, fn func() error) {
	a.guard("tier."+what, func() {
		if err := fn(); err != nil {
			a.showError(err)
		}
		a.refreshAll()
	})
}

// paste appends the clipboard tiers to the selected file, or to the only
// opened transcription.
func (a *App) paste() {
	target := a.tl.Selection().File
	if target == "" {
		for _, name := range a.tl.Files() {
			if _, ok := a.tl.Lane(name).(*editor.TrsLane); ok {
				if target != "" {
					a.showError(errors.New("select a tier of the file to paste into"))
					return
				}
				target = name
			}
		}
	}
	a.clip("paste", func() error { return a.tl.PasteTiers(target) })
}

// showSort lets the user move files up and down, then reorders the lanes.
func (a *App) showSort() {
	order := a.tl.Files()
	if len(order) < 2 {
		return
	}
	selected := -1
	list := widget.NewList(
		func() int { return len(order) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, o fyne.CanvasObject) { o.(*widget.Label).SetText(filepath.Base(order[id])) },
	)
	list.OnSelected = func(id widget.ListItemID) { selected = id }
	move := func(d int) {
		j := selected + d
		if selected < 0 || j < 0 || j >= len(order) {
			return
		}
		order[selected], order[j] = order[j], order[selected]
		selected = j
		list.Refresh()
		list.Select(j)
	}
	buttons := container.NewHBox(
		widget.NewButtonWithIcon("", theme.MoveUpIcon(), func() { move(-1) }),
		widget.NewButtonWithIcon("", theme.MoveDownIcon(), func() { move(1) }),
	)
	d := dialog.NewCustomConfirm("Sort files", "OK", "Cancel",
		container.NewBorder(nil, buttons, nil, nil, list),
		func(ok bool) {
			if !ok {
				return
			}
			if err := a.tl.Reorder(order); err != nil {
				a.showError(err)
			}
			a.syncPanels()
		}, a.window)
	d.Resize(fyne.NewSize(400, 360))
	d.Show()
}

func (a *App) zoom(factor float64) {
	start, end := a.tl.VisibleRange()
	if s, e, ok := zoomWindow(start, end, a.tl.Player.Duration(), factor); ok {
		a.tl.SetVisibleRange(s, e)
	}
}

func (a *App) scroll(frac float64) {
	start, end := a.tl.VisibleRange()
	if s, e, ok := scrollWindow(start, end, a.tl.Player.Duration(), frac); ok {
		a.tl.SetVisibleRange(s, e)
	}
}

func (a *App) showAll() {
	if total := a.tl.Player.Duration(); total > 0 {
		a.tl.SetVisibleRange(0, total)
	}
}

// zoomWindow scales [start, end] around its centre, keeping it inside
// [0, total] and at least editor.MinDuration long.
func zoomWindow(start, end, total, factor float64) (float64, float64, bool) {
	if total <= 0 || factor <= 0 {
		return 0, 0, false
	}
	d := math.Min(total, math.Max((end-start)*factor, editor.MinDuration))
	c := (start + end) / 2
	return clampWindow(c-d/2, d, total)
}

// scrollWindow moves [start, end] by frac of its duration.
func scrollWindow(start, end, total, frac float64) (float64, float64, bool) {
	if total <= 0 || end <= start {
		return 0, 0, false
	}
	d := end - start
	return clampWindow(start+d*frac, d, total)
}

func clampWindow(start, d, total float64) (float64, float64, bool) {
	start = math.Max(0, math.Min(start, total-d))
	return start, start + d, true
}
