package ui

import (
	"fmt"

	"fyne.io/fyne/v2"

	"github.com/sppas/phoenix/internal/logger"
)

// withPanicGuard runs fn and turns a panic into a log entry, so that a
// failing action never takes the editor down.
func withPanicGuard(scope string, onPanic func(any), fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Recovered panic", "scope", scope, "panic", fmt.Sprint(r))
			if onPanic != nil {
				onPanic(r)
			}
		}
	}()
	fn()
}

func safeGo(scope string, fn func()) {
	go func() {
		withPanicGuard(scope, nil, fn)
	}()
}

// safeDo runs fn on the UI goroutine.
func safeDo(scope string, fn func()) {
	withPanicGuard(scope+".dispatch", nil, func() {
		fyne.Do(func() {
			withPanicGuard(scope, nil, fn)
		})
	})
}

// Post is the function the media player uses to reach the UI goroutine.
func Post(fn func()) { safeDo("media.post", fn) }

func (a *App) guard(scope string, fn func()) {
	withPanicGuard(scope, func(r any) { a.handleRecoveredPanic(scope, r) }, fn)
}

func (a *App) handleRecoveredPanic(scope string, _ any) {
	if a == nil || a.window == nil {
		return
	}
	a.panicNoticeOnce.Do(func() {
		safeDo("panic.notice", func() {
			a.showError(fmt.Errorf("an internal error occurred in %s; save your work and restart the editor", scope))
		})
	})
}
