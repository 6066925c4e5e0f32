package ui

import (
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const playTick = 40 * time.Millisecond

// playerControls plays the selection range of the loaded audio.
type playerControls struct {
	a     *App
	clock *widget.Label
	play  *widget.Button
	box   fyne.CanvasObject

	ticking bool
}

func newPlayerControls(a *App) *playerControls {
	c := &playerControls{a: a, clock: widget.NewLabel(formatClock(0))}
	c.play = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), c.toggle)
	stop := widget.NewButtonWithIcon("", theme.MediaStopIcon(), c.stop)
	back := widget.NewButtonWithIcon("", theme.MediaSkipPreviousIcon(), func() { c.seek(0) })
	c.box = container.NewHBox(back, c.play, stop, c.clock)
	return c
}

func (c *playerControls) object() fyne.CanvasObject { return c.box }

func (c *playerControls) toggle() {
	p := c.a.tl.Player
	if p.IsPlaying() {
		p.Pause()
		c.update()
		return
	}
	if err := p.Play(); err != nil {
		c.a.showError(err)
		return
	}
	c.update()
	c.startTicker()
}

func (c *playerControls) stop() {
	c.a.tl.Player.Stop()
	c.update()
}

func (c *playerControls) seek(t float64) {
	if err := c.a.tl.Player.Seek(t); err != nil {
		c.a.showError(err)
	}
	c.update()
}

// startTicker polls the output while playing; the polling runs off the UI
// goroutine and posts each refresh back.
func (c *playerControls) startTicker() {
	if c.ticking {
		return
	}
	c.ticking = true
	done := make(chan struct{})
	safeGo("player.ticker", func() {
		t := time.NewTicker(playTick)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				safeDo("player.tick", func() {
					if !c.ticking {
						return
					}
					c.a.tl.Player.Tick()
					c.update()
					c.a.refreshVideo()
					if !c.a.tl.Player.IsPlaying() {
						c.ticking = false
						close(done)
					}
				})
			}
		}
	})
}

func (c *playerControls) update() {
	p := c.a.tl.Player
	c.clock.SetText(formatClock(p.CurrentTime()))
	if p.IsPlaying() {
		c.play.SetIcon(theme.MediaPauseIcon())
	} else {
		c.play.SetIcon(theme.MediaPlayIcon())
	}
}

func formatClock(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	ms := int64(sec*1000 + 0.5)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}
