package media

import (
	"fmt"
	"image"
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"

	"github.com/sppas/phoenix/internal/logger"
)

// Default watchdog bounds of a load.
const (
	DefaultTick     = 500 * time.Millisecond
	DefaultDeadline = 3 * time.Second
)

// State of a player entry.
type State int

const (
	Loading State = iota
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	}
	return "loading"
}

// Event reports the end of a load.
type Event struct {
	Name   string
	Kind   Kind
	Loaded bool
	Err    error
}

// Entry is one medium known to the player.
type Entry struct {
	Name   string
	Kind   Kind
	State  State
	Info   Info
	Err    error
	Volume float64

	handle Handle
}

// Player owns the media of the editor and the canonical visible window.
// Except for the loader goroutines, which only call post, every method
// must run on the UI goroutine.
type Player struct {
	// OnEvent receives load results on the UI goroutine.
	OnEvent func(Event)

	post     func(func())
	open     OpenFunc
	out      Output
	tick     time.Duration
	deadline time.Duration
	waves    *waveCache

	entries []*Entry

	visStart, visEnd float64
	selStart, selEnd float64
	current          float64
	playing          bool
	paused           bool
	playFrom         float64
	playGen          int
}

type Option func(*Player)

// WithWatchdog sets the poll interval and deadline of loads.
func WithWatchdog(tick, deadline time.Duration) Option {
	return func(p *Player) {
		if tick > 0 {
			p.tick = tick
		}
		if deadline > 0 {
			p.deadline = deadline
		}
	}
}

func WithOpener(open OpenFunc) Option { return func(p *Player) { p.open = open } }

func WithOutput(out Output) Option { return func(p *Player) { p.out = out } }

// NewPlayer returns an empty player. post runs a function on the UI
// goroutine; with fyne it is fyne.Do.
func NewPlayer(post func(func()), opts ...Option) *Player {
	p := &Player{
		post:     post,
		open:     OpenFile,
		tick:     DefaultTick,
		deadline: DefaultDeadline,
		waves:    newWaveCache(64),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Player) Entries() []*Entry { return p.entries }

func (p *Player) Entry(name string) *Entry {
	for _, e := range p.entries {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// Add starts loading an audio or video file. The result arrives through
// OnEvent; a load without a duration after the deadline fails.
func (p *Player) Add(name string, kind Kind) error {
	if p.Entry(name) != nil {
		return fmt.Errorf("%s is already in the player", name)
	}
	e := &Entry{Name: name, Kind: kind, State: Loading, Volume: 1}
	p.entries = append(p.entries, e)
	go p.load(name, kind)
	return nil
}

// AddUnsupported registers a file the player cannot play but whose
// duration counts, such as a transcription.
func (p *Player) AddUnsupported(name string, duration float64) {
	if e := p.Entry(name); e != nil {
		e.Info.Duration = duration
		return
	}
	p.entries = append(p.entries, &Entry{
		Name:  name,
		Kind:  Unsupported,
		State: Loaded,
		Info:  Info{Duration: duration},
	})
}

type openResult struct {
	h   Handle
	err error
}

// load runs on its own goroutine. It never touches the player state;
// the outcome is posted to the UI goroutine.
func (p *Player) load(name string, kind Kind) {
	start := time.Now()
	opened := make(chan openResult, 1)
	go func() {
		h, err := p.open(name, kind)
		opened <- openResult{h, err}
	}()

	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	timeout := time.NewTimer(p.deadline)
	defer timeout.Stop()

	var h Handle
	for {
		select {
		case r := <-opened:
			if r.err != nil {
				p.finish(name, nil, r.err)
				return
			}
			h = r.h
			if _, ok := h.Info(); ok {
				p.finish(name, h, nil)
				return
			}
			opened = nil
		case <-ticker.C:
			if h == nil {
				continue
			}
			if _, ok := h.Info(); ok {
				p.finish(name, h, nil)
				return
			}
		case <-timeout.C:
			if h != nil {
				h.Close()
			} else {
				// The open may still succeed later; release it then.
				go func(c chan openResult) {
					if r := <-c; r.h != nil {
						r.h.Close()
					}
				}(opened)
			}
			logger.Warn("Media load timed out", "name", name, "after", time.Since(start))
			p.finish(name, nil, ErrTimeout)
			return
		}
	}
}

func (p *Player) finish(name string, h Handle, err error) {
	p.post(func() {
		e := p.Entry(name)
		if e == nil {
			// Removed while loading.
			if h != nil {
				h.Close()
			}
			return
		}
		ev := Event{Name: name, Kind: e.Kind}
		if err != nil {
			e.State, e.Err = Failed, err
			ev.Err = err
		} else {
			e.State, e.handle = Loaded, h
			e.Info, _ = h.Info()
			ev.Loaded = true
		}
		logger.Debug("Media load finished", "name", name, "state", e.State.String())
		if p.OnEvent != nil {
			p.OnEvent(ev)
		}
	})
}

// Remove forgets a medium and closes it.
func (p *Player) Remove(name string) {
	for i, e := range p.entries {
		if e.Name != name {
			continue
		}
		if e.handle != nil {
			e.handle.Close()
		}
		p.entries = append(p.entries[:i], p.entries[i+1:]...)
		p.waves.forget(name)
		return
	}
}

// Ready counts the entries whose load is over, failed ones included.
func (p *Player) Ready() int {
	n := 0
	for _, e := range p.entries {
		if e.State != Loading {
			n++
		}
	}
	return n
}

func (p *Player) Loading() bool { return p.Ready() < len(p.entries) }

// Duration is the longest duration of the loaded entries.
func (p *Player) Duration() float64 {
	var d float64
	for _, e := range p.entries {
		if e.State == Loaded {
			d = math.Max(d, e.Info.Duration)
		}
	}
	return d
}

// SetVisibleRange sets the window shown by all lanes.
func (p *Player) SetVisibleRange(start, end float64) {
	p.visStart, p.visEnd = start, end
}

func (p *Player) VisibleRange() (float64, float64) { return p.visStart, p.visEnd }

// SetSelectionRange sets the part played by Play. The current time moves
// to its start when it falls outside.
func (p *Player) SetSelectionRange(start, end float64) {
	if end < start {
		start, end = end, start
	}
	p.selStart, p.selEnd = start, end
	if p.current < start || p.current > end {
		p.current = start
	}
}

func (p *Player) SelectionRange() (float64, float64) { return p.selStart, p.selEnd }

// CurrentTime is the playback position, updated by Tick while playing.
func (p *Player) CurrentTime() float64 { return p.current }

// Seek moves the playback position, restarting playback from there.
func (p *Player) Seek(t float64) error {
	p.current = math.Max(0, math.Min(t, p.Duration()))
	if p.playing {
		p.out.Stop()
		p.paused = false
		return p.Play()
	}
	return nil
}

func (p *Player) IsPlaying() bool { return p.playing && !p.paused }

// SetVolume sets the volume of one medium, 0 muting it and 1 the nominal level.
func (p *Player) SetVolume(name string, v float64) {
	if e := p.Entry(name); e != nil {
		e.Volume = math.Max(0, v)
	}
}

// Play mixes the loaded audio from the current time to the end of the
// selection, or of the media without a selection.
func (p *Player) Play() error {
	if p.out == nil {
		p.out = NewSpeakerOutput()
	}
	if p.paused {
		p.paused = false
		p.out.Pause(false)
		return nil
	}
	end := p.selEnd
	if end <= p.current {
		end = p.Duration()
	}
	var (
		streams []beep.Streamer
		format  beep.Format
	)
	for _, e := range p.entries {
		a, ok := e.handle.(AudioHandle)
		if !ok || e.State != Loaded {
			continue
		}
		s, f := a.Stream(p.current, end)
		if len(streams) == 0 {
			format = f
		} else if f.SampleRate != format.SampleRate {
			s2 := beep.Resample(4, f.SampleRate, format.SampleRate, s)
			streams = append(streams, volume(s2, e.Volume))
			continue
		}
		streams = append(streams, volume(s, e.Volume))
	}
	if len(streams) == 0 {
		return fmt.Errorf("%w: nothing to play", ErrNotAudio)
	}
	p.playFrom = p.current
	p.playing = true
	p.playGen++
	gen := p.playGen
	return p.out.Start(beep.Mix(streams...), format, func() {
		p.post(func() {
			if gen == p.playGen {
				p.playing = false
			}
		})
	})
}

func volume(s beep.Streamer, v float64) beep.Streamer {
	if v == 1 {
		return s
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(math.Max(v, 1e-6)), Silent: v == 0}
}

func (p *Player) Pause() {
	if p.playing && !p.paused && p.out != nil {
		p.paused = true
		p.out.Pause(true)
	}
}

// Stop ends playback and rewinds to the start of the selection.
func (p *Player) Stop() {
	if p.out != nil {
		p.out.Stop()
	}
	p.playing, p.paused = false, false
	p.current = p.selStart
}

// Tick refreshes the current time from the output. The UI calls it from
// a timer while playing.
func (p *Player) Tick() float64 {
	if p.playing && p.out != nil {
		p.current = p.playFrom + p.out.Elapsed().Seconds()
	}
	return p.current
}

// Waveform returns the peaks of an audio file over [start, end] for the
// given number of pixel columns.
func (p *Player) Waveform(name string, start, end float64, columns int) ([]Peak, error) {
	e := p.Entry(name)
	if e == nil {
		return nil, ErrUnknown
	}
	a, ok := e.handle.(AudioHandle)
	if !ok {
		return nil, ErrNotAudio
	}
	key := waveKey{name: name, start: start, end: end, columns: columns}
	if peaks, ok := p.waves.get(key); ok {
		return peaks, nil
	}
	samples, err := a.Samples(start, end)
	if err != nil {
		return nil, err
	}
	peaks := Peaks(samples, columns)
	p.waves.add(key, peaks)
	return peaks, nil
}

// Frame returns the video frame shown at t.
func (p *Player) Frame(name string, t float64) (image.Image, error) {
	e := p.Entry(name)
	if e == nil {
		return nil, ErrUnknown
	}
	v, ok := e.handle.(VideoHandle)
	if !ok {
		return nil, ErrNotVideo
	}
	return v.Frame(t)
}

// Close releases every medium.
func (p *Player) Close() {
	p.Stop()
	for _, e := range p.entries {
		if e.handle != nil {
			e.handle.Close()
		}
	}
	p.entries = nil
}
