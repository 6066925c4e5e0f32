package media

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gopxl/beep"
)

// queue stands for the UI goroutine: the loaders post into it and the
// test runs the posted functions.
type queue chan func()

func (q queue) post(f func()) { q <- f }

func (q queue) next(t *testing.T) {
	t.Helper()
	select {
	case f := <-q:
		f()
	case <-time.After(2 * time.Second):
		t.Fatal("nothing posted")
	}
}

type fakeHandle struct {
	polls    atomic.Int32
	readyAt  int32
	duration float64
	closed   atomic.Bool
}

func (h *fakeHandle) Info() (Info, bool) {
	n := h.polls.Add(1)
	if h.readyAt < 0 || n < h.readyAt {
		return Info{}, false
	}
	return Info{Duration: h.duration}, true
}

func (h *fakeHandle) Close() error {
	h.closed.Store(true)
	return nil
}

func opener(h Handle, err error) OpenFunc {
	return func(string, Kind) (Handle, error) { return h, err }
}

func TestPlayer_LoadSucceedsAfterPolling(t *testing.T) {
	q := make(queue, 4)
	h := &fakeHandle{readyAt: 3, duration: 12.5}
	p := NewPlayer(q.post, WithOpener(opener(h, nil)), WithWatchdog(5*time.Millisecond, time.Second))
	var got []Event
	p.OnEvent = func(e Event) { got = append(got, e) }

	if err := p.Add("a.wav", Audio); err != nil {
		t.Fatal(err)
	}
	if p.Ready() != 0 || !p.Loading() {
		t.Fatalf("ready before load: %d", p.Ready())
	}
	q.next(t)

	if len(got) != 1 || !got[0].Loaded {
		t.Fatalf("events = %+v", got)
	}
	if e := p.Entry("a.wav"); e.State != Loaded || e.Info.Duration != 12.5 {
		t.Errorf("entry = %+v", e)
	}
	if p.Ready() != 1 || p.Duration() != 12.5 {
		t.Errorf("ready = %d, duration = %v", p.Ready(), p.Duration())
	}
}

func TestPlayer_WatchdogFailsWithoutDuration(t *testing.T) {
	q := make(queue, 4)
	h := &fakeHandle{readyAt: -1}
	p := NewPlayer(q.post, WithOpener(opener(h, nil)), WithWatchdog(5*time.Millisecond, 40*time.Millisecond))
	var got []Event
	p.OnEvent = func(e Event) { got = append(got, e) }

	p.Add("b.mp4", Video)
	q.next(t)

	if len(got) != 1 || got[0].Loaded || !errors.Is(got[0].Err, ErrTimeout) {
		t.Fatalf("events = %+v", got)
	}
	if e := p.Entry("b.mp4"); e.State != Failed {
		t.Errorf("state = %s, want failed", e.State)
	}
	if p.Ready() != 1 {
		t.Errorf("ready = %d, want 1", p.Ready())
	}
	if !h.closed.Load() {
		t.Errorf("timed-out handle not closed")
	}
}

func TestPlayer_OpenError(t *testing.T) {
	q := make(queue, 4)
	p := NewPlayer(q.post, WithOpener(opener(nil, ErrNotAudio)), WithWatchdog(time.Millisecond, time.Second))
	p.Add("c.wav", Audio)
	q.next(t)
	if e := p.Entry("c.wav"); e.State != Failed || !errors.Is(e.Err, ErrNotAudio) {
		t.Errorf("entry = %+v", e)
	}
	if p.Duration() != 0 {
		t.Errorf("failed media must not count in duration")
	}
}

func TestPlayer_RemovedWhileLoading(t *testing.T) {
	q := make(queue, 4)
	h := &fakeHandle{readyAt: 1, duration: 1}
	p := NewPlayer(q.post, WithOpener(opener(h, nil)))
	p.Add("d.wav", Audio)
	p.Remove("d.wav")
	q.next(t)
	if p.Entry("d.wav") != nil || !h.closed.Load() {
		t.Errorf("late load result should be dropped and closed")
	}
}

func TestPlayer_DurationAndRanges(t *testing.T) {
	p := NewPlayer(func(f func()) { f() })
	p.AddUnsupported("x.xra", 7)
	p.AddUnsupported("y.srt", 3)
	if p.Duration() != 7 || p.Ready() != 2 {
		t.Errorf("duration = %v, ready = %d", p.Duration(), p.Ready())
	}
	p.AddUnsupported("x.xra", 9)
	if p.Duration() != 9 {
		t.Errorf("duration not updated: %v", p.Duration())
	}

	p.SetSelectionRange(4, 2)
	if s, e := p.SelectionRange(); s != 2 || e != 4 {
		t.Errorf("selection = %v, %v", s, e)
	}
	if p.CurrentTime() != 2 {
		t.Errorf("current = %v, want selection start", p.CurrentTime())
	}
	p.Seek(100)
	if p.CurrentTime() != 9 {
		t.Errorf("seek not clamped: %v", p.CurrentTime())
	}
}

type fakeOutput struct {
	started int
	elapsed time.Duration
	done    func()
}

func (o *fakeOutput) Start(_ beep.Streamer, _ beep.Format, done func()) error {
	o.started++
	o.done = done
	return nil
}
func (o *fakeOutput) Elapsed() time.Duration { return o.elapsed }
func (o *fakeOutput) Pause(bool)             {}
func (o *fakeOutput) Stop()                  {}

func toneBuffer(seconds float64) *beep.Buffer {
	f := beep.Format{SampleRate: 1000, NumChannels: 1, Precision: 2}
	buf := beep.NewBuffer(f)
	n := int(seconds * 1000)
	i := 0
	buf.Append(beep.StreamerFunc(func(s [][2]float64) (int, bool) {
		k := 0
		for k < len(s) && i < n {
			v := float64(i%10)/5 - 1
			s[k] = [2]float64{v, v}
			k++
			i++
		}
		return k, k > 0
	}))
	return buf
}

func TestPlayer_PlayAndWaveform(t *testing.T) {
	q := make(queue, 4)
	h := newPCMHandle(toneBuffer(2))
	out := &fakeOutput{}
	p := NewPlayer(q.post, WithOpener(opener(h, nil)), WithOutput(out))
	p.Add("tone.wav", Audio)
	q.next(t)

	if d := p.Duration(); d != 2 {
		t.Fatalf("duration = %v", d)
	}
	p.SetSelectionRange(0.5, 1.5)
	if err := p.Play(); err != nil {
		t.Fatal(err)
	}
	out.elapsed = 250 * time.Millisecond
	if got := p.Tick(); got != 0.75 {
		t.Errorf("Tick = %v, want 0.75", got)
	}
	out.done()
	q.next(t)
	if p.IsPlaying() {
		t.Errorf("still playing after the stream ended")
	}

	peaks, err := p.Waveform("tone.wav", 0, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	// The buffer stores 16-bit samples.
	if len(peaks) != 10 || math.Abs(peaks[0].Min+1) > 1e-3 || math.Abs(peaks[0].Max-0.8) > 1e-3 {
		t.Errorf("peaks = %+v", peaks)
	}
	again, _ := p.Waveform("tone.wav", 0, 1, 10)
	if &again[0] != &peaks[0] {
		t.Errorf("second call should hit the cache")
	}
}

func TestPeaks(t *testing.T) {
	samples := []float64{0, 1, -1, 0.5, -0.5, 0.25}
	got := Peaks(samples, 3)
	want := []Peak{{0, 1}, {-1, 0.5}, {-0.5, 0.25}}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("column %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if Peaks(nil, 4) != nil || Peaks(samples, 0) != nil {
		t.Errorf("empty input should give nil")
	}
}

func TestInt16Streamer(t *testing.T) {
	pcm := []byte{0x00, 0x40, 0x00, 0xc0} // 16384, -16384
	s := int16Streamer(pcm, 2)
	buf := make([][2]float64, 4)
	n, ok := s.Stream(buf)
	if n != 1 || !ok || buf[0] != [2]float64{0.5, -0.5} {
		t.Fatalf("got n=%d ok=%v %v", n, ok, buf[0])
	}
	if n, ok := s.Stream(buf); n != 0 || ok {
		t.Fatalf("stream should be drained")
	}
}
