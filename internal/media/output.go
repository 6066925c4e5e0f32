package media

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// Output plays one stream at a time.
type Output interface {
	// Start replaces whatever is playing. done is called from the audio
	// goroutine when the stream ends.
	Start(s beep.Streamer, format beep.Format, done func()) error
	// Elapsed is the played duration of the current stream.
	Elapsed() time.Duration
	Pause(paused bool)
	Stop()
}

// speakerOutput plays through the default audio device.
type speakerOutput struct {
	once    sync.Once
	initErr error
	rate    beep.SampleRate

	ctrl   *beep.Ctrl
	played atomic.Int64
}

// NewSpeakerOutput returns the device output; the device is opened on
// the first Start, at that stream's sample rate.
func NewSpeakerOutput() Output { return &speakerOutput{} }

func (o *speakerOutput) Start(s beep.Streamer, format beep.Format, done func()) error {
	o.once.Do(func() {
		o.rate = format.SampleRate
		o.initErr = speaker.Init(o.rate, o.rate.N(time.Second/10))
	})
	if o.initErr != nil {
		return o.initErr
	}
	speaker.Clear()
	if format.SampleRate != o.rate {
		s = beep.Resample(4, format.SampleRate, o.rate, s)
	}
	o.played.Store(0)
	counted := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		n, ok := s.Stream(samples)
		o.played.Add(int64(n))
		return n, ok
	})
	speaker.Lock()
	o.ctrl = &beep.Ctrl{Streamer: beep.Seq(counted, beep.Callback(done))}
	speaker.Unlock()
	speaker.Play(o.ctrl)
	return nil
}

func (o *speakerOutput) Elapsed() time.Duration {
	if o.rate == 0 {
		return 0
	}
	return o.rate.D(int(o.played.Load()))
}

func (o *speakerOutput) Pause(paused bool) {
	speaker.Lock()
	if o.ctrl != nil {
		o.ctrl.Paused = paused
	}
	speaker.Unlock()
}

func (o *speakerOutput) Stop() {
	if o.rate == 0 {
		return
	}
	speaker.Clear()
	speaker.Lock()
	o.ctrl = nil
	speaker.Unlock()
}
