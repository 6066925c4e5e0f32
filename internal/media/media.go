// Package media loads audio and video companions of the transcriptions
// and publishes the visible window, selection and playback time shared by
// all lanes.
package media

import (
	"errors"
	"image"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep"
)

// Kind of a player entry.
type Kind int

const (
	Audio Kind = iota
	Video
	// Unsupported entries only contribute their duration.
	Unsupported
)

func (k Kind) String() string {
	switch k {
	case Audio:
		return "audio"
	case Video:
		return "video"
	}
	return "unsupported"
}

// Info describes a loaded medium.
type Info struct {
	Duration float64
	// FrameRate is the sample rate of audio or the frame rate of video.
	FrameRate float64
	SampWidth int
	Channels  int
	Width     int
	Height    int
}

var (
	ErrNotAudio  = errors.New("not an audio file")
	ErrNotVideo  = errors.New("not a video file")
	ErrNoVideo   = errors.New("video support is not built in")
	ErrTimeout   = errors.New("media did not report a duration in time")
	ErrUnknown   = errors.New("no such media")
	ErrNoSamples = errors.New("no samples in range")
)

// Handle is an opened medium.
type Handle interface {
	// Info is valid once ok is true. It may be called from any goroutine.
	Info() (Info, bool)
	Close() error
}

// AudioHandle gives access to decoded samples.
type AudioHandle interface {
	Handle
	// Samples returns mono samples in [-1, 1] for [start, end] seconds.
	Samples(start, end float64) ([]float64, error)
	// Stream plays [start, end] seconds.
	Stream(start, end float64) (beep.StreamSeeker, beep.Format)
}

// VideoHandle grabs frames.
type VideoHandle interface {
	Handle
	Frame(at float64) (image.Image, error)
}

// OpenFunc opens a medium; it runs on a loader goroutine.
type OpenFunc func(path string, kind Kind) (Handle, error)

// OpenFile is the default OpenFunc: wav and other PCM through beep, mp3
// through minimp3, video through OpenCV.
func OpenFile(path string, kind Kind) (Handle, error) {
	switch kind {
	case Audio:
		if strings.EqualFold(filepath.Ext(path), ".mp3") {
			return openMP3(path)
		}
		return openWAV(path)
	case Video:
		return openVideo(path)
	}
	return nil, ErrNotAudio
}
