package editor

import (
	"github.com/sppas/phoenix/internal/apperrors"
)

// FileKind tells how an opened file is shown.
type FileKind int

const (
	FileUnknown FileKind = iota
	FileTranscription
	FileAudio
	FileVideo
)

func (k FileKind) String() string {
	switch k {
	case FileTranscription:
		return "transcription"
	case FileAudio:
		return "audio"
	case FileVideo:
		return "video"
	}
	return "unknown"
}

// Lane is the row of one opened file in the timeline.
type Lane interface {
	Name() string
	Kind() FileKind
	// Dirty reports unsaved changes.
	Dirty() bool
	SetVisibleRange(start, end float64)
	// Err is the message shown instead of the content, if any.
	Err() error
}

// MediaState is the load state of an audio or video lane.
type MediaState int

const (
	MediaLoading MediaState = iota
	MediaLoaded
	MediaFailed
)

func (s MediaState) String() string {
	switch s {
	case MediaLoaded:
		return "loaded"
	case MediaFailed:
		return "failed"
	}
	return "loading"
}

// MediaLane shows an audio waveform or video frames. It collapses and
// shows its error when the media cannot be loaded.
type MediaLane struct {
	name       string
	kind       FileKind
	state      MediaState
	err        error
	start, end float64
}

func NewMediaLane(name string, kind FileKind) *MediaLane {
	return &MediaLane{name: name, kind: kind}
}

func (l *MediaLane) Name() string      { return l.name }
func (l *MediaLane) Kind() FileKind    { return l.kind }
func (l *MediaLane) Dirty() bool       { return false }
func (l *MediaLane) Err() error        { return l.err }
func (l *MediaLane) State() MediaState { return l.state }

// Collapsed lanes only show their name and error.
func (l *MediaLane) Collapsed() bool { return l.state == MediaFailed }

func (l *MediaLane) SetVisibleRange(start, end float64) { l.start, l.end = start, end }

func (l *MediaLane) VisibleRange() (float64, float64) { return l.start, l.end }

func (l *MediaLane) setLoaded() {
	l.state = MediaLoaded
	l.err = nil
}

func (l *MediaLane) setFailed(err error) {
	l.state = MediaFailed
	l.err = apperrors.MediaLoad(err)
}

// ErrorLane stands for a file no reader accepted.
type ErrorLane struct {
	name string
	err  error
}

func NewErrorLane(name string, err error) *ErrorLane {
	return &ErrorLane{name: name, err: err}
}

func (l *ErrorLane) Name() string               { return l.name }
func (l *ErrorLane) Kind() FileKind             { return FileUnknown }
func (l *ErrorLane) Dirty() bool                { return false }
func (l *ErrorLane) Err() error                 { return l.err }
func (l *ErrorLane) SetVisibleRange(_, _ float64) {}
