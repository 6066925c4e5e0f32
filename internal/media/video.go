//go:build !novideo

package media

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

type videoHandle struct {
	mu   sync.Mutex
	cap  *gocv.VideoCapture
	info Info
}

func openVideo(path string) (Handle, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotVideo, err)
	}
	fps := vc.Get(gocv.VideoCaptureFPS)
	frames := vc.Get(gocv.VideoCaptureFrameCount)
	h := &videoHandle{cap: vc, info: Info{
		FrameRate: fps,
		Width:     int(vc.Get(gocv.VideoCaptureFrameWidth)),
		Height:    int(vc.Get(gocv.VideoCaptureFrameHeight)),
	}}
	if fps > 0 && frames > 0 {
		h.info.Duration = frames / fps
	}
	return h, nil
}

func (h *videoHandle) Info() (Info, bool) { return h.info, h.info.Duration > 0 }

func (h *videoHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cap.Close()
}

// Frame grabs the frame shown at the given time.
func (h *videoHandle) Frame(at float64) (image.Image, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cap.Set(gocv.VideoCapturePosMsec, at*1000)
	mat := gocv.NewMat()
	defer mat.Close()
	if ok := h.cap.Read(&mat); !ok || mat.Empty() {
		return nil, fmt.Errorf("no frame at %.3fs", at)
	}
	return mat.ToImage()
}
