package media

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"github.com/tosone/minimp3"
)

// pcmHandle is an audio file decoded into memory.
type pcmHandle struct {
	buf  *beep.Buffer
	info Info
}

func newPCMHandle(buf *beep.Buffer) *pcmHandle {
	f := buf.Format()
	return &pcmHandle{
		buf: buf,
		info: Info{
			Duration:  f.SampleRate.D(buf.Len()).Seconds(),
			FrameRate: float64(f.SampleRate),
			SampWidth: f.Precision,
			Channels:  f.NumChannels,
		},
	}
}

func (h *pcmHandle) Info() (Info, bool) { return h.info, h.buf.Len() > 0 }

func (h *pcmHandle) Close() error { return nil }

func (h *pcmHandle) frames(start, end float64) (int, int) {
	sr := float64(h.buf.Format().SampleRate)
	a := clampInt(int(start*sr), 0, h.buf.Len())
	b := clampInt(int(end*sr), a, h.buf.Len())
	return a, b
}

func (h *pcmHandle) Samples(start, end float64) ([]float64, error) {
	a, b := h.frames(start, end)
	if a == b {
		return nil, ErrNoSamples
	}
	s := h.buf.Streamer(a, b)
	out := make([]float64, 0, b-a)
	chunk := make([][2]float64, 4096)
	for {
		n, ok := s.Stream(chunk)
		for _, fr := range chunk[:n] {
			out = append(out, (fr[0]+fr[1])/2)
		}
		if !ok || n == 0 {
			break
		}
	}
	return out, nil
}

func (h *pcmHandle) Stream(start, end float64) (beep.StreamSeeker, beep.Format) {
	a, b := h.frames(start, end)
	return h.buf.Streamer(a, b), h.buf.Format()
}

func openWAV(path string) (Handle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, format, err := wav.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAudio, err)
	}
	defer s.Close()
	buf := beep.NewBuffer(format)
	buf.Append(s)
	if err := s.Err(); err != nil {
		return nil, err
	}
	return newPCMHandle(buf), nil
}

func openMP3(path string) (Handle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dec, pcm, err := minimp3.DecodeFull(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAudio, err)
	}
	if dec.Channels < 1 || dec.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: no audio stream", ErrNotAudio)
	}
	format := beep.Format{SampleRate: beep.SampleRate(dec.SampleRate), NumChannels: dec.Channels, Precision: 2}
	buf := beep.NewBuffer(format)
	buf.Append(int16Streamer(pcm, dec.Channels))
	return newPCMHandle(buf), nil
}

// int16Streamer streams interleaved little-endian 16-bit PCM.
func int16Streamer(pcm []byte, channels int) beep.Streamer {
	frame := 2 * channels
	pos := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		n := 0
		for n < len(samples) && pos+frame <= len(pcm) {
			l := float64(int16(binary.LittleEndian.Uint16(pcm[pos:]))) / 32768
			r := l
			if channels > 1 {
				r = float64(int16(binary.LittleEndian.Uint16(pcm[pos+2:]))) / 32768
			}
			samples[n] = [2]float64{l, r}
			pos += frame
			n++
		}
		return n, n > 0
	})
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
