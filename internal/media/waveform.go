package media

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Peak is the sample range of one pixel column.
type Peak struct {
	Min, Max float64
}

// Peaks reduces samples to columns min/max pairs.
func Peaks(samples []float64, columns int) []Peak {
	if columns <= 0 || len(samples) == 0 {
		return nil
	}
	out := make([]Peak, columns)
	per := float64(len(samples)) / float64(columns)
	for c := range out {
		a := int(float64(c) * per)
		b := int(float64(c+1) * per)
		if b <= a {
			b = a + 1
		}
		if b > len(samples) {
			b = len(samples)
		}
		if a >= b {
			out[c] = out[max(c-1, 0)]
			continue
		}
		p := Peak{Min: samples[a], Max: samples[a]}
		for _, s := range samples[a+1 : b] {
			p.Min = min(p.Min, s)
			p.Max = max(p.Max, s)
		}
		out[c] = p
	}
	return out
}

type waveKey struct {
	name       string
	start, end float64
	columns    int
}

// waveCache keeps the peaks of recently drawn windows so that repaints
// and small scrolls back do not decode again.
type waveCache struct {
	c *lru.Cache[waveKey, []Peak]
}

func newWaveCache(size int) *waveCache {
	c, err := lru.New[waveKey, []Peak](size)
	if err != nil {
		// Only for size <= 0.
		c, _ = lru.New[waveKey, []Peak](1)
	}
	return &waveCache{c: c}
}

func (w *waveCache) get(k waveKey) ([]Peak, bool) { return w.c.Get(k) }

func (w *waveCache) add(k waveKey, p []Peak) { w.c.Add(k, p) }

// forget drops the windows of one file.
func (w *waveCache) forget(name string) {
	for _, k := range w.c.Keys() {
		if k.name == name {
			w.c.Remove(k)
		}
	}
}
