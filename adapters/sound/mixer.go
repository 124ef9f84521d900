package sound

import (
	"sort"
	"sync"
)

// clip is a buffer placed at an absolute frame on the mixer clock
type clip struct {
	start   int64
	samples []float32
}

func (c clip) end() int64 { return c.start + int64(len(c.samples)) }

// mixer sums scheduled clips into output blocks and keeps the frame clock
type mixer struct {
	mu     sync.Mutex
	rate   int
	played int64
	clips  []clip
}

func newMixer(rate int) *mixer {
	return &mixer{rate: rate}
}

// now returns the number of seconds rendered so far
func (m *mixer) now() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return float64(m.played) / float64(m.rate)
}

// schedule places samples, already at the mixer rate, at clock time at
func (m *mixer) schedule(samples []float32, at float64) {
	if len(samples) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	start := int64(at*float64(m.rate) + 0.5)
	if start < m.played {
		start = m.played
	}
	m.clips = append(m.clips, clip{start: start, samples: samples})
	sort.SliceStable(m.clips, func(i, j int) bool { return m.clips[i].start < m.clips[j].start })
}

// clear drops every clip that has not finished playing
func (m *mixer) clear() {
	m.mu.Lock()
	m.clips = nil
	m.mu.Unlock()
}

// render fills out with the next block and advances the clock
func (m *mixer) render(out []float32) {
	for i := range out {
		out[i] = 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	from := m.played
	to := from + int64(len(out))
	kept := m.clips[:0]
	for _, c := range m.clips {
		if c.start < to && c.end() > from {
			lo := max(c.start, from)
			hi := min(c.end(), to)
			for f := lo; f < hi; f++ {
				out[f-from] += c.samples[f-c.start]
			}
		}
		if c.end() > to {
			kept = append(kept, c)
		}
	}
	m.clips = kept
	m.played = to

	for i, v := range out {
		if v > 1 {
			out[i] = 1
		} else if v < -1 {
			out[i] = -1
		}
	}
}

// pending reports how many clips are still queued
func (m *mixer) pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clips)
}

// resample converts samples between rates with linear interpolation
func resample(samples []float32, from, to int) []float32 {
	if from == to || len(samples) == 0 {
		return samples
	}
	n := int(int64(len(samples)) * int64(to) / int64(from))
	out := make([]float32, n)
	ratio := float64(from) / float64(to)
	last := len(samples) - 1
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= last {
			out[i] = samples[last]
			continue
		}
		frac := float32(pos - float64(idx))
		out[i] = samples[idx] + (samples[idx+1]-samples[idx])*frac
	}
	return out
}
