// Package beep generates the single square-wave tone the machine can play
// while its sound timer is non-zero.
package beep

import (
	"encoding/binary"
	"sync/atomic"
)

const (
	SampleRate = 44100
	Frequency  = 440
	Amplitude  = 8000

	// SamplesPerTick is the number of samples covering one 60 Hz timer tick.
	SamplesPerTick = SampleRate / 60
)

// Tone is an endless 16-bit little-endian PCM stream. It plays the square
// wave while active and silence otherwise. SetActive may be called from the
// emulation goroutine while an audio backend reads from another.
type Tone struct {
	active   atomic.Bool
	muted    atomic.Bool
	channels int
	pos      uint64 // samples emitted while active; reader side only
}

// NewTone creates a stream with the given number of interleaved channels.
func NewTone(channels int) *Tone {
	if channels < 1 {
		channels = 1
	}
	return &Tone{channels: channels}
}

func (t *Tone) SetActive(on bool) { t.active.Store(on) }
func (t *Tone) Active() bool      { return t.active.Load() }

func (t *Tone) SetMuted(m bool) { t.muted.Store(m) }
func (t *Tone) Muted() bool     { return t.muted.Load() }

// FrameSize is the byte length of one sample across all channels.
func (t *Tone) FrameSize() int { return 2 * t.channels }

// Sample returns the next mono sample and advances the waveform.
func (t *Tone) Sample() int16 {
	if !t.active.Load() || t.muted.Load() {
		t.pos = 0
		return 0
	}
	// half periods elapsed, 2*f per second
	half := t.pos * 2 * Frequency / SampleRate
	t.pos++
	if half%2 == 0 {
		return Amplitude
	}
	return -Amplitude
}

func (t *Tone) Read(p []byte) (int, error) {
	fs := t.FrameSize()
	if len(p) < fs {
		clear(p)
		return len(p), nil
	}
	n := len(p) / fs * fs
	for i := 0; i < n; i += fs {
		s := uint16(t.Sample())
		for c := 0; c < t.channels; c++ {
			binary.LittleEndian.PutUint16(p[i+2*c:], s)
		}
	}
	return n, nil
}
