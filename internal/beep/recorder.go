package beep

import (
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Recorder writes the tone, one timer tick at a time, to a mono 16-bit WAV
// file. Close must be called to finalize the header.
type Recorder struct {
	enc   *wav.Encoder
	tone  *Tone
	buf   *audio.IntBuffer
	ticks int
}

func NewRecorder(w io.WriteSeeker) *Recorder {
	return &Recorder{
		enc:  wav.NewEncoder(w, SampleRate, 16, 1, 1),
		tone: NewTone(1),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: SampleRate},
			Data:           make([]int, SamplesPerTick),
			SourceBitDepth: 16,
		},
	}
}

// Tick appends one tick worth of samples, audible if active is set.
func (r *Recorder) Tick(active bool) error {
	r.tone.SetActive(active)
	for i := range r.buf.Data {
		r.buf.Data[i] = int(r.tone.Sample())
	}
	if err := r.enc.Write(r.buf); err != nil {
		return fmt.Errorf("writing samples: %w", err)
	}
	r.ticks++
	return nil
}

// Samples returns the number of samples written so far.
func (r *Recorder) Samples() int { return r.ticks * SamplesPerTick }

func (r *Recorder) Close() error {
	if err := r.enc.Close(); err != nil {
		return fmt.Errorf("closing wav encoder: %w", err)
	}
	return nil
}
