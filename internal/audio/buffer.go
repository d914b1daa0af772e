package audio

import (
	"fmt"
	"sync"

	"github.com/speakfluent/speakfluent/internal/common"
)

// Format describes the fixed PCM parameters of one capture session.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// DefaultFormat matches what the capture device is asked for: 16 kHz mono
// 16-bit PCM.
var DefaultFormat = Format{SampleRate: 16000, Channels: 1, BitDepth: 16}

// Validate reports whether every format field is positive.
func (f Format) Validate() error {
	if f.SampleRate <= 0 || f.Channels <= 0 || f.BitDepth <= 0 {
		return fmt.Errorf("%w: invalid format %+v", common.ErrEncoding, f)
	}
	return nil
}

// BlockAlign is the byte size of one frame (all channels of one sample
// instant).
func (f Format) BlockAlign() int {
	return f.Channels * f.BitDepth / 8
}

// Buffer accumulates float32 PCM sample chunks delivered over time into one
// ordered sequence. Append and Finalize are mutually exclusive: the chunk
// producer may run concurrently with the controller, but once Finalize
// returns, no chunk can be observed to land in the buffer.
//
// Finalize is single-shot; both Append and a second Finalize fail with
// common.ErrInvalidState afterwards.
type Buffer struct {
	mu        sync.Mutex
	format    Format
	samples   []float32
	finalized bool
}

// NewBuffer returns an empty buffer for the given format.
func NewBuffer(format Format) *Buffer {
	return &Buffer{
		format:  format,
		samples: make([]float32, 0, format.SampleRate*2),
	}
}

// Append adds a chunk of interleaved samples to the tail.
func (b *Buffer) Append(chunk []float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.finalized {
		return fmt.Errorf("%w: append after finalize", common.ErrInvalidState)
	}
	b.samples = append(b.samples, chunk...)
	return nil
}

// Finalize freezes the buffer and returns the concatenation of all appended
// chunks. An empty buffer finalizes to a valid zero-length sample sequence.
func (b *Buffer) Finalize() ([]float32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.finalized {
		return nil, fmt.Errorf("%w: buffer already finalized", common.ErrInvalidState)
	}
	b.finalized = true
	return b.samples, nil
}

// Len returns the number of samples accumulated so far.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples)
}

// Format returns the fixed format descriptor of this capture session.
func (b *Buffer) Format() Format {
	return b.format
}
