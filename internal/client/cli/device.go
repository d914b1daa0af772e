package cli

import (
	"context"
	"math"
	"time"

	"github.com/speakfluent/speakfluent/internal/audio"
)

// chunkQueueSize bounds the device-to-controller channel so a producer that
// outpaces the drain loop blocks instead of growing without limit.
const chunkQueueSize = 64

// ToneDevice is a stand-in capture device producing a quiet sine tone at the
// requested format. It emits one chunk per tick until released.
type ToneDevice struct {
	interval time.Duration
}

func NewToneDevice() *ToneDevice {
	return &ToneDevice{interval: 100 * time.Millisecond}
}

// Acquire starts producing chunks. The returned release function stops the
// producer and closes the channel.
func (d *ToneDevice) Acquire(ctx context.Context, format audio.Format) (<-chan []float32, func(), error) {
	if err := format.Validate(); err != nil {
		return nil, nil, err
	}

	chunks := make(chan []float32, chunkQueueSize)
	stop := make(chan struct{})

	go func() {
		defer close(chunks)
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()

		samplesPerChunk := format.SampleRate * format.Channels / 10
		phase := 0.0
		step := 2 * math.Pi * 440 / float64(format.SampleRate)

		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				chunk := make([]float32, samplesPerChunk)
				for i := range chunk {
					chunk[i] = float32(0.1 * math.Sin(phase))
					phase += step
				}
				select {
				case chunks <- chunk:
				case <-stop:
					return
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	var released bool
	release := func() {
		if !released {
			released = true
			close(stop)
		}
	}
	return chunks, release, nil
}
