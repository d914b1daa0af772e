package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/speakfluent/speakfluent/internal/common"
)

// MediaType is the declared media type of encoded payloads.
const MediaType = "audio/wav"

// headerSize is the byte length of the canonical RIFF/WAVE header;
// declaredSizeBase is the RIFF convention of "36 + data length".
const (
	headerSize       = 44
	declaredSizeBase = 36
)

// wavHeader is the canonical 44-byte RIFF/WAVE header for linear PCM.
// All multi-byte fields are little-endian on the wire.
type wavHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // 36 + Subchunk2Size
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 = linear PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32 // SampleRate * NumChannels * BitsPerSample/8
	BlockAlign    uint16 // NumChannels * BitsPerSample/8
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // byte length of the sample data
}

// Payload is an immutable encoded audio container plus its media type.
type Payload struct {
	Data      []byte
	MediaType string
}

// Encode serializes finalized samples into a WAV container. Samples are
// interleaved float32 PCM in [-1, 1]; each is converted to signed 16-bit
// with negative values scaled by 32768 and positive by 32767, rounding half
// away from zero, then clamped to the int16 range.
//
// Encode is pure: identical samples and format always yield byte-identical
// output. Zero samples is valid and produces a header-only container with a
// declared total size of 36.
func Encode(samples []float32, format Format) (*Payload, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	// The data section is always signed 16-bit PCM; any other declared depth
	// would produce a header inconsistent with the payload.
	if format.BitDepth != 16 {
		return nil, fmt.Errorf("%w: unsupported bit depth %d (only 16-bit PCM)", common.ErrEncoding, format.BitDepth)
	}

	dataSize := uint32(len(samples) * 2)

	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     declaredSizeBase + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   uint16(format.Channels),
		SampleRate:    uint32(format.SampleRate),
		ByteRate:      uint32(format.SampleRate * format.Channels * format.BitDepth / 8),
		BlockAlign:    uint16(format.BlockAlign()),
		BitsPerSample: uint16(format.BitDepth),
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, headerSize+len(samples)*2))

	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}

	pcm := make([]int16, len(samples))
	for i, s := range samples {
		pcm[i] = sampleToInt16(s)
	}
	if err := binary.Write(buf, binary.LittleEndian, pcm); err != nil {
		return nil, fmt.Errorf("failed to write WAV data: %w", err)
	}

	return &Payload{Data: buf.Bytes(), MediaType: MediaType}, nil
}

// sampleToInt16 converts one float sample to signed 16-bit PCM. The scale is
// asymmetric to match the signed 16-bit range: -1.0 maps to -32768 and +1.0
// to 32767.
func sampleToInt16(s float32) int16 {
	f := float64(s)
	if f < -1 {
		f = -1
	} else if f > 1 {
		f = 1
	}

	var v float64
	if f < 0 {
		v = f * 32768
	} else {
		v = f * 32767
	}

	// math.Round rounds half away from zero.
	v = math.Round(v)
	if v < math.MinInt16 {
		v = math.MinInt16
	} else if v > math.MaxInt16 {
		v = math.MaxInt16
	}
	return int16(v)
}

// Decode parses a WAV container produced by Encode (or a compatible linear
// PCM-16 encoder) and returns the raw int16 samples plus the declared format.
func Decode(data []byte) ([]int16, Format, error) {
	var format Format

	if len(data) < headerSize {
		return nil, format, fmt.Errorf("WAV data too short: need at least %d bytes, got %d", headerSize, len(data))
	}

	var header wavHeader
	buf := bytes.NewReader(data)
	if err := binary.Read(buf, binary.LittleEndian, &header); err != nil {
		return nil, format, fmt.Errorf("failed to read WAV header: %w", err)
	}

	if string(header.ChunkID[:]) != "RIFF" || string(header.Format[:]) != "WAVE" {
		return nil, format, fmt.Errorf("invalid WAV file: missing RIFF/WAVE markers")
	}
	if string(header.Subchunk1ID[:]) != "fmt " || string(header.Subchunk2ID[:]) != "data" {
		return nil, format, fmt.Errorf("invalid WAV file: missing fmt/data chunks")
	}
	if header.AudioFormat != 1 {
		return nil, format, fmt.Errorf("unsupported audio format tag %d (only linear PCM)", header.AudioFormat)
	}
	if header.BitsPerSample != 16 {
		return nil, format, fmt.Errorf("unsupported bit depth %d (only 16-bit)", header.BitsPerSample)
	}

	format = Format{
		SampleRate: int(header.SampleRate),
		Channels:   int(header.NumChannels),
		BitDepth:   int(header.BitsPerSample),
	}

	numSamples := int(header.Subchunk2Size) / 2
	samples := make([]int16, numSamples)
	if numSamples > 0 {
		if err := binary.Read(buf, binary.LittleEndian, samples); err != nil {
			return nil, format, fmt.Errorf("failed to read WAV samples: %w", err)
		}
	}
	return samples, format, nil
}

// Validate checks that data starts with a structurally sound PCM-16 WAV
// header without reading the sample payload.
func Validate(data []byte) error {
	if _, _, err := Decode(data); err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	return nil
}

// Duration computes the clip length in seconds from the container header.
func Duration(data []byte) (float64, error) {
	samples, format, err := Decode(data)
	if err != nil {
		return 0, err
	}
	if format.SampleRate <= 0 || format.Channels <= 0 {
		return 0, fmt.Errorf("invalid format in header")
	}
	frames := len(samples) / format.Channels
	return float64(frames) / float64(format.SampleRate), nil
}
