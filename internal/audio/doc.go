// Package audio implements the capture-side audio pipeline: a Buffer that
// accumulates raw PCM chunks delivered by a capture device, and a
// deterministic encoder that serializes a finished buffer into an
// uncompressed WAV container.
package audio
