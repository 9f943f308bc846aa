package codec

import (
	"fmt"
)

// MaxAudioFrameSize is the maximum amount of bytes that a decoder returns
// in a single call.
const MaxAudioFrameSize = 19200

// PCM is a decoder of signed 16-bit samples.
// Output is always little-endian.
// It returns at most MaxFrameSize bytes per call, therefore large packets
// are consumed in several calls.
type PCM struct {
	Channels     int
	BigEndian    bool
	MaxFrameSize int
}

// Decode implements AudioDecoder.
func (d *PCM) Decode(payload []byte) (int, []byte, error) {
	blockAlign := 2 * d.Channels
	if blockAlign <= 0 {
		return 0, nil, fmt.Errorf("invalid channel count: %d", d.Channels)
	}

	if len(payload) < blockAlign {
		return 0, nil, fmt.Errorf("%w: %d bytes left, block is %d bytes",
			ErrInvalidPayload, len(payload), blockAlign)
	}

	n := len(payload)
	if d.MaxFrameSize > 0 && n > d.MaxFrameSize {
		n = d.MaxFrameSize
	}
	n -= n % blockAlign

	samples := make([]byte, n)
	copy(samples, payload[:n])

	if d.BigEndian {
		for i := 0; i < n; i += 2 {
			samples[i], samples[i+1] = samples[i+1], samples[i]
		}
	}

	return n, samples, nil
}

// Close implements AudioDecoder.
func (d *PCM) Close() {}
