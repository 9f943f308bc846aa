// Package codec contains the decoders used by the player.
package codec

import (
	"errors"
	"image"
	"time"

	"github.com/bluenviron/avplay/internal/unit"
)

// ErrInvalidPayload is returned when a payload cannot be decoded.
var ErrInvalidPayload = errors.New("invalid payload")

// AudioDecoder decodes compressed audio into interleaved signed 16-bit
// little-endian samples.
type AudioDecoder interface {
	// Decode decodes the beginning of payload.
	// It returns how many bytes of payload were consumed and the decoded
	// samples, which may be empty when the decoder needs more input.
	Decode(payload []byte) (int, []byte, error)

	// Close releases the decoder.
	Close()
}

// Picture is a decoded video picture.
type Picture struct {
	PTS      time.Duration
	Width    int
	Height   int
	Keyframe bool

	// access unit the picture was decoded from
	AU [][]byte

	// decoded pixels. Nil when the decoder only parses the bitstream.
	Image *image.RGBA
}

// VideoDecoder decodes compressed video.
type VideoDecoder interface {
	// Decode decodes a packet into zero or more pictures.
	Decode(pkt *unit.Packet) ([]*Picture, error)

	// Flush returns pictures that are still buffered inside the decoder.
	Flush() []*Picture

	// Close releases the decoder.
	Close()
}

// NewAudioDecoder allocates an AudioDecoder for the given codec name.
// Compressed codecs are decoded into the given sample rate and channel count.
func NewAudioDecoder(codec string, sampleRate int, channels int) (AudioDecoder, error) {
	switch codec {
	case "pcm":
		return &PCM{Channels: channels, MaxFrameSize: MaxAudioFrameSize}, nil

	case "lpcm":
		return &PCM{Channels: channels, BigEndian: true, MaxFrameSize: MaxAudioFrameSize}, nil

	case "g711u":
		return &G711{MULaw: true}, nil

	case "g711a":
		return &G711{MULaw: false}, nil
	}

	return newCompressedAudioDecoder(codec, sampleRate, channels)
}
