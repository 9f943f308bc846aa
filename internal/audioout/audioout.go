// Package audioout contains audio output devices.
package audioout

import (
	"fmt"
	"io"

	"github.com/bluenviron/avplay/internal/logger"
)

// DefaultSamples is the default number of samples per callback.
const DefaultSamples = 1024

// Spec describes the format requested to a device.
// Samples are always interleaved signed 16-bit little-endian.
type Spec struct {
	SampleRate int
	Channels   int

	// samples per channel requested by each callback
	Samples int
}

// BufferSize returns the size in bytes of the buffer passed to callbacks.
func (s Spec) BufferSize() int {
	return s.Samples * s.Channels * 2
}

func (s *Spec) validate() error {
	if s.Samples == 0 {
		s.Samples = DefaultSamples
	}
	if s.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", s.SampleRate)
	}
	if s.Channels <= 0 {
		return fmt.Errorf("invalid channel count: %d", s.Channels)
	}
	if s.Samples < 0 {
		return fmt.Errorf("invalid samples per callback: %d", s.Samples)
	}
	return nil
}

// Callback is invoked periodically by the device and must fill out entirely.
type Callback func(out []byte)

// Device is an audio output device.
type Device interface {
	Initialize(spec Spec, cb Callback) error
	Start()
	Close()
}

// New allocates a device by name.
func New(name string, w io.Writer, parent logger.Writer) (Device, error) {
	switch name {
	case "", "clock":
		return &Clock{W: w, Parent: parent}, nil

	case "null":
		return &Clock{W: io.Discard, Parent: parent}, nil

	case "oto":
		return newOto(parent)
	}

	return nil, fmt.Errorf("unsupported audio device: '%s'", name)
}
