package capture

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/bluenviron/avplay/internal/unit"
)

const (
	defaultToneFrequency     = 440
	defaultToneChunkDuration = 20 * time.Millisecond
	toneAmplitude            = 0.25
)

// Tone is a microphone that produces a sine wave.
// Samples are interleaved signed 16-bit little-endian.
type Tone struct {
	SampleRate    int
	Channels      int
	Frequency     float64
	ChunkDuration time.Duration

	pacer pacer
	phase float64
}

// Open implements framecache.Source.
func (s *Tone) Open() error {
	if s.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", s.SampleRate)
	}
	if s.Channels <= 0 {
		return fmt.Errorf("invalid channel count: %d", s.Channels)
	}
	if s.Frequency == 0 {
		s.Frequency = defaultToneFrequency
	}
	if s.ChunkDuration == 0 {
		s.ChunkDuration = defaultToneChunkDuration
	}

	s.pacer.period = s.ChunkDuration
	s.pacer.open()
	s.phase = 0

	return nil
}

// ChunkSize returns the size of each chunk in bytes.
func (s *Tone) ChunkSize() int {
	return s.samplesPerChunk() * s.Channels * 2
}

func (s *Tone) samplesPerChunk() int {
	return int(int64(s.SampleRate) * int64(s.ChunkDuration) / int64(time.Second))
}

// Read implements framecache.Source.
func (s *Tone) Read() (unit.Chunk, error) {
	ntp, err := s.pacer.wait()
	if err != nil {
		return unit.Chunk{}, err
	}

	n := s.samplesPerChunk()
	buf := make([]byte, n*s.Channels*2)
	step := 2 * math.Pi * s.Frequency / float64(s.SampleRate)

	for i := range n {
		v := int16(math.Sin(s.phase) * toneAmplitude * math.MaxInt16)
		for c := range s.Channels {
			binary.LittleEndian.PutUint16(buf[(i*s.Channels+c)*2:], uint16(v))
		}

		s.phase += step
		if s.phase >= 2*math.Pi {
			s.phase -= 2 * math.Pi
		}
	}

	return unit.Chunk{
		NTP:  ntp,
		Data: buf,
	}, nil
}

// Close implements framecache.Source.
func (s *Tone) Close() error {
	s.pacer.close()
	return nil
}
