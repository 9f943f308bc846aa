// Package demux contains demuxers.
package demux

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bluenviron/avplay/internal/logger"
	"github.com/bluenviron/avplay/internal/unit"
)

// Track is an elementary stream of a container.
type Track struct {
	Index int
	Type  unit.StreamType
	Codec string

	// audio only
	SampleRate int
	Channels   int
}

// Demuxer splits a container into compressed packets.
type Demuxer interface {
	// Tracks returns the tracks of the container.
	Tracks() []Track

	// Read returns the next packet. It returns io.EOF at the end of the stream.
	Read(ctx context.Context) (*unit.Packet, error)

	// Close closes the demuxer.
	Close() error
}

// Open opens a file and picks a demuxer from its extension.
func Open(path string, parent logger.Writer) (Demuxer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".m2ts":
		d := &MPEGTS{R: f, Closer: f, Parent: parent}
		err = d.Initialize()
		if err != nil {
			f.Close()
			return nil, err
		}
		return d, nil

	case ".wav":
		d := &WAV{R: f, Closer: f}
		err = d.Initialize()
		if err != nil {
			f.Close()
			return nil, err
		}
		return d, nil

	case ".aif", ".aiff":
		d := &AIFF{R: f, Closer: f}
		err = d.Initialize()
		if err != nil {
			f.Close()
			return nil, err
		}
		return d, nil
	}

	f.Close()
	return nil, fmt.Errorf("unsupported container: '%s'", filepath.Ext(path))
}

// OpenRaw opens a file of headerless audio.
func OpenRaw(path string, codec string, sampleRate int, channels int) (Demuxer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	d := &Raw{
		R:          f,
		Closer:     f,
		Codec:      codec,
		SampleRate: sampleRate,
		Channels:   channels,
	}
	err = d.Initialize()
	if err != nil {
		f.Close()
		return nil, err
	}

	return d, nil
}

// FirstTrack returns the first track of the given type with a codec in the given list.
func FirstTrack(tracks []Track, typ unit.StreamType, codecs ...string) (Track, bool) {
	for _, t := range tracks {
		if t.Type != typ {
			continue
		}
		for _, c := range codecs {
			if t.Codec == c {
				return t, true
			}
		}
	}
	return Track{}, false
}
