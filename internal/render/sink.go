// Package render contains video sinks and the presenter that paces them.
package render

import (
	"fmt"

	"github.com/bluenviron/avplay/internal/codec"
	"github.com/bluenviron/avplay/internal/logger"
)

// Sink receives decoded pictures.
type Sink interface {
	Present(pic *codec.Picture) error
	Close() error
}

// NewSink allocates a sink by name.
func NewSink(name string, path string, parent logger.Writer) (Sink, error) {
	switch name {
	case "", "log":
		return &LogSink{Parent: parent}, nil

	case "annexb":
		s := &AnnexBFile{Path: path}
		err := s.Initialize()
		if err != nil {
			return nil, err
		}
		return s, nil

	case "mpegts":
		s := &MPEGTSFile{Path: path}
		err := s.Initialize()
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	return nil, fmt.Errorf("unsupported video sink: '%s'", name)
}

// LogSink logs pictures.
type LogSink struct {
	Parent logger.Writer
}

// Present implements Sink.
func (s *LogSink) Present(pic *codec.Picture) error {
	if s.Parent != nil {
		s.Parent.Log(logger.Debug, "picture %dx%d, PTS %v, keyframe %v",
			pic.Width, pic.Height, pic.PTS, pic.Keyframe)
	}
	return nil
}

// Close implements Sink.
func (s *LogSink) Close() error {
	return nil
}
