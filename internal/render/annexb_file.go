package render

import (
	"os"

	"github.com/bluenviron/mediacommon/v2/pkg/codecs/h264"

	"github.com/bluenviron/avplay/internal/codec"
)

// AnnexBFile writes access units to a raw H264 elementary stream.
type AnnexBFile struct {
	Path string

	f *os.File
}

// Initialize initializes AnnexBFile.
func (s *AnnexBFile) Initialize() error {
	var err error
	s.f, err = os.Create(s.Path)
	return err
}

// Present implements Sink.
func (s *AnnexBFile) Present(pic *codec.Picture) error {
	if pic.AU == nil {
		return nil
	}

	buf, err := h264.AnnexB(pic.AU).Marshal()
	if err != nil {
		return err
	}

	_, err = s.f.Write(buf)
	return err
}

// Close implements Sink.
func (s *AnnexBFile) Close() error {
	return s.f.Close()
}
