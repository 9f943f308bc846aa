package render

import (
	"bufio"
	"os"
	"time"

	"github.com/bluenviron/mediacommon/v2/pkg/codecs/h264"
	"github.com/bluenviron/mediacommon/v2/pkg/formats/mpegts"

	"github.com/bluenviron/avplay/internal/codec"
)

const (
	mpegtsBufferSize = 64 * 1024
)

func durationToMPEGTS(d time.Duration) int64 {
	return int64(d) * 90000 / int64(time.Second)
}

// MPEGTSFile remuxes access units into a MPEG-TS file.
// Writing starts with the first random access unit.
type MPEGTSFile struct {
	Path string

	f      *os.File
	bw     *bufio.Writer
	mw     *mpegts.Writer
	track  *mpegts.Track
	offset time.Duration
	synced bool
}

// Initialize initializes MPEGTSFile.
func (s *MPEGTSFile) Initialize() error {
	var err error
	s.f, err = os.Create(s.Path)
	if err != nil {
		return err
	}

	s.bw = bufio.NewWriterSize(s.f, mpegtsBufferSize)

	s.track = &mpegts.Track{
		Codec: &mpegts.CodecH264{},
	}

	s.mw = &mpegts.Writer{W: s.bw, Tracks: []*mpegts.Track{s.track}}
	err = s.mw.Initialize()
	if err != nil {
		s.f.Close()
		return err
	}

	return nil
}

// Present implements Sink.
func (s *MPEGTSFile) Present(pic *codec.Picture) error {
	if pic.AU == nil {
		return nil
	}

	if !s.synced {
		if !h264.IsRandomAccess(pic.AU) {
			return nil
		}
		s.synced = true
		s.offset = pic.PTS
	}

	pts := durationToMPEGTS(pic.PTS - s.offset)

	return s.mw.WriteH264(s.track, pts, pts, pic.AU)
}

// Close implements Sink.
func (s *MPEGTSFile) Close() error {
	err := s.bw.Flush()
	err2 := s.f.Close()
	if err != nil {
		return err
	}
	return err2
}
