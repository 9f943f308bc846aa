package capture

import (
	"fmt"
	"time"

	"github.com/bluenviron/avplay/internal/unit"
)

// BGRA colors of the bars.
var bars = [][4]byte{
	{0xC0, 0xC0, 0xC0, 0xFF}, // gray
	{0x00, 0xC0, 0xC0, 0xFF}, // yellow
	{0xC0, 0xC0, 0x00, 0xFF}, // cyan
	{0x00, 0xC0, 0x00, 0xFF}, // green
	{0xC0, 0x00, 0xC0, 0xFF}, // magenta
	{0x00, 0x00, 0xC0, 0xFF}, // red
	{0xC0, 0x00, 0x00, 0xFF}, // blue
	{0x00, 0x00, 0x00, 0xFF}, // black
}

// TestPattern is a screen that shows scrolling color bars.
// Frames are BGRA, 4 bytes per pixel.
type TestPattern struct {
	Width  int
	Height int
	FPS    int

	pacer pacer
	frame int
}

// Open implements framecache.Source.
func (s *TestPattern) Open() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("invalid size: %dx%d", s.Width, s.Height)
	}
	if s.FPS <= 0 {
		return fmt.Errorf("invalid FPS: %d", s.FPS)
	}

	s.pacer.period = time.Second / time.Duration(s.FPS)
	s.pacer.open()
	s.frame = 0

	return nil
}

// Read implements framecache.Source.
func (s *TestPattern) Read() (unit.Chunk, error) {
	ntp, err := s.pacer.wait()
	if err != nil {
		return unit.Chunk{}, err
	}

	buf := make([]byte, s.Width*s.Height*4)
	barWidth := max(s.Width/len(bars), 1)
	shift := s.frame

	for x := range s.Width {
		color := bars[((x+shift)/barWidth)%len(bars)]
		copy(buf[x*4:], color[:])
	}

	stride := s.Width * 4
	for y := 1; y < s.Height; y++ {
		copy(buf[y*stride:(y+1)*stride], buf[:stride])
	}

	s.frame++

	return unit.Chunk{
		NTP:  ntp,
		Data: buf,
	}, nil
}

// Close implements framecache.Source.
func (s *TestPattern) Close() error {
	s.pacer.close()
	return nil
}
