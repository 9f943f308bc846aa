package capture

import (
	"fmt"
	"io"
	"time"

	"github.com/bluenviron/avplay/internal/externalcmd"
	"github.com/bluenviron/avplay/internal/unit"
)

// Command is a device whose data is produced by an external command.
// The standard output of the command is split into chunks of FrameSize bytes.
type Command struct {
	Pool      *externalcmd.Pool
	Cmdstr    string
	Env       externalcmd.Environment
	FrameSize int

	cmd *externalcmd.Cmd
}

// Open implements framecache.Source.
func (s *Command) Open() error {
	if s.FrameSize <= 0 {
		return fmt.Errorf("invalid frame size: %d", s.FrameSize)
	}

	s.cmd = &externalcmd.Cmd{
		Pool:   s.Pool,
		Cmdstr: s.Cmdstr,
		Env:    s.Env,
	}
	err := s.cmd.Start()
	if err != nil {
		return fmt.Errorf("unable to start command: %w", err)
	}

	return nil
}

// Read implements framecache.Source.
func (s *Command) Read() (unit.Chunk, error) {
	buf := make([]byte, s.FrameSize)

	_, err := io.ReadFull(s.cmd, buf)
	if err != nil {
		if err == io.ErrUnexpectedEOF {
			return unit.Chunk{}, fmt.Errorf("command exited in the middle of a frame")
		}
		return unit.Chunk{}, err
	}

	return unit.Chunk{
		NTP:  time.Now(),
		Data: buf,
	}, nil
}

// Close implements framecache.Source.
func (s *Command) Close() error {
	s.cmd.Close()
	return nil
}
