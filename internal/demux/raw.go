package demux

import (
	"fmt"
	"io"
	"math"
)

// Raw is a demuxer of headerless audio.
// The format is not stored in the stream and must be provided.
type Raw struct {
	R          io.Reader
	Closer     io.Closer
	Codec      string
	SampleRate int
	Channels   int

	rawAudio
}

// Initialize initializes Raw.
func (d *Raw) Initialize() error {
	if d.SampleRate <= 0 || d.Channels <= 0 {
		return fmt.Errorf("invalid format: %d channels, %d Hz", d.Channels, d.SampleRate)
	}

	var blockAlign int

	switch d.Codec {
	case "pcm", "lpcm":
		blockAlign = 2 * d.Channels

	case "g711u", "g711a":
		blockAlign = d.Channels

	default:
		return fmt.Errorf("unsupported raw codec: '%s'", d.Codec)
	}

	d.r = d.R
	d.setFormat(d.Codec, d.SampleRate, d.Channels, blockAlign)
	d.dataLeft = math.MaxInt64

	return nil
}

// Close implements Demuxer.
func (d *Raw) Close() error {
	if d.Closer != nil {
		return d.Closer.Close()
	}
	return nil
}
