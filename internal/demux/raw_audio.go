package demux

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/bluenviron/avplay/internal/unit"
)

const rawPacketDuration = 20 * time.Millisecond

// rawAudio splits uncompressed samples into packets of fixed duration.
type rawAudio struct {
	r          io.Reader
	track      Track
	blockAlign int
	packetSize int
	dataLeft   int64
	read       int64
}

func (d *rawAudio) setFormat(codec string, sampleRate int, channels int, blockAlign int) {
	d.track = Track{
		Index:      0,
		Type:       unit.StreamTypeAudio,
		Codec:      codec,
		SampleRate: sampleRate,
		Channels:   channels,
	}
	d.blockAlign = blockAlign
	d.packetSize = max(sampleRate*int(rawPacketDuration)/int(time.Second), 1) * blockAlign
}

// Tracks implements Demuxer.
func (d *rawAudio) Tracks() []Track {
	return []Track{d.track}
}

// Read implements Demuxer.
func (d *rawAudio) Read(ctx context.Context) (*unit.Packet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if d.dataLeft < int64(d.blockAlign) {
		return nil, io.EOF
	}

	n := min(int64(d.packetSize), d.dataLeft)
	n -= n % int64(d.blockAlign)

	buf := make([]byte, n)
	nr, err := io.ReadFull(d.r, buf)
	if err != nil {
		if !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			return nil, err
		}

		// truncated stream: keep whole blocks only
		n = int64(nr - nr%d.blockAlign)
		if n == 0 {
			return nil, io.EOF
		}
		buf = buf[:n]
		d.dataLeft = n
	}

	pts := time.Duration(multiplyAndDivide(d.read/int64(d.blockAlign), int64(time.Second), int64(d.track.SampleRate)))

	d.dataLeft -= n
	d.read += n

	return &unit.Packet{
		StreamIndex: 0,
		StreamType:  unit.StreamTypeAudio,
		PTS:         pts,
		Payload:     buf,
	}, nil
}
