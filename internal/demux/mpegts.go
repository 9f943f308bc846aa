package demux

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/asticode/go-astits"
	"github.com/bluenviron/mediacommon/v2/pkg/codecs/h264"
	"github.com/bluenviron/mediacommon/v2/pkg/codecs/mpeg4audio"
	"github.com/bluenviron/mediacommon/v2/pkg/formats/mpegts"

	"github.com/bluenviron/avplay/internal/logger"
	"github.com/bluenviron/avplay/internal/unit"
)

const (
	mpegtsClockRate = 90000
	aacSamplesPerAU = 1024
)

var errNoSupportedCodecs = errors.New(
	"the stream doesn't contain any supported codec, which are currently " +
		"H264, MPEG-4 Audio, Opus, MPEG-1 Audio")

func multiplyAndDivide(v, m, d int64) int64 {
	secs := v / d
	dec := v % d
	return (secs*m + dec*m/d)
}

func mpegtsTimestamp(v int64) time.Duration {
	return time.Duration(multiplyAndDivide(v, int64(time.Second), mpegtsClockRate))
}

// MPEGTS is a MPEG-TS demuxer.
// H264 access units are returned in Annex-B format,
// MPEG-4 Audio access units in ADTS format.
type MPEGTS struct {
	R      io.Reader
	Closer io.Closer
	Parent logger.Writer

	reader          *mpegts.Reader
	tracks          []Track
	pending         []*unit.Packet
	decodeErrLogger logger.Writer
}

// Initialize initializes MPEGTS.
func (d *MPEGTS) Initialize() error {
	if d.Parent == nil {
		d.Parent = logger.NilWriter
	}

	d.decodeErrLogger = logger.NewLimitedLogger(d.Parent)

	d.reader = &mpegts.Reader{R: d.R}
	err := d.reader.Initialize()
	if err != nil {
		return err
	}

	d.reader.OnDecodeError(func(err error) {
		d.decodeErrLogger.Log(logger.Warn, "MPEG-TS decode error: %v", err)
	})

	td := &mpegts.TimeDecoder{}
	td.Initialize()

	for i, track := range d.reader.Tracks() {
		index := i

		switch codec := track.Codec.(type) {
		case *mpegts.CodecH264:
			d.tracks = append(d.tracks, Track{
				Index: index,
				Type:  unit.StreamTypeVideo,
				Codec: "h264",
			})

			d.reader.OnDataH264(track, func(pts int64, _ int64, au [][]byte) error {
				payload, err2 := h264.AnnexB(au).Marshal()
				if err2 != nil {
					return err2
				}

				d.pending = append(d.pending, &unit.Packet{
					StreamIndex: index,
					StreamType:  unit.StreamTypeVideo,
					PTS:         mpegtsTimestamp(td.Decode(pts)),
					Payload:     payload,
				})
				return nil
			})

		case *mpegts.CodecMPEG4Audio:
			sampleRate := codec.Config.SampleRate

			d.tracks = append(d.tracks, Track{
				Index:      index,
				Type:       unit.StreamTypeAudio,
				Codec:      "aac",
				SampleRate: sampleRate,
				Channels:   codec.Config.ChannelCount,
			})

			conf := codec.Config

			d.reader.OnDataMPEG4Audio(track, func(pts int64, aus [][]byte) error {
				pts = td.Decode(pts)

				for j, au := range aus {
					payload, err2 := mpeg4audio.ADTSPackets{{
						Type:         conf.Type,
						SampleRate:   conf.SampleRate,
						ChannelCount: conf.ChannelCount,
						AU:           au,
					}}.Marshal()
					if err2 != nil {
						return err2
					}

					d.pending = append(d.pending, &unit.Packet{
						StreamIndex: index,
						StreamType:  unit.StreamTypeAudio,
						PTS: mpegtsTimestamp(pts) +
							time.Duration(multiplyAndDivide(int64(j*aacSamplesPerAU), int64(time.Second), int64(sampleRate))),
						Payload: payload,
					})
				}
				return nil
			})

		case *mpegts.CodecOpus:
			d.tracks = append(d.tracks, Track{
				Index:      index,
				Type:       unit.StreamTypeAudio,
				Codec:      "opus",
				SampleRate: 48000,
				Channels:   codec.ChannelCount,
			})

			d.reader.OnDataOpus(track, func(pts int64, packets [][]byte) error {
				d.appendAll(index, unit.StreamTypeAudio, mpegtsTimestamp(td.Decode(pts)), packets)
				return nil
			})

		case *mpegts.CodecMPEG1Audio:
			d.tracks = append(d.tracks, Track{
				Index: index,
				Type:  unit.StreamTypeAudio,
				Codec: "mp3",
			})

			d.reader.OnDataMPEG1Audio(track, func(pts int64, frames [][]byte) error {
				d.appendAll(index, unit.StreamTypeAudio, mpegtsTimestamp(td.Decode(pts)), frames)
				return nil
			})

		default:
			d.Parent.Log(logger.Warn, "skipping track %d (unsupported codec)", i+1)
		}
	}

	if d.tracks == nil {
		return errNoSupportedCodecs
	}

	return nil
}

func (d *MPEGTS) appendAll(index int, typ unit.StreamType, pts time.Duration, payloads [][]byte) {
	for _, p := range payloads {
		d.pending = append(d.pending, &unit.Packet{
			StreamIndex: index,
			StreamType:  typ,
			PTS:         pts,
			Payload:     p,
		})
	}
}

// Tracks implements Demuxer.
func (d *MPEGTS) Tracks() []Track {
	return d.tracks
}

// Read implements Demuxer.
func (d *MPEGTS) Read(ctx context.Context) (*unit.Packet, error) {
	for len(d.pending) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		err := d.reader.Read()
		if err != nil {
			if errors.Is(err, astits.ErrNoMorePackets) || errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("unable to read MPEG-TS: %w", err)
		}
	}

	pkt := d.pending[0]
	d.pending[0] = nil
	d.pending = d.pending[1:]

	return pkt, nil
}

// Close implements Demuxer.
func (d *MPEGTS) Close() error {
	if d.Closer != nil {
		return d.Closer.Close()
	}
	return nil
}
