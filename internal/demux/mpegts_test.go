package demux

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/asticode/go-astits"
	"github.com/bluenviron/mediacommon/v2/pkg/codecs/h264"
	"github.com/bluenviron/mediacommon/v2/pkg/codecs/mpeg4audio"
	"github.com/bluenviron/mediacommon/v2/pkg/formats/mpegts"
	"github.com/stretchr/testify/require"

	"github.com/bluenviron/avplay/internal/unit"
)

var testSPS = []byte{
	0x67, 0x42, 0xc0, 0x28, 0xd9, 0x00, 0x78, 0x02,
	0x27, 0xe5, 0x84, 0x00, 0x00, 0x03, 0x00, 0x04,
	0x00, 0x00, 0x03, 0x00, 0xf0, 0x3c, 0x60, 0xc9,
	0x20,
}

var testPPS = []byte{0x08, 0x06, 0x07, 0x08}

func withoutAUD(t *testing.T, payload []byte) [][]byte {
	var au h264.AnnexB
	err := au.Unmarshal(payload)
	require.NoError(t, err)

	var out [][]byte
	for _, nalu := range au {
		if h264.NALUType(nalu[0]&0x1F) != h264.NALUTypeAccessUnitDelimiter {
			out = append(out, nalu)
		}
	}
	return out
}

func TestMPEGTS(t *testing.T) {
	track := &mpegts.Track{
		Codec: &mpegts.CodecH264{},
	}

	var buf bytes.Buffer
	w := &mpegts.Writer{W: &buf, Tracks: []*mpegts.Track{track}}
	err := w.Initialize()
	require.NoError(t, err)

	aus := [][][]byte{
		{testSPS, testPPS, {0x65, 0x88, 0x84}},
		{{0x41, 0x9a, 0x02}},
		{{0x41, 0x9a, 0x03}},
	}

	for i, au := range aus {
		pts := int64(90000 + i*3000)
		err = w.WriteH264(track, pts, pts, au)
		require.NoError(t, err)
	}

	d := &MPEGTS{R: &buf}
	err = d.Initialize()
	require.NoError(t, err)

	require.Equal(t, []Track{{
		Index: 0,
		Type:  unit.StreamTypeVideo,
		Codec: "h264",
	}}, d.Tracks())

	var pkts []*unit.Packet
	for {
		pkt, err2 := d.Read(context.Background())
		if err2 == io.EOF {
			break
		}
		require.NoError(t, err2)
		pkts = append(pkts, pkt)
	}

	require.GreaterOrEqual(t, len(pkts), 2)

	for i, pkt := range pkts {
		require.Equal(t, unit.StreamTypeVideo, pkt.StreamType)
		require.Equal(t, aus[i], withoutAUD(t, pkt.Payload))
	}

	require.Equal(t, int64(33333333), int64(pkts[1].PTS-pkts[0].PTS))
}

func TestMPEGTSMPEG4Audio(t *testing.T) {
	track := &mpegts.Track{
		Codec: &mpegts.CodecMPEG4Audio{
			Config: mpeg4audio.Config{
				Type:         mpeg4audio.ObjectTypeAACLC,
				SampleRate:   44100,
				ChannelCount: 2,
			},
		},
	}

	var buf bytes.Buffer
	w := &mpegts.Writer{W: &buf, Tracks: []*mpegts.Track{track}}
	err := w.Initialize()
	require.NoError(t, err)

	for i := range 3 {
		err = w.WriteMPEG4Audio(track, int64(90000+i*9000), [][]byte{
			{byte(i), 1, 2, 3},
			{byte(i), 4, 5, 6},
		})
		require.NoError(t, err)
	}

	d := &MPEGTS{R: &buf}
	err = d.Initialize()
	require.NoError(t, err)

	require.Equal(t, []Track{{
		Index:      0,
		Type:       unit.StreamTypeAudio,
		Codec:      "aac",
		SampleRate: 44100,
		Channels:   2,
	}}, d.Tracks())

	var pkts []*unit.Packet
	for {
		pkt, err2 := d.Read(context.Background())
		if err2 == io.EOF {
			break
		}
		require.NoError(t, err2)
		pkts = append(pkts, pkt)
	}

	require.GreaterOrEqual(t, len(pkts), 2)

	for i, pkt := range pkts[:2] {
		var adts mpeg4audio.ADTSPackets
		err = adts.Unmarshal(pkt.Payload)
		require.NoError(t, err)

		require.Equal(t, mpeg4audio.ADTSPackets{{
			Type:         mpeg4audio.ObjectTypeAACLC,
			SampleRate:   44100,
			ChannelCount: 2,
			AU:           []byte{0, byte(1 + i*3), byte(2 + i*3), byte(3 + i*3)},
		}}, adts)
	}

	// the second access unit of a PES packet is 1024 samples later
	require.Equal(t, time.Duration(1024)*time.Second/44100, pkts[1].PTS-pkts[0].PTS)
}

func TestMPEGTSNoSupportedCodecs(t *testing.T) {
	var buf bytes.Buffer
	mux := astits.NewMuxer(context.Background(), &buf)

	err := mux.AddElementaryStream(astits.PMTElementaryStream{
		ElementaryPID: 122,
		StreamType:    astits.StreamTypeDTSAudio,
	})
	require.NoError(t, err)

	mux.SetPCRPID(122)

	_, err = mux.WriteTables()
	require.NoError(t, err)

	d := &MPEGTS{R: &buf}
	err = d.Initialize()
	require.Equal(t, errNoSupportedCodecs, err)
}

func TestFirstTrack(t *testing.T) {
	tracks := []Track{
		{Index: 0, Type: unit.StreamTypeVideo, Codec: "h264"},
		{Index: 1, Type: unit.StreamTypeAudio, Codec: "aac"},
		{Index: 2, Type: unit.StreamTypeAudio, Codec: "g711u"},
	}

	tr, ok := FirstTrack(tracks, unit.StreamTypeAudio, "pcm", "g711u", "g711a")
	require.True(t, ok)
	require.Equal(t, 2, tr.Index)

	_, ok = FirstTrack(tracks, unit.StreamTypeVideo, "h265")
	require.False(t, ok)
}
