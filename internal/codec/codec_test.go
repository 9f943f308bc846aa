package codec

import (
	"testing"
	"time"

	"github.com/bluenviron/mediacommon/v2/pkg/codecs/h264"
	"github.com/stretchr/testify/require"

	"github.com/bluenviron/avplay/internal/unit"
)

var (
	testSPS = []byte{
		0x67, 0x42, 0xc0, 0x28, 0xd9, 0x00, 0x78, 0x02,
		0x27, 0xe5, 0x84, 0x00, 0x00, 0x03, 0x00, 0x04,
		0x00, 0x00, 0x03, 0x00, 0xf0, 0x3c, 0x60, 0xc9, 0x20,
	}
	testPPS = []byte{0x08, 0x06, 0x07, 0x08}
)

func TestPCMDecoderSplitsLargePayloads(t *testing.T) {
	d := &PCM{Channels: 2, MaxFrameSize: 1000}

	payload := make([]byte, 2500)
	for i := range payload {
		payload[i] = byte(i)
	}

	var out []byte
	for len(payload) != 0 {
		n, samples, err := d.Decode(payload)
		require.NoError(t, err)
		require.LessOrEqual(t, len(samples), 1000)
		out = append(out, samples...)
		payload = payload[n:]
	}

	require.Len(t, out, 2500)
	for i := range out {
		require.Equal(t, byte(i), out[i])
	}
}

func TestPCMDecoderBigEndian(t *testing.T) {
	d := &PCM{Channels: 1, BigEndian: true}

	payload := []byte{0x01, 0x02, 0x03, 0x04}
	n, samples, err := d.Decode(payload)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, []byte{0x02, 0x01, 0x04, 0x03}, samples)

	// the input is left untouched
	require.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, payload)
}

func TestPCMDecoderErrors(t *testing.T) {
	d := &PCM{Channels: 2}

	_, _, err := d.Decode([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrInvalidPayload)

	d = &PCM{}
	_, _, err = d.Decode([]byte{1, 2, 3, 4})
	require.Error(t, err)
}

func TestG711Decoder(t *testing.T) {
	d := &G711{MULaw: true}

	n, samples, err := d.Decode([]byte{0xFF, 0xFF, 0xFF})
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, make([]byte, 6), samples)

	_, _, err = d.Decode(nil)
	require.ErrorIs(t, err, ErrInvalidPayload)
}

func TestNewAudioDecoder(t *testing.T) {
	for _, ca := range []string{"pcm", "lpcm", "g711u", "g711a"} {
		t.Run(ca, func(t *testing.T) {
			d, err := NewAudioDecoder(ca, 8000, 2)
			require.NoError(t, err)
			require.NotNil(t, d)
			d.Close()
		})
	}

	_, err := NewAudioDecoder("vorbis", 8000, 2)
	require.EqualError(t, err, "unsupported audio codec: vorbis")
}

func annexB(t *testing.T, au [][]byte) []byte {
	buf, err := h264.AnnexB(au).Marshal()
	require.NoError(t, err)
	return buf
}

func TestH264Parser(t *testing.T) {
	d := &H264Parser{}
	defer d.Close()

	// non-IDR before parameters
	pics, err := d.Decode(&unit.Packet{
		Payload: annexB(t, [][]byte{{0x01, 0x02}}),
	})
	require.NoError(t, err)
	require.Empty(t, pics)

	pics, err = d.Decode(&unit.Packet{
		PTS:     2 * time.Second,
		Payload: annexB(t, [][]byte{testSPS, testPPS, {0x05, 0x01}}),
	})
	require.NoError(t, err)
	require.Len(t, pics, 1)
	require.Equal(t, 2*time.Second, pics[0].PTS)
	require.Equal(t, 1920, pics[0].Width)
	require.Equal(t, 1080, pics[0].Height)
	require.True(t, pics[0].Keyframe)

	pics, err = d.Decode(&unit.Packet{
		Payload: annexB(t, [][]byte{{0x01, 0x02}}),
	})
	require.NoError(t, err)
	require.Len(t, pics, 1)
	require.False(t, pics[0].Keyframe)

	require.Empty(t, d.Flush())
}

func TestH264ParserInvalid(t *testing.T) {
	d := &H264Parser{}

	_, err := d.Decode(&unit.Packet{Payload: []byte{1, 2, 3}})
	require.Error(t, err)
}
