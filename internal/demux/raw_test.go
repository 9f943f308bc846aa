package demux

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRaw(t *testing.T) {
	data := make([]byte, 250)
	for i := range data {
		data[i] = byte(i)
	}

	d := &Raw{
		R:          bytes.NewReader(data),
		Codec:      "g711u",
		SampleRate: 8000,
		Channels:   1,
	}
	err := d.Initialize()
	require.NoError(t, err)
	require.Equal(t, "g711u", d.Tracks()[0].Codec)

	pkt, err := d.Read(context.Background())
	require.NoError(t, err)
	require.Equal(t, data[:160], pkt.Payload)
	require.Equal(t, time.Duration(0), pkt.PTS)

	pkt, err = d.Read(context.Background())
	require.NoError(t, err)
	require.Equal(t, data[160:], pkt.Payload)
	require.Equal(t, 20*time.Millisecond, pkt.PTS)

	_, err = d.Read(context.Background())
	require.Equal(t, io.EOF, err)
}

func TestRawTruncatedBlock(t *testing.T) {
	d := &Raw{
		R:          bytes.NewReader(make([]byte, 7)),
		Codec:      "pcm",
		SampleRate: 8000,
		Channels:   2,
	}
	err := d.Initialize()
	require.NoError(t, err)

	pkt, err := d.Read(context.Background())
	require.NoError(t, err)
	require.Len(t, pkt.Payload, 4)

	_, err = d.Read(context.Background())
	require.Equal(t, io.EOF, err)
}

func TestRawErrors(t *testing.T) {
	for _, ca := range []struct {
		name string
		d    *Raw
		err  string
	}{
		{
			"codec",
			&Raw{Codec: "aac", SampleRate: 8000, Channels: 1},
			"unsupported raw codec: 'aac'",
		},
		{
			"format",
			&Raw{Codec: "pcm", Channels: 1},
			"invalid format: 1 channels, 0 Hz",
		},
	} {
		t.Run(ca.name, func(t *testing.T) {
			err := ca.d.Initialize()
			require.EqualError(t, err, ca.err)
		})
	}
}
