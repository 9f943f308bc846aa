package audiofill

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bluenviron/avplay/internal/codec"
	"github.com/bluenviron/avplay/internal/packetqueue"
	"github.com/bluenviron/avplay/internal/unit"
)

type faultyDecoder struct {
	codec.AudioDecoder
}

func (d *faultyDecoder) Decode(payload []byte) (int, []byte, error) {
	if len(payload) != 0 && payload[0] == 0xFF {
		return 0, nil, errors.New("corrupted")
	}
	return d.AudioDecoder.Decode(payload)
}

func pattern(n int, seed byte) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = seed + byte(i%251)
	}
	return buf
}

func newQueue(t *testing.T, payloads ...[]byte) *packetqueue.Queue {
	q := &packetqueue.Queue{}
	q.Initialize()
	for _, p := range payloads {
		err := q.Put(&unit.Packet{StreamType: unit.StreamTypeAudio, Payload: p})
		require.NoError(t, err)
	}
	return q
}

func TestRefillerReconstruction(t *testing.T) {
	f1 := pattern(3000, 1)
	f2 := pattern(4500, 7)
	q := newQueue(t, f1, f2)

	r := &Refiller{
		Queue:   q,
		Decoder: &codec.PCM{Channels: 1, MaxFrameSize: codec.MaxAudioFrameSize},
	}
	r.Initialize()

	var out []byte

	for range 7 {
		buf := make([]byte, 1024)
		n, err := r.Fill(buf)
		require.NoError(t, err)
		require.Equal(t, 1024, n)
		out = append(out, buf...)
	}

	require.Equal(t, 0, q.Len())
	require.Equal(t, 332, r.Remaining())
	q.Shutdown()

	buf := make([]byte, 1024)
	n, err := r.Fill(buf)
	require.ErrorIs(t, err, ErrEndOfStream)
	require.Equal(t, 332, n)
	out = append(out, buf[:n]...)

	require.Equal(t, append(f1, f2...), out)
	require.Equal(t, uint64(7500), r.DecodedBytes())

	// end of stream is sticky
	n, err = r.Fill(buf)
	require.ErrorIs(t, err, ErrEndOfStream)
	require.Equal(t, 0, n)
}

func TestRefillerMultipleDecoderCalls(t *testing.T) {
	payload := pattern(2500, 3)
	q := newQueue(t, payload)

	r := &Refiller{
		Queue:   q,
		Decoder: &codec.PCM{Channels: 1, MaxFrameSize: 1000},
	}
	r.Initialize()

	buf := make([]byte, 2500)
	n, err := r.Fill(buf)
	require.NoError(t, err)
	require.Equal(t, 2500, n)
	require.Equal(t, payload, buf)
}

func TestRefillerPartialConsumption(t *testing.T) {
	payload := pattern(100, 0)
	q := newQueue(t, payload)

	r := &Refiller{
		Queue:   q,
		Decoder: &codec.PCM{Channels: 1},
	}
	r.Initialize()

	buf := make([]byte, 10)
	n, err := r.Fill(buf)
	require.NoError(t, err)
	require.Equal(t, 10, n)
	require.Equal(t, payload[:10], buf)
	require.Equal(t, 90, r.Remaining())

	rest, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, payload[10:], rest)
	require.Equal(t, 0, r.Remaining())
}

func TestRefillerDecodeError(t *testing.T) {
	bad := bytes.Repeat([]byte{0xFF}, 50)
	good := pattern(64, 2)
	q := newQueue(t, bad, good)

	r := &Refiller{
		Queue:   q,
		Decoder: &faultyDecoder{AudioDecoder: &codec.PCM{Channels: 1}},
	}
	r.Initialize()

	buf := make([]byte, 64)
	n, err := r.Fill(buf)
	require.NoError(t, err)
	require.Equal(t, 64, n)
	require.Equal(t, good, buf)
	require.Equal(t, uint64(1), r.DecodeErrors())
}

func TestRefillerNonBlocking(t *testing.T) {
	q := newQueue(t)

	r := &Refiller{
		Queue:       q,
		Decoder:     &codec.PCM{Channels: 1},
		NonBlocking: true,
	}
	r.Initialize()

	_, err := r.Next()
	require.ErrorIs(t, err, ErrUnderrun)

	err = q.Put(&unit.Packet{Payload: pattern(20, 0)})
	require.NoError(t, err)

	samples, err := r.Next()
	require.NoError(t, err)
	require.Len(t, samples, 20)
}
