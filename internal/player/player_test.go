package player

import (
	"bytes"
	"encoding/binary"
	"sync"
	"testing"
	"time"

	"github.com/bluenviron/mediacommon/v2/pkg/formats/mpegts"
	"github.com/stretchr/testify/require"

	"github.com/bluenviron/avplay/internal/audioout"
	"github.com/bluenviron/avplay/internal/codec"
	"github.com/bluenviron/avplay/internal/demux"
)

type manualDevice struct {
	spec   audioout.Spec
	cb     audioout.Callback
	closed bool
}

func (d *manualDevice) Initialize(spec audioout.Spec, cb audioout.Callback) error {
	d.spec = spec
	d.cb = cb
	return nil
}

func (d *manualDevice) Start() {}

func (d *manualDevice) Close() {
	d.closed = true
}

type recordSink struct {
	mutex sync.Mutex
	pics  []*codec.Picture
}

func (s *recordSink) Present(pic *codec.Picture) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.pics = append(s.pics, pic)
	return nil
}

func (s *recordSink) Close() error {
	return nil
}

func wavPCM(sampleRate int, data []byte) []byte {
	buf := []byte("RIFF")
	buf = binary.LittleEndian.AppendUint32(buf, uint32(4+8+16+8+len(data)))
	buf = append(buf, "WAVE"...)
	buf = append(buf, "fmt "...)
	buf = binary.LittleEndian.AppendUint32(buf, 16)
	buf = binary.LittleEndian.AppendUint16(buf, 1)
	buf = binary.LittleEndian.AppendUint16(buf, 1)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(sampleRate))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(sampleRate*2))
	buf = binary.LittleEndian.AppendUint16(buf, 2)
	buf = binary.LittleEndian.AppendUint16(buf, 16)
	buf = append(buf, "data"...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(data)))
	return append(buf, data...)
}

func newWAV(t *testing.T, data []byte) demux.Demuxer {
	d := &demux.WAV{R: bytes.NewReader(wavPCM(8000, data))}
	err := d.Initialize()
	require.NoError(t, err)
	return d
}

func TestPlayerAudio(t *testing.T) {
	data := make([]byte, 1600)
	for i := range data {
		data[i] = byte(1 + i%200)
	}

	dev := &manualDevice{}

	p := &Player{
		Demuxer:      newWAV(t, data),
		AudioDevice:  dev,
		AudioSamples: 512,
	}
	err := p.Initialize()
	require.NoError(t, err)
	defer p.Close()

	require.Equal(t, audioout.Spec{SampleRate: 8000, Channels: 1, Samples: 512}, dev.spec)

	require.Eventually(t, func() bool {
		return p.Stats().QueuedBytes == 1600
	}, 2*time.Second, 5*time.Millisecond)

	var out []byte
	for len(out) < 2048 {
		buf := make([]byte, 1024)
		dev.cb(buf)
		out = append(out, buf...)
	}

	require.Equal(t, data, out[:1600])
	require.Equal(t, make([]byte, 448), out[1600:])

	go func() {
		buf := make([]byte, 1024)
		for {
			select {
			case <-p.Done():
				return
			default:
				dev.cb(buf)
				time.Sleep(time.Millisecond)
			}
		}
	}()

	err = p.Wait()
	require.NoError(t, err)
	require.True(t, dev.closed)

	st := p.Stats()
	require.Equal(t, uint64(1600), st.AudioDecodedBytes)
	require.Equal(t, 0, st.QueuedPackets)
	require.NotZero(t, st.AudioUnderruns)
}

func newH264TS(t *testing.T) demux.Demuxer {
	track := &mpegts.Track{
		Codec: &mpegts.CodecH264{},
	}

	var buf bytes.Buffer
	w := &mpegts.Writer{W: &buf, Tracks: []*mpegts.Track{track}}
	err := w.Initialize()
	require.NoError(t, err)

	sps := []byte{
		0x67, 0x42, 0xc0, 0x28, 0xd9, 0x00, 0x78, 0x02,
		0x27, 0xe5, 0x84, 0x00, 0x00, 0x03, 0x00, 0x04,
		0x00, 0x00, 0x03, 0x00, 0xf0, 0x3c, 0x60, 0xc9,
		0x20,
	}

	for i, au := range [][][]byte{
		{sps, {0x08, 0x06, 0x07, 0x08}, {0x65, 0x88, 0x84}},
		{{0x41, 0x9a, 0x02}},
		{{0x41, 0x9a, 0x03}},
	} {
		pts := int64(i * 3000)
		err = w.WriteH264(track, pts, pts, au)
		require.NoError(t, err)
	}

	d := &demux.MPEGTS{R: &buf}
	err = d.Initialize()
	require.NoError(t, err)

	return d
}

func TestPlayerVideo(t *testing.T) {
	sink := &recordSink{}

	p := &Player{
		Demuxer:    newH264TS(t),
		Sink:       sink,
		FrameDelay: time.Millisecond,
	}
	err := p.Initialize()
	require.NoError(t, err)

	err = p.Wait()
	require.NoError(t, err)

	sink.mutex.Lock()
	defer sink.mutex.Unlock()

	require.GreaterOrEqual(t, len(sink.pics), 2)
	require.Equal(t, 1920, sink.pics[0].Width)
	require.Equal(t, 1080, sink.pics[0].Height)
	require.True(t, sink.pics[0].Keyframe)
	require.False(t, sink.pics[1].Keyframe)
}

func TestPlayerStatsAfterEnd(t *testing.T) {
	sink := &recordSink{}

	p := &Player{
		Demuxer:    newH264TS(t),
		Sink:       sink,
		FrameDelay: time.Millisecond,
	}
	err := p.Initialize()
	require.NoError(t, err)

	statsDone := make(chan struct{})

	go func() {
		defer close(statsDone)
		for {
			p.Stats()
			select {
			case <-p.Done():
				return
			default:
			}
		}
	}()

	err = p.Wait()
	require.NoError(t, err)
	<-statsDone

	sink.mutex.Lock()
	n := len(sink.pics)
	sink.mutex.Unlock()

	require.NotZero(t, n)

	st := p.Stats()
	require.Equal(t, uint64(n), st.PresentedPictures)
	require.Zero(t, st.DiscardedPictures)
}

func TestPlayerClose(t *testing.T) {
	dev := &manualDevice{}

	p := &Player{
		Demuxer:      newWAV(t, make([]byte, 100000)),
		AudioDevice:  dev,
		MaxQueueSize: 1000,
	}
	err := p.Initialize()
	require.NoError(t, err)

	// the reader is throttled
	require.Eventually(t, func() bool {
		return p.Stats().QueuedBytes >= 1000
	}, 2*time.Second, 5*time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	require.Less(t, p.Stats().QueuedBytes, 2000)

	p.Close()

	require.True(t, dev.closed)
	require.Equal(t, 0, p.Stats().QueuedPackets)

	// the device renders silence after shutdown
	out := bytes.Repeat([]byte{1}, 256)
	dev.cb(out)
	require.Equal(t, make([]byte, 256), out)
}

func TestPlayerNoPlayableTracks(t *testing.T) {
	p := &Player{
		Demuxer: newWAV(t, make([]byte, 100)),
	}
	err := p.Initialize()
	require.EqualError(t, err, "no playable tracks")
}
