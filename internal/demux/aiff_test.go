package demux

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"math/bits"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bluenviron/avplay/internal/unit"
)

func intToExtended(v int) []byte {
	l := bits.Len64(uint64(v))
	buf := binary.BigEndian.AppendUint16(nil, uint16(16383+l-1))
	return binary.BigEndian.AppendUint64(buf, uint64(v)<<(64-l))
}

func aiffFile(sampleRate int, channels int, sampleSize int, offset int, data []byte) []byte {
	comm := binary.BigEndian.AppendUint16(nil, uint16(channels))
	comm = binary.BigEndian.AppendUint32(comm, uint32(len(data)/(channels*2)))
	comm = binary.BigEndian.AppendUint16(comm, uint16(sampleSize))
	comm = append(comm, intToExtended(sampleRate)...)

	buf := []byte("FORM")
	buf = binary.BigEndian.AppendUint32(buf, uint32(4+8+len(comm)+8+8+offset+len(data)))
	buf = append(buf, "AIFF"...)

	buf = append(buf, "COMM"...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(comm)))
	buf = append(buf, comm...)

	buf = append(buf, "SSND"...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(8+offset+len(data)))
	buf = binary.BigEndian.AppendUint32(buf, uint32(offset))
	buf = binary.BigEndian.AppendUint32(buf, 0)
	buf = append(buf, make([]byte, offset)...)
	buf = append(buf, data...)

	return buf
}

func TestExtendedToInt(t *testing.T) {
	for _, v := range []int{8000, 22050, 44100, 48000, 96000} {
		require.Equal(t, v, extendedToInt(intToExtended(v)))
	}
}

func TestAIFF(t *testing.T) {
	data := make([]byte, 4000)
	for i := range data {
		data[i] = byte(i)
	}

	d := &AIFF{R: bytes.NewReader(aiffFile(44100, 2, 16, 4, data))}
	err := d.Initialize()
	require.NoError(t, err)

	require.Equal(t, []Track{{
		Index:      0,
		Type:       unit.StreamTypeAudio,
		Codec:      "lpcm",
		SampleRate: 44100,
		Channels:   2,
	}}, d.Tracks())

	var out []byte

	for {
		pkt, err2 := d.Read(context.Background())
		if err2 == io.EOF {
			break
		}
		require.NoError(t, err2)
		out = append(out, pkt.Payload...)
	}

	require.Equal(t, data, out)
}

func TestAIFFErrors(t *testing.T) {
	for _, ca := range []struct {
		name string
		byts []byte
		err  string
	}{
		{
			"not aiff",
			[]byte("FORM\x00\x00\x00\x00AIFC"),
			"not an AIFF file",
		},
		{
			"bit depth",
			aiffFile(8000, 1, 8, 0, nil),
			"unsupported bit depth: 8",
		},
	} {
		t.Run(ca.name, func(t *testing.T) {
			d := &AIFF{R: bytes.NewReader(ca.byts)}
			err := d.Initialize()
			require.EqualError(t, err, ca.err)
		})
	}
}
