package unit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPacketClone(t *testing.T) {
	p := &Packet{
		StreamIndex: 1,
		StreamType:  StreamTypeAudio,
		Payload:     []byte{1, 2, 3},
	}

	c := p.Clone()
	require.Equal(t, p, c)

	p.Payload[0] = 9
	require.Equal(t, byte(1), c.Payload[0])
	require.Equal(t, 3, c.Size())
}

func TestChunkIsZero(t *testing.T) {
	require.True(t, Chunk{}.IsZero())
	require.False(t, Chunk{Data: []byte{}}.IsZero())
}
