//go:build !ffmpeg

package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewAudioDecoderCompressed(t *testing.T) {
	for _, ca := range []string{"aac", "opus", "mp3"} {
		t.Run(ca, func(t *testing.T) {
			_, err := NewAudioDecoder(ca, 48000, 2)
			require.EqualError(t, err, "unsupported audio codec: "+ca)
		})
	}
}
