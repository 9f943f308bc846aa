//go:build !ffmpeg

package codec

import (
	"fmt"
)

// without FFmpeg support, only uncompressed and G.711 audio is decoded.
func newCompressedAudioDecoder(codec string, _ int, _ int) (AudioDecoder, error) {
	return nil, fmt.Errorf("unsupported audio codec: %s", codec)
}
