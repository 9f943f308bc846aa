//go:build !ffmpeg

package codec

import (
	"fmt"
)

// NewVideoDecoder allocates a VideoDecoder for the given codec name.
// Without FFmpeg support, pictures are parsed but not decoded.
func NewVideoDecoder(codec string) (VideoDecoder, error) {
	if codec != "h264" {
		return nil, fmt.Errorf("unsupported video codec: %s", codec)
	}
	return &H264Parser{}, nil
}
