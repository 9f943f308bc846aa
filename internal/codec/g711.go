package codec

import (
	"github.com/bluenviron/mediacommon/pkg/codecs/g711"
)

// G711 is a G.711 decoder.
type G711 struct {
	MULaw bool
}

// Decode implements AudioDecoder.
func (d *G711) Decode(payload []byte) (int, []byte, error) {
	if len(payload) == 0 {
		return 0, nil, ErrInvalidPayload
	}

	var samples []byte
	if d.MULaw {
		samples = g711.DecodeMulaw(payload)
	} else {
		samples = g711.DecodeAlaw(payload)
	}

	// decoded samples are big-endian
	for i := 0; i+1 < len(samples); i += 2 {
		samples[i], samples[i+1] = samples[i+1], samples[i]
	}

	return len(payload), samples, nil
}

// Close implements AudioDecoder.
func (d *G711) Close() {}
