package codec

import (
	"fmt"

	"github.com/bluenviron/mediacommon/v2/pkg/codecs/h264"

	"github.com/bluenviron/avplay/internal/unit"
)

func splitAnnexB(payload []byte) ([][]byte, error) {
	var au h264.AnnexB
	err := au.Unmarshal(payload)
	if err != nil {
		return nil, err
	}
	return au, nil
}

// h264Params tracks parameter sets seen in the bitstream.
type h264Params struct {
	sps    []byte
	pps    []byte
	width  int
	height int
}

// update stores parameter sets contained in au.
func (p *h264Params) update(au [][]byte) error {
	for _, nalu := range au {
		if len(nalu) == 0 {
			continue
		}

		switch h264.NALUType(nalu[0] & 0x1F) {
		case h264.NALUTypeSPS:
			var sps h264.SPS
			err := sps.Unmarshal(nalu)
			if err != nil {
				return fmt.Errorf("invalid SPS: %w", err)
			}
			p.sps = nalu
			p.width = sps.Width()
			p.height = sps.Height()

		case h264.NALUTypePPS:
			p.pps = nalu
		}
	}
	return nil
}

// H264Parser is a VideoDecoder that does not decode pixels. It validates
// access units, tracks parameter sets and emits pictures carrying
// dimensions and the access unit itself.
type H264Parser struct {
	params h264Params
}

// Decode implements VideoDecoder.
func (d *H264Parser) Decode(pkt *unit.Packet) ([]*Picture, error) {
	au, err := splitAnnexB(pkt.Payload)
	if err != nil {
		return nil, err
	}

	err = d.params.update(au)
	if err != nil {
		return nil, err
	}

	// wait for parameters
	if d.params.sps == nil || d.params.pps == nil {
		return nil, nil
	}

	return []*Picture{{
		PTS:      pkt.PTS,
		Width:    d.params.width,
		Height:   d.params.height,
		Keyframe: h264.IsRandomAccess(au),
		AU:       au,
	}}, nil
}

// Flush implements VideoDecoder.
func (d *H264Parser) Flush() []*Picture {
	return nil
}

// Close implements VideoDecoder.
func (d *H264Parser) Close() {
}
