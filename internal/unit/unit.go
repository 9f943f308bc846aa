// Package unit contains the media units exchanged between components.
package unit

import (
	"time"
)

// StreamType is the kind of elementary stream a packet belongs to.
type StreamType int

// stream types.
const (
	StreamTypeOther StreamType = iota
	StreamTypeVideo
	StreamTypeAudio
)

// String implements fmt.Stringer.
func (t StreamType) String() string {
	switch t {
	case StreamTypeVideo:
		return "video"
	case StreamTypeAudio:
		return "audio"
	}
	return "other"
}

// Packet is a compressed unit produced by a demuxer.
type Packet struct {
	// index of the track inside the container
	StreamIndex int

	// kind of track
	StreamType StreamType

	// presentation timestamp
	PTS time.Duration

	// codec-dependent payload
	Payload []byte
}

// Size returns the payload size.
func (p *Packet) Size() int {
	return len(p.Payload)
}

// Clone returns a deep copy of the packet.
func (p *Packet) Clone() *Packet {
	c := *p
	if p.Payload != nil {
		c.Payload = make([]byte, len(p.Payload))
		copy(c.Payload, p.Payload)
	}
	return &c
}
