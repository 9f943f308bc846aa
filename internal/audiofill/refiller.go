// Package audiofill reconstructs a fixed-size audio stream from
// variably-sized decoded frames.
package audiofill

import (
	"errors"
	"sync/atomic"

	"github.com/bluenviron/avplay/internal/codec"
	"github.com/bluenviron/avplay/internal/logger"
	"github.com/bluenviron/avplay/internal/packetqueue"
)

// ErrEndOfStream is returned when the packet queue has been shut down.
// No further bytes are produced after it.
var ErrEndOfStream = errors.New("end of stream")

// ErrUnderrun is returned in non-blocking mode when the packet queue is empty.
var ErrUnderrun = errors.New("underrun")

// cursor points into the most recently decoded frame.
type cursor struct {
	buf []byte
	off int
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.off
}

func (c *cursor) reset() {
	c.buf = nil
	c.off = 0
}

// Refiller pulls compressed packets from a queue, decodes them and serves
// requests of arbitrary size, carrying undelivered bytes across calls.
// It must be used by a single goroutine.
type Refiller struct {
	Queue   *packetqueue.Queue
	Decoder codec.AudioDecoder

	// when true, an empty queue produces ErrUnderrun instead of waiting.
	NonBlocking bool

	Parent logger.Writer

	decodeErrLogger logger.Writer
	cur             cursor
	pending         []byte
	eos             bool
	decodeErrors    atomic.Uint64
	decodedBytes    atomic.Uint64
}

// Initialize initializes Refiller.
func (r *Refiller) Initialize() {
	if r.Parent == nil {
		r.Parent = logger.NilWriter
	}
	r.decodeErrLogger = logger.NewLimitedLogger(r.Parent)
}

// Fill writes decoded samples into dst until dst is full.
// If the stream ends before, it returns the bytes written so far and ErrEndOfStream.
func (r *Refiller) Fill(dst []byte) (int, error) {
	n := 0

	for n < len(dst) {
		if r.cur.remaining() == 0 {
			samples, err := r.decodeFrame()
			if err != nil {
				return n, err
			}
			r.cur.buf = samples
			r.cur.off = 0
		}

		c := copy(dst[n:], r.cur.buf[r.cur.off:])
		r.cur.off += c
		n += c
	}

	return n, nil
}

// Next returns the next chunk of decoded samples: either the undelivered
// part of the current frame or a new frame.
func (r *Refiller) Next() ([]byte, error) {
	if r.cur.remaining() != 0 {
		samples := r.cur.buf[r.cur.off:]
		r.cur.reset()
		return samples, nil
	}

	return r.decodeFrame()
}

// Remaining returns the amount of decoded bytes not delivered yet.
func (r *Refiller) Remaining() int {
	return r.cur.remaining()
}

func (r *Refiller) buffered() int {
	return r.cur.remaining() + len(r.pending)
}

// DecodeErrors returns the number of discarded packets.
func (r *Refiller) DecodeErrors() uint64 {
	return r.decodeErrors.Load()
}

// DecodedBytes returns the number of decoded bytes.
func (r *Refiller) DecodedBytes() uint64 {
	return r.decodedBytes.Load()
}

func (r *Refiller) decodeFrame() ([]byte, error) {
	for {
		for len(r.pending) != 0 {
			n, samples, err := r.Decoder.Decode(r.pending)
			if err == nil && n <= 0 && len(samples) == 0 {
				err = errors.New("decoder did not make progress")
			}
			if err != nil {
				r.decodeErrors.Add(1)
				r.decodeErrLogger.Log(logger.Warn, "unable to decode audio packet: %v", err)
				r.pending = nil
				break
			}

			if n > len(r.pending) {
				n = len(r.pending)
			}
			r.pending = r.pending[n:]

			if len(samples) != 0 {
				r.decodedBytes.Add(uint64(len(samples)))
				return samples, nil
			}
		}

		if r.eos {
			return nil, ErrEndOfStream
		}

		pkt, status := r.Queue.Get(!r.NonBlocking)
		switch status {
		case packetqueue.StatusCancelled:
			r.eos = true
			r.cur.reset()
			return nil, ErrEndOfStream

		case packetqueue.StatusEmpty:
			return nil, ErrUnderrun
		}

		r.pending = pkt.Payload
	}
}
