package audiofill

import (
	"sync/atomic"
)

// Callback is the audio output boundary. It is invoked periodically by an
// audio device with a buffer that must be fully populated.
type Callback struct {
	Refiller *Refiller

	staging   []byte
	idx       int
	underruns atomic.Uint64
	silent    atomic.Uint64
	eos       atomic.Bool
	buffered  atomic.Int64
	renders   atomic.Uint64
}

// Render fills out with decoded samples. When no samples are available,
// the rest of out is filled with silence.
func (c *Callback) Render(out []byte) {
	defer func() {
		c.buffered.Store(int64(len(c.staging) - c.idx + c.Refiller.buffered()))
		c.renders.Add(1)
	}()

	for len(out) != 0 {
		if c.idx >= len(c.staging) {
			chunk, err := c.Refiller.Next()
			if err != nil {
				if err == ErrEndOfStream {
					c.eos.Store(true)
				} else {
					c.underruns.Add(1)
				}
				clear(out)
				c.silent.Add(uint64(len(out)))
				c.staging = nil
				c.idx = 0
				return
			}

			c.staging = chunk
			c.idx = 0
		}

		n := copy(out, c.staging[c.idx:])
		c.idx += n
		out = out[n:]
	}
}

// Underruns returns how many times the queue was found empty.
func (c *Callback) Underruns() uint64 {
	return c.underruns.Load()
}

// SilentBytes returns how many bytes of silence were rendered.
func (c *Callback) SilentBytes() uint64 {
	return c.silent.Load()
}

// EOS checks whether the end of stream has been reached.
func (c *Callback) EOS() bool {
	return c.eos.Load()
}

// Buffered returns the amount of decoded or undecoded bytes that were
// dequeued but not rendered yet, as of the last Render call.
func (c *Callback) Buffered() int {
	return int(c.buffered.Load())
}

// Renders returns how many times Render has completed.
func (c *Callback) Renders() uint64 {
	return c.renders.Load()
}
