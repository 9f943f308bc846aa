package audioout

import (
	"io"
	"time"

	"github.com/bluenviron/avplay/internal/logger"
)

// Clock is a software device that invokes the callback at the pace of a
// real device and optionally writes samples to W.
type Clock struct {
	W      io.Writer
	Parent logger.Writer

	spec           Spec
	cb             Callback
	period         time.Duration
	buf            []byte
	writeErrLogger logger.Writer

	terminate chan struct{}
	done      chan struct{}
}

// Initialize implements Device.
func (c *Clock) Initialize(spec Spec, cb Callback) error {
	err := spec.validate()
	if err != nil {
		return err
	}

	if c.Parent == nil {
		c.Parent = logger.NilWriter
	}

	c.spec = spec
	c.cb = cb
	c.period = time.Duration(int64(spec.Samples) * int64(time.Second) / int64(spec.SampleRate))
	c.buf = make([]byte, spec.BufferSize())
	c.writeErrLogger = logger.NewLimitedLogger(c.Parent)
	c.terminate = make(chan struct{})

	return nil
}

// Period returns the interval between callbacks.
func (c *Clock) Period() time.Duration {
	return c.period
}

// Start implements Device.
func (c *Clock) Start() {
	c.done = make(chan struct{})
	go c.run()
}

// Close implements Device.
// After Close returns, the callback is not invoked anymore.
func (c *Clock) Close() {
	if c.terminate == nil {
		return
	}
	close(c.terminate)
	if c.done != nil {
		<-c.done
	}
}

func (c *Clock) run() {
	defer close(c.done)

	t := time.NewTicker(c.period)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			c.cb(c.buf)

			if c.W != nil {
				_, err := c.W.Write(c.buf)
				if err != nil {
					c.writeErrLogger.Log(logger.Warn, "unable to write samples: %v", err)
				}
			}

		case <-c.terminate:
			return
		}
	}
}
