//go:build oto

package audioout

import (
	"github.com/hajimehoshi/oto/v2"

	"github.com/bluenviron/avplay/internal/logger"
)

// callbackReader adapts a Callback to the pull model of oto.
type callbackReader struct {
	cb Callback
}

func (r *callbackReader) Read(p []byte) (int, error) {
	// keep whole frames
	n := len(p) - len(p)%4
	if n == 0 {
		n = len(p)
	}
	r.cb(p[:n])
	return n, nil
}

// Oto is a device backed by the system audio output.
type Oto struct {
	Parent logger.Writer

	ctx    *oto.Context
	player oto.Player
}

func newOto(parent logger.Writer) (Device, error) {
	return &Oto{Parent: parent}, nil
}

// Initialize implements Device.
func (o *Oto) Initialize(spec Spec, cb Callback) error {
	err := spec.validate()
	if err != nil {
		return err
	}

	ctx, ready, err := oto.NewContext(spec.SampleRate, spec.Channels, 2)
	if err != nil {
		return err
	}
	<-ready

	o.ctx = ctx
	o.player = ctx.NewPlayer(&callbackReader{cb: cb})
	if s, ok := o.player.(oto.BufferSizeSetter); ok {
		s.SetBufferSize(spec.BufferSize())
	}

	return nil
}

// Start implements Device.
func (o *Oto) Start() {
	o.player.Play()
}

// Close implements Device.
func (o *Oto) Close() {
	o.player.Close() //nolint:errcheck
}
