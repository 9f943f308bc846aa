package render

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/bluenviron/avplay/internal/asyncwriter"
	"github.com/bluenviron/avplay/internal/codec"
	"github.com/bluenviron/avplay/internal/logger"
)

const (
	// DefaultDelay is the default pause after each picture.
	DefaultDelay = 33 * time.Millisecond

	defaultQueueSize = 64
)

// Presenter hands pictures to a sink and paces the caller with a fixed delay.
// Sink writes happen in a dedicated routine.
type Presenter struct {
	Sink      Sink
	Delay     time.Duration
	QueueSize int
	Parent    logger.Writer

	writer    *asyncwriter.Writer
	presented atomic.Uint64
	errLogger logger.Writer
}

// Initialize initializes Presenter.
func (p *Presenter) Initialize() error {
	if p.Parent == nil {
		p.Parent = logger.NilWriter
	}
	if p.QueueSize == 0 {
		p.QueueSize = defaultQueueSize
	}

	p.errLogger = logger.NewLimitedLogger(p.Parent)

	p.writer = &asyncwriter.Writer{
		QueueSize: p.QueueSize,
		Parent:    p.Parent,
	}
	err := p.writer.Initialize()
	if err != nil {
		return err
	}

	p.writer.Start()

	return nil
}

// Close waits for queued pictures, stops the writer routine and closes the sink.
func (p *Presenter) Close() {
	flushed := make(chan struct{})
	if p.writer.Push(func() error {
		close(flushed)
		return nil
	}) {
		select {
		case <-flushed:
		case <-p.writer.Error():
		}
	}

	p.writer.Stop()
	err := p.Sink.Close()
	if err != nil {
		p.Parent.Log(logger.Warn, "unable to close sink: %v", err)
	}
}

// Present queues a picture, then waits for the delay.
// It returns false if ctx is canceled while waiting.
func (p *Presenter) Present(ctx context.Context, pic *codec.Picture) bool {
	p.writer.Push(func() error {
		err := p.Sink.Present(pic)
		if err != nil {
			p.errLogger.Log(logger.Warn, "unable to present picture: %v", err)
			return nil
		}
		p.presented.Add(1)
		return nil
	})

	if p.Delay <= 0 {
		return ctx.Err() == nil
	}

	t := time.NewTimer(p.Delay)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// Presented returns the number of pictures handed to the sink.
func (p *Presenter) Presented() uint64 {
	return p.presented.Load()
}

// Discarded returns the number of pictures discarded because the queue was full.
func (p *Presenter) Discarded() uint64 {
	return p.writer.Discarded()
}
