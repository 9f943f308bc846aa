// Package asyncwriter contains an asynchronous writer.
package asyncwriter

import (
	"fmt"

	"github.com/bluenviron/gortsplib/v4/pkg/ringbuffer"

	"github.com/bluenviron/avplay/internal/counterdumper"
	"github.com/bluenviron/avplay/internal/logger"
)

// Writer runs callbacks in a dedicated routine, in the same order they
// were pushed. When the queue is full, callbacks are discarded.
type Writer struct {
	// must be a power of two
	QueueSize int
	Parent    logger.Writer

	buffer    *ringbuffer.RingBuffer
	discarded *counterdumper.CounterDumper

	// out
	err chan error
}

// Initialize initializes Writer.
func (w *Writer) Initialize() error {
	if w.Parent == nil {
		w.Parent = logger.NilWriter
	}

	var err error
	w.buffer, err = ringbuffer.New(uint64(w.QueueSize))
	if err != nil {
		return fmt.Errorf("invalid queue size %d: %w", w.QueueSize, err)
	}

	w.discarded = &counterdumper.CounterDumper{
		OnReport: func(val uint64) {
			w.Parent.Log(logger.Warn, "%d %s discarded because the write queue is full",
				val,
				func() string {
					if val == 1 {
						return "item"
					}
					return "items"
				}())
		},
	}

	w.err = make(chan error)

	return nil
}

// Start starts the writer routine.
func (w *Writer) Start() {
	w.discarded.Start()
	go w.run()
}

// Stop stops the writer routine.
func (w *Writer) Stop() {
	w.buffer.Close()
	<-w.err
	w.discarded.Stop()
}

// Error returns whenever there's an error.
func (w *Writer) Error() chan error {
	return w.err
}

// Discarded returns the number of discarded callbacks.
func (w *Writer) Discarded() uint64 {
	return w.discarded.Total()
}

func (w *Writer) run() {
	w.err <- w.runInner()
	close(w.err)
}

func (w *Writer) runInner() error {
	for {
		cb, ok := w.buffer.Pull()
		if !ok {
			return fmt.Errorf("terminated")
		}

		err := cb.(func() error)()
		if err != nil {
			return err
		}
	}
}

// Push appends a callback to the queue.
func (w *Writer) Push(cb func() error) bool {
	ok := w.buffer.Push(cb)
	if !ok {
		w.discarded.Increase()
	}
	return ok
}
