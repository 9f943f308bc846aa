// Package capture contains capture devices.
package capture

import (
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned by Read after Close.
var ErrClosed = errors.New("device closed")

// pacer releases a read once per period until closed.
type pacer struct {
	period time.Duration

	ticker    *time.Ticker
	closed    chan struct{}
	closeOnce *sync.Once
}

func (p *pacer) open() {
	p.ticker = time.NewTicker(p.period)
	p.closed = make(chan struct{})
	p.closeOnce = &sync.Once{}
}

func (p *pacer) wait() (time.Time, error) {
	select {
	case t := <-p.ticker.C:
		return t, nil
	case <-p.closed:
		return time.Time{}, ErrClosed
	}
}

func (p *pacer) close() {
	p.closeOnce.Do(func() {
		p.ticker.Stop()
		close(p.closed)
	})
}
