// Package framecache contains a bounded cache filled by a capture routine.
package framecache

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/bluenviron/avplay/internal/counterdumper"
	"github.com/bluenviron/avplay/internal/logger"
	"github.com/bluenviron/avplay/internal/unit"
)

// Source is a capture device.
type Source interface {
	// Open opens the device. It is called synchronously by Start.
	Open() error

	// Read blocks until a chunk is available.
	Read() (unit.Chunk, error)

	// Close closes the device and unblocks a pending Read.
	Close() error
}

// Params are the cache parameters.
type Params struct {
	// maximum amount of cached chunks
	Capacity int

	// what to do when the cache is full
	Overflow OverflowPolicy
}

// Stats are cache statistics.
type Stats struct {
	Produced uint64
	Dropped  uint64
	Evicted  uint64
}

// Cache is a bounded FIFO filled by a dedicated capture routine and drained
// by consumers.
type Cache struct {
	Parent logger.Writer

	lifecycle sync.Mutex
	mutex     sync.Mutex
	cond      *sync.Cond
	chunks    []unit.Chunk
	params    Params
	running   atomic.Bool
	source    Source
	produced  atomic.Uint64
	dropped   *counterdumper.CounterDumper
	evicted   *counterdumper.CounterDumper

	// out
	done chan struct{}
}

// Initialize initializes Cache.
func (c *Cache) Initialize() {
	if c.Parent == nil {
		c.Parent = logger.NilWriter
	}

	c.cond = sync.NewCond(&c.mutex)

	c.dropped = &counterdumper.CounterDumper{
		OnReport: func(val uint64) {
			c.Parent.Log(logger.Warn, "%d chunks dropped because the cache is full", val)
		},
	}

	c.evicted = &counterdumper.CounterDumper{
		OnReport: func(val uint64) {
			c.Parent.Log(logger.Debug, "%d chunks evicted because the cache is full", val)
		},
	}
}

// Start starts capturing from source.
// If the cache is already running, it is stopped first.
// If the source cannot be opened, no routine is started.
func (c *Cache) Start(params Params, source Source) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.stopInner()

	if params.Capacity <= 0 {
		return fmt.Errorf("invalid capacity: %d", params.Capacity)
	}

	if params.Overflow < OverflowEvictOldest || params.Overflow > OverflowBlock {
		return fmt.Errorf("invalid overflow policy: %d", params.Overflow)
	}

	err := source.Open()
	if err != nil {
		return fmt.Errorf("unable to open source: %w", err)
	}

	c.mutex.Lock()
	c.chunks = nil
	c.params = params
	c.mutex.Unlock()

	c.source = source
	c.done = make(chan struct{})
	c.running.Store(true)

	c.dropped.Start()
	c.evicted.Start()

	go c.run()

	return nil
}

// Stop stops the capture routine and releases cached chunks.
// It can be called multiple times, even before Start.
func (c *Cache) Stop() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.stopInner()
}

func (c *Cache) stopInner() {
	if c.done == nil {
		return
	}

	c.mutex.Lock()
	c.running.Store(false)
	c.cond.Broadcast()
	c.mutex.Unlock()

	c.source.Close() //nolint:errcheck
	<-c.done

	c.dropped.Stop()
	c.evicted.Stop()

	c.mutex.Lock()
	c.chunks = nil
	c.mutex.Unlock()

	c.source = nil
	c.done = nil
}

// Running checks whether the capture routine is running.
func (c *Cache) Running() bool {
	return c.running.Load()
}

// Get pops the oldest chunk.
// If the cache is empty and block is true, it waits until a chunk is
// available or the cache is stopped. It returns false when no chunk is available.
func (c *Cache) Get(block bool) (unit.Chunk, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for len(c.chunks) == 0 {
		if !block || !c.running.Load() {
			return unit.Chunk{}, false
		}
		c.cond.Wait()
	}

	chunk := c.chunks[0]
	c.chunks[0] = unit.Chunk{}
	c.chunks = c.chunks[1:]

	// wake up a producer waiting for space
	c.cond.Broadcast()

	return chunk, true
}

// Len returns the number of cached chunks.
func (c *Cache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.chunks)
}

// Stats returns cache statistics.
func (c *Cache) Stats() Stats {
	return Stats{
		Produced: c.produced.Load(),
		Dropped:  c.dropped.Total(),
		Evicted:  c.evicted.Total(),
	}
}

func (c *Cache) run() {
	defer close(c.done)

	for c.running.Load() {
		chunk, err := c.source.Read()
		if err != nil {
			if c.running.Load() {
				c.Parent.Log(logger.Error, "capture stopped: %v", err)
			}

			c.mutex.Lock()
			c.running.Store(false)
			c.chunks = nil
			c.cond.Broadcast()
			c.mutex.Unlock()
			return
		}

		c.push(chunk)
	}
}

func (c *Cache) push(chunk unit.Chunk) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for len(c.chunks) >= c.params.Capacity {
		switch c.params.Overflow {
		case OverflowEvictOldest:
			c.chunks[0] = unit.Chunk{}
			c.chunks = c.chunks[1:]
			c.evicted.Increase()

		case OverflowDropNewest:
			c.dropped.Increase()
			return

		case OverflowBlock:
			if !c.running.Load() {
				c.dropped.Increase()
				return
			}
			c.cond.Wait()
		}
	}

	c.chunks = append(c.chunks, chunk)
	c.produced.Add(1)
	c.cond.Broadcast()
}
