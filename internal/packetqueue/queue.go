// Package packetqueue contains a blocking FIFO of compressed units.
package packetqueue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/bluenviron/avplay/internal/unit"
)

// ErrAllocation is returned by Put when the packet cannot be stored.
var ErrAllocation = errors.New("unable to allocate packet")

// Status is the outcome of Get.
type Status int

// statuses.
const (
	// StatusReady means that a packet has been returned.
	StatusReady Status = iota

	// StatusEmpty means that the queue is empty and the call was non-blocking.
	StatusEmpty

	// StatusCancelled means that the queue has been shut down.
	StatusCancelled
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusEmpty:
		return "empty"
	}
	return "cancelled"
}

// Queue is a thread-safe FIFO of compressed units.
// It decouples a single reader from a consumer with its own pace.
type Queue struct {
	// hard limit on queued bytes. Put fails with ErrAllocation above it.
	// Zero means no limit.
	HardLimit int

	mutex    sync.Mutex
	cond     *sync.Cond
	packets  []*unit.Packet
	size     int
	quit     atomic.Bool
	throttle int
}

// Initialize initializes Queue.
func (q *Queue) Initialize() {
	q.cond = sync.NewCond(&q.mutex)
}

// Put stores a private copy of pkt at the tail of the queue.
// It never blocks. On error the queue is left untouched.
func (q *Queue) Put(pkt *unit.Packet) error {
	if pkt == nil {
		return ErrAllocation
	}

	q.mutex.Lock()
	defer q.mutex.Unlock()

	if q.HardLimit > 0 && q.size+pkt.Size() > q.HardLimit {
		return ErrAllocation
	}

	q.packets = append(q.packets, pkt.Clone())
	q.size += pkt.Size()

	// a throttled producer shares the condition variable with consumers
	if q.throttle != 0 {
		q.cond.Broadcast()
	} else {
		q.cond.Signal()
	}
	return nil
}

// Get pops the packet at the head of the queue.
// When block is true and the queue is empty, it waits until a packet is
// available or the queue is shut down.
func (q *Queue) Get(block bool) (*unit.Packet, Status) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	for {
		if q.quit.Load() {
			return nil, StatusCancelled
		}

		if len(q.packets) != 0 {
			pkt := q.packets[0]
			q.packets[0] = nil
			q.packets = q.packets[1:]
			if len(q.packets) == 0 {
				q.packets = nil
			}
			q.size -= pkt.Size()

			if q.throttle != 0 {
				q.cond.Broadcast()
			}

			return pkt, StatusReady
		}

		if !block {
			return nil, StatusEmpty
		}

		q.cond.Wait()
	}
}

// WaitBelow blocks while the queued byte size is at or above maxSize.
// It returns false if the queue is shut down or ctx is canceled.
func (q *Queue) WaitBelow(ctx context.Context, maxSize int) bool {
	stop := context.AfterFunc(ctx, func() {
		q.mutex.Lock()
		q.cond.Broadcast()
		q.mutex.Unlock()
	})
	defer stop()

	q.mutex.Lock()
	defer q.mutex.Unlock()

	q.throttle++
	defer func() { q.throttle-- }()

	for {
		if q.quit.Load() || ctx.Err() != nil {
			return false
		}

		if q.size < maxSize {
			return true
		}

		q.cond.Wait()
	}
}

// Shutdown cancels all pending and future blocking calls.
// Queued packets are kept until Flush is called.
func (q *Queue) Shutdown() {
	q.mutex.Lock()
	q.quit.Store(true)
	q.cond.Broadcast()
	q.mutex.Unlock()
}

// Closed checks whether Shutdown has been called.
func (q *Queue) Closed() bool {
	return q.quit.Load()
}

// Flush releases all queued packets and returns how many were released.
// It must be called by the owner once no other goroutine uses the queue.
func (q *Queue) Flush() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	n := len(q.packets)
	clear(q.packets)
	q.packets = nil
	q.size = 0
	return n
}

// Len returns the number of queued packets.
func (q *Queue) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return len(q.packets)
}

// Size returns the sum of the payload sizes of queued packets.
func (q *Queue) Size() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return q.size
}
