package pipeline

import (
	"sync"

	"github.com/aprswatch/aprswatch/internal/types"
)

// Queue is a bounded FIFO of packets with drop-oldest overflow. The
// producer never blocks: when the queue is full, the oldest queued
// packet is evicted to make room, so under sustained overload newer
// packets survive at the expense of older ones.
//
// Designed for a single producer and any number of consumers ranging
// over C().
type Queue struct {
	ch chan *types.Packet

	mu     sync.Mutex
	closed bool
}

// NewQueue creates a queue holding at most capacity packets.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{ch: make(chan *types.Packet, capacity)}
}

// Enqueue adds p to the queue, evicting queued packets as needed.
// It reports how many packets were dropped to make room and whether
// the packet was accepted (false only after Close).
func (q *Queue) Enqueue(p *types.Packet) (dropped int, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return 0, false
	}

	for {
		select {
		case q.ch <- p:
			return dropped, true
		default:
		}

		// Full. Evict the oldest entry; a concurrent consumer may have
		// already made room, in which case the next send attempt wins.
		select {
		case <-q.ch:
			dropped++
		default:
		}
	}
}

// C returns the consumer channel. It is closed by Close once the
// remaining packets have been drained by consumers.
func (q *Queue) C() <-chan *types.Packet {
	return q.ch
}

// Close marks the queue completed. Consumers ranging over C() exit
// after draining. Safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}

// Len returns the number of queued packets.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return cap(q.ch)
}
