// Package broadcast provides one-to-many fan-out of event streams with an
// explicit buffering policy per stream.
//
// Two policies are supported. A conflating broadcaster keeps only the latest
// value for a slow subscriber, so state snapshots (quotes, order books) never
// block the producer. A buffered broadcaster queues every value per
// subscriber in FIFO order, so facts (trades) are never dropped; the queue
// grows while a subscriber lags and drains when it catches up.
package broadcast

import (
	"sync"
)

type policy int

const (
	conflate policy = iota
	buffered
)

// Subscription is one subscriber's view of a stream. Values arrive on C.
// C is closed after Cancel, or when the broadcaster shuts down.
type Subscription[T any] struct {
	// C delivers published values.
	C <-chan T

	cancel func()
}

// Cancel detaches the subscription. Safe to call more than once; other
// subscribers and the producer are unaffected.
func (s *Subscription[T]) Cancel() {
	s.cancel()
}

// Broadcaster fans published values out to all current subscribers.
type Broadcaster[T any] struct {
	mu     sync.Mutex
	subs   map[uint64]*subscriber[T]
	nextID uint64
	pol    policy
	closed bool
}

// NewConflating creates a broadcaster with latest-value-wins delivery.
func NewConflating[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{subs: make(map[uint64]*subscriber[T]), pol: conflate}
}

// NewBuffered creates a broadcaster with per-subscriber lossless FIFO delivery.
func NewBuffered[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{subs: make(map[uint64]*subscriber[T]), pol: buffered}
}

type subscriber[T any] struct {
	pol policy

	// conflating delivery channel, capacity 1
	ch chan T

	// buffered delivery state
	mu    sync.Mutex
	queue []T
	wake  chan struct{}
	done  chan struct{}
	out   chan T

	stop sync.Once
}

// Publish delivers v to every current subscriber without blocking on any of
// them. Publishing on a closed broadcaster is a no-op.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, s := range b.subs {
		s.deliver(v)
	}
}

func (s *subscriber[T]) deliver(v T) {
	if s.pol == conflate {
		for {
			select {
			case s.ch <- v:
				return
			default:
			}
			// Channel full: displace the stale value and retry.
			select {
			case <-s.ch:
			default:
			}
		}
	}

	s.mu.Lock()
	s.queue = append(s.queue, v)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Subscribe attaches a new subscriber and returns its subscription.
// Subscribing to a closed broadcaster yields an already-closed channel.
func (b *Broadcaster[T]) Subscribe() *Subscription[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := &subscriber[T]{pol: b.pol}
	var c <-chan T
	if b.pol == conflate {
		s.ch = make(chan T, 1)
		c = s.ch
	} else {
		s.out = make(chan T)
		s.wake = make(chan struct{}, 1)
		s.done = make(chan struct{})
		c = s.out
	}

	if b.closed {
		if b.pol == conflate {
			close(s.ch)
		} else {
			close(s.out)
		}
		return &Subscription[T]{C: c, cancel: func() {}}
	}

	if b.pol == buffered {
		go s.pump()
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = s

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			s.shutdown()
		}
		b.mu.Unlock()
	}

	return &Subscription[T]{C: c, cancel: cancel}
}

// pump moves queued values to the subscriber channel in publication order.
func (s *subscriber[T]) pump() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			select {
			case <-s.wake:
				continue
			case <-s.done:
				close(s.out)
				return
			}
		}
		v := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- v:
		case <-s.done:
			close(s.out)
			return
		}
	}
}

// shutdown must be called with the subscriber already detached from the
// broadcaster, so no further deliveries can race the close.
func (s *subscriber[T]) shutdown() {
	s.stop.Do(func() {
		if s.pol == conflate {
			close(s.ch)
			return
		}
		close(s.done)
	})
}

// Close detaches all subscribers and closes their channels.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, s := range b.subs {
		delete(b.subs, id)
		s.shutdown()
	}
}
