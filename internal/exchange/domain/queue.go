package domain

import "sync"

// OrderQueue is a thread-safe holding area for submitted orders. Submissions
// accumulate in arrival order until the matching cycle drains them.
type OrderQueue struct {
	mu     sync.Mutex
	orders []Order
}

// NewOrderQueue creates an empty queue.
func NewOrderQueue() *OrderQueue {
	return &OrderQueue{}
}

// Submit enqueues an order. It never blocks on consumers.
func (q *OrderQueue) Submit(o Order) {
	q.mu.Lock()
	q.orders = append(q.orders, o)
	q.mu.Unlock()
}

// DrainAll atomically removes and returns all queued orders in arrival order.
// A submission racing the drain lands either in this result or in the next
// one, never in both.
func (q *OrderQueue) DrainAll() []Order {
	q.mu.Lock()
	drained := q.orders
	q.orders = nil
	q.mu.Unlock()
	return drained
}

// Len reports the number of queued orders.
func (q *OrderQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.orders)
}

// PendingVolume sums queued, not-yet-matched volume for instrument, split by
// side. The price generator uses the imbalance as its activity impact input.
func (q *OrderQueue) PendingVolume(instrument string) (buy, sell float64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, o := range q.orders {
		if o.Instrument != instrument {
			continue
		}
		switch o.Side {
		case SideBuy:
			buy += o.Volume
		case SideSell:
			sell += o.Volume
		}
	}
	return buy, sell
}
