package admission

import (
	"context"
	"sync/atomic"
)

// Counter is an in-process order-number sequence.
type Counter struct {
	n atomic.Int64
}

// NewCounter returns a counter whose first Next is start+1.
func NewCounter(start int64) *Counter {
	c := &Counter{}
	c.n.Store(start)
	return c
}

// Next returns the next order number.
func (c *Counter) Next(ctx context.Context) (int64, error) {
	return c.n.Add(1), nil
}

// Advance makes the next number greater than floor.
func (c *Counter) Advance(ctx context.Context, floor int64) error {
	for {
		cur := c.n.Load()
		if cur >= floor || c.n.CompareAndSwap(cur, floor) {
			return nil
		}
	}
}
