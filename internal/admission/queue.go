// Package admission serializes the creation of new orders so that order
// numbers and display ids are assigned without races.
package admission

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"checkout/internal/domain"
	"checkout/internal/repository"
)

var (
	// ErrClosed is returned by Admit after Close.
	ErrClosed = errors.New("admission queue closed")

	// ErrAlreadyAdmitted is returned for an order that already has a number.
	ErrAlreadyAdmitted = errors.New("order already admitted")
)

// DefaultQueueSize is the number of admissions that may wait before Admit blocks.
const DefaultQueueSize = 1024

// Admission is the outcome of a successful Admit.
type Admission struct {
	Order   *domain.Order
	Pending int // admissions still queued when this one was picked up
}

type result struct {
	admission Admission
	err       error
}

type job struct {
	ctx    context.Context
	order  domain.Order
	result chan result
}

// Queue admits orders one at a time in arrival order. A single worker
// goroutine owns the sequence, so at most one admission is being persisted
// at any instant.
type Queue struct {
	repo   repository.OrderRepository
	seq    repository.Sequence
	prefix string
	now    func() time.Time

	mu     sync.RWMutex
	closed bool
	jobs   chan *job
	done   chan struct{}
}

// NewQueue creates a queue and starts its worker. prefix is prepended to the
// order number to form the display order id.
func NewQueue(repo repository.OrderRepository, seq repository.Sequence, prefix string, size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}

	q := &Queue{
		repo:   repo,
		seq:    seq,
		prefix: prefix,
		now:    time.Now,
		jobs:   make(chan *job, size),
		done:   make(chan struct{}),
	}
	go q.run()
	return q
}

// DisplayID derives the display order id for an order number.
func DisplayID(prefix string, orderNumber int64) string {
	return prefix + strconv.FormatInt(orderNumber, 10)
}

// Admit queues the order and waits for it to be numbered and persisted. The
// caller's order is not modified; the admitted copy is returned.
//
// If ctx ends while the order is still waiting its turn, the admission is
// skipped. Once the worker has started on it, it runs to completion.
func (q *Queue) Admit(ctx context.Context, order *domain.Order) (Admission, error) {
	if order.OrderNumber != 0 || order.DisplayOrderID != "" {
		return Admission{}, ErrAlreadyAdmitted
	}

	j := &job{ctx: ctx, order: *order, result: make(chan result, 1)}

	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return Admission{}, ErrClosed
	}
	select {
	case q.jobs <- j:
		q.mu.RUnlock()
	case <-ctx.Done():
		q.mu.RUnlock()
		return Admission{}, ctx.Err()
	}

	select {
	case res := <-j.result:
		return res.admission, res.err
	case <-ctx.Done():
		return Admission{}, ctx.Err()
	}
}

// Pending returns the number of admissions waiting for the worker.
func (q *Queue) Pending() int {
	return len(q.jobs)
}

// Close stops accepting admissions and waits for queued ones to finish.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()
	<-q.done
}

func (q *Queue) run() {
	defer close(q.done)

	for j := range q.jobs {
		pending := len(q.jobs)
		j.result <- q.admit(j, pending)
	}
}

func (q *Queue) admit(j *job, pending int) result {
	if err := j.ctx.Err(); err != nil {
		return result{err: err}
	}
	ctx := context.WithoutCancel(j.ctx)
	order := j.order

	n, err := q.seq.Next(ctx)
	if err != nil {
		log.Printf("layer=admission method=admit order_id=%s err=%v", order.ID, err)
		return result{err: fmt.Errorf("failed to assign order number: %w", err)}
	}

	order.OrderNumber = n
	if err := q.repo.Create(ctx, &order); err != nil {
		log.Printf("layer=admission method=admit order_id=%s order_number=%d step=create err=%v", order.ID, n, err)
		return result{err: fmt.Errorf("failed to persist order %d: %w", n, err)}
	}

	order.DisplayOrderID = DisplayID(q.prefix, n)
	order.UpdatedAt = q.now()
	if err := q.repo.Update(ctx, &order); err != nil {
		log.Printf("layer=admission method=admit order_id=%s order_number=%d step=display_id err=%v", order.ID, n, err)
		return result{err: fmt.Errorf("failed to persist display id for order %d: %w", n, err)}
	}

	log.Printf("layer=admission method=admit order_id=%s order_number=%d display_id=%s pending=%d", order.ID, n, order.DisplayOrderID, pending)
	return result{admission: Admission{Order: &order, Pending: pending}}
}
