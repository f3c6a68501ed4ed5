package admission

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkout/internal/domain"
	"checkout/internal/repository"
)

// fakeRepo records saves and the peak number of concurrent saves.
type fakeRepo struct {
	mu     sync.Mutex
	orders map[string]domain.Order

	inFlight    atomic.Int32
	maxInFlight atomic.Int32

	failCreate func(order *domain.Order) error
	block      chan struct{}
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: make(map[string]domain.Order)}
}

func (r *fakeRepo) enter() {
	n := r.inFlight.Add(1)
	for {
		peak := r.maxInFlight.Load()
		if n <= peak || r.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(100 * time.Microsecond)
}

func (r *fakeRepo) leave() { r.inFlight.Add(-1) }

func (r *fakeRepo) Create(ctx context.Context, order *domain.Order) error {
	r.enter()
	defer r.leave()

	if r.block != nil {
		<-r.block
	}
	if r.failCreate != nil {
		if err := r.failCreate(order); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = *order
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (r *fakeRepo) GetByDisplayID(ctx context.Context, displayID string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.DisplayOrderID == displayID {
			o := o
			return &o, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeRepo) Update(ctx context.Context, order *domain.Order) error {
	r.enter()
	defer r.leave()

	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[order.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.OrderNumber != order.OrderNumber {
		return fmt.Errorf("order number changed from %d to %d", stored.OrderNumber, order.OrderNumber)
	}
	r.orders[order.ID] = *order
	return nil
}

func newOrder(i int) *domain.Order {
	return &domain.Order{ID: fmt.Sprintf("order-%d", i), Currency: "EGP", Status: domain.OrderStatusPending}
}

func TestQueue_ConcurrentAdmissionsAreContiguous(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	q := NewQueue(repo, NewCounter(0), "ORDER-PREFIX-", 16)
	defer q.Close()

	const n = 100
	var wg sync.WaitGroup
	admitted := make(chan *domain.Order, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := q.Admit(context.Background(), newOrder(i))
			if !assert.NoError(t, err) {
				return
			}
			admitted <- a.Order
		}(i)
	}
	wg.Wait()
	close(admitted)

	require.Len(t, admitted, n)

	var numbers []int64
	for o := range admitted {
		require.Equal(t, DisplayID("ORDER-PREFIX-", o.OrderNumber), o.DisplayOrderID)

		stored, err := repo.GetByID(context.Background(), o.ID)
		require.NoError(t, err)
		require.Equal(t, o.DisplayOrderID, stored.DisplayOrderID)

		numbers = append(numbers, o.OrderNumber)
	}

	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
	for i, num := range numbers {
		require.Equal(t, int64(i+1), num)
	}

	require.Equal(t, int32(1), repo.maxInFlight.Load(), "only one admission may be persisted at a time")
}

func TestQueue_FailureDoesNotStallOthers(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("disk full")
	repo := newFakeRepo()
	repo.failCreate = func(order *domain.Order) error {
		if order.ID == "order-2" {
			return errBoom
		}
		return nil
	}

	q := NewQueue(repo, NewCounter(0), "ORDER-PREFIX-", 0)
	defer q.Close()

	seen := make(map[int64]bool)
	for i := 1; i <= 5; i++ {
		a, err := q.Admit(context.Background(), newOrder(i))
		if i == 2 {
			require.ErrorIs(t, err, errBoom)
			continue
		}
		require.NoError(t, err)
		require.False(t, seen[a.Order.OrderNumber], "duplicate order number %d", a.Order.OrderNumber)
		seen[a.Order.OrderNumber] = true
		require.Equal(t, DisplayID("ORDER-PREFIX-", a.Order.OrderNumber), a.Order.DisplayOrderID)
	}
	require.Len(t, seen, 4)

	_, err := repo.GetByID(context.Background(), "order-2")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestQueue_FIFOAndPendingCount(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.block = make(chan struct{})
	q := NewQueue(repo, NewCounter(0), "P-", 0)
	defer q.Close()

	type outcome struct {
		idx int
		a   Admission
	}
	results := make(chan outcome, 4)

	admit := func(i int) {
		a, err := q.Admit(context.Background(), newOrder(i))
		assert.NoError(t, err)
		results <- outcome{idx: i, a: a}
	}

	go admit(0)
	require.Eventually(t, func() bool { return repo.inFlight.Load() == 1 }, time.Second, time.Millisecond)

	for i := 1; i <= 3; i++ {
		go admit(i)
		want := i
		require.Eventually(t, func() bool { return q.Pending() == want }, time.Second, time.Millisecond)
	}

	close(repo.block)

	got := make(map[int]Admission)
	for i := 0; i < 4; i++ {
		o := <-results
		got[o.idx] = o.a
	}

	for i := 0; i < 4; i++ {
		require.Equal(t, int64(i+1), got[i].Order.OrderNumber, "admissions are served in arrival order")
	}
	require.Equal(t, 0, got[0].Pending)
	require.Equal(t, 2, got[1].Pending)
	require.Equal(t, 1, got[2].Pending)
	require.Equal(t, 0, got[3].Pending)
}

func TestQueue_DoesNotMutateCallerOrder(t *testing.T) {
	t.Parallel()

	q := NewQueue(newFakeRepo(), NewCounter(41), "ORDER-PREFIX-", 0)
	defer q.Close()

	in := newOrder(1)
	a, err := q.Admit(context.Background(), in)
	require.NoError(t, err)

	require.Equal(t, int64(42), a.Order.OrderNumber)
	require.Equal(t, "ORDER-PREFIX-42", a.Order.DisplayOrderID)
	require.Zero(t, in.OrderNumber)
	require.Empty(t, in.DisplayOrderID)
}

func TestQueue_RejectsAdmittedOrder(t *testing.T) {
	t.Parallel()

	q := NewQueue(newFakeRepo(), NewCounter(0), "P-", 0)
	defer q.Close()

	_, err := q.Admit(context.Background(), &domain.Order{ID: "x", OrderNumber: 3, DisplayOrderID: "P-3"})
	require.ErrorIs(t, err, ErrAlreadyAdmitted)
}

func TestQueue_CancelledWhileWaitingIsSkipped(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.block = make(chan struct{})
	seq := NewCounter(0)
	q := NewQueue(repo, seq, "P-", 0)
	defer q.Close()

	first := make(chan error, 1)
	go func() {
		_, err := q.Admit(context.Background(), newOrder(0))
		first <- err
	}()
	require.Eventually(t, func() bool { return repo.inFlight.Load() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	second := make(chan error, 1)
	go func() {
		_, err := q.Admit(ctx, newOrder(1))
		second <- err
	}()
	require.Eventually(t, func() bool { return q.Pending() == 1 }, time.Second, time.Millisecond)

	cancel()
	require.ErrorIs(t, <-second, context.Canceled)

	close(repo.block)
	require.NoError(t, <-first)

	a, err := q.Admit(context.Background(), newOrder(2))
	require.NoError(t, err)
	require.Equal(t, int64(2), a.Order.OrderNumber, "the skipped admission consumed no number")
}

func TestQueue_Close(t *testing.T) {
	t.Parallel()

	q := NewQueue(newFakeRepo(), NewCounter(0), "P-", 0)
	q.Close()
	q.Close()

	_, err := q.Admit(context.Background(), newOrder(1))
	require.ErrorIs(t, err, ErrClosed)
}

func TestCounter_Advance(t *testing.T) {
	ctx := context.Background()
	c := NewCounter(0)

	require.NoError(t, c.Advance(ctx, 41))
	n, err := c.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(42), n)

	// Never moves backwards.
	require.NoError(t, c.Advance(ctx, 10))
	n, err = c.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(43), n)
}
