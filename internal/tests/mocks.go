package tests

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"checkout/internal/domain"
	"checkout/internal/gateway"
	"checkout/internal/redis"
	"checkout/internal/repository"
	"checkout/internal/service"
)

// ──────────────────────────────────────────────
// MOCK ORDER REPOSITORY
// ──────────────────────────────────────────────

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError error
	UpdateError error
}

// NewMockOrderRepository creates a new mock order repository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]*domain.Order),
	}
}

// AddOrder adds an order to the mock repository.
func (m *MockOrderRepository) AddOrder(order *domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *order
	m.orders[order.ID] = &copy
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *order
	m.orders[order.ID] = &copy
	return nil
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *order
	return &copy, nil
}

func (m *MockOrderRepository) GetByDisplayID(ctx context.Context, displayID string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.orders {
		if o.DisplayOrderID == displayID {
			copy := *o
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *order
	m.orders[order.ID] = &copy
	return nil
}

// GetOrder returns the stored order for test assertions.
func (m *MockOrderRepository) GetOrder(id string) *domain.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	order, ok := m.orders[id]
	if !ok {
		return nil
	}
	copy := *order
	return &copy
}

// ──────────────────────────────────────────────
// MOCK GATEWAY
// ──────────────────────────────────────────────

// GatewayCall records one call made to the mock gateway.
type GatewayCall struct {
	Method        string
	SessionID     string
	OrderID       string
	TransactionID string
	AuthTxnID     string
}

// MockGateway is a scripted gateway.Client. Each method returns its queued
// responses in order and repeats the last one once the queue is exhausted.
type MockGateway struct {
	mu        sync.Mutex
	responses map[string][]*gateway.Response
	errors    map[string]error
	calls     []GatewayCall
}

// NewMockGateway creates a new mock gateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		responses: make(map[string][]*gateway.Response),
		errors:    make(map[string]error),
	}
}

// Script queues responses for a method.
func (m *MockGateway) Script(method string, responses ...*gateway.Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[method] = append(m.responses[method], responses...)
}

// Fail makes every call to method return err. A nil err clears it.
func (m *MockGateway) Fail(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[method] = err
}

// Calls returns the calls made so far, optionally filtered by method.
func (m *MockGateway) Calls(method string) []GatewayCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []GatewayCall
	for _, c := range m.calls {
		if method == "" || c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (m *MockGateway) next(call GatewayCall) (*gateway.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)

	if err := m.errors[call.Method]; err != nil {
		return nil, err
	}

	queue := m.responses[call.Method]
	if len(queue) == 0 {
		return &gateway.Response{Result: gateway.ResultSuccess}, nil
	}
	resp := queue[0]
	if len(queue) > 1 {
		m.responses[call.Method] = queue[1:]
	}
	return resp, nil
}

func (m *MockGateway) CreateSession(ctx context.Context) (*gateway.Response, error) {
	return m.next(GatewayCall{Method: "CreateSession"})
}

func (m *MockGateway) UpdateSessionOrder(ctx context.Context, req gateway.UpdateSessionOrderRequest) (*gateway.Response, error) {
	return m.next(GatewayCall{Method: "UpdateSessionOrder", SessionID: req.SessionID, OrderID: req.OrderID})
}

func (m *MockGateway) UpdateSessionCard(ctx context.Context, req gateway.UpdateSessionCardRequest) (*gateway.Response, error) {
	return m.next(GatewayCall{Method: "UpdateSessionCard", SessionID: req.SessionID})
}

func (m *MockGateway) InitiateAuthentication(ctx context.Context, req gateway.InitiateAuthenticationRequest) (*gateway.Response, error) {
	return m.next(GatewayCall{Method: "InitiateAuthentication", SessionID: req.SessionID, OrderID: req.OrderID, TransactionID: req.TransactionID})
}

func (m *MockGateway) AuthenticatePayer(ctx context.Context, req gateway.AuthenticatePayerRequest) (*gateway.Response, error) {
	return m.next(GatewayCall{Method: "AuthenticatePayer", SessionID: req.SessionID, OrderID: req.OrderID, TransactionID: req.TransactionID})
}

func (m *MockGateway) Pay(ctx context.Context, req gateway.PayRequest) (*gateway.Response, error) {
	return m.next(GatewayCall{
		Method:        "Pay",
		SessionID:     req.SessionID,
		OrderID:       req.OrderID,
		TransactionID: req.TransactionID,
		AuthTxnID:     req.AuthenticationTransactionID,
	})
}

// ──────────────────────────────────────────────
// MOCK ORDER CACHE
// ──────────────────────────────────────────────

// MockOrderCache is a mock implementation of the order read cache.
type MockOrderCache struct {
	mu     sync.Mutex
	orders map[string]*domain.Order

	InvalidateCallCount int32
}

// NewMockOrderCache creates a new mock order cache.
func NewMockOrderCache() *MockOrderCache {
	return &MockOrderCache{
		orders: make(map[string]*domain.Order),
	}
}

func (m *MockOrderCache) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	copy := *order
	return &copy, nil
}

func (m *MockOrderCache) SetOrder(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *order
	m.orders[order.ID] = &copy
	return nil
}

func (m *MockOrderCache) InvalidateOrder(ctx context.Context, id string) error {
	atomic.AddInt32(&m.InvalidateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.orders, id)
	return nil
}

// Has reports whether id is cached (for test assertions).
func (m *MockOrderCache) Has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.orders[id]
	return ok
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStore.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]mockLock
	seq   int

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error

	// Force lock failure
	ForceAcquireFailure bool
}

type mockLock struct {
	token  string
	expiry time.Time
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]mockLock),
	}
}

func (m *MockLockStore) AcquireOrderLock(ctx context.Context, orderID string, ttl time.Duration) (string, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return "", m.AcquireError
	}
	if m.ForceAcquireFailure {
		return "", nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := "lock:order:" + orderID
	if l, exists := m.locks[key]; exists && time.Now().Before(l.expiry) {
		return "", nil // Lock still held.
	}

	m.seq++
	token := fmt.Sprintf("token-%d", m.seq)
	m.locks[key] = mockLock{token: token, expiry: time.Now().Add(ttl)}
	return token, nil
}

func (m *MockLockStore) ReleaseOrderLock(ctx context.Context, orderID, token string) (bool, error) {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()

	key := "lock:order:" + orderID
	l, exists := m.locks[key]
	if !exists || l.token != token {
		return false, nil
	}
	delete(m.locks, key)
	return true, nil
}

// IsLocked checks if an order is locked (for test assertions).
func (m *MockLockStore) IsLocked(orderID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, exists := m.locks["lock:order:"+orderID]
	return exists && time.Now().Before(l.expiry)
}

// Ensure mocks implement interfaces.
var (
	_ repository.OrderRepository = (*MockOrderRepository)(nil)
	_ gateway.Client             = (*MockGateway)(nil)
	_ service.OrderCache         = (*MockOrderCache)(nil)
	_ redis.LockStoreInterface   = (*MockLockStore)(nil)
)
