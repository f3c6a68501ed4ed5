package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"checkout/internal/domain"
)

// CacheStore handles order caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// OrderCacheTTL bounds how long a read may lag behind a transition that
// failed to invalidate.
const OrderCacheTTL = 30 * time.Second

const orderCachePrefix = "cache:order:"

// CachedOrder represents a cached order entity.
type CachedOrder struct {
	ID                  string          `json:"id"`
	OrderNumber         int64           `json:"order_number"`
	DisplayOrderID      string          `json:"display_order_id"`
	UserID              int64           `json:"user_id"`
	UserIP              string          `json:"user_ip"`
	Currency            string          `json:"currency"`
	Amount              decimal.Decimal `json:"amount"`
	Txn1                string          `json:"txn1"`
	Txn2                string          `json:"txn2"`
	TxnID               string          `json:"txn_id"`
	SessionID           string          `json:"session_id"`
	Customer            domain.Customer `json:"customer"`
	Device              domain.Device   `json:"device"`
	Status              string          `json:"status"`
	PaymentResponseCode string          `json:"payment_response_code"`
	PaymentResponseMsg  string          `json:"payment_response_msg"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

func toCachedOrder(o *domain.Order) *CachedOrder {
	return &CachedOrder{
		ID:                  o.ID,
		OrderNumber:         o.OrderNumber,
		DisplayOrderID:      o.DisplayOrderID,
		UserID:              o.UserID,
		UserIP:              o.UserIP,
		Currency:            o.Currency,
		Amount:              o.Amount,
		Txn1:                o.Txn1,
		Txn2:                o.Txn2,
		TxnID:               o.TxnID,
		SessionID:           o.SessionID,
		Customer:            o.Customer,
		Device:              o.Device,
		Status:              string(o.Status),
		PaymentResponseCode: o.PaymentResponseCode,
		PaymentResponseMsg:  o.PaymentResponseMsg,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
}

func (c *CachedOrder) toDomain() *domain.Order {
	return &domain.Order{
		ID:                  c.ID,
		OrderNumber:         c.OrderNumber,
		DisplayOrderID:      c.DisplayOrderID,
		UserID:              c.UserID,
		UserIP:              c.UserIP,
		Currency:            c.Currency,
		Amount:              c.Amount,
		Txn1:                c.Txn1,
		Txn2:                c.Txn2,
		TxnID:               c.TxnID,
		SessionID:           c.SessionID,
		Customer:            c.Customer,
		Device:              c.Device,
		Status:              domain.OrderStatus(c.Status),
		PaymentResponseCode: c.PaymentResponseCode,
		PaymentResponseMsg:  c.PaymentResponseMsg,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

// GetOrder retrieves an order from cache. Returns nil, nil on a miss.
func (s *CacheStore) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	key := orderCachePrefix + orderID
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var order CachedOrder
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, err
	}
	return order.toDomain(), nil
}

// SetOrder stores an order in cache.
func (s *CacheStore) SetOrder(ctx context.Context, order *domain.Order) error {
	key := orderCachePrefix + order.ID
	data, err := json.Marshal(toCachedOrder(order))
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, OrderCacheTTL).Err()
}

// InvalidateOrder removes an order from cache.
func (s *CacheStore) InvalidateOrder(ctx context.Context, orderID string) error {
	key := orderCachePrefix + orderID
	return s.client.Del(ctx, key).Err()
}
