package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"checkout/internal/admission"
	"checkout/internal/domain"
	"checkout/internal/repository"
)

// Admitter numbers and persists new orders.
type Admitter interface {
	Admit(ctx context.Context, order *domain.Order) (admission.Admission, error)
}

// OrderService handles order creation and lookup.
type OrderService struct {
	orderRepo           repository.OrderRepository
	admitter            Admitter
	cache               OrderCache
	notificationService *NotificationService
	defaultCurrency     string
}

// NewOrderService creates a new OrderService. cache and notificationService may be nil.
func NewOrderService(
	orderRepo repository.OrderRepository,
	admitter Admitter,
	cache OrderCache,
	notificationService *NotificationService,
	defaultCurrency string,
) *OrderService {
	if defaultCurrency == "" {
		defaultCurrency = domain.DefaultCurrency
	}

	return &OrderService{
		orderRepo:           orderRepo,
		admitter:            admitter,
		cache:               cache,
		notificationService: notificationService,
		defaultCurrency:     defaultCurrency,
	}
}

// CreateOrderRequest contains the parameters for creating an order.
type CreateOrderRequest struct {
	UserID   int64
	UserIP   string
	Currency string
	Amount   decimal.Decimal
	Customer domain.Customer
	Device   *domain.Device // defaults are used when nil
}

// CreateOrderResult contains the admitted order and the admission backlog.
type CreateOrderResult struct {
	Order   *domain.Order
	Pending int
}

// CreateOrder validates the request and admits a new pending order.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.defaultCurrency
	}
	if len(currency) != 3 {
		return nil, ErrInvalidCurrency
	}

	if strings.TrimSpace(req.Customer.FirstName) == "" || strings.TrimSpace(req.Customer.LastName) == "" {
		return nil, ErrInvalidCustomer
	}

	device := domain.DefaultDevice(req.UserIP)
	if req.Device != nil {
		device = *req.Device
		if device.IPAddress == "" {
			device.IPAddress = req.UserIP
		}
	}

	now := time.Now()
	order := &domain.Order{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		UserIP:    req.UserIP,
		Currency:  currency,
		Amount:    req.Amount.Round(2),
		Customer:  req.Customer,
		Device:    device,
		Status:    domain.OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	admitted, err := s.admitter.Admit(ctx, order)
	if err != nil {
		log.Printf("layer=service component=order method=CreateOrder order_id=%s err=%v", order.ID, err)
		return nil, err
	}

	if s.notificationService != nil {
		_ = s.notificationService.NotifyOrderAdmitted(ctx, admitted.Order)
	}

	return &CreateOrderResult{Order: admitted.Order, Pending: admitted.Pending}, nil
}

// GetOrder retrieves an order by ID, serving from the cache when possible.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	if orderID == "" {
		return nil, ErrInvalidOrderID
	}

	if s.cache != nil {
		cached, err := s.cache.GetOrder(ctx, orderID)
		if err != nil {
			log.Printf("layer=service component=order method=GetOrder order_id=%s cache_err=%v", orderID, err)
		} else if cached != nil {
			return cached, nil
		}
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.SetOrder(ctx, order)
	}
	return order, nil
}

// GetOrderByDisplayID retrieves an order by the display id the gateway and
// the customer know it by.
func (s *OrderService) GetOrderByDisplayID(ctx context.Context, displayID string) (*domain.Order, error) {
	if strings.TrimSpace(displayID) == "" {
		return nil, ErrInvalidOrderID
	}
	return s.orderRepo.GetByDisplayID(ctx, displayID)
}

// LoadOrder retrieves an order from storage, bypassing the cache. Use it
// before a state transition.
func (s *OrderService) LoadOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	if orderID == "" {
		return nil, ErrInvalidOrderID
	}
	return s.orderRepo.GetByID(ctx, orderID)
}
