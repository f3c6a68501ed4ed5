package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"checkout/internal/domain"
	"checkout/internal/gateway"
	"checkout/internal/repository"
	"checkout/internal/txnid"
)

// OrderCache is the read cache that must forget an order after it changes.
type OrderCache interface {
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	SetOrder(ctx context.Context, order *domain.Order) error
	InvalidateOrder(ctx context.Context, id string) error
}

// PaymentService walks an admitted order through the gateway's 3-D Secure
// call sequence. Every step persists the order before returning.
//
// Steps on the same order must not overlap; callers serialize them.
type PaymentService struct {
	orderRepo           repository.OrderRepository
	gateway             gateway.Client
	cache               OrderCache
	notificationService *NotificationService
	txnPrefix           string
	retry               RetryPolicy

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// NewPaymentService creates a new PaymentService. cache and
// notificationService may be nil.
func NewPaymentService(
	orderRepo repository.OrderRepository,
	gw gateway.Client,
	cache OrderCache,
	notificationService *NotificationService,
	txnPrefix string,
	retry RetryPolicy,
) *PaymentService {
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryPolicy
	}
	if txnPrefix == "" {
		txnPrefix = txnid.DefaultPrefix
	}

	return &PaymentService{
		orderRepo:           orderRepo,
		gateway:             gw,
		cache:               cache,
		notificationService: notificationService,
		txnPrefix:           txnPrefix,
		retry:               retry,
		sleep:               sleepContext,
		now:                 time.Now,
	}
}

// SessionResult is the outcome of InitSession. OK is false when the gateway
// did not answer SUCCESS; Response is kept for diagnostics.
type SessionResult struct {
	OK       bool
	Response *gateway.Response
}

// InitOrderResult is the outcome of InitOrder. Binding is nil when the
// session could not be created; Session is nil when an existing session was
// reused.
type InitOrderResult struct {
	OK      bool
	Session *gateway.Response
	Binding *gateway.Response
	Order   *domain.Order
}

// CardResult is the outcome of UpdateSessionCard.
type CardResult struct {
	OK       bool
	Response *gateway.Response
	Order    *domain.Order
}

// StepResult is the outcome of AuthenticatePayer and Pay.
type StepResult struct {
	Response *gateway.Response
	Order    *domain.Order
}

// InitOrder creates the gateway session and binds the order to it. The
// binding step is skipped when the session could not be created. An order
// that already has a session only repeats the binding, so a failed binding
// can be resumed.
func (s *PaymentService) InitOrder(ctx context.Context, order *domain.Order) (*InitOrderResult, error) {
	if err := s.checkTransition(order); err != nil {
		return nil, err
	}

	var sessionResp *gateway.Response
	if !order.HasSession() {
		session, err := s.InitSession(ctx, order)
		if err != nil {
			return nil, err
		}
		if !session.OK {
			return &InitOrderResult{OK: false, Session: session.Response, Order: order}, nil
		}
		sessionResp = session.Response
	}

	binding, err := s.UpdateSessionOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	return &InitOrderResult{OK: true, Session: sessionResp, Binding: binding, Order: order}, nil
}

// InitSession generates the order's transaction ids, if it has none yet, and
// opens a gateway session. The order is persisted whatever the outcome so the
// ids survive a failed call.
func (s *PaymentService) InitSession(ctx context.Context, order *domain.Order) (*SessionResult, error) {
	if err := s.checkTransition(order); err != nil {
		return nil, err
	}
	if order.HasSession() {
		return nil, ErrSessionAlreadyInitiated
	}

	if !order.HasTransactions() {
		txn1, err := txnid.ForOrder(s.txnPrefix, order.OrderNumber)
		if err != nil {
			return nil, fmt.Errorf("failed to generate txn1: %w", err)
		}
		txn2, err := txnid.ForOrder(s.txnPrefix, order.OrderNumber)
		if err != nil {
			return nil, fmt.Errorf("failed to generate txn2: %w", err)
		}
		order.Txn1, order.Txn2 = txn1, txn2
	}

	resp, callErr := s.gateway.CreateSession(ctx)
	if callErr == nil && resp.Succeeded() {
		order.SessionID = resp.SessionID()
	}

	if err := s.save(ctx, order); err != nil {
		return nil, err
	}
	if callErr != nil {
		log.Printf("layer=service component=payment method=InitSession order_id=%s err=%v", order.ID, callErr)
		return nil, callErr
	}

	if !resp.Succeeded() || order.SessionID == "" {
		log.Printf("layer=service component=payment method=InitSession order_id=%s result=%s", order.ID, resp.Result)
		return &SessionResult{OK: false, Response: resp}, nil
	}

	return &SessionResult{OK: true, Response: resp}, nil
}

// UpdateSessionOrder binds display id, currency and amount to the session.
// The response is returned uninterpreted.
func (s *PaymentService) UpdateSessionOrder(ctx context.Context, order *domain.Order) (*gateway.Response, error) {
	if err := s.checkSession(order); err != nil {
		return nil, err
	}

	resp, err := s.gateway.UpdateSessionOrder(ctx, gateway.UpdateSessionOrderRequest{
		SessionID: order.SessionID,
		OrderID:   order.DisplayOrderID,
		Currency:  order.Currency,
		Amount:    order.Amount,
	})
	if err != nil {
		return nil, err
	}

	if err := s.save(ctx, order); err != nil {
		return nil, err
	}
	return resp, nil
}

// UpdateSessionCard binds card data to the session. Any result other than
// ERROR counts as success for this endpoint.
func (s *PaymentService) UpdateSessionCard(ctx context.Context, order *domain.Order, card gateway.Card) (*CardResult, error) {
	if err := s.checkSession(order); err != nil {
		return nil, err
	}
	if card.Number == "" || card.ExpiryMonth == "" || card.ExpiryYear == "" || card.SecurityCode == "" {
		return nil, ErrInvalidCard
	}

	resp, err := s.gateway.UpdateSessionCard(ctx, gateway.UpdateSessionCardRequest{
		SessionID: order.SessionID,
		Card:      card,
	})
	if err != nil {
		return nil, err
	}

	if err := s.save(ctx, order); err != nil {
		return nil, err
	}
	return &CardResult{OK: !resp.IsError(), Response: resp, Order: order}, nil
}

// InitSessionAuth initiates 3-D Secure on the authentication leg. The
// response is returned uninterpreted.
func (s *PaymentService) InitSessionAuth(ctx context.Context, order *domain.Order) (*gateway.Response, error) {
	if err := s.checkSession(order); err != nil {
		return nil, err
	}

	resp, err := s.gateway.InitiateAuthentication(ctx, gateway.InitiateAuthenticationRequest{
		SessionID:     order.SessionID,
		OrderID:       order.DisplayOrderID,
		TransactionID: order.Txn1,
		Currency:      order.Currency,
	})
	if err != nil {
		return nil, err
	}

	if err := s.save(ctx, order); err != nil {
		return nil, err
	}
	return resp, nil
}

// AuthenticatePayer submits payer and device context on the authentication
// leg. While the gateway reports SERVER_BUSY the call is repeated with the
// same txn1, backing off between attempts. When every attempt was busy the
// order is marked failed and ErrGatewayBusy is returned.
func (s *PaymentService) AuthenticatePayer(ctx context.Context, order *domain.Order) (*StepResult, error) {
	if err := s.checkSession(order); err != nil {
		return nil, err
	}

	req := gateway.AuthenticatePayerRequest{
		SessionID:     order.SessionID,
		OrderID:       order.DisplayOrderID,
		TransactionID: order.Txn1,
		Currency:      order.Currency,
		Amount:        order.Amount,
		Customer:      order.Customer,
		Device:        order.Device,
	}

	var resp *gateway.Response
	for attempt := 1; ; attempt++ {
		var err error
		resp, err = s.gateway.AuthenticatePayer(ctx, req)
		if err != nil {
			return nil, err
		}
		if !resp.Busy() {
			break
		}

		if attempt >= s.retry.MaxAttempts {
			log.Printf("layer=service component=payment method=AuthenticatePayer order_id=%s attempts=%d err=%v", order.ID, attempt, ErrGatewayBusy)
			order.Status = domain.OrderStatusFailed
			if err := s.save(ctx, order); err != nil {
				return nil, err
			}
			s.notifyOutcome(ctx, order)
			return nil, fmt.Errorf("%w: payer authentication still busy after %d attempts", ErrGatewayBusy, attempt)
		}

		delay := s.retry.Delay(attempt)
		log.Printf("layer=service component=payment method=AuthenticatePayer order_id=%s attempt=%d retry_in=%s", order.ID, attempt, delay)
		if err := s.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	if id := resp.ThreeDSTransactionID(); id != "" {
		order.TxnID = id
	}

	if err := s.save(ctx, order); err != nil {
		return nil, err
	}
	return &StepResult{Response: resp, Order: order}, nil
}

// Pay captures the payment on the txn2 leg, proving authentication with txn1.
// The order becomes completed when the gateway answers SUCCESS and failed
// otherwise.
func (s *PaymentService) Pay(ctx context.Context, order *domain.Order) (*StepResult, error) {
	if err := s.checkSession(order); err != nil {
		return nil, err
	}

	resp, err := s.gateway.Pay(ctx, gateway.PayRequest{
		SessionID:                   order.SessionID,
		OrderID:                     order.DisplayOrderID,
		TransactionID:               order.Txn2,
		AuthenticationTransactionID: order.Txn1,
		Currency:                    order.Currency,
		Amount:                      order.Amount,
	})
	if err != nil {
		return nil, err
	}

	if id := resp.ThreeDSTransactionID(); id != "" {
		order.TxnID = id
	}
	order.PaymentResponseCode = resp.AcquirerCode()
	order.PaymentResponseMsg = resp.AcquirerMessage()

	if resp.Succeeded() {
		order.Status = domain.OrderStatusCompleted
	} else {
		order.Status = domain.OrderStatusFailed
	}

	if err := s.save(ctx, order); err != nil {
		return nil, err
	}
	s.notifyOutcome(ctx, order)

	return &StepResult{Response: resp, Order: order}, nil
}

func (s *PaymentService) checkTransition(order *domain.Order) error {
	if order == nil || order.ID == "" {
		return ErrInvalidOrderID
	}
	if !order.Admitted() {
		return ErrOrderNotAdmitted
	}
	if order.Status == domain.OrderStatusCompleted {
		return ErrOrderCompleted
	}
	return nil
}

func (s *PaymentService) checkSession(order *domain.Order) error {
	if err := s.checkTransition(order); err != nil {
		return err
	}
	if !order.HasSession() || !order.HasTransactions() {
		return ErrSessionNotInitiated
	}
	return nil
}

// save persists the order and drops it from the read cache.
func (s *PaymentService) save(ctx context.Context, order *domain.Order) error {
	order.UpdatedAt = s.now()
	if err := s.orderRepo.Update(ctx, order); err != nil {
		log.Printf("layer=service component=payment method=save order_id=%s err=%v", order.ID, err)
		return fmt.Errorf("failed to persist order %s: %w", order.ID, err)
	}

	if s.cache != nil {
		if err := s.cache.InvalidateOrder(ctx, order.ID); err != nil {
			log.Printf("layer=service component=payment method=save order_id=%s cache_err=%v", order.ID, err)
		}
	}
	return nil
}

func (s *PaymentService) notifyOutcome(ctx context.Context, order *domain.Order) {
	if s.notificationService == nil || !order.Terminal() {
		return
	}

	switch order.Status {
	case domain.OrderStatusCompleted:
		_ = s.notificationService.NotifyPaymentCompleted(ctx, order)
	case domain.OrderStatusFailed:
		_ = s.notificationService.NotifyPaymentFailed(ctx, order)
	}
}
