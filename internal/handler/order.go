package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"checkout/internal/domain"
	"checkout/internal/gateway"
	"checkout/internal/service"
)

// OrderLocker serializes state transitions on a single order.
type OrderLocker interface {
	AcquireOrderLock(ctx context.Context, orderID string, ttl time.Duration) (string, error)
	ReleaseOrderLock(ctx context.Context, orderID, token string) (bool, error)
}

// OrderHandler handles HTTP requests for orders and their payment session.
type OrderHandler struct {
	orderService   *service.OrderService
	paymentService *service.PaymentService
	locker         OrderLocker
	lockTTL        time.Duration
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(
	orderService *service.OrderService,
	paymentService *service.PaymentService,
	locker OrderLocker,
	lockTTL time.Duration,
) *OrderHandler {
	if lockTTL <= 0 {
		lockTTL = time.Minute
	}
	return &OrderHandler{
		orderService:   orderService,
		paymentService: paymentService,
		locker:         locker,
		lockTTL:        lockTTL,
	}
}

// CreateOrderRequest is the HTTP request body for creating an order.
type CreateOrderRequest struct {
	UserID   int64           `json:"user_id"`
	Currency string          `json:"currency,omitempty"`
	Amount   decimal.Decimal `json:"amount"`
	Customer domain.Customer `json:"customer"`
	Device   *domain.Device  `json:"device,omitempty"`
}

// CardRequest is the HTTP request body for binding a card.
type CardRequest struct {
	Number       string `json:"number"`
	ExpiryMonth  string `json:"expiry_month"`
	ExpiryYear   string `json:"expiry_year"`
	SecurityCode string `json:"security_code"`
}

// OrderResponse is the HTTP representation of an order.
type OrderResponse struct {
	ID                  string          `json:"id"`
	OrderNumber         int64           `json:"order_number"`
	DisplayOrderID      string          `json:"display_order_id"`
	UserID              int64           `json:"user_id"`
	Currency            string          `json:"currency"`
	Amount              string          `json:"amount"`
	SessionID           string          `json:"session_id,omitempty"`
	TxnID               string          `json:"txn_id,omitempty"`
	Status              string          `json:"status"`
	PaymentResponseCode string          `json:"payment_response_code,omitempty"`
	PaymentResponseMsg  string          `json:"payment_response_msg,omitempty"`
	Customer            domain.Customer `json:"customer"`
	CreatedAt           string          `json:"created_at"`
	UpdatedAt           string          `json:"updated_at"`
}

// CreateOrderResponse is the HTTP response for creating an order.
type CreateOrderResponse struct {
	Order   OrderResponse `json:"order"`
	Pending int           `json:"pending"`
}

// StepResponse is the HTTP response for a payment session step. Gateway is
// the gateway's body, untouched.
type StepResponse struct {
	OK      *bool           `json:"ok,omitempty"`
	Order   OrderResponse   `json:"order"`
	Gateway json.RawMessage `json:"gateway,omitempty"`
	Binding json.RawMessage `json:"binding,omitempty"`
}

func toOrderResponse(o *domain.Order) OrderResponse {
	return OrderResponse{
		ID:                  o.ID,
		OrderNumber:         o.OrderNumber,
		DisplayOrderID:      o.DisplayOrderID,
		UserID:              o.UserID,
		Currency:            o.Currency,
		Amount:              o.Amount.StringFixed(2),
		SessionID:           o.SessionID,
		TxnID:               o.TxnID,
		Status:              string(o.Status),
		PaymentResponseCode: o.PaymentResponseCode,
		PaymentResponseMsg:  o.PaymentResponseMsg,
		Customer:            o.Customer,
		CreatedAt:           o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           o.UpdatedAt.Format(time.RFC3339),
	}
}

// CreateOrder handles POST /v1/orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.orderService.CreateOrder(c.Request.Context(), service.CreateOrderRequest{
		UserID:   req.UserID,
		UserIP:   c.ClientIP(),
		Currency: req.Currency,
		Amount:   req.Amount,
		Customer: req.Customer,
		Device:   req.Device,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, CreateOrderResponse{
		Order:   toOrderResponse(result.Order),
		Pending: result.Pending,
	})
}

// GetOrder handles GET /v1/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toOrderResponse(order))
}

// GetOrderByDisplayID handles GET /v1/display-orders/:displayId
func (h *OrderHandler) GetOrderByDisplayID(c *gin.Context) {
	order, err := h.orderService.GetOrderByDisplayID(c.Request.Context(), c.Param("displayId"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toOrderResponse(order))
}

// InitOrder handles POST /v1/orders/:id/session
func (h *OrderHandler) InitOrder(c *gin.Context) {
	h.withOrder(c, func(ctx context.Context, order *domain.Order) {
		result, err := h.paymentService.InitOrder(ctx, order)
		if err != nil {
			respondError(c, err)
			return
		}

		ok := result.OK
		respondJSON(c, http.StatusOK, StepResponse{
			OK:      &ok,
			Order:   toOrderResponse(result.Order),
			Gateway: rawGateway(result.Session),
			Binding: rawGateway(result.Binding),
		})
	})
}

// UpdateCard handles POST /v1/orders/:id/card
func (h *OrderHandler) UpdateCard(c *gin.Context) {
	var req CardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	h.withOrder(c, func(ctx context.Context, order *domain.Order) {
		result, err := h.paymentService.UpdateSessionCard(ctx, order, gateway.Card{
			Number:       req.Number,
			ExpiryMonth:  req.ExpiryMonth,
			ExpiryYear:   req.ExpiryYear,
			SecurityCode: req.SecurityCode,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		ok := result.OK
		respondJSON(c, http.StatusOK, StepResponse{
			OK:      &ok,
			Order:   toOrderResponse(result.Order),
			Gateway: rawGateway(result.Response),
		})
	})
}

// InitAuthentication handles POST /v1/orders/:id/authentication
func (h *OrderHandler) InitAuthentication(c *gin.Context) {
	h.withOrder(c, func(ctx context.Context, order *domain.Order) {
		resp, err := h.paymentService.InitSessionAuth(ctx, order)
		if err != nil {
			respondError(c, err)
			return
		}

		respondJSON(c, http.StatusOK, StepResponse{
			Order:   toOrderResponse(order),
			Gateway: rawGateway(resp),
		})
	})
}

// AuthenticatePayer handles POST /v1/orders/:id/authentication/payer
func (h *OrderHandler) AuthenticatePayer(c *gin.Context) {
	h.withOrder(c, func(ctx context.Context, order *domain.Order) {
		result, err := h.paymentService.AuthenticatePayer(ctx, order)
		if err != nil {
			respondError(c, err)
			return
		}

		respondJSON(c, http.StatusOK, StepResponse{
			Order:   toOrderResponse(result.Order),
			Gateway: rawGateway(result.Response),
		})
	})
}

// Pay handles POST /v1/orders/:id/pay
func (h *OrderHandler) Pay(c *gin.Context) {
	h.withOrder(c, func(ctx context.Context, order *domain.Order) {
		result, err := h.paymentService.Pay(ctx, order)
		if err != nil {
			respondError(c, err)
			return
		}

		ok := result.Order.Status == domain.OrderStatusCompleted
		respondJSON(c, http.StatusOK, StepResponse{
			OK:      &ok,
			Order:   toOrderResponse(result.Order),
			Gateway: rawGateway(result.Response),
		})
	})
}

// withOrder holds the order's transition lock while fn runs on a fresh copy
// of the order loaded from storage.
func (h *OrderHandler) withOrder(c *gin.Context, fn func(ctx context.Context, order *domain.Order)) {
	ctx := c.Request.Context()
	orderID := c.Param("id")

	token, err := h.locker.AcquireOrderLock(ctx, orderID, h.lockTTL)
	if err != nil {
		respondError(c, err)
		return
	}
	if token == "" {
		respondError(c, service.ErrOrderLocked)
		return
	}
	defer func() {
		released, err := h.locker.ReleaseOrderLock(context.WithoutCancel(ctx), orderID, token)
		if err != nil {
			log.Printf("layer=handler component=order order_id=%s release_err=%v", orderID, err)
		} else if !released {
			log.Printf("layer=handler component=order order_id=%s lock expired before release", orderID)
		}
	}()

	order, err := h.orderService.LoadOrder(ctx, orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	fn(ctx, order)
}
