package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"checkout/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationOrderAdmitted    NotificationType = "ORDER_ADMITTED"
	NotificationPaymentCompleted NotificationType = "PAYMENT_COMPLETED"
	NotificationPaymentFailed    NotificationType = "PAYMENT_FAILED"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type      NotificationType
	Recipient string // customer email
	Title     string
	Message   string
	Data      map[string]any
	CreatedAt time.Time
}

const recentNotifications = 100

// NotificationService tells customers about their orders.
type NotificationService struct {
	mu     sync.Mutex
	recent []Notification
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyOrderAdmitted tells the customer their order number.
func (s *NotificationService) NotifyOrderAdmitted(ctx context.Context, order *domain.Order) error {
	return s.send(ctx, Notification{
		Type:      NotificationOrderAdmitted,
		Recipient: order.Customer.Email,
		Title:     "Order Received",
		Message:   fmt.Sprintf("Your order %s for %s %s was received", order.DisplayOrderID, order.Amount.StringFixed(2), order.Currency),
		Data: map[string]any{
			"order_id":         order.ID,
			"display_order_id": order.DisplayOrderID,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyPaymentCompleted tells the customer the payment went through.
func (s *NotificationService) NotifyPaymentCompleted(ctx context.Context, order *domain.Order) error {
	return s.send(ctx, Notification{
		Type:      NotificationPaymentCompleted,
		Recipient: order.Customer.Email,
		Title:     "Payment Successful",
		Message:   fmt.Sprintf("Payment of %s %s for order %s was successful", order.Amount.StringFixed(2), order.Currency, order.DisplayOrderID),
		Data: map[string]any{
			"order_id":      order.ID,
			"response_code": order.PaymentResponseCode,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyPaymentFailed tells the customer the payment did not go through.
func (s *NotificationService) NotifyPaymentFailed(ctx context.Context, order *domain.Order) error {
	return s.send(ctx, Notification{
		Type:      NotificationPaymentFailed,
		Recipient: order.Customer.Email,
		Title:     "Payment Failed",
		Message:   fmt.Sprintf("Payment for order %s failed. Please try again.", order.DisplayOrderID),
		Data: map[string]any{
			"order_id":         order.ID,
			"response_code":    order.PaymentResponseCode,
			"response_message": order.PaymentResponseMsg,
		},
		CreatedAt: time.Now(),
	})
}

// Recent returns the last notifications delivered, oldest first.
func (s *NotificationService) Recent() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Notification(nil), s.recent...)
}

// send delivers a notification. Delivery is a log line for now.
func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	s.mu.Lock()
	s.recent = append(s.recent, notification)
	if len(s.recent) > recentNotifications {
		s.recent = s.recent[len(s.recent)-recentNotifications:]
	}
	s.mu.Unlock()

	log.Printf("[NOTIFICATION] Type=%s, Recipient=%s, Title=%s, Message=%s",
		notification.Type, notification.Recipient, notification.Title, notification.Message)
	return nil
}
