// Package gateway talks to the hosted-session 3-D Secure payment gateway.
package gateway

import (
	"context"

	"github.com/shopspring/decimal"

	"checkout/internal/domain"
)

// Client is the set of gateway calls the checkout flow makes.
type Client interface {
	CreateSession(ctx context.Context) (*Response, error)
	UpdateSessionOrder(ctx context.Context, req UpdateSessionOrderRequest) (*Response, error)
	UpdateSessionCard(ctx context.Context, req UpdateSessionCardRequest) (*Response, error)
	InitiateAuthentication(ctx context.Context, req InitiateAuthenticationRequest) (*Response, error)
	AuthenticatePayer(ctx context.Context, req AuthenticatePayerRequest) (*Response, error)
	Pay(ctx context.Context, req PayRequest) (*Response, error)
}

// UpdateSessionOrderRequest binds order data to a session.
type UpdateSessionOrderRequest struct {
	SessionID string
	OrderID   string
	Currency  string
	Amount    decimal.Decimal
}

// Card is the card data bound to a session.
type Card struct {
	Number       string
	ExpiryMonth  string
	ExpiryYear   string
	SecurityCode string
}

// UpdateSessionCardRequest binds card data to a session.
type UpdateSessionCardRequest struct {
	SessionID string
	Card      Card
}

// InitiateAuthenticationRequest starts 3-D Secure on the authentication leg.
type InitiateAuthenticationRequest struct {
	SessionID     string
	OrderID       string
	TransactionID string
	Currency      string
}

// AuthenticatePayerRequest submits payer and device context on the authentication leg.
type AuthenticatePayerRequest struct {
	SessionID     string
	OrderID       string
	TransactionID string
	Currency      string
	Amount        decimal.Decimal
	Customer      domain.Customer
	Device        domain.Device
}

// PayRequest captures the payment on the payment leg, proving authentication
// with the authentication leg's transaction id.
type PayRequest struct {
	SessionID                   string
	OrderID                     string
	TransactionID               string
	AuthenticationTransactionID string
	Currency                    string
	Amount                      decimal.Decimal
}
