package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the terminal state of an order's payment.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusFailed    OrderStatus = "fail"
	OrderStatusCompleted OrderStatus = "completed"
)

// DefaultCurrency is used when an order is created without a currency.
const DefaultCurrency = "EGP"

// Customer is the payer context echoed into gateway calls.
type Customer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// BrowserDetails describes the payer's browser for 3-D Secure.
type BrowserDetails struct {
	JavaEnabled   string `json:"javaEnabled"`
	Language      string `json:"language"`
	ScreenWidth   string `json:"screenWidth"`
	ScreenHeight  string `json:"screenHeight"`
	TimeZone      string `json:"timeZone"`
	ColorDepth    string `json:"colorDepth"`
	AcceptHeaders string `json:"acceptHeaders"`
}

// Device is the payer's device context.
type Device struct {
	BrowserDetails BrowserDetails `json:"browserDetails"`
	Browser        string         `json:"browser"`
	IPAddress      string         `json:"ipAddress"`
}

// DefaultDevice returns the device context used when the client sends none.
func DefaultDevice(ipAddress string) Device {
	if ipAddress == "" {
		ipAddress = "192.0.1.1"
	}
	return Device{
		BrowserDetails: BrowserDetails{
			JavaEnabled:   "true",
			Language:      "json",
			ScreenWidth:   "1000",
			ScreenHeight:  "400",
			TimeZone:      "+200",
			ColorDepth:    "20",
			AcceptHeaders: "512",
		},
		Browser:   "browser",
		IPAddress: ipAddress,
	}
}

// Order is one customer's payment session with the gateway.
//
// OrderNumber and DisplayOrderID are assigned once by the admission queue.
// Txn1 and Txn2 are generated once during session initiation and reused by
// every later call, including retries.
type Order struct {
	ID             string
	OrderNumber    int64
	DisplayOrderID string
	UserID         int64
	UserIP         string

	Currency string
	Amount   decimal.Decimal

	Txn1      string // authentication leg
	Txn2      string // payment leg
	TxnID     string // gateway's own 3-D Secure transaction id
	SessionID string

	Customer Customer
	Device   Device

	Status              OrderStatus
	PaymentResponseCode string
	PaymentResponseMsg  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Admitted reports whether the order has been through the admission queue.
func (o *Order) Admitted() bool {
	return o.OrderNumber > 0 && o.DisplayOrderID != ""
}

// HasSession reports whether the gateway session has been created.
func (o *Order) HasSession() bool {
	return o.SessionID != ""
}

// HasTransactions reports whether txn1/txn2 have been generated.
func (o *Order) HasTransactions() bool {
	return o.Txn1 != "" && o.Txn2 != ""
}

// Terminal reports whether the order reached fail or completed.
func (o *Order) Terminal() bool {
	return o.Status == OrderStatusFailed || o.Status == OrderStatusCompleted
}
