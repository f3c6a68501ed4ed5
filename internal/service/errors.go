package service

import "errors"

var (
	// ErrInvalidOrderID is returned when order ID is empty.
	ErrInvalidOrderID = errors.New("invalid order id")

	// ErrInvalidAmount is returned when the order amount is not positive.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidCurrency is returned when the currency is not a 3-letter code.
	ErrInvalidCurrency = errors.New("invalid currency")

	// ErrInvalidCustomer is returned when the customer's name is missing.
	ErrInvalidCustomer = errors.New("invalid customer")

	// ErrInvalidCard is returned when card fields are missing.
	ErrInvalidCard = errors.New("invalid card")

	// ErrOrderNotAdmitted is returned for an order without a number or display id.
	ErrOrderNotAdmitted = errors.New("order not admitted")

	// ErrSessionAlreadyInitiated is returned when the gateway session already exists.
	ErrSessionAlreadyInitiated = errors.New("session already initiated")

	// ErrSessionNotInitiated is returned when a step needs a gateway session.
	ErrSessionNotInitiated = errors.New("session not initiated")

	// ErrOrderCompleted is returned for any transition on a paid order.
	ErrOrderCompleted = errors.New("order already completed")

	// ErrGatewayBusy is returned when payer authentication stays busy after every retry.
	ErrGatewayBusy = errors.New("gateway busy")

	// ErrOrderLocked is returned when another transition holds the order.
	ErrOrderLocked = errors.New("order is locked by another request")
)
