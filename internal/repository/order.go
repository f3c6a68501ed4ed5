package repository

import (
	"context"

	"checkout/internal/domain"
)

// OrderRepository defines the persistence operations for orders.
type OrderRepository interface {
	// Create persists a new order.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order by ID.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// GetByDisplayID retrieves an order by its display order id.
	GetByDisplayID(ctx context.Context, displayID string) (*domain.Order, error)

	// Update saves every mutable field of an existing order.
	Update(ctx context.Context, order *domain.Order) error
}

// Sequence hands out strictly increasing order numbers.
type Sequence interface {
	// Next returns the next order number.
	Next(ctx context.Context) (int64, error)
}

// SeededSequence is a Sequence that can be moved past numbers issued by
// another source, so switching sources never reissues a stored number.
type SeededSequence interface {
	Sequence

	// Advance makes the next number greater than floor. It never moves
	// the sequence backwards.
	Advance(ctx context.Context, floor int64) error
}
