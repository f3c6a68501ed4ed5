package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// SequenceStore hands out order numbers from a PostgreSQL sequence.
// nextval is atomic across connections and never returns a value twice.
type SequenceStore struct {
	q    Querier
	name string
}

// NewSequenceStore creates a sequence store backed by order_number_seq.
func NewSequenceStore(db *sql.DB) *SequenceStore {
	return &SequenceStore{q: db, name: orderNumberSequence}
}

// Next returns the next order number.
func (s *SequenceStore) Next(ctx context.Context) (int64, error) {
	var n int64
	if err := s.q.QueryRowContext(ctx, `SELECT nextval($1)`, s.name).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to advance %s: %w", s.name, err)
	}
	return n, nil
}

// MaxIssued returns the highest order number stored, or 0 when there are
// no orders.
func (s *SequenceStore) MaxIssued(ctx context.Context) (int64, error) {
	var n int64
	if err := s.q.QueryRowContext(ctx, `SELECT COALESCE(MAX(order_number), 0) FROM orders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to read highest order number: %w", err)
	}
	return n, nil
}

// Advance moves the sequence so that the next value is greater than floor.
func (s *SequenceStore) Advance(ctx context.Context, floor int64) error {
	if floor < 1 {
		return nil
	}

	query := `
		SELECT setval($1::regclass, $2)
		WHERE $2 >= (SELECT CASE WHEN is_called THEN last_value + 1 ELSE last_value END FROM ` + orderNumberSequence + `)
	`
	if _, err := s.q.ExecContext(ctx, query, s.name, floor); err != nil {
		return fmt.Errorf("failed to advance %s past %d: %w", s.name, floor, err)
	}
	return nil
}
