package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"checkout/internal/domain"
	"checkout/internal/repository"
)

// OrderRepository is a PostgreSQL implementation of repository.OrderRepository.
type OrderRepository struct {
	q Querier
}

// NewOrderRepository creates a new PostgreSQL order repository.
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{q: db}
}

const orderColumns = `id, order_number, display_order_id, user_id, user_ip, currency, amount,
	txn1, txn2, txn_id, session_id,
	customer_first_name, customer_last_name, customer_email, customer_phone, device,
	status, payment_response_code, payment_response_msg, created_at, updated_at`

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	device, err := json.Marshal(order.Device)
	if err != nil {
		return fmt.Errorf("failed to encode device: %w", err)
	}

	_, err = r.q.ExecContext(ctx, query,
		order.ID,
		order.OrderNumber,
		nullString(order.DisplayOrderID),
		order.UserID,
		order.UserIP,
		order.Currency,
		order.Amount,
		order.Txn1,
		order.Txn2,
		order.TxnID,
		order.SessionID,
		order.Customer.FirstName,
		order.Customer.LastName,
		order.Customer.Email,
		order.Customer.Phone,
		device,
		order.Status,
		nullString(order.PaymentResponseCode),
		nullString(order.PaymentResponseMsg),
		order.CreatedAt,
		order.UpdatedAt,
	)

	return err
}

// GetByID retrieves an order by ID.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return scanOrder(r.q.QueryRowContext(ctx, query, id))
}

// GetByDisplayID retrieves an order by its display order id.
func (r *OrderRepository) GetByDisplayID(ctx context.Context, displayID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE display_order_id = $1`
	return scanOrder(r.q.QueryRowContext(ctx, query, displayID))
}

// Update saves every mutable field of an existing order.
// order_number is never rewritten once set.
func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET display_order_id = COALESCE(display_order_id, $1), txn1 = $2, txn2 = $3, txn_id = $4, session_id = $5,
			status = $6, payment_response_code = $7, payment_response_msg = $8, updated_at = $9
		WHERE id = $10
	`

	result, err := r.q.ExecContext(ctx, query,
		nullString(order.DisplayOrderID),
		order.Txn1,
		order.Txn2,
		order.TxnID,
		order.SessionID,
		order.Status,
		nullString(order.PaymentResponseCode),
		nullString(order.PaymentResponseMsg),
		order.UpdatedAt,
		order.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func scanOrder(row *sql.Row) (*domain.Order, error) {
	var order domain.Order
	var displayOrderID sql.NullString
	var responseCode sql.NullString
	var responseMsg sql.NullString
	var device []byte

	err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&displayOrderID,
		&order.UserID,
		&order.UserIP,
		&order.Currency,
		&order.Amount,
		&order.Txn1,
		&order.Txn2,
		&order.TxnID,
		&order.SessionID,
		&order.Customer.FirstName,
		&order.Customer.LastName,
		&order.Customer.Email,
		&order.Customer.Phone,
		&device,
		&order.Status,
		&responseCode,
		&responseMsg,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if len(device) > 0 {
		if err := json.Unmarshal(device, &order.Device); err != nil {
			return nil, fmt.Errorf("failed to decode device: %w", err)
		}
	}
	if displayOrderID.Valid {
		order.DisplayOrderID = displayOrderID.String
	}
	if responseCode.Valid {
		order.PaymentResponseCode = responseCode.String
	}
	if responseMsg.Valid {
		order.PaymentResponseMsg = responseMsg.String
	}

	return &order, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
