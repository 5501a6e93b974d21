package db

import (
	"context"
	"fmt"

	"bidmarket/models"
)

const orderColumns = `id, bid_id, request_id, customer_id, supplier_id, order_number, total_amount, currency,
	commission_rate, commission_amount, status, delivery_date, actual_delivery_date, cancellation_reason,
	created_at, updated_at`

func (r *txRepo) GetOrder(ctx context.Context, id int64, lock bool) (*models.Order, error) {
	o := &models.Order{}
	query := forUpdate(`SELECT `+orderColumns+` FROM orders WHERE id = $1`, lock)
	if err := r.tx.GetContext(ctx, o, query, id); err != nil {
		return nil, mapErr(err)
	}
	return o, nil
}

// InsertOrder relies on the unique indexes on bid_id and order_number; a
// second order for the same bid surfaces as store.ErrUniqueViolation.
func (r *txRepo) InsertOrder(ctx context.Context, o *models.Order) error {
	query := `
        INSERT INTO orders (bid_id, request_id, customer_id, supplier_id, order_number, total_amount, currency,
            commission_rate, commission_amount, status, delivery_date, created_at, updated_at)
        VALUES (:bid_id, :request_id, :customer_id, :supplier_id, :order_number, :total_amount, :currency,
            :commission_rate, :commission_amount, :status, :delivery_date, :created_at, :updated_at)
        RETURNING id`
	return r.insertReturning(ctx, query, o, &o.ID)
}

func (r *txRepo) UpdateOrder(ctx context.Context, o *models.Order) error {
	query := `
        UPDATE orders
        SET status = :status, actual_delivery_date = :actual_delivery_date,
            cancellation_reason = :cancellation_reason, updated_at = :updated_at
        WHERE id = :id`
	return r.updateNamed(ctx, query, o)
}

func (r *txRepo) ListOrdersByRequest(ctx context.Context, requestID int64) ([]models.Order, error) {
	var out []models.Order
	query := `SELECT ` + orderColumns + ` FROM orders WHERE request_id = $1 ORDER BY id`
	if err := r.tx.SelectContext(ctx, &out, query, requestID); err != nil {
		return nil, fmt.Errorf("db: list orders of request %d: %w", requestID, err)
	}
	return out, nil
}
