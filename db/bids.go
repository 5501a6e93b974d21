package db

import (
	"context"
	"fmt"

	"bidmarket/models"

	"github.com/lib/pq"
)

const bidColumns = `id, request_id, supplier_id, price, delivery_time_days, materials_cost, labor_cost,
	other_costs, notes, status, accepted_at, rejected_at, rejection_reason, cancelled_at, created_at, updated_at`

func (r *txRepo) GetBid(ctx context.Context, id int64, lock bool) (*models.Bid, error) {
	b := &models.Bid{}
	query := forUpdate(`SELECT `+bidColumns+` FROM bids WHERE id = $1`, lock)
	if err := r.tx.GetContext(ctx, b, query, id); err != nil {
		return nil, mapErr(err)
	}
	return b, nil
}

func (r *txRepo) FindActiveBid(ctx context.Context, requestID, supplierID int64) (*models.Bid, error) {
	b := &models.Bid{}
	query := `SELECT ` + bidColumns + ` FROM bids
        WHERE request_id = $1 AND supplier_id = $2 AND status <> 'cancelled'`
	if err := r.tx.GetContext(ctx, b, query, requestID, supplierID); err != nil {
		return nil, mapErr(err)
	}
	return b, nil
}

func (r *txRepo) InsertBid(ctx context.Context, b *models.Bid) error {
	query := `
        INSERT INTO bids (request_id, supplier_id, price, delivery_time_days, materials_cost, labor_cost,
            other_costs, notes, status, created_at, updated_at)
        VALUES (:request_id, :supplier_id, :price, :delivery_time_days, :materials_cost, :labor_cost,
            :other_costs, :notes, :status, :created_at, :updated_at)
        RETURNING id`
	return r.insertReturning(ctx, query, b, &b.ID)
}

func (r *txRepo) UpdateBid(ctx context.Context, b *models.Bid) error {
	query := `
        UPDATE bids
        SET price = :price, delivery_time_days = :delivery_time_days, materials_cost = :materials_cost,
            labor_cost = :labor_cost, other_costs = :other_costs, notes = :notes, status = :status,
            accepted_at = :accepted_at, rejected_at = :rejected_at, rejection_reason = :rejection_reason,
            cancelled_at = :cancelled_at, updated_at = :updated_at
        WHERE id = :id`
	return r.updateNamed(ctx, query, b)
}

// ListBidsByRequest locks rows in id order when lock is set, matching the
// order every other writer uses.
func (r *txRepo) ListBidsByRequest(ctx context.Context, requestID int64, lock bool, statuses ...models.BidStatus) ([]models.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE request_id = $1`
	args := []any{requestID}
	if len(statuses) > 0 {
		names := make([]string, 0, len(statuses))
		for _, s := range statuses {
			names = append(names, string(s))
		}
		query += ` AND status = ANY($2)`
		args = append(args, pq.Array(names))
	}
	query = forUpdate(query+` ORDER BY id`, lock)

	var out []models.Bid
	if err := r.tx.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("db: list bids of request %d: %w", requestID, err)
	}
	return out, nil
}
