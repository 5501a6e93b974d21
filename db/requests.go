package db

import (
	"context"
	"fmt"
	"time"

	"bidmarket/internal/store"
	"bidmarket/models"

	"github.com/lib/pq"
)

const requestColumns = `id, customer_id, title, description, budget_min, budget_max, currency,
	delivery_date, time_flexibility, category_id, status, bid_count, expires_at, created_at, updated_at`

func (r *txRepo) GetRequest(ctx context.Context, id int64, lock bool) (*models.Request, error) {
	req := &models.Request{}
	query := forUpdate(`SELECT `+requestColumns+` FROM requests WHERE id = $1`, lock)
	if err := r.tx.GetContext(ctx, req, query, id); err != nil {
		return nil, mapErr(err)
	}
	return req, nil
}

func (r *txRepo) InsertRequest(ctx context.Context, req *models.Request) error {
	query := `
        INSERT INTO requests (customer_id, title, description, budget_min, budget_max, currency,
            delivery_date, time_flexibility, category_id, status, bid_count, expires_at, created_at, updated_at)
        VALUES (:customer_id, :title, :description, :budget_min, :budget_max, :currency,
            :delivery_date, :time_flexibility, :category_id, :status, :bid_count, :expires_at, :created_at, :updated_at)
        RETURNING id`
	return r.insertReturning(ctx, query, req, &req.ID)
}

func (r *txRepo) UpdateRequest(ctx context.Context, req *models.Request) error {
	query := `
        UPDATE requests
        SET title = :title, description = :description, budget_min = :budget_min, budget_max = :budget_max,
            currency = :currency, delivery_date = :delivery_date, time_flexibility = :time_flexibility,
            category_id = :category_id, status = :status, bid_count = :bid_count, updated_at = :updated_at
        WHERE id = :id`
	return r.updateNamed(ctx, query, req)
}

func (r *txRepo) ListExpiredRequests(ctx context.Context, now time.Time, afterID int64, limit int) ([]int64, error) {
	statuses := make([]string, 0, len(store.SweepableStatuses))
	for _, s := range store.SweepableStatuses {
		statuses = append(statuses, string(s))
	}
	var ids []int64
	query := `
        SELECT id FROM requests
        WHERE status = ANY($1) AND expires_at <= $2 AND id > $3
        ORDER BY id
        LIMIT $4`
	if err := r.tx.SelectContext(ctx, &ids, query, pq.Array(statuses), now, afterID, limit); err != nil {
		return nil, fmt.Errorf("db: list expired requests: %w", err)
	}
	return ids, nil
}
