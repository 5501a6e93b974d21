package db

import (
	"context"
	"fmt"

	"bidmarket/models"
)

// История статусов и журналы только дополняются.

func (r *txRepo) InsertRequestHistory(ctx context.Context, c *models.StatusChange) error {
	query := `
        INSERT INTO request_status_history (request_id, old_status, new_status, changed_by, change_type, reason, changed_at)
        VALUES (:entity_id, :old_status, :new_status, :changed_by, :change_type, :reason, :changed_at)
        RETURNING id`
	return r.insertReturning(ctx, query, c, &c.ID)
}

func (r *txRepo) ListRequestHistory(ctx context.Context, requestID int64) ([]models.StatusChange, error) {
	var out []models.StatusChange
	query := `
        SELECT id, request_id AS entity_id, old_status, new_status, changed_by, change_type, reason, changed_at
        FROM request_status_history WHERE request_id = $1 ORDER BY id`
	if err := r.tx.SelectContext(ctx, &out, query, requestID); err != nil {
		return nil, fmt.Errorf("db: request %d history: %w", requestID, err)
	}
	return out, nil
}

func (r *txRepo) InsertOrderHistory(ctx context.Context, c *models.StatusChange) error {
	query := `
        INSERT INTO order_status_history (order_id, old_status, new_status, changed_by, change_type, reason, changed_at)
        VALUES (:entity_id, :old_status, :new_status, :changed_by, :change_type, :reason, :changed_at)
        RETURNING id`
	return r.insertReturning(ctx, query, c, &c.ID)
}

func (r *txRepo) ListOrderHistory(ctx context.Context, orderID int64) ([]models.StatusChange, error) {
	var out []models.StatusChange
	query := `
        SELECT id, order_id AS entity_id, old_status, new_status, changed_by, change_type, reason, changed_at
        FROM order_status_history WHERE order_id = $1 ORDER BY id`
	if err := r.tx.SelectContext(ctx, &out, query, orderID); err != nil {
		return nil, fmt.Errorf("db: order %d history: %w", orderID, err)
	}
	return out, nil
}

func (r *txRepo) InsertBidAction(ctx context.Context, a *models.BidAction) error {
	query := `
        INSERT INTO bid_actions (bid_id, actor_id, action, reason, created_at)
        VALUES (:bid_id, :actor_id, :action, :reason, :created_at)
        RETURNING id`
	return r.insertReturning(ctx, query, a, &a.ID)
}

func (r *txRepo) ListBidActions(ctx context.Context, bidID int64) ([]models.BidAction, error) {
	var out []models.BidAction
	query := `SELECT id, bid_id, actor_id, action, reason, created_at FROM bid_actions WHERE bid_id = $1 ORDER BY id`
	if err := r.tx.SelectContext(ctx, &out, query, bidID); err != nil {
		return nil, fmt.Errorf("db: bid %d actions: %w", bidID, err)
	}
	return out, nil
}

func (r *txRepo) InsertOrderUpdate(ctx context.Context, u *models.OrderUpdate) error {
	query := `
        INSERT INTO order_updates (order_id, author_id, status, message, created_at)
        VALUES (:order_id, :author_id, :status, :message, :created_at)
        RETURNING id`
	return r.insertReturning(ctx, query, u, &u.ID)
}

func (r *txRepo) ListOrderUpdates(ctx context.Context, orderID int64) ([]models.OrderUpdate, error) {
	var out []models.OrderUpdate
	query := `SELECT id, order_id, author_id, status, message, created_at FROM order_updates WHERE order_id = $1 ORDER BY id`
	if err := r.tx.SelectContext(ctx, &out, query, orderID); err != nil {
		return nil, fmt.Errorf("db: order %d updates: %w", orderID, err)
	}
	return out, nil
}
