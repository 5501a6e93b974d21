// Package audit appends immutable history rows for lifecycle changes. Rows are
// written through the caller's transaction so they commit or roll back with
// the change they describe.
package audit

import (
	"context"
	"fmt"
	"time"

	"bidmarket/internal/store"
	"bidmarket/models"
)

type Log struct {
	repo store.AuditRepository
	now  func() time.Time
}

func New(repo store.AuditRepository, now func() time.Time) *Log {
	if now == nil {
		now = time.Now
	}
	return &Log{repo: repo, now: now}
}

// RequestChanged records one request status transition.
func (l *Log) RequestChanged(ctx context.Context, requestID int64, from, to models.RequestStatus,
	by int64, ct models.ChangeType, reason *string) error {
	c := &models.StatusChange{
		EntityID:   requestID,
		OldStatus:  string(from),
		NewStatus:  string(to),
		ChangedBy:  by,
		ChangeType: ct,
		Reason:     reason,
		ChangedAt:  l.now().UTC(),
	}
	if err := l.repo.InsertRequestHistory(ctx, c); err != nil {
		return fmt.Errorf("audit: request %d history: %w", requestID, err)
	}
	return nil
}

// OrderChanged records one order status transition.
func (l *Log) OrderChanged(ctx context.Context, orderID int64, from, to models.OrderStatus,
	by int64, ct models.ChangeType, reason *string) error {
	c := &models.StatusChange{
		EntityID:   orderID,
		OldStatus:  string(from),
		NewStatus:  string(to),
		ChangedBy:  by,
		ChangeType: ct,
		Reason:     reason,
		ChangedAt:  l.now().UTC(),
	}
	if err := l.repo.InsertOrderHistory(ctx, c); err != nil {
		return fmt.Errorf("audit: order %d history: %w", orderID, err)
	}
	return nil
}

func (l *Log) BidAction(ctx context.Context, bidID, actorID int64, action models.BidActionType, reason *string) error {
	a := &models.BidAction{
		BidID:     bidID,
		ActorID:   actorID,
		Action:    action,
		Reason:    reason,
		CreatedAt: l.now().UTC(),
	}
	if err := l.repo.InsertBidAction(ctx, a); err != nil {
		return fmt.Errorf("audit: bid %d action %s: %w", bidID, action, err)
	}
	return nil
}

// OrderNote records a supplier note stamped with the order's current status.
func (l *Log) OrderNote(ctx context.Context, orderID, authorID int64, status models.OrderStatus, message string) (*models.OrderUpdate, error) {
	u := &models.OrderUpdate{
		OrderID:   orderID,
		AuthorID:  authorID,
		Status:    status,
		Message:   message,
		CreatedAt: l.now().UTC(),
	}
	if err := l.repo.InsertOrderUpdate(ctx, u); err != nil {
		return nil, fmt.Errorf("audit: order %d update: %w", orderID, err)
	}
	return u, nil
}
