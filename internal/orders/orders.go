// Package orders builds orders from accepted bids and enforces the order
// status graph.
package orders

import (
	"context"
	"fmt"
	"time"

	"bidmarket/internal/apperr"
	"bidmarket/internal/audit"
	"bidmarket/internal/store"
	"bidmarket/models"
)

// Role selects which edge set of the order graph applies to a change.
type Role int

const (
	RoleSupplier Role = iota
	RoleCustomer
)

func (r Role) String() string {
	if r == RoleCustomer {
		return "customer"
	}
	return "supplier"
}

// Change describes one requested order status move.
type Change struct {
	To     models.OrderStatus
	Actor  int64
	Role   Role
	Reason *string
	Notes  string
}

// Store is the order store bound to one transaction.
type Store struct {
	repo  store.OrderRepository
	audit *audit.Log
	now   func() time.Time
}

func NewStore(repo store.OrderRepository, log *audit.Log, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{repo: repo, audit: log, now: now}
}

func (s *Store) Insert(ctx context.Context, o *models.Order) error {
	if err := s.repo.InsertOrder(ctx, o); err != nil {
		return fmt.Errorf("orders: insert for bid %d: %w", o.BidID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id int64, lock bool) (*models.Order, error) {
	o, err := s.repo.GetOrder(ctx, id, lock)
	if err != nil {
		return nil, fmt.Errorf("orders: order %d: %w", id, err)
	}
	return o, nil
}

func allowed(from models.OrderStatus, c Change) bool {
	if c.Role == RoleCustomer {
		return from.CustomerCanTransition(c.To)
	}
	return from.SupplierCanTransition(c.To)
}

// Transition applies c to o and writes one history row, plus one update row
// when notes are given.
func (s *Store) Transition(ctx context.Context, o *models.Order, c Change) error {
	if !models.ValidOrderStatus(c.To) {
		return apperr.InvalidInput("unknown order status %q", c.To)
	}
	if !allowed(o.Status, c) {
		return apperr.Transition("order", o.Status, c.To)
	}
	now := s.now().UTC()
	from := o.Status
	o.Status = c.To
	o.UpdatedAt = now
	switch c.To {
	case models.OrderDelivered:
		o.ActualDeliveryDate = &now
	case models.OrderCancelled:
		o.CancellationReason = c.Reason
	}
	if err := s.repo.UpdateOrder(ctx, o); err != nil {
		return fmt.Errorf("orders: update %d: %w", o.ID, err)
	}
	if err := s.audit.OrderChanged(ctx, o.ID, from, c.To, c.Actor, models.ChangeManual, c.Reason); err != nil {
		return err
	}
	if c.Notes != "" {
		if _, err := s.audit.OrderNote(ctx, o.ID, c.Actor, o.Status, c.Notes); err != nil {
			return err
		}
	}
	return nil
}
