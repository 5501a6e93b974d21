// Package bids owns supplier bids and their status machine.
package bids

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bidmarket/internal/apperr"
	"bidmarket/internal/audit"
	"bidmarket/internal/store"
	"bidmarket/internal/validation"
	"bidmarket/models"

	"github.com/shopspring/decimal"
)

var (
	ErrDuplicateBid       = fmt.Errorf("bids: supplier already has an active bid on this request: %w", apperr.ErrConflict)
	ErrRequestNotBiddable = fmt.Errorf("bids: request is not accepting bids: %w", apperr.ErrInvalidState)
	ErrOwnRequest         = fmt.Errorf("bids: cannot bid on own request: %w", apperr.ErrForbidden)
)

const (
	MinDeliveryDays = 1
	MaxDeliveryDays = 365
)

type CreateInput struct {
	Price            decimal.Decimal       `json:"price"`
	DeliveryTimeDays int                   `json:"deliveryTimeDays" validate:"min=1,max=365"`
	Costs            *models.CostBreakdown `json:"costBreakdown"`
	Notes            string                `json:"notes" validate:"max=2000"`
}

func (in *CreateInput) Validate() error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	if err := validation.Positive("price", in.Price); err != nil {
		return err
	}
	return checkCosts(in.Costs)
}

// UpdateInput carries the fields a supplier may revise; nil means unchanged.
type UpdateInput struct {
	Price            *decimal.Decimal      `json:"price"`
	DeliveryTimeDays *int                  `json:"deliveryTimeDays"`
	Costs            *models.CostBreakdown `json:"costBreakdown"`
	Notes            *string               `json:"notes"`
}

func (in *UpdateInput) Validate() error {
	if in.Price != nil {
		if err := validation.Positive("price", *in.Price); err != nil {
			return err
		}
	}
	if d := in.DeliveryTimeDays; d != nil && (*d < MinDeliveryDays || *d > MaxDeliveryDays) {
		return apperr.InvalidInput("deliveryTimeDays must be between %d and %d", MinDeliveryDays, MaxDeliveryDays)
	}
	if in.Notes != nil && len(*in.Notes) > 2000 {
		return apperr.InvalidInput("notes must be at most 2000 characters")
	}
	return checkCosts(in.Costs)
}

func (in *UpdateInput) Empty() bool {
	return in.Price == nil && in.DeliveryTimeDays == nil && in.Costs == nil && in.Notes == nil
}

func checkCosts(c *models.CostBreakdown) error {
	if c == nil {
		return nil
	}
	for field, v := range map[string]decimal.NullDecimal{
		"costBreakdown.materials": c.Materials,
		"costBreakdown.labor":     c.Labor,
		"costBreakdown.other":     c.Other,
	} {
		if err := validation.NonNegative(field, v); err != nil {
			return err
		}
	}
	return nil
}

// Store is the bid store bound to one transaction.
type Store struct {
	repo  store.BidRepository
	audit *audit.Log
	now   func() time.Time
}

func NewStore(repo store.BidRepository, log *audit.Log, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{repo: repo, audit: log, now: now}
}

// Create places a pending bid by supplierID on req. The caller must hold the
// request row lock.
func (s *Store) Create(ctx context.Context, supplierID int64, req *models.Request, in CreateInput) (*models.Bid, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if req.CustomerID == supplierID {
		return nil, ErrOwnRequest
	}
	now := s.now().UTC()
	if !req.Biddable(now) {
		return nil, ErrRequestNotBiddable
	}
	_, err := s.repo.FindActiveBid(ctx, req.ID, supplierID)
	switch {
	case err == nil:
		return nil, ErrDuplicateBid
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("bids: find active: %w", err)
	}

	b := &models.Bid{
		RequestID:        req.ID,
		SupplierID:       supplierID,
		Price:            in.Price,
		DeliveryTimeDays: in.DeliveryTimeDays,
		Notes:            in.Notes,
		Status:           models.BidPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if in.Costs != nil {
		b.SetCosts(*in.Costs)
	}
	if err := s.repo.InsertBid(ctx, b); err != nil {
		if errors.Is(err, store.ErrUniqueViolation) {
			return nil, ErrDuplicateBid
		}
		return nil, fmt.Errorf("bids: insert: %w", err)
	}
	if err := s.audit.BidAction(ctx, b.ID, supplierID, models.BidActionCreated, nil); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Store) Get(ctx context.Context, id int64, lock bool) (*models.Bid, error) {
	b, err := s.repo.GetBid(ctx, id, lock)
	if err != nil {
		return nil, fmt.Errorf("bids: bid %d: %w", id, err)
	}
	return b, nil
}

func (s *Store) ListByRequest(ctx context.Context, requestID int64, lock bool, statuses ...models.BidStatus) ([]models.Bid, error) {
	list, err := s.repo.ListBidsByRequest(ctx, requestID, lock, statuses...)
	if err != nil {
		return nil, fmt.Errorf("bids: list for request %d: %w", requestID, err)
	}
	return list, nil
}

// UpdateFields revises a pending bid and logs an updated action.
func (s *Store) UpdateFields(ctx context.Context, b *models.Bid, actorID int64, in UpdateInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	if in.Empty() {
		return apperr.InvalidInput("nothing to update")
	}
	if b.Status != models.BidPending {
		return apperr.InvalidState("only pending bids can be updated")
	}
	if in.Price != nil {
		b.Price = *in.Price
	}
	if in.DeliveryTimeDays != nil {
		b.DeliveryTimeDays = *in.DeliveryTimeDays
	}
	if in.Costs != nil {
		b.SetCosts(*in.Costs)
	}
	if in.Notes != nil {
		b.Notes = *in.Notes
	}
	b.UpdatedAt = s.now().UTC()
	if err := s.repo.UpdateBid(ctx, b); err != nil {
		return fmt.Errorf("bids: update %d: %w", b.ID, err)
	}
	return s.audit.BidAction(ctx, b.ID, actorID, models.BidActionUpdated, nil)
}

var actionFor = map[models.BidStatus]models.BidActionType{
	models.BidAccepted:  models.BidActionAccepted,
	models.BidRejected:  models.BidActionRejected,
	models.BidCancelled: models.BidActionCancelled,
	models.BidExpired:   models.BidActionExpired,
}

// Transition moves b along the bid graph, stamps the matching timestamp and
// logs one action row.
func (s *Store) Transition(ctx context.Context, b *models.Bid, to models.BidStatus, actorID int64, reason *string) error {
	if !b.Status.CanTransition(to) {
		return apperr.Transition("bid", b.Status, to)
	}
	now := s.now().UTC()
	b.Status = to
	b.UpdatedAt = now
	switch to {
	case models.BidAccepted:
		b.AcceptedAt = &now
	case models.BidRejected:
		b.RejectedAt = &now
		b.RejectionReason = reason
	case models.BidCancelled:
		b.CancelledAt = &now
	}
	if err := s.repo.UpdateBid(ctx, b); err != nil {
		return fmt.Errorf("bids: update %d: %w", b.ID, err)
	}
	return s.audit.BidAction(ctx, b.ID, actorID, actionFor[to], reason)
}

// RejectPendingSiblings rejects every pending bid on the request except
// exceptBidID, in id order, and returns the rejected bids.
func (s *Store) RejectPendingSiblings(ctx context.Context, requestID, exceptBidID int64, reason string, actorID int64) ([]models.Bid, error) {
	return s.closePending(ctx, requestID, exceptBidID, models.BidRejected, actorID, &reason)
}

// ExpirePending moves every pending bid on the request to expired.
func (s *Store) ExpirePending(ctx context.Context, requestID int64) ([]models.Bid, error) {
	return s.closePending(ctx, requestID, 0, models.BidExpired, models.SystemActor, nil)
}

func (s *Store) closePending(ctx context.Context, requestID, exceptBidID int64, to models.BidStatus,
	actorID int64, reason *string) ([]models.Bid, error) {
	pending, err := s.ListByRequest(ctx, requestID, true, models.BidPending)
	if err != nil {
		return nil, err
	}
	closed := make([]models.Bid, 0, len(pending))
	for i := range pending {
		b := &pending[i]
		if b.ID == exceptBidID {
			continue
		}
		if err := s.Transition(ctx, b, to, actorID, reason); err != nil {
			return nil, err
		}
		closed = append(closed, *b)
	}
	return closed, nil
}
