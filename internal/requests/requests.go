// Package requests owns customer requests and their status machine.
package requests

import (
	"context"
	"fmt"
	"time"

	"bidmarket/internal/apperr"
	"bidmarket/internal/audit"
	"bidmarket/internal/store"
	"bidmarket/internal/validation"
	"bidmarket/models"

	"github.com/shopspring/decimal"
)

const (
	DefaultCurrency        = "USD"
	DefaultTimeFlexibility = models.FlexWeek
)

// CreateInput is what a customer submits for a new request.
type CreateInput struct {
	Title           string                 `json:"title" validate:"required,max=200"`
	Description     string                 `json:"description" validate:"max=5000"`
	BudgetMin       decimal.NullDecimal    `json:"budgetMin"`
	BudgetMax       decimal.NullDecimal    `json:"budgetMax"`
	Currency        string                 `json:"currency" validate:"omitempty,len=3,uppercase"`
	DeliveryDate    *time.Time             `json:"deliveryDate"`
	TimeFlexibility models.TimeFlexibility `json:"timeFlexibility" validate:"omitempty,oneof=critical week month"`
	CategoryID      *int64                 `json:"categoryId" validate:"omitempty,gt=0"`
}

func (in *CreateInput) Validate() error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	return checkBudget(in.BudgetMin, in.BudgetMax)
}

// UpdateInput carries the fields a customer may edit; nil means unchanged.
type UpdateInput struct {
	Title           *string                 `json:"title" validate:"omitempty,min=1,max=200"`
	Description     *string                 `json:"description" validate:"omitempty,max=5000"`
	BudgetMin       *decimal.NullDecimal    `json:"budgetMin"`
	BudgetMax       *decimal.NullDecimal    `json:"budgetMax"`
	DeliveryDate    *time.Time              `json:"deliveryDate"`
	TimeFlexibility *models.TimeFlexibility `json:"timeFlexibility" validate:"omitempty,oneof=critical week month"`
}

func (in *UpdateInput) Validate() error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	if in.Title != nil && *in.Title == "" {
		return apperr.InvalidInput("title must not be empty")
	}
	return nil
}

func checkBudget(min, max decimal.NullDecimal) error {
	if err := validation.NonNegative("budgetMin", min); err != nil {
		return err
	}
	if err := validation.NonNegative("budgetMax", max); err != nil {
		return err
	}
	if min.Valid && max.Valid && min.Decimal.GreaterThan(max.Decimal) {
		return apperr.InvalidInput("budgetMin must not exceed budgetMax")
	}
	return nil
}

// Store is the request store bound to one transaction.
type Store struct {
	repo  store.RequestRepository
	audit *audit.Log
	now   func() time.Time
}

func NewStore(repo store.RequestRepository, log *audit.Log, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{repo: repo, audit: log, now: now}
}

// Create stores a new request. It starts in pending_categorization unless the
// input already names a category, in which case it is open for bids at once.
func (s *Store) Create(ctx context.Context, customerID int64, in CreateInput, ttl time.Duration) (*models.Request, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	r := &models.Request{
		CustomerID:      customerID,
		Title:           in.Title,
		Description:     in.Description,
		BudgetMin:       in.BudgetMin,
		BudgetMax:       in.BudgetMax,
		Currency:        in.Currency,
		DeliveryDate:    in.DeliveryDate,
		TimeFlexibility: in.TimeFlexibility,
		CategoryID:      in.CategoryID,
		Status:          models.RequestPendingCategorization,
		ExpiresAt:       now.Add(ttl),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if r.Currency == "" {
		r.Currency = DefaultCurrency
	}
	if r.TimeFlexibility == "" {
		r.TimeFlexibility = DefaultTimeFlexibility
	}
	if r.CategoryID != nil {
		r.Status = models.RequestOpenForBids
	}
	if err := s.repo.InsertRequest(ctx, r); err != nil {
		return nil, fmt.Errorf("requests: insert: %w", err)
	}
	return r, nil
}

func (s *Store) Get(ctx context.Context, id int64, lock bool) (*models.Request, error) {
	r, err := s.repo.GetRequest(ctx, id, lock)
	if err != nil {
		return nil, fmt.Errorf("requests: request %d: %w", id, err)
	}
	return r, nil
}

// Update applies customer edits. Only requests that have not yet received
// bids can be edited.
func (s *Store) Update(ctx context.Context, r *models.Request, in UpdateInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	if !r.Status.Editable() {
		return apperr.InvalidState("request in status %s can no longer be edited", r.Status)
	}
	if in.Title != nil {
		r.Title = *in.Title
	}
	if in.Description != nil {
		r.Description = *in.Description
	}
	if in.BudgetMin != nil {
		r.BudgetMin = *in.BudgetMin
	}
	if in.BudgetMax != nil {
		r.BudgetMax = *in.BudgetMax
	}
	if in.DeliveryDate != nil {
		r.DeliveryDate = in.DeliveryDate
	}
	if in.TimeFlexibility != nil {
		r.TimeFlexibility = *in.TimeFlexibility
	}
	if err := checkBudget(r.BudgetMin, r.BudgetMax); err != nil {
		return err
	}
	r.UpdatedAt = s.now().UTC()
	if err := s.repo.UpdateRequest(ctx, r); err != nil {
		return fmt.Errorf("requests: update %d: %w", r.ID, err)
	}
	return nil
}

// Transition moves r along the request graph and records one history row.
func (s *Store) Transition(ctx context.Context, r *models.Request, to models.RequestStatus,
	by int64, ct models.ChangeType, reason *string) error {
	if !r.Status.CanTransition(to) {
		return apperr.Transition("request", r.Status, to)
	}
	from := r.Status
	r.Status = to
	r.UpdatedAt = s.now().UTC()
	if err := s.repo.UpdateRequest(ctx, r); err != nil {
		return fmt.Errorf("requests: update %d: %w", r.ID, err)
	}
	return s.audit.RequestChanged(ctx, r.ID, from, to, by, ct, reason)
}

// RecordBidReceived bumps bid_count and, on the first bid, moves the request
// from open_for_bids to bids_received. Later calls only bump the counter.
func (s *Store) RecordBidReceived(ctx context.Context, r *models.Request) error {
	r.BidCount++
	if r.Status == models.RequestOpenForBids {
		return s.Transition(ctx, r, models.RequestBidsReceived, models.SystemActor, models.ChangeAutomatic, nil)
	}
	r.UpdatedAt = s.now().UTC()
	if err := s.repo.UpdateRequest(ctx, r); err != nil {
		return fmt.Errorf("requests: update %d: %w", r.ID, err)
	}
	return nil
}

// AssignCategory sets the category chosen by the categorization pipeline.
// It reports whether the request became open for bids as a result.
func (s *Store) AssignCategory(ctx context.Context, r *models.Request, categoryID int64) (bool, error) {
	if categoryID <= 0 {
		return false, apperr.InvalidInput("categoryId must be positive")
	}
	switch r.Status {
	case models.RequestPendingCategorization:
		r.CategoryID = &categoryID
		err := s.Transition(ctx, r, models.RequestOpenForBids, models.SystemActor, models.ChangeAutomatic, nil)
		return err == nil, err
	case models.RequestOpenForBids, models.RequestBidsReceived:
		r.CategoryID = &categoryID
		r.UpdatedAt = s.now().UTC()
		if err := s.repo.UpdateRequest(ctx, r); err != nil {
			return false, fmt.Errorf("requests: update %d: %w", r.ID, err)
		}
		return false, nil
	default:
		return false, apperr.InvalidState("request in status %s cannot be recategorized", r.Status)
	}
}
