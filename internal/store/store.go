// Package store defines the transactional persistence boundary used by the
// lifecycle orchestrator. Implementations live in bidmarket/db (Postgres) and
// bidmarket/internal/store/memstore (in-memory).
package store

import (
	"context"
	"fmt"
	"time"

	"bidmarket/internal/apperr"
	"bidmarket/models"
)

var (
	ErrNotFound        = fmt.Errorf("store: record not found: %w", apperr.ErrNotFound)
	ErrUniqueViolation = fmt.Errorf("store: unique violation: %w", apperr.ErrConflict)
)

// UnitOfWork runs fn inside one transaction. The transaction commits when fn
// returns nil and rolls back otherwise; the Repository must not escape fn.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}

// Repository is the transaction-scoped view of all lifecycle tables.
// A lock argument asks for a row lock held until the transaction ends.
type Repository interface {
	RequestRepository
	BidRepository
	OrderRepository
	AuditRepository
}

type RequestRepository interface {
	GetRequest(ctx context.Context, id int64, lock bool) (*models.Request, error)
	InsertRequest(ctx context.Context, r *models.Request) error
	UpdateRequest(ctx context.Context, r *models.Request) error
	// ListExpiredRequests returns, in id order, ids greater than afterID of
	// biddable requests whose expires_at is not after now.
	ListExpiredRequests(ctx context.Context, now time.Time, afterID int64, limit int) ([]int64, error)
}

type BidRepository interface {
	GetBid(ctx context.Context, id int64, lock bool) (*models.Bid, error)
	// FindActiveBid returns the supplier's non-cancelled bid on the request, or ErrNotFound.
	FindActiveBid(ctx context.Context, requestID, supplierID int64) (*models.Bid, error)
	InsertBid(ctx context.Context, b *models.Bid) error
	UpdateBid(ctx context.Context, b *models.Bid) error
	// ListBidsByRequest returns bids ordered by id, filtered by status when any are given.
	ListBidsByRequest(ctx context.Context, requestID int64, lock bool, statuses ...models.BidStatus) ([]models.Bid, error)
}

type OrderRepository interface {
	GetOrder(ctx context.Context, id int64, lock bool) (*models.Order, error)
	InsertOrder(ctx context.Context, o *models.Order) error
	UpdateOrder(ctx context.Context, o *models.Order) error
	ListOrdersByRequest(ctx context.Context, requestID int64) ([]models.Order, error)
}

type AuditRepository interface {
	InsertRequestHistory(ctx context.Context, c *models.StatusChange) error
	ListRequestHistory(ctx context.Context, requestID int64) ([]models.StatusChange, error)
	InsertOrderHistory(ctx context.Context, c *models.StatusChange) error
	ListOrderHistory(ctx context.Context, orderID int64) ([]models.StatusChange, error)
	InsertBidAction(ctx context.Context, a *models.BidAction) error
	ListBidActions(ctx context.Context, bidID int64) ([]models.BidAction, error)
	InsertOrderUpdate(ctx context.Context, u *models.OrderUpdate) error
	ListOrderUpdates(ctx context.Context, orderID int64) ([]models.OrderUpdate, error)
}

// SweepableStatuses are the request statuses ExpireRequests may move to expired.
var SweepableStatuses = []models.RequestStatus{
	models.RequestOpenForBids,
	models.RequestBidsReceived,
}
