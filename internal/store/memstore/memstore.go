// Package memstore is an in-memory store.UnitOfWork. Transactions are fully
// serialized: each one works on a private copy of the data which replaces the
// shared state on commit.
package memstore

import (
	"context"
	"maps"
	"slices"
	"sort"
	"time"

	"bidmarket/internal/store"
	"bidmarket/models"
)

type state struct {
	requests       map[int64]models.Request
	bids           map[int64]models.Bid
	orders         map[int64]models.Order
	requestHistory []models.StatusChange
	orderHistory   []models.StatusChange
	bidActions     []models.BidAction
	orderUpdates   []models.OrderUpdate
	lastID         int64
}

func (s *state) clone() *state {
	return &state{
		requests:       maps.Clone(s.requests),
		bids:           maps.Clone(s.bids),
		orders:         maps.Clone(s.orders),
		requestHistory: slices.Clone(s.requestHistory),
		orderHistory:   slices.Clone(s.orderHistory),
		bidActions:     slices.Clone(s.bidActions),
		orderUpdates:   slices.Clone(s.orderUpdates),
		lastID:         s.lastID,
	}
}

type Store struct {
	sem  chan struct{}
	data *state
}

var _ store.UnitOfWork = (*Store)(nil)

func New() *Store {
	return &Store{
		sem: make(chan struct{}, 1),
		data: &state{
			requests: map[int64]models.Request{},
			bids:     map[int64]models.Bid{},
			orders:   map[int64]models.Order{},
		},
	}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repo store.Repository) error) error {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.sem }()

	tx := &txRepo{data: s.data.clone()}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data = tx.data
	return nil
}

// txRepo ignores lock hints; the whole store is held for the transaction.
type txRepo struct {
	data *state
}

func (t *txRepo) nextID() int64 {
	t.data.lastID++
	return t.data.lastID
}

// Заявки

func (t *txRepo) GetRequest(_ context.Context, id int64, _ bool) (*models.Request, error) {
	r, ok := t.data.requests[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &r, nil
}

func (t *txRepo) InsertRequest(_ context.Context, r *models.Request) error {
	r.ID = t.nextID()
	t.data.requests[r.ID] = *r
	return nil
}

func (t *txRepo) UpdateRequest(_ context.Context, r *models.Request) error {
	if _, ok := t.data.requests[r.ID]; !ok {
		return store.ErrNotFound
	}
	t.data.requests[r.ID] = *r
	return nil
}

func (t *txRepo) ListExpiredRequests(_ context.Context, now time.Time, afterID int64, limit int) ([]int64, error) {
	var ids []int64
	for id, r := range t.data.requests {
		if id > afterID && slices.Contains(store.SweepableStatuses, r.Status) && !r.ExpiresAt.After(now) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// Предложения

func (t *txRepo) GetBid(_ context.Context, id int64, _ bool) (*models.Bid, error) {
	b, ok := t.data.bids[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &b, nil
}

func (t *txRepo) FindActiveBid(_ context.Context, requestID, supplierID int64) (*models.Bid, error) {
	for _, b := range t.data.bids {
		if b.RequestID == requestID && b.SupplierID == supplierID && b.Status != models.BidCancelled {
			return &b, nil
		}
	}
	return nil, store.ErrNotFound
}

func (t *txRepo) InsertBid(ctx context.Context, b *models.Bid) error {
	if _, err := t.FindActiveBid(ctx, b.RequestID, b.SupplierID); err == nil {
		return store.ErrUniqueViolation
	}
	b.ID = t.nextID()
	t.data.bids[b.ID] = *b
	return nil
}

func (t *txRepo) UpdateBid(_ context.Context, b *models.Bid) error {
	if _, ok := t.data.bids[b.ID]; !ok {
		return store.ErrNotFound
	}
	if b.Status != models.BidCancelled {
		for id, other := range t.data.bids {
			if id != b.ID && other.RequestID == b.RequestID && other.SupplierID == b.SupplierID &&
				other.Status != models.BidCancelled {
				return store.ErrUniqueViolation
			}
		}
	}
	t.data.bids[b.ID] = *b
	return nil
}

func (t *txRepo) ListBidsByRequest(_ context.Context, requestID int64, _ bool, statuses ...models.BidStatus) ([]models.Bid, error) {
	var out []models.Bid
	for _, b := range t.data.bids {
		if b.RequestID != requestID {
			continue
		}
		if len(statuses) > 0 && !slices.Contains(statuses, b.Status) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Заказы

func (t *txRepo) GetOrder(_ context.Context, id int64, _ bool) (*models.Order, error) {
	o, ok := t.data.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &o, nil
}

func (t *txRepo) InsertOrder(_ context.Context, o *models.Order) error {
	for _, other := range t.data.orders {
		if other.BidID == o.BidID || other.OrderNumber == o.OrderNumber {
			return store.ErrUniqueViolation
		}
	}
	o.ID = t.nextID()
	t.data.orders[o.ID] = *o
	return nil
}

func (t *txRepo) UpdateOrder(_ context.Context, o *models.Order) error {
	if _, ok := t.data.orders[o.ID]; !ok {
		return store.ErrNotFound
	}
	t.data.orders[o.ID] = *o
	return nil
}

func (t *txRepo) ListOrdersByRequest(_ context.Context, requestID int64) ([]models.Order, error) {
	var out []models.Order
	for _, o := range t.data.orders {
		if o.RequestID == requestID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Журналы

func (t *txRepo) InsertRequestHistory(_ context.Context, c *models.StatusChange) error {
	c.ID = t.nextID()
	t.data.requestHistory = append(t.data.requestHistory, *c)
	return nil
}

func (t *txRepo) ListRequestHistory(_ context.Context, requestID int64) ([]models.StatusChange, error) {
	return filter(t.data.requestHistory, func(c models.StatusChange) bool { return c.EntityID == requestID }), nil
}

func (t *txRepo) InsertOrderHistory(_ context.Context, c *models.StatusChange) error {
	c.ID = t.nextID()
	t.data.orderHistory = append(t.data.orderHistory, *c)
	return nil
}

func (t *txRepo) ListOrderHistory(_ context.Context, orderID int64) ([]models.StatusChange, error) {
	return filter(t.data.orderHistory, func(c models.StatusChange) bool { return c.EntityID == orderID }), nil
}

func (t *txRepo) InsertBidAction(_ context.Context, a *models.BidAction) error {
	a.ID = t.nextID()
	t.data.bidActions = append(t.data.bidActions, *a)
	return nil
}

func (t *txRepo) ListBidActions(_ context.Context, bidID int64) ([]models.BidAction, error) {
	return filter(t.data.bidActions, func(a models.BidAction) bool { return a.BidID == bidID }), nil
}

func (t *txRepo) InsertOrderUpdate(_ context.Context, u *models.OrderUpdate) error {
	u.ID = t.nextID()
	t.data.orderUpdates = append(t.data.orderUpdates, *u)
	return nil
}

func (t *txRepo) ListOrderUpdates(_ context.Context, orderID int64) ([]models.OrderUpdate, error) {
	return filter(t.data.orderUpdates, func(u models.OrderUpdate) bool { return u.OrderID == orderID }), nil
}

func filter[T any](rows []T, keep func(T) bool) []T {
	var out []T
	for _, row := range rows {
		if keep(row) {
			out = append(out, row)
		}
	}
	return out
}
