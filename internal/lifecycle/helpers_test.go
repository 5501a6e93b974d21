package lifecycle_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bidmarket/internal/bids"
	"bidmarket/internal/lifecycle"
	"bidmarket/internal/logging"
	"bidmarket/internal/notify"
	"bidmarket/internal/requests"
	"bidmarket/internal/store"
	"bidmarket/internal/store/memstore"
	"bidmarket/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	customerID = int64(1)
	strangerID = int64(99)
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sink struct {
	mu     sync.Mutex
	events []notify.Event
}

func (s *sink) Dispatch(events ...notify.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
}

func (s *sink) types() []notify.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]notify.EventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

func (s *sink) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

var errInjected = errors.New("injected failure")

// faultyUoW wraps every transaction's repository so that the named write
// fails, optionally after letting the first skip calls through.
type faultyUoW struct {
	inner  store.UnitOfWork
	mu     sync.Mutex
	failOn string
	skip   int
	stuck  map[int64]bool
}

func (f *faultyUoW) arm(method string) {
	f.armAfter(method, 0)
}

func (f *faultyUoW) armAfter(method string, skip int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn, f.skip = method, skip
}

// failExpiry makes every attempt to expire the given requests fail.
func (f *faultyUoW) failExpiry(ids ...int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stuck = map[int64]bool{}
	for _, id := range ids {
		f.stuck[id] = true
	}
}

func (f *faultyUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, repo store.Repository) error) error {
	f.mu.Lock()
	repo := faultyRepo{failOn: f.failOn, skip: f.skip, stuck: f.stuck}
	f.mu.Unlock()
	return f.inner.WithinTx(ctx, func(ctx context.Context, inner store.Repository) error {
		repo.Repository = inner
		return fn(ctx, &repo)
	})
}

type faultyRepo struct {
	store.Repository
	failOn string
	skip   int
	stuck  map[int64]bool
}

func (r *faultyRepo) trip(method string) bool {
	if r.failOn != method {
		return false
	}
	if r.skip > 0 {
		r.skip--
		return false
	}
	return true
}

func (r *faultyRepo) UpdateRequest(ctx context.Context, req *models.Request) error {
	if req.Status == models.RequestExpired && r.stuck[req.ID] {
		return errInjected
	}
	return r.Repository.UpdateRequest(ctx, req)
}

func (r *faultyRepo) InsertOrder(ctx context.Context, o *models.Order) error {
	if r.trip("InsertOrder") {
		return errInjected
	}
	return r.Repository.InsertOrder(ctx, o)
}

func (r *faultyRepo) InsertRequestHistory(ctx context.Context, c *models.StatusChange) error {
	if r.trip("InsertRequestHistory") {
		return errInjected
	}
	return r.Repository.InsertRequestHistory(ctx, c)
}

func (r *faultyRepo) InsertBidAction(ctx context.Context, a *models.BidAction) error {
	if r.trip("InsertBidAction") {
		return errInjected
	}
	return r.Repository.InsertBidAction(ctx, a)
}

type harness struct {
	t     *testing.T
	ctx   context.Context
	mem   *memstore.Store
	uow   *faultyUoW
	clock *testClock
	sink  *sink
	orch  *lifecycle.Orchestrator
}

func newHarness(t *testing.T, opts ...lifecycle.Option) *harness {
	t.Helper()
	mem := memstore.New()
	h := &harness{
		t:     t,
		ctx:   context.Background(),
		mem:   mem,
		uow:   &faultyUoW{inner: mem},
		clock: &testClock{now: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)},
		sink:  &sink{},
	}
	base := []lifecycle.Option{
		lifecycle.WithClock(h.clock.Now),
		lifecycle.WithEventSink(h.sink),
		lifecycle.WithLogger(logging.Discard()),
		lifecycle.WithCommission(decimal.RequireFromString("0.05"), decimal.RequireFromString("1.00")),
		lifecycle.WithRequestTTL(7 * 24 * time.Hour),
		lifecycle.WithTxTimeout(2 * time.Second),
	}
	h.orch = lifecycle.New(h.uow, append(base, opts...)...)
	return h
}

// openRequest creates a categorized request owned by customerID.
func (h *harness) openRequest() *models.Request {
	h.t.Helper()
	cat := int64(3)
	r, err := h.orch.CreateRequest(h.ctx, customerID, requests.CreateInput{
		Title:      "Custom oak shelving",
		CategoryID: &cat,
		BudgetMax:  decimal.NewNullDecimal(decimal.NewFromInt(500)),
	})
	require.NoError(h.t, err)
	require.Equal(h.t, models.RequestOpenForBids, r.Status)
	return r
}

func (h *harness) bid(requestID, supplierID int64, price string) *models.Bid {
	h.t.Helper()
	b, err := h.orch.CreateBid(h.ctx, supplierID, requestID, bids.CreateInput{
		Price:            decimal.RequireFromString(price),
		DeliveryTimeDays: 14,
	})
	require.NoError(h.t, err)
	return b
}

func (h *harness) bidErr(requestID, supplierID int64, want error) {
	h.t.Helper()
	_, err := h.orch.CreateBid(h.ctx, supplierID, requestID, bids.CreateInput{
		Price:            decimal.NewFromInt(100),
		DeliveryTimeDays: 14,
	})
	require.ErrorIs(h.t, err, want)
}

// snapshot reads state straight from the store, bypassing visibility rules.
type snapshot struct {
	request models.Request
	bids    []models.Bid
	orders  []models.Order
	history []models.StatusChange
	actions map[int64][]models.BidAction
}

func (h *harness) snapshot(requestID int64) snapshot {
	h.t.Helper()
	var snap snapshot
	err := h.mem.WithinTx(h.ctx, func(ctx context.Context, repo store.Repository) error {
		r, err := repo.GetRequest(ctx, requestID, false)
		if err != nil {
			return err
		}
		snap.request = *r
		if snap.bids, err = repo.ListBidsByRequest(ctx, requestID, false); err != nil {
			return err
		}
		if snap.orders, err = repo.ListOrdersByRequest(ctx, requestID); err != nil {
			return err
		}
		if snap.history, err = repo.ListRequestHistory(ctx, requestID); err != nil {
			return err
		}
		snap.actions = map[int64][]models.BidAction{}
		for _, b := range snap.bids {
			if snap.actions[b.ID], err = repo.ListBidActions(ctx, b.ID); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(h.t, err)
	return snap
}

func (s snapshot) bidsIn(status models.BidStatus) int {
	n := 0
	for _, b := range s.bids {
		if b.Status == status {
			n++
		}
	}
	return n
}

// checkInvariants asserts the cross-entity rules that must hold after every
// committed operation.
func (h *harness) checkInvariants(requestID int64) {
	h.t.Helper()
	s := h.snapshot(requestID)
	accepted := s.bidsIn(models.BidAccepted)
	require.LessOrEqual(h.t, accepted, 1, "more than one accepted bid")
	if s.request.Status == models.RequestInProgress {
		require.Equal(h.t, 1, accepted)
	}
	require.Len(h.t, s.orders, accepted)
	for _, o := range s.orders {
		var found bool
		for _, b := range s.bids {
			if b.ID == o.BidID {
				found = true
				require.Equal(h.t, models.BidAccepted, b.Status)
			}
		}
		require.True(h.t, found, "order %d has no bid", o.ID)
	}
}
