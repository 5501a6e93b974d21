// Package lifecycle coordinates requests, bids and orders. Every caller-facing
// operation runs as one unit of work: row locks are taken on the request first
// and then on bids in id order, all preconditions are re-checked under those
// locks, and notifications are dispatched only after commit.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bidmarket/internal/apperr"
	"bidmarket/internal/audit"
	"bidmarket/internal/bids"
	"bidmarket/internal/notify"
	"bidmarket/internal/orders"
	"bidmarket/internal/requests"
	"bidmarket/internal/store"

	"github.com/shopspring/decimal"
)

// EventSink receives events once their transaction has committed.
type EventSink interface {
	Dispatch(events ...notify.Event)
}

type discardSink struct{}

func (discardSink) Dispatch(...notify.Event) {}

type Orchestrator struct {
	uow    store.UnitOfWork
	events EventSink
	log    *slog.Logger
	now    func() time.Time

	commissionRate   decimal.Decimal
	commissionMinFee decimal.Decimal
	requestTTL       time.Duration
	txTimeout        time.Duration

	sweepBatch       int
	sweepConcurrency int
}

type Option func(*Orchestrator)

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func WithLogger(log *slog.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

func WithEventSink(sink EventSink) Option {
	return func(o *Orchestrator) { o.events = sink }
}

func WithCommission(rate, minFee decimal.Decimal) Option {
	return func(o *Orchestrator) {
		o.commissionRate = rate
		o.commissionMinFee = minFee
	}
}

func WithRequestTTL(ttl time.Duration) Option {
	return func(o *Orchestrator) { o.requestTTL = ttl }
}

func WithTxTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.txTimeout = d }
}

// WithSweep sets how many expired requests ExpireRequests lists per pass and
// how many of them it expires in parallel.
func WithSweep(batch, concurrency int) Option {
	return func(o *Orchestrator) {
		o.sweepBatch = batch
		o.sweepConcurrency = concurrency
	}
}

func New(uow store.UnitOfWork, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		uow:              uow,
		events:           discardSink{},
		log:              slog.Default(),
		now:              time.Now,
		commissionRate:   decimal.RequireFromString("0.05"),
		commissionMinFee: decimal.RequireFromString("1.00"),
		requestTTL:       30 * 24 * time.Hour,
		txTimeout:        5 * time.Second,
		sweepBatch:       100,
		sweepConcurrency: 4,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.sweepBatch < 1 {
		o.sweepBatch = 100
	}
	if o.sweepConcurrency < 1 {
		o.sweepConcurrency = 1
	}
	return o
}

// scope is the set of stores bound to one transaction.
type scope struct {
	repo     store.Repository
	audit    *audit.Log
	requests *requests.Store
	bids     *bids.Store
	orders   *orders.Store
	events   []notify.Event
}

func (o *Orchestrator) newScope(repo store.Repository) *scope {
	log := audit.New(repo, o.now)
	return &scope{
		repo:     repo,
		audit:    log,
		requests: requests.NewStore(repo, log, o.now),
		bids:     bids.NewStore(repo, log, o.now),
		orders:   orders.NewStore(repo, log, o.now),
	}
}

func (s *scope) emit(e notify.Event) {
	s.events = append(s.events, e)
}

// run executes fn in one transaction bounded by the configured timeout and
// dispatches the collected events after a successful commit. Failures that are
// not already classified surface as apperr.ErrInternal.
func (o *Orchestrator) run(ctx context.Context, op string, fn func(ctx context.Context, s *scope) error) error {
	ctx, cancel := context.WithTimeout(ctx, o.txTimeout)
	defer cancel()

	var committed *scope
	err := o.uow.WithinTx(ctx, func(ctx context.Context, repo store.Repository) error {
		s := o.newScope(repo)
		if err := fn(ctx, s); err != nil {
			return err
		}
		committed = s
		return nil
	})
	if err != nil {
		if apperr.Classified(err) {
			return fmt.Errorf("lifecycle: %s: %w", op, err)
		}
		o.log.ErrorContext(ctx, "lifecycle operation failed", "op", op, "error", err)
		return apperr.Internal("lifecycle: "+op, err)
	}
	o.events.Dispatch(committed.events...)
	return nil
}

func (o *Orchestrator) stamp() time.Time {
	return o.now().UTC()
}
