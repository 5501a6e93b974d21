package bids_test

import (
	"context"
	"testing"
	"time"

	"bidmarket/internal/apperr"
	"bidmarket/internal/audit"
	"bidmarket/internal/bids"
	"bidmarket/internal/store"
	"bidmarket/internal/store/memstore"
	"bidmarket/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type fixture struct {
	ctx  context.Context
	repo store.Repository
	bids *bids.Store
	req  *models.Request
}

func withFixture(t *testing.T, fn func(f *fixture)) {
	t.Helper()
	s := memstore.New()
	err := s.WithinTx(context.Background(), func(ctx context.Context, repo store.Repository) error {
		req := &models.Request{
			CustomerID: 1,
			Title:      "Cabinet",
			Status:     models.RequestOpenForBids,
			ExpiresAt:  fixedNow.Add(24 * time.Hour),
		}
		require.NoError(t, repo.InsertRequest(ctx, req))
		fn(&fixture{
			ctx:  ctx,
			repo: repo,
			bids: bids.NewStore(repo, audit.New(repo, clock), clock),
			req:  req,
		})
		return nil
	})
	require.NoError(t, err)
}

func validInput(price int64) bids.CreateInput {
	return bids.CreateInput{Price: decimal.NewFromInt(price), DeliveryTimeDays: 10}
}

func TestCreateBid(t *testing.T) {
	withFixture(t, func(f *fixture) {
		b, err := f.bids.Create(f.ctx, 2, f.req, bids.CreateInput{
			Price:            decimal.RequireFromString("120.50"),
			DeliveryTimeDays: 14,
			Costs: &models.CostBreakdown{
				Materials: decimal.NewNullDecimal(decimal.NewFromInt(80)),
			},
		})
		require.NoError(t, err)
		require.Equal(t, models.BidPending, b.Status)
		require.True(t, b.MaterialsCost.Valid)
		require.False(t, b.LaborCost.Valid)

		actions, err := f.repo.ListBidActions(f.ctx, b.ID)
		require.NoError(t, err)
		require.Len(t, actions, 1)
		require.Equal(t, models.BidActionCreated, actions[0].Action)
	})
}

func TestCreateBidRules(t *testing.T) {
	withFixture(t, func(f *fixture) {
		_, err := f.bids.Create(f.ctx, 1, f.req, validInput(10))
		require.ErrorIs(t, err, apperr.ErrForbidden)

		_, err = f.bids.Create(f.ctx, 2, f.req, validInput(0))
		require.ErrorIs(t, err, apperr.ErrInvalidInput)

		_, err = f.bids.Create(f.ctx, 2, f.req, bids.CreateInput{Price: decimal.NewFromInt(5), DeliveryTimeDays: 400})
		require.ErrorIs(t, err, apperr.ErrInvalidInput)

		_, err = f.bids.Create(f.ctx, 2, f.req, bids.CreateInput{
			Price: decimal.NewFromInt(5), DeliveryTimeDays: 3,
			Costs: &models.CostBreakdown{Labor: decimal.NewNullDecimal(decimal.NewFromInt(-1))},
		})
		require.ErrorIs(t, err, apperr.ErrInvalidInput)

		_, err = f.bids.Create(f.ctx, 2, f.req, validInput(10))
		require.NoError(t, err)
		_, err = f.bids.Create(f.ctx, 2, f.req, validInput(11))
		require.ErrorIs(t, err, bids.ErrDuplicateBid)
		require.ErrorIs(t, err, apperr.ErrConflict)
	})
}

func TestCreateBidOnClosedRequest(t *testing.T) {
	withFixture(t, func(f *fixture) {
		f.req.Status = models.RequestInProgress
		_, err := f.bids.Create(f.ctx, 2, f.req, validInput(10))
		require.ErrorIs(t, err, bids.ErrRequestNotBiddable)

		f.req.Status = models.RequestOpenForBids
		f.req.ExpiresAt = fixedNow.Add(-time.Minute)
		_, err = f.bids.Create(f.ctx, 2, f.req, validInput(10))
		require.ErrorIs(t, err, apperr.ErrInvalidState)
	})
}

func TestRebidAfterCancel(t *testing.T) {
	withFixture(t, func(f *fixture) {
		b, err := f.bids.Create(f.ctx, 2, f.req, validInput(10))
		require.NoError(t, err)
		require.NoError(t, f.bids.Transition(f.ctx, b, models.BidCancelled, 2, nil))
		require.NotNil(t, b.CancelledAt)

		_, err = f.bids.Create(f.ctx, 2, f.req, validInput(9))
		require.NoError(t, err)
	})
}

func TestUpdateFields(t *testing.T) {
	withFixture(t, func(f *fixture) {
		b, err := f.bids.Create(f.ctx, 2, f.req, validInput(10))
		require.NoError(t, err)

		price := decimal.NewFromInt(8)
		require.NoError(t, f.bids.UpdateFields(f.ctx, b, 2, bids.UpdateInput{Price: &price}))
		require.True(t, b.Price.Equal(price))

		require.ErrorIs(t, f.bids.UpdateFields(f.ctx, b, 2, bids.UpdateInput{}), apperr.ErrInvalidInput)

		require.NoError(t, f.bids.Transition(f.ctx, b, models.BidRejected, 1, nil))
		require.ErrorIs(t, f.bids.UpdateFields(f.ctx, b, 2, bids.UpdateInput{Price: &price}), apperr.ErrInvalidState)

		actions, err := f.repo.ListBidActions(f.ctx, b.ID)
		require.NoError(t, err)
		require.Len(t, actions, 3)
	})
}

func TestTerminalBidsDoNotMove(t *testing.T) {
	withFixture(t, func(f *fixture) {
		b, err := f.bids.Create(f.ctx, 2, f.req, validInput(10))
		require.NoError(t, err)
		reason := "too expensive"
		require.NoError(t, f.bids.Transition(f.ctx, b, models.BidRejected, 1, &reason))
		require.Equal(t, &reason, b.RejectionReason)

		err = f.bids.Transition(f.ctx, b, models.BidRejected, 1, &reason)
		require.ErrorIs(t, err, apperr.ErrInvalidTransition)
		err = f.bids.Transition(f.ctx, b, models.BidAccepted, 1, nil)
		require.ErrorIs(t, err, apperr.ErrInvalidTransition)
	})
}

func TestRejectPendingSiblings(t *testing.T) {
	withFixture(t, func(f *fixture) {
		var ids []int64
		for supplier := int64(2); supplier <= 5; supplier++ {
			b, err := f.bids.Create(f.ctx, supplier, f.req, validInput(10*supplier))
			require.NoError(t, err)
			ids = append(ids, b.ID)
		}
		withdrawn, err := f.bids.Get(f.ctx, ids[3], true)
		require.NoError(t, err)
		require.NoError(t, f.bids.Transition(f.ctx, withdrawn, models.BidCancelled, 5, nil))

		rejected, err := f.bids.RejectPendingSiblings(f.ctx, f.req.ID, ids[0], "another bid was accepted", 1)
		require.NoError(t, err)
		require.Len(t, rejected, 2)
		require.Equal(t, ids[1], rejected[0].ID)
		require.Equal(t, ids[2], rejected[1].ID)

		pending, err := f.bids.ListByRequest(f.ctx, f.req.ID, false, models.BidPending)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		require.Equal(t, ids[0], pending[0].ID)
	})
}
