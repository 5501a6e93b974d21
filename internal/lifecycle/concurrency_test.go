package lifecycle_test

import (
	"errors"
	"sync/atomic"
	"testing"

	"bidmarket/internal/apperr"
	"bidmarket/internal/bids"
	"bidmarket/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestConcurrentAcceptCreatesOneOrder(t *testing.T) {
	h := newHarness(t)
	r := h.openRequest()

	const suppliers = 8
	ids := make([]int64, 0, suppliers)
	for i := range suppliers {
		ids = append(ids, h.bid(r.ID, int64(100+i), "250").ID)
	}

	var won, lost atomic.Int32
	var g errgroup.Group
	for _, id := range ids {
		g.Go(func() error {
			_, err := h.orch.AcceptBid(h.ctx, id, customerID)
			switch {
			case err == nil:
				won.Add(1)
			case errors.Is(err, apperr.ErrInvalidState):
				lost.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.EqualValues(t, 1, won.Load())
	assert.EqualValues(t, suppliers-1, lost.Load())

	snap := h.snapshot(r.ID)
	assert.Equal(t, models.RequestInProgress, snap.request.Status)
	assert.Equal(t, suppliers-1, snap.bidsIn(models.BidRejected))
	h.checkInvariants(r.ID)
}

func TestConcurrentAcceptAndCancel(t *testing.T) {
	h := newHarness(t)
	r := h.openRequest()
	b := h.bid(r.ID, 2, "120")
	h.bid(r.ID, 3, "130")

	var g errgroup.Group
	g.Go(func() error {
		_, err := h.orch.AcceptBid(h.ctx, b.ID, customerID)
		if err != nil && !errors.Is(err, apperr.ErrInvalidState) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		_, err := h.orch.CancelRequest(h.ctx, r.ID, customerID, nil)
		if err != nil && !errors.Is(err, apperr.ErrInvalidTransition) {
			return err
		}
		return nil
	})
	require.NoError(t, g.Wait())

	snap := h.snapshot(r.ID)
	switch snap.request.Status {
	case models.RequestInProgress:
		assert.Len(t, snap.orders, 1)
	case models.RequestCancelled:
		assert.Empty(t, snap.orders)
		assert.Equal(t, 2, snap.bidsIn(models.BidRejected))
	default:
		t.Fatalf("unexpected request status %s", snap.request.Status)
	}
	h.checkInvariants(r.ID)
}

func TestConcurrentDuplicateBids(t *testing.T) {
	h := newHarness(t)
	r := h.openRequest()

	var created, conflicts atomic.Int32
	var g errgroup.Group
	for range 6 {
		g.Go(func() error {
			_, err := h.orch.CreateBid(h.ctx, 7, r.ID, bids.CreateInput{
				Price:            decimal.NewFromInt(300),
				DeliveryTimeDays: 10,
			})
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, apperr.ErrConflict):
				conflicts.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.EqualValues(t, 1, created.Load())
	assert.EqualValues(t, 5, conflicts.Load())
	snap := h.snapshot(r.ID)
	assert.Len(t, snap.bids, 1)
	assert.Equal(t, 1, snap.request.BidCount)
}
