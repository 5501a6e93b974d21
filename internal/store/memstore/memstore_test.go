package memstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"bidmarket/internal/apperr"
	"bidmarket/internal/store"
	"bidmarket/internal/store/memstore"
	"bidmarket/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestRollbackDiscardsWrites(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	boom := errors.New("boom")

	var id int64
	err := s.WithinTx(ctx, func(ctx context.Context, repo store.Repository) error {
		r := &models.Request{CustomerID: 1, Title: "t", Status: models.RequestOpenForBids}
		require.NoError(t, repo.InsertRequest(ctx, r))
		id = r.ID
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = s.WithinTx(ctx, func(ctx context.Context, repo store.Repository) error {
		_, err := repo.GetRequest(ctx, id, false)
		return err
	})
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCommitPersists(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	var id int64
	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, repo store.Repository) error {
		r := &models.Request{CustomerID: 1, Title: "t", Status: models.RequestOpenForBids}
		if err := repo.InsertRequest(ctx, r); err != nil {
			return err
		}
		id = r.ID
		return nil
	}))

	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, repo store.Repository) error {
		r, err := repo.GetRequest(ctx, id, true)
		require.NoError(t, err)
		require.Equal(t, "t", r.Title)
		return nil
	}))
}

func TestActiveBidUniqueness(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	err := s.WithinTx(ctx, func(ctx context.Context, repo store.Repository) error {
		first := &models.Bid{RequestID: 10, SupplierID: 2, Price: decimal.NewFromInt(5), Status: models.BidPending}
		require.NoError(t, repo.InsertBid(ctx, first))

		dup := &models.Bid{RequestID: 10, SupplierID: 2, Price: decimal.NewFromInt(6), Status: models.BidPending}
		require.ErrorIs(t, repo.InsertBid(ctx, dup), store.ErrUniqueViolation)

		first.Status = models.BidCancelled
		require.NoError(t, repo.UpdateBid(ctx, first))
		require.NoError(t, repo.InsertBid(ctx, dup))

		bids, err := repo.ListBidsByRequest(ctx, 10, false, models.BidPending)
		require.NoError(t, err)
		require.Len(t, bids, 1)
		require.Equal(t, dup.ID, bids[0].ID)
		return nil
	})
	require.NoError(t, err)
}

func TestListExpiredRequests(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	now := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, repo store.Repository) error {
		for _, r := range []*models.Request{
			{Status: models.RequestOpenForBids, ExpiresAt: now.Add(-time.Hour)},
			{Status: models.RequestBidsReceived, ExpiresAt: now},
			{Status: models.RequestInProgress, ExpiresAt: now.Add(-time.Hour)},
			{Status: models.RequestOpenForBids, ExpiresAt: now.Add(time.Hour)},
			{Status: models.RequestPendingCategorization, ExpiresAt: now.Add(-time.Hour)},
			{Status: models.RequestOpenForBids, ExpiresAt: now.Add(-time.Minute)},
		} {
			require.NoError(t, repo.InsertRequest(ctx, r))
		}
		ids, err := repo.ListExpiredRequests(ctx, now, 0, 0)
		require.NoError(t, err)
		require.Equal(t, []int64{1, 2, 6}, ids)

		ids, err = repo.ListExpiredRequests(ctx, now, 1, 1)
		require.NoError(t, err)
		require.Equal(t, []int64{2}, ids)

		ids, err = repo.ListExpiredRequests(ctx, now, 2, 0)
		require.NoError(t, err)
		require.Equal(t, []int64{6}, ids)
		return nil
	}))
}

func TestWithinTxHonoursContext(t *testing.T) {
	s := memstore.New()
	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = s.WithinTx(context.Background(), func(ctx context.Context, repo store.Repository) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.WithinTx(ctx, func(ctx context.Context, repo store.Repository) error { return nil })
	require.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)
}
