package requests_test

import (
	"context"
	"testing"
	"time"

	"bidmarket/internal/apperr"
	"bidmarket/internal/audit"
	"bidmarket/internal/requests"
	"bidmarket/internal/store"
	"bidmarket/internal/store/memstore"
	"bidmarket/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// inTx runs fn with a request store over a fresh in-memory transaction.
func inTx(t *testing.T, s *memstore.Store, fn func(ctx context.Context, st *requests.Store, repo store.Repository)) {
	t.Helper()
	err := s.WithinTx(context.Background(), func(ctx context.Context, repo store.Repository) error {
		fn(ctx, requests.NewStore(repo, audit.New(repo, clock), clock), repo)
		return nil
	})
	require.NoError(t, err)
}

func TestCreateDefaults(t *testing.T) {
	inTx(t, memstore.New(), func(ctx context.Context, st *requests.Store, _ store.Repository) {
		r, err := st.Create(ctx, 1, requests.CreateInput{Title: "Oak table"}, 48*time.Hour)
		require.NoError(t, err)
		require.NotZero(t, r.ID)
		require.Equal(t, models.RequestPendingCategorization, r.Status)
		require.Equal(t, "USD", r.Currency)
		require.Equal(t, models.FlexWeek, r.TimeFlexibility)
		require.Equal(t, fixedNow.Add(48*time.Hour), r.ExpiresAt)
	})
}

func TestCreateWithCategoryOpensForBids(t *testing.T) {
	cat := int64(4)
	inTx(t, memstore.New(), func(ctx context.Context, st *requests.Store, _ store.Repository) {
		r, err := st.Create(ctx, 1, requests.CreateInput{Title: "Chairs", CategoryID: &cat}, time.Hour)
		require.NoError(t, err)
		require.Equal(t, models.RequestOpenForBids, r.Status)
	})
}

func TestCreateValidation(t *testing.T) {
	inTx(t, memstore.New(), func(ctx context.Context, st *requests.Store, _ store.Repository) {
		_, err := st.Create(ctx, 1, requests.CreateInput{}, time.Hour)
		require.ErrorIs(t, err, apperr.ErrInvalidInput)

		_, err = st.Create(ctx, 1, requests.CreateInput{
			Title:     "x",
			BudgetMin: decimal.NewNullDecimal(decimal.NewFromInt(100)),
			BudgetMax: decimal.NewNullDecimal(decimal.NewFromInt(50)),
		}, time.Hour)
		require.ErrorIs(t, err, apperr.ErrInvalidInput)

		_, err = st.Create(ctx, 1, requests.CreateInput{Title: "x", Currency: "usd"}, time.Hour)
		require.ErrorIs(t, err, apperr.ErrInvalidInput)
	})
}

func TestUpdateOnlyWhileEditable(t *testing.T) {
	inTx(t, memstore.New(), func(ctx context.Context, st *requests.Store, _ store.Repository) {
		r, err := st.Create(ctx, 1, requests.CreateInput{Title: "Desk"}, time.Hour)
		require.NoError(t, err)

		title := "Standing desk"
		require.NoError(t, st.Update(ctx, r, requests.UpdateInput{Title: &title}))
		require.Equal(t, title, r.Title)

		r.Status = models.RequestBidsReceived
		err = st.Update(ctx, r, requests.UpdateInput{Title: &title})
		require.ErrorIs(t, err, apperr.ErrInvalidState)
	})
}

func TestTransitionWritesHistory(t *testing.T) {
	inTx(t, memstore.New(), func(ctx context.Context, st *requests.Store, repo store.Repository) {
		r, err := st.Create(ctx, 1, requests.CreateInput{Title: "Desk"}, time.Hour)
		require.NoError(t, err)

		require.NoError(t, st.Transition(ctx, r, models.RequestCancelled, 1, models.ChangeManual, nil))
		err = st.Transition(ctx, r, models.RequestOpenForBids, 1, models.ChangeManual, nil)
		var te *apperr.TransitionError
		require.ErrorAs(t, err, &te)
		require.Equal(t, "cancelled", te.From)

		hist, err := repo.ListRequestHistory(ctx, r.ID)
		require.NoError(t, err)
		require.Len(t, hist, 1)
	})
}

func TestRecordBidReceivedIsIdempotent(t *testing.T) {
	cat := int64(1)
	inTx(t, memstore.New(), func(ctx context.Context, st *requests.Store, repo store.Repository) {
		r, err := st.Create(ctx, 1, requests.CreateInput{Title: "Desk", CategoryID: &cat}, time.Hour)
		require.NoError(t, err)

		require.NoError(t, st.RecordBidReceived(ctx, r))
		require.NoError(t, st.RecordBidReceived(ctx, r))
		require.Equal(t, models.RequestBidsReceived, r.Status)
		require.Equal(t, 2, r.BidCount)

		hist, err := repo.ListRequestHistory(ctx, r.ID)
		require.NoError(t, err)
		require.Len(t, hist, 1)
		require.Equal(t, models.ChangeAutomatic, hist[0].ChangeType)
	})
}

func TestAssignCategory(t *testing.T) {
	inTx(t, memstore.New(), func(ctx context.Context, st *requests.Store, _ store.Repository) {
		r, err := st.Create(ctx, 1, requests.CreateInput{Title: "Desk"}, time.Hour)
		require.NoError(t, err)

		opened, err := st.AssignCategory(ctx, r, 7)
		require.NoError(t, err)
		require.True(t, opened)
		require.Equal(t, models.RequestOpenForBids, r.Status)

		opened, err = st.AssignCategory(ctx, r, 8)
		require.NoError(t, err)
		require.False(t, opened)
		require.Equal(t, int64(8), *r.CategoryID)

		r.Status = models.RequestCancelled
		_, err = st.AssignCategory(ctx, r, 9)
		require.ErrorIs(t, err, apperr.ErrInvalidState)
	})
}
