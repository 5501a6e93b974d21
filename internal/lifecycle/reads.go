package lifecycle

import (
	"context"
	"errors"
	"time"

	"bidmarket/internal/apperr"
	"bidmarket/internal/store"
	"bidmarket/models"
)

// Reads report anything the caller may not see as not found.

// OrderHistory is the audit view of one order.
type OrderHistory struct {
	Order   *models.Order         `json:"order"`
	Changes []models.StatusChange `json:"changes"`
	Updates []models.OrderUpdate  `json:"updates"`
}

// requestVisible: the customer always sees the request, suppliers see it
// while it is open for bids or once they have bid on it.
func requestVisible(ctx context.Context, s *scope, r *models.Request, userID int64, now time.Time) (bool, error) {
	if r.CustomerID == userID || r.Biddable(now) {
		return true, nil
	}
	_, err := s.repo.FindActiveBid(ctx, r.ID, userID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (o *Orchestrator) GetRequest(ctx context.Context, requestID, userID int64) (*models.Request, error) {
	var out *models.Request
	err := o.run(ctx, "get request", func(ctx context.Context, s *scope) error {
		r, err := s.requests.Get(ctx, requestID, false)
		if err != nil {
			return err
		}
		visible, err := requestVisible(ctx, s, r, userID, o.now())
		if err != nil {
			return err
		}
		if !visible {
			return apperr.NotFound("request %d not found", requestID)
		}
		out = r
		return nil
	})
	return out, err
}

// GetRequestHistory returns the status history of a request to its customer.
func (o *Orchestrator) GetRequestHistory(ctx context.Context, requestID, customerID int64) ([]models.StatusChange, error) {
	var out []models.StatusChange
	err := o.run(ctx, "get request history", func(ctx context.Context, s *scope) error {
		r, err := s.requests.Get(ctx, requestID, false)
		if err != nil {
			return err
		}
		if r.CustomerID != customerID {
			return apperr.NotFound("request %d not found", requestID)
		}
		out, err = s.repo.ListRequestHistory(ctx, requestID)
		return err
	})
	return out, err
}

// ListRequestBids returns every bid to the request's customer and only the
// caller's own bids to anyone else.
func (o *Orchestrator) ListRequestBids(ctx context.Context, requestID, userID int64) ([]models.Bid, error) {
	var out []models.Bid
	err := o.run(ctx, "list request bids", func(ctx context.Context, s *scope) error {
		r, err := s.requests.Get(ctx, requestID, false)
		if err != nil {
			return err
		}
		all, err := s.bids.ListByRequest(ctx, requestID, false)
		if err != nil {
			return err
		}
		if r.CustomerID == userID {
			out = all
			return nil
		}
		own := make([]models.Bid, 0, 1)
		for _, b := range all {
			if b.SupplierID == userID {
				own = append(own, b)
			}
		}
		if len(own) == 0 && !r.Biddable(o.now()) {
			return apperr.NotFound("request %d not found", requestID)
		}
		out = own
		return nil
	})
	return out, err
}

func (o *Orchestrator) GetBid(ctx context.Context, bidID, userID int64) (*models.Bid, error) {
	var out *models.Bid
	err := o.run(ctx, "get bid", func(ctx context.Context, s *scope) error {
		b, err := s.bids.Get(ctx, bidID, false)
		if err != nil {
			return err
		}
		if b.SupplierID != userID {
			r, err := s.requests.Get(ctx, b.RequestID, false)
			if err != nil {
				return err
			}
			if r.CustomerID != userID {
				return apperr.NotFound("bid %d not found", bidID)
			}
		}
		out = b
		return nil
	})
	return out, err
}

func (o *Orchestrator) GetOrder(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	var out *models.Order
	err := o.run(ctx, "get order", func(ctx context.Context, s *scope) error {
		ord, err := s.orders.Get(ctx, orderID, false)
		if err != nil {
			return err
		}
		if !ord.IsParty(userID) {
			return apperr.NotFound("order %d not found", orderID)
		}
		out = ord
		return nil
	})
	return out, err
}

func (o *Orchestrator) GetOrderHistory(ctx context.Context, orderID, userID int64) (*OrderHistory, error) {
	var out *OrderHistory
	err := o.run(ctx, "get order history", func(ctx context.Context, s *scope) error {
		ord, err := s.orders.Get(ctx, orderID, false)
		if err != nil {
			return err
		}
		if !ord.IsParty(userID) {
			return apperr.NotFound("order %d not found", orderID)
		}
		changes, err := s.repo.ListOrderHistory(ctx, orderID)
		if err != nil {
			return err
		}
		updates, err := s.repo.ListOrderUpdates(ctx, orderID)
		if err != nil {
			return err
		}
		out = &OrderHistory{Order: ord, Changes: changes, Updates: updates}
		return nil
	})
	return out, err
}
