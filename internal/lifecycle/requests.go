package lifecycle

import (
	"context"

	"bidmarket/internal/apperr"
	"bidmarket/internal/notify"
	"bidmarket/internal/requests"
	"bidmarket/models"
)

const reasonRequestCancelled = "request was cancelled"

func (o *Orchestrator) CreateRequest(ctx context.Context, customerID int64, in requests.CreateInput) (*models.Request, error) {
	var out *models.Request
	err := o.run(ctx, "create request", func(ctx context.Context, s *scope) error {
		r, err := s.requests.Create(ctx, customerID, in, o.requestTTL)
		if err != nil {
			return err
		}
		e := notify.NewEvent(notify.RequestCreated, o.stamp(), customerID)
		e.RequestID = r.ID
		e.Payload = map[string]any{"status": r.Status}
		s.emit(e)
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	o.log.InfoContext(ctx, "request created", "request_id", out.ID, "customer_id", customerID, "status", out.Status)
	return out, nil
}

// lockOwnRequest locks the request and checks that customerID owns it.
func lockOwnRequest(ctx context.Context, s *scope, requestID, customerID int64) (*models.Request, error) {
	r, err := s.requests.Get(ctx, requestID, true)
	if err != nil {
		return nil, err
	}
	if r.CustomerID != customerID {
		return nil, apperr.Forbidden("request %d belongs to another customer", requestID)
	}
	return r, nil
}

func (o *Orchestrator) UpdateRequest(ctx context.Context, requestID, customerID int64, in requests.UpdateInput) (*models.Request, error) {
	var out *models.Request
	err := o.run(ctx, "update request", func(ctx context.Context, s *scope) error {
		r, err := lockOwnRequest(ctx, s, requestID, customerID)
		if err != nil {
			return err
		}
		if err := s.requests.Update(ctx, r, in); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CancelRequest cancels the request and rejects all of its pending bids.
func (o *Orchestrator) CancelRequest(ctx context.Context, requestID, customerID int64, reason *string) (*models.Request, error) {
	var out *models.Request
	var rejected int
	err := o.run(ctx, "cancel request", func(ctx context.Context, s *scope) error {
		r, err := lockOwnRequest(ctx, s, requestID, customerID)
		if err != nil {
			return err
		}
		if err := s.requests.Transition(ctx, r, models.RequestCancelled, customerID, models.ChangeManual, reason); err != nil {
			return err
		}
		closed, err := s.bids.RejectPendingSiblings(ctx, r.ID, 0, reasonRequestCancelled, customerID)
		if err != nil {
			return err
		}

		now := o.stamp()
		e := notify.NewEvent(notify.RequestCancelled, now, customerID)
		e.RequestID = r.ID
		s.emit(e)
		for _, b := range closed {
			be := notify.NewEvent(notify.BidRejected, now, b.SupplierID)
			be.RequestID = r.ID
			be.BidID = b.ID
			be.Payload = map[string]any{"reason": reasonRequestCancelled}
			s.emit(be)
		}
		out, rejected = r, len(closed)
		return nil
	})
	if err != nil {
		return nil, err
	}
	o.log.InfoContext(ctx, "request cancelled", "request_id", requestID, "rejected_bids", rejected)
	return out, nil
}

// AssignCategory is called by the categorization pipeline.
func (o *Orchestrator) AssignCategory(ctx context.Context, requestID, categoryID int64) (*models.Request, error) {
	var out *models.Request
	err := o.run(ctx, "assign category", func(ctx context.Context, s *scope) error {
		r, err := s.requests.Get(ctx, requestID, true)
		if err != nil {
			return err
		}
		opened, err := s.requests.AssignCategory(ctx, r, categoryID)
		if err != nil {
			return err
		}
		if opened {
			e := notify.NewEvent(notify.RequestOpened, o.stamp(), r.CustomerID)
			e.RequestID = r.ID
			e.Payload = map[string]any{"categoryId": categoryID}
			s.emit(e)
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	o.log.InfoContext(ctx, "request categorized", "request_id", requestID, "category_id", categoryID, "status", out.Status)
	return out, nil
}
