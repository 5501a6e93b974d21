package lifecycle

import (
	"context"

	"bidmarket/internal/apperr"
	"bidmarket/internal/bids"
	"bidmarket/internal/notify"
	"bidmarket/internal/orders"
	"bidmarket/models"
)

const reasonAnotherAccepted = "another bid was accepted"

// AcceptResult identifies the order created by AcceptBid.
type AcceptResult struct {
	OrderID     int64         `json:"orderId"`
	OrderNumber string        `json:"orderNumber"`
	Order       *models.Order `json:"order"`
}

// lockBid resolves the bid's request, then locks the request and the bid in
// that order.
func lockBid(ctx context.Context, s *scope, bidID int64) (*models.Request, *models.Bid, error) {
	peek, err := s.bids.Get(ctx, bidID, false)
	if err != nil {
		return nil, nil, err
	}
	req, err := s.requests.Get(ctx, peek.RequestID, true)
	if err != nil {
		return nil, nil, err
	}
	b, err := s.bids.Get(ctx, bidID, true)
	if err != nil {
		return nil, nil, err
	}
	return req, b, nil
}

func (o *Orchestrator) CreateBid(ctx context.Context, supplierID, requestID int64, in bids.CreateInput) (*models.Bid, error) {
	var out *models.Bid
	err := o.run(ctx, "create bid", func(ctx context.Context, s *scope) error {
		req, err := s.requests.Get(ctx, requestID, true)
		if err != nil {
			return err
		}
		b, err := s.bids.Create(ctx, supplierID, req, in)
		if err != nil {
			return err
		}
		if err := s.requests.RecordBidReceived(ctx, req); err != nil {
			return err
		}
		e := notify.NewEvent(notify.BidReceived, o.stamp(), req.CustomerID)
		e.RequestID = req.ID
		e.BidID = b.ID
		e.Payload = map[string]any{"price": b.Price.String(), "deliveryTimeDays": b.DeliveryTimeDays}
		s.emit(e)
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	o.log.InfoContext(ctx, "bid created", "bid_id", out.ID, "request_id", requestID, "supplier_id", supplierID)
	return out, nil
}

func (o *Orchestrator) UpdateBid(ctx context.Context, bidID, supplierID int64, in bids.UpdateInput) (*models.Bid, error) {
	var out *models.Bid
	err := o.run(ctx, "update bid", func(ctx context.Context, s *scope) error {
		req, b, err := lockBid(ctx, s, bidID)
		if err != nil {
			return err
		}
		if b.SupplierID != supplierID {
			return apperr.Forbidden("bid %d belongs to another supplier", bidID)
		}
		if b.Status == models.BidPending && !req.Biddable(o.now()) {
			return bids.ErrRequestNotBiddable
		}
		if err := s.bids.UpdateFields(ctx, b, supplierID, in); err != nil {
			return err
		}
		e := notify.NewEvent(notify.BidUpdated, o.stamp(), req.CustomerID)
		e.RequestID = req.ID
		e.BidID = b.ID
		s.emit(e)
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CancelBid withdraws a pending bid on behalf of its supplier.
func (o *Orchestrator) CancelBid(ctx context.Context, bidID, supplierID int64, reason *string) (*models.Bid, error) {
	var out *models.Bid
	err := o.run(ctx, "cancel bid", func(ctx context.Context, s *scope) error {
		req, b, err := lockBid(ctx, s, bidID)
		if err != nil {
			return err
		}
		if b.SupplierID != supplierID {
			return apperr.Forbidden("bid %d belongs to another supplier", bidID)
		}
		if b.Status != models.BidPending {
			return apperr.InvalidState("only pending bids can be cancelled")
		}
		if err := s.bids.Transition(ctx, b, models.BidCancelled, supplierID, reason); err != nil {
			return err
		}
		e := notify.NewEvent(notify.BidCancelled, o.stamp(), req.CustomerID)
		e.RequestID = req.ID
		e.BidID = b.ID
		s.emit(e)
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	o.log.InfoContext(ctx, "bid cancelled", "bid_id", bidID, "supplier_id", supplierID)
	return out, nil
}

// AcceptBid selects the winning bid: the bid is accepted, every other pending
// bid on the request is rejected, the request moves to in_progress and the
// order is created. Either all of it commits or none of it does.
func (o *Orchestrator) AcceptBid(ctx context.Context, bidID, customerID int64) (*AcceptResult, error) {
	var out *AcceptResult
	err := o.run(ctx, "accept bid", func(ctx context.Context, s *scope) error {
		req, b, err := lockBid(ctx, s, bidID)
		if err != nil {
			return err
		}
		if req.CustomerID != customerID {
			return apperr.Forbidden("bid %d is on another customer's request", bidID)
		}
		if b.Status != models.BidPending {
			return apperr.InvalidState("only pending bids can be accepted")
		}
		if !req.Status.AcceptsBids() {
			return apperr.InvalidState("request no longer accepting bids")
		}

		if err := s.bids.Transition(ctx, b, models.BidAccepted, customerID, nil); err != nil {
			return err
		}
		rejected, err := s.bids.RejectPendingSiblings(ctx, req.ID, b.ID, reasonAnotherAccepted, customerID)
		if err != nil {
			return err
		}
		if err := s.requests.Transition(ctx, req, models.RequestInProgress, customerID, models.ChangeManual, nil); err != nil {
			return err
		}
		order := orders.CreateFromBid(b, req, o.commissionRate, o.commissionMinFee, o.now())
		if err := s.orders.Insert(ctx, order); err != nil {
			return err
		}

		now := o.stamp()
		accepted := notify.NewEvent(notify.BidAccepted, now, b.SupplierID)
		accepted.RequestID, accepted.BidID, accepted.OrderID = req.ID, b.ID, order.ID
		s.emit(accepted)
		for _, r := range rejected {
			e := notify.NewEvent(notify.BidRejected, now, r.SupplierID)
			e.RequestID, e.BidID = req.ID, r.ID
			e.Payload = map[string]any{"reason": reasonAnotherAccepted}
			s.emit(e)
		}
		created := notify.NewEvent(notify.OrderCreated, now, order.CustomerID, order.SupplierID)
		created.RequestID, created.BidID, created.OrderID = req.ID, b.ID, order.ID
		created.Payload = map[string]any{
			"orderNumber":      order.OrderNumber,
			"totalAmount":      order.TotalAmount.String(),
			"commissionAmount": order.CommissionAmount.String(),
		}
		s.emit(created)

		out = &AcceptResult{OrderID: order.ID, OrderNumber: order.OrderNumber, Order: order}
		return nil
	})
	if err != nil {
		return nil, err
	}
	o.log.InfoContext(ctx, "bid accepted",
		"bid_id", bidID, "customer_id", customerID, "order_id", out.OrderID, "order_number", out.OrderNumber)
	return out, nil
}

func (o *Orchestrator) RejectBid(ctx context.Context, bidID, customerID int64, reason *string) (*models.Bid, error) {
	var out *models.Bid
	err := o.run(ctx, "reject bid", func(ctx context.Context, s *scope) error {
		req, b, err := lockBid(ctx, s, bidID)
		if err != nil {
			return err
		}
		if req.CustomerID != customerID {
			return apperr.Forbidden("bid %d is on another customer's request", bidID)
		}
		if b.Status != models.BidPending {
			return apperr.InvalidState("only pending bids can be rejected")
		}
		if err := s.bids.Transition(ctx, b, models.BidRejected, customerID, reason); err != nil {
			return err
		}
		e := notify.NewEvent(notify.BidRejected, o.stamp(), b.SupplierID)
		e.RequestID, e.BidID = req.ID, b.ID
		if reason != nil {
			e.Payload = map[string]any{"reason": *reason}
		}
		s.emit(e)
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	o.log.InfoContext(ctx, "bid rejected", "bid_id", bidID, "customer_id", customerID)
	return out, nil
}
