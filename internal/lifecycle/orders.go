package lifecycle

import (
	"context"
	"strings"

	"bidmarket/internal/apperr"
	"bidmarket/internal/notify"
	"bidmarket/internal/orders"
	"bidmarket/models"
)

func lockOrderAs(ctx context.Context, s *scope, orderID, userID int64, role orders.Role) (*models.Order, error) {
	o, err := s.orders.Get(ctx, orderID, true)
	if err != nil {
		return nil, err
	}
	owner := o.SupplierID
	if role == orders.RoleCustomer {
		owner = o.CustomerID
	}
	if owner != userID {
		return nil, apperr.Forbidden("order %d: caller is not its %s", orderID, role)
	}
	return o, nil
}

func (o *Orchestrator) changeOrder(ctx context.Context, op string, orderID int64, c orders.Change) (*models.Order, error) {
	var out *models.Order
	var from models.OrderStatus
	err := o.run(ctx, op, func(ctx context.Context, s *scope) error {
		ord, err := lockOrderAs(ctx, s, orderID, c.Actor, c.Role)
		if err != nil {
			return err
		}
		from = ord.Status
		if err := s.orders.Transition(ctx, ord, c); err != nil {
			return err
		}
		s.emit(orderChanged(o, ord, from))
		out = ord
		return nil
	})
	if err != nil {
		return nil, err
	}
	o.log.InfoContext(ctx, "order status changed",
		"order_id", orderID, "from", from, "to", out.Status, "actor_id", c.Actor, "role", c.Role.String())
	return out, nil
}

func orderChanged(o *Orchestrator, ord *models.Order, from models.OrderStatus) notify.Event {
	e := notify.NewEvent(notify.OrderStatusChanged, o.stamp(), ord.CustomerID, ord.SupplierID)
	e.RequestID, e.BidID, e.OrderID = ord.RequestID, ord.BidID, ord.ID
	e.Payload = map[string]any{"from": from, "to": ord.Status, "orderNumber": ord.OrderNumber}
	return e
}

// UpdateOrderStatus moves an order along the supplier edges of the order graph.
func (o *Orchestrator) UpdateOrderStatus(ctx context.Context, orderID, supplierID int64, to models.OrderStatus, notes string) (*models.Order, error) {
	return o.changeOrder(ctx, "update order status", orderID, orders.Change{
		To:    to,
		Actor: supplierID,
		Role:  orders.RoleSupplier,
		Notes: strings.TrimSpace(notes),
	})
}

// AddOrderUpdate appends a supplier note without changing the status.
func (o *Orchestrator) AddOrderUpdate(ctx context.Context, orderID, supplierID int64, message string) (*models.OrderUpdate, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperr.InvalidInput("message is required")
	}
	var out *models.OrderUpdate
	err := o.run(ctx, "add order update", func(ctx context.Context, s *scope) error {
		ord, err := lockOrderAs(ctx, s, orderID, supplierID, orders.RoleSupplier)
		if err != nil {
			return err
		}
		if ord.Status == models.OrderCancelled || ord.Status == models.OrderCompleted {
			return apperr.InvalidState("order %d is %s", orderID, ord.Status)
		}
		u, err := s.audit.OrderNote(ctx, ord.ID, supplierID, ord.Status, message)
		if err != nil {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CancelOrder is the customer's cancellation, allowed before production starts.
func (o *Orchestrator) CancelOrder(ctx context.Context, orderID, customerID int64, reason *string) (*models.Order, error) {
	return o.changeOrder(ctx, "cancel order", orderID, orders.Change{
		To:     models.OrderCancelled,
		Actor:  customerID,
		Role:   orders.RoleCustomer,
		Reason: reason,
	})
}

// ConfirmDelivery records the customer's receipt of a shipped order.
func (o *Orchestrator) ConfirmDelivery(ctx context.Context, orderID, customerID int64) (*models.Order, error) {
	return o.changeOrder(ctx, "confirm delivery", orderID, orders.Change{
		To:    models.OrderDelivered,
		Actor: customerID,
		Role:  orders.RoleCustomer,
	})
}

// CompleteOrder closes a delivered order and completes its request.
func (o *Orchestrator) CompleteOrder(ctx context.Context, orderID, customerID int64) (*models.Order, error) {
	var out *models.Order
	err := o.run(ctx, "complete order", func(ctx context.Context, s *scope) error {
		peek, err := s.orders.Get(ctx, orderID, false)
		if err != nil {
			return err
		}
		req, err := s.requests.Get(ctx, peek.RequestID, true)
		if err != nil {
			return err
		}
		ord, err := lockOrderAs(ctx, s, orderID, customerID, orders.RoleCustomer)
		if err != nil {
			return err
		}
		from := ord.Status
		if err := s.orders.Transition(ctx, ord, orders.Change{
			To:    models.OrderCompleted,
			Actor: customerID,
			Role:  orders.RoleCustomer,
		}); err != nil {
			return err
		}
		if err := s.requests.Transition(ctx, req, models.RequestCompleted, customerID, models.ChangeAutomatic, nil); err != nil {
			return err
		}
		s.emit(orderChanged(o, ord, from))
		out = ord
		return nil
	})
	if err != nil {
		return nil, err
	}
	o.log.InfoContext(ctx, "order completed", "order_id", orderID, "request_id", out.RequestID)
	return out, nil
}
