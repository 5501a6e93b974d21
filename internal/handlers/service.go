package handlers

import (
	"context"

	"bidmarket/internal/bids"
	"bidmarket/internal/lifecycle"
	"bidmarket/internal/requests"
	"bidmarket/models"
)

// Service is the lifecycle surface the handlers call.
type Service interface {
	CreateRequest(ctx context.Context, customerID int64, in requests.CreateInput) (*models.Request, error)
	GetRequest(ctx context.Context, requestID, userID int64) (*models.Request, error)
	UpdateRequest(ctx context.Context, requestID, customerID int64, in requests.UpdateInput) (*models.Request, error)
	CancelRequest(ctx context.Context, requestID, customerID int64, reason *string) (*models.Request, error)
	GetRequestHistory(ctx context.Context, requestID, customerID int64) ([]models.StatusChange, error)
	ListRequestBids(ctx context.Context, requestID, userID int64) ([]models.Bid, error)
	AssignCategory(ctx context.Context, requestID, categoryID int64) (*models.Request, error)

	CreateBid(ctx context.Context, supplierID, requestID int64, in bids.CreateInput) (*models.Bid, error)
	GetBid(ctx context.Context, bidID, userID int64) (*models.Bid, error)
	UpdateBid(ctx context.Context, bidID, supplierID int64, in bids.UpdateInput) (*models.Bid, error)
	CancelBid(ctx context.Context, bidID, supplierID int64, reason *string) (*models.Bid, error)
	AcceptBid(ctx context.Context, bidID, customerID int64) (*lifecycle.AcceptResult, error)
	RejectBid(ctx context.Context, bidID, customerID int64, reason *string) (*models.Bid, error)

	GetOrder(ctx context.Context, orderID, userID int64) (*models.Order, error)
	GetOrderHistory(ctx context.Context, orderID, userID int64) (*lifecycle.OrderHistory, error)
	UpdateOrderStatus(ctx context.Context, orderID, supplierID int64, to models.OrderStatus, notes string) (*models.Order, error)
	AddOrderUpdate(ctx context.Context, orderID, supplierID int64, message string) (*models.OrderUpdate, error)
	CancelOrder(ctx context.Context, orderID, customerID int64, reason *string) (*models.Order, error)
	ConfirmDelivery(ctx context.Context, orderID, customerID int64) (*models.Order, error)
	CompleteOrder(ctx context.Context, orderID, customerID int64) (*models.Order, error)
}

var _ Service = (*lifecycle.Orchestrator)(nil)
