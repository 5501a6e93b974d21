package models

import "slices"

// TimeFlexibility describes how strict the customer's delivery date is.
type TimeFlexibility string

const (
	FlexCritical TimeFlexibility = "critical"
	FlexWeek     TimeFlexibility = "week"
	FlexMonth    TimeFlexibility = "month"
)

// Статусы заявки
type RequestStatus string

const (
	RequestPendingCategorization RequestStatus = "pending_categorization"
	RequestOpenForBids           RequestStatus = "open_for_bids"
	RequestBidsReceived          RequestStatus = "bids_received"
	RequestInProgress            RequestStatus = "in_progress"
	RequestCompleted             RequestStatus = "completed"
	RequestCancelled             RequestStatus = "cancelled"
	RequestExpired               RequestStatus = "expired"
)

var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestPendingCategorization: {RequestOpenForBids, RequestCancelled},
	RequestOpenForBids:           {RequestBidsReceived, RequestInProgress, RequestCancelled, RequestExpired},
	RequestBidsReceived:          {RequestInProgress, RequestCancelled, RequestExpired},
	RequestInProgress:            {RequestCompleted},
}

// CanTransition reports whether the request graph has an edge s -> to.
func (s RequestStatus) CanTransition(to RequestStatus) bool {
	return slices.Contains(requestTransitions[s], to)
}

// AcceptsBids reports whether bids may be placed or accepted in this status.
func (s RequestStatus) AcceptsBids() bool {
	return s == RequestOpenForBids || s == RequestBidsReceived
}

// Editable reports whether the customer may still change the request's content.
func (s RequestStatus) Editable() bool {
	return s == RequestPendingCategorization || s == RequestOpenForBids
}

// Статусы предложения
type BidStatus string

const (
	BidPending   BidStatus = "pending"
	BidAccepted  BidStatus = "accepted"
	BidRejected  BidStatus = "rejected"
	BidCancelled BidStatus = "cancelled"
	BidExpired   BidStatus = "expired"
)

// CanTransition reports whether the bid graph has an edge s -> to.
// Only pending bids move; every other status is terminal.
func (s BidStatus) CanTransition(to BidStatus) bool {
	if s != BidPending {
		return false
	}
	switch to {
	case BidAccepted, BidRejected, BidCancelled, BidExpired:
		return true
	default:
		return false
	}
}

// Статусы заказа
type OrderStatus string

const (
	OrderConfirmed    OrderStatus = "confirmed"
	OrderInProgress   OrderStatus = "in_progress"
	OrderProduction   OrderStatus = "production"
	OrderQualityCheck OrderStatus = "quality_check"
	OrderShipped      OrderStatus = "shipped"
	OrderDelivered    OrderStatus = "delivered"
	OrderCompleted    OrderStatus = "completed"
	OrderCancelled    OrderStatus = "cancelled"
)

var supplierOrderTransitions = map[OrderStatus][]OrderStatus{
	OrderConfirmed:    {OrderInProgress, OrderCancelled},
	OrderInProgress:   {OrderProduction, OrderQualityCheck, OrderCancelled},
	OrderProduction:   {OrderQualityCheck, OrderShipped, OrderCancelled},
	OrderQualityCheck: {OrderShipped, OrderProduction, OrderCancelled},
	OrderShipped:      {OrderDelivered},
}

var customerOrderTransitions = map[OrderStatus][]OrderStatus{
	OrderConfirmed:  {OrderCancelled},
	OrderInProgress: {OrderCancelled},
	OrderShipped:    {OrderDelivered},
	OrderDelivered:  {OrderCompleted},
}

// SupplierCanTransition reports whether a supplier may move an order s -> to.
func (s OrderStatus) SupplierCanTransition(to OrderStatus) bool {
	return slices.Contains(supplierOrderTransitions[s], to)
}

// CustomerCanTransition reports whether a customer may move an order s -> to.
func (s OrderStatus) CustomerCanTransition(to OrderStatus) bool {
	return slices.Contains(customerOrderTransitions[s], to)
}

func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderConfirmed, OrderInProgress, OrderProduction, OrderQualityCheck,
		OrderShipped, OrderDelivered, OrderCompleted, OrderCancelled:
		return true
	default:
		return false
	}
}
