package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Сущность Заявки (запрос покупателя)
type Request struct {
	ID              int64               `db:"id" json:"id"`
	CustomerID      int64               `db:"customer_id" json:"customerId"`
	Title           string              `db:"title" json:"title"`
	Description     string              `db:"description" json:"description"`
	BudgetMin       decimal.NullDecimal `db:"budget_min" json:"budgetMin"`
	BudgetMax       decimal.NullDecimal `db:"budget_max" json:"budgetMax"`
	Currency        string              `db:"currency" json:"currency"`
	DeliveryDate    *time.Time          `db:"delivery_date" json:"deliveryDate,omitempty"`
	TimeFlexibility TimeFlexibility     `db:"time_flexibility" json:"timeFlexibility"`
	CategoryID      *int64              `db:"category_id" json:"categoryId,omitempty"`
	Status          RequestStatus       `db:"status" json:"status"`
	BidCount        int                 `db:"bid_count" json:"bidCount"`
	ExpiresAt       time.Time           `db:"expires_at" json:"expiresAt"`
	CreatedAt       time.Time           `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time           `db:"updated_at" json:"updatedAt"`
}

// Biddable reports whether suppliers may still place or have bids accepted at now.
func (r *Request) Biddable(now time.Time) bool {
	return r.Status.AcceptsBids() && now.Before(r.ExpiresAt)
}

// Сущность Предложения
type Bid struct {
	ID               int64               `db:"id" json:"id"`
	RequestID        int64               `db:"request_id" json:"requestId"`
	SupplierID       int64               `db:"supplier_id" json:"supplierId"`
	Price            decimal.Decimal     `db:"price" json:"price"`
	DeliveryTimeDays int                 `db:"delivery_time_days" json:"deliveryTimeDays"`
	MaterialsCost    decimal.NullDecimal `db:"materials_cost" json:"materialsCost"`
	LaborCost        decimal.NullDecimal `db:"labor_cost" json:"laborCost"`
	OtherCosts       decimal.NullDecimal `db:"other_costs" json:"otherCosts"`
	Notes            string              `db:"notes" json:"notes,omitempty"`
	Status           BidStatus           `db:"status" json:"status"`
	AcceptedAt       *time.Time          `db:"accepted_at" json:"acceptedAt,omitempty"`
	RejectedAt       *time.Time          `db:"rejected_at" json:"rejectedAt,omitempty"`
	RejectionReason  *string             `db:"rejection_reason" json:"rejectionReason,omitempty"`
	CancelledAt      *time.Time          `db:"cancelled_at" json:"cancelledAt,omitempty"`
	CreatedAt        time.Time           `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time           `db:"updated_at" json:"updatedAt"`
}

// CostBreakdown is the optional itemisation a supplier attaches to a bid.
type CostBreakdown struct {
	Materials decimal.NullDecimal `json:"materials"`
	Labor     decimal.NullDecimal `json:"labor"`
	Other     decimal.NullDecimal `json:"other"`
}

// SetCosts copies c onto the bid columns.
func (b *Bid) SetCosts(c CostBreakdown) {
	b.MaterialsCost = c.Materials
	b.LaborCost = c.Labor
	b.OtherCosts = c.Other
}

// Сущность Заказа
type Order struct {
	ID                 int64           `db:"id" json:"id"`
	BidID              int64           `db:"bid_id" json:"bidId"`
	RequestID          int64           `db:"request_id" json:"requestId"`
	CustomerID         int64           `db:"customer_id" json:"customerId"`
	SupplierID         int64           `db:"supplier_id" json:"supplierId"`
	OrderNumber        string          `db:"order_number" json:"orderNumber"`
	TotalAmount        decimal.Decimal `db:"total_amount" json:"totalAmount"`
	Currency           string          `db:"currency" json:"currency"`
	CommissionRate     decimal.Decimal `db:"commission_rate" json:"commissionRate"`
	CommissionAmount   decimal.Decimal `db:"commission_amount" json:"commissionAmount"`
	Status             OrderStatus     `db:"status" json:"status"`
	DeliveryDate       *time.Time      `db:"delivery_date" json:"deliveryDate,omitempty"`
	ActualDeliveryDate *time.Time      `db:"actual_delivery_date" json:"actualDeliveryDate,omitempty"`
	CancellationReason *string         `db:"cancellation_reason" json:"cancellationReason,omitempty"`
	CreatedAt          time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updatedAt"`
}

// IsParty reports whether userID is the order's customer or supplier.
func (o *Order) IsParty(userID int64) bool {
	return o.CustomerID == userID || o.SupplierID == userID
}

// ChangeType distinguishes user-driven from system-driven status changes.
type ChangeType string

const (
	ChangeManual    ChangeType = "manual"
	ChangeAutomatic ChangeType = "automatic"
)

// StatusChange is one append-only history row for a request or an order.
type StatusChange struct {
	ID         int64      `db:"id" json:"id"`
	EntityID   int64      `db:"entity_id" json:"entityId"`
	OldStatus  string     `db:"old_status" json:"oldStatus"`
	NewStatus  string     `db:"new_status" json:"newStatus"`
	ChangedBy  int64      `db:"changed_by" json:"changedBy"`
	ChangeType ChangeType `db:"change_type" json:"changeType"`
	Reason     *string    `db:"reason" json:"reason,omitempty"`
	ChangedAt  time.Time  `db:"changed_at" json:"changedAt"`
}

// BidActionType names an entry of the bid action log.
type BidActionType string

const (
	BidActionCreated   BidActionType = "created"
	BidActionUpdated   BidActionType = "updated"
	BidActionAccepted  BidActionType = "accepted"
	BidActionRejected  BidActionType = "rejected"
	BidActionCancelled BidActionType = "cancelled"
	BidActionExpired   BidActionType = "expired"
)

// Журнал действий по предложению
type BidAction struct {
	ID        int64         `db:"id" json:"id"`
	BidID     int64         `db:"bid_id" json:"bidId"`
	ActorID   int64         `db:"actor_id" json:"actorId"`
	Action    BidActionType `db:"action" json:"action"`
	Reason    *string       `db:"reason" json:"reason,omitempty"`
	CreatedAt time.Time     `db:"created_at" json:"createdAt"`
}

// Заметка поставщика по заказу
type OrderUpdate struct {
	ID        int64       `db:"id" json:"id"`
	OrderID   int64       `db:"order_id" json:"orderId"`
	AuthorID  int64       `db:"author_id" json:"authorId"`
	Status    OrderStatus `db:"status" json:"status"`
	Message   string      `db:"message" json:"message"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`
}

// SystemActor is recorded as changed_by for automatic transitions with no human actor.
const SystemActor int64 = 0
