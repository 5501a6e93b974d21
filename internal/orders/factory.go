package orders

import (
	"fmt"
	"time"

	"bidmarket/models"

	"github.com/shopspring/decimal"
)

// Commission is max(price*rate, minFee) rounded half away from zero to cents.
func Commission(price, rate, minFee decimal.Decimal) decimal.Decimal {
	c := price.Mul(rate)
	if c.LessThan(minFee) {
		c = minFee
	}
	return c.Round(2)
}

// OrderNumber formats ORD-YYYYMMDD-NNNNNN from the UTC creation date and the
// bid id. Bid ids above six digits are printed in full.
func OrderNumber(createdAt time.Time, bidID int64) string {
	return fmt.Sprintf("ORD-%s-%06d", createdAt.UTC().Format("20060102"), bidID)
}

// CreateFromBid builds the confirmed order for an accepted bid. It does not
// touch storage.
func CreateFromBid(bid *models.Bid, req *models.Request, rate, minFee decimal.Decimal, now time.Time) *models.Order {
	now = now.UTC()
	delivery := now.AddDate(0, 0, bid.DeliveryTimeDays)
	return &models.Order{
		BidID:            bid.ID,
		RequestID:        req.ID,
		CustomerID:       req.CustomerID,
		SupplierID:       bid.SupplierID,
		OrderNumber:      OrderNumber(now, bid.ID),
		TotalAmount:      bid.Price,
		Currency:         req.Currency,
		CommissionRate:   rate,
		CommissionAmount: Commission(bid.Price, rate, minFee),
		Status:           models.OrderConfirmed,
		DeliveryDate:     &delivery,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}
