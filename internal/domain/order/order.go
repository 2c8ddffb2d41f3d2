// Package order implements order creation, mutation, and payment completion
// for the POS.
package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type enumerates how an order is fulfilled.
type Type string

const (
	DineIn   Type = "dine_in"
	Takeaway Type = "takeaway"
	Delivery Type = "delivery"
)

// Valid reports whether t is a known order type.
func (t Type) Valid() bool {
	switch t {
	case DineIn, Takeaway, Delivery:
		return true
	}
	return false
}

// Status enumerates the order lifecycle states.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// PaymentMethod enumerates how a completed order was paid.
type PaymentMethod string

const (
	PayCash   PaymentMethod = "cash"
	PayQR     PaymentMethod = "qr"
	PayCredit PaymentMethod = "credit"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PayCash, PayQR, PayCredit:
		return true
	}
	return false
}

// deliveryFee is the flat fee added to delivery orders.
var deliveryFee = decimal.NewFromInt(50)

// Item is a priced order line. Name and unit price are frozen at order time
// so later menu edits do not rewrite history.
type Item struct {
	ID         int64           `json:"id"`
	MenuItemID int64           `json:"menu_item_id"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

// Order is a customer order with its pricing and payment state.
type Order struct {
	ID          int64
	OrderNumber string
	CustomerID  *int64
	Type        Type
	Status      Status
	Items       []Item

	Subtotal    decimal.Decimal
	Discount    decimal.Decimal
	DeliveryFee decimal.Decimal
	Total       decimal.Decimal

	PaymentMethod PaymentMethod
	PaymentStatus string
	PaidAmount    decimal.Decimal

	CreatedAt   time.Time
	CompletedAt *time.Time
}

// CalculateTotals recomputes subtotal, delivery fee, and total from the
// current items. Tax is not charged; total = subtotal + delivery fee -
// discount, quantized to 2 decimal places.
func (o *Order) CalculateTotals() {
	sum := decimal.Zero
	for i := range o.Items {
		o.Items[i].Subtotal = o.Items[i].UnitPrice.Mul(decimal.NewFromInt(int64(o.Items[i].Quantity)))
		sum = sum.Add(o.Items[i].Subtotal)
	}
	o.Subtotal = sum

	o.DeliveryFee = decimal.Zero
	if o.Type == Delivery {
		o.DeliveryFee = deliveryFee
	}

	o.Total = o.Subtotal.Add(o.DeliveryFee).Sub(o.Discount).Round(2)
	if o.Total.IsNegative() {
		o.Total = decimal.Zero
	}
}

// NewOrderNumber generates an order number of the form ZRP<yyyymmdd><6 hex>.
func NewOrderNumber(now time.Time) string {
	entropy := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:6]
	return fmt.Sprintf("ZRP%s%s", now.Format("20060102"), entropy)
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	Update(ctx context.Context, o *Order) error
	Delete(ctx context.Context, id int64) error
}
