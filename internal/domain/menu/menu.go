// Package menu defines the menu catalog: items, availability, and stock tiers.
package menu

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested menu item does not exist.
var ErrNotFound = errors.New("menu item not found")

// Availability enumerates the selling states of a menu item.
type Availability string

const (
	Available  Availability = "available"
	OutOfStock Availability = "out_of_stock"
	ComingSoon Availability = "coming_soon"
)

// Valid reports whether a is one of the known availability values.
func (a Availability) Valid() bool {
	switch a {
	case Available, OutOfStock, ComingSoon:
		return true
	}
	return false
}

// Display returns the human-readable label shown on availability badges.
func (a Availability) Display() string {
	switch a {
	case Available:
		return "Available"
	case OutOfStock:
		return "Out of Stock"
	case ComingSoon:
		return "Coming Soon"
	}
	return string(a)
}

// StockTier classifies a stock count for badge coloring.
type StockTier string

const (
	TierOutOfStock StockTier = "out_of_stock" // count <= 0
	TierLow        StockTier = "low"          // count <= low threshold
	TierHealthy    StockTier = "healthy"
)

// Tier returns the badge tier for a stock count against a low threshold.
func Tier(stock, lowThreshold int) StockTier {
	switch {
	case stock <= 0:
		return TierOutOfStock
	case stock <= lowThreshold:
		return TierLow
	default:
		return TierHealthy
	}
}

// Item is a sellable menu entry with its inventory state.
type Item struct {
	ID                int64
	SKU               string
	Name              string
	Category          string
	Price             decimal.Decimal
	PurchasePrice     decimal.Decimal
	StockQuantity     int
	LowStockThreshold int
	Availability      Availability
}

// LowStock reports whether the item is at or below its low stock threshold.
func (i *Item) LowStock() bool {
	return i.StockQuantity <= i.LowStockThreshold
}

// InStock reports whether the item can currently be sold.
func (i *Item) InStock() bool {
	return i.StockQuantity > 0 && i.Availability == Available
}

// ReduceStock subtracts qty from the item's stock. Hitting zero flips
// availability to out of stock. It returns false when stock is insufficient.
func (i *Item) ReduceStock(qty int) bool {
	if i.StockQuantity < qty {
		return false
	}
	i.StockQuantity -= qty
	if i.StockQuantity == 0 {
		i.Availability = OutOfStock
	}
	return true
}

// IncreaseStock adds qty to the item's stock and restores availability when
// the item was marked out of stock.
func (i *Item) IncreaseStock(qty int) {
	i.StockQuantity += qty
	if i.Availability == OutOfStock && i.StockQuantity > 0 {
		i.Availability = Available
	}
}

// Repository defines persistence operations for menu items.
type Repository interface {
	List(ctx context.Context) ([]Item, error)
	GetByID(ctx context.Context, id int64) (*Item, error)
	GetBySKU(ctx context.Context, sku string) (*Item, error)
	Update(ctx context.Context, item *Item) error
}
