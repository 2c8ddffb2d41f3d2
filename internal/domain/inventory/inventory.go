// Package inventory implements stock-level adjustments for menu items.
package inventory

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/zorpido/pos/internal/domain/menu"
)

// Action enumerates the supported stock mutations.
type Action string

const (
	ActionAdd      Action = "add"
	ActionDecrease Action = "decrease"
	ActionSet      Action = "set"
)

// Validation errors. The messages are surfaced to POS terminals verbatim, so
// they are phrased for operators rather than for logs.
var (
	ErrInvalidAction     = errors.New("Invalid action")
	ErrNegativeQuantity  = errors.New("Quantity must be non-negative")
	ErrAddZero           = errors.New("Quantity to add must be greater than zero")
	ErrDecreaseZero      = errors.New("Quantity to decrease must be greater than zero")
	ErrDecreaseExceeds   = errors.New("Cannot decrease more than current stock")
	ErrInvalidAvail      = errors.New("Invalid availability value")
	ErrNegativeThreshold = errors.New("Low threshold must be non-negative")
	ErrNegativePrice     = errors.New("Price must be non-negative")
)

// Adjustment describes one stock update request. Optional fields are pointers;
// nil means "leave unchanged".
type Adjustment struct {
	Action        Action
	Quantity      int
	LowThreshold  *int
	Availability  menu.Availability // empty = unchanged
	Price         *decimal.Decimal
	PurchasePrice *decimal.Decimal
}

// Result reports the item state after a successful adjustment, in the shape
// the terminal needs to refresh its badges.
type Result struct {
	NewStock     int
	Availability menu.Availability
}

// Validate checks the adjustment without touching any item.
func (a Adjustment) Validate() error {
	switch a.Action {
	case ActionAdd:
		if a.Quantity <= 0 {
			return ErrAddZero
		}
	case ActionDecrease:
		if a.Quantity <= 0 {
			return ErrDecreaseZero
		}
	case ActionSet:
		if a.Quantity < 0 {
			return ErrNegativeQuantity
		}
	default:
		return ErrInvalidAction
	}
	if a.LowThreshold != nil && *a.LowThreshold < 0 {
		return ErrNegativeThreshold
	}
	if a.Availability != "" && !a.Availability.Valid() {
		return ErrInvalidAvail
	}
	if a.Price != nil && a.Price.IsNegative() {
		return ErrNegativePrice
	}
	if a.PurchasePrice != nil && a.PurchasePrice.IsNegative() {
		return ErrNegativePrice
	}
	return nil
}

// Apply mutates item according to the adjustment. It is a pure in-memory
// operation so it can be tested without storage.
func Apply(item *menu.Item, adj Adjustment) error {
	if err := adj.Validate(); err != nil {
		return err
	}

	switch adj.Action {
	case ActionAdd:
		item.IncreaseStock(adj.Quantity)
	case ActionDecrease:
		if adj.Quantity > item.StockQuantity {
			return ErrDecreaseExceeds
		}
		if !item.ReduceStock(adj.Quantity) {
			return ErrDecreaseExceeds
		}
	case ActionSet:
		item.StockQuantity = adj.Quantity
		if adj.Quantity > 0 && item.Availability == menu.OutOfStock {
			item.Availability = menu.Available
		}
		if adj.Quantity == 0 {
			item.Availability = menu.OutOfStock
		}
	}

	if adj.LowThreshold != nil {
		item.LowStockThreshold = *adj.LowThreshold
	}
	// Explicit availability override wins over the stock-derived flip.
	if adj.Availability != "" {
		item.Availability = adj.Availability
	}
	if adj.Price != nil {
		item.Price = *adj.Price
	}
	if adj.PurchasePrice != nil {
		item.PurchasePrice = *adj.PurchasePrice
	}
	return nil
}

// Service loads an item, applies an adjustment, and persists the result.
type Service struct {
	items menu.Repository
}

// NewService creates an inventory Service over the given menu repository.
func NewService(items menu.Repository) *Service {
	return &Service{items: items}
}

// Adjust performs a validated stock update for the item with the given ID.
func (s *Service) Adjust(ctx context.Context, itemID int64, adj Adjustment) (*Result, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if err := Apply(item, adj); err != nil {
		return nil, err
	}

	if err := s.items.Update(ctx, item); err != nil {
		return nil, errors.Wrapf(err, "update item %d", itemID)
	}

	return &Result{
		NewStock:     item.StockQuantity,
		Availability: item.Availability,
	}, nil
}
