// Package terminal holds the view-model behind the POS screens: the order
// cart with its submit latch, and the inventory board with client-side
// validation. All state is screen-lifetime only; the server owns the
// records.
package terminal

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/zorpido/pos/internal/domain/cart"
	"github.com/zorpido/pos/pkg/posclient"
)

// Client-side validation failures. These are raised before any network call
// and leave all local state untouched.
var (
	ErrEmptyCart        = errors.New("Cart is empty")
	ErrSubmitInFlight   = errors.New("Submission already in progress")
	ErrInvalidQuantity  = errors.New("Quantity must be a positive number")
	ErrExceedsDisplayed = errors.New("Cannot decrease more than current stock")
	ErrUnknownBadge     = errors.New("Unknown item")
)

// OrderSubmitter is the slice of the POS client the order-entry screen
// needs.
type OrderSubmitter interface {
	CreateOrder(ctx context.Context, req posclient.CreateOrderRequest) (*posclient.CreatedOrder, error)
}

// OrderEntry drives the order-entry screen: a cart plus the submit latch.
type OrderEntry struct {
	Cart    *cart.Cart
	control Control
	client  OrderSubmitter
}

// NewOrderEntry creates an order-entry screen backed by client.
func NewOrderEntry(client OrderSubmitter) *OrderEntry {
	return &OrderEntry{
		Cart:   cart.New(),
		client: client,
	}
}

// SubmitEnabled reports whether the submit control is interactive.
func (e *OrderEntry) SubmitEnabled() bool {
	return e.control.Enabled()
}

// Submit places an order from the current cart. An empty cart is rejected
// before any network call and the control's enabled state is unchanged. On
// failure the control is re-enabled and the error carries the server's
// message verbatim; on success the cart is cleared and the control stays
// latched for the navigation that follows.
func (e *OrderEntry) Submit(ctx context.Context, customerID *int64, orderType string) (*posclient.CreatedOrder, error) {
	if e.Cart.Empty() {
		return nil, ErrEmptyCart
	}
	if !e.control.Begin() {
		return nil, ErrSubmitInFlight
	}

	lines := e.Cart.Lines()
	items := make([]posclient.OrderLine, len(lines))
	for i, l := range lines {
		items[i] = posclient.OrderLine{ItemID: l.ItemID, Quantity: l.Quantity}
	}

	created, err := e.client.CreateOrder(ctx, posclient.CreateOrderRequest{
		CustomerID: customerID,
		OrderType:  orderType,
		Items:      items,
	})
	if err != nil {
		e.control.Fail()
		return nil, err
	}

	e.control.Succeed()
	e.Cart.Clear()
	return created, nil
}

// StockUpdater is the slice of the POS client the inventory screen needs.
type StockUpdater interface {
	UpdateStock(ctx context.Context, itemID int64, u posclient.StockUpdate) (*posclient.StockState, error)
}

// InventoryPanel drives the inventory screen: the stock board plus one
// update control.
type InventoryPanel struct {
	Board   *StockBoard
	control Control
	client  StockUpdater
}

// NewInventoryPanel creates an inventory screen over the given board.
func NewInventoryPanel(board *StockBoard, client StockUpdater) *InventoryPanel {
	return &InventoryPanel{Board: board, client: client}
}

// UpdateEnabled reports whether the update control is interactive.
func (p *InventoryPanel) UpdateEnabled() bool {
	return p.control.Enabled()
}

// SubmitUpdate validates the adjustment against the displayed badge, sends
// it, and on success refreshes the badge from the response. A decrease
// larger than the displayed stock is rejected before any network call; the
// displayed value may be stale, so the server re-validates against the real
// count. On any failure the badge is untouched and the control re-enabled.
func (p *InventoryPanel) SubmitUpdate(ctx context.Context, itemID int64, u posclient.StockUpdate) (Badge, error) {
	badge, ok := p.Board.Badge(itemID)
	if !ok {
		return Badge{}, ErrUnknownBadge
	}

	switch u.Action {
	case "add", "decrease":
		if u.Quantity <= 0 {
			return Badge{}, ErrInvalidQuantity
		}
	case "set":
		if u.Quantity < 0 {
			return Badge{}, ErrInvalidQuantity
		}
	}
	if u.Action == "decrease" && u.Quantity > badge.Stock {
		return Badge{}, ErrExceedsDisplayed
	}

	if !p.control.Begin() {
		return Badge{}, ErrSubmitInFlight
	}

	state, err := p.client.UpdateStock(ctx, itemID, u)
	if err != nil {
		p.control.Fail()
		return Badge{}, err
	}

	// The update control re-arms after each successful mutation; unlike
	// order submission there is no navigation away from the screen.
	p.control.Done()
	p.Board.Apply(itemID, *state, u.LowThreshold)

	updated, _ := p.Board.Badge(itemID)
	return updated, nil
}
