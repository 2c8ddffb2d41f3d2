package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/zorpido/pos/internal/domain/credit"
	"github.com/zorpido/pos/internal/domain/customer"
	"github.com/zorpido/pos/internal/domain/menu"
)

// Sentinel errors for order validation. Messages are surfaced to POS
// terminals verbatim.
var (
	ErrEmptyItems       = errors.New("items required")
	ErrNotFound         = errors.New("Order not found")
	ErrNotPending       = errors.New("Only pending orders can be modified")
	ErrAlreadyCompleted = errors.New("Order already completed")
	ErrInvalidType      = errors.New("Invalid order type")
	ErrInvalidPayment   = errors.New("Invalid payment method")
	ErrCreditNoCustomer = errors.New("Credit payment requires a customer")
)

// ItemNotFoundError indicates a requested menu item does not exist.
type ItemNotFoundError struct {
	ItemID int64
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("menu item %d not found", e.ItemID)
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ItemID int64
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for item %d", e.ItemID)
}

// LineInput is one requested order line. Only the item ID and quantity are
// trusted from the terminal; pricing always comes from the menu.
type LineInput struct {
	ItemID   int64
	Quantity int
}

// CreateRequest holds the input for creating an order.
type CreateRequest struct {
	CustomerID *int64
	Type       Type
	Items      []LineInput
}

// EventPublisher emits order lifecycle events. Implementations must be safe
// for concurrent use; failures are logged and never fail the order.
type EventPublisher interface {
	OrderCreated(ctx context.Context, o *Order) error
	OrderCompleted(ctx context.Context, o *Order) error
}

// Service encapsulates order business logic.
type Service struct {
	orders    Repository
	items     menu.Repository
	customers customer.Repository
	credits   *credit.Service
	events    EventPublisher // nil disables event publishing
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	orders Repository,
	items menu.Repository,
	customers customer.Repository,
	credits *credit.Service,
	events EventPublisher,
) *Service {
	return &Service{
		orders:    orders,
		items:     items,
		customers: customers,
		credits:   credits,
		events:    events,
	}
}

// Create validates the request, prices the lines from the menu, reduces
// stock, persists the order, and emits an order-created event.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	if !req.Type.Valid() {
		return nil, ErrInvalidType
	}

	if req.CustomerID != nil {
		if _, err := s.customers.GetByID(ctx, *req.CustomerID); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	o := &Order{
		OrderNumber: NewOrderNumber(now),
		CustomerID:  req.CustomerID,
		Type:        req.Type,
		Status:      StatusPending,
		CreatedAt:   now,
	}

	// Price every line before touching stock so a bad line cannot leave
	// earlier reductions behind.
	for _, in := range req.Items {
		if in.Quantity <= 0 {
			return nil, &InvalidQuantityError{ItemID: in.ItemID}
		}

		item, err := s.items.GetByID(ctx, in.ItemID)
		if err != nil {
			if errors.Is(err, menu.ErrNotFound) {
				return nil, &ItemNotFoundError{ItemID: in.ItemID}
			}
			return nil, errors.Wrapf(err, "get item %d", in.ItemID)
		}

		o.Items = append(o.Items, Item{
			MenuItemID: item.ID,
			Name:       item.Name,
			UnitPrice:  item.Price,
			Quantity:   in.Quantity,
		})
	}

	o.CalculateTotals()

	var reduced []Item
	for _, line := range o.Items {
		item, err := s.items.GetByID(ctx, line.MenuItemID)
		if err != nil {
			s.restoreStock(ctx, reduced)
			return nil, errors.Wrapf(err, "get item %d", line.MenuItemID)
		}
		s.reduceStock(ctx, item, line.Quantity)
		reduced = append(reduced, line)
	}

	if err := s.orders.Create(ctx, o); err != nil {
		s.restoreStock(ctx, o.Items)
		return nil, errors.Wrap(err, "create order")
	}

	s.publish(ctx, "order created", func(p EventPublisher) error {
		return p.OrderCreated(ctx, o)
	})

	return o, nil
}

// AddItem appends a line to a pending order (or bumps the quantity of an
// existing line for the same menu item) and re-prices the order.
func (s *Service) AddItem(ctx context.Context, orderID, itemID int64, quantity int) (*Order, error) {
	if quantity <= 0 {
		return nil, &InvalidQuantityError{ItemID: itemID}
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusPending {
		return nil, ErrNotPending
	}

	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, menu.ErrNotFound) {
			return nil, &ItemNotFoundError{ItemID: itemID}
		}
		return nil, errors.Wrapf(err, "get item %d", itemID)
	}

	merged := false
	for i := range o.Items {
		if o.Items[i].MenuItemID == itemID {
			o.Items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		o.Items = append(o.Items, Item{
			MenuItemID: item.ID,
			Name:       item.Name,
			UnitPrice:  item.Price,
			Quantity:   quantity,
		})
	}

	s.reduceStock(ctx, item, quantity)
	o.CalculateTotals()

	if err := s.orders.Update(ctx, o); err != nil {
		return nil, errors.Wrap(err, "update order")
	}
	return o, nil
}

// Delete removes an order and returns its line quantities to stock.
func (s *Service) Delete(ctx context.Context, orderID int64) error {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if o.Status == StatusCompleted {
		return ErrAlreadyCompleted
	}

	s.restoreStock(ctx, o.Items)

	return s.orders.Delete(ctx, orderID)
}

// Complete settles payment for the order. Credit payments are charged against
// the customer's balance and recorded in the credit ledger.
func (s *Service) Complete(ctx context.Context, orderID int64, method PaymentMethod, paidAmount decimal.Decimal) (*Order, error) {
	if !method.Valid() {
		return nil, ErrInvalidPayment
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status == StatusCompleted {
		return nil, ErrAlreadyCompleted
	}

	if paidAmount.IsZero() {
		paidAmount = o.Total
	}

	if method == PayCredit {
		if o.CustomerID == nil {
			return nil, ErrCreditNoCustomer
		}
		note := fmt.Sprintf("Order #%s paid via credit", o.OrderNumber)
		if _, err := s.credits.Charge(ctx, *o.CustomerID, paidAmount, note); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	o.Status = StatusCompleted
	o.PaymentMethod = method
	o.PaymentStatus = "completed"
	o.PaidAmount = paidAmount
	o.CompletedAt = &now

	if err := s.orders.Update(ctx, o); err != nil {
		return nil, errors.Wrap(err, "update order")
	}

	s.publish(ctx, "order completed", func(p EventPublisher) error {
		return p.OrderCompleted(ctx, o)
	})

	return o, nil
}

// restoreStock returns line quantities to the shelf. An item missing from
// the menu since the order was priced has nothing to restore.
func (s *Service) restoreStock(ctx context.Context, lines []Item) {
	for _, line := range lines {
		item, err := s.items.GetByID(ctx, line.MenuItemID)
		if err != nil {
			zctx.From(ctx).Warn("restore stock: item missing",
				zap.Int64("item_id", line.MenuItemID), zap.Error(err))
			continue
		}
		item.IncreaseStock(line.Quantity)
		if err := s.items.Update(ctx, item); err != nil {
			zctx.From(ctx).Warn("restore stock failed",
				zap.Int64("item_id", line.MenuItemID), zap.Error(err))
		}
	}
}

// reduceStock lowers the item's stock for a sold quantity. Overselling is
// tolerated: the count clamps at zero and the sale proceeds, matching how the
// floor actually operates when the displayed count has drifted.
func (s *Service) reduceStock(ctx context.Context, item *menu.Item, quantity int) {
	if !item.ReduceStock(quantity) {
		item.StockQuantity = 0
		item.Availability = menu.OutOfStock
	}
	if err := s.items.Update(ctx, item); err != nil {
		zctx.From(ctx).Warn("reduce stock failed",
			zap.Int64("item_id", item.ID), zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, what string, fn func(EventPublisher) error) {
	if s.events == nil {
		return
	}
	if err := fn(s.events); err != nil {
		zctx.From(ctx).Warn("publish event failed",
			zap.String("event", what), zap.Error(err))
	}
}
