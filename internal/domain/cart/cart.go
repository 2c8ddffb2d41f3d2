// Package cart holds the in-progress order for a POS terminal session.
//
// The cart is page-lifetime state: it exists only while an operator is
// composing an order and is discarded once the order is submitted. All
// mutations are synchronous; the cart is owned by a single terminal session
// and needs no internal locking.
package cart

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Line is a single cart entry, keyed by menu item ID.
type Line struct {
	ItemID    int64
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Total returns unit price times quantity for this line.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is an ordered list of lines with at most one line per item ID.
// Lines keep their insertion order; repeat additions bump the quantity of
// the existing line instead of appending a duplicate.
type Cart struct {
	lines    []Line
	onChange []func()
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// OnChange registers fn to run after every mutation. The terminal layer uses
// this to re-render the summary view and toggle the submit control without
// the cart knowing anything about views.
func (c *Cart) OnChange(fn func()) {
	c.onChange = append(c.onChange, fn)
}

func (c *Cart) notify() {
	for _, fn := range c.onChange {
		fn()
	}
}

// Add puts one unit of the given item into the cart. If a line with the same
// item ID already exists its quantity is incremented; the name and unit price
// of the first addition win.
func (c *Cart) Add(itemID int64, name string, unitPrice decimal.Decimal) {
	if i := c.index(itemID); i >= 0 {
		c.lines[i].Quantity++
		c.notify()
		return
	}
	c.lines = append(c.lines, Line{
		ItemID:    itemID,
		Name:      name,
		UnitPrice: unitPrice,
		Quantity:  1,
	})
	c.notify()
}

// UpdateQuantity adds delta to the line's quantity. A resulting quantity of
// zero or below removes the line. Unknown item IDs are a no-op.
func (c *Cart) UpdateQuantity(itemID int64, delta int) {
	i := c.index(itemID)
	if i < 0 {
		return
	}
	c.lines[i].Quantity += delta
	if c.lines[i].Quantity <= 0 {
		c.lines = slices.Delete(c.lines, i, i+1)
	}
	c.notify()
}

// Remove deletes the line with the given item ID, if present.
func (c *Cart) Remove(itemID int64) {
	i := c.index(itemID)
	if i < 0 {
		return
	}
	c.lines = slices.Delete(c.lines, i, i+1)
	c.notify()
}

// Clear empties the cart. User confirmation is the caller's responsibility.
func (c *Cart) Clear() {
	if len(c.lines) == 0 {
		return
	}
	c.lines = c.lines[:0]
	c.notify()
}

// Subtotal is the sum of unit price times quantity over all lines. There is
// no tax or discount at cart level, so subtotal equals total.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.lines {
		sum = sum.Add(l.Total())
	}
	return sum
}

// Lines returns a copy of the cart contents in insertion order.
func (c *Cart) Lines() []Line {
	return slices.Clone(c.lines)
}

// Quantity returns the quantity for the given item ID, or 0 when absent.
func (c *Cart) Quantity(itemID int64) int {
	if i := c.index(itemID); i >= 0 {
		return c.lines[i].Quantity
	}
	return 0
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int { return len(c.lines) }

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool { return len(c.lines) == 0 }

func (c *Cart) index(itemID int64) int {
	return slices.IndexFunc(c.lines, func(l Line) bool { return l.ItemID == itemID })
}
