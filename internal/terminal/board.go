package terminal

import (
	"github.com/zorpido/pos/internal/domain/menu"
	"github.com/zorpido/pos/pkg/posclient"
)

// Badge is the displayed inventory state for one menu item. It is a
// transient, possibly-stale copy; the server owns the real counts and the
// badge is refreshed only from a successful mutation response.
type Badge struct {
	ItemID       int64
	Stock        int
	LowThreshold int
	Availability string
}

// Tier classifies the badge for coloring.
func (b Badge) Tier() menu.StockTier {
	return menu.Tier(b.Stock, b.LowThreshold)
}

// StockBoard holds the badges on the inventory screen, keyed by item ID.
type StockBoard struct {
	badges map[int64]Badge
}

// NewStockBoard creates a board seeded with the server-rendered badges.
func NewStockBoard(badges ...Badge) *StockBoard {
	board := &StockBoard{badges: make(map[int64]Badge, len(badges))}
	for _, b := range badges {
		board.badges[b.ItemID] = b
	}
	return board
}

// Badge returns the displayed state for an item.
func (s *StockBoard) Badge(itemID int64) (Badge, bool) {
	b, ok := s.badges[itemID]
	return b, ok
}

// Apply refreshes an item's badge from a successful stock-update response.
// The low threshold only changes when the update carried one.
func (s *StockBoard) Apply(itemID int64, state posclient.StockState, lowThreshold *int) {
	b, ok := s.badges[itemID]
	if !ok {
		b = Badge{ItemID: itemID}
	}
	b.Stock = state.NewStock
	b.Availability = state.Availability
	if lowThreshold != nil {
		b.LowThreshold = *lowThreshold
	}
	s.badges[itemID] = b
}
