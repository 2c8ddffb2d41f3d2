package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/zorpido/pos/internal/domain/inventory"
	"github.com/zorpido/pos/internal/domain/menu"
)

type updateStockRequest struct {
	Action        string           `json:"action"`
	Quantity      int              `json:"quantity"`
	LowThreshold  *int             `json:"low_threshold"`
	Availability  string           `json:"availability"`
	Price         *decimal.Decimal `json:"price"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
}

type updateStockResponse struct {
	Success             bool   `json:"success"`
	NewStock            int    `json:"new_stock"`
	Availability        string `json:"availability"`
	AvailabilityDisplay string `json:"availability_display"`
}

// UpdateStock applies a stock adjustment to a menu item and reports the
// resulting count and availability.
func (h *Handler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	if !h.requireOpenRegister(w, r) {
		return
	}

	itemID, ok := pathID(w, r, "itemId")
	if !ok {
		return
	}

	var req updateStockRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.inventory.Adjust(r.Context(), itemID, inventory.Adjustment{
		Action:        inventory.Action(req.Action),
		Quantity:      req.Quantity,
		LowThreshold:  req.LowThreshold,
		Availability:  menu.Availability(req.Availability),
		Price:         req.Price,
		PurchasePrice: req.PurchasePrice,
	})
	if err != nil {
		h.writeInventoryError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updateStockResponse{
		Success:             true,
		NewStock:            res.NewStock,
		Availability:        string(res.Availability),
		AvailabilityDisplay: res.Availability.Display(),
	})
}

// writeInventoryError maps stock adjustment errors onto the response
// envelope. Validation failures keep HTTP 200 so terminals surface the
// message text instead of a generic network error.
func (h *Handler) writeInventoryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, menu.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, inventory.ErrInvalidAction),
		errors.Is(err, inventory.ErrNegativeQuantity),
		errors.Is(err, inventory.ErrAddZero),
		errors.Is(err, inventory.ErrDecreaseZero),
		errors.Is(err, inventory.ErrDecreaseExceeds),
		errors.Is(err, inventory.ErrInvalidAvail),
		errors.Is(err, inventory.ErrNegativeThreshold),
		errors.Is(err, inventory.ErrNegativePrice):
		writeError(w, http.StatusOK, err.Error())
	default:
		writeInternalError(w, r, err)
	}
}

type menuItemResponse struct {
	ID                int64           `json:"id"`
	SKU               string          `json:"sku"`
	Name              string          `json:"name"`
	Category          string          `json:"category"`
	Price             decimal.Decimal `json:"price"`
	StockQuantity     int             `json:"stock_quantity"`
	LowStockThreshold int             `json:"low_stock_threshold"`
	Availability      string          `json:"availability"`
}

type listMenuResponse struct {
	Success bool               `json:"success"`
	Items   []menuItemResponse `json:"items"`
}

// ListMenu returns the full menu with stock levels for the terminal's
// inventory board.
func (h *Handler) ListMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.menu.List(r.Context())
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	resp := listMenuResponse{Success: true, Items: make([]menuItemResponse, len(items))}
	for i, it := range items {
		resp.Items[i] = menuItemResponse{
			ID:                it.ID,
			SKU:               it.SKU,
			Name:              it.Name,
			Category:          it.Category,
			Price:             it.Price,
			StockQuantity:     it.StockQuantity,
			LowStockThreshold: it.LowStockThreshold,
			Availability:      string(it.Availability),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
