package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/zorpido/pos/internal/domain/credit"
	"github.com/zorpido/pos/internal/domain/customer"
	"github.com/zorpido/pos/internal/domain/order"
)

type createOrderRequest struct {
	CustomerID *int64 `json:"customer_id"`
	OrderType  string `json:"order_type"`
	Items      []struct {
		ItemID   int64 `json:"item_id"`
		Quantity int   `json:"quantity"`
	} `json:"items"`
}

type createOrderResponse struct {
	Success     bool            `json:"success"`
	OrderID     int64           `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	Total       decimal.Decimal `json:"total"`
}

// CreateOrder places a new order from the terminal's cart contents. Prices
// come from the menu, never from the request.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	if !h.requireOpenRegister(w, r) {
		return
	}

	var req createOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	lines := make([]order.LineInput, len(req.Items))
	for i, it := range req.Items {
		lines[i] = order.LineInput{ItemID: it.ItemID, Quantity: it.Quantity}
	}

	o, err := h.orders.Create(r.Context(), order.CreateRequest{
		CustomerID: req.CustomerID,
		Type:       order.Type(req.OrderType),
		Items:      lines,
	})
	if err != nil {
		h.writeOrderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, createOrderResponse{
		Success:     true,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Total:       o.Total,
	})
}

type addItemRequest struct {
	ItemID   int64 `json:"item_id"`
	Quantity int   `json:"quantity"`
}

type orderTotalResponse struct {
	Success bool            `json:"success"`
	Total   decimal.Decimal `json:"total"`
}

// AddOrderItem appends a line to a pending order, merging with an existing
// line for the same menu item.
func (h *Handler) AddOrderItem(w http.ResponseWriter, r *http.Request) {
	if !h.requireOpenRegister(w, r) {
		return
	}

	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req addItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	o, err := h.orders.AddItem(r.Context(), orderID, req.ItemID, req.Quantity)
	if err != nil {
		h.writeOrderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, orderTotalResponse{Success: true, Total: o.Total})
}

type successResponse struct {
	Success bool `json:"success"`
}

// DeleteOrder cancels a pending order and returns its quantities to stock.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if !h.requireOpenRegister(w, r) {
		return
	}

	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.orders.Delete(r.Context(), orderID); err != nil {
		h.writeOrderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

type paymentRequest struct {
	PaymentMethod string          `json:"payment_method"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
}

type paymentResponse struct {
	Success     bool            `json:"success"`
	OrderNumber string          `json:"order_number"`
	Total       decimal.Decimal `json:"total"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
}

// CompleteOrderPayment settles a pending order. Credit payments are charged
// to the customer's balance; the sale is recorded on the open register.
func (h *Handler) CompleteOrderPayment(w http.ResponseWriter, r *http.Request) {
	if !h.requireOpenRegister(w, r) {
		return
	}

	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req paymentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	o, err := h.orders.Complete(r.Context(), orderID, order.PaymentMethod(req.PaymentMethod), req.PaidAmount)
	if err != nil {
		h.writeOrderError(w, r, err)
		return
	}

	if err := h.registers.RecordSale(r.Context(), o.PaymentMethod, o.PaidAmount); err != nil {
		// The payment itself is committed; the shift totals drift until the
		// register is reconciled manually.
		zctx.From(r.Context()).Warn("record sale on register failed",
			zap.Int64("order_id", o.ID), zap.Error(err))
	}

	writeJSON(w, http.StatusOK, paymentResponse{
		Success:     true,
		OrderNumber: o.OrderNumber,
		Total:       o.Total,
		PaidAmount:  o.PaidAmount,
	})
}

// writeOrderError maps order domain errors onto the response envelope.
func (h *Handler) writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrEmptyItems),
		errors.Is(err, order.ErrInvalidType),
		errors.Is(err, order.ErrInvalidPayment),
		errors.Is(err, order.ErrNotPending),
		errors.Is(err, order.ErrAlreadyCompleted),
		errors.Is(err, order.ErrCreditNoCustomer),
		errors.Is(err, credit.ErrInsufficientBalance),
		errors.Is(err, customer.ErrNotFound):
		writeError(w, http.StatusOK, err.Error())
	default:
		var (
			iqErr *order.InvalidQuantityError
			nfErr *order.ItemNotFoundError
		)
		if errors.As(err, &iqErr) || errors.As(err, &nfErr) {
			writeError(w, http.StatusOK, err.Error())
			return
		}
		writeInternalError(w, r, err)
	}
}

// pathID parses a positive integer path segment. A false return means the
// error envelope has already been written.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, "Invalid identifier")
		return 0, false
	}
	return id, true
}
