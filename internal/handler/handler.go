// Package handler exposes the POS HTTP API. Every JSON response carries a
// success flag; application errors keep the envelope so terminals can show
// the server-provided message verbatim.
package handler

import (
	"net/http"

	"github.com/zorpido/pos/internal/domain/credit"
	"github.com/zorpido/pos/internal/domain/customer"
	"github.com/zorpido/pos/internal/domain/inventory"
	"github.com/zorpido/pos/internal/domain/menu"
	"github.com/zorpido/pos/internal/domain/order"
	"github.com/zorpido/pos/internal/domain/register"
)

// Handler serves the /pos/ endpoints, delegating business logic to the
// domain services.
type Handler struct {
	menu      menu.Repository
	inventory *inventory.Service
	orders    *order.Service
	customers customer.Repository
	credits   *credit.Service
	registers *register.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	menuRepo menu.Repository,
	inventorySvc *inventory.Service,
	orderSvc *order.Service,
	customers customer.Repository,
	creditSvc *credit.Service,
	registerSvc *register.Service,
) *Handler {
	return &Handler{
		menu:      menuRepo,
		inventory: inventorySvc,
		orders:    orderSvc,
		customers: customers,
		credits:   creditSvc,
		registers: registerSvc,
	}
}

// Routes returns the POS route table. Trailing slashes follow the paths the
// terminals were built against.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /pos/menu/", h.ListMenu)

	mux.HandleFunc("POST /pos/order/create/", h.CreateOrder)
	mux.HandleFunc("POST /pos/order/{id}/add-item/", h.AddOrderItem)
	mux.HandleFunc("POST /pos/order/{id}/delete/", h.DeleteOrder)
	mux.HandleFunc("POST /pos/order/{id}/payment/", h.CompleteOrderPayment)

	mux.HandleFunc("POST /pos/inventory/{itemId}/update/", h.UpdateStock)

	mux.HandleFunc("POST /pos/credit/{customerId}/update/", h.UpdateCredit)
	mux.HandleFunc("GET /pos/credit/{customerId}/history/", h.CreditHistory)

	mux.HandleFunc("POST /pos/register/open/", h.OpenRegister)
	mux.HandleFunc("POST /pos/register/close/", h.CloseRegister)

	return mux
}

// requireOpenRegister gates state-changing endpoints behind an open register
// shift. It writes the error envelope itself and reports whether the caller
// may proceed.
func (h *Handler) requireOpenRegister(w http.ResponseWriter, r *http.Request) bool {
	if err := h.registers.RequireOpen(r.Context()); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
