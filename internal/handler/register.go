package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/zorpido/pos/internal/domain/register"
)

type openRegisterRequest struct {
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

type registerResponse struct {
	Success        bool            `json:"success"`
	RegisterID     int64           `json:"register_id"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	CashTotal      decimal.Decimal `json:"cash_total"`
	CreditTotal    decimal.Decimal `json:"credit_total"`
	QRTotal        decimal.Decimal `json:"qr_total"`
}

// OpenRegister starts a new shift with the given opening cash balance.
func (h *Handler) OpenRegister(w http.ResponseWriter, r *http.Request) {
	var req openRegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	reg, err := h.registers.Open(r.Context(), req.OpeningBalance)
	if err != nil {
		if errors.Is(err, register.ErrAlreadyOpen) {
			writeError(w, http.StatusOK, err.Error())
			return
		}
		writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, registerResponse{
		Success:        true,
		RegisterID:     reg.ID,
		OpeningBalance: reg.OpeningBalance,
	})
}

// CloseRegister ends the current shift, reporting the per-method totals and
// the computed closing balance.
func (h *Handler) CloseRegister(w http.ResponseWriter, r *http.Request) {
	reg, err := h.registers.Close(r.Context())
	if err != nil {
		if errors.Is(err, register.ErrNoOpenRegister) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, registerResponse{
		Success:        true,
		RegisterID:     reg.ID,
		OpeningBalance: reg.OpeningBalance,
		ClosingBalance: reg.ClosingBalance,
		CashTotal:      reg.CashTotal,
		CreditTotal:    reg.CreditTotal,
		QRTotal:        reg.QRTotal,
	})
}
