package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/zorpido/pos/internal/domain/credit"
	"github.com/zorpido/pos/internal/domain/customer"
)

type updateCreditRequest struct {
	Action string          `json:"action"`
	Amount decimal.Decimal `json:"amount"`
}

type updateCreditResponse struct {
	Success    bool            `json:"success"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

// UpdateCredit adds to or deducts from a customer's credit balance and
// appends a ledger entry.
func (h *Handler) UpdateCredit(w http.ResponseWriter, r *http.Request) {
	if !h.requireOpenRegister(w, r) {
		return
	}

	customerID, ok := pathID(w, r, "customerId")
	if !ok {
		return
	}

	var req updateCreditRequest
	if !decodeBody(w, r, &req) {
		return
	}

	balance, err := h.credits.Update(r.Context(), customerID, credit.Action(req.Action), req.Amount)
	if err != nil {
		h.writeCreditError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updateCreditResponse{Success: true, NewBalance: balance})
}

type transactionResponse struct {
	CreatedAt     time.Time       `json:"created_at"`
	Action        string          `json:"action"`
	ActionDisplay string          `json:"action_display"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Note          string          `json:"note"`
}

type creditHistoryResponse struct {
	Success      bool                  `json:"success"`
	Transactions []transactionResponse `json:"transactions"`
}

// CreditHistory returns the customer's ledger, newest first. Optional from
// and to query parameters bound the range by date (inclusive).
func (h *Handler) CreditHistory(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathID(w, r, "customerId")
	if !ok {
		return
	}

	var f credit.HistoryFilter
	q := r.URL.Query()
	if from, ok := parseDate(q.Get("from")); ok {
		f.From = &from
	}
	if to, ok := parseDate(q.Get("to")); ok {
		end := to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		f.To = &end
	}

	txs, err := h.credits.History(r.Context(), customerID, f)
	if err != nil {
		h.writeCreditError(w, r, err)
		return
	}

	resp := creditHistoryResponse{
		Success:      true,
		Transactions: make([]transactionResponse, len(txs)),
	}
	for i, tx := range txs {
		resp.Transactions[i] = transactionResponse{
			CreatedAt:     tx.CreatedAt,
			Action:        string(tx.Action),
			ActionDisplay: tx.Action.Display(),
			Amount:        tx.Amount,
			BalanceAfter:  tx.BalanceAfter,
			Note:          tx.Note,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeCreditError maps credit domain errors onto the response envelope.
func (h *Handler) writeCreditError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, customer.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, credit.ErrInvalidAction),
		errors.Is(err, credit.ErrAmountNotPositive),
		errors.Is(err, credit.ErrInsufficientBalance):
		writeError(w, http.StatusOK, err.Error())
	default:
		writeInternalError(w, r, err)
	}
}

// parseDate accepts the YYYY-MM-DD values the history date pickers send.
func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
