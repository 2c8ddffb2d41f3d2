package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zorpido/pos/internal/domain/credit"
	"github.com/zorpido/pos/internal/domain/customer"
	"github.com/zorpido/pos/internal/domain/inventory"
	"github.com/zorpido/pos/internal/domain/menu"
	"github.com/zorpido/pos/internal/domain/order"
	"github.com/zorpido/pos/internal/domain/register"
)

// --- Mock implementations ---

type mockMenuRepo struct {
	byID map[int64]*menu.Item
}

func (m *mockMenuRepo) List(_ context.Context) ([]menu.Item, error) {
	var items []menu.Item
	for _, it := range m.byID {
		items = append(items, *it)
	}
	return items, nil
}

func (m *mockMenuRepo) GetByID(_ context.Context, id int64) (*menu.Item, error) {
	it, ok := m.byID[id]
	if !ok {
		return nil, menu.ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (m *mockMenuRepo) GetBySKU(_ context.Context, _ string) (*menu.Item, error) {
	return nil, menu.ErrNotFound
}

func (m *mockMenuRepo) Update(_ context.Context, item *menu.Item) error {
	cp := *item
	m.byID[item.ID] = &cp
	return nil
}

type mockOrderRepo struct {
	byID   map[int64]*order.Order
	nextID int64
}

func (m *mockOrderRepo) Create(_ context.Context, o *order.Order) error {
	o.ID = m.nextID
	m.nextID++
	cp := *o
	m.byID[o.ID] = &cp
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id int64) (*order.Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) Update(_ context.Context, o *order.Order) error {
	cp := *o
	m.byID[o.ID] = &cp
	return nil
}

func (m *mockOrderRepo) Delete(_ context.Context, id int64) error {
	delete(m.byID, id)
	return nil
}

type mockCustomerRepo struct {
	byID map[int64]*customer.Customer
}

func (m *mockCustomerRepo) GetByID(_ context.Context, id int64) (*customer.Customer, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, customer.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockCustomerRepo) List(_ context.Context) ([]customer.Customer, error) { return nil, nil }

func (m *mockCustomerRepo) UpdateCreditBalance(_ context.Context, id int64, balance decimal.Decimal) error {
	m.byID[id].CreditBalance = balance
	return nil
}

type mockLedger struct {
	saved []credit.Transaction
}

func (m *mockLedger) SaveTransaction(_ context.Context, tx *credit.Transaction) error {
	m.saved = append(m.saved, *tx)
	return nil
}

func (m *mockLedger) History(_ context.Context, customerID int64, _ credit.HistoryFilter) ([]credit.Transaction, error) {
	var out []credit.Transaction
	for i := len(m.saved) - 1; i >= 0; i-- {
		if m.saved[i].CustomerID == customerID {
			out = append(out, m.saved[i])
		}
	}
	return out, nil
}

type mockRegisterRepo struct {
	active *register.Register
}

func (m *mockRegisterRepo) Open(_ context.Context, r *register.Register) error {
	r.ID = 1
	cp := *r
	m.active = &cp
	return nil
}

func (m *mockRegisterRepo) Active(_ context.Context) (*register.Register, error) {
	if m.active == nil || !m.active.IsOpen {
		return nil, register.ErrNoOpenRegister
	}
	cp := *m.active
	return &cp, nil
}

func (m *mockRegisterRepo) Update(_ context.Context, r *register.Register) error {
	cp := *r
	m.active = &cp
	return nil
}

// --- Helpers ---

type fixture struct {
	menu      *mockMenuRepo
	orders    *mockOrderRepo
	customers *mockCustomerRepo
	ledger    *mockLedger
	registers *mockRegisterRepo
	srv       *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		menu: &mockMenuRepo{byID: map[int64]*menu.Item{
			1: {
				ID: 1, SKU: "MOMO-01", Name: "Chicken Momo",
				Price: decimal.RequireFromString("150.00"),
				StockQuantity: 10, LowStockThreshold: 5,
				Availability: menu.Available,
			},
		}},
		orders: &mockOrderRepo{byID: make(map[int64]*order.Order), nextID: 1},
		customers: &mockCustomerRepo{byID: map[int64]*customer.Customer{
			7: {ID: 7, Name: "Asha", CreditBalance: decimal.RequireFromString("500.00")},
		}},
		ledger:    &mockLedger{},
		registers: &mockRegisterRepo{},
	}

	credits := credit.NewService(f.customers, f.ledger)
	orderSvc := order.NewService(f.orders, f.menu, f.customers, credits, nil)
	h := NewHandler(
		f.menu,
		inventory.NewService(f.menu),
		orderSvc,
		f.customers,
		credits,
		register.NewService(f.registers),
	)

	f.srv = httptest.NewServer(h.Routes())
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) openRegister(t *testing.T) {
	t.Helper()
	resp := f.post(t, "/pos/register/open/", `{"opening_balance": 1000}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func (f *fixture) post(t *testing.T, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(f.srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// assertAmount compares a decimal-as-string envelope field by value, so the
// stored exponent ("300" vs "300.00") does not matter.
func assertAmount(t *testing.T, want string, got any) {
	t.Helper()
	s, ok := got.(string)
	require.True(t, ok, "expected decimal string, got %T", got)
	assert.True(t, decimal.RequireFromString(want).Equal(decimal.RequireFromString(s)),
		"want %s, got %s", want, s)
}

// --- Tests ---

func TestCreateOrder_RequiresOpenRegister(t *testing.T) {
	f := newFixture(t)

	resp := f.post(t, "/pos/order/create/", `{"order_type":"dine_in","items":[{"item_id":1,"quantity":1}]}`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, false, env["success"])
	assert.Equal(t, "No open register. Please open a register first.", env["error"])
}

func TestCreateOrder_Success(t *testing.T) {
	f := newFixture(t)
	f.openRegister(t)

	resp := f.post(t, "/pos/order/create/", `{"order_type":"dine_in","items":[{"item_id":1,"quantity":2}]}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, true, env["success"])
	assert.Equal(t, float64(1), env["order_id"])
	assert.True(t, strings.HasPrefix(env["order_number"].(string), "ZRP"))
	assertAmount(t, "300", env["total"])

	left, _ := f.menu.GetByID(context.Background(), 1)
	assert.Equal(t, 8, left.StockQuantity)
}

func TestCreateOrder_EmptyItems(t *testing.T) {
	f := newFixture(t)
	f.openRegister(t)

	resp := f.post(t, "/pos/order/create/", `{"order_type":"dine_in","items":[]}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, false, env["success"])
	assert.Equal(t, "items required", env["error"])
}

func TestDeleteOrder_NotFound(t *testing.T) {
	f := newFixture(t)
	f.openRegister(t)

	resp := f.post(t, "/pos/order/99/delete/", ``)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, false, env["success"])
}

func TestDeleteOrder_RestoresStock(t *testing.T) {
	f := newFixture(t)
	f.openRegister(t)

	resp := f.post(t, "/pos/order/create/", `{"order_type":"takeaway","items":[{"item_id":1,"quantity":3}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = f.post(t, "/pos/order/1/delete/", ``)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, true, env["success"])

	left, _ := f.menu.GetByID(context.Background(), 1)
	assert.Equal(t, 10, left.StockQuantity)
}

func TestCompleteOrderPayment_CashRecordsSale(t *testing.T) {
	f := newFixture(t)
	f.openRegister(t)

	resp := f.post(t, "/pos/order/create/", `{"order_type":"dine_in","items":[{"item_id":1,"quantity":2}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = f.post(t, "/pos/order/1/payment/", `{"payment_method":"cash"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, true, env["success"])
	assertAmount(t, "300", env["paid_amount"])

	assert.True(t, decimal.RequireFromString("300").Equal(f.registers.active.CashTotal))
}

func TestCompleteOrderPayment_CreditInsufficient(t *testing.T) {
	f := newFixture(t)
	f.openRegister(t)
	f.customers.byID[7].CreditBalance = decimal.RequireFromString("100.00")

	resp := f.post(t, "/pos/order/create/", `{"customer_id":7,"order_type":"dine_in","items":[{"item_id":1,"quantity":2}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = f.post(t, "/pos/order/1/payment/", `{"payment_method":"credit"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, false, env["success"])
	assert.Equal(t, "Insufficient balance", env["error"])
}

func TestUpdateStock_Decrease(t *testing.T) {
	f := newFixture(t)
	f.openRegister(t)

	resp := f.post(t, "/pos/inventory/1/update/", `{"action":"decrease","quantity":7}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, true, env["success"])
	assert.Equal(t, float64(3), env["new_stock"])
	assert.Equal(t, "available", env["availability"])
	assert.Equal(t, "Available", env["availability_display"])
}

func TestUpdateStock_DecreaseExceeds(t *testing.T) {
	f := newFixture(t)
	f.openRegister(t)

	resp := f.post(t, "/pos/inventory/1/update/", `{"action":"decrease","quantity":99}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, false, env["success"])
	assert.Equal(t, "Cannot decrease more than current stock", env["error"])

	left, _ := f.menu.GetByID(context.Background(), 1)
	assert.Equal(t, 10, left.StockQuantity, "failed update leaves stock untouched")
}

func TestUpdateStock_SetZeroFlipsAvailability(t *testing.T) {
	f := newFixture(t)
	f.openRegister(t)

	resp := f.post(t, "/pos/inventory/1/update/", `{"action":"set","quantity":0}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, true, env["success"])
	assert.Equal(t, "out_of_stock", env["availability"])
}

func TestUpdateCredit_AddAndHistory(t *testing.T) {
	f := newFixture(t)
	f.openRegister(t)

	resp := f.post(t, "/pos/credit/7/update/", `{"action":"add","amount":250}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, true, env["success"])
	assertAmount(t, "750", env["new_balance"])

	histResp, err := http.Get(f.srv.URL + "/pos/credit/7/history/")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, histResp.StatusCode)
	hist := decodeEnvelope(t, histResp)
	assert.Equal(t, true, hist["success"])
	txs := hist["transactions"].([]any)
	require.Len(t, txs, 1)
	tx := txs[0].(map[string]any)
	assert.Equal(t, "add", tx["action"])
	assert.Equal(t, "Add", tx["action_display"])
	assertAmount(t, "750", tx["balance_after"])
}

func TestUpdateCredit_DeductInsufficient(t *testing.T) {
	f := newFixture(t)
	f.openRegister(t)

	resp := f.post(t, "/pos/credit/7/update/", `{"action":"deduct","amount":9999}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, false, env["success"])
	assert.Equal(t, "Insufficient balance", env["error"])
}

func TestUpdateCredit_UnknownCustomer(t *testing.T) {
	f := newFixture(t)
	f.openRegister(t)

	resp := f.post(t, "/pos/credit/404/update/", `{"action":"add","amount":10}`)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRegister_OpenTwice(t *testing.T) {
	f := newFixture(t)
	f.openRegister(t)

	resp := f.post(t, "/pos/register/open/", `{"opening_balance": 500}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, false, env["success"])
}

func TestRegister_CloseReportsTotals(t *testing.T) {
	f := newFixture(t)
	f.openRegister(t)

	resp := f.post(t, "/pos/order/create/", `{"order_type":"dine_in","items":[{"item_id":1,"quantity":1}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = f.post(t, "/pos/order/1/payment/", `{"payment_method":"cash"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = f.post(t, "/pos/register/close/", ``)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, true, env["success"])
	assertAmount(t, "150", env["cash_total"])
	assertAmount(t, "1150", env["closing_balance"])
}

func TestCreditHistory_DateFilterParsing(t *testing.T) {
	f := newFixture(t)
	f.openRegister(t)

	resp := f.post(t, "/pos/credit/7/update/", `{"action":"add","amount":100}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	day := time.Now().Format("2006-01-02")
	histResp, err := http.Get(f.srv.URL + "/pos/credit/7/history/?from=" + day + "&to=" + day)
	require.NoError(t, err)
	hist := decodeEnvelope(t, histResp)
	assert.Equal(t, true, hist["success"])
	assert.Len(t, hist["transactions"].([]any), 1)
}
