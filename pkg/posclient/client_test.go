package posclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, WithCredentials(StaticCredentials("tok-123")))
	require.NoError(t, err)
	return c, srv
}

func TestCreateOrder_Success(t *testing.T) {
	var gotPath, gotToken string
	var gotBody map[string]any

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.Header.Get("X-CSRFToken")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"success":true,"order_id":42,"order_number":"ZRP20250901ABCDEF","total":"340.00"}`))
	})

	got, err := c.CreateOrder(context.Background(), CreateOrderRequest{
		OrderType: "dine_in",
		Items:     []OrderLine{{ItemID: 1, Quantity: 2}, {ItemID: 2, Quantity: 1}},
	})

	require.NoError(t, err)
	assert.Equal(t, "/pos/order/create/", gotPath)
	assert.Equal(t, "tok-123", gotToken)
	assert.Equal(t, "dine_in", gotBody["order_type"])
	assert.Len(t, gotBody["items"].([]any), 2)
	_, hasCustomer := gotBody["customer_id"]
	assert.False(t, hasCustomer, "nil customer id is omitted")

	assert.Equal(t, int64(42), got.OrderID)
	assert.Equal(t, "ZRP20250901ABCDEF", got.OrderNumber)
	assert.True(t, decimal.RequireFromString("340").Equal(got.Total))
}

func TestCreateOrder_ApplicationError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error":"items required"}`))
	})

	_, err := c.CreateOrder(context.Background(), CreateOrderRequest{OrderType: "dine_in"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "items required", apiErr.Message)
	assert.Equal(t, http.StatusOK, apiErr.StatusCode)
}

func TestDo_TransportError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>upstream down</html>"))
	})

	err := c.DeleteOrder(context.Background(), 1)

	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr), "malformed body is a transport error, not an APIError")
}

func TestUpdateStock_Success(t *testing.T) {
	var gotBody map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"success":true,"new_stock":3,"availability":"available","availability_display":"Available"}`))
	})

	low := 5
	got, err := c.UpdateStock(context.Background(), 7, StockUpdate{
		Action:       "decrease",
		Quantity:     2,
		LowThreshold: &low,
	})

	require.NoError(t, err)
	assert.Equal(t, "decrease", gotBody["action"])
	assert.Equal(t, float64(2), gotBody["quantity"])
	assert.Equal(t, float64(5), gotBody["low_threshold"])
	assert.Equal(t, 3, got.NewStock)
	assert.Equal(t, "Available", got.AvailabilityDisplay)
}

func TestUpdateStock_ServerRejects(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error":"Cannot decrease more than current stock"}`))
	})

	_, err := c.UpdateStock(context.Background(), 7, StockUpdate{Action: "decrease", Quantity: 99})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Cannot decrease more than current stock", apiErr.Message)
}

func TestUpdateCredit_Success(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"new_balance":"750.00"}`))
	})

	balance, err := c.UpdateCredit(context.Background(), 7, "add", decimal.RequireFromString("250"))

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("750").Equal(balance))
}

func TestCreditHistory_ParsesTransactions(t *testing.T) {
	var gotQuery url.Values
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Empty(t, r.Header.Get("X-CSRFToken"), "GET carries no token")
		w.Write([]byte(`{"success":true,"transactions":[
			{"created_at":"2025-09-01T10:00:00Z","action":"add","action_display":"Add","amount":"250.00","balance_after":"750.00","note":"Manual adjustment"},
			{"created_at":"2025-08-31T09:00:00Z","action":"deduct","action_display":"Deduct","amount":"100.00","balance_after":"500.00","note":""}
		]}`))
	})

	from := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	txs, err := c.CreditHistory(context.Background(), 7, &from, nil)

	require.NoError(t, err)
	assert.Equal(t, "2025-08-01", gotQuery.Get("from"))
	require.Len(t, txs, 2)
	assert.Equal(t, "Add", txs[0].ActionDisplay)
	assert.True(t, decimal.RequireFromString("750").Equal(txs[0].BalanceAfter))
	assert.Equal(t, "Manual adjustment", txs[0].Note)
}

func TestCookieCredentials_URLDecodesToken(t *testing.T) {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	base, err := url.Parse("http://pos.local")
	require.NoError(t, err)
	jar.SetCookies(base, []*http.Cookie{{Name: "csrftoken", Value: "abc%3D%3D"}})

	creds := NewCookieCredentials(jar, base)

	assert.Equal(t, "abc==", creds.CSRFToken())
}

func TestCookieCredentials_MissingCookie(t *testing.T) {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	base, err := url.Parse("http://pos.local")
	require.NoError(t, err)

	creds := NewCookieCredentials(jar, base)

	assert.Empty(t, creds.CSRFToken())
}
