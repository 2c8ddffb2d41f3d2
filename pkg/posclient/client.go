// Package posclient is the Go client for the POS HTTP API. It performs
// one-shot request/response calls; there is no queuing, retry, or backoff,
// matching how the terminals drive the server.
package posclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// maxResponseSize bounds response bodies read into memory.
const maxResponseSize = 4 << 20

// APIError is an application-level failure: the server answered with a
// well-formed envelope carrying success=false. The message is the server's
// text, surfaced verbatim to the operator.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string { return e.Message }

// Client talks to the /pos/ endpoints. All state-changing calls carry the
// anti-forgery token from the configured CredentialProvider.
type Client struct {
	base  *url.URL
	httpc *http.Client
	creds CredentialProvider
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpc = hc }
}

// WithCredentials sets the anti-forgery token source.
func WithCredentials(p CredentialProvider) Option {
	return func(c *Client) { c.creds = p }
}

// New creates a Client for the POS server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base URL")
	}

	c := &Client{
		base:  base,
		httpc: http.DefaultClient,
		creds: StaticCredentials(""),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// OrderLine is one cart line submitted with an order.
type OrderLine struct {
	ItemID   int64
	Quantity int
}

// CreateOrderRequest carries the full cart contents for order creation.
type CreateOrderRequest struct {
	CustomerID *int64
	OrderType  string
	Items      []OrderLine
}

// CreatedOrder identifies a successfully placed order.
type CreatedOrder struct {
	OrderID     int64
	OrderNumber string
	Total       decimal.Decimal
}

// CreateOrder places a new order from the cart contents.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreatedOrder, error) {
	var e jx.Encoder
	e.ObjStart()
	if req.CustomerID != nil {
		e.FieldStart("customer_id")
		e.Int64(*req.CustomerID)
	}
	e.FieldStart("order_type")
	e.Str(req.OrderType)
	e.FieldStart("items")
	e.ArrStart()
	for _, it := range req.Items {
		e.ObjStart()
		e.FieldStart("item_id")
		e.Int64(it.ItemID)
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()

	data, err := c.do(ctx, http.MethodPost, "/pos/order/create/", e.Bytes())
	if err != nil {
		return nil, err
	}

	var out CreatedOrder
	err = jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "order_id":
			v, err := d.Int64()
			out.OrderID = v
			return err
		case "order_number":
			v, err := d.Str()
			out.OrderNumber = v
			return err
		case "total":
			v, err := decodeDecimal(d)
			out.Total = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode create order response")
	}
	return &out, nil
}

// AddOrderItem appends quantity of a menu item to a pending order and
// returns the updated order total.
func (c *Client) AddOrderItem(ctx context.Context, orderID, itemID int64, quantity int) (decimal.Decimal, error) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("item_id")
	e.Int64(itemID)
	e.FieldStart("quantity")
	e.Int(quantity)
	e.ObjEnd()

	data, err := c.do(ctx, http.MethodPost, orderPath(orderID, "add-item"), e.Bytes())
	if err != nil {
		return decimal.Zero, err
	}

	var total decimal.Decimal
	err = jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		if key != "total" {
			return d.Skip()
		}
		v, err := decodeDecimal(d)
		total = v
		return err
	})
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "decode add item response")
	}
	return total, nil
}

// DeleteOrder cancels a pending order; the server returns its quantities to
// stock.
func (c *Client) DeleteOrder(ctx context.Context, orderID int64) error {
	_, err := c.do(ctx, http.MethodPost, orderPath(orderID, "delete"), nil)
	return err
}

// PaymentResult reports a settled order.
type PaymentResult struct {
	OrderNumber string
	Total       decimal.Decimal
	PaidAmount  decimal.Decimal
}

// CompleteOrderPayment settles a pending order with the given payment
// method. A zero paidAmount lets the server default it to the order total.
func (c *Client) CompleteOrderPayment(ctx context.Context, orderID int64, method string, paidAmount decimal.Decimal) (*PaymentResult, error) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("payment_method")
	e.Str(method)
	e.FieldStart("paid_amount")
	e.Str(paidAmount.String())
	e.ObjEnd()

	data, err := c.do(ctx, http.MethodPost, orderPath(orderID, "payment"), e.Bytes())
	if err != nil {
		return nil, err
	}

	var out PaymentResult
	err = jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "order_number":
			v, err := d.Str()
			out.OrderNumber = v
			return err
		case "total":
			v, err := decodeDecimal(d)
			out.Total = v
			return err
		case "paid_amount":
			v, err := decodeDecimal(d)
			out.PaidAmount = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode payment response")
	}
	return &out, nil
}

// StockUpdate is a stock adjustment request. Optional fields stay unchanged
// on the server when nil or empty.
type StockUpdate struct {
	Action        string
	Quantity      int
	LowThreshold  *int
	Availability  string
	Price         *decimal.Decimal
	PurchasePrice *decimal.Decimal
}

// StockState is the server's post-adjustment item state, in the shape the
// badges need.
type StockState struct {
	NewStock            int
	Availability        string
	AvailabilityDisplay string
}

// UpdateStock applies a stock adjustment to a menu item.
func (c *Client) UpdateStock(ctx context.Context, itemID int64, u StockUpdate) (*StockState, error) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("action")
	e.Str(u.Action)
	e.FieldStart("quantity")
	e.Int(u.Quantity)
	if u.LowThreshold != nil {
		e.FieldStart("low_threshold")
		e.Int(*u.LowThreshold)
	}
	if u.Availability != "" {
		e.FieldStart("availability")
		e.Str(u.Availability)
	}
	if u.Price != nil {
		e.FieldStart("price")
		e.Str(u.Price.String())
	}
	if u.PurchasePrice != nil {
		e.FieldStart("purchase_price")
		e.Str(u.PurchasePrice.String())
	}
	e.ObjEnd()

	path := fmt.Sprintf("/pos/inventory/%d/update/", itemID)
	data, err := c.do(ctx, http.MethodPost, path, e.Bytes())
	if err != nil {
		return nil, err
	}

	var out StockState
	err = jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "new_stock":
			v, err := d.Int()
			out.NewStock = v
			return err
		case "availability":
			v, err := d.Str()
			out.Availability = v
			return err
		case "availability_display":
			v, err := d.Str()
			out.AvailabilityDisplay = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode stock update response")
	}
	return &out, nil
}

// UpdateCredit adds to or deducts from a customer's credit balance and
// returns the new balance.
func (c *Client) UpdateCredit(ctx context.Context, customerID int64, action string, amount decimal.Decimal) (decimal.Decimal, error) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("action")
	e.Str(action)
	e.FieldStart("amount")
	e.Str(amount.String())
	e.ObjEnd()

	path := fmt.Sprintf("/pos/credit/%d/update/", customerID)
	data, err := c.do(ctx, http.MethodPost, path, e.Bytes())
	if err != nil {
		return decimal.Zero, err
	}

	var balance decimal.Decimal
	err = jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		if key != "new_balance" {
			return d.Skip()
		}
		v, err := decodeDecimal(d)
		balance = v
		return err
	})
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "decode credit update response")
	}
	return balance, nil
}

// Transaction is one credit ledger entry as returned by the history
// endpoint.
type Transaction struct {
	CreatedAt     time.Time
	Action        string
	ActionDisplay string
	Amount        decimal.Decimal
	BalanceAfter  decimal.Decimal
	Note          string
}

// CreditHistory returns the customer's ledger entries, newest first,
// optionally bounded by from and to dates (inclusive).
func (c *Client) CreditHistory(ctx context.Context, customerID int64, from, to *time.Time) ([]Transaction, error) {
	q := url.Values{}
	if from != nil {
		q.Set("from", from.Format("2006-01-02"))
	}
	if to != nil {
		q.Set("to", to.Format("2006-01-02"))
	}

	path := fmt.Sprintf("/pos/credit/%d/history/", customerID)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var txs []Transaction
	err = jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		if key != "transactions" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			tx, err := decodeTransaction(d)
			if err != nil {
				return err
			}
			txs = append(txs, tx)
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode credit history response")
	}
	return txs, nil
}

func decodeTransaction(d *jx.Decoder) (Transaction, error) {
	var tx Transaction
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "created_at":
			s, err := d.Str()
			if err != nil {
				return err
			}
			t, err := time.Parse(time.RFC3339, s)
			tx.CreatedAt = t
			return err
		case "action":
			v, err := d.Str()
			tx.Action = v
			return err
		case "action_display":
			v, err := d.Str()
			tx.ActionDisplay = v
			return err
		case "amount":
			v, err := decodeDecimal(d)
			tx.Amount = v
			return err
		case "balance_after":
			v, err := decodeDecimal(d)
			tx.BalanceAfter = v
			return err
		case "note":
			v, err := d.Str()
			tx.Note = v
			return err
		default:
			return d.Skip()
		}
	})
	return tx, err
}

// decodeDecimal accepts both string-quoted and bare-number decimal fields.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(n.String())
	default:
		return decimal.Zero, errors.Errorf("unexpected decimal token %v", d.Next())
	}
}

// do sends one request and verifies the response envelope. A success=false
// envelope becomes an *APIError; anything that prevents reading a
// well-formed envelope is returned as a transport error.
func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	rel, err := url.Parse(path)
	if err != nil {
		return nil, errors.Wrap(err, "parse path")
	}
	u := c.base.ResolveReference(rel)

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set(csrfHeader, c.creds.CSRFToken())
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}

	success, msg, err := parseEnvelope(data)
	if err != nil {
		return nil, errors.Wrapf(err, "unexpected response (status %d)", resp.StatusCode)
	}
	if !success {
		if msg == "" {
			msg = "request failed with status " + strconv.Itoa(resp.StatusCode)
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return data, nil
}

func parseEnvelope(data []byte) (success bool, errMsg string, err error) {
	err = jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "success":
			v, err := d.Bool()
			success = v
			return err
		case "error":
			if d.Next() == jx.Null {
				return d.Null()
			}
			s, err := d.Str()
			errMsg = s
			return err
		default:
			return d.Skip()
		}
	})
	return success, errMsg, err
}

func orderPath(orderID int64, action string) string {
	return fmt.Sprintf("/pos/order/%d/%s/", orderID, action)
}
