package frappe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shopfront/internal/model"
	"shopfront/internal/transport"
)

// methodPath is the base path for backend RPC methods.
const methodPath = "/api/method/"

// Backend method names. The cart methods take the customer token; the
// geography methods (out of scope here) use the key/secret pair instead.
const (
	methodGetCart      = "shoption_api.cart.cart.get_cart"
	methodGetCartCount = "shoption_api.cart.cart.get_cart_count"
	methodAddCart      = "shoption_api.cart.cart.add_cart"
	methodUpdateItem   = "shoption_api.cart.cart.update_cart_item"
	methodDeleteItem   = "shoption_api.cart.cart.delete_cart_item"
	methodProceed      = "shoption_api.cart.cart.proceed"
	methodDetails      = "shoption_api.cart.cart.checkout_details"
	methodPlaceOrder   = "shoption_api.cart.cart.place_order"
	methodGetAddresses = "shoption_api.cart.cart.get_customer_shipping_address"
	methodAddAddress   = "shoption_api.cart.cart.add_customer_shipping_address"
	methodOrderDetails = "shoption_api.cart.cart.get_order_details"
)

// userAgent identifies this client to the backend. The CDN in front of it
// rate-limits requests without a User-Agent.
const userAgent = "Shopfront/1.0"

// Config holds backend client configuration.
type Config struct {
	BaseURL   string
	APIKey    string // key/secret authenticate the public (pre-login) endpoints
	APISecret string

	// HTTPClient overrides the default browser-fingerprint client.
	// Tests point this at httptest servers.
	HTTPClient *http.Client
}

// Client is the stateless adapter for the commerce backend. Every call is
// a single network round trip: no retries, no caching. Retry and resync
// policy belongs to the cart reconciliation engine.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	apiSecret  string
}

// New creates a backend client with the given configuration.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// Browser TLS fingerprint transport: the backend WAF throttles
		// non-browser JA3 fingerprints. See internal/transport.
		httpClient = &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport.NewBrowserTransport(30 * time.Second),
		}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
	}, nil
}

// === Cart gateway ===

// FetchCart retrieves the authenticated customer's cart.
func (c *Client) FetchCart(ctx context.Context, token string) (model.CartSnapshot, error) {
	var data CartData
	if err := c.call(ctx, http.MethodGet, methodGetCart, token, nil, &data); err != nil {
		return model.CartSnapshot{}, err
	}
	return CartToSnapshot(&data), nil
}

// FetchCount retrieves the distinct-line count of the remote cart.
func (c *Client) FetchCount(ctx context.Context, token string) (int, error) {
	var data CartCountData
	if err := c.call(ctx, http.MethodGet, methodGetCartCount, token, nil, &data); err != nil {
		return 0, err
	}
	return data.Count, nil
}

// AddLine adds qty of a product to the remote cart. The line is not added
// until the server confirms it.
func (c *Client) AddLine(ctx context.Context, token, productID string, qty int) error {
	body := addCartRequest{Items: []addCartItem{{Item: productID, Quantity: qty}}}
	return c.call(ctx, http.MethodPost, methodAddCart, token, body, nil)
}

// UpdateLine rewrites a line's quantity on the remote cart.
func (c *Client) UpdateLine(ctx context.Context, token, productID string, qty int) error {
	body := updateItemRequest{Item: productID, Quantity: qty}
	return c.call(ctx, http.MethodPut, methodUpdateItem, token, body, nil)
}

// DeleteLine removes a line from the remote cart.
func (c *Client) DeleteLine(ctx context.Context, token, productID string) error {
	body := deleteItemRequest{Item: productID}
	return c.call(ctx, http.MethodDelete, methodDeleteItem, token, body, nil)
}

// === Checkout ===

// Proceed submits line items (plus an optional coupon code, empty when
// none) to compute a priced order preview.
func (c *Client) Proceed(ctx context.Context, token string, lines []model.CartLine, coupon string) (*model.CheckoutContext, error) {
	body := orderRequest{
		Items:      LinesToOrderItems(lines),
		CouponCode: coupon,
	}
	var data ProceedData
	if err := c.call(ctx, http.MethodPost, methodProceed, token, body, &data); err != nil {
		return nil, err
	}
	return ProceedToContext(&data, coupon), nil
}

// ProceedWithPayment re-runs proceed carrying the chosen payment type and
// transaction amount, the step the backend requires immediately before
// place_order.
func (c *Client) ProceedWithPayment(ctx context.Context, token string, lines []model.CartLine, coupon string, mode model.PaymentMode, amount int64) (*model.CheckoutContext, error) {
	body := orderRequest{
		Items:             LinesToOrderItems(lines),
		CouponCode:        coupon,
		PaymentType:       paymentTypeWire(mode),
		TransactionAmount: model.FormatRupees(amount),
	}
	var data ProceedData
	if err := c.call(ctx, http.MethodPost, methodProceed, token, body, &data); err != nil {
		return nil, err
	}
	return ProceedToContext(&data, coupon), nil
}

// CheckoutDetails fetches buyer and address display fields for the
// checkout summary.
func (c *Client) CheckoutDetails(ctx context.Context, token string) (model.CheckoutDetails, error) {
	var data CheckoutDetailsData
	if err := c.call(ctx, http.MethodGet, methodDetails, token, nil, &data); err != nil {
		return model.CheckoutDetails{}, err
	}
	return DetailsToModel(&data), nil
}

// PlaceOrder submits the order. Success requires the envelope status AND a
// non-empty sales order identifier; a confirmed envelope that omits the
// order id is a failure, not a success.
func (c *Client) PlaceOrder(ctx context.Context, token string, lines []model.CartLine, coupon string, mode model.PaymentMode, amount int64) (*model.OrderPlacementResult, error) {
	body := orderRequest{
		Items:             LinesToOrderItems(lines),
		CouponCode:        coupon,
		PaymentType:       paymentTypeWire(mode),
		TransactionAmount: model.FormatRupees(amount),
	}
	var data PlaceOrderData
	if err := c.call(ctx, http.MethodPost, methodPlaceOrder, token, body, &data); err != nil {
		return nil, err
	}
	if data.SalesOrder == "" {
		return nil, model.NewRejectedError("order was not created")
	}
	grand := int64(data.GrandTotal)
	if grand == 0 {
		grand = amount
	}
	return &model.OrderPlacementResult{
		OrderID:     data.SalesOrder,
		GrandTotal:  grand,
		PaymentMode: mode,
	}, nil
}

// OrderDetails fetches the order document for the order-detail screen.
// The backend returns it as a free-form document rendered as-is.
func (c *Client) OrderDetails(ctx context.Context, token, orderID string) (map[string]any, error) {
	var data map[string]any
	method := methodOrderDetails + "?order_id=" + url.QueryEscape(orderID)
	if err := c.call(ctx, http.MethodGet, method, token, nil, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// === Addresses ===

// ShippingAddresses lists the customer's saved shipping addresses.
func (c *Client) ShippingAddresses(ctx context.Context, token string) ([]model.ShippingAddress, error) {
	var data []model.ShippingAddress
	if err := c.call(ctx, http.MethodGet, methodGetAddresses, token, nil, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// AddShippingAddress saves a new shipping address.
func (c *Client) AddShippingAddress(ctx context.Context, token string, addr model.NewAddress) error {
	return c.call(ctx, http.MethodPost, methodAddAddress, token, addr, nil)
}

// === Transport plumbing ===

// call performs one round trip against a backend method, unwraps the
// message envelope, and decodes data into out (which may be nil when the
// caller only cares about confirmation).
func (c *Client) call(ctx context.Context, httpMethod, method, token string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, httpMethod, c.baseURL+methodPath+method, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NewUnavailableError("commerce backend", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.NewUnavailableError("commerce backend", err)
	}

	if resp.StatusCode >= 400 {
		return c.parseErrorResponse(resp.StatusCode, respBody)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return model.NewUnavailableError("commerce backend",
			fmt.Errorf("parsing response envelope: %w", err))
	}
	if !env.Message.Status {
		// Transport-level success with a business-level refusal: surface
		// the server message verbatim.
		return model.NewRejectedError(env.Message.Message)
	}
	if out != nil && len(env.Message.Data) > 0 {
		if err := json.Unmarshal(env.Message.Data, out); err != nil {
			return model.NewUnavailableError("commerce backend",
				fmt.Errorf("parsing response data: %w", err))
		}
	}
	return nil
}

// setHeaders sets headers for a backend request. Authenticated calls carry
// the customer token in Authorization; pre-login catalog calls use the
// key/secret pair instead.
func (c *Client) setHeaders(req *http.Request, token string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if token != "" {
		req.Header.Set("Authorization", token)
		return
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-KEY", c.apiKey)
		req.Header.Set("X-API-SECRET", c.apiSecret)
	}
}

// parseErrorResponse maps backend HTTP errors into the client taxonomy.
func (c *Client) parseErrorResponse(statusCode int, body []byte) error {
	var env envelope
	json.Unmarshal(body, &env) // Best effort parse

	switch {
	case statusCode == 401 || statusCode == 403:
		return model.NewUnauthorizedError("backend rejected token")
	case statusCode == 429 || statusCode >= 500:
		return model.NewUnavailableError("commerce backend",
			fmt.Errorf("status %d", statusCode))
	default:
		msg := env.Message.Message
		if msg == "" {
			msg = fmt.Sprintf("request failed with status %d", statusCode)
		}
		return model.NewRejectedError(msg)
	}
}
