package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	// DefaultBaseURL is used when no API URL is configured.
	DefaultBaseURL = "http://localhost:8080"
	userAgent      = "shopcli/1.0"
)

// TokenSource supplies the bearer token for outgoing requests. An empty
// token is not an error: public endpoints are called without auth.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a TokenSource backed by a fixed value.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token() (string, error) { return strings.TrimSpace(string(s)), nil }

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	URL        string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Message)
	}
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// Client is an HTTP client for the storefront REST backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets a whole-request timeout. Zero leaves requests bounded
// only by the caller's context and transport defaults.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			return fmt.Errorf("loading token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	log := zerolog.Ctx(ctx)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("request_id", requestID).Str("method", method).Str("url", reqURL).Msg("request failed")
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	log.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("url", reqURL).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			StatusCode: resp.StatusCode,
			URL:        reqURL,
			Message:    readErrorMessage(resp.Body),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if err := dec.Decode(new(struct{})); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decoding response: trailing JSON content")
	}
	return nil
}

// readErrorMessage extracts a "message" field from an error body when present.
func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

// FetchProducts lists products, optionally scoped to a category ID or shop.
func (c *Client) FetchProducts(ctx context.Context, categoryID, shopID string) ([]Product, error) {
	params := url.Values{}
	setIfNotEmpty(params, "categoryId", categoryID)
	setIfNotEmpty(params, "shopId", shopID)

	var products []Product
	if err := c.do(ctx, http.MethodGet, "/api/products", params, nil, &products); err != nil {
		return nil, fmt.Errorf("fetching products: %w", err)
	}
	return products, nil
}

// FetchCategories lists catalog categories.
func (c *Client) FetchCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := c.do(ctx, http.MethodGet, "/api/categories", nil, nil, &categories); err != nil {
		return nil, fmt.Errorf("fetching categories: %w", err)
	}
	return categories, nil
}

// MyVouchersForCart returns the user's claimed vouchers annotated with
// eligibility and discount for the given cart.
func (c *Client) MyVouchersForCart(ctx context.Context, userID string, cart CartContext) ([]VoucherEligibilityResult, error) {
	params := url.Values{"subtotal": {cart.Subtotal.String()}}
	setCartScope(params, cart)

	path := "/api/vouchers/my-vouchers/" + url.PathEscape(userID) + "/for-cart"
	var results []VoucherEligibilityResult
	if err := c.do(ctx, http.MethodGet, path, params, nil, &results); err != nil {
		return nil, fmt.Errorf("fetching my vouchers: %w", err)
	}
	return results, nil
}

// EligibleVouchers returns platform vouchers the user qualifies for but
// has not claimed.
func (c *Client) EligibleVouchers(ctx context.Context, userID string, cart CartContext) ([]Voucher, error) {
	params := url.Values{
		"userId":      {userID},
		"orderAmount": {cart.Subtotal.String()},
	}
	setCartScope(params, cart)

	var vouchers []Voucher
	if err := c.do(ctx, http.MethodGet, "/api/vouchers/eligible", params, nil, &vouchers); err != nil {
		return nil, fmt.Errorf("fetching eligible vouchers: %w", err)
	}
	return vouchers, nil
}

type validateVoucherBody struct {
	Code        string      `json:"code"`
	UserID      string      `json:"userId"`
	OrderAmount json.Number `json:"orderAmount"`
	ShopID      string      `json:"shopId,omitempty"`
	ProductIDs  []string    `json:"productIds,omitempty"`
	CategoryIDs []string    `json:"categoryIds,omitempty"`
}

// ValidateVoucher asks the backend whether code can be used for the order.
func (c *Client) ValidateVoucher(ctx context.Context, req ValidateVoucherRequest) (bool, error) {
	body := validateVoucherBody{
		Code:        req.Code,
		UserID:      req.UserID,
		OrderAmount: json.Number(req.OrderAmount.String()),
		ShopID:      req.ShopID,
		ProductIDs:  req.ProductIDs,
		CategoryIDs: req.CategoryIDs,
	}

	var valid bool
	if err := c.do(ctx, http.MethodPost, "/api/vouchers/validate-for-order", nil, body, &valid); err != nil {
		return false, fmt.Errorf("validating voucher: %w", err)
	}
	return valid, nil
}

type calculateDiscountBody struct {
	Code        string      `json:"code"`
	OrderAmount json.Number `json:"orderAmount"`
}

// CalculateDiscount returns the discount code yields on orderAmount.
func (c *Client) CalculateDiscount(ctx context.Context, code string, orderAmount decimal.Decimal) (decimal.Decimal, error) {
	body := calculateDiscountBody{
		Code:        code,
		OrderAmount: json.Number(orderAmount.String()),
	}

	var discount decimal.Decimal
	if err := c.do(ctx, http.MethodPost, "/api/vouchers/calculate-discount", nil, body, &discount); err != nil {
		return decimal.Zero, fmt.Errorf("calculating discount: %w", err)
	}
	return discount, nil
}

func setCartScope(params url.Values, cart CartContext) {
	setIfNotEmpty(params, "shopId", cart.ShopID)
	setIfNotEmpty(params, "productIds", joinIDs(cart.ProductIDs))
	setIfNotEmpty(params, "categoryIds", joinIDs(cart.CategoryIDs))
}

func setIfNotEmpty(params url.Values, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		params.Set(key, value)
	}
}

func joinIDs(ids []string) string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return strings.Join(out, ",")
}
