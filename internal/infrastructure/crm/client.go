package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/erp/posbridge/internal/domain/catalogsync"
	"github.com/erp/posbridge/internal/domain/salesync"
)

// maxResponseSize limits the response body size to prevent memory exhaustion
const maxResponseSize = 10 * 1024 * 1024

// Errors returned by the CRM client
var (
	ErrUnavailable     = errors.New("crm: service unavailable")
	ErrRateLimited     = errors.New("crm: rate limited")
	ErrRequestFailed   = errors.New("crm: request failed")
	ErrInvalidResponse = errors.New("crm: invalid response")
)

// errorBodyLimit caps how much of a failed response ends up in error messages
const errorBodyLimit = 512

// StatusError carries the HTTP status and body of a failed call. Body is kept
// whole; only Error shortens it.
type StatusError struct {
	StatusCode int
	Body       string
	err        error
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%v: HTTP %d", e.err, e.StatusCode)
	}
	return fmt.Sprintf("%v: HTTP %d: %s", e.err, e.StatusCode, truncate(e.Body, errorBodyLimit))
}

func (e *StatusError) Unwrap() error { return e.err }

// Client is the CRM REST client. Every call waits on a shared rate limiter so
// the whole process stays under the configured requests-per-minute ceiling.
type Client struct {
	config     *Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a new CRM client
func NewClient(config *Config, logger *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	limit := rate.Inf
	if config.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(config.RequestsPerMinute))
	}
	if config.PageSize <= 0 {
		config.PageSize = DefaultConfig().PageSize
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
		sleep:      sleepContext,
	}, nil
}

// ---------------------------------------------------------------------------
// Catalog reads
// ---------------------------------------------------------------------------

// ListProducts returns every CRM product
func (c *Client) ListProducts(ctx context.Context) ([]catalogsync.Product, error) {
	products := make([]catalogsync.Product, 0)
	err := paginate(ctx, c, "/products", nil, func(items []productDTO) bool {
		for _, p := range items {
			products = append(products, p.toDomain())
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

// ListOffers returns every offer of a product
func (c *Client) ListOffers(ctx context.Context, productID int64) ([]catalogsync.Offer, error) {
	query := url.Values{}
	query.Set("filter[product_id]", strconv.FormatInt(productID, 10))

	offers := make([]catalogsync.Offer, 0)
	err := paginate(ctx, c, "/offers", query, func(items []offerDTO) bool {
		for _, o := range items {
			offers = append(offers, o.toDomain())
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	return offers, nil
}

// ListCategories returns the flat category listing
func (c *Client) ListCategories(ctx context.Context) ([]catalogsync.Category, error) {
	categories := make([]catalogsync.Category, 0)
	err := paginate(ctx, c, "/products/categories", nil, func(items []categoryDTO) bool {
		for _, cat := range items {
			categories = append(categories, catalogsync.Category{
				ID:       cat.ID,
				Name:     cat.Name,
				ParentID: cat.ParentID,
			})
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// GetOfferBySKU returns the offer whose SKU equals sku exactly, or nil
func (c *Client) GetOfferBySKU(ctx context.Context, sku string) (*catalogsync.Offer, error) {
	query := url.Values{}
	query.Set("filter[sku]", sku)
	query.Set("limit", strconv.Itoa(c.config.PageSize))
	query.Set("page", "1")

	var result page[offerDTO]
	if err := c.do(ctx, http.MethodGet, "/offers", query, nil, &result); err != nil {
		return nil, err
	}
	for _, o := range result.Data {
		if strings.TrimSpace(o.SKU) == sku {
			offer := o.toDomain()
			return &offer, nil
		}
	}
	return nil, nil
}

// FindOfferByBarcode scans all offer pages until one carries the barcode
func (c *Client) FindOfferByBarcode(ctx context.Context, barcode string) (*catalogsync.Offer, error) {
	var found *catalogsync.Offer
	err := paginate(ctx, c, "/offers", nil, func(items []offerDTO) bool {
		for _, o := range items {
			if strings.TrimSpace(o.Barcode) == barcode {
				offer := o.toDomain()
				found = &offer
				return true
			}
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// FindProductByName scans all product pages for a case-insensitive exact name match
func (c *Client) FindProductByName(ctx context.Context, name string) (*catalogsync.Product, error) {
	var found *catalogsync.Product
	err := paginate(ctx, c, "/products", nil, func(items []productDTO) bool {
		for _, p := range items {
			if catalogsync.SameName(p.Name, name) {
				product := p.toDomain()
				found = &product
				return true
			}
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// ---------------------------------------------------------------------------
// Reference data
// ---------------------------------------------------------------------------

// ListPaymentMethods returns the configured payment methods
func (c *Client) ListPaymentMethods(ctx context.Context) ([]ReferenceItem, error) {
	return c.listReference(ctx, "/order/payment-method")
}

// ListOrderStatuses returns the order statuses
func (c *Client) ListOrderStatuses(ctx context.Context) ([]ReferenceItem, error) {
	return c.listReference(ctx, "/order/status")
}

// ListOrderSources returns the order sources
func (c *Client) ListOrderSources(ctx context.Context) ([]ReferenceItem, error) {
	return c.listReference(ctx, "/order/source")
}

func (c *Client) listReference(ctx context.Context, path string) ([]ReferenceItem, error) {
	items := make([]ReferenceItem, 0)
	err := paginate(ctx, c, path, nil, func(page []ReferenceItem) bool {
		items = append(items, page...)
		return false
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// CreateOrder creates an order. A conflict on source_uuid is reported as
// salesync.ErrDuplicateOrder.
func (c *Client) CreateOrder(ctx context.Context, req salesync.OrderRequest) (*salesync.CreatedOrder, error) {
	var created createdOrderDTO
	err := c.do(ctx, http.MethodPost, "/order", nil, newOrderRequestDTO(req), &created)
	if err != nil {
		if isDuplicateOrder(err) {
			return nil, fmt.Errorf("%w: %v", salesync.ErrDuplicateOrder, err)
		}
		return nil, err
	}
	return &salesync.CreatedOrder{ID: created.ID}, nil
}

// UpdateOrder applies a partial update
func (c *Client) UpdateOrder(ctx context.Context, id int64, update salesync.OrderUpdate) error {
	body := orderUpdateDTO{StatusID: update.StatusID, ClientID: update.ClientID}
	return c.do(ctx, http.MethodPut, "/order/"+strconv.FormatInt(id, 10), nil, body, nil)
}

func isDuplicateOrder(err error) bool {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	switch statusErr.StatusCode {
	case http.StatusConflict:
		return true
	case http.StatusUnprocessableEntity:
		return strings.Contains(statusErr.Body, "source_uuid")
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// paginate walks a listing page by page until the last page or until visit
// returns true. It sleeps PageDelay between pages.
func paginate[T any](ctx context.Context, c *Client, path string, query url.Values, visit func([]T) bool) error {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("limit", strconv.Itoa(c.config.PageSize))

	for pageNo := 1; ; pageNo++ {
		q.Set("page", strconv.Itoa(pageNo))

		var result page[T]
		if err := c.do(ctx, http.MethodGet, path, q, nil, &result); err != nil {
			return err
		}
		if visit(result.Data) {
			return nil
		}
		if len(result.Data) == 0 || result.CurrentPage >= result.LastPage {
			return nil
		}

		c.logger.Debug("Fetched CRM page",
			zap.String("path", path),
			zap.Int("page", result.CurrentPage),
			zap.Int("last_page", result.LastPage),
		)
		if err := c.sleep(ctx, c.config.PageDelay); err != nil {
			return err
		}
	}
}

// do performs one rate-limited API call. in is JSON encoded when non-nil and
// the response is decoded into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("crm: failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("crm: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("crm: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &StatusError{StatusCode: resp.StatusCode, err: ErrRateLimited}
	case resp.StatusCode >= 500:
		return &StatusError{StatusCode: resp.StatusCode, err: ErrUnavailable}
	case resp.StatusCode >= 400:
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody), err: ErrRequestFailed}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
