package pos

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

	"github.com/erp/posbridge/internal/domain/catalogsync"
)

// maxResponseSize limits the response body size to prevent memory exhaustion
const maxResponseSize = 10 * 1024 * 1024

// Errors returned by the POS client
var (
	ErrUnauthorized    = errors.New("pos: authentication expired")
	ErrSignInFailed    = errors.New("pos: sign in failed")
	ErrNotFound        = errors.New("pos: not found")
	ErrConflict        = errors.New("pos: conflict")
	ErrUnavailable     = errors.New("pos: service unavailable")
	ErrRequestFailed   = errors.New("pos: request failed")
	ErrInvalidResponse = errors.New("pos: invalid response")
)

// StatusError carries the HTTP status and body of a failed call
type StatusError struct {
	StatusCode int
	Body       string
	err        error
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%v: HTTP %d", e.err, e.StatusCode)
	}
	return fmt.Sprintf("%v: HTTP %d: %s", e.err, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error { return e.err }

// Client is the POS REST client. A 401 triggers one re-authentication and
// one retry of the same call; a second 401 is returned as ErrUnauthorized.
type Client struct {
	config     *Config
	httpClient *http.Client
	session    *Session
	logger     *zap.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a new POS client. It does not sign in until the first call
// or an explicit SignIn.
func NewClient(config *Config, logger *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.PageSize <= 0 {
		config.PageSize = DefaultConfig().PageSize
	}
	c := &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
		sleep:      sleepContext,
	}
	c.session = newSession(c.authenticate)
	return c, nil
}

// Session exposes the authentication state
func (c *Client) Session() *Session {
	return c.session
}

// SignIn forces a fresh sign-in
func (c *Client) SignIn(ctx context.Context) error {
	c.session.Reset()
	_, err := c.session.Refresh(ctx, "")
	return err
}

// CashierID returns the signed-in cashier identity, or "" when unknown
func (c *Client) CashierID() string {
	return c.session.CashierID()
}

// ---------------------------------------------------------------------------
// Goods
// ---------------------------------------------------------------------------

// ListGoods returns the whole POS catalog
func (c *Client) ListGoods(ctx context.Context) ([]catalogsync.Good, error) {
	goods := make([]catalogsync.Good, 0)
	err := paginate(ctx, c, "/goods", func(items []goodDTO) {
		for _, g := range items {
			goods = append(goods, g.toDomain())
		}
	})
	if err != nil {
		return nil, err
	}
	return goods, nil
}

// GetGoodByCode returns the good with the code, or nil when there is none
func (c *Client) GetGoodByCode(ctx context.Context, code string) (*catalogsync.Good, error) {
	var dto goodDTO
	err := c.do(ctx, http.MethodGet, "/goods/code/"+url.PathEscape(code), nil, nil, &dto)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	good := dto.toDomain()
	return &good, nil
}

// CreateGood creates a good. Any 409 is reported as
// catalogsync.ErrGoodAlreadyExists without looking at the body.
// TODO: narrow this to code conflicts once the POS documents its 409 bodies.
func (c *Client) CreateGood(ctx context.Context, payload catalogsync.GoodPayload) (*catalogsync.Good, error) {
	var dto goodDTO
	err := c.do(ctx, http.MethodPost, "/goods", nil, payload, &dto)
	if errors.Is(err, ErrConflict) {
		return nil, fmt.Errorf("%w: %v", catalogsync.ErrGoodAlreadyExists, err)
	}
	if err != nil {
		return nil, err
	}
	good := dto.toDomain()
	return &good, nil
}

// UpdateGood replaces a good
func (c *Client) UpdateGood(ctx context.Context, id string, payload catalogsync.GoodPayload) error {
	err := c.do(ctx, http.MethodPut, "/goods/"+url.PathEscape(id), nil, payload, nil)
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %v", catalogsync.ErrGoodNotFound, err)
	}
	return err
}

// ---------------------------------------------------------------------------
// Groups
// ---------------------------------------------------------------------------

// ListGroups returns every catalog group
func (c *Client) ListGroups(ctx context.Context) ([]catalogsync.Group, error) {
	groups := make([]catalogsync.Group, 0)
	err := paginate(ctx, c, "/goods/groups", func(items []groupDTO) {
		for _, g := range items {
			groups = append(groups, g.toDomain())
		}
	})
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// CreateGroup creates a group; parentID is empty for a top-level group
func (c *Client) CreateGroup(ctx context.Context, name, parentID string) (*catalogsync.Group, error) {
	var dto groupDTO
	if err := c.do(ctx, http.MethodPost, "/goods/groups", nil, groupDTO{Name: name, ParentID: parentID}, &dto); err != nil {
		return nil, err
	}
	group := dto.toDomain()
	return &group, nil
}

// ---------------------------------------------------------------------------
// Webhook registration
// ---------------------------------------------------------------------------

// GetWebhook returns the current registration, or nil when none exists
func (c *Client) GetWebhook(ctx context.Context) (*Webhook, error) {
	var hook Webhook
	err := c.do(ctx, http.MethodGet, "/webhook", nil, nil, &hook)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &hook, nil
}

// RegisterWebhook points POS sale notifications at target. The returned
// secret signs every delivery.
func (c *Client) RegisterWebhook(ctx context.Context, target string) (*Webhook, error) {
	var hook Webhook
	if err := c.do(ctx, http.MethodPost, "/webhook", nil, Webhook{URL: target}, &hook); err != nil {
		return nil, err
	}
	return &hook, nil
}

// DeleteWebhook removes the registration; a missing one is not an error
func (c *Client) DeleteWebhook(ctx context.Context) error {
	err := c.do(ctx, http.MethodDelete, "/webhook", nil, nil, nil)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// ---------------------------------------------------------------------------
// Authentication
// ---------------------------------------------------------------------------

// authenticate signs in with the configured credentials. The cashier comes
// from the token's sub claim, or from /cashier/me when the claim is absent.
func (c *Client) authenticate(ctx context.Context) (string, string, error) {
	var resp signInResponse
	in := signInRequest{Login: c.config.Login, Password: c.config.Password}
	status, err := c.send(ctx, http.MethodPost, "/cashier/signin", nil, in, "", &resp)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrSignInFailed, err)
	}
	if status == http.StatusUnauthorized {
		return "", "", fmt.Errorf("%w: invalid credentials", ErrSignInFailed)
	}
	if resp.AccessToken == "" {
		return "", "", fmt.Errorf("%w: empty access token", ErrSignInFailed)
	}

	cashierID := cashierFromToken(resp.AccessToken)
	if cashierID == "" {
		var me cashierDTO
		status, err := c.send(ctx, http.MethodGet, "/cashier/me", nil, nil, resp.AccessToken, &me)
		switch {
		case err != nil:
			c.logger.Warn("Failed to load signed-in cashier", zap.Error(err))
		case status == http.StatusUnauthorized:
			c.logger.Warn("Cashier profile rejected the fresh token")
		default:
			cashierID = me.ID
		}
	}

	c.logger.Info("Signed in to POS", zap.String("cashier_id", cashierID))
	return resp.AccessToken, cashierID, nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// paginate walks an offset-paginated listing until a short page. The POS may
// cap the requested limit; the limit echoed in meta then sets the page size.
func paginate[T any](ctx context.Context, c *Client, path string, visit func([]T)) error {
	limit := c.config.PageSize
	for offset := 0; ; {
		query := url.Values{}
		query.Set("offset", strconv.Itoa(offset))
		query.Set("limit", strconv.Itoa(limit))

		var result page[T]
		if err := c.do(ctx, http.MethodGet, path, query, nil, &result); err != nil {
			return err
		}
		visit(result.Results)

		served := limit
		if result.Meta.Limit > 0 && result.Meta.Limit < served {
			served = result.Meta.Limit
		}
		if len(result.Results) == 0 || len(result.Results) < served {
			return nil
		}
		offset += len(result.Results)
		if err := c.sleep(ctx, c.config.PageDelay); err != nil {
			return err
		}
	}
}

// do performs an authenticated call, re-authenticating once on 401
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	token, err := c.session.Token(ctx)
	if err != nil {
		return err
	}

	status, err := c.send(ctx, method, path, query, in, token, out)
	if err != nil {
		return err
	}
	if status != http.StatusUnauthorized {
		return nil
	}

	c.logger.Info("POS token expired, signing in again", zap.String("path", path))
	token, err = c.session.Refresh(ctx, token)
	if err != nil {
		return err
	}
	status, err = c.send(ctx, method, path, query, in, token, out)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// send performs one HTTP round trip. A 401 is returned as a status with a nil
// error so that do can decide about re-authentication.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, in any, token string, out any) (int, error) {
	endpoint := strings.TrimRight(c.config.BaseURL, "/") + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("pos: failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, fmt.Errorf("pos: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.config.LicenseKey != "" {
		req.Header.Set("X-License-Key", c.config.LicenseKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("pos: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return resp.StatusCode, nil
	case resp.StatusCode == http.StatusNotFound:
		return resp.StatusCode, &StatusError{StatusCode: resp.StatusCode, err: ErrNotFound}
	case resp.StatusCode == http.StatusConflict:
		return resp.StatusCode, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(respBody), 512), err: ErrConflict}
	case resp.StatusCode >= 500:
		return resp.StatusCode, &StatusError{StatusCode: resp.StatusCode, err: ErrUnavailable}
	case resp.StatusCode >= 400:
		return resp.StatusCode, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(respBody), 512), err: ErrRequestFailed}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return resp.StatusCode, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return resp.StatusCode, nil
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
