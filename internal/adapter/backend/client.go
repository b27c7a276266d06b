// Package backend provides an HTTP client for the RuedaYa marketplace backend API.
package backend

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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ruedaya/storefront/internal/config"
	"github.com/ruedaya/storefront/internal/domain"
	"github.com/ruedaya/storefront/internal/domain/account"
	"github.com/ruedaya/storefront/internal/domain/tenant"
	"github.com/ruedaya/storefront/internal/resilience"
)

// maxResponseBytes caps how much of a backend response body is read.
const maxResponseBytes = 1 << 20

// Client talks to the marketplace backend.
type Client struct {
	baseURL     string
	apiKey      string
	syncTimeout time.Duration
	httpClient  *http.Client
	breaker     *resilience.Breaker
}

// NewClient creates a backend client. Outgoing requests carry trace context.
func NewClient(cfg config.Backend) *Client {
	return &Client{
		baseURL:     strings.TrimSuffix(cfg.URL, "/"),
		apiKey:      cfg.APIKey,
		syncTimeout: cfg.SyncTimeout,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// Configured reports whether a backend URL is set.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

type syncRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Avatar     string `json:"avatar"`
	Provider   string `json:"provider"`
	ProviderID string `json:"providerId"`
}

type syncResponse struct {
	User *struct {
		ID       string `json:"id"`
		Phone    string `json:"phone"`
		Location string `json:"location"`
	} `json:"user"`
	Token string `json:"token"`
}

// SyncAccount posts a signed-in OAuth identity to the backend, bounded by the
// sync timeout. Any failure, including a body that is not JSON, is returned
// wrapped around domain.ErrBackendUnavailable.
func (c *Client) SyncAccount(ctx context.Context, p account.Profile) (*account.SyncResult, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("sync account: %w: backend url not configured", domain.ErrBackendUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, c.syncTimeout)
	defer cancel()

	body, err := json.Marshal(syncRequest{
		Name:       p.Name,
		Email:      p.Email,
		Avatar:     p.Avatar,
		Provider:   p.Provider,
		ProviderID: p.ProviderID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal sync request: %w", err)
	}

	data, err := c.doRequest(ctx, http.MethodPost, "/auth/oauth-sync", body)
	if err != nil {
		return nil, fmt.Errorf("sync account: %w: %w", domain.ErrBackendUnavailable, err)
	}

	var resp syncResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("sync account: %w: decode response: %w", domain.ErrBackendUnavailable, err)
	}

	result := &account.SyncResult{BackendToken: resp.Token}
	if resp.User != nil {
		result.UserID = resp.User.ID
		result.Phone = resp.User.Phone
		result.Location = resp.User.Location
	}
	return result, nil
}

// GetDealer fetches the storefront configuration for slug.
func (c *Client) GetDealer(ctx context.Context, slug string) (*tenant.Dealer, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("get dealer: %w: backend url not configured", domain.ErrBackendUnavailable)
	}

	data, err := c.doRequest(ctx, http.MethodGet, "/dealers/"+url.PathEscape(slug), nil)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, fmt.Errorf("get dealer %s: %w", slug, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get dealer %s: %w: %w", slug, domain.ErrBackendUnavailable, err)
	}

	var d tenant.Dealer
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("get dealer %s: %w: decode response: %w", slug, domain.ErrBackendUnavailable, err)
	}
	if d.Slug == "" {
		d.Slug = slug
	}
	return &d, nil
}

// StatusError is a non-2xx backend response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend API error %d: %s", e.Code, e.Body)
}

// doRequest performs one call. Client errors (4xx) are returned without
// counting against the breaker; transport errors and 5xx do count.
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var (
		result    []byte
		clientErr error
	)
	call := func() error {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode >= 500 {
			return &StatusError{Code: resp.StatusCode, Body: truncate(string(data), 200)}
		}
		if resp.StatusCode >= 300 {
			clientErr = &StatusError{Code: resp.StatusCode, Body: truncate(string(data), 200)}
			return nil
		}

		result = data
		return nil
	}

	if c.breaker != nil {
		if err := c.breaker.Execute(call); err != nil {
			return nil, err
		}
	} else if err := call(); err != nil {
		return nil, err
	}

	if clientErr != nil {
		return nil, clientErr
	}
	return result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
