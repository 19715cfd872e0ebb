package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	clierr "github.com/nhd98z/kyberswap-aggregator-sdk/internal/errors"
)

const (
	UserAgent      = "swapcall/1.0"
	ClientIDHeader = "x-client-id"

	maxBodyBytes   = 8 << 20
	maxSnippetSize = 160
)

// APIError is the error body an aggregator sends with a non-2xx status.
type APIError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("status %d code %d: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

// AsAPIError extracts the aggregator error body carried by err, if any.
func AsAPIError(err error) (*APIError, bool) {
	var target *APIError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// Client issues GET requests against aggregator JSON APIs with bounded retries.
type Client struct {
	httpClient *http.Client
	retries    int
	clientID   string
	log        zerolog.Logger
}

func New(timeout time.Duration, retries int) *Client {
	if retries < 0 {
		retries = 0
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		retries:    retries,
		log:        zerolog.Nop(),
	}
}

func (c *Client) WithLogger(logger zerolog.Logger) *Client {
	c.log = logger
	return c
}

// WithClientID tags every request with the aggregator client id header.
func (c *Client) WithClientID(id string) *Client {
	c.clientID = strings.TrimSpace(id)
	return c
}

// GetJSON requests endpoint with query and decodes the JSON body into out.
// Rate limits, transport failures and 5xx responses are retried.
func (c *Client) GetJSON(ctx context.Context, endpoint string, query url.Values, out any) error {
	target := endpoint
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		target = endpoint + sep + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			c.log.Debug().Err(lastErr).Int("attempt", attempt).Str("endpoint", endpoint).Msg("retrying aggregator request")
			select {
			case <-ctx.Done():
				return clierr.Wrap(clierr.CodeUnavailable, "request cancelled", ctx.Err())
			case <-time.After(backoff(attempt)):
			}
		}
		retry, err := c.getOnce(ctx, target, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			return err
		}
	}
	return lastErr
}

func (c *Client) getOnce(ctx context.Context, target string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return false, clierr.Wrap(clierr.CodeInternal, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	if c.clientID != "" {
		req.Header.Set(ClientIDHeader, c.clientID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return true, mapNetError(err)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	_ = resp.Body.Close()
	if err != nil {
		return true, clierr.Wrap(clierr.CodeUnavailable, "read aggregator response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, body)
	}
	if out == nil {
		return false, nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return false, clierr.New(clierr.CodeUnavailable, "aggregator returned empty response")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return false, clierr.Wrap(clierr.CodeUnavailable, "decode aggregator JSON", err)
	}
	return false, nil
}

// statusError maps a non-2xx response to a typed error wrapping its APIError.
func statusError(status int, body []byte) (bool, error) {
	apiErr := decodeAPIError(status, body)
	switch {
	case status == http.StatusTooManyRequests:
		return true, clierr.Wrap(clierr.CodeRateLimited, "aggregator rate limited request", apiErr)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return false, clierr.Wrap(clierr.CodeAuth, "aggregator rejected credentials", apiErr)
	case status >= http.StatusInternalServerError:
		return true, clierr.Wrap(clierr.CodeUnavailable, "aggregator unavailable", apiErr)
	default:
		return false, clierr.Wrap(clierr.CodeUnsupported, "aggregator rejected request", apiErr)
	}
}

func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		_ = json.Unmarshal(trimmed, apiErr)
	}
	if apiErr.Message == "" {
		snippet := string(trimmed)
		if len(snippet) > maxSnippetSize {
			snippet = snippet[:maxSnippetSize] + "..."
		}
		if snippet == "" {
			snippet = strings.ToLower(http.StatusText(status))
		}
		apiErr.Message = snippet
	}
	return apiErr
}

func mapNetError(err error) error {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return clierr.Wrap(clierr.CodeUnavailable, "aggregator timeout", err)
	}
	return clierr.Wrap(clierr.CodeUnavailable, "aggregator request failed", err)
}

func backoff(attempt int) time.Duration {
	d := (120 * time.Millisecond) << uint(attempt-1)
	if d > 2*time.Second {
		d = 2 * time.Second
	}
	return d + time.Duration(rand.Intn(75))*time.Millisecond
}
