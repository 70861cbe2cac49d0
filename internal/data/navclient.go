package data

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// NAVClient fetches fund net-asset-value history from an HTTP NAV service:
//
//	GET {BaseURL}/v1/funds/{instrument}/nav
//
// answering with a Table as JSON.
type NAVClient struct {
	APIKey  string
	BaseURL string
	Client  *http.Client

	limiter *rate.Limiter
	log     *zap.SugaredLogger
}

// NewNAVClient creates a client allowing requestsPerSecond calls (burst 1).
// A non-positive rate disables limiting.
func NewNAVClient(apiKey, baseURL string, requestsPerSecond float64, log *zap.SugaredLogger) *NAVClient {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &NAVClient{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(limit, 1),
		log:     log,
	}
}

// NAVError represents a non-success answer from the NAV service.
type NAVError struct {
	StatusCode int
	Code       string
	Message    string
	RetryAfter string
}

func (e *NAVError) Error() string {
	return e.Message
}

func (c *NAVClient) Name() string { return "nav" }

func (c *NAVClient) Fetch(ctx context.Context, instrumentID string) (*Table, error) {
	if c.BaseURL == "" {
		return nil, &NAVError{Code: "MISSING_BASE_URL", Message: "nav service base url is required"}
	}
	if err := ValidateInstrumentID(instrumentID); err != nil {
		return nil, err
	}

	u, err := url.Parse(c.BaseURL + "/v1/funds/" + url.PathEscape(instrumentID) + "/nav")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.APIKey != "" {
		req.Header.Set("x-api-key", c.APIKey)
	}
	req.Header.Set("Accept", "application/json")

	c.log.Debugw("nav request", "path", u.Path, "instrument", instrumentID)
	start := time.Now()
	resp, err := c.Client.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.log.Warnw("nav request failed", "instrument", instrumentID, "duration", duration, "error", err)
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debugw("nav response", "instrument", instrumentID, "status", resp.StatusCode, "duration", duration)

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, &NAVError{
			StatusCode: resp.StatusCode,
			Code:       "UNKNOWN_INSTRUMENT",
			Message:    fmt.Sprintf("unknown instrument %q", instrumentID),
		}
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, &NAVError{
			StatusCode: resp.StatusCode,
			Code:       "UNAUTHORIZED",
			Message:    "invalid API key or insufficient permissions",
		}
	case http.StatusTooManyRequests:
		retryAfter := resp.Header.Get("Retry-After")
		return nil, &NAVError{
			StatusCode: resp.StatusCode,
			Code:       "RATE_LIMIT_EXCEEDED",
			Message:    fmt.Sprintf("rate limit exceeded, retry after: %s", retryAfter),
			RetryAfter: retryAfter,
		}
	default:
		return nil, &NAVError{
			StatusCode: resp.StatusCode,
			Code:       "API_ERROR",
			Message:    fmt.Sprintf("nav service returned status %d: %s", resp.StatusCode, resp.Status),
		}
	}

	var t Table
	if err := json.NewDecoder(resp.Body).Decode(&t); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if t.InstrumentID == "" {
		t.InstrumentID = instrumentID
	}
	c.log.Debugw("nav rows received", "instrument", instrumentID, "rows", len(t.Rows))
	return &t, nil
}
