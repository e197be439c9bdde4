package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// AuthStyle is the shape of the credential header a given upstream expects.
// The three upstreams consumed by this engine each use a different shape.
type AuthStyle int

const (
	AuthStyleAPIKeyHeader AuthStyle = iota // "X-API-Key: <key>"
	AuthStyleBearer                        // "Authorization: Bearer <key>"
)

// HTTPTransport wraps an *http.Client with an outbound token-bucket limiter
// so this process never floods a single upstream regardless of how many
// requests arrive concurrently. This is distinct from C7 (the inbound,
// per-client, Redis-backed rate limiter) — it's local politeness toward the
// upstream, not a product-facing limit.
type HTTPTransport struct {
	client     *http.Client
	limiter    *rate.Limiter
	baseURL    string
	apiKey     string
	authStyle  AuthStyle
	serviceTag string
}

// NewHTTPTransport builds a transport for one upstream. requestsPerSecond
// bounds outbound call rate; burst allows short bursts above that steady
// rate.
func NewHTTPTransport(serviceTag, baseURL, apiKey string, authStyle AuthStyle, timeout time.Duration, requestsPerSecond float64, burst int) *HTTPTransport {
	return &HTTPTransport{
		client:     &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		baseURL:    baseURL,
		apiKey:     apiKey,
		authStyle:  authStyle,
		serviceTag: serviceTag,
	}
}

// GetJSON issues a GET to baseURL+path, waiting on the outbound limiter
// first, then decodes the JSON response body into out.
func (t *HTTPTransport) GetJSON(ctx context.Context, path string, out interface{}) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: outbound rate limiter: %w", t.serviceTag, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", t.serviceTag, err)
	}
	t.applyAuth(req)

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", t.serviceTag, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", t.serviceTag, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", t.serviceTag, err)
	}
	return nil
}

func (t *HTTPTransport) applyAuth(req *http.Request) {
	if t.apiKey == "" {
		return
	}
	switch t.authStyle {
	case AuthStyleBearer:
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	default:
		req.Header.Set("X-API-Key", t.apiKey)
	}
}
