package gobahrain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Health returns the server's aggregated health. A 503 still carries a report,
// so the status is returned alongside an *APIError in that case.
func (c *Client) Health(ctx context.Context) (_ *HealthStatus, err error) {
	defer func(start time.Time) { c.obs.observe("health", start, err) }(time.Now())

	req, err := c.newRequest(ctx, http.MethodGet, "/health", nil, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gobahrain: health: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	switch resp.StatusCode {
	case http.StatusOK, http.StatusServiceUnavailable:
	default:
		return nil, decodeError(resp)
	}

	var hs HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&hs); err != nil {
		return nil, fmt.Errorf("gobahrain: decode health: %w", err)
	}
	if resp.StatusCode == http.StatusServiceUnavailable {
		return &hs, &APIError{StatusCode: resp.StatusCode, Code: "unhealthy", Message: hs.Status}
	}
	return &hs, nil
}
