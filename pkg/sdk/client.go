package gobahrain

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

	"github.com/gobahrain/gobahrain/internal/version"
)

const (
	defaultTimeout = 90 * time.Second
	maxErrorBody   = 64 << 10
)

// Client talks to a Go Bahrain API server. Safe for concurrent use.
type Client struct {
	baseURL   *url.URL
	hc        *http.Client
	apiKey    string
	userAgent string
	obs       *observer
}

// New creates a Client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{timeout: defaultTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("gobahrain: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("gobahrain: base url %q must be http or https", baseURL)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}
	ua := cfg.userAgent
	if ua == "" {
		ua = "gobahrain-sdk/" + version.Version
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	return &Client{baseURL: u, hc: hc, apiKey: cfg.apiKey, userAgent: ua, obs: obs}, nil
}

// Plan generates a one-day itinerary. prefs may be nil.
func (c *Client) Plan(ctx context.Context, message string, prefs *Preferences) (_ *DayPlan, err error) {
	defer func(start time.Time) { c.obs.observe("plan", start, err) }(time.Now())

	body := struct {
		Message     string       `json:"message"`
		Preferences *Preferences `json:"preferences,omitempty"`
	}{message, prefs}

	var out DayPlan
	if err := c.do(ctx, http.MethodPost, "/api/ai-plan", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MatchClients returns the raw client profiles closest to the given interests and food labels.
// topK <= 0 uses the server default.
func (c *Client) MatchClients(
	ctx context.Context, interests, food []string, topK int,
) (_ *ClientMatches, err error) {
	defer func(start time.Time) { c.obs.observe("match_clients", start, err) }(time.Now())

	body := struct {
		Preferences    []string `json:"preferences,omitempty"`
		FoodCategories []string `json:"foodCategories,omitempty"`
		TopK           *int     `json:"topK,omitempty"`
	}{Preferences: interests, FoodCategories: food}
	if topK > 0 {
		body.TopK = &topK
	}

	var out ClientMatches
	if err := c.do(ctx, http.MethodPost, "/api/ai-plan/match-clients", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Chat sends one conversational turn with optional prior history.
func (c *Client) Chat(
	ctx context.Context, message string, history []ChatTurn, prefs *Preferences,
) (_ *ChatReply, err error) {
	defer func(start time.Time) { c.obs.observe("chat", start, err) }(time.Now())

	body := struct {
		Message     string       `json:"message"`
		History     []ChatTurn   `json:"history,omitempty"`
		Preferences *Preferences `json:"preferences,omitempty"`
	}{message, history, prefs}

	var out ChatReply
	if err := c.do(ctx, http.MethodPost, "/api/chat", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Places lists explorer places. The server never fails this call for provider errors;
// it serves a static list and sets Fallback instead.
func (c *Client) Places(ctx context.Context, q PlacesQuery) (_ *PlaceList, err error) {
	defer func(start time.Time) { c.obs.observe("places", start, err) }(time.Now())

	params := url.Values{}
	if q.Text != "" {
		params.Set("q", q.Text)
	}
	if q.TopK > 0 {
		params.Set("topK", strconv.Itoa(q.TopK))
	}
	if q.MappableOnly {
		params.Set("ar", "true")
	}

	var out PlaceList
	if err := c.do(ctx, http.MethodGet, "/api/places", params, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Posts searches community posts.
func (c *Client) Posts(ctx context.Context, query string, limit int) (_ []Post, err error) {
	defer func(start time.Time) { c.obs.observe("posts", start, err) }(time.Now())

	params := url.Values{"q": {query}}
	setLimit(params, limit)

	var out struct {
		Items []Post `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/posts", params, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Reviews lists reviews of a place.
func (c *Client) Reviews(ctx context.Context, place string, limit int) (_ []Review, err error) {
	defer func(start time.Time) { c.obs.observe("reviews", start, err) }(time.Now())

	params := url.Values{"place": {place}}
	setLimit(params, limit)

	var out struct {
		Items []Review `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/reviews", params, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// NearbyPOIs lists points of interest ordered by distance.
func (c *Client) NearbyPOIs(ctx context.Context, q NearbyQuery) (_ []POI, err error) {
	defer func(start time.Time) { c.obs.observe("nearby_pois", start, err) }(time.Now())

	params := url.Values{
		"lat": {strconv.FormatFloat(q.Lat, 'f', -1, 64)},
		"lng": {strconv.FormatFloat(q.Lng, 'f', -1, 64)},
	}
	if q.RadiusKm > 0 {
		params.Set("radius_km", strconv.FormatFloat(q.RadiusKm, 'f', -1, 64))
	}
	setLimit(params, q.Limit)

	var out struct {
		Items []POI `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/pois/nearby", params, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func setLimit(params url.Values, limit int) {
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
}

func (c *Client) newRequest(
	ctx context.Context, method, path string, params url.Values, body any,
) (*http.Request, error) {
	u := c.baseURL.JoinPath(path)
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	var r io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("gobahrain: encode request: %w", err)
		}
		r = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), r)
	if err != nil {
		return nil, fmt.Errorf("gobahrain: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	req, err := c.newRequest(ctx, method, path, params, body)
	if err != nil {
		return err
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("gobahrain: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	c.obs.recordTokens(path, resp.Header)
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("gobahrain: decode response: %w", err)
	}
	return nil
}

// decodeError reads both error shapes the server emits:
// {"code","message"} and {"error","latency_ms"}.
func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		apiErr.Message = strings.TrimSpace(string(raw))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	apiErr.Code = body.Code
	apiErr.Message = body.Message
	if apiErr.Message == "" {
		apiErr.Message = body.Error
	}
	return apiErr
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}
