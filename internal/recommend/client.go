package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client calls the external recommendation model. Responses have the shape
// {"recommendations": [[jobID, score], ...]}.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client (default: 10s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type recommendationResponse struct {
	Recommendations [][]any `json:"recommendations"`
}

// Recommendations returns the job ids the model ranks for the given
// preferences, best first.
func (c *Client) Recommendations(ctx context.Context, preferences []string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/recommendations/%s", c.baseURL, url.PathEscape(strings.Join(preferences, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recommendation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recommendation service returned status %d", resp.StatusCode)
	}

	var body recommendationResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode recommendations: %w", err)
	}

	ids := make([]string, 0, len(body.Recommendations))
	for _, pair := range body.Recommendations {
		if len(pair) == 0 {
			continue
		}
		if id, ok := pair[0].(string); ok {
			ids = append(ids, id)
		}
	}

	return ids, nil
}
