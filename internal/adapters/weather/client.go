// Package weather forwards the forecast document from the upstream
// backend without transforming it.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxForecastBytes = 4 << 20

type Client struct {
	upstream string
	client   *http.Client
	timeout  time.Duration
}

func NewClient(upstream string, timeout time.Duration, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		upstream: upstream,
		client:   httpClient,
		timeout:  timeout,
	}
}

// FetchForecast returns the upstream JSON body verbatim.
func (c *Client) FetchForecast(ctx context.Context) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.upstream, nil)
	if err != nil {
		return nil, fmt.Errorf("build weather request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather upstream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("backend API error: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxForecastBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read weather body: %w", err)
	}
	if len(body) > maxForecastBytes {
		return nil, errors.New("weather body too large")
	}
	if !json.Valid(body) {
		return nil, errors.New("weather upstream returned invalid JSON")
	}
	return json.RawMessage(body), nil
}
