// Package fx fetches and caches currency exchange rates for the price
// normalizer.
package fx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pricelist/internal/config"
)

// Client talks to the external rate collaborator. The response maps each
// currency to the number of base-currency units one unit of that currency
// is worth, so converting a foreign price into the base is a multiply.
type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
}

type ratesResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Base    string             `json:"base"`
	Rates   map[string]float64 `json:"rates"`
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.FXTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.FXRateLimitRPS),
	}
}

func (c *Client) FetchRates(ctx context.Context, base string) (map[string]float64, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	if base == "" {
		return nil, errors.New("empty base currency")
	}

	u, err := url.Parse(strings.TrimRight(c.cfg.FXAPIBaseURL, "/") + "/latest")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("base", base)
	u.RawQuery = q.Encode()

	var lastErr error
	for attempt := 1; attempt <= 5; attempt++ {
		c.limiter.WaitTurn()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		if c.cfg.FXAPIToken != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.FXAPIToken)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < 5 {
				backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
				time.Sleep(backoff)
				lastErr = fmt.Errorf("fx status %d", resp.StatusCode)
				continue
			}
			return nil, fmt.Errorf("fx api error: status=%d body=%s", resp.StatusCode, string(body))
		}

		var payload ratesResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("decode fx response: %w", err)
		}
		if !payload.Success {
			return nil, fmt.Errorf("fx api unsuccessful: %s", payload.Message)
		}

		rates := make(map[string]float64, len(payload.Rates))
		for currency, rate := range payload.Rates {
			if rate > 0 {
				rates[strings.ToUpper(currency)] = rate
			}
		}
		return rates, nil
	}

	if lastErr == nil {
		lastErr = errors.New("fx request failed")
	}
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
