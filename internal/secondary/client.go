// Package secondary is the client for the chatbot contact history endpoint.
package secondary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/matheus3301/wpp-history/internal/history"
	"github.com/matheus3301/wpp-history/internal/phone"
	"github.com/matheus3301/wpp-history/internal/upstream"
	"go.uber.org/zap"
)

// ErrNotConfigured is returned by Fetch when no endpoint URL is set.
var ErrNotConfigured = errors.New("secondary: endpoint not configured")

// Client queries the chatbot history endpoint by plain phone number.
type Client struct {
	baseURL  string
	http     *http.Client
	observer upstream.Observer
	logger   *zap.Logger
}

// NewClient creates a client. An empty baseURL yields a client whose Fetch
// always fails with ErrNotConfigured. observer may be nil.
func NewClient(baseURL string, timeout time.Duration, observer upstream.Observer, logger *zap.Logger) *Client {
	return &Client{
		baseURL:  baseURL,
		http:     &http.Client{Timeout: timeout},
		observer: observer,
		logger:   logger.Named("secondary"),
	}
}

// Configured reports whether an endpoint URL is set.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// Fetch returns the contact, counters and messages for number, with messages
// sorted oldest first.
func (c *Client) Fetch(ctx context.Context, number string) (*history.WeniHistory, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	start := time.Now()
	h, err := c.fetch(ctx, number)
	outcome := upstream.Outcome(err)
	if c.observer != nil {
		c.observer.ObserveUpstream(upstream.SourceSecondary, outcome, time.Since(start))
	}

	fields := []zap.Field{
		zap.String("number", phone.Mask(number)),
		zap.String("outcome", outcome),
		zap.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		c.logger.Warn("contact history lookup failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	c.logger.Info("contact history lookup", append(fields, zap.Int("messages", len(h.Messages)))...)
	return h, nil
}

func (c *Client) fetch(ctx context.Context, number string) (*history.WeniHistory, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	q.Set("whatsapp", number)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer upstream.Drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, upstream.ErrorFromResponse(upstream.SourceSecondary, resp)
	}

	var w wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&w); err != nil {
		return nil, fmt.Errorf("%w: %v", upstream.ErrDecode, err)
	}
	return mapResponse(&w), nil
}
