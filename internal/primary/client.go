// Package primary is the client for the WhatsApp conversation history endpoint.
package primary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/matheus3301/wpp-history/internal/phone"
	"github.com/matheus3301/wpp-history/internal/upstream"
	"go.uber.org/zap"
)

// ErrUnauthorized is returned when the endpoint rejects the session credential.
var ErrUnauthorized = errors.New("primary: credential rejected")

// Auth modes.
const (
	AuthPassword = "password"
	AuthAPIKey   = "api_key"
)

// Options configures a Client.
type Options struct {
	URL      string
	AuthMode string
	APIKey   string
	Timeout  time.Duration
}

// Client posts lookups to the history endpoint.
type Client struct {
	opts     Options
	http     *http.Client
	observer upstream.Observer
	logger   *zap.Logger
}

// NewClient creates a client. observer may be nil.
func NewClient(opts Options, observer upstream.Observer, logger *zap.Logger) *Client {
	return &Client{
		opts:     opts,
		http:     &http.Client{Timeout: opts.Timeout},
		observer: observer,
		logger:   logger.Named("primary"),
	}
}

// UsesPassword reports whether lookups carry the session credential.
func (c *Client) UsesPassword() bool {
	return c.opts.AuthMode != AuthAPIKey
}

// Fetch looks up the conversations of address. password is sent only in
// password mode. A 401 in password mode yields ErrUnauthorized.
func (c *Client) Fetch(ctx context.Context, address, password string) (*Result, error) {
	start := time.Now()
	res, err := c.fetch(ctx, address, password)

	outcome := upstream.Outcome(err)
	if errors.Is(err, ErrUnauthorized) {
		outcome = upstream.OutcomeUnauthorized
	}
	if c.observer != nil {
		c.observer.ObserveUpstream(upstream.SourcePrimary, outcome, time.Since(start))
	}

	fields := []zap.Field{
		zap.String("address", phone.Mask(address)),
		zap.String("outcome", outcome),
		zap.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		c.logger.Warn("history lookup failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	c.logger.Info("history lookup", append(fields, zap.Int("conversations", len(res.Conversations)))...)
	return res, nil
}

func (c *Client) fetch(ctx context.Context, address, password string) (*Result, error) {
	body := fetchRequest{Address: address}
	if c.UsesPassword() {
		body.Password = password
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.opts.AuthMode == AuthAPIKey {
		req.Header.Set("X-API-Key", c.opts.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer upstream.Drain(resp)

	if resp.StatusCode == http.StatusUnauthorized && c.UsesPassword() {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, upstream.ErrorFromResponse(upstream.SourcePrimary, resp)
	}

	var w wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&w); err != nil {
		return nil, fmt.Errorf("%w: %v", upstream.ErrDecode, err)
	}
	return mapResponse(&w), nil
}
