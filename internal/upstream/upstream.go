// Package upstream holds the HTTP plumbing shared by the two history clients.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Source names used in logs and metrics.
const (
	SourcePrimary   = "primary"
	SourceSecondary = "secondary"
)

// Outcomes recorded per upstream call.
const (
	OutcomeOK           = "ok"
	OutcomeUnauthorized = "unauthorized"
	OutcomeHTTPError    = "http_error"
	OutcomeTransport    = "transport_error"
	OutcomeDecode       = "decode_error"
	OutcomeCanceled     = "canceled"
)

// maxErrorBody bounds how much of a failed response is read looking for a message.
const maxErrorBody = 64 << 10

// ErrDecode wraps a success response whose body could not be decoded.
var ErrDecode = errors.New("decode response")

// Observer receives one observation per upstream call.
type Observer interface {
	ObserveUpstream(source, outcome string, d time.Duration)
}

// HTTPError is a non-success response from an upstream.
type HTTPError struct {
	Source  string
	Status  int
	Message string // from the JSON "error" field, or a generic status line
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Source, e.Status, e.Message)
}

// ErrorFromResponse builds an HTTPError from resp, using the JSON body's
// "error" field when present and "Erro HTTP <status>" otherwise.
func ErrorFromResponse(source string, resp *http.Response) *HTTPError {
	e := &HTTPError{Source: source, Status: resp.StatusCode}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&body); err == nil && body.Error != "" {
		e.Message = body.Error
	} else {
		e.Message = fmt.Sprintf("Erro HTTP %d", resp.StatusCode)
	}
	return e
}

// Drain discards the rest of a body so the connection can be reused.
func Drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()
}

// Outcome classifies err for metrics.
func Outcome(err error) string {
	var httpErr *HTTPError
	switch {
	case err == nil:
		return OutcomeOK
	case errors.As(err, &httpErr):
		return OutcomeHTTPError
	case errors.Is(err, ErrDecode):
		return OutcomeDecode
	case errors.Is(err, context.Canceled):
		return OutcomeCanceled
	default:
		return OutcomeTransport
	}
}
