// Package session holds what a viewer session owns: the operator credential
// entered at the access gate and the state of the current search.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/matheus3301/wpp-history/internal/bus"
	"github.com/matheus3301/wpp-history/internal/history"
	"github.com/matheus3301/wpp-history/internal/phone"
	"github.com/matheus3301/wpp-history/internal/status"
)

// ErrEmptyCredential is returned by Authorize for blank input.
var ErrEmptyCredential = errors.New("credential is empty")

// Pane names.
const (
	PanePrimary   = "primary"
	PaneSecondary = "secondary"
)

// Session is one operator's viewer session. All methods are safe for
// concurrent use.
type Session struct {
	ID  string
	bus *bus.Bus

	mu          sync.Mutex
	credential  string
	authorized  bool
	gateMessage string
	lastSeen    time.Time

	searchID      string
	cancel        context.CancelFunc
	query         string
	address       phone.Address
	hasAddress    bool
	conversations []history.Conversation
	selected      string
	primaryErr    string
	weni          *history.WeniHistory
	secondaryErr  string

	primary   *status.Machine
	secondary *status.Machine
}

// New creates an unauthorized session. b may be nil.
func New(id string, b *bus.Bus) *Session {
	return &Session{
		ID:        id,
		bus:       b,
		lastSeen:  time.Now(),
		primary:   status.NewMachine(b, id, PanePrimary),
		secondary: status.NewMachine(b, id, PaneSecondary),
	}
}

// Authorize stores the trimmed credential and opens the gate. Nothing is
// checked against the backend here.
func (s *Session) Authorize(credential string) error {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return ErrEmptyCredential
	}
	s.mu.Lock()
	s.credential = credential
	s.authorized = true
	s.gateMessage = ""
	s.mu.Unlock()

	s.bus.Publish(bus.Event{Kind: bus.KindSessionAuthorized, SessionID: s.ID})
	return nil
}

// AuthorizeWithoutCredential opens the gate for deployments that
// authenticate with a static API key.
func (s *Session) AuthorizeWithoutCredential() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authorized = true
}

// Authorized reports whether the gate is open.
func (s *Session) Authorized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authorized
}

// Credential returns the stored credential.
func (s *Session) Credential() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credential, s.credential != ""
}

// Invalidate drops the credential, closes the gate and abandons the current
// search: its in-flight work is cancelled, late results are discarded and a
// loading pane goes back to Idle. message is shown on the gate next time it
// is rendered.
func (s *Session) Invalidate(message string) {
	s.mu.Lock()
	s.credential = ""
	s.authorized = false
	s.gateMessage = message
	s.searchID = ""
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	for _, m := range []*status.Machine{s.primary, s.secondary} {
		if m.Current() == status.Loading {
			m.Reset()
		}
	}
	s.mu.Unlock()

	s.bus.Publish(bus.Event{Kind: bus.KindSessionInvalidated, SessionID: s.ID, Payload: message})
}

// GateMessage returns the pending gate message and clears it.
func (s *Session) GateMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.gateMessage
	s.gateMessage = ""
	return msg
}

// SetGateMessage sets the message shown on the gate without touching the credential.
func (s *Session) SetGateMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gateMessage = message
}

// Touch records activity at t.
func (s *Session) Touch(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = t
}

// LastSeen returns the time of the last recorded activity.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Close cancels in-flight search work.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
