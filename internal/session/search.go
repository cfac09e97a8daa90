package session

import (
	"context"

	"github.com/google/uuid"
	"github.com/matheus3301/wpp-history/internal/bus"
	"github.com/matheus3301/wpp-history/internal/history"
	"github.com/matheus3301/wpp-history/internal/phone"
	"github.com/matheus3301/wpp-history/internal/status"
)

// Begin starts a new search for query. It cancels the previous search's
// in-flight work, clears every result and error, and returns the new search
// ID. cancel is invoked when this search is superseded or the session is
// invalidated.
func (s *Session) Begin(query string, cancel context.CancelFunc) string {
	id := uuid.NewString()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.searchID = id
	s.cancel = cancel
	s.query = query
	s.address = phone.Address{}
	s.hasAddress = false
	s.conversations = nil
	s.selected = ""
	s.primaryErr = ""
	s.weni = nil
	s.secondaryErr = ""
	s.primary.Reset()
	s.secondary.Reset()
	s.mu.Unlock()

	s.bus.Publish(bus.Event{Kind: bus.KindSearchStarted, SessionID: s.ID, SearchID: id})
	return id
}

// CurrentSearch returns the ID of the latest search, or "".
func (s *Session) CurrentSearch() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchID
}

// update runs fn under the lock if id is still the current search.
func (s *Session) update(id string, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" || id != s.searchID {
		return false
	}
	fn()
	return true
}

// FailValidation records an input error; no request is made for this search.
func (s *Session) FailValidation(id, message string) bool {
	return s.update(id, func() {
		s.primaryErr = message
		_ = s.primary.Transition(status.Failed)
	})
}

// StartPrimary marks the primary pane as loading for addr.
func (s *Session) StartPrimary(id string, addr phone.Address) bool {
	return s.update(id, func() {
		s.address = addr
		s.hasAddress = true
		_ = s.primary.Transition(status.Loading)
	})
}

// CompletePrimary stores the conversation list and selects its first entry.
func (s *Session) CompletePrimary(id string, convs []history.Conversation) bool {
	ok := s.update(id, func() {
		if convs == nil {
			convs = []history.Conversation{}
		}
		s.conversations = convs
		s.selected = ""
		if len(convs) > 0 {
			s.selected = convs[0].SID
		}
		_ = s.primary.Transition(status.Loaded)
	})
	if ok {
		s.bus.Publish(bus.Event{Kind: bus.KindPrimaryDone, SessionID: s.ID, SearchID: id})
	}
	return ok
}

// FailPrimary records a primary fetch error.
func (s *Session) FailPrimary(id, message string) bool {
	ok := s.update(id, func() {
		s.primaryErr = message
		_ = s.primary.Transition(status.Failed)
	})
	if ok {
		s.bus.Publish(bus.Event{Kind: bus.KindPrimaryDone, SessionID: s.ID, SearchID: id, Payload: message})
	}
	return ok
}

// StartSecondary marks the secondary pane as loading.
func (s *Session) StartSecondary(id string) bool {
	return s.update(id, func() {
		_ = s.secondary.Transition(status.Loading)
	})
}

// SecondaryUnconfigured records that the secondary endpoint is not set up.
func (s *Session) SecondaryUnconfigured(id, message string) bool {
	ok := s.update(id, func() {
		s.secondaryErr = message
		_ = s.secondary.Transition(status.Unconfigured)
	})
	if ok {
		s.bus.Publish(bus.Event{Kind: bus.KindSecondaryDone, SessionID: s.ID, SearchID: id, Payload: message})
	}
	return ok
}

// CompleteSecondary stores the secondary history. It returns false, leaving
// state untouched, when id is no longer the current search.
func (s *Session) CompleteSecondary(id string, h *history.WeniHistory) bool {
	ok := s.update(id, func() {
		s.weni = h
		_ = s.secondary.Transition(status.Loaded)
	})
	s.publishSecondary(id, ok, nil)
	return ok
}

// FailSecondary records a secondary fetch error. Primary results are untouched.
func (s *Session) FailSecondary(id, message string) bool {
	ok := s.update(id, func() {
		s.secondaryErr = message
		_ = s.secondary.Transition(status.Failed)
	})
	s.publishSecondary(id, ok, message)
	return ok
}

func (s *Session) publishSecondary(id string, ok bool, payload any) {
	kind := bus.KindSecondaryDone
	if !ok {
		kind = bus.KindSecondaryDiscarded
	}
	s.bus.Publish(bus.Event{Kind: kind, SessionID: s.ID, SearchID: id, Payload: payload})
}

// Select changes the displayed conversation. It returns false when sid is not
// in the current list.
func (s *Session) Select(sid string) bool {
	s.mu.Lock()
	found := false
	for _, c := range s.conversations {
		if c.SID == sid {
			found = true
			break
		}
	}
	if found {
		s.selected = sid
	}
	s.mu.Unlock()

	if found {
		s.bus.Publish(bus.Event{Kind: bus.KindSelectionChanged, SessionID: s.ID, Payload: sid})
	}
	return found
}
