package session

import (
	"slices"

	"github.com/matheus3301/wpp-history/internal/history"
	"github.com/matheus3301/wpp-history/internal/phone"
	"github.com/matheus3301/wpp-history/internal/status"
)

// PaneView is the rendered state of one pane.
type PaneView struct {
	Status status.State
	Err    string
}

// Loading reports whether the pane is waiting for its fetch.
func (p PaneView) Loading() bool {
	return p.Status == status.Loading
}

// View is a point-in-time copy of a session, safe to render without locks.
type View struct {
	SessionID  string
	SearchID   string
	Authorized bool
	Query      string

	Address    phone.Address
	HasAddress bool

	Primary       PaneView
	Conversations []history.Conversation
	Selected      *history.Conversation

	Secondary PaneView
	Weni      *history.WeniHistory
}

// Settled reports whether no pane is loading.
func (v View) Settled() bool {
	return !v.Primary.Loading() && !v.Secondary.Loading()
}

// Snapshot returns the current view. Fetched records are immutable, so the
// slices are shared shallowly.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		SessionID:     s.ID,
		SearchID:      s.searchID,
		Authorized:    s.authorized,
		Query:         s.query,
		Address:       s.address,
		HasAddress:    s.hasAddress,
		Primary:       PaneView{Status: s.primary.Current(), Err: s.primaryErr},
		Conversations: slices.Clone(s.conversations),
		Secondary:     PaneView{Status: s.secondary.Current(), Err: s.secondaryErr},
		Weni:          s.weni,
	}
	for i := range v.Conversations {
		if v.Conversations[i].SID == s.selected {
			v.Selected = &v.Conversations[i]
			break
		}
	}
	return v
}
