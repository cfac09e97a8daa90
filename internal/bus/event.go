package bus

import "time"

// Event kinds published by the viewer.
const (
	KindSearchStarted      = "search.started"
	KindPrimaryDone        = "search.primary_done"
	KindSecondaryDone      = "search.secondary_done"
	KindSecondaryDiscarded = "search.secondary_discarded"
	KindSelectionChanged   = "search.selection_changed"
	KindPaneStatusChanged  = "pane.status_changed"
	KindSessionAuthorized  = "session.authorized"
	KindSessionInvalidated = "session.invalidated"
	KindSessionExpired     = "session.expired"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	SessionID string
	SearchID  string
	Timestamp time.Time
	Payload   any
}
