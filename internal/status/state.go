// Package status tracks the fetch lifecycle of a result pane.
package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/matheus3301/wpp-history/internal/bus"
)

// State represents the lifecycle state of one pane.
type State string

const (
	Idle         State = "IDLE"
	Loading      State = "LOADING"
	Loaded       State = "LOADED"
	Failed       State = "FAILED"
	Unconfigured State = "UNCONFIGURED"
)

// validTransitions defines allowed state transitions. Any state may go back
// to Idle through Reset.
var validTransitions = map[State][]State{
	Idle:         {Loading, Failed, Unconfigured},
	Loading:      {Loaded, Failed, Unconfigured},
	Loaded:       {Loading},
	Failed:       {Loading},
	Unconfigured: {Loading},
}

// Machine tracks and enforces the state transitions of one pane.
type Machine struct {
	mu        sync.RWMutex
	current   State
	pane      string
	sessionID string
	bus       *bus.Bus
}

// NewMachine creates a new state machine starting in Idle state. b may be nil.
func NewMachine(b *bus.Bus, sessionID, pane string) *Machine {
	return &Machine{
		current:   Idle,
		pane:      pane,
		sessionID: sessionID,
		bus:       b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("%s pane: invalid transition from %s to %s", m.pane, m.current, to)
	}
	m.set(to)
	return nil
}

// Reset moves the pane back to Idle from any state.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != Idle {
		m.set(Idle)
	}
}

func (m *Machine) set(to State) {
	from := m.current
	m.current = to
	m.bus.Publish(bus.Event{
		Kind:      bus.KindPaneStatusChanged,
		SessionID: m.sessionID,
		Payload: StatusChange{
			Pane: m.pane,
			From: from,
			To:   to,
		},
	})
}

// StatusChange is the payload for status change events.
type StatusChange struct {
	Pane string
	From State
	To   State
}
