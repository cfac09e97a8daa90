// Package history holds the conversation records fetched from both backends.
package history

import (
	"strings"
	"time"

	"github.com/matheus3301/wpp-history/internal/phone"
)

// Message is one entry of a primary-system conversation.
type Message struct {
	SID       string
	Author    string
	Body      string
	CreatedAt time.Time
}

// IsAgent reports whether the message was written by an agent. Customer
// authors carry the transport prefix; an empty author is treated as the customer.
func (m Message) IsAgent() bool {
	return m.Author != "" && !strings.HasPrefix(m.Author, phone.TransportPrefix)
}

// Conversation is a primary-system conversation with its messages in the
// order the backend returned them.
type Conversation struct {
	SID          string
	FriendlyName string
	CreatedAt    time.Time
	Messages     []Message
}

// Title returns the friendly name, falling back to the SID.
func (c Conversation) Title() string {
	if c.FriendlyName != "" {
		return c.FriendlyName
	}
	return c.SID
}

// Preview returns the first n runes of the last message body, with "..."
// appended when it was cut.
func (c Conversation) Preview(n int) string {
	if len(c.Messages) == 0 {
		return ""
	}
	return Truncate(c.Messages[len(c.Messages)-1].Body, n)
}

// Direction values of secondary-system messages.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// WeniContact is the contact record of the secondary system.
type WeniContact struct {
	Name       string
	Document   string
	LastSeenOn time.Time
}

// WeniGroup is a contact group membership.
type WeniGroup struct {
	UUID string
	Name string
}

// WeniMessage is one chatbot-flow message.
type WeniMessage struct {
	ID        string
	CreatedOn time.Time
	SentOn    time.Time
	Direction string
	Text      string
}

// IsBot reports whether the message was sent by the flow rather than the customer.
func (m WeniMessage) IsBot() bool {
	return m.Direction == DirectionOut
}

// HasTimestamp reports whether the backend sent either timestamp.
func (m WeniMessage) HasTimestamp() bool {
	return !m.CreatedOn.IsZero() || !m.SentOn.IsZero()
}

// Timestamp returns CreatedOn, then SentOn, then the Unix epoch.
func (m WeniMessage) Timestamp() time.Time {
	switch {
	case !m.CreatedOn.IsZero():
		return m.CreatedOn
	case !m.SentOn.IsZero():
		return m.SentOn
	default:
		return time.Unix(0, 0).UTC()
	}
}

// WeniHistory is the full secondary-system answer for one number.
type WeniHistory struct {
	Contact       WeniContact
	MessagesCount int
	Groups        []WeniGroup
	Messages      []WeniMessage
}

// Truncate cuts s to n runes, appending "..." when something was removed.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
