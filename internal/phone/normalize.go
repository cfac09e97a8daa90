// Package phone turns operator input into the two address forms the history
// backends expect.
package phone

import (
	"errors"
	"strings"

	"go.mau.fi/whatsmeow/types"
)

// TransportPrefix marks a WhatsApp address on the primary system.
const TransportPrefix = "whatsapp:"

var (
	ErrEmpty  = errors.New("phone number is empty")
	ErrFormat = errors.New(`phone number must start with "+"`)
)

// Address is a validated customer number.
type Address struct {
	// Primary is the prefixed form, e.g. "whatsapp:+5513997254841".
	Primary string
	// Secondary is the bare international form, e.g. "+5513997254841".
	Secondary string
}

// Normalize trims raw, strips a transport prefix if present and requires the
// remainder to start with "+".
func Normalize(raw string) (Address, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Address{}, ErrEmpty
	}
	bare := strings.TrimPrefix(s, TransportPrefix)
	if !strings.HasPrefix(bare, "+") {
		return Address{}, ErrFormat
	}
	return Address{
		Primary:   TransportPrefix + bare,
		Secondary: bare,
	}, nil
}

// Digits returns the number without the leading "+".
func (a Address) Digits() string {
	return strings.TrimPrefix(a.Secondary, "+")
}

// JID returns the WhatsApp user JID for the number.
func (a Address) JID() types.JID {
	return types.NewJID(a.Digits(), types.DefaultUserServer)
}

// ChatLink returns the click-to-chat URL for the number.
func (a Address) ChatLink() string {
	return "https://wa.me/" + a.Digits()
}

// Mask hides all but the last four characters of a number for logging.
func Mask(number string) string {
	number = strings.TrimPrefix(number, TransportPrefix)
	if len(number) <= 4 {
		return strings.Repeat("*", len(number))
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}
