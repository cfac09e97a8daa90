package history

import (
	"slices"
	"time"
)

// SortNewestFirst orders conversations by creation date, most recent first.
// Conversations created at the same instant keep their relative order.
func SortNewestFirst(convs []Conversation) {
	slices.SortStableFunc(convs, func(a, b Conversation) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

// SortChronological orders secondary messages oldest first by Timestamp.
func SortChronological(msgs []WeniMessage) {
	slices.SortStableFunc(msgs, func(a, b WeniMessage) int {
		return a.Timestamp().Compare(b.Timestamp())
	})
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// ParseTime parses the timestamp formats both backends emit. Unparseable or
// empty input yields the zero time.
func ParseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// DisplayLayout renders dates as day/month/year with seconds.
const DisplayLayout = "02/01/2006 15:04:05"

// FormatTime renders t in loc, or "" for the zero time.
func FormatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(DisplayLayout)
}
