package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// Menu displays the keyboard shortcuts of the current page on one line.
type Menu struct {
	*tview.TextView
	theme *Theme
}

// NewMenu creates a new menu hint bar.
func NewMenu(theme *Theme) *Menu {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBackgroundColor(theme.BgColor)

	return &Menu{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders hints side by side.
func (m *Menu) Update(hints []MenuHint) {
	m.Clear()
	kc := ColorTag(m.theme.MenuKeyColor)
	for _, h := range hints {
		_, _ = fmt.Fprintf(m, " [%s::b]<%s>[-:-:-] %s ", kc, h.Key, h.Description)
	}
}
