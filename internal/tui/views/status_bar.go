package views

import (
	"fmt"
	"time"

	"github.com/matheus3301/wpp-history/internal/session"
	"github.com/matheus3301/wpp-history/internal/status"
	"github.com/rivo/tview"
)

// StatusBar shows the auth mode, the last query and both pane states.
type StatusBar struct {
	*tview.TextView
	mode string
	now  func() time.Time
}

// NewStatusBar creates a new status bar. mode is shown verbatim.
func NewStatusBar(mode string) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	return &StatusBar{TextView: tv, mode: mode, now: time.Now}
}

// Update renders the bar from v.
func (sb *StatusBar) Update(v session.View) {
	sb.Clear()
	line := fmt.Sprintf(" [::b]%s[-:-:-]", sb.mode)
	if v.Query != "" {
		line += " | " + clean(v.Query)
	}
	line += fmt.Sprintf(" | primário %s | secundário %s | %s",
		paneState(v.Primary.Status), paneState(v.Secondary.Status), sb.now().Format("15:04"))
	_, _ = fmt.Fprint(sb, line)
}

func paneState(s status.State) string {
	switch s {
	case status.Loading:
		return "[yellow]carregando[-]"
	case status.Loaded:
		return "[green]ok[-]"
	case status.Failed:
		return "[red]erro[-]"
	case status.Unconfigured:
		return "[::d]não configurado[-:-:-]"
	default:
		return "-"
	}
}
