package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/matheus3301/wpp-history/internal/history"
	"github.com/matheus3301/wpp-history/internal/qr"
	"github.com/matheus3301/wpp-history/internal/session"
	"github.com/matheus3301/wpp-history/internal/status"
	"github.com/matheus3301/wpp-history/internal/tui/ui"
	"github.com/rivo/tview"
)

const botLabel = "Bot"

// ContactPane is the right pane: the chatbot contact summary and thread,
// plus a QR code of the click-to-chat link.
type ContactPane struct {
	*tview.TextView
	theme  *ui.Theme
	showQR bool
}

// NewContactPane creates a new contact pane.
func NewContactPane(theme *ui.Theme) *ContactPane {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Chatbot ")
	tv.SetTitleColor(theme.TitleColor)

	return &ContactPane{TextView: tv, theme: theme}
}

// ToggleQR switches the QR code on or off.
func (cp *ContactPane) ToggleQR() {
	cp.showQR = !cp.showQR
}

// Update renders the secondary part of v.
func (cp *ContactPane) Update(v session.View, loc *time.Location) {
	cp.Clear()
	label := ui.ColorTag(cp.theme.FgColor)
	muted := ui.ColorTag(cp.theme.MutedColor)
	field := func(name, value string) {
		if value != "" {
			_, _ = fmt.Fprintf(cp, "[%s::b]%s:[-:-:-] %s\n", label, name, clean(value))
		}
	}

	if v.HasAddress {
		field("Número", v.Address.Secondary)
		field("JID", v.Address.JID().String())
		field("Link", v.Address.ChatLink())
		if cp.showQR {
			if code, err := qr.Text(v.Address.ChatLink(), " "); err == nil {
				_, _ = fmt.Fprintf(cp, "\n%s", code)
			}
		}
		_, _ = fmt.Fprintln(cp)
	}

	switch v.Secondary.Status {
	case status.Idle:
		return
	case status.Loading:
		_, _ = fmt.Fprintf(cp, "[%s]Carregando...[-]\n", muted)
		return
	case status.Failed, status.Unconfigured:
		_, _ = fmt.Fprintf(cp, "[%s]%s[-]\n", ui.ColorTag(cp.theme.FlashErrColor), clean(v.Secondary.Err))
		return
	}

	h := v.Weni
	if h == nil {
		return
	}
	field("Nome", h.Contact.Name)
	field("Documento", h.Contact.Document)
	field("Última atividade", history.FormatTime(h.Contact.LastSeenOn, loc))
	field("Mensagens", fmt.Sprint(h.MessagesCount))
	if len(h.Groups) > 0 {
		names := make([]string, 0, len(h.Groups))
		for _, g := range h.Groups {
			names = append(names, g.Name)
		}
		field("Grupos", strings.Join(names, ", "))
	}
	_, _ = fmt.Fprintln(cp)

	bot := ui.ColorTag(cp.theme.AgentColor)
	customer := ui.ColorTag(cp.theme.CustomerColor)
	for _, m := range h.Messages {
		author, color := customerLabel, customer
		if m.IsBot() {
			author, color = botLabel, bot
		}
		ts := ""
		if m.HasTimestamp() {
			ts = history.FormatTime(m.Timestamp(), loc)
		}
		_, _ = fmt.Fprintf(cp, "[%s::b]%s[-:-:-] [::d]%s[-:-:-]\n%s\n\n", color, author, ts, clean(m.Text))
	}
	cp.ScrollToBeginning()
}
