package views

import (
	"fmt"
	"time"

	"github.com/matheus3301/wpp-history/internal/history"
	"github.com/matheus3301/wpp-history/internal/tui/ui"
	"github.com/rivo/tview"
)

// Placeholder texts.
const (
	textNoConversations = "Nenhuma conversa encontrada."
	textPickOne         = "Selecione uma conversa na lista ao lado."
	textNoMessages      = "Essa conversa não possui mensagens."
	textNoSelection     = "Nenhuma conversa selecionada."
	customerLabel       = "Cliente"
)

// MessageThread is the middle pane: the selected conversation's messages.
type MessageThread struct {
	*tview.TextView
	theme *ui.Theme
}

// NewMessageThread creates a new message thread view.
func NewMessageThread(theme *ui.Theme) *MessageThread {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Conversa ")
	tv.SetTitleColor(theme.TitleColor)

	return &MessageThread{TextView: tv, theme: theme}
}

// Update renders conv, or the placeholder when nothing is selected.
func (mt *MessageThread) Update(conv *history.Conversation, loc *time.Location) {
	mt.Clear()
	muted := ui.ColorTag(mt.theme.MutedColor)

	if conv == nil {
		mt.SetTitle(" Conversa ")
		_, _ = fmt.Fprintf(mt, "[%s]%s\n\n%s[-]", muted, textPickOne, textNoSelection)
		return
	}

	mt.SetTitle(fmt.Sprintf(" %s ", clean(conv.Title())))
	_, _ = fmt.Fprintf(mt, "[%s]Criada em %s • %d mensagens[-]\n\n",
		muted, history.FormatTime(conv.CreatedAt, loc), len(conv.Messages))

	if len(conv.Messages) == 0 {
		_, _ = fmt.Fprintf(mt, "[%s]%s[-]", muted, textNoMessages)
		return
	}

	agent := ui.ColorTag(mt.theme.AgentColor)
	customer := ui.ColorTag(mt.theme.CustomerColor)
	for _, m := range conv.Messages {
		author, color := customerLabel, customer
		if m.IsAgent() {
			author, color = m.Author, agent
		}
		_, _ = fmt.Fprintf(mt, "[%s::b]%s[-:-:-] [::d]%s[-:-:-]\n%s\n\n",
			color, clean(author), history.FormatTime(m.CreatedAt, loc), clean(m.Body))
	}
	mt.ScrollToBeginning()
}
