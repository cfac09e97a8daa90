package views

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/wpp-history/internal/history"
	"github.com/matheus3301/wpp-history/internal/tui/ui"
	"github.com/rivo/tview"
)

const previewRunes = 60

// ConversationList is the left pane: one row per primary conversation.
type ConversationList struct {
	*tview.Table
	theme *ui.Theme
	convs []history.Conversation
}

// NewConversationList creates a new conversation list table.
func NewConversationList(theme *ui.Theme) *ConversationList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitle(" Conversas ")
	table.SetTitleColor(theme.TitleColor)

	return &ConversationList{
		Table: table,
		theme: theme,
	}
}

// Update replaces the rows and moves the cursor to selected.
func (cl *ConversationList) Update(convs []history.Conversation, selected string, loc *time.Location) {
	cl.convs = convs
	cl.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{" CONVERSA", 1},
		{" INÍCIO", 0},
		{" MSGS", 0},
		{" ÚLTIMA MENSAGEM", 2},
	}
	for col, h := range headers {
		cl.SetCell(0, col, tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(cl.theme.TableHeaderFg).
			SetBackgroundColor(cl.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp))
	}

	if len(convs) == 0 {
		cl.SetCell(1, 0, tview.NewTableCell(" "+textNoConversations).
			SetSelectable(false).
			SetTextColor(cl.theme.MutedColor))
		cl.SetTitle(" Conversas ")
		return
	}

	for i, c := range convs {
		row := i + 1
		cl.SetCell(row, 0, tview.NewTableCell(" "+clean(c.Title())).SetExpansion(1).SetTextColor(cl.theme.FgColor))
		cl.SetCell(row, 1, tview.NewTableCell(" "+history.FormatTime(c.CreatedAt, loc)).SetTextColor(cl.theme.FgColor))
		cl.SetCell(row, 2, tview.NewTableCell(strconv.Itoa(len(c.Messages))).SetAlign(tview.AlignRight).SetTextColor(cl.theme.FgColor))
		cl.SetCell(row, 3, tview.NewTableCell(" "+clean(c.Preview(previewRunes))).SetExpansion(2).SetTextColor(cl.theme.FgColor))
		if c.SID == selected {
			cl.Select(row, 0)
		}
	}
	cl.SetTitle(fmt.Sprintf(" Conversas (%d) ", len(convs)))
}

// SIDAt returns the conversation SID shown on row, or "".
func (cl *ConversationList) SIDAt(row int) string {
	idx := row - 1
	if idx < 0 || idx >= len(cl.convs) {
		return ""
	}
	return cl.convs[idx].SID
}

// SelectedSID returns the SID under the cursor.
func (cl *ConversationList) SelectedSID() string {
	row, _ := cl.GetSelection()
	return cl.SIDAt(row)
}
