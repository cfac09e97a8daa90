package views

import (
	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/wpp-history/internal/tui/ui"
	"github.com/rivo/tview"
)

// SearchBar is the customer number input above the panes.
type SearchBar struct {
	*tview.InputField
	onSubmit func(number string)
}

// NewSearchBar creates a new search bar.
func NewSearchBar(theme *ui.Theme) *SearchBar {
	input := tview.NewInputField().
		SetLabel(" Número do cliente (WhatsApp): ").
		SetPlaceholder("+5513997254841").
		SetFieldWidth(0)
	input.SetBorder(true)
	input.SetBorderColor(theme.BorderColor)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)
	input.SetTitle(" Histórico de Conversas ")
	input.SetTitleColor(theme.TitleColor)

	sb := &SearchBar{InputField: input}
	input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && sb.onSubmit != nil {
			sb.onSubmit(input.GetText())
		}
	})
	return sb
}

// SetOnSubmit sets the callback for Enter.
func (sb *SearchBar) SetOnSubmit(fn func(number string)) {
	sb.onSubmit = fn
}
