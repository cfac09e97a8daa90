package views

import (
	"fmt"

	"github.com/matheus3301/wpp-history/internal/tui/ui"
	"github.com/rivo/tview"
)

// HelpView displays the key binding reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Ajuda ")
	tv.SetTitleColor(theme.TitleColor)

	hv := &HelpView{
		TextView: tv,
		theme:    theme,
	}
	hv.render()
	return hv
}

// Name implements ui.Component.
func (hv *HelpView) Name() string { return "Ajuda" }

// Hints implements ui.Component.
func (hv *HelpView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Voltar"},
	}
}

func (hv *HelpView) render() {
	kc := ui.ColorTag(hv.theme.MenuKeyColor)
	rows := []struct{ key, desc string }{
		{"/", "Focar a busca por número"},
		{"Enter", "Buscar (na busca) / abrir conversa (na lista)"},
		{"Tab", "Alternar entre busca, lista, conversa e chatbot"},
		{"r", "Mostrar ou ocultar o QR do link wa.me"},
		{"L", "Encerrar a sessão e voltar à senha"},
		{"?", "Esta ajuda"},
		{"q", "Sair"},
	}
	_, _ = fmt.Fprint(hv, "\n  [::b]Atalhos[-:-:-]\n\n")
	for _, r := range rows {
		_, _ = fmt.Fprintf(hv, "  [%s]%-6s[-] %s\n", kc, r.key, r.desc)
	}
}
