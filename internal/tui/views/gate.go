package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/wpp-history/internal/tui/ui"
	"github.com/rivo/tview"
)

// Gate asks for the access password before the viewer is shown.
type Gate struct {
	*tview.Flex
	theme    *ui.Theme
	text     *tview.TextView
	input    *tview.InputField
	onSubmit func(password string)
}

// NewGate creates the access gate, centered on screen.
func NewGate(theme *ui.Theme) *Gate {
	text := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	text.SetBackgroundColor(theme.BgColor)
	text.SetTextColor(theme.FgColor)

	input := tview.NewInputField().
		SetLabel(" Senha: ").
		SetPlaceholder("Digite a senha").
		SetMaskCharacter('*').
		SetFieldWidth(0)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)
	input.SetBackgroundColor(theme.BgColor)

	box := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(text, 0, 1, false).
		AddItem(input, 1, 0, true)
	box.SetBorder(true)
	box.SetBorderColor(theme.BorderColor)
	box.SetBackgroundColor(theme.BgColor)
	box.SetTitle(" Acesso restrito ")
	box.SetTitleColor(theme.TitleColor)

	centered := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().
			SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(box, 12, 0, true).
			AddItem(nil, 0, 1, false), 64, 0, true).
		AddItem(nil, 0, 1, false)

	g := &Gate{
		Flex:  centered,
		theme: theme,
		text:  text,
		input: input,
	}
	input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && g.onSubmit != nil {
			pw := input.GetText()
			input.SetText("")
			g.onSubmit(pw)
		}
	})
	g.ShowError("")
	return g
}

// Name implements ui.Component.
func (g *Gate) Name() string { return "Acesso" }

// Hints implements ui.Component.
func (g *Gate) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Entrar"},
		{Key: "Ctrl-C", Description: "Sair"},
	}
}

// SetOnSubmit sets the callback for Enter.
func (g *Gate) SetOnSubmit(fn func(password string)) {
	g.onSubmit = fn
}

// ShowError renders the gate text with msg below it.
func (g *Gate) ShowError(msg string) {
	g.text.Clear()
	_, _ = fmt.Fprint(g.text, "\nEste painel é destinado apenas a pessoas autorizadas.\nInforme a senha de acesso para continuar.\n")
	if msg != "" {
		_, _ = fmt.Fprintf(g.text, "\n[%s]%s[-]\n", ui.ColorTag(g.theme.FlashErrColor), tview.Escape(msg))
	}
	_, _ = fmt.Fprintf(g.text, "\n[%s]Compartilhe esta senha apenas com pessoas autorizadas.[-]", ui.ColorTag(g.theme.MutedColor))
}

// Input returns the password field.
func (g *Gate) Input() *tview.InputField {
	return g.input
}
