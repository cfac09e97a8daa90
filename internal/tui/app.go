// Package tui is the terminal front end of the history viewer.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/wpp-history/internal/bus"
	"github.com/matheus3301/wpp-history/internal/primary"
	"github.com/matheus3301/wpp-history/internal/session"
	"github.com/matheus3301/wpp-history/internal/tui/keys"
	"github.com/matheus3301/wpp-history/internal/tui/ui"
	"github.com/matheus3301/wpp-history/internal/tui/views"
	"github.com/matheus3301/wpp-history/internal/viewer"
	"github.com/rivo/tview"
)

// Page names.
const (
	pageGate   = "gate"
	pageViewer = "viewer"
	pageHelp   = "help"
)

// App is the main TUI application shell.
type App struct {
	app      *tview.Application
	pages    *ui.Pages
	theme    *ui.Theme
	registry *keys.Registry
	flash    *ui.FlashModel

	viewer *viewer.Viewer
	sess   *session.Session
	bus    *bus.Bus
	loc    *time.Location

	menu      *ui.Menu
	flashBar  *ui.FlashBar
	statusBar *views.StatusBar
	gate      *views.Gate
	search    *views.SearchBar
	list      *views.ConversationList
	thread    *views.MessageThread
	contact   *views.ContactPane
	help      *views.HelpView

	focus []tview.Primitive

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI for sess. In api key mode the caller authorizes
// sess beforehand and the gate is never shown.
func NewApp(v *viewer.Viewer, sess *session.Session, b *bus.Bus, loc *time.Location) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	mode := "senha"
	if !v.RequiresCredential() {
		mode = "api key"
	}

	a := &App{
		app:       tview.NewApplication(),
		pages:     ui.NewPages(),
		theme:     theme,
		registry:  keys.NewRegistry(),
		flash:     ui.NewFlashModel(),
		viewer:    v,
		sess:      sess,
		bus:       b,
		loc:       loc,
		menu:      ui.NewMenu(theme),
		flashBar:  ui.NewFlashBar(theme),
		statusBar: views.NewStatusBar(mode),
		gate:      views.NewGate(theme),
		search:    views.NewSearchBar(theme),
		list:      views.NewConversationList(theme),
		thread:    views.NewMessageThread(theme),
		contact:   views.NewContactPane(theme),
		help:      views.NewHelpView(theme),
		ctx:       ctx,
		cancel:    cancel,
	}
	a.focus = []tview.Primitive{a.search, a.list, a.thread, a.contact}

	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()
	return a
}

func (a *App) setupBindings() {
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: 'q', Label: "q", Description: "Sair",
		Handler: a.Stop,
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: '?', Label: "?", Description: "Ajuda",
		Handler: func() {
			a.pages.Push(pageHelp)
			a.app.SetFocus(a.help)
		},
	})

	a.registry.AddPage(pageViewer, &keys.Action{
		Key: tcell.KeyRune, Rune: '/', Label: "/", Description: "Buscar",
		Handler: func() { a.app.SetFocus(a.search) },
	})
	a.registry.AddPage(pageViewer, &keys.Action{
		Key: tcell.KeyTab, Label: "Tab", Description: "Painel",
		Handler: a.cycleFocus,
	})
	a.registry.AddPage(pageViewer, &keys.Action{
		Key: tcell.KeyRune, Rune: 'r', Label: "r", Description: "QR",
		Handler: func() {
			a.contact.ToggleQR()
			a.refresh()
		},
	})
	if a.viewer.RequiresCredential() {
		a.registry.AddPage(pageViewer, &keys.Action{
			Key: tcell.KeyRune, Rune: 'L', Label: "L", Description: "Sair da sessão",
			Handler: func() { a.sess.Invalidate("") },
		})
	}
	a.registry.AddPage(pageHelp, &keys.Action{
		Key: tcell.KeyEscape, Label: "Esc", Description: "Voltar",
		Handler: func() {
			a.pages.Pop()
			a.app.SetFocus(a.search)
		},
	})
}

func (a *App) setupCallbacks() {
	a.gate.SetOnSubmit(func(password string) {
		if err := a.sess.Authorize(password); err != nil {
			a.gate.ShowError(viewer.UserMessage(err))
			return
		}
		a.refresh()
	})

	a.search.SetOnSubmit(func(number string) {
		go func() {
			err := a.viewer.Search(a.ctx, a.sess, number)
			switch {
			case err == nil, errors.Is(err, viewer.ErrNoCredential), errors.Is(err, primary.ErrUnauthorized):
				// Recorded on the session; the gate shows it.
			default:
				a.flash.Err(viewer.UserMessage(err))
			}
			a.app.QueueUpdateDraw(a.refresh)
		}()
	})

	a.list.SetSelectedFunc(func(row, _ int) {
		if sid := a.list.SIDAt(row); sid != "" {
			a.sess.Select(sid)
			a.app.SetFocus(a.thread)
		}
	})

	a.pages.SetOnChange(func(top string) {
		switch top {
		case pageGate:
			a.menu.Update(a.gate.Hints())
		case pageHelp:
			a.menu.Update(a.help.Hints())
		default:
			a.menu.Update(a.registry.Hints(top))
		}
	})
}

func (a *App) setupLayout() {
	panes := tview.NewFlex().
		AddItem(a.list, 0, 3, false).
		AddItem(a.thread, 0, 4, false).
		AddItem(a.contact, 0, 3, false)
	main := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.search, 3, 0, true).
		AddItem(panes, 0, 1, false)

	a.pages.AddPage(pageGate, a.gate, true, false)
	a.pages.AddPage(pageViewer, main, true, false)
	a.pages.AddPage(pageHelp, a.help, true, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.menu, 1, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.flashBar, 1, 0, false).
		AddItem(a.statusBar, 1, 0, false)
	a.app.SetRoot(root, true)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		page := a.pages.Current()

		// Text inputs keep their keys; Tab and Esc still move focus away.
		if isTextInput(a.app.GetFocus()) {
			if page == pageViewer && event.Key() == tcell.KeyTab {
				a.cycleFocus()
				return nil
			}
			return event
		}
		if page == pageViewer && event.Key() == tcell.KeyEscape {
			a.app.SetFocus(a.search)
			return nil
		}
		if a.registry.HandleEvent(page, event) {
			return nil
		}
		return event
	})
}

func isTextInput(p tview.Primitive) bool {
	switch p.(type) {
	case *tview.InputField, *views.SearchBar:
		return true
	}
	return false
}

func (a *App) cycleFocus() {
	current := a.app.GetFocus()
	next := 0
	for i, p := range a.focus {
		if p == current {
			next = (i + 1) % len(a.focus)
			break
		}
	}
	a.app.SetFocus(a.focus[next])
}

// refresh re-renders every pane from the session snapshot. It must run on
// the UI goroutine.
func (a *App) refresh() {
	v := a.sess.Snapshot()
	a.statusBar.Update(v)
	a.flashBar.Update(a.flash.Current())

	if !v.Authorized {
		if a.pages.Current() != pageGate {
			a.gate.ShowError(a.sess.GateMessage())
			a.pages.Reset(pageGate)
			a.app.SetFocus(a.gate.Input())
		}
		return
	}
	if a.pages.Current() == pageGate || a.pages.Current() == "" {
		a.pages.Reset(pageViewer)
		a.app.SetFocus(a.search)
	}

	var selected string
	if v.Selected != nil {
		selected = v.Selected.SID
	}
	a.list.Update(v.Conversations, selected, a.loc)
	a.thread.Update(v.Selected, a.loc)
	a.contact.Update(v, a.loc)
}

func (a *App) watch(events <-chan bus.Event) {
	for {
		select {
		case <-events:
			a.app.QueueUpdateDraw(a.refresh)
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) tick() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.app.QueueUpdateDraw(func() {
				a.flashBar.Update(a.flash.Current())
			})
		case <-a.ctx.Done():
			return
		}
	}
}

// Run starts the TUI and blocks until it exits.
func (a *App) Run() error {
	events, unsubscribe := a.bus.SubscribeSession(a.sess.ID, "", 64)
	defer unsubscribe()
	go a.watch(events)
	go a.tick()

	a.refresh()
	err := a.app.Run()
	a.cancel()
	return err
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
