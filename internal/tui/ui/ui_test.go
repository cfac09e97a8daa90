package ui

import (
	"testing"
	"time"

	"github.com/rivo/tview"
)

func TestFlashModelExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	f := NewFlashModel()
	f.now = func() time.Time { return now }

	if f.Current() != nil {
		t.Fatal("new model has a message")
	}
	f.Err("Erro HTTP 500")
	msg := f.Current()
	if msg == nil || msg.Text != "Erro HTTP 500" || msg.Level != FlashErr {
		t.Fatalf("Current() = %+v", msg)
	}

	now = now.Add(11 * time.Second)
	if f.Current() != nil {
		t.Error("message survived its expiry")
	}
}

func TestPagesStack(t *testing.T) {
	p := NewPages()
	var tops []string
	p.SetOnChange(func(top string) { tops = append(tops, top) })

	for _, name := range []string{"gate", "viewer", "help"} {
		p.AddPage(name, tview.NewBox(), true, false)
	}

	p.Reset("gate")
	p.Reset("viewer")
	p.Push("help")
	if p.Current() != "help" || p.Depth() != 2 {
		t.Fatalf("Current() = %q, Depth() = %d", p.Current(), p.Depth())
	}
	if got := p.Pop(); got != "help" {
		t.Errorf("Pop() = %q, want help", got)
	}
	if got := p.Pop(); got != "" {
		t.Errorf("Pop() on base page = %q, want empty", got)
	}
	want := []string{"gate", "viewer", "help", "viewer"}
	if len(tops) != len(want) {
		t.Fatalf("changes = %v, want %v", tops, want)
	}
	for i := range want {
		if tops[i] != want[i] {
			t.Errorf("changes = %v, want %v", tops, want)
			break
		}
	}
}

func TestColorTag(t *testing.T) {
	if got := ColorTag(DefaultTheme().MenuKeyColor); got != "dodgerblue" {
		t.Errorf("ColorTag() = %q, want dodgerblue", got)
	}
}
