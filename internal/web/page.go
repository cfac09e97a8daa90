package web

import (
	"time"

	"github.com/matheus3301/wpp-history/internal/history"
	"github.com/matheus3301/wpp-history/internal/session"
	"github.com/matheus3301/wpp-history/internal/status"
)

const previewRunes = 60

// Placeholder texts.
const (
	textNoConversations = "Nenhuma conversa encontrada."
	textPickOne         = "Selecione uma conversa na lista ao lado."
	textNoMessages      = "Essa conversa não possui mensagens."
	textNoSelection     = "Nenhuma conversa selecionada."
	customerLabel       = "Cliente"
	botLabel            = "Bot"
)

type gatePage struct {
	Error string
}

type viewerPage struct {
	Query         string
	Error         string
	Searched      bool
	Refresh       bool
	ShowLogout    bool
	Conversations []conversationItem
	Thread        threadView
	Secondary     secondaryView
	Placeholders  placeholders
}

type placeholders struct {
	NoConversations string
	PickOne         string
	NoMessages      string
	NoSelection     string
}

type conversationItem struct {
	SID      string
	Title    string
	Started  string
	Count    int
	Preview  string
	Selected bool
}

type threadView struct {
	Present  bool
	Title    string
	Created  string
	Count    int
	Messages []messageItem
}

type messageItem struct {
	Author string
	Agent  bool
	Time   string
	Body   string
}

type secondaryView struct {
	Loading    bool
	Error      string
	Number     string
	JID        string
	ChatLink   string
	Name       string
	Document   string
	LastSeen   string
	Count      int
	Groups     []string
	Messages   []messageItem
	HasHistory bool
}

func newViewerPage(v session.View, loc *time.Location, showLogout bool) viewerPage {
	p := viewerPage{
		Query:      v.Query,
		Error:      v.Primary.Err,
		Searched:   v.Primary.Status == status.Loaded,
		Refresh:    v.Secondary.Loading(),
		ShowLogout: showLogout,
		Placeholders: placeholders{
			NoConversations: textNoConversations,
			PickOne:         textPickOne,
			NoMessages:      textNoMessages,
			NoSelection:     textNoSelection,
		},
	}

	p.Conversations = make([]conversationItem, 0, len(v.Conversations))
	for _, c := range v.Conversations {
		p.Conversations = append(p.Conversations, conversationItem{
			SID:      c.SID,
			Title:    c.Title(),
			Started:  history.FormatTime(c.CreatedAt, loc),
			Count:    len(c.Messages),
			Preview:  c.Preview(previewRunes),
			Selected: v.Selected != nil && v.Selected.SID == c.SID,
		})
	}

	if c := v.Selected; c != nil {
		p.Thread = threadView{
			Present: true,
			Title:   c.Title(),
			Created: history.FormatTime(c.CreatedAt, loc),
			Count:   len(c.Messages),
		}
		for _, m := range c.Messages {
			author := customerLabel
			if m.IsAgent() {
				author = m.Author
			}
			p.Thread.Messages = append(p.Thread.Messages, messageItem{
				Author: author,
				Agent:  m.IsAgent(),
				Time:   history.FormatTime(m.CreatedAt, loc),
				Body:   m.Body,
			})
		}
	}

	p.Secondary = newSecondaryView(v, loc)
	return p
}

func newSecondaryView(v session.View, loc *time.Location) secondaryView {
	s := secondaryView{
		Loading: v.Secondary.Loading(),
		Error:   v.Secondary.Err,
	}
	if v.HasAddress {
		s.Number = v.Address.Secondary
		s.JID = v.Address.JID().String()
		s.ChatLink = v.Address.ChatLink()
	}
	h := v.Weni
	if h == nil {
		return s
	}
	s.HasHistory = true
	s.Name = h.Contact.Name
	s.Document = h.Contact.Document
	s.LastSeen = history.FormatTime(h.Contact.LastSeenOn, loc)
	s.Count = h.MessagesCount
	for _, g := range h.Groups {
		s.Groups = append(s.Groups, g.Name)
	}
	for _, m := range h.Messages {
		author := customerLabel
		if m.IsBot() {
			author = botLabel
		}
		s.Messages = append(s.Messages, messageItem{
			Author: author,
			Agent:  m.IsBot(),
			Time:   weniTime(m, loc),
			Body:   m.Text,
		})
	}
	return s
}

// weniTime leaves the time blank when the message carries no timestamp at
// all, instead of showing the epoch it sorts by.
func weniTime(m history.WeniMessage, loc *time.Location) string {
	if !m.HasTimestamp() {
		return ""
	}
	return history.FormatTime(m.Timestamp(), loc)
}
