package secondary

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/matheus3301/wpp-history/internal/history"
)

type wireResponse struct {
	Contact       wireContact   `json:"contact"`
	MessagesCount int           `json:"messagesCount"`
	Groups        []wireGroup   `json:"groups"`
	Messages      []wireMessage `json:"messages"`
}

type wireContact struct {
	Name       string     `json:"name"`
	Fields     wireFields `json:"fields"`
	LastSeenOn string     `json:"last_seen_on"`
}

type wireFields struct {
	Document flexString `json:"document"`
}

// wireGroup accepts either {"uuid": ..., "name": ...} or a bare group name.
type wireGroup struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

func (g *wireGroup) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(`"`)) {
		return json.Unmarshal(data, &g.Name)
	}
	type plain wireGroup
	return json.Unmarshal(data, (*plain)(g))
}

type wireMessage struct {
	ID        flexString `json:"id"`
	CreatedOn string     `json:"created_on"`
	SentOn    string     `json:"sent_on"`
	Direction string     `json:"direction"`
	Text      string     `json:"text"`
}

// flexString decodes a JSON string, number or null into a string.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if bytes.HasPrefix(data, []byte(`"`)) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func mapResponse(w *wireResponse) *history.WeniHistory {
	h := &history.WeniHistory{
		Contact: history.WeniContact{
			Name:       strings.TrimSpace(w.Contact.Name),
			Document:   string(w.Contact.Fields.Document),
			LastSeenOn: history.ParseTime(w.Contact.LastSeenOn),
		},
		MessagesCount: w.MessagesCount,
		Groups:        make([]history.WeniGroup, 0, len(w.Groups)),
		Messages:      make([]history.WeniMessage, 0, len(w.Messages)),
	}
	for _, g := range w.Groups {
		h.Groups = append(h.Groups, history.WeniGroup{UUID: g.UUID, Name: g.Name})
	}
	for _, m := range w.Messages {
		h.Messages = append(h.Messages, history.WeniMessage{
			ID:        string(m.ID),
			CreatedOn: history.ParseTime(m.CreatedOn),
			SentOn:    history.ParseTime(m.SentOn),
			Direction: m.Direction,
			Text:      m.Text,
		})
	}
	history.SortChronological(h.Messages)
	return h
}
