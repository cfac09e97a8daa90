package primary

import (
	"github.com/matheus3301/wpp-history/internal/history"
)

// fetchRequest is the JSON body sent to the history endpoint.
type fetchRequest struct {
	Address  string `json:"address"`
	Password string `json:"password,omitempty"`
}

// wireResponse mirrors the endpoint's success body. Every field is optional on
// the wire; mapping fills in empty values.
type wireResponse struct {
	Conversations []wireConversation `json:"conversations"`
}

type wireConversation struct {
	ConversationSID string        `json:"conversationSid"`
	FriendlyName    string        `json:"friendlyName"`
	DateCreated     string        `json:"dateCreated"`
	Messages        []wireMessage `json:"messages"`
}

type wireMessage struct {
	SID         string `json:"sid"`
	Author      string `json:"author"`
	Body        string `json:"body"`
	DateCreated string `json:"dateCreated"`
}

// Result is a decoded history response.
type Result struct {
	Conversations []history.Conversation
}

func mapResponse(w *wireResponse) *Result {
	convs := make([]history.Conversation, 0, len(w.Conversations))
	for _, wc := range w.Conversations {
		msgs := make([]history.Message, 0, len(wc.Messages))
		for _, wm := range wc.Messages {
			msgs = append(msgs, history.Message{
				SID:       wm.SID,
				Author:    wm.Author,
				Body:      wm.Body,
				CreatedAt: history.ParseTime(wm.DateCreated),
			})
		}
		convs = append(convs, history.Conversation{
			SID:          wc.ConversationSID,
			FriendlyName: wc.FriendlyName,
			CreatedAt:    history.ParseTime(wc.DateCreated),
			Messages:     msgs,
		})
	}
	return &Result{Conversations: convs}
}
