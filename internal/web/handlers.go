package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/matheus3301/wpp-history/internal/history"
	"github.com/matheus3301/wpp-history/internal/phone"
	"github.com/matheus3301/wpp-history/internal/qr"
	"github.com/matheus3301/wpp-history/internal/session"
	"github.com/matheus3301/wpp-history/internal/viewer"
	"go.uber.org/zap"
)

const qrSize = 256

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) index(c *gin.Context) {
	sess := currentSession(c)
	c.Header("Cache-Control", "no-store")

	if !sess.Authorized() {
		c.HTML(http.StatusOK, "gate.html", gatePage{Error: sess.GateMessage()})
		return
	}
	if sid := c.Query("c"); sid != "" {
		sess.Select(sid)
	}
	c.HTML(http.StatusOK, "viewer.html", newViewerPage(sess.Snapshot(), s.opts.Location, s.viewer.RequiresCredential()))
}

func (s *Server) login(c *gin.Context) {
	sess := currentSession(c)
	if err := sess.Authorize(c.PostForm("password")); err != nil {
		sess.SetGateMessage(viewer.UserMessage(err))
	} else {
		s.logger.Info("session authorized", zap.String("session", sess.ID))
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) logout(c *gin.Context) {
	sess := currentSession(c)
	s.store.Delete(sess.ID)
	s.setCookie(c, "", -1)
	s.logger.Info("session closed", zap.String("session", sess.ID))
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) search(c *gin.Context) {
	sess := currentSession(c)
	if sess.Authorized() {
		_ = s.viewer.Search(c.Request.Context(), sess, c.PostForm("phone"))
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) state(c *gin.Context) {
	sess := currentSession(c)
	if !sess.Authorized() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, NewStateResponse(sess.Snapshot()))
}

func (s *Server) qrCode(c *gin.Context) {
	if !currentSession(c).Authorized() {
		c.Status(http.StatusUnauthorized)
		return
	}
	addr, err := phone.Normalize(c.Query("phone"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": viewer.UserMessage(err)})
		return
	}
	png, err := qr.PNG(addr.ChatLink(), qrSize)
	if err != nil {
		s.logger.Error("qr render failed", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// StateResponse is the JSON form of a session view, served by /api/state and
// printed by historyctl --json.
type StateResponse struct {
	SearchID      string                `json:"searchId,omitempty"`
	Query         string                `json:"query"`
	Address       *addressJSON          `json:"address,omitempty"`
	Primary       paneJSON              `json:"primary"`
	Conversations []conversationJSON    `json:"conversations"`
	Selected      string                `json:"selected,omitempty"`
	Secondary     paneJSON              `json:"secondary"`
	History       *secondaryHistoryJSON `json:"history,omitempty"`
}

type addressJSON struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	JID       string `json:"jid"`
	ChatLink  string `json:"chatLink"`
}

type paneJSON struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type conversationJSON struct {
	SID          string        `json:"conversationSid"`
	FriendlyName string        `json:"friendlyName,omitempty"`
	CreatedAt    *time.Time    `json:"dateCreated,omitempty"`
	Messages     []messageJSON `json:"messages"`
}

type messageJSON struct {
	SID       string     `json:"sid"`
	Author    string     `json:"author"`
	Body      string     `json:"body"`
	CreatedAt *time.Time `json:"dateCreated,omitempty"`
	Agent     bool       `json:"agent"`
}

type secondaryHistoryJSON struct {
	Name          string            `json:"name"`
	Document      string            `json:"document,omitempty"`
	MessagesCount int               `json:"messagesCount"`
	Groups        []string          `json:"groups"`
	Messages      []weniMessageJSON `json:"messages"`
}

type weniMessageJSON struct {
	Text      string     `json:"text"`
	Direction string     `json:"direction"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// NewStateResponse maps v. Missing dates are omitted rather than zero.
func NewStateResponse(v session.View) StateResponse {
	r := StateResponse{
		SearchID:      v.SearchID,
		Query:         v.Query,
		Primary:       paneJSON{Status: string(v.Primary.Status), Error: v.Primary.Err},
		Secondary:     paneJSON{Status: string(v.Secondary.Status), Error: v.Secondary.Err},
		Conversations: make([]conversationJSON, 0, len(v.Conversations)),
	}
	if v.HasAddress {
		r.Address = &addressJSON{
			Primary:   v.Address.Primary,
			Secondary: v.Address.Secondary,
			JID:       v.Address.JID().String(),
			ChatLink:  v.Address.ChatLink(),
		}
	}
	if v.Selected != nil {
		r.Selected = v.Selected.SID
	}
	for _, c := range v.Conversations {
		cj := conversationJSON{
			SID:          c.SID,
			FriendlyName: c.FriendlyName,
			CreatedAt:    timePtr(c.CreatedAt),
			Messages:     make([]messageJSON, 0, len(c.Messages)),
		}
		for _, m := range c.Messages {
			cj.Messages = append(cj.Messages, messageJSON{
				SID:       m.SID,
				Author:    m.Author,
				Body:      m.Body,
				CreatedAt: timePtr(m.CreatedAt),
				Agent:     m.IsAgent(),
			})
		}
		r.Conversations = append(r.Conversations, cj)
	}
	if h := v.Weni; h != nil {
		r.History = newSecondaryHistoryJSON(h)
	}
	return r
}

func newSecondaryHistoryJSON(h *history.WeniHistory) *secondaryHistoryJSON {
	out := &secondaryHistoryJSON{
		Name:          h.Contact.Name,
		Document:      h.Contact.Document,
		MessagesCount: h.MessagesCount,
		Groups:        make([]string, 0, len(h.Groups)),
		Messages:      make([]weniMessageJSON, 0, len(h.Messages)),
	}
	for _, g := range h.Groups {
		out.Groups = append(out.Groups, g.Name)
	}
	for _, m := range h.Messages {
		mj := weniMessageJSON{Text: m.Text, Direction: m.Direction}
		if m.HasTimestamp() {
			mj.Timestamp = timePtr(m.Timestamp())
		}
		out.Messages = append(out.Messages, mj)
	}
	return out
}
