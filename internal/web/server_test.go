package web

import (
	"context"
	"encoding/json"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matheus3301/wpp-history/internal/metrics"
	"github.com/matheus3301/wpp-history/internal/primary"
	"github.com/matheus3301/wpp-history/internal/secondary"
	"github.com/matheus3301/wpp-history/internal/session"
	"github.com/matheus3301/wpp-history/internal/viewer"
	"go.uber.org/zap"
)

const cookieName = "test_session"

const primaryBody = `{
  "conversations": [
    {
      "conversationSid": "CH001",
      "friendlyName": "Maria",
      "dateCreated": "2024-01-01T10:00:00Z",
      "messages": [
        {"sid": "IM1", "author": "whatsapp:+5513997254841", "body": "Oi", "dateCreated": "2024-01-01T10:00:05Z"},
        {"sid": "IM2", "author": "agente.joao", "body": "Olá, tudo bem?", "dateCreated": "2024-01-01T10:01:00Z"}
      ]
    },
    {"conversationSid": "CH002", "dateCreated": "2024-06-01T08:00:00Z"}
  ]
}`

const secondaryBody = `{
  "contact": {"name": " Maria Silva ", "fields": {"document": 12345678900}},
  "messagesCount": 2,
  "groups": ["Clientes"],
  "messages": [
    {"id": 2, "created_on": "2024-01-01T09:00:10Z", "direction": "out", "text": "Como posso ajudar?"},
    {"id": 1, "created_on": "2024-01-01T09:00:00Z", "direction": "in", "text": "Oi"}
  ]
}`

type upstreamLog struct {
	mu      sync.Mutex
	bodies  []map[string]string
	numbers []string
	apiKeys []string
}

type harness struct {
	srv     *Server
	viewer  *viewer.Viewer
	store   *session.Store
	log     *upstreamLog
	metrics *metrics.Metrics
}

func newHarness(t *testing.T, primaryStatus int, authMode string) *harness {
	t.Helper()
	ul := &upstreamLog{}

	p := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		ul.mu.Lock()
		ul.bodies = append(ul.bodies, body)
		ul.apiKeys = append(ul.apiKeys, r.Header.Get("X-API-Key"))
		ul.mu.Unlock()
		if primaryStatus != http.StatusOK {
			w.WriteHeader(primaryStatus)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}
		_, _ = w.Write([]byte(primaryBody))
	}))
	t.Cleanup(p.Close)

	sec := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ul.mu.Lock()
		ul.numbers = append(ul.numbers, r.URL.Query().Get("whatsapp"))
		ul.mu.Unlock()
		_, _ = w.Write([]byte(secondaryBody))
	}))
	t.Cleanup(sec.Close)

	m := metrics.New()
	logger := zap.NewNop()
	pc := primary.NewClient(primary.Options{URL: p.URL, AuthMode: authMode, APIKey: "static", Timeout: 5 * time.Second}, m, logger)
	sc := secondary.NewClient(sec.URL, 5*time.Second, m, logger)
	v := viewer.New(pc, sc, viewer.Options{SortNewestFirst: true}, m, logger)
	t.Cleanup(v.Close)

	store := session.NewStore(time.Hour, nil, m, logger)
	srv, err := NewServer(Options{
		Addr:       "127.0.0.1:0",
		CookieName: cookieName,
		Location:   time.UTC,
	}, store, v, m, logger)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	t.Cleanup(func() { _ = srv.listener.Close() })

	return &harness{srv: srv, viewer: v, store: store, log: ul, metrics: m}
}

func (h *harness) do(t *testing.T, method, target string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func (h *harness) login(t *testing.T, password string) *http.Cookie {
	t.Helper()
	rec := h.do(t, http.MethodGet, "/", nil, nil)
	cookie := sessionCookie(t, rec)
	rec = h.do(t, http.MethodPost, "/login", url.Values{"password": {password}}, cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("POST /login status = %d", rec.Code)
	}
	return cookie
}

func (h *harness) state(t *testing.T, cookie *http.Cookie) StateResponse {
	t.Helper()
	rec := h.do(t, http.MethodGet, "/api/state", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/state status = %d", rec.Code)
	}
	var st StateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return st
}

func TestGateShownFirst(t *testing.T) {
	h := newHarness(t, http.StatusOK, primary.AuthPassword)

	rec := h.do(t, http.MethodGet, "/", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Acesso restrito") {
		t.Error("gate page not rendered")
	}
	if strings.Contains(rec.Header().Get("Set-Cookie"), "Max-Age") {
		t.Errorf("session cookie must not persist: %s", rec.Header().Get("Set-Cookie"))
	}
	if c := sessionCookie(t, rec); !c.HttpOnly {
		t.Error("session cookie is not HttpOnly")
	}
}

func TestLoginEmptyPassword(t *testing.T) {
	h := newHarness(t, http.StatusOK, primary.AuthPassword)
	cookie := h.login(t, "   ")

	rec := h.do(t, http.MethodGet, "/", nil, cookie)
	body := rec.Body.String()
	if !strings.Contains(body, "Acesso restrito") || !strings.Contains(body, viewer.MsgEmptyCredential) {
		t.Errorf("gate with %q not rendered:\n%s", viewer.MsgEmptyCredential, body)
	}
}

func TestSearchFlow(t *testing.T) {
	h := newHarness(t, http.StatusOK, primary.AuthPassword)
	cookie := h.login(t, " s3cret ")

	rec := h.do(t, http.MethodPost, "/search", url.Values{"phone": {"+5513997254841"}}, cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("POST /search status = %d", rec.Code)
	}
	h.viewer.Wait()

	h.log.mu.Lock()
	if len(h.log.bodies) != 1 || h.log.bodies[0]["address"] != "whatsapp:+5513997254841" || h.log.bodies[0]["password"] != "s3cret" {
		t.Errorf("primary request = %v", h.log.bodies)
	}
	if len(h.log.numbers) != 1 || h.log.numbers[0] != "+5513997254841" {
		t.Errorf("secondary request = %v", h.log.numbers)
	}
	h.log.mu.Unlock()

	st := h.state(t, cookie)
	if len(st.Conversations) != 2 || st.Conversations[0].SID != "CH002" {
		t.Fatalf("conversations = %+v, want CH002 first", st.Conversations)
	}
	if st.Selected != "CH002" {
		t.Errorf("selected = %q, want CH002", st.Selected)
	}
	if st.Secondary.Status != "LOADED" || st.History == nil || st.History.Name != "Maria Silva" {
		t.Fatalf("secondary = %+v, history = %+v", st.Secondary, st.History)
	}
	if st.History.Messages[0].Text != "Oi" {
		t.Errorf("secondary messages not chronological: %+v", st.History.Messages)
	}

	rec = h.do(t, http.MethodGet, "/?c=CH001", nil, cookie)
	body := rec.Body.String()
	for _, want := range []string{"Maria", "Cliente", "agente.joao", "01/01/2024 10:00:05", "Olá, tudo bem?"} {
		if !strings.Contains(body, want) {
			t.Errorf("viewer page missing %q", want)
		}
	}
	if strings.Contains(body, `http-equiv="refresh"`) {
		t.Error("page refreshes although every pane settled")
	}
	if got := h.state(t, cookie).Selected; got != "CH001" {
		t.Errorf("selected = %q after ?c=CH001", got)
	}

	h.log.mu.Lock()
	defer h.log.mu.Unlock()
	if len(h.log.bodies) != 1 {
		t.Errorf("selection reached the backend: %d requests", len(h.log.bodies))
	}
}

func TestSearchInvalidNumber(t *testing.T) {
	h := newHarness(t, http.StatusOK, primary.AuthPassword)
	cookie := h.login(t, "pw")

	h.do(t, http.MethodPost, "/search", url.Values{"phone": {"5513997254841"}}, cookie)
	rec := h.do(t, http.MethodGet, "/", nil, cookie)
	body := html.UnescapeString(rec.Body.String())
	if !strings.Contains(body, viewer.MsgBadFormat) {
		t.Error("format error not shown")
	}
	if strings.Contains(body, textNoConversations) {
		t.Error("empty-result placeholder shown for a search that never ran")
	}
	if len(h.log.bodies) != 0 {
		t.Error("backend called for invalid number")
	}
}

func TestSearchUnauthorizedReturnsToGate(t *testing.T) {
	h := newHarness(t, http.StatusUnauthorized, primary.AuthPassword)
	cookie := h.login(t, "wrong")

	h.do(t, http.MethodPost, "/search", url.Values{"phone": {"+5513997254841"}}, cookie)
	h.viewer.Wait()

	rec := h.do(t, http.MethodGet, "/", nil, cookie)
	body := rec.Body.String()
	if !strings.Contains(body, "Acesso restrito") || !strings.Contains(body, viewer.MsgInvalidCredential) {
		t.Errorf("gate with %q not rendered", viewer.MsgInvalidCredential)
	}
	if len(h.log.numbers) != 0 {
		t.Error("secondary requested after 401")
	}
}

func TestAPIKeyModeSkipsGate(t *testing.T) {
	h := newHarness(t, http.StatusOK, primary.AuthAPIKey)

	rec := h.do(t, http.MethodGet, "/", nil, nil)
	body := rec.Body.String()
	if !strings.Contains(body, "Histórico de Conversas") {
		t.Fatal("viewer page not rendered in api key mode")
	}
	if strings.Contains(body, `action="/logout"`) {
		t.Error("logout offered without a credential")
	}

	cookie := sessionCookie(t, rec)
	h.do(t, http.MethodPost, "/search", url.Values{"phone": {"whatsapp:+5513997254841"}}, cookie)
	h.viewer.Wait()

	h.log.mu.Lock()
	defer h.log.mu.Unlock()
	if len(h.log.apiKeys) != 1 || h.log.apiKeys[0] != "static" {
		t.Errorf("api keys = %v", h.log.apiKeys)
	}
	if _, ok := h.log.bodies[0]["password"]; ok {
		t.Error("password sent in api key mode")
	}
}

func TestLogout(t *testing.T) {
	h := newHarness(t, http.StatusOK, primary.AuthPassword)
	cookie := h.login(t, "pw")

	rec := h.do(t, http.MethodPost, "/logout", url.Values{}, cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
	if h.store.Len() != 0 {
		t.Errorf("store has %d sessions after logout", h.store.Len())
	}
	rec = h.do(t, http.MethodGet, "/", nil, cookie)
	if !strings.Contains(rec.Body.String(), "Acesso restrito") {
		t.Error("old cookie still authorized after logout")
	}
}

func TestStateRequiresAuthorization(t *testing.T) {
	h := newHarness(t, http.StatusOK, primary.AuthPassword)
	if rec := h.do(t, http.MethodGet, "/api/state", nil, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestQRCode(t *testing.T) {
	h := newHarness(t, http.StatusOK, primary.AuthPassword)

	if rec := h.do(t, http.MethodGet, "/qr.png?phone=%2B5513997254841", nil, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthorized status = %d, want 401", rec.Code)
	}

	cookie := h.login(t, "pw")
	rec := h.do(t, http.MethodGet, "/qr.png?phone=%2B5513997254841", nil, cookie)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Errorf("status = %d, content type = %q", rec.Code, rec.Header().Get("Content-Type"))
	}

	if rec := h.do(t, http.MethodGet, "/qr.png?phone=123", nil, cookie); rec.Code != http.StatusBadRequest {
		t.Errorf("bad number status = %d, want 400", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t, http.StatusOK, primary.AuthPassword)

	rec := h.do(t, http.MethodGet, "/health", nil, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("health = %d %s", rec.Code, rec.Body.String())
	}

	rec = h.do(t, http.MethodGet, "/metrics", nil, nil)
	if !strings.Contains(rec.Body.String(), `history_http_requests_total{method="GET",route="/health",status="200"} 1`) {
		t.Errorf("metrics missing health request:\n%s", rec.Body.String())
	}
}

func TestStartStop(t *testing.T) {
	h := newHarness(t, http.StatusOK, primary.AuthPassword)

	errc := make(chan error, 1)
	go func() { errc <- h.srv.Start() }()

	var resp *http.Response
	var err error
	for range 50 {
		resp, err = http.Get("http://" + h.srv.Addr() + "/health")
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	_ = resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.srv.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := <-errc; err != nil {
		t.Errorf("Start() error = %v", err)
	}
}
