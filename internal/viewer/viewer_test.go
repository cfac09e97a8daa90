package viewer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/matheus3301/wpp-history/internal/history"
	"github.com/matheus3301/wpp-history/internal/primary"
	"github.com/matheus3301/wpp-history/internal/secondary"
	"github.com/matheus3301/wpp-history/internal/session"
	"github.com/matheus3301/wpp-history/internal/status"
	"github.com/matheus3301/wpp-history/internal/upstream"
	"go.uber.org/zap"
)

type fakePrimary struct {
	mu       sync.Mutex
	calls    []string
	password string
	result   *primary.Result
	err      error
	apiKey   bool
}

func (f *fakePrimary) Fetch(_ context.Context, address, password string) (*primary.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, address)
	f.password = password
	return f.result, f.err
}

func (f *fakePrimary) UsesPassword() bool { return !f.apiKey }

func (f *fakePrimary) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeSecondary struct {
	mu        sync.Mutex
	calls     []string
	unset     bool
	err       error
	result    *history.WeniHistory
	release   chan struct{} // when set, Fetch blocks until closed or ctx ends
	started   chan struct{}
	ignoreCtx bool
}

func (f *fakeSecondary) Fetch(ctx context.Context, number string) (*history.WeniHistory, error) {
	f.mu.Lock()
	f.calls = append(f.calls, number)
	release, started := f.release, f.started
	result, err := f.result, f.err
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		if f.ignoreCtx {
			<-release
		} else {
			select {
			case <-release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return result, err
}

func (f *fakeSecondary) Configured() bool { return !f.unset }

type countRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countRecorder) ObserveSearch(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = map[string]int{}
	}
	r.counts[result]++
}

func at(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func authorized(t *testing.T) *session.Session {
	t.Helper()
	s := session.New("sess", nil)
	if err := s.Authorize("pw"); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSearchInvalidInputMakesNoRequest(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "   ", MsgEmptyNumber},
		{"no plus", "5511999990000", MsgBadFormat},
		{"prefixed without plus", "whatsapp:5511999990000", MsgBadFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePrimary{}
			sec := &fakeSecondary{}
			v := New(p, sec, Options{}, nil, zap.NewNop())
			defer v.Close()
			sess := authorized(t)

			if err := v.Search(context.Background(), sess, tt.input); err == nil {
				t.Fatal("Search() expected error")
			}
			v.Wait()

			if p.callCount() != 0 || len(sec.calls) != 0 {
				t.Errorf("requests made for invalid input: primary=%d secondary=%d", p.callCount(), len(sec.calls))
			}
			view := sess.Snapshot()
			if view.Primary.Err != tt.want {
				t.Errorf("primary error = %q, want %q", view.Primary.Err, tt.want)
			}
			if view.Primary.Status != status.Failed {
				t.Errorf("primary = %s, want FAILED", view.Primary.Status)
			}
		})
	}
}

func TestSearchSuccess(t *testing.T) {
	p := &fakePrimary{result: &primary.Result{Conversations: []history.Conversation{
		{SID: "CHold", CreatedAt: at("2024-01-01T10:00:00Z")},
		{SID: "CHnew", CreatedAt: at("2024-03-01T10:00:00Z")},
	}}}
	sec := &fakeSecondary{result: &history.WeniHistory{Contact: history.WeniContact{Name: "Ana"}}}
	rec := &countRecorder{}
	v := New(p, sec, Options{SortNewestFirst: true}, rec, zap.NewNop())
	defer v.Close()
	sess := authorized(t)

	if err := v.Search(context.Background(), sess, " +5511999990000 "); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	v.Wait()

	if p.calls[0] != "whatsapp:+5511999990000" || p.password != "pw" {
		t.Errorf("primary called with (%q, %q)", p.calls[0], p.password)
	}
	if sec.calls[0] != "+5511999990000" {
		t.Errorf("secondary called with %q", sec.calls[0])
	}

	view := sess.Snapshot()
	if view.Conversations[0].SID != "CHnew" {
		t.Errorf("first conversation = %s, want CHnew (newest first)", view.Conversations[0].SID)
	}
	if view.Selected == nil || view.Selected.SID != "CHnew" {
		t.Errorf("Selected = %+v, want CHnew", view.Selected)
	}
	if view.Weni == nil || view.Weni.Contact.Name != "Ana" {
		t.Errorf("Weni = %+v", view.Weni)
	}
	if view.Secondary.Status != status.Loaded {
		t.Errorf("secondary = %s, want LOADED", view.Secondary.Status)
	}
	if rec.counts[ResultOK] != 1 {
		t.Errorf("recorded = %v", rec.counts)
	}
}

func TestSearchKeepsBackendOrder(t *testing.T) {
	p := &fakePrimary{result: &primary.Result{Conversations: []history.Conversation{
		{SID: "A", CreatedAt: at("2024-01-01T10:00:00Z")},
		{SID: "B", CreatedAt: at("2024-03-01T10:00:00Z")},
	}}}
	v := New(p, &fakeSecondary{unset: true}, Options{}, nil, zap.NewNop())
	defer v.Close()
	sess := authorized(t)

	if err := v.Search(context.Background(), sess, "+5511"); err != nil {
		t.Fatal(err)
	}
	if got := sess.Snapshot().Conversations[0].SID; got != "A" {
		t.Errorf("first conversation = %s, want A", got)
	}
}

func TestSearchEmptyResult(t *testing.T) {
	p := &fakePrimary{result: &primary.Result{Conversations: []history.Conversation{}}}
	v := New(p, &fakeSecondary{result: &history.WeniHistory{}}, Options{SortNewestFirst: true}, nil, zap.NewNop())
	defer v.Close()
	sess := authorized(t)

	if err := v.Search(context.Background(), sess, "+5511"); err != nil {
		t.Fatal(err)
	}
	v.Wait()
	view := sess.Snapshot()
	if len(view.Conversations) != 0 || view.Selected != nil {
		t.Errorf("view = %+v, want no conversations and no selection", view)
	}
}

func TestSearchWithoutCredential(t *testing.T) {
	p := &fakePrimary{}
	v := New(p, &fakeSecondary{}, Options{}, nil, zap.NewNop())
	defer v.Close()
	sess := session.New("sess", nil)

	err := v.Search(context.Background(), sess, "+5511999990000")
	if !errors.Is(err, ErrNoCredential) {
		t.Fatalf("Search() error = %v, want ErrNoCredential", err)
	}
	if p.callCount() != 0 {
		t.Error("primary called without credential")
	}
	if sess.Authorized() {
		t.Error("session still authorized")
	}
	if got := sess.GateMessage(); got != MsgNoCredential {
		t.Errorf("gate message = %q", got)
	}
}

func TestSearchEmptyNumberBeforeCredentialCheck(t *testing.T) {
	v := New(&fakePrimary{}, &fakeSecondary{}, Options{}, nil, zap.NewNop())
	defer v.Close()
	sess := session.New("sess", nil)
	sess.AuthorizeWithoutCredential()

	_ = v.Search(context.Background(), sess, "")
	if !sess.Authorized() {
		t.Error("empty number should not invalidate the session")
	}
}

func TestSearchAPIKeyModeSkipsCredential(t *testing.T) {
	p := &fakePrimary{apiKey: true, result: &primary.Result{}}
	v := New(p, &fakeSecondary{unset: true}, Options{}, nil, zap.NewNop())
	defer v.Close()
	sess := session.New("sess", nil)
	sess.AuthorizeWithoutCredential()

	if v.RequiresCredential() {
		t.Error("RequiresCredential() = true in api key mode")
	}
	if err := v.Search(context.Background(), sess, "+5511"); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if p.password != "" {
		t.Errorf("password sent in api key mode: %q", p.password)
	}
}

func TestSearchUnauthorizedInvalidates(t *testing.T) {
	p := &fakePrimary{err: primary.ErrUnauthorized}
	sec := &fakeSecondary{}
	rec := &countRecorder{}
	v := New(p, sec, Options{}, rec, zap.NewNop())
	defer v.Close()
	sess := authorized(t)

	err := v.Search(context.Background(), sess, "+5511999990000")
	if !errors.Is(err, primary.ErrUnauthorized) {
		t.Fatalf("Search() error = %v", err)
	}
	v.Wait()

	if sess.Authorized() {
		t.Error("session still authorized after 401")
	}
	if _, ok := sess.Credential(); ok {
		t.Error("credential kept after 401")
	}
	if got := sess.GateMessage(); got != MsgInvalidCredential {
		t.Errorf("gate message = %q", got)
	}
	if len(sec.calls) != 0 {
		t.Error("secondary requested after primary failure")
	}
	if rec.counts[ResultUnauthorized] != 1 {
		t.Errorf("recorded = %v", rec.counts)
	}

	if err := sess.Authorize("again"); err != nil {
		t.Fatal(err)
	}
	view := sess.Snapshot()
	if view.Primary.Status == status.Loading {
		t.Error("primary pane still loading after 401 and a new login")
	}
	if !view.Settled() {
		t.Errorf("view not settled: primary=%s secondary=%s", view.Primary.Status, view.Secondary.Status)
	}
}

func TestSearchUnauthorizedCancelsInFlightSecondary(t *testing.T) {
	p := &fakePrimary{result: &primary.Result{Conversations: []history.Conversation{{SID: "CH1"}}}}
	sec := &fakeSecondary{release: make(chan struct{}), started: make(chan struct{}, 1)}
	v := New(p, sec, Options{}, nil, zap.NewNop())
	defer v.Close()
	sess := authorized(t)

	if err := v.Search(context.Background(), sess, "+5511"); err != nil {
		t.Fatal(err)
	}
	<-sec.started

	if err := sess.Authorize("pw"); err != nil {
		t.Fatal(err)
	}
	p.mu.Lock()
	p.err, p.result = primary.ErrUnauthorized, nil
	p.mu.Unlock()
	if err := v.Search(context.Background(), sess, "+5522"); !errors.Is(err, primary.ErrUnauthorized) {
		t.Fatalf("second Search() error = %v", err)
	}
	v.Wait()

	if sess.Authorized() {
		t.Error("session authorized after 401 with a secondary lookup in flight")
	}
	if view := sess.Snapshot(); view.Weni != nil {
		t.Error("stale secondary result applied")
	}
}

func TestSearchPrimaryHTTPError(t *testing.T) {
	p := &fakePrimary{err: &upstream.HTTPError{Source: upstream.SourcePrimary, Status: 500, Message: "boom"}}
	sec := &fakeSecondary{}
	v := New(p, sec, Options{}, nil, zap.NewNop())
	defer v.Close()
	sess := authorized(t)

	if err := v.Search(context.Background(), sess, "+5511"); err == nil {
		t.Fatal("Search() expected error")
	}
	v.Wait()
	view := sess.Snapshot()
	if view.Primary.Err != "boom" {
		t.Errorf("primary error = %q, want boom", view.Primary.Err)
	}
	if len(sec.calls) != 0 {
		t.Error("secondary requested after primary failure")
	}
	if !sess.Authorized() {
		t.Error("non-401 error invalidated the session")
	}
}

func TestSearchSecondaryFailureKeepsPrimary(t *testing.T) {
	p := &fakePrimary{result: &primary.Result{Conversations: []history.Conversation{{SID: "CH1"}}}}
	sec := &fakeSecondary{err: &upstream.HTTPError{Source: upstream.SourceSecondary, Status: 502, Message: "Erro HTTP 502"}}
	v := New(p, sec, Options{}, nil, zap.NewNop())
	defer v.Close()
	sess := authorized(t)

	if err := v.Search(context.Background(), sess, "+5511"); err != nil {
		t.Fatal(err)
	}
	v.Wait()

	view := sess.Snapshot()
	if len(view.Conversations) != 1 || view.Primary.Err != "" {
		t.Errorf("primary pane affected: %+v", view.Primary)
	}
	if view.Secondary.Err != "Erro HTTP 502" || view.Secondary.Status != status.Failed {
		t.Errorf("secondary = %+v", view.Secondary)
	}
}

func TestSearchSecondaryNotConfigured(t *testing.T) {
	p := &fakePrimary{result: &primary.Result{}}
	sec := &fakeSecondary{unset: true}
	v := New(p, sec, Options{}, nil, zap.NewNop())
	defer v.Close()
	sess := authorized(t)

	if err := v.Search(context.Background(), sess, "+5511"); err != nil {
		t.Fatal(err)
	}
	view := sess.Snapshot()
	if view.Secondary.Status != status.Unconfigured || view.Secondary.Err != MsgSecondaryUnavailable {
		t.Errorf("secondary = %+v", view.Secondary)
	}
	if len(sec.calls) != 0 {
		t.Error("unconfigured secondary was called")
	}
}

func TestSearchDiscardsStaleSecondary(t *testing.T) {
	p := &fakePrimary{result: &primary.Result{Conversations: []history.Conversation{{SID: "CH1"}}}}
	first := &fakeSecondary{
		release:   make(chan struct{}),
		started:   make(chan struct{}, 1),
		ignoreCtx: true,
		result:    &history.WeniHistory{Contact: history.WeniContact{Name: "stale"}},
	}
	v := New(p, first, Options{}, nil, zap.NewNop())
	defer v.Close()
	sess := authorized(t)

	if err := v.Search(context.Background(), sess, "+5511"); err != nil {
		t.Fatal(err)
	}
	<-first.started

	first.mu.Lock()
	release := first.release
	first.release, first.started = nil, nil
	first.result = &history.WeniHistory{Contact: history.WeniContact{Name: "fresh"}}
	first.mu.Unlock()

	if err := v.Search(context.Background(), sess, "+5522"); err != nil {
		t.Fatal(err)
	}
	close(release)
	v.Wait()

	view := sess.Snapshot()
	if view.Weni == nil || view.Weni.Contact.Name != "fresh" {
		t.Errorf("Weni = %+v, want the second search's result", view.Weni)
	}
	if view.Query != "+5522" {
		t.Errorf("Query = %q", view.Query)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{session.ErrEmptyCredential, MsgEmptyCredential},
		{primary.ErrUnauthorized, MsgInvalidCredential},
		{secondary.ErrNotConfigured, MsgSecondaryUnavailable},
		{&upstream.HTTPError{Status: 404, Message: "Erro HTTP 404"}, "Erro HTTP 404"},
		{context.DeadlineExceeded, MsgFetchFailed},
	}
	for _, tt := range tests {
		if got := UserMessage(tt.err); got != tt.want {
			t.Errorf("UserMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
