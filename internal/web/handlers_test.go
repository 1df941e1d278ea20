package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hyperjump/bunka/internal/api"
	"github.com/hyperjump/bunka/internal/api/apitest"
	"github.com/hyperjump/bunka/internal/config"
	"github.com/hyperjump/bunka/internal/models"
	"github.com/hyperjump/bunka/internal/session"
)

const passage = "Haiku is a traditional form of Japanese poetry."

func newTestServer(t *testing.T) (*Server, *session.Store, *apitest.Backend) {
	t.Helper()
	backend := apitest.NewBackend()
	t.Cleanup(backend.Close)
	store := session.NewStore(api.NewClient(backend.URL(), 5*time.Second))
	srv, err := NewServer(store, &config.UIConfig{Host: "localhost", Port: 0}, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv, store, backend
}

func post(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func getPage(t *testing.T, h http.Handler) string {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /: status %d", w.Code)
	}
	return w.Body.String()
}

func TestIndex_emptyState(t *testing.T) {
	srv, _, backend := newTestServer(t)
	page := getPage(t, srv.Routes())
	for _, want := range []string{"Analyze Cultural Context", `value="ja"`, "Show History (0)", "Try an example"} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(page, "1. Cultural Origin") {
		t.Error("result sections should be hidden without a result")
	}
	if backend.TotalCalls() != 0 {
		t.Errorf("rendering made %d service calls", backend.TotalCalls())
	}
}

func TestAnalyze_rendersResult(t *testing.T) {
	srv, store, backend := newTestServer(t)
	backend.SetAnalyzer(func(req models.AnalysisRequest) models.AnalysisResult {
		r := apitest.RichAnalysis(req)
		r.CulturalOrigin = "**Edo period** verse <script>alert(1)</script>"
		return r
	})
	h := srv.Routes()

	w := post(t, h, "/analyze", url.Values{"text": {passage}, "language": {"ja"}})
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
		t.Fatalf("POST /analyze: status %d location %q", w.Code, w.Header().Get("Location"))
	}
	store.Wait()
	if got := backend.Calls(apitest.RouteAnalyze); got != 1 {
		t.Errorf("analyze calls = %d, want 1", got)
	}
	if got := backend.Calls(apitest.RouteHistory); got != 1 {
		t.Errorf("history calls = %d, want 1", got)
	}
	if snap := store.Snapshot(); snap.Result == nil || snap.Language != "ja" {
		t.Fatalf("snapshot = %+v", snap)
	}

	page := getPage(t, h)
	for _, want := range []string{
		"1. Cultural Origin",
		"<strong>Edo period</strong>",
		"Enhanced Image Generation Prompt",
		"Historical Timeline (1 events)",
		"Geographic Context (1 locations)",
		"Key Concepts Explained",
		"Further Reading",
		`<mark class="entity label-concept" title="CONCEPT">Hai</mark>ku`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(page, "<script>alert") {
		t.Error("raw HTML from the service must not reach the page")
	}
	// Panels start collapsed.
	if strings.Contains(page, "Old pond") || strings.Contains(page, "Modern name: Tokyo") || strings.Contains(page, "Season word.") {
		t.Error("panels should be collapsed for a new result")
	}
}

func TestAnalyze_pageShowsBusyWhileInFlight(t *testing.T) {
	srv, store, backend := newTestServer(t)
	release := make(chan struct{})
	backend.SetAnalyzer(func(req models.AnalysisRequest) models.AnalysisResult {
		<-release
		return apitest.DefaultAnalysis(req)
	})
	h := srv.Routes()

	start := time.Now()
	w := post(t, h, "/analyze", url.Values{"text": {passage}})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("POST /analyze: status %d", w.Code)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("POST /analyze should not wait for the service")
	}
	page := getPage(t, h)
	if !strings.Contains(page, " disabled>Analyzing...</button>") {
		t.Error("submit button should be disabled while analyzing")
	}
	if !strings.Contains(page, "Analyzing cultural context...") {
		t.Error("busy indicator missing")
	}

	post(t, h, "/analyze", url.Values{"text": {passage}})
	close(release)
	store.Wait()
	if got := backend.Calls(apitest.RouteAnalyze); got != 1 {
		t.Errorf("analyze calls = %d, want 1 while busy", got)
	}
	page = getPage(t, h)
	if strings.Contains(page, "disabled") || !strings.Contains(page, "1. Cultural Origin") {
		t.Error("result should replace the busy state once the analysis lands")
	}
}

func TestAnalyze_validationMessageWithoutRequest(t *testing.T) {
	srv, _, backend := newTestServer(t)
	h := srv.Routes()
	post(t, h, "/analyze", url.Values{"text": {"  short  "}, "language": {"en"}})
	if backend.TotalCalls() != 0 {
		t.Errorf("service calls = %d, want 0", backend.TotalCalls())
	}
	page := getPage(t, h)
	if !strings.Contains(page, session.MsgTextTooShort) {
		t.Error("validation message not shown")
	}

	post(t, h, "/dismiss", nil)
	if strings.Contains(getPage(t, h), session.MsgTextTooShort) {
		t.Error("dismiss should clear the message")
	}
}

func TestAnalyze_serviceDetailShown(t *testing.T) {
	srv, store, backend := newTestServer(t)
	backend.Fail(apitest.RouteAnalyze, apitest.Failure{Status: http.StatusInternalServerError, Detail: "Analysis failed: model overloaded"})
	h := srv.Routes()
	post(t, h, "/analyze", url.Values{"text": {passage}})
	store.Wait()
	if !strings.Contains(getPage(t, h), "Analysis failed: model overloaded") {
		t.Error("server detail not shown")
	}
}

func TestToggles(t *testing.T) {
	srv, store, backend := newTestServer(t)
	backend.SetAnalyzer(apitest.RichAnalysis)
	h := srv.Routes()
	post(t, h, "/analyze", url.Values{"text": {passage}})
	store.Wait()

	post(t, h, "/toggle/timeline", nil)
	post(t, h, "/toggle/map", nil)
	post(t, h, "/toggle/concept/0", nil)
	page := getPage(t, h)
	for _, want := range []string{"Old pond", "Modern name: Tokyo", "35.6762, 139.6503", "Season word.", "Hashtags."} {
		if !strings.Contains(page, want) {
			t.Errorf("expanded page missing %q", want)
		}
	}

	post(t, h, "/toggle/concept/0", nil)
	if store.Snapshot().View.ExpandedConcept != session.NoConcept {
		t.Error("second toggle should close the explainer")
	}
	if w := post(t, h, "/toggle/concept/x", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad concept index: status %d", w.Code)
	}
}

func TestHistory_selectAndDelete(t *testing.T) {
	srv, store, backend := newTestServer(t)
	backend.Seed(
		models.AnalysisResult{InputText: "The Ramayana is an ancient Indian epic.", Language: "hi", CulturalOrigin: "Ancient India."},
		models.AnalysisResult{InputText: "The Renaissance was a cultural rebirth.", Language: "fr", CulturalOrigin: "Florence."},
	)
	if err := store.RefreshHistory(context.Background()); err != nil {
		t.Fatal(err)
	}
	h := srv.Routes()
	post(t, h, "/toggle/history", nil)
	page := getPage(t, h)
	if !strings.Contains(page, "Hide History (2)") || !strings.Contains(page, "Ramayana") {
		t.Fatal("history panel not rendered")
	}

	calls := backend.TotalCalls()
	post(t, h, "/history/1/select", nil)
	if backend.TotalCalls() != calls {
		t.Error("select must not contact the service")
	}
	snap := store.Snapshot()
	if snap.Result == nil || snap.Result.ID != "1" || snap.Language != "hi" || snap.ShowHistory {
		t.Errorf("after select: %+v", snap)
	}
	if w := post(t, h, "/history/99/select", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown id: status %d", w.Code)
	}

	post(t, h, "/history/1/delete", nil)
	snap = store.Snapshot()
	if snap.Result != nil {
		t.Error("deleting the displayed entry should clear the result")
	}
	if len(snap.History) != 1 || snap.History[0].ID != "2" {
		t.Errorf("history after delete = %+v", snap.History)
	}
}

func TestExampleAndLanguage(t *testing.T) {
	srv, store, _ := newTestServer(t)
	h := srv.Routes()
	post(t, h, "/example/2", nil)
	if !strings.HasPrefix(store.Snapshot().Text, "Haiku") {
		t.Errorf("text = %q", store.Snapshot().Text)
	}
	if w := post(t, h, "/example/9", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing example: status %d", w.Code)
	}
	post(t, h, "/language", url.Values{"language": {"ta"}})
	if store.Snapshot().Language != "ta" {
		t.Errorf("language = %q", store.Snapshot().Language)
	}

	post(t, h, "/language", url.Values{"language": {"bn"}, "text": {"Draft about Tagore"}})
	post(t, h, "/toggle/history", nil)
	page := getPage(t, h)
	if !strings.Contains(page, `<option value="bn" selected>`) || !strings.Contains(page, "Draft about Tagore") {
		t.Error("language and draft should survive a later toggle")
	}
}

func TestState(t *testing.T) {
	srv, store, _ := newTestServer(t)
	store.SetText("hello there")
	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"text":"hello there"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestLive_pushesVersion(t *testing.T) {
	srv, store, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg liveMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("initial message: %v", err)
	}
	before := msg.Version

	store.ToggleHistoryPanel()
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("change message: %v", err)
	}
	if msg.Version <= before {
		t.Errorf("version %d not after %d", msg.Version, before)
	}
}
