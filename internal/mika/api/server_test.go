package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/fermoza/mika-go/internal/mika/config"
	"github.com/fermoza/mika-go/internal/mika/llm"
	"github.com/fermoza/mika-go/internal/mika/llm/mock"
	logx "github.com/fermoza/mika-go/internal/mika/log"
	"github.com/fermoza/mika-go/internal/mika/stylist"
	"github.com/fermoza/mika-go/internal/mika/types"
	"github.com/fermoza/mika-go/internal/mika/usage"
)

const validReply = `{"message":"Here you go","looks":[{"title":"Office","reason":"Neat","items":["p1"]}],"picks":[{"productId":"p1","reason":"Roomy"}],"beauty":{},"advice":{"fit":"relaxed"}}`

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Environment: "test"},
		API: config.APIConfig{
			Base:           "/api/mika",
			CORSOrigins:    []string{"*"},
			MaxRequestSize: 1 << 20,
		},
	}
}

func newTestServer(t *testing.T, client llm.Client) (*Server, *usage.InmemStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	recorder := usage.NewInmem()
	svc := stylist.NewService(client, stylist.DefaultPersona(), recorder, logx.NewNop())
	return NewServer(testConfig(), logx.NewNop(), svc), recorder
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, mock.New(validReply))
	s.now = func() time.Time { return time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC) }

	w := doRequest(s, http.MethodGet, "/api/mika/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["ok"] != true || body["provider"] != "openai" || body["apiBase"] != "/api/mika" {
		t.Errorf("unexpected health body %v", body)
	}
	if body["time"] != "2026-10-17T08:00:00.000Z" {
		t.Errorf("unexpected time %v", body["time"])
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected a generated request id")
	}
}

func TestChat_Success(t *testing.T) {
	s, recorder := newTestServer(t, mock.New(validReply))

	w := doRequest(s, http.MethodPost, "/api/mika/chat",
		`{"message":"office look please","catalog":[{"id":"p1","title":"Tote","price":1200}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp types.StylistResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != "Here you go" || len(resp.Looks) != 1 || resp.Picks[0].ProductID != "p1" {
		t.Errorf("unexpected response %+v", resp)
	}

	stats, _ := recorder.Stats(context.Background(), time.Now())
	if stats.OK != 1 {
		t.Errorf("expected one ok request recorded, got %+v", stats)
	}
}

func TestChat_FallbackOnGarbage(t *testing.T) {
	s, _ := newTestServer(t, mock.New("not json at all"))

	w := doRequest(s, http.MethodPost, "/api/mika/chat",
		`{"message":"office look please","catalog":[{"id":"p1","title":"Tote","price":1200}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp types.StylistResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != "not json at all" {
		t.Errorf("expected raw text as message, got %q", resp.Message)
	}
	if len(resp.Looks) != 1 || resp.Looks[0].Items[0] != "p1" || !strings.Contains(resp.Looks[0].Title, "Tote") {
		t.Errorf("unexpected fallback look %+v", resp.Looks)
	}
	if len(resp.Picks) != 1 || resp.Picks[0].ProductID != "p1" {
		t.Errorf("unexpected fallback pick %+v", resp.Picks)
	}
}

func TestChat_InvalidRequests(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"neither message nor messages", `{"catalog":[{"id":"p1","title":"Tote","price":1200}]}`},
		{"catalog missing", `{"message":"hi"}`},
		{"catalog not a list", `{"message":"hi","catalog":"p1"}`},
		{"malformed json", `{"message":`},
		{"empty body", ``},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := mock.New(validReply)
			s, recorder := newTestServer(t, client)

			w := doRequest(s, http.MethodPost, "/api/mika/chat", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", w.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["error"] != "message or messages[] AND catalog[] are required" {
				t.Errorf("unexpected error body %v", body)
			}
			if client.Calls() != 0 {
				t.Errorf("no upstream call expected, got %d", client.Calls())
			}
			stats, _ := recorder.Stats(context.Background(), time.Now())
			if stats.Invalid != 1 {
				t.Errorf("expected one invalid request recorded, got %+v", stats)
			}
		})
	}
}

func TestChat_UpstreamFailureIsOpaque(t *testing.T) {
	failures := []error{
		llm.ErrMissingAPIKey,
		llm.ErrTimeout,
		&llm.UpstreamError{StatusCode: 429, Body: "rate limited: secret detail"},
	}

	for _, failure := range failures {
		s, _ := newTestServer(t, mock.Failing(failure))
		w := doRequest(s, http.MethodPost, "/api/mika/chat", `{"message":"hi","catalog":[]}`)

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("%v: expected status 500, got %d", failure, w.Code)
		}
		if got := strings.TrimSpace(w.Body.String()); got != `{"error":"mika_failed"}` {
			t.Errorf("%v: unexpected body %s", failure, got)
		}
	}
}

func TestChat_BodyTooLarge(t *testing.T) {
	s, _ := newTestServer(t, mock.New(validReply))
	s.cfg.API.MaxRequestSize = 64
	s.engine = gin.New()
	mw := NewMiddleware(&s.cfg.API, s.logger)
	s.engine.Use(mw.RequestSizeLimit())
	s.setupRoutes()

	w := doRequest(s, http.MethodPost, "/api/mika/chat",
		`{"message":"`+strings.Repeat("x", 200)+`","catalog":[]}`)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d", w.Code)
	}
}

func TestRecoveryReturnsGenericFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	mw := NewMiddleware(&cfg.API, logx.NewNop())
	router := gin.New()
	router.Use(mw.RequestID(), mw.Recovery())
	router.GET("/boom", func(c *gin.Context) { panic("boom") })

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"error":"mika_failed"}` {
		t.Errorf("unexpected body %s", got)
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	s, _ := newTestServer(t, mock.New(validReply))

	req := httptest.NewRequest(http.MethodGet, "/api/mika/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("expected request id to be echoed, got %q", got)
	}
}

func TestSchema(t *testing.T) {
	s, _ := newTestServer(t, mock.New(validReply))

	w := doRequest(s, http.MethodGet, "/api/mika/schema", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"productId"`) {
		t.Errorf("schema should describe picks: %s", w.Body.String())
	}
}

func TestUsage(t *testing.T) {
	s, _ := newTestServer(t, mock.New(validReply))
	doRequest(s, http.MethodPost, "/api/mika/chat", `{"message":"hi","catalog":[{"id":"p1","title":"Tote"}]}`)
	doRequest(s, http.MethodPost, "/api/mika/chat", `{"catalog":[]}`)

	w := doRequest(s, http.MethodGet, "/api/mika/usage?day="+time.Now().UTC().Format(usage.DayLayout), "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var stats usage.Stats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Requests != 2 || stats.OK != 1 || stats.Invalid != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}

	if w := doRequest(s, http.MethodGet, "/api/mika/usage?day=yesterday", ""); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a bad day, got %d", w.Code)
	}
}

func TestChatWebSocket(t *testing.T) {
	client := mock.New(validReply)
	s, _ := newTestServer(t, client)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/mika/chat/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"message":"hi","catalog":[{"id":"p1","title":"Tote"}]}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	var resp types.StylistResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.Message != "Here you go" || resp.Picks[0].ProductID != "p1" {
		t.Errorf("unexpected frame %+v", resp)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"catalog":[]}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	var failure map[string]string
	if err := conn.ReadJSON(&failure); err != nil {
		t.Fatalf("read: %v", err)
	}
	if failure["error"] != types.ErrInvalidRequest.Error() {
		t.Errorf("unexpected error frame %v", failure)
	}
	if client.Calls() != 1 {
		t.Errorf("expected exactly one upstream call, got %d", client.Calls())
	}
}
