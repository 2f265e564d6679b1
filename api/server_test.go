package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/memorymatch/game/clock"
	"github.com/wricardo/mcp-training/memorymatch/game/config"
	"github.com/wricardo/mcp-training/memorymatch/game/deck"
	"github.com/wricardo/mcp-training/memorymatch/game/engine"
	"github.com/wricardo/mcp-training/memorymatch/game/report"
	"github.com/wricardo/mcp-training/memorymatch/game/results"
	"github.com/wricardo/mcp-training/memorymatch/game/service"
	"github.com/wricardo/mcp-training/memorymatch/game/session"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	service.GameService

	GetSessionFunc  func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	FlipFunc        func(ctx context.Context, sessionID string, index int) (*service.FlipResult, error)
	ListConfigsFunc func(ctx context.Context) ([]*service.ConfigInfo, error)
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, ConfigName: "test-config", CreatedAt: time.Now()}, nil
}

func (m *MockGameService) Flip(ctx context.Context, sessionID string, index int) (*service.FlipResult, error) {
	if m.FlipFunc != nil {
		return m.FlipFunc(ctx, sessionID, index)
	}
	return &service.FlipResult{Accepted: true, Index: index}, nil
}

func (m *MockGameService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*service.ConfigInfo{}, nil
}

// pairDealer deals every pair side by side: A A B B ...
func pairDealer() (deck.Dealer, error) {
	return deck.DealerFunc(func(symbols []deck.Symbol) []deck.Symbol {
		out := make([]deck.Symbol, 0, 2*len(symbols))
		for _, s := range symbols {
			out = append(out, s, s)
		}
		return out
	}), nil
}

type testEnv struct {
	server *Server
	clock  *clock.Fake
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	configs, err := config.NewManager("../configs")
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}
	c := clock.NewFake(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	sessions := session.NewManager(session.WithClock(c), session.WithDealerFactory(pairDealer))
	t.Cleanup(sessions.Close)

	svc := service.NewGameService(sessions, configs, service.WithReporter(report.New(results.NewMemoryStore())))
	return &testEnv{server: NewServer(svc, nil), clock: c}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("Failed to decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func (e *testEnv) createSession(t *testing.T, configID string) *service.SessionInfo {
	t.Helper()
	rec := e.do(t, "POST", "/api/sessions", map[string]string{"config_id": configID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	info := decode[service.SessionInfo](t, rec)
	return &info
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, "GET", "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Expected JSON content type, got %s", rec.Header().Get("Content-Type"))
	}
}

func TestSessionEndpoints(t *testing.T) {
	env := newTestEnv(t)

	info := env.createSession(t, "easy")
	if info.ConfigName != "easy" || len(info.GameState.Cards) != 8 {
		t.Errorf("Unexpected session: %+v", info)
	}

	rec := env.do(t, "GET", "/api/sessions/"+info.ID, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}

	env.createSession(t, "classic")
	rec = env.do(t, "GET", "/api/sessions?limit=1&sort=created", nil)
	list := decode[map[string]interface{}](t, rec)
	if list["count"].(float64) != 1 || list["total"].(float64) != 2 {
		t.Errorf("Expected count 1 of total 2, got %v", list)
	}

	rec = env.do(t, "DELETE", "/api/sessions/"+info.ID, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 on delete, got %d", rec.Code)
	}
	rec = env.do(t, "GET", "/api/sessions/"+info.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", rec.Code)
	}

	rec = env.do(t, "POST", "/api/sessions", map[string]string{"config_id": "nope"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown config, got %d", rec.Code)
	}
}

func TestFlipEndpoint(t *testing.T) {
	env := newTestEnv(t)
	info := env.createSession(t, "easy")
	base := "/api/sessions/" + info.ID

	tests := []struct {
		name     string
		body     interface{}
		status   int
		accepted bool
		reason   string
	}{
		{"first card", map[string]int{"index": 0}, http.StatusOK, true, ""},
		{"same card", map[string]int{"index": 0}, http.StatusOK, false, "already_selected"},
		{"out of range", map[string]int{"index": 42}, http.StatusOK, false, "out_of_range"},
		{"negative", map[string]int{"index": -1}, http.StatusOK, false, "out_of_range"},
		{"missing index", map[string]string{}, http.StatusBadRequest, false, ""},
		{"bad json", "{", http.StatusBadRequest, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, "POST", base+"/flip", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("Expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			res := decode[service.FlipResult](t, rec)
			if res.Accepted != tt.accepted || res.Reason != tt.reason {
				t.Errorf("Expected accepted=%v reason=%q, got %+v", tt.accepted, tt.reason, res)
			}
		})
	}

	rec := env.do(t, "POST", "/api/sessions/zzzz/flip", map[string]int{"index": 0})
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown session, got %d", rec.Code)
	}
}

func TestHiddenSymbolsNeverServed(t *testing.T) {
	env := newTestEnv(t)
	info := env.createSession(t, "easy")

	rec := env.do(t, "GET", "/api/sessions/"+info.ID+"/state", nil)
	view := decode[engine.BoardView](t, rec)
	for _, c := range view.Cards {
		if c.Face != "?" {
			t.Errorf("Card %d leaked face %q", c.Index, c.Face)
		}
	}
}

func TestFullGameAndSummary(t *testing.T) {
	env := newTestEnv(t)
	info := env.createSession(t, "easy")
	base := "/api/sessions/" + info.ID

	rec := env.do(t, "GET", base+"/summary", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 before completion, got %d", rec.Code)
	}

	for i := 0; i < 8; i++ {
		env.do(t, "POST", base+"/flip", map[string]int{"index": i})
		if i == 0 {
			env.clock.Advance(3 * time.Second)
		}
	}
	env.clock.Advance(500 * time.Millisecond)

	rec = env.do(t, "GET", base+"/summary", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	summary := decode[struct {
		Summary engine.Summary `json:"summary"`
		Text    string         `json:"text"`
		Lines   []string       `json:"lines"`
	}](t, rec)
	if summary.Summary.Moves != 4 || summary.Summary.ElapsedSeconds != 3 {
		t.Errorf("Expected 4 moves in 3 seconds, got %+v", summary.Summary)
	}
	if summary.Text != "All pairs found in 4 moves and 3 seconds!" {
		t.Errorf("Unexpected summary text %q", summary.Text)
	}

	rec = env.do(t, "GET", "/api/leaderboard?config=Easy", nil)
	board := decode[struct {
		Count   int              `json:"count"`
		Results []results.Result `json:"results"`
	}](t, rec)
	if board.Count != 1 || board.Results[0].Moves != 4 {
		t.Errorf("Expected recorded result, got %+v", board)
	}

	rec = env.do(t, "POST", base+"/replay", nil)
	res := decode[service.ActionResult](t, rec)
	if !res.Accepted || res.GameState.Completed || res.GameState.Moves != 0 {
		t.Errorf("Expected fresh board after replay, got %+v", res)
	}
}

func TestRestartAndHistory(t *testing.T) {
	env := newTestEnv(t)
	info := env.createSession(t, "easy")
	base := "/api/sessions/" + info.ID

	env.do(t, "POST", base+"/flip", map[string]int{"index": 0})
	env.do(t, "POST", base+"/flip", map[string]int{"index": 2})

	rec := env.do(t, "POST", base+"/restart", nil)
	res := decode[service.ActionResult](t, rec)
	if !res.Accepted || res.GameState.Started || res.GameState.Pending != "" {
		t.Errorf("Expected clean board after restart, got %+v", res.GameState)
	}

	rec = env.do(t, "GET", base+"/history?order=asc&limit=1&page=2", nil)
	history := decode[service.HistoryResponse](t, rec)
	if history.TotalFlips != 2 || len(history.Flips) != 1 || history.Flips[0].Index != 2 {
		t.Errorf("Unexpected history page: %+v", history)
	}
	if history.Flips[0].Result != engine.FlipMismatch {
		t.Errorf("Expected mismatch entry, got %s", history.Flips[0].Result)
	}
}

func TestLeaderboard_BadLimit(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, "GET", "/api/leaderboard?limit=abc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestConfigEndpoints(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"classic.json", "easy.json"} {
		data, err := os.ReadFile(filepath.Join("../configs", name))
		if err != nil {
			t.Fatal(err)
		}
		os.WriteFile(filepath.Join(dir, name), data, 0644)
	}
	configs, err := config.NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	svc := service.NewGameService(session.NewManager(), configs)
	server := NewServer(svc, nil)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, httptest.NewRequest(method, path, bytes.NewBufferString(body)))
		return rec
	}

	rec := do("GET", "/api/configs", "")
	list := decode[[]service.ConfigInfo](t, rec)
	if len(list) != 2 {
		t.Errorf("Expected 2 configs, got %d", len(list))
	}

	rec = do("GET", "/api/configs/easy.json", "")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	rec = do("GET", "/api/configs/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}

	custom := `{"config_id":"tiny","name":"Tiny","description":"Two pairs","symbols":["X","Y"],
		"messages":{"welcome":"Hi","victory":"Done in %d moves"}}`
	rec = do("POST", "/api/configs", custom)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = do("GET", "/api/configs/tiny", "")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected saved config to load, got %d", rec.Code)
	}

	invalid := `{"name":"Bad","description":"Duplicate symbols","symbols":["X","X"],
		"messages":{"welcome":"Hi","victory":"%d"}}`
	rec = do("POST", "/api/configs", invalid)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid config, got %d", rec.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"session", fmt.Errorf("get session x: %w", service.ErrSessionNotFound), http.StatusNotFound},
		{"config", service.ErrConfigNotFound, http.StatusNotFound},
		{"invalid", fmt.Errorf("parse: %w", config.ErrInvalidConfig), http.StatusBadRequest},
		{"other", errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockGameService{
				FlipFunc: func(ctx context.Context, sessionID string, index int) (*service.FlipResult, error) {
					return nil, tt.err
				},
			}
			server := NewServer(mock, nil)
			rec := httptest.NewRecorder()
			server.ServeHTTP(rec, httptest.NewRequest("POST", "/api/sessions/x/flip", bytes.NewBufferString(`{"index":1}`)))
			if rec.Code != tt.status {
				t.Errorf("Expected %d, got %d", tt.status, rec.Code)
			}
			body := decode[map[string]interface{}](t, rec)
			if body["error"] != tt.err.Error() {
				t.Errorf("Expected error message %q, got %v", tt.err.Error(), body["error"])
			}
		})
	}
}

func TestRecoverer(t *testing.T) {
	mock := &MockGameService{
		ListConfigsFunc: func(ctx context.Context) ([]*service.ConfigInfo, error) {
			panic("boom")
		},
	}
	server := NewServer(mock, nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest("GET", "/api/configs", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500 after panic, got %d", rec.Code)
	}
}

func TestWebSocketWithoutHub(t *testing.T) {
	server := NewServer(&MockGameService{}, nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest("GET", "/ws?session=abcd", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}
