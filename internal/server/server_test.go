package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go-boss-assistant/internal/ai"
	"go-boss-assistant/internal/assistant"
	"go-boss-assistant/internal/greeting"
	"go-boss-assistant/internal/models"
	"go-boss-assistant/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	lastReq      assistant.Request
	lastSettings models.ModelSettings
	pingErr      error
}

func (g *fakeGateway) Dispatch(_ context.Context, req assistant.Request) assistant.Response {
	g.lastReq = req
	if req.Kind != assistant.KindChatReply {
		return assistant.Response{Error: "unknown request type"}
	}
	return assistant.Response{OK: true, CanAnswer: true, Reply: "Shanghai"}
}

func (g *fakeGateway) TestConnection(_ context.Context, s models.ModelSettings) error {
	g.lastSettings = s
	return g.pingErr
}

type fakeGreeter struct {
	text string
	err  error
}

func (f fakeGreeter) Generate(context.Context) (string, error) { return f.text, f.err }

type fakeToggle struct{ states []bool }

func (f *fakeToggle) SetEnabled(on bool) { f.states = append(f.states, on) }

type fakeNotifier struct {
	mu    sync.Mutex
	texts []string
}

func (n *fakeNotifier) Notify(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.texts = append(n.texts, text)
	return nil
}

type fakeHistory struct{}

func (fakeHistory) RecentReplies(_ context.Context, limit int) ([]models.ReplyRecord, error) {
	return []models.ReplyRecord{{ID: 1, MessageID: "9", CanAnswer: true, Reply: "ok", CreatedAt: time.Unix(0, 0).UTC()}}[:min(limit, 1)], nil
}

func newTestRouter(t *testing.T, configure func(h *Handler)) (*gin.Engine, *store.Records, *fakeGateway) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	kv, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	records := store.NewRecords(kv)
	gw := &fakeGateway{}
	h := NewHandler(records, gw)
	if configure != nil {
		configure(h)
	}
	return NewRouter(h), records, gw
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	router, _, _ := newTestRouter(t, nil)
	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["page"])
}

func TestSettingsRoundTrip(t *testing.T) {
	router, records, _ := newTestRouter(t, nil)

	rec := doJSON(t, router, http.MethodPut, "/api/settings", models.ModelSettings{
		APIBase: "https://api.example.com/v1", APIKey: "sk-1", Model: "m",
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	saved, err := records.Settings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sk-1", saved.APIKey)

	rec = doJSON(t, router, http.MethodGet, "/api/settings", nil)
	assert.Equal(t, "https://api.example.com/v1", decode(t, rec)["api_base"])
}

func TestProfileRoundTrip(t *testing.T) {
	router, _, _ := newTestRouter(t, nil)

	rec := doJSON(t, router, http.MethodPut, "/api/profile", models.CandidateProfile{City: "Shanghai", Years: "5"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/profile", nil)
	body := decode(t, rec)
	assert.Equal(t, "Shanghai", body["city"])
	assert.Equal(t, float64(models.ProfileSchemaVersion), body["schema_version"])
}

func TestAutoReplyToggle(t *testing.T) {
	toggle := &fakeToggle{}
	router, records, _ := newTestRouter(t, func(h *Handler) { h.WithPage(nil, toggle) })

	rec := doJSON(t, router, http.MethodGet, "/api/auto-reply", nil)
	assert.Equal(t, true, decode(t, rec)["enabled"], "enabled by default")

	rec = doJSON(t, router, http.MethodPut, "/api/auto-reply", map[string]bool{"enabled": false})
	require.Equal(t, http.StatusOK, rec.Code)
	on, err := records.AutoReplyEnabled(context.Background())
	require.NoError(t, err)
	assert.False(t, on)
	assert.Equal(t, []bool{false}, toggle.states)

	rec = doJSON(t, router, http.MethodPut, "/api/auto-reply", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOptionsHintConsumedOnce(t *testing.T) {
	router, _, _ := newTestRouter(t, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/options/open", map[string]string{"section": "profile"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/options/hint", nil)
	assert.Equal(t, "profile", decode(t, rec)["section"])

	rec = doJSON(t, router, http.MethodGet, "/api/options/hint", nil)
	assert.Equal(t, "", decode(t, rec)["section"])
}

func TestDispatch(t *testing.T) {
	router, _, gw := newTestRouter(t, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/dispatch", map[string]string{"type": "chat_reply", "dialogue": "HR: [Which city?]"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "Shanghai", body["reply"])
	assert.Equal(t, "HR: [Which city?]", gw.lastReq.Dialogue)

	req := httptest.NewRequest(http.MethodPost, "/api/dispatch", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	bad := httptest.NewRecorder()
	router.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestTestConnection(t *testing.T) {
	notifier := &fakeNotifier{}
	router, records, gw := newTestRouter(t, func(h *Handler) { h.WithNotifier(notifier) })
	require.NoError(t, records.SaveSettings(context.Background(), models.ModelSettings{APIBase: "saved", APIKey: "k", Model: "m"}))

	rec := doJSON(t, router, http.MethodPost, "/api/test-connection", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["ok"])
	assert.Equal(t, "saved", gw.lastSettings.APIBase, "empty body uses saved settings")

	gw.pingErr = errors.New("HTTP 401: invalid api key")
	rec = doJSON(t, router, http.MethodPost, "/api/test-connection", models.ModelSettings{APIBase: "draft", APIKey: "k", Model: "m"})
	body := decode(t, rec)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "HTTP 401: invalid api key", body["error"])
	assert.Equal(t, "draft", gw.lastSettings.APIBase)
	require.Len(t, notifier.texts, 1)
	assert.Equal(t, "❌ Connection test failed: HTTP 401: invalid api key", notifier.texts[0])
}

func TestGreeting(t *testing.T) {
	tests := []struct {
		name     string
		greeter  Greeter
		status   int
		notified int
	}{
		{"no page", nil, http.StatusServiceUnavailable, 0},
		{"ok", fakeGreeter{text: "Hello"}, http.StatusOK, 0},
		{"in progress", fakeGreeter{err: greeting.ErrInProgress}, http.StatusConflict, 1},
		{"no conversation", fakeGreeter{err: greeting.ErrNoConversation}, http.StatusPreconditionFailed, 1},
		{"incomplete settings", fakeGreeter{err: ai.ErrIncompleteSettings}, http.StatusPreconditionFailed, 1},
		{"model failure", fakeGreeter{err: errors.New("HTTP 500")}, http.StatusBadGateway, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &fakeNotifier{}
			router, _, _ := newTestRouter(t, func(h *Handler) {
				h.WithNotifier(notifier)
				if tt.greeter != nil {
					h.WithPage(tt.greeter, nil)
				}
			})
			rec := doJSON(t, router, http.MethodPost, "/api/greeting", nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.Len(t, notifier.texts, tt.notified)
			if tt.status == http.StatusOK {
				assert.Equal(t, "Hello", decode(t, rec)["greeting"])
			}
		})
	}
}

func TestReplies(t *testing.T) {
	router, _, _ := newTestRouter(t, nil)
	rec := doJSON(t, router, http.MethodGet, "/api/replies", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	router, _, _ = newTestRouter(t, func(h *Handler) { h.WithHistory(fakeHistory{}) })
	rec = doJSON(t, router, http.MethodGet, "/api/replies?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["replies"], 1)

	rec = doJSON(t, router, http.MethodGet, "/api/replies?limit=x", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRun_Shutdown(t *testing.T) {
	router, _, _ := newTestRouter(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, "127.0.0.1:0", router) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
