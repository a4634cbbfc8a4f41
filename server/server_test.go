package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/orbita/internal/observability"
	"github.com/hrygo/orbita/internal/profile"
	"github.com/hrygo/orbita/plugin/ai/agent"
	"github.com/hrygo/orbita/plugin/ai/manager"
	"github.com/hrygo/orbita/plugin/ai/memory"
	"github.com/hrygo/orbita/plugin/ai/router"
	"github.com/hrygo/orbita/plugin/ai/session"
	"github.com/hrygo/orbita/server/middleware"
	apiv1 "github.com/hrygo/orbita/server/router/api/v1"
)

const testSecret = "test-secret"

type testEnv struct {
	handler     http.Handler
	checkpoints *session.MemoryCheckpointService
	metrics     *observability.Metrics
}

func newTestEnv(t *testing.T, route router.Route, answer string, mutate func(*profile.Profile)) *testEnv {
	t.Helper()
	prof := &profile.Profile{Mode: "dev", APIRequestsPerSecond: 100}
	if mutate != nil {
		mutate(prof)
	}
	metrics := observability.NewMetrics()
	checkpoints := session.NewMemoryCheckpointService()
	m := manager.New(router.NewMockRouter(route, answer), memory.NewInMemoryStore(), &memory.StaticExtractor{},
		manager.WithHandlers(agent.NewMockHandler("email", "You have **2** new emails.")),
		manager.WithMetrics(metrics),
	)
	s := NewServer(prof, manager.NewConversation(m, checkpoints), metrics)
	return &testEnv{handler: s.Handler(), checkpoints: checkpoints, metrics: metrics}
}

func (e *testEnv) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, router.RouteEnd, "hi", nil)
	rec := env.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChat(t *testing.T) {
	env := newTestEnv(t, router.RouteEmail, "", nil)

	rec := env.do(t, http.MethodPost, "/api/v1/chat", `{"thread_id":"t1","user_id":"u1","message":"any mail?"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp apiv1.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "t1", resp.ThreadID)
	assert.Equal(t, "email", resp.Route)
	assert.Equal(t, "You have **2** new emails.", resp.Reply)
	assert.Contains(t, resp.ReplyHTML, "<strong>2</strong>")

	transcript, err := env.checkpoints.Load(context.Background(), "t1")
	require.NoError(t, err)
	assert.Len(t, transcript, 2)

	rec = env.do(t, http.MethodGet, "/api/v1/threads/t1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var thread apiv1.ThreadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &thread))
	assert.Len(t, thread.Messages, 2)

	rec = env.do(t, http.MethodGet, "/api/v1/threads?user_id=u1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list apiv1.ThreadListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Threads, 1)
	assert.Equal(t, "t1", list.Threads[0].ThreadID)

	rec = env.do(t, http.MethodGet, "/api/v1/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"turn_total":1`)
}

func TestChat_GeneratesThreadID(t *testing.T) {
	env := newTestEnv(t, router.RouteEnd, "Hello!", nil)

	rec := env.do(t, http.MethodPost, "/api/v1/chat", `{"message":"hello"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp apiv1.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ThreadID)
	assert.Equal(t, "Hello!", resp.Reply)
}

func TestChat_BadRequests(t *testing.T) {
	env := newTestEnv(t, router.RouteEnd, "x", nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"empty message", http.MethodPost, "/api/v1/chat", `{"message":"  "}`, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/api/v1/chat", `{"message":`, http.StatusBadRequest},
		{"unknown thread", http.MethodGet, "/api/v1/threads/nope", "", http.StatusNotFound},
		{"threads without user", http.MethodGet, "/api/v1/threads", "", http.StatusBadRequest},
		{"bad limit", http.MethodGet, "/api/v1/threads?user_id=u&limit=x", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, tt.body, "")
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestChat_JWTAuth(t *testing.T) {
	env := newTestEnv(t, router.RouteEnd, "ok", func(p *profile.Profile) { p.JWTSecret = testSecret })

	rec := env.do(t, http.MethodPost, "/api/v1/chat", `{"message":"hi"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/chat", `{"message":"hi"}`, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := middleware.NewAccessToken(testSecret, "quang", time.Hour, time.Now())
	require.NoError(t, err)
	rec = env.do(t, http.MethodPost, "/api/v1/chat", `{"thread_id":"t2","user_id":"spoofed","message":"hi"}`, token)
	require.Equal(t, http.StatusOK, rec.Code)

	threads, err := env.checkpoints.List(context.Background(), "quang", 10)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, "t2", threads[0].ThreadID)

	// Health checks stay public.
	rec = env.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChat_ThreadOwnership(t *testing.T) {
	env := newTestEnv(t, router.RouteEnd, "ok", func(p *profile.Profile) { p.JWTSecret = testSecret })
	alice, err := middleware.NewAccessToken(testSecret, "alice", time.Hour, time.Now())
	require.NoError(t, err)
	bob, err := middleware.NewAccessToken(testSecret, "bob", time.Hour, time.Now())
	require.NoError(t, err)

	rec := env.do(t, http.MethodPost, "/api/v1/chat", `{"thread_id":"alice-t","message":"my secret plans"}`, alice)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/v1/threads/alice-t", "", bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret plans")

	rec = env.do(t, http.MethodPost, "/api/v1/chat", `{"thread_id":"alice-t","message":"hijack"}`, bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	owner, err := env.checkpoints.Owner(context.Background(), "alice-t")
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)
	transcript, err := env.checkpoints.Load(context.Background(), "alice-t")
	require.NoError(t, err)
	assert.Len(t, transcript, 2)

	rec = env.do(t, http.MethodGet, "/api/v1/threads/alice-t", "", alice)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChat_RateLimit(t *testing.T) {
	env := newTestEnv(t, router.RouteEnd, "ok", func(p *profile.Profile) { p.APIRequestsPerSecond = 0.001 })

	codes := map[int]int{}
	for range 5 {
		rec := env.do(t, http.MethodGet, "/api/v1/metrics", "", "")
		codes[rec.Code]++
	}
	assert.Equal(t, 1, codes[http.StatusOK])
	assert.Equal(t, 4, codes[http.StatusTooManyRequests])
}
