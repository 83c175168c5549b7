package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/countdown/go/internal/config"
	"github.com/mcdev12/countdown/go/internal/countdown/events"
	"github.com/mcdev12/countdown/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "test-admin-key"

type testServer struct {
	*httptest.Server
	clock    *clockwork.FakeClock
	services *Services
}

func newTestServer(t *testing.T, adminKey string) *testServer {
	t.Helper()
	cfg := config.Default()
	cfg.AdminKey = adminKey
	cfg.CountdownFile = filepath.Join(t.TempDir(), "countdown.json")
	cfg.StaticDir = ""

	clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC))
	services := setupServices(cfg, clock)

	ctx, cancel := context.WithCancel(context.Background())
	go services.Gateway.Start(ctx)

	server := httptest.NewServer(newHandler(cfg, services))
	t.Cleanup(func() {
		server.Close()
		cancel()
		services.Close()
	})
	return &testServer{Server: server, clock: clock, services: services}
}

func (s *testServer) request(t *testing.T, method, path, body string, header http.Header) (*http.Response, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func endTimestamp(t *testing.T, body string) int64 {
	t.Helper()
	var rec models.CountdownRecord
	require.NoError(t, json.Unmarshal([]byte(body), &rec))
	return rec.EndTimestamp
}

func TestServer_FirstGetInitializesOnce(t *testing.T) {
	s := newTestServer(t, testKey)

	resp, body := s.request(t, http.MethodGet, "/api/countdown", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	first := endTimestamp(t, body)
	assert.Equal(t, s.clock.Now().UnixMilli()+models.DefaultDurationMs, first)

	s.clock.Advance(10 * time.Second)
	_, body = s.request(t, http.MethodGet, "/api/countdown", "", nil)
	assert.Equal(t, first, endTimestamp(t, body))
}

func TestServer_AdminFlow(t *testing.T) {
	s := newTestServer(t, testKey)
	auth := http.Header{"X-Admin-Key": []string{testKey}}

	target := s.clock.Now().Add(time.Hour).UnixMilli()
	resp, body := s.request(t, http.MethodPost, "/api/countdown",
		`{"endTimestamp":`+jsonInt(target)+`}`, auth)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, target, endTimestamp(t, body))

	_, body = s.request(t, http.MethodGet, "/api/countdown", "", nil)
	assert.Equal(t, target, endTimestamp(t, body))

	resp, body = s.request(t, http.MethodPost, "/api/countdown?key="+testKey, `{"reset":true}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, s.clock.Now().UnixMilli()+models.DefaultDurationMs, endTimestamp(t, body))

	resp, body = s.request(t, http.MethodPost, "/api/countdown", `{"endTimestamp":1}`, auth)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"endTimestamp must be in the future"}`, body)
}

func TestServer_GateIndistinguishableFromUnknownRoute(t *testing.T) {
	for name, key := range map[string]string{"configured": testKey, "disabled": ""} {
		t.Run(name, func(t *testing.T) {
			s := newTestServer(t, key)
			wantResp, wantBody := s.request(t, http.MethodGet, "/definitely-not-here", "", nil)
			require.Equal(t, http.StatusNotFound, wantResp.StatusCode)

			cases := []struct{ method, path, body string }{
				{http.MethodGet, "/admin", ""},
				{http.MethodGet, "/admin/", ""},
				{http.MethodGet, "/admin?key=wrong", ""},
				{http.MethodPost, "/api/countdown", `{"reset":true}`},
				{http.MethodPost, "/api/countdown?key=wrong", `{"reset":true}`},
			}
			for _, tc := range cases {
				resp, body := s.request(t, tc.method, tc.path, tc.body, nil)
				assert.Equal(t, wantResp.StatusCode, resp.StatusCode, tc.path)
				assert.Equal(t, wantBody, body, tc.path)
				assert.Equal(t, wantResp.Header.Get("Content-Type"), resp.Header.Get("Content-Type"), tc.path)
				assert.Equal(t, wantResp.Header.Get("Cache-Control"), resp.Header.Get("Cache-Control"), tc.path)
			}
		})
	}
}

func TestServer_AdminPage(t *testing.T) {
	s := newTestServer(t, testKey)

	resp, body := s.request(t, http.MethodGet, "/admin?key="+testKey, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Countdown Admin")
}

func TestServer_StaticAndOps(t *testing.T) {
	s := newTestServer(t, "")

	resp, body := s.request(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `id="timer"`)
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	resp, body = s.request(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", body)

	resp, body = s.request(t, http.MethodGet, "/info", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var info infoResponse
	require.NoError(t, json.Unmarshal([]byte(body), &info))
	assert.Equal(t, "countdown", info.Service)
	assert.False(t, info.Admin)
	assert.False(t, info.Broker)
}

func TestServer_CORS(t *testing.T) {
	s := newTestServer(t, "")

	resp, _ := s.request(t, http.MethodGet, "/api/countdown", "", http.Header{"Origin": []string{"https://elsewhere.example"}})
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_WebSocketThroughMiddleware(t *testing.T) {
	s := newTestServer(t, testKey)

	url := "ws" + strings.TrimPrefix(s.URL, "http") + "/ws/countdown"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var sync events.CountdownEvent
	require.NoError(t, conn.ReadJSON(&sync))
	assert.Equal(t, events.EventTypeCountdownSync, sync.Type)

	require.Eventually(t, func() bool { return s.services.Gateway.ConnectionCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	resp, body := s.request(t, http.MethodPost, "/api/countdown", `{"reset":true}`,
		http.Header{"X-Admin-Key": []string{testKey}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var pushed events.CountdownEvent
	require.NoError(t, conn.ReadJSON(&pushed))
	assert.Equal(t, events.EventTypeCountdownReset, pushed.Type)
	payload, err := pushed.ParsePayload()
	require.NoError(t, err)
	assert.Equal(t, endTimestamp(t, body), payload.EndTimestamp)
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
