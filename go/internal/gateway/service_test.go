package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/countdown/go/internal/countdown/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedState struct {
	end int64
	err error
}

func (f fixedState) GetOrInit(context.Context) (int64, error) { return f.end, f.err }

func newGatewayServer(t *testing.T, state StateProvider) (*Service, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	cm := NewConnectionManager(DefaultConnectionConfig())
	svc := NewService(cm, state, clockwork.NewFakeClockAt(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	go svc.Start(ctx)

	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)
	server := httptest.NewServer(mux)

	t.Cleanup(func() {
		cancel()
		server.Close()
	})
	return svc, server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/countdown"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) events.CountdownEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var event events.CountdownEvent
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func TestGateway_SyncOnConnect(t *testing.T) {
	_, server := newGatewayServer(t, fixedState{end: 1_700_000_000_000})

	event := readEvent(t, dial(t, server))
	assert.Equal(t, events.EventTypeCountdownSync, event.Type)
	assert.NotEmpty(t, event.ID)

	payload, err := event.ParsePayload()
	require.NoError(t, err)
	assert.Equal(t, int64(1_700_000_000_000), payload.EndTimestamp)
}

func TestGateway_BroadcastReachesEveryConnection(t *testing.T) {
	svc, server := newGatewayServer(t, fixedState{end: 1})

	a := dial(t, server)
	b := dial(t, server)
	readEvent(t, a)
	readEvent(t, b)
	require.Eventually(t, func() bool { return svc.ConnectionCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	svc.connectionManager.Notify(context.Background(),
		events.NewCountdownEvent(events.EventTypeCountdownUpdated, 42, time.Now()))

	for _, conn := range []*websocket.Conn{a, b} {
		event := readEvent(t, conn)
		assert.Equal(t, events.EventTypeCountdownUpdated, event.Type)
		payload, err := event.ParsePayload()
		require.NoError(t, err)
		assert.Equal(t, int64(42), payload.EndTimestamp)
	}
}

func TestGateway_DisconnectUnregisters(t *testing.T) {
	svc, server := newGatewayServer(t, fixedState{end: 1})

	conn := dial(t, server)
	readEvent(t, conn)
	require.Eventually(t, func() bool { return svc.ConnectionCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	assert.Eventually(t, func() bool { return svc.ConnectionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestGateway_StateFailure(t *testing.T) {
	_, server := newGatewayServer(t, fixedState{err: errors.New("disk gone")})

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/countdown"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestGateway_Stats(t *testing.T) {
	svc, server := newGatewayServer(t, fixedState{end: 1})

	readEvent(t, dial(t, server))
	require.Eventually(t, func() bool { return svc.ConnectionCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get(server.URL + "/ws/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	var stats StatsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 1, stats.TotalConnections)
}

func TestGateway_ShutdownClosesConnections(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cm := NewConnectionManager(DefaultConnectionConfig())
	svc := NewService(cm, fixedState{end: 1}, nil)
	done := make(chan struct{})
	go func() {
		svc.Start(ctx)
		close(done)
	}()

	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	conn := dial(t, server)
	readEvent(t, conn)
	require.Eventually(t, func() bool { return svc.ConnectionCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
	assert.Zero(t, svc.ConnectionCount())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

// changingState simulates a write landing between the first read and the
// connection's registration: later reads see the new value, and the change
// is broadcast while the client is being registered.
type changingState struct {
	cm    *ConnectionManager
	old   int64
	fresh int64
	calls int
}

func (c *changingState) GetOrInit(context.Context) (int64, error) {
	c.calls++
	if c.calls == 1 {
		return c.old, nil
	}
	if c.calls == 2 {
		c.cm.Notify(context.Background(), events.NewCountdownEvent(events.EventTypeCountdownUpdated, c.fresh, time.Now()))
	}
	return c.fresh, nil
}

func TestGateway_SyncIsNotStaleWhenChangedDuringConnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cm := NewConnectionManager(DefaultConnectionConfig())
	state := &changingState{cm: cm, old: 1_000, fresh: 2_000}
	svc := NewService(cm, state, clockwork.NewFakeClock())
	go svc.Start(ctx)

	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		cancel()
		server.Close()
	})

	conn := dial(t, server)

	sync := readEvent(t, conn)
	assert.Equal(t, events.EventTypeCountdownSync, sync.Type)
	payload, err := sync.ParsePayload()
	require.NoError(t, err)
	assert.Equal(t, int64(2_000), payload.EndTimestamp)

	update := readEvent(t, conn)
	assert.Equal(t, events.EventTypeCountdownUpdated, update.Type)
	payload, err = update.ParsePayload()
	require.NoError(t, err)
	assert.Equal(t, int64(2_000), payload.EndTimestamp)
}
