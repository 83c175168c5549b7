package countdown_client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mcdev12/countdown/go/clients"
	"github.com/mcdev12/countdown/go/internal/countdown/events"
	"github.com/mcdev12/countdown/go/internal/models"
)

const (
	countdownEndpoint = "/api/countdown"
	streamEndpoint    = "/ws/countdown"
	adminKeyHeader    = "x-admin-key"
)

// ErrMalformedResponse is returned when the server answers without a numeric endTimestamp.
var ErrMalformedResponse = errors.New("response has no numeric endTimestamp")

// Client talks to the countdown HTTP API
type Client struct {
	base   *clients.BaseClient
	dialer *websocket.Dialer
}

// NewClient creates a client for the server at baseURL. adminKey may be
// empty for read-only use.
func NewClient(baseURL, adminKey string) *Client {
	base := clients.NewBaseClient(baseURL)
	base.SetTimeout(10 * time.Second)
	if adminKey != "" {
		base.SetHeader(adminKeyHeader, adminKey)
	}
	return &Client{
		base: base,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// SetTimeout bounds every HTTP request.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.base.SetTimeout(timeout)
}

// Get returns the authoritative end timestamp.
func (c *Client) Get(ctx context.Context) (int64, error) {
	body, err := c.base.Get(ctx, countdownEndpoint)
	if err != nil {
		return 0, fmt.Errorf("get countdown: %w", err)
	}
	return decodeEnd(body)
}

// SetAbsolute asks the server to end the countdown at endTimestamp.
func (c *Client) SetAbsolute(ctx context.Context, endTimestamp int64) (int64, error) {
	return c.post(ctx, map[string]int64{"endTimestamp": endTimestamp})
}

// Reset asks the server to start a fresh default window.
func (c *Client) Reset(ctx context.Context) (int64, error) {
	return c.post(ctx, map[string]bool{"reset": true})
}

func (c *Client) post(ctx context.Context, payload any) (int64, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}
	body, err := c.base.Post(ctx, countdownEndpoint, bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("update countdown: %w", err)
	}
	return decodeEnd(body)
}

// Subscribe streams countdown events to fn until ctx is cancelled or the
// connection drops. The first event is the server's current value.
func (c *Client) Subscribe(ctx context.Context, fn func(events.CountdownEvent)) error {
	url := streamURL(c.base.BaseURL())
	conn, _, err := c.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		var event events.CountdownEvent
		if err := conn.ReadJSON(&event); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read countdown stream: %w", err)
		}
		fn(event)
	}
}

// EndTimestampFromEvent extracts the end timestamp an event carries.
func EndTimestampFromEvent(event events.CountdownEvent) (int64, bool) {
	var raw struct {
		EndTimestamp json.RawMessage `json:"endTimestamp"`
	}
	if err := json.Unmarshal(event.Data, &raw); err != nil {
		return 0, false
	}
	return models.ParseTimestamp(raw.EndTimestamp)
}

func decodeEnd(body []byte) (int64, error) {
	var raw struct {
		EndTimestamp json.RawMessage `json:"endTimestamp"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	ts, ok := models.ParseTimestamp(raw.EndTimestamp)
	if !ok {
		return 0, ErrMalformedResponse
	}
	return ts, nil
}

func streamURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://") + streamEndpoint
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://") + streamEndpoint
	default:
		return base + streamEndpoint
	}
}
