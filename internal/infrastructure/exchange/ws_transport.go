package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vitos/hl_funding_tools/internal/domain"
)

// WSTransport sends info requests over the websocket "post" method instead of REST.
// Requests are serialized on a single lazily dialed connection.
type WSTransport struct {
	url     string
	timeout time.Duration
	dialer  *websocket.Dialer
	conn    *websocket.Conn
	nextID  int64
	mu      sync.Mutex
}

type wsPostRequest struct {
	Method  string     `json:"method"`
	ID      int64      `json:"id"`
	Request wsPostBody `json:"request"`
}

type wsPostBody struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type wsEnvelope struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

type wsPostResponse struct {
	ID       int64 `json:"id"`
	Response struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	} `json:"response"`
}

func NewWSTransport(url string, timeout time.Duration) *WSTransport {
	if url == "" {
		url = HyperliquidWSURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WSTransport{
		url:     url,
		timeout: timeout,
		dialer:  &websocket.Dialer{HandshakeTimeout: timeout},
	}
}

func (t *WSTransport) Post(ctx context.Context, payload interface{}) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		conn, _, err := t.dialer.DialContext(ctx, t.url, nil)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", t.url, err)
		}
		t.conn = conn
	}

	deadline := time.Now().Add(t.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = t.conn.SetWriteDeadline(deadline)
	_ = t.conn.SetReadDeadline(deadline)

	// Cancelling ctx expires the deadlines so a blocked read or write returns.
	stop := make(chan struct{})
	exited := make(chan struct{})
	go func(conn *websocket.Conn) {
		defer close(exited)
		select {
		case <-ctx.Done():
			now := time.Now()
			_ = conn.SetWriteDeadline(now)
			_ = conn.SetReadDeadline(now)
		case <-stop:
		}
	}(t.conn)
	defer func() {
		close(stop)
		<-exited
	}()

	t.nextID++
	id := t.nextID
	req := wsPostRequest{
		Method:  "post",
		ID:      id,
		Request: wsPostBody{Type: "info", Payload: payload},
	}
	if err := t.conn.WriteJSON(req); err != nil {
		t.reset()
		if ctx.Err() != nil {
			return nil, fmt.Errorf("ws write: %w", ctx.Err())
		}
		return nil, fmt.Errorf("ws write: %w", err)
	}

	for {
		_, msg, err := t.conn.ReadMessage()
		if err != nil {
			t.reset()
			if ctx.Err() != nil {
				return nil, fmt.Errorf("ws read: %w", ctx.Err())
			}
			return nil, fmt.Errorf("ws read: %w", err)
		}

		var env wsEnvelope
		if err := json.Unmarshal(msg, &env); err != nil || env.Channel != "post" {
			continue
		}

		var resp wsPostResponse
		if err := json.Unmarshal(env.Data, &resp); err != nil {
			return nil, fmt.Errorf("decode ws response: %w", err)
		}
		if resp.ID != id {
			continue
		}

		switch resp.Response.Type {
		case "error":
			var text string
			if err := json.Unmarshal(resp.Response.Payload, &text); err != nil {
				text = string(resp.Response.Payload)
			}
			return nil, &domain.APIError{Source: source, Body: text}
		case "info":
			// Info replies are wrapped as {"type": <request type>, "data": <result>}.
			var wrapped struct {
				Data json.RawMessage `json:"data"`
			}
			if err := json.Unmarshal(resp.Response.Payload, &wrapped); err != nil {
				return nil, fmt.Errorf("decode ws info payload: %w", err)
			}
			return wrapped.Data, nil
		default:
			return nil, fmt.Errorf("unexpected ws response type %q", resp.Response.Type)
		}
	}
}

func (t *WSTransport) reset() {
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
}

func (t *WSTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return nil
	}
	_ = t.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	err := t.conn.Close()
	t.conn = nil
	return err
}
