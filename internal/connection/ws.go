package connection

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"remote-admin-backend/internal/model"
)

// WSFactory builds transports that exchange one JSON frame per operation
// over a persistent websocket.
type WSFactory struct{}

func NewWSFactory() *WSFactory {
	return &WSFactory{}
}

func (f *WSFactory) SupportsProtocol(protocol string) bool {
	return strings.ToLower(protocol) == model.ProtocolWS
}

func (f *WSFactory) CreateConnection(server model.RemoteServer) (Transport, error) {
	header := http.Header{}
	if server.AuthToken != "" {
		header.Set("Authorization", "Bearer "+server.AuthToken)
	}
	for key, value := range server.CustomHeaders {
		header.Set(key, value)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: time.Duration(server.Timeout) * time.Second,
	}
	url := fmt.Sprintf("ws://%s:%d/ws", server.Host, server.Port)
	conn, _, err := dialer.Dial(url, header)
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", url, err)
	}
	return &wsTransport{conn: conn, timeout: time.Duration(server.Timeout) * time.Second}, nil
}

type wsFrame struct {
	Command string         `json:"command"`
	Params  map[string]any `json:"params,omitempty"`
}

type wsTransport struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	timeout time.Duration
}

func (t *wsTransport) Probe(ctx context.Context) error {
	_, err := t.roundTrip(ctx, wsFrame{Command: "ping"})
	return err
}

func (t *wsTransport) Invoke(ctx context.Context, command string, params map[string]any) (map[string]any, error) {
	return t.roundTrip(ctx, wsFrame{Command: command, Params: params})
}

func (t *wsTransport) Close() error {
	return t.conn.Close()
}

// roundTrip serializes request/response pairs on the single socket; the
// agent protocol is strictly one reply per frame.
func (t *wsTransport) roundTrip(ctx context.Context, frame wsFrame) (map[string]any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	deadline := time.Now().Add(t.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	t.conn.SetWriteDeadline(deadline)
	t.conn.SetReadDeadline(deadline)

	if err := t.conn.WriteJSON(frame); err != nil {
		return nil, fmt.Errorf("websocket write: %w", err)
	}
	var result map[string]any
	if err := t.conn.ReadJSON(&result); err != nil {
		return nil, fmt.Errorf("websocket read: %w", err)
	}
	return result, nil
}
