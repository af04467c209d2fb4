package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"remote-admin-backend/internal/model"
)

// MCPFactory builds transports for MCP agents. Both the SSE and the
// streamable-HTTP flavor are driven through JSON-RPC POSTs to the agent's
// /mcp endpoint; the liveness probe enumerates the agent's tools.
type MCPFactory struct{}

func NewMCPFactory() *MCPFactory {
	return &MCPFactory{}
}

func (f *MCPFactory) SupportsProtocol(protocol string) bool {
	switch strings.ToLower(protocol) {
	case model.ProtocolMCPSSE, model.ProtocolMCPHTTP:
		return true
	}
	return false
}

func (f *MCPFactory) CreateConnection(server model.RemoteServer) (Transport, error) {
	client := &http.Client{
		Timeout: time.Duration(server.Timeout) * time.Second,
	}
	return &mcpTransport{
		client:   client,
		endpoint: fmt.Sprintf("http://%s:%d/mcp", server.Host, server.Port),
		server:   server,
	}, nil
}

type mcpTransport struct {
	client   *http.Client
	endpoint string
	server   model.RemoteServer
	nextID   atomic.Int64
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (t *mcpTransport) Probe(ctx context.Context) error {
	_, err := t.call(ctx, "tools/list", nil)
	return err
}

func (t *mcpTransport) Invoke(ctx context.Context, command string, params map[string]any) (map[string]any, error) {
	raw, err := t.call(ctx, "tools/call", map[string]any{
		"name":      command,
		"arguments": params,
	})
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode tool result: %w", err)
	}
	return result, nil
}

func (t *mcpTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

func (t *mcpTransport) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      t.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if t.server.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+t.server.AuthToken)
	}
	for key, value := range t.server.CustomHeaders {
		req.Header.Set(key, value)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %d", method, resp.StatusCode)
	}

	var rpc rpcResponse
	if err := json.Unmarshal(body, &rpc); err != nil {
		return nil, fmt.Errorf("decode rpc response: %w", err)
	}
	if rpc.Error != nil {
		return nil, fmt.Errorf("rpc error %d: %s", rpc.Error.Code, rpc.Error.Message)
	}
	return rpc.Result, nil
}
