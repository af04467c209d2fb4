package connection

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"remote-admin-backend/internal/model"
)

func mcpServerFromURL(t *testing.T, rawURL string) model.RemoteServer {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatal(err)
	}
	port, _ := strconv.Atoi(u.Port())
	return model.RemoteServer{
		Name:          "mcp-01",
		Host:          u.Hostname(),
		Port:          port,
		Protocol:      model.ProtocolMCPHTTP,
		Timeout:       5,
		RetryAttempts: 1,
	}
}

func newMCPAgent(t *testing.T, toolErr bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/mcp" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			ID     int64          `json:"id"`
			Method string         `json:"method"`
			Params map[string]any `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		switch req.Method {
		case "tools/list":
			json.NewEncoder(w).Encode(map[string]any{
				"jsonrpc": "2.0", "id": req.ID,
				"result": map[string]any{"tools": []map[string]any{{"name": "system_status"}}},
			})
		case "tools/call":
			if toolErr {
				json.NewEncoder(w).Encode(map[string]any{
					"jsonrpc": "2.0", "id": req.ID,
					"error": map[string]any{"code": -32000, "message": "tool exploded"},
				})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"jsonrpc": "2.0", "id": req.ID,
				"result": map[string]any{"tool": req.Params["name"], "status": "ok"},
			})
		default:
			json.NewEncoder(w).Encode(map[string]any{
				"jsonrpc": "2.0", "id": req.ID,
				"error": map[string]any{"code": -32601, "message": "method not found"},
			})
		}
	}))
}

func TestMCPFactoryProtocols(t *testing.T) {
	factory := NewMCPFactory()
	if !factory.SupportsProtocol("mcp-sse") || !factory.SupportsProtocol("mcp-http") {
		t.Error("factory must claim both mcp flavors")
	}
	if factory.SupportsProtocol("https") {
		t.Error("factory must not claim https")
	}
}

func TestMCPProbe(t *testing.T) {
	agent := newMCPAgent(t, false)
	defer agent.Close()

	transport, err := NewMCPFactory().CreateConnection(mcpServerFromURL(t, agent.URL))
	if err != nil {
		t.Fatal(err)
	}
	defer transport.Close()

	if err := transport.Probe(context.Background()); err != nil {
		t.Fatalf("probe: %v", err)
	}
}

func TestMCPProbeUnreachable(t *testing.T) {
	server := model.RemoteServer{
		Name: "mcp-02", Host: "127.0.0.1", Port: 1,
		Protocol: model.ProtocolMCPHTTP, Timeout: 1, RetryAttempts: 1,
	}
	transport, err := NewMCPFactory().CreateConnection(server)
	if err != nil {
		t.Fatal(err)
	}
	defer transport.Close()

	if err := transport.Probe(context.Background()); err == nil {
		t.Fatal("probe must fail against closed port")
	}
}

func TestMCPInvoke(t *testing.T) {
	agent := newMCPAgent(t, false)
	defer agent.Close()

	transport, err := NewMCPFactory().CreateConnection(mcpServerFromURL(t, agent.URL))
	if err != nil {
		t.Fatal(err)
	}
	defer transport.Close()

	result, err := transport.Invoke(context.Background(), "system_status", nil)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if result["tool"] != "system_status" || result["status"] != "ok" {
		t.Errorf("result = %v", result)
	}
}

func TestMCPInvokeRPCError(t *testing.T) {
	agent := newMCPAgent(t, true)
	defer agent.Close()

	transport, err := NewMCPFactory().CreateConnection(mcpServerFromURL(t, agent.URL))
	if err != nil {
		t.Fatal(err)
	}
	defer transport.Close()

	if _, err := transport.Invoke(context.Background(), "system_status", nil); err == nil {
		t.Fatal("invoke must surface rpc errors")
	}
}
