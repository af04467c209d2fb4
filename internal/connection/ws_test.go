package connection

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/gorilla/websocket"

	"remote-admin-backend/internal/model"
)

func newWSAgent(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var frame wsFrame
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			reply := map[string]any{"command": frame.Command, "status": "ok"}
			if frame.Command == "ping" {
				reply["pong"] = true
			}
			if err := conn.WriteJSON(reply); err != nil {
				return
			}
		}
	}))
}

func wsServerFromURL(t *testing.T, rawURL string) model.RemoteServer {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatal(err)
	}
	port, _ := strconv.Atoi(u.Port())
	return model.RemoteServer{
		Name:          "ws-01",
		Host:          u.Hostname(),
		Port:          port,
		Protocol:      model.ProtocolWS,
		Timeout:       5,
		RetryAttempts: 1,
	}
}

func TestWSProbeAndInvoke(t *testing.T) {
	agent := newWSAgent(t)
	defer agent.Close()

	factory := NewWSFactory()
	if !factory.SupportsProtocol("ws") || factory.SupportsProtocol("https") {
		t.Fatal("factory protocol claims wrong")
	}

	transport, err := factory.CreateConnection(wsServerFromURL(t, agent.URL))
	if err != nil {
		t.Fatal(err)
	}
	defer transport.Close()

	if err := transport.Probe(context.Background()); err != nil {
		t.Fatalf("probe: %v", err)
	}

	result, err := transport.Invoke(context.Background(), "system_status", map[string]any{"verbose": true})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if result["command"] != "system_status" || result["status"] != "ok" {
		t.Errorf("result = %v", result)
	}
}

func TestWSDialFailure(t *testing.T) {
	server := model.RemoteServer{
		Name: "ws-02", Host: "127.0.0.1", Port: 1,
		Protocol: model.ProtocolWS, Timeout: 1, RetryAttempts: 1,
	}
	if _, err := NewWSFactory().CreateConnection(server); err == nil {
		t.Fatal("dial against closed port must fail")
	}
}
