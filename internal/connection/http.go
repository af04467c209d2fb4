package connection

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"remote-admin-backend/internal/model"
)

// HTTPFactory builds transports for plain HTTP and HTTPS admin agents.
type HTTPFactory struct{}

func NewHTTPFactory() *HTTPFactory {
	return &HTTPFactory{}
}

func (f *HTTPFactory) SupportsProtocol(protocol string) bool {
	switch strings.ToLower(protocol) {
	case model.ProtocolHTTPS, model.ProtocolHTTP:
		return true
	}
	return false
}

func (f *HTTPFactory) CreateConnection(server model.RemoteServer) (Transport, error) {
	transport := &http.Transport{}
	if !server.SSLVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	client := &http.Client{
		Transport: transport,
		Timeout:   time.Duration(server.Timeout) * time.Second,
	}
	return &httpTransport{
		client:  client,
		baseURL: fmt.Sprintf("%s://%s:%d", strings.ToLower(server.Protocol), server.Host, server.Port),
		server:  server,
	}, nil
}

type httpTransport struct {
	client  *http.Client
	baseURL string
	server  model.RemoteServer
}

func (t *httpTransport) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	t.applyHeaders(req)

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	return nil
}

func (t *httpTransport) Invoke(ctx context.Context, command string, params map[string]any) (map[string]any, error) {
	payload, err := json.Marshal(map[string]any{
		"command": command,
		"params":  params,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/command", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	t.applyHeaders(req)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("command %s returned %d: %s", command, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		// Agents are allowed to answer with a bare text body.
		return map[string]any{"output": strings.TrimSpace(string(body))}, nil
	}
	return result, nil
}

func (t *httpTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

func (t *httpTransport) applyHeaders(req *http.Request) {
	if t.server.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+t.server.AuthToken)
	}
	for key, value := range t.server.CustomHeaders {
		req.Header.Set(key, value)
	}
}
