package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"remote-admin-backend/internal/handler"
	"remote-admin-backend/internal/model"
	"remote-admin-backend/internal/pkg/logger"
	"remote-admin-backend/internal/router"
	"remote-admin-backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAgent(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/command":
			var body struct {
				Command string `json:"command"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			json.NewEncoder(w).Encode(map[string]any{"command": body.Command, "status": "ok"})
		default:
			http.NotFound(w, r)
		}
	}))
}

func setupAPI(t *testing.T, agentURL string) (*gin.Engine, *service.AdminService) {
	t.Helper()
	u, err := url.Parse(agentURL)
	if err != nil {
		t.Fatal(err)
	}
	port, _ := strconv.Atoi(u.Port())

	config := fmt.Sprintf(`{
  "remote_servers": [
    {"name": "prod-01", "host": %q, "port": %d, "protocol": "http", "tags": ["production"], "retry_attempts": 1, "timeout": 5},
    {"name": "prod-02", "host": %q, "port": %d, "protocol": "http", "tags": ["production"], "retry_attempts": 1, "timeout": 5}
  ],
  "security": {
    "rate_limit": {"requests_per_minute": 6000, "burst_size": 100},
    "audit_log": {"enabled": false}
  },
  "server_groups": {
    "production": {"tags": ["production"]}
  }
}`, u.Hostname(), port, u.Hostname(), port)

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(config), 0o644); err != nil {
		t.Fatal(err)
	}

	svc := service.NewAdminService(logger.NewNop())
	if !svc.Initialize(path) {
		t.Fatal("Initialize failed")
	}
	t.Cleanup(svc.Shutdown)

	r := gin.New()
	router.RegisterRoutes(r, handler.NewAdminHandler(svc), svc.SecurityConfig())
	return r, svc
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListServers(t *testing.T) {
	agent := newAgent(t)
	defer agent.Close()
	r, _ := setupAPI(t, agent.URL)

	w := doJSON(t, r, http.MethodGet, "/api/servers", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp model.FleetStatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ServersRegistered != 2 || len(resp.Servers) != 2 {
		t.Errorf("resp = %+v", resp)
	}
	if resp.ServersConnected != 0 {
		t.Errorf("connected = %d before any connect", resp.ServersConnected)
	}
}

func TestRegisterEndpoint(t *testing.T) {
	agent := newAgent(t)
	defer agent.Close()
	r, svc := setupAPI(t, agent.URL)
	u, _ := url.Parse(agent.URL)

	body := fmt.Sprintf(`{"name": "dyn-01", "host": %q, "port": %s, "protocol": "http", "connect": true}`,
		u.Hostname(), u.Port())
	w := doJSON(t, r, http.MethodPost, "/api/servers", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"connected":true`) {
		t.Errorf("body = %s", w.Body.String())
	}
	if !svc.IsConnected("dyn-01") {
		t.Error("register with connect should leave the server connected")
	}
}

func TestRegisterEndpointValidation(t *testing.T) {
	agent := newAgent(t)
	defer agent.Close()
	r, _ := setupAPI(t, agent.URL)

	if w := doJSON(t, r, http.MethodPost, "/api/servers", `{"name": "x"}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing fields: status = %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/api/servers", `{"name": "Bad_Name", "host": "h", "port": 1}`); w.Code != http.StatusBadRequest {
		t.Errorf("bad name: status = %d", w.Code)
	}
}

func TestConnectAndExecuteEndpoints(t *testing.T) {
	agent := newAgent(t)
	defer agent.Close()
	r, _ := setupAPI(t, agent.URL)

	w := doJSON(t, r, http.MethodPost, "/api/servers/prod-01/connect", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"success":true`) {
		t.Fatalf("connect: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/api/servers/prod-01/execute", `{"command": "system_status"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("execute: %d", w.Code)
	}
	var result model.CommandResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if !result.Success || result.ServerName != "prod-01" {
		t.Errorf("result = %+v", result)
	}

	if w := doJSON(t, r, http.MethodPost, "/api/servers/ghost/connect", ""); w.Code != http.StatusNotFound {
		t.Errorf("ghost connect: status = %d", w.Code)
	}
}

func TestBulkViaGroup(t *testing.T) {
	agent := newAgent(t)
	defer agent.Close()
	r, _ := setupAPI(t, agent.URL)

	if w := doJSON(t, r, http.MethodPost, "/api/servers/connect-all", ""); w.Code != http.StatusOK {
		t.Fatalf("connect-all: %d", w.Code)
	}

	w := doJSON(t, r, http.MethodPost, "/api/commands/bulk", `{"command": "system_status", "group": "production"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("bulk: %d %s", w.Code, w.Body.String())
	}
	var result model.BulkCommandResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Results) != 2 || result.SuccessCount != 2 || result.FailedCount != 0 {
		t.Errorf("bulk result = %+v", result)
	}
}

func TestBulkValidation(t *testing.T) {
	agent := newAgent(t)
	defer agent.Close()
	r, _ := setupAPI(t, agent.URL)

	if w := doJSON(t, r, http.MethodPost, "/api/commands/bulk", `{"command": "x"}`); w.Code != http.StatusBadRequest {
		t.Errorf("no targets: status = %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/api/commands/bulk", `{"command": "x", "group": "ghost"}`); w.Code != http.StatusNotFound {
		t.Errorf("ghost group: status = %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/api/commands/bulk", `{"command": "x", "group": "production", "servers": ["a"]}`); w.Code != http.StatusBadRequest {
		t.Errorf("both targets: status = %d", w.Code)
	}
}

func TestGroupEndpoints(t *testing.T) {
	agent := newAgent(t)
	defer agent.Close()
	r, _ := setupAPI(t, agent.URL)

	if w := doJSON(t, r, http.MethodGet, "/api/groups", ""); w.Code != http.StatusOK {
		t.Errorf("groups: status = %d", w.Code)
	}

	w := doJSON(t, r, http.MethodGet, "/api/groups/production/servers", "")
	if w.Code != http.StatusOK {
		t.Fatalf("group servers: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "prod-01") || !strings.Contains(w.Body.String(), "prod-02") {
		t.Errorf("body = %s", w.Body.String())
	}

	if w := doJSON(t, r, http.MethodGet, "/api/groups/ghost/servers", ""); w.Code != http.StatusNotFound {
		t.Errorf("ghost group: status = %d", w.Code)
	}
}

func TestUnregisterEndpoint(t *testing.T) {
	agent := newAgent(t)
	defer agent.Close()
	r, svc := setupAPI(t, agent.URL)

	if w := doJSON(t, r, http.MethodDelete, "/api/servers/prod-01", ""); w.Code != http.StatusOK {
		t.Fatalf("unregister: %d", w.Code)
	}
	if _, ok := svc.GetServer("prod-01"); ok {
		t.Error("server still registered")
	}
	if w := doJSON(t, r, http.MethodDelete, "/api/servers/prod-01", ""); w.Code != http.StatusNotFound {
		t.Errorf("double unregister: status = %d", w.Code)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	limited := r.Group("/api")
	limited.Use(router.RateLimit(model.SecurityConfig{
		RateLimitPerMinute: 60,
		RateLimitBurst:     2,
	}))
	limited.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("burst requests = %v, first two should pass", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", codes[2])
	}
}
