package handler

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"remote-admin-backend/internal/model"
	"remote-admin-backend/internal/service"
)

// AdminHandler exposes the admin service over HTTP.
type AdminHandler struct {
	service *service.AdminService
}

func NewAdminHandler(svc *service.AdminService) *AdminHandler {
	return &AdminHandler{service: svc}
}

// ListServers returns the fleet with per-server connection state.
func (h *AdminHandler) ListServers(c *gin.Context) {
	servers := h.service.GetAllServers()

	names := make([]string, 0, len(servers))
	for name := range servers {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := model.FleetStatusResponse{
		ServersRegistered: len(servers),
		Servers:           make([]model.ServerStatusResponse, 0, len(servers)),
	}
	for _, name := range names {
		server := servers[name]
		connected := h.service.IsConnected(name)
		if connected {
			resp.ServersConnected++
		}

		entry := model.ServerStatusResponse{
			Name:             name,
			Host:             server.Host,
			Port:             server.Port,
			Protocol:         server.Protocol,
			Tags:             server.Tags,
			Connected:        connected,
			ConnectionStatus: model.StatusDisconnected,
			HasAuthToken:     server.AuthToken != "",
			AllowedCommands:  server.AllowedCommands,
		}
		if info, ok := h.service.GetConnectionInfo(name); ok {
			entry.ConnectionStatus = info.Status
			entry.LastError = info.LastError
		}
		resp.Servers = append(resp.Servers, entry)
	}

	c.JSON(http.StatusOK, resp)
}

// RegisterServer registers a host, optionally connecting right away.
func (h *AdminHandler) RegisterServer(c *gin.Context) {
	var req model.RegisterServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Message: "invalid request", Details: err.Error()})
		return
	}

	server := req.ToServer()
	if !h.service.RegisterServer(server) {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Message: "registration rejected", Details: "invalid server name"})
		return
	}

	connected := false
	if req.Connect {
		connected = h.service.ConnectToServer(c.Request.Context(), server.Name)
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"name":      server.Name,
		"connected": connected,
	})
}

// UnregisterServer removes a host from the fleet.
func (h *AdminHandler) UnregisterServer(c *gin.Context) {
	name := c.Param("name")
	if !h.service.UnregisterServer(name) {
		c.JSON(http.StatusNotFound, model.ErrorResponse{Message: "server not registered: " + name})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "name": name})
}

// ConnectServer connects one registered host.
func (h *AdminHandler) ConnectServer(c *gin.Context) {
	name := c.Param("name")
	if _, ok := h.service.GetServer(name); !ok {
		c.JSON(http.StatusNotFound, model.ErrorResponse{Message: "server not registered: " + name})
		return
	}

	success := h.service.ConnectToServer(c.Request.Context(), name)
	info, _ := h.service.GetConnectionInfo(name)
	c.JSON(http.StatusOK, gin.H{
		"success":    success,
		"name":       name,
		"status":     info.Status,
		"last_error": info.LastError,
	})
}

// ConnectAll connects the whole fleet concurrently.
func (h *AdminHandler) ConnectAll(c *gin.Context) {
	results := h.service.ConnectAllServers(c.Request.Context())
	connected := 0
	for _, ok := range results {
		if ok {
			connected++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"connected": connected,
		"total":     len(results),
		"results":   results,
	})
}

// ExecuteCommand runs one command on one host.
func (h *AdminHandler) ExecuteCommand(c *gin.Context) {
	name := c.Param("name")

	var req model.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Message: "invalid request", Details: err.Error()})
		return
	}

	user := req.User
	if user == "" {
		user = "api:" + uuid.NewString()
	}
	result := h.service.ExecuteCommand(c.Request.Context(), name, req.Command, req.Params, user)
	c.JSON(http.StatusOK, result)
}

// ExecuteBulkCommand fans a command out across named hosts or a group.
func (h *AdminHandler) ExecuteBulkCommand(c *gin.Context) {
	var req model.BulkExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Message: "invalid request", Details: err.Error()})
		return
	}

	targets := req.Servers
	if req.Group != "" {
		if len(targets) > 0 {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Message: "specify either servers or group, not both"})
			return
		}
		targets = h.service.GetServersInGroup(req.Group)
		if len(targets) == 0 {
			c.JSON(http.StatusNotFound, model.ErrorResponse{Message: "no servers in group: " + req.Group})
			return
		}
	}
	if len(targets) == 0 {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Message: "no target servers"})
		return
	}

	user := req.User
	if user == "" {
		user = "api:" + uuid.NewString()
	}
	result := h.service.ExecuteBulkCommand(c.Request.Context(), targets, req.Command, req.Params, user)
	c.JSON(http.StatusOK, result)
}

// ListGroups returns the configured server groups.
func (h *AdminHandler) ListGroups(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.GetServerGroups())
}

// GroupServers resolves a group's member servers by tag intersection.
func (h *AdminHandler) GroupServers(c *gin.Context) {
	name := c.Param("name")
	groups := h.service.GetServerGroups()
	if _, ok := groups[name]; !ok {
		c.JSON(http.StatusNotFound, model.ErrorResponse{Message: "unknown group: " + name})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"group":   name,
		"servers": h.service.GetServersInGroup(name),
	})
}
