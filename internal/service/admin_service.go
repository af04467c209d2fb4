package service

import (
	"context"
	"fmt"

	"remote-admin-backend/internal/audit"
	"remote-admin-backend/internal/config"
	"remote-admin-backend/internal/connection"
	"remote-admin-backend/internal/executor"
	"remote-admin-backend/internal/model"
	"remote-admin-backend/internal/pkg/logger"
	"remote-admin-backend/internal/registry"
	"remote-admin-backend/internal/security"
)

// AdminService is the composition root: it wires registry, connections,
// security, execution and audit together and is the only surface the
// HTTP layer talks to.
type AdminService struct {
	registry    *registry.Registry
	connections *connection.Manager
	security    *security.Manager
	executor    *executor.Executor
	audit       *audit.Logger
	securityCfg model.SecurityConfig
	logger      *logger.Logger
}

// NewAdminService builds the service with an empty registry and the
// default protocol factories. Initialize populates it from configuration.
func NewAdminService(log *logger.Logger) *AdminService {
	svc := &AdminService{
		registry:    registry.NewRegistry(log),
		securityCfg: model.DefaultSecurityConfig(),
		logger:      log,
	}
	svc.rebuild(nil)
	return svc
}

// rebuild constructs the policy-dependent components. Called once at
// construction with no groups and again after each config load.
func (s *AdminService) rebuild(groups map[string]model.ServerGroup) {
	factories := []connection.Factory{
		connection.NewMCPFactory(),
		connection.NewHTTPFactory(),
		connection.NewSSHFactory(),
		connection.NewWSFactory(),
	}
	s.connections = connection.NewManager(factories, s.securityCfg.MaxConcurrentConnections, s.logger)
	s.security = security.NewManager(s.registry, groups)
	s.executor = executor.NewExecutor(s.connections, s.registry, s.security, s.securityCfg.MaxConcurrentConnections, s.logger)
}

// Initialize loads the fleet configuration. On failure the service stays
// usable with an empty registry (degraded mode) and false is returned.
func (s *AdminService) Initialize(configPath string) bool {
	cfg, err := config.LoadFleetConfig(configPath)
	if err != nil {
		s.logger.Errorw("configuration load failed", "path", configPath, "error", err.Error())
		return false
	}

	s.securityCfg = cfg.Security
	for _, server := range cfg.Servers {
		s.registry.Register(server)
	}
	s.rebuild(cfg.ServerGroups)

	if cfg.Security.AuditLogEnabled {
		auditLogger, err := audit.NewLogger(cfg.Security.AuditLogFile, cfg.Security.AuditLogLevel, s.logger)
		if err != nil {
			s.logger.Warnw("audit logger unavailable", "file", cfg.Security.AuditLogFile, "error", err.Error())
		} else {
			s.audit = auditLogger
		}
	}

	s.logger.Infow("service initialized",
		"servers", len(cfg.Servers),
		"groups", len(cfg.ServerGroups),
		"audit_enabled", cfg.Security.AuditLogEnabled,
	)
	return true
}

// ConnectAllServers connects the whole registered fleet concurrently.
func (s *AdminService) ConnectAllServers(ctx context.Context) map[string]bool {
	servers := s.registry.GetAll()
	list := make([]model.RemoteServer, 0, len(servers))
	for _, server := range servers {
		list = append(list, server)
	}
	results := s.connections.ConnectAllServers(ctx, list)
	if s.audit != nil {
		for name, ok := range results {
			s.audit.LogConnectionEvent(name, "CONNECT", ok, "")
		}
	}
	return results
}

// RegisterServer adds (or replaces) a server and audits the event.
func (s *AdminService) RegisterServer(server model.RemoteServer) bool {
	ok := s.registry.Register(server)
	if ok && s.audit != nil {
		s.audit.LogConnectionEvent(server.Name, "REGISTER", true,
			fmt.Sprintf("server registered: %s:%d", server.Host, server.Port))
	}
	return ok
}

// UnregisterServer disconnects and removes a server.
func (s *AdminService) UnregisterServer(name string) bool {
	s.connections.DisconnectFromServer(name)
	ok := s.registry.Unregister(name)
	if ok && s.audit != nil {
		s.audit.LogConnectionEvent(name, "UNREGISTER", true, "")
	}
	return ok
}

// ConnectToServer connects one registered server and audits the outcome.
func (s *AdminService) ConnectToServer(ctx context.Context, name string) bool {
	server, ok := s.registry.Get(name)
	if !ok {
		return false
	}
	success := s.connections.ConnectToServer(ctx, server)
	if s.audit != nil {
		s.audit.LogConnectionEvent(name, "CONNECT", success, "")
	}
	return success
}

// ExecuteCommand runs one command with per-result auditing.
func (s *AdminService) ExecuteCommand(ctx context.Context, serverName, command string, params map[string]any, user string) model.CommandResult {
	if user == "" {
		user = "system"
	}
	result := s.executor.ExecuteCommand(ctx, serverName, command, params)
	if s.audit != nil {
		s.audit.LogCommandExecution(serverName, command, user, result.Success, result.Error)
	}
	return result
}

// ExecuteBulkCommand fans a command out and audits each target's outcome.
func (s *AdminService) ExecuteBulkCommand(ctx context.Context, serverNames []string, command string, params map[string]any, user string) model.BulkCommandResult {
	if user == "" {
		user = "system"
	}
	result := s.executor.ExecuteBulkCommand(ctx, serverNames, command, params)
	if s.audit != nil {
		for name, cmdResult := range result.Results {
			s.audit.LogCommandExecution(name, command, user, cmdResult.Success, cmdResult.Error)
		}
	}
	return result
}

// Read-only accessors mirroring the component surfaces.

func (s *AdminService) GetServer(name string) (model.RemoteServer, bool) {
	return s.registry.Get(name)
}

func (s *AdminService) GetAllServers() map[string]model.RemoteServer {
	return s.registry.GetAll()
}

func (s *AdminService) GetServersByTags(tags []string) []model.RemoteServer {
	return s.registry.GetByTags(tags)
}

func (s *AdminService) IsConnected(name string) bool {
	return s.connections.IsConnected(name)
}

func (s *AdminService) GetConnectionInfo(name string) (model.ConnectionInfo, bool) {
	return s.connections.GetConnectionInfo(name)
}

func (s *AdminService) GetServerGroups() map[string]model.ServerGroup {
	return s.security.Groups()
}

func (s *AdminService) IsCommandAllowed(serverName, command string) bool {
	return s.security.IsCommandAllowed(serverName, command)
}

func (s *AdminService) IsCommandAllowedForGroup(groupName, command string) bool {
	return s.security.IsCommandAllowedForGroup(groupName, command)
}

func (s *AdminService) GetServersInGroup(groupName string) []string {
	return s.security.GetServersInGroup(groupName)
}

// SecurityConfig exposes the loaded security settings for middleware.
func (s *AdminService) SecurityConfig() model.SecurityConfig {
	return s.securityCfg
}

// Shutdown disconnects every registered server, best effort.
func (s *AdminService) Shutdown() {
	for name := range s.registry.GetAll() {
		s.connections.DisconnectFromServer(name)
	}
	if s.audit != nil {
		s.audit.Sync()
	}
	s.logger.Infow("service shut down")
}
