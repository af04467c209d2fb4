package config

import (
	"encoding/json"
	"fmt"
	"os"

	"remote-admin-backend/internal/model"
	"remote-admin-backend/pkg/utils"
)

// FleetConfig is the parsed fleet configuration: the host list, the
// security settings block and the named server groups.
type FleetConfig struct {
	Servers      []model.RemoteServer
	Security     model.SecurityConfig
	ServerGroups map[string]model.ServerGroup
}

// raw wire shapes; defaults are applied while converting to the model.
type rawConfig struct {
	RemoteServers []rawServer         `json:"remote_servers"`
	Security      *rawSecurity        `json:"security"`
	ServerGroups  map[string]rawGroup `json:"server_groups"`
}

type rawServer struct {
	Name            string            `json:"name"`
	Host            string            `json:"host"`
	Port            int               `json:"port"`
	Protocol        string            `json:"protocol"`
	AuthToken       string            `json:"auth_token"`
	SSHKeyPath      string            `json:"ssh_key_path"`
	Tags            []string          `json:"tags"`
	SSLVerify       *bool             `json:"ssl_verify"`
	Timeout         int               `json:"timeout"`
	RetryAttempts   *int              `json:"retry_attempts"`
	CustomHeaders   map[string]string `json:"custom_headers"`
	AllowedCommands []string          `json:"allowed_commands"`
}

type rawSecurity struct {
	DefaultTimeout           int `json:"default_timeout"`
	MaxConcurrentConnections int `json:"max_concurrent_connections"`
	RateLimit                struct {
		RequestsPerMinute int `json:"requests_per_minute"`
		BurstSize         int `json:"burst_size"`
	} `json:"rate_limit"`
	AuditLog struct {
		Enabled *bool  `json:"enabled"`
		File    string `json:"file"`
		Level   string `json:"level"`
	} `json:"audit_log"`
}

type rawGroup struct {
	Tags         []string `json:"tags"`
	Restrictions *struct {
		DangerousCommands *bool `json:"dangerous_commands"`
		FileWrite         *bool `json:"file_write"`
		ServiceRestart    *bool `json:"service_restart"`
	} `json:"restrictions"`
}

// ParseFleetConfig substitutes ${VAR} placeholders and decodes the JSON
// document. Malformed JSON or an invalid server entry is a hard failure.
func ParseFleetConfig(raw []byte) (*FleetConfig, error) {
	substituted := SubstituteEnvVars(string(raw))

	var doc rawConfig
	if err := json.Unmarshal([]byte(substituted), &doc); err != nil {
		return nil, utils.NewConfigError(fmt.Errorf("parse config: %w", err))
	}

	cfg := &FleetConfig{
		Security:     model.DefaultSecurityConfig(),
		ServerGroups: make(map[string]model.ServerGroup),
	}

	for _, rs := range doc.RemoteServers {
		server, err := rs.toServer()
		if err != nil {
			return nil, utils.NewConfigError(err)
		}
		cfg.Servers = append(cfg.Servers, server)
	}

	if doc.Security != nil {
		applySecurity(&cfg.Security, doc.Security)
	}

	for name, rg := range doc.ServerGroups {
		cfg.ServerGroups[name] = rg.toGroup(name)
	}

	return cfg, nil
}

// LoadFleetConfig reads and parses the configuration file at path.
func LoadFleetConfig(path string) (*FleetConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, utils.NewConfigError(fmt.Errorf("read config %s: %w", path, err))
	}
	return ParseFleetConfig(raw)
}

func (rs *rawServer) toServer() (model.RemoteServer, error) {
	if rs.Name == "" || rs.Host == "" || rs.Port == 0 {
		return model.RemoteServer{}, fmt.Errorf("server entry requires name, host and port (got name=%q)", rs.Name)
	}
	if err := utils.ValidateServerName(rs.Name); err != nil {
		return model.RemoteServer{}, err
	}
	if err := utils.ValidatePort(rs.Port); err != nil {
		return model.RemoteServer{}, err
	}

	server := model.RemoteServer{
		Name:            rs.Name,
		Host:            rs.Host,
		Port:            rs.Port,
		Protocol:        rs.Protocol,
		AuthToken:       rs.AuthToken,
		SSHKeyPath:      rs.SSHKeyPath,
		Tags:            rs.Tags,
		SSLVerify:       true,
		Timeout:         rs.Timeout,
		RetryAttempts:   3,
		CustomHeaders:   rs.CustomHeaders,
		AllowedCommands: rs.AllowedCommands,
	}
	if server.Protocol == "" {
		server.Protocol = model.ProtocolHTTPS
	}
	if err := utils.ValidateProtocol(server.Protocol); err != nil {
		return model.RemoteServer{}, err
	}
	if rs.SSLVerify != nil {
		server.SSLVerify = *rs.SSLVerify
	}
	if server.Timeout == 0 {
		server.Timeout = 30
	}
	if rs.RetryAttempts != nil {
		server.RetryAttempts = *rs.RetryAttempts
	}
	if server.RetryAttempts < 0 {
		return model.RemoteServer{}, fmt.Errorf("retry_attempts must be non-negative for %s", rs.Name)
	}
	return server, nil
}

func applySecurity(sec *model.SecurityConfig, raw *rawSecurity) {
	if raw.DefaultTimeout > 0 {
		sec.DefaultTimeout = raw.DefaultTimeout
	}
	if raw.MaxConcurrentConnections > 0 {
		sec.MaxConcurrentConnections = raw.MaxConcurrentConnections
	}
	if raw.RateLimit.RequestsPerMinute > 0 {
		sec.RateLimitPerMinute = raw.RateLimit.RequestsPerMinute
	}
	if raw.RateLimit.BurstSize > 0 {
		sec.RateLimitBurst = raw.RateLimit.BurstSize
	}
	if raw.AuditLog.Enabled != nil {
		sec.AuditLogEnabled = *raw.AuditLog.Enabled
	}
	if raw.AuditLog.File != "" {
		sec.AuditLogFile = raw.AuditLog.File
	}
	if raw.AuditLog.Level != "" {
		sec.AuditLogLevel = raw.AuditLog.Level
	}
}

func (rg *rawGroup) toGroup(name string) model.ServerGroup {
	group := model.ServerGroup{
		Name:         name,
		Tags:         rg.Tags,
		Restrictions: model.PermissiveRestrictions(),
	}
	if rg.Restrictions != nil {
		if rg.Restrictions.DangerousCommands != nil {
			group.Restrictions.DangerousCommands = *rg.Restrictions.DangerousCommands
		}
		if rg.Restrictions.FileWrite != nil {
			group.Restrictions.FileWrite = *rg.Restrictions.FileWrite
		}
		if rg.Restrictions.ServiceRestart != nil {
			group.Restrictions.ServiceRestart = *rg.Restrictions.ServiceRestart
		}
	}
	return group
}
