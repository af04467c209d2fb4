package model

// Protocol names accepted in server definitions.
const (
	ProtocolHTTPS   = "https"
	ProtocolHTTP    = "http"
	ProtocolMCPSSE  = "mcp-sse"
	ProtocolMCPHTTP = "mcp-http"
	ProtocolSSH     = "ssh"
	ProtocolWS      = "ws"
)

// RemoteServer describes one administrable remote host. Instances are
// treated as immutable once registered; re-registering the same name
// replaces the whole record.
type RemoteServer struct {
	Name            string            `json:"name"`
	Host            string            `json:"host"`
	Port            int               `json:"port"`
	Protocol        string            `json:"protocol"`
	AuthToken       string            `json:"auth_token,omitempty"`
	SSHKeyPath      string            `json:"ssh_key_path,omitempty"`
	Tags            []string          `json:"tags,omitempty"`
	SSLVerify       bool              `json:"ssl_verify"`
	Timeout         int               `json:"timeout"`
	RetryAttempts   int               `json:"retry_attempts"`
	CustomHeaders   map[string]string `json:"custom_headers,omitempty"`
	AllowedCommands []string          `json:"allowed_commands,omitempty"`
}

// HasTag reports whether the server carries the given tag.
func (s *RemoteServer) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// MatchesAnyTag reports whether the server's tag set intersects tags.
func (s *RemoteServer) MatchesAnyTag(tags []string) bool {
	for _, t := range tags {
		if s.HasTag(t) {
			return true
		}
	}
	return false
}

// GroupRestrictions holds per-group permission flags. Each flag set to
// true means the command class is allowed; the zero value is fully
// restrictive, so configuration loading applies permissive defaults.
type GroupRestrictions struct {
	DangerousCommands bool `json:"dangerous_commands"`
	FileWrite         bool `json:"file_write"`
	ServiceRestart    bool `json:"service_restart"`
}

// PermissiveRestrictions returns the default all-allowed restriction set.
func PermissiveRestrictions() GroupRestrictions {
	return GroupRestrictions{
		DangerousCommands: true,
		FileWrite:         true,
		ServiceRestart:    true,
	}
}

// ServerGroup bundles restrictions applied to every server whose tag set
// intersects the group's tags.
type ServerGroup struct {
	Name         string            `json:"name"`
	Tags         []string          `json:"tags"`
	Restrictions GroupRestrictions `json:"restrictions"`
}

// SecurityConfig carries the fleet-wide security settings block.
type SecurityConfig struct {
	DefaultTimeout           int    `json:"default_timeout"`
	MaxConcurrentConnections int    `json:"max_concurrent_connections"`
	RateLimitPerMinute       int    `json:"rate_limit_requests_per_minute"`
	RateLimitBurst           int    `json:"rate_limit_burst_size"`
	AuditLogEnabled          bool   `json:"audit_log_enabled"`
	AuditLogFile             string `json:"audit_log_file"`
	AuditLogLevel            string `json:"audit_log_level"`
}

// DefaultSecurityConfig mirrors the documented defaults applied when the
// security block is absent or partially specified.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		DefaultTimeout:           30,
		MaxConcurrentConnections: 10,
		RateLimitPerMinute:       60,
		RateLimitBurst:           10,
		AuditLogEnabled:          true,
		AuditLogFile:             "/var/log/remote-admin/audit.log",
		AuditLogLevel:            "INFO",
	}
}
