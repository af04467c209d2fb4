package model

// RegisterServerRequest is the POST /api/servers payload.
type RegisterServerRequest struct {
	Name            string            `json:"name" binding:"required"`
	Host            string            `json:"host" binding:"required"`
	Port            int               `json:"port" binding:"required"`
	Protocol        string            `json:"protocol"`
	AuthToken       string            `json:"auth_token"`
	SSHKeyPath      string            `json:"ssh_key_path"`
	Tags            []string          `json:"tags"`
	SSLVerify       *bool             `json:"ssl_verify"`
	Timeout         int               `json:"timeout"`
	RetryAttempts   int               `json:"retry_attempts"`
	CustomHeaders   map[string]string `json:"custom_headers"`
	AllowedCommands []string          `json:"allowed_commands"`
	Connect         bool              `json:"connect"`
}

// ToServer applies the documented defaults and produces the server record.
func (r *RegisterServerRequest) ToServer() RemoteServer {
	server := RemoteServer{
		Name:            r.Name,
		Host:            r.Host,
		Port:            r.Port,
		Protocol:        r.Protocol,
		AuthToken:       r.AuthToken,
		SSHKeyPath:      r.SSHKeyPath,
		Tags:            r.Tags,
		SSLVerify:       true,
		Timeout:         r.Timeout,
		RetryAttempts:   r.RetryAttempts,
		CustomHeaders:   r.CustomHeaders,
		AllowedCommands: r.AllowedCommands,
	}
	if server.Protocol == "" {
		server.Protocol = ProtocolHTTPS
	}
	if r.SSLVerify != nil {
		server.SSLVerify = *r.SSLVerify
	}
	if server.Timeout == 0 {
		server.Timeout = 30
	}
	if server.RetryAttempts == 0 {
		server.RetryAttempts = 3
	}
	return server
}

// ExecuteRequest is the POST /api/servers/:name/execute payload.
type ExecuteRequest struct {
	Command string         `json:"command" binding:"required"`
	Params  map[string]any `json:"params"`
	User    string         `json:"user"`
}

// BulkExecuteRequest is the POST /api/commands/bulk payload. Targets may
// be listed explicitly or resolved from a server group.
type BulkExecuteRequest struct {
	Command string         `json:"command" binding:"required"`
	Servers []string       `json:"servers"`
	Group   string         `json:"group"`
	Params  map[string]any `json:"params"`
	User    string         `json:"user"`
}
