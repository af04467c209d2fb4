package model

// ServerStatusResponse is one entry of the GET /api/servers listing.
type ServerStatusResponse struct {
	Name             string           `json:"name"`
	Host             string           `json:"host"`
	Port             int              `json:"port"`
	Protocol         string           `json:"protocol"`
	Tags             []string         `json:"tags,omitempty"`
	Connected        bool             `json:"connected"`
	ConnectionStatus ConnectionStatus `json:"connection_status"`
	LastError        string           `json:"last_error,omitempty"`
	HasAuthToken     bool             `json:"has_auth_token"`
	AllowedCommands  []string         `json:"allowed_commands,omitempty"`
}

// FleetStatusResponse summarizes the registered fleet.
type FleetStatusResponse struct {
	ServersRegistered int                    `json:"servers_registered"`
	ServersConnected  int                    `json:"servers_connected"`
	Servers           []ServerStatusResponse `json:"servers"`
}

// ErrorResponse is the uniform error body returned by the API.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
