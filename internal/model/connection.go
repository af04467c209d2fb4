package model

import "time"

// ConnectionStatus is the per-server connection state machine.
type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusConnecting   ConnectionStatus = "connecting"
	StatusConnected    ConnectionStatus = "connected"
	StatusFailed       ConnectionStatus = "failed"
)

// ConnectionInfo records the outcome of the most recent connection
// lifecycle for one server. It is rebuilt on every connect attempt and
// never persisted.
type ConnectionInfo struct {
	ServerName  string           `json:"server_name"`
	Status      ConnectionStatus `json:"status"`
	ConnectedAt time.Time        `json:"connected_at,omitempty"`
	LastError   string           `json:"last_error,omitempty"`
	RetryCount  int              `json:"retry_count"`
}
