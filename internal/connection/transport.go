package connection

import (
	"context"

	"remote-admin-backend/internal/model"
)

// Transport is a live channel to one remote server. Probe validates that
// the channel is usable before the manager marks the server connected;
// Invoke dispatches one named operation and returns its structured result.
type Transport interface {
	Probe(ctx context.Context) error
	Invoke(ctx context.Context, command string, params map[string]any) (map[string]any, error)
	Close() error
}

// Factory builds transports for the protocols it claims. The manager
// consults factories in registration order and uses the first match.
type Factory interface {
	SupportsProtocol(protocol string) bool
	CreateConnection(server model.RemoteServer) (Transport, error)
}
