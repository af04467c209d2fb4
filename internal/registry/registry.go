package registry

import (
	"sync"

	"remote-admin-backend/internal/model"
	"remote-admin-backend/internal/pkg/logger"
	"remote-admin-backend/pkg/utils"
)

// Registry is the in-memory store of server definitions. Registration
// overwrites silently; lookups return copies so callers cannot mutate
// stored records.
type Registry struct {
	mu      sync.RWMutex
	servers map[string]model.RemoteServer
	order   []string
	logger  *logger.Logger
}

func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		servers: make(map[string]model.RemoteServer),
		logger:  log,
	}
}

// Register stores the server under its name, replacing any prior entry.
// It fails only on a malformed name.
func (r *Registry) Register(server model.RemoteServer) bool {
	if err := utils.ValidateServerName(server.Name); err != nil {
		r.logger.Warnw("rejected server registration", "server", server.Name, "error", err.Error())
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.servers[server.Name]; !exists {
		r.order = append(r.order, server.Name)
	}
	r.servers[server.Name] = server
	r.logger.Infow("registered server", "server", server.Name, "host", server.Host, "port", server.Port)
	return true
}

// Unregister removes the server; false if it was not registered.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.servers[name]; !exists {
		return false
	}
	delete(r.servers, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.logger.Infow("unregistered server", "server", name)
	return true
}

// Get returns the server and whether it exists.
func (r *Registry) Get(name string) (model.RemoteServer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	server, ok := r.servers[name]
	return server, ok
}

// GetAll returns a copy of the full server map.
func (r *Registry) GetAll() map[string]model.RemoteServer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]model.RemoteServer, len(r.servers))
	for name, server := range r.servers {
		out[name] = server
	}
	return out
}

// GetByTags returns, in registration order, every server whose tag set
// intersects tags.
func (r *Registry) GetByTags(tags []string) []model.RemoteServer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.RemoteServer
	for _, name := range r.order {
		server := r.servers[name]
		if server.MatchesAnyTag(tags) {
			out = append(out, server)
		}
	}
	return out
}
