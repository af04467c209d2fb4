package connection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"remote-admin-backend/internal/model"
	"remote-admin-backend/internal/pkg/logger"
)

// Manager owns the live transports and the per-server connection state.
// Connect attempts for the same server are serialized by a per-server
// lock; the total number of in-flight connects is capped by a semaphore
// sized from security.max_concurrent_connections.
type Manager struct {
	factories []Factory
	logger    *logger.Logger

	mu         sync.RWMutex
	transports map[string]Transport
	info       map[string]model.ConnectionInfo

	lockMu      sync.Mutex
	serverLocks map[string]*sync.Mutex

	sem *semaphore.Weighted

	// backoffBase scales the 1s, 2s, 4s... retry delays; tests shrink it.
	backoffBase time.Duration
}

// NewManager builds a manager over the given factories, consulted in
// order. maxConcurrent caps simultaneous connect attempts; values < 1
// fall back to 1.
func NewManager(factories []Factory, maxConcurrent int, log *logger.Logger) *Manager {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Manager{
		factories:   factories,
		logger:      log,
		transports:  make(map[string]Transport),
		info:        make(map[string]model.ConnectionInfo),
		serverLocks: make(map[string]*sync.Mutex),
		sem:         semaphore.NewWeighted(int64(maxConcurrent)),
		backoffBase: time.Second,
	}
}

// ConnectToServer attempts to establish and verify a transport for the
// server, retrying with exponential backoff up to its retry limit.
func (m *Manager) ConnectToServer(ctx context.Context, server model.RemoteServer) bool {
	lock := m.serverLock(server.Name)
	lock.Lock()
	defer lock.Unlock()

	factory := m.findFactory(server.Protocol)
	if factory == nil {
		m.setInfo(model.ConnectionInfo{
			ServerName: server.Name,
			Status:     model.StatusFailed,
			LastError:  fmt.Sprintf("no factory for protocol %s", server.Protocol),
		})
		m.logger.Errorw("no factory for protocol", "server", server.Name, "protocol", server.Protocol)
		return false
	}

	if err := m.sem.Acquire(ctx, 1); err != nil {
		m.setInfo(model.ConnectionInfo{
			ServerName: server.Name,
			Status:     model.StatusFailed,
			LastError:  err.Error(),
		})
		return false
	}
	defer m.sem.Release(1)

	m.setInfo(model.ConnectionInfo{
		ServerName: server.Name,
		Status:     model.StatusConnecting,
	})

	timeout := time.Duration(server.Timeout) * time.Second
	for attempt := 0; attempt < server.RetryAttempts; attempt++ {
		m.logger.ConnectionAttempt(server.Name, server.Protocol, attempt+1, server.RetryAttempts)

		err := m.attempt(ctx, factory, server, timeout)
		if err == nil {
			m.setInfo(model.ConnectionInfo{
				ServerName:  server.Name,
				Status:      model.StatusConnected,
				ConnectedAt: time.Now(),
				RetryCount:  attempt,
			})
			m.logger.Infow("connected", "server", server.Name, "attempt", attempt+1)
			return true
		}
		m.logger.Warnw("connection attempt failed",
			"server", server.Name,
			"attempt", attempt+1,
			"max_attempts", server.RetryAttempts,
			"error", err.Error(),
		)

		if attempt < server.RetryAttempts-1 {
			select {
			case <-time.After(m.backoffBase << attempt):
			case <-ctx.Done():
				m.setInfo(model.ConnectionInfo{
					ServerName: server.Name,
					Status:     model.StatusFailed,
					LastError:  ctx.Err().Error(),
					RetryCount: attempt + 1,
				})
				return false
			}
		}
	}

	m.setInfo(model.ConnectionInfo{
		ServerName: server.Name,
		Status:     model.StatusFailed,
		LastError:  fmt.Sprintf("connection failed after %d attempts", server.RetryAttempts),
		RetryCount: server.RetryAttempts,
	})
	m.logger.ConnectionFailed(server.Name, fmt.Errorf("exhausted %d attempts", server.RetryAttempts))
	return false
}

// attempt creates a transport and verifies it with the protocol probe,
// closing it again on any failure.
func (m *Manager) attempt(ctx context.Context, factory Factory, server model.RemoteServer, timeout time.Duration) error {
	attemptCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	transport, err := factory.CreateConnection(server)
	if err != nil {
		return err
	}
	if err := transport.Probe(attemptCtx); err != nil {
		transport.Close()
		return fmt.Errorf("health check: %w", err)
	}

	m.mu.Lock()
	if old, ok := m.transports[server.Name]; ok {
		old.Close()
	}
	m.transports[server.Name] = transport
	m.mu.Unlock()
	return nil
}

// DisconnectFromServer closes and forgets the server's transport; false
// if no transport was held.
func (m *Manager) DisconnectFromServer(name string) bool {
	m.mu.Lock()
	transport, ok := m.transports[name]
	if ok {
		delete(m.transports, name)
	}
	m.mu.Unlock()

	if !ok {
		return false
	}
	if err := transport.Close(); err != nil {
		m.logger.Warnw("error closing transport", "server", name, "error", err.Error())
	}

	m.mu.Lock()
	if info, exists := m.info[name]; exists {
		info.Status = model.StatusDisconnected
		m.info[name] = info
	} else {
		m.info[name] = model.ConnectionInfo{ServerName: name, Status: model.StatusDisconnected}
	}
	m.mu.Unlock()

	m.logger.Infow("disconnected", "server", name)
	return true
}

// ConnectAllServers connects every server concurrently. One server's
// failure never blocks or aborts another's attempt.
func (m *Manager) ConnectAllServers(ctx context.Context, servers []model.RemoteServer) map[string]bool {
	results := make(map[string]bool, len(servers))
	var resultsMu sync.Mutex
	var wg sync.WaitGroup

	for _, server := range servers {
		wg.Add(1)
		go func(s model.RemoteServer) {
			defer wg.Done()
			ok := m.ConnectToServer(ctx, s)
			resultsMu.Lock()
			results[s.Name] = ok
			resultsMu.Unlock()
		}(server)
	}

	wg.Wait()
	return results
}

// IsConnected reports whether a live transport is held for the server.
func (m *Manager) IsConnected(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.transports[name]
	return ok
}

// Transport returns the live transport for the server, if any.
func (m *Manager) Transport(name string) (Transport, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	transport, ok := m.transports[name]
	return transport, ok
}

// GetConnectionInfo returns a copy of the server's connection record.
func (m *Manager) GetConnectionInfo(name string) (model.ConnectionInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.info[name]
	return info, ok
}

// SetBackoffBase overrides the backoff unit; used by tests.
func (m *Manager) SetBackoffBase(d time.Duration) {
	m.backoffBase = d
}

func (m *Manager) findFactory(protocol string) Factory {
	for _, factory := range m.factories {
		if factory.SupportsProtocol(protocol) {
			return factory
		}
	}
	return nil
}

func (m *Manager) serverLock(name string) *sync.Mutex {
	m.lockMu.Lock()
	defer m.lockMu.Unlock()
	lock, ok := m.serverLocks[name]
	if !ok {
		lock = &sync.Mutex{}
		m.serverLocks[name] = lock
	}
	return lock
}

func (m *Manager) setInfo(info model.ConnectionInfo) {
	m.mu.Lock()
	m.info[info.ServerName] = info
	m.mu.Unlock()
}
