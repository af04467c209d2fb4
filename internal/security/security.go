package security

import (
	"remote-admin-backend/internal/model"
	"remote-admin-backend/internal/registry"
)

// Command classification used by group restriction checks.
var (
	dangerousCommands = map[string]bool{
		"shell_exec":      true,
		"service_restart": true,
		"reboot":          true,
		"shutdown":        true,
	}
	fileWriteCommands = map[string]bool{
		"write_file":  true,
		"edit_file":   true,
		"create_file": true,
	}
)

// Manager evaluates command policy. It holds read-only references to the
// registry and the group map and mutates neither.
type Manager struct {
	registry *registry.Registry
	groups   map[string]model.ServerGroup
}

func NewManager(reg *registry.Registry, groups map[string]model.ServerGroup) *Manager {
	if groups == nil {
		groups = make(map[string]model.ServerGroup)
	}
	return &Manager{registry: reg, groups: groups}
}

// IsCommandAllowed decides whether command may run against the named
// server. A non-empty per-server allow-list takes precedence over all
// group restrictions; otherwise every group whose tags intersect the
// server's gets a veto.
func (m *Manager) IsCommandAllowed(serverName, command string) bool {
	server, ok := m.registry.Get(serverName)
	if !ok {
		return false
	}

	if len(server.AllowedCommands) > 0 {
		for _, allowed := range server.AllowedCommands {
			if allowed == command {
				return true
			}
		}
		return false
	}

	for _, group := range m.groups {
		if server.MatchesAnyTag(group.Tags) {
			if !allowedByRestrictions(command, group.Restrictions) {
				return false
			}
		}
	}
	return true
}

// IsCommandAllowedForGroup evaluates a group's restrictions directly;
// unknown groups deny.
func (m *Manager) IsCommandAllowedForGroup(groupName, command string) bool {
	group, ok := m.groups[groupName]
	if !ok {
		return false
	}
	return allowedByRestrictions(command, group.Restrictions)
}

// GetServersInGroup resolves the group's member names via tag lookup.
func (m *Manager) GetServersInGroup(groupName string) []string {
	group, ok := m.groups[groupName]
	if !ok {
		return nil
	}
	servers := m.registry.GetByTags(group.Tags)
	names := make([]string, 0, len(servers))
	for _, server := range servers {
		names = append(names, server.Name)
	}
	return names
}

// ValidateServerAccess is the hook point for richer per-operation policy;
// today it only requires the server to exist.
func (m *Manager) ValidateServerAccess(serverName, operation string) bool {
	_, ok := m.registry.Get(serverName)
	return ok
}

// Groups returns the group map the manager was built with.
func (m *Manager) Groups() map[string]model.ServerGroup {
	out := make(map[string]model.ServerGroup, len(m.groups))
	for name, group := range m.groups {
		out[name] = group
	}
	return out
}

func allowedByRestrictions(command string, restrictions model.GroupRestrictions) bool {
	if !restrictions.DangerousCommands && dangerousCommands[command] {
		return false
	}
	if !restrictions.FileWrite && fileWriteCommands[command] {
		return false
	}
	if !restrictions.ServiceRestart && command == "service_restart" {
		return false
	}
	return true
}
