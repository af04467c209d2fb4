package utils

import (
	"fmt"
	"strings"
)

var knownProtocols = map[string]bool{
	"https":    true,
	"http":     true,
	"mcp-sse":  true,
	"mcp-http": true,
	"ssh":      true,
	"ws":       true,
}

// ValidateServerName enforces the naming rules for registry keys:
// non-empty, at most 63 characters, lowercase alphanumerics and hyphens,
// no leading or trailing hyphen.
func ValidateServerName(name string) error {
	if name == "" {
		return fmt.Errorf("server name must not be empty")
	}
	if len(name) > 63 {
		return fmt.Errorf("server name exceeds 63 characters: %s", name)
	}
	for _, char := range name {
		if !((char >= 'a' && char <= 'z') || (char >= '0' && char <= '9') || char == '-') {
			return fmt.Errorf("server name may only contain lowercase letters, digits and hyphens: %s", name)
		}
	}
	if strings.HasPrefix(name, "-") || strings.HasSuffix(name, "-") {
		return fmt.Errorf("server name must not start or end with a hyphen: %s", name)
	}
	return nil
}

// ValidatePort rejects ports outside 1-65535.
func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be within 1-65535: %d", port)
	}
	return nil
}

// ValidateProtocol rejects protocol strings no factory will ever claim.
func ValidateProtocol(protocol string) error {
	if !knownProtocols[strings.ToLower(protocol)] {
		return fmt.Errorf("unsupported protocol: %s", protocol)
	}
	return nil
}
