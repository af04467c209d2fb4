package connection

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"remote-admin-backend/internal/model"
)

// SSHFactory builds transports that run admin operations as shell
// commands over an SSH session.
type SSHFactory struct{}

func NewSSHFactory() *SSHFactory {
	return &SSHFactory{}
}

func (f *SSHFactory) SupportsProtocol(protocol string) bool {
	return strings.ToLower(protocol) == model.ProtocolSSH
}

func (f *SSHFactory) CreateConnection(server model.RemoteServer) (Transport, error) {
	var auth []ssh.AuthMethod

	if server.SSHKeyPath != "" {
		key, err := os.ReadFile(server.SSHKeyPath)
		if err != nil {
			return nil, fmt.Errorf("read ssh key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parse ssh key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	} else if server.AuthToken != "" {
		auth = append(auth, ssh.Password(server.AuthToken))
	}

	// The login user rides in custom_headers; root matches the agents
	// this fleet manages.
	user := server.CustomHeaders["ssh_user"]
	if user == "" {
		user = "root"
	}

	config := &ssh.ClientConfig{
		User:            user,
		Auth:            auth,
		Timeout:         time.Duration(server.Timeout) * time.Second,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}

	addr := fmt.Sprintf("%s:%d", server.Host, server.Port)
	conn, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, fmt.Errorf("ssh dial %s: %w", addr, err)
	}
	return &sshTransport{conn: conn}, nil
}

type sshTransport struct {
	conn *ssh.Client
}

func (t *sshTransport) Probe(ctx context.Context) error {
	_, err := t.run(ctx, "true")
	return err
}

func (t *sshTransport) Invoke(ctx context.Context, command string, params map[string]any) (map[string]any, error) {
	line, err := shellCommandFor(command, params)
	if err != nil {
		return nil, err
	}
	return t.run(ctx, line)
}

func (t *sshTransport) Close() error {
	return t.conn.Close()
}

type runOutcome struct {
	result map[string]any
	err    error
}

func (t *sshTransport) run(ctx context.Context, line string) (map[string]any, error) {
	session, err := t.conn.NewSession()
	if err != nil {
		return nil, fmt.Errorf("ssh session: %w", err)
	}
	defer session.Close()

	var stdout, stderr strings.Builder
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan runOutcome, 1)
	go func() {
		runErr := session.Run(line)
		exitCode := 0
		if runErr != nil {
			if exitErr, ok := runErr.(*ssh.ExitError); ok {
				exitCode = exitErr.ExitStatus()
				runErr = nil
			}
		}
		done <- runOutcome{
			result: map[string]any{
				"stdout":    strings.TrimSpace(stdout.String()),
				"stderr":    strings.TrimSpace(stderr.String()),
				"exit_code": exitCode,
			},
			err: runErr,
		}
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-ctx.Done():
		session.Close()
		return nil, ctx.Err()
	}
}

// shellCommandFor maps operation names onto the command lines the SSH
// agent runs. shell_exec passes its command through verbatim.
func shellCommandFor(command string, params map[string]any) (string, error) {
	strParam := func(key string) (string, error) {
		value, ok := params[key].(string)
		if !ok || value == "" {
			return "", fmt.Errorf("operation %s requires string param %q", command, key)
		}
		return value, nil
	}

	switch command {
	case "system_status":
		return "uptime && uname -a && free -m", nil
	case "shell_exec":
		return strParam("command")
	case "read_file":
		path, err := strParam("path")
		if err != nil {
			return "", err
		}
		return "cat " + shellQuote(path), nil
	case "service_status":
		service, err := strParam("service")
		if err != nil {
			return "", err
		}
		return "systemctl status " + shellQuote(service), nil
	case "service_restart":
		service, err := strParam("service")
		if err != nil {
			return "", err
		}
		return "systemctl restart " + shellQuote(service), nil
	case "get_logs":
		logType := "syslog"
		if value, ok := params["log_type"].(string); ok && value != "" {
			logType = value
		}
		return "journalctl -u " + shellQuote(logType) + " -n 100 --no-pager", nil
	case "list_processes":
		return "ps aux --sort=-%cpu | head -20", nil
	default:
		return "", fmt.Errorf("operation %s has no ssh mapping", command)
	}
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}
