package audit

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"remote-admin-backend/internal/pkg/logger"
)

// Logger appends structured audit records to a file. Every method is
// fire-and-forget: sink failures are warned about internally and never
// surfaced to callers.
type Logger struct {
	sink *zap.Logger
	app  *logger.Logger
}

// NewLogger opens (creating directories as needed) the append-only audit
// sink. Levels below the configured one are dropped, matching the audit
// level setting in the security block.
func NewLogger(file, level string, app *logger.Logger) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, fmt.Errorf("create audit log dir: %w", err)
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	encoderCfg := zapcore.EncoderConfig{
		TimeKey:          "ts",
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		ConsoleSeparator: " - ",
	}

	out, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log %s: %w", file, err)
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(zapcore.AddSync(out)),
		lvl,
	)
	return &Logger{sink: zap.New(core), app: app}, nil
}

// LogCommandExecution records one command outcome.
func (l *Logger) LogCommandExecution(serverName, command, user string, success bool, errMsg string) {
	message := fmt.Sprintf("COMMAND_EXEC - Server: %s, Command: %s, User: %s, Status: %s",
		serverName, command, user, statusWord(success))
	if errMsg != "" {
		message += ", Error: " + errMsg
	}
	l.write(success, message)
}

// LogConnectionEvent records a connection lifecycle event such as
// REGISTER, CONNECT or DISCONNECT.
func (l *Logger) LogConnectionEvent(serverName, eventType string, success bool, details string) {
	message := fmt.Sprintf("CONNECTION_%s - Server: %s, Status: %s",
		eventType, serverName, statusWord(success))
	if details != "" {
		message += ", Details: " + details
	}
	l.write(success, message)
}

// Sync flushes buffered records; errors are swallowed per the
// fire-and-forget contract.
func (l *Logger) Sync() {
	_ = l.sink.Sync()
}

func (l *Logger) write(success bool, message string) {
	defer func() {
		if r := recover(); r != nil {
			l.app.Warnw("audit write failed", "panic", fmt.Sprint(r))
		}
	}()
	if success {
		l.sink.Info(message)
	} else {
		l.sink.Error(message)
	}
}

func statusWord(success bool) string {
	if success {
		return "SUCCESS"
	}
	return "FAILED"
}
