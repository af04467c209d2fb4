package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps the zap sugared logger with helpers for the events this
// system emits most.
type Logger struct {
	*zap.SugaredLogger
}

// NewLogger builds the production logger. Level defaults to info when the
// string is empty or unrecognized.
func NewLogger(level string) *Logger {
	cfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	base, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		base = zap.NewNop()
	}
	return &Logger{SugaredLogger: base.Sugar()}
}

// NewNop returns a logger that discards everything; used in tests.
func NewNop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func (l *Logger) ConnectionAttempt(server, protocol string, attempt, max int) {
	l.Infow("connection attempt",
		"server", server,
		"protocol", protocol,
		"attempt", attempt,
		"max_attempts", max,
	)
}

func (l *Logger) ConnectionFailed(server string, err error) {
	l.Errorw("connection failed",
		"server", server,
		"error", err.Error(),
	)
}

func (l *Logger) CommandDispatch(server, command string) {
	l.Infow("command dispatch",
		"server", server,
		"command", command,
	)
}

func (l *Logger) CommandFailed(server, command string, err error) {
	l.Errorw("command failed",
		"server", server,
		"command", command,
		"error", err.Error(),
	)
}
