package logger

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/event"
	"go.uber.org/zap"
)

type monitorLogLevel int

const (
	monitorSilent monitorLogLevel = iota
	monitorError
	monitorWarn
	monitorInfo
)

// MongoMonitor is a command monitor for the mongo driver that uses zap.
// It remembers the command document from the started event so slow and
// failed commands can be logged together with what was sent.
type MongoMonitor struct {
	zapLogger     *zap.Logger
	slowThreshold time.Duration
	logLevel      monitorLogLevel

	mu       sync.Mutex
	commands map[int64]string
}

// NewMongoMonitorWithConfig creates a new mongo command monitor with configuration
func NewMongoMonitorWithConfig(zapLogger *zap.Logger, slowQuerySeconds float64, logLevel string) *MongoMonitor {
	// Parse log level
	var level monitorLogLevel
	switch logLevel {
	case "silent":
		level = monitorSilent
	case "error":
		level = monitorError
	case "warn", "warning":
		level = monitorWarn
	case "info", "debug":
		level = monitorInfo
	default:
		level = monitorWarn
	}

	slowThreshold := time.Duration(slowQuerySeconds * float64(time.Second))

	return &MongoMonitor{
		zapLogger:     zapLogger,
		slowThreshold: slowThreshold,
		logLevel:      level,
		commands:      make(map[int64]string),
	}
}

// CommandMonitor returns the event monitor to install on the mongo client.
// Returns nil when logging is silenced so the driver skips monitoring entirely.
func (m *MongoMonitor) CommandMonitor() *event.CommandMonitor {
	if m.logLevel <= monitorSilent {
		return nil
	}
	return &event.CommandMonitor{
		Started:   m.handleStarted,
		Succeeded: m.handleSucceeded,
		Failed:    m.handleFailed,
	}
}

func (m *MongoMonitor) handleStarted(_ context.Context, evt *event.CommandStartedEvent) {
	// Truncate command if too long (prevent log flooding)
	const maxCommandLength = 1000
	command := evt.Command.String()
	if len(command) > maxCommandLength {
		command = command[:maxCommandLength] + "..."
	}

	m.mu.Lock()
	m.commands[evt.RequestID] = command
	m.mu.Unlock()
}

func (m *MongoMonitor) handleSucceeded(ctx context.Context, evt *event.CommandSucceededEvent) {
	command := m.takeCommand(evt.RequestID)

	slow := m.slowThreshold != 0 && evt.Duration > m.slowThreshold

	// Get logger with context (includes request_id if available)
	logger := WithContext(ctx, m.zapLogger)

	// Base fields
	fields := []zap.Field{
		zap.String("command_name", evt.CommandName),
		zap.String("database", evt.DatabaseName),
		zap.String("command", command),
		zap.Duration("elapsed", evt.Duration),
		zap.Float64("elapsed_ms", float64(evt.Duration.Nanoseconds())/1e6),
	}

	// Log slow commands as warnings
	if slow && m.logLevel >= monitorWarn {
		fields = append(fields, zap.Duration("threshold", m.slowThreshold))
		logger.Warn("mongo slow command", fields...)
		return
	}

	// Log all commands at info level
	if m.logLevel >= monitorInfo {
		logger.Info("mongo command", fields...)
	}
}

func (m *MongoMonitor) handleFailed(ctx context.Context, evt *event.CommandFailedEvent) {
	command := m.takeCommand(evt.RequestID)

	if m.logLevel < monitorError {
		return
	}

	logger := WithContext(ctx, m.zapLogger)
	logger.Error("mongo command error",
		zap.String("command_name", evt.CommandName),
		zap.String("database", evt.DatabaseName),
		zap.String("command", command),
		zap.Duration("elapsed", evt.Duration),
		zap.Error(evt.Failure),
	)
}

func (m *MongoMonitor) takeCommand(requestID int64) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	command, ok := m.commands[requestID]
	if ok {
		delete(m.commands, requestID)
	}
	return command
}
