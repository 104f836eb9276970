package notify

import (
	"context"

	"go.uber.org/zap"

	"optionbot/broker"
)

// Logger is a Notifier that writes messages to the process log. It stands in
// for Telegram in paper runs and tests.
type Logger struct {
	log *zap.Logger
}

// NewLogger creates a log-backed notifier.
func NewLogger(log *zap.Logger) *Logger {
	return &Logger{log: log}
}

func (l *Logger) Notify(_ context.Context, msg broker.Message) error {
	l.log.Info("notification", zap.String("title", msg.Title), zap.String("body", msg.Body))
	return nil
}
