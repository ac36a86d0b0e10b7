package notify

import (
	"context"

	"go.uber.org/zap"
)

// Notifier delivers one user-facing notification. playSound marks the alert
// as audible; how (or whether) a sound is played belongs to the delivery
// side. Implementations are best effort: the scheduler ignores errors beyond
// logging them.
type Notifier interface {
	Deliver(ctx context.Context, title, message string, playSound bool) error
}

type Multi []Notifier

func (m Multi) Deliver(ctx context.Context, title, message string, playSound bool) error {
	var firstErr error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Deliver(ctx, title, message, playSound); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Log writes notifications to the structured log. Always present so that
// decisions stay observable even with no delivery channel configured.
type Log struct {
	Logger *zap.Logger
}

func (l *Log) Deliver(ctx context.Context, title, message string, playSound bool) error {
	l.Logger.Info("notify",
		zap.String("title", title),
		zap.String("message", message),
		zap.Bool("sound", playSound),
	)
	return nil
}
