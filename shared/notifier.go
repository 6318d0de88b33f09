package shared

import "context"

// Notifier is the toast surface of the dashboard. The transport client
// pushes user-facing messages through it so callers never have to translate
// http failures themselves.
type Notifier interface {
	Success(ctx context.Context, message string)
	Error(ctx context.Context, message string)
}

// LogNotifier is the default surface for headless usage: notifications are
// emitted on the structured log stream.
type LogNotifier struct {
	Logger *Logger `inject:""`
}

func (n *LogNotifier) Success(ctx context.Context, message string) {
	n.Logger.Info(ctx, "notification", "kind", "success", "text", message)
}

func (n *LogNotifier) Error(ctx context.Context, message string) {
	n.Logger.Warn(ctx, "notification", "kind", "error", "text", message)
}
