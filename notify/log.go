package notify

import (
	"context"
	"log/slog"
	"maps"
	"slices"
)

// LogNotifier writes events to a slog logger at the level their severity
// maps to.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a LogNotifier. A nil logger means slog.Default().
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier. It never fails.
func (n *LogNotifier) Notify(ctx context.Context, event Event) error {
	level := severityLevel(event.Severity)
	if !n.logger.Enabled(ctx, level) {
		return nil
	}

	attrs := []slog.Attr{
		slog.String("event", string(event.Type)),
		slog.String("workflow", event.Workflow),
		slog.String("step", event.Step),
	}
	if event.FromStep != "" {
		attrs = append(attrs, slog.String("from_step", event.FromStep))
	}
	if event.Trigger != "" {
		attrs = append(attrs, slog.String("trigger", event.Trigger))
	}
	if len(event.Metadata) > 0 {
		meta := make([]any, 0, len(event.Metadata))
		for _, key := range slices.Sorted(maps.Keys(event.Metadata)) {
			meta = append(meta, slog.Any(key, event.Metadata[key]))
		}
		attrs = append(attrs, slog.Group("meta", meta...))
	}

	n.logger.LogAttrs(ctx, level, event.Message, attrs...)
	return nil
}

func severityLevel(severity string) slog.Level {
	switch severity {
	case SeverityError:
		return slog.LevelError
	case SeverityWarning:
		return slog.LevelWarn
	}
	return slog.LevelInfo
}
