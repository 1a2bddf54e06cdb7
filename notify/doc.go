// Package notify delivers workflow lifecycle notifications.
//
// The workflow engine emits an Event when a workflow starts, advances,
// parks a transition behind background tasks, completes, or sees one of
// its required tasks fail. Notifiers never block workflow progress: the
// engine logs their errors and carries on.
//
// Implementations:
//   - LogNotifier: structured slog output
//   - WebhookNotifier: JSON POST of the event, or a Slack message
//   - MultiNotifier: fan-out to several notifiers
//   - NopNotifier: discards everything
//
// Example usage:
//
//	notifier := notify.NewMultiNotifier(
//	    notify.NewLogNotifier(logger),
//	    notify.NewWebhookNotifier(url),
//	)
//	engine := workflow.NewEngine(store, workflow.WithNotifier(notifier))
package notify
