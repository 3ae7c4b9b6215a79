// Package notify delivers run alerts to external channels (Telegram,
// Discord), with per-event-type filtering so operators only see the alerts
// they asked for.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Sender is one delivery channel.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	Name() string
}

// Notifier fans a notification out to every configured sender. An empty
// allowed-event set means everything passes.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier delivering to senders, forwarding only the
// listed event types (all types when events is empty).
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify delivers to every sender when the event type passes the filter. A
// single sender failing does not block the others; failures are joined into
// the returned error.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "event filtered out", slog.String("event", event))
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
