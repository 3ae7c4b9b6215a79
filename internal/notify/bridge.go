package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/kizzybot/internal/domain"
)

// sendTimeout bounds one delivery attempt so a slow webhook cannot back up
// the bridge worker.
const sendTimeout = 10 * time.Second

// Bridge adapts the Notifier to domain.EventSink. Publish never blocks: run
// events are queued to a background worker and dropped when the queue is
// full, because notification delivery must never slow a wagering run.
type Bridge struct {
	notifier *Notifier
	queue    chan domain.RunEvent
	done     chan struct{}
	logger   *slog.Logger
}

// NewBridge starts the delivery worker. Close releases it.
func NewBridge(notifier *Notifier, logger *slog.Logger) *Bridge {
	b := &Bridge{
		notifier: notifier,
		queue:    make(chan domain.RunEvent, 128),
		done:     make(chan struct{}),
		logger:   logger.With(slog.String("component", "notify_bridge")),
	}
	go b.worker()
	return b
}

// Publish implements domain.EventSink.
func (b *Bridge) Publish(event domain.RunEvent) {
	select {
	case b.queue <- event:
	default:
		b.logger.Warn("notification queue full, dropping event",
			slog.String("type", event.Type),
			slog.String("account", event.Account),
		)
	}
}

// Close stops the worker after the queued events drain.
func (b *Bridge) Close() error {
	close(b.queue)
	<-b.done
	return nil
}

func (b *Bridge) worker() {
	defer close(b.done)
	for event := range b.queue {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		title := fmt.Sprintf("kizzybot %s", event.Type)
		message := event.Message
		if event.Account != "" {
			message = fmt.Sprintf("account %s: %s", event.Account, event.Message)
		}
		if err := b.notifier.Notify(ctx, event.Type, title, message); err != nil {
			b.logger.Warn("notification delivery failed", slog.String("error", err.Error()))
		}
		cancel()
	}
}
