package domain

import "time"

// Run event types, used by the notifier filter and the websocket hub.
const (
	EventBetPlaced  = "bet_placed"
	EventBetFailed  = "bet_failed"
	EventClaimed    = "reward_claimed"
	EventRunStarted = "run_started"
	EventRunDone    = "run_done"
	EventRunFailed  = "run_failed"
)

// RunEvent is a broadcast-friendly record of something that happened during
// an account run.
type RunEvent struct {
	Type    string    `json:"type"`
	Account string    `json:"account"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// EventSink receives run events. Publish must never block the run pipeline;
// implementations drop events when consumers fall behind.
type EventSink interface {
	Publish(event RunEvent)
}
