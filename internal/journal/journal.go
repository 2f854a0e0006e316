package journal

import (
	"context"
	"time"
)

// Outcome is the terminal result of one dispatched lifecycle action.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Event is the audit record for one controller invocation: which command
// ran, how it ended, and what was reported to the caller. Events are
// best-effort; a sink failure never changes the action's outcome.
type Event struct {
	OccurredAt time.Time `json:"occurred_at"`
	Service    string    `json:"service"`
	Command    string    `json:"command"`
	Outcome    Outcome   `json:"outcome"`
	ExitCode   int       `json:"exit_code"`
	Message    string    `json:"message"`
}

// Sink is a destination for lifecycle audit events.
// Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
	Close() error
}
