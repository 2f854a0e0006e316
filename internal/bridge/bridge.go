package bridge

import (
	"context"
	"errors"
)

// Result carries the supervisor-facing outcome of one control operation.
// ExitCode is the control tool's process exit code; Message is its combined
// output, passed through for operator diagnosis.
type Result struct {
	ExitCode int
	Message  string
}

// Bridge translates the controller's abstract lifecycle actions into the
// concrete control mechanism of one external process supervisor. Every call
// blocks until the supervisor reports a terminal outcome or ctx expires.
// A nil error means the operation succeeded; failures wrap one of the
// sentinel errors below so callers can branch on the failure class.
type Bridge interface {
	// Start launches the supervisor process itself, which in turn brings up
	// its configured process group.
	Start(ctx context.Context) (Result, error)

	// Stop asks a running supervisor to terminate its process group and
	// exit. An endpoint that is already gone is a success; a reachable
	// supervisor reporting the target down fails with ErrNotRunning so the
	// caller can apply its own idempotence policy.
	Stop(ctx context.Context) (Result, error)

	// Reload restarts or live-reloads the managed process group without
	// tearing down the supervisor, falling back to a full stop+start cycle
	// when the supervisor has no reload verb.
	Reload(ctx context.Context) (Result, error)

	// Status queries the per-process state table. Success means the query
	// itself worked, regardless of whether children are up or down.
	Status(ctx context.Context) (Result, error)
}

var (
	// ErrUnreachable: the control endpoint could not be contacted at all
	// (socket missing, control tool missing, permission denied).
	ErrUnreachable = errors.New("supervisor unreachable")

	// ErrRejected: the supervisor was reachable but refused or failed the
	// requested action.
	ErrRejected = errors.New("supervisor rejected action")

	// ErrNotRunning: the requested action targets a service that is not
	// running. A rejection of this class on stop is absorbed as success;
	// every other ErrRejected fails the action.
	ErrNotRunning = errors.New("service not running")

	// ErrTimeout: the operation did not reach a terminal outcome within the
	// configured deadline.
	ErrTimeout = errors.New("supervisor action timed out")
)
