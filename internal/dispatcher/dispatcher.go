package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/plexus-ops/svclift/internal/bridge"
	"github.com/plexus-ops/svclift/internal/journal"
	"github.com/plexus-ops/svclift/internal/metrics"
	"github.com/plexus-ops/svclift/internal/state"
)

// Command is one operator-facing lifecycle action.
type Command string

const (
	CmdStart       Command = "start"
	CmdStop        Command = "stop"
	CmdRestart     Command = "restart"
	CmdReload      Command = "reload"
	CmdForceReload Command = "force-reload"
	CmdCondrestart Command = "condrestart"
	CmdStatus      Command = "status"
)

// Exit codes the caller branches on.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// ErrUsage marks an unrecognized command. It is reported before any bridge
// or state store interaction.
var ErrUsage = errors.New("unrecognized command")

// Parse maps a raw CLI argument to a Command.
func Parse(s string) (Command, error) {
	switch c := Command(s); c {
	case CmdStart, CmdStop, CmdRestart, CmdReload, CmdForceReload, CmdCondrestart, CmdStatus:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUsage, s)
}

// Result is the outcome of one dispatched action, never persisted.
type Result struct {
	Command  Command
	Success  bool
	ExitCode int
	Message  string
}

// Dispatcher runs one lifecycle action against the supervisor and keeps the
// marker consistent with confirmed outcomes. It performs at most one bridge
// call chain per Run, synchronously, under the store's advisory lock.
type Dispatcher struct {
	service string
	store   state.Store
	bridge  bridge.Bridge
	timeout time.Duration
	logger  *slog.Logger
	sink    journal.Sink
}

type Option func(*Dispatcher)

// WithTimeout bounds the supervisor call of one action.
func WithTimeout(d time.Duration) Option {
	return func(dp *Dispatcher) {
		if d > 0 {
			dp.timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(dp *Dispatcher) {
		if l != nil {
			dp.logger = l
		}
	}
}

// WithJournal attaches a best-effort audit sink. Sink errors are logged and
// never change the action's outcome.
func WithJournal(s journal.Sink) Option {
	return func(dp *Dispatcher) { dp.sink = s }
}

const DefaultTimeout = 60 * time.Second

func New(service string, st state.Store, br bridge.Bridge, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		service: service,
		store:   st,
		bridge:  br,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Run executes one command to completion and reports the result. State reads
// and writes around the action are strictly ordered: read, act, then write
// only after the bridge confirmed the outcome.
func (d *Dispatcher) Run(ctx context.Context, cmd Command) Result {
	if _, err := Parse(string(cmd)); err != nil {
		return Result{Command: cmd, ExitCode: ExitUsage, Message: err.Error()}
	}

	started := time.Now()
	res := d.run(ctx, cmd)
	d.observe(cmd, res, time.Since(started))
	return res
}

func (d *Dispatcher) run(ctx context.Context, cmd Command) Result {
	unlock, err := d.store.Lock()
	if err != nil {
		return d.stateFailure(cmd, err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	switch cmd {
	case CmdStart:
		return d.start(ctx)
	case CmdStop:
		return d.stop(ctx)
	case CmdRestart, CmdReload, CmdForceReload:
		return d.restart(ctx, cmd)
	case CmdCondrestart:
		return d.condrestart(ctx)
	default:
		return d.status(ctx)
	}
}

func (d *Dispatcher) start(ctx context.Context) Result {
	res, err := d.bridge.Start(ctx)
	if err != nil {
		// Marker stays untouched: the most recent confirmed state holds.
		return d.bridgeFailure(CmdStart, res, err)
	}
	if err := d.store.Set(); err != nil {
		return d.stateFailure(CmdStart, err)
	}
	return success(CmdStart, orDefault(res.Message, "service started"))
}

func (d *Dispatcher) stop(ctx context.Context) Result {
	res, err := d.bridge.Stop(ctx)
	switch {
	case err == nil:
	case errors.Is(err, bridge.ErrNotRunning):
		// Stopping a stopped service is not an error: clear the marker and
		// report success. Any other rejection is a real failure and leaves
		// the marker untouched.
		d.logger.Warn("service already stopped",
			"service", d.service, "detail", res.Message)
	default:
		return d.bridgeFailure(CmdStop, res, err)
	}
	if err := d.store.Clear(); err != nil {
		return d.stateFailure(CmdStop, err)
	}
	return success(CmdStop, orDefault(res.Message, "service stopped"))
}

func (d *Dispatcher) restart(ctx context.Context, cmd Command) Result {
	res, err := d.bridge.Reload(ctx)
	if err != nil {
		return d.bridgeFailure(cmd, res, err)
	}
	// A successful restart implies the service is started.
	if err := d.store.Set(); err != nil {
		return d.stateFailure(cmd, err)
	}
	return success(cmd, orDefault(res.Message, "service restarted"))
}

func (d *Dispatcher) condrestart(ctx context.Context) Result {
	exists, err := d.store.Exists()
	if err != nil {
		return d.stateFailure(CmdCondrestart, err)
	}
	if !exists {
		// Nothing to do is a success, not a failure, and the bridge is
		// never consulted.
		return success(CmdCondrestart, "service not marked started, nothing to do")
	}
	return d.restart(ctx, CmdCondrestart)
}

func (d *Dispatcher) status(ctx context.Context) Result {
	res, err := d.bridge.Status(ctx)
	if err == nil {
		return success(CmdStatus, res.Message)
	}
	if errors.Is(err, bridge.ErrUnreachable) {
		// The live query is the source of truth; with the supervisor
		// unreachable the marker is the only hint left.
		msg := err.Error()
		if exists, serr := d.store.Exists(); serr == nil {
			if exists {
				msg += " (marker present: service was last started)"
			} else {
				msg += " (marker absent: service was last stopped)"
			}
		}
		return Result{Command: CmdStatus, ExitCode: ExitFailure, Message: msg}
	}
	return d.bridgeFailure(CmdStatus, res, err)
}

func (d *Dispatcher) bridgeFailure(cmd Command, res bridge.Result, err error) Result {
	msg := err.Error()
	if res.Message != "" && !strings.Contains(msg, res.Message) {
		msg += ": " + res.Message
	}
	return Result{Command: cmd, ExitCode: ExitFailure, Message: msg}
}

// stateFailure reports a marker I/O problem distinctly from supervisor
// failures, so operators can tell a controller/filesystem problem from a
// service problem.
func (d *Dispatcher) stateFailure(cmd Command, err error) Result {
	return Result{Command: cmd, ExitCode: ExitFailure,
		Message: fmt.Sprintf("state store: %v", err)}
}

func (d *Dispatcher) observe(cmd Command, res Result, elapsed time.Duration) {
	outcome := journal.OutcomeFailure
	if res.Success {
		outcome = journal.OutcomeSuccess
	}
	d.logger.Info("action finished",
		"service", d.service, "command", string(cmd),
		"outcome", string(outcome), "exit_code", res.ExitCode,
		"elapsed", elapsed)

	metrics.RecordAction(string(cmd), string(outcome), elapsed.Seconds())
	if up, err := d.store.Exists(); err == nil {
		metrics.SetServiceUp(up)
	}

	if d.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	e := journal.Event{
		OccurredAt: time.Now().UTC(),
		Service:    d.service,
		Command:    string(cmd),
		Outcome:    outcome,
		ExitCode:   res.ExitCode,
		Message:    res.Message,
	}
	if err := d.sink.Send(ctx, e); err != nil {
		d.logger.Warn("journal write failed", "err", err)
	}
}

func success(cmd Command, msg string) Result {
	return Result{Command: cmd, Success: true, ExitCode: ExitOK, Message: msg}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
