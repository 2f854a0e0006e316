package bridge

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Supervisord drives a supervisord instance through its command line tools:
// supervisord itself for launch, supervisorctl for everything else. It never
// speaks to the managed children directly.
type Supervisord struct {
	// DaemonPath is the supervisord executable.
	DaemonPath string
	// CtlPath is the supervisorctl executable.
	CtlPath string
	// ConfigPath is passed as -c to both tools.
	ConfigPath string
}

func NewSupervisord(daemonPath, ctlPath, configPath string) (*Supervisord, error) {
	if daemonPath == "" || ctlPath == "" {
		return nil, errors.New("bridge: supervisord and supervisorctl paths are required")
	}
	if configPath == "" {
		return nil, errors.New("bridge: supervisord config path is required")
	}
	return &Supervisord{DaemonPath: daemonPath, CtlPath: ctlPath, ConfigPath: configPath}, nil
}

func (b *Supervisord) Start(ctx context.Context) (Result, error) {
	return b.run(ctx, b.DaemonPath, "-c", b.ConfigPath)
}

func (b *Supervisord) Stop(ctx context.Context) (Result, error) {
	res, err := b.run(ctx, b.CtlPath, "-c", b.ConfigPath, "shutdown")
	if errors.Is(err, ErrUnreachable) {
		// Nothing listening on the control socket means the supervisor is
		// already down; stopping a stopped service is not an error.
		return Result{ExitCode: 0, Message: "supervisor already stopped"}, nil
	}
	if errors.Is(err, ErrRejected) && notRunningOutput(res.Message) {
		// Reachable, but the service is already down. Reclassified so
		// callers can distinguish it from a genuine refusal.
		return res, fmt.Errorf("bridge: %s: %s: %w", b.CtlPath, firstLine(res.Message), ErrNotRunning)
	}
	return res, err
}

func (b *Supervisord) Reload(ctx context.Context) (Result, error) {
	res, err := b.run(ctx, b.CtlPath, "-c", b.ConfigPath, "reload")
	// supervisorctl prints "*** Unknown syntax: reload" on versions without
	// the verb.
	if errors.Is(err, ErrRejected) && strings.Contains(strings.ToLower(res.Message), "unknown syntax") {
		return b.stopStart(ctx)
	}
	return res, err
}

// stopStart is the fallback cycle for supervisors without a reload verb.
func (b *Supervisord) stopStart(ctx context.Context) (Result, error) {
	if res, err := b.Stop(ctx); err != nil {
		return res, err
	}
	return b.Start(ctx)
}

func (b *Supervisord) Status(ctx context.Context) (Result, error) {
	res, err := b.run(ctx, b.CtlPath, "-c", b.ConfigPath, "status")
	// supervisorctl exits non-zero when any child is not RUNNING, while the
	// query itself succeeded and printed the table. Only an unreachable
	// endpoint or a timeout fails the status action.
	if errors.Is(err, ErrRejected) {
		return Result{ExitCode: 0, Message: res.Message}, nil
	}
	return res, err
}

func (b *Supervisord) run(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	// Do not let output pipes inherited by supervised children keep Wait
	// alive after the control tool itself is gone.
	cmd.WaitDelay = time.Second
	out, err := cmd.CombinedOutput()
	msg := strings.TrimSpace(string(out))
	if err == nil {
		return Result{ExitCode: 0, Message: msg}, nil
	}
	if ctx.Err() != nil {
		return Result{ExitCode: 1, Message: msg},
			fmt.Errorf("bridge: %s %s: %w", name, strings.Join(args, " "), ErrTimeout)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res := Result{ExitCode: exitErr.ExitCode(), Message: msg}
		if unreachableOutput(msg) {
			return res, fmt.Errorf("bridge: %s: %s: %w", name, firstLine(msg), ErrUnreachable)
		}
		return res, fmt.Errorf("bridge: %s: %s: %w", name, firstLine(msg), ErrRejected)
	}
	// The tool could not be executed at all (missing binary, permissions).
	return Result{ExitCode: 1, Message: err.Error()},
		fmt.Errorf("bridge: exec %s: %v: %w", name, err, ErrUnreachable)
}

// unreachableOutput recognizes supervisorctl's connection failure messages,
// e.g. "unix:///var/run/supervisor.sock refused connection" or
// "... no such file".
func unreachableOutput(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "refused connection") ||
		strings.Contains(lower, "connection refused") ||
		strings.Contains(lower, "no such file")
}

// notRunningOutput recognizes supervisorctl telling us the target is already
// down, e.g. "plexus: ERROR (not running)" or "already shutting down".
func notRunningOutput(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "not running") ||
		strings.Contains(lower, "already shutting down")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
