package svclift

import (
	"context"

	"github.com/plexus-ops/svclift/internal/bridge"
	cfg "github.com/plexus-ops/svclift/internal/config"
	"github.com/plexus-ops/svclift/internal/dispatcher"
	"github.com/plexus-ops/svclift/internal/initsys"
	"github.com/plexus-ops/svclift/internal/journal"
	"github.com/plexus-ops/svclift/internal/journal/factory"
	"github.com/plexus-ops/svclift/internal/state"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Command = dispatcher.Command

const (
	CmdStart       = dispatcher.CmdStart
	CmdStop        = dispatcher.CmdStop
	CmdRestart     = dispatcher.CmdRestart
	CmdReload      = dispatcher.CmdReload
	CmdForceReload = dispatcher.CmdForceReload
	CmdCondrestart = dispatcher.CmdCondrestart
	CmdStatus      = dispatcher.CmdStatus
)

const (
	ExitOK      = dispatcher.ExitOK
	ExitFailure = dispatcher.ExitFailure
	ExitUsage   = dispatcher.ExitUsage
)

type Result = dispatcher.Result

type Option = dispatcher.Option

var (
	WithTimeout = dispatcher.WithTimeout
	WithLogger  = dispatcher.WithLogger
	WithJournal = dispatcher.WithJournal
)

type Bridge = bridge.Bridge

type BridgeResult = bridge.Result

var (
	ErrUnreachable = bridge.ErrUnreachable
	ErrRejected    = bridge.ErrRejected
	ErrNotRunning  = bridge.ErrNotRunning
	ErrTimeout     = bridge.ErrTimeout
)

type StateStore = state.Store

type JournalSink = journal.Sink

type JournalEvent = journal.Event

type InitService = initsys.Service

type InitOptions = initsys.Options

// Controller is a thin facade over internal/dispatcher.Dispatcher.
// It provides a stable public API for embedding.

type Controller struct{ inner *dispatcher.Dispatcher }

func New(service string, st StateStore, br Bridge, opts ...Option) *Controller {
	return &Controller{inner: dispatcher.New(service, st, br, opts...)}
}

func (c *Controller) Run(ctx context.Context, cmd Command) Result { return c.inner.Run(ctx, cmd) }

// ParseCommand maps a CLI verb to its Command, or an error carrying ExitUsage.
func ParseCommand(s string) (Command, error) { return dispatcher.Parse(s) }

func NewFileStore(path string) (*state.FileStore, error) { return state.NewFileStore(path) }

func NewSupervisordBridge(daemonPath, ctlPath, configPath string) (*bridge.Supervisord, error) {
	return bridge.NewSupervisord(daemonPath, ctlPath, configPath)
}

// NewJournalSink picks a sink backend from the DSN scheme.
func NewJournalSink(dsn string) (JournalSink, error) { return factory.NewSinkFromDSN(dsn) }

func NewInitAdapter(o InitOptions, svc InitService) (initsys.Adapter, error) {
	return initsys.New(o, svc)
}

func LoadConfig(path string) (*cfg.Config, error) {
	return cfg.Load(path)
}
