package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/plexus-ops/svclift/internal/bridge"
	"github.com/plexus-ops/svclift/internal/config"
	"github.com/plexus-ops/svclift/internal/dispatcher"
	"github.com/plexus-ops/svclift/internal/initsys"
	"github.com/plexus-ops/svclift/internal/journal/factory"
	"github.com/plexus-ops/svclift/internal/logger"
	"github.com/plexus-ops/svclift/internal/metrics"
	"github.com/plexus-ops/svclift/internal/state"
)

type command struct {
	flags *GlobalFlags
}

// exitError carries the process exit code out of a RunE handler. The message
// is printed to stderr by main; an empty message means everything relevant
// was already written.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func failure(format string, args ...any) error {
	return &exitError{code: dispatcher.ExitFailure, msg: fmt.Sprintf(format, args...)}
}

// Lifecycle runs one dispatcher action end to end: config, wiring, dispatch,
// metrics dump, result reporting.
func (c command) Lifecycle(action dispatcher.Command) error {
	cfg, err := config.Load(c.flags.ConfigPath)
	if err != nil {
		return failure("%v", err)
	}
	log := newLogger(cfg)

	// Configuration problems are reported before any supervisor call.
	if err := cfg.CheckPaths(); err != nil {
		return failure("%v", err)
	}

	st, err := state.NewFileStore(cfg.Marker)
	if err != nil {
		return failure("%v", err)
	}
	br, err := bridge.NewSupervisord(cfg.Supervisor.Daemon, cfg.Supervisor.Ctl, cfg.Supervisor.Config)
	if err != nil {
		return failure("%v", err)
	}

	opts := []dispatcher.Option{
		dispatcher.WithTimeout(cfg.Timeout),
		dispatcher.WithLogger(log),
	}
	if cfg.JournalDSN != "" {
		sink, err := factory.NewSinkFromDSN(cfg.JournalDSN)
		if err != nil {
			log.Warn("journal disabled", "dsn", cfg.JournalDSN, "err", err)
		} else {
			defer func() { _ = sink.Close() }()
			opts = append(opts, dispatcher.WithJournal(sink))
		}
	}

	d := dispatcher.New(cfg.Service, st, br, opts...)
	res := d.Run(context.Background(), action)

	if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
		log.Warn("metrics textfile write failed", "path", cfg.MetricsFile, "err", err)
	}

	if !res.Success {
		return &exitError{code: res.ExitCode, msg: res.Message}
	}
	if res.Message != "" {
		fmt.Println(res.Message)
	}
	return nil
}

// Install registers the controller with the configured init convention.
func (c command) Install() error {
	cfg, err := config.Load(c.flags.ConfigPath)
	if err != nil {
		return failure("%v", err)
	}

	adapter, err := initsys.New(initOptions(cfg), c.initService(cfg))
	if err != nil {
		return failure("%v", err)
	}
	if err := adapter.Register(); err != nil {
		return failure("%v", err)
	}
	fmt.Printf("Registered %s with %s\n", cfg.Service, cfg.Init.System)
	return nil
}

// Uninstall deregisters the controller. A true uninstall additionally purges
// the marker and data directories; an upgrade leaves them for the next
// version.
func (c command) Uninstall(upgrade bool) error {
	cfg, err := config.Load(c.flags.ConfigPath)
	if err != nil {
		return failure("%v", err)
	}

	adapter, err := initsys.New(initOptions(cfg), c.initService(cfg))
	if err != nil {
		return failure("%v", err)
	}
	if err := adapter.Deregister(); err != nil {
		return failure("%v", err)
	}
	if upgrade {
		fmt.Printf("Deregistered %s (upgrade, data kept)\n", cfg.Service)
		return nil
	}

	if st, err := state.NewFileStore(cfg.Marker); err == nil {
		if err := st.Clear(); err != nil {
			return failure("%v", err)
		}
	}
	if err := initsys.Purge(cfg.DataDirs); err != nil {
		return failure("%v", err)
	}
	fmt.Printf("Deregistered %s and purged its data\n", cfg.Service)
	return nil
}

func (c command) initService(cfg *config.Config) initsys.Service {
	execPath, err := os.Executable()
	if err != nil {
		execPath = "/usr/sbin/svclift"
	}
	return initsys.Service{
		Name:        cfg.Service,
		Description: cfg.Service + " service lifecycle controller",
		ExecPath:    execPath,
		ConfigPath:  c.flags.ConfigPath,
	}
}

func initOptions(cfg *config.Config) initsys.Options {
	return initsys.Options{
		System:    cfg.Init.System,
		ScriptDir: cfg.Init.ScriptDir,
		UnitDir:   cfg.Init.UnitDir,
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logger.New(logger.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
}
