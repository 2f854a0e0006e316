package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/plexus-ops/svclift/internal/dispatcher"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			if ee.msg != "" {
				_, _ = fmt.Fprintln(os.Stderr, ee.msg)
			}
			os.Exit(ee.code)
		}
		// Anything cobra rejected itself (unknown command, bad flags) is a
		// usage error; cobra already printed the usage line to stderr.
		os.Exit(dispatcher.ExitUsage)
	}
}

// GlobalFlags holds the persistent flags shared by every subcommand.
type GlobalFlags struct {
	ConfigPath string
}

func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	svcliftCommand := command{flags: globalFlags}

	root := &cobra.Command{
		Use:   "svclift",
		Short: "Lifecycle controller for a supervisor-managed service",
		Long: `Svclift starts, stops, restarts and reports on a service whose process
tree is owned by an external supervisor (supervisord). It tracks the last
confirmed state in a marker file so conditional restarts and status queries
keep working when the supervisor is unreachable.

Exit codes: 0 success, 1 failure, 2 usage error.

Examples:
  svclift start
  svclift condrestart
  svclift status
  svclift --config /etc/svclift/svclift.toml restart`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&globalFlags.ConfigPath, "config", "", "path to TOML config file (optional)")

	root.AddCommand(
		createLifecycleCommand(svcliftCommand, dispatcher.CmdStart,
			"Start the supervisor and its process group"),
		createLifecycleCommand(svcliftCommand, dispatcher.CmdStop,
			"Stop the supervisor and its process group"),
		createLifecycleCommand(svcliftCommand, dispatcher.CmdRestart,
			"Restart the managed process group"),
		createLifecycleCommand(svcliftCommand, dispatcher.CmdReload,
			"Reload the managed process group's configuration"),
		createLifecycleCommand(svcliftCommand, dispatcher.CmdForceReload,
			"Reload, falling back to a full restart"),
		createLifecycleCommand(svcliftCommand, dispatcher.CmdCondrestart,
			"Restart only if the service is marked started"),
		createLifecycleCommand(svcliftCommand, dispatcher.CmdStatus,
			"Show the supervisor's per-process status table"),
		createInstallCommand(svcliftCommand),
		createUninstallCommand(svcliftCommand),
	)

	return root
}

// createLifecycleCommand wires one dispatcher action as a subcommand. All
// seven share the same plumbing; only the verb differs.
func createLifecycleCommand(svcliftCommand command, action dispatcher.Command, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(action),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return svcliftCommand.Lifecycle(action)
		},
	}
}

func createInstallCommand(svcliftCommand command) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Register the service with the host's init system",
		Long: `Register the controller under the configured init convention, either a
numbered-priority init script (sysv) or a unit file (systemd). Exactly one
convention is used, selected by init.system in the config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return svcliftCommand.Install()
		},
	}
}

func createUninstallCommand(svcliftCommand command) *cobra.Command {
	var upgrade bool
	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Deregister the service from the host's init system",
		Long: `Deregister the controller from the init system. Without --upgrade this is
a true uninstall: the service's state marker and data directories are purged
as well. With --upgrade they are preserved for the incoming version.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return svcliftCommand.Uninstall(upgrade)
		},
	}
	cmd.Flags().BoolVar(&upgrade, "upgrade", false, "keep state and data directories (package upgrade, not removal)")
	return cmd
}
