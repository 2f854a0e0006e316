package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plexus-ops/svclift/internal/dispatcher"
)

func TestBuildRoot_SubcommandSurface(t *testing.T) {
	root := buildRoot()
	want := map[string]bool{
		"start": false, "stop": false, "restart": false, "reload": false,
		"force-reload": false, "condrestart": false, "status": false,
		"install": false, "uninstall": false,
	}
	for _, c := range root.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		require.True(t, found, "missing subcommand %s", name)
	}
}

func TestRoot_UnknownCommandFails(t *testing.T) {
	root := buildRoot()
	root.SetArgs([]string{"banana"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.Execute()
	require.Error(t, err, "unknown commands must be rejected")
	var ee *exitError
	require.False(t, errors.As(err, &ee), "usage errors are not exitErrors; main maps them to exit 2")
}

// setupFakeDeployment points the SVCLIFT_* environment at shell script
// fakes so a full Lifecycle run stays hermetic.
func setupFakeDeployment(t *testing.T, daemonScript, ctlScript string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("lifecycle tests use shell script fakes")
	}
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o755))
		return p
	}
	daemon := write("supervisord", "#!/bin/sh\n"+daemonScript+"\n")
	ctl := write("supervisorctl", "#!/bin/sh\n"+ctlScript+"\n")
	conf := write("supervisord.conf", "[supervisord]\n")
	marker := filepath.Join(dir, "marker")

	t.Setenv("SVCLIFT_SUPERVISOR_DAEMON", daemon)
	t.Setenv("SVCLIFT_SUPERVISOR_CTL", ctl)
	t.Setenv("SVCLIFT_SUPERVISOR_CONFIG", conf)
	t.Setenv("SVCLIFT_MARKER", marker)
	return marker
}

func TestLifecycle_StartSetsMarker(t *testing.T) {
	marker := setupFakeDeployment(t, "exit 0", "exit 0")
	c := command{flags: &GlobalFlags{}}

	require.NoError(t, c.Lifecycle(dispatcher.CmdStart))
	_, err := os.Stat(marker)
	require.NoError(t, err, "successful start must leave the marker behind")
}

func TestLifecycle_StartFailureExitsOne(t *testing.T) {
	marker := setupFakeDeployment(t, `echo "Error: could not read config"; exit 2`, "exit 0")
	c := command{flags: &GlobalFlags{}}

	err := c.Lifecycle(dispatcher.CmdStart)
	require.Error(t, err)
	var ee *exitError
	require.True(t, errors.As(err, &ee))
	require.Equal(t, dispatcher.ExitFailure, ee.code)

	_, statErr := os.Stat(marker)
	require.True(t, os.IsNotExist(statErr), "failed start must not set the marker")
}

func TestLifecycle_CondrestartWithoutMarkerIsNoop(t *testing.T) {
	marker := setupFakeDeployment(t, "exit 0", `echo "should not be called"; exit 1`)
	c := command{flags: &GlobalFlags{}}

	require.NoError(t, c.Lifecycle(dispatcher.CmdCondrestart))
	_, statErr := os.Stat(marker)
	require.True(t, os.IsNotExist(statErr))
}

func TestLifecycle_MissingSupervisorIsConfigError(t *testing.T) {
	setupFakeDeployment(t, "exit 0", "exit 0")
	t.Setenv("SVCLIFT_SUPERVISOR_DAEMON", "/nonexistent/supervisord")
	c := command{flags: &GlobalFlags{}}

	err := c.Lifecycle(dispatcher.CmdStart)
	require.Error(t, err)
	var ee *exitError
	require.True(t, errors.As(err, &ee))
	require.Equal(t, dispatcher.ExitFailure, ee.code)
}
