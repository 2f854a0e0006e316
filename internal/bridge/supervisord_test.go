package bridge

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("bridge tests use shell script fakes")
	}
}

// fakeTool writes an executable shell script standing in for supervisord or
// supervisorctl and returns its path.
func fakeTool(t *testing.T, name, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755)
	require.NoError(t, err)
	return path
}

func TestSupervisord_StartSuccess(t *testing.T) {
	requireUnix(t)
	daemon := fakeTool(t, "supervisord", `echo started; exit 0`)
	ctl := fakeTool(t, "supervisorctl", `exit 0`)
	b, err := NewSupervisord(daemon, ctl, "/etc/supervisord.conf")
	require.NoError(t, err)

	res, err := b.Start(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, res.ExitCode)
	require.Equal(t, "started", res.Message)
}

func TestSupervisord_StartRejected(t *testing.T) {
	requireUnix(t)
	daemon := fakeTool(t, "supervisord", `echo "Error: Another program is already listening"; exit 2`)
	ctl := fakeTool(t, "supervisorctl", `exit 0`)
	b, err := NewSupervisord(daemon, ctl, "/etc/supervisord.conf")
	require.NoError(t, err)

	res, err := b.Start(context.Background())
	require.ErrorIs(t, err, ErrRejected)
	require.Equal(t, 2, res.ExitCode)
	require.Contains(t, res.Message, "already listening")
}

func TestSupervisord_StopAbsorbsRefusedConnection(t *testing.T) {
	requireUnix(t)
	daemon := fakeTool(t, "supervisord", `exit 0`)
	ctl := fakeTool(t, "supervisorctl", `echo "unix:///var/run/supervisor.sock refused connection"; exit 2`)
	b, err := NewSupervisord(daemon, ctl, "/etc/supervisord.conf")
	require.NoError(t, err)

	res, err := b.Stop(context.Background())
	require.NoError(t, err, "stopping a stopped supervisor must succeed")
	require.Equal(t, 0, res.ExitCode)
}

func TestSupervisord_StopNotRunningIsReclassified(t *testing.T) {
	requireUnix(t)
	daemon := fakeTool(t, "supervisord", `exit 0`)
	ctl := fakeTool(t, "supervisorctl", `echo "plexus: ERROR (not running)"; exit 2`)
	b, err := NewSupervisord(daemon, ctl, "/etc/supervisord.conf")
	require.NoError(t, err)

	_, err = b.Stop(context.Background())
	require.ErrorIs(t, err, ErrNotRunning)
	require.NotErrorIs(t, err, ErrRejected)
}

func TestSupervisord_StopRefusedStaysRejected(t *testing.T) {
	requireUnix(t)
	daemon := fakeTool(t, "supervisord", `exit 0`)
	ctl := fakeTool(t, "supervisorctl", `echo "error: cannot shutdown, permission denied"; exit 2`)
	b, err := NewSupervisord(daemon, ctl, "/etc/supervisord.conf")
	require.NoError(t, err)

	_, err = b.Stop(context.Background())
	require.ErrorIs(t, err, ErrRejected)
}

func TestSupervisord_StatusTableWithDownChildren(t *testing.T) {
	requireUnix(t)
	daemon := fakeTool(t, "supervisord", `exit 0`)
	ctl := fakeTool(t, "supervisorctl", `echo "plexus    STOPPED   Not started"; exit 3`)
	b, err := NewSupervisord(daemon, ctl, "/etc/supervisord.conf")
	require.NoError(t, err)

	res, err := b.Status(context.Background())
	require.NoError(t, err, "the query succeeded even though a child is down")
	require.Equal(t, 0, res.ExitCode)
	require.Contains(t, res.Message, "STOPPED")
}

func TestSupervisord_StatusUnreachable(t *testing.T) {
	requireUnix(t)
	daemon := fakeTool(t, "supervisord", `exit 0`)
	ctl := fakeTool(t, "supervisorctl", `echo "unix:///var/run/supervisor.sock no such file"; exit 2`)
	b, err := NewSupervisord(daemon, ctl, "/etc/supervisord.conf")
	require.NoError(t, err)

	_, err = b.Status(context.Background())
	require.ErrorIs(t, err, ErrUnreachable)
}

func TestSupervisord_ReloadFallsBackToStopStart(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	touched := filepath.Join(dir, "started")
	daemon := fakeTool(t, "supervisord", `touch `+touched+`; exit 0`)
	ctl := fakeTool(t, "supervisorctl", `
case "$3" in
reload) echo "*** Unknown syntax: reload"; exit 2 ;;
shutdown) echo "Shut down"; exit 0 ;;
esac`)
	b, err := NewSupervisord(daemon, ctl, "/etc/supervisord.conf")
	require.NoError(t, err)

	_, err = b.Reload(context.Background())
	require.NoError(t, err)
	_, statErr := os.Stat(touched)
	require.NoError(t, statErr, "fallback should have relaunched the daemon")
}

func TestSupervisord_Timeout(t *testing.T) {
	requireUnix(t)
	daemon := fakeTool(t, "supervisord", `exec sleep 5`)
	ctl := fakeTool(t, "supervisorctl", `exit 0`)
	b, err := NewSupervisord(daemon, ctl, "/etc/supervisord.conf")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = b.Start(ctx)
	require.ErrorIs(t, err, ErrTimeout)
}

func TestSupervisord_MissingBinaryIsUnreachable(t *testing.T) {
	requireUnix(t)
	b, err := NewSupervisord("/nonexistent/supervisord", "/nonexistent/supervisorctl", "/etc/supervisord.conf")
	require.NoError(t, err)

	_, err = b.Start(context.Background())
	require.ErrorIs(t, err, ErrUnreachable)
}

func TestNewSupervisord_Validation(t *testing.T) {
	if _, err := NewSupervisord("", "ctl", "conf"); err == nil {
		t.Fatalf("expected error for empty daemon path")
	}
	if _, err := NewSupervisord("d", "ctl", ""); err == nil {
		t.Fatalf("expected error for empty config path")
	}
}
