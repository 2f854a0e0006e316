package initsys

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Service is what gets registered with the host's init convention: the
// controller binary itself, which the generated hooks delegate to.
type Service struct {
	Name        string
	Description string
	// ExecPath is the controller executable the init hooks invoke.
	ExecPath string
	// ConfigPath, when set, is passed as --config to every delegated call.
	ConfigPath string
}

// Adapter registers and deregisters the controller under exactly one
// service convention. It is a deployment-time concern; the action
// dispatcher never calls it.
type Adapter interface {
	Register() error
	Deregister() error
}

// Options picks the convention and where its artifacts land. Empty dirs
// fall back to the conventional locations.
type Options struct {
	System    string // "sysv" or "systemd"
	ScriptDir string
	UnitDir   string
}

// New selects the adapter implementation for the configured convention.
func New(o Options, svc Service) (Adapter, error) {
	if svc.Name == "" || svc.ExecPath == "" {
		return nil, errors.New("initsys: service name and exec path are required")
	}
	switch o.System {
	case "sysv":
		dir := o.ScriptDir
		if dir == "" {
			dir = "/etc/init.d"
		}
		return &SysV{Service: svc, ScriptDir: dir, run: runCommand, look: exec.LookPath}, nil
	case "systemd":
		dir := o.UnitDir
		if dir == "" {
			dir = "/etc/systemd/system"
		}
		return &Systemd{Service: svc, UnitDir: dir, run: runCommand}, nil
	}
	return nil, fmt.Errorf("initsys: unknown init system %q", o.System)
}

// Purge removes the controller's persistent data directories. It runs only
// on a true uninstall, never on upgrade.
func Purge(dirs []string) error {
	var errs []error
	for _, d := range dirs {
		if d == "" || d == "/" {
			continue
		}
		if err := os.RemoveAll(d); err != nil {
			errs = append(errs, fmt.Errorf("initsys: purging %s: %w", d, err))
		}
	}
	return errors.Join(errs...)
}

type runnerFunc func(name string, args ...string) ([]byte, error)

func runCommand(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).CombinedOutput()
}
