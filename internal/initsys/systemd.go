package initsys

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"text/template"
)

// Systemd installs a oneshot unit that delegates to the controller binary
// and enables it. The unit stays "active" after the controller exits so
// systemd's view matches the marker semantics.
type Systemd struct {
	Service Service
	UnitDir string

	run runnerFunc
}

const systemdUnit = `[Unit]
Description={{.Description}}
After=network.target

[Service]
Type=oneshot
RemainAfterExit=yes
ExecStart={{.ExecPath}}{{if .ConfigPath}} --config {{.ConfigPath}}{{end}} start
ExecStop={{.ExecPath}}{{if .ConfigPath}} --config {{.ConfigPath}}{{end}} stop
ExecReload={{.ExecPath}}{{if .ConfigPath}} --config {{.ConfigPath}}{{end}} reload

[Install]
WantedBy=multi-user.target
`

var systemdTemplate = template.Must(template.New("systemd").Parse(systemdUnit))

func (a *Systemd) unitName() string { return a.Service.Name + ".service" }

func (a *Systemd) unitPath() string {
	return filepath.Join(a.UnitDir, a.unitName())
}

func (a *Systemd) Register() error {
	var buf bytes.Buffer
	if err := systemdTemplate.Execute(&buf, a.Service); err != nil {
		return fmt.Errorf("initsys: rendering unit: %w", err)
	}
	if err := os.MkdirAll(a.UnitDir, 0o755); err != nil {
		return fmt.Errorf("initsys: creating %s: %w", a.UnitDir, err)
	}
	if err := os.WriteFile(a.unitPath(), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("initsys: writing unit: %w", err)
	}

	if out, err := a.run("systemctl", "daemon-reload"); err != nil {
		return fmt.Errorf("initsys: daemon-reload: %v: %s", err, out)
	}
	if out, err := a.run("systemctl", "enable", a.unitName()); err != nil {
		return fmt.Errorf("initsys: enable: %v: %s", err, out)
	}
	return nil
}

func (a *Systemd) Deregister() error {
	if out, err := a.run("systemctl", "disable", a.unitName()); err != nil {
		return fmt.Errorf("initsys: disable: %v: %s", err, out)
	}
	if err := os.Remove(a.unitPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("initsys: removing unit: %w", err)
	}
	if out, err := a.run("systemctl", "daemon-reload"); err != nil {
		return fmt.Errorf("initsys: daemon-reload: %v: %s", err, out)
	}
	return nil
}
