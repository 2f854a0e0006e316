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

// SysV installs a numbered-priority init script that delegates every
// lifecycle verb to the controller binary, then enables it with whichever
// registration tool the host carries (chkconfig on RedHat lineage,
// update-rc.d on Debian lineage).
type SysV struct {
	Service   Service
	ScriptDir string

	run  runnerFunc
	look func(string) (string, error)
}

const sysvScript = `#!/bin/sh
# chkconfig: 2345 99 01
# description: {{.Description}}
# processname: {{.Name}}

### BEGIN INIT INFO
# Provides:          {{.Name}}
# Required-Start:    $remote_fs $network
# Required-Stop:     $remote_fs $network
# Default-Start:     2 3 4 5
# Default-Stop:      0 1 6
# Short-Description: {{.Description}}
### END INIT INFO

exec {{.ExecPath}}{{if .ConfigPath}} --config {{.ConfigPath}}{{end}} "$@"
`

var sysvTemplate = template.Must(template.New("sysv").Parse(sysvScript))

func (a *SysV) scriptPath() string {
	return filepath.Join(a.ScriptDir, a.Service.Name)
}

func (a *SysV) Register() error {
	var buf bytes.Buffer
	if err := sysvTemplate.Execute(&buf, a.Service); err != nil {
		return fmt.Errorf("initsys: rendering init script: %w", err)
	}
	if err := os.MkdirAll(a.ScriptDir, 0o755); err != nil {
		return fmt.Errorf("initsys: creating %s: %w", a.ScriptDir, err)
	}
	if err := os.WriteFile(a.scriptPath(), buf.Bytes(), 0o755); err != nil {
		return fmt.Errorf("initsys: writing init script: %w", err)
	}

	if _, err := a.look("chkconfig"); err == nil {
		if out, err := a.run("chkconfig", "--add", a.Service.Name); err != nil {
			return fmt.Errorf("initsys: chkconfig --add: %v: %s", err, out)
		}
		return nil
	}
	if _, err := a.look("update-rc.d"); err == nil {
		if out, err := a.run("update-rc.d", a.Service.Name, "defaults"); err != nil {
			return fmt.Errorf("initsys: update-rc.d: %v: %s", err, out)
		}
		return nil
	}
	return errors.New("initsys: neither chkconfig nor update-rc.d found")
}

func (a *SysV) Deregister() error {
	if _, err := a.look("chkconfig"); err == nil {
		if out, err := a.run("chkconfig", "--del", a.Service.Name); err != nil {
			return fmt.Errorf("initsys: chkconfig --del: %v: %s", err, out)
		}
	} else if _, err := a.look("update-rc.d"); err == nil {
		if out, err := a.run("update-rc.d", "-f", a.Service.Name, "remove"); err != nil {
			return fmt.Errorf("initsys: update-rc.d remove: %v: %s", err, out)
		}
	}

	if err := os.Remove(a.scriptPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("initsys: removing init script: %w", err)
	}
	return nil
}
