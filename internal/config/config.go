package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SupervisorConfig identifies how to reach the external supervisor. It is
// fixed at load time and never mutated during the controller's life.
type SupervisorConfig struct {
	// Daemon is the supervisord executable used to launch the supervisor.
	Daemon string `toml:"daemon" mapstructure:"daemon"`
	// Ctl is the supervisorctl executable used for every other action.
	Ctl string `toml:"ctl" mapstructure:"ctl"`
	// Config is the supervisord configuration file, passed as -c.
	Config string `toml:"config" mapstructure:"config"`
}

type LogConfig struct {
	Level      string `toml:"level" mapstructure:"level"`
	File       string `toml:"file" mapstructure:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `toml:"compress" mapstructure:"compress"`
}

// InitConfig selects exactly one service-registration convention.
type InitConfig struct {
	System    string `toml:"system" mapstructure:"system"` // "sysv" or "systemd"
	ScriptDir string `toml:"script_dir" mapstructure:"script_dir"`
	UnitDir   string `toml:"unit_dir" mapstructure:"unit_dir"`
}

type Config struct {
	// Service is the name the controller manages and registers under.
	Service string `toml:"service" mapstructure:"service"`
	// Marker is the lock-indicator path. Empty derives
	// /var/lock/subsys/<service>.
	Marker string `toml:"marker" mapstructure:"marker"`
	// Timeout bounds each supervisor call.
	Timeout time.Duration `toml:"timeout" mapstructure:"timeout"`

	Supervisor SupervisorConfig `toml:"supervisor" mapstructure:"supervisor"`

	// JournalDSN selects the audit sink (sqlite path or postgres URL).
	// Empty disables the journal.
	JournalDSN string `toml:"journal_dsn" mapstructure:"journal_dsn"`
	// MetricsFile is the textfile-collector dump path. Empty disables it.
	MetricsFile string `toml:"metrics_file" mapstructure:"metrics_file"`
	// DataDirs are purged on true uninstall. Empty derives
	// /var/lib/<service> and /var/log/<service>.
	DataDirs []string `toml:"data_dirs" mapstructure:"data_dirs"`

	Log  LogConfig  `toml:"log" mapstructure:"log"`
	Init InitConfig `toml:"init" mapstructure:"init"`
}

// Load reads configuration with precedence: defaults, then the optional TOML
// file, then SVCLIFT_* environment variables. All knobs are overridable
// without code changes.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SVCLIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	c.applyDerived()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service", "plexus")
	v.SetDefault("marker", "")
	v.SetDefault("timeout", "60s")
	v.SetDefault("supervisor.daemon", "/usr/bin/supervisord")
	v.SetDefault("supervisor.ctl", "/usr/bin/supervisorctl")
	v.SetDefault("supervisor.config", "/etc/plexus/supervisord.conf")
	v.SetDefault("journal_dsn", "")
	v.SetDefault("metrics_file", "")
	v.SetDefault("data_dirs", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 0)
	v.SetDefault("log.max_backups", 0)
	v.SetDefault("log.max_age_days", 0)
	v.SetDefault("log.compress", false)
	v.SetDefault("init.system", "sysv")
	v.SetDefault("init.script_dir", "/etc/init.d")
	v.SetDefault("init.unit_dir", "/etc/systemd/system")
}

func (c *Config) applyDerived() {
	if c.Marker == "" && c.Service != "" {
		c.Marker = filepath.Join("/var/lock/subsys", c.Service)
	}
	if len(c.DataDirs) == 0 && c.Service != "" {
		c.DataDirs = []string{
			filepath.Join("/var/lib", c.Service),
			filepath.Join("/var/log", c.Service),
		}
	}
}

// Validate checks the configuration's shape. Path existence is checked
// separately by CheckPaths so that install/uninstall can run on hosts where
// the supervisor is not present yet.
func (c *Config) Validate() error {
	if c.Service == "" {
		return fmt.Errorf("config: service name must not be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("config: timeout must be positive, got %v", c.Timeout)
	}
	if c.Supervisor.Daemon == "" || c.Supervisor.Ctl == "" || c.Supervisor.Config == "" {
		return fmt.Errorf("config: supervisor daemon, ctl and config paths are required")
	}
	switch c.Init.System {
	case "sysv", "systemd":
	default:
		return fmt.Errorf("config: init.system must be sysv or systemd, got %q", c.Init.System)
	}
	return nil
}

// CheckPaths verifies the supervisor executables and configuration exist and
// are readable. Lifecycle commands call it before the first bridge call so
// a broken deployment fails with a configuration error, not a confusing
// supervisor one.
func (c *Config) CheckPaths() error {
	for _, p := range []string{c.Supervisor.Daemon, c.Supervisor.Ctl, c.Supervisor.Config} {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}
