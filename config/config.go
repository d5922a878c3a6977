package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kbukum/assetgraph/observability"
	"github.com/kbukum/assetgraph/validation"
)

// DefaultServiceName names the process in logs, traces and health reports.
const DefaultServiceName = "assetgraph"

// Config is the full assetgraph configuration.
type Config struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Project ProjectConfig              `yaml:"project" mapstructure:"project"`
	Build   BuildConfig                `yaml:"build" mapstructure:"build"`
	Server  ServerConfig               `yaml:"server" mapstructure:"server"`
	Watch   WatchConfig                `yaml:"watch" mapstructure:"watch"`
	Tracing observability.TracerConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics observability.MeterConfig  `yaml:"metrics" mapstructure:"metrics"`
}

// ProjectConfig locates the project and its settings files.
type ProjectConfig struct {
	Root        string `yaml:"root" mapstructure:"root" validate:"required"`
	SettingsDir string `yaml:"settings_dir" mapstructure:"settings_dir" validate:"required"`
	GraphFile   string `yaml:"graph_file" mapstructure:"graph_file" validate:"required"`
	LoaderFile  string `yaml:"loader_file" mapstructure:"loader_file" validate:"required"`
	CacheDir    string `yaml:"cache_dir" mapstructure:"cache_dir" validate:"required"`
}

// BuildConfig holds build defaults.
type BuildConfig struct {
	Target string `yaml:"target" mapstructure:"target" validate:"required"`
	// ExportRoot, when set, is prefixed to relative Exporter paths.
	ExportRoot string `yaml:"export_root" mapstructure:"export_root"`
}

// ServerConfig configures the HTTP bridge.
type ServerConfig struct {
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port" validate:"gte=1,lte=65535"`
	Mode            string        `yaml:"mode" mapstructure:"mode" validate:"oneof=debug release test"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// WatchConfig configures the import watcher.
type WatchConfig struct {
	QuietPeriod time.Duration `yaml:"quiet_period" mapstructure:"quiet_period"`
	// Ignore lists extra file extensions the watcher never imports.
	Ignore []string `yaml:"ignore" mapstructure:"ignore"`
}

// Default settings locations relative to the project root.
const (
	DefaultSettingsDir = "AssetBundleGraph/SettingFiles"
	DefaultGraphFile   = "AssetGraph.json"
	DefaultLoaderFile  = "LoaderFolders.json"
	DefaultCacheDir    = "AssetBundleGraph/Cache"
	DefaultTarget      = "default"
)

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()

	if c.Project.Root == "" {
		c.Project.Root = "."
	}
	if c.Project.SettingsDir == "" {
		c.Project.SettingsDir = DefaultSettingsDir
	}
	if c.Project.GraphFile == "" {
		c.Project.GraphFile = DefaultGraphFile
	}
	if c.Project.LoaderFile == "" {
		c.Project.LoaderFile = DefaultLoaderFile
	}
	if c.Project.CacheDir == "" {
		c.Project.CacheDir = DefaultCacheDir
	}

	if c.Build.Target == "" {
		c.Build.Target = DefaultTarget
	}

	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8089
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 5 * time.Second
	}

	if c.Watch.QuietPeriod == 0 {
		c.Watch.QuietPeriod = 500 * time.Millisecond
	}

	defTracing := observability.DefaultTracerConfig(c.Name)
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = c.Name
	}
	if c.Tracing.Endpoint == "" {
		c.Tracing.Endpoint = defTracing.Endpoint
	}
	if c.Tracing.Environment == "" {
		c.Tracing.Environment = c.Environment
	}
	if c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = defTracing.SampleRate
	}

	defMetrics := observability.DefaultMeterConfig(c.Name)
	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = c.Name
	}
	if c.Metrics.Endpoint == "" {
		c.Metrics.Endpoint = defMetrics.Endpoint
	}
	if c.Metrics.Environment == "" {
		c.Metrics.Environment = c.Environment
	}
	if c.Metrics.Interval == 0 {
		c.Metrics.Interval = defMetrics.Interval
	}
}

// Validate checks the base fields and the struct tags.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// SettingsPath returns the absolute-or-relative settings directory.
func (p ProjectConfig) SettingsPath() string {
	return p.resolve(p.SettingsDir)
}

// GraphPath returns the graph document path.
func (p ProjectConfig) GraphPath() string {
	return filepath.Join(p.SettingsPath(), p.GraphFile)
}

// LoaderPath returns the loader registry path.
func (p ProjectConfig) LoaderPath() string {
	return filepath.Join(p.SettingsPath(), p.LoaderFile)
}

// CachePath returns the build cache directory.
func (p ProjectConfig) CachePath() string {
	return p.resolve(p.CacheDir)
}

func (p ProjectConfig) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(p.Root, dir)
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
