// Package config loads the runtime configuration for the cluster core:
// local identity, snapshot/object-config paths, beacon cadence, and the
// ambient logging/metrics sections.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration object.
type Config struct {
	Cluster       ClusterConfig       `mapstructure:"cluster"`
	Snapshot      SnapshotConfig      `mapstructure:"snapshot"`
	ObjectConfig  ObjectConfigConfig  `mapstructure:"object_config"`
	Beacon        BeaconConfig        `mapstructure:"beacon"`
	RemoteCommand RemoteCommandConfig `mapstructure:"remote_command"`
	PeerLink      PeerLinkConfig      `mapstructure:"peer_link"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
	Log           LogConfig           `mapstructure:"log"`
}

// ClusterConfig identifies this endpoint and its home zone.
type ClusterConfig struct {
	EndpointName string `mapstructure:"endpoint_name"`
	ZoneName     string `mapstructure:"zone_name"`
	StateDir     string `mapstructure:"state_dir"`
	Concurrency  int    `mapstructure:"concurrency"`
}

// SnapshotConfig controls the state-snapshot file.
type SnapshotConfig struct {
	Path          string        `mapstructure:"path"`
	DumpInterval  time.Duration `mapstructure:"dump_interval"`
	QueueCapacity int           `mapstructure:"queue_capacity"`
}

// ObjectConfigConfig controls where declarative object files are staged.
type ObjectConfigConfig struct {
	ModuleDir  string `mapstructure:"module_dir"`
	StageName  string `mapstructure:"stage_name"`
	ModuleName string `mapstructure:"module_name"`
}

// BeaconConfig controls the repository heartbeat cadence.
type BeaconConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// RemoteCommandConfig controls whether this endpoint accepts delegated
// checks/event-handler runs from a parent zone.
type RemoteCommandConfig struct {
	AcceptCommands bool          `mapstructure:"accept_commands"`
	ExecTimeout    time.Duration `mapstructure:"exec_timeout"`
}

// PeerLinkConfig configures the peer-transport stub.
type PeerLinkConfig struct {
	ListenAddr string        `mapstructure:"listen_addr"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// MetricsConfig controls the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
	Port      int    `mapstructure:"port"`
}

// LogConfig holds logging configuration, passed straight to pkg/logger.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// Load reads configuration from an optional YAML file and the environment,
// applying defaults for anything left unset.
func Load(configPath string) (*Config, error) {
	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetEnvPrefix("CLUSTERCORE")

	if configPath != "" {
		viper.SetConfigFile(configPath)
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("cluster.endpoint_name", "")
	viper.SetDefault("cluster.zone_name", "")
	viper.SetDefault("cluster.state_dir", "/var/lib/clustercore")
	viper.SetDefault("cluster.concurrency", 4)

	viper.SetDefault("snapshot.path", "/var/lib/clustercore/state.dump")
	viper.SetDefault("snapshot.dump_interval", "30s")
	viper.SetDefault("snapshot.queue_capacity", 25000)

	viper.SetDefault("object_config.module_dir", "/etc/clustercore/zones.d")
	viper.SetDefault("object_config.stage_name", "active")
	viper.SetDefault("object_config.module_name", "_api")

	viper.SetDefault("beacon.interval", "30s")

	viper.SetDefault("remote_command.accept_commands", true)
	viper.SetDefault("remote_command.exec_timeout", "60s")

	viper.SetDefault("peer_link.listen_addr", ":5665")
	viper.SetDefault("peer_link.dial_timeout", "10s")

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.namespace", "clustercore")
	viper.SetDefault("metrics.path", "/metrics")
	viper.SetDefault("metrics.port", 9090)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.max_size", 100)
	viper.SetDefault("log.max_backups", 3)
	viper.SetDefault("log.max_age", 28)
	viper.SetDefault("log.compress", true)
}

// Validate checks invariants that must hold before the core starts.
func (c *Config) Validate() error {
	if c.Cluster.EndpointName == "" {
		return fmt.Errorf("cluster.endpoint_name must be set")
	}
	if c.Cluster.ZoneName == "" {
		return fmt.Errorf("cluster.zone_name must be set")
	}
	if c.Cluster.Concurrency <= 0 {
		return fmt.Errorf("cluster.concurrency must be > 0")
	}
	if c.Snapshot.QueueCapacity <= 0 {
		return fmt.Errorf("snapshot.queue_capacity must be > 0")
	}
	if c.ObjectConfig.ModuleName == "" {
		return fmt.Errorf("object_config.module_name must be set")
	}
	if c.Beacon.Interval <= 0 {
		return fmt.Errorf("beacon.interval must be > 0")
	}
	return nil
}
