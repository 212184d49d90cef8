package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Server struct {
	Address  string
	HTTPPort string
}

type Database struct {
	Driver string
	DSN    string
}

type Logging struct {
	Level  string
	Format string
	File   string
}

// Mikrotik holds RouterOS client defaults applied to every device session.
type Mikrotik struct {
	ConnectTimeout time.Duration
	CommandTimeout time.Duration
	// FallbackSecret is substituted for accounts synced from a device without a
	// readable password. Empty string disables the substitution: such rows are
	// skipped instead.
	FallbackSecret string
}

type WanMonitor struct {
	SweepInterval time.Duration
	PingTimeout   time.Duration
	HistoryLimit  int
}

type Config struct {
	Server     Server
	Database   Database
	Logging    Logging
	Mikrotik   Mikrotik
	WanMonitor WanMonitor
}

func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.http_port", "8080")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "data/mikronet.db")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")
	v.SetDefault("mikrotik.connect_timeout", "10s")
	v.SetDefault("mikrotik.command_timeout", "15s")
	v.SetDefault("mikrotik.fallback_secret", "changeme")
	v.SetDefault("wan_monitor.sweep_interval", "2m")
	v.SetDefault("wan_monitor.ping_timeout", "5s")
	v.SetDefault("wan_monitor.history_limit", 1000)

	v.SetEnvPrefix("MIKRONET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/mikronet")
	}
	if err := v.ReadInConfig(); err != nil {
		// config file is optional, defaults + env are enough
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && path != "" {
			return nil, err
		}
	}

	cfg := &Config{
		Server: Server{
			Address:  v.GetString("server.address"),
			HTTPPort: v.GetString("server.http_port"),
		},
		Database: Database{
			Driver: v.GetString("database.driver"),
			DSN:    v.GetString("database.dsn"),
		},
		Logging: Logging{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
			File:   v.GetString("logging.file"),
		},
		Mikrotik: Mikrotik{
			ConnectTimeout: v.GetDuration("mikrotik.connect_timeout"),
			CommandTimeout: v.GetDuration("mikrotik.command_timeout"),
			FallbackSecret: v.GetString("mikrotik.fallback_secret"),
		},
		WanMonitor: WanMonitor{
			SweepInterval: v.GetDuration("wan_monitor.sweep_interval"),
			PingTimeout:   v.GetDuration("wan_monitor.ping_timeout"),
			HistoryLimit:  v.GetInt("wan_monitor.history_limit"),
		},
	}
	return cfg, nil
}
