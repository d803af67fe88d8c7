package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Servers []ServerConfig `mapstructure:"servers" yaml:"servers"`
	Spool   SpoolConfig    `mapstructure:"spool" yaml:"spool"`
	Log     LogConfig      `mapstructure:"log" yaml:"log"`
	Store   StoreConfig    `mapstructure:"store" yaml:"store"`

	Port string `mapstructure:"port" yaml:"port"`
}

// ServerConfig describes an upstream peer articles can be pulled from.
type ServerConfig struct {
	ID            string `mapstructure:"id" yaml:"id"`
	Host          string `mapstructure:"host" yaml:"host"`
	Port          int    `mapstructure:"port" yaml:"port"`
	Username      string `mapstructure:"username" yaml:"username"`
	Password      string `mapstructure:"password" yaml:"password"`
	TLS           bool   `mapstructure:"tls" yaml:"tls"`
	MaxConnection int    `mapstructure:"max_connections" yaml:"max_connections"`
	Priority      int    `mapstructure:"priority" yaml:"priority"`
}

type SpoolConfig struct {
	Dir     string `mapstructure:"dir" yaml:"dir"`
	Workers int    `mapstructure:"workers" yaml:"workers"`
}

type LogConfig struct {
	Path          string `mapstructure:"path" yaml:"path"`
	Level         string `mapstructure:"level" yaml:"level"`
	IncludeStdout bool   `mapstructure:"include_stdout" yaml:"include_stdout"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type StoreConfig struct {
	Driver      string `mapstructure:"driver" yaml:"driver"`
	SQLitePath  string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn" yaml:"postgres_dsn"`
}

// Load reads the YAML config at path. When path is the default
// "config.yaml" and no such file exists, /config/config.yaml is tried and
// then built-in defaults are used; an explicitly named file must exist.
func Load(path string) (*Config, error) {
	explicit := path != "" && path != "config.yaml"
	if path == "" {
		path = "config.yaml"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if explicit {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		// Docker images mount their config under /config
		if _, errEx := os.Stat("/config/config.yaml"); errEx == nil {
			path = "/config/config.yaml"
		} else {
			path = ""
		}
	}

	v := viper.New()

	// Set Defaults
	v.SetDefault("port", "8119")
	v.SetDefault("spool.dir", "./spool")
	v.SetDefault("spool.workers", 4)
	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.sqlite_path", "./data/gospool.db")
	v.SetDefault("log.path", "gospool.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.include_stdout", true)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// Support Environment Variables
	v.SetEnvPrefix("GOSPOOL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Spool.Dir == "" {
		return errors.New("spool.dir is required")
	}

	if c.Spool.Workers <= 0 {
		c.Spool.Workers = 4
	}

	switch c.Store.Driver {
	case "", DriverSQLite:
		c.Store.Driver = DriverSQLite
		if c.Store.SQLitePath == "" {
			return errors.New("store.sqlite_path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Store.PostgresDSN == "" {
			return errors.New("store.postgres_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	for i, s := range c.Servers {
		if s.ID == "" {
			return fmt.Errorf("server[%d] requires a unique ID", i)
		}

		if s.Host == "" {
			return fmt.Errorf("server %s: host is required", s.ID)
		}

		if s.Port == 0 {
			return fmt.Errorf("server %s: port is required", s.ID)
		}

		if s.TLS && s.Port == 119 {
			fmt.Println("Warning: TLS is enabled but port is set to 119 (standard non-TLS)")
		}

		if s.MaxConnection <= 0 {
			c.Servers[i].MaxConnection = 2
		}

		if s.Priority == 0 {
			c.Servers[i].Priority = 1
		}
	}

	return nil
}
