// Package config loads list42 and list42d settings from the environment,
// an optional .env file and an optional YAML config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. LIST42_BASE_URL.
const EnvPrefix = "LIST42"

// Client configures the list42 terminal client.
type Client struct {
	BaseURL      string        `mapstructure:"base_url"`
	DataPath     string        `mapstructure:"data_path"`
	LogLevel     string        `mapstructure:"log_level"`
	LogFormat    string        `mapstructure:"log_format"`
	LogFile      string        `mapstructure:"log_file"`
	Timeout      time.Duration `mapstructure:"timeout"`
	SessionToken string        `mapstructure:"session_token"`
}

// Server configures the list42d development list store.
type Server struct {
	Port      string `mapstructure:"port"`
	DBPath    string `mapstructure:"db_path"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	PublicURL string `mapstructure:"public_url"`
}

func (c *Client) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  BaseURL: %s\n", c.BaseURL))
	sb.WriteString(fmt.Sprintf("  DataPath: %s\n", c.DataPath))
	sb.WriteString(fmt.Sprintf("  LogLevel: %s\n", c.LogLevel))
	sb.WriteString(fmt.Sprintf("  LogFormat: %s\n", c.LogFormat))
	sb.WriteString(fmt.Sprintf("  LogFile: %s\n", c.LogFile))
	sb.WriteString(fmt.Sprintf("  Timeout: %s\n", c.Timeout))
	if c.SessionToken != "" {
		sb.WriteString("  SessionToken: ********\n")
	} else {
		sb.WriteString("  SessionToken: (empty)\n")
	}
	return sb.String()
}

func (s *Server) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  Port: %s\n", s.Port))
	sb.WriteString(fmt.Sprintf("  DBPath: %s\n", s.DBPath))
	sb.WriteString(fmt.Sprintf("  LogLevel: %s\n", s.LogLevel))
	sb.WriteString(fmt.Sprintf("  LogFormat: %s\n", s.LogFormat))
	sb.WriteString(fmt.Sprintf("  PublicURL: %s\n", s.PublicURL))
	return sb.String()
}

// LoadClient reads client settings. configFile may be empty.
func LoadClient(configFile string) (*Client, error) {
	v, err := newViper(configFile)
	if err != nil {
		return nil, err
	}
	v.SetDefault("base_url", "http://localhost:8080")
	v.SetDefault("data_path", defaultDataPath())
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("log_file", "")
	v.SetDefault("timeout", 10*time.Second)
	v.SetDefault("session_token", "")

	var cfg Client
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		return nil, errors.New("base_url is required")
	}
	return &cfg, nil
}

// LoadServer reads server settings. configFile may be empty.
func LoadServer(configFile string) (*Server, error) {
	v, err := newViper(configFile)
	if err != nil {
		return nil, err
	}
	v.SetDefault("port", "8080")
	v.SetDefault("db_path", "list42.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("public_url", "")

	var cfg Server
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if cfg.PublicURL == "" {
		cfg.PublicURL = "http://localhost:" + cfg.Port
	}
	return &cfg, nil
}

func newViper(configFile string) (*viper.Viper, error) {
	// .env is only used for local development.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}
	return v, nil
}

func defaultDataPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".list42.db"
	}
	return filepath.Join(home, ".list42.db")
}
