package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config/config.yaml"

const (
	TransportHTTP = "http"
	TransportWS   = "ws"
)

type Config struct {
	Hyperliquid HyperliquidConfig `yaml:"hyperliquid"`
	Stock       StockConfig       `yaml:"stock"`
	Output      OutputConfig      `yaml:"output"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type HyperliquidConfig struct {
	RESTEndpoint      string `yaml:"rest_endpoint"`
	WSEndpoint        string `yaml:"ws_endpoint"`
	Transport         string `yaml:"transport"` // "http" or "ws"
	TimeoutMs         int    `yaml:"timeout_ms"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

type StockConfig struct {
	RESTEndpoint string `yaml:"rest_endpoint"`
	UserAgent    string `yaml:"user_agent"`
	TimeoutMs    int    `yaml:"timeout_ms"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"` // empty logs to stderr
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

func (h HyperliquidConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutMs) * time.Millisecond
}

func (s StockConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

func Default() *Config {
	return &Config{
		Hyperliquid: HyperliquidConfig{
			RESTEndpoint:      "https://api.hyperliquid.xyz",
			WSEndpoint:        "wss://api.hyperliquid.xyz/ws",
			Transport:         TransportHTTP,
			TimeoutMs:         10000,
			RequestsPerMinute: 600,
		},
		Stock: StockConfig{
			RESTEndpoint: "https://query1.finance.yahoo.com",
			TimeoutMs:    10000,
		},
		Output: OutputConfig{Dir: "output"},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "logs/hl_funding_tools.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads the YAML file at path on top of the defaults, then applies
// environment overrides (including a .env file in the working directory).
// A missing config file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(cfg); err != nil {
		// An empty file keeps the defaults.
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Hyperliquid.RESTEndpoint, "HL_REST_ENDPOINT")
	setString(&cfg.Hyperliquid.WSEndpoint, "HL_WS_ENDPOINT")
	setString(&cfg.Hyperliquid.Transport, "HL_TRANSPORT")
	setInt(&cfg.Hyperliquid.RequestsPerMinute, "HL_REQUESTS_PER_MINUTE")
	setString(&cfg.Stock.RESTEndpoint, "STOCK_REST_ENDPOINT")
	setString(&cfg.Output.Dir, "OUTPUT_DIR")
	setString(&cfg.Logging.Level, "LOG_LEVEL")
	if v, ok := os.LookupEnv("LOG_FILE"); ok {
		cfg.Logging.File = v
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
		*dst = v
	}
}

func (c *Config) Validate() error {
	c.Hyperliquid.Transport = strings.ToLower(c.Hyperliquid.Transport)
	switch c.Hyperliquid.Transport {
	case TransportHTTP, TransportWS:
	default:
		return fmt.Errorf("unknown hyperliquid transport %q (want %q or %q)", c.Hyperliquid.Transport, TransportHTTP, TransportWS)
	}
	if c.Output.Dir == "" {
		return errors.New("output dir must be set")
	}
	return nil
}
