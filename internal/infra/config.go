package infra

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"futures_go/internal/domain"

	"gopkg.in/yaml.v3"
)

// Config holds all application settings.
// LoadConfig fills it over defaults, then environment variables override
// sensitive values.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Gateway struct {
		WSURL       string `yaml:"ws_url"`
		AccountID   string `yaml:"account_id"`
		AccessToken string `yaml:"access_token"`
	} `yaml:"gateway"`

	Risk domain.RiskPolicy `yaml:"risk"`

	Sequencer struct {
		InboxSize int    `yaml:"inbox_size"`
		DumpFile  string `yaml:"dump_file"` // written when the loop panics

		// ShutdownDumpFile receives the ledger on a clean exit, so it never
		// overwrites a post-mortem dump.
		ShutdownDumpFile string `yaml:"shutdown_dump_file"`
	} `yaml:"sequencer"`

	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// DefaultConfig returns the values used for keys missing from the file.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.App.Name = "futures-recon"
	cfg.Risk = domain.DefaultRiskPolicy()
	cfg.Sequencer.InboxSize = 4096
	cfg.Sequencer.DumpFile = "panic_dump.json"
	cfg.Sequencer.ShutdownDumpFile = "shutdown_dump.json"
	cfg.Storage.Path = "data/recon.db"
	cfg.Logging.Level = "info"
	cfg.Logging.Dir = "logs"
	return cfg
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, err
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML over DefaultConfig, applies environment
// overrides and validates the result.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := overrideWithEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Gateway.WSURL != "" && !strings.HasPrefix(c.Gateway.WSURL, "ws://") && !strings.HasPrefix(c.Gateway.WSURL, "wss://") {
		return &domain.ConfigError{Field: "gateway.ws_url", Err: fmt.Errorf("not a websocket url: %s", c.Gateway.WSURL)}
	}
	if c.Sequencer.InboxSize <= 0 {
		return &domain.ConfigError{Field: "sequencer.inbox_size", Err: errors.New("must be positive")}
	}
	if c.Sequencer.ShutdownDumpFile != "" && c.Sequencer.ShutdownDumpFile == c.Sequencer.DumpFile {
		return &domain.ConfigError{Field: "sequencer.shutdown_dump_file", Err: errors.New("must differ from dump_file")}
	}
	if c.Risk.OptionCodeLength <= 0 {
		return &domain.ConfigError{Field: "risk.option_code_length", Err: errors.New("must be positive")}
	}
	for _, class := range c.Risk.IndexFutureClasses {
		if len(class) != 2 {
			return &domain.ConfigError{Field: "risk.index_future_classes", Err: fmt.Errorf("class %q is not a two-letter prefix", class)}
		}
	}
	return nil
}

// overrideWithEnv overrides settings from environment variables when set.
func overrideWithEnv(cfg *Config) error {
	if token := os.Getenv("FUTURES_GATEWAY_TOKEN"); token != "" {
		cfg.Gateway.AccessToken = token
	}
	if url := os.Getenv("FUTURES_GATEWAY_URL"); url != "" {
		cfg.Gateway.WSURL = url
	}
	if level := os.Getenv("FUTURES_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if v := os.Getenv("FUTURES_MAX_OPEN_VOLUME"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return &domain.ConfigError{Field: "FUTURES_MAX_OPEN_VOLUME", Err: err}
		}
		cfg.Risk.MaxDailyOpeningVolume = n
	}
	return nil
}
