package config

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/tgflow/internal/runtime"
	"github.com/aretw0/tgflow/pkg/middleware"
)

// TokenEnv overrides telegram.bot_token when set.
const TokenEnv = "TGFLOW_TOKEN"

// Config is the CLI configuration file.
type Config struct {
	Path string `yaml:"-"`

	Telegram struct {
		BotToken           string  `yaml:"bot_token"`
		APIURL             string  `yaml:"api_url"`
		AllowedUsers       []int64 `yaml:"allowed_users"`
		DropPendingUpdates bool    `yaml:"drop_pending_updates"`
		// MaxRoutines caps concurrently handled updates; 0 means no cap.
		// Conversations waiting for input each hold one.
		MaxRoutines      int  `yaml:"max_routines"`
		RegisterCommands bool `yaml:"register_commands"`
		// MaxInputSize bounds inbound text in bytes. Larger messages are rejected.
		MaxInputSize int `yaml:"max_input_size"`
	} `yaml:"telegram"`

	Bot struct {
		Name           string `yaml:"name"`
		runtime.Config `yaml:",inline"`
	} `yaml:"bot"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Admin struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
		// Redact lists regular expressions of data keys masked in API responses.
		Redact []string `yaml:"redact"`
	} `yaml:"admin"`

	Eviction struct {
		Schedule string        `yaml:"schedule"`
		MaxIdle  time.Duration `yaml:"max_idle"`
	} `yaml:"eviction"`

	Flows struct {
		// Path is a YAML schema file or a directory of markdown dialogs.
		Path    string `yaml:"path"`
		Include string `yaml:"include"`
	} `yaml:"flows"`
}

// SetDefaults fills every field with its default value.
func (cfg *Config) SetDefaults() {
	cfg.Telegram.APIURL = gotgbot.DefaultAPIURL
	cfg.Telegram.RegisterCommands = true
	cfg.Telegram.MaxInputSize = middleware.DefaultMaxInputSize

	cfg.Bot.Name = "tgflow"
	cfg.Bot.Config = runtime.DefaultConfig()

	cfg.Log.Level = "info"
	cfg.Log.Format = "text"

	cfg.Admin.Addr = "127.0.0.1:8080"

	cfg.Flows.Path = "flows"
	cfg.Flows.Include = "**"
}

// LoadConfig reads cfg.Path over the current values and applies environment
// overrides.
func (cfg *Config) LoadConfig() error {
	configFile, err := os.Open(cfg.Path)
	if err != nil {
		return fmt.Errorf("could not open config file: %w", err)
	}
	defer configFile.Close()

	if err := cfg.Decode(configFile); err != nil {
		return err
	}
	cfg.ApplyEnv()
	return nil
}

// Decode parses YAML from r over the current values. Unknown keys are rejected.
func (cfg *Config) Decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return fmt.Errorf("could not parse config file: %w", err)
	}
	return nil
}

// ApplyEnv applies environment overrides.
func (cfg *Config) ApplyEnv() {
	if token := strings.TrimSpace(os.Getenv(TokenEnv)); token != "" {
		cfg.Telegram.BotToken = token
	}
}

// Validate checks the settings needed to run against Telegram.
func (cfg *Config) Validate() error {
	if cfg.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required (or set %s)", TokenEnv)
	}
	if cfg.Flows.Path == "" {
		return fmt.Errorf("flows.path is required")
	}
	if cfg.Eviction.Schedule != "" && cfg.Eviction.MaxIdle <= 0 {
		return fmt.Errorf("eviction.max_idle must be positive when eviction.schedule is set")
	}
	for _, p := range cfg.Admin.Redact {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("admin.redact: %w", err)
		}
	}
	return nil
}

// Load returns the defaults overlaid with the file at path, if any.
func Load(path string) (*Config, error) {
	cfg := &Config{Path: path}
	cfg.SetDefaults()
	if path == "" {
		cfg.ApplyEnv()
		return cfg, nil
	}
	if err := cfg.LoadConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}
