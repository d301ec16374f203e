package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tgflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(TokenEnv, "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "tgflow", cfg.Bot.Name)
	assert.Equal(t, "HTML", cfg.Bot.ParseMode)
	assert.True(t, cfg.Bot.EnableStartCommand)
	assert.Equal(t, 5*time.Minute, cfg.Bot.InputTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "flows", cfg.Flows.Path)
	assert.True(t, cfg.Telegram.RegisterCommands)
	assert.Equal(t, 4096, cfg.Telegram.MaxInputSize)
	assert.Zero(t, cfg.Telegram.MaxRoutines, "no cap on concurrent handlers by default")
	assert.Error(t, cfg.Validate(), "a token is required")
}

func TestLoad_File(t *testing.T) {
	t.Setenv(TokenEnv, "")
	path := writeConfig(t, `
telegram:
  bot_token: "123:abc"
  allowed_users: [1, 2]
  drop_pending_updates: true
bot:
  name: support
  parse_mode: MarkdownV2
  input_timeout: 90s
  cancel_keywords: ["/stop", "stop"]
log:
  level: debug
admin:
  enabled: true
  addr: ":9090"
eviction:
  schedule: "@every 10m"
  max_idle: 24h
flows:
  path: ./dialogs
  include: "dialogs/**"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
	assert.Equal(t, []int64{1, 2}, cfg.Telegram.AllowedUsers)
	assert.True(t, cfg.Telegram.DropPendingUpdates)
	assert.Equal(t, "support", cfg.Bot.Name)
	assert.Equal(t, "MarkdownV2", cfg.Bot.ParseMode)
	assert.Equal(t, 90*time.Second, cfg.Bot.InputTimeout)
	assert.Equal(t, []string{"/stop", "stop"}, cfg.Bot.CancelKeywords)
	assert.True(t, cfg.Bot.AutoDeleteUserMessages, "unset keys keep their defaults")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Admin.Enabled)
	assert.Equal(t, ":9090", cfg.Admin.Addr)
	assert.Equal(t, "@every 10m", cfg.Eviction.Schedule)
	assert.Equal(t, 24*time.Hour, cfg.Eviction.MaxIdle)
	assert.Equal(t, "./dialogs", cfg.Flows.Path)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverridesToken(t *testing.T) {
	t.Setenv(TokenEnv, " 999:env ")
	path := writeConfig(t, "telegram:\n  bot_token: file-token\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "999:env", cfg.Telegram.BotToken)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "could not open config file")

	_, err = Load(writeConfig(t, "bot:\n  colour: blue\n"))
	assert.ErrorContains(t, err, "could not parse config file")
}

func TestDecode_EmptyDocument(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()
	require.NoError(t, cfg.Decode(strings.NewReader("")))
	assert.Equal(t, "tgflow", cfg.Bot.Name)
}

func TestValidate_Eviction(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()
	cfg.Telegram.BotToken = "t"
	cfg.Eviction.Schedule = "@hourly"
	assert.ErrorContains(t, cfg.Validate(), "max_idle")
}

func TestValidate_Redact(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()
	cfg.Telegram.BotToken = "t"
	cfg.Admin.Redact = []string{"phone", "("}
	assert.ErrorContains(t, cfg.Validate(), "admin.redact")

	cfg.Admin.Redact = []string{"phone"}
	assert.NoError(t, cfg.Validate())
}
