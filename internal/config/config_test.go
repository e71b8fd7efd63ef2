package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"MONGO_URL", "OPENAI_API_KEY", "RIZZ_STORE_DSN", "RIZZ_STORE_ENGINE", "RIZZ_LLM_API_KEY", "RIZZ_SERVER_PORT"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, "sqlite", cfg.Store.Engine)
	assert.Equal(t, "data/rizz.db", cfg.Store.DSN)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.SessionTTL)
	assert.True(t, cfg.Auth.CookieSecure)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 20.0, cfg.Chat.RatePerMinute)
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "rizz.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  host: 127.0.0.1
  port: 9000
store:
  engine: json
llm:
  provider: gemini
  timeout: 5s
`), 0o644))

	t.Setenv("RIZZ_SERVER_PORT", "9100")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flags.String("host", "", "")
	flags.Int("port", 0, "")
	require.NoError(t, flags.Parse([]string{"--host", "0.0.0.0"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:9100", cfg.Server.Addr())
	assert.Equal(t, "json", cfg.Store.Engine)
	assert.Equal(t, "data/rizz.json", cfg.Store.DSN)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestLoadRejectsPostgresWithoutDSN(t *testing.T) {
	clearEnv(t)
	t.Setenv("RIZZ_STORE_ENGINE", "postgres")
	_, err := Load("", nil)
	assert.ErrorContains(t, err, "store.dsn")
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	base, err := Load("", nil)
	require.NoError(t, err)

	bad := base
	bad.Server.Port = 70000
	assert.Error(t, bad.Validate())

	bad = base
	bad.LLM.Provider = "claude-on-a-toaster"
	assert.Error(t, bad.Validate())

	bad = base
	bad.Chat.Burst = -1
	assert.Error(t, bad.Validate())
}
