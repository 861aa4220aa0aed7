package core

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidnotes/memvault/pkg/memory"
	"github.com/lucidnotes/memvault/pkg/storage"
)

func testKeyHex() string {
	key := make([]byte, storage.KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	return hex.EncodeToString(key)
}

func validConfig() *Config {
	return &Config{
		LLM:           LLMConfig{Provider: "none"},
		Store:         StoreConfig{Provider: "sqlite", DBPath: "./test.db"},
		EncryptionKey: testKeyHex(),
		Settings:      memory.DefaultSettings(),
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestConfigValidateRejectsBadProviders(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Provider = "mongodb"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = validConfig()
	cfg.LLM.Provider = "bard"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestConfigValidateRejectsBadSettings(t *testing.T) {
	cfg := validConfig()
	cfg.Settings.MinImportanceThreshold = 2
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestDecodeKey(t *testing.T) {
	cfg := validConfig()
	key, err := cfg.DecodeKey()
	require.NoError(t, err)
	assert.Len(t, key, storage.KeySize)

	cfg.EncryptionKey = "not hex"
	_, err = cfg.DecodeKey()
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg.EncryptionKey = "deadbeef"
	_, err = cfg.DecodeKey()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("MEMVAULT_KEY", testKeyHex())
	t.Setenv("MEMVAULT_STORE", "postgres")
	t.Setenv("MEMVAULT_PG_HOST", "db.internal")
	t.Setenv("MEMVAULT_PG_PORT", "5433")
	t.Setenv("MEMVAULT_PG_USER", "memvault")
	t.Setenv("MEMVAULT_PG_DBNAME", "memories")
	t.Setenv("MEMVAULT_LLM", "openai")
	t.Setenv("MEMVAULT_LLM_API_KEY", "sk-test")
	t.Setenv("MEMVAULT_LLM_MODEL", "gpt-4o-mini")

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Store.Provider)
	assert.Equal(t, "db.internal", cfg.Store.Host)
	assert.Equal(t, 5433, cfg.Store.Port)
	assert.Equal(t, "memvault", cfg.Store.User)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, memory.DefaultMemoryCount, cfg.Settings.MaxMemoryCount)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("MEMVAULT_KEY", testKeyHex())
	t.Setenv("MEMVAULT_STORE", "")
	t.Setenv("MEMVAULT_LLM", "")
	t.Setenv("MEMVAULT_PG_PORT", "")

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Provider)
	assert.Equal(t, "./memvault.db", cfg.Store.DBPath)
	assert.Equal(t, 5432, cfg.Store.Port)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
}

func TestLoadConfigFromEnvBadPort(t *testing.T) {
	t.Setenv("MEMVAULT_KEY", testKeyHex())
	t.Setenv("MEMVAULT_PG_PORT", "not-a-port")

	_, err := LoadConfigFromEnv()
	assert.Error(t, err)
}

func TestLoadConfigFromJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	blob := `{
		"llm": {"provider": "none"},
		"store": {"provider": "sqlite", "db_path": "./mem.db"},
		"encryption_key": "` + testKeyHex() + `",
		"settings": {"automatic_extraction": true, "max_memory_count": 2000, "min_importance_threshold": 0.2}
	}`
	require.NoError(t, os.WriteFile(path, []byte(blob), 0600))

	cfg, err := LoadConfigFromJSON(path)
	require.NoError(t, err)
	assert.Equal(t, "./mem.db", cfg.Store.DBPath)
	assert.Equal(t, 2000, cfg.Settings.MaxMemoryCount)
	assert.Equal(t, 0.2, cfg.Settings.MinImportanceThreshold)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFromJSONMissingFile(t *testing.T) {
	_, err := LoadConfigFromJSON(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
