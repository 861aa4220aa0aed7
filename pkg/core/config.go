package core

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/lucidnotes/memvault/pkg/memory"
	"github.com/lucidnotes/memvault/pkg/storage"
)

// Config contains the complete configuration for a memvault client.
type Config struct {
	// LLM configures the text-generation capability used for extraction.
	LLM LLMConfig `json:"llm"`

	// Store configures the encrypted persistence backend.
	Store StoreConfig `json:"store"`

	// EncryptionKey is the hex-encoded 32-byte key for records at rest.
	// It is held locally and never transmitted.
	EncryptionKey string `json:"encryption_key"`

	// Settings are the initial subsystem settings, used only until a
	// persisted settings record exists.
	Settings memory.Settings `json:"settings"`
}

// LLMConfig configures the generation provider.
//
// Supported providers: ollama (default, local), openai, none. With "none"
// the extraction pipeline is disabled and every Extract call fails soft.
type LLMConfig struct {
	// Provider is the provider name: "ollama", "openai", or "none".
	Provider string `json:"provider"`

	// APIKey is the API key (openai only).
	APIKey string `json:"api_key,omitempty"`

	// Model is the model name (provider default if empty).
	Model string `json:"model,omitempty"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `json:"base_url,omitempty"`
}

// StoreConfig configures the persistence backend.
//
// Supported providers: sqlite (default, local file), postgres.
type StoreConfig struct {
	// Provider is the backend name: "sqlite" or "postgres".
	Provider string `json:"provider"`

	// DBPath is the database file path (sqlite).
	DBPath string `json:"db_path,omitempty"`

	// Connection parameters (postgres).
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`
	DBName   string `json:"db_name,omitempty"`
	SSLMode  string `json:"ssl_mode,omitempty"`
}

// LoadConfigFromEnv loads configuration from environment variables,
// reading a .env file first if one is present.
//
// Recognized variables:
//
//	MEMVAULT_KEY           hex-encoded 32-byte encryption key (required)
//	MEMVAULT_STORE         "sqlite" (default) or "postgres"
//	MEMVAULT_DB_PATH       sqlite file path (default "./memvault.db")
//	MEMVAULT_PG_HOST/PORT/USER/PASSWORD/DBNAME/SSLMODE
//	MEMVAULT_LLM           "ollama" (default), "openai", or "none"
//	MEMVAULT_LLM_MODEL     model name
//	MEMVAULT_LLM_BASE_URL  endpoint override
//	MEMVAULT_LLM_API_KEY   API key (openai)
func LoadConfigFromEnv() (*Config, error) {
	// Best effort; a missing .env simply means plain environment.
	_ = godotenv.Load()

	cfg := &Config{
		LLM: LLMConfig{
			Provider: getEnvOrDefault("MEMVAULT_LLM", "ollama"),
			APIKey:   os.Getenv("MEMVAULT_LLM_API_KEY"),
			Model:    os.Getenv("MEMVAULT_LLM_MODEL"),
			BaseURL:  os.Getenv("MEMVAULT_LLM_BASE_URL"),
		},
		Store: StoreConfig{
			Provider: getEnvOrDefault("MEMVAULT_STORE", "sqlite"),
			DBPath:   getEnvOrDefault("MEMVAULT_DB_PATH", "./memvault.db"),
			Host:     getEnvOrDefault("MEMVAULT_PG_HOST", "localhost"),
			User:     os.Getenv("MEMVAULT_PG_USER"),
			Password: os.Getenv("MEMVAULT_PG_PASSWORD"),
			DBName:   os.Getenv("MEMVAULT_PG_DBNAME"),
			SSLMode:  os.Getenv("MEMVAULT_PG_SSLMODE"),
		},
		EncryptionKey: os.Getenv("MEMVAULT_KEY"),
		Settings:      memory.DefaultSettings(),
	}

	if port := os.Getenv("MEMVAULT_PG_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, NewMemoryError("LoadConfigFromEnv", fmt.Errorf("MEMVAULT_PG_PORT: %w", err))
		}
		cfg.Store.Port = p
	} else {
		cfg.Store.Port = 5432
	}

	return cfg, nil
}

// LoadConfigFromJSON loads configuration from a JSON file. Zero-valued
// settings fields fall back to the defaults.
func LoadConfigFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewMemoryError("LoadConfigFromJSON", err)
	}

	cfg := &Config{Settings: memory.DefaultSettings()}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, NewMemoryError("LoadConfigFromJSON", err)
	}
	if cfg.Settings.MaxMemoryCount == 0 {
		cfg.Settings.MaxMemoryCount = memory.DefaultMemoryCount
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Store.Provider {
	case "sqlite", "postgres":
	default:
		return NewMemoryError("Validate", fmt.Errorf("store provider %q: %w", c.Store.Provider, ErrInvalidConfig))
	}
	switch c.LLM.Provider {
	case "ollama", "openai", "none":
	default:
		return NewMemoryError("Validate", fmt.Errorf("llm provider %q: %w", c.LLM.Provider, ErrInvalidConfig))
	}
	if _, err := c.DecodeKey(); err != nil {
		return err
	}
	if err := c.Settings.Validate(); err != nil {
		return NewMemoryError("Validate", fmt.Errorf("%v: %w", err, ErrInvalidConfig))
	}
	return nil
}

// DecodeKey decodes the hex encryption key and checks its length.
func (c *Config) DecodeKey() ([]byte, error) {
	key, err := hex.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, NewMemoryError("DecodeKey", fmt.Errorf("encryption key is not hex: %w", ErrInvalidConfig))
	}
	if len(key) != storage.KeySize {
		return nil, NewMemoryError("DecodeKey", fmt.Errorf("encryption key must be %d bytes, got %d: %w",
			storage.KeySize, len(key), ErrInvalidConfig))
	}
	return key, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
