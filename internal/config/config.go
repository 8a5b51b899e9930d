package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

type LLMConfig struct {
	Provider       string  `json:"provider"` // "openai" or "anthropic"
	Model          string  `json:"model"`
	APIKeyEnv      string  `json:"apiKeyEnv"`
	MaxTokens      int     `json:"maxTokens"`
	Temperature    float64 `json:"temperature"`
	TimeoutSeconds int     `json:"timeoutSeconds"`
	RetryBackoffMS int     `json:"retryBackoffMs"`
}

type EmbeddingConfig struct {
	APIURL    string `json:"apiUrl"`
	Model     string `json:"model"`
	APIKeyEnv string `json:"apiKeyEnv"`
}

type QdrantConfig struct {
	Enabled    bool   `json:"enabled"`
	URL        string `json:"url"`
	Collection string `json:"collection"`
	APIKey     string `json:"api_key"`
	VectorSize uint64 `json:"vectorSize"` // must match the embedding model's output dimension
}

// TutorConfig holds the progression knobs. The qualifying thresholds are
// placeholder policy meant to be tuned per course.
type TutorConfig struct {
	AdvanceThreshold    int    `json:"advanceThreshold"`
	SnippetsPerPrompt   int    `json:"snippetsPerPrompt"`
	RecentTurns         int    `json:"recentTurns"`
	MinQualifyingLength int    `json:"minQualifyingLength"`
	MinQualifyingWords  int    `json:"minQualifyingWords"`
	TemplatesPath       string `json:"templatesPath"`
}

type Config struct {
	Server struct {
		Host      string `json:"host"`
		Port      int    `json:"port"`
		Subpath   string `json:"subpath"`
		JWTSecret string `json:"jwtSecret"`
	} `json:"server"`
	Postgres struct {
		DSN string `json:"dsn"`
	} `json:"postgres"`
	Redis struct {
		Addr     string `json:"addr"`
		Password string `json:"password"`
		DB       int    `json:"db"`
	} `json:"redis"`
	LLM                 LLMConfig       `json:"llm"`
	Embedding           EmbeddingConfig `json:"embedding"`
	Qdrant              QdrantConfig    `json:"qdrant"`
	Tutor               TutorConfig     `json:"tutor"`
	UnidocLicenseKeyEnv string          `json:"unidocLicenseKeyEnv"`
}

var (
	once   sync.Once
	cfg    *Config
	cfgErr error
)

// LoadConfig reads config.json from disk (singleton)
func LoadConfig(path string) (*Config, error) {
	once.Do(func() {
		raw, err := os.ReadFile(path)
		if err != nil {
			cfgErr = fmt.Errorf("failed to read config file: %w", err)
			return
		}
		var c Config
		if err := json.Unmarshal(raw, &c); err != nil {
			cfgErr = fmt.Errorf("invalid config format: %w", err)
			return
		}
		// Minimal validation
		if c.Server.JWTSecret == "" {
			cfgErr = errors.New("jwtSecret must be set in config")
			return
		}
		if c.LLM.Provider == "" {
			c.LLM.Provider = "openai"
		}
		if c.LLM.Provider != "openai" && c.LLM.Provider != "anthropic" {
			cfgErr = fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
			return
		}
		if c.Qdrant.VectorSize == 0 {
			c.Qdrant.VectorSize = 1536
		}
		applyTutorDefaults(&c.Tutor)
		cfg = &c
	})
	return cfg, cfgErr
}

func applyTutorDefaults(t *TutorConfig) {
	if t.AdvanceThreshold < 1 {
		t.AdvanceThreshold = 3
	}
	if t.SnippetsPerPrompt < 1 {
		t.SnippetsPerPrompt = 3
	}
	if t.RecentTurns < 1 {
		t.RecentTurns = 12
	}
	if t.MinQualifyingLength < 1 {
		t.MinQualifyingLength = 40
	}
	if t.MinQualifyingWords < 1 {
		t.MinQualifyingWords = 8
	}
}

// GetConfig returns the loaded config (must call LoadConfig first)
func GetConfig() *Config {
	return cfg
}

// ResetConfigForTest resets the singleton state (for testing only)
func ResetConfigForTest() {
	once = sync.Once{}
	cfg = nil
	cfgErr = nil
}
