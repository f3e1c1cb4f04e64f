// Package config resolves runtime configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/thayduy/lythuyet/internal/coach"
	"github.com/thayduy/lythuyet/internal/store"
)

// Config holds all runtime configuration. Every field has a working
// default; a fresh install runs with nothing set.
type Config struct {
	// DBPath is the SQLite file location.
	DBPath string

	// QuestionsPath points at the question dataset JSON. Empty disables
	// catalog-backed commands.
	QuestionsPath string

	// SyncPushURL receives outbox items. Empty disables remote sync.
	SyncPushURL string

	// CRMProgressURL receives debounced progress rollups. Empty disables
	// the CRM push.
	CRMProgressURL string

	// LogLevel is a logrus level name, default "warn".
	LogLevel string

	OpenAI coach.OpenAIConfig
}

// Load reads .env if present, then the environment. Env vars win over
// .env values per godotenv semantics.
func Load() Config {
	// Missing .env is the normal case, not an error.
	_ = godotenv.Load()

	cfg := Config{
		LogLevel: "warn",
		OpenAI:   coach.OpenAIConfig{Model: "gpt-4o-mini"},
	}

	// DefaultDBPath already honors LYTHUYET_DB.
	if p, err := store.DefaultDBPath(); err == nil {
		cfg.DBPath = p
	}
	if v := os.Getenv("LYTHUYET_QUESTIONS"); v != "" {
		cfg.QuestionsPath = v
	}
	if v := os.Getenv("LYTHUYET_SYNC_URL"); v != "" {
		cfg.SyncPushURL = v
	}
	if v := os.Getenv("LYTHUYET_CRM_URL"); v != "" {
		cfg.CRMProgressURL = v
	}
	if v := os.Getenv("LYTHUYET_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if k := os.Getenv("LYTHUYET_OPENAI_API_KEY"); k != "" {
		cfg.OpenAI.APIKey = k
	} else if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.OpenAI.APIKey = k
	}
	if m := os.Getenv("LYTHUYET_OPENAI_MODEL"); m != "" {
		cfg.OpenAI.Model = m
	}
	if u := os.Getenv("LYTHUYET_OPENAI_BASE_URL"); u != "" {
		cfg.OpenAI.BaseURL = u
	}

	return cfg
}

// Logger builds the process logger at the configured level. Unknown
// level names fall back to warn.
func (c Config) Logger() *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.WarnLevel
	}
	log.SetLevel(level)
	return log
}
