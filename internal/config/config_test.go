package config

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.DBPath == "" {
		t.Error("DBPath default is empty")
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("OpenAI.Model = %q, want gpt-4o-mini", cfg.OpenAI.Model)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LYTHUYET_DB", "/tmp/x.db")
	t.Setenv("LYTHUYET_SYNC_URL", "https://api.example.com/sync")
	t.Setenv("LYTHUYET_LOG_LEVEL", "debug")
	t.Setenv("LYTHUYET_OPENAI_API_KEY", "sk-test")

	cfg := Load()

	if cfg.DBPath != "/tmp/x.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.SyncPushURL != "https://api.example.com/sync" {
		t.Errorf("SyncPushURL = %q", cfg.SyncPushURL)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Errorf("OpenAI.APIKey = %q", cfg.OpenAI.APIKey)
	}
}

func TestLogger_UnknownLevelFallsBack(t *testing.T) {
	cfg := Config{LogLevel: "nonsense"}

	if got := cfg.Logger().GetLevel(); got != logrus.WarnLevel {
		t.Errorf("level = %v, want warn", got)
	}
}
