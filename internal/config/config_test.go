package config

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func envFrom(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv(envFrom(nil), "/srv/lab")
	if cfg.Port != "2000" {
		t.Fatalf("expected default port got %q", cfg.Port)
	}
	if cfg.DBPath != filepath.Join("/srv/lab", "data", "pe-lab.db") {
		t.Fatalf("unexpected db path %q", cfg.DBPath)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Fatalf("expected default origins got %v", cfg.AllowedOrigins)
	}
	if cfg.AIMode() != "unconfigured" || cfg.DisableAI {
		t.Fatalf("unexpected ai mode %q", cfg.AIMode())
	}
}

func TestFromEnvOverrides(t *testing.T) {
	cfg := FromEnv(envFrom(map[string]string{
		"PORT":               "8080",
		"PE_LAB_DB_PATH":     "/tmp/x.db",
		"ALLOWED_ORIGINS":    "https://a.example, https://b.example ,",
		"OPENAI_API_KEY":     " sk-1 ",
		"OPENAI_TEMPERATURE": "0.4",
		"OPENAI_MAX_TOKENS":  "900",
		"GEMINI_API_KEY":     "g-1",
		"DISABLE_AI":         "false",
		"COMPS_CSV_PATH":     "/data/comps.csv",
		"LOG_LEVEL":          "DEBUG",
		"LOG_FORMAT":         "json",
	}), "/srv")
	if cfg.Port != "8080" || cfg.DBPath != "/tmp/x.db" || cfg.CompsCSVPath != "/data/comps.csv" {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if cfg.OpenAI.APIKey != "sk-1" || cfg.OpenAI.Temperature != 0.4 || cfg.OpenAI.MaxTokens != 900 {
		t.Fatalf("unexpected openai config %+v", cfg.OpenAI)
	}
	if cfg.AIMode() != "openai+gemini" {
		t.Fatalf("unexpected ai mode %q", cfg.AIMode())
	}
	if cfg.LogLevel != "debug" || cfg.LogFormat != "json" {
		t.Fatalf("unexpected log settings %q %q", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestWildcardOrigins(t *testing.T) {
	cfg := FromEnv(envFrom(map[string]string{"ALLOWED_ORIGINS": "*"}), "")
	if len(cfg.AllowedOrigins) != 0 {
		t.Fatalf("wildcard should allow all origins, got %v", cfg.AllowedOrigins)
	}
}

func TestConfigureLogging(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)
	defer logrus.SetFormatter(&logrus.TextFormatter{})

	if err := (Config{LogLevel: "warn", LogFormat: "json"}).ConfigureLogging(); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if logrus.GetLevel() != logrus.WarnLevel {
		t.Fatalf("level not applied")
	}
	if err := (Config{LogLevel: "loud"}).ConfigureLogging(); err == nil {
		t.Fatalf("expected level error")
	}
	if err := (Config{LogLevel: "info", LogFormat: "xml"}).ConfigureLogging(); err == nil {
		t.Fatalf("expected format error")
	}
}
