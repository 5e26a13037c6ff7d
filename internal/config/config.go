// Package config reads server settings from the environment, after loading a
// local .env file when one is present.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"pe-scenario-lab/backend/internal/ai"
)

// Config holds everything cmd/server needs to wire the API.
type Config struct {
	Port           string
	DBPath         string
	AllowedOrigins []string
	OpenAI         ai.Config
	Gemini         ai.GeminiConfig
	DisableAI      bool
	CompsCSVPath   string
	LogLevel       string
	LogFormat      string
}

var defaultOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
}

// Load reads .env (if any) into the process environment and resolves the
// configuration. baseDir anchors the default database path.
func Load(baseDir string) Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("load .env file")
	}
	return FromEnv(os.Getenv, baseDir)
}

// FromEnv resolves the configuration through getenv.
func FromEnv(getenv func(string) string, baseDir string) Config {
	get := func(key string) string { return strings.TrimSpace(getenv(key)) }

	cfg := Config{
		Port:           "2000",
		DBPath:         filepath.Join(baseDir, "data", "pe-lab.db"),
		AllowedOrigins: append([]string(nil), defaultOrigins...),
		OpenAI: ai.Config{
			APIKey:  get("OPENAI_API_KEY"),
			Model:   get("OPENAI_MODEL"),
			BaseURL: get("OPENAI_BASE_URL"),
		},
		Gemini: ai.GeminiConfig{
			APIKey: get("GEMINI_API_KEY"),
			Model:  get("GEMINI_MODEL"),
		},
		CompsCSVPath: get("COMPS_CSV_PATH"),
		LogLevel:     "info",
		LogFormat:    "text",
	}
	if v := get("PORT"); v != "" {
		cfg.Port = v
	}
	if v := get("PE_LAB_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := get("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if v := get("OPENAI_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.OpenAI.Temperature = parsed
		}
	}
	if v := get("OPENAI_MAX_TOKENS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			cfg.OpenAI.MaxTokens = parsed
		}
	}
	if v := get("DISABLE_AI"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			cfg.DisableAI = parsed
		}
	}
	if v := get("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := get("LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
	return cfg
}

// splitList splits a comma separated value; "*" means every origin and
// yields an empty list.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "*" {
			return nil
		}
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ConfigureLogging applies LOG_LEVEL and LOG_FORMAT to the standard logger.
func (c Config) ConfigureLogging() error {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	logrus.SetLevel(level)
	switch c.LogFormat {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("log format %q: want json or text", c.LogFormat)
	}
	return nil
}

// AIMode describes which generators are configured, for startup logging.
func (c Config) AIMode() string {
	switch {
	case c.DisableAI:
		return "disabled"
	case c.OpenAI.APIKey != "" && c.Gemini.APIKey != "":
		return "openai+gemini"
	case c.OpenAI.APIKey != "":
		return "openai"
	case c.Gemini.APIKey != "":
		return "gemini"
	}
	return "unconfigured"
}
