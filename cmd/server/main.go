package main

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"pe-scenario-lab/backend/internal/api"
	"pe-scenario-lab/backend/internal/config"
)

func main() {
	baseDir, err := os.Getwd()
	if err != nil {
		logrus.Fatalf("determine working directory: %v", err)
	}

	cfg := config.Load(baseDir)
	if err := cfg.ConfigureLogging(); err != nil {
		logrus.Fatalf("configure logging: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		logrus.Fatalf("create data directory: %v", err)
	}

	server, err := api.NewServer(api.Config{
		DBPath:         cfg.DBPath,
		CompsCSVPath:   cfg.CompsCSVPath,
		AllowedOrigins: cfg.AllowedOrigins,
		SilentDB:       true,
		AIConfig:       cfg.OpenAI,
		GeminiConfig:   cfg.Gemini,
		DisableAI:      cfg.DisableAI,
	})
	if err != nil {
		logrus.Fatalf("create server: %v", err)
	}
	defer func() {
		if cerr := server.Close(); cerr != nil {
			logrus.WithError(cerr).Warn("close database")
		}
	}()

	router, err := server.Router()
	if err != nil {
		logrus.Fatalf("configure router: %v", err)
	}

	logrus.WithFields(logrus.Fields{
		"port":    cfg.Port,
		"db":      cfg.DBPath,
		"ai_mode": cfg.AIMode(),
	}).Info("starting pe-scenario-lab backend")
	if err := router.Run(":" + cfg.Port); err != nil {
		logrus.Fatalf("server exited: %v", err)
	}
}
