package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"finedge/internal/api"
	"finedge/internal/auth"
	"finedge/internal/config"
	"finedge/internal/setup"
)

func main() {
	_ = godotenv.Load()
	setup.Logging()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/finedge/config.yaml if not provided)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	secret := os.Getenv(cfg.Server.JWTSecretEnv)
	if secret == "" {
		slog.Error("jwt secret not set", "env", cfg.Server.JWTSecretEnv)
		os.Exit(1)
	}
	tokens, err := auth.NewTokenService(secret, time.Duration(cfg.Server.TokenTTLMinutes)*time.Minute)
	if err != nil {
		slog.Error("token service init failed", "error", err)
		os.Exit(1)
	}
	users, err := auth.OpenUserStore(cfg.Server.UsersDB)
	if err != nil {
		slog.Error("user store init failed", "error", err)
		os.Exit(1)
	}
	defer users.Close()

	chat, err := setup.ChatService(cfg)
	if err != nil {
		slog.Error("pipeline init failed", "error", err)
		os.Exit(1)
	}

	server := api.NewServer(cfg.Server.Port, tokens, users, chat)
	if err := server.Start(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
