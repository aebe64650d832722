package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"finedge/internal/config"
	"finedge/internal/domain"
	"finedge/internal/setup"
	"finedge/internal/tui"
)

func main() {
	_ = godotenv.Load()
	setup.Logging()

	var cfgPath, role string
	var reindex bool
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/finedge/config.yaml if not provided)")
	flag.StringVar(&role, "role", "", "Role to chat as (engineering, marketing, finance, hr, employee, c-suite)")
	flag.BoolVar(&reindex, "reindex", false, "Rebuild all role indexes before starting")
	flag.Parse()

	role = domain.NormalizeRole(role)
	if !domain.KnownRole(role) {
		fmt.Println("Usage: finbot --role=<role> [--config=config.yaml] [--reindex]")
		fmt.Println("Roles: engineering, marketing, finance, hr, employee, c-suite")
		os.Exit(1)
	}

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

	chat, err := setup.ChatService(cfg)
	if err != nil {
		slog.Error("pipeline init failed", "error", err)
		os.Exit(1)
	}

	if reindex {
		statuses, err := chat.RebuildAllIndexes(context.Background())
		if err != nil {
			slog.Error("reindex failed", "error", err)
			os.Exit(1)
		}
		for r, st := range statuses {
			if st.Error != "" {
				fmt.Printf("  %-12s error: %s\n", r, st.Error)
			} else if st.Empty {
				fmt.Printf("  %-12s no documents\n", r)
			} else {
				fmt.Printf("  %-12s %d chunks indexed\n", r, st.Chunks)
			}
		}
	}

	m := tui.New(chat, role)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		slog.Error("tui stopped", "error", err)
		os.Exit(1)
	}
}
