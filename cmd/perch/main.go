package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/perchapp/perch/internal/api"
	"github.com/perchapp/perch/internal/app"
	"github.com/perchapp/perch/internal/credential"
	"github.com/perchapp/perch/internal/engine"
	"github.com/perchapp/perch/internal/logging"
	"github.com/perchapp/perch/internal/model"
	"github.com/perchapp/perch/internal/ui/setup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "perch:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := model.DefaultConfigPath()
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}

	if !cfg.Configured() {
		if err := setup.Run(cfg); err != nil {
			return err
		}
		if err := model.SaveConfig(configPath, cfg); err != nil {
			return err
		}
	}

	logPath := cfg.Log.File
	if logPath == "" {
		logPath = logging.DefaultLogPath()
	}
	log, logErr := logging.Open(logPath, cfg.Log.Level)
	if logErr != nil {
		// The returned logger discards; the app still works.
		fmt.Fprintln(os.Stderr, "perch:", logErr)
	}

	token, err := credential.Get(setup.TokenKey)
	if err != nil {
		return fmt.Errorf("no stored session token; delete %s to rerun setup", configPath)
	}

	client := api.NewClient(cfg.Server.BaseURL, token)
	eng := engine.New(client, engine.Config{
		DBPath:       model.DefaultDBPath(),
		PollInterval: time.Duration(cfg.Engine.PollIntervalSec) * time.Second,
		ToastTTL:     time.Duration(cfg.Engine.ToastTTLSec) * time.Second,
	}, log)

	ctx := context.Background()
	if err := eng.Init(ctx); err != nil {
		switch {
		case errors.Is(err, engine.ErrUnverified):
			return fmt.Errorf("your email address is not verified yet; verify it in the web app and try again")
		case api.IsAuthError(err):
			return fmt.Errorf("session expired; delete %s and sign in again", configPath)
		default:
			return fmt.Errorf("connecting to %s: %w", cfg.Server.BaseURL, err)
		}
	}
	defer eng.Teardown()

	program := tea.NewProgram(app.New(eng, log), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}

	return nil
}
