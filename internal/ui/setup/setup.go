package setup

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/perchapp/perch/internal/api"
	"github.com/perchapp/perch/internal/credential"
	"github.com/perchapp/perch/internal/model"
)

// TokenKey is the keyring key under which the session token is stored.
const TokenKey = "session-token"

// Run walks the user through first-run setup: server URL and session
// token, verified against the server before anything is persisted. On
// success the config is filled in with the signed-in account and the
// token is written to the keyring.
func Run(cfg *model.AppConfig) error {
	var (
		baseURL = cfg.Server.BaseURL
		token   string
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Server URL").
				Description("Root URL of your Perch deployment").
				Placeholder("https://perch.example.com").
				Value(&baseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Session Token").
				Description("Paste a session token from the web app (Settings > Devices)").
				EchoMode(huh.EchoModePassword).
				Value(&token).
				Validate(validateRequired("Session token")),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("setup aborted: %w", err)
	}

	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client := api.NewClient(baseURL, token)
	session, err := client.Session(ctx)
	if err != nil {
		if api.IsAuthError(err) {
			return fmt.Errorf("the server rejected the token; copy a fresh one and try again")
		}
		return fmt.Errorf("could not reach %s: %w", baseURL, err)
	}

	if err := credential.Set(TokenKey, token); err != nil {
		return fmt.Errorf("storing token: %w", err)
	}

	cfg.Server.BaseURL = baseURL
	cfg.Server.AccountID = session.Account.ID
	cfg.Server.Handle = session.Account.Handle
	return nil
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("URL is required")
	}
	parsed, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("URL must include scheme and host (e.g., https://perch.example.com)")
	}
	return nil
}
