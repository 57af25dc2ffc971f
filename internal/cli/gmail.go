package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/vijay-prabhu/gmail-cli/internal/config"
	"github.com/vijay-prabhu/gmail-cli/internal/email"
	"github.com/vijay-prabhu/gmail-cli/internal/email/gmail"
)

// connectGmail authenticates and opens the Gmail API
func connectGmail(ctx context.Context, cfg *config.Config, log zerolog.Logger) (email.Provider, error) {
	flow := &gmail.BrowserFlow{
		Timeout: cfg.Auth.Timeout(),
		Out:     os.Stderr,
		Logger:  log,
	}
	store := gmail.NewTokenStore(
		cfg.Auth.TokenDir,
		cfg.Auth.CredentialsPath,
		flow,
		log.With().Str("component", "auth").Logger(),
	)

	session, err := gmail.NewSession(ctx, store, cfg.Auth.Scope, cfg.Auth.Version)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	return gmail.NewFromSession(session, gmail.Options{
		UserID:         cfg.Gmail.UserID,
		PageSize:       cfg.Gmail.PageSize,
		RecursiveParts: cfg.Download.RecursiveParts,
		Logger:         log,
	}), nil
}
