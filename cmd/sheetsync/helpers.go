package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/sheetsync/internal/common"
	"github.com/Veraticus/sheetsync/internal/config"
	"github.com/Veraticus/sheetsync/internal/drive"
	"github.com/Veraticus/sheetsync/internal/gauth"
	"github.com/Veraticus/sheetsync/internal/sheets"
	"google.golang.org/api/option"
)

// clients bundles the Google API clients every command needs.
type clients struct {
	drive  *drive.Fetcher
	sheets *sheets.Client
}

func newClients(ctx context.Context, logger *slog.Logger) (*clients, error) {
	cfg, err := config.LoadGoogleConfig()
	if err != nil {
		return nil, common.NewUserError("Google credentials are not usable", err)
	}

	httpClient, err := gauth.NewHTTPClient(ctx, *cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate with Google: %w", err)
	}

	fetcher, err := drive.NewFetcher(ctx, logger, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, err
	}

	sheetsClient, err := sheets.NewClient(ctx, logger, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, err
	}

	return &clients{drive: fetcher, sheets: sheetsClient}, nil
}
