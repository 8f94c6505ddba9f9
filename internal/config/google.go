package config

import (
	"fmt"

	"github.com/Veraticus/sheetsync/internal/common"
	"github.com/Veraticus/sheetsync/internal/gauth"
	"github.com/spf13/viper"
)

// LoadGoogleConfig loads Google API credentials from Viper and environment variables.
// It follows this precedence:
// 1. Viper configuration (from config file or SHEETSYNC_ env vars)
// 2. Direct environment variables (GOOGLE_*)
func LoadGoogleConfig() (*gauth.Config, error) {
	cfg := gauth.DefaultConfig()

	if v := viper.GetString("google.service_account_path"); v != "" {
		cfg.ServiceAccountPath = ExpandPath(v)
	}
	if v := viper.GetString("google.client_id"); v != "" {
		cfg.ClientID = v
	}
	if v := viper.GetString("google.client_secret"); v != "" {
		cfg.ClientSecret = v
	}
	if v := viper.GetString("google.refresh_token"); v != "" {
		cfg.RefreshToken = v
	}
	cfg.HTTPTimeout = viper.GetDuration("google.http_timeout")

	cfg.LoadFromEnv()
	cfg.ServiceAccountPath = ExpandPath(cfg.ServiceAccountPath)

	if cfg.ClientID == "" && cfg.ClientSecret == "" && cfg.RefreshToken == "" && cfg.ServiceAccountPath == "" {
		return nil, fmt.Errorf("%w: no Google credentials; set google.service_account_path or run 'sheetsync auth'", common.ErrMissingConfig)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: google: %w", common.ErrInvalidConfig, err)
	}

	return &cfg, nil
}
