package gauth

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// NewHTTPClient returns an HTTP client that authenticates every request with
// the configured credentials.
func NewHTTPClient(ctx context.Context, config Config) (*http.Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid credentials config: %w", err)
	}

	tokenSource, err := newTokenSource(ctx, config)
	if err != nil {
		return nil, err
	}

	client := oauth2.NewClient(ctx, tokenSource)
	client.Timeout = config.HTTPTimeout

	return client, nil
}

func newTokenSource(ctx context.Context, config Config) (oauth2.TokenSource, error) {
	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, Scopes...)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		return jwtConfig.TokenSource(ctx), nil
	}

	token := &oauth2.Token{
		RefreshToken: config.RefreshToken,
		TokenType:    "Bearer",
	}

	return oauthConfig(config.ClientID, config.ClientSecret, "").TokenSource(ctx, token), nil
}

func oauthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
	}
}
