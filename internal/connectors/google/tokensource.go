package google

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	googleauth "golang.org/x/oauth2/google"

	"github.com/quarrylabs/quarry/internal/core/domain"
)

// ParseToken decodes stored OAuth2 token JSON.
// The format matches what oauth2.Token marshals to, so a token obtained
// from any standard Google OAuth flow can be pasted into the source
// configuration.
func ParseToken(raw string) (*oauth2.Token, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: empty token", domain.ErrInvalidConfig)
	}

	var token oauth2.Token
	if err := json.Unmarshal([]byte(raw), &token); err != nil {
		return nil, fmt.Errorf("%w: parsing token: %v", domain.ErrInvalidConfig, err)
	}

	if token.AccessToken == "" && token.RefreshToken == "" {
		return nil, fmt.Errorf("%w: token carries neither access nor refresh token", domain.ErrInvalidConfig)
	}

	if token.TokenType == "" {
		token.TokenType = "Bearer"
	}

	return &token, nil
}

// NewTokenSource builds an oauth2.TokenSource from stored token material.
// When a client ID, client secret and refresh token are all present the
// source refreshes expired access tokens automatically; otherwise the
// stored access token is used as-is until it expires.
func NewTokenSource(ctx context.Context, tokenJSON, clientID, clientSecret string) (oauth2.TokenSource, error) {
	token, err := ParseToken(tokenJSON)
	if err != nil {
		return nil, err
	}

	if clientID != "" && clientSecret != "" && token.RefreshToken != "" {
		cfg := &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     googleauth.Endpoint,
		}
		return cfg.TokenSource(ctx, token), nil
	}

	return oauth2.StaticTokenSource(token), nil
}
