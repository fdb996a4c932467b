// ABOUTME: OAuth configuration and token management for Google APIs
// ABOUTME: Handles OAuth flow, token storage at XDG paths, and silent re-authentication
package sync

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// NewOAuthConfig creates the OAuth2 config for the Sheets and Drive
// APIs. Users must create their own OAuth app in Google Cloud Console;
// credentials come from the environment.
func NewOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  "http://localhost:8080/oauth/callback",
		Scopes: []string{
			"https://www.googleapis.com/auth/spreadsheets",
			"https://www.googleapis.com/auth/drive.file",
		},
		Endpoint: google.Endpoint,
	}
}

// GetOAuthConfig validates that credentials are configured.
func GetOAuthConfig() (*oauth2.Config, error) {
	config := NewOAuthConfig()
	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, fmt.Errorf("google OAuth credentials not configured. Set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET environment variables")
	}
	return config, nil
}

// TokenPath returns the XDG-compliant path for storing OAuth tokens.
func TokenPath() string {
	return filepath.Join(xdg.DataHome, "polsync", "google-credentials.json")
}

// SaveToken saves an OAuth token to the XDG data directory.
func SaveToken(token *oauth2.Token) error {
	path := TokenPath()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	return nil
}

// LoadToken loads an OAuth token from the XDG data directory.
func LoadToken() (*oauth2.Token, error) {
	path := TokenPath()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}

	return &token, nil
}

// DeleteToken removes the stored credential, forcing the next start to
// stay local-only until the user signs in again.
func DeleteToken() error {
	err := os.Remove(TokenPath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

// BearerEnvVar names the environment variable through which a host auth
// system can hand the app an already-granted access token.
const BearerEnvVar = "GOOGLE_ACCESS_TOKEN"

// SilentToken attempts a non-interactive re-authentication: first an
// externally supplied bearer token from the environment, then a
// previously granted stored credential. Returns ErrNotSignedIn when no
// usable credential exists.
func SilentToken() (*oauth2.Token, error) {
	if raw := os.Getenv(BearerEnvVar); raw != "" {
		token, err := TokenFromBearer(raw)
		if err != nil {
			return nil, fmt.Errorf("rejected %s: %w", BearerEnvVar, err)
		}
		return token, nil
	}

	token, err := LoadToken()
	if err != nil {
		return nil, ErrNotSignedIn
	}
	// A token with a refresh token stays usable: the oauth2 transport
	// refreshes it on first use. Without one, an expired token is dead.
	if !token.Valid() && token.RefreshToken == "" {
		return nil, ErrAuthExpired
	}
	return token, nil
}

// TokenFromBearer wraps an externally supplied access token for the API
// clients after checking its shape.
func TokenFromBearer(raw string) (*oauth2.Token, error) {
	if err := ValidateBearerToken(raw); err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}, nil
}

// ValidateBearerToken checks that an externally supplied token is shaped
// like an OAuth access token. Google ID tokens are JWTs (three dot-
// separated segments) and are not usable as API bearer credentials.
func ValidateBearerToken(token string) error {
	if token == "" {
		return fmt.Errorf("empty bearer token")
	}
	if strings.Count(token, ".") == 2 && strings.HasPrefix(token, "ey") {
		return fmt.Errorf("token looks like an identity token (JWT), not an API access token")
	}
	return nil
}
