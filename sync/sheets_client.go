// ABOUTME: Sheets API client setup for Google Sheets integration
// ABOUTME: Creates authenticated Sheets service from OAuth token
package sync

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// NewSheetsClient creates a Google Sheets API service from an OAuth token.
func NewSheetsClient(ctx context.Context, token *oauth2.Token) (*sheets.Service, error) {
	if token == nil {
		return nil, fmt.Errorf("token cannot be nil")
	}

	config := NewOAuthConfig()
	client := config.Client(ctx, token)

	service, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets service: %w", err)
	}

	return service, nil
}
