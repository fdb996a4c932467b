// ABOUTME: Drive API client setup for Google Drive integration
// ABOUTME: Creates authenticated Drive service from OAuth token
package sync

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// NewDriveClient creates a Google Drive API service from an OAuth token.
func NewDriveClient(ctx context.Context, token *oauth2.Token) (*drive.Service, error) {
	if token == nil {
		return nil, fmt.Errorf("token cannot be nil")
	}

	config := NewOAuthConfig()
	client := config.Client(ctx, token)

	service, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}

	return service, nil
}
