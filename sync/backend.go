// ABOUTME: Pluggable remote backend abstraction
// ABOUTME: One interface with spreadsheet and drive-file implementations behind it
package sync

import (
	"context"

	"github.com/harperreed/polsync/state"
)

// Backend is a remote persistence integration. Exactly one backend is
// active per session; the orchestrator drives whichever one it is given.
type Backend interface {
	// Name identifies the backend ("sheets" or "drive").
	Name() string

	// FindExisting searches for the well-known remote resource and
	// returns its identifier, or "" when none exists.
	FindExisting(ctx context.Context) (string, error)

	// Create provisions a fresh remote resource and returns its identifier.
	Create(ctx context.Context) (string, error)

	// Save replaces the remote resource's contents wholesale with data.
	Save(ctx context.Context, resourceID string, data state.Collections) error

	// Load fetches the full dataset from the remote resource.
	Load(ctx context.Context, resourceID string) (state.Collections, error)
}
