// ABOUTME: Typed errors and classification for remote sync operations
// ABOUTME: Distinguishes auth failures (forced sign-out) from transient errors (retry next cycle)
package sync

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
)

// Sentinel errors for programmatic handling.
var (
	ErrNotSignedIn   = errors.New("not signed in")
	ErrNoRemoteFound = errors.New("no remote resource found")
	ErrNotConnected  = errors.New("no remote backend connected")
	ErrAuthExpired   = errors.New("authentication expired")
)

// SyncError wraps a failed remote operation with context.
type SyncError struct {
	Op      string // "save", "load", "find", "create"
	Backend string // "sheets" or "drive"
	Err     error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Backend, e.Op, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err indicates invalid or expired
// credentials. Google APIs surface these as HTTP 401/403 or an "invalid
// authentication credentials" message; callers must force a sign-out
// when this returns true.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAuthExpired) || errors.Is(err, ErrNotSignedIn) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == 401 || apiErr.Code == 403 {
			return true
		}
	}

	msg := err.Error()
	return strings.Contains(msg, "401") ||
		strings.Contains(msg, "403") ||
		strings.Contains(msg, "invalid authentication credentials")
}
