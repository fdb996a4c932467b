// ABOUTME: Shared CLI application wiring
// ABOUTME: Holds the orchestrator, local store, and settings used by every command
package cli

import (
	"github.com/harperreed/polsync/models"
	"github.com/harperreed/polsync/store"
	"github.com/harperreed/polsync/sync"
)

// App bundles everything a command needs.
type App struct {
	Orch     *sync.Orchestrator
	Store    *store.Store
	Settings models.AppSettings
}
