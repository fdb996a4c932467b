// ABOUTME: Sync orchestrator driving the remote backend lifecycle
// ABOUTME: Handles silent sign-in, debounced single-flight saves, and auth-failure disconnects
package sync

import (
	"context"
	"log"
	stdsync "sync"
	"time"

	"github.com/harperreed/polsync/models"
	"github.com/harperreed/polsync/state"
	"github.com/harperreed/polsync/store"
)

// DefaultDebounce is the quiet period after the last mutation before an
// automatic save fires.
const DefaultDebounce = 3 * time.Second

// Orchestrator owns the in-memory collections and reconciles them with
// the local store and the active remote backend. Every mutation mirrors
// to the local store immediately and schedules a debounced remote save;
// a new mutation inside the window resets the timer. Saves are
// serialized through a single-flight guard so overlapping timers never
// race: a save requested while one is in flight runs afterwards with the
// then-current state.
type Orchestrator struct {
	mu          stdsync.Mutex
	local       *store.Store
	backend     Backend
	resourceID  string
	collections state.Collections
	syncState   models.SyncState
	debounce    time.Duration
	timer       *time.Timer
	saving      bool
	pending     bool

	// Now is the clock, replaceable in tests.
	Now func() time.Time

	// OnAlert receives the blocking re-authentication message on auth
	// failures. Defaults to logging.
	OnAlert func(msg string)
}

// NewOrchestrator starts disconnected, holding seed collections until
// Restore or a remote load replaces them.
func NewOrchestrator(local *store.Store, seed state.Collections) *Orchestrator {
	return &Orchestrator{
		local:       local,
		collections: seed,
		syncState:   models.SyncState{State: models.SyncDisconnected},
		debounce:    DefaultDebounce,
		Now:         time.Now,
		OnAlert:     func(msg string) { log.Printf("sync alert: %s", msg) },
	}
}

// SetDebounce overrides the quiet period (used by tests and the daemon).
func (o *Orchestrator) SetDebounce(d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.debounce = d
}

// Collections returns a copy of the current in-memory dataset.
func (o *Orchestrator) Collections() state.Collections {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.collections.Clone()
}

// Status returns a copy of the current sync state.
func (o *Orchestrator) Status() models.SyncState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.syncState
}

// Restore loads the three collections from the local store, leaving seed
// values for keys that were never written.
func (o *Orchestrator) Restore() error {
	o.mu.Lock()
	seed := o.collections
	o.mu.Unlock()

	restored, err := o.local.LoadCollections(seed)
	if err != nil {
		return err
	}

	o.mu.Lock()
	o.collections = restored
	o.mu.Unlock()
	return nil
}

// Apply runs a mutation against the current collections, mirrors the
// result to the local store, and schedules a debounced remote save.
func (o *Orchestrator) Apply(mutate func(state.Collections) state.Collections) error {
	o.mu.Lock()
	o.collections = mutate(o.collections)
	snapshot := o.collections.Clone()
	o.mu.Unlock()

	if err := o.local.SaveCollections(snapshot); err != nil {
		return err
	}

	o.ScheduleSave()
	return nil
}

// Startup runs the app-start flow: attempt a silent sign-in, and when a
// credential is available, check for a known remote resource and load
// from it. Without a credential the app stays local-only.
func (o *Orchestrator) Startup(ctx context.Context, connect func(ctx context.Context) (Backend, error)) error {
	o.setState(models.SyncAuthenticating, "Signing in")

	backend, err := connect(ctx)
	if err != nil {
		// No stored credential is the normal local-only case.
		o.setState(models.SyncDisconnected, "Working locally")
		return nil
	}

	o.mu.Lock()
	o.backend = backend
	o.syncState.Backend = backend.Name()
	o.mu.Unlock()

	o.setState(models.SyncCheckingRemote, "Checking for existing data")

	id, err := backend.FindExisting(ctx)
	if err != nil {
		return o.classify("find", err)
	}
	if id == "" {
		o.setState(models.SyncNoRemoteFound, "No remote data found")
		return nil
	}

	o.mu.Lock()
	o.resourceID = id
	o.mu.Unlock()

	return o.LoadNow(ctx)
}

// Connect attaches a backend and remembers its resource, used by the
// manual sign-in and backend-selection flows.
func (o *Orchestrator) Connect(backend Backend, resourceID string) {
	o.mu.Lock()
	o.backend = backend
	o.resourceID = resourceID
	o.syncState.Backend = backend.Name()
	o.syncState.ResourceID = resourceID
	o.mu.Unlock()

	if resourceID != "" {
		o.setState(models.SyncIdle, "Connected")
	} else {
		o.setState(models.SyncNoRemoteFound, "No remote data found")
	}
}

// Disconnect detaches the remote backend and cancels any pending save,
// so no further automatic saves are attempted.
func (o *Orchestrator) Disconnect() {
	o.mu.Lock()
	o.backend = nil
	o.resourceID = ""
	o.pending = false
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	o.syncState = models.SyncState{State: models.SyncDisconnected, Status: "Disconnected"}
	o.mu.Unlock()
}

// CreateRemote provisions a fresh remote resource on the active backend
// and pushes the current dataset to it.
func (o *Orchestrator) CreateRemote(ctx context.Context) error {
	o.mu.Lock()
	backend := o.backend
	o.mu.Unlock()
	if backend == nil {
		return ErrNotConnected
	}

	id, err := backend.Create(ctx)
	if err != nil {
		return o.classify("create", err)
	}

	o.mu.Lock()
	o.resourceID = id
	o.syncState.ResourceID = id
	o.mu.Unlock()

	return o.SaveNow(ctx)
}

// ScheduleSave arms (or re-arms) the debounce timer. Called for every
// qualifying mutation; the save fires after a full quiet period.
func (o *Orchestrator) ScheduleSave() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.backend == nil || o.resourceID == "" {
		return
	}
	if o.timer != nil {
		o.timer.Stop()
	}
	o.timer = time.AfterFunc(o.debounce, func() {
		_ = o.SaveNow(context.Background())
	})
}

// SaveNow pushes the current dataset to the remote backend immediately.
// Concurrent calls coalesce: a call arriving while a save is in flight
// marks it pending, and one follow-up save runs with the latest state.
func (o *Orchestrator) SaveNow(ctx context.Context) error {
	o.mu.Lock()
	if o.backend == nil || o.resourceID == "" {
		o.mu.Unlock()
		return ErrNotConnected
	}
	if o.saving {
		o.pending = true
		o.mu.Unlock()
		return nil
	}
	o.saving = true
	backend := o.backend
	id := o.resourceID
	snapshot := o.collections.Clone()
	o.syncState.State = models.SyncSaving
	o.syncState.Status = "Saving"
	o.mu.Unlock()

	err := backend.Save(ctx, id, snapshot)

	o.mu.Lock()
	o.saving = false
	rerun := o.pending
	o.pending = false
	o.mu.Unlock()

	if err != nil {
		return o.classify("save", err)
	}

	now := o.Now()
	o.mu.Lock()
	o.syncState.State = models.SyncIdle
	o.syncState.Status = "Saved"
	o.syncState.LastSync = &now
	o.mu.Unlock()

	if rerun {
		return o.SaveNow(ctx)
	}

	o.mu.Lock()
	if o.syncState.Status == "Saved" {
		o.syncState.Status = "Synced"
	}
	o.mu.Unlock()
	return nil
}

// LoadNow pulls the dataset from the remote backend and replaces the
// in-memory collections wholesale. Local edits made since the last save
// are overwritten (last load wins).
func (o *Orchestrator) LoadNow(ctx context.Context) error {
	o.mu.Lock()
	if o.backend == nil || o.resourceID == "" {
		o.mu.Unlock()
		return ErrNotConnected
	}
	backend := o.backend
	id := o.resourceID
	o.syncState.State = models.SyncLoading
	o.syncState.Status = "Loading"
	o.mu.Unlock()

	data, err := backend.Load(ctx, id)
	if err != nil {
		return o.classify("load", err)
	}

	now := o.Now()
	o.mu.Lock()
	// The drive snapshot carries no product catalog; keep the local one.
	if data.Products == nil {
		data.Products = o.collections.Products
	}
	o.collections = data
	snapshot := o.collections.Clone()
	o.syncState.State = models.SyncIdle
	o.syncState.Status = "Synced"
	o.syncState.ResourceID = id
	o.syncState.LastSync = &now
	o.mu.Unlock()

	return o.local.SaveCollections(snapshot)
}

// classify is the single point where remote errors are handled: auth
// failures force a disconnect and a user-facing alert, anything else is
// surfaced as status text and left for the next cycle to retry.
func (o *Orchestrator) classify(op string, err error) error {
	if IsAuthError(err) {
		o.Disconnect()
		o.mu.Lock()
		o.syncState.Status = "Authentication expired"
		o.mu.Unlock()
		o.OnAlert("Your Google session has expired. Please sign in again to resume syncing.")
		return err
	}

	o.mu.Lock()
	o.syncState.State = models.SyncIdle
	o.syncState.Status = "Sync error: " + err.Error()
	o.mu.Unlock()
	log.Printf("sync %s failed: %v", op, err)
	return err
}

func (o *Orchestrator) setState(s, status string) {
	o.mu.Lock()
	o.syncState.State = s
	o.syncState.Status = status
	o.mu.Unlock()
}
