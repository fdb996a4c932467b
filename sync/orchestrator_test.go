// ABOUTME: Tests for the sync orchestrator state machine
// ABOUTME: Covers debounce coalescing, single-flight saves, and auth-failure disconnects
package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"testing"
	"time"

	"github.com/harperreed/polsync/models"
	"github.com/harperreed/polsync/state"
	"github.com/harperreed/polsync/store"
	"google.golang.org/api/googleapi"
)

type fakeBackend struct {
	mu            stdsync.Mutex
	saves         []state.Collections
	concurrent    int
	maxConcurrent int
	saveErr       error
	saveErrOnce   bool
	findID        string
	findErr       error
	loadData      state.Collections
	loadErr       error
	block         chan struct{}
}

func (f *fakeBackend) Name() string { return models.BackendSheets }

func (f *fakeBackend) FindExisting(ctx context.Context) (string, error) {
	return f.findID, f.findErr
}

func (f *fakeBackend) Create(ctx context.Context) (string, error) {
	return "created-id", nil
}

func (f *fakeBackend) Save(ctx context.Context, id string, data state.Collections) error {
	f.mu.Lock()
	f.concurrent++
	if f.concurrent > f.maxConcurrent {
		f.maxConcurrent = f.concurrent
	}
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.concurrent--
	if f.saveErr != nil {
		err := f.saveErr
		if f.saveErrOnce {
			f.saveErr = nil
		}
		return err
	}
	f.saves = append(f.saves, data)
	return nil
}

func (f *fakeBackend) Load(ctx context.Context, id string) (state.Collections, error) {
	return f.loadData, f.loadErr
}

func (f *fakeBackend) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

func newTestOrchestrator(t *testing.T, backend Backend) *Orchestrator {
	t.Helper()
	local, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open local store: %v", err)
	}
	t.Cleanup(func() { _ = local.Close() })

	o := NewOrchestrator(local, state.Collections{})
	o.OnAlert = func(string) {}
	if backend != nil {
		o.Connect(backend, "sheet-1")
	}
	return o
}

func addPolicyMutation(holder string, premium float64) func(state.Collections) state.Collections {
	return func(c state.Collections) state.Collections {
		return state.AddPolicy(c, models.Policy{HolderName: holder, PremiumAmount: premium}, time.Now())
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestConnectedWithoutRemoteResource(t *testing.T) {
	backend := &fakeBackend{}
	o := newTestOrchestrator(t, nil)
	o.Connect(backend, "")

	status := o.Status()
	if status.State != models.SyncNoRemoteFound {
		t.Errorf("expected no_remote_found, got %s", status.State)
	}
	if status.ResourceID != "" {
		t.Errorf("expected empty resource id, got %q", status.ResourceID)
	}

	// Signed in but with nothing provisioned remotely: saving is not
	// possible, and callers can tell by the empty resource id.
	if err := o.SaveNow(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
	if got := backend.saveCount(); got != 0 {
		t.Errorf("expected no saves, got %d", got)
	}
}

func TestDebounceCoalescesMutations(t *testing.T) {
	backend := &fakeBackend{}
	o := newTestOrchestrator(t, backend)
	o.SetDebounce(50 * time.Millisecond)

	if err := o.Apply(addPolicyMutation("Alice", 100)); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond) // inside the quiet period
	if err := o.Apply(addPolicyMutation("Bob", 200)); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool { return backend.saveCount() == 1 })

	// Give a reset timer a chance to misfire a second save.
	time.Sleep(150 * time.Millisecond)
	if got := backend.saveCount(); got != 1 {
		t.Fatalf("expected exactly 1 save, got %d", got)
	}

	backend.mu.Lock()
	saved := backend.saves[0]
	backend.mu.Unlock()
	if len(saved.Policies) != 2 {
		t.Errorf("expected save to carry state after second mutation, got %d policies", len(saved.Policies))
	}
}

func TestAuthFailureDisconnectsAndStopsSaving(t *testing.T) {
	backend := &fakeBackend{saveErr: &googleapi.Error{Code: 401, Message: "Unauthorized"}}
	o := newTestOrchestrator(t, backend)
	o.SetDebounce(10 * time.Millisecond)

	alerted := make(chan string, 1)
	o.OnAlert = func(msg string) { alerted <- msg }

	err := o.SaveNow(context.Background())
	if err == nil {
		t.Fatal("expected save error")
	}

	select {
	case <-alerted:
	case <-time.After(time.Second):
		t.Fatal("expected re-authentication alert")
	}

	if got := o.Status().State; got != models.SyncDisconnected {
		t.Fatalf("expected disconnected state, got %s", got)
	}

	// Further mutations must not reach the backend.
	backend.mu.Lock()
	backend.saveErr = nil
	backend.mu.Unlock()
	if err := o.Apply(addPolicyMutation("Alice", 100)); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if got := backend.saveCount(); got != 0 {
		t.Errorf("expected no saves after disconnect, got %d", got)
	}
}

func TestInvalidCredentialsMessageDisconnects(t *testing.T) {
	backend := &fakeBackend{saveErr: errors.New("Request had invalid authentication credentials")}
	o := newTestOrchestrator(t, backend)

	if err := o.SaveNow(context.Background()); err == nil {
		t.Fatal("expected save error")
	}
	if got := o.Status().State; got != models.SyncDisconnected {
		t.Errorf("expected disconnected state, got %s", got)
	}
}

func TestTransientFailureKeepsBackendConnected(t *testing.T) {
	backend := &fakeBackend{saveErr: errors.New("dial tcp: connection refused"), saveErrOnce: true}
	o := newTestOrchestrator(t, backend)

	if err := o.SaveNow(context.Background()); err == nil {
		t.Fatal("expected transient save error")
	}
	if got := o.Status().State; got != models.SyncIdle {
		t.Fatalf("expected idle after transient failure, got %s", got)
	}

	// The next save retries against the still-connected backend.
	if err := o.SaveNow(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if got := backend.saveCount(); got != 1 {
		t.Errorf("expected retry to reach backend, got %d saves", got)
	}
}

func TestSingleFlightCoalescesOverlappingSaves(t *testing.T) {
	backend := &fakeBackend{block: make(chan struct{})}
	o := newTestOrchestrator(t, backend)

	done := make(chan error, 1)
	go func() { done <- o.SaveNow(context.Background()) }()

	// Wait until the first save is in flight, then pile on requests.
	waitFor(t, time.Second, func() bool {
		backend.mu.Lock()
		defer backend.mu.Unlock()
		return backend.concurrent == 1
	})
	for i := 0; i < 5; i++ {
		if err := o.SaveNow(context.Background()); err != nil {
			t.Fatalf("coalesced SaveNow returned error: %v", err)
		}
	}

	close(backend.block)
	if err := <-done; err != nil {
		t.Fatalf("in-flight save failed: %v", err)
	}

	waitFor(t, time.Second, func() bool { return backend.saveCount() == 2 })
	backend.mu.Lock()
	max := backend.maxConcurrent
	backend.mu.Unlock()
	if max > 1 {
		t.Errorf("saves overlapped: max concurrency %d", max)
	}
}

func TestStartupWithoutCredentialStaysLocal(t *testing.T) {
	o := newTestOrchestrator(t, nil)

	err := o.Startup(context.Background(), func(ctx context.Context) (Backend, error) {
		return nil, ErrNotSignedIn
	})
	if err != nil {
		t.Fatalf("Startup failed: %v", err)
	}
	if got := o.Status().State; got != models.SyncDisconnected {
		t.Errorf("expected disconnected, got %s", got)
	}
}

func TestStartupFindsAndLoadsRemote(t *testing.T) {
	now := time.Now()
	remote := state.AddPolicy(state.Collections{}, models.Policy{HolderName: "Remote Rita", PremiumAmount: 900}, now)
	backend := &fakeBackend{findID: "sheet-42", loadData: remote}

	o := newTestOrchestrator(t, nil)
	err := o.Startup(context.Background(), func(ctx context.Context) (Backend, error) {
		return backend, nil
	})
	if err != nil {
		t.Fatalf("Startup failed: %v", err)
	}

	st := o.Status()
	if st.State != models.SyncIdle {
		t.Errorf("expected idle after load, got %s", st.State)
	}
	if st.ResourceID != "sheet-42" {
		t.Errorf("expected resource sheet-42, got %s", st.ResourceID)
	}
	if st.LastSync == nil {
		t.Error("expected last-sync timestamp")
	}

	got := o.Collections()
	if len(got.Policies) != 1 || got.Policies[0].HolderName != "Remote Rita" {
		t.Errorf("expected remote data loaded wholesale, got %+v", got.Policies)
	}
}

func TestStartupNoRemoteFound(t *testing.T) {
	backend := &fakeBackend{findID: ""}
	o := newTestOrchestrator(t, nil)

	err := o.Startup(context.Background(), func(ctx context.Context) (Backend, error) {
		return backend, nil
	})
	if err != nil {
		t.Fatalf("Startup failed: %v", err)
	}
	if got := o.Status().State; got != models.SyncNoRemoteFound {
		t.Errorf("expected no_remote_found, got %s", got)
	}
}

func TestLoadPreservesLocalProductsWhenRemoteHasNone(t *testing.T) {
	backend := &fakeBackend{loadData: state.Collections{}}
	o := newTestOrchestrator(t, backend)

	if err := o.Apply(func(c state.Collections) state.Collections {
		c, _ = state.AddProduct(c, models.Product{Name: "Term Life 20", Type: models.TypeLife})
		return c
	}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if err := o.LoadNow(context.Background()); err != nil {
		t.Fatalf("LoadNow failed: %v", err)
	}

	got := o.Collections()
	if len(got.Products) != 1 {
		t.Errorf("expected local products preserved, got %d", len(got.Products))
	}
}

func TestCreateRemoteConnectsAndPushes(t *testing.T) {
	backend := &fakeBackend{}
	o := newTestOrchestrator(t, nil)
	o.Connect(backend, "")

	if err := o.CreateRemote(context.Background()); err != nil {
		t.Fatalf("CreateRemote failed: %v", err)
	}

	st := o.Status()
	if st.ResourceID != "created-id" {
		t.Errorf("expected created-id, got %s", st.ResourceID)
	}
	if backend.saveCount() != 1 {
		t.Errorf("expected initial push after create, got %d saves", backend.saveCount())
	}
}

func TestSaveNowWithoutBackend(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	if err := o.SaveNow(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestApplyMirrorsToLocalStore(t *testing.T) {
	o := newTestOrchestrator(t, nil)

	if err := o.Apply(addPolicyMutation("Alice", 100)); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	// A fresh orchestrator over the same store restores the mutation.
	o2 := NewOrchestrator(o.local, state.Collections{})
	if err := o2.Restore(); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	got := o2.Collections()
	if len(got.Policies) != 1 || len(got.Clients) != 1 {
		t.Errorf("expected mirrored state restored, got %d policies / %d clients", len(got.Policies), len(got.Clients))
	}
}
