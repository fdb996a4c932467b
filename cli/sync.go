// ABOUTME: Google sync CLI commands
// ABOUTME: Handles OAuth setup, backend selection, manual sync, and the save daemon
package cli

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/adrg/xdg"
	"github.com/harperreed/polsync/models"
	"github.com/harperreed/polsync/sync"
	"golang.org/x/oauth2"
)

// SyncInitCommand handles OAuth setup and connects the chosen backend.
func SyncInitCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	backendName := fs.String("backend", models.BackendSheets, "Remote backend (sheets|drive)")
	bearer := fs.String("token", "", "Use an externally issued access token instead of the browser flow")
	_ = fs.Parse(args)

	if *backendName != models.BackendSheets && *backendName != models.BackendDrive {
		return fmt.Errorf("unknown backend %q (want sheets or drive)", *backendName)
	}

	ctx := context.Background()

	// An access token handed over by another auth system skips the
	// browser flow entirely. It is used as-is and never persisted.
	if *bearer != "" {
		token, err := sync.TokenFromBearer(*bearer)
		if err != nil {
			return fmt.Errorf("invalid token: %w", err)
		}

		app.Settings.SyncBackend = *backendName
		if err := app.Store.SaveSettings(app.Settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}

		return connectAndLoad(ctx, app, *backendName, token)
	}

	config, err := sync.GetOAuthConfig()
	if err != nil {
		return fmt.Errorf("failed to get OAuth config: %w", err)
	}

	// Start local server for OAuth callback
	callbackChan := make(chan *oauth2.Token)
	errChan := make(chan error)

	http.HandleFunc("/oauth/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			errChan <- fmt.Errorf("no authorization code received")
			return
		}

		token, err := config.Exchange(ctx, code)
		if err != nil {
			errChan <- fmt.Errorf("failed to exchange code: %w", err)
			return
		}

		callbackChan <- token
		_, _ = fmt.Fprintf(w, "Authorization successful! You can close this window.")
	})

	server := &http.Server{Addr: ":8080"}
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	authURL := config.AuthCodeURL("state", oauth2.AccessTypeOffline)

	fmt.Println("Opening browser for Google OAuth...")
	fmt.Printf("\nIf browser doesn't open, visit this URL:\n%s\n\n", authURL)

	_ = openBrowser(authURL)

	select {
	case token := <-callbackChan:
		_ = server.Shutdown(ctx)

		if err := sync.SaveToken(token); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}

		fmt.Printf("\n✓ Authenticated successfully\n")
		fmt.Printf("✓ Tokens saved to %s\n\n", sync.TokenPath())

		app.Settings.SyncBackend = *backendName
		if err := app.Store.SaveSettings(app.Settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}

		return connectAndLoad(ctx, app, *backendName, token)

	case err := <-errChan:
		_ = server.Shutdown(ctx)
		return fmt.Errorf("OAuth flow failed: %w", err)
	}
}

// SyncListCommand lists the signed-in user's spreadsheets, and with
// --use connects to the chosen one instead of the well-known title.
func SyncListCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	use := fs.String("use", "", "Connect to this spreadsheet ID and load it")
	_ = fs.Parse(args)

	ctx := context.Background()

	token, err := sync.SilentToken()
	if err != nil {
		return fmt.Errorf("not signed in. Run 'polsync sync init' first: %w", err)
	}

	driveSvc, err := sync.NewDriveClient(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to create drive client: %w", err)
	}
	sheetsSvc, err := sync.NewSheetsClient(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to create sheets client: %w", err)
	}
	backend := sync.NewSheetsBackend(sheetsSvc, driveSvc)

	if *use != "" {
		app.Orch.Connect(backend, *use)
		if err := app.Orch.LoadNow(ctx); err != nil {
			return fmt.Errorf("failed to load spreadsheet %s: %w", *use, err)
		}
		fmt.Printf("✓ Connected to spreadsheet %s\n", *use)
		return nil
	}

	infos, err := backend.ListSpreadsheets(ctx)
	if err != nil {
		return fmt.Errorf("failed to list spreadsheets: %w", err)
	}

	if len(infos) == 0 {
		fmt.Println("No spreadsheets found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME")
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%s\n", info.ID, info.Name)
	}
	w.Flush()

	fmt.Printf("\n%d spreadsheet(s). Connect with 'polsync sync list --use <id>'\n", len(infos))
	return nil
}

// SyncStatusCommand prints the current connection state.
func SyncStatusCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	_ = fs.Parse(args)

	status := app.Orch.Status()

	fmt.Printf("State: %s\n", status.State)
	if status.Backend != "" {
		fmt.Printf("Backend: %s\n", status.Backend)
	}
	if status.ResourceID != "" {
		fmt.Printf("Remote: %s\n", status.ResourceID)
	}
	if status.Status != "" {
		fmt.Printf("Status: %s\n", status.Status)
	}
	if status.LastSync != nil {
		fmt.Printf("Last sync: %s\n", status.LastSync.Format(time.RFC3339))
	}
	return nil
}

// SyncSaveCommand pushes the local dataset to the remote immediately.
func SyncSaveCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("save", flag.ExitOnError)
	_ = fs.Parse(args)

	if err := app.Orch.SaveNow(context.Background()); err != nil {
		return fmt.Errorf("save failed: %w", err)
	}
	fmt.Println("✓ Saved to remote")
	return nil
}

// SyncLoadCommand replaces the local dataset with the remote copy.
func SyncLoadCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	_ = fs.Parse(args)

	if err := app.Orch.LoadNow(context.Background()); err != nil {
		return fmt.Errorf("load failed: %w", err)
	}
	fmt.Println("✓ Loaded from remote")
	return nil
}

// SyncCreateCommand provisions a fresh remote resource and pushes the
// current dataset to it.
func SyncCreateCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	_ = fs.Parse(args)

	if err := app.Orch.CreateRemote(context.Background()); err != nil {
		return fmt.Errorf("create failed: %w", err)
	}

	status := app.Orch.Status()
	fmt.Printf("✓ Remote created: %s\n", status.ResourceID)
	return nil
}

// SyncSignoutCommand deletes the stored credential and disconnects.
func SyncSignoutCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("signout", flag.ExitOnError)
	_ = fs.Parse(args)

	if err := sync.DeleteToken(); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	app.Orch.Disconnect()

	fmt.Println("✓ Signed out")
	return nil
}

// SyncDaemonCommand keeps the process alive so the debounced saves keep
// flowing, flushing once more on shutdown.
func SyncDaemonCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("daemon", flag.ExitOnError)
	interval := fs.Duration("interval", 5*time.Minute, "Periodic save interval")
	_ = fs.Parse(args)

	status := app.Orch.Status()
	if status.State == models.SyncDisconnected {
		return fmt.Errorf("not connected. Run 'polsync sync init' first")
	}

	fmt.Printf("Sync daemon running (saving every %s). Ctrl-C to stop.\n", *interval)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := app.Orch.SaveNow(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "periodic save failed: %v\n", err)
			}
		case <-stop:
			fmt.Println("\nFlushing before exit...")
			if err := app.Orch.SaveNow(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "final save failed: %v\n", err)
			}
			return nil
		}
	}
}

// NewBackend builds the named backend from a valid token.
func NewBackend(ctx context.Context, name string, token *oauth2.Token) (sync.Backend, error) {
	driveSvc, err := sync.NewDriveClient(ctx, token)
	if err != nil {
		return nil, err
	}

	switch name {
	case models.BackendDrive:
		return sync.NewDriveBackend(driveSvc, DataDir()), nil
	default:
		sheetsSvc, err := sync.NewSheetsClient(ctx, token)
		if err != nil {
			return nil, err
		}
		return sync.NewSheetsBackend(sheetsSvc, driveSvc), nil
	}
}

// DataDir is where the local store and drive snapshots live.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "polsync")
}

// connectAndLoad attaches a freshly authenticated backend, then either
// loads the discovered remote or reports that none exists yet.
func connectAndLoad(ctx context.Context, app *App, backendName string, token *oauth2.Token) error {
	backend, err := NewBackend(ctx, backendName, token)
	if err != nil {
		return fmt.Errorf("failed to create %s client: %w", backendName, err)
	}

	id, err := backend.FindExisting(ctx)
	if err != nil {
		return fmt.Errorf("failed to check for existing data: %w", err)
	}

	app.Orch.Connect(backend, id)

	if id == "" {
		fmt.Println("No existing remote data found.")
		fmt.Println("Run 'polsync sync create' to create one, or 'polsync sync init --backend drive' to use a different backend.")
		return nil
	}

	if err := app.Orch.LoadNow(ctx); err != nil {
		return fmt.Errorf("failed to load remote data: %w", err)
	}

	fmt.Printf("✓ Connected to %s, data loaded\n", backendName)
	return nil
}

// openBrowser attempts to open URL in default browser
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}

	command := exec.Command(cmd, args...)
	return command.Start()
}
