// ABOUTME: Entry point for the insurance CRM MCP server and CLI
// ABOUTME: Routes to MCP server, sync, web, or CRM commands based on arguments
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/harperreed/polsync/cli"
	"github.com/harperreed/polsync/models"
	"github.com/harperreed/polsync/state"
	"github.com/harperreed/polsync/store"
	"github.com/harperreed/polsync/sync"
	"github.com/joho/godotenv"
)

const version = "0.1.0"

func main() {
	// Optional .env for GOOGLE_CLIENT_ID / GOOGLE_CLIENT_SECRET
	_ = godotenv.Load()

	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	dataPath := flag.String("data-path", "", "Data directory (default: ~/.local/share/polsync)")

	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("polsync version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	command := args[0]
	commandArgs := args[1:]

	dir := *dataPath
	if dir == "" {
		dir = cli.DataDir()
	}

	local, err := store.Open(filepath.Join(dir, "polsync-store"))
	if err != nil {
		log.Fatalf("Failed to open local store: %v", err)
	}
	defer local.Close()

	settings, err := local.LoadSettings()
	if err != nil {
		settings = models.DefaultSettings()
	}

	orch := sync.NewOrchestrator(local, state.Seed())
	orch.OnAlert = func(msg string) {
		fmt.Fprintf(os.Stderr, "\n⚠ %s\n", msg)
	}
	if err := orch.Restore(); err != nil {
		log.Fatalf("Failed to restore local data: %v", err)
	}

	app := &cli.App{Orch: orch, Store: local, Settings: settings}

	// Every command except the explicit sign-in/out attempts a silent
	// reconnect; with no stored credential the app just works locally.
	needsStartup := !(command == "sync" && len(commandArgs) > 0 &&
		(commandArgs[0] == "init" || commandArgs[0] == "signout"))
	if needsStartup {
		ctx := context.Background()
		_ = orch.Startup(ctx, func(ctx context.Context) (sync.Backend, error) {
			token, err := sync.SilentToken()
			if err != nil {
				return nil, err
			}
			return cli.NewBackend(ctx, settings.SyncBackend, token)
		})
	}

	switch command {
	case "mcp":
		if err := cli.MCPCommand(app); err != nil {
			log.Fatalf("MCP server failed: %v", err)
		}

	case "serve":
		if err := cli.ServeCommand(app, commandArgs); err != nil {
			log.Fatalf("Server failed: %v", err)
		}

	case "sync":
		if len(commandArgs) == 0 {
			fmt.Println("Error: sync requires a subcommand")
			printUsage()
			os.Exit(1)
		}
		runSync(app, commandArgs[0], commandArgs[1:])

	case "crm":
		if len(commandArgs) == 0 {
			fmt.Println("Error: crm requires a subcommand")
			printUsage()
			os.Exit(1)
		}
		runCRM(app, commandArgs[0], commandArgs[1:])
		flush(app)

	case "reminders":
		if err := cli.RemindersCommand(app, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}

	case "settings":
		if err := cli.SettingsCommand(app, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runSync(app *cli.App, command string, args []string) {
	var err error
	switch command {
	case "init":
		err = cli.SyncInitCommand(app, args)
	case "list":
		err = cli.SyncListCommand(app, args)
	case "status":
		err = cli.SyncStatusCommand(app, args)
	case "save":
		err = cli.SyncSaveCommand(app, args)
	case "load":
		err = cli.SyncLoadCommand(app, args)
	case "create":
		err = cli.SyncCreateCommand(app, args)
	case "signout":
		err = cli.SyncSignoutCommand(app, args)
	case "daemon":
		err = cli.SyncDaemonCommand(app, args)
	default:
		fmt.Printf("Unknown sync command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func runCRM(app *cli.App, command string, args []string) {
	var err error
	switch command {
	// Client commands
	case "add-client":
		err = cli.AddClientCommand(app, args)
	case "list-clients":
		err = cli.ListClientsCommand(app, args)
	case "update-client":
		err = cli.UpdateClientCommand(app, args)
	case "delete-client":
		err = cli.DeleteClientCommand(app, args)

	// Policy commands
	case "add-policy":
		err = cli.AddPolicyCommand(app, args)
	case "list-policies":
		err = cli.ListPoliciesCommand(app, args)
	case "delete-policy":
		err = cli.DeletePolicyCommand(app, args)
	case "extract-policy":
		err = cli.ExtractPolicyCommand(app, args)

	// Product commands
	case "add-product":
		err = cli.AddProductCommand(app, args)
	case "list-products":
		err = cli.ListProductsCommand(app, args)
	case "delete-product":
		err = cli.DeleteProductCommand(app, args)

	default:
		fmt.Printf("Unknown crm command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// flush pushes any mutation made by a one-shot command before the
// process exits, since the debounce window outlives the process.
func flush(app *cli.App) {
	status := app.Orch.Status()
	// Signed in without a remote resource (no_remote_found) has nothing
	// to push; only a connected remote gets the exit-time save.
	if status.State == models.SyncDisconnected || status.ResourceID == "" {
		return
	}
	if err := app.Orch.SaveNow(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "remote save failed (local copy is up to date): %v\n", err)
	}
}

func printUsage() {
	fmt.Printf(`polsync v%s - Insurance CRM with Google sync

USAGE:
  polsync [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --data-path <path>     Data directory (default: ~/.local/share/polsync)

COMMANDS:
  mcp                    Start MCP server for assistant integration
  serve                  Start the web proxy server (AI endpoints)
  sync                   Google sync commands
  crm                    CRM management commands
  reminders              List upcoming renewals and birthdays
  settings               Show or update app settings

SYNC COMMANDS:
  polsync sync init         Sign in with Google and connect a backend
    --backend <name>          sheets (default) or drive
    --token <token>           Use an externally issued access token

  polsync sync list         List spreadsheets visible to the account
    --use <id>                Connect to a specific spreadsheet and load it

  polsync sync status       Show connection state
  polsync sync save         Push local data to the remote now
  polsync sync load         Replace local data with the remote copy
  polsync sync create       Create a fresh remote resource
  polsync sync signout      Delete the stored credential
  polsync sync daemon       Keep running, saving periodically
    --interval <dur>          Periodic save interval (default: 5m)

CRM COMMANDS:
  polsync crm add-client      Add a new client
    --name <name>               Client name (required)
    --email <email>             Email address
    --phone <phone>             Phone number
    --birthday <date>           Birthday (YYYY-MM-DD)
    --tags <a,b>                Comma-separated tags

  polsync crm list-clients    List clients
    --query <text>              Search by name or email

  polsync crm add-policy      Add a policy (matches or creates its client)
    --holder <name>             Holder name (required)
    --plan <name>               Plan name (resolved against the product library)
    --number <num>              Policy number
    --birthday <date>           Holder birthday (YYYY-MM-DD)
    --anniversary <MM-DD>       Renewal date
    --premium <amount>          Base premium
    --mode <mode>               Payment mode (default: yearly)

  polsync crm list-policies   List policies
    --query <text>              Search by holder, plan, or number
    --type <type>               Filter by insurance type

  polsync crm extract-policy  Add a policy from a document
    --file <path>               Policy document text (required)
    --dry-run                   Show the draft without saving

  polsync crm add-product     Add a product to the library
    --name <name>               Product name (required, unique)
    --provider <name>           Insurance provider
    --type <type>               Insurance type
    --tags <a,b>                Default tags applied to matching policies

OTHER:
  polsync reminders            Upcoming renewals and birthdays
    --days <n>                   Lookahead window (default: settings)

  polsync settings             Show settings, or set with flags
    --reminder-days <n>          Reminder lookahead
    --ai-base-url <url>          AI provider base URL
    --ai-key <key>               AI provider API key
    --ai-model <name>            AI model name

EXAMPLES:
  # Sign in and connect Google Sheets
  polsync sync init --backend sheets

  # Add a policy; the holder becomes a client automatically
  polsync crm add-policy --holder "Jane Chen" --plan "Guardian Life" --premium 1200

  # See what is coming up in the next two weeks
  polsync reminders --days 14

`, version)
}
