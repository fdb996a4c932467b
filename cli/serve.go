// ABOUTME: Web proxy server subcommand
// ABOUTME: Starts the AI relay and status HTTP endpoints
package cli

import (
	"flag"
	"fmt"

	"github.com/harperreed/polsync/models"
	"github.com/harperreed/polsync/web"
)

// ServeCommand starts the HTTP server hosting the AI proxy endpoints.
func ServeCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.Int("port", 8990, "Port to listen on")
	_ = fs.Parse(args)

	srv := web.NewServer(func() models.AppSettings {
		settings, err := app.Store.LoadSettings()
		if err != nil {
			return app.Settings
		}
		return settings
	}, app.Orch)

	fmt.Printf("Listening on http://localhost:%d\n", *port)
	return srv.Start(*port)
}
