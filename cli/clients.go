// ABOUTME: Client CLI commands
// ABOUTME: Human-friendly commands for managing clients
package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/polsync/models"
	"github.com/harperreed/polsync/state"
)

// AddClientCommand adds a new client.
func AddClientCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("add-client", flag.ExitOnError)
	name := fs.String("name", "", "Client name (required)")
	email := fs.String("email", "", "Email address")
	phone := fs.String("phone", "", "Phone number")
	birthday := fs.String("birthday", "", "Birthday (YYYY-MM-DD)")
	tags := fs.String("tags", "", "Comma-separated tags")
	_ = fs.Parse(args)

	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	client := models.Client{
		Name:  *name,
		Email: *email,
		Phone: *phone,
		Tags:  splitTags(*tags),
	}
	if *birthday != "" {
		bd, err := time.Parse("2006-01-02", *birthday)
		if err != nil {
			return fmt.Errorf("invalid --birthday (want YYYY-MM-DD): %w", err)
		}
		client.Birthday = &bd
	}

	err := app.Orch.Apply(func(c state.Collections) state.Collections {
		next := state.AddClient(c, client, time.Now())
		client = next.Clients[len(next.Clients)-1]
		return next
	})
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	fmt.Printf("✓ Client created: %s (ID: %s)\n", client.Name, client.ID)
	if client.Email != "" {
		fmt.Printf("  Email: %s\n", client.Email)
	}
	if client.Birthday != nil {
		fmt.Printf("  Birthday: %s\n", client.Birthday.Format("2006-01-02"))
	}
	return nil
}

// ListClientsCommand prints the client roster.
func ListClientsCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("list-clients", flag.ExitOnError)
	query := fs.String("query", "", "Filter by name or email")
	status := fs.String("status", "", "Filter by status (active|lead)")
	_ = fs.Parse(args)

	clients := app.Orch.Collections().Clients

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tEMAIL\tPHONE\tPOLICIES\tSTATUS\tLAST CONTACT")

	shown := 0
	q := strings.ToLower(*query)
	for _, c := range clients {
		if *status != "" && c.Status != *status {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(c.Name), q) && !strings.Contains(strings.ToLower(c.Email), q) {
			continue
		}
		lastContact := "-"
		if c.LastContact != nil {
			lastContact = c.LastContact.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", c.Name, c.Email, c.Phone, c.TotalPolicies, c.Status, lastContact)
		shown++
	}
	w.Flush()

	fmt.Printf("\n%d client(s)\n", shown)
	return nil
}

// UpdateClientCommand updates fields on an existing client.
func UpdateClientCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("update-client", flag.ExitOnError)
	id := fs.String("id", "", "Client ID (required)")
	name := fs.String("name", "", "New name")
	email := fs.String("email", "", "New email")
	phone := fs.String("phone", "", "New phone")
	status := fs.String("status", "", "New status (active|lead)")
	_ = fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("--id is required")
	}
	clientID, err := uuid.Parse(*id)
	if err != nil {
		return fmt.Errorf("invalid client id: %w", err)
	}

	var found bool
	err = app.Orch.Apply(func(c state.Collections) state.Collections {
		for _, existing := range c.Clients {
			if existing.ID != clientID {
				continue
			}
			found = true
			if *name != "" {
				existing.Name = *name
			}
			if *email != "" {
				existing.Email = *email
			}
			if *phone != "" {
				existing.Phone = *phone
			}
			if *status != "" {
				existing.Status = *status
			}
			return state.UpdateClient(c, existing, time.Now())
		}
		return c
	})
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}
	if !found {
		return fmt.Errorf("client %s not found", *id)
	}

	fmt.Printf("✓ Client updated\n")
	return nil
}

// DeleteClientCommand removes a client. Their policies are kept.
func DeleteClientCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("delete-client", flag.ExitOnError)
	id := fs.String("id", "", "Client ID (required)")
	_ = fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("--id is required")
	}
	clientID, err := uuid.Parse(*id)
	if err != nil {
		return fmt.Errorf("invalid client id: %w", err)
	}

	err = app.Orch.Apply(func(c state.Collections) state.Collections {
		return state.DeleteClient(c, clientID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}

	fmt.Println("✓ Client deleted")
	return nil
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
