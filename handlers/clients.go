// ABOUTME: Client MCP tool handlers
// ABOUTME: Implements add_client, find_clients, and update_client tools
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/polsync/models"
	"github.com/harperreed/polsync/state"
	"github.com/harperreed/polsync/sync"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ClientHandlers struct {
	orch *sync.Orchestrator
}

func NewClientHandlers(orch *sync.Orchestrator) *ClientHandlers {
	return &ClientHandlers{orch: orch}
}

type AddClientInput struct {
	Name     string   `json:"name" jsonschema:"Client name (required)"`
	Email    string   `json:"email,omitempty" jsonschema:"Client email address"`
	Phone    string   `json:"phone,omitempty" jsonschema:"Client phone number"`
	Birthday string   `json:"birthday,omitempty" jsonschema:"Birthday in YYYY-MM-DD format"`
	Tags     []string `json:"tags,omitempty" jsonschema:"Free-form tags"`
}

type ClientOutput struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Email         string   `json:"email,omitempty"`
	Phone         string   `json:"phone,omitempty"`
	Birthday      string   `json:"birthday,omitempty"`
	TotalPolicies int      `json:"total_policies"`
	LastContact   string   `json:"last_contact,omitempty"`
	Status        string   `json:"status"`
	Tags          []string `json:"tags,omitempty"`
}

func (h *ClientHandlers) AddClient(_ context.Context, request *mcp.CallToolRequest, input AddClientInput) (*mcp.CallToolResult, ClientOutput, error) {
	if input.Name == "" {
		return nil, ClientOutput{}, fmt.Errorf("name is required")
	}

	client := models.Client{
		Name:  input.Name,
		Email: input.Email,
		Phone: input.Phone,
		Tags:  input.Tags,
	}
	if input.Birthday != "" {
		bd, err := time.Parse("2006-01-02", input.Birthday)
		if err != nil {
			return nil, ClientOutput{}, fmt.Errorf("invalid birthday (want YYYY-MM-DD): %w", err)
		}
		client.Birthday = &bd
	}

	var created models.Client
	err := h.orch.Apply(func(c state.Collections) state.Collections {
		c = state.AddClient(c, client, time.Now())
		created = c.Clients[len(c.Clients)-1]
		return c
	})
	if err != nil {
		return nil, ClientOutput{}, fmt.Errorf("failed to add client: %w", err)
	}

	return nil, clientToOutput(created), nil
}

type FindClientsInput struct {
	Query string `json:"query,omitempty" jsonschema:"Search query (matches name and email)"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 10)"`
}

type FindClientsOutput struct {
	Clients []ClientOutput `json:"clients"`
	Count   int            `json:"count"`
}

func (h *ClientHandlers) FindClients(_ context.Context, request *mcp.CallToolRequest, input FindClientsInput) (*mcp.CallToolResult, FindClientsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	query := strings.ToLower(input.Query)
	var out []ClientOutput
	for _, c := range h.orch.Collections().Clients {
		if query != "" &&
			!strings.Contains(strings.ToLower(c.Name), query) &&
			!strings.Contains(strings.ToLower(c.Email), query) {
			continue
		}
		out = append(out, clientToOutput(c))
		if len(out) >= limit {
			break
		}
	}

	return nil, FindClientsOutput{Clients: out, Count: len(out)}, nil
}

type UpdateClientInput struct {
	ID       string   `json:"id" jsonschema:"Client ID (required)"`
	Name     string   `json:"name,omitempty" jsonschema:"New name"`
	Email    string   `json:"email,omitempty" jsonschema:"New email"`
	Phone    string   `json:"phone,omitempty" jsonschema:"New phone"`
	Birthday string   `json:"birthday,omitempty" jsonschema:"New birthday in YYYY-MM-DD format"`
	Status   string   `json:"status,omitempty" jsonschema:"Lifecycle status: active or lead"`
	Tags     []string `json:"tags,omitempty" jsonschema:"Replacement tag set"`
}

func (h *ClientHandlers) UpdateClient(_ context.Context, request *mcp.CallToolRequest, input UpdateClientInput) (*mcp.CallToolResult, ClientOutput, error) {
	id, err := uuid.Parse(input.ID)
	if err != nil {
		return nil, ClientOutput{}, fmt.Errorf("invalid client id: %w", err)
	}

	existing, ok := findClient(h.orch.Collections().Clients, id)
	if !ok {
		return nil, ClientOutput{}, fmt.Errorf("client %s not found", input.ID)
	}

	if input.Name != "" {
		existing.Name = input.Name
	}
	if input.Email != "" {
		existing.Email = input.Email
	}
	if input.Phone != "" {
		existing.Phone = input.Phone
	}
	if input.Status != "" {
		existing.Status = input.Status
	}
	if input.Tags != nil {
		existing.Tags = input.Tags
	}
	if input.Birthday != "" {
		bd, err := time.Parse("2006-01-02", input.Birthday)
		if err != nil {
			return nil, ClientOutput{}, fmt.Errorf("invalid birthday (want YYYY-MM-DD): %w", err)
		}
		existing.Birthday = &bd
	}

	err = h.orch.Apply(func(c state.Collections) state.Collections {
		return state.UpdateClient(c, existing, time.Now())
	})
	if err != nil {
		return nil, ClientOutput{}, fmt.Errorf("failed to update client: %w", err)
	}

	updated, _ := findClient(h.orch.Collections().Clients, id)
	return nil, clientToOutput(updated), nil
}

func findClient(clients []models.Client, id uuid.UUID) (models.Client, bool) {
	for _, c := range clients {
		if c.ID == id {
			return c, true
		}
	}
	return models.Client{}, false
}

func clientToOutput(c models.Client) ClientOutput {
	out := ClientOutput{
		ID:            c.ID.String(),
		Name:          c.Name,
		Email:         c.Email,
		Phone:         c.Phone,
		TotalPolicies: c.TotalPolicies,
		Status:        c.Status,
		Tags:          c.Tags,
	}
	if c.Birthday != nil {
		out.Birthday = c.Birthday.Format("2006-01-02")
	}
	if c.LastContact != nil {
		out.LastContact = c.LastContact.Format("2006-01-02")
	}
	return out
}
