// ABOUTME: MCP server subcommand
// ABOUTME: Exposes CRM tools over stdio for assistant integration
package cli

import (
	"context"
	"log"

	"github.com/harperreed/polsync/handlers"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPCommand starts the MCP server on stdio
func MCPCommand(app *App) error {
	log.Println("Starting polsync MCP server...")

	clientHandlers := handlers.NewClientHandlers(app.Orch)
	policyHandlers := handlers.NewPolicyHandlers(app.Orch)
	productHandlers := handlers.NewProductHandlers(app.Orch)
	reminderHandlers := handlers.NewReminderHandlers(app.Orch)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "polsync",
		Version: "0.1.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_client",
		Description: "Add a new client to the CRM",
	}, clientHandlers.AddClient)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_clients",
		Description: "Search for clients by name or email",
	}, clientHandlers.FindClients)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_client",
		Description: "Update an existing client's information",
	}, clientHandlers.UpdateClient)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_policy",
		Description: "Add an insurance policy, matching or creating its holder as a client",
	}, policyHandlers.AddPolicy)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_policies",
		Description: "Search policies by holder, plan name, number, or type",
	}, policyHandlers.FindPolicies)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_policy",
		Description: "Update an existing policy's details",
	}, policyHandlers.UpdatePolicy)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_policy",
		Description: "Delete a policy and update the owner's policy count",
	}, policyHandlers.DeletePolicy)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_product",
		Description: "Add a product to the insurance product library",
	}, productHandlers.AddProduct)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_products",
		Description: "List the insurance product library",
	}, productHandlers.ListProducts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_product",
		Description: "Update or rename a product in the library",
	}, productHandlers.UpdateProduct)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "upcoming_reminders",
		Description: "List upcoming policy renewals and client birthdays",
	}, reminderHandlers.UpcomingReminders)

	ctx := context.Background()
	return server.Run(ctx, &mcp.StdioTransport{})
}
