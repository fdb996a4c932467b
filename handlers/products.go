// ABOUTME: Product library MCP tool handlers
// ABOUTME: Implements add_product, list_products, and update_product tools
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/polsync/models"
	"github.com/harperreed/polsync/state"
	"github.com/harperreed/polsync/sync"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ProductHandlers struct {
	orch *sync.Orchestrator
}

func NewProductHandlers(orch *sync.Orchestrator) *ProductHandlers {
	return &ProductHandlers{orch: orch}
}

type AddProductInput struct {
	Name        string   `json:"name" jsonschema:"Product name (required, unique)"`
	Provider    string   `json:"provider,omitempty" jsonschema:"Insurance provider name"`
	Type        string   `json:"type" jsonschema:"Insurance type: life, medical, auto, property, critical_illness, savings, accident"`
	DefaultTags []string `json:"default_tags,omitempty" jsonschema:"Tags applied to policies that use this product"`
}

type ProductOutput struct {
	Name        string   `json:"name"`
	Provider    string   `json:"provider,omitempty"`
	Type        string   `json:"type"`
	DefaultTags []string `json:"default_tags,omitempty"`
}

func (h *ProductHandlers) AddProduct(_ context.Context, request *mcp.CallToolRequest, input AddProductInput) (*mcp.CallToolResult, ProductOutput, error) {
	if input.Name == "" {
		return nil, ProductOutput{}, fmt.Errorf("name is required")
	}

	product := models.Product{
		Name:        input.Name,
		Provider:    input.Provider,
		Type:        input.Type,
		DefaultTags: input.DefaultTags,
	}

	var addErr error
	err := h.orch.Apply(func(c state.Collections) state.Collections {
		next, err := state.AddProduct(c, product)
		if err != nil {
			addErr = err
			return c
		}
		return next
	})
	if err != nil {
		return nil, ProductOutput{}, fmt.Errorf("failed to add product: %w", err)
	}
	if addErr != nil {
		return nil, ProductOutput{}, addErr
	}

	return nil, ProductOutput(product), nil
}

type UpdateProductInput struct {
	OriginalName string   `json:"original_name" jsonschema:"Current product name (required); used to locate the product, so renames work"`
	Name         string   `json:"name,omitempty" jsonschema:"New product name"`
	Provider     string   `json:"provider,omitempty" jsonschema:"New provider name"`
	Type         string   `json:"type,omitempty" jsonschema:"New insurance type"`
	DefaultTags  []string `json:"default_tags,omitempty" jsonschema:"Replacement default tag set"`
}

func (h *ProductHandlers) UpdateProduct(_ context.Context, request *mcp.CallToolRequest, input UpdateProductInput) (*mcp.CallToolResult, ProductOutput, error) {
	if input.OriginalName == "" {
		return nil, ProductOutput{}, fmt.Errorf("original_name is required")
	}

	var existing models.Product
	found := false
	for _, p := range h.orch.Collections().Products {
		if p.Name == input.OriginalName {
			existing = p
			found = true
			break
		}
	}
	if !found {
		return nil, ProductOutput{}, fmt.Errorf("product %q not found", input.OriginalName)
	}

	if input.Name != "" {
		existing.Name = input.Name
	}
	if input.Provider != "" {
		existing.Provider = input.Provider
	}
	if input.Type != "" {
		existing.Type = input.Type
	}
	if input.DefaultTags != nil {
		existing.DefaultTags = input.DefaultTags
	}

	err := h.orch.Apply(func(c state.Collections) state.Collections {
		return state.UpdateProduct(c, input.OriginalName, existing)
	})
	if err != nil {
		return nil, ProductOutput{}, fmt.Errorf("failed to update product: %w", err)
	}

	return nil, ProductOutput(existing), nil
}

type ListProductsInput struct {
	Type string `json:"type,omitempty" jsonschema:"Filter by insurance type"`
}

type ListProductsOutput struct {
	Products []ProductOutput `json:"products"`
	Count    int             `json:"count"`
}

func (h *ProductHandlers) ListProducts(_ context.Context, request *mcp.CallToolRequest, input ListProductsInput) (*mcp.CallToolResult, ListProductsOutput, error) {
	var out []ProductOutput
	for _, p := range h.orch.Collections().Products {
		if input.Type != "" && p.Type != input.Type {
			continue
		}
		out = append(out, ProductOutput{Name: p.Name, Provider: p.Provider, Type: p.Type, DefaultTags: p.DefaultTags})
	}
	return nil, ListProductsOutput{Products: out, Count: len(out)}, nil
}
