// ABOUTME: Policy MCP tool handlers
// ABOUTME: Implements add_policy, find_policies, update_policy, and delete_policy tools
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

type PolicyHandlers struct {
	orch *sync.Orchestrator
}

func NewPolicyHandlers(orch *sync.Orchestrator) *PolicyHandlers {
	return &PolicyHandlers{orch: orch}
}

type RiderInput struct {
	Name    string  `json:"name" jsonschema:"Rider name"`
	Premium float64 `json:"premium" jsonschema:"Rider premium amount"`
}

type AddPolicyInput struct {
	PolicyNumber   string       `json:"policy_number,omitempty" jsonschema:"Policy number"`
	PlanName       string       `json:"plan_name,omitempty" jsonschema:"Plan name (matched against the product library)"`
	HolderName     string       `json:"holder_name" jsonschema:"Policy holder name (required); matched to an existing client or a new lead is created"`
	HolderBirthday string       `json:"holder_birthday,omitempty" jsonschema:"Holder birthday in YYYY-MM-DD format"`
	Type           string       `json:"type,omitempty" jsonschema:"Insurance type: life, medical, auto, property, critical_illness, savings, accident"`
	AnniversaryDay int          `json:"anniversary_day,omitempty" jsonschema:"Renewal day of month (1-31)"`
	AnniversaryMon int          `json:"anniversary_month,omitempty" jsonschema:"Renewal month (1-12)"`
	PaymentMode    string       `json:"payment_mode,omitempty" jsonschema:"Payment mode: yearly, half_yearly, quarterly, monthly"`
	PremiumAmount  float64      `json:"premium_amount,omitempty" jsonschema:"Base premium amount"`
	Currency       string       `json:"currency,omitempty" jsonschema:"Premium currency code"`
	Riders         []RiderInput `json:"riders,omitempty" jsonschema:"Attached riders"`
}

type PolicyOutput struct {
	ID            string   `json:"id"`
	PolicyNumber  string   `json:"policy_number,omitempty"`
	PlanName      string   `json:"plan_name,omitempty"`
	HolderName    string   `json:"holder_name"`
	ClientID      string   `json:"client_id,omitempty"`
	Type          string   `json:"type,omitempty"`
	PaymentMode   string   `json:"payment_mode,omitempty"`
	PremiumAmount float64  `json:"premium_amount"`
	TotalPremium  float64  `json:"total_premium"`
	Currency      string   `json:"currency,omitempty"`
	Status        string   `json:"status"`
	Tags          []string `json:"tags,omitempty"`
}

func (h *PolicyHandlers) AddPolicy(_ context.Context, request *mcp.CallToolRequest, input AddPolicyInput) (*mcp.CallToolResult, PolicyOutput, error) {
	if input.HolderName == "" {
		return nil, PolicyOutput{}, fmt.Errorf("holder_name is required")
	}

	policy := models.Policy{
		PolicyNumber:  input.PolicyNumber,
		PlanName:      input.PlanName,
		HolderName:    input.HolderName,
		Type:          input.Type,
		PaymentMode:   input.PaymentMode,
		PremiumAmount: input.PremiumAmount,
		Currency:      input.Currency,
		Anniversary:   models.Anniversary{Day: input.AnniversaryDay, Month: input.AnniversaryMon},
	}
	if input.HolderBirthday != "" {
		bd, err := time.Parse("2006-01-02", input.HolderBirthday)
		if err != nil {
			return nil, PolicyOutput{}, fmt.Errorf("invalid holder_birthday (want YYYY-MM-DD): %w", err)
		}
		policy.ClientBirthday = &bd
	}
	for _, r := range input.Riders {
		policy.Riders = append(policy.Riders, models.Rider{Name: r.Name, Premium: r.Premium})
	}

	var created models.Policy
	err := h.orch.Apply(func(c state.Collections) state.Collections {
		c = state.AddPolicy(c, policy, time.Now())
		created = c.Policies[0]
		return c
	})
	if err != nil {
		return nil, PolicyOutput{}, fmt.Errorf("failed to add policy: %w", err)
	}

	return nil, policyToOutput(created), nil
}

type FindPoliciesInput struct {
	Query string `json:"query,omitempty" jsonschema:"Search query (matches holder name, plan name, and policy number)"`
	Type  string `json:"type,omitempty" jsonschema:"Filter by insurance type"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 10)"`
}

type FindPoliciesOutput struct {
	Policies []PolicyOutput `json:"policies"`
	Count    int            `json:"count"`
}

func (h *PolicyHandlers) FindPolicies(_ context.Context, request *mcp.CallToolRequest, input FindPoliciesInput) (*mcp.CallToolResult, FindPoliciesOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	query := strings.ToLower(input.Query)
	var out []PolicyOutput
	for _, p := range h.orch.Collections().Policies {
		if input.Type != "" && p.Type != input.Type {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(p.HolderName), query) &&
			!strings.Contains(strings.ToLower(p.PlanName), query) &&
			!strings.Contains(strings.ToLower(p.PolicyNumber), query) {
			continue
		}
		out = append(out, policyToOutput(p))
		if len(out) >= limit {
			break
		}
	}

	return nil, FindPoliciesOutput{Policies: out, Count: len(out)}, nil
}

type UpdatePolicyInput struct {
	ID            string  `json:"id" jsonschema:"Policy ID (required)"`
	PolicyNumber  string  `json:"policy_number,omitempty" jsonschema:"New policy number"`
	PlanName      string  `json:"plan_name,omitempty" jsonschema:"New plan name"`
	Type          string  `json:"type,omitempty" jsonschema:"New insurance type"`
	PaymentMode   string  `json:"payment_mode,omitempty" jsonschema:"New payment mode"`
	PremiumAmount float64 `json:"premium_amount,omitempty" jsonschema:"New base premium amount"`
	Status        string  `json:"status,omitempty" jsonschema:"Lifecycle status: active, pending, or expired"`
}

func (h *PolicyHandlers) UpdatePolicy(_ context.Context, request *mcp.CallToolRequest, input UpdatePolicyInput) (*mcp.CallToolResult, PolicyOutput, error) {
	id, err := uuid.Parse(input.ID)
	if err != nil {
		return nil, PolicyOutput{}, fmt.Errorf("invalid policy id: %w", err)
	}

	existing, ok := findPolicy(h.orch.Collections().Policies, id)
	if !ok {
		return nil, PolicyOutput{}, fmt.Errorf("policy %s not found", input.ID)
	}

	if input.PolicyNumber != "" {
		existing.PolicyNumber = input.PolicyNumber
	}
	if input.PlanName != "" {
		existing.PlanName = input.PlanName
	}
	if input.Type != "" {
		existing.Type = input.Type
	}
	if input.PaymentMode != "" {
		existing.PaymentMode = input.PaymentMode
	}
	if input.PremiumAmount > 0 {
		existing.PremiumAmount = input.PremiumAmount
	}
	if input.Status != "" {
		existing.Status = input.Status
	}

	err = h.orch.Apply(func(c state.Collections) state.Collections {
		return state.UpdatePolicy(c, existing, time.Now())
	})
	if err != nil {
		return nil, PolicyOutput{}, fmt.Errorf("failed to update policy: %w", err)
	}

	updated, _ := findPolicy(h.orch.Collections().Policies, id)
	return nil, policyToOutput(updated), nil
}

type DeletePolicyInput struct {
	ID string `json:"id" jsonschema:"Policy ID (required)"`
}

type DeletePolicyOutput struct {
	Deleted bool `json:"deleted"`
}

func (h *PolicyHandlers) DeletePolicy(_ context.Context, request *mcp.CallToolRequest, input DeletePolicyInput) (*mcp.CallToolResult, DeletePolicyOutput, error) {
	id, err := uuid.Parse(input.ID)
	if err != nil {
		return nil, DeletePolicyOutput{}, fmt.Errorf("invalid policy id: %w", err)
	}

	err = h.orch.Apply(func(c state.Collections) state.Collections {
		return state.DeletePolicy(c, id)
	})
	if err != nil {
		return nil, DeletePolicyOutput{}, fmt.Errorf("failed to delete policy: %w", err)
	}

	return nil, DeletePolicyOutput{Deleted: true}, nil
}

func findPolicy(policies []models.Policy, id uuid.UUID) (models.Policy, bool) {
	for _, p := range policies {
		if p.ID == id {
			return p, true
		}
	}
	return models.Policy{}, false
}

func policyToOutput(p models.Policy) PolicyOutput {
	out := PolicyOutput{
		ID:            p.ID.String(),
		PolicyNumber:  p.PolicyNumber,
		PlanName:      p.PlanName,
		HolderName:    p.HolderName,
		Type:          p.Type,
		PaymentMode:   p.PaymentMode,
		PremiumAmount: p.PremiumAmount,
		TotalPremium:  p.TotalPremium(),
		Currency:      p.Currency,
		Status:        p.Status,
		Tags:          p.Tags,
	}
	if p.ClientID != uuid.Nil {
		out.ClientID = p.ClientID.String()
	}
	return out
}
