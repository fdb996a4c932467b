// ABOUTME: Policy CLI commands
// ABOUTME: Human-friendly commands for managing policies and their riders
package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/polsync/extract"
	"github.com/harperreed/polsync/models"
	"github.com/harperreed/polsync/state"
)

// AddPolicyCommand adds a new policy, matching or creating its client.
func AddPolicyCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("add-policy", flag.ExitOnError)
	number := fs.String("number", "", "Policy number")
	plan := fs.String("plan", "", "Plan name (matched against the product library)")
	holder := fs.String("holder", "", "Holder name (required)")
	birthday := fs.String("birthday", "", "Holder birthday (YYYY-MM-DD)")
	ptype := fs.String("type", "", "Insurance type")
	anniversary := fs.String("anniversary", "", "Renewal date (MM-DD)")
	mode := fs.String("mode", models.PayYearly, "Payment mode (yearly|half_yearly|quarterly|monthly)")
	premium := fs.Float64("premium", 0, "Base premium amount")
	currency := fs.String("currency", "USD", "Premium currency")
	_ = fs.Parse(args)

	if *holder == "" {
		return fmt.Errorf("--holder is required")
	}

	policy := models.Policy{
		PolicyNumber:  *number,
		PlanName:      *plan,
		HolderName:    *holder,
		Type:          *ptype,
		PaymentMode:   *mode,
		PremiumAmount: *premium,
		Currency:      *currency,
	}
	if *birthday != "" {
		bd, err := time.Parse("2006-01-02", *birthday)
		if err != nil {
			return fmt.Errorf("invalid --birthday (want YYYY-MM-DD): %w", err)
		}
		policy.ClientBirthday = &bd
	}
	if *anniversary != "" {
		t, err := time.Parse("01-02", *anniversary)
		if err != nil {
			return fmt.Errorf("invalid --anniversary (want MM-DD): %w", err)
		}
		policy.Anniversary = models.Anniversary{Day: t.Day(), Month: int(t.Month())}
	}

	err := app.Orch.Apply(func(c state.Collections) state.Collections {
		next := state.AddPolicy(c, policy, time.Now())
		policy = next.Policies[0]
		return next
	})
	if err != nil {
		return fmt.Errorf("failed to create policy: %w", err)
	}

	fmt.Printf("✓ Policy created: %s (ID: %s)\n", displayName(policy), policy.ID)
	fmt.Printf("  Holder: %s\n", policy.HolderName)
	if policy.Type != "" {
		fmt.Printf("  Type: %s\n", policy.Type)
	}
	fmt.Printf("  Total premium: %.2f %s\n", policy.TotalPremium(), policy.Currency)
	return nil
}

// ListPoliciesCommand prints the policy book.
func ListPoliciesCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("list-policies", flag.ExitOnError)
	query := fs.String("query", "", "Filter by holder, plan, or number")
	ptype := fs.String("type", "", "Filter by insurance type")
	_ = fs.Parse(args)

	policies := app.Orch.Collections().Policies

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NUMBER\tPLAN\tHOLDER\tTYPE\tPREMIUM\tMODE\tSTATUS")

	shown := 0
	q := strings.ToLower(*query)
	for _, p := range policies {
		if *ptype != "" && p.Type != *ptype {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(p.HolderName), q) &&
			!strings.Contains(strings.ToLower(p.PlanName), q) &&
			!strings.Contains(strings.ToLower(p.PolicyNumber), q) {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f %s\t%s\t%s\n",
			p.PolicyNumber, p.PlanName, p.HolderName, p.Type, p.TotalPremium(), p.Currency, p.PaymentMode, p.Status)
		shown++
	}
	w.Flush()

	fmt.Printf("\n%d policy(ies)\n", shown)
	return nil
}

// DeletePolicyCommand removes a policy and recounts the owner's total.
func DeletePolicyCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("delete-policy", flag.ExitOnError)
	id := fs.String("id", "", "Policy ID (required)")
	_ = fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("--id is required")
	}
	policyID, err := uuid.Parse(*id)
	if err != nil {
		return fmt.Errorf("invalid policy id: %w", err)
	}

	err = app.Orch.Apply(func(c state.Collections) state.Collections {
		return state.DeletePolicy(c, policyID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete policy: %w", err)
	}

	fmt.Println("✓ Policy deleted")
	return nil
}

// ExtractPolicyCommand runs the document extraction flow on a text file
// and adds the resulting draft policy.
func ExtractPolicyCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("extract-policy", flag.ExitOnError)
	file := fs.String("file", "", "Path to the policy document text (required)")
	dryRun := fs.Bool("dry-run", false, "Show the extracted draft without saving")
	_ = fs.Parse(args)

	if *file == "" {
		return fmt.Errorf("--file is required")
	}

	doc, err := os.ReadFile(*file)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	policy, err := extract.Extract(string(doc))
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	if policy.HolderName == "" {
		return fmt.Errorf("extraction found no policy holder in %s", *file)
	}

	fmt.Printf("Extracted draft:\n")
	fmt.Printf("  Number: %s\n  Plan: %s\n  Holder: %s\n  Type: %s\n  Premium: %.2f %s\n",
		policy.PolicyNumber, policy.PlanName, policy.HolderName, policy.Type, policy.PremiumAmount, policy.Currency)

	if *dryRun {
		return nil
	}

	err = app.Orch.Apply(func(c state.Collections) state.Collections {
		return state.AddPolicy(c, policy, time.Now())
	})
	if err != nil {
		return fmt.Errorf("failed to save extracted policy: %w", err)
	}

	fmt.Println("✓ Policy added from document")
	return nil
}

func displayName(p models.Policy) string {
	if p.PlanName != "" {
		return p.PlanName
	}
	if p.PolicyNumber != "" {
		return p.PolicyNumber
	}
	return "policy"
}
