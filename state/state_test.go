// ABOUTME: Unit tests for the entity mutation layer
// ABOUTME: Covers client find-or-create, policy counting, and product resolution
package state

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/polsync/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddPolicyMatchesExistingClient(t *testing.T) {
	now := date(2026, time.March, 15)
	bd := date(1990, time.January, 1)

	c := AddClient(Collections{}, models.Client{Name: "Alice", Birthday: &bd}, now)

	c = AddPolicy(c, models.Policy{
		HolderName:    "Alice",
		PremiumAmount: 1200,
		PaymentMode:   models.PayYearly,
	}, now)

	if len(c.Clients) != 1 {
		t.Fatalf("expected 1 client, got %d", len(c.Clients))
	}
	alice := c.Clients[0]
	if alice.TotalPolicies != 1 {
		t.Errorf("expected TotalPolicies 1, got %d", alice.TotalPolicies)
	}
	if alice.LastContact == nil || !alice.LastContact.Equal(now) {
		t.Errorf("expected LastContact %v, got %v", now, alice.LastContact)
	}
	if len(c.Policies) != 1 {
		t.Fatalf("expected 1 policy, got %d", len(c.Policies))
	}
	if c.Policies[0].ClientID != alice.ID {
		t.Error("policy not linked to existing client")
	}
}

func TestAddPolicyCreatesLeadClient(t *testing.T) {
	now := date(2026, time.March, 15)

	c := AddPolicy(Collections{}, models.Policy{
		HolderName:    "Bob",
		PremiumAmount: 500,
	}, now)

	if len(c.Clients) != 1 {
		t.Fatalf("expected 1 synthesized client, got %d", len(c.Clients))
	}
	bob := c.Clients[0]
	if bob.Status != models.ClientStatusLead {
		t.Errorf("expected status lead, got %s", bob.Status)
	}
	if bob.Name != "Bob" {
		t.Errorf("expected name Bob, got %s", bob.Name)
	}
	if bob.TotalPolicies != 1 {
		t.Errorf("expected TotalPolicies 1, got %d", bob.TotalPolicies)
	}
}

func TestAddPolicyBirthdayMismatchCreatesNewClient(t *testing.T) {
	now := date(2026, time.March, 15)
	bd1 := date(1990, time.January, 1)
	bd2 := date(1985, time.June, 2)

	c := AddClient(Collections{}, models.Client{Name: "Alice", Birthday: &bd1}, now)
	c = AddPolicy(c, models.Policy{HolderName: "Alice", ClientBirthday: &bd2}, now)

	if len(c.Clients) != 2 {
		t.Fatalf("expected 2 clients after birthday mismatch, got %d", len(c.Clients))
	}
}

func TestAddPolicyBackfillsBirthday(t *testing.T) {
	now := date(2026, time.March, 15)
	bd := date(1990, time.January, 1)

	c := AddClient(Collections{}, models.Client{Name: "Alice"}, now)
	c = AddPolicy(c, models.Policy{HolderName: "Alice", ClientBirthday: &bd}, now)

	if len(c.Clients) != 1 {
		t.Fatalf("expected 1 client, got %d", len(c.Clients))
	}
	if c.Clients[0].Birthday == nil || !c.Clients[0].Birthday.Equal(bd) {
		t.Errorf("expected birthday backfilled to %v, got %v", bd, c.Clients[0].Birthday)
	}
}

func TestDeletePolicyDecrementsCount(t *testing.T) {
	now := date(2026, time.March, 15)

	c := AddPolicy(Collections{}, models.Policy{HolderName: "Alice"}, now)
	c = AddPolicy(c, models.Policy{HolderName: "Alice"}, now)
	if c.Clients[0].TotalPolicies != 2 {
		t.Fatalf("expected 2 policies counted, got %d", c.Clients[0].TotalPolicies)
	}

	c = DeletePolicy(c, c.Policies[0].ID)
	if c.Clients[0].TotalPolicies != 1 {
		t.Errorf("expected 1 after delete, got %d", c.Clients[0].TotalPolicies)
	}

	c = DeletePolicy(c, c.Policies[0].ID)
	if c.Clients[0].TotalPolicies != 0 {
		t.Errorf("expected 0 after deleting all, got %d", c.Clients[0].TotalPolicies)
	}

	// Deleting an unknown ID from a client at zero stays at zero.
	c = DeletePolicy(c, uuid.New())
	if c.Clients[0].TotalPolicies != 0 {
		t.Errorf("expected count floored at 0, got %d", c.Clients[0].TotalPolicies)
	}
}

func TestAddPolicyResolvesProduct(t *testing.T) {
	now := date(2026, time.March, 15)

	c, err := AddProduct(Collections{}, models.Product{
		Name:        "CEO Medical Plan",
		Type:        models.TypeMedical,
		DefaultTags: []string{"vip", "medical"},
	})
	if err != nil {
		t.Fatalf("AddProduct failed: %v", err)
	}

	c = AddPolicy(c, models.Policy{HolderName: "Carol", PlanName: "CEO Medical Plan"}, now)

	p := c.Policies[0]
	if p.Type != models.TypeMedical {
		t.Errorf("expected type resolved to medical, got %s", p.Type)
	}
	tags := map[string]bool{}
	for _, tag := range p.Tags {
		tags[tag] = true
	}
	if !tags["vip"] || !tags["medical"] {
		t.Errorf("expected product default tags on policy, got %v", p.Tags)
	}
	if len(c.Products) != 1 {
		t.Errorf("expected no duplicate product, got %d", len(c.Products))
	}
}

func TestAddProductRejectsDuplicateName(t *testing.T) {
	c, err := AddProduct(Collections{}, models.Product{Name: "Term Life 20"})
	if err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	if _, err := AddProduct(c, models.Product{Name: "Term Life 20"}); err == nil {
		t.Error("expected duplicate product name to be rejected")
	}
}

func TestUpdateProductSupportsRename(t *testing.T) {
	c, _ := AddProduct(Collections{}, models.Product{Name: "Old Name", Type: models.TypeLife})
	c = UpdateProduct(c, "Old Name", models.Product{Name: "New Name", Type: models.TypeLife})

	if len(c.Products) != 1 || c.Products[0].Name != "New Name" {
		t.Errorf("expected rename to New Name, got %+v", c.Products)
	}
}

func TestUpdatePolicyPreservesLinkage(t *testing.T) {
	now := date(2026, time.March, 15)

	c := AddPolicy(Collections{}, models.Policy{HolderName: "Alice", PremiumAmount: 100}, now)
	orig := c.Policies[0]

	updated := orig
	updated.PremiumAmount = 250
	updated.ClientID = uuid.Nil // caller does not have to know the linkage

	c = UpdatePolicy(c, updated, now.AddDate(0, 0, 1))
	if c.Policies[0].PremiumAmount != 250 {
		t.Errorf("expected premium 250, got %v", c.Policies[0].PremiumAmount)
	}
	if c.Policies[0].ClientID != orig.ClientID {
		t.Error("expected client linkage preserved across update")
	}
}

func TestTotalPremiumIncludesRiders(t *testing.T) {
	p := models.Policy{
		PremiumAmount: 1000,
		Riders: []models.Rider{
			{Name: "Waiver", Premium: 50},
			{Name: "Accident", Premium: 25.5},
		},
	}
	if got := p.TotalPremium(); got != 1075.5 {
		t.Errorf("expected 1075.5, got %v", got)
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	now := date(2026, time.March, 15)
	c := AddClient(Collections{}, models.Client{Name: "Alice"}, now)

	clone := c.Clone()
	clone.Clients[0].Name = "Mallory"

	if c.Clients[0].Name != "Alice" {
		t.Error("clone mutation leaked into original")
	}
}
