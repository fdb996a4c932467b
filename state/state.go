// ABOUTME: Entity mutation layer for clients, policies, and products
// ABOUTME: Pure functions that apply edits and recompute cross-entity aggregates
package state

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/polsync/models"
)

// Collections is the full in-memory dataset: the three entity
// collections that get persisted together.
type Collections struct {
	Clients  []models.Client  `json:"clients"`
	Policies []models.Policy  `json:"policies"`
	Products []models.Product `json:"products"`
}

// Clone returns a deep-enough copy: the slices are fresh so mutations on
// the copy never alias the original.
func (c Collections) Clone() Collections {
	out := Collections{
		Clients:  make([]models.Client, len(c.Clients)),
		Policies: make([]models.Policy, len(c.Policies)),
		Products: make([]models.Product, len(c.Products)),
	}
	copy(out.Clients, c.Clients)
	copy(out.Policies, c.Policies)
	copy(out.Products, c.Products)
	return out
}

// AddPolicy prepends a policy, resolves its product, and finds or creates
// the owning client. A matching client (same name, and same birthday when
// both sides have one) gets its last-contact refreshed, its birthday
// backfilled, and the policy's tags unioned in. With no match, a new Lead
// client is synthesized with placeholder contact fields.
func AddPolicy(c Collections, policy models.Policy, now time.Time) Collections {
	c = c.Clone()

	if policy.ID == uuid.Nil {
		policy.ID = uuid.New()
	}
	policy.CreatedAt = now
	policy.UpdatedAt = now
	if policy.Status == "" {
		policy.Status = models.PolicyStatusActive
	}

	policy = resolveProduct(c.Products, policy)

	idx := findClientForPolicy(c.Clients, policy)
	if idx >= 0 {
		client := &c.Clients[idx]
		client.LastContact = &now
		client.UpdatedAt = now
		if client.Birthday == nil && policy.ClientBirthday != nil {
			bd := *policy.ClientBirthday
			client.Birthday = &bd
		}
		client.Tags = unionTags(client.Tags, policy.Tags)
		policy.ClientID = client.ID
	} else {
		client := models.Client{
			ID:          uuid.New(),
			Name:        policy.HolderName,
			Birthday:    policy.ClientBirthday,
			LastContact: &now,
			Status:      models.ClientStatusLead,
			Tags:        unionTags(nil, policy.Tags),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		c.Clients = append(c.Clients, client)
		policy.ClientID = client.ID
	}

	c.Policies = append([]models.Policy{policy}, c.Policies...)
	recountPolicies(&c)
	return c
}

// UpdatePolicy replaces the policy with the same ID. Unknown IDs are a
// no-op. The client linkage is preserved from the stored policy.
func UpdatePolicy(c Collections, policy models.Policy, now time.Time) Collections {
	c = c.Clone()
	for i := range c.Policies {
		if c.Policies[i].ID == policy.ID {
			policy.ClientID = c.Policies[i].ClientID
			policy.CreatedAt = c.Policies[i].CreatedAt
			policy.UpdatedAt = now
			c.Policies[i] = policy
			break
		}
	}
	recountPolicies(&c)
	return c
}

// DeletePolicy removes the policy with the given ID and recounts the
// owning client's policy total.
func DeletePolicy(c Collections, id uuid.UUID) Collections {
	c = c.Clone()
	kept := c.Policies[:0]
	for _, p := range c.Policies {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	c.Policies = kept
	recountPolicies(&c)
	return c
}

// AddClient inserts a client, assigning an ID when absent.
func AddClient(c Collections, client models.Client, now time.Time) Collections {
	c = c.Clone()
	if client.ID == uuid.Nil {
		client.ID = uuid.New()
	}
	if client.Status == "" {
		client.Status = models.ClientStatusActive
	}
	client.CreatedAt = now
	client.UpdatedAt = now
	c.Clients = append(c.Clients, client)
	return c
}

// UpdateClient replaces the client with the same ID. Unknown IDs are a no-op.
func UpdateClient(c Collections, client models.Client, now time.Time) Collections {
	c = c.Clone()
	for i := range c.Clients {
		if c.Clients[i].ID == client.ID {
			client.CreatedAt = c.Clients[i].CreatedAt
			client.TotalPolicies = c.Clients[i].TotalPolicies
			client.UpdatedAt = now
			c.Clients[i] = client
			break
		}
	}
	return c
}

// DeleteClient removes the client with the given ID. Its policies are
// kept; they simply no longer resolve to a client.
func DeleteClient(c Collections, id uuid.UUID) Collections {
	c = c.Clone()
	kept := c.Clients[:0]
	for _, cl := range c.Clients {
		if cl.ID != id {
			kept = append(kept, cl)
		}
	}
	c.Clients = kept
	return c
}

// AddProduct inserts a catalog entry. Product names are the unique key,
// so a duplicate name is rejected.
func AddProduct(c Collections, product models.Product) (Collections, error) {
	for _, p := range c.Products {
		if p.Name == product.Name {
			return c, fmt.Errorf("product %q already exists", product.Name)
		}
	}
	c = c.Clone()
	c.Products = append(c.Products, product)
	return c, nil
}

// UpdateProduct replaces the product matching originalName, which
// supports renames. Unknown names are a no-op.
func UpdateProduct(c Collections, originalName string, product models.Product) Collections {
	c = c.Clone()
	for i := range c.Products {
		if c.Products[i].Name == originalName {
			c.Products[i] = product
			break
		}
	}
	return c
}

// DeleteProduct removes the catalog entry with the given name.
func DeleteProduct(c Collections, name string) Collections {
	c = c.Clone()
	kept := c.Products[:0]
	for _, p := range c.Products {
		if p.Name != name {
			kept = append(kept, p)
		}
	}
	c.Products = kept
	return c
}

// resolveProduct applies the product library to a new policy: when the
// plan name matches a catalog entry, the policy inherits the product's
// insurance type and default tags.
func resolveProduct(products []models.Product, policy models.Policy) models.Policy {
	for _, p := range products {
		if p.Name == policy.PlanName {
			if p.Type != "" {
				policy.Type = p.Type
			}
			policy.Tags = unionTags(policy.Tags, p.DefaultTags)
			return policy
		}
	}
	return policy
}

// findClientForPolicy matches by exact holder name; when both the client
// and the policy carry a birthday, those must match too.
func findClientForPolicy(clients []models.Client, policy models.Policy) int {
	for i, cl := range clients {
		if cl.Name != policy.HolderName {
			continue
		}
		if cl.Birthday != nil && policy.ClientBirthday != nil && !sameDate(*cl.Birthday, *policy.ClientBirthday) {
			continue
		}
		return i
	}
	return -1
}

// recountPolicies is the single authoritative aggregation for the
// denormalized TotalPolicies counter: every client's count is recomputed
// from the policy set after each policy mutation.
func recountPolicies(c *Collections) {
	counts := make(map[uuid.UUID]int, len(c.Clients))
	for _, p := range c.Policies {
		counts[p.ClientID]++
	}
	for i := range c.Clients {
		c.Clients[i].TotalPolicies = counts[c.Clients[i].ID]
	}
}

func unionTags(existing, extra []string) []string {
	if len(extra) == 0 {
		return existing
	}
	seen := make(map[string]bool, len(existing))
	out := make([]string, 0, len(existing)+len(extra))
	for _, t := range existing {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	for _, t := range extra {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
