// ABOUTME: Wholesale-replace persistence and binary export/import
// ABOUTME: Serializes the full dataset into the SQLite file the Drive backend ships around
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/polsync/models"
)

// OrphanClientID marks a policy whose client could not be resolved at
// save time. Such policies are kept, never rejected.
const OrphanClientID = "orphaned"

// SaveFullState replaces the entire contents of both tables with the
// given collections inside one transaction. On any failure everything is
// rolled back.
func SaveFullState(db *DB, clients []models.Client, policies []models.Policy) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // Safe even after commit
	}()

	if _, err := tx.Exec(`DELETE FROM policies`); err != nil {
		return fmt.Errorf("failed to clear policies: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM clients`); err != nil {
		return fmt.Errorf("failed to clear clients: %w", err)
	}

	known := make(map[uuid.UUID]bool, len(clients))
	for _, c := range clients {
		known[c.ID] = true

		tags, err := json.Marshal(tagsOrEmpty(c.Tags))
		if err != nil {
			return fmt.Errorf("failed to encode client tags: %w", err)
		}

		_, err = tx.Exec(`
			INSERT INTO clients (id, name, email, phone, birthday, total_policies, last_contact, status, tags, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, c.ID.String(), c.Name, c.Email, c.Phone, c.Birthday, c.TotalPolicies, c.LastContact, c.Status, string(tags), c.CreatedAt, c.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert client %s: %w", c.Name, err)
		}
	}

	for _, p := range policies {
		clientID := OrphanClientID
		if p.ClientID != uuid.Nil && known[p.ClientID] {
			clientID = p.ClientID.String()
		}

		tags, err := json.Marshal(tagsOrEmpty(p.Tags))
		if err != nil {
			return fmt.Errorf("failed to encode policy tags: %w", err)
		}
		riders, err := json.Marshal(ridersOrEmpty(p.Riders))
		if err != nil {
			return fmt.Errorf("failed to encode riders: %w", err)
		}
		var specifics *string
		if p.Specifics != nil {
			data, err := json.Marshal(p.Specifics)
			if err != nil {
				return fmt.Errorf("failed to encode specifics: %w", err)
			}
			s := string(data)
			specifics = &s
		}

		_, err = tx.Exec(`
			INSERT INTO policies (id, policy_number, plan_name, holder_name, client_id, client_birthday, type,
				anniversary_day, anniversary_month, payment_mode, premium_amount, currency, status,
				tags, riders, specifics, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, p.ID.String(), p.PolicyNumber, p.PlanName, p.HolderName, clientID, p.ClientBirthday, p.Type,
			p.Anniversary.Day, p.Anniversary.Month, p.PaymentMode, p.PremiumAmount, p.Currency, p.Status,
			string(tags), string(riders), specifics, p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert policy %s: %w", p.PolicyNumber, err)
		}
	}

	return tx.Commit()
}

// LoadFullState reads both tables back into entity collections.
func LoadFullState(db *DB) ([]models.Client, []models.Policy, error) {
	clients, err := loadClients(db)
	if err != nil {
		return nil, nil, err
	}
	policies, err := loadPolicies(db)
	if err != nil {
		return nil, nil, err
	}
	return clients, policies, nil
}

func loadClients(db *DB) ([]models.Client, error) {
	rows, err := db.Query(`
		SELECT id, name, email, phone, birthday, total_policies, last_contact, status, tags, created_at, updated_at
		FROM clients ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		var c models.Client
		var id, tags string
		var birthday, lastContact sql.NullTime

		if err := rows.Scan(&id, &c.Name, &c.Email, &c.Phone, &birthday, &c.TotalPolicies, &lastContact, &c.Status, &tags, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}

		c.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("bad client id %q: %w", id, err)
		}
		if birthday.Valid {
			c.Birthday = &birthday.Time
		}
		if lastContact.Valid {
			c.LastContact = &lastContact.Time
		}
		if err := json.Unmarshal([]byte(tags), &c.Tags); err != nil {
			return nil, fmt.Errorf("bad client tags for %s: %w", c.Name, err)
		}

		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func loadPolicies(db *DB) ([]models.Policy, error) {
	rows, err := db.Query(`
		SELECT id, policy_number, plan_name, holder_name, client_id, client_birthday, type,
			anniversary_day, anniversary_month, payment_mode, premium_amount, currency, status,
			tags, riders, specifics, created_at, updated_at
		FROM policies ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query policies: %w", err)
	}
	defer rows.Close()

	var policies []models.Policy
	for rows.Next() {
		var p models.Policy
		var id, clientID, tags, riders string
		var clientBirthday sql.NullTime
		var specifics sql.NullString

		if err := rows.Scan(&id, &p.PolicyNumber, &p.PlanName, &p.HolderName, &clientID, &clientBirthday, &p.Type,
			&p.Anniversary.Day, &p.Anniversary.Month, &p.PaymentMode, &p.PremiumAmount, &p.Currency, &p.Status,
			&tags, &riders, &specifics, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}

		p.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("bad policy id %q: %w", id, err)
		}
		if clientID != OrphanClientID {
			p.ClientID, err = uuid.Parse(clientID)
			if err != nil {
				return nil, fmt.Errorf("bad policy client_id %q: %w", clientID, err)
			}
		}
		if clientBirthday.Valid {
			p.ClientBirthday = &clientBirthday.Time
		}
		if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
			return nil, fmt.Errorf("bad policy tags for %s: %w", p.PolicyNumber, err)
		}
		if err := json.Unmarshal([]byte(riders), &p.Riders); err != nil {
			return nil, fmt.Errorf("bad riders for %s: %w", p.PolicyNumber, err)
		}
		if specifics.Valid && specifics.String != "" {
			p.Specifics = &models.PolicySpecifics{}
			if err := json.Unmarshal([]byte(specifics.String), p.Specifics); err != nil {
				return nil, fmt.Errorf("bad specifics for %s: %w", p.PolicyNumber, err)
			}
		}

		policies = append(policies, p)
	}
	return policies, rows.Err()
}

// Export serializes the whole database to a self-contained binary blob
// using VACUUM INTO, which works regardless of journal mode.
func Export(db *DB) ([]byte, error) {
	tmp := filepath.Join(os.TempDir(), fmt.Sprintf("polsync-export-%d.db", time.Now().UnixNano()))
	defer os.Remove(tmp)

	if _, err := db.Exec(`VACUUM INTO ?`, tmp); err != nil {
		return nil, fmt.Errorf("failed to export database: %w", err)
	}

	data, err := os.ReadFile(tmp)
	if err != nil {
		return nil, fmt.Errorf("failed to read exported database: %w", err)
	}
	return data, nil
}

// Import writes the blob to path and opens it. Open re-applies the
// schema, so a blob written by an older build gains any new tables.
func Import(data []byte, path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return nil, fmt.Errorf("failed to write database file: %w", err)
	}
	return Open(path)
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func ridersOrEmpty(riders []models.Rider) []models.Rider {
	if riders == nil {
		return []models.Rider{}
	}
	return riders
}
