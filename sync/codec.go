// ABOUTME: Row codec for the spreadsheet backend
// ABOUTME: Encodes entities to header-keyed rows and decodes them back with default fallbacks
package sync

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/polsync/models"
)

// SchemaVersion is written to the Meta sheet so readers can detect
// layouts written by other builds. Columns are keyed by header name, so
// reordering or adding columns does not break decoding.
const SchemaVersion = 2

var clientHeaders = []string{
	"id", "name", "email", "phone", "birthday", "total_policies",
	"last_contact", "status", "tags", "created_at", "updated_at",
}

var policyHeaders = []string{
	"id", "policy_number", "plan_name", "holder_name", "client_id",
	"client_birthday", "type", "anniversary_day", "anniversary_month",
	"payment_mode", "premium_amount", "currency", "status", "tags",
	"riders", "specifics", "created_at", "updated_at",
}

var productHeaders = []string{"name", "provider", "type", "default_tags"}

// encodeClients produces the header row followed by one row per client.
func encodeClients(clients []models.Client) ([][]interface{}, error) {
	rows := [][]interface{}{toRow(clientHeaders)}
	for _, c := range clients {
		tags, err := json.Marshal(emptyIfNil(c.Tags))
		if err != nil {
			return nil, fmt.Errorf("failed to encode tags for %s: %w", c.Name, err)
		}
		rows = append(rows, []interface{}{
			c.ID.String(), c.Name, c.Email, c.Phone, encodeTimePtr(c.Birthday),
			strconv.Itoa(c.TotalPolicies), encodeTimePtr(c.LastContact), c.Status,
			string(tags), encodeTime(c.CreatedAt), encodeTime(c.UpdatedAt),
		})
	}
	return rows, nil
}

func encodePolicies(policies []models.Policy) ([][]interface{}, error) {
	rows := [][]interface{}{toRow(policyHeaders)}
	for _, p := range policies {
		tags, err := json.Marshal(emptyIfNil(p.Tags))
		if err != nil {
			return nil, fmt.Errorf("failed to encode tags for %s: %w", p.PolicyNumber, err)
		}
		riders, err := json.Marshal(ridersEmptyIfNil(p.Riders))
		if err != nil {
			return nil, fmt.Errorf("failed to encode riders for %s: %w", p.PolicyNumber, err)
		}
		specifics := ""
		if p.Specifics != nil {
			data, err := json.Marshal(p.Specifics)
			if err != nil {
				return nil, fmt.Errorf("failed to encode specifics for %s: %w", p.PolicyNumber, err)
			}
			specifics = string(data)
		}
		clientID := ""
		if p.ClientID != uuid.Nil {
			clientID = p.ClientID.String()
		}
		rows = append(rows, []interface{}{
			p.ID.String(), p.PolicyNumber, p.PlanName, p.HolderName, clientID,
			encodeTimePtr(p.ClientBirthday), p.Type,
			strconv.Itoa(p.Anniversary.Day), strconv.Itoa(p.Anniversary.Month),
			p.PaymentMode, strconv.FormatFloat(p.PremiumAmount, 'f', -1, 64),
			p.Currency, p.Status, string(tags), string(riders), specifics,
			encodeTime(p.CreatedAt), encodeTime(p.UpdatedAt),
		})
	}
	return rows, nil
}

func encodeProducts(products []models.Product) ([][]interface{}, error) {
	rows := [][]interface{}{toRow(productHeaders)}
	for _, p := range products {
		tags, err := json.Marshal(emptyIfNil(p.DefaultTags))
		if err != nil {
			return nil, fmt.Errorf("failed to encode default tags for %s: %w", p.Name, err)
		}
		rows = append(rows, []interface{}{p.Name, p.Provider, p.Type, string(tags)})
	}
	return rows, nil
}

// rowReader resolves cells by header name so decoding tolerates column
// reordering and unknown extra columns.
type rowReader struct {
	index map[string]int
	row   []interface{}
}

func newHeaderIndex(header []interface{}) map[string]int {
	index := make(map[string]int, len(header))
	for i, cell := range header {
		index[cellString(cell)] = i
	}
	return index
}

func (r rowReader) str(key string) string {
	i, ok := r.index[key]
	if !ok || i >= len(r.row) {
		return ""
	}
	return cellString(r.row[i])
}

func (r rowReader) intOr(key string, fallback int) int {
	s := r.str(key)
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func (r rowReader) floatOr(key string, fallback float64) float64 {
	s := r.str(key)
	if s == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return f
}

func (r rowReader) timePtr(key string) *time.Time {
	s := r.str(key)
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

func (r rowReader) timeOr(key string, fallback time.Time) time.Time {
	if t := r.timePtr(key); t != nil {
		return *t
	}
	return fallback
}

func decodeClients(rows [][]interface{}) ([]models.Client, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	index := newHeaderIndex(rows[0])

	var clients []models.Client
	for _, row := range rows[1:] {
		r := rowReader{index: index, row: row}

		id, err := uuid.Parse(r.str("id"))
		if err != nil {
			return nil, fmt.Errorf("bad client id %q: %w", r.str("id"), err)
		}

		c := models.Client{
			ID:            id,
			Name:          r.str("name"),
			Email:         r.str("email"),
			Phone:         r.str("phone"),
			Birthday:      r.timePtr("birthday"),
			TotalPolicies: r.intOr("total_policies", 0),
			LastContact:   r.timePtr("last_contact"),
			Status:        r.str("status"),
			CreatedAt:     r.timeOr("created_at", time.Time{}),
			UpdatedAt:     r.timeOr("updated_at", time.Time{}),
		}
		if err := json.Unmarshal([]byte(jsonOr(r.str("tags"), "[]")), &c.Tags); err != nil {
			return nil, fmt.Errorf("bad tags cell for client %s: %w", c.Name, err)
		}
		clients = append(clients, c)
	}
	return clients, nil
}

func decodePolicies(rows [][]interface{}) ([]models.Policy, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	index := newHeaderIndex(rows[0])

	var policies []models.Policy
	for _, row := range rows[1:] {
		r := rowReader{index: index, row: row}

		id, err := uuid.Parse(r.str("id"))
		if err != nil {
			return nil, fmt.Errorf("bad policy id %q: %w", r.str("id"), err)
		}

		p := models.Policy{
			ID:             id,
			PolicyNumber:   r.str("policy_number"),
			PlanName:       r.str("plan_name"),
			HolderName:     r.str("holder_name"),
			ClientBirthday: r.timePtr("client_birthday"),
			Type:           r.str("type"),
			Anniversary: models.Anniversary{
				Day:   r.intOr("anniversary_day", 1),
				Month: r.intOr("anniversary_month", 1),
			},
			PaymentMode:   r.str("payment_mode"),
			PremiumAmount: r.floatOr("premium_amount", 0),
			Currency:      r.str("currency"),
			Status:        r.str("status"),
			CreatedAt:     r.timeOr("created_at", time.Time{}),
			UpdatedAt:     r.timeOr("updated_at", time.Time{}),
		}
		if s := r.str("client_id"); s != "" {
			clientID, err := uuid.Parse(s)
			if err != nil {
				return nil, fmt.Errorf("bad client_id cell for policy %s: %w", p.PolicyNumber, err)
			}
			p.ClientID = clientID
		}
		if err := json.Unmarshal([]byte(jsonOr(r.str("tags"), "[]")), &p.Tags); err != nil {
			return nil, fmt.Errorf("bad tags cell for policy %s: %w", p.PolicyNumber, err)
		}
		if err := json.Unmarshal([]byte(jsonOr(r.str("riders"), "[]")), &p.Riders); err != nil {
			return nil, fmt.Errorf("bad riders cell for policy %s: %w", p.PolicyNumber, err)
		}
		if s := r.str("specifics"); s != "" {
			p.Specifics = &models.PolicySpecifics{}
			if err := json.Unmarshal([]byte(s), p.Specifics); err != nil {
				return nil, fmt.Errorf("bad specifics cell for policy %s: %w", p.PolicyNumber, err)
			}
		}
		policies = append(policies, p)
	}
	return policies, nil
}

func decodeProducts(rows [][]interface{}) ([]models.Product, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	index := newHeaderIndex(rows[0])

	var products []models.Product
	for _, row := range rows[1:] {
		r := rowReader{index: index, row: row}

		p := models.Product{
			Name:     r.str("name"),
			Provider: r.str("provider"),
			Type:     r.str("type"),
		}
		if err := json.Unmarshal([]byte(jsonOr(r.str("default_tags"), "[]")), &p.DefaultTags); err != nil {
			return nil, fmt.Errorf("bad default_tags cell for product %s: %w", p.Name, err)
		}
		products = append(products, p)
	}
	return products, nil
}

func toRow(headers []string) []interface{} {
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	return row
}

func cellString(cell interface{}) string {
	switch v := cell.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func encodeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func encodeTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func jsonOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func emptyIfNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func ridersEmptyIfNil(riders []models.Rider) []models.Rider {
	if riders == nil {
		return []models.Rider{}
	}
	return riders
}
