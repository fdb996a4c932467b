// ABOUTME: Data models for insurance CRM entities
// ABOUTME: Defines Client, Policy, Rider, Product, AppSettings, and SyncState structs
package models

import (
	"time"

	"github.com/google/uuid"
)

// InsuranceType constants.
const (
	TypeLife            = "life"
	TypeMedical         = "medical"
	TypeAuto            = "auto"
	TypeProperty        = "property"
	TypeCriticalIllness = "critical_illness"
	TypeSavings         = "savings"
	TypeAccident        = "accident"
)

// PaymentMode constants.
const (
	PayYearly     = "yearly"
	PayHalfYearly = "half_yearly"
	PayQuarterly  = "quarterly"
	PayMonthly    = "monthly"
)

// Client status constants.
const (
	ClientStatusActive = "active"
	ClientStatusLead   = "lead"
)

// Policy status constants.
const (
	PolicyStatusActive  = "active"
	PolicyStatusPending = "pending"
	PolicyStatusExpired = "expired"
)

type Client struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	Birthday      *time.Time `json:"birthday,omitempty"`
	TotalPolicies int        `json:"total_policies"`
	LastContact   *time.Time `json:"last_contact,omitempty"`
	Status        string     `json:"status"`
	Tags          []string   `json:"tags,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Anniversary is a recurring day/month with no year, used for policy
// renewal dates.
type Anniversary struct {
	Day   int `json:"day"`
	Month int `json:"month"`
}

// Next returns the first occurrence of the anniversary on or after from.
func (a Anniversary) Next(from time.Time) time.Time {
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	next := time.Date(from.Year(), time.Month(a.Month), a.Day, 0, 0, 0, 0, time.UTC)
	if next.Before(day) {
		next = next.AddDate(1, 0, 0)
	}
	return next
}

type Rider struct {
	Name       string   `json:"name"`
	Type       string   `json:"type,omitempty"`
	Premium    float64  `json:"premium"`
	SumInsured *float64 `json:"sum_insured,omitempty"`
}

// PolicySpecifics holds optional type-specific attributes. Only the
// fields relevant to the policy's insurance type are populated.
type PolicySpecifics struct {
	MedicalExcess   *float64   `json:"medical_excess,omitempty"`
	SumInsured      *float64   `json:"sum_insured,omitempty"`
	Multipay        bool       `json:"multipay,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	CapitalInvested *float64   `json:"capital_invested,omitempty"`
	AccidentLimits  string     `json:"accident_limits,omitempty"`
}

type Policy struct {
	ID             uuid.UUID        `json:"id"`
	PolicyNumber   string           `json:"policy_number"`
	PlanName       string           `json:"plan_name"`
	HolderName     string           `json:"holder_name"`
	ClientID       uuid.UUID        `json:"client_id"`
	ClientBirthday *time.Time       `json:"client_birthday,omitempty"`
	Type           string           `json:"type"`
	Anniversary    Anniversary      `json:"anniversary"`
	PaymentMode    string           `json:"payment_mode"`
	PremiumAmount  float64          `json:"premium_amount"`
	Currency       string           `json:"currency"`
	Status         string           `json:"status"`
	Tags           []string         `json:"tags,omitempty"`
	Riders         []Rider          `json:"riders,omitempty"`
	Specifics      *PolicySpecifics `json:"specifics,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// TotalPremium returns the base premium plus the sum of all rider premiums.
func (p *Policy) TotalPremium() float64 {
	total := p.PremiumAmount
	for _, r := range p.Riders {
		total += r.Premium
	}
	return total
}

type Product struct {
	Name        string   `json:"name"`
	Provider    string   `json:"provider,omitempty"`
	Type        string   `json:"type"`
	DefaultTags []string `json:"default_tags,omitempty"`
}

// AIConfig holds the upstream chat-completion provider settings used by
// the proxy endpoints.
type AIConfig struct {
	BaseURL string `json:"base_url,omitempty"`
	APIKey  string `json:"api_key,omitempty"`
	Model   string `json:"model,omitempty"`
}

type AppSettings struct {
	Language     string    `json:"language"`
	Theme        string    `json:"theme"`
	ReminderDays int       `json:"reminder_days"`
	SyncBackend  string    `json:"sync_backend,omitempty"`
	AI           *AIConfig `json:"ai,omitempty"`
}

// DefaultSettings returns the settings used when nothing has been persisted.
func DefaultSettings() AppSettings {
	return AppSettings{
		Language:     "en",
		Theme:        "light",
		ReminderDays: 30,
	}
}

// Sync backend name constants.
const (
	BackendSheets = "sheets"
	BackendDrive  = "drive"
)

// Sync connection state constants.
const (
	SyncDisconnected   = "disconnected"
	SyncAuthenticating = "authenticating"
	SyncCheckingRemote = "checking_remote"
	SyncNoRemoteFound  = "no_remote_found"
	SyncIdle           = "idle"
	SyncSaving         = "saving"
	SyncLoading        = "loading"
)

// SyncState describes the current remote connection. It is rebuilt each
// session from discovery calls and never persisted.
type SyncState struct {
	Backend    string     `json:"backend,omitempty"`
	ResourceID string     `json:"resource_id,omitempty"`
	State      string     `json:"state"`
	Status     string     `json:"status,omitempty"`
	LastSync   *time.Time `json:"last_sync,omitempty"`
}
