// ABOUTME: Mocked document extraction for policy uploads
// ABOUTME: Parses labeled lines from document text into a draft policy
package extract

import (
	"bufio"
	"strconv"
	"strings"
	"time"

	"github.com/harperreed/polsync/models"
)

// Extract produces a draft policy from document text. This stands in for
// an external AI analysis service: it reads "Label: value" lines, which
// is what the real extraction would return as structured output.
func Extract(docText string) (models.Policy, error) {
	policy := models.Policy{
		Currency:    "USD",
		PaymentMode: models.PayYearly,
		Status:      models.PolicyStatusPending,
	}

	scanner := bufio.NewScanner(strings.NewReader(docText))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}

		switch key {
		case "policy number", "policy no":
			policy.PolicyNumber = value
		case "plan", "plan name", "product":
			policy.PlanName = value
		case "holder", "insured", "policyholder":
			policy.HolderName = value
		case "birthday", "date of birth", "dob":
			if t, err := time.Parse("2006-01-02", value); err == nil {
				policy.ClientBirthday = &t
			}
		case "type":
			policy.Type = normalizeType(value)
		case "premium", "premium amount":
			if f, err := strconv.ParseFloat(strings.TrimPrefix(value, "$"), 64); err == nil {
				policy.PremiumAmount = f
			}
		case "currency":
			policy.Currency = strings.ToUpper(value)
		case "payment mode", "mode":
			policy.PaymentMode = normalizeMode(value)
		case "anniversary", "renewal date":
			if t, err := time.Parse("2006-01-02", value); err == nil {
				policy.Anniversary = models.Anniversary{Day: t.Day(), Month: int(t.Month())}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return models.Policy{}, err
	}

	return policy, nil
}

func normalizeType(s string) string {
	switch strings.ToLower(strings.ReplaceAll(s, " ", "_")) {
	case "life":
		return models.TypeLife
	case "medical", "health":
		return models.TypeMedical
	case "auto", "motor", "car":
		return models.TypeAuto
	case "property", "home":
		return models.TypeProperty
	case "critical_illness", "ci":
		return models.TypeCriticalIllness
	case "savings", "endowment":
		return models.TypeSavings
	case "accident", "personal_accident":
		return models.TypeAccident
	default:
		return models.TypeLife
	}
}

func normalizeMode(s string) string {
	switch strings.ToLower(strings.ReplaceAll(s, "-", "_")) {
	case "monthly":
		return models.PayMonthly
	case "quarterly":
		return models.PayQuarterly
	case "half_yearly", "semi_annual", "semiannual":
		return models.PayHalfYearly
	default:
		return models.PayYearly
	}
}
