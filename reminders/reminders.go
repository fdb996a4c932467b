// ABOUTME: Renewal and birthday reminder computation
// ABOUTME: Scans the in-memory collections for dates inside the lookahead window
package reminders

import (
	"sort"
	"time"

	"github.com/harperreed/polsync/models"
	"github.com/harperreed/polsync/state"
)

// Kind constants.
const (
	KindRenewal  = "renewal"
	KindBirthday = "birthday"
)

// Reminder is one upcoming renewal or birthday.
type Reminder struct {
	Kind       string    `json:"kind"`
	Date       time.Time `json:"date"`
	DaysUntil  int       `json:"days_until"`
	ClientName string    `json:"client_name"`
	PolicyID   string    `json:"policy_id,omitempty"`
	PlanName   string    `json:"plan_name,omitempty"`
}

// Upcoming returns all renewals and birthdays falling inside the next
// lookaheadDays, soonest first. Expired policies are skipped.
func Upcoming(c state.Collections, today time.Time, lookaheadDays int) []Reminder {
	if lookaheadDays <= 0 {
		lookaheadDays = models.DefaultSettings().ReminderDays
	}
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	cutoff := day.AddDate(0, 0, lookaheadDays)

	var out []Reminder

	for _, p := range c.Policies {
		if p.Status == models.PolicyStatusExpired {
			continue
		}
		// A zero anniversary means no renewal date was captured; there is
		// nothing to remind about.
		if p.Anniversary.Day == 0 || p.Anniversary.Month == 0 {
			continue
		}
		next := p.Anniversary.Next(day)
		if next.After(cutoff) {
			continue
		}
		out = append(out, Reminder{
			Kind:       KindRenewal,
			Date:       next,
			DaysUntil:  daysBetween(day, next),
			ClientName: p.HolderName,
			PolicyID:   p.ID.String(),
			PlanName:   p.PlanName,
		})
	}

	for _, cl := range c.Clients {
		if cl.Birthday == nil {
			continue
		}
		next := nextBirthday(*cl.Birthday, day)
		if next.After(cutoff) {
			continue
		}
		out = append(out, Reminder{
			Kind:       KindBirthday,
			Date:       next,
			DaysUntil:  daysBetween(day, next),
			ClientName: cl.Name,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// nextBirthday finds the first occurrence of the birthday's day/month on
// or after from. A Feb 29 birthday falls on Mar 1 in non-leap years.
func nextBirthday(birthday, from time.Time) time.Time {
	_, m, d := birthday.Date()
	next := time.Date(from.Year(), m, d, 0, 0, 0, 0, time.UTC)
	if next.Before(from) {
		next = time.Date(from.Year()+1, m, d, 0, 0, 0, 0, time.UTC)
	}
	return next
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
