// ABOUTME: Tests for reminder computation
// ABOUTME: Covers lookahead windows, year wraparound, and expired policy exclusion
package reminders

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/polsync/models"
	"github.com/harperreed/polsync/state"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestUpcomingRenewalsWithinWindow(t *testing.T) {
	c := state.Collections{
		Policies: []models.Policy{
			{ID: uuid.New(), HolderName: "Alice", PlanName: "Term Life 20", Status: models.PolicyStatusActive, Anniversary: models.Anniversary{Day: 20, Month: 3}},
			{ID: uuid.New(), HolderName: "Bob", PlanName: "DriveSafe", Status: models.PolicyStatusActive, Anniversary: models.Anniversary{Day: 1, Month: 6}},
		},
	}

	got := Upcoming(c, date(2026, time.March, 15), 30)

	if len(got) != 1 {
		t.Fatalf("expected 1 reminder, got %d", len(got))
	}
	r := got[0]
	if r.Kind != KindRenewal || r.ClientName != "Alice" {
		t.Errorf("unexpected reminder: %+v", r)
	}
	if r.DaysUntil != 5 {
		t.Errorf("expected 5 days until renewal, got %d", r.DaysUntil)
	}
}

func TestRenewalWrapsYearBoundary(t *testing.T) {
	c := state.Collections{
		Policies: []models.Policy{
			{ID: uuid.New(), HolderName: "Alice", Status: models.PolicyStatusActive, Anniversary: models.Anniversary{Day: 5, Month: 1}},
		},
	}

	got := Upcoming(c, date(2026, time.December, 20), 30)

	if len(got) != 1 {
		t.Fatalf("expected renewal across year boundary, got %d", len(got))
	}
	if got[0].Date.Year() != 2027 {
		t.Errorf("expected next-year date, got %v", got[0].Date)
	}
}

func TestExpiredPoliciesSkipped(t *testing.T) {
	c := state.Collections{
		Policies: []models.Policy{
			{ID: uuid.New(), HolderName: "Alice", Status: models.PolicyStatusExpired, Anniversary: models.Anniversary{Day: 16, Month: 3}},
		},
	}

	if got := Upcoming(c, date(2026, time.March, 15), 30); len(got) != 0 {
		t.Errorf("expected no reminders for expired policy, got %d", len(got))
	}
}

func TestPoliciesWithoutAnniversarySkipped(t *testing.T) {
	c := state.Collections{
		Policies: []models.Policy{
			{ID: uuid.New(), HolderName: "Alice", Status: models.PolicyStatusActive},
		},
	}

	// A zero anniversary must never surface as a renewal, in any month.
	for m := time.January; m <= time.December; m++ {
		if got := Upcoming(c, date(2026, m, 15), 30); len(got) != 0 {
			t.Errorf("month %v: expected no reminders for policy without anniversary, got %+v", m, got)
		}
	}
}

func TestBirthdayReminders(t *testing.T) {
	bd := date(1990, time.March, 18)
	c := state.Collections{
		Clients: []models.Client{
			{ID: uuid.New(), Name: "Alice", Birthday: &bd, Status: models.ClientStatusActive},
			{ID: uuid.New(), Name: "Bob", Status: models.ClientStatusActive}, // no birthday
		},
	}

	got := Upcoming(c, date(2026, time.March, 15), 7)

	if len(got) != 1 {
		t.Fatalf("expected 1 birthday reminder, got %d", len(got))
	}
	if got[0].Kind != KindBirthday || got[0].DaysUntil != 3 {
		t.Errorf("unexpected reminder: %+v", got[0])
	}
}

func TestRemindersSortedByDate(t *testing.T) {
	bd := date(1985, time.March, 16)
	c := state.Collections{
		Clients: []models.Client{
			{ID: uuid.New(), Name: "Bea", Birthday: &bd, Status: models.ClientStatusActive},
		},
		Policies: []models.Policy{
			{ID: uuid.New(), HolderName: "Alice", Status: models.PolicyStatusActive, Anniversary: models.Anniversary{Day: 25, Month: 3}},
		},
	}

	got := Upcoming(c, date(2026, time.March, 15), 30)

	if len(got) != 2 {
		t.Fatalf("expected 2 reminders, got %d", len(got))
	}
	if got[0].Kind != KindBirthday || got[1].Kind != KindRenewal {
		t.Errorf("expected birthday first, got %v then %v", got[0].Kind, got[1].Kind)
	}
}

func TestTodayCountsAsUpcoming(t *testing.T) {
	c := state.Collections{
		Policies: []models.Policy{
			{ID: uuid.New(), HolderName: "Alice", Status: models.PolicyStatusActive, Anniversary: models.Anniversary{Day: 15, Month: 3}},
		},
	}

	got := Upcoming(c, date(2026, time.March, 15), 30)
	if len(got) != 1 || got[0].DaysUntil != 0 {
		t.Fatalf("expected same-day renewal with 0 days, got %+v", got)
	}
}
