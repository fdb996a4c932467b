// ABOUTME: Reminder CLI command
// ABOUTME: Styled listing of upcoming renewals and client birthdays
package cli

import (
	"flag"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/polsync/reminders"
)

var (
	reminderTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("170"))

	reminderSoonStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("11"))

	reminderDateStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39"))

	reminderDimStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241"))
)

// RemindersCommand lists renewals and birthdays inside the lookahead
// window, soonest first.
func RemindersCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("reminders", flag.ExitOnError)
	days := fs.Int("days", app.Settings.ReminderDays, "Lookahead window in days")
	_ = fs.Parse(args)

	upcoming := reminders.Upcoming(app.Orch.Collections(), time.Now(), *days)

	fmt.Println(reminderTitleStyle.Render(fmt.Sprintf("Upcoming in the next %d days", *days)))
	fmt.Println()

	if len(upcoming) == 0 {
		fmt.Println(reminderDimStyle.Render("Nothing coming up."))
		return nil
	}

	for _, r := range upcoming {
		when := fmt.Sprintf("in %d days", r.DaysUntil)
		if r.DaysUntil == 0 {
			when = "today"
		} else if r.DaysUntil == 1 {
			when = "tomorrow"
		}
		if r.DaysUntil <= 7 {
			when = reminderSoonStyle.Render(when)
		} else {
			when = reminderDimStyle.Render(when)
		}

		date := reminderDateStyle.Render(r.Date.Format("Jan 2"))
		switch r.Kind {
		case reminders.KindBirthday:
			fmt.Printf("  🎂 %s  %s's birthday (%s)\n", date, r.ClientName, when)
		default:
			fmt.Printf("  📋 %s  %s renews %s (%s)\n", date, r.ClientName, r.PlanName, when)
		}
	}

	return nil
}
