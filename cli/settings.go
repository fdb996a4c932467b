// ABOUTME: Settings CLI commands
// ABOUTME: Shows and updates persisted app settings including the AI provider
package cli

import (
	"flag"
	"fmt"

	"github.com/harperreed/polsync/models"
)

// SettingsCommand shows current settings, or updates whichever flags
// were passed.
func SettingsCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("settings", flag.ExitOnError)
	language := fs.String("language", "", "UI language code")
	theme := fs.String("theme", "", "Theme (light|dark)")
	reminderDays := fs.Int("reminder-days", 0, "Reminder lookahead in days")
	aiBaseURL := fs.String("ai-base-url", "", "AI provider base URL")
	aiKey := fs.String("ai-key", "", "AI provider API key")
	aiModel := fs.String("ai-model", "", "AI model name")
	_ = fs.Parse(args)

	settings := app.Settings
	changed := false

	if *language != "" {
		settings.Language = *language
		changed = true
	}
	if *theme != "" {
		settings.Theme = *theme
		changed = true
	}
	if *reminderDays > 0 {
		settings.ReminderDays = *reminderDays
		changed = true
	}
	if *aiBaseURL != "" || *aiKey != "" || *aiModel != "" {
		if settings.AI == nil {
			settings.AI = &models.AIConfig{}
		}
		if *aiBaseURL != "" {
			settings.AI.BaseURL = *aiBaseURL
		}
		if *aiKey != "" {
			settings.AI.APIKey = *aiKey
		}
		if *aiModel != "" {
			settings.AI.Model = *aiModel
		}
		changed = true
	}

	if changed {
		if err := app.Store.SaveSettings(settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		app.Settings = settings
		fmt.Println("✓ Settings saved")
		return nil
	}

	fmt.Printf("Language: %s\n", settings.Language)
	fmt.Printf("Theme: %s\n", settings.Theme)
	fmt.Printf("Reminder days: %d\n", settings.ReminderDays)
	if settings.SyncBackend != "" {
		fmt.Printf("Sync backend: %s\n", settings.SyncBackend)
	}
	if settings.AI != nil {
		fmt.Printf("AI base URL: %s\n", settings.AI.BaseURL)
		fmt.Printf("AI model: %s\n", settings.AI.Model)
		if settings.AI.APIKey != "" {
			fmt.Println("AI key: (set)")
		}
	}
	return nil
}
