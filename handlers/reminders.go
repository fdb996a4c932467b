// ABOUTME: Reminder MCP tool handler
// ABOUTME: Implements the upcoming_reminders tool over renewals and birthdays
package handlers

import (
	"context"
	"time"

	"github.com/harperreed/polsync/reminders"
	"github.com/harperreed/polsync/sync"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ReminderHandlers struct {
	orch *sync.Orchestrator
}

func NewReminderHandlers(orch *sync.Orchestrator) *ReminderHandlers {
	return &ReminderHandlers{orch: orch}
}

type UpcomingRemindersInput struct {
	Days int `json:"days,omitempty" jsonschema:"Lookahead window in days (default 30)"`
}

type ReminderOutput struct {
	Kind       string `json:"kind"`
	Date       string `json:"date"`
	DaysUntil  int    `json:"days_until"`
	ClientName string `json:"client_name"`
	PlanName   string `json:"plan_name,omitempty"`
}

type UpcomingRemindersOutput struct {
	Reminders []ReminderOutput `json:"reminders"`
	Count     int              `json:"count"`
}

func (h *ReminderHandlers) UpcomingReminders(_ context.Context, request *mcp.CallToolRequest, input UpcomingRemindersInput) (*mcp.CallToolResult, UpcomingRemindersOutput, error) {
	upcoming := reminders.Upcoming(h.orch.Collections(), time.Now(), input.Days)

	out := make([]ReminderOutput, 0, len(upcoming))
	for _, r := range upcoming {
		out = append(out, ReminderOutput{
			Kind:       r.Kind,
			Date:       r.Date.Format("2006-01-02"),
			DaysUntil:  r.DaysUntil,
			ClientName: r.ClientName,
			PlanName:   r.PlanName,
		})
	}
	return nil, UpcomingRemindersOutput{Reminders: out, Count: len(out)}, nil
}
