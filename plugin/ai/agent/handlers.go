package agent

import (
	"fmt"
	"time"

	"github.com/hrygo/orbita/plugin/ai"
	"github.com/hrygo/orbita/plugin/ai/agent/tools"
	"github.com/hrygo/orbita/plugin/calendar"
	"github.com/hrygo/orbita/plugin/mail"
	"github.com/hrygo/orbita/plugin/sepay"
)

// Handler names. They match the router's handler routes.
const (
	EmailHandlerName    = "email"
	BudgetHandlerName   = "budget"
	CalendarHandlerName = "calendar"
)

const emailPrompt = `You are the email assistant. You can read the latest emails in the user's inbox and send emails on their behalf.
Use fetch_emails to read messages and send_email to send one.
Before sending, make sure the recipient, subject and body are all known; ask the user when something is missing.
Summarize what you read instead of pasting raw messages.`

const budgetPrompt = `You are the budget assistant. You report the accumulated budget of the user's bank account using get_budget.
The budget is the accumulated balance after the latest transaction of the current month, in VND.
If the account number is unknown, ask the user for it. Format amounts with thousands separators.`

const calendarPromptFormat = `You are the calendar assistant. You read and manage the user's calendar.
Current time: %s (%s). Interpret relative dates such as "tomorrow" or "next Monday" against it.

Tools:
- get_calendar_events to list events for today, this week or this month.
- schedule_event to book an event. Use the format YYYY-MM-DD HH:MM for start_datetime.
- find_free_slots to find free time between 08:00 and 18:00 on a date.
- summarize_calendar to report how busy a period is.

When schedule_event reports a conflict, tell the user about the existing events and suggest free slots instead of booking again.`

// NewEmailHandler creates the email handler over a mailbox client.
func NewEmailHandler(llm ai.LLMService, client mail.Client, opts ...Option) (*Agent, error) {
	registry, err := NewToolRegistry(tools.NewFetchEmailsTool(client), tools.NewSendEmailTool(client))
	if err != nil {
		return nil, err
	}
	return NewAgent(EmailHandlerName, llm, staticPrompt(emailPrompt), registry, opts...)
}

// NewBudgetHandler creates the budget handler. defaultAccount, when set, is
// offered to the model so the user does not need to repeat it.
func NewBudgetHandler(llm ai.LLMService, reader sepay.BudgetReader, defaultAccount string, opts ...Option) (*Agent, error) {
	registry, err := NewToolRegistry(tools.NewGetBudgetTool(reader))
	if err != nil {
		return nil, err
	}
	prompt := budgetPrompt
	if defaultAccount != "" {
		prompt += fmt.Sprintf("\nThe user's default account number is %s.", defaultAccount)
	}
	return NewAgent(BudgetHandlerName, llm, staticPrompt(prompt), registry, opts...)
}

// NewCalendarHandler creates the calendar handler. now may be nil.
func NewCalendarHandler(llm ai.LLMService, svc calendar.Service, loc *time.Location, now func() time.Time, opts ...Option) (*Agent, error) {
	if loc == nil {
		loc = calendar.LoadLocation("")
	}
	if now == nil {
		now = time.Now
	}
	calendarTools := tools.NewCalendarTools(svc, loc).WithClock(now)
	registry, err := NewToolRegistry(calendarTools.Tools()...)
	if err != nil {
		return nil, err
	}
	prompt := func() string {
		return fmt.Sprintf(calendarPromptFormat, now().In(loc).Format("Monday, 2006-01-02 15:04"), loc.String())
	}
	return NewAgent(CalendarHandlerName, llm, prompt, registry, opts...)
}

func staticPrompt(s string) func() string {
	return func() string { return s }
}
