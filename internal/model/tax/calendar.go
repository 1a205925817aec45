package tax

// EventType classifies calendar entries.
type EventType string

const (
	EventDeadline EventType = "deadline"
	EventReminder EventType = "reminder"
	EventInfo     EventType = "info"
)

// Event is a dated tax calendar entry. Date is YYYY-MM-DD.
type Event struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Date        string    `json:"date"`
	Description string    `json:"description"`
	Type        EventType `json:"type"`
}

// Events returns the published tax calendar.
func Events() []Event {
	return []Event{
		{ID: 1, Title: "Tax Return Due Date", Date: "2024-04-15", Description: "Last day to file your 2023 tax return or request an extension", Type: EventDeadline},
		{ID: 2, Title: "Q1 Estimated Tax Payment", Date: "2024-04-15", Description: "First quarter estimated tax payment due", Type: EventDeadline},
		{ID: 3, Title: "Q2 Estimated Tax Payment", Date: "2024-06-15", Description: "Second quarter estimated tax payment due", Type: EventReminder},
		{ID: 4, Title: "Q3 Estimated Tax Payment", Date: "2024-09-15", Description: "Third quarter estimated tax payment due", Type: EventReminder},
		{ID: 5, Title: "Q4 Estimated Tax Payment", Date: "2025-01-15", Description: "Fourth quarter estimated tax payment due", Type: EventReminder},
		{ID: 6, Title: "W-2 Forms Due", Date: "2024-01-31", Description: "Employers must provide W-2 forms to employees", Type: EventInfo},
		{ID: 7, Title: "1099 Forms Due", Date: "2024-01-31", Description: "Businesses must provide 1099 forms to contractors", Type: EventInfo},
	}
}
