package tax

// Card is a dashboard summary tile.
type Card struct {
	Title       string `json:"title"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// Deadline is an entry in the dashboard's upcoming list.
type Deadline struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// Dashboard is the static overview page.
type Dashboard struct {
	Cards     []Card     `json:"cards"`
	Deadlines []Deadline `json:"deadlines"`
}

// Overview returns the dashboard content.
func Overview() Dashboard {
	return Dashboard{
		Cards: []Card{
			{Title: "Tax Due", Value: "$2,450", Description: "Estimated tax due for 2024"},
			{Title: "Documents", Value: "12", Description: "Tax documents uploaded"},
			{Title: "Next Deadline", Value: "Apr 15", Description: "2024 Tax Return Due Date"},
		},
		Deadlines: []Deadline{
			{Date: "Apr 15, 2024", Description: "2023 Tax Return Due", Status: "Upcoming"},
			{Date: "Jun 15, 2024", Description: "Q2 Estimated Tax Payment", Status: "Future"},
			{Date: "Sep 15, 2024", Description: "Q3 Estimated Tax Payment", Status: "Future"},
		},
	}
}
