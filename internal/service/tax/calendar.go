package tax

import (
	"strings"
	"time"

	"github.com/taxmonster/backend/internal/model/tax"
)

// MonthView is one page of the tax calendar.
type MonthView struct {
	Year         int         `json:"year,omitempty"`
	Month        int         `json:"month,omitempty"`
	DaysInMonth  int         `json:"daysInMonth,omitempty"`
	FirstWeekday int         `json:"firstWeekday"`
	Events       []tax.Event `json:"events"`
}

// Month returns the events dated in year/month with the grid geometry.
// Sunday is weekday 0.
func Month(events []tax.Event, year int, month time.Month) MonthView {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	prefix := first.Format("2006-01-")

	view := MonthView{
		Year:         year,
		Month:        int(month),
		DaysInMonth:  first.AddDate(0, 1, -1).Day(),
		FirstWeekday: int(first.Weekday()),
		Events:       []tax.Event{},
	}
	for _, e := range events {
		if strings.HasPrefix(e.Date, prefix) {
			view.Events = append(view.Events, e)
		}
	}
	return view
}
