package tax

// DocumentStatus is the processing state shown on a document card.
type DocumentStatus string

const (
	StatusProcessed DocumentStatus = "processed"
	StatusPending   DocumentStatus = "pending"
	StatusError     DocumentStatus = "error"
)

// Category groups documents in the sidebar filter.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Document is a sample uploaded document.
type Document struct {
	Title    string         `json:"title"`
	Type     string         `json:"type"`
	Category string         `json:"category"`
	Date     string         `json:"date"`
	Status   DocumentStatus `json:"status"`
}

// CategoryAll matches every document.
const CategoryAll = "all"

// Categories lists the document filters in display order.
func Categories() []Category {
	return []Category{
		{ID: CategoryAll, Name: "All Documents"},
		{ID: "w2", Name: "W-2 Forms"},
		{ID: "1099", Name: "1099 Forms"},
		{ID: "receipts", Name: "Receipts"},
		{ID: "other", Name: "Other"},
	}
}

// Documents returns the sample document list.
func Documents() []Document {
	return []Document{
		{Title: "W-2 Form 2023", Type: "W-2", Category: "w2", Date: "Jan 15, 2024", Status: StatusProcessed},
		{Title: "1099-INT Statement", Type: "1099-INT", Category: "1099", Date: "Jan 20, 2024", Status: StatusProcessed},
		{Title: "Business Expenses Q4", Type: "Receipts", Category: "receipts", Date: "Jan 25, 2024", Status: StatusPending},
		{Title: "Charitable Donations", Type: "Receipts", Category: "receipts", Date: "Feb 1, 2024", Status: StatusError},
	}
}
