// model/stats.go
package model

import "time"

// Stats is a point-in-time derived view over items and loans. It is never
// persisted; every field is recomputed from the current store state.
type Stats struct {
	TotalItems       int64 `json:"total_items"`
	AvailableItems   int64 `json:"available_items"`
	BorrowedItems    int64 `json:"borrowed_items"`
	UnavailableItems int64 `json:"unavailable_items"`

	TotalLoans   int64 `json:"total_loans"`
	ActiveLoans  int64 `json:"active_loans"`
	OverdueLoans int64 `json:"overdue_loans"`

	TotalCategories int64 `json:"total_categories"`

	BorrowRate float64 `json:"borrow_rate"`
	ReturnRate float64 `json:"return_rate"`

	PerCategory []CategoryStats `json:"per_category"`
}

type CategoryStats struct {
	CategoryID int64   `json:"category_id"`
	Name       string  `json:"name"`
	Code       string  `json:"code"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// PopularItem ranks an item by how many times it has been borrowed.
type PopularItem struct {
	ItemID  int64  `json:"item_id"`
	Title   string `json:"title"`
	ISBN    string `json:"isbn"`
	Borrows int64  `json:"borrows"`
}

// TrendPoint is one day on the borrow/return timeline.
type TrendPoint struct {
	Day     time.Time `json:"day"`
	Borrows int64     `json:"borrows"`
	Returns int64     `json:"returns"`
}

// Activity is a single borrow or return event.
type Activity struct {
	Kind      string    `json:"kind"` // "borrow" or "return"
	LoanID    int64     `json:"loan_id"`
	ItemID    int64     `json:"item_id"`
	ItemTitle string    `json:"item_title"`
	Borrower  string    `json:"borrower"`
	At        time.Time `json:"at"`
}
