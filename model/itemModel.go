// model/item.go
package model

import "time"

type ItemStatus string

const (
	ItemAvailable   ItemStatus = "AVAILABLE"
	ItemBorrowed    ItemStatus = "BORROWED"
	ItemUnavailable ItemStatus = "UNAVAILABLE"
)

// Location is the physical shelf position of an item.
type Location struct {
	Room   string `json:"room,omitempty"`
	Shelf  string `json:"shelf,omitempty"`
	Row    string `json:"row,omitempty"`
	Column string `json:"column,omitempty"`
	Number string `json:"number,omitempty"`
}

type Item struct {
	ID           int64      `json:"id"`
	ISBN         string     `json:"isbn"`
	Title        string     `json:"title"`
	Author       string     `json:"author"`
	Publisher    string     `json:"publisher,omitempty"`
	PublishDate  *time.Time `json:"publish_date,omitempty"`
	CategoryID   int64      `json:"category_id"`
	CategoryName string     `json:"category_name,omitempty"`
	Description  string     `json:"description,omitempty"`
	Location     Location   `json:"location"`
	Status       ItemStatus `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// ActiveLoan is set on detail reads when the item is BORROWED.
	ActiveLoan *Loan `json:"active_loan,omitempty"`
}
