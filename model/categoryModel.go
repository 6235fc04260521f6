// model/category.go
package model

import "time"

// Category is a classification node. Level is derived from the parent chain:
// roots are level 1, children are level(parent)+1. The parent chain must be
// acyclic; ItemCount is computed on read, never stored.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	ParentID  *int64    `json:"parent_id,omitempty"`
	Level     int       `json:"level"`
	ItemCount int64     `json:"item_count"`
	CreatedAt time.Time `json:"created_at"`

	Children []*Category `json:"children,omitempty"`
}
