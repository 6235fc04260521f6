package item

import (
	"time"

	"github.com/budingricky/Books-Management-System-BMS/model"
	"github.com/budingricky/Books-Management-System-BMS/service/catalog"
)

type UpsertItemReq struct {
	ISBN        string `json:"isbn" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Author      string `json:"author"`
	Publisher   string `json:"publisher"`
	PublishDate string `json:"publish_date"` // RFC 3339 or YYYY-MM-DD
	CategoryID  int64  `json:"category_id" validate:"required,gt=0"`
	Description string `json:"description"`
	Room        string `json:"room"`
	Shelf       string `json:"shelf"`
	Row         string `json:"row"`
	Column      string `json:"column"`
	Number      string `json:"number"`
}

type SetStatusReq struct {
	Status string `json:"status" validate:"required,oneof=AVAILABLE UNAVAILABLE"`
}

func (r UpsertItemReq) toInput() (catalog.CreateItemInput, error) {
	in := catalog.CreateItemInput{
		ISBN:        r.ISBN,
		Title:       r.Title,
		Author:      r.Author,
		Publisher:   r.Publisher,
		CategoryID:  r.CategoryID,
		Description: r.Description,
		Location: model.Location{
			Room:   r.Room,
			Shelf:  r.Shelf,
			Row:    r.Row,
			Column: r.Column,
			Number: r.Number,
		},
	}
	if r.PublishDate != "" {
		t, err := parseInstant(r.PublishDate)
		if err != nil {
			return in, err
		}
		in.PublishDate = &t
	}
	return in, nil
}

// parseInstant accepts an RFC 3339 timestamp or a bare calendar date, which
// is pinned to midnight UTC.
func parseInstant(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse("2006-01-02", s)
}
