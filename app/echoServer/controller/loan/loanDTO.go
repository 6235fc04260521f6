package loan

import (
	"errors"
	"time"

	"github.com/budingricky/Books-Management-System-BMS/model"
)

type CreateLoanReq struct {
	ItemID   int64  `json:"item_id" validate:"required,gt=0"`
	Borrower string `json:"borrower" validate:"required"`
	DueAt    string `json:"due_at"` // RFC 3339 or YYYY-MM-DD; empty = default loan period
	Contact  string `json:"contact"`
	Notes    string `json:"notes"`
}

// LoanResp decorates a loan with its derived status. Status is computed at
// response time, never stored.
type LoanResp struct {
	model.Loan
	Status model.LoanStatus `json:"status"`
}

func toResp(l *model.Loan, now time.Time) LoanResp {
	return LoanResp{Loan: *l, Status: l.StatusAt(now)}
}

func toRespList(ls []model.Loan, now time.Time) []LoanResp {
	out := make([]LoanResp, 0, len(ls))
	for i := range ls {
		out = append(out, toResp(&ls[i], now))
	}
	return out
}

var errBadDue = errors.New("unparseable due date")

// parseDueAt normalizes the two accepted due-date forms to one canonical
// instant: RFC 3339 timestamps pass through in UTC, a bare calendar date
// means "due by the end of that day UTC" and becomes midnight UTC of the
// following day. Anything else is an error, never a silent "not overdue".
func parseDueAt(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d.AddDate(0, 0, 1), nil
	}
	return time.Time{}, errBadDue
}
