// model/loan.go
package model

import "time"

type LoanStatus string

const (
	LoanActive   LoanStatus = "ACTIVE"
	LoanOverdue  LoanStatus = "OVERDUE" // sub-state of ACTIVE, never stored
	LoanReturned LoanStatus = "RETURNED"
)

type Loan struct {
	ID         int64      `json:"id"`
	ItemID     int64      `json:"item_id"`
	ItemTitle  string     `json:"item_title,omitempty"`
	Borrower   string     `json:"borrower"`
	Contact    string     `json:"contact,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	BorrowedAt time.Time  `json:"borrowed_at"`
	DueAt      time.Time  `json:"due_at"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
}

// Active reports whether the loan has no recorded return.
func (l *Loan) Active() bool { return l.ReturnedAt == nil }

// StatusAt derives the loan status at the given instant. Status is never
// stored; RETURNED wins over OVERDUE regardless of the due time.
func (l *Loan) StatusAt(now time.Time) LoanStatus {
	if l.ReturnedAt != nil {
		return LoanReturned
	}
	if IsOverdue(l, now) {
		return LoanOverdue
	}
	return LoanActive
}

// IsOverdue reports whether the loan is active and past due at the given
// instant. Instants are compared directly; due times are canonical UTC
// timestamps by the time they reach the model (see the DTO layer).
func IsOverdue(l *Loan, now time.Time) bool {
	return l.ReturnedAt == nil && now.After(l.DueAt)
}
