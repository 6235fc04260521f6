package model

import (
	"testing"
	"time"
)

func TestIsOverdue(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	cases := []struct {
		name string
		loan Loan
		want bool
	}{
		{"active past due", Loan{DueAt: past}, true},
		{"active not yet due", Loan{DueAt: future}, false},
		{"due exactly now", Loan{DueAt: now}, false},
		{"returned past due", Loan{DueAt: past, ReturnedAt: &now}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsOverdue(&tc.loan, now); got != tc.want {
				t.Fatalf("IsOverdue = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestStatusAt(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	l := Loan{DueAt: now.Add(time.Hour)}
	if got := l.StatusAt(now); got != LoanActive {
		t.Fatalf("status = %s, want ACTIVE", got)
	}

	l.DueAt = now.Add(-time.Hour)
	if got := l.StatusAt(now); got != LoanOverdue {
		t.Fatalf("status = %s, want OVERDUE", got)
	}

	ret := now.Add(-time.Minute)
	l.ReturnedAt = &ret
	if got := l.StatusAt(now); got != LoanReturned {
		t.Fatalf("status = %s, want RETURNED", got)
	}
	if l.Active() {
		t.Fatal("returned loan reported active")
	}
}
