package loan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/budingricky/Books-Management-System-BMS/model"
)

func TestParseDueAt(t *testing.T) {
	got, err := parseDueAt("2025-06-20T15:04:05+02:00")
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 6, 20, 13, 4, 5, 0, time.UTC), got)

	// calendar date means due by the end of that day UTC
	got, err = parseDueAt("2025-06-20")
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 6, 21, 0, 0, 0, 0, time.UTC), got)

	got, err = parseDueAt("")
	require.NoError(t, err)
	require.True(t, got.IsZero())

	_, err = parseDueAt("20/06/2025")
	require.Error(t, err, "garbage must fail loudly, not read as not-overdue")
}

func TestToResp_DerivedStatus(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	l := model.Loan{ID: 1, DueAt: now.Add(-time.Hour)}
	require.Equal(t, model.LoanOverdue, toResp(&l, now).Status)

	ret := now
	l.ReturnedAt = &ret
	require.Equal(t, model.LoanReturned, toResp(&l, now).Status)
}
