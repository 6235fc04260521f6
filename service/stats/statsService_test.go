package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/budingricky/Books-Management-System-BMS/model"
)

type itemsMock struct {
	fn    func() (map[model.ItemStatus]int64, error)
	calls int
}

func (m *itemsMock) CountByStatus(ctx context.Context) (map[model.ItemStatus]int64, error) {
	m.calls++
	return m.fn()
}

type loansMock struct {
	activeFn  func() ([]model.Loan, error)
	countFn   func() (int64, int64, error)
	popularFn func(limit int) ([]model.PopularItem, error)
	trendFn   func(from time.Time, days int) ([]model.TrendPoint, error)
	recentFn  func(limit int) ([]model.Activity, error)
}

func (m *loansMock) ActiveDueTimes(ctx context.Context) ([]model.Loan, error) {
	if m.activeFn == nil {
		return nil, nil
	}
	return m.activeFn()
}

func (m *loansMock) CountLoans(ctx context.Context) (int64, int64, error) {
	if m.countFn == nil {
		return 0, 0, nil
	}
	return m.countFn()
}

func (m *loansMock) PopularItems(ctx context.Context, limit int) ([]model.PopularItem, error) {
	if m.popularFn == nil {
		return nil, nil
	}
	return m.popularFn(limit)
}

func (m *loansMock) BorrowTrend(ctx context.Context, from time.Time, days int) ([]model.TrendPoint, error) {
	if m.trendFn == nil {
		return nil, nil
	}
	return m.trendFn(from, days)
}

func (m *loansMock) RecentActivity(ctx context.Context, limit int) ([]model.Activity, error) {
	if m.recentFn == nil {
		return nil, nil
	}
	return m.recentFn(limit)
}

type catsMock struct {
	countFn func() (int64, error)
	itemsFn func() ([]model.CategoryStats, error)
}

func (m *catsMock) CountAll(ctx context.Context) (int64, error) {
	if m.countFn == nil {
		return 0, nil
	}
	return m.countFn()
}

func (m *catsMock) ItemCounts(ctx context.Context) ([]model.CategoryStats, error) {
	if m.itemsFn == nil {
		return nil, nil
	}
	return m.itemsFn()
}

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestOverview_Rates(t *testing.T) {
	items := &itemsMock{fn: func() (map[model.ItemStatus]int64, error) {
		return map[model.ItemStatus]int64{
			model.ItemAvailable: 6,
			model.ItemBorrowed:  4,
		}, nil
	}}
	loans := &loansMock{
		countFn: func() (int64, int64, error) { return 8, 4, nil },
		activeFn: func() ([]model.Loan, error) {
			return []model.Loan{
				{ID: 1, DueAt: testNow.Add(-time.Hour)}, // overdue
				{ID: 2, DueAt: testNow.Add(-time.Minute)},
				{ID: 3, DueAt: testNow.Add(time.Hour)},
				{ID: 4, DueAt: testNow.Add(24 * time.Hour)},
			}, nil
		},
	}
	cats := &catsMock{
		countFn: func() (int64, error) { return 2, nil },
		itemsFn: func() ([]model.CategoryStats, error) {
			return []model.CategoryStats{
				{CategoryID: 1, Name: "Fiction", Count: 7},
				{CategoryID: 2, Name: "Science", Count: 3},
			}, nil
		},
	}

	svc := New(items, loans, cats, 0, WithClock(func() time.Time { return testNow }))
	st, err := svc.Overview(context.Background())
	require.NoError(t, err)

	require.Equal(t, int64(10), st.TotalItems)
	require.Equal(t, int64(4), st.BorrowedItems)
	require.Equal(t, 40.0, st.BorrowRate)
	require.Equal(t, 50.0, st.ReturnRate)
	require.Equal(t, int64(4), st.ActiveLoans)
	require.Equal(t, int64(2), st.OverdueLoans)
	require.Equal(t, int64(2), st.TotalCategories)
	require.Equal(t, 70.0, st.PerCategory[0].Percentage)
	require.Equal(t, 30.0, st.PerCategory[1].Percentage)
}

func TestOverview_EmptyStore(t *testing.T) {
	items := &itemsMock{fn: func() (map[model.ItemStatus]int64, error) {
		return map[model.ItemStatus]int64{}, nil
	}}
	svc := New(items, &loansMock{}, &catsMock{}, 0)

	st, err := svc.Overview(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(0), st.TotalItems)
	require.Equal(t, 0.0, st.BorrowRate)
	require.Equal(t, 0.0, st.ReturnRate)
}

func TestOverview_CacheAndInvalidate(t *testing.T) {
	items := &itemsMock{fn: func() (map[model.ItemStatus]int64, error) {
		return map[model.ItemStatus]int64{model.ItemAvailable: 1}, nil
	}}
	svc := New(items, &loansMock{}, &catsMock{}, time.Minute)
	ctx := context.Background()

	_, err := svc.Overview(ctx)
	require.NoError(t, err)
	_, err = svc.Overview(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, items.calls, "second read must hit the cache")

	svc.Invalidate()
	_, err = svc.Overview(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, items.calls, "invalidate must force a recompute")
}

// A compute that starts before a mutation commits must not cache its
// snapshot once Invalidate has run: the next read has to see the mutation.
func TestOverview_InvalidateDuringComputeNotCached(t *testing.T) {
	var svc Service
	borrowed := int64(0)
	items := &itemsMock{}
	items.fn = func() (map[model.ItemStatus]int64, error) {
		snapshot := map[model.ItemStatus]int64{model.ItemBorrowed: borrowed}
		if items.calls == 1 {
			// mutation commits while the first compute is in flight
			borrowed = 1
			svc.Invalidate()
		}
		return snapshot, nil
	}
	svc = New(items, &loansMock{}, &catsMock{}, time.Minute)
	ctx := context.Background()

	st, err := svc.Overview(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(0), st.BorrowedItems, "in-flight read keeps its own snapshot")

	st, err = svc.Overview(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), st.BorrowedItems, "read after the commit must see it")
	require.Equal(t, 2, items.calls, "stale snapshot must not have been cached")
}

func TestPopularItems_ClampsLimit(t *testing.T) {
	loans := &loansMock{popularFn: func(limit int) ([]model.PopularItem, error) {
		return []model.PopularItem{{ItemID: 1, Title: "Dune", Borrows: int64(limit)}}, nil
	}}
	svc := New(&itemsMock{}, loans, &catsMock{}, 0)
	ctx := context.Background()

	got, err := svc.PopularItems(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, int64(10), got[0].Borrows)

	got, err = svc.PopularItems(ctx, 5000)
	require.NoError(t, err)
	require.Equal(t, int64(100), got[0].Borrows)
}

func TestBorrowTrend_Window(t *testing.T) {
	var gotFrom time.Time
	var gotDays int
	loans := &loansMock{trendFn: func(from time.Time, days int) ([]model.TrendPoint, error) {
		gotFrom, gotDays = from, days
		return nil, nil
	}}
	svc := New(&itemsMock{}, loans, &catsMock{}, 0, WithClock(func() time.Time { return testNow }))
	ctx := context.Background()

	_, err := svc.BorrowTrend(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, 7, gotDays)
	// window starts at midnight six days back so today is the last point
	require.Equal(t, time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), gotFrom)

	_, err = svc.BorrowTrend(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, 30, gotDays)
}

func TestRecentActivity_DefaultLimit(t *testing.T) {
	loans := &loansMock{recentFn: func(limit int) ([]model.Activity, error) {
		require.Equal(t, 20, limit)
		return []model.Activity{{Kind: "borrow", LoanID: 1}}, nil
	}}
	svc := New(&itemsMock{}, loans, &catsMock{}, 0)

	got, err := svc.RecentActivity(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
}
