// Package stats derives the aggregate view from the current store state.
// Nothing here is persisted; an optional TTL cache is purged after every
// committed mutation so a completed change is never hidden behind stale
// numbers.
package stats

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/budingricky/Books-Management-System-BMS/model"
)

type ItemCounter interface {
	CountByStatus(ctx context.Context) (map[model.ItemStatus]int64, error)
}

type LoanReader interface {
	ActiveDueTimes(ctx context.Context) ([]model.Loan, error)
	CountLoans(ctx context.Context) (total, returned int64, err error)
	PopularItems(ctx context.Context, limit int) ([]model.PopularItem, error)
	BorrowTrend(ctx context.Context, from time.Time, days int) ([]model.TrendPoint, error)
	RecentActivity(ctx context.Context, limit int) ([]model.Activity, error)
}

type CategoryCounter interface {
	CountAll(ctx context.Context) (int64, error)
	ItemCounts(ctx context.Context) ([]model.CategoryStats, error)
}

type Service interface {
	Overview(ctx context.Context) (*model.Stats, error)
	PopularItems(ctx context.Context, limit int) ([]model.PopularItem, error)
	BorrowTrend(ctx context.Context, days int) ([]model.TrendPoint, error)
	RecentActivity(ctx context.Context, limit int) ([]model.Activity, error)
	// Invalidate drops the cached snapshot; the lending and catalog
	// services call it after every committed mutation.
	Invalidate()
}

type service struct {
	items ItemCounter
	loans LoanReader
	cats  CategoryCounter
	cache *expirable.LRU[string, *model.Stats]
	now   func() time.Time

	// mu guards gen, which counts invalidations. A computed snapshot is
	// only cached if no mutation invalidated while it was being computed,
	// so a pre-mutation read can never be served past the commit.
	mu  sync.Mutex
	gen uint64
}

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

const cacheKey = "overview"

func New(items ItemCounter, loans LoanReader, cats CategoryCounter, ttl time.Duration, opts ...Option) Service {
	s := &service{
		items: items,
		loans: loans,
		cats:  cats,
		now:   func() time.Time { return time.Now().UTC() },
	}
	if ttl > 0 {
		s.cache = expirable.NewLRU[string, *model.Stats](1, nil, ttl)
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *service) Invalidate() {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	s.gen++
	s.cache.Purge()
	s.mu.Unlock()
}

func (s *service) Overview(ctx context.Context) (*model.Stats, error) {
	var gen uint64
	if s.cache != nil {
		s.mu.Lock()
		st, ok := s.cache.Get(cacheKey)
		gen = s.gen
		s.mu.Unlock()
		if ok {
			return st, nil
		}
	}
	st, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.mu.Lock()
		// an Invalidate during compute means this snapshot may predate a
		// committed mutation; serve it but do not cache it
		if gen == s.gen {
			s.cache.Add(cacheKey, st)
		}
		s.mu.Unlock()
	}
	return st, nil
}

func (s *service) compute(ctx context.Context) (*model.Stats, error) {
	byStatus, err := s.items.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	st := &model.Stats{
		AvailableItems:   byStatus[model.ItemAvailable],
		BorrowedItems:    byStatus[model.ItemBorrowed],
		UnavailableItems: byStatus[model.ItemUnavailable],
	}
	st.TotalItems = st.AvailableItems + st.BorrowedItems + st.UnavailableItems
	st.BorrowRate = rate(st.BorrowedItems, st.TotalItems)

	total, returned, err := s.loans.CountLoans(ctx)
	if err != nil {
		return nil, err
	}
	st.TotalLoans = total
	st.ReturnRate = rate(returned, total)

	active, err := s.loans.ActiveDueTimes(ctx)
	if err != nil {
		return nil, err
	}
	st.ActiveLoans = int64(len(active))
	now := s.now()
	for i := range active {
		if model.IsOverdue(&active[i], now) {
			st.OverdueLoans++
		}
	}

	if st.TotalCategories, err = s.cats.CountAll(ctx); err != nil {
		return nil, err
	}
	perCat, err := s.cats.ItemCounts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range perCat {
		perCat[i].Percentage = rate(perCat[i].Count, st.TotalItems)
	}
	st.PerCategory = perCat
	return st, nil
}

// PopularItems ranks items by lifetime borrow count.
func (s *service) PopularItems(ctx context.Context, limit int) ([]model.PopularItem, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.loans.PopularItems(ctx, limit)
}

// BorrowTrend returns per-day borrow and return counts for the trailing
// window, today included.
func (s *service) BorrowTrend(ctx context.Context, days int) ([]model.TrendPoint, error) {
	if days <= 0 {
		days = 30
	}
	if days > 365 {
		days = 365
	}
	from := s.now().AddDate(0, 0, -(days - 1)).Truncate(24 * time.Hour)
	return s.loans.BorrowTrend(ctx, from, days)
}

// RecentActivity returns the newest borrow and return events.
func (s *service) RecentActivity(ctx context.Context, limit int) ([]model.Activity, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.loans.RecentActivity(ctx, limit)
}

// rate is part/whole as a percentage, 0 when the whole is empty.
func rate(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*10000) / 100
}
