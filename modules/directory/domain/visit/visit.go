package visit

import (
	"context"
	"time"
)

// DayCount is one page's visit counter for one calendar day.
type DayCount struct {
	Page  string
	Day   time.Time
	Count int64
}

// Repository records and aggregates visit counters. Record must be an
// atomic increment-on-upsert so concurrent callers stay correct without
// application-level locking.
type Repository interface {
	Record(ctx context.Context, page string, day time.Time) error
	Total(ctx context.Context) (int64, error)
	ByPage(ctx context.Context) ([]DayCount, error)
	ByDay(ctx context.Context, since time.Time) ([]DayCount, error)
}
