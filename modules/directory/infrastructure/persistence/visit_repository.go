package persistence

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/phonedeck/phonedeck/modules/directory/domain/visit"
	"github.com/phonedeck/phonedeck/pkg/composables"
)

const (
	// The increment is atomic at the store, so concurrent callers never
	// lose counts and the application takes no locks.
	visitRecordQuery = `
        INSERT INTO visits (page, day, count)
        VALUES ($1, $2, 1)
        ON CONFLICT (page, day) DO UPDATE SET count = visits.count + 1`

	visitTotalQuery = `SELECT COALESCE(SUM(count), 0) FROM visits`

	visitByPageQuery = `
        SELECT page, MAX(day), SUM(count)
        FROM visits
        GROUP BY page
        ORDER BY SUM(count) DESC`

	visitByDayQuery = `
        SELECT '' AS page, day, SUM(count)
        FROM visits
        WHERE day >= $1
        GROUP BY day
        ORDER BY day`
)

type PgVisitRepository struct{}

func NewVisitRepository() *PgVisitRepository {
	return &PgVisitRepository{}
}

func (r *PgVisitRepository) Record(ctx context.Context, page string, day time.Time) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, visitRecordQuery, page, day.UTC().Truncate(24*time.Hour))
	return errors.Wrap(err, "record visit")
}

func (r *PgVisitRepository) Total(ctx context.Context) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	var total int64
	if err := tx.QueryRow(ctx, visitTotalQuery).Scan(&total); err != nil {
		return 0, errors.Wrap(err, "total visits")
	}
	return total, nil
}

func (r *PgVisitRepository) ByPage(ctx context.Context) ([]visit.DayCount, error) {
	return r.query(ctx, visitByPageQuery)
}

func (r *PgVisitRepository) ByDay(ctx context.Context, since time.Time) ([]visit.DayCount, error) {
	return r.query(ctx, visitByDayQuery, since.UTC().Truncate(24*time.Hour))
}

func (r *PgVisitRepository) query(ctx context.Context, query string, args ...any) ([]visit.DayCount, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query visits")
	}
	defer rows.Close()

	out := make([]visit.DayCount, 0)
	for rows.Next() {
		var dc visit.DayCount
		if err := rows.Scan(&dc.Page, &dc.Day, &dc.Count); err != nil {
			return nil, errors.Wrap(err, "scan visit")
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}
