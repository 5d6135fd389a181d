package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"shortlink/internal/model"
)

// windowBounds returns the hour window containing at, in UTC. The end is
// inclusive: start + 1h - 1s.
func windowBounds(at time.Time) (start, end time.Time) {
	start = at.UTC().Truncate(time.Hour)
	end = start.Add(time.Hour - time.Second)
	return start, end
}

// recordClick upserts the hourly bucket for the mapping. The unique index
// on (mapping_id, window_start) serializes concurrent clicks in the same
// window; losers of the insert race fall into the DO UPDATE branch.
func recordClick(ctx context.Context, tx *sqlx.Tx, mappingID int64, at time.Time) error {
	start, end := windowBounds(at)
	q := `INSERT INTO click_buckets (mapping_id, window_start, window_end, click_count)
	      VALUES ($1, $2, $3, 1)
	      ON CONFLICT (mapping_id, window_start)
	      DO UPDATE SET click_count = click_buckets.click_count + 1, updated_at = now()`
	_, err := tx.ExecContext(ctx, q, mappingID, start, end)
	return err
}

// DailyClicks sums the mapping's buckets per UTC calendar day, most recent
// day first.
func (r *Repo) DailyClicks(ctx context.Context, m *model.URLMapping) ([]model.DayClicks, error) {
	q := `SELECT date_trunc('day', window_start) AS day, SUM(click_count) AS total_clicks
	      FROM click_buckets
	      WHERE mapping_id = $1
	      GROUP BY day
	      ORDER BY day DESC`
	var res []model.DayClicks
	if err := r.db.SelectContext(ctx, &res, q, m.ID); err != nil {
		return nil, err
	}
	return res, nil
}

// GetBucket fetches one hourly bucket, mainly for inspection and tests.
func (r *Repo) GetBucket(ctx context.Context, mappingID int64, windowStart time.Time) (*model.ClickBucket, error) {
	q := `SELECT id, mapping_id, window_start, window_end, click_count, created_at, updated_at
	      FROM click_buckets WHERE mapping_id = $1 AND window_start = $2`
	var b model.ClickBucket
	if err := r.db.GetContext(ctx, &b, q, mappingID, windowStart.UTC()); err != nil {
		return nil, err
	}
	return &b, nil
}
