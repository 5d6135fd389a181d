package model

import "time"

// URLMapping is one short-code-to-URL binding. Both short_code and
// original_url are unique; a repeated URL submission resolves to the
// existing row.
type URLMapping struct {
	ID             int64      `db:"id" json:"id"`
	ShortCode      string     `db:"short_code" json:"short_code"`
	OriginalURL    string     `db:"original_url" json:"original_url"`
	ClickCount     int64      `db:"click_count" json:"click_count"`
	LastAccessedAt *time.Time `db:"last_accessed_at" json:"last_accessed_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// ClickBucket aggregates clicks for one mapping within a one-hour UTC
// window. At most one bucket exists per (mapping_id, window_start).
type ClickBucket struct {
	ID          int64     `db:"id" json:"id"`
	MappingID   int64     `db:"mapping_id" json:"mapping_id"`
	WindowStart time.Time `db:"window_start" json:"window_start"`
	WindowEnd   time.Time `db:"window_end" json:"window_end"`
	ClickCount  int64     `db:"click_count" json:"click_count"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// DayClicks is one row of the daily aggregate: total clicks across all
// hourly buckets falling on one UTC calendar day.
type DayClicks struct {
	Day         time.Time `db:"day"`
	TotalClicks int64     `db:"total_clicks"`
}
