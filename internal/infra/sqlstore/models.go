package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

// DailyScore is one row of the uncapped per-day leaderboard. Rows are
// never updated; the daily board only grows within its day.
type DailyScore struct {
	bun.BaseModel `bun:"table:ranking_daily"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Nickname  string    `bun:"nickname,notnull"`
	Score     int       `bun:"score,notnull"`
	Region    string    `bun:"region,notnull"`
	Format    string    `bun:"format,notnull"`
	Date      string    `bun:"date,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

// AllTimeScore is one row of the top-5-ever board per (region, format).
type AllTimeScore struct {
	bun.BaseModel `bun:"table:ranking_all_time"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Nickname  string    `bun:"nickname,notnull"`
	Score     int       `bun:"score,notnull"`
	Region    string    `bun:"region,notnull"`
	Format    string    `bun:"format,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

// LegacyScore maps the pre-partitioning deployment's single table: no
// region/format columns and no all-time cap.
type LegacyScore struct {
	bun.BaseModel `bun:"table:ranking"`

	Nickname  string    `bun:"nickname,notnull"`
	Score     int       `bun:"score,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}
