package migrations

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	"flag-trivia-service/internal/infra/sqlstore"
)

var Migrations = migrate.NewMigrations()

// Table creation goes through bun models so the same migration works on
// Postgres and SQLite. The legacy `ranking` table is never created
// here; it only exists on pre-partitioning deployments.
func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			if _, err := db.NewCreateTable().
				Model((*sqlstore.DailyScore)(nil)).
				IfNotExists().
				Exec(ctx); err != nil {
				return err
			}
			if _, err := db.NewCreateIndex().
				Model((*sqlstore.DailyScore)(nil)).
				Index("idx_ranking_daily_partition").
				Column("region", "format", "date").
				IfNotExists().
				Exec(ctx); err != nil {
				return err
			}
			if _, err := db.NewCreateTable().
				Model((*sqlstore.AllTimeScore)(nil)).
				IfNotExists().
				Exec(ctx); err != nil {
				return err
			}
			if _, err := db.NewCreateIndex().
				Model((*sqlstore.AllTimeScore)(nil)).
				Index("idx_ranking_all_time_partition").
				Column("region", "format").
				IfNotExists().
				Exec(ctx); err != nil {
				return err
			}
			return nil
		},
		func(ctx context.Context, db *bun.DB) error {
			if _, err := db.NewDropTable().
				Model((*sqlstore.AllTimeScore)(nil)).
				IfExists().
				Exec(ctx); err != nil {
				return err
			}
			_, err := db.NewDropTable().
				Model((*sqlstore.DailyScore)(nil)).
				IfExists().
				Exec(ctx)
			return err
		},
	)
}
