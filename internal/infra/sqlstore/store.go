package sqlstore

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/uptrace/bun"

	"flag-trivia-service/internal/domain"
	"flag-trivia-service/internal/ranking"
)

const dateLayout = "2006-01-02"

// Store implements ranking.Store on a bun database (Postgres or
// SQLite). Whether the partitioned tables exist is probed once when the
// store is opened, so a later query failure is a real storage error and
// never silently rereads as schema absence.
type Store struct {
	db     *bun.DB
	legacy bool
	now    func() time.Time
}

type Option func(*Store)

// WithClock fixes the store's notion of "today" for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(ctx context.Context, db *bun.DB, opts ...Option) (*Store, error) {
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := db.NewSelect().Model((*DailyScore)(nil)).Count(ctx); err != nil {
		if _, legacyErr := db.NewSelect().Model((*LegacyScore)(nil)).Count(ctx); legacyErr != nil {
			return nil, fmt.Errorf("probe ranking schema: %w", err)
		}
		log.Printf("partitioned ranking tables not found, falling back to legacy ranking table")
		s.legacy = true
	}
	return s, nil
}

// Legacy reports whether the store runs against the pre-partitioning
// schema.
func (s *Store) Legacy() bool { return s.legacy }

func (s *Store) Submit(ctx context.Context, entry domain.ScoreEntry) (int, error) {
	if s.legacy {
		return s.submitLegacy(ctx, entry)
	}

	daily := &DailyScore{
		Nickname:  entry.Nickname,
		Score:     entry.Score,
		Region:    entry.Region,
		Format:    string(entry.Format),
		Date:      entry.CreatedAt.Format(dateLayout),
		CreatedAt: entry.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(daily).Exec(ctx); err != nil {
		return 0, fmt.Errorf("insert daily score: %w", err)
	}

	if err := s.maintainAllTime(ctx, entry); err != nil {
		return 0, err
	}

	count, err := s.db.NewSelect().Model((*DailyScore)(nil)).
		Where("region = ? AND format = ? AND date = ?", entry.Region, string(entry.Format), daily.Date).
		Where("score > ? OR (score = ? AND created_at < ?)", entry.Score, entry.Score, entry.CreatedAt).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("compute daily rank: %w", err)
	}
	return count + 1, nil
}

// maintainAllTime runs the read/insert/prune sequence. The three
// statements are individually atomic but not wrapped in one
// transaction; two racing submissions may both insert, and the next
// prune restores the top-5 invariant.
func (s *Store) maintainAllTime(ctx context.Context, entry domain.ScoreEntry) error {
	var scores []int
	err := s.db.NewSelect().Model((*AllTimeScore)(nil)).
		Column("score").
		Where("region = ? AND format = ?", entry.Region, string(entry.Format)).
		OrderExpr("score DESC").
		Limit(ranking.AllTimeLimit).
		Scan(ctx, &scores)
	if err != nil {
		return fmt.Errorf("read all-time board: %w", err)
	}

	fifth := 0
	if len(scores) > 0 {
		fifth = scores[len(scores)-1]
	}
	if len(scores) >= ranking.AllTimeLimit && entry.Score <= fifth {
		return nil
	}

	row := &AllTimeScore{
		Nickname:  entry.Nickname,
		Score:     entry.Score,
		Region:    entry.Region,
		Format:    string(entry.Format),
		CreatedAt: entry.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert all-time score: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`DELETE FROM ranking_all_time
		 WHERE region = ? AND format = ? AND id NOT IN (
		   SELECT id FROM ranking_all_time
		   WHERE region = ? AND format = ?
		   ORDER BY score DESC, created_at ASC LIMIT ?
		 )`,
		entry.Region, string(entry.Format), entry.Region, string(entry.Format), ranking.AllTimeLimit)
	if err != nil {
		return fmt.Errorf("prune all-time board: %w", err)
	}
	return nil
}

func (s *Store) submitLegacy(ctx context.Context, entry domain.ScoreEntry) (int, error) {
	row := &LegacyScore{
		Nickname:  entry.Nickname,
		Score:     entry.Score,
		CreatedAt: entry.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return 0, fmt.Errorf("insert legacy score: %w", err)
	}

	count, err := s.db.NewSelect().Model((*LegacyScore)(nil)).
		Where("score > ? OR (score = ? AND created_at < ?)", entry.Score, entry.Score, entry.CreatedAt).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("compute legacy rank: %w", err)
	}
	return count + 1, nil
}

func (s *Store) Ranking(ctx context.Context, region string, format domain.QuizFormat, mode domain.RankingMode, limit int) ([]domain.RankedEntry, error) {
	if s.legacy {
		return s.rankingLegacy(ctx, limit)
	}

	var entries []domain.RankedEntry
	if mode == domain.ModeAllTime {
		var rows []AllTimeScore
		err := s.db.NewSelect().Model(&rows).
			Where("region = ? AND format = ?", region, string(format)).
			OrderExpr("score DESC, created_at ASC").
			Limit(limit).
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("select all-time ranking: %w", err)
		}
		for i, row := range rows {
			entries = append(entries, domain.RankedEntry{
				Rank:      i + 1,
				Nickname:  row.Nickname,
				Score:     row.Score,
				CreatedAt: row.CreatedAt,
			})
		}
		return entries, nil
	}

	var rows []DailyScore
	err := s.db.NewSelect().Model(&rows).
		Where("region = ? AND format = ? AND date = ?", region, string(format), s.now().Format(dateLayout)).
		OrderExpr("score DESC, created_at ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select daily ranking: %w", err)
	}
	for i, row := range rows {
		entries = append(entries, domain.RankedEntry{
			Rank:      i + 1,
			Nickname:  row.Nickname,
			Score:     row.Score,
			CreatedAt: row.CreatedAt,
		})
	}
	return entries, nil
}

func (s *Store) rankingLegacy(ctx context.Context, limit int) ([]domain.RankedEntry, error) {
	var rows []LegacyScore
	err := s.db.NewSelect().Model(&rows).
		OrderExpr("score DESC, created_at ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select legacy ranking: %w", err)
	}

	entries := make([]domain.RankedEntry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, domain.RankedEntry{
			Rank:      i + 1,
			Nickname:  row.Nickname,
			Score:     row.Score,
			CreatedAt: row.CreatedAt,
		})
	}
	return entries, nil
}
