package sqlstore_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/migrate"

	"flag-trivia-service/internal/domain"
	"flag-trivia-service/internal/infra/sqlstore"
	"flag-trivia-service/internal/infra/sqlstore/migrations"
)

var dbSeq int

// openTestDB opens a private in-memory SQLite database. cache=shared
// keeps it alive across the pool's connections.
func openTestDB(t *testing.T) *bun.DB {
	t.Helper()
	dbSeq++
	dsn := fmt.Sprintf("file:sqlstore_test_%d?mode=memory&cache=shared", dbSeq)
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })
	return db
}

func migrateTestDB(t *testing.T, db *bun.DB) {
	t.Helper()
	ctx := context.Background()
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func entry(nickname string, score int, at time.Time) domain.ScoreEntry {
	return domain.ScoreEntry{
		Nickname:  nickname,
		Score:     score,
		Region:    "all",
		Format:    domain.FormatFlagToName,
		CreatedAt: at,
	}
}

func TestStoreSubmitAndDailyRanking(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	migrateTestDB(t, db)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store, err := sqlstore.New(ctx, db, sqlstore.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if store.Legacy() {
		t.Fatal("expected partitioned schema")
	}

	if rank, err := store.Submit(ctx, entry("alice", 500, now)); err != nil || rank != 1 {
		t.Fatalf("expected alice rank 1, got rank=%d err=%v", rank, err)
	}
	if rank, err := store.Submit(ctx, entry("bob", 800, now.Add(time.Second))); err != nil || rank != 1 {
		t.Fatalf("expected bob rank 1, got rank=%d err=%v", rank, err)
	}
	// Same score as alice but later: the earlier submission keeps the tie.
	if rank, err := store.Submit(ctx, entry("carol", 500, now.Add(2*time.Second))); err != nil || rank != 3 {
		t.Fatalf("expected carol rank 3, got rank=%d err=%v", rank, err)
	}

	board, err := store.Ranking(ctx, "all", domain.FormatFlagToName, domain.ModeDaily, 100)
	if err != nil {
		t.Fatalf("ranking: %v", err)
	}
	want := []string{"bob", "alice", "carol"}
	if len(board) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(board))
	}
	for i, nickname := range want {
		if board[i].Nickname != nickname || board[i].Rank != i+1 {
			t.Fatalf("position %d: expected %s, got %+v", i, nickname, board[i])
		}
	}
}

func TestStoreAllTimePruning(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	migrateTestDB(t, db)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store, err := sqlstore.New(ctx, db, sqlstore.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	scores := []int{100, 700, 300, 900, 500, 200, 800}
	for i, score := range scores {
		if _, err := store.Submit(ctx, entry(fmt.Sprintf("p%d", i), score, now.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	board, err := store.Ranking(ctx, "all", domain.FormatFlagToName, domain.ModeAllTime, 5)
	if err != nil {
		t.Fatalf("ranking: %v", err)
	}
	if len(board) != 5 {
		t.Fatalf("expected board pruned to 5, got %d", len(board))
	}
	want := []int{900, 800, 700, 500, 300}
	for i, score := range want {
		if board[i].Score != score {
			t.Fatalf("position %d: expected %d, got %d", i, score, board[i].Score)
		}
	}

	// A score below the fifth never enters the board.
	if _, err := store.Submit(ctx, entry("low", 50, now.Add(time.Minute))); err != nil {
		t.Fatalf("submit low: %v", err)
	}
	board, err = store.Ranking(ctx, "all", domain.FormatFlagToName, domain.ModeAllTime, 5)
	if err != nil {
		t.Fatalf("ranking: %v", err)
	}
	for _, e := range board {
		if e.Nickname == "low" {
			t.Fatal("expected low score excluded from all-time board")
		}
	}
}

func TestStoreDailyBoardScopedToToday(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	migrateTestDB(t, db)

	day1 := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	day2 := day1.Add(2 * time.Hour)
	today := day2
	store, err := sqlstore.New(ctx, db, sqlstore.WithClock(func() time.Time { return today }))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if _, err := store.Submit(ctx, entry("yesterday", 900, day1)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := store.Submit(ctx, entry("today", 100, day2)); err != nil {
		t.Fatalf("submit: %v", err)
	}

	board, err := store.Ranking(ctx, "all", domain.FormatFlagToName, domain.ModeDaily, 100)
	if err != nil {
		t.Fatalf("ranking: %v", err)
	}
	if len(board) != 1 || board[0].Nickname != "today" {
		t.Fatalf("expected only today's entry, got %+v", board)
	}
}

func TestStoreLegacyFallback(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	// Pre-partitioning schema: the single `ranking` table and nothing else.
	_, err := db.ExecContext(ctx, `CREATE TABLE ranking (
		nickname TEXT NOT NULL,
		score INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`)
	if err != nil {
		t.Fatalf("create legacy table: %v", err)
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store, err := sqlstore.New(ctx, db, sqlstore.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if !store.Legacy() {
		t.Fatal("expected legacy fallback")
	}

	if rank, err := store.Submit(ctx, entry("alice", 500, now)); err != nil || rank != 1 {
		t.Fatalf("expected rank 1, got rank=%d err=%v", rank, err)
	}
	if rank, err := store.Submit(ctx, entry("bob", 800, now.Add(time.Second))); err != nil || rank != 1 {
		t.Fatalf("expected rank 1, got rank=%d err=%v", rank, err)
	}

	// Legacy boards ignore region/format/mode distinctions.
	board, err := store.Ranking(ctx, "anything", domain.FormatNameToFlag, domain.ModeAllTime, 100)
	if err != nil {
		t.Fatalf("ranking: %v", err)
	}
	if len(board) != 2 || board[0].Nickname != "bob" {
		t.Fatalf("expected global legacy board, got %+v", board)
	}
}

func TestStoreProbeFailsWithoutAnySchema(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if _, err := sqlstore.New(ctx, db); err == nil {
		t.Fatal("expected probe error on empty database")
	}
}
