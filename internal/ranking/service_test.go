package ranking_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"flag-trivia-service/internal/domain"
	"flag-trivia-service/internal/infra/memory"
	"flag-trivia-service/internal/ranking"
)

func newTestService(t *testing.T) (*ranking.Service, func() time.Time) {
	t.Helper()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := base
	clock := func() time.Time {
		current = current.Add(time.Second)
		return current
	}
	store := memory.NewRankingStoreWithClock(func() time.Time { return base })
	return ranking.NewService(store, ranking.WithClock(clock)), clock
}

func TestSubmitScoreValidation(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		sub   ranking.Submission
		field string
	}{
		{"empty nickname", ranking.Submission{Nickname: "", Score: 100}, "nickname"},
		{"whitespace nickname", ranking.Submission{Nickname: "   ", Score: 100}, "nickname"},
		{"too long", ranking.Submission{Nickname: strings.Repeat("a", 21), Score: 100}, "nickname"},
		{"script tag", ranking.Submission{Nickname: "<script>alert(1)", Score: 100}, "nickname"},
		{"encoded angle bracket", ranking.Submission{Nickname: "a&lt;b", Score: 100}, "nickname"},
		{"event handler", ranking.Submission{Nickname: "onclick=x", Score: 100}, "nickname"},
		{"control character", ranking.Submission{Nickname: "bad\x00name", Score: 100}, "nickname"},
		{"negative score", ranking.Submission{Nickname: "alice", Score: -1}, "score"},
		{"score too high", ranking.Submission{Nickname: "alice", Score: 1000001}, "score"},
		{"unknown format", ranking.Submission{Nickname: "alice", Score: 100, Format: "foo"}, "format"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.SubmitScore(ctx, tc.sub)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			found := false
			for _, f := range verr.Fields {
				if f.Field == tc.field {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected error on field %s, got %+v", tc.field, verr.Fields)
			}
		})
	}
}

func TestSubmitScoreAcceptsBoundaryNickname(t *testing.T) {
	service, _ := newTestService(t)

	receipt, err := service.SubmitScore(context.Background(), ranking.Submission{
		Nickname: strings.Repeat("a", 20),
		Score:    1000000,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if receipt.Rank != 1 {
		t.Fatalf("expected rank 1, got %d", receipt.Rank)
	}
}

func TestSubmitScoreRanksAgainstDailyBoard(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	submit := func(nickname string, score int) domain.Receipt {
		t.Helper()
		receipt, err := service.SubmitScore(ctx, ranking.Submission{Nickname: nickname, Score: score})
		if err != nil {
			t.Fatalf("submit %s: %v", nickname, err)
		}
		return receipt
	}

	if r := submit("alice", 500); r.Rank != 1 {
		t.Fatalf("expected alice rank 1, got %d", r.Rank)
	}
	if r := submit("bob", 800); r.Rank != 1 {
		t.Fatalf("expected bob rank 1, got %d", r.Rank)
	}
	// Same score as alice, submitted later: alice keeps the tie.
	if r := submit("carol", 500); r.Rank != 3 {
		t.Fatalf("expected carol rank 3, got %d", r.Rank)
	}

	entries, err := service.GetRanking(ctx, "", domain.FormatFlagToName, domain.ModeDaily)
	if err != nil {
		t.Fatalf("get ranking: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	order := []string{"bob", "alice", "carol"}
	for i, want := range order {
		if entries[i].Nickname != want || entries[i].Rank != i+1 {
			t.Fatalf("position %d: expected %s, got %+v", i, want, entries[i])
		}
	}
}

func TestAllTimeBoardKeepsTopFive(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	scores := []int{100, 700, 300, 900, 500, 200, 800}
	for i, score := range scores {
		_, err := service.SubmitScore(ctx, ranking.Submission{
			Nickname: "player" + string(rune('a'+i)),
			Score:    score,
		})
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	entries, err := service.GetRanking(ctx, "all", domain.FormatFlagToName, domain.ModeAllTime)
	if err != nil {
		t.Fatalf("get ranking: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("expected top 5, got %d", len(entries))
	}
	want := []int{900, 800, 700, 500, 300}
	for i, score := range want {
		if entries[i].Score != score {
			t.Fatalf("position %d: expected score %d, got %d", i, score, entries[i].Score)
		}
	}
}

func TestGetRankingLenientDefaults(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	if _, err := service.SubmitScore(ctx, ranking.Submission{Nickname: "alice", Score: 100}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Unknown mode and format fall back to the daily flag-to-name board.
	entries, err := service.GetRanking(ctx, "", domain.QuizFormat("bogus"), domain.RankingMode("weekly"))
	if err != nil {
		t.Fatalf("get ranking: %v", err)
	}
	if len(entries) != 1 || entries[0].Nickname != "alice" {
		t.Fatalf("expected daily board fallback, got %+v", entries)
	}
}

func TestSubscribeDailyReceivesUpdates(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	updates, cancel := service.SubscribeDaily("all", domain.FormatFlagToName)
	defer cancel()

	if _, err := service.SubmitScore(ctx, ranking.Submission{Nickname: "alice", Score: 100}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	select {
	case update := <-updates:
		if len(update.Entries) != 1 || update.Entries[0].Nickname != "alice" {
			t.Fatalf("unexpected update %+v", update)
		}
	case <-time.After(time.Second):
		t.Fatal("expected leaderboard update")
	}
}

type countingCache struct {
	entries map[string][]domain.RankedEntry
	gets    int
	sets    int
}

func (c *countingCache) key(region string, format domain.QuizFormat, mode domain.RankingMode) string {
	return region + "|" + string(format) + "|" + string(mode)
}

func (c *countingCache) Get(_ context.Context, region string, format domain.QuizFormat, mode domain.RankingMode) ([]domain.RankedEntry, bool, error) {
	c.gets++
	entries, ok := c.entries[c.key(region, format, mode)]
	return entries, ok, nil
}

func (c *countingCache) Set(_ context.Context, region string, format domain.QuizFormat, mode domain.RankingMode, entries []domain.RankedEntry) error {
	c.sets++
	c.entries[c.key(region, format, mode)] = entries
	return nil
}

func (c *countingCache) Invalidate(_ context.Context, region string, format domain.QuizFormat) error {
	delete(c.entries, c.key(region, format, domain.ModeDaily))
	delete(c.entries, c.key(region, format, domain.ModeAllTime))
	return nil
}

func TestGetRankingUsesCache(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := memory.NewRankingStoreWithClock(func() time.Time { return base })
	cache := &countingCache{entries: map[string][]domain.RankedEntry{}}
	service := ranking.NewService(store,
		ranking.WithClock(func() time.Time { return base }),
		ranking.WithCache(cache),
	)
	ctx := context.Background()

	if _, err := service.SubmitScore(ctx, ranking.Submission{Nickname: "alice", Score: 100}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := service.GetRanking(ctx, "all", domain.FormatFlagToName, domain.ModeDaily); err != nil {
		t.Fatalf("get ranking: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("expected board cached once, sets=%d", cache.sets)
	}

	entries, err := service.GetRanking(ctx, "all", domain.FormatFlagToName, domain.ModeDaily)
	if err != nil {
		t.Fatalf("get ranking: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("expected cache hit on second read, sets=%d", cache.sets)
	}
	if len(entries) != 1 || entries[0].Nickname != "alice" {
		t.Fatalf("unexpected cached entries %+v", entries)
	}

	// A new submission drops the cached board.
	if _, err := service.SubmitScore(ctx, ranking.Submission{Nickname: "bob", Score: 200}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(cache.entries) != 0 {
		t.Fatalf("expected cache invalidated, %d keys left", len(cache.entries))
	}
}
