package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"flag-trivia-service/internal/domain"
	"flag-trivia-service/internal/ranking"
)

// RankingStore is an in-memory implementation of ranking.Store with the
// partitioned semantics of the SQL store. It backs tests and the no-DB
// development mode.
type RankingStore struct {
	now     func() time.Time
	mu      sync.Mutex
	daily   map[string][]domain.ScoreEntry
	allTime map[string][]domain.ScoreEntry
}

func NewRankingStore() *RankingStore {
	return NewRankingStoreWithClock(time.Now)
}

// NewRankingStoreWithClock allows a fixed notion of "today" in tests.
func NewRankingStoreWithClock(now func() time.Time) *RankingStore {
	return &RankingStore{
		now:     now,
		daily:   make(map[string][]domain.ScoreEntry),
		allTime: make(map[string][]domain.ScoreEntry),
	}
}

func dailyKey(region string, format domain.QuizFormat, date string) string {
	return region + "|" + string(format) + "|" + date
}

func allTimeKey(region string, format domain.QuizFormat) string {
	return region + "|" + string(format)
}

func (s *RankingStore) Submit(_ context.Context, entry domain.ScoreEntry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dk := dailyKey(entry.Region, entry.Format, entry.CreatedAt.Format("2006-01-02"))
	s.daily[dk] = append(s.daily[dk], entry)

	ak := allTimeKey(entry.Region, entry.Format)
	board := s.allTime[ak]
	fifth := 0
	if len(board) > 0 {
		fifth = board[len(board)-1].Score
	}
	if len(board) < ranking.AllTimeLimit || entry.Score > fifth {
		board = append(board, entry)
		sortEntries(board)
		if len(board) > ranking.AllTimeLimit {
			board = board[:ranking.AllTimeLimit]
		}
		s.allTime[ak] = board
	}

	// Same ordering rule as the SQL rank query: strictly higher scores,
	// or equal scores submitted earlier, rank above this entry.
	rank := 1
	for _, e := range s.daily[dk] {
		if e.Score > entry.Score || (e.Score == entry.Score && e.CreatedAt.Before(entry.CreatedAt)) {
			rank++
		}
	}
	return rank, nil
}

func (s *RankingStore) Ranking(_ context.Context, region string, format domain.QuizFormat, mode domain.RankingMode, limit int) ([]domain.RankedEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var board []domain.ScoreEntry
	if mode == domain.ModeAllTime {
		board = s.allTime[allTimeKey(region, format)]
	} else {
		board = s.daily[dailyKey(region, format, s.now().Format("2006-01-02"))]
	}

	sorted := make([]domain.ScoreEntry, len(board))
	copy(sorted, board)
	sortEntries(sorted)
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	ranked := make([]domain.RankedEntry, 0, len(sorted))
	for i, e := range sorted {
		ranked = append(ranked, domain.RankedEntry{
			Rank:      i + 1,
			Nickname:  e.Nickname,
			Score:     e.Score,
			CreatedAt: e.CreatedAt,
		})
	}
	return ranked, nil
}

func sortEntries(entries []domain.ScoreEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
}
