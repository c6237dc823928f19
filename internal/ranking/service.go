package ranking

import (
	"context"
	"time"

	"flag-trivia-service/internal/domain"
)

// Board size limits per mode.
const (
	DailyLimit   = 100
	AllTimeLimit = 5
)

// Store persists score entries and answers ranking queries. The SQL
// implementation falls back to the legacy single-table schema when the
// partitioned tables are not provisioned.
type Store interface {
	// Submit inserts the entry into the daily board, maintains the
	// capped all-time board, and returns the 1-based daily rank of this
	// exact submission.
	Submit(ctx context.Context, entry domain.ScoreEntry) (int, error)
	// Ranking returns up to limit entries for the partition, ordered by
	// score descending then created_at ascending.
	Ranking(ctx context.Context, region string, format domain.QuizFormat, mode domain.RankingMode, limit int) ([]domain.RankedEntry, error)
}

// Cache is an optional short-TTL read cache for leaderboard queries.
// All methods are best-effort; failures never fail a request.
type Cache interface {
	Get(ctx context.Context, region string, format domain.QuizFormat, mode domain.RankingMode) ([]domain.RankedEntry, bool, error)
	Set(ctx context.Context, region string, format domain.QuizFormat, mode domain.RankingMode, entries []domain.RankedEntry) error
	Invalidate(ctx context.Context, region string, format domain.QuizFormat) error
}

// Service implements the ranking use cases on top of a Store.
type Service struct {
	store Store
	cache Cache
	hub   *hub
	now   func() time.Time
}

type Option func(*Service)

// WithCache attaches a leaderboard read cache.
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithClock allows deterministic submission timestamps in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		hub:   newHub(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitScore validates the submission, persists it, and returns the
// submitter's daily rank. Validation failures are reported before any
// side effect; storage failures surface as *domain.StorageError.
func (s *Service) SubmitScore(ctx context.Context, sub Submission) (domain.Receipt, error) {
	entry, verr := validate(sub)
	if verr != nil {
		return domain.Receipt{}, verr
	}
	entry.CreatedAt = s.now()

	rank, err := s.store.Submit(ctx, entry)
	if err != nil {
		return domain.Receipt{}, &domain.StorageError{Op: "submit score", Err: err}
	}

	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, entry.Region, entry.Format)
	}
	s.publishDaily(ctx, entry.Region, entry.Format)

	return domain.Receipt{
		Rank:     rank,
		Nickname: entry.Nickname,
		Score:    entry.Score,
	}, nil
}

// GetRanking returns the annotated leaderboard for the partition.
// Unknown modes fall back to daily; empty region/format take defaults.
func (s *Service) GetRanking(ctx context.Context, region string, format domain.QuizFormat, mode domain.RankingMode) ([]domain.RankedEntry, error) {
	if region == "" {
		region = domain.DefaultRegion
	}
	if !format.Valid() {
		format = domain.FormatFlagToName
	}
	limit := DailyLimit
	if mode == domain.ModeAllTime {
		limit = AllTimeLimit
	} else {
		mode = domain.ModeDaily
	}

	if s.cache != nil {
		if entries, ok, err := s.cache.Get(ctx, region, format, mode); err == nil && ok {
			return entries, nil
		}
	}

	entries, err := s.store.Ranking(ctx, region, format, mode, limit)
	if err != nil {
		return nil, &domain.StorageError{Op: "get ranking", Err: err}
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, region, format, mode, entries)
	}
	return entries, nil
}

// SubscribeDaily streams refreshed daily leaderboards for a partition
// after each successful submission. The caller must invoke cancel.
func (s *Service) SubscribeDaily(region string, format domain.QuizFormat) (<-chan Update, func()) {
	return s.hub.subscribe(region, format)
}

// publishDaily pushes the updated board to subscribers; best-effort, a
// failed read just skips the broadcast.
func (s *Service) publishDaily(ctx context.Context, region string, format domain.QuizFormat) {
	if !s.hub.hasSubscribers(region, format) {
		return
	}
	entries, err := s.store.Ranking(ctx, region, format, domain.ModeDaily, DailyLimit)
	if err != nil {
		return
	}
	s.hub.publish(Update{Region: region, Format: format, Entries: entries})
}
