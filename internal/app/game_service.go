package app

import (
	"context"
	"math/rand"

	"github.com/google/uuid"

	"flag-trivia-service/internal/domain"
	"flag-trivia-service/internal/quiz"
	"flag-trivia-service/internal/ranking"
)

// SessionRepository abstracts how game sessions are stored.
type SessionRepository interface {
	Put(session *GameSession)
	Get(id string) (*GameSession, bool)
	Delete(id string)
}

// DatasetRepository loads the reference datasets (from cache/backing store).
type DatasetRepository interface {
	Countries(ctx context.Context, lang string) ([]domain.Country, error)
	Paintings(ctx context.Context, lang string) ([]domain.Painting, error)
}

// ScoreSubmitter pushes a finished session's score into the ranking
// service. Satisfied by *ranking.Service.
type ScoreSubmitter interface {
	SubmitScore(ctx context.Context, sub ranking.Submission) (domain.Receipt, error)
}

// GameSession wraps one in-flight quiz of either mode.
type GameSession struct {
	ID       string
	Region   string
	Language string
	Flag     *quiz.Session
	Painting *quiz.PaintingSession
}

// GameService contains the quiz-play use cases: setting up a session
// from the dataset, answering, and submitting the final score.
type GameService struct {
	sessions SessionRepository
	datasets DatasetRepository
	ranking  ScoreSubmitter
	gen      *quiz.Generator
}

type GameOption func(*GameService)

// WithRand makes question generation reproducible in tests.
func WithRand(rnd *rand.Rand) GameOption {
	return func(s *GameService) { s.gen = quiz.NewGenerator(rnd) }
}

func NewGameService(sessions SessionRepository, datasets DatasetRepository, submitter ScoreSubmitter, opts ...GameOption) *GameService {
	s := &GameService{
		sessions: sessions,
		datasets: datasets,
		ranking:  submitter,
		gen:      quiz.NewGenerator(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartFlagQuizParams finalizes quiz setup; the session is created and
// started in one step.
type StartFlagQuizParams struct {
	Nickname  string
	Format    domain.QuizFormat
	Region    string
	Language  string
	Questions int
}

// StartFlagQuiz builds a randomized flag quiz from the countries
// dataset, optionally filtered to one continent, and starts it.
func (s *GameService) StartFlagQuiz(ctx context.Context, p StartFlagQuizParams) (*GameSession, error) {
	if !p.Format.Valid() {
		p.Format = domain.FormatFlagToName
	}
	if p.Region == "" {
		p.Region = domain.DefaultRegion
	}

	countries, err := s.datasets.Countries(ctx, p.Language)
	if err != nil {
		return nil, err
	}
	if p.Region != domain.DefaultRegion {
		filtered := countries[:0:0]
		for _, c := range countries {
			if c.Continent == p.Region {
				filtered = append(filtered, c)
			}
		}
		countries = filtered
	}
	if len(countries) == 0 {
		return nil, domain.ErrDatasetEmpty
	}

	questions, err := s.gen.CountryQuestions(countries, p.Questions)
	if err != nil {
		return nil, err
	}

	session := &GameSession{
		ID:       uuid.NewString(),
		Region:   p.Region,
		Language: p.Language,
		Flag:     quiz.NewSession(p.Nickname, p.Format, p.Region, questions),
	}
	session.Flag.Start()
	s.sessions.Put(session)
	return session, nil
}

// StartPaintingQuizParams finalizes setup for the dual-field mode.
type StartPaintingQuizParams struct {
	Nickname  string
	Language  string
	Questions int
}

func (s *GameService) StartPaintingQuiz(ctx context.Context, p StartPaintingQuizParams) (*GameSession, error) {
	paintings, err := s.datasets.Paintings(ctx, p.Language)
	if err != nil {
		return nil, err
	}
	if len(paintings) == 0 {
		return nil, domain.ErrDatasetEmpty
	}

	questions, err := s.gen.PaintingQuestions(paintings, p.Questions)
	if err != nil {
		return nil, err
	}

	session := &GameSession{
		ID:       uuid.NewString(),
		Region:   domain.DefaultRegion,
		Language: p.Language,
		Painting: quiz.NewPaintingSession(p.Nickname, questions),
	}
	session.Painting.Start()
	s.sessions.Put(session)
	return session, nil
}

// AnswerFlag records an answer on a flag session.
func (s *GameService) AnswerFlag(_ context.Context, id, optionID string) (quiz.AnswerResult, error) {
	session, ok := s.sessions.Get(id)
	if !ok || session.Flag == nil {
		return quiz.AnswerResult{}, domain.ErrSessionNotFound
	}
	return session.Flag.Answer(optionID)
}

// AnswerPainting records a dual-field answer on a painting session.
func (s *GameService) AnswerPainting(_ context.Context, id, artist, title string) (quiz.PaintingAnswerResult, error) {
	session, ok := s.sessions.Get(id)
	if !ok || session.Painting == nil {
		return quiz.PaintingAnswerResult{}, domain.ErrSessionNotFound
	}
	return session.Painting.Answer(artist, title)
}

// Result summarizes a completed session.
type Result struct {
	Nickname   string  `json:"nickname"`
	Score      int     `json:"score"`
	Correct    int     `json:"correct"`
	Partial    int     `json:"partial,omitempty"`
	Questions  int     `json:"questions"`
	ElapsedSec float64 `json:"elapsedSec"`
}

func (s *GameService) Result(_ context.Context, id string) (Result, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return Result{}, domain.ErrSessionNotFound
	}

	if session.Flag != nil {
		score, err := session.Flag.FinalScore()
		if err != nil {
			return Result{}, err
		}
		return Result{
			Nickname:   session.Flag.Nickname(),
			Score:      score,
			Correct:    session.Flag.CorrectCount(),
			Questions:  len(session.Flag.Questions()),
			ElapsedSec: session.Flag.Elapsed(),
		}, nil
	}

	score, err := session.Painting.FinalScore()
	if err != nil {
		return Result{}, err
	}
	return Result{
		Nickname:  session.Painting.Nickname(),
		Score:     score,
		Correct:   session.Painting.FullyCorrectCount(),
		Partial:   session.Painting.PartialCount(),
		Questions: len(session.Painting.Questions()),
	}, nil
}

// SubmitResult pushes a completed flag session's score to the ranking
// service and drops the session. Painting sessions have no leaderboard
// format and cannot be submitted.
func (s *GameService) SubmitResult(ctx context.Context, id string) (domain.Receipt, error) {
	session, ok := s.sessions.Get(id)
	if !ok || session.Flag == nil {
		return domain.Receipt{}, domain.ErrSessionNotFound
	}

	score, err := session.Flag.FinalScore()
	if err != nil {
		return domain.Receipt{}, err
	}

	receipt, err := s.ranking.SubmitScore(ctx, ranking.Submission{
		Nickname: session.Flag.Nickname(),
		Score:    score,
		Region:   session.Region,
		Format:   string(session.Flag.Format()),
	})
	if err != nil {
		return domain.Receipt{}, err
	}

	s.sessions.Delete(id)
	return receipt, nil
}

// Abandon discards an in-flight session without persisting anything.
func (s *GameService) Abandon(_ context.Context, id string) {
	s.sessions.Delete(id)
}
