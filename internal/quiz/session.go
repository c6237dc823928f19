package quiz

import (
	"math"
	"sync"
	"time"

	"flag-trivia-service/internal/domain"
)

// Scoring constants shared by both quiz modes.
const (
	BasePoints           = 1000
	PartialPoints        = 500
	TimePenaltyPerSecond = 10
)

// State tracks the session lifecycle. Completed is terminal.
type State int

const (
	StateConfiguring State = iota
	StateInProgress
	StateCompleted
)

// AnswerRecord is an immutable per-question entry in the history.
type AnswerRecord struct {
	QuestionIndex int
	SelectedID    string
	Correct       bool
}

// AnswerResult reports the outcome of a single answer.
type AnswerResult struct {
	Correct   bool
	Completed bool
}

// Session is the single-field (flag) quiz state machine. The question
// sequence is fixed at creation; the only mutation after Start is
// answering the current question.
type Session struct {
	nickname  string
	format    domain.QuizFormat
	region    string
	questions []Question

	mu        sync.Mutex
	state     State
	index     int
	correct   int
	startTime time.Time
	endTime   time.Time
	history   []AnswerRecord
	now       func() time.Time
}

func NewSession(nickname string, format domain.QuizFormat, region string, questions []Question) *Session {
	return NewSessionWithClock(nickname, format, region, questions, time.Now)
}

// NewSessionWithClock allows deterministic timestamps in tests.
func NewSessionWithClock(nickname string, format domain.QuizFormat, region string, questions []Question, now func() time.Time) *Session {
	return &Session{
		nickname:  nickname,
		format:    format,
		region:    region,
		questions: questions,
		now:       now,
	}
}

func (s *Session) Nickname() string          { return s.nickname }
func (s *Session) Format() domain.QuizFormat { return s.format }
func (s *Session) Region() string            { return s.region }

func (s *Session) Questions() []Question { return s.questions }

// Start stamps the start time and resets progress counters.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateInProgress
	s.index = 0
	s.correct = 0
	s.startTime = s.now()
	s.endTime = time.Time{}
	s.history = nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentQuestion returns the question awaiting an answer.
func (s *Session) CurrentQuestion() (Question, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateConfiguring:
		return Question{}, 0, domain.ErrSessionNotStarted
	case StateCompleted:
		return Question{}, 0, domain.ErrSessionCompleted
	}
	return s.questions[s.index], s.index, nil
}

// Answer records the selection against the current question, advances,
// and completes the session after the last question.
func (s *Session) Answer(selectedID string) (AnswerResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateConfiguring:
		return AnswerResult{}, domain.ErrSessionNotStarted
	case StateCompleted:
		return AnswerResult{}, domain.ErrSessionCompleted
	}

	question := s.questions[s.index]
	correct := selectedID == question.Country.ID
	s.history = append(s.history, AnswerRecord{
		QuestionIndex: s.index,
		SelectedID:    selectedID,
		Correct:       correct,
	})
	if correct {
		s.correct++
	}

	if s.index < len(s.questions)-1 {
		s.index++
		return AnswerResult{Correct: correct}, nil
	}

	s.index++
	s.endTime = s.now()
	s.state = StateCompleted
	return AnswerResult{Correct: correct, Completed: true}, nil
}

func (s *Session) CorrectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.correct
}

func (s *Session) History() []AnswerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AnswerRecord, len(s.history))
	copy(out, s.history)
	return out
}

// Elapsed is the quiz duration in seconds, zero until completion.
func (s *Session) Elapsed() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startTime.IsZero() || s.endTime.IsZero() {
		return 0
	}
	return s.endTime.Sub(s.startTime).Seconds()
}

// FinalScore is defined only once the session is completed:
// max(0, correct*BasePoints - round(elapsedSeconds)*TimePenaltyPerSecond).
func (s *Session) FinalScore() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCompleted {
		return 0, domain.ErrSessionNotCompleted
	}
	elapsed := s.endTime.Sub(s.startTime).Seconds()
	score := s.correct*BasePoints - int(math.Round(elapsed))*TimePenaltyPerSecond
	if score < 0 {
		score = 0
	}
	return score, nil
}
