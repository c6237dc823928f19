package quiz

import (
	"math"
	"sync"
	"time"

	"flag-trivia-service/internal/domain"
)

// PaintingAnswerRecord keeps both field verdicts; a partial match is
// recorded but does not count towards the fully-correct tally.
type PaintingAnswerRecord struct {
	QuestionIndex  int
	SelectedArtist string
	SelectedTitle  string
	ArtistCorrect  bool
	TitleCorrect   bool
	FullyCorrect   bool
}

// PaintingAnswerResult reports the outcome of a dual-field answer.
type PaintingAnswerResult struct {
	ArtistCorrect bool
	TitleCorrect  bool
	FullyCorrect  bool
	Completed     bool
}

// PaintingSession is the dual-field quiz state machine: an answer is
// fully correct only when both the artist and the title match.
type PaintingSession struct {
	nickname  string
	questions []PaintingQuestion

	mu        sync.Mutex
	state     State
	index     int
	fully     int
	startTime time.Time
	endTime   time.Time
	history   []PaintingAnswerRecord
	now       func() time.Time
}

func NewPaintingSession(nickname string, questions []PaintingQuestion) *PaintingSession {
	return NewPaintingSessionWithClock(nickname, questions, time.Now)
}

// NewPaintingSessionWithClock allows deterministic timestamps in tests.
func NewPaintingSessionWithClock(nickname string, questions []PaintingQuestion, now func() time.Time) *PaintingSession {
	return &PaintingSession{
		nickname:  nickname,
		questions: questions,
		now:       now,
	}
}

func (s *PaintingSession) Nickname() string { return s.nickname }

func (s *PaintingSession) Questions() []PaintingQuestion { return s.questions }

func (s *PaintingSession) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateInProgress
	s.index = 0
	s.fully = 0
	s.startTime = s.now()
	s.endTime = time.Time{}
	s.history = nil
}

func (s *PaintingSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *PaintingSession) CurrentQuestion() (PaintingQuestion, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateConfiguring:
		return PaintingQuestion{}, 0, domain.ErrSessionNotStarted
	case StateCompleted:
		return PaintingQuestion{}, 0, domain.ErrSessionCompleted
	}
	return s.questions[s.index], s.index, nil
}

// Answer records both selections against the current painting.
func (s *PaintingSession) Answer(selectedArtist, selectedTitle string) (PaintingAnswerResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateConfiguring:
		return PaintingAnswerResult{}, domain.ErrSessionNotStarted
	case StateCompleted:
		return PaintingAnswerResult{}, domain.ErrSessionCompleted
	}

	question := s.questions[s.index]
	artistCorrect := selectedArtist == question.Painting.Artist
	titleCorrect := selectedTitle == question.Painting.Name
	fully := artistCorrect && titleCorrect

	s.history = append(s.history, PaintingAnswerRecord{
		QuestionIndex:  s.index,
		SelectedArtist: selectedArtist,
		SelectedTitle:  selectedTitle,
		ArtistCorrect:  artistCorrect,
		TitleCorrect:   titleCorrect,
		FullyCorrect:   fully,
	})
	if fully {
		s.fully++
	}

	result := PaintingAnswerResult{
		ArtistCorrect: artistCorrect,
		TitleCorrect:  titleCorrect,
		FullyCorrect:  fully,
	}

	if s.index < len(s.questions)-1 {
		s.index++
		return result, nil
	}

	s.index++
	s.endTime = s.now()
	s.state = StateCompleted
	result.Completed = true
	return result, nil
}

func (s *PaintingSession) FullyCorrectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fully
}

// PartialCount is the number of answers where exactly one field matched.
func (s *PaintingSession) PartialCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.partialLocked()
}

func (s *PaintingSession) partialLocked() int {
	n := 0
	for _, rec := range s.history {
		if !rec.FullyCorrect && (rec.ArtistCorrect || rec.TitleCorrect) {
			n++
		}
	}
	return n
}

func (s *PaintingSession) History() []PaintingAnswerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PaintingAnswerRecord, len(s.history))
	copy(out, s.history)
	return out
}

// FinalScore is defined only once completed:
// max(0, fully*BasePoints + partial*PartialPoints - round(elapsed)*TimePenaltyPerSecond).
func (s *PaintingSession) FinalScore() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCompleted {
		return 0, domain.ErrSessionNotCompleted
	}
	elapsed := s.endTime.Sub(s.startTime).Seconds()
	score := s.fully*BasePoints + s.partialLocked()*PartialPoints - int(math.Round(elapsed))*TimePenaltyPerSecond
	if score < 0 {
		score = 0
	}
	return score, nil
}
