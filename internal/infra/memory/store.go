package memory

import (
	"context"
	"sync"
	"time"

	"exam-grading-service/internal/domain"
	"github.com/shopspring/decimal"
)

// Store is an in-memory implementation of the pipeline's store
// interfaces. It backs unit tests and the no-database demo mode.
//
// FailSetScore and FailReplace are optional hooks tests use to inject
// storage failures for particular rows.
type Store struct {
	mu                 sync.RWMutex
	questions          map[int64]domain.Question
	answers            map[int64]domain.Answer
	attempts           map[int64]*domain.Attempt
	participantAnswers []domain.ParticipantAnswer
	rankings           map[int64][]domain.RankingEntry
	rebuiltAt          map[int64]time.Time
	nextID             int64

	FailSetScore func(attemptID int64) error
	FailReplace  func(examID int64) error
}

func NewStore() *Store {
	return &Store{
		questions: make(map[int64]domain.Question),
		answers:   make(map[int64]domain.Answer),
		attempts:  make(map[int64]*domain.Attempt),
		rankings:  make(map[int64][]domain.RankingEntry),
		rebuiltAt: make(map[int64]time.Time),
	}
}

// AddQuestion registers a question and returns its ID.
func (s *Store) AddQuestion(text string, weight decimal.Decimal) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.questions[s.nextID] = domain.Question{ID: s.nextID, Text: text, Weight: weight}
	return s.nextID
}

// AddAnswer registers a candidate option for a question and returns its ID.
func (s *Store) AddAnswer(questionID int64, text string, correct bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.answers[s.nextID] = domain.Answer{ID: s.nextID, QuestionID: questionID, Text: text, Correct: correct}
	return s.nextID
}

// AddAttempt registers an ungraded attempt and returns its ID.
func (s *Store) AddAttempt(userID, examID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.attempts[s.nextID] = &domain.Attempt{ID: s.nextID, UserID: userID, ExamID: examID}
	return s.nextID
}

// AddParticipantAnswer records the option a participant chose for one question.
func (s *Store) AddParticipantAnswer(attemptID, questionID, answerID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.participantAnswers = append(s.participantAnswers, domain.ParticipantAnswer{
		ID: s.nextID, AttemptID: attemptID, QuestionID: questionID, AnswerID: answerID,
	})
}

func (s *Store) ListUngradedAttempts(_ context.Context) ([]domain.AttemptRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	refs := make([]domain.AttemptRef, 0)
	for _, a := range s.attempts {
		if a.Score == nil {
			refs = append(refs, domain.AttemptRef{AttemptID: a.ID, ExamID: a.ExamID})
		}
	}
	return refs, nil
}

func (s *Store) ListAnsweredQuestions(_ context.Context, attemptID int64) ([]domain.AnsweredQuestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	answered := make([]domain.AnsweredQuestion, 0)
	for _, pa := range s.participantAnswers {
		if pa.AttemptID != attemptID {
			continue
		}
		question, ok := s.questions[pa.QuestionID]
		if !ok {
			// Question deleted after the answer was recorded: no credit, no error.
			continue
		}
		answer, ok := s.answers[pa.AnswerID]
		answered = append(answered, domain.AnsweredQuestion{
			Weight:  question.Weight,
			Correct: ok && answer.Correct,
		})
	}
	return answered, nil
}

func (s *Store) SetAttemptScore(_ context.Context, attemptID int64, score decimal.Decimal) error {
	if s.FailSetScore != nil {
		if err := s.FailSetScore(attemptID); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, ok := s.attempts[attemptID]
	if !ok {
		return domain.ErrAttemptNotFound
	}
	if attempt.Score != nil {
		// Already graded by a concurrent pass; scores freeze at first grading.
		return nil
	}
	attempt.Score = &score
	return nil
}

func (s *Store) ListScoredAttempts(_ context.Context, examID int64) ([]domain.ScoredAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	scored := make([]domain.ScoredAttempt, 0)
	for _, a := range s.attempts {
		if a.ExamID == examID && a.Score != nil {
			scored = append(scored, domain.ScoredAttempt{AttemptID: a.ID, UserID: a.UserID, Score: *a.Score})
		}
	}
	return scored, nil
}

func (s *Store) ReplaceLeaderboard(_ context.Context, examID int64, entries []domain.RankingEntry) error {
	if s.FailReplace != nil {
		if err := s.FailReplace(examID); err != nil {
			// Failed replace leaves the previous entry set untouched.
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rankings[examID] = append([]domain.RankingEntry(nil), entries...)
	s.rebuiltAt[examID] = time.Now()
	return nil
}

func (s *Store) GetAttempt(_ context.Context, attemptID int64) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[attemptID]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return *attempt, nil
}

func (s *Store) GetLeaderboard(_ context.Context, examID int64) (domain.Leaderboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries, ok := s.rankings[examID]
	if !ok {
		return domain.Leaderboard{}, domain.ErrRankingNotFound
	}
	return domain.Leaderboard{
		ExamID:    examID,
		Entries:   append([]domain.RankingEntry(nil), entries...),
		RebuiltAt: s.rebuiltAt[examID],
	}, nil
}
