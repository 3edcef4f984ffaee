package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Exam is a named collection of weighted questions defined by administrators.
type Exam struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
}

// Question is one weighted item on an exam. A question may appear on
// several exams; Weight is the credit granted for a correct answer.
type Question struct {
	ID     int64           `json:"id"`
	Text   string          `json:"text"`
	Weight decimal.Decimal `json:"weight"`
	Order  int             `json:"order"`
}

// Answer is one candidate option for a question.
type Answer struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"questionId"`
	Text       string `json:"text"`
	Correct    bool   `json:"correct"`
}

// Attempt is one participant's run through an exam. Score stays nil
// until the grading job has processed the attempt; once set it is
// never recomputed.
type Attempt struct {
	ID          int64            `json:"id"`
	UserID      int64            `json:"userId"`
	ExamID      int64            `json:"examId"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
	Score       *decimal.Decimal `json:"score,omitempty"`
}

// ParticipantAnswer records the option a participant chose for one
// question within one attempt. At most one row exists per
// (attempt, question) pair.
type ParticipantAnswer struct {
	ID         int64 `json:"id"`
	AttemptID  int64 `json:"attemptId"`
	QuestionID int64 `json:"questionId"`
	AnswerID   int64 `json:"answerId"`
}

// AnsweredQuestion is the grading projection of one participant answer:
// the weight of the question and whether the chosen option was correct.
type AnsweredQuestion struct {
	Weight  decimal.Decimal
	Correct bool
}

// AttemptRef identifies one grading candidate and the exam it belongs to.
type AttemptRef struct {
	AttemptID int64
	ExamID    int64
}

// ScoredAttempt is one ranking input row: a graded attempt joined with
// its owning user.
type ScoredAttempt struct {
	AttemptID int64
	UserID    int64
	Score     decimal.Decimal
}

// RankingEntry is one leaderboard row. Position is 1-based.
type RankingEntry struct {
	Position  int             `json:"position"`
	UserID    int64           `json:"userId"`
	AttemptID int64           `json:"attemptId"`
	Score     decimal.Decimal `json:"score"`
}

// Leaderboard is the ordered scoreboard for one exam, rebuilt wholesale
// by the ranking builder.
type Leaderboard struct {
	ExamID    int64          `json:"examId"`
	Entries   []RankingEntry `json:"entries"`
	RebuiltAt time.Time      `json:"rebuiltAt"`
}
