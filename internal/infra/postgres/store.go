package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"exam-grading-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"
)

// Store implements the grading, ranking and read interfaces on Postgres.
// Numeric columns travel as text so scores keep their fixed-point
// representation end to end.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) ListUngradedAttempts(ctx context.Context) ([]domain.AttemptRef, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, exam_id FROM attempts WHERE score IS NULL ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list ungraded attempts: %w", err)
	}
	defer rows.Close()

	refs := make([]domain.AttemptRef, 0)
	for rows.Next() {
		var ref domain.AttemptRef
		if err := rows.Scan(&ref.AttemptID, &ref.ExamID); err != nil {
			return nil, fmt.Errorf("scan attempt ref: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (s *Store) ListAnsweredQuestions(ctx context.Context, attemptID int64) ([]domain.AnsweredQuestion, error) {
	// LEFT JOINs keep grading going when a question or answer was deleted
	// under the attempt: such rows earn no credit instead of failing the pass.
	rows, err := s.pool.Query(ctx, `
		SELECT COALESCE(q.weight::text, '0'), COALESCE(a.correct, FALSE)
		FROM participant_answers pa
		LEFT JOIN questions q ON q.id = pa.question_id
		LEFT JOIN answers a ON a.id = pa.answer_id
		WHERE pa.attempt_id = $1`, attemptID)
	if err != nil {
		return nil, fmt.Errorf("list answered questions: %w", err)
	}
	defer rows.Close()

	answered := make([]domain.AnsweredQuestion, 0)
	for rows.Next() {
		var weightText string
		var correct bool
		if err := rows.Scan(&weightText, &correct); err != nil {
			return nil, fmt.Errorf("scan answered question: %w", err)
		}
		weight, err := decimal.NewFromString(weightText)
		if err != nil {
			return nil, fmt.Errorf("parse question weight %q: %w", weightText, err)
		}
		answered = append(answered, domain.AnsweredQuestion{Weight: weight, Correct: correct})
	}
	return answered, rows.Err()
}

func (s *Store) SetAttemptScore(ctx context.Context, attemptID int64, score decimal.Decimal) error {
	// The score IS NULL guard freezes scores at first grading even when
	// two workers race on the same snapshot.
	_, err := s.pool.Exec(ctx,
		`UPDATE attempts SET score = $2::numeric WHERE id = $1 AND score IS NULL`,
		attemptID, score.String())
	if err != nil {
		return fmt.Errorf("set attempt score: %w", err)
	}
	return nil
}

func (s *Store) ListScoredAttempts(ctx context.Context, examID int64) ([]domain.ScoredAttempt, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, score::text
		FROM attempts
		WHERE exam_id = $1 AND score IS NOT NULL
		ORDER BY score DESC, id ASC`, examID)
	if err != nil {
		return nil, fmt.Errorf("list scored attempts: %w", err)
	}
	defer rows.Close()

	scored := make([]domain.ScoredAttempt, 0)
	for rows.Next() {
		var sa domain.ScoredAttempt
		var scoreText string
		if err := rows.Scan(&sa.AttemptID, &sa.UserID, &scoreText); err != nil {
			return nil, fmt.Errorf("scan scored attempt: %w", err)
		}
		score, err := decimal.NewFromString(scoreText)
		if err != nil {
			return nil, fmt.Errorf("parse score %q: %w", scoreText, err)
		}
		sa.Score = score
		scored = append(scored, sa)
	}
	return scored, rows.Err()
}

func (s *Store) ReplaceLeaderboard(ctx context.Context, examID int64, entries []domain.RankingEntry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin leaderboard replace: %w", err)
	}
	defer tx.Rollback(ctx)

	// The upsert locks the ranking row for the rest of the transaction,
	// which serializes concurrent rebuilds of the same exam.
	var rankingID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO rankings (exam_id, rebuilt_at) VALUES ($1, now())
		ON CONFLICT (exam_id) DO UPDATE SET rebuilt_at = now()
		RETURNING id`, examID).Scan(&rankingID)
	if err != nil {
		return fmt.Errorf("get or create ranking: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM ranking_entries WHERE ranking_id = $1`, rankingID); err != nil {
		return fmt.Errorf("clear ranking entries: %w", err)
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(`
			INSERT INTO ranking_entries (ranking_id, position, user_id, attempt_id, score)
			VALUES ($1, $2, $3, $4, $5::numeric)`,
			rankingID, e.Position, e.UserID, e.AttemptID, e.Score.String())
	}
	results := tx.SendBatch(ctx, batch)
	for range entries {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("insert ranking entry: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("flush ranking entries: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *Store) GetAttempt(ctx context.Context, attemptID int64) (domain.Attempt, error) {
	var (
		attempt     domain.Attempt
		completedAt *time.Time
		scoreText   *string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, exam_id, completed_at, score::text
		FROM attempts WHERE id = $1`, attemptID).
		Scan(&attempt.ID, &attempt.UserID, &attempt.ExamID, &completedAt, &scoreText)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Attempt{}, domain.ErrAttemptNotFound
		}
		return domain.Attempt{}, fmt.Errorf("get attempt: %w", err)
	}
	attempt.CompletedAt = completedAt
	if scoreText != nil {
		score, err := decimal.NewFromString(*scoreText)
		if err != nil {
			return domain.Attempt{}, fmt.Errorf("parse score %q: %w", *scoreText, err)
		}
		attempt.Score = &score
	}
	return attempt, nil
}

func (s *Store) GetLeaderboard(ctx context.Context, examID int64) (domain.Leaderboard, error) {
	var (
		rankingID int64
		rebuiltAt time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, rebuilt_at FROM rankings WHERE exam_id = $1`, examID).
		Scan(&rankingID, &rebuiltAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Leaderboard{}, domain.ErrRankingNotFound
		}
		return domain.Leaderboard{}, fmt.Errorf("get ranking: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT position, user_id, attempt_id, score::text
		FROM ranking_entries
		WHERE ranking_id = $1
		ORDER BY position`, rankingID)
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("list ranking entries: %w", err)
	}
	defer rows.Close()

	lb := domain.Leaderboard{ExamID: examID, RebuiltAt: rebuiltAt, Entries: make([]domain.RankingEntry, 0)}
	for rows.Next() {
		var entry domain.RankingEntry
		var scoreText string
		if err := rows.Scan(&entry.Position, &entry.UserID, &entry.AttemptID, &scoreText); err != nil {
			return domain.Leaderboard{}, fmt.Errorf("scan ranking entry: %w", err)
		}
		score, err := decimal.NewFromString(scoreText)
		if err != nil {
			return domain.Leaderboard{}, fmt.Errorf("parse entry score %q: %w", scoreText, err)
		}
		entry.Score = score
		lb.Entries = append(lb.Entries, entry)
	}
	return lb, rows.Err()
}
