package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"letscode/internal/common"
	"letscode/internal/domain/model"
)

type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, tx *sql.Tx, sub *model.Submission) error
	GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error)
	ListSubmissionsByUser(ctx context.Context, userID string, limit, offset int) ([]model.Submission, int, error)

	// HasRecentSubmission reports whether the user submitted anything for the problem after since.
	HasRecentSubmission(ctx context.Context, userID, problemID string, since time.Time) (bool, error)
	// CountByUserUntil counts the user's runs and submits created at or before until.
	CountByUserUntil(ctx context.Context, tx *sql.Tx, userID string, until time.Time) (int, error)

	// MarkProblemSolved adds the problem to the user's solved set; false if it was already there.
	MarkProblemSolved(ctx context.Context, tx *sql.Tx, userID, problemID, submissionID string) (bool, error)
	// ClaimProgress records that the submission's progress effect is applied; false if it already was.
	ClaimProgress(ctx context.Context, tx *sql.Tx, submissionID string) (bool, error)
	// ListUnappliedAccepted returns accepted final submissions not yet claimed.
	ListUnappliedAccepted(ctx context.Context, olderThan time.Time, limit int) ([]string, error)
}

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

const submissionColumns = `id, user_id, problem_id, source_code, language_id, status, test_results,
	total_runtime, total_memory, final_submission, question_title, created_at, daily_valid_till`

func scanSubmission(row interface{ Scan(...any) error }) (*model.Submission, error) {
	s := &model.Submission{}
	var results []byte
	err := row.Scan(&s.ID, &s.UserID, &s.ProblemID, &s.SourceCode, &s.LanguageID, &s.Status, &results,
		&s.TotalRuntime, &s.TotalMemory, &s.FinalSubmission, &s.QuestionTitle, &s.CreatedAt, &s.DailyValidTill)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(results, &s.TestResults); err != nil {
		return nil, fmt.Errorf("decode test_results: %w", err)
	}
	return s, nil
}

func (r *pgSubmissionRepository) CreateSubmission(ctx context.Context, tx *sql.Tx, sub *model.Submission) error {
	results, err := json.Marshal(sub.TestResults)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.CreateSubmission marshal: %w", err)
	}
	query := `INSERT INTO submissions (id, user_id, problem_id, source_code, language_id, status, test_results,
	                                   total_runtime, total_memory, final_submission, question_title, daily_valid_till)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          RETURNING created_at`
	err = pick(r.db, tx).QueryRowContext(ctx, query,
		sub.ID, sub.UserID, sub.ProblemID, sub.SourceCode, sub.LanguageID, sub.Status, results,
		sub.TotalRuntime, sub.TotalMemory, sub.FinalSubmission, sub.QuestionTitle, sub.DailyValidTill,
	).Scan(&sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.CreateSubmission: %w", err)
	}
	return nil
}

func (r *pgSubmissionRepository) GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	sub, err := scanSubmission(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSubmissionRepository.GetSubmissionByID: %w", err)
	}
	return sub, nil
}

func (r *pgSubmissionRepository) ListSubmissionsByUser(ctx context.Context, userID string, limit, offset int) ([]model.Submission, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgSubmissionRepository.ListSubmissionsByUser count: %w", err)
	}

	query := `SELECT ` + submissionColumns + ` FROM submissions
	          WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("pgSubmissionRepository.ListSubmissionsByUser: %w", err)
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("pgSubmissionRepository.ListSubmissionsByUser scan: %w", err)
		}
		subs = append(subs, *s)
	}
	return subs, total, rows.Err()
}

func (r *pgSubmissionRepository) HasRecentSubmission(ctx context.Context, userID, problemID string, since time.Time) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM submissions WHERE user_id = $1 AND problem_id = $2 AND created_at > $3)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, problemID, since).Scan(&exists); err != nil {
		return false, fmt.Errorf("pgSubmissionRepository.HasRecentSubmission: %w", err)
	}
	return exists, nil
}

func (r *pgSubmissionRepository) CountByUserUntil(ctx context.Context, tx *sql.Tx, userID string, until time.Time) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM submissions WHERE user_id = $1 AND created_at <= $2`
	if err := pick(r.db, tx).QueryRowContext(ctx, query, userID, until).Scan(&n); err != nil {
		return 0, fmt.Errorf("pgSubmissionRepository.CountByUserUntil: %w", err)
	}
	return n, nil
}

func (r *pgSubmissionRepository) MarkProblemSolved(ctx context.Context, tx *sql.Tx, userID, problemID, submissionID string) (bool, error) {
	query := `INSERT INTO user_solved_problems (user_id, problem_id, submission_id)
	          VALUES ($1, $2, $3) ON CONFLICT (user_id, problem_id) DO NOTHING`
	res, err := pick(r.db, tx).ExecContext(ctx, query, userID, problemID, submissionID)
	if err != nil {
		return false, fmt.Errorf("pgSubmissionRepository.MarkProblemSolved: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("pgSubmissionRepository.MarkProblemSolved rows: %w", err)
	}
	return n == 1, nil
}

func (r *pgSubmissionRepository) ClaimProgress(ctx context.Context, tx *sql.Tx, submissionID string) (bool, error) {
	res, err := pick(r.db, tx).ExecContext(ctx,
		`INSERT INTO progress_ledger (submission_id) VALUES ($1) ON CONFLICT (submission_id) DO NOTHING`, submissionID)
	if err != nil {
		return false, fmt.Errorf("pgSubmissionRepository.ClaimProgress: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("pgSubmissionRepository.ClaimProgress rows: %w", err)
	}
	return n == 1, nil
}

func (r *pgSubmissionRepository) ListUnappliedAccepted(ctx context.Context, olderThan time.Time, limit int) ([]string, error) {
	query := `SELECT s.id FROM submissions s
	          LEFT JOIN progress_ledger l ON l.submission_id = s.id
	          WHERE s.final_submission AND s.status = $1 AND l.submission_id IS NULL AND s.created_at < $2
	          ORDER BY s.created_at
	          LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, model.StatusAccepted, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListUnappliedAccepted: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.ListUnappliedAccepted scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
