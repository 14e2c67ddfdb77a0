package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"letscode/internal/common"
	"letscode/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)

	// LockProgress reads the user's progress and holds a row lock until tx ends.
	LockProgress(ctx context.Context, tx *sql.Tx, userID string) (*model.Progress, error)
	SaveProgress(ctx context.Context, tx *sql.Tx, userID string, p *model.Progress) error

	GetLeaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

const userColumns = `id, username, email, hashed_password, role,
	solved_question_count, current_streak, maximum_streak, correct_submissions, acceptance_rate,
	created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.HashedPassword, &u.Role,
		&u.Progress.SolvedQuestionCount, &u.Progress.CurrentStreak, &u.Progress.MaximumStreak,
		&u.Progress.CorrectSubmissions, &u.Progress.AcceptanceRate,
		&u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, username, email, hashed_password, role)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Username, user.Email, user.HashedPassword, user.Role)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint violation
			return fmt.Errorf("user with given username or email already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

func (r *pgUserRepository) findOne(ctx context.Context, op, where string, arg any) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.%s: %w", op, err)
	}
	return user, nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "FindByEmail", "email", email)
}

func (r *pgUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, "FindByUsername", "username", username)
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, "FindByID", "id", id)
}

func (r *pgUserRepository) LockProgress(ctx context.Context, tx *sql.Tx, userID string) (*model.Progress, error) {
	query := `SELECT solved_question_count, current_streak, maximum_streak, correct_submissions, acceptance_rate
	          FROM users WHERE id = $1 FOR UPDATE`
	p := &model.Progress{}
	err := pick(r.db, tx).QueryRowContext(ctx, query, userID).Scan(
		&p.SolvedQuestionCount, &p.CurrentStreak, &p.MaximumStreak, &p.CorrectSubmissions, &p.AcceptanceRate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.LockProgress: %w", err)
	}
	return p, nil
}

func (r *pgUserRepository) SaveProgress(ctx context.Context, tx *sql.Tx, userID string, p *model.Progress) error {
	query := `UPDATE users SET
	            solved_question_count = $1, current_streak = $2, maximum_streak = $3,
	            correct_submissions = $4, acceptance_rate = $5, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $6`
	res, err := pick(r.db, tx).ExecContext(ctx, query,
		p.SolvedQuestionCount, p.CurrentStreak, p.MaximumStreak, p.CorrectSubmissions, p.AcceptanceRate, userID)
	if err != nil {
		return fmt.Errorf("pgUserRepository.SaveProgress: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgUserRepository) GetLeaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	query := `SELECT id, username, solved_question_count, acceptance_rate, maximum_streak
	          FROM users
	          WHERE role = 'user'
	          ORDER BY solved_question_count DESC, acceptance_rate DESC, created_at ASC
	          LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.GetLeaderboard: %w", err)
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		e := model.LeaderboardEntry{Rank: len(entries) + 1}
		if err := rows.Scan(&e.UserID, &e.Username, &e.ProblemsSolved, &e.AcceptanceRate, &e.MaximumStreak); err != nil {
			return nil, fmt.Errorf("pgUserRepository.GetLeaderboard scan: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
