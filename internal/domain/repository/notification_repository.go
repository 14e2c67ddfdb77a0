package repository

import (
	"context"
	"database/sql"
	"fmt"

	"letscode/internal/domain/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, tx *sql.Tx, n *model.Notification) error
	ListRecent(ctx context.Context, limit int) ([]model.Notification, error)
}

type pgNotificationRepository struct {
	db *sql.DB
}

func NewPgNotificationRepository(db *sql.DB) NotificationRepository {
	return &pgNotificationRepository{db: db}
}

func (r *pgNotificationRepository) Create(ctx context.Context, tx *sql.Tx, n *model.Notification) error {
	query := `INSERT INTO notifications (id, message, link, added_on) VALUES ($1, $2, $3, $4)`
	if _, err := pick(r.db, tx).ExecContext(ctx, query, n.ID, n.Message, n.Link, n.AddedOn); err != nil {
		return fmt.Errorf("pgNotificationRepository.Create: %w", err)
	}
	return nil
}

func (r *pgNotificationRepository) ListRecent(ctx context.Context, limit int) ([]model.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, message, link, added_on FROM notifications ORDER BY added_on DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("pgNotificationRepository.ListRecent: %w", err)
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.Message, &n.Link, &n.AddedOn); err != nil {
			return nil, fmt.Errorf("pgNotificationRepository.ListRecent scan: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
