package repository

import (
	"context"
	"database/sql"

	"backend-layanan/internal/apperr"
	"backend-layanan/internal/models"
)

// EventRepository audit log transisi token, satu baris per event.
type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Append(ctx context.Context, tokenID int64, event string, actorUserID int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO token_events (token_id, event, actor_user_id, created_at)
		VALUES (?, ?, ?, NOW())
	`, tokenID, event, actorUserID)
	if err != nil {
		return apperr.Persistence("gagal catat event %s token %d: %v", event, tokenID, err)
	}
	return nil
}

func (r *EventRepository) ListByToken(ctx context.Context, tokenID int64) ([]models.TokenEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, token_id, event, actor_user_id, created_at
		FROM token_events
		WHERE token_id = ?
		ORDER BY created_at ASC, id ASC
	`, tokenID)
	if err != nil {
		return nil, apperr.Persistence("gagal ambil riwayat token %d: %v", tokenID, err)
	}
	defer rows.Close()

	var result []models.TokenEvent
	for rows.Next() {
		var e models.TokenEvent
		if err := rows.Scan(&e.ID, &e.TokenID, &e.Event, &e.ActorUserID, &e.CreatedAt); err != nil {
			return nil, apperr.Persistence("gagal scan event token: %v", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
