package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"backend-layanan/internal/apperr"
	"backend-layanan/internal/models"
	"backend-layanan/internal/queue"
)

const tokenColumns = `id, user_id, vendor_id, service_type, subject, description,
       params, status, queue_position, estimated_completion, vendor_message,
       created_at, updated_at`

type TokenRepository struct {
	db *sql.DB
}

func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanToken(row rowScanner) (*models.Token, error) {
	var (
		t          models.Token
		paramsJSON sql.NullString
		position   sql.NullInt64
		estimated  sql.NullTime
		message    sql.NullString
	)

	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.VendorID,
		&t.ServiceType,
		&t.Subject,
		&t.Description,
		&paramsJSON,
		&t.Status,
		&position,
		&estimated,
		&message,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if paramsJSON.Valid && paramsJSON.String != "" {
		if err := json.Unmarshal([]byte(paramsJSON.String), &t.Params); err != nil {
			t.Params = nil
		}
	}
	if position.Valid {
		pos := int(position.Int64)
		t.QueuePosition = &pos
	}
	if estimated.Valid {
		est := estimated.Time
		t.EstimatedCompletion = &est
	}
	if message.Valid {
		t.VendorMessage = &message.String
	}

	return &t, nil
}

func (r *TokenRepository) Create(ctx context.Context, token *models.Token) (int64, error) {
	paramsJSON, err := json.Marshal(token.Params)
	if err != nil {
		return 0, apperr.Persistence("gagal encode params token: %v", err)
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO tokens
		(user_id, vendor_id, service_type, subject, description, params, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, NOW(), NOW())
	`, token.UserID, token.VendorID, token.ServiceType, token.Subject, token.Description, string(paramsJSON), token.Status)
	if err != nil {
		return 0, apperr.Persistence("gagal simpan token: %v", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, apperr.Persistence("gagal ambil id token baru: %v", err)
	}
	return id, nil
}

func (r *TokenRepository) FindByID(ctx context.Context, id int64) (*models.Token, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+tokenColumns+` FROM tokens WHERE id = ?`, id)

	token, err := scanToken(row)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("token %d tidak ditemukan", id)
	}
	if err != nil {
		return nil, apperr.Persistence("gagal ambil token %d: %v", id, err)
	}
	return token, nil
}

func (r *TokenRepository) ListByUser(ctx context.Context, userID int64) ([]models.Token, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+tokenColumns+`
		FROM tokens
		WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, apperr.Persistence("gagal ambil token user %d: %v", userID, err)
	}
	defer rows.Close()

	return collectTokens(rows)
}

// ListActiveByVendor snapshot antrian vendor: token queued/in_progress
// urut posisi tersimpan.
func (r *TokenRepository) ListActiveByVendor(ctx context.Context, vendorID int64) ([]models.Token, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+tokenColumns+`
		FROM tokens
		WHERE vendor_id = ?
		AND status IN ('queued', 'in_progress')
		ORDER BY queue_position ASC
	`, vendorID)
	if err != nil {
		return nil, apperr.Persistence("gagal ambil antrian vendor %d: %v", vendorID, err)
	}
	defer rows.Close()

	return collectTokens(rows)
}

func (r *TokenRepository) FindActiveByIDs(ctx context.Context, ids []int64) ([]models.Token, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+tokenColumns+`
		FROM tokens
		WHERE id IN (`+placeholders+`)
		AND status IN ('queued', 'in_progress')
	`, args...)
	if err != nil {
		return nil, apperr.Persistence("gagal load token antrian: %v", err)
	}
	defer rows.Close()

	return collectTokens(rows)
}

func collectTokens(rows *sql.Rows) ([]models.Token, error) {
	var result []models.Token
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, apperr.Persistence("gagal scan token: %v", err)
		}
		result = append(result, *token)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("gagal baca hasil query token: %v", err)
	}
	return result, nil
}

// SetStatus update status token. Transisi ke status terminal sekalian
// ngosongin posisi + estimasi — dua kolom itu cuma valid selama token
// masih di antrian.
func (r *TokenRepository) SetStatus(ctx context.Context, id int64, status models.TokenStatus) error {
	var err error
	if status.Terminal() {
		_, err = r.db.ExecContext(ctx, `
			UPDATE tokens
			SET status = ?, queue_position = NULL, estimated_completion = NULL, updated_at = NOW()
			WHERE id = ?
		`, status, id)
	} else {
		_, err = r.db.ExecContext(ctx, `
			UPDATE tokens
			SET status = ?, updated_at = NOW()
			WHERE id = ?
		`, status, id)
	}
	if err != nil {
		return apperr.Persistence("gagal update status token %d: %v", id, err)
	}
	return nil
}

// Reject sekalian simpan pesan vendor di transisi yang sama.
func (r *TokenRepository) Reject(ctx context.Context, id int64, message string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE tokens
		SET status = 'rejected', vendor_message = ?,
		    queue_position = NULL, estimated_completion = NULL, updated_at = NOW()
		WHERE id = ?
	`, message, id)
	if err != nil {
		return apperr.Persistence("gagal reject token %d: %v", id, err)
	}
	return nil
}

// UpdateQueueMeta tulis posisi+ETA hasil recompute dalam satu
// transaksi: semua kebawa atau tidak sama sekali.
func (r *TokenRepository) UpdateQueueMeta(ctx context.Context, updates []queue.QueueMeta) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Persistence("gagal mulai transaksi posisi antrian: %v", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE tokens
		SET queue_position = ?, estimated_completion = ?, updated_at = NOW()
		WHERE id = ?
	`)
	if err != nil {
		tx.Rollback()
		return apperr.Persistence("gagal prepare update posisi antrian: %v", err)
	}
	defer stmt.Close()

	for _, u := range updates {
		if _, err := stmt.ExecContext(ctx, u.Position, u.EstimatedCompletion, u.TokenID); err != nil {
			tx.Rollback()
			return apperr.Persistence("gagal update posisi token %d: %v", u.TokenID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperr.Persistence("gagal commit posisi antrian: %v", err)
	}
	return nil
}

func (r *TokenRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE id = ?`, id)
	if err != nil {
		return apperr.Persistence("gagal hapus token %d: %v", id, err)
	}
	return nil
}
