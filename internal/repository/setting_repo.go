package repository

import (
	"context"
	"database/sql"

	"backend-layanan/internal/apperr"
)

const SettingActiveStrategy = "active_strategy"

// SettingRepository key-value konfigurasi aplikasi, antara lain
// nama strategy antrian yang aktif.
type SettingRepository struct {
	db *sql.DB
}

func NewSettingRepository(db *sql.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// Get return "" kalau key belum pernah diset.
func (r *SettingRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `
		SELECT value FROM app_config WHERE name = ?
	`, key).Scan(&value)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", apperr.Persistence("gagal baca config %s: %v", key, err)
	}
	return value, nil
}

func (r *SettingRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO app_config (name, value, created_at, updated_at)
		VALUES (?, ?, NOW(), NOW())
		ON DUPLICATE KEY UPDATE value = VALUES(value), updated_at = NOW()
	`, key, value)
	if err != nil {
		return apperr.Persistence("gagal simpan config %s: %v", key, err)
	}
	return nil
}
