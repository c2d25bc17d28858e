package repository

import (
	"context"
	"database/sql"

	"backend-layanan/internal/apperr"
	"backend-layanan/internal/models"
)

type VendorRepository struct {
	db *sql.DB
}

func NewVendorRepository(db *sql.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

func (r *VendorRepository) FindByID(ctx context.Context, id int64) (*models.Vendor, error) {
	var v models.Vendor
	err := r.db.QueryRowContext(ctx, `
		SELECT id, nama_vendor, is_active, jam_buka, jam_tutup, created_at, updated_at
		FROM vendors WHERE id = ?
	`, id).Scan(&v.ID, &v.NamaVendor, &v.IsActive, &v.JamBuka, &v.JamTutup, &v.CreatedAt, &v.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("vendor %d tidak ditemukan", id)
	}
	if err != nil {
		return nil, apperr.Persistence("gagal ambil vendor %d: %v", id, err)
	}
	return &v, nil
}

func (r *VendorRepository) OffersService(ctx context.Context, vendorID int64, serviceType string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM vendor_services
		WHERE vendor_id = ? AND service_type = ?
	`, vendorID, serviceType).Scan(&count)
	if err != nil {
		return false, apperr.Persistence("gagal cek katalog vendor %d: %v", vendorID, err)
	}
	return count > 0, nil
}

func (r *VendorRepository) ListActive(ctx context.Context) ([]models.Vendor, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, nama_vendor, is_active, jam_buka, jam_tutup, created_at, updated_at
		FROM vendors
		WHERE is_active = 'y'
		ORDER BY nama_vendor ASC
	`)
	if err != nil {
		return nil, apperr.Persistence("gagal ambil daftar vendor: %v", err)
	}
	defer rows.Close()

	var result []models.Vendor
	for rows.Next() {
		var v models.Vendor
		if err := rows.Scan(&v.ID, &v.NamaVendor, &v.IsActive, &v.JamBuka, &v.JamTutup, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, apperr.Persistence("gagal scan vendor: %v", err)
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

func (r *VendorRepository) ListServices(ctx context.Context, vendorID int64) ([]models.VendorService, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, vendor_id, service_type
		FROM vendor_services
		WHERE vendor_id = ?
		ORDER BY service_type ASC
	`, vendorID)
	if err != nil {
		return nil, apperr.Persistence("gagal ambil layanan vendor %d: %v", vendorID, err)
	}
	defer rows.Close()

	var result []models.VendorService
	for rows.Next() {
		var s models.VendorService
		if err := rows.Scan(&s.ID, &s.VendorID, &s.ServiceType); err != nil {
			return nil, apperr.Persistence("gagal scan layanan vendor: %v", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
