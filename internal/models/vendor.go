package models

import "time"

type Vendor struct {
	ID         int64     `json:"id"`
	NamaVendor string    `json:"nama_vendor"`
	IsActive   string    `json:"is_active"`
	JamBuka    string    `json:"jam_buka"`
	JamTutup   string    `json:"jam_tutup"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// VendorService - satu baris katalog: layanan yang ditawarkan vendor.
type VendorService struct {
	ID          int64  `json:"id"`
	VendorID    int64  `json:"vendor_id"`
	ServiceType string `json:"service_type"`
}
