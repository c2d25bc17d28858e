package models

import "time"

type TokenStatus string

const (
	StatusPending    TokenStatus = "pending"
	StatusQueued     TokenStatus = "queued"
	StatusInProgress TokenStatus = "in_progress"
	StatusCompleted  TokenStatus = "completed"
	StatusRejected   TokenStatus = "rejected"
	StatusCancelled  TokenStatus = "cancelled"
)

// Terminal - status akhir, tidak ada transisi keluar lagi.
func (s TokenStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected || s == StatusCancelled
}

// Active - token masih punya slot di antrian vendor.
func (s TokenStatus) Active() bool {
	return s == StatusQueued || s == StatusInProgress
}

/*
|--------------------------------------------------------------------------
| DATABASE MODEL (INTERNAL)
|--------------------------------------------------------------------------
| queue_position & estimated_completion hanya terisi kalau status
| queued/in_progress. Dua kolom itu cuma boleh ditulis oleh queue
| coordinator, bukan layer lain.
*/
type Token struct {
	ID                  int64             `json:"id"`
	UserID              int64             `json:"user_id"`
	VendorID            int64             `json:"vendor_id"`
	ServiceType         string            `json:"service_type"`
	Subject             string            `json:"subject"`
	Description         string            `json:"description"`
	Params              map[string]string `json:"params"`
	Status              TokenStatus       `json:"status"`
	QueuePosition       *int              `json:"queue_position"`
	EstimatedCompletion *time.Time        `json:"estimated_completion"`
	VendorMessage       *string           `json:"vendor_message"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

/*
|--------------------------------------------------------------------------
| REQUEST
|--------------------------------------------------------------------------
*/
type CreateTokenRequest struct {
	VendorID    int64             `json:"vendor_id" validate:"required"`
	ServiceType string            `json:"service_type" validate:"required,max=50"`
	Subject     string            `json:"subject" validate:"omitempty,max=255"`
	Description string            `json:"description"`
	Params      map[string]string `json:"params"`
}

type RejectTokenRequest struct {
	Message string `json:"message" validate:"required,max=500"`
}
