package service

import (
	"context"
	"log"

	"backend-layanan/internal/apperr"
	"backend-layanan/internal/helper"
	"backend-layanan/internal/models"
)

/*
|--------------------------------------------------------------------------
| Kolaborator
|--------------------------------------------------------------------------
| Semua dependency masuk lewat constructor; test tinggal kasih fake.
*/

type TokenRepo interface {
	Create(ctx context.Context, token *models.Token) (int64, error)
	FindByID(ctx context.Context, id int64) (*models.Token, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Token, error)
	SetStatus(ctx context.Context, id int64, status models.TokenStatus) error
	Reject(ctx context.Context, id int64, message string) error
	Delete(ctx context.Context, id int64) error
}

type VendorRepo interface {
	FindByID(ctx context.Context, id int64) (*models.Vendor, error)
	OffersService(ctx context.Context, vendorID int64, serviceType string) (bool, error)
}

type QueueCoordinator interface {
	Enqueue(ctx context.Context, tokenID, vendorID int64) error
	Dequeue(ctx context.Context, tokenID, vendorID int64) error
	GetQueue(ctx context.Context, vendorID int64) ([]models.Token, error)
}

type EventLog interface {
	Append(ctx context.Context, tokenID int64, event string, actorUserID int64) error
	ListByToken(ctx context.Context, tokenID int64) ([]models.TokenEvent, error)
}

// EventRelay pengiriman event fire-and-forget ke pihak terkait.
// Gagal kirim tidak pernah dinaikin ke caller.
type EventRelay interface {
	NotifyUser(userID int64, event string, payload interface{})
	NotifyVendor(vendorID int64, event string, payload interface{})
	PushVendorQueue(vendorID int64, tokens []models.Token)
}

// Actor identitas pemanggil hasil decode JWT.
// VendorID nil untuk akun user biasa.
type Actor struct {
	UserID   int64
	VendorID *int64
}

/*
|--------------------------------------------------------------------------
| Lifecycle Manager
|--------------------------------------------------------------------------
| State machine token:
|   pending -> queued -> in_progress -> completed
|   pending -> rejected
|   pending/queued/in_progress -> cancelled
| Terminal: completed, rejected, cancelled.
*/

type TokenService struct {
	tokens  TokenRepo
	vendors VendorRepo
	queue   QueueCoordinator
	events  EventLog
	relay   EventRelay
}

func NewTokenService(tokens TokenRepo, vendors VendorRepo, queue QueueCoordinator, events EventLog, relay EventRelay) *TokenService {
	return &TokenService{
		tokens:  tokens,
		vendors: vendors,
		queue:   queue,
		events:  events,
		relay:   relay,
	}
}

// Create bikin token baru status pending. Vendor harus ada, aktif,
// lagi buka, dan memang nawarin service_type yang diminta.
func (s *TokenService) Create(ctx context.Context, actor Actor, req models.CreateTokenRequest) (*models.Token, error) {
	vendor, err := s.vendors.FindByID(ctx, req.VendorID)
	if err != nil {
		return nil, err
	}

	if vendor.IsActive != "y" {
		return nil, apperr.Validation("vendor %s sedang tidak aktif", vendor.NamaVendor)
	}

	if !helper.IsVendorOpen(vendor.JamBuka, vendor.JamTutup) {
		return nil, apperr.Validation("vendor %s sedang tutup (jam operasional %s - %s)", vendor.NamaVendor, vendor.JamBuka, vendor.JamTutup)
	}

	offers, err := s.vendors.OffersService(ctx, req.VendorID, req.ServiceType)
	if err != nil {
		return nil, err
	}
	if !offers {
		return nil, apperr.Validation("vendor %s tidak menyediakan layanan %s", vendor.NamaVendor, req.ServiceType)
	}

	token := &models.Token{
		UserID:      actor.UserID,
		VendorID:    req.VendorID,
		ServiceType: req.ServiceType,
		Subject:     req.Subject,
		Description: req.Description,
		Params:      req.Params,
		Status:      models.StatusPending,
	}

	id, err := s.tokens.Create(ctx, token)
	if err != nil {
		return nil, err
	}

	s.appendEvent(ctx, id, "create", actor.UserID)

	created, err := s.tokens.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.relay.NotifyVendor(created.VendorID, "token_created", created)
	return created, nil
}

// Approve vendor terima token pending -> queued, lalu daftarin ke
// antrian. Kalau antrian lagi busy, status dibalikin ke pending dan
// Busy diterusin ke caller — silakan coba lagi.
func (s *TokenService) Approve(ctx context.Context, actor Actor, tokenID int64) (*models.Token, error) {
	token, err := s.authorizeVendor(ctx, actor, tokenID)
	if err != nil {
		return nil, err
	}

	if token.Status != models.StatusPending {
		return nil, apperr.InvalidTransition("token tidak dalam status pending, status saat ini: %s", token.Status)
	}

	if err := s.tokens.SetStatus(ctx, tokenID, models.StatusQueued); err != nil {
		return nil, err
	}

	if err := s.queue.Enqueue(ctx, tokenID, token.VendorID); err != nil {
		if revertErr := s.tokens.SetStatus(ctx, tokenID, models.StatusPending); revertErr != nil {
			log.Printf("[token] gagal balikin token %d ke pending setelah enqueue gagal: %v", tokenID, revertErr)
		}
		return nil, err
	}

	s.appendEvent(ctx, tokenID, "approve", actor.UserID)

	approved, err := s.tokens.FindByID(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	s.relay.NotifyUser(approved.UserID, "token_approved", approved)
	s.pushQueueSnapshot(ctx, approved.VendorID)
	return approved, nil
}

// Reject vendor tolak token pending, wajib kasih alasan.
func (s *TokenService) Reject(ctx context.Context, actor Actor, tokenID int64, message string) (*models.Token, error) {
	token, err := s.authorizeVendor(ctx, actor, tokenID)
	if err != nil {
		return nil, err
	}

	if token.Status != models.StatusPending {
		return nil, apperr.InvalidTransition("token tidak dalam status pending, status saat ini: %s", token.Status)
	}

	if err := s.tokens.Reject(ctx, tokenID, message); err != nil {
		return nil, err
	}

	s.appendEvent(ctx, tokenID, "reject", actor.UserID)

	rejected, err := s.tokens.FindByID(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	s.relay.NotifyUser(rejected.UserID, "token_rejected", rejected)
	return rejected, nil
}

// Start vendor mulai kerjain token paling depan. Keanggotaan antrian
// tidak berubah — token in_progress masih ngisi slot paling depan.
func (s *TokenService) Start(ctx context.Context, actor Actor, tokenID int64) (*models.Token, error) {
	token, err := s.authorizeVendor(ctx, actor, tokenID)
	if err != nil {
		return nil, err
	}

	if token.Status != models.StatusQueued {
		return nil, apperr.InvalidTransition("token tidak dalam status queued, status saat ini: %s", token.Status)
	}

	if err := s.tokens.SetStatus(ctx, tokenID, models.StatusInProgress); err != nil {
		return nil, err
	}

	s.appendEvent(ctx, tokenID, "start", actor.UserID)

	started, err := s.tokens.FindByID(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	s.relay.NotifyUser(started.UserID, "token_started", started)
	s.pushQueueSnapshot(ctx, started.VendorID)
	return started, nil
}

// Complete vendor selesaikan token. Dequeue dulu — kalau lock busy,
// tidak ada yang berubah dan caller bisa coba lagi. Setelah keluar
// dari antrian baru status dipindah ke completed.
func (s *TokenService) Complete(ctx context.Context, actor Actor, tokenID int64) (*models.Token, error) {
	token, err := s.authorizeVendor(ctx, actor, tokenID)
	if err != nil {
		return nil, err
	}

	if !token.Status.Active() {
		return nil, apperr.InvalidTransition("token tidak sedang dikerjakan atau mengantri, status saat ini: %s", token.Status)
	}

	if err := s.queue.Dequeue(ctx, tokenID, token.VendorID); err != nil {
		return nil, err
	}

	if err := s.tokens.SetStatus(ctx, tokenID, models.StatusCompleted); err != nil {
		return nil, err
	}

	s.appendEvent(ctx, tokenID, "complete", actor.UserID)

	completed, err := s.tokens.FindByID(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	s.relay.NotifyUser(completed.UserID, "token_completed", completed)
	s.pushQueueSnapshot(ctx, completed.VendorID)
	return completed, nil
}

// Cancel user batalin tokennya sendiri. Boleh dari status apa pun
// yang belum terminal; kalau token lagi di antrian, dequeue dulu.
func (s *TokenService) Cancel(ctx context.Context, actor Actor, tokenID int64) (*models.Token, error) {
	token, err := s.tokens.FindByID(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	if token.UserID != actor.UserID {
		return nil, apperr.Unauthorized("Anda tidak memiliki akses ke token ini")
	}

	if token.Status.Terminal() {
		return nil, apperr.InvalidTransition("token sudah %s, tidak bisa dibatalkan", token.Status)
	}

	wasActive := token.Status.Active()
	if wasActive {
		if err := s.queue.Dequeue(ctx, tokenID, token.VendorID); err != nil {
			return nil, err
		}
	}

	if err := s.tokens.SetStatus(ctx, tokenID, models.StatusCancelled); err != nil {
		return nil, err
	}

	s.appendEvent(ctx, tokenID, "cancel", actor.UserID)

	cancelled, err := s.tokens.FindByID(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	s.relay.NotifyVendor(cancelled.VendorID, "token_cancelled", cancelled)
	if wasActive {
		s.pushQueueSnapshot(ctx, cancelled.VendorID)
	}
	return cancelled, nil
}

// Delete user hapus permanen token yang sudah completed.
func (s *TokenService) Delete(ctx context.Context, actor Actor, tokenID int64) error {
	token, err := s.tokens.FindByID(ctx, tokenID)
	if err != nil {
		return err
	}

	if token.UserID != actor.UserID {
		return apperr.Unauthorized("Anda tidak memiliki akses ke token ini")
	}

	if token.Status != models.StatusCompleted {
		return apperr.InvalidTransition("hanya token completed yang bisa dihapus, status saat ini: %s", token.Status)
	}

	return s.tokens.Delete(ctx, tokenID)
}

// GetByID bisa diakses user pemilik maupun vendor yang ditugasi.
func (s *TokenService) GetByID(ctx context.Context, actor Actor, tokenID int64) (*models.Token, error) {
	token, err := s.tokens.FindByID(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	if !canView(actor, token) {
		return nil, apperr.Unauthorized("Anda tidak memiliki akses ke token ini")
	}
	return token, nil
}

func (s *TokenService) ListForUser(ctx context.Context, userID int64) ([]models.Token, error) {
	return s.tokens.ListByUser(ctx, userID)
}

// History riwayat transisi token, akses sama dengan GetByID.
func (s *TokenService) History(ctx context.Context, actor Actor, tokenID int64) ([]models.TokenEvent, error) {
	token, err := s.tokens.FindByID(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	if !canView(actor, token) {
		return nil, apperr.Unauthorized("Anda tidak memiliki akses ke token ini")
	}
	return s.events.ListByToken(ctx, tokenID)
}

/*
|--------------------------------------------------------------------------
| Internal
|--------------------------------------------------------------------------
*/

// authorizeVendor load token + cek actor memang staff vendor yang
// ditugasi. Mismatch identitas itu Unauthorized, bukan error state
// machine.
func (s *TokenService) authorizeVendor(ctx context.Context, actor Actor, tokenID int64) (*models.Token, error) {
	token, err := s.tokens.FindByID(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	if actor.VendorID == nil || *actor.VendorID != token.VendorID {
		return nil, apperr.Unauthorized("Anda tidak memiliki akses ke token ini")
	}
	return token, nil
}

func canView(actor Actor, token *models.Token) bool {
	if token.UserID == actor.UserID {
		return true
	}
	return actor.VendorID != nil && *actor.VendorID == token.VendorID
}

// appendEvent audit log best-effort; gagal nyatet tidak bikin
// transisinya ikut gagal.
func (s *TokenService) appendEvent(ctx context.Context, tokenID int64, event string, actorUserID int64) {
	if err := s.events.Append(ctx, tokenID, event, actorUserID); err != nil {
		log.Printf("[token] gagal catat event %s token %d: %v", event, tokenID, err)
	}
}

func (s *TokenService) pushQueueSnapshot(ctx context.Context, vendorID int64) {
	tokens, err := s.queue.GetQueue(ctx, vendorID)
	if err != nil {
		log.Printf("[token] gagal ambil snapshot antrian vendor %d: %v", vendorID, err)
		return
	}
	s.relay.PushVendorQueue(vendorID, tokens)
}
