package queue

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"backend-layanan/internal/models"
)

// QueueMeta hasil recompute untuk satu token: posisi 1-based +
// estimasi selesai. Ditulis balik sebagai satu batch all-or-nothing.
type QueueMeta struct {
	TokenID             int64
	Position            int
	EstimatedCompletion time.Time
}

// TokenStore bagian durable store yang dibutuhkan coordinator.
type TokenStore interface {
	// FindActiveByIDs load record yang statusnya masih
	// queued/in_progress; id lain diskip.
	FindActiveByIDs(ctx context.Context, ids []int64) ([]models.Token, error)

	// UpdateQueueMeta tulis posisi+ETA satu batch, all-or-nothing.
	UpdateQueueMeta(ctx context.Context, updates []QueueMeta) error

	ListActiveByVendor(ctx context.Context, vendorID int64) ([]models.Token, error)
}

type Locker interface {
	Acquire(ctx context.Context, resourceKey string) (string, error)
	Release(ctx context.Context, resourceKey, lockToken string)
}

// Coordinator pemilik tunggal antrian tiap vendor. Semua mutasi
// keanggotaan + recompute posisi jalan di bawah lock per vendor;
// vendor beda jalan paralel tanpa saling tunggu.
type Coordinator struct {
	locks   Locker
	members MembershipStore
	tokens  TokenStore

	mu       sync.RWMutex
	strategy SchedulingStrategy
}

func NewCoordinator(locks Locker, members MembershipStore, tokens TokenStore, strategy SchedulingStrategy) *Coordinator {
	return &Coordinator{
		locks:    locks,
		members:  members,
		tokens:   tokens,
		strategy: strategy,
	}
}

func lockKey(vendorID int64) string {
	return fmt.Sprintf("lock:queue:vendor:%d", vendorID)
}

// Enqueue daftarin token ke antrian vendor lalu hitung ulang posisi
// semua token aktif vendor itu. Busy kalau lock tidak kebagian.
func (c *Coordinator) Enqueue(ctx context.Context, tokenID, vendorID int64) error {
	key := lockKey(vendorID)
	lockToken, err := c.locks.Acquire(ctx, key)
	if err != nil {
		return err
	}
	defer c.locks.Release(ctx, key, lockToken)

	if err := c.members.Add(ctx, vendorID, tokenID, time.Now()); err != nil {
		return err
	}

	c.recompute(ctx, vendorID)
	return nil
}

// Dequeue keluarin token dari antrian vendor. Token yang memang
// tidak ada di antrian bukan error — operasi ini idempotent.
func (c *Coordinator) Dequeue(ctx context.Context, tokenID, vendorID int64) error {
	key := lockKey(vendorID)
	lockToken, err := c.locks.Acquire(ctx, key)
	if err != nil {
		return err
	}
	defer c.locks.Release(ctx, key, lockToken)

	if err := c.members.Remove(ctx, vendorID, tokenID); err != nil {
		return err
	}

	c.recompute(ctx, vendorID)
	return nil
}

// recompute hitung ulang posisi & estimasi seluruh antrian vendor.
// Wajib dipanggil sambil megang lock vendor. Kegagalan di sini cuma
// di-log: posisi lama tetap berlaku sampai recompute sukses
// berikutnya (lihat DESIGN.md).
func (c *Coordinator) recompute(ctx context.Context, vendorID int64) {
	ids, err := c.members.Members(ctx, vendorID)
	if err != nil {
		log.Printf("[queue] recompute vendor %d: gagal baca keanggotaan: %v", vendorID, err)
		return
	}
	if len(ids) == 0 {
		return
	}

	// Keanggotaan boleh telat satu langkah dari perubahan status;
	// token yang sudah tidak aktif keskip di sini dan sembuh sendiri
	// di recompute berikutnya.
	tokens, err := c.tokens.FindActiveByIDs(ctx, ids)
	if err != nil {
		log.Printf("[queue] recompute vendor %d: gagal load token: %v", vendorID, err)
		return
	}

	items := make([]QueueItem, 0, len(tokens))
	for _, t := range tokens {
		items = append(items, QueueItem{
			TokenID:     t.ID,
			ServiceType: t.ServiceType,
			CreatedAt:   t.CreatedAt,
		})
	}

	strategy := c.GetStrategy()
	ordered := strategy.Order(items)

	updates := make([]QueueMeta, 0, len(ordered))
	for i, item := range ordered {
		updates = append(updates, QueueMeta{
			TokenID:             item.TokenID,
			Position:            i + 1,
			EstimatedCompletion: strategy.Estimate(i, ordered),
		})
	}

	if err := c.tokens.UpdateQueueMeta(ctx, updates); err != nil {
		log.Printf("[queue] recompute vendor %d: gagal simpan posisi: %v", vendorID, err)
	}
}

// GetQueue snapshot antrian vendor urut posisi. Tidak ambil lock —
// boleh sedikit basi terhadap recompute yang lagi jalan.
func (c *Coordinator) GetQueue(ctx context.Context, vendorID int64) ([]models.Token, error) {
	return c.tokens.ListActiveByVendor(ctx, vendorID)
}

// SetStrategy ganti policy aktif. Cuma ngaruh ke recompute
// berikutnya; posisi yang sudah tersimpan tidak ditulis ulang.
func (c *Coordinator) SetStrategy(strategy SchedulingStrategy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.strategy = strategy
}

func (c *Coordinator) GetStrategy() SchedulingStrategy {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.strategy
}
