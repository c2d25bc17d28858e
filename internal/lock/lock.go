package lock

import (
	"context"
	"log"
	"math/rand"
	"time"

	"backend-layanan/internal/apperr"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript hapus lock hanya kalau value-nya masih sama dengan
// token pemegang. Satu operasi atomic — bukan get lalu del terpisah,
// biar tidak ada race antara cek dan hapus.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

// Store subset command Redis yang dipakai coordinator.
// *redis.Client memenuhi interface ini; test pakai fake.
type Store interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// Coordinator mutual exclusion atas resource bernama, backing-nya
// Redis SETNX dengan TTL. Pemegang yang crash tidak bisa ngeblok
// selamanya — lock expire sendiri setelah TTL.
type Coordinator struct {
	store       Store
	ttl         time.Duration
	maxAttempts int
	baseDelay   time.Duration
	maxJitter   time.Duration
}

func NewCoordinator(store Store) *Coordinator {
	return &Coordinator{
		store:       store,
		ttl:         10 * time.Second,
		maxAttempts: 5,
		baseDelay:   150 * time.Millisecond,
		maxJitter:   50 * time.Millisecond,
	}
}

// Acquire coba ambil lock, retry maksimal 5x dengan jitter acak
// biar request yang numpuk tidak nabrak barengan terus. Kalau habis
// retry tetap gagal, return Busy — tidak pernah nunggu tanpa batas.
func (c *Coordinator) Acquire(ctx context.Context, resourceKey string) (string, error) {
	lockToken := uuid.NewString()

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			jitter := time.Duration(rand.Int63n(int64(c.maxJitter)))
			time.Sleep(c.baseDelay + jitter)
		}

		ok, err := c.store.SetNX(ctx, resourceKey, lockToken, c.ttl).Result()
		if err != nil {
			return "", apperr.Persistence("gagal akses lock store: %v", err)
		}
		if ok {
			return lockToken, nil
		}
	}

	return "", apperr.Busy("resource %s sedang dipakai proses lain, coba beberapa saat lagi", resourceKey)
}

// Release lepas lock kalau masih milik pemegang lockToken.
// Gagal release cuma di-log — lock bakal expire sendiri lewat TTL,
// jadi dampaknya maksimal selebar window TTL.
func (c *Coordinator) Release(ctx context.Context, resourceKey, lockToken string) {
	if err := c.store.Eval(ctx, releaseScript, []string{resourceKey}, lockToken).Err(); err != nil {
		log.Printf("[lock] gagal release %s: %v", resourceKey, err)
	}
}
