package queue

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"backend-layanan/internal/apperr"

	"github.com/redis/go-redis/v9"
)

// MembershipStore keanggotaan antrian per vendor: ordered set
// token id dengan timestamp masuk antrian.
type MembershipStore interface {
	Add(ctx context.Context, vendorID, tokenID int64, enqueuedAt time.Time) error
	Remove(ctx context.Context, vendorID, tokenID int64) error
	Members(ctx context.Context, vendorID int64) ([]int64, error)
}

// RedisMembershipStore sorted set Redis per vendor,
// score = unix milli waktu enqueue.
type RedisMembershipStore struct {
	rdb *redis.Client
}

func NewRedisMembershipStore(rdb *redis.Client) *RedisMembershipStore {
	return &RedisMembershipStore{rdb: rdb}
}

func queueKey(vendorID int64) string {
	return fmt.Sprintf("queue:vendor:%d", vendorID)
}

func (s *RedisMembershipStore) Add(ctx context.Context, vendorID, tokenID int64, enqueuedAt time.Time) error {
	err := s.rdb.ZAdd(ctx, queueKey(vendorID), redis.Z{
		Score:  float64(enqueuedAt.UnixMilli()),
		Member: tokenID,
	}).Err()
	if err != nil {
		return apperr.Persistence("gagal tambah token %d ke antrian vendor %d: %v", tokenID, vendorID, err)
	}
	return nil
}

// Remove idempotent: ZREM member yang tidak ada bukan error.
func (s *RedisMembershipStore) Remove(ctx context.Context, vendorID, tokenID int64) error {
	err := s.rdb.ZRem(ctx, queueKey(vendorID), tokenID).Err()
	if err != nil {
		return apperr.Persistence("gagal hapus token %d dari antrian vendor %d: %v", tokenID, vendorID, err)
	}
	return nil
}

func (s *RedisMembershipStore) Members(ctx context.Context, vendorID int64) ([]int64, error) {
	vals, err := s.rdb.ZRange(ctx, queueKey(vendorID), 0, -1).Result()
	if err != nil {
		return nil, apperr.Persistence("gagal baca antrian vendor %d: %v", vendorID, err)
	}

	ids := make([]int64, 0, len(vals))
	for _, val := range vals {
		id, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
