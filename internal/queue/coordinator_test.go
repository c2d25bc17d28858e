package queue

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"backend-layanan/internal/apperr"
	"backend-layanan/internal/models"
)

/*
|--------------------------------------------------------------------------
| Fakes
|--------------------------------------------------------------------------
*/

// fakeLocker non-blocking: langsung Busy kalau resource kepegang.
type fakeLocker struct {
	mu   sync.Mutex
	held map[string]string
	seq  int
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]string)}
}

func (f *fakeLocker) Acquire(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ada := f.held[key]; ada {
		return "", apperr.Busy("resource %s sedang dipakai proses lain", key)
	}
	f.seq++
	token := fmt.Sprintf("lock-%d", f.seq)
	f.held[key] = token
	return token, nil
}

func (f *fakeLocker) Release(ctx context.Context, key, token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[key] == token {
		delete(f.held, key)
	}
}

type memberEntry struct {
	tokenID int64
	score   int64
}

type memMembership struct {
	mu   sync.Mutex
	sets map[int64][]memberEntry
}

func newMemMembership() *memMembership {
	return &memMembership{sets: make(map[int64][]memberEntry)}
}

func (m *memMembership) Add(ctx context.Context, vendorID, tokenID int64, enqueuedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets[vendorID] = append(m.sets[vendorID], memberEntry{tokenID: tokenID, score: enqueuedAt.UnixNano()})
	return nil
}

func (m *memMembership) Remove(ctx context.Context, vendorID, tokenID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.sets[vendorID]
	for i, e := range entries {
		if e.tokenID == tokenID {
			m.sets[vendorID] = append(entries[:i], entries[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memMembership) Members(ctx context.Context, vendorID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := make([]memberEntry, len(m.sets[vendorID]))
	copy(entries, m.sets[vendorID])
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].score < entries[j].score })

	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.tokenID)
	}
	return ids, nil
}

func (m *memMembership) size(vendorID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sets[vendorID])
}

type memTokenStore struct {
	mu        sync.Mutex
	tokens    map[int64]*models.Token
	failBatch bool
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{tokens: make(map[int64]*models.Token)}
}

func (m *memTokenStore) put(t *models.Token) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[t.ID] = t
}

func (m *memTokenStore) FindActiveByIDs(ctx context.Context, ids []int64) ([]models.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []models.Token
	for _, id := range ids {
		if t, ada := m.tokens[id]; ada && t.Status.Active() {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (m *memTokenStore) UpdateQueueMeta(ctx context.Context, updates []QueueMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failBatch {
		return apperr.Persistence("batch update sengaja digagalkan")
	}
	for _, u := range updates {
		if t, ada := m.tokens[u.TokenID]; ada {
			pos := u.Position
			est := u.EstimatedCompletion
			t.QueuePosition = &pos
			t.EstimatedCompletion = &est
		}
	}
	return nil
}

func (m *memTokenStore) ListActiveByVendor(ctx context.Context, vendorID int64) ([]models.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []models.Token
	for _, t := range m.tokens {
		if t.VendorID == vendorID && t.Status.Active() {
			result = append(result, *t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		pi, pj := 0, 0
		if result[i].QueuePosition != nil {
			pi = *result[i].QueuePosition
		}
		if result[j].QueuePosition != nil {
			pj = *result[j].QueuePosition
		}
		return pi < pj
	})
	return result, nil
}

func (m *memTokenStore) position(id int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ada := m.tokens[id]; ada && t.QueuePosition != nil {
		return *t.QueuePosition
	}
	return 0
}

func (m *memTokenStore) estimate(id int64) *time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ada := m.tokens[id]; ada {
		return t.EstimatedCompletion
	}
	return nil
}

func newTestCoordinator() (*Coordinator, *fakeLocker, *memMembership, *memTokenStore) {
	locks := newFakeLocker()
	members := newMemMembership()
	store := newMemTokenStore()
	coord := NewCoordinator(locks, members, store, NewFIFOStrategy())
	return coord, locks, members, store
}

func seedToken(store *memTokenStore, id, vendorID int64, serviceType string, createdAt time.Time) {
	store.put(&models.Token{
		ID:          id,
		UserID:      100,
		VendorID:    vendorID,
		ServiceType: serviceType,
		Status:      models.StatusQueued,
		CreatedAt:   createdAt,
	})
}

/*
|--------------------------------------------------------------------------
| Tests
|--------------------------------------------------------------------------
*/

func TestEnqueueAssignsContiguousPositions(t *testing.T) {
	coord, _, _, store := newTestCoordinator()
	ctx := context.Background()
	base := time.Now()

	seedToken(store, 1, 7, "printing", base)
	seedToken(store, 2, 7, "binding", base.Add(time.Second))
	seedToken(store, 3, 7, "printing", base.Add(2*time.Second))

	before := time.Now()
	for _, id := range []int64{1, 2, 3} {
		if err := coord.Enqueue(ctx, id, 7); err != nil {
			t.Fatalf("enqueue token %d gagal: %v", id, err)
		}
	}
	after := time.Now()

	for i, id := range []int64{1, 2, 3} {
		if got := store.position(id); got != i+1 {
			t.Errorf("token %d: posisi %d, want %d", id, got, i+1)
		}
	}

	// ETA kumulatif: 10, 10+15=25, 10+15+10=35 menit
	wantETA := []time.Duration{10 * time.Minute, 25 * time.Minute, 35 * time.Minute}
	for i, id := range []int64{1, 2, 3} {
		eta := store.estimate(id)
		if eta == nil {
			t.Fatalf("token %d tidak punya estimasi", id)
		}
		if eta.Before(before.Add(wantETA[i])) || eta.After(after.Add(wantETA[i])) {
			t.Errorf("token %d: eta %v di luar ekspektasi now+%v", id, eta, wantETA[i])
		}
	}
}

func TestDequeueShiftsPositions(t *testing.T) {
	coord, _, members, store := newTestCoordinator()
	ctx := context.Background()
	base := time.Now()

	seedToken(store, 1, 7, "printing", base)
	seedToken(store, 2, 7, "binding", base.Add(time.Second))
	seedToken(store, 3, 7, "printing", base.Add(2*time.Second))
	for _, id := range []int64{1, 2, 3} {
		if err := coord.Enqueue(ctx, id, 7); err != nil {
			t.Fatalf("enqueue gagal: %v", err)
		}
	}

	// Token tengah keluar; status ikut pindah biar recompute skip
	store.mu.Lock()
	store.tokens[2].Status = models.StatusCompleted
	store.mu.Unlock()

	before := time.Now()
	if err := coord.Dequeue(ctx, 2, 7); err != nil {
		t.Fatalf("dequeue gagal: %v", err)
	}
	after := time.Now()

	if got := store.position(1); got != 1 {
		t.Errorf("token 1: posisi %d, want 1 (tidak berubah)", got)
	}
	if got := store.position(3); got != 2 {
		t.Errorf("token 3: posisi %d, want 2 (geser naik)", got)
	}

	// ETA token 3 sekarang 10+10 = 20 menit
	eta := store.estimate(3)
	if eta == nil {
		t.Fatal("token 3 tidak punya estimasi")
	}
	if eta.Before(before.Add(20*time.Minute)) || eta.After(after.Add(20*time.Minute)) {
		t.Errorf("token 3: eta %v di luar ekspektasi now+20m", eta)
	}

	if members.size(7) != 2 {
		t.Errorf("keanggotaan antrian: %d, want 2", members.size(7))
	}
}

func TestDequeueAbsentIsNoop(t *testing.T) {
	coord, _, members, store := newTestCoordinator()
	ctx := context.Background()

	seedToken(store, 1, 7, "printing", time.Now())
	if err := coord.Enqueue(ctx, 1, 7); err != nil {
		t.Fatalf("enqueue gagal: %v", err)
	}

	if err := coord.Dequeue(ctx, 999, 7); err != nil {
		t.Fatalf("dequeue id tak dikenal harus no-op, got: %v", err)
	}
	if members.size(7) != 1 {
		t.Errorf("keanggotaan berubah: %d, want 1", members.size(7))
	}
	if got := store.position(1); got != 1 {
		t.Errorf("token 1: posisi %d, want 1", got)
	}
}

func TestRecomputeSkipsInactiveTokens(t *testing.T) {
	coord, _, _, store := newTestCoordinator()
	ctx := context.Background()
	base := time.Now()

	seedToken(store, 1, 7, "printing", base)
	seedToken(store, 2, 7, "printing", base.Add(time.Second))
	if err := coord.Enqueue(ctx, 1, 7); err != nil {
		t.Fatal(err)
	}
	if err := coord.Enqueue(ctx, 2, 7); err != nil {
		t.Fatal(err)
	}

	// Status token 1 keburu cancelled tapi masih nyangkut di
	// keanggotaan — recompute berikutnya harus nge-skip dia.
	store.mu.Lock()
	store.tokens[1].Status = models.StatusCancelled
	store.mu.Unlock()

	seedToken(store, 3, 7, "printing", base.Add(2*time.Second))
	if err := coord.Enqueue(ctx, 3, 7); err != nil {
		t.Fatal(err)
	}

	if got := store.position(2); got != 1 {
		t.Errorf("token 2: posisi %d, want 1", got)
	}
	if got := store.position(3); got != 2 {
		t.Errorf("token 3: posisi %d, want 2", got)
	}
}

func TestBatchFailureKeepsOldPositions(t *testing.T) {
	coord, _, members, store := newTestCoordinator()
	ctx := context.Background()
	base := time.Now()

	seedToken(store, 1, 7, "printing", base)
	seedToken(store, 2, 7, "binding", base.Add(time.Second))
	if err := coord.Enqueue(ctx, 1, 7); err != nil {
		t.Fatal(err)
	}
	if err := coord.Enqueue(ctx, 2, 7); err != nil {
		t.Fatal(err)
	}

	oldPos1 := store.position(1)
	oldPos2 := store.position(2)

	// Batch write gagal: enqueue tetap sukses (keanggotaan masuk),
	// posisi lama dibiarkan sampai recompute sukses berikutnya.
	store.mu.Lock()
	store.failBatch = true
	store.mu.Unlock()

	seedToken(store, 3, 7, "printing", base.Add(2*time.Second))
	if err := coord.Enqueue(ctx, 3, 7); err != nil {
		t.Fatalf("enqueue harus tetap sukses walau recompute gagal: %v", err)
	}

	if members.size(7) != 3 {
		t.Errorf("keanggotaan: %d, want 3", members.size(7))
	}
	if store.position(1) != oldPos1 || store.position(2) != oldPos2 {
		t.Error("posisi lama berubah padahal batch write gagal")
	}

	// Recompute sukses berikutnya nyembuhin semuanya
	store.mu.Lock()
	store.failBatch = false
	store.mu.Unlock()

	seedToken(store, 4, 7, "scanning", base.Add(3*time.Second))
	if err := coord.Enqueue(ctx, 4, 7); err != nil {
		t.Fatal(err)
	}
	for i, id := range []int64{1, 2, 3, 4} {
		if got := store.position(id); got != i+1 {
			t.Errorf("token %d: posisi %d, want %d", id, got, i+1)
		}
	}
}

func TestLockBusySameVendorOnly(t *testing.T) {
	coord, locks, members, store := newTestCoordinator()
	ctx := context.Background()

	seedToken(store, 1, 7, "printing", time.Now())
	seedToken(store, 2, 8, "printing", time.Now())

	// Vendor 7 lagi kepegang proses lain
	if _, err := locks.Acquire(ctx, lockKey(7)); err != nil {
		t.Fatal(err)
	}

	err := coord.Enqueue(ctx, 1, 7)
	if apperr.KindOf(err) != apperr.KindBusy {
		t.Fatalf("expected Busy untuk vendor 7, got %v", err)
	}
	if members.size(7) != 0 {
		t.Error("keanggotaan vendor 7 berubah padahal lock busy")
	}

	// Vendor beda tidak ikut keblok
	if err := coord.Enqueue(ctx, 2, 8); err != nil {
		t.Fatalf("vendor 8 harusnya jalan paralel: %v", err)
	}
	if got := store.position(2); got != 1 {
		t.Errorf("token 2: posisi %d, want 1", got)
	}
}

// reverseStrategy buat ngetes swap: urutan kebalik dari FIFO.
type reverseStrategy struct {
	*FIFOStrategy
}

func (s *reverseStrategy) Name() string { return "reverse" }

func (s *reverseStrategy) Order(items []QueueItem) []QueueItem {
	ordered := s.FIFOStrategy.Order(items)
	for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
		ordered[i], ordered[j] = ordered[j], ordered[i]
	}
	return ordered
}

func TestSetStrategyAffectsFutureRecompute(t *testing.T) {
	coord, _, _, store := newTestCoordinator()
	ctx := context.Background()
	base := time.Now()

	seedToken(store, 1, 7, "printing", base)
	seedToken(store, 2, 7, "printing", base.Add(time.Second))
	if err := coord.Enqueue(ctx, 1, 7); err != nil {
		t.Fatal(err)
	}
	if err := coord.Enqueue(ctx, 2, 7); err != nil {
		t.Fatal(err)
	}

	if store.position(1) != 1 || store.position(2) != 2 {
		t.Fatal("posisi awal FIFO tidak sesuai")
	}

	// Ganti strategy: posisi tersimpan belum berubah sampai ada
	// recompute berikutnya.
	coord.SetStrategy(&reverseStrategy{NewFIFOStrategy()})
	if store.position(1) != 1 || store.position(2) != 2 {
		t.Fatal("swap strategy tidak boleh langsung nulis ulang posisi")
	}

	seedToken(store, 3, 7, "printing", base.Add(2*time.Second))
	if err := coord.Enqueue(ctx, 3, 7); err != nil {
		t.Fatal(err)
	}

	// Urutan sekarang kebalik: terbaru di depan
	if got := store.position(3); got != 1 {
		t.Errorf("token 3: posisi %d, want 1 setelah swap", got)
	}
	if got := store.position(1); got != 3 {
		t.Errorf("token 1: posisi %d, want 3 setelah swap", got)
	}
}
