package queue

import (
	"sort"
	"time"
)

// QueueItem data minimum yang dibutuhkan strategy untuk ngurutin
// dan ngitung estimasi.
type QueueItem struct {
	TokenID     int64
	ServiceType string
	CreatedAt   time.Time
}

// SchedulingStrategy policy urutan antrian + estimasi selesai.
// Stateless; dipilih lewat registry by name.
type SchedulingStrategy interface {
	Name() string

	// Order return urutan kanonik. Tidak boleh mutasi input dan
	// hasilnya harus strict total order (tidak ada seri).
	Order(items []QueueItem) []QueueItem

	// Estimate estimasi waktu selesai untuk posisi ke-position
	// (0-based) dari list yang sudah terurut. Durasi item itu
	// sendiri ikut dihitung, bukan cuma waktu nunggu.
	Estimate(position int, ordered []QueueItem) time.Time

	DurationOf(serviceType string) time.Duration
}

/*
|--------------------------------------------------------------------------
| FIFO (default)
|--------------------------------------------------------------------------
| Urut ascending created_at. created_at unik per token, jadi seri
| tidak mungkin terjadi.
*/

type FIFOStrategy struct {
	durations map[string]time.Duration
	fallback  time.Duration
}

func NewFIFOStrategy() *FIFOStrategy {
	return &FIFOStrategy{
		durations: map[string]time.Duration{
			"printing":     10 * time.Minute,
			"binding":      15 * time.Minute,
			"lamination":   8 * time.Minute,
			"scanning":     5 * time.Minute,
			"photocopying": 7 * time.Minute,
		},
		fallback: 10 * time.Minute,
	}
}

func (s *FIFOStrategy) Name() string {
	return "fifo"
}

func (s *FIFOStrategy) Order(items []QueueItem) []QueueItem {
	ordered := make([]QueueItem, len(items))
	copy(ordered, items)

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	return ordered
}

func (s *FIFOStrategy) Estimate(position int, ordered []QueueItem) time.Time {
	var total time.Duration
	for i := 0; i <= position && i < len(ordered); i++ {
		total += s.DurationOf(ordered[i].ServiceType)
	}
	return time.Now().Add(total)
}

func (s *FIFOStrategy) DurationOf(serviceType string) time.Duration {
	if d, ok := s.durations[serviceType]; ok {
		return d
	}
	return s.fallback
}

/*
|--------------------------------------------------------------------------
| Registry
|--------------------------------------------------------------------------
| Map eksplisit nama -> constructor. Strategy baru tinggal didaftarin
| di sini, tanpa reflection.
*/

const DefaultStrategyName = "fifo"

var strategyRegistry = map[string]func() SchedulingStrategy{
	"fifo": func() SchedulingStrategy { return NewFIFOStrategy() },
}

func StrategyByName(name string) (SchedulingStrategy, bool) {
	build, ok := strategyRegistry[name]
	if !ok {
		return nil, false
	}
	return build(), true
}

func StrategyNames() []string {
	names := make([]string, 0, len(strategyRegistry))
	for name := range strategyRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
