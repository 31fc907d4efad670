package usage

import (
	"context"
	"sync"
	"time"
)

// InmemStore keeps daily counters in process memory.
type InmemStore struct {
	mu   sync.Mutex
	days map[string]*Stats
	now  func() time.Time
}

// NewInmem creates a new in-memory usage store
func NewInmem() *InmemStore {
	return &InmemStore{days: map[string]*Stats{}, now: time.Now}
}

func (s *InmemStore) Record(_ context.Context, ev Event) error {
	day := dayKey(s.now())

	s.mu.Lock()
	defer s.mu.Unlock()
	stats, ok := s.days[day]
	if !ok {
		stats = &Stats{Day: day}
		s.days[day] = stats
	}
	for field, n := range counters(ev) {
		stats.add(field, n)
	}
	return nil
}

func (s *InmemStore) Stats(_ context.Context, day time.Time) (Stats, error) {
	key := dayKey(day)

	s.mu.Lock()
	defer s.mu.Unlock()
	if stats, ok := s.days[key]; ok {
		return *stats, nil
	}
	return Stats{Day: key}, nil
}
