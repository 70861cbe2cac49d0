package handlers

import (
	"sync"

	"dca-backtest/internal/backtest"

	"github.com/google/uuid"
)

// ResultStore keeps the most recent results in memory so their ledgers can
// be fetched by id. The oldest result is evicted once capacity is reached.
type ResultStore struct {
	mu       sync.RWMutex
	capacity int
	order    []string
	results  map[string]*backtest.Result
}

func NewResultStore(capacity int) *ResultStore {
	if capacity <= 0 {
		capacity = 100
	}
	return &ResultStore{
		capacity: capacity,
		results:  make(map[string]*backtest.Result),
	}
}

// Put stores res and returns its new id.
func (s *ResultStore) Put(res *backtest.Result) string {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.order) >= s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.results, oldest)
	}
	s.order = append(s.order, id)
	s.results[id] = res
	return id
}

func (s *ResultStore) Get(id string) (*backtest.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.results[id]
	return res, ok
}

func (s *ResultStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}
