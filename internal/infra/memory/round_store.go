package memory

import (
	"sync"

	"times-table-circuit/internal/game"
)

// RoundStore is an in-memory implementation of app.RoundRepository.
// Rounds own live timers, so they only ever exist in the process that started them.
type RoundStore struct {
	mu     sync.RWMutex
	rounds map[string]*game.Round
}

func NewRoundStore() *RoundStore {
	return &RoundStore{
		rounds: make(map[string]*game.Round),
	}
}

func (s *RoundStore) Put(id string, round *game.Round) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds[id] = round
}

func (s *RoundStore) Get(id string) (*game.Round, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	round, ok := s.rounds[id]
	return round, ok
}

func (s *RoundStore) Delete(id string) (*game.Round, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	round, ok := s.rounds[id]
	if ok {
		delete(s.rounds, id)
	}
	return round, ok
}

// Len reports how many rounds are in progress.
func (s *RoundStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rounds)
}
