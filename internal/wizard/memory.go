package wizard

import (
	"context"
	"sync"
)

// MemoryStore держит мастера в памяти процесса; после рестарта они теряются.
type MemoryStore struct {
	mu     sync.Mutex
	byChat map[int64]Wizard
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byChat: make(map[int64]Wizard)}
}

func (s *MemoryStore) Put(_ context.Context, w *Wizard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byChat[w.ChatID] = *w
	return nil
}

func (s *MemoryStore) Get(_ context.Context, chatID int64) (*Wizard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.byChat[chatID]
	if !ok {
		return nil, ErrNotFound
	}
	return &w, nil
}

func (s *MemoryStore) Delete(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byChat, chatID)
	return nil
}
