package service

import (
	"bufio"
	"context"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sashakosti/Go_Bot_Marceline/internal/storage"
)

// FallbackRoast используется, когда нет ни seed-строк, ни строк чата.
const FallbackRoast = "You are bad."

// LoadSeedRoasts читает непустые строки файла. Отсутствующий файл - не ошибка.
func LoadSeedRoasts(path string) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}

type RoastService struct {
	store RoastStore
	seeds []string

	mu  sync.Mutex
	rng *rand.Rand
}

func NewRoastService(store RoastStore, seeds []string) *RoastService {
	return &RoastService{
		store: store,
		seeds: seeds,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Roast - случайная строка из seed-файла и строк чата.
func (s *RoastService) Roast(ctx context.Context, chatID int64) (string, error) {
	custom, err := s.store.ListRoasts(ctx, chatID)
	if err != nil {
		return "", err
	}
	pool := append([]string(nil), s.seeds...)
	for _, r := range custom {
		pool = append(pool, r.Text)
	}
	if len(pool) == 0 {
		return FallbackRoast, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return pool[s.rng.Intn(len(pool))], nil
}

func (s *RoastService) Add(ctx context.Context, chatID int64, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrInvalidChoice
	}
	return s.store.AddRoast(ctx, chatID, text)
}

func (s *RoastService) List(ctx context.Context, chatID int64) ([]storage.RoastLine, error) {
	return s.store.ListRoasts(ctx, chatID)
}

// DeleteAt удаляет строку по номеру из /roastshow (с единицы).
func (s *RoastService) DeleteAt(ctx context.Context, chatID int64, index int) error {
	lines, err := s.store.ListRoasts(ctx, chatID)
	if err != nil {
		return err
	}
	if index < 1 || index > len(lines) {
		return ErrInvalidChoice
	}
	return s.store.DeleteRoast(ctx, lines[index-1].ID)
}
