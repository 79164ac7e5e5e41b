package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/sashakosti/Go_Bot_Marceline/internal/storage"
)

const (
	MinSquadSize  = 2
	MaxSquadSize  = 4
	MaxTTLMinutes = 7 * 24 * 60
	MentionChunk  = 30
)

// MembersService - учет участников, /all, сквад и настройки чата.
type MembersService struct {
	dir DirectoryStore
	now func() time.Time
}

func NewMembersService(dir DirectoryStore, now func() time.Time) *MembersService {
	if now == nil {
		now = time.Now
	}
	return &MembersService{dir: dir, now: now}
}

// Track отмечает активность пользователя в чате.
func (s *MembersService) Track(ctx context.Context, chat storage.Chat, user storage.User) error {
	return s.dir.TouchMember(ctx, chat, user, s.now())
}

// Overview - сводка для /alllist.
type Overview struct {
	Total    int
	Included []storage.User
	Excluded []storage.User
}

func (s *MembersService) Overview(ctx context.Context, chatID int64) (Overview, error) {
	members, err := s.dir.ListMembers(ctx, chatID, 0, 0)
	if err != nil {
		return Overview{}, err
	}
	ov := Overview{Total: len(members)}
	for _, m := range members {
		if m.IsExcluded {
			ov.Excluded = append(ov.Excluded, m.User)
		} else {
			ov.Included = append(ov.Included, m.User)
		}
	}
	return ov, nil
}

// MentionBatches делит неисключенных участников на пачки для /all.
func (s *MembersService) MentionBatches(ctx context.Context, chatID int64) ([][]storage.User, error) {
	ov, err := s.Overview(ctx, chatID)
	if err != nil {
		return nil, err
	}
	var batches [][]storage.User
	for chunk := range slices.Chunk(ov.Included, MentionChunk) {
		batches = append(batches, chunk)
	}
	return batches, nil
}

func (s *MembersService) SetExcluded(ctx context.Context, chatID, userID int64, excluded bool) error {
	err := s.dir.SetExcluded(ctx, chatID, userID, excluded)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// ResolveUsername находит отслеживаемого участника по @username.
func (s *MembersService) ResolveUsername(ctx context.Context, chatID int64, username string) (storage.User, error) {
	u, err := s.dir.FindMemberByUsername(ctx, chatID, username)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.User{}, ErrNotFound
	}
	return u, err
}

// SetSquad сохраняет основной сквад для 2v2: от MinSquadSize до MaxSquadSize разных людей.
func (s *MembersService) SetSquad(ctx context.Context, chatID int64, ids []int64) ([]int64, error) {
	var squad []int64
	for _, id := range ids {
		if id != 0 && !slices.Contains(squad, id) {
			squad = append(squad, id)
		}
	}
	if len(squad) < MinSquadSize || len(squad) > MaxSquadSize {
		return nil, fmt.Errorf("%w: squad needs %d-%d members", ErrInvalidChoice, MinSquadSize, MaxSquadSize)
	}
	if err := s.dir.SetPrimarySquad(ctx, chatID, squad); err != nil {
		return nil, err
	}
	return squad, nil
}

// Squad возвращает имена основного сквада. ErrNoSquad, если он не задан.
func (s *MembersService) Squad(ctx context.Context, chatID int64) ([]string, error) {
	cfg, err := s.dir.GetChatConfig(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if len(cfg.PrimarySquad) == 0 {
		return nil, ErrNoSquad
	}
	names, err := displayNames(ctx, s.dir, cfg.PrimarySquad)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(cfg.PrimarySquad))
	for _, id := range cfg.PrimarySquad {
		if n, ok := names[id]; ok {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *MembersService) SetSessionTTL(ctx context.Context, chatID int64, minutes int) error {
	if minutes < 1 || minutes > MaxTTLMinutes {
		return ErrInvalidChoice
	}
	return s.dir.SetSessionTTL(ctx, chatID, minutes)
}

// About - текст /about; пустая строка, если не задан.
func (s *MembersService) About(ctx context.Context, chatID int64) (string, error) {
	chat, err := s.dir.GetChat(ctx, chatID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return chat.AboutText, nil
}

func (s *MembersService) SetAbout(ctx context.Context, chatID int64, text string) error {
	return s.dir.SetAbout(ctx, chatID, text)
}
