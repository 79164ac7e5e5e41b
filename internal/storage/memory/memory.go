// Package memory - хранилище в памяти процесса. Используется, когда
// POSTGRES_DSN не задан, и в тестах сервисов.
package memory

import (
	"context"
	"math/rand"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sashakosti/Go_Bot_Marceline/internal/game"
	"github.com/sashakosti/Go_Bot_Marceline/internal/storage"
)

type memberKey struct{ chatID, userID int64 }
type sessionKey struct{ chatID, messageID int64 }

type chatRow struct {
	chat   storage.Chat
	config storage.ChatConfig
}

// sessionRow хранит сессию в том же виде, что и PostgreSQL: колонки + JSON.
type sessionRow struct {
	mode        game.Mode
	initiatorID int64
	createdAt   time.Time
	expiresAt   time.Time
	state       []byte
}

type Store struct {
	mu       sync.RWMutex
	chats    map[int64]*chatRow
	users    map[int64]storage.User
	members  map[memberKey]*storage.Member
	sessions map[sessionKey]sessionRow
	matches  []game.MatchRecord
	items    []storage.VaultItem
	roasts   []storage.RoastLine
	nextID   int64
}

func New() *Store {
	return &Store{
		chats:    make(map[int64]*chatRow),
		users:    make(map[int64]storage.User),
		members:  make(map[memberKey]*storage.Member),
		sessions: make(map[sessionKey]sessionRow),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) chat(chatID int64) *chatRow {
	c, ok := s.chats[chatID]
	if !ok {
		c = &chatRow{
			chat:   storage.Chat{ChatID: chatID},
			config: storage.ChatConfig{SessionTTLMinutes: storage.DefaultSessionTTLMinutes},
		}
		s.chats[chatID] = c
	}
	return c
}

// --- directory ---

func (s *Store) TouchMember(_ context.Context, chat storage.Chat, user storage.User, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chat(chat.ChatID).chat.Title = chat.Title
	s.users[user.UserID] = user
	key := memberKey{chat.ChatID, user.UserID}
	m, ok := s.members[key]
	if !ok {
		m = &storage.Member{ChatID: chat.ChatID}
		s.members[key] = m
	}
	m.User = user
	m.LastActive = at
	return nil
}

func (s *Store) ListMembers(_ context.Context, chatID, excludeUserID int64, limit int) ([]storage.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []storage.Member
	for key, m := range s.members {
		if key.chatID != chatID || key.userID == excludeUserID {
			continue
		}
		cp := *m
		cp.User = s.users[key.userID]
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastActive.Equal(out[j].LastActive) {
			return out[i].LastActive.After(out[j].LastActive)
		}
		return out[i].User.UserID < out[j].User.UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) SetExcluded(_ context.Context, chatID, userID int64, excluded bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[memberKey{chatID, userID}]
	if !ok {
		return storage.ErrNotFound
	}
	m.IsExcluded = excluded
	return nil
}

func (s *Store) GetUser(_ context.Context, userID int64) (storage.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return storage.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUsers(_ context.Context, ids []int64) (map[int64]storage.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int64]storage.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (s *Store) FindMemberByUsername(_ context.Context, chatID int64, username string) (storage.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for key := range s.members {
		u := s.users[key.userID]
		if key.chatID == chatID && u.Username != "" && strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return storage.User{}, storage.ErrNotFound
}

func (s *Store) GetChat(_ context.Context, chatID int64) (storage.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.chats[chatID]
	if !ok {
		return storage.Chat{}, storage.ErrNotFound
	}
	return c.chat, nil
}

func (s *Store) ListChats(_ context.Context) ([]storage.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]storage.Chat, 0, len(s.chats))
	for _, c := range s.chats {
		out = append(out, c.chat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChatID < out[j].ChatID })
	return out, nil
}

func (s *Store) DeleteChat(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.chats, chatID)
	for key := range s.members {
		if key.chatID == chatID {
			delete(s.members, key)
		}
	}
	return nil
}

func (s *Store) SetAbout(_ context.Context, chatID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chat(chatID).chat.AboutText = text
	return nil
}

func (s *Store) GetChatConfig(_ context.Context, chatID int64) (storage.ChatConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.chats[chatID]
	if !ok {
		return storage.ChatConfig{SessionTTLMinutes: storage.DefaultSessionTTLMinutes}, nil
	}
	cfg := c.config
	cfg.PrimarySquad = slices.Clone(cfg.PrimarySquad)
	return cfg, nil
}

func (s *Store) SetPrimarySquad(_ context.Context, chatID int64, squad []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chat(chatID).config.PrimarySquad = slices.Clone(squad)
	return nil
}

func (s *Store) SetSessionTTL(_ context.Context, chatID int64, minutes int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chat(chatID).config.SessionTTLMinutes = minutes
	return nil
}

// --- sessions ---

func (s *Store) CreateSession(_ context.Context, sess *game.Session) error {
	state, err := storage.EncodeSession(sess)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sessionKey{sess.ChatID, sess.MessageID}
	if _, ok := s.sessions[key]; ok {
		return storage.ErrDuplicate
	}
	s.sessions[key] = sessionRow{
		mode:        sess.Lineup.Mode,
		initiatorID: sess.InitiatorID,
		createdAt:   sess.CreatedAt,
		expiresAt:   sess.ExpiresAt,
		state:       state,
	}
	return nil
}

func (s *Store) GetSession(_ context.Context, chatID, messageID int64) (*game.Session, error) {
	s.mu.RLock()
	row, ok := s.sessions[sessionKey{chatID, messageID}]
	s.mu.RUnlock()
	if !ok {
		return nil, storage.ErrNotFound
	}
	return storage.DecodeSession(chatID, messageID, row.mode, row.initiatorID, row.createdAt, row.expiresAt, row.state)
}

func (s *Store) UpdateSession(_ context.Context, sess *game.Session) error {
	state, err := storage.EncodeSession(sess)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sessionKey{sess.ChatID, sess.MessageID}
	row, ok := s.sessions[key]
	if !ok {
		return storage.ErrNotFound
	}
	row.state = state
	row.expiresAt = sess.ExpiresAt
	s.sessions[key] = row
	return nil
}

func (s *Store) DeleteSession(_ context.Context, chatID, messageID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionKey{chatID, messageID})
	return nil
}

func (s *Store) ListExpiredSessions(_ context.Context, now time.Time) ([]*game.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*game.Session
	for key, row := range s.sessions {
		if !row.expiresAt.Before(now) {
			continue
		}
		sess, err := storage.DecodeSession(key.chatID, key.messageID, row.mode, row.initiatorID, row.createdAt, row.expiresAt, row.state)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out, nil
}

func (s *Store) DeleteChatSessions(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.sessions {
		if key.chatID == chatID {
			delete(s.sessions, key)
		}
	}
	return nil
}

// SessionCount - для тестов и отладки.
func (s *Store) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// --- matches ---

func (s *Store) AppendMatches(_ context.Context, records []game.MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		r.ID = s.id()
		s.matches = append(s.matches, r)
	}
	return nil
}

func (s *Store) ListMatches(_ context.Context, chatID int64) ([]game.MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []game.MatchRecord
	for _, r := range s.matches {
		if r.ChatID == chatID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) DeleteChatMatches(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.matches = slices.DeleteFunc(s.matches, func(r game.MatchRecord) bool { return r.ChatID == chatID })
	return nil
}

// --- vault ---

func (s *Store) SaveItem(_ context.Context, item storage.VaultItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range s.items {
		if it.ChatID == item.ChatID && it.Keyword == item.Keyword {
			return storage.ErrDuplicate
		}
	}
	item.ID = s.id()
	item.CreatedAt = time.Now()
	s.items = append(s.items, item)
	return nil
}

func (s *Store) GetItem(_ context.Context, chatID int64, keyword string, kinds ...storage.ItemKind) (storage.VaultItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, it := range s.items {
		if it.ChatID == chatID && it.Keyword == keyword && (len(kinds) == 0 || slices.Contains(kinds, it.Kind)) {
			return it, nil
		}
	}
	return storage.VaultItem{}, storage.ErrNotFound
}

func (s *Store) ListItems(_ context.Context, chatID int64, kinds ...storage.ItemKind) ([]storage.VaultItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []storage.VaultItem
	for _, it := range s.items {
		if it.ChatID == chatID && slices.Contains(kinds, it.Kind) {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Keyword < out[j].Keyword })
	return out, nil
}

func (s *Store) DeleteItem(_ context.Context, chatID int64, keyword string, kinds ...storage.ItemKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.items)
	s.items = slices.DeleteFunc(s.items, func(it storage.VaultItem) bool {
		return it.ChatID == chatID && it.Keyword == keyword && slices.Contains(kinds, it.Kind)
	})
	if len(s.items) == before {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) RandomItem(_ context.Context, chatID int64, kind storage.ItemKind) (storage.VaultItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pool []storage.VaultItem
	for _, it := range s.items {
		if it.ChatID == chatID && it.Kind == kind {
			pool = append(pool, it)
		}
	}
	if len(pool) == 0 {
		return storage.VaultItem{}, storage.ErrNotFound
	}
	return pool[rand.Intn(len(pool))], nil
}

// --- roasts ---

func (s *Store) AddRoast(_ context.Context, chatID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.roasts = append(s.roasts, storage.RoastLine{ID: s.id(), ChatID: chatID, Text: text})
	return nil
}

func (s *Store) ListRoasts(_ context.Context, chatID int64) ([]storage.RoastLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []storage.RoastLine
	for _, r := range s.roasts {
		if r.ChatID == chatID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) DeleteRoast(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.roasts)
	s.roasts = slices.DeleteFunc(s.roasts, func(r storage.RoastLine) bool { return r.ID == id })
	if len(s.roasts) == before {
		return storage.ErrNotFound
	}
	return nil
}
