package service

import (
	"context"
	"errors"
	"time"

	"github.com/sashakosti/Go_Bot_Marceline/internal/game"
	"github.com/sashakosti/Go_Bot_Marceline/internal/storage"
	"github.com/sashakosti/Go_Bot_Marceline/internal/wizard"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionExpired   = errors.New("session expired")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNoSquad          = errors.New("no primary squad configured")
	ErrNoCandidates     = errors.New("no opponent candidates")
	ErrNotDuel          = errors.New("action requires a 1v1 session")
	ErrWizardNotFound   = errors.New("stats wizard not found")
	ErrInvalidChoice    = errors.New("invalid choice")
	ErrKeywordTaken     = errors.New("keyword taken")
	ErrNotFound         = errors.New("not found")
)

// DirectoryStore - участники чатов и настройки чатов.
type DirectoryStore interface {
	TouchMember(ctx context.Context, chat storage.Chat, user storage.User, at time.Time) error
	ListMembers(ctx context.Context, chatID, excludeUserID int64, limit int) ([]storage.Member, error)
	SetExcluded(ctx context.Context, chatID, userID int64, excluded bool) error
	GetUser(ctx context.Context, userID int64) (storage.User, error)
	GetUsers(ctx context.Context, ids []int64) (map[int64]storage.User, error)
	FindMemberByUsername(ctx context.Context, chatID int64, username string) (storage.User, error)
	GetChat(ctx context.Context, chatID int64) (storage.Chat, error)
	ListChats(ctx context.Context) ([]storage.Chat, error)
	DeleteChat(ctx context.Context, chatID int64) error
	SetAbout(ctx context.Context, chatID int64, text string) error
	GetChatConfig(ctx context.Context, chatID int64) (storage.ChatConfig, error)
	SetPrimarySquad(ctx context.Context, chatID int64, squad []int64) error
	SetSessionTTL(ctx context.Context, chatID int64, minutes int) error
}

// SessionStore - долговременное хранилище RSVP-сессий.
type SessionStore interface {
	CreateSession(ctx context.Context, s *game.Session) error
	GetSession(ctx context.Context, chatID, messageID int64) (*game.Session, error)
	UpdateSession(ctx context.Context, s *game.Session) error
	DeleteSession(ctx context.Context, chatID, messageID int64) error
	ListExpiredSessions(ctx context.Context, now time.Time) ([]*game.Session, error)
	DeleteChatSessions(ctx context.Context, chatID int64) error
}

// MatchStore - журнал матчей, только добавление.
type MatchStore interface {
	AppendMatches(ctx context.Context, records []game.MatchRecord) error
	ListMatches(ctx context.Context, chatID int64) ([]game.MatchRecord, error)
	DeleteChatMatches(ctx context.Context, chatID int64) error
}

type VaultStore interface {
	SaveItem(ctx context.Context, item storage.VaultItem) error
	GetItem(ctx context.Context, chatID int64, keyword string, kinds ...storage.ItemKind) (storage.VaultItem, error)
	ListItems(ctx context.Context, chatID int64, kinds ...storage.ItemKind) ([]storage.VaultItem, error)
	DeleteItem(ctx context.Context, chatID int64, keyword string, kinds ...storage.ItemKind) error
	RandomItem(ctx context.Context, chatID int64, kind storage.ItemKind) (storage.VaultItem, error)
}

type RoastStore interface {
	AddRoast(ctx context.Context, chatID int64, text string) error
	ListRoasts(ctx context.Context, chatID int64) ([]storage.RoastLine, error)
	DeleteRoast(ctx context.Context, id int64) error
}

// WizardStore - эфемерное состояние мастера статистики, один на чат.
type WizardStore interface {
	Put(ctx context.Context, w *wizard.Wizard) error
	Get(ctx context.Context, chatID int64) (*wizard.Wizard, error)
	Delete(ctx context.Context, chatID int64) error
}

// Store - все хранилища сразу; ему удовлетворяют storage.Storage и memory.Store.
type Store interface {
	DirectoryStore
	SessionStore
	MatchStore
	VaultStore
	RoastStore
}

// displayNames резолвит имена на момент рендера; неизвестные ID пропускаются.
func displayNames(ctx context.Context, dir DirectoryStore, ids []int64) (map[int64]string, error) {
	users, err := dir.GetUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(users))
	for id, u := range users {
		names[id] = u.FullName
	}
	return names, nil
}
