package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sashakosti/Go_Bot_Marceline/internal/game"
	"github.com/sashakosti/Go_Bot_Marceline/internal/storage"
)

// OpponentPageSize - сколько кандидатов показывать в выборе соперника.
const OpponentPageSize = 50

// SessionService - жизненный цикл RSVP-сессии. Каждый переход - отдельный
// цикл чтение-изменение-запись без блокировок: при одновременных нажатиях
// разных пользователей побеждает последняя запись.
type SessionService struct {
	dir      DirectoryStore
	sessions SessionStore
	now      func() time.Time
}

func NewSessionService(dir DirectoryStore, sessions SessionStore, now func() time.Time) *SessionService {
	if now == nil {
		now = time.Now
	}
	return &SessionService{dir: dir, sessions: sessions, now: now}
}

// OpponentCandidates - участники чата кроме инициатора, самые активные первыми.
func (s *SessionService) OpponentCandidates(ctx context.Context, chatID, initiatorID int64) ([]storage.Member, error) {
	members, err := s.dir.ListMembers(ctx, chatID, initiatorID, OpponentPageSize)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	if len(members) == 0 {
		return nil, ErrNoCandidates
	}
	return members, nil
}

// PrepareDuel проверяет состав 1v1 до того, как что-либо будет сохранено.
func (s *SessionService) PrepareDuel(initiatorID, opponentID int64) (game.Lineup, error) {
	l, err := game.NewDuel(initiatorID, opponentID)
	if err != nil {
		return game.Lineup{}, fmt.Errorf("%w: %v", ErrInvalidChoice, err)
	}
	return l, nil
}

// PrepareSquad берет основной сквад чата. ErrNoSquad, если он не настроен.
func (s *SessionService) PrepareSquad(ctx context.Context, chatID int64) (game.Lineup, error) {
	cfg, err := s.dir.GetChatConfig(ctx, chatID)
	if err != nil {
		return game.Lineup{}, fmt.Errorf("chat config: %w", err)
	}
	if len(cfg.PrimarySquad) == 0 {
		return game.Lineup{}, ErrNoSquad
	}
	l, err := game.NewSquad(cfg.PrimarySquad)
	if err != nil {
		return game.Lineup{}, ErrNoSquad
	}
	return l, nil
}

// Open сохраняет новую сессию под ID уже отправленного сообщения.
func (s *SessionService) Open(ctx context.Context, chatID, messageID, initiatorID int64, lineup game.Lineup) (*game.Session, error) {
	cfg, err := s.dir.GetChatConfig(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("chat config: %w", err)
	}
	sess, err := game.New(chatID, messageID, initiatorID, lineup, s.now(), cfg.TTL())
	if err != nil {
		return nil, err
	}
	if err := s.sessions.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// Get возвращает активную сессию. Просроченная сессия удаляется сразу,
// не дожидаясь Reaper.
func (s *SessionService) Get(ctx context.Context, chatID, messageID int64) (*game.Session, error) {
	sess, err := s.sessions.GetSession(ctx, chatID, messageID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess.Expired(s.now()) {
		if err := s.sessions.DeleteSession(ctx, chatID, messageID); err != nil {
			return nil, fmt.Errorf("delete expired session: %w", err)
		}
		return nil, ErrSessionExpired
	}
	return sess, nil
}

// Respond переводит пользователя в корзину In/Out/Pending.
func (s *SessionService) Respond(ctx context.Context, chatID, messageID int64, r game.Response) (*game.Session, error) {
	sess, err := s.Get(ctx, chatID, messageID)
	if err != nil {
		return nil, err
	}
	if err := sess.Respond(r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidChoice, err)
	}
	if err := s.sessions.UpdateSession(ctx, sess); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("update session: %w", err)
	}
	return sess, nil
}

// Stop завершает сессию. Сообщение удаляет вызывающий.
func (s *SessionService) Stop(ctx context.Context, chatID, messageID, userID int64) (*game.Session, error) {
	sess, err := s.Get(ctx, chatID, messageID)
	if err != nil {
		return nil, err
	}
	if !sess.CanClose(userID) {
		return nil, ErrPermissionDenied
	}
	return sess, s.delete(ctx, sess)
}

// HandOff закрывает 1v1 сессию для передачи игроков в мастер статистики.
func (s *SessionService) HandOff(ctx context.Context, chatID, messageID, userID int64) (*game.Session, error) {
	sess, err := s.Get(ctx, chatID, messageID)
	if err != nil {
		return nil, err
	}
	if sess.Mode() != game.ModeOneVOne {
		return nil, ErrNotDuel
	}
	if !sess.CanClose(userID) {
		return nil, ErrPermissionDenied
	}
	return sess, s.delete(ctx, sess)
}

// Reassign - смена соперника хостом: текущая сессия удаляется,
// новая создается заново через выбор соперника.
func (s *SessionService) Reassign(ctx context.Context, chatID, messageID, userID int64) (*game.Session, error) {
	sess, err := s.RequireHost(ctx, chatID, messageID, userID)
	if err != nil {
		return nil, err
	}
	if sess.Mode() != game.ModeOneVOne {
		return nil, ErrNotDuel
	}
	return sess, s.delete(ctx, sess)
}

// RequireHost возвращает сессию, только если userID - ее инициатор.
func (s *SessionService) RequireHost(ctx context.Context, chatID, messageID, userID int64) (*game.Session, error) {
	sess, err := s.Get(ctx, chatID, messageID)
	if err != nil {
		return nil, err
	}
	if !sess.IsHost(userID) {
		return nil, ErrPermissionDenied
	}
	return sess, nil
}

// Names - отображаемые имена для рендера сообщения сессии.
func (s *SessionService) Names(ctx context.Context, ids []int64) (map[int64]string, error) {
	return displayNames(ctx, s.dir, ids)
}

func (s *SessionService) delete(ctx context.Context, sess *game.Session) error {
	if err := s.sessions.DeleteSession(ctx, sess.ChatID, sess.MessageID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
