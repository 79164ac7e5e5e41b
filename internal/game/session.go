package game

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Mode - формат игровой сессии.
type Mode string

const (
	ModeOneVOne Mode = "1v1"
	ModeTwoVTwo Mode = "2v2"
)

// DefaultTTL - время жизни сессии, если для чата ничего не настроено.
const DefaultTTL = 360 * time.Minute

var (
	ErrInvalidLineup  = errors.New("game: invalid lineup")
	ErrInvalidSession = errors.New("game: invalid session")
)

// Lineup описывает участников сессии. Для 1v1 заполнены PlayerA и PlayerB,
// для 2v2 - Squad. Собирается только через NewDuel/NewSquad или Validate,
// поэтому 1v1 без соперника не существует.
type Lineup struct {
	Mode    Mode
	PlayerA int64
	PlayerB int64
	Squad   []int64
}

// NewDuel - состав 1v1.
func NewDuel(playerA, playerB int64) (Lineup, error) {
	l := Lineup{Mode: ModeOneVOne, PlayerA: playerA, PlayerB: playerB}
	return l, l.Validate()
}

// NewSquad - состав 2v2 из заранее настроенного сквада чата.
func NewSquad(squad []int64) (Lineup, error) {
	l := Lineup{Mode: ModeTwoVTwo, Squad: slices.Clone(squad)}
	return l, l.Validate()
}

func (l Lineup) Validate() error {
	switch l.Mode {
	case ModeOneVOne:
		if l.PlayerA == 0 || l.PlayerB == 0 {
			return fmt.Errorf("%w: both players are required", ErrInvalidLineup)
		}
		if l.PlayerA == l.PlayerB {
			return fmt.Errorf("%w: player cannot duel themselves", ErrInvalidLineup)
		}
		if len(l.Squad) > 0 {
			return fmt.Errorf("%w: 1v1 has no squad", ErrInvalidLineup)
		}
	case ModeTwoVTwo:
		if len(l.Squad) == 0 {
			return fmt.Errorf("%w: squad is empty", ErrInvalidLineup)
		}
		seen := make(map[int64]bool, len(l.Squad))
		for _, id := range l.Squad {
			if id == 0 || seen[id] {
				return fmt.Errorf("%w: squad has invalid or duplicate member %d", ErrInvalidLineup, id)
			}
			seen[id] = true
		}
		if l.PlayerB != 0 {
			return fmt.Errorf("%w: 2v2 has no opponent", ErrInvalidLineup)
		}
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidLineup, l.Mode)
	}
	return nil
}

// Members возвращает всех заявленных участников состава.
func (l Lineup) Members() []int64 {
	if l.Mode == ModeOneVOne {
		return []int64{l.PlayerA, l.PlayerB}
	}
	return slices.Clone(l.Squad)
}

// Session - одна RSVP-сессия, привязанная к интерактивному сообщению.
type Session struct {
	ChatID      int64
	MessageID   int64
	InitiatorID int64
	Lineup      Lineup
	CreatedAt   time.Time
	ExpiresAt   time.Time
	Responses   []Response
}

// New создает активную сессию. Сообщение уже должно быть отправлено:
// его ID является ключом сессии.
func New(chatID, messageID, initiatorID int64, lineup Lineup, now time.Time, ttl time.Duration) (*Session, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Session{
		ChatID:      chatID,
		MessageID:   messageID,
		InitiatorID: initiatorID,
		Lineup:      lineup,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate проверяет целостность сессии, в том числе восстановленной из хранилища.
func (s *Session) Validate() error {
	if s.ChatID == 0 || s.MessageID == 0 {
		return fmt.Errorf("%w: chat and message are required", ErrInvalidSession)
	}
	if s.InitiatorID == 0 {
		return fmt.Errorf("%w: initiator is required", ErrInvalidSession)
	}
	if !s.ExpiresAt.After(s.CreatedAt) {
		return fmt.Errorf("%w: expiry must follow creation", ErrInvalidSession)
	}
	if err := s.Lineup.Validate(); err != nil {
		return err
	}
	seen := make(map[int64]bool, len(s.Responses))
	for _, r := range s.Responses {
		if seen[r.UserID] {
			return fmt.Errorf("%w: user %d has more than one response", ErrInvalidSession, r.UserID)
		}
		if err := r.validate(); err != nil {
			return err
		}
		seen[r.UserID] = true
	}
	return nil
}

func (s *Session) Mode() Mode { return s.Lineup.Mode }

// Expired - истекла ли сессия к моменту now.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

func (s *Session) IsHost(userID int64) bool {
	return s.InitiatorID == userID
}

// CanClose - может ли пользователь остановить сессию или передать ее в статистику.
// В 1v1 это любой из двух игроков, в 2v2 - участник сквада или хост.
func (s *Session) CanClose(userID int64) bool {
	if s.Lineup.Mode == ModeOneVOne {
		return userID == s.Lineup.PlayerA || userID == s.Lineup.PlayerB
	}
	return s.IsHost(userID) || slices.Contains(s.Lineup.Squad, userID)
}
