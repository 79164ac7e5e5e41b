package storage

import (
	"errors"
	"strings"
	"time"
)

// ErrNotFound возвращается, когда запись отсутствует.
var ErrNotFound = errors.New("storage: not found")

// ErrDuplicate - нарушение уникальности (например, занятый ключ хранилища).
var ErrDuplicate = errors.New("storage: duplicate")

// Chat - отслеживаемая группа.
type Chat struct {
	ChatID    int64
	Title     string
	AboutText string
}

// User - участник Telegram.
type User struct {
	UserID   int64
	FullName string
	Username string
}

// DisplayName - @username, если есть, иначе полное имя.
func (u User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return u.FullName
}

// Member - связь чата и пользователя.
type Member struct {
	ChatID     int64
	User       User
	IsExcluded bool
	LastActive time.Time
}

// ChatConfig - настройки игровых сессий чата.
type ChatConfig struct {
	SessionTTLMinutes int
	PrimarySquad      []int64
}

// DefaultSessionTTLMinutes - 6 часов.
const DefaultSessionTTLMinutes = 360

// TTL возвращает время жизни сессии с учетом значения по умолчанию.
func (c ChatConfig) TTL() time.Duration {
	if c.SessionTTLMinutes <= 0 {
		return DefaultSessionTTLMinutes * time.Minute
	}
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// ItemKind - тип сохраненного элемента хранилища.
type ItemKind string

const (
	KindText     ItemKind = "text"
	KindPhoto    ItemKind = "photo"
	KindVideo    ItemKind = "video"
	KindDocument ItemKind = "document"
	KindVoice    ItemKind = "voice"
	KindAudio    ItemKind = "audio"
	KindSticker  ItemKind = "sticker"
	KindExcuse   ItemKind = "excuse"
)

// VaultItem - сохраненный текст или file_id.
type VaultItem struct {
	ID        int64
	ChatID    int64
	Keyword   string
	Kind      ItemKind
	Content   string
	CreatedAt time.Time
}

// NormalizeKeyword приводит ключ к нижнему регистру.
func NormalizeKeyword(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}

// RoastLine - пользовательская строка для /roast.
type RoastLine struct {
	ID     int64
	ChatID int64
	Text   string
}
