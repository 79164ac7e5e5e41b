package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sashakosti/Go_Bot_Marceline/internal/game"
)

// sessionState - полуструктурированная часть сессии, хранится в JSONB.
type sessionState struct {
	PlayerA   int64           `json:"player_a,omitempty"`
	PlayerB   int64           `json:"player_b,omitempty"`
	Squad     []int64         `json:"squad,omitempty"`
	Responses []game.Response `json:"responses"`
}

// EncodeSession отделяет JSON-состояние от колонок. Используется и memory-хранилищем.
func EncodeSession(s *game.Session) ([]byte, error) {
	st := sessionState{
		PlayerA:   s.Lineup.PlayerA,
		PlayerB:   s.Lineup.PlayerB,
		Squad:     s.Lineup.Squad,
		Responses: s.Responses,
	}
	if st.Responses == nil {
		st.Responses = []game.Response{}
	}
	return json.Marshal(st)
}

// DecodeSession собирает и валидирует сессию из колонок и JSON-состояния.
func DecodeSession(chatID, messageID int64, mode game.Mode, initiatorID int64, createdAt, expiresAt time.Time, state []byte) (*game.Session, error) {
	var st sessionState
	if err := json.Unmarshal(state, &st); err != nil {
		return nil, fmt.Errorf("decode session state: %w", err)
	}
	s := &game.Session{
		ChatID:      chatID,
		MessageID:   messageID,
		InitiatorID: initiatorID,
		Lineup: game.Lineup{
			Mode:    mode,
			PlayerA: st.PlayerA,
			PlayerB: st.PlayerB,
			Squad:   st.Squad,
		},
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
		Responses: st.Responses,
	}
	if len(s.Responses) == 0 {
		s.Responses = nil
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

const sessionColumns = `chat_id, message_id, mode, initiator_id, created_at, expires_at, state`

func scanSession(row pgx.Row) (*game.Session, error) {
	var (
		chatID, messageID, initiatorID int64
		mode                           string
		createdAt, expiresAt           time.Time
		state                          []byte
	)
	if err := row.Scan(&chatID, &messageID, &mode, &initiatorID, &createdAt, &expiresAt, &state); err != nil {
		return nil, notFound(err)
	}
	return DecodeSession(chatID, messageID, game.Mode(mode), initiatorID, createdAt, expiresAt, state)
}

func (s *Storage) CreateSession(ctx context.Context, sess *game.Session) error {
	state, err := EncodeSession(sess)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO sessions (`+sessionColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)`,
		sess.ChatID, sess.MessageID, string(sess.Lineup.Mode), sess.InitiatorID, sess.CreatedAt, sess.ExpiresAt, string(state),
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (s *Storage) GetSession(ctx context.Context, chatID, messageID int64) (*game.Session, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE chat_id = $1 AND message_id = $2`,
		chatID, messageID,
	)
	return scanSession(row)
}

// UpdateSession перезаписывает состояние целиком: последняя запись побеждает.
func (s *Storage) UpdateSession(ctx context.Context, sess *game.Session) error {
	state, err := EncodeSession(sess)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE sessions SET state = $3::jsonb, expires_at = $4 WHERE chat_id = $1 AND message_id = $2`,
		sess.ChatID, sess.MessageID, string(state), sess.ExpiresAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Storage) DeleteSession(ctx context.Context, chatID, messageID int64) error {
	_, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE chat_id = $1 AND message_id = $2`, chatID, messageID)
	return err
}

// ListExpiredSessions - сессии, у которых expires_at уже в прошлом.
func (s *Storage) ListExpiredSessions(ctx context.Context, now time.Time) ([]*game.Session, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE expires_at < $1 ORDER BY expires_at`, now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*game.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// DeleteChatSessions удаляет все сессии чата (для /resetall).
func (s *Storage) DeleteChatSessions(ctx context.Context, chatID int64) error {
	_, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE chat_id = $1`, chatID)
	return err
}
