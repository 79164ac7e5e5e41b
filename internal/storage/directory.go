package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// TouchMember обновляет чат, пользователя и отметку активности в одной транзакции.
func (s *Storage) TouchMember(ctx context.Context, chat Chat, user User, at time.Time) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO chats (chat_id, title) VALUES ($1, $2)
		 ON CONFLICT (chat_id) DO UPDATE SET title = EXCLUDED.title`,
		chat.ChatID, chat.Title,
	); err != nil {
		return fmt.Errorf("upsert chat: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO users (user_id, full_name, username) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE SET full_name = EXCLUDED.full_name, username = EXCLUDED.username`,
		user.UserID, user.FullName, user.Username,
	); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO chat_members (chat_id, user_id, last_active) VALUES ($1, $2, $3)
		 ON CONFLICT (chat_id, user_id) DO UPDATE SET last_active = EXCLUDED.last_active`,
		chat.ChatID, user.UserID, at,
	); err != nil {
		return fmt.Errorf("upsert member: %w", err)
	}

	return tx.Commit(ctx)
}

// ListMembers возвращает участников чата, самые активные первыми.
// excludeUserID = 0 и limit <= 0 отключают соответствующие фильтры.
func (s *Storage) ListMembers(ctx context.Context, chatID, excludeUserID int64, limit int) ([]Member, error) {
	query := `SELECT m.chat_id, u.user_id, u.full_name, u.username, m.is_excluded, m.last_active
		 FROM chat_members m
		 JOIN users u ON u.user_id = m.user_id
		 WHERE m.chat_id = $1 AND m.user_id <> $2
		 ORDER BY m.last_active DESC`
	args := []any{chatID, excludeUserID}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ChatID, &m.User.UserID, &m.User.FullName, &m.User.Username, &m.IsExcluded, &m.LastActive); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// SetExcluded помечает участника для /all. Возвращает ErrNotFound, если участник не отслеживается.
func (s *Storage) SetExcluded(ctx context.Context, chatID, userID int64, excluded bool) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE chat_members SET is_excluded = $3 WHERE chat_id = $1 AND user_id = $2`,
		chatID, userID, excluded,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Storage) GetUser(ctx context.Context, userID int64) (User, error) {
	var u User
	err := s.db.QueryRow(ctx,
		`SELECT user_id, full_name, username FROM users WHERE user_id = $1`, userID,
	).Scan(&u.UserID, &u.FullName, &u.Username)
	return u, notFound(err)
}

// GetUsers - пакетное получение имен, отсутствующие ID просто не попадают в ответ.
func (s *Storage) GetUsers(ctx context.Context, ids []int64) (map[int64]User, error) {
	out := make(map[int64]User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.db.Query(ctx,
		`SELECT user_id, full_name, username FROM users WHERE user_id = ANY($1)`, ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var u User
		if err := rows.Scan(&u.UserID, &u.FullName, &u.Username); err != nil {
			return nil, err
		}
		out[u.UserID] = u
	}
	return out, rows.Err()
}

// FindMemberByUsername ищет участника чата по @username (без учета регистра).
func (s *Storage) FindMemberByUsername(ctx context.Context, chatID int64, username string) (User, error) {
	var u User
	err := s.db.QueryRow(ctx,
		`SELECT u.user_id, u.full_name, u.username
		 FROM chat_members m JOIN users u ON u.user_id = m.user_id
		 WHERE m.chat_id = $1 AND LOWER(u.username) = LOWER($2)`,
		chatID, username,
	).Scan(&u.UserID, &u.FullName, &u.Username)
	return u, notFound(err)
}

func (s *Storage) GetChat(ctx context.Context, chatID int64) (Chat, error) {
	var c Chat
	err := s.db.QueryRow(ctx,
		`SELECT chat_id, title, about_text FROM chats WHERE chat_id = $1`, chatID,
	).Scan(&c.ChatID, &c.Title, &c.AboutText)
	return c, notFound(err)
}

func (s *Storage) ListChats(ctx context.Context) ([]Chat, error) {
	rows, err := s.db.Query(ctx, `SELECT chat_id, title, about_text FROM chats ORDER BY chat_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []Chat
	for rows.Next() {
		var c Chat
		if err := rows.Scan(&c.ChatID, &c.Title, &c.AboutText); err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

// DeleteChat удаляет чат вместе с участниками (каскадом).
func (s *Storage) DeleteChat(ctx context.Context, chatID int64) error {
	_, err := s.db.Exec(ctx, `DELETE FROM chats WHERE chat_id = $1`, chatID)
	return err
}

func (s *Storage) SetAbout(ctx context.Context, chatID int64, text string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO chats (chat_id, about_text) VALUES ($1, $2)
		 ON CONFLICT (chat_id) DO UPDATE SET about_text = EXCLUDED.about_text`,
		chatID, text,
	)
	return err
}

// GetChatConfig возвращает настройки сессий; для неизвестного чата - значения по умолчанию.
func (s *Storage) GetChatConfig(ctx context.Context, chatID int64) (ChatConfig, error) {
	cfg := ChatConfig{SessionTTLMinutes: DefaultSessionTTLMinutes}
	var squad []byte
	err := s.db.QueryRow(ctx,
		`SELECT session_ttl, primary_squad FROM chats WHERE chat_id = $1`, chatID,
	).Scan(&cfg.SessionTTLMinutes, &squad)
	if err != nil {
		if notFound(err) == ErrNotFound {
			return cfg, nil
		}
		return cfg, err
	}
	if len(squad) > 0 {
		if err := json.Unmarshal(squad, &cfg.PrimarySquad); err != nil {
			return cfg, fmt.Errorf("decode squad: %w", err)
		}
	}
	return cfg, nil
}

func (s *Storage) SetPrimarySquad(ctx context.Context, chatID int64, squad []int64) error {
	data, err := json.Marshal(squad)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO chats (chat_id, primary_squad) VALUES ($1, $2::jsonb)
		 ON CONFLICT (chat_id) DO UPDATE SET primary_squad = EXCLUDED.primary_squad`,
		chatID, string(data),
	)
	return err
}

func (s *Storage) SetSessionTTL(ctx context.Context, chatID int64, minutes int) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO chats (chat_id, session_ttl) VALUES ($1, $2)
		 ON CONFLICT (chat_id) DO UPDATE SET session_ttl = EXCLUDED.session_ttl`,
		chatID, minutes,
	)
	return err
}
