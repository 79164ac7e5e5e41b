package storage

import "context"

func (s *Storage) AddRoast(ctx context.Context, chatID int64, text string) error {
	_, err := s.db.Exec(ctx, `INSERT INTO roasts (chat_id, text) VALUES ($1, $2)`, chatID, text)
	return err
}

// ListRoasts - строки чата в порядке добавления
func (s *Storage) ListRoasts(ctx context.Context, chatID int64) ([]RoastLine, error) {
	rows, err := s.db.Query(ctx, `SELECT id, chat_id, text FROM roasts WHERE chat_id = $1 ORDER BY id`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RoastLine
	for rows.Next() {
		var r RoastLine
		if err := rows.Scan(&r.ID, &r.ChatID, &r.Text); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Storage) DeleteRoast(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM roasts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
