package storage

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/sashakosti/Go_Bot_Marceline/internal/game"
)

// AppendMatches - сохранение серии матчей одной транзакцией
func (s *Storage) AppendMatches(ctx context.Context, records []game.MatchRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(
			`INSERT INTO match_stats (chat_id, player_a_id, player_b_id, score_a, score_b, is_draw, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			r.ChatID, r.PlayerA, r.PlayerB, r.ScoreA, r.ScoreB, r.IsDraw, r.CreatedAt,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListMatches - все записи матчей чата
func (s *Storage) ListMatches(ctx context.Context, chatID int64) ([]game.MatchRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, chat_id, player_a_id, player_b_id, score_a, score_b, is_draw, created_at
		 FROM match_stats WHERE chat_id = $1 ORDER BY id`,
		chatID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []game.MatchRecord
	for rows.Next() {
		var r game.MatchRecord
		if err := rows.Scan(&r.ID, &r.ChatID, &r.PlayerA, &r.PlayerB, &r.ScoreA, &r.ScoreB, &r.IsDraw, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteChatMatches - сброс статистики чата
func (s *Storage) DeleteChatMatches(ctx context.Context, chatID int64) error {
	_, err := s.db.Exec(ctx, `DELETE FROM match_stats WHERE chat_id = $1`, chatID)
	return err
}
