package storage

import (
	"context"
)

// SaveItem сохраняет элемент; ключ уникален в пределах чата для всех типов.
func (s *Storage) SaveItem(ctx context.Context, item VaultItem) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO vault_items (chat_id, keyword, item_type, content) VALUES ($1, $2, $3, $4)`,
		item.ChatID, item.Keyword, string(item.Kind), item.Content,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetItem ищет элемент по ключу. Пустой kinds - любой тип.
func (s *Storage) GetItem(ctx context.Context, chatID int64, keyword string, kinds ...ItemKind) (VaultItem, error) {
	var it VaultItem
	var kind string
	err := s.db.QueryRow(ctx,
		`SELECT id, chat_id, keyword, item_type, content, created_at FROM vault_items
		 WHERE chat_id = $1 AND keyword = $2 AND (cardinality($3::text[]) = 0 OR item_type = ANY($3))`,
		chatID, keyword, kindStrings(kinds),
	).Scan(&it.ID, &it.ChatID, &it.Keyword, &kind, &it.Content, &it.CreatedAt)
	it.Kind = ItemKind(kind)
	return it, notFound(err)
}

// ListItems возвращает элементы указанных типов, отсортированные по ключу.
func (s *Storage) ListItems(ctx context.Context, chatID int64, kinds ...ItemKind) ([]VaultItem, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, chat_id, keyword, item_type, content, created_at FROM vault_items
		 WHERE chat_id = $1 AND item_type = ANY($2) ORDER BY keyword`,
		chatID, kindStrings(kinds),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []VaultItem
	for rows.Next() {
		var it VaultItem
		var kind string
		if err := rows.Scan(&it.ID, &it.ChatID, &it.Keyword, &kind, &it.Content, &it.CreatedAt); err != nil {
			return nil, err
		}
		it.Kind = ItemKind(kind)
		out = append(out, it)
	}
	return out, rows.Err()
}

// DeleteItem удаляет элемент по ключу и типу. ErrNotFound, если удалять нечего.
func (s *Storage) DeleteItem(ctx context.Context, chatID int64, keyword string, kinds ...ItemKind) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM vault_items WHERE chat_id = $1 AND keyword = $2 AND item_type = ANY($3)`,
		chatID, keyword, kindStrings(kinds),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RandomItem - случайный элемент заданного типа (для /excuse).
func (s *Storage) RandomItem(ctx context.Context, chatID int64, kind ItemKind) (VaultItem, error) {
	var it VaultItem
	var k string
	err := s.db.QueryRow(ctx,
		`SELECT id, chat_id, keyword, item_type, content, created_at FROM vault_items
		 WHERE chat_id = $1 AND item_type = $2 ORDER BY random() LIMIT 1`,
		chatID, string(kind),
	).Scan(&it.ID, &it.ChatID, &it.Keyword, &k, &it.Content, &it.CreatedAt)
	it.Kind = ItemKind(k)
	return it, notFound(err)
}

func kindStrings(kinds []ItemKind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}
