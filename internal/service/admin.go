package service

import (
	"context"
	"fmt"

	"github.com/sashakosti/Go_Bot_Marceline/internal/storage"
)

// AdminService - команды суперадмина. Все методы проверяют userID.
type AdminService struct {
	superAdminID int64
	dir          DirectoryStore
	sessions     SessionStore
	matches      MatchStore
}

func NewAdminService(superAdminID int64, dir DirectoryStore, sessions SessionStore, matches MatchStore) *AdminService {
	return &AdminService{superAdminID: superAdminID, dir: dir, sessions: sessions, matches: matches}
}

// Authorize - ErrPermissionDenied для всех, кроме суперадмина.
func (s *AdminService) Authorize(userID int64) error {
	if s.superAdminID == 0 || userID != s.superAdminID {
		return ErrPermissionDenied
	}
	return nil
}

// ResetChat стирает статистику и сессии чата.
func (s *AdminService) ResetChat(ctx context.Context, userID, chatID int64) error {
	if err := s.Authorize(userID); err != nil {
		return err
	}
	if err := s.matches.DeleteChatMatches(ctx, chatID); err != nil {
		return fmt.Errorf("delete matches: %w", err)
	}
	if err := s.sessions.DeleteChatSessions(ctx, chatID); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	return nil
}

func (s *AdminService) Groups(ctx context.Context, userID int64) ([]storage.Chat, error) {
	if err := s.Authorize(userID); err != nil {
		return nil, err
	}
	return s.dir.ListChats(ctx)
}

// ForgetChat удаляет чат из справочника после выхода бота из него.
func (s *AdminService) ForgetChat(ctx context.Context, userID, chatID int64) error {
	if err := s.Authorize(userID); err != nil {
		return err
	}
	return s.dir.DeleteChat(ctx, chatID)
}
