package service

import (
	"context"
	"errors"

	"github.com/sashakosti/Go_Bot_Marceline/internal/storage"
)

// MediaKinds - типы, которые сохраняет /save и показывает /sshow.
var MediaKinds = []storage.ItemKind{
	storage.KindText, storage.KindPhoto, storage.KindVideo,
	storage.KindDocument, storage.KindVoice, storage.KindAudio,
}

// VaultService - сохранение и вызов текстов, медиа, стикеров и отмазок.
type VaultService struct {
	store VaultStore
}

func NewVaultService(store VaultStore) *VaultService {
	return &VaultService{store: store}
}

// Save сохраняет элемент; ключ приводится к нижнему регистру.
func (s *VaultService) Save(ctx context.Context, chatID int64, keyword string, kind storage.ItemKind, content string) (string, error) {
	key := storage.NormalizeKeyword(keyword)
	if key == "" || content == "" {
		return "", ErrInvalidChoice
	}
	err := s.store.SaveItem(ctx, storage.VaultItem{ChatID: chatID, Keyword: key, Kind: kind, Content: content})
	if errors.Is(err, storage.ErrDuplicate) {
		return "", ErrKeywordTaken
	}
	return key, err
}

// Recall ищет элемент по ключу; без kinds - любого типа.
func (s *VaultService) Recall(ctx context.Context, chatID int64, keyword string, kinds ...storage.ItemKind) (storage.VaultItem, error) {
	it, err := s.store.GetItem(ctx, chatID, storage.NormalizeKeyword(keyword), kinds...)
	if errors.Is(err, storage.ErrNotFound) {
		return it, ErrNotFound
	}
	return it, err
}

func (s *VaultService) List(ctx context.Context, chatID int64, kinds ...storage.ItemKind) ([]storage.VaultItem, error) {
	return s.store.ListItems(ctx, chatID, kinds...)
}

func (s *VaultService) Delete(ctx context.Context, chatID int64, keyword string, kinds ...storage.ItemKind) (string, error) {
	key := storage.NormalizeKeyword(keyword)
	err := s.store.DeleteItem(ctx, chatID, key, kinds...)
	if errors.Is(err, storage.ErrNotFound) {
		return key, ErrNotFound
	}
	return key, err
}

// RandomExcuse - случайная отмазка чата.
func (s *VaultService) RandomExcuse(ctx context.Context, chatID int64) (string, error) {
	it, err := s.store.RandomItem(ctx, chatID, storage.KindExcuse)
	if errors.Is(err, storage.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return it.Content, nil
}
