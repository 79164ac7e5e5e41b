package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sashakosti/Go_Bot_Marceline/internal/service"
	"github.com/sashakosti/Go_Bot_Marceline/internal/storage"
)

// vaultSection - группа типов с общими командами show/del.
type vaultSection struct {
	title string
	kinds []storage.ItemKind
}

var (
	vaultMedia    = vaultSection{title: "Saved", kinds: service.MediaKinds}
	vaultStickers = vaultSection{title: "Stickers", kinds: []storage.ItemKind{storage.KindSticker}}
	vaultExcuses  = vaultSection{title: "Excuses", kinds: []storage.ItemKind{storage.KindExcuse}}
)

// mediaOf определяет тип и содержимое сообщения для /save.
func mediaOf(msg *tgbotapi.Message) (storage.ItemKind, string, bool) {
	switch {
	case len(msg.Photo) > 0:
		return storage.KindPhoto, msg.Photo[len(msg.Photo)-1].FileID, true
	case msg.Video != nil:
		return storage.KindVideo, msg.Video.FileID, true
	case msg.Document != nil:
		return storage.KindDocument, msg.Document.FileID, true
	case msg.Voice != nil:
		return storage.KindVoice, msg.Voice.FileID, true
	case msg.Audio != nil:
		return storage.KindAudio, msg.Audio.FileID, true
	case msg.Text != "":
		return storage.KindText, msg.Text, true
	}
	return "", "", false
}

// itemMessage строит сообщение, которое воспроизводит сохраненный элемент.
func itemMessage(chatID int64, it storage.VaultItem) tgbotapi.Chattable {
	file := tgbotapi.FileID(it.Content)
	switch it.Kind {
	case storage.KindPhoto:
		return tgbotapi.NewPhoto(chatID, file)
	case storage.KindVideo:
		return tgbotapi.NewVideo(chatID, file)
	case storage.KindDocument:
		return tgbotapi.NewDocument(chatID, file)
	case storage.KindVoice:
		return tgbotapi.NewVoice(chatID, file)
	case storage.KindAudio:
		return tgbotapi.NewAudio(chatID, file)
	case storage.KindSticker:
		return tgbotapi.NewSticker(chatID, file)
	default:
		return tgbotapi.NewMessage(chatID, it.Content)
	}
}

func (h *Handler) saveItem(ctx context.Context, chatID int64, keyword string, kind storage.ItemKind, content string) {
	key, err := h.Vault.Save(ctx, chatID, keyword, kind, content)
	switch {
	case errors.Is(err, service.ErrKeywordTaken):
		h.reply(chatID, "Keyword taken.")
	case errors.Is(err, service.ErrInvalidChoice):
		h.reply(chatID, "Nothing to save.")
	case err != nil:
		h.failure(chatID, "vault save", err)
	default:
		h.reply(chatID, fmt.Sprintf("Saved as <code>%s</code>.", html.EscapeString(key)))
	}
}

// HandleSave - /save <key> ответом на текст или медиа.
func (h *Handler) HandleSave(ctx context.Context, msg *tgbotapi.Message) {
	key := strings.TrimSpace(msg.CommandArguments())
	if key == "" || msg.ReplyToMessage == nil {
		h.reply(msg.Chat.ID, "Usage: reply to a message with /save &lt;key&gt;")
		return
	}
	kind, content, ok := mediaOf(msg.ReplyToMessage)
	if !ok {
		h.reply(msg.Chat.ID, "I can save text, photos, videos, documents, voice and audio.")
		return
	}
	h.saveItem(ctx, msg.Chat.ID, key, kind, content)
}

// HandleStickerSave - /ssave <key> ответом на стикер.
func (h *Handler) HandleStickerSave(ctx context.Context, msg *tgbotapi.Message) {
	key := strings.TrimSpace(msg.CommandArguments())
	if key == "" || msg.ReplyToMessage == nil || msg.ReplyToMessage.Sticker == nil {
		h.reply(msg.Chat.ID, "Usage: reply to a sticker with /ssave &lt;key&gt;")
		return
	}
	h.saveItem(ctx, msg.Chat.ID, key, storage.KindSticker, msg.ReplyToMessage.Sticker.FileID)
}

// HandleExcuseSave - /exsave <key> <text> или ответом на текст.
func (h *Handler) HandleExcuseSave(ctx context.Context, msg *tgbotapi.Message) {
	key, text, _ := strings.Cut(strings.TrimSpace(msg.CommandArguments()), " ")
	text = strings.TrimSpace(text)
	if text == "" && msg.ReplyToMessage != nil {
		text = msg.ReplyToMessage.Text
	}
	if key == "" || text == "" {
		h.reply(msg.Chat.ID, "Usage: /exsave &lt;key&gt; &lt;text&gt;")
		return
	}
	h.saveItem(ctx, msg.Chat.ID, key, storage.KindExcuse, text)
}

func (h *Handler) recall(ctx context.Context, msg *tgbotapi.Message, kinds ...storage.ItemKind) {
	key := strings.TrimSpace(msg.CommandArguments())
	if key == "" {
		h.reply(msg.Chat.ID, "Which key?")
		return
	}
	it, err := h.Vault.Recall(ctx, msg.Chat.ID, key, kinds...)
	if errors.Is(err, service.ErrNotFound) {
		h.reply(msg.Chat.ID, "Nothing saved under this key.")
		return
	}
	if err != nil {
		h.failure(msg.Chat.ID, "vault recall", err)
		return
	}
	sendMessage(h.Bot, h.log, itemMessage(msg.Chat.ID, it))
}

// HandleRecall - /q <key>
func (h *Handler) HandleRecall(ctx context.Context, msg *tgbotapi.Message) {
	h.recall(ctx, msg, service.MediaKinds...)
}

// HandleSticker - /s <key>
func (h *Handler) HandleSticker(ctx context.Context, msg *tgbotapi.Message) {
	h.recall(ctx, msg, storage.KindSticker)
}

// HandleExcuse - /excuse
func (h *Handler) HandleExcuse(ctx context.Context, msg *tgbotapi.Message) {
	text, err := h.Vault.RandomExcuse(ctx, msg.Chat.ID)
	if errors.Is(err, service.ErrNotFound) {
		h.reply(msg.Chat.ID, "No excuses saved. Add one with /exsave.")
		return
	}
	if err != nil {
		h.failure(msg.Chat.ID, "random excuse", err)
		return
	}
	sendMessage(h.Bot, h.log, tgbotapi.NewMessage(msg.Chat.ID, text))
}

// HandleVaultList - /sshow, /stshow, /exshow
func (h *Handler) HandleVaultList(ctx context.Context, msg *tgbotapi.Message, section vaultSection) {
	items, err := h.Vault.List(ctx, msg.Chat.ID, section.kinds...)
	if err != nil {
		h.failure(msg.Chat.ID, "vault list", err)
		return
	}
	if len(items) == 0 {
		h.reply(msg.Chat.ID, "Nothing saved yet.")
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s (%d)</b>", section.title, len(items))
	for _, it := range items {
		fmt.Fprintf(&b, "\n• <code>%s</code>", html.EscapeString(it.Keyword))
		if section.kinds[0] != storage.KindSticker && section.kinds[0] != storage.KindExcuse {
			fmt.Fprintf(&b, " (%s)", it.Kind)
		}
	}
	h.reply(msg.Chat.ID, b.String())
}

// HandleVaultDelete - /sdel, /stdel, /exdel
func (h *Handler) HandleVaultDelete(ctx context.Context, msg *tgbotapi.Message, section vaultSection) {
	key := strings.TrimSpace(msg.CommandArguments())
	if key == "" {
		h.reply(msg.Chat.ID, "Which key?")
		return
	}
	key, err := h.Vault.Delete(ctx, msg.Chat.ID, key, section.kinds...)
	if errors.Is(err, service.ErrNotFound) {
		h.reply(msg.Chat.ID, "Nothing saved under this key.")
		return
	}
	if err != nil {
		h.failure(msg.Chat.ID, "vault delete", err)
		return
	}
	h.reply(msg.Chat.ID, fmt.Sprintf("Deleted <code>%s</code>.", html.EscapeString(key)))
}
