package telegram

import (
	"fmt"
	"html"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sashakosti/Go_Bot_Marceline/internal/storage"
)

// sendMessage отправляет сообщение или правку. Ошибки транспорта только логируются.
func sendMessage(bot MessageSender, log *slog.Logger, msg tgbotapi.Chattable) {
	if _, err := bot.Send(msg); err != nil {
		log.Warn("failed to send message", "error", err)
	}
}

// request - то же для методов, которые не возвращают сообщение.
func request(bot MessageSender, log *slog.Logger, c tgbotapi.Chattable) {
	if _, err := bot.Request(c); err != nil {
		log.Debug("telegram request failed", "error", err)
	}
}

func htmlMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	return msg
}

func htmlEdit(chatID int64, messageID int, text string) tgbotapi.EditMessageTextConfig {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	return edit
}

func htmlEditWithMarkup(chatID int64, messageID int, text string, markup tgbotapi.InlineKeyboardMarkup) tgbotapi.EditMessageTextConfig {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	edit.ParseMode = tgbotapi.ModeHTML
	return edit
}

// mention - HTML-ссылка на пользователя, работает и без @username.
func mention(u storage.User) string {
	name := u.FullName
	if name == "" {
		name = u.DisplayName()
	}
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, u.UserID, html.EscapeString(name))
}

func userFrom(u *tgbotapi.User) storage.User {
	return storage.User{
		UserID:   u.ID,
		FullName: strings.TrimSpace(u.FirstName + " " + u.LastName),
		Username: u.UserName,
	}
}

// Pluralize выбирает форму слова по числу.
func Pluralize(count int, one, many string) string {
	if count == 1 {
		return one
	}
	return many
}
