package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sashakosti/Go_Bot_Marceline/internal/service"
)

// HandleRoast - /roast, ответом на сообщение адресует строку его автору.
func (h *Handler) HandleRoast(ctx context.Context, msg *tgbotapi.Message) {
	line, err := h.Roasts.Roast(ctx, msg.Chat.ID)
	if err != nil {
		h.failure(msg.Chat.ID, "roast", err)
		return
	}
	text := html.EscapeString(line)
	if msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil {
		text = mention(userFrom(msg.ReplyToMessage.From)) + ", " + text
	}
	h.reply(msg.Chat.ID, text)
}

// HandleRoastAdd - /roastadd: следующее текстовое сообщение автора сохраняется.
func (h *Handler) HandleRoastAdd(ctx context.Context, msg *tgbotapi.Message) {
	if text := strings.TrimSpace(msg.CommandArguments()); text != "" {
		h.addRoast(ctx, msg.Chat.ID, text)
		return
	}
	h.mu.Lock()
	h.awaitingRoast[roastKey{msg.Chat.ID, msg.From.ID}] = struct{}{}
	h.mu.Unlock()
	h.reply(msg.Chat.ID, "Send the roast line as your next message.")
}

// handlePlainText - обычный текст; нужен только для второго шага /roastadd.
func (h *Handler) handlePlainText(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Text == "" {
		return
	}
	key := roastKey{msg.Chat.ID, msg.From.ID}
	h.mu.Lock()
	_, waiting := h.awaitingRoast[key]
	delete(h.awaitingRoast, key)
	h.mu.Unlock()

	if waiting {
		h.addRoast(ctx, msg.Chat.ID, msg.Text)
	}
}

func (h *Handler) addRoast(ctx context.Context, chatID int64, text string) {
	err := h.Roasts.Add(ctx, chatID, text)
	if errors.Is(err, service.ErrInvalidChoice) {
		h.reply(chatID, "Empty roast, nothing saved.")
		return
	}
	if err != nil {
		h.failure(chatID, "add roast", err)
		return
	}
	h.reply(chatID, "Roast saved.")
}

// HandleRoastShow - /roastshow
func (h *Handler) HandleRoastShow(ctx context.Context, msg *tgbotapi.Message) {
	lines, err := h.Roasts.List(ctx, msg.Chat.ID)
	if err != nil {
		h.failure(msg.Chat.ID, "list roasts", err)
		return
	}
	if len(lines) == 0 {
		h.reply(msg.Chat.ID, "No custom roasts yet. Add one with /roastadd.")
		return
	}
	var b strings.Builder
	b.WriteString("<b>Roasts</b>")
	for i, l := range lines {
		fmt.Fprintf(&b, "\n%d. %s", i+1, html.EscapeString(l.Text))
	}
	h.reply(msg.Chat.ID, b.String())
}

// HandleRoastDelete - /roastdel <n>
func (h *Handler) HandleRoastDelete(ctx context.Context, msg *tgbotapi.Message) {
	n, err := strconv.Atoi(strings.TrimSpace(msg.CommandArguments()))
	if err == nil {
		err = h.Roasts.DeleteAt(ctx, msg.Chat.ID, n)
	}
	switch {
	case err == nil:
		h.reply(msg.Chat.ID, "Roast deleted.")
	case errors.Is(err, service.ErrInvalidChoice), errors.Is(err, strconv.ErrSyntax), errors.Is(err, strconv.ErrRange):
		h.reply(msg.Chat.ID, "Usage: /roastdel &lt;number from /roastshow&gt;")
	default:
		h.failure(msg.Chat.ID, "delete roast", err)
	}
}
