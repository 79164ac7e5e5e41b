package telegram

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// HandleResetAll - /resetall CONFIRM
func (h *Handler) HandleResetAll(ctx context.Context, msg *tgbotapi.Message) {
	if !h.isSuperAdmin(msg) {
		return
	}
	if strings.TrimSpace(msg.CommandArguments()) != "CONFIRM" {
		h.reply(msg.Chat.ID, "This wipes all stats and sessions of this chat. Send /resetall CONFIRM to proceed.")
		return
	}
	if err := h.Admin.ResetChat(ctx, msg.From.ID, msg.Chat.ID); err != nil {
		h.failure(msg.Chat.ID, "reset chat", err)
		return
	}
	h.reply(msg.Chat.ID, "All stats and sessions of this chat are deleted.")
}

// HandleGroups - /groups
func (h *Handler) HandleGroups(ctx context.Context, msg *tgbotapi.Message) {
	if !h.isSuperAdmin(msg) {
		return
	}
	chats, err := h.Admin.Groups(ctx, msg.From.ID)
	if err != nil {
		h.failure(msg.Chat.ID, "list groups", err)
		return
	}
	if len(chats) == 0 {
		h.reply(msg.Chat.ID, "No groups tracked.")
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Groups (%d)</b>", len(chats))
	for _, c := range chats {
		fmt.Fprintf(&b, "\n<code>%d</code> %s", c.ChatID, html.EscapeString(c.Title))
	}
	h.reply(msg.Chat.ID, b.String())
}

// HandleGroupDelete - /groupdel [chat_id]: бот выходит из чата и забывает его.
func (h *Handler) HandleGroupDelete(ctx context.Context, msg *tgbotapi.Message) {
	if !h.isSuperAdmin(msg) {
		return
	}
	target := msg.Chat.ID
	if arg := strings.TrimSpace(msg.CommandArguments()); arg != "" {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			h.reply(msg.Chat.ID, "Usage: /groupdel [chat_id]")
			return
		}
		target = id
	}

	if _, err := h.Bot.Request(tgbotapi.LeaveChatConfig{ChatID: target}); err != nil {
		h.log.Warn("failed to leave chat", "chat_id", target, "error", err)
	}
	if err := h.Admin.ForgetChat(ctx, msg.From.ID, target); err != nil {
		h.failure(msg.Chat.ID, "forget chat", err)
		return
	}
	if target != msg.Chat.ID {
		h.reply(msg.Chat.ID, fmt.Sprintf("Left and forgot <code>%d</code>.", target))
	}
}
