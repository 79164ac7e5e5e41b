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

// HandleAll - /all: упоминает всех неисключенных участников пачками.
func (h *Handler) HandleAll(ctx context.Context, msg *tgbotapi.Message) {
	batches, err := h.Members.MentionBatches(ctx, msg.Chat.ID)
	if err != nil {
		h.failure(msg.Chat.ID, "mention batches", err)
		return
	}
	if len(batches) == 0 {
		h.reply(msg.Chat.ID, "Nobody to mention yet.")
		return
	}
	for _, batch := range batches {
		links := make([]string, len(batch))
		for i, u := range batch {
			links[i] = mention(u)
		}
		h.reply(msg.Chat.ID, strings.Join(links, " "))
	}
}

// HandleExclude - /exclude и /include ответом на сообщение участника.
func (h *Handler) HandleExclude(ctx context.Context, msg *tgbotapi.Message, excluded bool) {
	chatID := msg.Chat.ID
	if msg.ReplyToMessage == nil || msg.ReplyToMessage.From == nil {
		h.reply(chatID, "Reply to someone's message with this command.")
		return
	}
	target := msg.ReplyToMessage.From
	h.track(ctx, msg.Chat, target)

	err := h.Members.SetExcluded(ctx, chatID, target.ID, excluded)
	if errors.Is(err, service.ErrNotFound) {
		h.reply(chatID, "I don't know this user yet.")
		return
	}
	if err != nil {
		h.failure(chatID, "set excluded", err)
		return
	}
	name := html.EscapeString(userFrom(target).FullName)
	if excluded {
		h.reply(chatID, fmt.Sprintf("%s will not be mentioned by /all.", name))
	} else {
		h.reply(chatID, fmt.Sprintf("%s is back in /all.", name))
	}
}

// HandleAllList - /alllist
func (h *Handler) HandleAllList(ctx context.Context, msg *tgbotapi.Message) {
	ov, err := h.Members.Overview(ctx, msg.Chat.ID)
	if err != nil {
		h.failure(msg.Chat.ID, "members overview", err)
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Tracked: %d\nIncluded: %d\nExcluded: %d", ov.Total, len(ov.Included), len(ov.Excluded))
	for _, u := range ov.Excluded {
		fmt.Fprintf(&b, "\n  • %s", html.EscapeString(u.DisplayName()))
	}
	h.reply(msg.Chat.ID, b.String())
}

// HandleWhoAll - /whoall: кого упомянет /all.
func (h *Handler) HandleWhoAll(ctx context.Context, msg *tgbotapi.Message) {
	ov, err := h.Members.Overview(ctx, msg.Chat.ID)
	if err != nil {
		h.failure(msg.Chat.ID, "members overview", err)
		return
	}
	if len(ov.Included) == 0 {
		h.reply(msg.Chat.ID, "Nobody to mention yet.")
		return
	}
	names := make([]string, len(ov.Included))
	for i, u := range ov.Included {
		names[i] = html.EscapeString(u.DisplayName())
	}
	h.reply(msg.Chat.ID, fmt.Sprintf("/all will mention %d: %s", len(names), strings.Join(names, ", ")))
}

// squadMembers собирает участников из @username и text_mention. Отправитель включается всегда.
func (h *Handler) squadMembers(ctx context.Context, msg *tgbotapi.Message) ([]int64, []string) {
	ids := []int64{msg.From.ID}
	var unknown []string

	for _, e := range msg.Entities {
		if e.Type == "text_mention" && e.User != nil {
			h.track(ctx, msg.Chat, e.User)
			ids = append(ids, e.User.ID)
		}
	}
	for _, word := range strings.Fields(msg.CommandArguments()) {
		if !strings.HasPrefix(word, "@") || len(word) < 2 {
			continue
		}
		u, err := h.Members.ResolveUsername(ctx, msg.Chat.ID, strings.TrimPrefix(word, "@"))
		if err != nil {
			unknown = append(unknown, word)
			continue
		}
		ids = append(ids, u.UserID)
	}
	return ids, unknown
}

// HandleSquadSet - /squadset @a @b ...
func (h *Handler) HandleSquadSet(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	ids, unknown := h.squadMembers(ctx, msg)
	if len(unknown) > 0 {
		h.reply(chatID, "I don't know these users yet: "+html.EscapeString(strings.Join(unknown, ", ")))
		return
	}
	if _, err := h.Members.SetSquad(ctx, chatID, ids); err != nil {
		if errors.Is(err, service.ErrInvalidChoice) {
			h.reply(chatID, fmt.Sprintf("A squad needs %d to %d different people (you are included).", service.MinSquadSize, service.MaxSquadSize))
			return
		}
		h.failure(chatID, "set squad", err)
		return
	}
	h.HandleSquad(ctx, msg)
}

// HandleSquad - /squad
func (h *Handler) HandleSquad(ctx context.Context, msg *tgbotapi.Message) {
	names, err := h.Members.Squad(ctx, msg.Chat.ID)
	if errors.Is(err, service.ErrNoSquad) {
		h.reply(msg.Chat.ID, textNoSquad)
		return
	}
	if err != nil {
		h.failure(msg.Chat.ID, "load squad", err)
		return
	}
	for i := range names {
		names[i] = html.EscapeString(names[i])
	}
	h.reply(msg.Chat.ID, "👥 Squad: "+strings.Join(names, ", "))
}

// HandleTTL - /ttl <minutes>, только суперадмин.
func (h *Handler) HandleTTL(ctx context.Context, msg *tgbotapi.Message) {
	if !h.isSuperAdmin(msg) {
		return
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(msg.CommandArguments()))
	if err == nil {
		err = h.Members.SetSessionTTL(ctx, msg.Chat.ID, minutes)
	}
	if err != nil {
		h.reply(msg.Chat.ID, fmt.Sprintf("Usage: /ttl <minutes>, from 1 to %d.", service.MaxTTLMinutes))
		return
	}
	h.reply(msg.Chat.ID, fmt.Sprintf("New sessions will live %d %s.", minutes, Pluralize(minutes, "minute", "minutes")))
}

// HandleAbout - /about
func (h *Handler) HandleAbout(ctx context.Context, msg *tgbotapi.Message) {
	text, err := h.Members.About(ctx, msg.Chat.ID)
	if err != nil {
		h.failure(msg.Chat.ID, "about", err)
		return
	}
	if text == "" {
		text = "Nothing here yet."
	}
	sendMessage(h.Bot, h.log, tgbotapi.NewMessage(msg.Chat.ID, text))
}

// HandleAboutSet - /aboutset <text>, только суперадмин.
func (h *Handler) HandleAboutSet(ctx context.Context, msg *tgbotapi.Message) {
	if !h.isSuperAdmin(msg) {
		return
	}
	text := strings.TrimSpace(msg.CommandArguments())
	if text == "" {
		h.reply(msg.Chat.ID, "Usage: /aboutset <text>")
		return
	}
	if err := h.Members.SetAbout(ctx, msg.Chat.ID, text); err != nil {
		h.failure(msg.Chat.ID, "set about", err)
		return
	}
	h.reply(msg.Chat.ID, "Saved.")
}
