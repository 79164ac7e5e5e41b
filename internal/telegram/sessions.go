package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sashakosti/Go_Bot_Marceline/internal/game"
	"github.com/sashakosti/Go_Bot_Marceline/internal/service"
)

// HandlePlay - /play [1v1|2v2]. Без аргумента показывает выбор режима.
func (h *Handler) HandlePlay(ctx context.Context, msg *tgbotapi.Message) {
	chatID, initiator := msg.Chat.ID, msg.From.ID

	switch game.Mode(strings.TrimSpace(msg.CommandArguments())) {
	case game.ModeOneVOne:
		h.sendOpponentPicker(ctx, chatID, initiator)
	case game.ModeTwoVTwo:
		err := h.startSquad(ctx, chatID, initiator)
		if errors.Is(err, service.ErrNoSquad) {
			h.reply(chatID, textNoSquad)
		} else if err != nil {
			h.reply(chatID, textFailed)
		}
	default:
		reply := tgbotapi.NewMessage(chatID, "Choose the game mode:")
		reply.ReplyMarkup = modeKeyboard(initiator)
		sendMessage(h.Bot, h.log, reply)
	}
}

// handleModeCallback - mode:<mode>:<initiator> на сообщении выбора режима.
func (h *Handler) handleModeCallback(ctx context.Context, cq *tgbotapi.CallbackQuery, args []string) string {
	if len(args) != 2 {
		return ""
	}
	initiator, err := parseID(args[1])
	if err != nil {
		return ""
	}
	if cq.From.ID != initiator {
		return "Only the person who started /play can choose."
	}
	chatID, messageID := cq.Message.Chat.ID, cq.Message.MessageID

	switch game.Mode(args[0]) {
	case game.ModeOneVOne:
		members, err := h.Sessions.OpponentCandidates(ctx, chatID, initiator)
		if errors.Is(err, service.ErrNoCandidates) {
			sendMessage(h.Bot, h.log, htmlEdit(chatID, messageID, textNoCandidates))
			return ""
		}
		if err != nil {
			h.log.Error("list opponents failed", "chat_id", chatID, "error", err)
			return textFailed
		}
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, "Choose your opponent:", opponentKeyboard(initiator, members))
		sendMessage(h.Bot, h.log, edit)
	case game.ModeTwoVTwo:
		err := h.startSquad(ctx, chatID, initiator)
		if errors.Is(err, service.ErrNoSquad) {
			sendMessage(h.Bot, h.log, htmlEdit(chatID, messageID, textNoSquad))
			return ""
		}
		if err != nil {
			return textFailed
		}
		h.deleteMessage(chatID, messageID)
	}
	return ""
}

// handleOpponentCallback - opp:<initiator>:<opponent> на сообщении выбора соперника.
func (h *Handler) handleOpponentCallback(ctx context.Context, cq *tgbotapi.CallbackQuery, args []string) string {
	if len(args) != 2 {
		return ""
	}
	initiator, err1 := parseID(args[0])
	opponent, err2 := parseID(args[1])
	if err1 != nil || err2 != nil {
		return ""
	}
	if cq.From.ID != initiator {
		return "Only the host can pick the opponent."
	}
	lineup, err := h.Sessions.PrepareDuel(initiator, opponent)
	if err != nil {
		return "You can't play against yourself."
	}
	chatID := cq.Message.Chat.ID
	if err := h.openSession(ctx, chatID, initiator, lineup); err != nil {
		return textFailed
	}
	h.deleteMessage(chatID, cq.Message.MessageID)
	return ""
}

func (h *Handler) startSquad(ctx context.Context, chatID, initiator int64) error {
	lineup, err := h.Sessions.PrepareSquad(ctx, chatID)
	if err != nil {
		if !errors.Is(err, service.ErrNoSquad) {
			h.log.Error("load squad failed", "chat_id", chatID, "error", err)
		}
		return err
	}
	return h.openSession(ctx, chatID, initiator, lineup)
}

// openSession отправляет сообщение сессии и сохраняет сессию под его ID.
// Если сохранить не удалось, сообщение удаляется.
func (h *Handler) openSession(ctx context.Context, chatID, initiator int64, lineup game.Lineup) error {
	draft := &game.Session{ChatID: chatID, InitiatorID: initiator, Lineup: lineup}
	names, err := h.Sessions.Names(ctx, sessionUserIDs(draft))
	if err != nil {
		h.log.Warn("resolve names failed", "chat_id", chatID, "error", err)
	}

	msg := htmlMessage(chatID, renderSession(draft, names))
	msg.ReplyMarkup = sessionKeyboard(lineup.Mode)
	sent, err := h.Bot.Send(msg)
	if err != nil {
		h.log.Warn("failed to send session message", "chat_id", chatID, "error", err)
		return err
	}

	if _, err := h.Sessions.Open(ctx, chatID, int64(sent.MessageID), initiator, lineup); err != nil {
		h.log.Error("open session failed", "chat_id", chatID, "error", err)
		h.deleteMessage(chatID, sent.MessageID)
		return err
	}
	return nil
}

func (h *Handler) sendOpponentPicker(ctx context.Context, chatID, initiator int64) {
	members, err := h.Sessions.OpponentCandidates(ctx, chatID, initiator)
	if errors.Is(err, service.ErrNoCandidates) {
		h.reply(chatID, textNoCandidates)
		return
	}
	if err != nil {
		h.failure(chatID, "list opponents", err)
		return
	}
	msg := tgbotapi.NewMessage(chatID, "Choose your opponent:")
	msg.ReplyMarkup = opponentKeyboard(initiator, members)
	sendMessage(h.Bot, h.log, msg)
}

// refresh перерисовывает сообщение сессии по сохраненному состоянию.
func (h *Handler) refresh(ctx context.Context, sess *game.Session, markup tgbotapi.InlineKeyboardMarkup) {
	names, err := h.Sessions.Names(ctx, sessionUserIDs(sess))
	if err != nil {
		h.log.Warn("resolve names failed", "chat_id", sess.ChatID, "error", err)
	}
	edit := htmlEditWithMarkup(sess.ChatID, int(sess.MessageID), renderSession(sess, names), markup)
	sendMessage(h.Bot, h.log, edit)
}

// sessionFailure переводит ошибку сервиса в правку сообщения или короткий ответ на нажатие.
func (h *Handler) sessionFailure(cq *tgbotapi.CallbackQuery, err error) string {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrSessionExpired):
		sendMessage(h.Bot, h.log, htmlEdit(cq.Message.Chat.ID, cq.Message.MessageID, textSessionExpired))
		return ""
	case errors.Is(err, service.ErrPermissionDenied):
		return "You are not allowed to do that."
	case errors.Is(err, service.ErrNotDuel):
		return "Only available in 1v1 sessions."
	case errors.Is(err, service.ErrInvalidChoice):
		return "Invalid choice."
	default:
		h.log.Error("session action failed", "chat_id", cq.Message.Chat.ID, "message_id", cq.Message.MessageID, "error", err)
		return textFailed
	}
}

// handleRSVPCallback - rsvp:in|out|pending.
func (h *Handler) handleRSVPCallback(ctx context.Context, cq *tgbotapi.CallbackQuery, args []string) string {
	if len(args) != 1 {
		return ""
	}
	chatID, messageID := cq.Message.Chat.ID, int64(cq.Message.MessageID)

	var r game.Response
	switch game.Status(args[0]) {
	case game.StatusIn:
		r = game.In(cq.From.ID)
	case game.StatusOut:
		r = game.Out(cq.From.ID)
	case game.StatusPending:
		sess, err := h.Sessions.Get(ctx, chatID, messageID)
		if err != nil {
			return h.sessionFailure(cq, err)
		}
		sendMessage(h.Bot, h.log, tgbotapi.NewEditMessageReplyMarkup(chatID, cq.Message.MessageID, timerKeyboard(sess.Mode())))
		return ""
	default:
		return ""
	}

	sess, err := h.Sessions.Respond(ctx, chatID, messageID, r)
	if err != nil {
		return h.sessionFailure(cq, err)
	}
	h.refresh(ctx, sess, sessionKeyboard(sess.Mode()))
	return ""
}

// handleTimerCallback - timer:<choice>|back.
func (h *Handler) handleTimerCallback(ctx context.Context, cq *tgbotapi.CallbackQuery, args []string) string {
	if len(args) != 1 {
		return ""
	}
	chatID, messageID := cq.Message.Chat.ID, int64(cq.Message.MessageID)

	if args[0] == actBack {
		sess, err := h.Sessions.Get(ctx, chatID, messageID)
		if err != nil {
			return h.sessionFailure(cq, err)
		}
		sendMessage(h.Bot, h.log, tgbotapi.NewEditMessageReplyMarkup(chatID, cq.Message.MessageID, sessionKeyboard(sess.Mode())))
		return ""
	}

	r, err := game.Pending(cq.From.ID, args[0])
	if err != nil {
		return "Invalid choice."
	}
	sess, err := h.Sessions.Respond(ctx, chatID, messageID, r)
	if err != nil {
		return h.sessionFailure(cq, err)
	}
	h.refresh(ctx, sess, sessionKeyboard(sess.Mode()))
	return ""
}

// handleSessionCallback - sess:stop|stats|opp|squad.
func (h *Handler) handleSessionCallback(ctx context.Context, cq *tgbotapi.CallbackQuery, args []string) string {
	if len(args) != 1 {
		return ""
	}
	chatID, messageID, userID := cq.Message.Chat.ID, int64(cq.Message.MessageID), cq.From.ID

	switch args[0] {
	case actStop:
		if _, err := h.Sessions.Stop(ctx, chatID, messageID, userID); err != nil {
			return h.sessionFailure(cq, err)
		}
		h.deleteMessage(chatID, cq.Message.MessageID)
		return "Session stopped."

	case actStats:
		sess, err := h.Sessions.HandOff(ctx, chatID, messageID, userID)
		if err != nil {
			return h.sessionFailure(cq, err)
		}
		h.deleteMessage(chatID, cq.Message.MessageID)
		h.startWizard(ctx, chatID, sess.Lineup.PlayerA, sess.Lineup.PlayerB)
		return ""

	case actOpp:
		sess, err := h.Sessions.Reassign(ctx, chatID, messageID, userID)
		if err != nil {
			return h.sessionFailure(cq, err)
		}
		h.deleteMessage(chatID, cq.Message.MessageID)
		h.sendOpponentPicker(ctx, chatID, sess.InitiatorID)
		return ""

	case actSquad:
		if _, err := h.Sessions.RequireHost(ctx, chatID, messageID, userID); err != nil {
			return h.sessionFailure(cq, err)
		}
		return "Use /squadset @a @b ... to edit the squad."
	}
	return ""
}
