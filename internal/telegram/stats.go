package telegram

import (
	"context"
	"errors"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sashakosti/Go_Bot_Marceline/internal/service"
	"github.com/sashakosti/Go_Bot_Marceline/internal/wizard"
)

// startWizard запускает мастер статистики новым сообщением.
func (h *Handler) startWizard(ctx context.Context, chatID, playerA, playerB int64) {
	w, err := h.Stats.Start(ctx, chatID, playerA, playerB)
	if err != nil {
		h.failure(chatID, "start stats wizard", err)
		return
	}
	text, markup := renderWizard(w)
	msg := htmlMessage(chatID, text)
	msg.ReplyMarkup = markup
	sendMessage(h.Bot, h.log, msg)
}

// handleStatCallback - stat:<wizard>:<step>:<n>.
func (h *Handler) handleStatCallback(ctx context.Context, cq *tgbotapi.CallbackQuery, args []string) string {
	if len(args) != 3 {
		return ""
	}
	wizardID, step := args[0], args[1]
	n, err := strconv.Atoi(args[2])
	if err != nil {
		return ""
	}
	chatID, messageID := cq.Message.Chat.ID, cq.Message.MessageID

	var next *wizard.Wizard
	switch step {
	case stepPlayed:
		next, err = h.Stats.ChoosePlayed(ctx, chatID, wizardID, n)
	case stepWinsA:
		next, err = h.Stats.ChooseWinsA(ctx, chatID, wizardID, n)
	case stepWinsB:
		var receipt service.Receipt
		receipt, err = h.Stats.ChooseWinsB(ctx, chatID, wizardID, n)
		if err == nil {
			sendMessage(h.Bot, h.log, htmlEdit(chatID, messageID, renderReceipt(receipt)))
			return "Saved."
		}
	default:
		return ""
	}

	switch {
	case errors.Is(err, service.ErrWizardNotFound):
		sendMessage(h.Bot, h.log, htmlEdit(chatID, messageID, textWizardExpired))
		return ""
	case errors.Is(err, service.ErrInvalidChoice):
		return "Invalid choice."
	case err != nil:
		h.log.Error("stats wizard step failed", "chat_id", chatID, "step", step, "error", err)
		return textFailed
	}

	text, markup := renderWizard(next)
	sendMessage(h.Bot, h.log, htmlEditWithMarkup(chatID, messageID, text, markup))
	return ""
}

// HandleLeaderboard - /stats
func (h *Handler) HandleLeaderboard(ctx context.Context, msg *tgbotapi.Message) {
	rows, err := h.Stats.Leaderboard(ctx, msg.Chat.ID)
	if err != nil {
		h.failure(msg.Chat.ID, "leaderboard", err)
		return
	}
	h.reply(msg.Chat.ID, renderLeaderboard(rows))
}
