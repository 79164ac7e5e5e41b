package telegram

import (
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sashakosti/Go_Bot_Marceline/internal/game"
	"github.com/sashakosti/Go_Bot_Marceline/internal/service"
	"github.com/sashakosti/Go_Bot_Marceline/internal/storage"
	"github.com/sashakosti/Go_Bot_Marceline/internal/wizard"
)

const (
	textSessionExpired = "⌛ This session has expired. Start a new one with /play."
	textWizardExpired  = "Stats session expired. Please start over."
	textNoSquad        = "No squad set. Use /squadset @a @b ... to set up the 2v2 squad first."
	textNoCandidates   = "Nobody to play with yet: I only know people who have written in this chat."
	textFailed         = "Something went wrong, try again."
)

// nameOf - имя из справочника или ID, если пользователь неизвестен.
func nameOf(names map[int64]string, id int64) string {
	if n, ok := names[id]; ok && n != "" {
		return html.EscapeString(n)
	}
	return fmt.Sprintf("user %d", id)
}

func nameList(names map[int64]string, ids []int64) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = nameOf(names, id)
	}
	return strings.Join(parts, ", ")
}

// sessionUserIDs - все, чьи имена нужны для рендера.
func sessionUserIDs(s *game.Session) []int64 {
	ids := append([]int64{s.InitiatorID}, s.Lineup.Members()...)
	for _, r := range s.Responses {
		ids = append(ids, r.UserID)
	}
	return ids
}

// renderSession строит текст сообщения сессии по текущему состоянию.
func renderSession(s *game.Session, names map[int64]string) string {
	var b strings.Builder
	switch s.Mode() {
	case game.ModeOneVOne:
		fmt.Fprintf(&b, "🎮 <b>1v1: %s vs %s</b>\n", nameOf(names, s.Lineup.PlayerA), nameOf(names, s.Lineup.PlayerB))
	case game.ModeTwoVTwo:
		fmt.Fprintf(&b, "🎮 <b>2v2 squad: %s</b>\n", nameList(names, s.Lineup.Squad))
	}
	fmt.Fprintf(&b, "Host: %s\n\n", nameOf(names, s.InitiatorID))

	in, out := s.InList(), s.OutList()
	fmt.Fprintf(&b, "✅ In (%d): %s\n", len(in), nameList(names, in))
	fmt.Fprintf(&b, "❌ Out (%d): %s\n", len(out), nameList(names, out))

	pending := s.PendingList()
	fmt.Fprintf(&b, "⏳ Pending (%d):", len(pending))
	if len(pending) == 0 {
		b.WriteString(" -")
	}
	for _, r := range pending {
		fmt.Fprintf(&b, "\n  • %s (%s)", nameOf(names, r.UserID), html.EscapeString(r.Label))
	}
	return b.String()
}

func sessionActionRows(mode game.Mode) [][]tgbotapi.InlineKeyboardButton {
	actions := tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🛑 Stop", sessionData(actStop)),
	)
	config := tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("👥 Edit Squad", sessionData(actSquad)),
	)
	if mode == game.ModeOneVOne {
		actions = append(actions, tgbotapi.NewInlineKeyboardButtonData("📊 Update Match Stats", sessionData(actStats)))
		config = tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔁 Change Opponent", sessionData(actOpp)),
		)
	}
	return [][]tgbotapi.InlineKeyboardButton{actions, config}
}

// sessionKeyboard - стандартный вид: RSVP, действия, настройка.
func sessionKeyboard(mode game.Mode) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ In", rsvpData(game.StatusIn)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Out", rsvpData(game.StatusOut)),
			tgbotapi.NewInlineKeyboardButtonData("⏳ Pending", rsvpData(game.StatusPending)),
		),
	}
	rows = append(rows, sessionActionRows(mode)...)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// timerKeyboard заменяет ряд RSVP выбором задержки.
func timerKeyboard(mode game.Mode) tgbotapi.InlineKeyboardMarkup {
	var choices []tgbotapi.InlineKeyboardButton
	for _, c := range game.TimerChoices {
		choices = append(choices, tgbotapi.NewInlineKeyboardButtonData(c, timerData(c)))
	}
	rows := [][]tgbotapi.InlineKeyboardButton{
		choices,
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", timerData(actBack))),
	}
	rows = append(rows, sessionActionRows(mode)...)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func modeKeyboard(initiatorID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⚔️ 1v1", modeData(game.ModeOneVOne, initiatorID)),
		tgbotapi.NewInlineKeyboardButtonData("👥 2v2", modeData(game.ModeTwoVTwo, initiatorID)),
	))
}

// opponentKeyboard - кандидаты по два в ряд.
func opponentKeyboard(initiatorID int64, members []storage.Member) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, m := range members {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(m.User.DisplayName(), opponentData(initiatorID, m.User.UserID)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// numberKeyboard - кнопки from..to по пять в ряд.
func numberKeyboard(wizardID, step string, from, to int) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for n := from; n <= to; n++ {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprint(n), statData(wizardID, step, n)))
		if len(row) == 5 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func wizardHeader(w *wizard.Wizard) string {
	return fmt.Sprintf("📊 <b>%s vs %s</b>\n", html.EscapeString(w.NameA), html.EscapeString(w.NameB))
}

// renderWizard - вопрос текущего шага и его клавиатура.
func renderWizard(w *wizard.Wizard) (string, tgbotapi.InlineKeyboardMarkup) {
	head := wizardHeader(w)
	switch w.Step {
	case wizard.StepWinsA:
		return head + fmt.Sprintf("Played: %d\nHow many did %s win?", w.Played, html.EscapeString(w.NameA)),
			numberKeyboard(w.ID, stepWinsA, 0, w.Played)
	case wizard.StepWinsB:
		return head + fmt.Sprintf("Played: %d, %s won %d\nHow many did %s win?", w.Played, html.EscapeString(w.NameA), w.WinsA, html.EscapeString(w.NameB)),
			numberKeyboard(w.ID, stepWinsB, 0, service.WinsBLimit(w))
	default:
		return head + "How many matches were played?", numberKeyboard(w.ID, stepPlayed, 1, game.MaxMatches)
	}
}

func renderReceipt(r service.Receipt) string {
	res := r.Result
	return fmt.Sprintf("✅ Saved %d %s: <b>%s</b> %d - %d <b>%s</b>, draws: %d.",
		res.Played, Pluralize(res.Played, "match", "matches"),
		html.EscapeString(r.NameA), res.WinsA, res.WinsB, html.EscapeString(r.NameB), res.Draws())
}

func renderLeaderboard(rows []service.LeaderboardRow) string {
	if len(rows) == 0 {
		return fmt.Sprintf("No stats recorded yet (min %d matches).", game.MinLeaderboardMatches)
	}
	var b strings.Builder
	b.WriteString("🏆 <b>Leaderboard</b>\n")
	for i, r := range rows {
		fmt.Fprintf(&b, "%d. %s - %.1f%% (%d %s, %dW %dD)\n",
			i+1, html.EscapeString(r.Name), r.WinRate, r.Total, Pluralize(r.Total, "game", "games"), r.Wins, r.Draws)
	}
	return b.String()
}
