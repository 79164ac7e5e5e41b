package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sashakosti/Go_Bot_Marceline/internal/game"
)

// Префиксы callback_data. Telegram ограничивает данные кнопки 64 байтами.
const (
	cbMode  = "mode"
	cbOpp   = "opp"
	cbRSVP  = "rsvp"
	cbTimer = "timer"
	cbSess  = "sess"
	cbStat  = "stat"
)

const (
	actStop  = "stop"
	actStats = "stats"
	actOpp   = "opp"
	actSquad = "squad"
	actBack  = "back"
)

// Шаги мастера в callback_data.
const (
	stepPlayed = "m"
	stepWinsA  = "a"
	stepWinsB  = "b"
)

func modeData(mode game.Mode, initiatorID int64) string {
	return fmt.Sprintf("%s:%s:%d", cbMode, mode, initiatorID)
}

func opponentData(initiatorID, opponentID int64) string {
	return fmt.Sprintf("%s:%d:%d", cbOpp, initiatorID, opponentID)
}

func rsvpData(status game.Status) string { return cbRSVP + ":" + string(status) }

func timerData(choice string) string { return cbTimer + ":" + choice }

func sessionData(action string) string { return cbSess + ":" + action }

func statData(wizardID, step string, n int) string {
	return fmt.Sprintf("%s:%s:%s:%d", cbStat, wizardID, step, n)
}

// splitData отделяет префикс от аргументов.
func splitData(data string) (string, []string) {
	parts := strings.Split(data, ":")
	return parts[0], parts[1:]
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
