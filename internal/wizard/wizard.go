// Package wizard хранит состояние мастера ввода статистики: один активный
// мастер на чат. Новый мастер в том же чате вытесняет предыдущий, кнопки
// старого мастера после этого считаются устаревшими (по ID).
package wizard

import (
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("wizard: not found")

// Step - какой вопрос мастер задает сейчас.
type Step int

const (
	StepPlayed Step = iota + 1
	StepWinsA
	StepWinsB
)

type Wizard struct {
	ID      string `json:"id"`
	ChatID  int64  `json:"chat_id"`
	PlayerA int64  `json:"player_a"`
	PlayerB int64  `json:"player_b"`
	NameA   string `json:"name_a"`
	NameB   string `json:"name_b"`
	Step    Step   `json:"step"`
	Played  int    `json:"played"`
	WinsA   int    `json:"wins_a"`
}

// New начинает мастер с первого шага и новым ID.
func New(chatID, playerA, playerB int64, nameA, nameB string) *Wizard {
	return &Wizard{
		ID:      uuid.NewString(),
		ChatID:  chatID,
		PlayerA: playerA,
		PlayerB: playerB,
		NameA:   nameA,
		NameB:   nameB,
		Step:    StepPlayed,
	}
}
