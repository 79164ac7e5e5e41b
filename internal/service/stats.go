package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sashakosti/Go_Bot_Marceline/internal/game"
	"github.com/sashakosti/Go_Bot_Marceline/internal/wizard"
)

// StatsService - мастер ввода результатов серии и рейтинг.
type StatsService struct {
	dir     DirectoryStore
	matches MatchStore
	wizards WizardStore
	now     func() time.Time
}

func NewStatsService(dir DirectoryStore, matches MatchStore, wizards WizardStore, now func() time.Time) *StatsService {
	if now == nil {
		now = time.Now
	}
	return &StatsService{dir: dir, matches: matches, wizards: wizards, now: now}
}

// Receipt - итог мастера после сохранения записей.
type Receipt struct {
	NameA  string
	NameB  string
	Result game.Result
}

// Start запускает мастер для чата, вытесняя незавершенный.
func (s *StatsService) Start(ctx context.Context, chatID, playerA, playerB int64) (*wizard.Wizard, error) {
	nameA := s.name(ctx, playerA, "Player A")
	nameB := s.name(ctx, playerB, "Player B")

	w := wizard.New(chatID, playerA, playerB, nameA, nameB)
	if err := s.wizards.Put(ctx, w); err != nil {
		return nil, fmt.Errorf("save wizard: %w", err)
	}
	return w, nil
}

// ChoosePlayed - шаг 1: сколько матчей сыграно (1..game.MaxMatches).
func (s *StatsService) ChoosePlayed(ctx context.Context, chatID int64, wizardID string, played int) (*wizard.Wizard, error) {
	w, err := s.load(ctx, chatID, wizardID, wizard.StepPlayed)
	if err != nil {
		return nil, err
	}
	if played < 1 || played > game.MaxMatches {
		return nil, ErrInvalidChoice
	}
	w.Played = played
	w.Step = wizard.StepWinsA
	if err := s.wizards.Put(ctx, w); err != nil {
		return nil, fmt.Errorf("save wizard: %w", err)
	}
	return w, nil
}

// ChooseWinsA - шаг 2: победы игрока A (0..played).
func (s *StatsService) ChooseWinsA(ctx context.Context, chatID int64, wizardID string, wins int) (*wizard.Wizard, error) {
	w, err := s.load(ctx, chatID, wizardID, wizard.StepWinsA)
	if err != nil {
		return nil, err
	}
	if wins < 0 || wins > w.Played {
		return nil, ErrInvalidChoice
	}
	w.WinsA = wins
	w.Step = wizard.StepWinsB
	if err := s.wizards.Put(ctx, w); err != nil {
		return nil, fmt.Errorf("save wizard: %w", err)
	}
	return w, nil
}

// ChooseWinsB - шаг 3: победы игрока B (0..played-winsA). Ничьи вычисляются,
// серия сохраняется отдельными записями, мастер удаляется.
func (s *StatsService) ChooseWinsB(ctx context.Context, chatID int64, wizardID string, wins int) (Receipt, error) {
	w, err := s.load(ctx, chatID, wizardID, wizard.StepWinsB)
	if err != nil {
		return Receipt{}, err
	}
	res := game.Result{
		ChatID:  chatID,
		PlayerA: w.PlayerA,
		PlayerB: w.PlayerB,
		Played:  w.Played,
		WinsA:   w.WinsA,
		WinsB:   wins,
	}
	records, err := res.Records(s.now())
	if err != nil {
		return Receipt{}, ErrInvalidChoice
	}
	if err := s.matches.AppendMatches(ctx, records); err != nil {
		return Receipt{}, fmt.Errorf("append matches: %w", err)
	}
	if err := s.wizards.Delete(ctx, chatID); err != nil {
		return Receipt{}, fmt.Errorf("delete wizard: %w", err)
	}
	return Receipt{NameA: w.NameA, NameB: w.NameB, Result: res}, nil
}

// WinsBLimit - максимум побед B, который можно выбрать на шаге 3.
func WinsBLimit(w *wizard.Wizard) int {
	return w.Played - w.WinsA
}

// LeaderboardRow - строка рейтинга с именем.
type LeaderboardRow struct {
	Name string
	game.Standing
}

// Leaderboard - рейтинг чата по всем записанным матчам.
func (s *StatsService) Leaderboard(ctx context.Context, chatID int64) ([]LeaderboardRow, error) {
	records, err := s.matches.ListMatches(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	standings := game.Rank(records, game.MinLeaderboardMatches)

	ids := make([]int64, len(standings))
	for i, st := range standings {
		ids[i] = st.UserID
	}
	names, err := displayNames(ctx, s.dir, ids)
	if err != nil {
		return nil, err
	}

	rows := make([]LeaderboardRow, len(standings))
	for i, st := range standings {
		name, ok := names[st.UserID]
		if !ok {
			name = fmt.Sprint(st.UserID)
		}
		rows[i] = LeaderboardRow{Name: name, Standing: st}
	}
	return rows, nil
}

// load достает мастер чата. Чужой ID означает кнопку устаревшего мастера,
// несовпадающий шаг - повторное нажатие на уже отвеченный вопрос.
func (s *StatsService) load(ctx context.Context, chatID int64, wizardID string, step wizard.Step) (*wizard.Wizard, error) {
	w, err := s.wizards.Get(ctx, chatID)
	if errors.Is(err, wizard.ErrNotFound) {
		return nil, ErrWizardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load wizard: %w", err)
	}
	if w.ID != wizardID {
		return nil, ErrWizardNotFound
	}
	if w.Step != step {
		return nil, ErrInvalidChoice
	}
	return w, nil
}

func (s *StatsService) name(ctx context.Context, userID int64, fallback string) string {
	u, err := s.dir.GetUser(ctx, userID)
	if err != nil || u.FullName == "" {
		return fallback
	}
	return u.FullName
}
