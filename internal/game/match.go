package game

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// MaxMatches - верхняя граница выбора "сколько матчей сыграно".
const MaxMatches = 10

// MinLeaderboardMatches - минимум матчей для попадания в рейтинг.
const MinLeaderboardMatches = 5

var ErrInvalidResult = errors.New("game: invalid result")

// MatchRecord - один атомарный исход матча между двумя игроками.
type MatchRecord struct {
	ID        int64
	ChatID    int64
	PlayerA   int64
	PlayerB   int64
	ScoreA    int
	ScoreB    int
	IsDraw    bool
	CreatedAt time.Time
}

// Result - итог серии, собранный мастером статистики.
type Result struct {
	ChatID  int64
	PlayerA int64
	PlayerB int64
	Played  int
	WinsA   int
	WinsB   int
}

func (r Result) Draws() int { return r.Played - r.WinsA - r.WinsB }

func (r Result) Validate() error {
	if r.PlayerA == 0 || r.PlayerB == 0 || r.PlayerA == r.PlayerB {
		return fmt.Errorf("%w: two distinct players are required", ErrInvalidResult)
	}
	if r.Played < 1 || r.Played > MaxMatches {
		return fmt.Errorf("%w: played must be in 1..%d", ErrInvalidResult, MaxMatches)
	}
	if r.WinsA < 0 || r.WinsA > r.Played {
		return fmt.Errorf("%w: wins for A out of range", ErrInvalidResult)
	}
	if r.WinsB < 0 || r.WinsB > r.Played-r.WinsA {
		return fmt.Errorf("%w: wins for B out of range", ErrInvalidResult)
	}
	return nil
}

// Records раскладывает серию на отдельные записи: победы A, победы B, ничьи.
func (r Result) Records(at time.Time) ([]MatchRecord, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	records := make([]MatchRecord, 0, r.Played)
	add := func(n, scoreA, scoreB int, draw bool) {
		for i := 0; i < n; i++ {
			records = append(records, MatchRecord{
				ChatID:    r.ChatID,
				PlayerA:   r.PlayerA,
				PlayerB:   r.PlayerB,
				ScoreA:    scoreA,
				ScoreB:    scoreB,
				IsDraw:    draw,
				CreatedAt: at,
			})
		}
	}
	add(r.WinsA, 1, 0, false)
	add(r.WinsB, 0, 1, false)
	add(r.Draws(), 0, 0, true)
	return records, nil
}

// Standing - строка рейтинга.
type Standing struct {
	UserID  int64
	Total   int
	Wins    int
	Draws   int
	WinRate float64
}

// Rank считает рейтинг по записям. Игроки с числом матчей меньше minMatches
// не попадают в рейтинг.
func Rank(records []MatchRecord, minMatches int) []Standing {
	byUser := make(map[int64]*Standing)
	get := func(id int64) *Standing {
		st, ok := byUser[id]
		if !ok {
			st = &Standing{UserID: id}
			byUser[id] = st
		}
		return st
	}
	for _, rec := range records {
		a, b := get(rec.PlayerA), get(rec.PlayerB)
		a.Total++
		b.Total++
		switch {
		case rec.IsDraw:
			a.Draws++
			b.Draws++
		case rec.ScoreA > rec.ScoreB:
			a.Wins++
		case rec.ScoreB > rec.ScoreA:
			b.Wins++
		}
	}

	var out []Standing
	for _, st := range byUser {
		if st.Total < minMatches {
			continue
		}
		st.WinRate = (float64(st.Wins) + 0.5*float64(st.Draws)) / float64(st.Total) * 100
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WinRate != out[j].WinRate {
			return out[i].WinRate > out[j].WinRate
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}
