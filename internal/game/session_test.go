package game

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func mustDuel(t *testing.T, a, b int64) Lineup {
	t.Helper()
	l, err := NewDuel(a, b)
	require.NoError(t, err)
	return l
}

func TestLineupValidation(t *testing.T) {
	t.Run("1v1 без соперника", func(t *testing.T) {
		_, err := NewDuel(1, 0)
		assert.ErrorIs(t, err, ErrInvalidLineup)
	})
	t.Run("1v1 сам с собой", func(t *testing.T) {
		_, err := NewDuel(1, 1)
		assert.ErrorIs(t, err, ErrInvalidLineup)
	})
	t.Run("пустой сквад", func(t *testing.T) {
		_, err := NewSquad(nil)
		assert.ErrorIs(t, err, ErrInvalidLineup)
	})
	t.Run("дубликат в скваде", func(t *testing.T) {
		_, err := NewSquad([]int64{1, 2, 2})
		assert.ErrorIs(t, err, ErrInvalidLineup)
	})
	t.Run("корректный сквад", func(t *testing.T) {
		l, err := NewSquad([]int64{1, 2, 3, 4})
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 3, 4}, l.Members())
	})
}

func TestNewSession(t *testing.T) {
	s, err := New(10, 20, 1, mustDuel(t, 1, 2), t0, 360*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(6*time.Hour), s.ExpiresAt)
	assert.Equal(t, ModeOneVOne, s.Mode())

	_, err = New(10, 0, 1, mustDuel(t, 1, 2), t0, time.Hour)
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = New(10, 20, 1, Lineup{Mode: ModeOneVOne, PlayerA: 1}, t0, time.Hour)
	assert.ErrorIs(t, err, ErrInvalidLineup)

	s, err = New(10, 20, 1, mustDuel(t, 1, 2), t0, 0)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(DefaultTTL), s.ExpiresAt)
}

func TestExpired(t *testing.T) {
	s, err := New(10, 20, 1, mustDuel(t, 1, 2), t0, time.Hour)
	require.NoError(t, err)
	assert.False(t, s.Expired(t0.Add(time.Hour)))
	assert.True(t, s.Expired(t0.Add(time.Hour+time.Second)))
}

func TestRespondExclusive(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	users := []int64{1, 2, 3}

	for round := 0; round < 200; round++ {
		s, err := New(10, 20, 1, mustDuel(t, 1, 2), t0, time.Hour)
		require.NoError(t, err)

		for step := 0; step < 30; step++ {
			u := users[rng.Intn(len(users))]
			var r Response
			switch rng.Intn(3) {
			case 0:
				r = In(u)
			case 1:
				r = Out(u)
			default:
				r, err = Pending(u, TimerChoices[rng.Intn(len(TimerChoices))])
				require.NoError(t, err)
			}
			require.NoError(t, s.Respond(r))
			require.NoError(t, s.Validate())

			for _, id := range users {
				buckets := 0
				for _, list := range [][]int64{s.InList(), s.OutList()} {
					for _, x := range list {
						if x == id {
							buckets++
						}
					}
				}
				for _, p := range s.PendingList() {
					if p.UserID == id {
						buckets++
					}
				}
				assert.LessOrEqual(t, buckets, 1)
			}
		}
	}
}

func TestRespondIdempotent(t *testing.T) {
	s, err := New(10, 20, 1, mustDuel(t, 1, 2), t0, time.Hour)
	require.NoError(t, err)

	require.NoError(t, s.Respond(In(1)))
	require.NoError(t, s.Respond(In(2)))
	once := append([]Response(nil), s.Responses...)

	require.NoError(t, s.Respond(In(1)))
	assert.Equal(t, once, s.Responses)
	assert.Equal(t, []int64{1, 2}, s.InList())
}

func TestRespondMovesBetweenBuckets(t *testing.T) {
	s, err := New(10, 20, 1, mustDuel(t, 1, 2), t0, time.Hour)
	require.NoError(t, err)

	require.NoError(t, s.Respond(In(1)))
	p, err := Pending(2, "10m")
	require.NoError(t, err)
	require.NoError(t, s.Respond(p))

	assert.Equal(t, []int64{1}, s.InList())
	assert.Empty(t, s.OutList())
	assert.Equal(t, []Response{{UserID: 2, Status: StatusPending, Label: "in 10m"}}, s.PendingList())

	require.NoError(t, s.Respond(Out(2)))
	assert.Empty(t, s.PendingList())
	assert.Equal(t, []int64{2}, s.OutList())
}

func TestPendingRejectsUnknownTimer(t *testing.T) {
	_, err := Pending(1, "2h")
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestCanClose(t *testing.T) {
	duel, err := New(10, 20, 1, mustDuel(t, 1, 2), t0, time.Hour)
	require.NoError(t, err)
	assert.True(t, duel.CanClose(1))
	assert.True(t, duel.CanClose(2))
	assert.False(t, duel.CanClose(3))

	squad, err := NewSquad([]int64{2, 3, 4, 5})
	require.NoError(t, err)
	team, err := New(10, 21, 1, squad, t0, time.Hour)
	require.NoError(t, err)
	assert.True(t, team.CanClose(1))
	assert.True(t, team.CanClose(4))
	assert.False(t, team.CanClose(9))
}
