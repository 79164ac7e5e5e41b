package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sashakosti/Go_Bot_Marceline/internal/game"
	"github.com/sashakosti/Go_Bot_Marceline/internal/storage"
	"github.com/sashakosti/Go_Bot_Marceline/internal/storage/memory"
)

const testChat = int64(-100500)

// testClock - управляемое время для тестов.
type testClock struct{ now time.Time }

func newClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func seedMembers(t *testing.T, store *memory.Store, clock *testClock, users ...storage.User) {
	t.Helper()
	for i, u := range users {
		at := clock.Now().Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.TouchMember(context.Background(), storage.Chat{ChatID: testChat, Title: "test"}, u, at))
	}
}

func openDuel(t *testing.T, svc *SessionService, messageID, a, b int64) *game.Session {
	t.Helper()
	lineup, err := svc.PrepareDuel(a, b)
	require.NoError(t, err)
	sess, err := svc.Open(context.Background(), testChat, messageID, a, lineup)
	require.NoError(t, err)
	return sess
}

func TestSessionService_Scenario1v1(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	store := memory.New()
	svc := NewSessionService(store, store, clock.Now)

	// Arrange
	sess := openDuel(t, svc, 500, 1, 2)
	assert.Equal(t, clock.Now().Add(360*time.Minute), sess.ExpiresAt)

	// Act
	sess, err := svc.Respond(ctx, testChat, 500, game.In(1))
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, sess.InList())
	assert.Empty(t, sess.OutList())
	assert.Empty(t, sess.PendingList())

	p, err := game.Pending(2, "10m")
	require.NoError(t, err)
	_, err = svc.Respond(ctx, testChat, 500, p)
	require.NoError(t, err)

	// Assert
	stored, err := store.GetSession(ctx, testChat, 500)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, stored.InList())
	assert.Equal(t, []game.Response{{UserID: 2, Status: game.StatusPending, Label: "in 10m"}}, stored.PendingList())

	clock.Advance(361 * time.Minute)
	_, err = svc.Respond(ctx, testChat, 500, game.In(2))
	assert.ErrorIs(t, err, ErrSessionExpired)

	_, err = store.GetSession(ctx, testChat, 500)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSessionService_UsesChatTTL(t *testing.T) {
	clock := newClock()
	store := memory.New()
	require.NoError(t, store.SetSessionTTL(context.Background(), testChat, 30))
	svc := NewSessionService(store, store, clock.Now)

	sess := openDuel(t, svc, 501, 1, 2)
	assert.Equal(t, clock.Now().Add(30*time.Minute), sess.ExpiresAt)
}

func TestSessionService_SquadRequired(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewSessionService(store, store, newClock().Now)

	t.Run("без сквада", func(t *testing.T) {
		_, err := svc.PrepareSquad(ctx, testChat)
		assert.ErrorIs(t, err, ErrNoSquad)
		assert.Zero(t, store.SessionCount())
	})

	t.Run("сквад настроен", func(t *testing.T) {
		require.NoError(t, store.SetPrimarySquad(ctx, testChat, []int64{1, 2, 3, 4}))
		lineup, err := svc.PrepareSquad(ctx, testChat)
		require.NoError(t, err)
		assert.Equal(t, game.ModeTwoVTwo, lineup.Mode)

		_, err = svc.Open(ctx, testChat, 600, 1, lineup)
		require.NoError(t, err)
		assert.Equal(t, 1, store.SessionCount())
	})
}

func TestSessionService_OpponentCandidates(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	store := memory.New()
	svc := NewSessionService(store, store, clock.Now)

	_, err := svc.OpponentCandidates(ctx, testChat, 1)
	assert.ErrorIs(t, err, ErrNoCandidates)

	seedMembers(t, store, clock,
		storage.User{UserID: 1, FullName: "Host"},
		storage.User{UserID: 2, FullName: "Old"},
		storage.User{UserID: 3, FullName: "Fresh"},
	)

	members, err := svc.OpponentCandidates(ctx, testChat, 1)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, int64(3), members[0].User.UserID)
	assert.Equal(t, int64(2), members[1].User.UserID)
}

func TestSessionService_PrepareDuelRejectsSelf(t *testing.T) {
	store := memory.New()
	svc := NewSessionService(store, store, newClock().Now)

	_, err := svc.PrepareDuel(1, 1)
	assert.ErrorIs(t, err, ErrInvalidChoice)
}

func TestSessionService_NotFound(t *testing.T) {
	store := memory.New()
	svc := NewSessionService(store, store, newClock().Now)

	_, err := svc.Respond(context.Background(), testChat, 404, game.In(1))
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionService_Stop(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewSessionService(store, store, newClock().Now)
	openDuel(t, svc, 700, 1, 2)

	t.Run("посторонний не может остановить", func(t *testing.T) {
		_, err := svc.Stop(ctx, testChat, 700, 3)
		assert.ErrorIs(t, err, ErrPermissionDenied)
		assert.Equal(t, 1, store.SessionCount())
	})

	t.Run("соперник может остановить", func(t *testing.T) {
		_, err := svc.Stop(ctx, testChat, 700, 2)
		require.NoError(t, err)
		assert.Zero(t, store.SessionCount())
	})

	t.Run("повторная остановка", func(t *testing.T) {
		_, err := svc.Stop(ctx, testChat, 700, 2)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestSessionService_HandOff(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewSessionService(store, store, newClock().Now)
	openDuel(t, svc, 800, 1, 2)

	sess, err := svc.HandOff(ctx, testChat, 800, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), sess.Lineup.PlayerA)
	assert.Equal(t, int64(2), sess.Lineup.PlayerB)
	assert.Zero(t, store.SessionCount())

	require.NoError(t, store.SetPrimarySquad(ctx, testChat, []int64{1, 2, 3}))
	lineup, err := svc.PrepareSquad(ctx, testChat)
	require.NoError(t, err)
	_, err = svc.Open(ctx, testChat, 801, 1, lineup)
	require.NoError(t, err)

	_, err = svc.HandOff(ctx, testChat, 801, 1)
	assert.ErrorIs(t, err, ErrNotDuel)
	assert.Equal(t, 1, store.SessionCount())
}

func TestSessionService_ReassignHostOnly(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewSessionService(store, store, newClock().Now)
	openDuel(t, svc, 900, 1, 2)

	_, err := svc.Reassign(ctx, testChat, 900, 2)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, 1, store.SessionCount())

	_, err = svc.Reassign(ctx, testChat, 900, 1)
	require.NoError(t, err)
	assert.Zero(t, store.SessionCount())
}

func TestSessionService_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewSessionService(store, store, newClock().Now)
	openDuel(t, svc, 1000, 1, 2)

	// Два обработчика прочитали одно и то же состояние
	first, err := svc.Get(ctx, testChat, 1000)
	require.NoError(t, err)
	second, err := svc.Get(ctx, testChat, 1000)
	require.NoError(t, err)

	require.NoError(t, first.Respond(game.In(1)))
	require.NoError(t, store.UpdateSession(ctx, first))
	require.NoError(t, second.Respond(game.Out(2)))
	require.NoError(t, store.UpdateSession(ctx, second))

	got, err := svc.Get(ctx, testChat, 1000)
	require.NoError(t, err)
	assert.Empty(t, got.InList())
	assert.Equal(t, []int64{2}, got.OutList())
}
