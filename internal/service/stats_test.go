package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sashakosti/Go_Bot_Marceline/internal/storage"
	"github.com/sashakosti/Go_Bot_Marceline/internal/storage/memory"
	"github.com/sashakosti/Go_Bot_Marceline/internal/wizard"
)

func newStats(t *testing.T) (*StatsService, *memory.Store) {
	t.Helper()
	clock := newClock()
	store := memory.New()
	seedMembers(t, store, clock,
		storage.User{UserID: 1, FullName: "Alice"},
		storage.User{UserID: 2, FullName: "Bob"},
	)
	return NewStatsService(store, store, wizard.NewMemoryStore(), clock.Now), store
}

func TestStatsService_Wizard(t *testing.T) {
	ctx := context.Background()
	svc, store := newStats(t)

	w, err := svc.Start(ctx, testChat, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "Alice", w.NameA)
	assert.Equal(t, "Bob", w.NameB)

	w, err = svc.ChoosePlayed(ctx, testChat, w.ID, 5)
	require.NoError(t, err)

	w, err = svc.ChooseWinsA(ctx, testChat, w.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, WinsBLimit(w))

	_, err = svc.ChooseWinsB(ctx, testChat, w.ID, 3)
	assert.ErrorIs(t, err, ErrInvalidChoice)

	receipt, err := svc.ChooseWinsB(ctx, testChat, w.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, receipt.Result.Draws())

	records, err := store.ListMatches(ctx, testChat)
	require.NoError(t, err)
	assert.Len(t, records, 5)

	_, err = svc.ChooseWinsB(ctx, testChat, w.ID, 1)
	assert.ErrorIs(t, err, ErrWizardNotFound)
}

func TestStatsService_SupersededWizard(t *testing.T) {
	ctx := context.Background()
	svc, _ := newStats(t)

	first, err := svc.Start(ctx, testChat, 1, 2)
	require.NoError(t, err)
	second, err := svc.Start(ctx, testChat, 2, 1)
	require.NoError(t, err)

	_, err = svc.ChoosePlayed(ctx, testChat, first.ID, 3)
	assert.ErrorIs(t, err, ErrWizardNotFound)

	_, err = svc.ChoosePlayed(ctx, testChat, second.ID, 3)
	assert.NoError(t, err)
}

func TestStatsService_StepMismatch(t *testing.T) {
	ctx := context.Background()
	svc, _ := newStats(t)

	w, err := svc.Start(ctx, testChat, 1, 2)
	require.NoError(t, err)
	_, err = svc.ChooseWinsA(ctx, testChat, w.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidChoice)

	_, err = svc.ChoosePlayed(ctx, testChat, w.ID, 11)
	assert.ErrorIs(t, err, ErrInvalidChoice)
}

func TestStatsService_UnknownPlayerNames(t *testing.T) {
	ctx := context.Background()
	svc, _ := newStats(t)

	w, err := svc.Start(ctx, testChat, 77, 88)
	require.NoError(t, err)
	assert.Equal(t, "Player A", w.NameA)
	assert.Equal(t, "Player B", w.NameB)
}

func TestStatsService_Leaderboard(t *testing.T) {
	ctx := context.Background()
	svc, _ := newStats(t)

	rows, err := svc.Leaderboard(ctx, testChat)
	require.NoError(t, err)
	assert.Empty(t, rows)

	w, err := svc.Start(ctx, testChat, 1, 2)
	require.NoError(t, err)
	_, err = svc.ChoosePlayed(ctx, testChat, w.ID, 6)
	require.NoError(t, err)
	_, err = svc.ChooseWinsA(ctx, testChat, w.ID, 4)
	require.NoError(t, err)
	_, err = svc.ChooseWinsB(ctx, testChat, w.ID, 2)
	require.NoError(t, err)

	rows, err = svc.Leaderboard(ctx, testChat)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Alice", rows[0].Name)
	assert.Equal(t, 4, rows[0].Wins)
	assert.Equal(t, "Bob", rows[1].Name)
}
