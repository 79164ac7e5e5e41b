package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sashakosti/Go_Bot_Marceline/internal/storage"
	"github.com/sashakosti/Go_Bot_Marceline/internal/storage/memory"
)

// fakeDeleter запоминает удаленные сообщения и может падать.
type fakeDeleter struct {
	deleted []int64
	err     error
}

func (d *fakeDeleter) DeleteMessage(_ context.Context, _ int64, messageID int64) error {
	d.deleted = append(d.deleted, messageID)
	return d.err
}

func TestReaper_Sweep(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	store := memory.New()
	require.NoError(t, store.SetSessionTTL(ctx, testChat, 60))
	svc := NewSessionService(store, store, clock.Now)

	openDuel(t, svc, 1, 1, 2)
	openDuel(t, svc, 2, 1, 3)
	clock.Advance(30 * time.Minute)
	openDuel(t, svc, 3, 2, 3)
	clock.Advance(45 * time.Minute)

	for name, deleterErr := range map[string]error{
		"сообщения удалены":     nil,
		"сообщения уже удалены": errors.New("message to delete not found"),
	} {
		t.Run(name, func(t *testing.T) {
			local := memory.New()
			require.NoError(t, local.SetSessionTTL(ctx, testChat, 60))
			localSvc := NewSessionService(local, local, newClock().Now)
			openDuel(t, localSvc, 1, 1, 2)
			openDuel(t, localSvc, 2, 1, 3)

			deleter := &fakeDeleter{err: deleterErr}
			reaper := NewReaper(local, deleter, time.Hour, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
			reaper.now = func() time.Time { return newClock().Now().Add(2 * time.Hour) }

			n, err := reaper.Sweep(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, n)
			assert.ElementsMatch(t, []int64{1, 2}, deleter.deleted)
			assert.Zero(t, local.SessionCount())
		})
	}

	deleter := &fakeDeleter{}
	reaper := NewReaper(store, deleter, time.Hour, 0, nil)
	reaper.now = clock.Now

	n, err := reaper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.ElementsMatch(t, []int64{1, 2}, deleter.deleted)

	_, err = store.GetSession(ctx, testChat, 3)
	assert.NoError(t, err)
	_, err = store.GetSession(ctx, testChat, 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestReaper_RunStopsOnCancel(t *testing.T) {
	store := memory.New()
	deleter := &fakeDeleter{}
	reaper := NewReaper(store, deleter, time.Millisecond, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reaper.Run(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop after cancel")
	}
}
