package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	DefaultReapInterval = 6 * time.Hour
	DefaultReapDelay    = time.Minute
)

// MessageDeleter удаляет интерактивное сообщение сессии.
type MessageDeleter interface {
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
}

// Reaper периодически удаляет просроченные сессии и, по возможности, их сообщения.
type Reaper struct {
	sessions SessionStore
	messages MessageDeleter
	now      func() time.Time
	interval time.Duration
	delay    time.Duration
	log      *slog.Logger
}

func NewReaper(sessions SessionStore, messages MessageDeleter, interval, delay time.Duration, log *slog.Logger) *Reaper {
	if interval <= 0 {
		interval = DefaultReapInterval
	}
	if delay < 0 {
		delay = DefaultReapDelay
	}
	if log == nil {
		log = slog.Default()
	}
	return &Reaper{
		sessions: sessions,
		messages: messages,
		now:      time.Now,
		interval: interval,
		delay:    delay,
		log:      log,
	}
}

// Run выполняет первую чистку через delay, затем каждые interval, пока ctx не отменен.
func (r *Reaper) Run(ctx context.Context) {
	timer := time.NewTimer(r.delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			n, err := r.Sweep(ctx)
			if err != nil {
				r.log.Error("session sweep failed", "error", err)
			} else if n > 0 {
				r.log.Info("expired sessions reaped", "count", n)
			}
			timer.Reset(r.interval)
		}
	}
}

// Sweep удаляет все сессии, чей expires_at уже прошел. Ошибка удаления
// сообщения не мешает удалению записи.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	expired, err := r.sessions.ListExpiredSessions(ctx, r.now())
	if err != nil {
		return 0, fmt.Errorf("list expired sessions: %w", err)
	}

	reaped := 0
	for _, sess := range expired {
		if err := r.messages.DeleteMessage(ctx, sess.ChatID, sess.MessageID); err != nil {
			r.log.Debug("session message already gone", "chat_id", sess.ChatID, "message_id", sess.MessageID, "error", err)
		}
		if err := r.sessions.DeleteSession(ctx, sess.ChatID, sess.MessageID); err != nil {
			r.log.Warn("failed to delete expired session", "chat_id", sess.ChatID, "message_id", sess.MessageID, "error", err)
			continue
		}
		reaped++
	}
	return reaped, nil
}
