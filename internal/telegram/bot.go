package telegram

import (
	"context"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Bot struct {
	api     *tgbotapi.BotAPI
	handler *Handler
	log     *slog.Logger
}

// NewBotAPI подключается к Telegram по токену.
func NewBotAPI(token string, debug bool) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	api.Debug = debug
	return api, nil
}

func NewBot(api *tgbotapi.BotAPI, handler *Handler, log *slog.Logger) *Bot {
	if log == nil {
		log = slog.Default()
	}
	return &Bot{api: api, handler: handler, log: log}
}

// Run читает обновления, пока ctx не отменен. Каждое обновление обрабатывается
// в своей горутине; при остановке Run дожидается уже начатых.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	b.log.Info("bot started", "username", b.api.Self.UserName)

	// Начатые обработчики доводятся до конца даже после сигнала остановки.
	handlerCtx := context.WithoutCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.log.Info("bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.handler.HandleUpdate(handlerCtx, update)
			}()
		}
	}
}

// Deleter удаляет сообщения сессий по запросу Reaper.
type Deleter struct {
	Bot MessageSender
}

func (d Deleter) DeleteMessage(_ context.Context, chatID, messageID int64) error {
	_, err := d.Bot.Request(tgbotapi.NewDeleteMessage(chatID, int(messageID)))
	return err
}
