package telegram

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sashakosti/Go_Bot_Marceline/internal/game"
	"github.com/sashakosti/Go_Bot_Marceline/internal/service"
	"github.com/sashakosti/Go_Bot_Marceline/internal/storage/memory"
	"github.com/sashakosti/Go_Bot_Marceline/internal/wizard"
)

const (
	testChat    = int64(-100777)
	superAdmin  = int64(99)
	sentMessage = 900
	pickerMsgID = 50
)

// MockMessageSender является моком для интерфейса MessageSender
type MockMessageSender struct {
	mock.Mock
}

func (m *MockMessageSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	// Возвращаем фейковое сообщение с ID, чтобы хендлер мог его использовать
	if msg, ok := args.Get(0).(tgbotapi.Message); ok {
		return msg, args.Error(1)
	}
	return tgbotapi.Message{}, args.Error(1)
}

func (m *MockMessageSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	args := m.Called(c)
	if resp, ok := args.Get(0).(*tgbotapi.APIResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

// calls возвращает аргументы вызовов method заданного типа.
func calls[T any](m *MockMessageSender, method string) []T {
	var out []T
	for _, c := range m.Calls {
		if c.Method != method {
			continue
		}
		if v, ok := c.Arguments.Get(0).(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func lastAnswer(t *testing.T, m *MockMessageSender) tgbotapi.CallbackConfig {
	t.Helper()
	answers := calls[tgbotapi.CallbackConfig](m, "Request")
	require.NotEmpty(t, answers)
	return answers[len(answers)-1]
}

func lastEdit(t *testing.T, m *MockMessageSender) tgbotapi.EditMessageTextConfig {
	t.Helper()
	edits := calls[tgbotapi.EditMessageTextConfig](m, "Send")
	require.NotEmpty(t, edits)
	return edits[len(edits)-1]
}

func buttonData(markup *tgbotapi.InlineKeyboardMarkup) []string {
	var out []string
	if markup == nil {
		return out
	}
	for _, row := range markup.InlineKeyboard {
		for _, b := range row {
			if b.CallbackData != nil {
				out = append(out, *b.CallbackData)
			}
		}
	}
	return out
}

type fixture struct {
	h       *Handler
	sender  *MockMessageSender
	store   *memory.Store
	wizards *wizard.MemoryStore
	clock   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		sender:  new(MockMessageSender),
		store:   memory.New(),
		wizards: wizard.NewMemoryStore(),
		clock:   time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC),
	}
	now := func() time.Time { return f.clock }

	f.sender.On("Send", mock.Anything).Return(tgbotapi.Message{MessageID: sentMessage}, nil)
	f.sender.On("Request", mock.Anything).Return(&tgbotapi.APIResponse{Ok: true}, nil)

	svc := Services{
		Sessions: service.NewSessionService(f.store, f.store, now),
		Stats:    service.NewStatsService(f.store, f.store, f.wizards, now),
		Members:  service.NewMembersService(f.store, now),
		Vault:    service.NewVaultService(f.store),
		Roasts:   service.NewRoastService(f.store, nil),
		Admin:    service.NewAdminService(superAdmin, f.store, f.store, f.store),
	}
	f.h = NewHandler(f.sender, svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return f
}

func groupChat() *tgbotapi.Chat {
	return &tgbotapi.Chat{ID: testChat, Type: "supergroup", Title: "test"}
}

func user(id int64, name string) *tgbotapi.User {
	return &tgbotapi.User{ID: id, FirstName: name, UserName: name}
}

func text(from *tgbotapi.User, body string) *tgbotapi.Message {
	return &tgbotapi.Message{From: from, Chat: groupChat(), Text: body}
}

func command(from *tgbotapi.User, body string) *tgbotapi.Message {
	msg := text(from, body)
	cmdLen := len(body)
	for i, r := range body {
		if r == ' ' {
			cmdLen = i
			break
		}
	}
	msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}}
	return msg
}

func press(from *tgbotapi.User, messageID int, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    from,
		Message: &tgbotapi.Message{MessageID: messageID, Chat: groupChat()},
		Data:    data,
	}
}

var (
	alice = user(1, "alice")
	bob   = user(2, "bob")
	carol = user(3, "carol")
)

// openDuel создает 1v1 сессию alice против bob под sentMessage.
func (f *fixture) openDuel(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	f.h.HandleMessage(ctx, text(alice, "hi"))
	f.h.HandleMessage(ctx, text(bob, "hi"))
	f.h.HandleCallback(ctx, press(alice, pickerMsgID, opponentData(alice.ID, bob.ID)))
	require.Equal(t, 1, f.store.SessionCount())
}

func TestPlay_TwoVTwoWithoutSquad(t *testing.T) {
	ctx := context.Background()

	t.Run("командой", func(t *testing.T) {
		f := newFixture(t)
		f.h.HandleMessage(ctx, command(alice, "/play 2v2"))

		msgs := calls[tgbotapi.MessageConfig](f.sender, "Send")
		require.Len(t, msgs, 1)
		assert.Equal(t, textNoSquad, msgs[0].Text)
		assert.Zero(t, f.store.SessionCount())
	})

	t.Run("кнопкой выбора режима", func(t *testing.T) {
		f := newFixture(t)
		f.h.HandleCallback(ctx, press(alice, pickerMsgID, modeData(game.ModeTwoVTwo, alice.ID)))

		assert.Equal(t, textNoSquad, lastEdit(t, f.sender).Text)
		assert.Empty(t, lastAnswer(t, f.sender).Text)
		assert.Zero(t, f.store.SessionCount())
	})
}

func TestPlay_OpponentFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.h.HandleMessage(ctx, text(alice, "hi"))
	f.h.HandleMessage(ctx, text(bob, "hi"))

	// Чужой человек не может выбрать режим за инициатора
	f.h.HandleCallback(ctx, press(carol, pickerMsgID, modeData(game.ModeOneVOne, alice.ID)))
	assert.NotEmpty(t, lastAnswer(t, f.sender).Text)
	assert.Empty(t, calls[tgbotapi.EditMessageTextConfig](f.sender, "Send"))

	f.h.HandleCallback(ctx, press(alice, pickerMsgID, modeData(game.ModeOneVOne, alice.ID)))
	picker := lastEdit(t, f.sender)
	assert.Equal(t, []string{opponentData(alice.ID, bob.ID), opponentData(alice.ID, carol.ID)}, buttonData(picker.ReplyMarkup))

	f.h.HandleCallback(ctx, press(alice, pickerMsgID, opponentData(alice.ID, bob.ID)))

	sess, err := f.store.GetSession(ctx, testChat, sentMessage)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, sess.InitiatorID)
	assert.Equal(t, bob.ID, sess.Lineup.PlayerB)
	assert.Contains(t, calls[tgbotapi.DeleteMessageConfig](f.sender, "Request"), tgbotapi.NewDeleteMessage(testChat, pickerMsgID))
}

func TestPlay_OpenFailureDeletesMessage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.openDuel(t)

	// Сообщение с тем же ID уже занято сессией
	f.h.HandleCallback(ctx, press(alice, pickerMsgID+1, opponentData(alice.ID, bob.ID)))

	assert.Equal(t, 1, f.store.SessionCount())
	assert.Contains(t, calls[tgbotapi.DeleteMessageConfig](f.sender, "Request"), tgbotapi.NewDeleteMessage(testChat, sentMessage))
	assert.Equal(t, textFailed, lastAnswer(t, f.sender).Text)
}

func TestRSVPCallbacks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.openDuel(t)

	f.h.HandleCallback(ctx, press(alice, sentMessage, rsvpData(game.StatusIn)))
	assert.Contains(t, lastEdit(t, f.sender).Text, "In (1): alice")

	f.h.HandleCallback(ctx, press(bob, sentMessage, rsvpData(game.StatusPending)))
	markups := calls[tgbotapi.EditMessageReplyMarkupConfig](f.sender, "Send")
	require.Len(t, markups, 1)
	assert.Contains(t, buttonData(markups[0].ReplyMarkup), timerData("10m"))

	sess, err := f.store.GetSession(ctx, testChat, sentMessage)
	require.NoError(t, err)
	assert.Empty(t, sess.PendingList())

	f.h.HandleCallback(ctx, press(bob, sentMessage, timerData("10m")))
	sess, err = f.store.GetSession(ctx, testChat, sentMessage)
	require.NoError(t, err)
	assert.Equal(t, []int64{alice.ID}, sess.InList())
	assert.Equal(t, []game.Response{{UserID: bob.ID, Status: game.StatusPending, Label: "in 10m"}}, sess.PendingList())
	assert.Contains(t, lastEdit(t, f.sender).Text, "bob (in 10m)")
}

func TestRSVP_ExpiredSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.openDuel(t)

	f.clock = f.clock.Add(361 * time.Minute)
	f.h.HandleCallback(ctx, press(alice, sentMessage, rsvpData(game.StatusIn)))

	assert.Equal(t, textSessionExpired, lastEdit(t, f.sender).Text)
	assert.Zero(t, f.store.SessionCount())
}

func TestSessionStop_Permissions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.openDuel(t)

	f.h.HandleCallback(ctx, press(carol, sentMessage, sessionData(actStop)))
	assert.Equal(t, "You are not allowed to do that.", lastAnswer(t, f.sender).Text)
	assert.Equal(t, 1, f.store.SessionCount())

	f.h.HandleCallback(ctx, press(bob, sentMessage, sessionData(actStop)))
	assert.Zero(t, f.store.SessionCount())
	assert.Contains(t, calls[tgbotapi.DeleteMessageConfig](f.sender, "Request"), tgbotapi.NewDeleteMessage(testChat, sentMessage))
}

func TestStatsWizardFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.openDuel(t)

	f.h.HandleCallback(ctx, press(bob, sentMessage, sessionData(actStats)))
	assert.Zero(t, f.store.SessionCount())

	w, err := f.wizards.Get(ctx, testChat)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, w.PlayerA)

	const wizardMsg = sentMessage
	f.h.HandleCallback(ctx, press(alice, wizardMsg, statData(w.ID, stepPlayed, 5)))
	f.h.HandleCallback(ctx, press(alice, wizardMsg, statData(w.ID, stepWinsA, 3)))

	edit := lastEdit(t, f.sender)
	assert.Equal(t, []string{
		statData(w.ID, stepWinsB, 0),
		statData(w.ID, stepWinsB, 1),
		statData(w.ID, stepWinsB, 2),
	}, buttonData(edit.ReplyMarkup))

	f.h.HandleCallback(ctx, press(alice, wizardMsg, statData(w.ID, stepWinsB, 1)))
	assert.Contains(t, lastEdit(t, f.sender).Text, "Saved 5 matches")

	records, err := f.store.ListMatches(ctx, testChat)
	require.NoError(t, err)
	assert.Len(t, records, 5)

	t.Run("кнопка завершенного мастера", func(t *testing.T) {
		f.h.HandleCallback(ctx, press(alice, wizardMsg, statData(w.ID, stepWinsB, 0)))
		assert.Equal(t, textWizardExpired, lastEdit(t, f.sender).Text)
	})
}

func TestStatsWizard_DoubleTap(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.h.startWizard(ctx, testChat, alice.ID, bob.ID)

	w, err := f.wizards.Get(ctx, testChat)
	require.NoError(t, err)

	f.h.HandleCallback(ctx, press(alice, sentMessage, statData(w.ID, stepPlayed, 4)))
	edits := len(calls[tgbotapi.EditMessageTextConfig](f.sender, "Send"))

	f.h.HandleCallback(ctx, press(bob, sentMessage, statData(w.ID, stepPlayed, 6)))
	assert.Equal(t, "Invalid choice.", lastAnswer(t, f.sender).Text)
	assert.Len(t, calls[tgbotapi.EditMessageTextConfig](f.sender, "Send"), edits)
}

func TestRoastAdd_TwoSteps(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.h.HandleMessage(ctx, command(alice, "/roastadd"))
	f.h.HandleMessage(ctx, text(bob, "not mine"))
	f.h.HandleMessage(ctx, text(alice, "you play like a bot"))
	f.h.HandleMessage(ctx, text(alice, "this one is just chat"))

	lines, err := f.store.ListRoasts(ctx, testChat)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "you play like a bot", lines[0].Text)
}

func TestAdminCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("не суперадмин игнорируется", func(t *testing.T) {
		f := newFixture(t)
		f.openDuel(t)
		sends := len(calls[tgbotapi.MessageConfig](f.sender, "Send"))

		f.h.HandleMessage(ctx, command(alice, "/resetall CONFIRM"))
		assert.Len(t, calls[tgbotapi.MessageConfig](f.sender, "Send"), sends)
		assert.Equal(t, 1, f.store.SessionCount())
	})

	t.Run("суперадмин сбрасывает чат", func(t *testing.T) {
		f := newFixture(t)
		f.openDuel(t)

		f.h.HandleMessage(ctx, command(user(superAdmin, "root"), "/resetall CONFIRM"))
		assert.Zero(t, f.store.SessionCount())
	})
}

func TestVaultCommands(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	save := command(alice, "/save Hello")
	save.ReplyToMessage = &tgbotapi.Message{Text: "hello there"}
	f.h.HandleMessage(ctx, save)

	again := command(bob, "/exsave hello another text")
	f.h.HandleMessage(ctx, again)
	msgs := calls[tgbotapi.MessageConfig](f.sender, "Send")
	assert.Equal(t, "Keyword taken.", msgs[len(msgs)-1].Text)

	f.h.HandleMessage(ctx, command(bob, "/q HELLO"))
	msgs = calls[tgbotapi.MessageConfig](f.sender, "Send")
	assert.Equal(t, "hello there", msgs[len(msgs)-1].Text)
}
