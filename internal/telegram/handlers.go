package telegram

import (
	"context"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sashakosti/Go_Bot_Marceline/internal/service"
	"github.com/sashakosti/Go_Bot_Marceline/internal/storage"
)

// MessageSender определяет интерфейс для отправки сообщений.
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Services - прикладной слой, с которым работают обработчики.
type Services struct {
	Sessions *service.SessionService
	Stats    *service.StatsService
	Members  *service.MembersService
	Vault    *service.VaultService
	Roasts   *service.RoastService
	Admin    *service.AdminService
}

type roastKey struct{ chatID, userID int64 }

type Handler struct {
	Bot MessageSender
	Services
	log *slog.Logger

	mu            sync.Mutex
	awaitingRoast map[roastKey]struct{}
}

func NewHandler(bot MessageSender, svc Services, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		Bot:           bot,
		Services:      svc,
		log:           log,
		awaitingRoast: make(map[roastKey]struct{}),
	}
}

// HandleUpdate - точка входа для одного обновления.
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		h.HandleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		h.HandleCallback(ctx, update.CallbackQuery)
	}
}

// HandleMessage учитывает активность и маршрутизирует команды.
func (h *Handler) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	h.track(ctx, msg.Chat, msg.From)

	if !msg.IsCommand() {
		h.handlePlainText(ctx, msg)
		return
	}

	switch msg.Command() {
	case "start", "help":
		h.HandleHelp(msg)
	case "about":
		h.HandleAbout(ctx, msg)
	case "aboutset":
		h.HandleAboutSet(ctx, msg)
	case "play":
		h.HandlePlay(ctx, msg)
	case "stats":
		h.HandleLeaderboard(ctx, msg)
	case "all":
		h.HandleAll(ctx, msg)
	case "exclude":
		h.HandleExclude(ctx, msg, true)
	case "include":
		h.HandleExclude(ctx, msg, false)
	case "alllist":
		h.HandleAllList(ctx, msg)
	case "whoall":
		h.HandleWhoAll(ctx, msg)
	case "squadset":
		h.HandleSquadSet(ctx, msg)
	case "squad":
		h.HandleSquad(ctx, msg)
	case "ttl":
		h.HandleTTL(ctx, msg)
	case "save":
		h.HandleSave(ctx, msg)
	case "q":
		h.HandleRecall(ctx, msg)
	case "sshow":
		h.HandleVaultList(ctx, msg, vaultMedia)
	case "sdel":
		h.HandleVaultDelete(ctx, msg, vaultMedia)
	case "ssave":
		h.HandleStickerSave(ctx, msg)
	case "s":
		h.HandleSticker(ctx, msg)
	case "stshow":
		h.HandleVaultList(ctx, msg, vaultStickers)
	case "stdel":
		h.HandleVaultDelete(ctx, msg, vaultStickers)
	case "exsave":
		h.HandleExcuseSave(ctx, msg)
	case "excuse":
		h.HandleExcuse(ctx, msg)
	case "exshow":
		h.HandleVaultList(ctx, msg, vaultExcuses)
	case "exdel":
		h.HandleVaultDelete(ctx, msg, vaultExcuses)
	case "roast":
		h.HandleRoast(ctx, msg)
	case "roastadd":
		h.HandleRoastAdd(ctx, msg)
	case "roastshow":
		h.HandleRoastShow(ctx, msg)
	case "roastdel":
		h.HandleRoastDelete(ctx, msg)
	case "resetall":
		h.HandleResetAll(ctx, msg)
	case "groups":
		h.HandleGroups(ctx, msg)
	case "groupdel":
		h.HandleGroupDelete(ctx, msg)
	}
}

// HandleCallback маршрутизирует нажатие кнопки и отвечает на него ровно один раз.
func (h *Handler) HandleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil || cq.Message.Chat == nil || cq.From == nil {
		request(h.Bot, h.log, tgbotapi.NewCallback(cq.ID, ""))
		return
	}
	h.track(ctx, cq.Message.Chat, cq.From)

	var notice string
	prefix, args := splitData(cq.Data)
	switch prefix {
	case cbMode:
		notice = h.handleModeCallback(ctx, cq, args)
	case cbOpp:
		notice = h.handleOpponentCallback(ctx, cq, args)
	case cbRSVP:
		notice = h.handleRSVPCallback(ctx, cq, args)
	case cbTimer:
		notice = h.handleTimerCallback(ctx, cq, args)
	case cbSess:
		notice = h.handleSessionCallback(ctx, cq, args)
	case cbStat:
		notice = h.handleStatCallback(ctx, cq, args)
	default:
		h.log.Debug("unknown callback", "data", cq.Data)
	}
	request(h.Bot, h.log, tgbotapi.NewCallback(cq.ID, notice))
}

func (h *Handler) track(ctx context.Context, chat *tgbotapi.Chat, from *tgbotapi.User) {
	if from.IsBot || !(chat.IsGroup() || chat.IsSuperGroup()) {
		return
	}
	err := h.Members.Track(ctx, storage.Chat{ChatID: chat.ID, Title: chat.Title}, userFrom(from))
	if err != nil {
		h.log.Warn("failed to track member", "chat_id", chat.ID, "user_id", from.ID, "error", err)
	}
}

func (h *Handler) reply(chatID int64, text string) {
	sendMessage(h.Bot, h.log, htmlMessage(chatID, text))
}

// failure логирует неожиданную ошибку и сообщает о ней в чат.
func (h *Handler) failure(chatID int64, op string, err error) {
	h.log.Error(op+" failed", "chat_id", chatID, "error", err)
	h.reply(chatID, textFailed)
}

func (h *Handler) deleteMessage(chatID int64, messageID int) {
	request(h.Bot, h.log, tgbotapi.NewDeleteMessage(chatID, messageID))
}

// isSuperAdmin - команды суперадмина молча игнорируются для остальных.
func (h *Handler) isSuperAdmin(msg *tgbotapi.Message) bool {
	return h.Admin.Authorize(msg.From.ID) == nil
}

var helpText = "<b>Commands</b>\n\n" +
	"<b>Games</b>\n" +
	"/play - start a 1v1 or 2v2 session\n" +
	"/stats - leaderboard (min 5 matches)\n" +
	"/squadset @a @b ... - set the 2v2 squad, /squad - show it\n\n" +
	"<b>Members</b>\n" +
	"/all - mention everyone, /whoall - who will be mentioned\n" +
	"/exclude, /include - reply to someone to toggle /all\n" +
	"/alllist - tracked members\n\n" +
	"<b>Vault</b>\n" +
	"/save key (reply), /q key, /sshow, /sdel key\n" +
	"/ssave key (reply to sticker), /s key, /stshow, /stdel key\n" +
	"/exsave key text, /excuse, /exshow, /exdel key\n\n" +
	"<b>Roasts</b>\n" +
	"/roast, /roastadd, /roastshow, /roastdel n\n\n" +
	"/about - about this chat, /help - this message"

// HandleHelp - /help
func (h *Handler) HandleHelp(msg *tgbotapi.Message) {
	h.reply(msg.Chat.ID, helpText)
}
