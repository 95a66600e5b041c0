package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"savesense/internal/auth"
	"savesense/internal/config"
	"savesense/internal/domain"
	"savesense/internal/pipeline"
	"savesense/internal/storage"
)

// listLimit caps how many entries /list shows.
const listLimit = 20

// Sender is the subset of the Telegram API the handlers use.
type Sender interface {
	SendMessage(ctx context.Context, params *tgbot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *tgbot.EditMessageTextParams) (*models.Message, error)
}

// ShareProcessor runs a share through the save pipeline.
type ShareProcessor interface {
	Process(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// Handler holds dependencies for the Telegram bot handlers.
type Handler struct {
	bot      *tgbot.Bot
	sender   Sender
	shares   ShareProcessor
	sessions *auth.ChatSessions
	repo     storage.Repository
	log      logrus.FieldLogger
}

// NewHandler creates a new bot handler instance.
func NewHandler(cfg config.Config, shares ShareProcessor, sessions *auth.ChatSessions, repo storage.Repository, logger logrus.FieldLogger) (*Handler, error) {
	if err := cfg.RequireTelegram(); err != nil {
		return nil, err
	}

	h := newHandler(nil, shares, sessions, repo, logger)

	b, err := tgbot.New(cfg.TelegramBotToken, tgbot.WithDefaultHandler(h.shareHandler))
	if err != nil {
		h.log.WithError(err).Error("Failed to create Telegram bot instance")
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	h.bot = b
	h.sender = b

	h.registerHandlers()

	h.log.Info("Telegram bot handler initialized")
	return h, nil
}

func newHandler(sender Sender, shares ShareProcessor, sessions *auth.ChatSessions, repo storage.Repository, logger logrus.FieldLogger) *Handler {
	return &Handler{
		sender:   sender,
		shares:   shares,
		sessions: sessions,
		repo:     repo,
		log:      logger.WithField("component", "bot_handler"),
	}
}

// registerHandlers sets up the command handlers. Everything else goes to
// the default handler and is treated as a share.
func (h *Handler) registerHandlers() {
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/start", tgbot.MatchTypeExact, h.startHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/login", tgbot.MatchTypePrefix, h.loginHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/logout", tgbot.MatchTypeExact, h.logoutHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/list", tgbot.MatchTypeExact, h.listHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/delete", tgbot.MatchTypePrefix, h.deleteHandler)
	h.log.Info("Registered command handlers")
}

// Start begins polling for updates from Telegram.
// This function blocks until the context is cancelled.
func (h *Handler) Start(ctx context.Context) {
	h.log.Info("Starting Telegram bot polling...")
	h.bot.Start(ctx)
	h.log.Info("Telegram bot polling stopped.")
}

func (h *Handler) reply(ctx context.Context, log logrus.FieldLogger, chatID int64, text string) {
	_, err := h.sender.SendMessage(ctx, &tgbot.SendMessageParams{ChatID: chatID, Text: text})
	if err != nil {
		log.WithError(err).Error("Failed to send message")
	}
}

func commandLog(log logrus.FieldLogger, msg *models.Message, command string) logrus.FieldLogger {
	return log.WithFields(logrus.Fields{
		"chat_user_id": senderID(msg),
		"command":      command,
	})
}

func senderID(msg *models.Message) int64 {
	if msg.From != nil {
		return msg.From.ID
	}
	return msg.Chat.ID
}

// commandArg returns the text after the command word.
func commandArg(text string) string {
	_, arg, _ := strings.Cut(strings.TrimSpace(text), " ")
	return strings.TrimSpace(arg)
}

// startHandler handles the /start command.
func (h *Handler) startHandler(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	log := commandLog(h.log, update.Message, "/start")
	log.Info("Received /start command")

	welcome := "Welcome to SaveSense! Sign in with /login <email>, then share any link, text, photo or file with me and I'll save it for you."
	h.reply(ctx, log, update.Message.Chat.ID, welcome)
}

// loginHandler handles /login <email>.
func (h *Handler) loginHandler(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	msg := update.Message
	log := commandLog(h.log, msg, "/login")

	email := commandArg(msg.Text)
	if email == "" {
		h.reply(ctx, log, msg.Chat.ID, "Usage: /login <email>")
		return
	}

	user, err := h.sessions.Login(ctx, senderID(msg), email)
	switch {
	case errors.Is(err, auth.ErrInvalidEmail):
		h.reply(ctx, log, msg.Chat.ID, "That doesn't look like an email address.")
		return
	case err != nil:
		log.WithError(err).Error("Failed to save session")
		h.reply(ctx, log, msg.Chat.ID, "Sign in failed, please try again.")
		return
	}

	log.WithField("user_id", user.ID).Info("Chat user signed in")
	h.reply(ctx, log, msg.Chat.ID, "Signed in as "+user.Email+".")
}

// logoutHandler handles /logout.
func (h *Handler) logoutHandler(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	msg := update.Message
	log := commandLog(h.log, msg, "/logout")

	if err := h.sessions.Logout(ctx, senderID(msg)); err != nil {
		log.WithError(err).Error("Failed to delete session")
		h.reply(ctx, log, msg.Chat.ID, "Sign out failed, please try again.")
		return
	}
	h.reply(ctx, log, msg.Chat.ID, "Signed out.")
}

// listHandler handles /list.
func (h *Handler) listHandler(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	msg := update.Message
	log := commandLog(h.log, msg, "/list")

	entries, ok := h.userEntries(ctx, log, msg)
	if !ok {
		return
	}
	if len(entries) == 0 {
		h.reply(ctx, log, msg.Chat.ID, "Nothing saved yet.")
		return
	}
	h.reply(ctx, log, msg.Chat.ID, FormatEntries(entries, listLimit))
}

// deleteHandler handles /delete <n>, where n is a position from /list.
func (h *Handler) deleteHandler(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	msg := update.Message
	log := commandLog(h.log, msg, "/delete")

	n, err := strconv.Atoi(commandArg(msg.Text))
	if err != nil || n < 1 {
		h.reply(ctx, log, msg.Chat.ID, "Usage: /delete <number from /list>")
		return
	}

	entries, ok := h.userEntries(ctx, log, msg)
	if !ok {
		return
	}
	if n > len(entries) {
		h.reply(ctx, log, msg.Chat.ID, fmt.Sprintf("There is no entry %d.", n))
		return
	}

	entry := entries[n-1]
	if err := h.repo.Delete(ctx, entry.UserID, entry.Value); err != nil {
		log.WithError(err).Error("Failed to delete entry")
		h.reply(ctx, log, msg.Chat.ID, "Delete failed, please try again.")
		return
	}
	log.WithField("entry_id", entry.ID).Info("Entry deleted")
	h.reply(ctx, log, msg.Chat.ID, "Deleted: "+entryLabel(entry))
}

// userEntries loads the signed-in user's entries, replying on failure.
func (h *Handler) userEntries(ctx context.Context, log logrus.FieldLogger, msg *models.Message) ([]domain.SharedEntry, bool) {
	user, err := h.sessions.For(senderID(msg)).CurrentUser(ctx)
	if errors.Is(err, auth.ErrNoSession) {
		h.reply(ctx, log, msg.Chat.ID, MsgSignIn)
		return nil, false
	}
	if err != nil {
		log.WithError(err).Error("Failed to resolve session")
		h.reply(ctx, log, msg.Chat.ID, MsgFailed)
		return nil, false
	}

	entries, err := h.repo.ListByUser(ctx, user.ID)
	if err != nil {
		log.WithError(err).Error("Failed to list entries")
		h.reply(ctx, log, msg.Chat.ID, MsgFailed)
		return nil, false
	}
	return entries, true
}

// FormatEntries renders up to limit entries as a numbered list.
func FormatEntries(entries []domain.SharedEntry, limit int) string {
	var b strings.Builder
	for i, e := range entries {
		if i == limit {
			fmt.Fprintf(&b, "... and %d more", len(entries)-limit)
			break
		}
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, e.Platform, entryLabel(e))
	}
	return strings.TrimRight(b.String(), "\n")
}

func entryLabel(e domain.SharedEntry) string {
	switch {
	case e.Metadata.HasTitle():
		return e.Metadata.Title + " (" + e.Value + ")"
	case e.Metadata.OriginalFile != nil && e.Metadata.OriginalFile.Name != "":
		return e.Metadata.OriginalFile.Name
	}
	return e.Value
}
