package bot

import (
	"context"
	"errors"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"savesense/internal/intake"
	"savesense/internal/pipeline"
)

// Status texts shown while and after saving a share.
const (
	MsgSaving = "Saving to SaveSense..."
	MsgSaved  = "Successfully Saved!\nYou can find this in your /list later."
	MsgFailed = "Failed to Save\nSomething went wrong, please try again."
	MsgSignIn = "Failed to Save\nPlease sign in first with /login <email>."

	MsgUnknownCommand = "Unknown command. Available commands: /start, /login <email>, /logout, /list, /delete <n>."
)

// telegramFileScheme prefixes file locators of Telegram uploads.
const telegramFileScheme = "tg://file/"

// shareHandler treats any non-command message as a share.
func (h *Handler) shareHandler(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil {
		return
	}
	log := h.log.WithFields(logrus.Fields{
		"chat_user_id": senderID(msg),
		"message_id":   msg.ID,
	})

	if strings.HasPrefix(strings.TrimSpace(msg.Text), "/") {
		log.WithField("command", msg.Text).Debug("Unknown command")
		h.reply(ctx, log, msg.Chat.ID, MsgUnknownCommand)
		return
	}

	intent, err := intake.ParseIntent(MessageIntent(msg))
	if errors.Is(err, intake.ErrNoContent) {
		log.Debug("Ignoring message without shareable content")
		return
	}
	if err != nil {
		log.WithError(err).Warn("Failed to read shared content")
		return
	}

	rep := &chatReporter{sender: h.sender, chatID: msg.Chat.ID, log: log}
	_, err = h.shares.Process(ctx, pipeline.Request{
		Entrypoint: "bot",
		Session:    h.sessions.For(senderID(msg)),
		Intent:     intent,
		Reporter:   rep,
	})
	if err != nil {
		log.WithError(err).Debug("Share was not saved")
	}
}

// MessageIntent converts a chat message into the raw share map understood by
// intake.ParseIntent. Photos and documents become file shares; the caption of
// an attachment is ignored.
func MessageIntent(msg *models.Message) map[string]any {
	var files []any
	if n := len(msg.Photo); n > 0 {
		// Telegram lists photo sizes ascending; keep the largest.
		largest := msg.Photo[n-1]
		files = append(files, map[string]any{
			"uri":      telegramFileScheme + largest.FileID,
			"mimeType": "image/jpeg",
		})
	}
	if doc := msg.Document; doc != nil {
		files = append(files, map[string]any{
			"uri":      telegramFileScheme + doc.FileID,
			"mimeType": doc.MimeType,
			"fileName": doc.FileName,
		})
	}
	if len(files) > 0 {
		return map[string]any{"files": files}
	}
	return map[string]any{"text": msg.Text}
}

// chatReporter shows pipeline progress as a single message that is edited
// once the share reaches a terminal state.
type chatReporter struct {
	sender    Sender
	chatID    int64
	messageID int
	log       logrus.FieldLogger
}

func (r *chatReporter) Report(ctx context.Context, st pipeline.Status) {
	if !st.State.Terminal() {
		if r.messageID == 0 && st.State == pipeline.StateIdle {
			r.open(ctx)
		}
		return
	}
	r.finish(ctx, StatusText(st))
}

func (r *chatReporter) open(ctx context.Context) {
	m, err := r.sender.SendMessage(ctx, &tgbot.SendMessageParams{ChatID: r.chatID, Text: MsgSaving})
	if err != nil {
		r.log.WithError(err).Error("Failed to send status message")
		return
	}
	r.messageID = m.ID
}

func (r *chatReporter) finish(ctx context.Context, text string) {
	if r.messageID == 0 {
		if _, err := r.sender.SendMessage(ctx, &tgbot.SendMessageParams{ChatID: r.chatID, Text: text}); err != nil {
			r.log.WithError(err).Error("Failed to send result message")
		}
		return
	}
	_, err := r.sender.EditMessageText(ctx, &tgbot.EditMessageTextParams{
		ChatID:    r.chatID,
		MessageID: r.messageID,
		Text:      text,
	})
	if err != nil {
		r.log.WithError(err).Error("Failed to update status message")
	}
}

// StatusText maps a terminal pipeline status to the chat reply. A duplicate
// is reported exactly like a fresh save.
func StatusText(st pipeline.Status) string {
	switch st.State {
	case pipeline.StateSuccess, pipeline.StateAlreadyExists:
		return MsgSaved
	}
	if errors.Is(st.Err, pipeline.ErrUnauthenticated) {
		return MsgSignIn
	}
	return MsgFailed
}
