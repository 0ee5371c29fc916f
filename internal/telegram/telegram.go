// Library repository: https://github.com/tucnak/telebot

package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	config "github.com/plugfox/helpdesk-server/internal/config"
	"github.com/plugfox/helpdesk-server/internal/model"
	tele "gopkg.in/telebot.v3"
)

// Notifier posts moderation events to the moderators chat.
// A nil Notifier, or one built without a token, does nothing.
type Notifier struct {
	bot  *tele.Bot
	chat *tele.Chat
}

// New creates the notifier. The bot runs offline: it only sends messages
// and never polls for updates.
func New(config *config.Config, httpClient *http.Client, logger *slog.Logger) (*Notifier, error) {
	if config.Telegram.Token == "" || config.Telegram.ChatID == 0 {
		return &Notifier{}, nil
	}
	return newNotifier(tele.Settings{
		Token:   config.Telegram.Token,
		Client:  httpClient,
		Offline: true,
		OnError: func(err error, _ tele.Context) {
			logger.Error("telegram error", slog.String("error", err.Error()))
		},
	}, config.Telegram.ChatID)
}

func newNotifier(pref tele.Settings, chatID int64) (*Notifier, error) {
	bot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("telegram bot setup error: %w", err)
	}
	return &Notifier{
		bot:  bot,
		chat: &tele.Chat{ID: chatID},
	}, nil
}

// Enabled reports whether messages are actually sent.
func (n *Notifier) Enabled() bool {
	return n != nil && n.bot != nil
}

// UserBanned announces an automatic ban.
func (n *Notifier) UserBanned(ctx context.Context, user *model.User, warnings int) error {
	if !n.Enabled() {
		return nil
	}
	text := fmt.Sprintf(
		"User %s (#%d) was banned after %d warnings.\nReason: %s",
		user.Username, user.ID, warnings, user.BanReason,
	)
	return n.send(ctx, text)
}

func (n *Notifier) send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := n.bot.Send(n.chat, text, &tele.SendOptions{DisableWebPagePreview: true})
	return err
}
