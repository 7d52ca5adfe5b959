package reminder

import (
	"context"
	"fmt"
	"strings"

	"go.trai.ch/zerr"
	tele "gopkg.in/telebot.v4"

	"chorecal/internal/dates"
	"chorecal/internal/model"
)

// ErrNotifierConfig is returned when a notifier is missing credentials.
var ErrNotifierConfig = zerr.New("notifier misconfigured")

// TelegramNotifier posts each digest to one Telegram chat.
type TelegramNotifier struct {
	bot  *tele.Bot
	chat *tele.Chat
}

// NewTelegramNotifier connects a bot with token. The token is checked
// against the Bot API here, so a bad token fails at startup.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	if strings.TrimSpace(token) == "" {
		return nil, zerr.Wrap(ErrNotifierConfig, "telegram token is empty")
	}
	if chatID == 0 {
		return nil, zerr.Wrap(ErrNotifierConfig, "telegram chat id is empty")
	}
	b, err := tele.NewBot(tele.Settings{Token: token})
	if err != nil {
		return nil, zerr.Wrap(err, "create telegram bot")
	}
	return &TelegramNotifier{bot: b, chat: &tele.Chat{ID: chatID}}, nil
}

func (n *TelegramNotifier) Notify(ctx context.Context, d Digest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := n.bot.Send(n.chat, FormatDigest(d), &tele.SendOptions{DisableWebPagePreview: true})
	if err != nil {
		return zerr.With(zerr.Wrap(err, "telegram send"), "chat_id", n.chat.ID)
	}
	return nil
}

// FormatDigest renders d as plain text, one chore per line. High priority
// chores are marked with "!".
func FormatDigest(d Digest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Chores for %s %s:", dates.DayNames[d.Date.Weekday()], d.Date)
	for _, c := range d.Chores {
		mark := "-"
		if c.Priority == model.PriorityHigh {
			mark = "!"
		}
		fmt.Fprintf(&sb, "\n%s %s", mark, c.Name)
	}
	return sb.String()
}
