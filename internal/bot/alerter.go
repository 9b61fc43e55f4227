package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sender is the part of the Bot API used for outgoing messages.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Alerter delivers local alerts as chat messages.
type Alerter struct {
	out    sender
	chatID int64
}

func NewAlerter(api *tgbotapi.BotAPI, chatID int64) *Alerter {
	return &Alerter{out: api, chatID: chatID}
}

func (a *Alerter) Alert(ctx context.Context, title, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(a.chatID, fmt.Sprintf("🔔 <b>%s</b>\n%s", escape(title), escape(body)))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := a.out.Send(msg); err != nil {
		return fmt.Errorf("send alert: %w", err)
	}
	return nil
}
