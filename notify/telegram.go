// Package notify delivers pipeline events to external channels.
package notify

import (
	"context"
	"fmt"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"optionbot/broker"
)

// Telegram sends notifications to a single chat. The pipeline wraps every
// send in its notification gate, so delivery failures trip that gate's
// breaker rather than this type retrying.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
	log    *zap.Logger
}

// NewTelegram connects the bot API with the given token.
func NewTelegram(token string, chatID int64, log *zap.Logger) (*Telegram, error) {
	bot, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID, log: log}, nil
}

// Notify sends one Markdown-formatted message.
func (t *Telegram) Notify(ctx context.Context, msg broker.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := tgbot.NewMessage(t.chatID, fmt.Sprintf("*%s*\n\n%s", msg.Title, msg.Body))
	m.ParseMode = tgbot.ModeMarkdown

	if _, err := t.bot.Send(m); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}

	t.log.Debug("notification sent", zap.String("title", msg.Title))
	return nil
}
