// Package notify — telegram.go доставляет уведомления через Telegram.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
)

// TelegramDeliverer отправляет текст в чат Telegram.
// Доставка best-effort: исчезнувший чат — не ошибка движка.
type TelegramDeliverer struct {
	bot     *telego.Bot
	timeout time.Duration
}

// NewTelegramDeliverer создаёт доставщика поверх готового бота.
func NewTelegramDeliverer(bot *telego.Bot, timeout time.Duration) *TelegramDeliverer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TelegramDeliverer{bot: bot, timeout: timeout}
}

// Deliver отправляет текст в канал (чат Telegram).
func (d *TelegramDeliverer) Deliver(ctx context.Context, channelID int64, text string) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	_, err := d.bot.SendMessage(ctx, &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: channelID},
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("ошибка отправки уведомления: %w", err)
	}

	log.WithField("chat_id", channelID).Debug("Уведомление доставлено")
	return nil
}
