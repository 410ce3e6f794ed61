package notify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram envía alertas a un chat vía Bot API.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram conecta con la Bot API (hace getMe). chatID llega como string
// desde la configuración.
func NewTelegram(token, chatID string) (*Telegram, error) {
	return NewTelegramWithEndpoint(token, chatID, tgbotapi.APIEndpoint, &http.Client{})
}

// NewTelegramWithEndpoint permite apuntar a otro endpoint (tests).
func NewTelegramWithEndpoint(token, chatID, endpoint string, client *http.Client) (*Telegram, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(chatID), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("notify.NewTelegram: invalid chat id %q: %w", chatID, err)
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("notify.NewTelegram: %w", err)
	}
	return &Telegram{bot: bot, chatID: id}, nil
}

func (t *Telegram) Name() string { return "telegram" }

// Send publica título en negrita y mensaje en MarkdownV2.
func (t *Telegram) Send(_ context.Context, title, message string) error {
	msg := tgbotapi.NewMessage(t.chatID, fmt.Sprintf("*%s*\n%s", escapeMarkdownV2(title), escapeMarkdownV2(message)))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("notify.Telegram.Send: %w", err)
	}
	return nil
}

func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4)
	for _, r := range text {
		switch r {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
