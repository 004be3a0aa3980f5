package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/pfrederiksen/termin-watch/internal/slot"
)

const (
	telegramBaseURL = "https://api.telegram.org"
	telegramTimeout = 10 * time.Second
)

// TelegramNotifier sends messages through the Telegram Bot API
type TelegramNotifier struct {
	botToken string
	chatID   string
	client   *resty.Client
}

// NewTelegramNotifier creates a new Telegram notifier
func NewTelegramNotifier(botToken, chatID string) (*TelegramNotifier, error) {
	if botToken == "" {
		return nil, fmt.Errorf("bot token is required")
	}
	if chatID == "" {
		return nil, fmt.Errorf("chat ID is required")
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		client: resty.New().
			SetBaseURL(telegramBaseURL).
			SetTimeout(telegramTimeout),
	}, nil
}

// SetBaseURL points the notifier at another API host
func (n *TelegramNotifier) SetBaseURL(url string) {
	n.client.SetBaseURL(url)
}

// Notify sends the message to the configured chat
func (n *TelegramNotifier) Notify(ctx context.Context, s *slot.Slot) error {
	text := fmt.Sprintf("📅 <b>%s</b>\n\n<a href=\"%s\">Book now</a>",
		html.EscapeString(Title(s)), html.EscapeString(s.Link))
	return n.SendMessage(ctx, text)
}

// SendMessage sends an HTML-formatted text message
func (n *TelegramNotifier) SendMessage(ctx context.Context, text string) error {
	if text == "" {
		return fmt.Errorf("message text is required")
	}

	payload := map[string]interface{}{
		"chat_id":                  n.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post("/bot" + n.botToken + "/sendMessage")
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}

	if resp.IsError() {
		return fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode(), resp.String())
	}

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}

	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}

	if !result.OK {
		return fmt.Errorf("telegram API error: %s", result.Description)
	}

	return nil
}
