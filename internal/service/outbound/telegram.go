package outbound

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"MarketMood/internal/domain/models"
	applogger "MarketMood/pkg/logger"
)

const defaultTelegramAPIBase = "https://api.telegram.org"

// TelegramConfig configures the Telegram outbound channel.
type TelegramConfig struct {
	APIBase  string
	BotToken string
	Timeout  time.Duration
}

// Telegram delivers notifications via the Bot API sendMessage call. Global
// pacing lives in the scheduler; this only executes one delivery.
type Telegram struct {
	client  *http.Client
	apiBase string
	token   string
	logger  *applogger.Logger
}

func NewTelegram(cfg TelegramConfig, lgr *applogger.Logger) (*Telegram, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}
	if cfg.APIBase == "" {
		cfg.APIBase = defaultTelegramAPIBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Telegram{
		client:  &http.Client{Timeout: cfg.Timeout},
		apiBase: cfg.APIBase,
		token:   cfg.BotToken,
		logger:  lgr,
	}, nil
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

func (t *Telegram) Send(ctx context.Context, destination string, n *models.Notification) error {
	body, err := json.Marshal(sendMessageRequest{ChatID: destination, Text: n.Text})
	if err != nil {
		return models.NewSendError(destination, models.SendRejected, err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return models.NewSendError(destination, models.SendRejected, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return models.NewSendError(destination, models.SendUnreachable, err)
	}
	defer resp.Body.Close()

	var parsed sendMessageResponse
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &parsed)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := 0
		if parsed.Parameters != nil {
			retryAfter = parsed.Parameters.RetryAfter
		}
		return models.NewSendError(destination, models.SendThrottled,
			fmt.Errorf("rate limited, retry after %ds", retryAfter))
	case resp.StatusCode >= 500:
		return models.NewSendError(destination, models.SendUnreachable,
			fmt.Errorf("status %d: %s", resp.StatusCode, parsed.Description))
	case resp.StatusCode >= 400 || !parsed.OK:
		return models.NewSendError(destination, models.SendRejected,
			fmt.Errorf("status %d: %s", resp.StatusCode, parsed.Description))
	}
	return nil
}
