package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramClient talks to the Telegram Bot API over HTTPS. The bot needs
// only sendMessage and long-poll getUpdates, so no SDK is pulled in.
type TelegramClient struct {
	token string
	base  string
	http  *http.Client
}

func NewTelegramClient(token string) *TelegramClient {
	return &TelegramClient{
		token: token,
		base:  telegramAPIBase,
		// Long polls hold the connection open for the poll timeout, so
		// the client timeout must exceed it.
		http: &http.Client{Timeout: 90 * time.Second},
	}
}

// Update is one inbound Telegram event. Only text messages matter here.
type Update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		From struct {
			ID int64 `json:"id"`
		} `json:"from"`
	} `json:"message"`
}

// Send delivers text to the subscriber's chat. Subscriber ids are Telegram
// chat ids.
func (t *TelegramClient) Send(ctx context.Context, subscriberID int64, text string) error {
	body, err := json.Marshal(map[string]any{
		"chat_id": subscriberID,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("marshal sendMessage: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.base, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return fmt.Errorf("sendMessage to %d: %w", subscriberID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sendMessage to %d: %s", subscriberID, resp.Status)
	}
	return nil
}

// GetUpdates long-polls for new updates starting at offset.
func (t *TelegramClient) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	q := url.Values{}
	q.Set("offset", strconv.FormatInt(offset, 10))
	q.Set("timeout", strconv.Itoa(int(timeout.Seconds())))

	endpoint := fmt.Sprintf("%s/bot%s/getUpdates?%s", t.base, t.token, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build getUpdates request: %w", err)
	}

	resp, err := t.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("getUpdates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("getUpdates: %s", resp.Status)
	}

	var envelope struct {
		OK     bool     `json:"ok"`
		Result []Update `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode getUpdates response: %w", err)
	}
	if !envelope.OK {
		return nil, fmt.Errorf("getUpdates: api returned ok=false")
	}
	return envelope.Result, nil
}
