package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"Newsroom/internal/ports"
)

const (
	defaultAPIBase = "https://api.telegram.org"
	// Telegram rejects sendMessage texts longer than this many characters.
	maxMessageRunes = 4096
)

// ErrMisconfigured is returned when the bot token or chat id is missing.
var ErrMisconfigured = errors.New("telegram notifier misconfigured")

// Notifier sends editorial notifications (sync summaries, new drafts) to a chat via the bot API.
type Notifier struct {
	apiBase  string
	botToken string
	chatID   string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string) *Notifier {
	return &Notifier{
		apiBase:  defaultAPIBase,
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// WithAPIBase points the notifier at another bot API host.
func (n *Notifier) WithAPIBase(base string) *Notifier {
	n.apiBase = strings.TrimRight(base, "/")
	return n
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Notify posts message as HTML-escaped plain text, cut to the API length limit.
func (n *Notifier) Notify(ctx context.Context, message string) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return ErrMisconfigured
	}

	form := url.Values{
		"chat_id":                  {n.chatID},
		"text":                     {FormatMessage(message)},
		"parse_mode":               {"HTML"},
		"disable_web_page_preview": {"true"},
	}
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	var body apiResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &body)

	if resp.StatusCode != http.StatusOK || (len(raw) > 0 && !body.OK && body.Description != "") {
		if body.Description != "" {
			return fmt.Errorf("telegram error %s: %s", resp.Status, body.Description)
		}
		return fmt.Errorf("telegram error %s", resp.Status)
	}
	return nil
}

// FormatMessage escapes message for HTML parse mode and truncates it to the API limit.
func FormatMessage(message string) string {
	escaped := html.EscapeString(strings.TrimSpace(message))
	if utf8.RuneCountInString(escaped) <= maxMessageRunes {
		return escaped
	}
	runes := []rune(escaped)[:maxMessageRunes-1]
	// never cut inside an entity
	if i := strings.LastIndexByte(string(runes), '&'); i >= 0 && !strings.Contains(string(runes)[i:], ";") {
		return string(runes)[:i] + "…"
	}
	return string(runes) + "…"
}
