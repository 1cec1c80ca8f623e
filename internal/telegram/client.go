package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"udhaar-bot/internal/bot"

	"github.com/sirupsen/logrus"
)

// chunkSize is the outbound message split threshold; anything longer
// goes out as sequential chunks with markup only on the last one.
const chunkSize = 4000

const apiTimeout = 15 * time.Second

// Client talks to the Telegram Bot API directly over HTTP.
type Client struct {
	token string
	base  string
	httpc *http.Client
	log   *logrus.Logger
}

func NewClient(token string, log *logrus.Logger) *Client {
	return &Client{
		token: token,
		base:  "https://api.telegram.org",
		httpc: &http.Client{Timeout: apiTimeout},
		log:   log,
	}
}

type inlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type inlineKeyboard struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

type sendMessageRequest struct {
	ChatID      int64           `json:"chat_id"`
	Text        string          `json:"text"`
	ReplyMarkup *inlineKeyboard `json:"reply_markup,omitempty"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

// Send delivers a reply, splitting long text into chunks. Interactive
// buttons attach only to the final chunk.
func (c *Client) Send(ctx context.Context, chatID int64, reply bot.Reply) error {
	chunks := splitText(reply.Text, chunkSize)

	var markup *inlineKeyboard
	if len(reply.Buttons) > 0 {
		row := make([]inlineButton, 0, len(reply.Buttons))
		for _, b := range reply.Buttons {
			row = append(row, inlineButton{Text: b.Label, CallbackData: b.Data})
		}
		markup = &inlineKeyboard{InlineKeyboard: [][]inlineButton{row}}
	}

	for i, chunk := range chunks {
		req := sendMessageRequest{ChatID: chatID, Text: chunk}
		if i == len(chunks)-1 {
			req.ReplyMarkup = markup
		}
		if err := c.call(ctx, "sendMessage", req, nil); err != nil {
			return err
		}
	}

	return nil
}

// SendText delivers a plain text message.
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	return c.Send(ctx, chatID, bot.Reply{Text: text})
}

// Fetch resolves a file reference to its bytes and MIME type.
func (c *Client) Fetch(ctx context.Context, fileID string) ([]byte, string, error) {
	var file struct {
		FilePath string `json:"file_path"`
	}
	if err := c.call(ctx, "getFile?file_id="+fileID, nil, &file); err != nil {
		return nil, "", err
	}
	if file.FilePath == "" {
		return nil, "", fmt.Errorf("no file path for %s", fileID)
	}

	url := fmt.Sprintf("%s/file/bot%s/%s", c.base, c.token, file.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("file download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file body: %w", err)
	}

	return data, resp.Header.Get("Content-Type"), nil
}

func (c *Client) call(ctx context.Context, method string, payload, result interface{}) error {
	url := fmt.Sprintf("%s/bot%s/%s", c.base, c.token, method)

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("telegram API call failed: %w", err)
	}
	defer resp.Body.Close()

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return fmt.Errorf("failed to decode telegram response: %w", err)
	}
	if !api.OK {
		return fmt.Errorf("telegram API error: %s", api.Description)
	}

	if result != nil {
		if err := json.Unmarshal(api.Result, result); err != nil {
			return fmt.Errorf("failed to decode result: %w", err)
		}
	}

	return nil
}

// splitText breaks text into rune-safe chunks of at most size characters.
func splitText(text string, size int) []string {
	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	var chunks []string
	for len(runes) > 0 {
		n := size
		if n > len(runes) {
			n = len(runes)
		}
		chunks = append(chunks, string(runes[:n]))
		runes = runes[n:]
	}

	return chunks
}
