// Package ai backs the model-dependent collaborators — translation,
// voice transcription, handwritten-ledger extraction and the roast —
// with a single Gemini client.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"udhaar-bot/internal/config"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

const callTimeout = 30 * time.Second

// DebtItem is one row the vision model read off a handwritten ledger.
type DebtItem struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

type Client struct {
	genai *genai.Client
	model string
	log   *logrus.Logger
}

func New(ctx context.Context, cfg config.GeminiConfig, log *logrus.Logger) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Client{
		genai: client,
		model: cfg.Model,
		log:   log,
	}, nil
}

func (c *Client) generate(ctx context.Context, parts []*genai.Part) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: parts,
		},
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}

	return text, nil
}

// Translate renders the text in English. Failure falls back to the
// original text so the pipeline keeps going with what the user sent.
func (c *Client) Translate(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	prompt := "Translate the following message to English. " +
		"If it is already English, return it unchanged. " +
		"Return ONLY the translated text, nothing else.\n\n" + text

	out, err := c.generate(ctx, []*genai.Part{{Text: prompt}})
	if err != nil {
		c.log.WithError(err).Warn("translation failed, using original text")
		return text
	}

	return strings.TrimSpace(out)
}

// Transcribe converts a voice note to text.
func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	out, err := c.generate(ctx, []*genai.Part{
		{Text: "Transcribe this voice note. Return ONLY the spoken words, nothing else."},
		{
			InlineData: &genai.Blob{
				MIMEType: mimeType,
				Data:     audio,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}

	return strings.TrimSpace(out), nil
}

// DebtsFromImage extracts name/amount pairs from a photo of a
// handwritten ledger.
func (c *Client) DebtsFromImage(ctx context.Context, image []byte, mimeType string) ([]DebtItem, error) {
	prompt := "Extract a JSON list of debts from this image. " +
		"Format: [{ \"name\": \"John\", \"amount\": 100 }]. " +
		"Ignore crossed-out text. " +
		"Combine multiple amounts for the same person into separate entries. " +
		"Return ONLY valid raw JSON, no Markdown, no code fences. " +
		"Output must begin with \"[\" and end with \"]\"."

	out, err := c.generate(ctx, []*genai.Part{
		{Text: prompt},
		{
			InlineData: &genai.Blob{
				MIMEType: mimeType,
				Data:     image,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("vision extraction: %w", err)
	}

	var items []DebtItem
	if err := json.Unmarshal([]byte(cleanModelJSON(out)), &items); err != nil {
		return nil, fmt.Errorf("vision extraction: unmarshal JSON: %w", err)
	}

	return items, nil
}

// Roast asks the model for a short quip about the user's ledger.
func (c *Client) Roast(ctx context.Context, ledgerContext string) (string, error) {
	prompt := "You are a witty, sarcastic financial advisor. " +
		"You are given a summary of debts. " +
		"Roast the user based on their lending/borrowing habits. " +
		"Be funny but not mean-spirited. Keep it short (under 50 words).\n\n" +
		"Here is the ledger status:\n" + ledgerContext + "\n\nRoast me."

	out, err := c.generate(ctx, []*genai.Part{{Text: prompt}})
	if err != nil {
		return "", fmt.Errorf("roast: %w", err)
	}

	return strings.TrimSpace(out), nil
}

// cleanModelJSON strips Markdown fences the model sometimes wraps its
// output in despite instructions.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	return strings.TrimSpace(s)
}
