package bot

import (
	"context"

	"udhaar-bot/internal/ai"
	"udhaar-bot/internal/events"
	"udhaar-bot/internal/model"
)

// Update is the transport-neutral inbound event a webhook adapter
// delivers: one of text, a voice reference or a photo reference, plus
// whatever sender metadata the transport exposed.
type Update struct {
	ChatID      int64
	Text        string
	VoiceRef    string
	PhotoRef    string
	SenderPhone string
	SenderName  string
	// Callback carries an inline-button action ("confirm"/"cancel").
	Callback string
}

// Button is an inline action attached to a reply.
type Button struct {
	Label string
	Data  string
}

// Reply is one outbound message. Buttons, when present, are attached by
// the transport to the final chunk only.
type Reply struct {
	Text    string
	Buttons []Button
}

// Sender delivers replies to a chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, reply Reply) error
}

// MediaFetcher resolves a transport file reference to raw bytes and a
// MIME type.
type MediaFetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, string, error)
}

// Translator renders text in English, returning the input unchanged on
// failure.
type Translator interface {
	Translate(ctx context.Context, text string) string
}

// Transcriber converts a voice note to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// VisionExtractor reads name/amount pairs off a ledger photo.
type VisionExtractor interface {
	DebtsFromImage(ctx context.Context, image []byte, mimeType string) ([]ai.DebtItem, error)
}

// Roaster produces a quip about the chat's ledger.
type Roaster interface {
	Roast(ctx context.Context, ledgerContext string) (string, error)
}

// Directory upserts and resolves user identity records.
type Directory interface {
	Upsert(ctx context.Context, chatID int64, phone, name string) error
	FindByPhone(ctx context.Context, phone string) (*model.User, error)
}

// Sessions is the login/OTP boundary. The bot only relays commands to
// it; gating behavior stays the session service's business.
type Sessions interface {
	Issue(ctx context.Context, chatID int64, email string) error
	Verify(chatID int64, code string) error
	LoggedIn(chatID int64) bool
}

// EventPublisher receives a ledger event after every successful apply.
type EventPublisher interface {
	Publish(ctx context.Context, event events.LedgerEvent) error
}
