package telegram

import (
	"encoding/json"
	"net/http"

	"udhaar-bot/internal/bot"

	"github.com/sirupsen/logrus"
)

// Webhook accepts Bot API updates, acknowledges them immediately and
// hands the normalized event to the dispatcher. Slow downstream work
// must never show up as a webhook timeout, so enqueueing is the only
// thing that happens before the 200 goes out.
type Webhook struct {
	verifyToken string
	enqueue     func(bot.Update) bool
	log         *logrus.Logger
}

func NewWebhook(verifyToken string, enqueue func(bot.Update) bool, log *logrus.Logger) *Webhook {
	return &Webhook{
		verifyToken: verifyToken,
		enqueue:     enqueue,
		log:         log,
	}
}

func (h *Webhook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.verify(w, r)
	case http.MethodPost:
		h.receive(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// verify answers the subscription challenge.
func (h *Webhook) verify(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "" || token == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if mode != "subscribe" || token != h.verifyToken {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	h.log.Info("webhook verified")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(challenge))
}

func (h *Webhook) receive(w http.ResponseWriter, r *http.Request) {
	var upd Update
	err := json.NewDecoder(r.Body).Decode(&upd)

	// Acknowledge before any processing; retries are the transport's
	// reaction to slowness, not a signal we want.
	w.WriteHeader(http.StatusOK)

	if err != nil {
		h.log.WithError(err).Debug("ignoring malformed update")
		return
	}

	u, ok := normalize(upd)
	if !ok {
		return
	}

	h.enqueue(u)
}

// normalize maps a Bot API update onto the transport-neutral event the
// router consumes.
func normalize(upd Update) (bot.Update, bool) {
	if cq := upd.CallbackQuery; cq != nil && cq.Message != nil {
		u := bot.Update{
			ChatID:   cq.Message.Chat.ID,
			Callback: cq.Data,
		}
		if cq.From != nil {
			u.SenderName = cq.From.FirstName
		}
		return u, true
	}

	msg := upd.Message
	if msg == nil {
		return bot.Update{}, false
	}

	u := bot.Update{
		ChatID: msg.Chat.ID,
		Text:   msg.Text,
	}
	if msg.From != nil {
		u.SenderName = msg.From.FirstName
	}
	if msg.Contact != nil {
		u.SenderPhone = msg.Contact.PhoneNumber
	}
	if msg.Voice != nil {
		u.VoiceRef = msg.Voice.FileID
	} else if msg.Audio != nil {
		u.VoiceRef = msg.Audio.FileID
	}
	if len(msg.Photo) > 0 {
		// Sizes arrive smallest first; take the largest rendition.
		u.PhotoRef = msg.Photo[len(msg.Photo)-1].FileID
	}

	return u, true
}
