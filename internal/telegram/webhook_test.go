package telegram

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"udhaar-bot/internal/bot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWebhook(t *testing.T) (*Webhook, *[]bot.Update) {
	t.Helper()
	var received []bot.Update
	h := NewWebhook("secret", func(u bot.Update) bool {
		received = append(received, u)
		return true
	}, quietLogger())
	return h, &received
}

func TestVerifyChallenge(t *testing.T) {
	h, _ := newTestWebhook(t)

	req := httptest.NewRequest(http.MethodGet, "/webhook/telegram?hub.mode=subscribe&hub.verify_token=secret&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12345", rec.Body.String())
}

func TestVerifyWrongToken(t *testing.T) {
	h, _ := newTestWebhook(t)

	req := httptest.NewRequest(http.MethodGet, "/webhook/telegram?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestVerifyMissingParams(t *testing.T) {
	h, _ := newTestWebhook(t)

	req := httptest.NewRequest(http.MethodGet, "/webhook/telegram", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReceiveTextMessage(t *testing.T) {
	h, received := newTestWebhook(t)

	body := `{"update_id":1,"message":{"message_id":10,"chat":{"id":42},"from":{"id":7,"first_name":"Priya"},"text":"Ramesh 500rs"}}`
	req := httptest.NewRequest(http.MethodPost, "/webhook/telegram", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, *received, 1)
	u := (*received)[0]
	assert.Equal(t, int64(42), u.ChatID)
	assert.Equal(t, "Ramesh 500rs", u.Text)
	assert.Equal(t, "Priya", u.SenderName)
}

func TestReceivePhotoTakesLargestRendition(t *testing.T) {
	h, received := newTestWebhook(t)

	body := `{"update_id":2,"message":{"chat":{"id":42},"photo":[{"file_id":"small","width":90,"height":90},{"file_id":"big","width":800,"height":800}]}}`
	req := httptest.NewRequest(http.MethodPost, "/webhook/telegram", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Len(t, *received, 1)
	assert.Equal(t, "big", (*received)[0].PhotoRef)
}

func TestReceiveVoice(t *testing.T) {
	h, received := newTestWebhook(t)

	body := `{"update_id":3,"message":{"chat":{"id":42},"voice":{"file_id":"v1"}}}`
	req := httptest.NewRequest(http.MethodPost, "/webhook/telegram", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Len(t, *received, 1)
	assert.Equal(t, "v1", (*received)[0].VoiceRef)
}

func TestReceiveCallback(t *testing.T) {
	h, received := newTestWebhook(t)

	body := `{"update_id":4,"callback_query":{"id":"cb1","from":{"first_name":"Priya"},"message":{"chat":{"id":42}},"data":"confirm"}}`
	req := httptest.NewRequest(http.MethodPost, "/webhook/telegram", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Len(t, *received, 1)
	assert.Equal(t, "confirm", (*received)[0].Callback)
	assert.Equal(t, int64(42), (*received)[0].ChatID)
}

func TestReceiveContactPhone(t *testing.T) {
	h, received := newTestWebhook(t)

	body := `{"update_id":5,"message":{"chat":{"id":42},"contact":{"phone_number":"+919876543210","first_name":"Priya"}}}`
	req := httptest.NewRequest(http.MethodPost, "/webhook/telegram", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Len(t, *received, 1)
	assert.Equal(t, "+919876543210", (*received)[0].SenderPhone)
}

func TestReceiveMalformedBodyStillAcks(t *testing.T) {
	h, received := newTestWebhook(t)

	req := httptest.NewRequest(http.MethodPost, "/webhook/telegram", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, *received)
}

func TestMethodNotAllowed(t *testing.T) {
	h, _ := newTestWebhook(t)

	req := httptest.NewRequest(http.MethodDelete, "/webhook/telegram", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
