package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	email string
	code  string
}

func (c *captureSender) SendCode(_ context.Context, email, code string) error {
	c.email = email
	c.code = code
	return nil
}

func newTestStore(sender CodeSender) (*Store, *time.Time) {
	s := NewStore(sender, time.Minute, time.Minute)
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestIssueAndVerify(t *testing.T) {
	sender := &captureSender{}
	s, _ := newTestStore(sender)

	require.NoError(t, s.Issue(context.Background(), 1, "user@example.com"))
	assert.Equal(t, "user@example.com", sender.email)
	require.Len(t, sender.code, 4)

	assert.False(t, s.LoggedIn(1))
	require.NoError(t, s.Verify(1, sender.code))
	assert.True(t, s.LoggedIn(1))
}

func TestVerifyWrongCode(t *testing.T) {
	sender := &captureSender{}
	s, _ := newTestStore(sender)

	require.NoError(t, s.Issue(context.Background(), 1, "user@example.com"))

	assert.ErrorIs(t, s.Verify(1, "0000"), ErrBadOTP)
	assert.False(t, s.LoggedIn(1))

	// Wrong guesses do not burn the code.
	assert.NoError(t, s.Verify(1, sender.code))
}

func TestVerifyWithoutIssue(t *testing.T) {
	s, _ := newTestStore(&captureSender{})

	assert.ErrorIs(t, s.Verify(1, "1234"), ErrNoOTP)
}

func TestOTPExpires(t *testing.T) {
	sender := &captureSender{}
	s, now := newTestStore(sender)

	require.NoError(t, s.Issue(context.Background(), 1, "user@example.com"))

	*now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, s.Verify(1, sender.code), ErrOTPExpired)

	// Expiry consumes the challenge entirely.
	assert.ErrorIs(t, s.Verify(1, sender.code), ErrNoOTP)
}

func TestSessionExpires(t *testing.T) {
	sender := &captureSender{}
	s, now := newTestStore(sender)

	require.NoError(t, s.Issue(context.Background(), 1, "user@example.com"))
	require.NoError(t, s.Verify(1, sender.code))
	assert.True(t, s.LoggedIn(1))

	*now = now.Add(2 * time.Minute)
	assert.False(t, s.LoggedIn(1))
}

func TestReissueOverwrites(t *testing.T) {
	sender := &captureSender{}
	s, _ := newTestStore(sender)

	require.NoError(t, s.Issue(context.Background(), 1, "user@example.com"))
	first := sender.code

	require.NoError(t, s.Issue(context.Background(), 1, "user@example.com"))
	second := sender.code

	if first != second {
		assert.ErrorIs(t, s.Verify(1, first), ErrBadOTP)
	}
	assert.NoError(t, s.Verify(1, second))
}

func TestGenerateOTPRange(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := generateOTP()
		require.NoError(t, err)
		require.Len(t, code, 4)
		assert.GreaterOrEqual(t, code, "1000")
	}
}
