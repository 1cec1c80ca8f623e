package session

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	ErrNoOTP      = errors.New("no OTP request found")
	ErrOTPExpired = errors.New("OTP expired")
	ErrBadOTP     = errors.New("incorrect OTP")
)

// CodeSender delivers a one-time code out of band (email in production).
type CodeSender interface {
	SendCode(ctx context.Context, email, code string) error
}

// LogSender is the default CodeSender: it only logs the code. Useful for
// local runs where no mail transport is configured.
type LogSender struct {
	Log *logrus.Logger
}

func (s LogSender) SendCode(_ context.Context, email, code string) error {
	s.Log.WithFields(logrus.Fields{"email": email, "otp": code}).Info("OTP issued")
	return nil
}

type otpRecord struct {
	code    string
	email   string
	expires time.Time
}

// Store keeps OTP challenges and short-lived login sessions in process
// memory. Deadlines are stored and checked lazily on read; nothing sweeps
// in the background. State does not survive a restart.
type Store struct {
	mu       sync.Mutex
	otps     map[int64]otpRecord
	sessions map[int64]time.Time

	sender     CodeSender
	otpTTL     time.Duration
	sessionTTL time.Duration
	now        func() time.Time
}

func NewStore(sender CodeSender, otpTTL, sessionTTL time.Duration) *Store {
	return &Store{
		otps:       make(map[int64]otpRecord),
		sessions:   make(map[int64]time.Time),
		sender:     sender,
		otpTTL:     otpTTL,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// Issue generates a 4-digit OTP for the chat and sends it to the email.
// A new request overwrites any outstanding one.
func (s *Store) Issue(ctx context.Context, chatID int64, email string) error {
	code, err := generateOTP()
	if err != nil {
		return fmt.Errorf("failed to generate OTP: %w", err)
	}

	s.mu.Lock()
	s.otps[chatID] = otpRecord{
		code:    code,
		email:   email,
		expires: s.now().Add(s.otpTTL),
	}
	s.mu.Unlock()

	if err := s.sender.SendCode(ctx, email, code); err != nil {
		return fmt.Errorf("failed to send OTP: %w", err)
	}

	return nil
}

// Verify checks the submitted code and, on success, opens a session.
func (s *Store) Verify(chatID int64, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.otps[chatID]
	if !ok {
		return ErrNoOTP
	}

	if s.now().After(record.expires) {
		delete(s.otps, chatID)
		return ErrOTPExpired
	}

	if record.code != code {
		return ErrBadOTP
	}

	delete(s.otps, chatID)
	s.sessions[chatID] = s.now().Add(s.sessionTTL)
	return nil
}

// LoggedIn reports whether the chat has a live session, dropping it when
// the deadline has passed.
func (s *Store) LoggedIn(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expires, ok := s.sessions[chatID]
	if !ok {
		return false
	}

	if s.now().After(expires) {
		delete(s.sessions, chatID)
		return false
	}

	return true
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()+1000), nil
}
