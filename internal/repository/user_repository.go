package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"udhaar-bot/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type UserRepository struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewUserRepository(db *gorm.DB, log *logrus.Logger) *UserRepository {
	return &UserRepository{
		db:  db,
		log: log,
	}
}

// Upsert records whatever phone/name information an inbound message
// carried. Empty fields never overwrite known values.
func (r *UserRepository) Upsert(ctx context.Context, chatID int64, phone, name string) error {
	if chatID == 0 {
		return nil
	}

	phone = NormalizePhone(phone)

	var user model.User
	err := r.db.WithContext(ctx).Where("chat_id = ?", chatID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = model.User{ChatID: chatID, Phone: phone, DisplayName: name}
		return r.db.WithContext(ctx).Create(&user).Error
	}
	if err != nil {
		return fmt.Errorf("failed to fetch user: %w", err)
	}

	updates := map[string]interface{}{}
	if phone != "" && user.Phone != phone {
		updates["phone"] = phone
	}
	if name != "" && user.DisplayName != name {
		updates["display_name"] = name
	}
	if len(updates) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Model(&user).Updates(updates).Error
}

// FindByPhone resolves a counterparty phone to their linked chat.
func (r *UserRepository) FindByPhone(ctx context.Context, phone string) (*model.User, error) {
	phone = NormalizePhone(phone)
	if phone == "" {
		return nil, ErrNotFound
	}

	var user model.User
	err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by phone: %w", err)
	}

	return &user, nil
}

// NormalizePhone strips non-digits and keeps the last 10 digits, dropping
// any country-code prefix.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	digits := b.String()
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}

	return digits
}
