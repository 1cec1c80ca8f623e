package repository

import (
	"context"
	"errors"
	"fmt"

	"udhaar-bot/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BalanceRepository struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewBalanceRepository(db *gorm.DB, log *logrus.Logger) *BalanceRepository {
	return &BalanceRepository{
		db:  db,
		log: log,
	}
}

// Get retrieves the balance for a counterparty, matching the name
// case-insensitively.
func (r *BalanceRepository) Get(ctx context.Context, chatID int64, name string) (*model.DebtBalance, error) {
	var balance model.DebtBalance
	err := r.db.WithContext(ctx).
		Where("chat_id = ? AND LOWER(name) = LOWER(?)", chatID, name).
		First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	return &balance, nil
}

// Save persists a balance row. New rows go through an upsert on the
// (chat_id, name) key so a concurrent first transaction for the same
// counterparty cannot create a duplicate.
func (r *BalanceRepository) Save(ctx context.Context, balance *model.DebtBalance) error {
	if balance.ID == 0 {
		return r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chat_id"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"amount", "phone", "due_date", "updated_at"}),
		}).Create(balance).Error
	}

	return r.db.WithContext(ctx).Model(balance).
		Select("amount", "phone", "due_date").
		Updates(map[string]interface{}{
			"amount":   balance.Amount,
			"phone":    balance.Phone,
			"due_date": balance.DueDate,
		}).Error
}

// Delete removes the balance row entirely (a "clear", not a zeroing).
func (r *BalanceRepository) Delete(ctx context.Context, chatID int64, name string) error {
	res := r.db.WithContext(ctx).
		Where("chat_id = ? AND LOWER(name) = LOWER(?)", chatID, name).
		Delete(&model.DebtBalance{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// ListByChat returns all balances for one chat, ordered by name.
func (r *BalanceRepository) ListByChat(ctx context.Context, chatID int64) ([]model.DebtBalance, error) {
	var balances []model.DebtBalance
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("name ASC").
		Find(&balances).Error

	return balances, err
}

// ListAll pages through every balance row (for the reconciliation sweep).
func (r *BalanceRepository) ListAll(ctx context.Context, limit, offset int) ([]model.DebtBalance, error) {
	var balances []model.DebtBalance
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&balances).Error

	return balances, err
}

// Count returns the total number of balance rows.
func (r *BalanceRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.DebtBalance{}).Count(&count).Error
	return count, err
}
