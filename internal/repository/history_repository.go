package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"udhaar-bot/internal/model"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type HistoryRepository struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewHistoryRepository(db *gorm.DB, log *logrus.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:  db,
		log: log,
	}
}

// Save appends a history entry.
func (r *HistoryRepository) Save(ctx context.Context, entry *model.HistoryEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// Get fetches one entry, scoped to the owning chat.
func (r *HistoryRepository) Get(ctx context.Context, chatID int64, id uint) (*model.HistoryEntry, error) {
	var entry model.HistoryEntry
	err := r.db.WithContext(ctx).
		Where("chat_id = ? AND id = ?", chatID, id).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history entry: %w", err)
	}

	return &entry, nil
}

// Delete physically removes an entry. Compensation is the engine's job;
// this only drops the row.
func (r *HistoryRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.HistoryEntry{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete history entry: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// ListByChat returns the full audit trail for a chat in insertion order.
func (r *HistoryRepository) ListByChat(ctx context.Context, chatID int64) ([]model.HistoryEntry, error) {
	var entries []model.HistoryEntry
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error

	return entries, err
}

// LastCleared returns when the counterparty's balance was last cleared,
// or nil if it never was.
func (r *HistoryRepository) LastCleared(ctx context.Context, chatID int64, name string) (*time.Time, error) {
	var entry model.HistoryEntry
	err := r.db.WithContext(ctx).
		Where("chat_id = ? AND LOWER(name) = LOWER(?) AND action = ?", chatID, name, model.ActionCleared).
		Order("created_at DESC, id DESC").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find cleared marker: %w", err)
	}

	return &entry.CreatedAt, nil
}

// SumSince totals the signed amounts for a counterparty after the given
// point in time (nil means the whole history). This is the recomputation
// side of the reconciliation invariant.
func (r *HistoryRepository) SumSince(ctx context.Context, chatID int64, name string, since *time.Time) (decimal.Decimal, error) {
	query := r.db.WithContext(ctx).Model(&model.HistoryEntry{}).
		Where("chat_id = ? AND LOWER(name) = LOWER(?) AND action <> ?", chatID, name, model.ActionCleared)
	if since != nil {
		query = query.Where("created_at > ?", *since)
	}

	var sum decimal.Decimal
	err := query.Select("COALESCE(SUM(amount), 0)").Scan(&sum).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum history: %w", err)
	}

	return sum, nil
}
