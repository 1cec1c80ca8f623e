package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// History entry actions. CLEARED markers carry a zero amount and only
// record that the balance row was deleted at that point in time.
const (
	ActionAdd     = "ADD"
	ActionPayment = "PAYMENT"
	ActionCleared = "CLEARED"
)

// HistoryEntry is the append-only audit log of every applied transaction.
// Amount is signed: positive means the counterparty owes more, negative is
// a payment. Rows are immutable except for explicit undo, which first logs
// a compensating entry.
type HistoryEntry struct {
	ID        uint            `gorm:"primarykey" json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	ChatID    int64           `gorm:"index:idx_history_chat;not null" json:"chat_id"`
	Name      string          `gorm:"size:255;not null" json:"name"`
	Amount    decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"amount"`
	Action    string          `gorm:"size:16;not null;default:ADD" json:"action"`
	Phone     string          `gorm:"size:10" json:"phone"`
	DueDate   *time.Time      `json:"due_date"`
}

// TableName specifies the table name
func (HistoryEntry) TableName() string {
	return "history"
}

// DebtBalance is the single mutable row per (chat, counterparty). Name is
// stored upper-cased so the (chat_id, name) key is case-insensitive by
// construction. Positive amount means the counterparty owes the user.
type DebtBalance struct {
	ID        uint            `gorm:"primarykey" json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	ChatID    int64           `gorm:"uniqueIndex:idx_chat_name;not null" json:"chat_id"`
	Name      string          `gorm:"uniqueIndex:idx_chat_name;size:255;not null" json:"name"`
	Amount    decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"amount"`
	Phone     string          `gorm:"size:10" json:"phone"`
	DueDate   *time.Time      `json:"due_date"`
}

// TableName specifies the table name
func (DebtBalance) TableName() string {
	return "debt_balances"
}

// User links a chat to a phone number for notification routing. Rows are
// upserted opportunistically from inbound message metadata and never gate
// any functionality on their own.
type User struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	ChatID      int64     `gorm:"uniqueIndex:idx_users_chat;not null" json:"chat_id"`
	Phone       string    `gorm:"index:idx_users_phone;size:10" json:"phone"`
	DisplayName string    `gorm:"size:255" json:"display_name"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}
