package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"udhaar-bot/internal/model"
	"udhaar-bot/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ErrClearedEntry is returned when an undo targets a CLEARED marker,
// which has no balance effect to compensate.
var ErrClearedEntry = errors.New("cleared markers cannot be undone")

// BalanceStore is the mutable per-counterparty projection.
type BalanceStore interface {
	Get(ctx context.Context, chatID int64, name string) (*model.DebtBalance, error)
	Save(ctx context.Context, balance *model.DebtBalance) error
	Delete(ctx context.Context, chatID int64, name string) error
	ListByChat(ctx context.Context, chatID int64) ([]model.DebtBalance, error)
	ListAll(ctx context.Context, limit, offset int) ([]model.DebtBalance, error)
	Count(ctx context.Context) (int64, error)
}

// HistoryStore is the append-only audit trail.
type HistoryStore interface {
	Save(ctx context.Context, entry *model.HistoryEntry) error
	Get(ctx context.Context, chatID int64, id uint) (*model.HistoryEntry, error)
	Delete(ctx context.Context, id uint) error
	ListByChat(ctx context.Context, chatID int64) ([]model.HistoryEntry, error)
	LastCleared(ctx context.Context, chatID int64, name string) (*time.Time, error)
	SumSince(ctx context.Context, chatID int64, name string, since *time.Time) (decimal.Decimal, error)
}

// Engine maintains the invariant that a debt balance equals the sum of
// its non-reversed history entries since the last clear. Every update
// adds the delta; every undo subtracts it back; Reconcile recomputes from
// history when the two drift apart.
type Engine struct {
	balances BalanceStore
	history  HistoryStore
	log      *logrus.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(balances BalanceStore, history HistoryStore, log *logrus.Logger) *Engine {
	return &Engine{
		balances: balances,
		history:  history,
		log:      log,
		locks:    make(map[string]*sync.Mutex),
	}
}

// lock serializes read-modify-write cycles per (chat, counterparty) so
// rapid-fire messages for the same person cannot lose an update.
func (e *Engine) lock(chatID int64, name string) func() {
	key := fmt.Sprintf("%d|%s", chatID, strings.ToLower(name))

	e.mu.Lock()
	m, ok := e.locks[key]
	if !ok {
		m = &sync.Mutex{}
		e.locks[key] = m
	}
	e.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// NormalizeName collapses whitespace and upper-cases a counterparty name
// so it can serve as a case-insensitive storage key.
func NormalizeName(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), " "))
}

func actionFor(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return model.ActionPayment
	}
	return model.ActionAdd
}

// Apply merges a signed amount into the counterparty's running balance,
// creating the balance on first contact. Due date and phone are replaced
// only when newly supplied. The history row is written first; if the
// balance write then fails, the computed balance is still returned and
// the failure is left for Reconcile to repair — history is the source of
// truth.
func (e *Engine) Apply(ctx context.Context, chatID int64, name string, amount decimal.Decimal, dueDate *time.Time, phone string) (model.DebtBalance, error) {
	name = NormalizeName(name)
	if name == "" {
		return model.DebtBalance{}, fmt.Errorf("counterparty name is required")
	}

	unlock := e.lock(chatID, name)
	defer unlock()

	entry := &model.HistoryEntry{
		ChatID:  chatID,
		Name:    name,
		Amount:  amount,
		Action:  actionFor(amount),
		Phone:   phone,
		DueDate: dueDate,
	}
	if err := e.history.Save(ctx, entry); err != nil {
		return model.DebtBalance{}, fmt.Errorf("failed to log transaction: %w", err)
	}

	balance, err := e.balances.Get(ctx, chatID, name)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		balance = &model.DebtBalance{
			ChatID:  chatID,
			Name:    name,
			Amount:  amount,
			Phone:   phone,
			DueDate: dueDate,
		}
	case err != nil:
		return model.DebtBalance{}, fmt.Errorf("failed to read balance: %w", err)
	default:
		balance.Amount = balance.Amount.Add(amount)
		if dueDate != nil {
			balance.DueDate = dueDate
		}
		if phone != "" {
			balance.Phone = phone
		}
	}

	if err := e.balances.Save(ctx, balance); err != nil {
		// The transaction is logged but not reflected in the balance.
		// Return the computed value; callers must not assume durability.
		e.log.WithError(err).WithFields(logrus.Fields{
			"chat_id": chatID,
			"name":    name,
		}).Error("balance write failed, returning computed balance")
	}

	return *balance, nil
}

// Clear deletes the balance row entirely and logs a zero-amount CLEARED
// marker. Prior history entries stay — the audit trail is permanent, the
// balance is only a projection.
func (e *Engine) Clear(ctx context.Context, chatID int64, name string) error {
	name = NormalizeName(name)
	if name == "" {
		return fmt.Errorf("counterparty name is required")
	}

	unlock := e.lock(chatID, name)
	defer unlock()

	if err := e.balances.Delete(ctx, chatID, name); err != nil {
		return err
	}

	marker := &model.HistoryEntry{
		ChatID: chatID,
		Name:   name,
		Amount: decimal.Zero,
		Action: model.ActionCleared,
	}
	if err := e.history.Save(ctx, marker); err != nil {
		e.log.WithError(err).WithFields(logrus.Fields{
			"chat_id": chatID,
			"name":    name,
		}).Warn("failed to log cleared marker")
	}

	return nil
}

// DeleteEntry undoes a logged transaction by compensation: a reversing
// entry is applied (and itself logged), then the original row is
// physically removed. The balance effect of the undo therefore survives
// even if the final removal fails.
func (e *Engine) DeleteEntry(ctx context.Context, chatID int64, entryID uint) (model.DebtBalance, error) {
	entry, err := e.history.Get(ctx, chatID, entryID)
	if err != nil {
		return model.DebtBalance{}, err
	}
	if entry.Action == model.ActionCleared {
		return model.DebtBalance{}, ErrClearedEntry
	}

	balance, err := e.Apply(ctx, chatID, entry.Name, entry.Amount.Neg(), nil, "")
	if err != nil {
		return model.DebtBalance{}, fmt.Errorf("failed to compensate entry %d: %w", entryID, err)
	}

	if err := e.history.Delete(ctx, entry.ID); err != nil {
		e.log.WithError(err).WithField("entry_id", entryID).
			Warn("entry compensated but original row could not be removed")
	}

	return balance, nil
}

// Reconcile recomputes the balance from history entries after the last
// clear and repairs the stored row when it has drifted. It returns the
// recomputed amount and whether a repair happened.
func (e *Engine) Reconcile(ctx context.Context, chatID int64, name string) (decimal.Decimal, bool, error) {
	name = NormalizeName(name)

	unlock := e.lock(chatID, name)
	defer unlock()

	since, err := e.history.LastCleared(ctx, chatID, name)
	if err != nil {
		return decimal.Zero, false, err
	}

	computed, err := e.history.SumSince(ctx, chatID, name, since)
	if err != nil {
		return decimal.Zero, false, err
	}

	balance, err := e.balances.Get(ctx, chatID, name)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if computed.IsZero() {
			return computed, false, nil
		}
		balance = &model.DebtBalance{ChatID: chatID, Name: name, Amount: computed}
	case err != nil:
		return decimal.Zero, false, err
	default:
		if balance.Amount.Equal(computed) {
			return computed, false, nil
		}
		balance.Amount = computed
	}

	if err := e.balances.Save(ctx, balance); err != nil {
		return computed, false, fmt.Errorf("failed to repair balance: %w", err)
	}

	e.log.WithFields(logrus.Fields{
		"chat_id":  chatID,
		"name":     name,
		"computed": computed,
	}).Info("balance repaired from history")

	return computed, true, nil
}

// Balance returns the current balance row for one counterparty.
func (e *Engine) Balance(ctx context.Context, chatID int64, name string) (*model.DebtBalance, error) {
	return e.balances.Get(ctx, chatID, NormalizeName(name))
}

// History returns the chat's full audit trail in insertion order.
func (e *Engine) History(ctx context.Context, chatID int64) ([]model.HistoryEntry, error) {
	return e.history.ListByChat(ctx, chatID)
}

// Balances returns every open balance for the chat.
func (e *Engine) Balances(ctx context.Context, chatID int64) ([]model.DebtBalance, error) {
	return e.balances.ListByChat(ctx, chatID)
}
