package pending

import (
	"sync"
	"time"

	"udhaar-bot/internal/extract"

	"github.com/shopspring/decimal"
)

// Source records where a staged batch came from.
type Source string

const (
	SourcePhoto Source = "PHOTO"
	SourceVoice Source = "VOICE"
)

// Item is one transaction candidate awaiting confirmation.
type Item struct {
	Name    string
	Amount  decimal.Decimal
	Intent  extract.Intent
	Phone   string
	DueDate *time.Time
}

// Signed applies the intent sign convention to the item's amount.
func (i Item) Signed() decimal.Decimal {
	if i.Intent == extract.IntentDebit {
		return i.Amount.Neg()
	}
	return i.Amount
}

// Batch is an unconfirmed set of candidates for one chat.
type Batch struct {
	Items     []Item
	Source    Source
	CreatedAt time.Time
}

// Store holds at most one staged batch per chat. Staging overwrites any
// unconfirmed prior batch (last-write-wins, no queue). Expiry is a stored
// deadline checked lazily on read — there is no background sweeper.
type Store struct {
	mu      sync.Mutex
	batches map[int64]Batch
	ttl     time.Duration
	now     func() time.Time
}

// NewStore creates a store whose batches expire ttl after staging.
// A zero ttl disables expiry.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		batches: make(map[int64]Batch),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Stage replaces whatever batch the chat had with a new one.
func (s *Store) Stage(chatID int64, items []Item, source Source) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]Item, len(items))
	copy(copied, items)

	s.batches[chatID] = Batch{
		Items:     copied,
		Source:    source,
		CreatedAt: s.now(),
	}
}

// Take atomically fetches and clears the chat's batch, so a concurrent
// confirm cannot double-apply it. The second return is false when nothing
// (unexpired) is staged.
func (s *Store) Take(chatID int64) (Batch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch, ok := s.live(chatID)
	if !ok {
		return Batch{}, false
	}

	delete(s.batches, chatID)
	return batch, true
}

// Cancel discards the chat's batch. Cancelling twice, or cancelling
// nothing, is a no-op reported through the return value.
func (s *Store) Cancel(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.live(chatID)
	delete(s.batches, chatID)
	return ok
}

// live returns the chat's batch if present and unexpired, dropping it
// when the deadline has passed. Callers must hold the lock.
func (s *Store) live(chatID int64) (Batch, bool) {
	batch, ok := s.batches[chatID]
	if !ok {
		return Batch{}, false
	}

	if s.ttl > 0 && s.now().After(batch.CreatedAt.Add(s.ttl)) {
		delete(s.batches, chatID)
		return Batch{}, false
	}

	return batch, true
}
