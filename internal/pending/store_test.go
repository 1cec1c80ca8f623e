package pending

import (
	"testing"
	"time"

	"udhaar-bot/internal/extract"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func items(names ...string) []Item {
	out := make([]Item, 0, len(names))
	for _, n := range names {
		out = append(out, Item{Name: n, Amount: decimal.NewFromInt(100), Intent: extract.IntentCredit})
	}
	return out
}

func TestStageAndTake(t *testing.T) {
	s := NewStore(0)

	s.Stage(1, items("RAMESH", "SURESH"), SourcePhoto)

	batch, ok := s.Take(1)
	require.True(t, ok)
	assert.Equal(t, SourcePhoto, batch.Source)
	require.Len(t, batch.Items, 2)
	assert.Equal(t, "RAMESH", batch.Items[0].Name)

	// Take clears: a second confirm finds nothing.
	_, ok = s.Take(1)
	assert.False(t, ok)
}

func TestStageOverwrites(t *testing.T) {
	s := NewStore(0)

	s.Stage(1, items("RAMESH"), SourcePhoto)
	s.Stage(1, items("ANITA"), SourceVoice)

	batch, ok := s.Take(1)
	require.True(t, ok)
	require.Len(t, batch.Items, 1)
	assert.Equal(t, "ANITA", batch.Items[0].Name)
	assert.Equal(t, SourceVoice, batch.Source)
}

func TestStageCopiesItems(t *testing.T) {
	s := NewStore(0)

	staged := items("RAMESH")
	s.Stage(1, staged, SourcePhoto)
	staged[0].Name = "MUTATED"

	batch, ok := s.Take(1)
	require.True(t, ok)
	assert.Equal(t, "RAMESH", batch.Items[0].Name)
}

func TestCancel(t *testing.T) {
	s := NewStore(0)

	s.Stage(1, items("RAMESH"), SourcePhoto)

	assert.True(t, s.Cancel(1))
	assert.False(t, s.Cancel(1))
	assert.False(t, s.Cancel(99))

	_, ok := s.Take(1)
	assert.False(t, ok)
}

func TestChatsIndependent(t *testing.T) {
	s := NewStore(0)

	s.Stage(1, items("RAMESH"), SourcePhoto)
	s.Stage(2, items("ANITA"), SourceVoice)

	require.True(t, s.Cancel(1))

	batch, ok := s.Take(2)
	require.True(t, ok)
	assert.Equal(t, "ANITA", batch.Items[0].Name)
}

func TestExpiry(t *testing.T) {
	s := NewStore(10 * time.Minute)
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Stage(1, items("RAMESH"), SourcePhoto)

	now = now.Add(9 * time.Minute)
	_, ok := s.Take(1)
	assert.True(t, ok, "batch should survive inside the TTL")

	s.Stage(1, items("RAMESH"), SourcePhoto)
	now = now.Add(11 * time.Minute)
	_, ok = s.Take(1)
	assert.False(t, ok, "batch should expire past the TTL")
}

func TestItemSigned(t *testing.T) {
	credit := Item{Amount: decimal.NewFromInt(300), Intent: extract.IntentCredit}
	assert.True(t, decimal.NewFromInt(300).Equal(credit.Signed()))

	debit := Item{Amount: decimal.NewFromInt(300), Intent: extract.IntentDebit}
	assert.True(t, decimal.NewFromInt(-300).Equal(debit.Signed()))
}
