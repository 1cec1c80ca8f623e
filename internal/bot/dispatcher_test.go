package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collectingSender struct {
	mu      sync.Mutex
	replies []Reply
	done    chan struct{}
	expect  int
}

func newCollectingSender(expect int) *collectingSender {
	return &collectingSender{done: make(chan struct{}), expect: expect}
}

func (c *collectingSender) Send(_ context.Context, _ int64, reply Reply) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, reply)
	if len(c.replies) == c.expect {
		close(c.done)
	}
	return nil
}

func (c *collectingSender) wait(t *testing.T) []Reply {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for replies")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Reply(nil), c.replies...)
}

func TestDispatcherProcessesInOrder(t *testing.T) {
	f := newFixture(nil)
	sender := newCollectingSender(2)
	d := NewDispatcher(f.router, sender, 16, 4, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	require.True(t, d.Enqueue(Update{ChatID: 1, Text: "Ramesh 500rs"}))
	require.True(t, d.Enqueue(Update{ChatID: 1, Text: "Paid Ramesh 200"}))

	replies := sender.wait(t)
	require.Len(t, replies, 2)
	// FIFO per chat: the credit lands before the payment, so the payment
	// reply reports the net balance.
	assert.Contains(t, replies[0].Text, "RAMESH owes you ₹500")
	assert.Contains(t, replies[1].Text, "RAMESH owes you ₹300")

	balance, err := f.engine.Balance(context.Background(), 1, "Ramesh")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(300).Equal(balance.Amount))
}

func TestDispatcherIndependentChats(t *testing.T) {
	f := newFixture(nil)
	sender := newCollectingSender(2)
	d := NewDispatcher(f.router, sender, 16, 4, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	require.True(t, d.Enqueue(Update{ChatID: 1, Text: "Ramesh 500rs"}))
	require.True(t, d.Enqueue(Update{ChatID: 2, Text: "Anita 900rs"}))

	sender.wait(t)

	one, err := f.engine.Balance(context.Background(), 1, "Ramesh")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(500).Equal(one.Amount))

	two, err := f.engine.Balance(context.Background(), 2, "Anita")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(900).Equal(two.Amount))
}

func TestDispatcherDropsWhenIntakeFull(t *testing.T) {
	f := newFixture(nil)
	// Never started, so the single-slot intake fills immediately.
	d := NewDispatcher(f.router, newCollectingSender(0), 1, 1, quietLogger())

	assert.True(t, d.Enqueue(Update{ChatID: 1, Text: "Ramesh 500rs"}))
	assert.False(t, d.Enqueue(Update{ChatID: 1, Text: "Ramesh 300rs"}))
}
