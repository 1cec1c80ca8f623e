package dateparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRelativePhrase(t *testing.T) {
	p := New()
	ref := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	got := p.Parse("Ramesh 500rs in 3 days", ref)
	require.NotNil(t, got)
	assert.Equal(t, ref.AddDate(0, 0, 3).Day(), got.Day())
}

func TestParseTomorrow(t *testing.T) {
	p := New()
	ref := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	got := p.Parse("pay me back tomorrow", ref)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Day())
	assert.Equal(t, time.September, got.Month())
}

func TestParseNoDate(t *testing.T) {
	p := New()

	assert.Nil(t, p.Parse("Ramesh 500rs", time.Now()))
	assert.Nil(t, p.Parse("", time.Now()))
}
