package extract

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string // "" means no amount
	}{
		{"number before currency", "Ramesh 500rs for lunch", "500"},
		{"number before rupees", "gave 250 rupees to Suresh", "250"},
		{"currency before number", "rs 500 to Ramesh", "500"},
		{"rupee sign before number", "₹1200 Anita", "1200"},
		{"decimal amount", "Ramesh 99.50rs", "99.5"},
		{"bare number fallback", "Ramesh 500", "500"},
		{"phone shape skipped", "9876543210 owes 300rs in 3 days", "300"},
		{"bare phone yields nothing", "call me at 9876543210", ""},
		{"duration number skipped", "see you in 3 days", ""},
		{"duration skipped then amount", "in 2 weeks Ramesh 700", "700"},
		{"no number at all", "Ramesh owes me money", ""},
		{"empty text", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Amount(tt.text)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			want, err := decimal.NewFromString(tt.want)
			require.NoError(t, err)
			assert.True(t, want.Equal(*got), "got %s, want %s", got, want)
		})
	}
}

func TestPhone(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"bare number", "Ramesh 9876543210 500rs", "9876543210"},
		{"with country code", "+91 9876543210", "9876543210"},
		{"country code no space", "919876543210", "9876543210"},
		{"invalid leading digit", "1234567890", ""},
		{"part of longer run", "order 98765432101234", ""},
		{"none", "Ramesh 500rs", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Phone(tt.text))
		})
	}
}

func TestName(t *testing.T) {
	e := &Extractor{}

	tests := []struct {
		name string
		text string
		want string
	}{
		{"capitalized name", "Ramesh 500rs for lunch", "RAMESH"},
		{"keyword stripped from sequence", "Paid Ramesh 200", "RAMESH"},
		{"two-word name", "Ramesh Kumar 500rs", "RAMESH KUMAR"},
		{"lowercase fallback", "ramesh 500", "RAMESH"},
		{"command words never a name", "clear paid history", ""},
		{"date words excluded", "tomorrow ramesh 500", "RAMESH"},
		{"empty", "", ""},
		{"only numbers", "500 9876543210", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Name(tt.text))
		})
	}
}

type stubDetector struct{ names []string }

func (s stubDetector) ProperNames(string) []string { return s.names }

func TestNamePrefersDetector(t *testing.T) {
	e := &Extractor{Detector: stubDetector{names: []string{"Anita Desai"}}}

	assert.Equal(t, "ANITA DESAI", e.Name("some text mentioning anita"))
}

func TestNameDetectorBlockedFallsThrough(t *testing.T) {
	// A detector hit that is entirely blocklisted must not mask the
	// heuristic stages.
	e := &Extractor{Detector: stubDetector{names: []string{"Paid"}}}

	assert.Equal(t, "RAMESH", e.Name("Paid Ramesh 200"))
}

func TestIntent(t *testing.T) {
	e := &Extractor{}

	tests := []struct {
		text string
		want Intent
	}{
		{"Ramesh 500rs", IntentCredit},
		{"Paid Ramesh 200", IntentDebit},
		{"received 300 from Suresh", IntentDebit},
		{"settled with Anita", IntentDebit},
		{"got back 150", IntentDebit},
		{"Suresh returned 100", IntentDebit},
		{"gave 500 to Ramesh", IntentDebit},
		{"", IntentCredit},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Intent(tt.text))
		})
	}
}

func TestIntentFallbackDebit(t *testing.T) {
	e := &Extractor{Fallback: IntentDebit}

	assert.Equal(t, IntentDebit, e.Intent("Ramesh 500rs"))
	assert.Equal(t, IntentDebit, e.Intent("paid Ramesh"))
}

type stubDates struct{ at time.Time }

func (s stubDates) Parse(text string, ref time.Time) *time.Time {
	if s.at.IsZero() {
		return nil
	}
	at := s.at
	return &at
}

func TestParseAssemblesCandidate(t *testing.T) {
	due := time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC)
	e := &Extractor{Dates: stubDates{at: due}}

	c := e.Parse("Ramesh 500rs 9876543210 in 3 days")

	assert.Equal(t, "RAMESH", c.Name)
	require.NotNil(t, c.Amount)
	assert.True(t, decimal.NewFromInt(500).Equal(*c.Amount))
	assert.Equal(t, "9876543210", c.Phone)
	require.NotNil(t, c.DueDate)
	assert.True(t, due.Equal(*c.DueDate))
	assert.Equal(t, IntentCredit, c.Intent)
	assert.True(t, c.Actionable())
}

func TestCandidateSigned(t *testing.T) {
	amt := decimal.NewFromInt(200)

	credit := Candidate{Name: "RAMESH", Amount: &amt, Intent: IntentCredit}
	assert.True(t, decimal.NewFromInt(200).Equal(credit.Signed()))

	debit := Candidate{Name: "RAMESH", Amount: &amt, Intent: IntentDebit}
	assert.True(t, decimal.NewFromInt(-200).Equal(debit.Signed()))

	empty := Candidate{Name: "RAMESH"}
	assert.False(t, empty.Actionable())
	assert.True(t, empty.Signed().IsZero())
}

func TestMatchesHistory(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"history", true},
		{"histroy", true},
		{"hisotry", true},
		{"show me my history please", true},
		{"HISTORY", true},
		{"hist", false},
		{"Ramesh 500rs", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesHistory(tt.text))
		})
	}
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, levenshtein("history", "history"))
	assert.Equal(t, 2, levenshtein("histroy", "history"))
	assert.Equal(t, 3, levenshtein("hist", "history"))
	assert.Equal(t, 7, levenshtein("", "history"))
}
