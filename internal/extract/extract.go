package extract

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Intent classifies a message as either adding to what the counterparty
// owes (CREDIT) or recording a payment that reduces it (DEBIT).
type Intent string

const (
	IntentCredit Intent = "CREDIT"
	IntentDebit  Intent = "DEBIT"
)

// Candidate is the structured transaction a message was reduced to.
// Fields other than Name and Amount are optional enrichments.
type Candidate struct {
	Name    string
	Amount  *decimal.Decimal
	Phone   string
	DueDate *time.Time
	Intent  Intent
}

// Actionable reports whether the candidate carries enough information to
// hit the ledger. Name and amount are required; nothing else is.
func (c Candidate) Actionable() bool {
	return c.Name != "" && c.Amount != nil
}

// Signed returns the amount with the intent's sign convention applied:
// payments are negative, everything else positive.
func (c Candidate) Signed() decimal.Decimal {
	if c.Amount == nil {
		return decimal.Zero
	}
	if c.Intent == IntentDebit {
		return c.Amount.Neg()
	}
	return *c.Amount
}

// NameDetector is the capability of spotting proper names in free text.
// Plug in a smarter linguistic detector here; the extractor falls back to
// its own heuristics when none is set or nothing is found.
type NameDetector interface {
	ProperNames(text string) []string
}

// DateParser resolves a natural-language date phrase ("in 3 days",
// "next friday") against a reference time, or returns nil.
type DateParser interface {
	Parse(text string, ref time.Time) *time.Time
}

// Extractor turns free-form text into transaction candidates. All methods
// are pure over their input and tolerate empty text.
type Extractor struct {
	Detector NameDetector
	Dates    DateParser
	// Fallback is the intent assumed when no debit keyword matches.
	Fallback Intent
	// Now overrides the clock for date resolution in tests.
	Now func() time.Time
}

// Parse runs every extractor over the text and assembles one candidate.
// It has no side effects; persistence happens downstream.
func (e *Extractor) Parse(text string) Candidate {
	return Candidate{
		Name:    e.Name(text),
		Amount:  Amount(text),
		Phone:   Phone(text),
		DueDate: e.DueDate(text),
		Intent:  e.Intent(text),
	}
}

// DueDate delegates to the configured date-phrase parser.
func (e *Extractor) DueDate(text string) *time.Time {
	if e.Dates == nil || strings.TrimSpace(text) == "" {
		return nil
	}

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}

	return e.Dates.Parse(text, now())
}

// Intent applies keyword-driven binary classification: any debit-signal
// keyword makes the message a payment, otherwise the fallback intent
// (CREDIT unless configured otherwise) applies.
func (e *Extractor) Intent(text string) Intent {
	lower := strings.ToLower(text)
	for _, kw := range debitKeywords {
		if strings.Contains(lower, kw) {
			return IntentDebit
		}
	}

	if e.Fallback == IntentDebit {
		return IntentDebit
	}
	return IntentCredit
}

// debitKeywords signal a balance-reducing payment. First match wins;
// CREDIT is the default when none appears.
var debitKeywords = []string{"paid", "received", "settled", "got back", "returned", "gave"}

// tokenize splits on whitespace and strips leading/trailing punctuation
// from each token, dropping tokens that end up empty.
func tokenize(text string) []string {
	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		t := strings.Trim(f, ".,!?;:()[]{}\"'")
		if t != "" {
			tokens = append(tokens, t)
		}
	}

	return tokens
}
