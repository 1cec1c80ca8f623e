package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// number immediately before a currency token: "500rs", "500 rupees", "500₹"
	amountBeforeCurrency = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(?:rs\.?|rupees|₹)`)
	// currency token immediately before a number: "rs 500", "₹500"
	amountAfterCurrency = regexp.MustCompile(`(?i)(?:\brs\.?|\brupees|₹)\s*(\d+(?:\.\d+)?)\b`)

	numericToken = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
)

// durationWords mark a preceding number as a time span, not money.
var durationWords = map[string]bool{
	"day": true, "days": true,
	"week": true, "weeks": true,
	"month": true, "months": true,
	"year": true, "years": true,
	"hr": true, "hrs": true,
	"min": true, "mins": true,
}

// Amount extracts the transaction amount. Tier 1 takes a number adjacent
// to an explicit currency marker on either side. Only when that fails does
// tier 2 scan for a bare number, skipping phone-shaped 10-digit tokens and
// numbers immediately followed by a duration word — an unconstrained scan
// would happily report a phone number or a day-count as the amount.
func Amount(text string) *decimal.Decimal {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if m := amountBeforeCurrency.FindStringSubmatch(text); m != nil {
		return parseAmount(m[1])
	}
	if m := amountAfterCurrency.FindStringSubmatch(text); m != nil {
		return parseAmount(m[1])
	}

	tokens := tokenize(text)
	for i, tok := range tokens {
		if !numericToken.MatchString(tok) {
			continue
		}
		if isPhoneShaped(tok) {
			continue
		}
		if i+1 < len(tokens) && durationWords[strings.ToLower(tokens[i+1])] {
			continue
		}
		return parseAmount(tok)
	}

	return nil
}

// isPhoneShaped matches the Indian mobile shape: exactly 10 digits with a
// leading 6-9.
func isPhoneShaped(tok string) bool {
	if len(tok) != 10 {
		return false
	}
	if tok[0] < '6' || tok[0] > '9' {
		return false
	}
	for i := 1; i < len(tok); i++ {
		if tok[i] < '0' || tok[i] > '9' {
			return false
		}
	}
	return true
}

func parseAmount(s string) *decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}
