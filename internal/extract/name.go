package extract

import (
	"strings"
	"unicode"
)

// blockedWords are command and domain keywords that must never be
// mistaken for a counterparty name, even when nothing else qualifies.
var blockedWords = map[string]bool{
	"history": true,
	"login":   true,
	"clear":   true,
	"paid":    true,
	"verify":  true,
	"summary": true,
	"help":    true,
	"delete":  true,
	"pay":     true,
	"amount":  true,
	"rupees":  true,
	"rs":      true,
}

// dateWords are calendar and duration vocabulary excluded from the
// plain-word name fallback.
var dateWords = map[string]bool{
	"today": true, "tomorrow": true, "yesterday": true,
	"next": true, "last": true, "in": true,
	"day": true, "days": true, "week": true, "weeks": true,
	"month": true, "months": true, "year": true, "years": true,
	"hr": true, "hrs": true, "min": true, "mins": true,
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
	"january": true, "february": true, "march": true, "april": true,
	"may": true, "june": true, "july": true, "august": true,
	"september": true, "october": true, "november": true, "december": true,
	"jan": true, "feb": true, "mar": true, "apr": true, "jun": true,
	"jul": true, "aug": true, "sep": true, "oct": true, "nov": true, "dec": true,
}

// Name attempts, in order: the pluggable proper-name detector, a scan for
// consecutive capitalized words, then the first plain non-date non-numeric
// word. Every stage's candidates are filtered against the keyword
// blocklist, and the survivor is upper-cased for storage-key use. Returns
// "" when no stage yields anything usable.
func (e *Extractor) Name(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	stages := make([]func(string) []string, 0, 3)
	if e.Detector != nil {
		stages = append(stages, e.Detector.ProperNames)
	}
	stages = append(stages, capitalizedSequences, plainWordCandidates)

	for _, stage := range stages {
		for _, candidate := range stage(text) {
			if cleaned := dropBlockedWords(candidate); cleaned != "" {
				return strings.ToUpper(cleaned)
			}
		}
	}

	return ""
}

// capitalizedSequences groups consecutive alphabetic tokens that start
// with an upper-case letter, e.g. "Paid Ramesh Kumar 200" yields
// ["Paid Ramesh Kumar"].
func capitalizedSequences(text string) []string {
	tokens := tokenize(text)

	var seqs []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			seqs = append(seqs, strings.Join(current, " "))
			current = nil
		}
	}

	for _, tok := range tokens {
		if isAlphabetic(tok) && startsUpper(tok) {
			current = append(current, tok)
			continue
		}
		flush()
	}
	flush()

	return seqs
}

// plainWordCandidates returns each alphabetic token that is neither a
// number nor calendar vocabulary, in order of appearance.
func plainWordCandidates(text string) []string {
	var words []string
	for _, tok := range tokenize(text) {
		if !isAlphabetic(tok) {
			continue
		}
		if dateWords[strings.ToLower(tok)] {
			continue
		}
		words = append(words, tok)
	}

	return words
}

// dropBlockedWords removes blocklisted and calendar words from a
// candidate phrase. An empty result means the candidate is unusable.
func dropBlockedWords(candidate string) string {
	var kept []string
	for _, word := range strings.Fields(candidate) {
		lower := strings.ToLower(word)
		if blockedWords[lower] || dateWords[lower] {
			continue
		}
		kept = append(kept, word)
	}

	return strings.Join(kept, " ")
}

func isAlphabetic(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return len(s) > 0
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}
