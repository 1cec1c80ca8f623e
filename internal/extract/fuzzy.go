package extract

import "strings"

const historyWord = "history"

// maxHistoryDistance tolerates up to two typos ("histroy", "hisotry").
const maxHistoryDistance = 2

// MatchesHistory reports whether any token of the message is within edit
// distance 2 of "history", so minor typos still trigger the command.
func MatchesHistory(text string) bool {
	for _, tok := range tokenize(strings.ToLower(text)) {
		if levenshtein(tok, historyWord) <= maxHistoryDistance {
			return true
		}
	}
	return false
}

// levenshtein is the full unit-cost edit distance (insert, delete,
// substitute) between two strings, computed over a rolling pair of rows.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // delete
				curr[j-1]+1,    // insert
				prev[j-1]+cost, // substitute
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
