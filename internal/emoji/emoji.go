// Package emoji keeps the reply decorations in one place so message
// builders can stay plain.
package emoji

import "math/rand"

type Kind string

const (
	DebtAdded Kind = "DEBT_ADDED"
	Payment   Kind = "PAYMENT"
	Cleared   Kind = "CLEARED"
	Roast     Kind = "ROAST"
	Error     Kind = "ERROR"
	Default   Kind = "DEFAULT"
)

var pools = map[Kind][]string{
	DebtAdded: {"💸", "📉", "📝", "😬", "👀", "💳", "🧂"},
	Payment:   {"🤑", "💰", "🚀", "🎉", "🥂", "🍾", "😎"},
	Cleared:   {"🕊️", "✨", "🧼", "✅", "🎊", "🧘"},
	Roast:     {"🔥", "🌶️", "🥵", "🍗", "🚒"},
	Error:     {"⚠️", "❌", "🥴", "😵", "🐛"},
	Default:   {"🤖", "👋", "👾"},
}

// Pick returns a random emoji for the given context, falling back to the
// default pool for unknown kinds.
func Pick(kind Kind) string {
	pool, ok := pools[kind]
	if !ok {
		pool = pools[Default]
	}
	return pool[rand.Intn(len(pool))]
}
