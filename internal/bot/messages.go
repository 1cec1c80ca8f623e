package bot

import (
	"fmt"
	"strings"
	"time"

	"udhaar-bot/internal/emoji"
	"udhaar-bot/internal/model"

	"github.com/shopspring/decimal"
)

const helpText = `👋 I keep track of informal IOUs for you.

Just tell me what happened:
  • "Ramesh 500rs for lunch" — Ramesh owes you 500
  • "paid Ramesh 200" — Ramesh paid you back 200
  • send a voice note, or a photo of a handwritten ledger

Commands:
  history — every recorded entry
  summary — who owes what right now
  clear <name> — wipe someone's balance
  delete <n> — undo entry n from history
  confirm / cancel — act on a staged batch
  roast — let me judge your finances
  login <email>, verify <otp> — link your account`

func money(d decimal.Decimal) string {
	return "₹" + d.Abs().String()
}

// balanceLine phrases a balance from the user's point of view: positive
// means the counterparty owes them.
func balanceLine(name string, amount decimal.Decimal) string {
	switch {
	case amount.IsPositive():
		return fmt.Sprintf("%s owes you %s", name, money(amount))
	case amount.IsNegative():
		return fmt.Sprintf("you owe %s %s", name, money(amount))
	default:
		return fmt.Sprintf("%s is settled up", name)
	}
}

func historyLine(i int, entry model.HistoryEntry) string {
	when := entry.CreatedAt.Format("2 Jan 2006")
	switch entry.Action {
	case model.ActionCleared:
		return fmt.Sprintf("%d. 🧹 %s cleared on %s", i, entry.Name, when)
	case model.ActionPayment:
		return fmt.Sprintf("%d. ➖ %s %s on %s", i, entry.Name, money(entry.Amount), when)
	default:
		line := fmt.Sprintf("%d. ➕ %s %s on %s", i, entry.Name, money(entry.Amount), when)
		if entry.DueDate != nil {
			line += ", due " + entry.DueDate.Format("2 Jan 2006")
		}
		return line
	}
}

func stagedBatchText(names []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s I found %d entr%s:\n", emoji.Pick(emoji.Default), len(names), plural(len(names), "y", "ies"))
	for _, line := range names {
		b.WriteString(line + "\n")
	}
	b.WriteString("\nReply \"confirm\" to record them or \"cancel\" to discard.")
	return b.String()
}

func dueDatePhrase(d *time.Time) string {
	if d == nil {
		return ""
	}
	return " Due " + d.Format("2 Jan 2006") + "."
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func unrecognizedReply() Reply {
	return Reply{Text: fmt.Sprintf(
		"%s I couldn't find a name and an amount in that.\nTry \"Ramesh 500rs\" or \"paid Ramesh 200\", or send \"help\".",
		emoji.Pick(emoji.Error))}
}

func errorReply(text string) Reply {
	return Reply{Text: emoji.Pick(emoji.Error) + " " + text}
}

var confirmButtons = []Button{
	{Label: "✅ Confirm", Data: "confirm"},
	{Label: "❌ Cancel", Data: "cancel"},
}
