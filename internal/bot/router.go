package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"udhaar-bot/internal/emoji"
	"udhaar-bot/internal/events"
	"udhaar-bot/internal/extract"
	"udhaar-bot/internal/ledger"
	"udhaar-bot/internal/model"
	"udhaar-bot/internal/notify"
	"udhaar-bot/internal/pending"
	"udhaar-bot/internal/repository"
	"udhaar-bot/internal/session"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const sideEffectTimeout = 10 * time.Second

// Notifier pushes balance-change notices to counterparties.
type Notifier interface {
	Notify(ctx context.Context, phone, actor string, delta, balance decimal.Decimal, action notify.Action)
}

// Deps wires the router to the engine, stores and collaborators. The
// model-backed collaborators (Translator, Transcriber, Vision, Roaster)
// and Events may be nil; the router degrades the matching feature and
// keeps going.
type Deps struct {
	Ledger    *ledger.Engine
	Pending   *pending.Store
	Sessions  Sessions
	Users     Directory
	Extractor *extract.Extractor
	Notifier  Notifier
	Media     MediaFetcher

	Translator  Translator
	Transcriber Transcriber
	Vision      VisionExtractor
	Roaster     Roaster
	Events      EventPublisher

	Log *logrus.Logger
}

// Router turns one inbound update into replies. It holds no per-chat
// state of its own; ordering guarantees come from the dispatcher.
type Router struct {
	deps Deps
	log  *logrus.Logger
}

func NewRouter(deps Deps) *Router {
	return &Router{deps: deps, log: deps.Log}
}

// Handle processes a single update to completion and returns the replies
// to send. Transport acknowledgment has already happened by the time this
// runs, so errors here surface only as best-effort replies.
func (r *Router) Handle(ctx context.Context, u Update) []Reply {
	if u.ChatID == 0 {
		return nil
	}

	if u.SenderPhone != "" || u.SenderName != "" {
		if err := r.deps.Users.Upsert(ctx, u.ChatID, u.SenderPhone, u.SenderName); err != nil {
			r.log.WithError(err).WithField("chat_id", u.ChatID).Warn("user upsert failed")
		}
	}

	switch {
	case u.Callback != "":
		return r.handleCallback(ctx, u)
	case u.PhotoRef != "":
		return r.handlePhoto(ctx, u)
	case u.VoiceRef != "":
		return r.handleVoice(ctx, u)
	case strings.TrimSpace(u.Text) != "":
		return r.handleText(ctx, u, u.Text)
	default:
		return nil
	}
}

func (r *Router) handleCallback(ctx context.Context, u Update) []Reply {
	switch strings.ToLower(u.Callback) {
	case "confirm":
		return r.confirmPending(ctx, u)
	case "cancel":
		return r.cancelPending(u.ChatID)
	default:
		return nil
	}
}

func (r *Router) handleText(ctx context.Context, u Update, raw string) []Reply {
	text := raw
	if r.deps.Translator != nil {
		text = r.deps.Translator.Translate(ctx, raw)
	}

	lower := strings.ToLower(strings.TrimSpace(text))
	fields := strings.Fields(lower)
	if len(fields) == 0 {
		return nil
	}

	switch {
	case lower == "help" || lower == "/help" || lower == "/start" || lower == "hi" || lower == "hello":
		return []Reply{{Text: helpText}}
	case extract.MatchesHistory(lower):
		return r.showHistory(ctx, u.ChatID)
	case lower == "summary":
		return r.showSummary(ctx, u.ChatID)
	case lower == "roast":
		return r.roast(ctx, u.ChatID)
	case lower == "confirm":
		return r.confirmPending(ctx, u)
	case lower == "cancel":
		return r.cancelPending(u.ChatID)
	case fields[0] == "clear":
		return r.clearBalance(ctx, u, strings.Join(strings.Fields(text)[1:], " "))
	case fields[0] == "delete":
		return r.deleteEntry(ctx, u.ChatID, fields[1:])
	case fields[0] == "login":
		return r.login(ctx, u.ChatID, fields[1:])
	case fields[0] == "verify":
		return r.verify(u.ChatID, fields[1:])
	default:
		return r.recordTransaction(ctx, u, text)
	}
}

// recordTransaction runs the extraction pipeline over free text and, when
// the candidate is actionable, applies it to the ledger.
func (r *Router) recordTransaction(ctx context.Context, u Update, text string) []Reply {
	cand := r.deps.Extractor.Parse(text)
	if !cand.Actionable() {
		return []Reply{unrecognizedReply()}
	}

	signed := cand.Signed()
	balance, err := r.deps.Ledger.Apply(ctx, u.ChatID, cand.Name, signed, cand.DueDate, cand.Phone)
	if err != nil {
		r.log.WithError(err).WithField("chat_id", u.ChatID).Error("apply failed")
		return []Reply{errorReply("Something went wrong recording that. Please try again.")}
	}

	action := notify.ActionAdd
	if cand.Intent == extract.IntentDebit {
		action = notify.ActionPayment
	}
	r.afterApply(u.SenderName, balance, signed, action)

	if cand.Intent == extract.IntentDebit {
		return []Reply{{Text: fmt.Sprintf("%s Payment of %s recorded for %s. Now %s.",
			emoji.Pick(emoji.Payment), money(signed), balance.Name, balanceLine(balance.Name, balance.Amount))}}
	}

	return []Reply{{Text: fmt.Sprintf("%s Noted. %s.%s",
		emoji.Pick(emoji.DebtAdded), balanceLine(balance.Name, balance.Amount), dueDatePhrase(cand.DueDate))}}
}

func (r *Router) showHistory(ctx context.Context, chatID int64) []Reply {
	entries, err := r.deps.Ledger.History(ctx, chatID)
	if err != nil {
		r.log.WithError(err).WithField("chat_id", chatID).Error("history lookup failed")
		return []Reply{errorReply("Couldn't fetch your history right now.")}
	}

	if len(entries) == 0 {
		return []Reply{{Text: "📒 No entries yet. Tell me about an IOU to get started."}}
	}

	var b strings.Builder
	b.WriteString("📒 History:\n")
	for i, entry := range entries {
		b.WriteString(historyLine(i+1, entry) + "\n")
	}
	b.WriteString("\nSend \"delete <n>\" to undo an entry.")

	return []Reply{{Text: b.String()}}
}

func (r *Router) showSummary(ctx context.Context, chatID int64) []Reply {
	balances, err := r.deps.Ledger.Balances(ctx, chatID)
	if err != nil {
		r.log.WithError(err).WithField("chat_id", chatID).Error("summary lookup failed")
		return []Reply{errorReply("Couldn't fetch your balances right now.")}
	}

	if len(balances) == 0 {
		return []Reply{{Text: "✨ No open balances. You're all square."}}
	}

	net := decimal.Zero
	var b strings.Builder
	b.WriteString("📊 Summary:\n")
	for _, bal := range balances {
		b.WriteString("• " + balanceLine(bal.Name, bal.Amount))
		if bal.DueDate != nil {
			b.WriteString(" (due " + bal.DueDate.Format("2 Jan 2006") + ")")
		}
		b.WriteString("\n")
		net = net.Add(bal.Amount)
	}
	b.WriteString("\nNet: " + balanceLine("the world", net))

	return []Reply{{Text: b.String()}}
}

func (r *Router) roast(ctx context.Context, chatID int64) []Reply {
	balances, err := r.deps.Ledger.Balances(ctx, chatID)
	if err != nil || len(balances) == 0 {
		return []Reply{{Text: emoji.Pick(emoji.Roast) + " Nothing on the books. Can't roast an empty ledger."}}
	}

	var lines []string
	for _, bal := range balances {
		lines = append(lines, balanceLine(bal.Name, bal.Amount))
	}

	if r.deps.Roaster == nil {
		return []Reply{{Text: emoji.Pick(emoji.Roast) + " I tried to come up with a joke but failed. Just like your financial planning."}}
	}

	quip, err := r.deps.Roaster.Roast(ctx, strings.Join(lines, "\n"))
	if err != nil {
		r.log.WithError(err).Warn("roast failed")
		return []Reply{{Text: emoji.Pick(emoji.Roast) + " I tried to come up with a joke but failed. Just like your financial planning."}}
	}

	return []Reply{{Text: emoji.Pick(emoji.Roast) + " " + quip}}
}

func (r *Router) clearBalance(ctx context.Context, u Update, name string) []Reply {
	if strings.TrimSpace(name) == "" {
		return []Reply{errorReply("Who should I clear? Send \"clear <name>\".")}
	}

	// Grab the phone before the row disappears so the counterparty can
	// still be told.
	var phone string
	if bal, err := r.deps.Ledger.Balance(ctx, u.ChatID, name); err == nil {
		phone = bal.Phone
	}

	err := r.deps.Ledger.Clear(ctx, u.ChatID, name)
	if errors.Is(err, repository.ErrNotFound) {
		return []Reply{errorReply(fmt.Sprintf("No open balance for %s.", ledger.NormalizeName(name)))}
	}
	if err != nil {
		r.log.WithError(err).WithField("chat_id", u.ChatID).Error("clear failed")
		return []Reply{errorReply("Couldn't clear that balance. Please try again.")}
	}

	normalized := ledger.NormalizeName(name)
	r.afterClear(u.SenderName, u.ChatID, normalized, phone)

	return []Reply{{Text: fmt.Sprintf("%s Cleared %s. Their slate is clean.", emoji.Pick(emoji.Cleared), normalized)}}
}

func (r *Router) deleteEntry(ctx context.Context, chatID int64, args []string) []Reply {
	entries, err := r.deps.Ledger.History(ctx, chatID)
	if err != nil {
		r.log.WithError(err).WithField("chat_id", chatID).Error("history lookup failed")
		return []Reply{errorReply("Couldn't fetch your history right now.")}
	}
	if len(entries) == 0 {
		return []Reply{errorReply("Nothing to delete — your history is empty.")}
	}

	n := len(entries)
	if len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil || parsed < 1 || parsed > len(entries) {
			return []Reply{errorReply(fmt.Sprintf("Send \"delete <n>\" with n between 1 and %d (see \"history\").", len(entries)))}
		}
		n = parsed
	}

	entry := entries[n-1]
	balance, err := r.deps.Ledger.DeleteEntry(ctx, chatID, entry.ID)
	if errors.Is(err, ledger.ErrClearedEntry) {
		return []Reply{errorReply("That entry is a clear marker; it can't be undone.")}
	}
	if err != nil {
		r.log.WithError(err).WithField("entry_id", entry.ID).Error("delete entry failed")
		return []Reply{errorReply("Couldn't undo that entry. Please try again.")}
	}

	return []Reply{{Text: fmt.Sprintf("↩️ Undid entry %d (%s %s). Now %s.",
		n, entry.Name, money(entry.Amount), balanceLine(balance.Name, balance.Amount))}}
}

func (r *Router) login(ctx context.Context, chatID int64, args []string) []Reply {
	if len(args) == 0 || !strings.Contains(args[0], "@") {
		return []Reply{errorReply("Send \"login <email>\" to get an OTP.")}
	}

	if err := r.deps.Sessions.Issue(ctx, chatID, args[0]); err != nil {
		r.log.WithError(err).WithField("chat_id", chatID).Error("OTP issue failed")
		return []Reply{errorReply("Couldn't send an OTP right now. Please try again.")}
	}

	return []Reply{{Text: fmt.Sprintf("✅ OTP sent to %s. Enter it as: verify <otp>", args[0])}}
}

func (r *Router) verify(chatID int64, args []string) []Reply {
	if len(args) == 0 {
		return []Reply{errorReply("Send \"verify <otp>\" with the code you received.")}
	}

	err := r.deps.Sessions.Verify(chatID, args[0])
	switch {
	case err == nil:
		return []Reply{{Text: "🎉 OTP verified. You are now logged in."}}
	case errors.Is(err, session.ErrNoOTP):
		return []Reply{errorReply("No OTP request found. Send: login <email>")}
	case errors.Is(err, session.ErrOTPExpired):
		return []Reply{errorReply("⌛ OTP expired. Request a new one with: login <email>")}
	case errors.Is(err, session.ErrBadOTP):
		return []Reply{errorReply("Incorrect OTP. Please try again.")}
	default:
		r.log.WithError(err).WithField("chat_id", chatID).Error("OTP verify failed")
		return []Reply{errorReply("Couldn't verify that code. Please try again.")}
	}
}

func (r *Router) handlePhoto(ctx context.Context, u Update) []Reply {
	if r.deps.Vision == nil || r.deps.Media == nil {
		return []Reply{errorReply("I can't read ledger photos right now.")}
	}

	data, mimeType, err := r.deps.Media.Fetch(ctx, u.PhotoRef)
	if err != nil {
		r.log.WithError(err).WithField("chat_id", u.ChatID).Warn("photo fetch failed")
		return []Reply{errorReply("Couldn't download that photo. Please resend it.")}
	}

	items, err := r.deps.Vision.DebtsFromImage(ctx, data, mimeType)
	if err != nil || len(items) == 0 {
		if err != nil {
			r.log.WithError(err).WithField("chat_id", u.ChatID).Warn("vision extraction failed")
		}
		return []Reply{errorReply("Couldn't read any debts off that photo.")}
	}

	staged := make([]pending.Item, 0, len(items))
	lines := make([]string, 0, len(items))
	for _, item := range items {
		amount := decimal.NewFromFloat(item.Amount)
		name := ledger.NormalizeName(item.Name)
		staged = append(staged, pending.Item{Name: name, Amount: amount, Intent: extract.IntentCredit})
		lines = append(lines, fmt.Sprintf("• %s — %s", name, money(amount)))
	}

	r.deps.Pending.Stage(u.ChatID, staged, pending.SourcePhoto)

	return []Reply{{Text: stagedBatchText(lines), Buttons: confirmButtons}}
}

func (r *Router) handleVoice(ctx context.Context, u Update) []Reply {
	if r.deps.Transcriber == nil || r.deps.Media == nil {
		return []Reply{errorReply("I can't listen to voice notes right now.")}
	}

	data, mimeType, err := r.deps.Media.Fetch(ctx, u.VoiceRef)
	if err != nil {
		r.log.WithError(err).WithField("chat_id", u.ChatID).Warn("voice fetch failed")
		return []Reply{errorReply("Couldn't download that voice note. Please resend it.")}
	}

	text, err := r.deps.Transcriber.Transcribe(ctx, data, mimeType)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			r.log.WithError(err).WithField("chat_id", u.ChatID).Warn("transcription failed")
		}
		return []Reply{errorReply("Couldn't make out that voice note. Please try typing it.")}
	}

	if r.deps.Translator != nil {
		text = r.deps.Translator.Translate(ctx, text)
	}

	// Commands spoken aloud run directly; a transcribed transaction is
	// staged for confirmation instead of applied, since transcription is
	// the noisiest input path.
	cand := r.deps.Extractor.Parse(text)
	if !cand.Actionable() {
		return r.handleText(ctx, u, text)
	}

	item := pending.Item{
		Name:    cand.Name,
		Amount:  cand.Amount.Abs(),
		Intent:  cand.Intent,
		Phone:   cand.Phone,
		DueDate: cand.DueDate,
	}
	r.deps.Pending.Stage(u.ChatID, []pending.Item{item}, pending.SourceVoice)

	verb := "owes you"
	if cand.Intent == extract.IntentDebit {
		verb = "paid you"
	}
	text = fmt.Sprintf("🎙 I heard: %s %s %s.\n\nReply \"confirm\" to record it or \"cancel\" to discard.",
		cand.Name, verb, money(*cand.Amount))

	return []Reply{{Text: text, Buttons: confirmButtons}}
}

func (r *Router) confirmPending(ctx context.Context, u Update) []Reply {
	batch, ok := r.deps.Pending.Take(u.ChatID)
	if !ok {
		return []Reply{{Text: "🤷 Nothing pending to confirm."}}
	}

	var b strings.Builder
	applied := 0
	for _, item := range batch.Items {
		if item.Name == "" {
			continue
		}

		balance, err := r.deps.Ledger.Apply(ctx, u.ChatID, item.Name, item.Signed(), item.DueDate, item.Phone)
		if err != nil {
			r.log.WithError(err).WithField("name", item.Name).Error("apply from batch failed")
			fmt.Fprintf(&b, "⚠️ %s: failed, skipped\n", item.Name)
			continue
		}

		applied++
		fmt.Fprintf(&b, "• %s\n", balanceLine(balance.Name, balance.Amount))

		action := notify.ActionAdd
		if item.Intent == extract.IntentDebit {
			action = notify.ActionPayment
		}
		r.afterApply(u.SenderName, balance, item.Signed(), action)
	}

	if applied == 0 {
		return []Reply{errorReply("None of the staged entries could be recorded.")}
	}

	return []Reply{{Text: fmt.Sprintf("✅ Recorded %d entr%s:\n%s", applied, plural(applied, "y", "ies"), b.String())}}
}

func (r *Router) cancelPending(chatID int64) []Reply {
	if r.deps.Pending.Cancel(chatID) {
		return []Reply{{Text: "🗑 Discarded the staged entries."}}
	}
	return []Reply{{Text: "🤷 Nothing to cancel."}}
}

// afterApply dispatches the counterparty notice and the ledger event.
// Both are fire-and-forget: failures are logged and never reach the user
// whose transaction already committed.
func (r *Router) afterApply(actor string, balance model.DebtBalance, delta decimal.Decimal, action notify.Action) {
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()

	if r.deps.Notifier != nil {
		r.deps.Notifier.Notify(ctx, balance.Phone, actor, delta, balance.Amount, action)
	}

	if r.deps.Events != nil {
		event := events.NewLedgerEvent(balance.ChatID, balance.Name, delta, balance.Amount, string(action))
		if err := r.deps.Events.Publish(ctx, event); err != nil {
			r.log.WithError(err).Debug("ledger event publish failed")
		}
	}
}

func (r *Router) afterClear(actor string, chatID int64, name, phone string) {
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()

	if r.deps.Notifier != nil {
		r.deps.Notifier.Notify(ctx, phone, actor, decimal.Zero, decimal.Zero, notify.ActionClear)
	}

	if r.deps.Events != nil {
		event := events.NewLedgerEvent(chatID, name, decimal.Zero, decimal.Zero, string(notify.ActionClear))
		if err := r.deps.Events.Publish(ctx, event); err != nil {
			r.log.WithError(err).Debug("ledger event publish failed")
		}
	}
}
