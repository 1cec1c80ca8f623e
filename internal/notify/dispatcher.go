package notify

import (
	"context"
	"fmt"

	"udhaar-bot/internal/emoji"
	"udhaar-bot/internal/model"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Action tags what kind of balance change a notice describes.
type Action string

const (
	ActionAdd     Action = "ADD"
	ActionPayment Action = "PAYMENT"
	ActionClear   Action = "CLEAR"
)

// Directory resolves a counterparty phone to their linked chat.
type Directory interface {
	FindByPhone(ctx context.Context, phone string) (*model.User, error)
}

// Sender pushes a plain text message to a chat.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// Dispatcher pushes balance-change notices to counterparties who have a
// registered chat. It is fire-and-forget relative to the ledger write:
// unresolved phones and delivery failures never reach the caller.
type Dispatcher struct {
	users  Directory
	sender Sender
	log    *logrus.Logger
}

func NewDispatcher(users Directory, sender Sender, log *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		users:  users,
		sender: sender,
		log:    log,
	}
}

// Notify sends an action-specific notice to the counterparty behind the
// phone number. Most counterparties have no registered chat, so an
// unresolved phone is a silent no-op, not an error.
func (d *Dispatcher) Notify(ctx context.Context, phone, actor string, delta, balance decimal.Decimal, action Action) {
	if phone == "" {
		return
	}

	user, err := d.users.FindByPhone(ctx, phone)
	if err != nil {
		d.log.WithField("phone", phone).Debug("no linked chat for counterparty, skipping notice")
		return
	}

	if err := d.sender.SendText(ctx, user.ChatID, d.message(actor, delta, balance, action)); err != nil {
		d.log.WithError(err).WithField("chat_id", user.ChatID).Warn("failed to deliver balance notice")
	}
}

func (d *Dispatcher) message(actor string, delta, balance decimal.Decimal, action Action) string {
	if actor == "" {
		actor = "Someone"
	}

	switch action {
	case ActionPayment:
		return fmt.Sprintf("%s %s recorded your payment of ₹%s. Outstanding with them: ₹%s.",
			emoji.Pick(emoji.Payment), actor, delta.Abs().String(), balance.String())
	case ActionClear:
		return fmt.Sprintf("%s %s cleared your slate. Nothing outstanding.",
			emoji.Pick(emoji.Cleared), actor)
	default:
		return fmt.Sprintf("%s %s noted ₹%s against you. Outstanding with them: ₹%s.",
			emoji.Pick(emoji.DebtAdded), actor, delta.Abs().String(), balance.String())
	}
}
