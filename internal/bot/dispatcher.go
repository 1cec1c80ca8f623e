package bot

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const sendTimeout = 15 * time.Second

// Dispatcher decouples webhook acknowledgment from processing. Enqueue
// returns immediately; a per-chat worker then drains that chat's updates
// strictly in order, so a message is processed to completion (including
// all collaborator calls) before the chat's next one starts. Different
// chats proceed independently.
type Dispatcher struct {
	router *Router
	sender Sender
	log    *logrus.Logger

	intake     chan Update
	perChatBuf int

	mu    sync.Mutex
	chats map[int64]chan Update
	wg    sync.WaitGroup
}

func NewDispatcher(router *Router, sender Sender, queueSize, perChatBuf int, log *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		router:     router,
		sender:     sender,
		log:        log,
		intake:     make(chan Update, queueSize),
		perChatBuf: perChatBuf,
		chats:      make(map[int64]chan Update),
	}
}

// Enqueue hands an update to the dispatcher without blocking. A full
// intake queue drops the update — the transport was already acked, and
// backing up into the webhook handler would trigger retry storms.
func (d *Dispatcher) Enqueue(u Update) bool {
	select {
	case d.intake <- u:
		return true
	default:
		d.log.WithField("chat_id", u.ChatID).Warn("intake queue full, dropping update")
		return false
	}
}

// Run routes intake updates to per-chat workers until the context ends.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.log.Info("stopping dispatcher")
			d.wg.Wait()
			return
		case u := <-d.intake:
			d.route(ctx, u)
		}
	}
}

func (d *Dispatcher) route(ctx context.Context, u Update) {
	d.mu.Lock()
	ch, ok := d.chats[u.ChatID]
	if !ok {
		ch = make(chan Update, d.perChatBuf)
		d.chats[u.ChatID] = ch
		d.wg.Add(1)
		go d.worker(ctx, u.ChatID, ch)
	}
	d.mu.Unlock()

	select {
	case ch <- u:
	default:
		d.log.WithField("chat_id", u.ChatID).Warn("chat queue full, dropping update")
	}
}

func (d *Dispatcher) worker(ctx context.Context, chatID int64, ch <-chan Update) {
	defer d.wg.Done()

	d.log.WithField("chat_id", chatID).Debug("chat worker started")

	for {
		select {
		case <-ctx.Done():
			return
		case u := <-ch:
			d.process(ctx, u)
		}
	}
}

// process runs one update through the router and delivers its replies.
// Panics are contained here: the transport was acked long ago and one
// bad message must not take the worker down.
func (d *Dispatcher) process(ctx context.Context, u Update) {
	defer func() {
		if rec := recover(); rec != nil {
			d.log.WithFields(logrus.Fields{
				"chat_id": u.ChatID,
				"panic":   rec,
			}).Error("recovered from handler panic")
		}
	}()

	replies := d.router.Handle(ctx, u)

	for _, reply := range replies {
		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		if err := d.sender.Send(sendCtx, u.ChatID, reply); err != nil {
			d.log.WithError(err).WithField("chat_id", u.ChatID).Warn("failed to send reply")
		}
		cancel()
	}
}
