package push

import (
	"log/slog"

	"golang.org/x/sync/errgroup"

	"chatwire/internal/presence"
	"chatwire/pkg/domain"
)

// Dispatcher routes live events to connected users. It only reads the
// presence registry and pushes; the durable store stays the source of truth,
// so every push here is best-effort and failures are swallowed.
type Dispatcher struct {
	registry *presence.Registry
}

// NewDispatcher wires the dispatcher to a presence registry.
func NewDispatcher(registry *presence.Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// DeliverNewMessage pushes the message to its receiver when connected.
// An offline receiver picks the message up on the next history fetch.
func (d *Dispatcher) DeliverNewMessage(msg domain.Message) {
	conn, ok := d.registry.Lookup(msg.ReceiverID)
	if !ok {
		return
	}
	if err := conn.Send(EventNewMessage, msg); err != nil {
		slog.Debug("drop new-message push", "receiver", msg.ReceiverID, "err", err)
	}
}

// DeliverReactionUpdate pushes the updated reaction list to both
// participants of the message, whichever of them is connected.
func (d *Dispatcher) DeliverReactionUpdate(update domain.ReactionUpdate, senderID, receiverID string) {
	for _, userID := range []string{senderID, receiverID} {
		conn, ok := d.registry.Lookup(userID)
		if !ok {
			continue
		}
		if err := conn.Send(EventMessageReaction, update); err != nil {
			slog.Debug("drop reaction push", "user", userID, "err", err)
		}
	}
}

// BroadcastPresence sends the current online user set to every live
// connection. Called after each register and unregister.
func (d *Dispatcher) BroadcastPresence() {
	online := d.registry.Online()
	var g errgroup.Group
	for _, conn := range d.registry.Conns() {
		g.Go(func() error {
			if err := conn.Send(EventOnlineUsers, online); err != nil {
				slog.Debug("drop presence push", "err", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}
