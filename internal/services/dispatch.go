package services

import (
	"context"
	"log"

	"ripple/internal/models"
	"ripple/internal/store"
)

// Publisher is the real-time channel the dispatcher pushes to. It is injected
// at construction so tests can substitute it and so no component reaches for
// a process-global handle.
type Publisher interface {
	Publish(recipientID uint, event string, payload any) error
}

// Dispatcher turns engagement events into durable notification records and
// best-effort real-time pushes. Persistence must succeed; delivery may not.
type Dispatcher struct {
	store store.Store
	pub   Publisher
}

func NewDispatcher(st store.Store, pub Publisher) *Dispatcher {
	return &Dispatcher{store: st, pub: pub}
}

// Dispatch persists the notification and then publishes it without waiting
// for the delivery outcome. A delivery failure is logged and swallowed: the
// persisted record remains the source of truth for later retrieval.
func (d *Dispatcher) Dispatch(ctx context.Context, n *models.Notification) error {
	if err := d.store.CreateNotification(ctx, n); err != nil {
		return err
	}

	payload := map[string]any{
		"id":        n.ID,
		"kind":      n.Kind,
		"sender":    n.SenderID,
		"message":   n.Message,
		"createdAt": n.CreatedAt,
	}
	if n.PostID != nil {
		payload["subjectPost"] = *n.PostID
	}
	if n.CommentID != nil {
		payload["subjectComment"] = *n.CommentID
	}
	d.PublishAsync(n.RecipientID, "newNotification", payload)
	return nil
}

// PublishAsync fires one event at the recipient and returns immediately.
// Used directly for ephemeral events (voteUpdate, likesUpdate) that have no
// durable record.
func (d *Dispatcher) PublishAsync(recipientID uint, event string, payload any) {
	go func() {
		if err := d.pub.Publish(recipientID, event, payload); err != nil {
			log.Printf("dispatch %s to user %d: %v", event, recipientID, err)
		}
	}()
}
