package services

import (
	"context"
	"fmt"
	"log"

	"ripple/internal/models"
	"ripple/internal/store"
)

// VoteLedger keeps idempotent up/down vote state per (post, user) and the
// derived aggregate count. All state lives in the store; the ledger adds the
// validation and the notification fan-out around the atomic transition.
type VoteLedger struct {
	store      store.Store
	dispatcher *Dispatcher
}

func NewVoteLedger(st store.Store, d *Dispatcher) *VoteLedger {
	return &VoteLedger{store: st, dispatcher: d}
}

// CastVote applies one vote transition for the actor on the post. Casting
// the same direction twice retracts the vote; casting the opposite direction
// switches it. A repeated identical cast is expected behavior, never an
// error. value is models.VoteUp or models.VoteDown.
func (l *VoteLedger) CastVote(ctx context.Context, postID uint, actor *models.User, value int) (*store.VoteResult, error) {
	if value != models.VoteUp && value != models.VoteDown {
		return nil, fmt.Errorf("vote value %d: %w", value, store.ErrInvalidOperation)
	}

	result, err := l.store.ApplyVote(ctx, postID, actor.ID, value)
	if err != nil {
		return nil, err
	}

	// A retract (cast back to none) is not an engagement; only a standing
	// vote notifies the author, and never the actor's own posts.
	if result.Current != models.VoteStateNone && result.AuthorID != actor.ID {
		kind := models.NotificationUpvote
		verb := "upvoted"
		if result.Current == models.VoteStateDown {
			kind = models.NotificationDownvote
			verb = "downvoted"
		}
		pid := postID
		err := l.dispatcher.Dispatch(ctx, &models.Notification{
			RecipientID: result.AuthorID,
			SenderID:    actor.ID,
			Kind:        kind,
			Message:     fmt.Sprintf("%s %s your post", actor.Username, verb),
			PostID:      &pid,
		})
		if err != nil {
			// The vote is already applied; a lost notification must not
			// turn a successful cast into a failure.
			log.Printf("vote notification for post %d: %v", postID, err)
		}
	}

	l.dispatcher.PublishAsync(result.AuthorID, "voteUpdate", map[string]any{
		"postId":    postID,
		"voteCount": result.VoteCount,
	})
	return result, nil
}

// GetVote reports the actor's current vote state on the post.
func (l *VoteLedger) GetVote(ctx context.Context, postID, userID uint) (models.VoteState, error) {
	return l.store.GetVote(ctx, postID, userID)
}
