package services

import (
	"context"
	"fmt"
	"log"

	"ripple/internal/models"
	"ripple/internal/store"
)

// FollowGraph maintains the symmetric follower/following relation between
// user pairs. Edge mutations are idempotent set operations; duplicate
// follow/unfollow requests are no-op successes, not errors.
type FollowGraph struct {
	store      store.Store
	dispatcher *Dispatcher
}

func NewFollowGraph(st store.Store, d *Dispatcher) *FollowGraph {
	return &FollowGraph{store: st, dispatcher: d}
}

// Follow adds target to the actor's following set and the actor to the
// target's followers set. Self-follow is rejected before any state changes.
func (g *FollowGraph) Follow(ctx context.Context, actor *models.User, targetID uint) error {
	if actor.ID == targetID {
		return fmt.Errorf("cannot follow yourself: %w", store.ErrInvalidOperation)
	}
	if _, err := g.store.GetUser(ctx, targetID); err != nil {
		return err
	}

	changed, err := g.store.AddFollow(ctx, actor.ID, targetID)
	if err != nil {
		return err
	}
	if !changed {
		// Already following.
		return nil
	}

	err = g.dispatcher.Dispatch(ctx, &models.Notification{
		RecipientID: targetID,
		SenderID:    actor.ID,
		Kind:        models.NotificationFollow,
		Message:     fmt.Sprintf("%s started following you", actor.Username),
	})
	if err != nil {
		log.Printf("follow notification for user %d: %v", targetID, err)
	}
	return nil
}

// Unfollow removes the edge. Unfollowing someone the actor does not follow
// is a no-op success.
func (g *FollowGraph) Unfollow(ctx context.Context, actor *models.User, targetID uint) error {
	if actor.ID == targetID {
		return fmt.Errorf("cannot unfollow yourself: %w", store.ErrInvalidOperation)
	}
	if _, err := g.store.GetUser(ctx, targetID); err != nil {
		return err
	}

	changed, err := g.store.RemoveFollow(ctx, actor.ID, targetID)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	err = g.dispatcher.Dispatch(ctx, &models.Notification{
		RecipientID: targetID,
		SenderID:    actor.ID,
		Kind:        models.NotificationUnfollow,
		Message:     fmt.Sprintf("%s unfollowed you", actor.Username),
	})
	if err != nil {
		log.Printf("unfollow notification for user %d: %v", targetID, err)
	}
	return nil
}

// Followers returns the users following userID. Set membership only; no
// ordering guarantee.
func (g *FollowGraph) Followers(ctx context.Context, userID uint) ([]models.UserRef, error) {
	return g.store.ListFollowers(ctx, userID)
}

// Following returns the users userID follows.
func (g *FollowGraph) Following(ctx context.Context, userID uint) ([]models.UserRef, error) {
	return g.store.ListFollowing(ctx, userID)
}
