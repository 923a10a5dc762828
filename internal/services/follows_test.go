package services

import (
	"context"
	"testing"

	"ripple/internal/models"
	"ripple/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowNotifiesTarget(t *testing.T) {
	f := newFixture()
	graph := NewFollowGraph(f.store, f.disp)
	ctx := context.Background()

	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	require.NoError(t, graph.Follow(ctx, alice, bob.ID))

	notes := f.notifications(t, bob.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationFollow, notes[0].Kind)
	assert.Equal(t, "alice started following you", notes[0].Message)

	// Repeat follow is a no-op success and stays silent.
	require.NoError(t, graph.Follow(ctx, alice, bob.ID))
	assert.Len(t, f.notifications(t, bob.ID), 1)

	gotBob, err := f.store.GetUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, gotBob.FollowersCount)
}

func TestMutualFollow(t *testing.T) {
	f := newFixture()
	graph := NewFollowGraph(f.store, f.disp)
	ctx := context.Background()

	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	require.NoError(t, graph.Follow(ctx, alice, bob.ID))
	require.NoError(t, graph.Follow(ctx, bob, alice.ID))

	aliceFollowers, err := graph.Followers(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, aliceFollowers, 1)
	assert.Equal(t, bob.ID, aliceFollowers[0].ID)

	aliceFollowing, err := graph.Following(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, aliceFollowing, 1)
	assert.Equal(t, bob.ID, aliceFollowing[0].ID)
}

func TestUnfollowNotifiesOnce(t *testing.T) {
	f := newFixture()
	graph := NewFollowGraph(f.store, f.disp)
	ctx := context.Background()

	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	require.NoError(t, graph.Follow(ctx, alice, bob.ID))
	require.NoError(t, graph.Unfollow(ctx, alice, bob.ID))

	notes := f.notifications(t, bob.ID)
	require.Len(t, notes, 2)
	assert.Equal(t, models.NotificationUnfollow, notes[0].Kind)

	// Unfollowing someone not followed changes nothing.
	require.NoError(t, graph.Unfollow(ctx, alice, bob.ID))
	assert.Len(t, f.notifications(t, bob.ID), 2)
}

func TestSelfFollowRejected(t *testing.T) {
	f := newFixture()
	graph := NewFollowGraph(f.store, f.disp)
	ctx := context.Background()

	alice := f.user(t, "alice")

	err := graph.Follow(ctx, alice, alice.ID)
	assert.ErrorIs(t, err, store.ErrInvalidOperation)
	err = graph.Unfollow(ctx, alice, alice.ID)
	assert.ErrorIs(t, err, store.ErrInvalidOperation)

	got, err := f.store.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.FollowersCount)
	assert.Equal(t, 0, got.FollowingCount)
}

func TestFollowMissingTarget(t *testing.T) {
	f := newFixture()
	graph := NewFollowGraph(f.store, f.disp)

	alice := f.user(t, "alice")
	err := graph.Follow(context.Background(), alice, 99)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
