package services

import (
	"context"
	"testing"

	"ripple/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchPersistsBeforePublishing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	recipient := f.user(t, "recipient")
	sender := f.user(t, "sender")

	n := &models.Notification{
		RecipientID: recipient.ID,
		SenderID:    sender.ID,
		Kind:        models.NotificationFollow,
		Message:     "sender started following you",
	}
	require.NoError(t, f.disp.Dispatch(ctx, n))
	assert.NotZero(t, n.ID)

	ev := f.pub.waitFor(t, "newNotification")
	assert.Equal(t, recipient.ID, ev.RecipientID)
	payload, ok := ev.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, n.ID, payload["id"])
	assert.Equal(t, models.NotificationFollow, payload["kind"])
}

func TestDispatchSurvivesDeliveryFailure(t *testing.T) {
	f := newFixture()
	f.pub.fail = true
	ctx := context.Background()

	recipient := f.user(t, "recipient")
	sender := f.user(t, "sender")

	n := &models.Notification{
		RecipientID: recipient.ID,
		SenderID:    sender.ID,
		Kind:        models.NotificationUpvote,
		Message:     "sender upvoted your post",
	}
	// The publish goroutine fails; Dispatch must not.
	require.NoError(t, f.disp.Dispatch(ctx, n))
	f.pub.waitFor(t, "newNotification")

	notes := f.notifications(t, recipient.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, "sender upvoted your post", notes[0].Message)
	assert.False(t, notes[0].IsRead)
}
