package services

import (
	"context"
	"testing"

	"ripple/internal/models"
	"ripple/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddCommentNotifiesPostAuthor(t *testing.T) {
	f := newFixture()
	comments := NewComments(f.store, f.disp)
	ctx := context.Background()

	author := f.user(t, "author")
	commenter := f.user(t, "commenter")
	post := f.post(t, author, "one")

	c, err := comments.Add(ctx, commenter, post.ID, "  nice post  ", nil)
	require.NoError(t, err)
	assert.Equal(t, "nice post", c.Content)

	notes := f.notifications(t, author.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationComment, notes[0].Kind)
	require.NotNil(t, notes[0].CommentID)
	assert.Equal(t, c.ID, *notes[0].CommentID)

	// Commenting on your own post stays silent.
	_, err = comments.Add(ctx, author, post.ID, "thanks", nil)
	require.NoError(t, err)
	assert.Len(t, f.notifications(t, author.ID), 1)
}

func TestReplyNotifiesParentAuthorAndFlattens(t *testing.T) {
	f := newFixture()
	comments := NewComments(f.store, f.disp)
	ctx := context.Background()

	author := f.user(t, "author")
	commenter := f.user(t, "commenter")
	replier := f.user(t, "replier")
	post := f.post(t, author, "one")

	top, err := comments.Add(ctx, commenter, post.ID, "top", nil)
	require.NoError(t, err)

	reply, err := comments.Reply(ctx, replier, top.ID, "first reply")
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, top.ID, *reply.ParentID)

	notes := f.notifications(t, commenter.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationReply, notes[0].Kind)
	assert.Equal(t, "replier replied to your comment", notes[0].Message)

	// Replying to a reply attaches to the top-level comment but notifies
	// the reply's author.
	nested, err := comments.Reply(ctx, author, reply.ID, "second reply")
	require.NoError(t, err)
	require.NotNil(t, nested.ParentID)
	assert.Equal(t, top.ID, *nested.ParentID)

	replierNotes := f.notifications(t, replier.ID)
	require.Len(t, replierNotes, 1)
	assert.Equal(t, models.NotificationReply, replierNotes[0].Kind)

	thread, err := comments.List(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, thread, 1)
	assert.Len(t, thread[0].Replies, 2)
}

func TestAddCommentValidation(t *testing.T) {
	f := newFixture()
	comments := NewComments(f.store, f.disp)
	ctx := context.Background()

	author := f.user(t, "author")
	post := f.post(t, author, "one")
	other := f.post(t, author, "two")

	_, err := comments.Add(ctx, author, post.ID, "   ", nil)
	assert.ErrorIs(t, err, store.ErrInvalidOperation)

	_, err = comments.Add(ctx, author, 99, "hello", nil)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Parent must belong to the same post.
	parent, err := comments.Add(ctx, author, other.ID, "elsewhere", nil)
	require.NoError(t, err)
	_, err = comments.Add(ctx, author, post.ID, "hello", &parent.ID)
	assert.ErrorIs(t, err, store.ErrInvalidOperation)
}

func TestToggleLikeNotifiesOnLikeOnly(t *testing.T) {
	f := newFixture()
	comments := NewComments(f.store, f.disp)
	ctx := context.Background()

	author := f.user(t, "author")
	liker := f.user(t, "liker")
	post := f.post(t, author, "one")
	c, err := comments.Add(ctx, author, post.ID, "top", nil)
	require.NoError(t, err)

	liked, likes, err := comments.ToggleLike(ctx, liker, c.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, likes)
	require.Len(t, f.notifications(t, author.ID), 1)

	ev := f.pub.waitFor(t, "likesUpdate")
	assert.Equal(t, author.ID, ev.RecipientID)

	// Unlike is silent.
	liked, likes, err = comments.ToggleLike(ctx, liker, c.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 0, likes)
	assert.Len(t, f.notifications(t, author.ID), 1)
}

func TestDeleteCommentAuthorOnly(t *testing.T) {
	f := newFixture()
	comments := NewComments(f.store, f.disp)
	ctx := context.Background()

	author := f.user(t, "author")
	other := f.user(t, "other")
	post := f.post(t, author, "one")
	c, err := comments.Add(ctx, author, post.ID, "mine", nil)
	require.NoError(t, err)

	err = comments.Delete(ctx, other, c.ID)
	assert.ErrorIs(t, err, store.ErrUnauthorized)

	require.NoError(t, comments.Delete(ctx, author, c.ID))
	err = comments.Delete(ctx, author, c.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
