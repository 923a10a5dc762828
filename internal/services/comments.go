package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"ripple/internal/models"
	"ripple/internal/store"
)

// Comments stores the two-level comment thread and fans its events out to
// the dispatcher.
type Comments struct {
	store      store.Store
	dispatcher *Dispatcher
}

func NewComments(st store.Store, d *Dispatcher) *Comments {
	return &Comments{store: st, dispatcher: d}
}

// Add creates a comment. With parentID nil it is a top-level comment and the
// post author is notified; otherwise it is a reply and the author of the
// comment being replied to is notified. Replying to a reply attaches the new
// comment to the top-level parent, keeping the thread two levels deep.
func (s *Comments) Add(ctx context.Context, actor *models.User, postID uint, content string, parentID *uint) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("empty comment: %w", store.ErrInvalidOperation)
	}

	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	recipient := post.UserID
	kind := models.NotificationComment
	verb := "commented on your post"

	if parentID != nil {
		parent, err := s.store.GetComment(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if parent.PostID != postID {
			return nil, fmt.Errorf("parent comment belongs to another post: %w", store.ErrInvalidOperation)
		}
		if parent.ParentID != nil {
			parentID = parent.ParentID
		}
		recipient = parent.UserID
		kind = models.NotificationReply
		verb = "replied to your comment"
	}

	comment := &models.Comment{
		PostID:   postID,
		UserID:   actor.ID,
		Content:  content,
		ParentID: parentID,
	}
	if err := s.store.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	if recipient != actor.ID {
		pid := postID
		cid := comment.ID
		err := s.dispatcher.Dispatch(ctx, &models.Notification{
			RecipientID: recipient,
			SenderID:    actor.ID,
			Kind:        kind,
			Message:     fmt.Sprintf("%s %s", actor.Username, verb),
			PostID:      &pid,
			CommentID:   &cid,
		})
		if err != nil {
			log.Printf("comment notification for post %d: %v", postID, err)
		}
	}
	return comment, nil
}

// Reply is Add with the post derived from the parent comment.
func (s *Comments) Reply(ctx context.Context, actor *models.User, parentID uint, content string) (*models.Comment, error) {
	parent, err := s.store.GetComment(ctx, parentID)
	if err != nil {
		return nil, err
	}
	return s.Add(ctx, actor, parent.PostID, content, &parentID)
}

// ToggleLike flips the actor's like on a comment. Liking notifies the
// comment author; unliking is silent.
func (s *Comments) ToggleLike(ctx context.Context, actor *models.User, commentID uint) (bool, int, error) {
	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return false, 0, err
	}

	liked, likes, err := s.store.ToggleCommentLike(ctx, commentID, actor.ID)
	if err != nil {
		return false, 0, err
	}

	if liked && comment.UserID != actor.ID {
		cid := commentID
		pid := comment.PostID
		err := s.dispatcher.Dispatch(ctx, &models.Notification{
			RecipientID: comment.UserID,
			SenderID:    actor.ID,
			Kind:        models.NotificationLike,
			Message:     fmt.Sprintf("%s liked your comment", actor.Username),
			PostID:      &pid,
			CommentID:   &cid,
		})
		if err != nil {
			log.Printf("like notification for comment %d: %v", commentID, err)
		}
	}

	s.dispatcher.PublishAsync(comment.UserID, "likesUpdate", map[string]any{
		"commentId": commentID,
		"likes":     likes,
	})
	return liked, likes, nil
}

// Delete removes the actor's own comment and its replies.
func (s *Comments) Delete(ctx context.Context, actor *models.User, commentID uint) error {
	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != actor.ID {
		return fmt.Errorf("comment %d is not yours: %w", commentID, store.ErrUnauthorized)
	}
	return s.store.DeleteComment(ctx, commentID)
}

// List returns the post's thread: top-level comments with flat reply lists.
func (s *Comments) List(ctx context.Context, postID uint) ([]models.Comment, error) {
	return s.store.ListComments(ctx, postID)
}
