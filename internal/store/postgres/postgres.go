package postgres

import (
	"context"
	"errors"
	"fmt"

	"ripple/internal/models"
	"ripple/internal/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Storage implements store.Store on PostgreSQL through gorm. Counter fields
// are only ever touched with signed-delta expressions inside the same
// transaction as the set mutation they derive from, so concurrent writers
// cannot lose each other's updates.
type Storage struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Storage {
	return &Storage{db: db}
}

func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// wrap translates gorm errors into the store taxonomy.
func wrap(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, store.ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %v", what, store.ErrStoreUnavailable, err)
}

// Users

func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	return wrap(s.db.WithContext(ctx).Create(user).Error, "create user")
}

func (s *Storage) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, wrap(err, fmt.Sprintf("user %d", id))
	}
	return &user, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, wrap(err, "user by email")
	}
	return &user, nil
}

// Posts

func (s *Storage) CreatePost(ctx context.Context, post *models.Post) error {
	return wrap(s.db.WithContext(ctx).Create(post).Error, "create post")
}

func (s *Storage) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Preload("User").First(&post, id).Error; err != nil {
		return nil, wrap(err, fmt.Sprintf("post %d", id))
	}
	return &post, nil
}

func (s *Storage) GetPostByPid(ctx context.Context, pid string) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Preload("User").Where("pid = ?", pid).First(&post).Error; err != nil {
		return nil, wrap(err, fmt.Sprintf("post %s", pid))
	}
	return &post, nil
}

func (s *Storage) DeletePost(ctx context.Context, id uint) error {
	return wrap(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		var commentIDs []uint
		if err := tx.Model(&models.Comment{}).Where("post_id = ?", id).
			Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		if len(commentIDs) > 0 {
			if err := tx.Where("comment_id IN ?", commentIDs).Delete(&models.CommentLike{}).Error; err != nil {
				return err
			}
		}
		return tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error
	}), fmt.Sprintf("delete post %d", id))
}

func (s *Storage) ListPosts(ctx context.Context, q store.FeedQuery) ([]models.Post, error) {
	query := s.db.WithContext(ctx).Model(&models.Post{}).Preload("User")
	if q.Category != "" {
		query = query.Where("category = ?", q.Category)
	}

	// Keyset pagination: strict less-than on the sort key, descending.
	// Offsets would drift under concurrent inserts; this cannot.
	if q.Sort == store.SortPopular {
		if c := q.Cursor; c != nil {
			query = query.Where("vote_count < ? OR (vote_count = ? AND id < ?)",
				c.VoteCount, c.VoteCount, c.ID)
		}
		query = query.Order("vote_count DESC, id DESC")
	} else {
		if c := q.Cursor; c != nil {
			query = query.Where("id < ?", c.ID)
		}
		query = query.Order("id DESC")
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var posts []models.Post
	if err := query.Find(&posts).Error; err != nil {
		return nil, wrap(err, "list posts")
	}
	return posts, nil
}

// Votes

func (s *Storage) ApplyVote(ctx context.Context, postID, userID uint, value int) (*store.VoteResult, error) {
	var result store.VoteResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "user_id").First(&post, postID).Error; err != nil {
			return err
		}
		result.AuthorID = post.UserID

		var existing models.Vote
		err := tx.Where("post_id = ? AND user_id = ?", postID, userID).First(&existing).Error

		var delta int
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&models.Vote{PostID: postID, UserID: userID, Value: value}).Error; err != nil {
				return err
			}
			result.Previous = models.VoteStateNone
			result.Current = models.StateOf(value)
			delta = value
		case err != nil:
			return err
		case existing.Value == value:
			// Re-casting the same direction retracts the vote.
			if err := tx.Delete(&models.Vote{}, existing.ID).Error; err != nil {
				return err
			}
			result.Previous = models.StateOf(value)
			result.Current = models.VoteStateNone
			delta = -value
		default:
			if err := tx.Model(&models.Vote{}).Where("id = ?", existing.ID).
				UpdateColumn("value", value).Error; err != nil {
				return err
			}
			result.Previous = models.StateOf(existing.Value)
			result.Current = models.StateOf(value)
			delta = 2 * value
		}

		if err := tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("vote_count", gorm.Expr("vote_count + ?", delta)).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Select("vote_count").
			Where("id = ?", postID).Scan(&result.VoteCount).Error
	})
	if err != nil {
		return nil, wrap(err, fmt.Sprintf("vote on post %d", postID))
	}
	return &result, nil
}

func (s *Storage) GetVote(ctx context.Context, postID, userID uint) (models.VoteState, error) {
	var vote models.Vote
	err := s.db.WithContext(ctx).Where("post_id = ? AND user_id = ?", postID, userID).First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.VoteStateNone, nil
	}
	if err != nil {
		return models.VoteStateNone, wrap(err, "get vote")
	}
	return models.StateOf(vote.Value), nil
}

// Follows

func (s *Storage) AddFollow(ctx context.Context, followerID, followedID uint) (bool, error) {
	inserted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		edge := models.Follow{FollowerID: followerID, FollowedID: followedID}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Already following; idempotent no-op.
			return nil
		}
		inserted = true
		return s.bumpFollowCounts(tx, followerID, followedID, 1)
	})
	if err != nil {
		return false, wrap(err, "add follow")
	}
	return inserted, nil
}

func (s *Storage) RemoveFollow(ctx context.Context, followerID, followedID uint) (bool, error) {
	removed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND followed_id = ?", followerID, followedID).
			Delete(&models.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		removed = true
		return s.bumpFollowCounts(tx, followerID, followedID, -1)
	})
	if err != nil {
		return false, wrap(err, "remove follow")
	}
	return removed, nil
}

// bumpFollowCounts applies the paired counter update, always touching the
// lower user ID first so two simultaneous mutual-follow requests cannot
// deadlock against each other.
func (s *Storage) bumpFollowCounts(tx *gorm.DB, followerID, followedID uint, delta int) error {
	first, second := followerID, followedID
	if second < first {
		first, second = second, first
	}
	for _, id := range []uint{first, second} {
		column := "following_count"
		if id == followedID {
			column = "followers_count"
		}
		if err := tx.Model(&models.User{}).Where("id = ?", id).
			UpdateColumn(column, gorm.Expr(column+" + ?", delta)).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Storage) IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).Count(&count).Error
	if err != nil {
		return false, wrap(err, "is following")
	}
	return count > 0, nil
}

func (s *Storage) ListFollowers(ctx context.Context, userID uint) ([]models.UserRef, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	var refs []models.UserRef
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Select("users.id, users.username, users.email, users.image").
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.followed_id = ?", userID).
		Scan(&refs).Error
	if err != nil {
		return nil, wrap(err, "list followers")
	}
	return refs, nil
}

func (s *Storage) ListFollowing(ctx context.Context, userID uint) ([]models.UserRef, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	var refs []models.UserRef
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Select("users.id, users.username, users.email, users.image").
		Joins("JOIN follows ON follows.followed_id = users.id").
		Where("follows.follower_id = ?", userID).
		Scan(&refs).Error
	if err != nil {
		return nil, wrap(err, "list following")
	}
	return refs, nil
}

// Comments

func (s *Storage) CreateComment(ctx context.Context, comment *models.Comment) error {
	return wrap(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Post{}).Where("id = ?", comment.PostID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}), "create comment")
}

func (s *Storage) GetComment(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		return nil, wrap(err, fmt.Sprintf("comment %d", id))
	}
	return &comment, nil
}

func (s *Storage) DeleteComment(ctx context.Context, id uint) error {
	return wrap(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.First(&comment, id).Error; err != nil {
			return err
		}
		var commentIDs []uint
		if err := tx.Model(&models.Comment{}).Where("id = ? OR parent_id = ?", id, id).
			Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("comment_id IN ?", commentIDs).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", commentIDs).Delete(&models.Comment{})
		if res.Error != nil {
			return res.Error
		}
		return tx.Model(&models.Post{}).Where("id = ?", comment.PostID).
			UpdateColumn("comment_count", gorm.Expr("comment_count - ?", res.RowsAffected)).Error
	}), fmt.Sprintf("delete comment %d", id))
}

func (s *Storage) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	if _, err := s.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	var all []models.Comment
	err := s.db.WithContext(ctx).Preload("User").
		Where("post_id = ?", postID).Order("id ASC").Find(&all).Error
	if err != nil {
		return nil, wrap(err, "list comments")
	}

	byParent := make(map[uint][]models.Comment)
	var top []models.Comment
	for _, c := range all {
		if c.ParentID != nil {
			byParent[*c.ParentID] = append(byParent[*c.ParentID], c)
		} else {
			top = append(top, c)
		}
	}
	for i := range top {
		top[i].Replies = byParent[top[i].ID]
	}
	return top, nil
}

func (s *Storage) ToggleCommentLike(ctx context.Context, commentID, userID uint) (bool, int, error) {
	var liked bool
	var likes int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&comment, commentID).Error; err != nil {
			return err
		}
		res := tx.Where("comment_id = ? AND user_id = ?", commentID, userID).
			Delete(&models.CommentLike{})
		if res.Error != nil {
			return res.Error
		}
		delta := -1
		if res.RowsAffected == 0 {
			if err := tx.Create(&models.CommentLike{CommentID: commentID, UserID: userID}).Error; err != nil {
				return err
			}
			delta = 1
			liked = true
		}
		if err := tx.Model(&models.Comment{}).Where("id = ?", commentID).
			UpdateColumn("likes_count", gorm.Expr("likes_count + ?", delta)).Error; err != nil {
			return err
		}
		return tx.Model(&models.Comment{}).Select("likes_count").
			Where("id = ?", commentID).Scan(&likes).Error
	})
	if err != nil {
		return false, 0, wrap(err, fmt.Sprintf("like comment %d", commentID))
	}
	return liked, likes, nil
}

// Notifications

func (s *Storage) CreateNotification(ctx context.Context, n *models.Notification) error {
	return wrap(s.db.WithContext(ctx).Create(n).Error, "create notification")
}

func (s *Storage) ListNotifications(ctx context.Context, recipientID uint, limit int) ([]models.Notification, error) {
	var notes []models.Notification
	query := s.db.WithContext(ctx).Preload("Sender").
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&notes).Error; err != nil {
		return nil, wrap(err, "list notifications")
	}
	return notes, nil
}

func (s *Storage) MarkNotificationRead(ctx context.Context, id, recipientID uint) error {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("is_read", true)
	if res.Error != nil {
		return wrap(res.Error, "mark read")
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("notification %d: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Storage) MarkAllNotificationsRead(ctx context.Context, recipientID uint) error {
	return wrap(s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true).Error, "mark all read")
}
