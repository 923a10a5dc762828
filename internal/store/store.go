package store

import (
	"context"
	"errors"

	"ripple/internal/models"
)

// Error taxonomy. Handlers map these to HTTP statuses; everything else is
// treated as a transient store failure and may be retried by the caller
// because every mutation in the store is idempotent.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// VoteResult reports one applied vote transition.
type VoteResult struct {
	Previous  models.VoteState
	Current   models.VoteState
	VoteCount int // new aggregate on the post
	AuthorID  uint
}

// SortMode selects the feed ordering.
type SortMode string

const (
	SortRecent  SortMode = "recent"
	SortPopular SortMode = "popular"
)

// FeedCursor is the decoded keyset cursor: the sort-key of the last item on
// the previous page. VoteCount participates only in popular mode, where the
// key is the composite (voteCount, id) to break ties deterministically.
type FeedCursor struct {
	VoteCount int
	ID        uint
}

// FeedQuery describes one page request. Pagination is strict-less-than on the
// sort key in descending order, never a numeric offset, so pages stay stable
// under concurrent inserts.
type FeedQuery struct {
	Sort     SortMode
	Category string // empty means all categories
	Cursor   *FeedCursor
	Limit    int
}

// Store is the persistence boundary of the engagement engine. Both the
// postgres and the memory implementation guarantee that each method is a
// single atomic step: concurrent callers never observe a half-applied vote
// transition or follow edge.
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// Posts
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id uint) (*models.Post, error)
	GetPostByPid(ctx context.Context, pid string) (*models.Post, error)
	DeletePost(ctx context.Context, id uint) error
	ListPosts(ctx context.Context, q FeedQuery) ([]models.Post, error)

	// Votes. ApplyVote performs the whole (post,user) state transition
	// (membership test, set add/remove, signed counter delta) as one atomic
	// conditional update. value is models.VoteUp or models.VoteDown.
	ApplyVote(ctx context.Context, postID, userID uint, value int) (*VoteResult, error)
	GetVote(ctx context.Context, postID, userID uint) (models.VoteState, error)

	// Follows. AddFollow and RemoveFollow are idempotent set mutations;
	// the bool reports whether the edge actually changed.
	AddFollow(ctx context.Context, followerID, followedID uint) (bool, error)
	RemoveFollow(ctx context.Context, followerID, followedID uint) (bool, error)
	IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error)
	ListFollowers(ctx context.Context, userID uint) ([]models.UserRef, error)
	ListFollowing(ctx context.Context, userID uint) ([]models.UserRef, error)

	// Comments
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id uint) (*models.Comment, error)
	DeleteComment(ctx context.Context, id uint) error
	ListComments(ctx context.Context, postID uint) ([]models.Comment, error)
	ToggleCommentLike(ctx context.Context, commentID, userID uint) (liked bool, likes int, err error)

	// Notifications
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, recipientID uint, limit int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id, recipientID uint) error
	MarkAllNotificationsRead(ctx context.Context, recipientID uint) error

	Close() error
}
