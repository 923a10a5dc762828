package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ripple/internal/models"
	"ripple/internal/store"
)

// Storage is the in-process reference implementation of store.Store. One
// mutex guards all state, so every method is a single atomic step the same
// way a database transaction is in the postgres implementation.
type Storage struct {
	mu sync.Mutex

	users        map[uint]*models.User
	usersByEmail map[string]uint
	posts        map[uint]*models.Post
	postsByPid   map[string]uint
	votes        map[uint]map[uint]int      // postID -> userID -> value
	following    map[uint]map[uint]struct{} // followerID -> followed set
	followers    map[uint]map[uint]struct{} // followedID -> follower set
	comments     map[uint]*models.Comment
	commentLikes map[uint]map[uint]struct{} // commentID -> liker set
	notes        map[uint]*models.Notification

	nextUserID uint
	nextPostID uint
	nextCmtID  uint
	nextNoteID uint
}

func New() *Storage {
	return &Storage{
		users:        make(map[uint]*models.User),
		usersByEmail: make(map[string]uint),
		posts:        make(map[uint]*models.Post),
		postsByPid:   make(map[string]uint),
		votes:        make(map[uint]map[uint]int),
		following:    make(map[uint]map[uint]struct{}),
		followers:    make(map[uint]map[uint]struct{}),
		comments:     make(map[uint]*models.Comment),
		commentLikes: make(map[uint]map[uint]struct{}),
		notes:        make(map[uint]*models.Notification),
	}
}

func (s *Storage) Close() error { return nil }

// Users

func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.usersByEmail[user.Email]; taken {
		return fmt.Errorf("%w: email already registered", store.ErrInvalidOperation)
	}
	s.nextUserID++
	user.ID = s.nextUserID
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	cp := *user
	s.users[user.ID] = &cp
	s.usersByEmail[user.Email] = user.ID
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getUserLocked(id)
}

func (s *Storage) getUserLocked(id uint) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, store.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.usersByEmail[email]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", email, store.ErrNotFound)
	}
	return s.getUserLocked(id)
}

// Posts

func (s *Storage) CreatePost(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[post.UserID]; !ok {
		return fmt.Errorf("author %d: %w", post.UserID, store.ErrNotFound)
	}
	s.nextPostID++
	post.ID = s.nextPostID
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	cp := *post
	s.posts[post.ID] = &cp
	s.postsByPid[post.Pid] = post.ID
	return nil
}

func (s *Storage) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getPostLocked(id)
}

func (s *Storage) getPostLocked(id uint) (*models.Post, error) {
	p, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %d: %w", id, store.ErrNotFound)
	}
	cp := *p
	if u, ok := s.users[p.UserID]; ok {
		cp.User = *u
	}
	return &cp, nil
}

func (s *Storage) GetPostByPid(ctx context.Context, pid string) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.postsByPid[pid]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", pid, store.ErrNotFound)
	}
	return s.getPostLocked(id)
}

func (s *Storage) DeletePost(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return fmt.Errorf("post %d: %w", id, store.ErrNotFound)
	}
	delete(s.postsByPid, p.Pid)
	delete(s.posts, id)
	delete(s.votes, id)
	for cid, c := range s.comments {
		if c.PostID == id {
			delete(s.comments, cid)
			delete(s.commentLikes, cid)
		}
	}
	return nil
}

func (s *Storage) ListPosts(ctx context.Context, q store.FeedQuery) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var posts []models.Post
	for _, p := range s.posts {
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		cp := *p
		if u, ok := s.users[p.UserID]; ok {
			cp.User = *u
		}
		posts = append(posts, cp)
	}

	popular := q.Sort == store.SortPopular
	sort.Slice(posts, func(i, j int) bool {
		if popular && posts[i].VoteCount != posts[j].VoteCount {
			return posts[i].VoteCount > posts[j].VoteCount
		}
		return posts[i].ID > posts[j].ID
	})

	// Strict less-than on the sort key: skip everything at or after the cursor.
	if q.Cursor != nil {
		start := len(posts)
		for i, p := range posts {
			if keyLess(popular, p, *q.Cursor) {
				start = i
				break
			}
		}
		posts = posts[start:]
	}

	if q.Limit > 0 && len(posts) > q.Limit {
		posts = posts[:q.Limit]
	}
	return posts, nil
}

// keyLess reports whether p sorts strictly after the cursor position, i.e.
// its sort key is strictly less than the cursor key in descending order.
func keyLess(popular bool, p models.Post, c store.FeedCursor) bool {
	if popular {
		if p.VoteCount != c.VoteCount {
			return p.VoteCount < c.VoteCount
		}
		return p.ID < c.ID
	}
	return p.ID < c.ID
}

// Votes

func (s *Storage) ApplyVote(ctx context.Context, postID, userID uint, value int) (*store.VoteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok {
		return nil, fmt.Errorf("post %d: %w", postID, store.ErrNotFound)
	}

	byUser := s.votes[postID]
	if byUser == nil {
		byUser = make(map[uint]int)
		s.votes[postID] = byUser
	}

	prev := byUser[userID]
	var delta int
	switch {
	case prev == 0:
		byUser[userID] = value
		delta = value
	case prev == value:
		// Re-casting the same direction retracts the vote.
		delete(byUser, userID)
		delta = -value
	default:
		byUser[userID] = value
		delta = 2 * value
	}
	post.VoteCount += delta

	return &store.VoteResult{
		Previous:  models.StateOf(prev),
		Current:   models.StateOf(byUser[userID]),
		VoteCount: post.VoteCount,
		AuthorID:  post.UserID,
	}, nil
}

func (s *Storage) GetVote(ctx context.Context, postID, userID uint) (models.VoteState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.StateOf(s.votes[postID][userID]), nil
}

// Follows

func (s *Storage) AddFollow(ctx context.Context, followerID, followedID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	follower, ok := s.users[followerID]
	if !ok {
		return false, fmt.Errorf("user %d: %w", followerID, store.ErrNotFound)
	}
	followed, ok := s.users[followedID]
	if !ok {
		return false, fmt.Errorf("user %d: %w", followedID, store.ErrNotFound)
	}

	if _, exists := s.following[followerID][followedID]; exists {
		return false, nil
	}
	if s.following[followerID] == nil {
		s.following[followerID] = make(map[uint]struct{})
	}
	if s.followers[followedID] == nil {
		s.followers[followedID] = make(map[uint]struct{})
	}
	// Mutate the lower-sorted identity first; set-add is idempotent so a
	// retry after a partial failure converges instead of double counting.
	for _, id := range orderedPair(followerID, followedID) {
		if id == followerID {
			s.following[followerID][followedID] = struct{}{}
			follower.FollowingCount++
		} else {
			s.followers[followedID][followerID] = struct{}{}
			followed.FollowersCount++
		}
	}
	return true, nil
}

func (s *Storage) RemoveFollow(ctx context.Context, followerID, followedID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	follower, ok := s.users[followerID]
	if !ok {
		return false, fmt.Errorf("user %d: %w", followerID, store.ErrNotFound)
	}
	followed, ok := s.users[followedID]
	if !ok {
		return false, fmt.Errorf("user %d: %w", followedID, store.ErrNotFound)
	}

	if _, exists := s.following[followerID][followedID]; !exists {
		return false, nil
	}
	for _, id := range orderedPair(followerID, followedID) {
		if id == followerID {
			delete(s.following[followerID], followedID)
			follower.FollowingCount--
		} else {
			delete(s.followers[followedID], followerID)
			followed.FollowersCount--
		}
	}
	return true, nil
}

func orderedPair(a, b uint) [2]uint {
	if a < b {
		return [2]uint{a, b}
	}
	return [2]uint{b, a}
}

func (s *Storage) IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.following[followerID][followedID]
	return ok, nil
}

func (s *Storage) ListFollowers(ctx context.Context, userID uint) ([]models.UserRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return nil, fmt.Errorf("user %d: %w", userID, store.ErrNotFound)
	}
	return s.refsLocked(s.followers[userID]), nil
}

func (s *Storage) ListFollowing(ctx context.Context, userID uint) ([]models.UserRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return nil, fmt.Errorf("user %d: %w", userID, store.ErrNotFound)
	}
	return s.refsLocked(s.following[userID]), nil
}

func (s *Storage) refsLocked(ids map[uint]struct{}) []models.UserRef {
	refs := make([]models.UserRef, 0, len(ids))
	for id := range ids {
		if u, ok := s.users[id]; ok {
			refs = append(refs, u.Ref())
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	return refs
}

// Comments

func (s *Storage) CreateComment(ctx context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[comment.PostID]
	if !ok {
		return fmt.Errorf("post %d: %w", comment.PostID, store.ErrNotFound)
	}
	s.nextCmtID++
	comment.ID = s.nextCmtID
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}
	cp := *comment
	s.comments[comment.ID] = &cp
	post.CommentCount++
	return nil
}

func (s *Storage) GetComment(ctx context.Context, id uint) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, fmt.Errorf("comment %d: %w", id, store.ErrNotFound)
	}
	cp := *c
	if u, ok := s.users[c.UserID]; ok {
		cp.User = *u
	}
	return &cp, nil
}

func (s *Storage) DeleteComment(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return fmt.Errorf("comment %d: %w", id, store.ErrNotFound)
	}
	removed := 1
	delete(s.comments, id)
	delete(s.commentLikes, id)
	for rid, r := range s.comments {
		if r.ParentID != nil && *r.ParentID == id {
			delete(s.comments, rid)
			delete(s.commentLikes, rid)
			removed++
		}
	}
	if post, ok := s.posts[c.PostID]; ok {
		post.CommentCount -= removed
	}
	return nil
}

func (s *Storage) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[postID]; !ok {
		return nil, fmt.Errorf("post %d: %w", postID, store.ErrNotFound)
	}
	var all []models.Comment
	for _, c := range s.comments {
		if c.PostID != postID {
			continue
		}
		cp := *c
		if u, ok := s.users[c.UserID]; ok {
			cp.User = *u
		}
		all = append(all, cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	// Assemble the two-level thread: top-level comments with flat reply lists.
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
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[commentID]
	if !ok {
		return false, 0, fmt.Errorf("comment %d: %w", commentID, store.ErrNotFound)
	}
	likers := s.commentLikes[commentID]
	if likers == nil {
		likers = make(map[uint]struct{})
		s.commentLikes[commentID] = likers
	}
	if _, liked := likers[userID]; liked {
		delete(likers, userID)
		c.LikesCount--
		return false, c.LikesCount, nil
	}
	likers[userID] = struct{}{}
	c.LikesCount++
	return true, c.LikesCount, nil
}

// Notifications

func (s *Storage) CreateNotification(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextNoteID++
	n.ID = s.nextNoteID
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	cp := *n
	s.notes[n.ID] = &cp
	return nil
}

func (s *Storage) ListNotifications(ctx context.Context, recipientID uint, limit int) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Notification
	for _, n := range s.notes {
		if n.RecipientID != recipientID {
			continue
		}
		cp := *n
		if u, ok := s.users[n.SenderID]; ok {
			cp.Sender = *u
		}
		out = append(out, cp)
	}
	// Newest first; ID breaks creation-time ties.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Storage) MarkNotificationRead(ctx context.Context, id, recipientID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok || n.RecipientID != recipientID {
		return fmt.Errorf("notification %d: %w", id, store.ErrNotFound)
	}
	n.IsRead = true
	return nil
}

func (s *Storage) MarkAllNotificationsRead(ctx context.Context, recipientID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notes {
		if n.RecipientID == recipientID {
			n.IsRead = true
		}
	}
	return nil
}
