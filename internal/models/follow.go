package models

import (
	"time"
)

// Follow is one edge of the follower graph: FollowerID follows FollowedID.
// The unique composite index gives follow/unfollow set semantics; the
// followers/following sets on User are projections of this table, and the
// counters on User are derived from it by signed delta.
type Follow struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FollowerID uint      `gorm:"not null;uniqueIndex:idx_follower_followed;index" json:"follower_id"`
	FollowedID uint      `gorm:"not null;uniqueIndex:idx_follower_followed;index" json:"followed_id"`
	CreatedAt  time.Time `json:"created_at"`
}
