package models

import (
	"time"
)

type NotificationKind string

const (
	NotificationFollow   NotificationKind = "FOLLOW"
	NotificationUnfollow NotificationKind = "UNFOLLOW"
	NotificationUpvote   NotificationKind = "UPVOTE"
	NotificationDownvote NotificationKind = "DOWNVOTE"
	NotificationComment  NotificationKind = "COMMENT"
	NotificationReply    NotificationKind = "REPLY"
	NotificationLike     NotificationKind = "LIKE"
)

// Notification is the durable record of one engagement event. It is created
// exactly once per event by the dispatcher, mutated only by read
// acknowledgement, and never deleted by the engine.
type Notification struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	RecipientID uint             `gorm:"not null;index" json:"recipient_id"`
	Recipient   User             `gorm:"foreignKey:RecipientID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	SenderID    uint             `gorm:"not null;index" json:"sender_id"`
	Sender      User             `gorm:"foreignKey:SenderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"sender"`
	Kind        NotificationKind `gorm:"type:varchar(20);not null" json:"kind"`
	Message     string           `gorm:"type:text" json:"message"`
	PostID      *uint            `gorm:"index" json:"post_id"`
	CommentID   *uint            `json:"comment_id"`
	IsRead      bool             `gorm:"default:false;index" json:"is_read"`
	CreatedAt   time.Time        `gorm:"index" json:"created_at"`
}
