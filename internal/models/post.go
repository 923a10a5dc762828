package models

import (
	"time"
)

type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Pid       string    `gorm:"uniqueIndex;size:36;not null" json:"pid"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	Title     string    `gorm:"not null" json:"title"`
	Content   string    `gorm:"type:text" json:"content"`
	Category  string    `gorm:"size:50;not null;index" json:"category"`
	MediaURL  string    `json:"media_url"` // optional, set by the upload layer
	MediaType string    `gorm:"size:10" json:"media_type"`
	// VoteCount is |upvoters| - |downvoters|, maintained by signed delta in the
	// same transaction as the vote-row mutation. Never recomputed by full scan.
	VoteCount    int       `gorm:"default:0" json:"vote_count"`
	CommentCount int       `gorm:"default:0" json:"comment_count"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Filled per-request, not stored.
	ContentHTML string `gorm:"-" json:"content_html,omitempty"`
	CallerVote  string `gorm:"-" json:"caller_vote,omitempty"` // up, down or empty
}
