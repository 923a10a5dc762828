package models

import (
	"time"
)

// Vote values.
const (
	VoteUp   = 1
	VoteDown = -1
)

// Vote is one user's current vote on one post. The composite unique index is
// what makes the upvoter/downvoter sets real sets: membership is one indexed
// lookup and a duplicate insert is a constraint violation, not a second entry.
type Vote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_post_user_vote" json:"post_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_post_user_vote" json:"user_id"`
	Value     int       `gorm:"not null" json:"value"` // VoteUp or VoteDown
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VoteState names the per-(post,user) state machine states.
type VoteState string

const (
	VoteStateNone VoteState = "none"
	VoteStateUp   VoteState = "up"
	VoteStateDown VoteState = "down"
)

func StateOf(value int) VoteState {
	switch value {
	case VoteUp:
		return VoteStateUp
	case VoteDown:
		return VoteStateDown
	}
	return VoteStateNone
}
