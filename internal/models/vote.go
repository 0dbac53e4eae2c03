package models

import (
	"time"
)

// Vote values. Any requested value other than exactly Downvote normalizes
// to Upvote; there is no "no vote" value — absence of a row means no vote.
const (
	Upvote   = 1
	Downvote = -1
)

// Vote is one user's vote on one post. The composite primary key guarantees
// at most one row per (user, post) pair.
type Vote struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	PostID    uint      `gorm:"primaryKey;autoIncrement:false" json:"postId"`
	Value     int       `gorm:"not null" json:"value"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	User User `gorm:"foreignKey:UserID" json:"-"`
	Post Post `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
}

// NormalizeVoteValue collapses a requested vote value to the stored ±1
// convention: exactly -1 stays a downvote, anything else becomes an upvote.
// The non-negative-defaults-to-upvote behavior is a legacy quirk clients
// depend on; strict validation sits behind the strict_votes feature flag.
func NormalizeVoteValue(value int) int {
	if value == Downvote {
		return Downvote
	}
	return Upvote
}
