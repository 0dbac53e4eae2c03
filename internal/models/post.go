package models

import (
	"time"
)

// SnippetLength is the number of characters of the body exposed as
// textSnippet in feed responses.
const SnippetLength = 50

// Post represents a forum post.
//
// Score is denormalized: it must always equal the signed sum of the Vote
// rows referencing this post. It is only ever adjusted by relative deltas
// inside the same transaction that writes the vote row.
type Post struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Title     string `gorm:"not null" json:"title"`
	Text      string `gorm:"type:text;not null" json:"text"`
	Score     int    `gorm:"not null;default:0" json:"score"`
	CreatorID uint   `gorm:"not null;index" json:"creatorId"`
	Creator   *User  `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	// TextSnippet is derived per response; never persisted.
	TextSnippet string `gorm:"-" json:"textSnippet,omitempty"`
	// VoteStatus is the requesting viewer's vote value on this post,
	// null when the viewer is anonymous or has not voted. Computed.
	VoteStatus *int      `gorm:"-" json:"voteStatus"`
	CreatedAt  time.Time `gorm:"index:idx_posts_created_at,sort:desc" json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Snippet returns the first SnippetLength characters of the body as a raw
// slice, with no word-boundary adjustment.
func (p *Post) Snippet() string {
	runes := []rune(p.Text)
	if len(runes) <= SnippetLength {
		return p.Text
	}
	return string(runes[:SnippetLength])
}
