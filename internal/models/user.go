// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User represents a registered forum account.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"unique;not null" json:"username"`
	Email     string    `gorm:"unique;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Posts     []Post    `gorm:"foreignKey:CreatorID" json:"posts,omitempty"`
}

// Sanitized returns a copy of the user as seen by viewerID.
// A user sees their own email; every other viewer sees an empty string.
func (u User) Sanitized(viewerID uint) User {
	if u.ID != viewerID {
		u.Email = ""
	}
	u.Password = ""
	u.Posts = nil
	return u
}
