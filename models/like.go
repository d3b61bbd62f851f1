package models

import "time"

// Like marks that a user liked a post. The row's existence is the liked
// state; the composite unique index is what makes the toggle race-safe.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:uniq_like_user_post;not null" json:"user_id"`
	PostID    uint      `gorm:"uniqueIndex:uniq_like_user_post;index;not null" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	Post      Post      `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
}
