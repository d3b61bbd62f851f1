package models

import "time"

// Profile carries the public-facing details of a user, one row per account.
// The avatar is stored as a served path under the uploads directory.
type Profile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Avatar    string    `gorm:"size:512" json:"avatar"`
	Bio       string    `gorm:"type:text" json:"bio"`
	Location  string    `gorm:"size:120" json:"location"`
	Website   string    `gorm:"size:255" json:"website"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
