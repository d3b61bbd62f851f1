package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a forum account. Passwords are stored as bcrypt hashes only.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Username     string         `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email        string         `gorm:"size:255" json:"email"`
	PasswordHash string         `gorm:"size:255" json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Profile      *Profile       `json:"-"`
	Threads      []Thread       `gorm:"foreignKey:AuthorID" json:"-"`
	Posts        []Post         `gorm:"foreignKey:AuthorID" json:"-"`
}
