package models

import (
	"fmt"
	"time"
)

// Thread is a discussion inside a category. Slugs are globally unique;
// creation retries with a numeric suffix under the unique index when a
// candidate is taken.
type Thread struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CategoryID uint      `gorm:"index;not null" json:"category_id"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	Slug       string    `gorm:"size:300;uniqueIndex;not null" json:"slug"`
	AuthorID   uint      `gorm:"index;not null" json:"author_id"`
	Pinned     bool      `gorm:"default:false;index" json:"pinned"`
	Closed     bool      `gorm:"default:false" json:"closed"`
	Views      uint      `gorm:"default:0" json:"views"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `gorm:"index" json:"updated_at"`
	Category   Category  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	Author     User      `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Posts      []Post    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	// PostsCount is populated by list queries, not stored.
	PostsCount int64 `gorm:"-" json:"posts_count"`
}

// URL returns the canonical thread page path.
func (t Thread) URL() string {
	return fmt.Sprintf("/t/%d/%s", t.ID, t.Slug)
}
