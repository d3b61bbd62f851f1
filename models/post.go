package models

import (
	"strconv"
	"time"
)

// Post is a single message inside a thread. Content is sanitized HTML; raw
// user input never reaches this struct. Posts are cascade-deleted with their
// thread, while a deleted parent only nullifies the reference on replies.
type Post struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	ThreadID  uint       `gorm:"index;not null" json:"thread_id"`
	AuthorID  uint       `gorm:"index;not null" json:"author_id"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	ParentID  *uint      `gorm:"index" json:"parent_id"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
	EditedAt  *time.Time `json:"edited_at"`
	Thread    Thread     `json:"-"`
	Author    User       `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Parent    *Post      `gorm:"foreignKey:ParentID;constraint:OnDelete:SET NULL;" json:"-"`

	// Per-viewer flags populated when rendering a thread page.
	Liked      bool  `gorm:"-" json:"liked"`
	LikesCount int64 `gorm:"-" json:"likes_count"`
	CanEdit    bool  `gorm:"-" json:"-"`
}

// Anchor returns the in-page fragment identifier used by redirects and
// client-side inserts.
func (p Post) Anchor() string {
	return "post-" + strconv.FormatUint(uint64(p.ID), 10)
}
