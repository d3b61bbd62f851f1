package models

import "time"

// Category groups threads under a single topic. The slug is derived from the
// title at creation time and stays stable afterwards.
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:120;not null" json:"title"`
	Slug        string    `gorm:"size:140;uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	Threads     []Thread  `json:"-"`

	// ThreadsCount is populated by list queries, not stored.
	ThreadsCount int64 `gorm:"-" json:"threads_count"`
}

// URL returns the category page path.
func (c Category) URL() string {
	return "/c/" + c.Slug
}
