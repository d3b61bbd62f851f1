// Package seed loads a small demo dataset for local development.
package seed

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/honeybarrel/forum/models"
	"github.com/honeybarrel/forum/utils"
)

// Run inserts a demo user, categories and a handful of threads with posts.
// It is idempotent enough for repeated local runs: existing usernames and
// slugs are left alone.
func Run(db *gorm.DB) error {
	hash, err := utils.HashPassword("demo-password")
	if err != nil {
		return err
	}
	demo := models.User{Username: "demo", Email: "demo@example.com", PasswordHash: hash}
	if err := db.Where(models.User{Username: demo.Username}).FirstOrCreate(&demo).Error; err != nil {
		return err
	}
	db.Where(models.Profile{UserID: demo.ID}).FirstOrCreate(&models.Profile{UserID: demo.ID})

	categories := []models.Category{
		{Title: "General", Slug: "general", Description: "Anything goes."},
		{Title: "Indie Games", Slug: "indie-games", Description: "Small studios, big ideas."},
		{Title: "Guides", Slug: "guides", Description: "Walkthroughs and how-tos."},
	}
	for i := range categories {
		if err := db.Where(models.Category{Slug: categories[i].Slug}).
			FirstOrCreate(&categories[i]).Error; err != nil {
			return err
		}
	}

	for i, cat := range categories {
		for j := 0; j < 3; j++ {
			title := fmt.Sprintf("Welcome to %s, part %d", cat.Title, j+1)
			thread := models.Thread{
				CategoryID: cat.ID,
				AuthorID:   demo.ID,
				Title:      title,
				Slug:       utils.Slugify(title),
			}
			if err := db.Where(models.Thread{Slug: thread.Slug}).FirstOrCreate(&thread).Error; err != nil {
				return err
			}
			var posts int64
			db.Model(&models.Post{}).Where("thread_id = ?", thread.ID).Count(&posts)
			if posts > 0 {
				continue
			}
			for k := 0; k < 2+i+j; k++ {
				post := models.Post{
					ThreadID: thread.ID,
					AuthorID: demo.ID,
					Content:  fmt.Sprintf("<p>Demo post %d in %s.</p>", k+1, title),
				}
				if err := db.Create(&post).Error; err != nil {
					return err
				}
			}
		}
	}
	return nil
}
