package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/honeybarrel/forum/models"
	"github.com/honeybarrel/forum/utils"
)

// LikeController implements the per-user per-post like toggle.
type LikeController struct {
	db *gorm.DB
}

// NewLikeController creates a new LikeController instance.
func NewLikeController(db *gorm.DB) *LikeController {
	return &LikeController{db: db}
}

// Toggle flips the (user, post) like state. The insert is attempted first and
// the unique index decides the branch: a clean insert means "now liked", a
// duplicate-key conflict means the row exists and gets deleted instead. Two
// concurrent toggles for the same pair therefore cannot both insert. The
// count is recomputed from rows rather than kept in a counter.
func (l *LikeController) Toggle(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		renderError(ctx, http.StatusUnauthorized, "authentication required")
		return
	}

	var post models.Post
	if err := l.db.Preload("Thread").First(&post, ctx.Param("id")).Error; err != nil {
		renderError(ctx, http.StatusNotFound, "post not found")
		return
	}

	liked := true
	like := models.Like{UserID: userID, PostID: post.ID}
	if err := l.db.Create(&like).Error; err != nil {
		if !utils.IsDuplicateKeyErr(err) {
			utils.Sugar.Errorf("toggle like user=%d post=%d failed: %v", userID, post.ID, err)
			renderError(ctx, http.StatusInternalServerError, "failed to toggle like")
			return
		}
		if err := l.db.Where("user_id = ? AND post_id = ?", userID, post.ID).
			Delete(&models.Like{}).Error; err != nil {
			renderError(ctx, http.StatusInternalServerError, "failed to toggle like")
			return
		}
		liked = false
	}

	var count int64
	if err := l.db.Model(&models.Like{}).Where("post_id = ?", post.ID).Count(&count).Error; err != nil {
		renderError(ctx, http.StatusInternalServerError, "failed to count likes")
		return
	}

	if isHTMX(ctx) {
		post.Liked = liked
		post.LikesCount = count
		ctx.HTML(http.StatusOK, "_post_like", gin.H{"Post": &post})
		return
	}
	ctx.Redirect(http.StatusSeeOther, post.Thread.URL())
}
