package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/honeybarrel/forum/models"
	"github.com/honeybarrel/forum/utils"
)

// PostController handles post submission, editing and deletion.
type PostController struct {
	db *gorm.DB
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB) *PostController {
	return &PostController{db: db}
}

// Create handles reply submission for a thread. One endpoint serves both
// partial-update (HTMX) and full-page clients; the response mode follows the
// HX-Request header.
//
// HTMX clients get a 400 form fragment on invalid content, a 204 with an
// HX-Redirect header when the new post lands on a different page than the one
// being viewed, or a rendered single-post fragment when it lands on the
// current page. Full-page clients always get a redirect to the post's anchor
// on the last page.
func (p *PostController) Create(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		renderError(ctx, http.StatusUnauthorized, "authentication required")
		return
	}

	var thread models.Thread
	if err := p.db.First(&thread, ctx.Param("id")).Error; err != nil {
		renderError(ctx, http.StatusNotFound, "thread not found")
		return
	}
	if thread.Closed {
		renderError(ctx, http.StatusForbidden, "thread is closed")
		return
	}

	htmx := isHTMX(ctx)
	raw := ctx.PostForm("content")

	reject := func(msg string) {
		if htmx {
			ctx.HTML(http.StatusBadRequest, "_post_form", gin.H{
				"Thread":      &thread,
				"Error":       msg,
				"Content":     raw,
				"CurrentPage": formInt(ctx, "current_page", 1),
			})
			return
		}
		ctx.Redirect(http.StatusSeeOther, thread.URL())
	}

	if strings.TrimSpace(raw) == "" {
		reject("message cannot be empty")
		return
	}
	content := utils.SanitizeHTML(raw)
	if utils.IsBlankHTML(content) {
		reject("content contains no allowed elements")
		return
	}

	post := models.Post{
		ThreadID: thread.ID,
		AuthorID: userID,
		Content:  content,
		ParentID: p.resolveParent(thread.ID, ctx),
	}
	if err := p.db.Create(&post).Error; err != nil {
		utils.Sugar.Errorf("create post in thread %d failed: %v", thread.ID, err)
		renderError(ctx, http.StatusInternalServerError, "failed to save post")
		return
	}

	// Fresh replies bubble the thread back up in the listings.
	p.db.Model(&models.Thread{}).Where("id = ?", thread.ID).
		UpdateColumn("updated_at", time.Now())

	var total int64
	if err := p.db.Model(&models.Post{}).Where("thread_id = ?", thread.ID).Count(&total).Error; err != nil {
		renderError(ctx, http.StatusInternalServerError, "failed to count posts")
		return
	}
	lastPage := utils.LastPage(int(total), utils.PostsPerPage)
	currentPage := formInt(ctx, "current_page", 1)
	target := fmt.Sprintf("%s?page=%d#%s", thread.URL(), lastPage, post.Anchor())

	if htmx {
		if currentPage != lastPage {
			// The viewer's page no longer holds the tail of the thread;
			// tell the client to navigate instead of rendering.
			ctx.Header("HX-Redirect", target)
			ctx.Status(http.StatusNoContent)
			return
		}
		if err := p.db.Preload("Author").First(&post, post.ID).Error; err != nil {
			renderError(ctx, http.StatusInternalServerError, "failed to load post")
			return
		}
		post.CanEdit = true
		ctx.HTML(http.StatusOK, "_post", gin.H{
			"Post":   &post,
			"Thread": &thread,
			"IsNew":  true,
		})
		return
	}

	ctx.Redirect(http.StatusSeeOther, target)
}

// resolveParent reads the optional parent_id form field and keeps it only
// when the parent is a post of the same thread.
func (p *PostController) resolveParent(threadID uint, ctx *gin.Context) *uint {
	parentID := formInt(ctx, "parent_id", 0)
	if parentID <= 0 {
		return nil
	}
	var parent models.Post
	if err := p.db.Where("id = ? AND thread_id = ?", parentID, threadID).First(&parent).Error; err != nil {
		return nil
	}
	return &parent.ID
}

// EditPage renders the post edit form for the author or an admin.
func (p *PostController) EditPage(ctx *gin.Context) {
	post, ok := p.loadOwned(ctx)
	if !ok {
		return
	}
	render(ctx, http.StatusOK, "edit_post.html", gin.H{"Post": post})
}

// Edit re-sanitizes and saves edited content, stamping the edit time.
func (p *PostController) Edit(ctx *gin.Context) {
	post, ok := p.loadOwned(ctx)
	if !ok {
		return
	}

	raw := ctx.PostForm("content")
	fail := func(msg string) {
		render(ctx, http.StatusBadRequest, "edit_post.html", gin.H{"Error": msg, "Post": post})
	}
	if strings.TrimSpace(raw) == "" {
		fail("message cannot be empty")
		return
	}
	content := utils.SanitizeHTML(raw)
	if utils.IsBlankHTML(content) {
		fail("content contains no allowed elements")
		return
	}

	now := time.Now()
	post.Content = content
	post.EditedAt = &now
	if err := p.db.Save(post).Error; err != nil {
		renderError(ctx, http.StatusInternalServerError, "failed to update post")
		return
	}

	var thread models.Thread
	if err := p.db.First(&thread, post.ThreadID).Error; err == nil {
		ctx.Redirect(http.StatusSeeOther, thread.URL())
		return
	}
	ctx.Redirect(http.StatusSeeOther, "/")
}

// Delete removes a post, nullifying replies that pointed at it.
func (p *PostController) Delete(ctx *gin.Context) {
	post, ok := p.loadOwned(ctx)
	if !ok {
		return
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).Where("parent_id = ?", post.ID).
			Update("parent_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		return tx.Delete(post).Error
	})
	if err != nil {
		utils.Sugar.Errorf("delete post %d failed: %v", post.ID, err)
		renderError(ctx, http.StatusInternalServerError, "failed to delete post")
		return
	}

	var thread models.Thread
	if err := p.db.First(&thread, post.ThreadID).Error; err == nil {
		ctx.Redirect(http.StatusSeeOther, thread.URL())
		return
	}
	ctx.Redirect(http.StatusSeeOther, "/")
}

// loadOwned fetches the post and checks the caller may manage it.
func (p *PostController) loadOwned(ctx *gin.Context) (*models.Post, bool) {
	var post models.Post
	if err := p.db.Preload("Thread").First(&post, ctx.Param("id")).Error; err != nil {
		renderError(ctx, http.StatusNotFound, "post not found")
		return nil, false
	}
	viewerID, _ := getUserID(ctx)
	if post.AuthorID != viewerID && !isAdmin(ctx) {
		renderError(ctx, http.StatusForbidden, "you cannot manage this post")
		return nil, false
	}
	return &post, true
}
