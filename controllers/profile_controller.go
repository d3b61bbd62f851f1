package controllers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/honeybarrel/forum/config"
	"github.com/honeybarrel/forum/models"
	"github.com/honeybarrel/forum/utils"
)

// ProfileController serves public profile pages and profile editing.
type ProfileController struct {
	db *gorm.DB
}

// NewProfileController creates a new ProfileController instance.
func NewProfileController(db *gorm.DB) *ProfileController {
	return &ProfileController{db: db}
}

// Own redirects to the viewer's profile page.
func (pc *ProfileController) Own(ctx *gin.Context) {
	uname := currentUsername(ctx)
	if uname == "" {
		ctx.Redirect(http.StatusSeeOther, "/login?next=/profile")
		return
	}
	ctx.Redirect(http.StatusSeeOther, "/profile/"+uname)
}

// View renders a user's public profile with their recent posts and counters.
func (pc *ProfileController) View(ctx *gin.Context) {
	username := ctx.Param("username")

	var user models.User
	if err := pc.db.Where("username = ?", username).First(&user).Error; err != nil {
		renderError(ctx, http.StatusNotFound, "user not found")
		return
	}

	var profile models.Profile
	pc.db.Where("user_id = ?", user.ID).First(&profile)

	var posts []models.Post
	if err := pc.db.Where("author_id = ?", user.ID).
		Preload("Thread").Order("created_at DESC").Limit(10).
		Find(&posts).Error; err != nil {
		renderError(ctx, http.StatusInternalServerError, "failed to load posts")
		return
	}

	var postsCount, threadsCount int64
	pc.db.Model(&models.Post{}).Where("author_id = ?", user.ID).Count(&postsCount)
	pc.db.Model(&models.Thread{}).Where("author_id = ?", user.ID).Count(&threadsCount)

	viewerID, _ := getUserID(ctx)
	render(ctx, http.StatusOK, "profile.html", gin.H{
		"ProfileUser":  &user,
		"Profile":      &profile,
		"Posts":        posts,
		"PostsCount":   postsCount,
		"ThreadsCount": threadsCount,
		"IsOwner":      viewerID == user.ID,
	})
}

// EditPage renders the profile edit form.
func (pc *ProfileController) EditPage(ctx *gin.Context) {
	userID, _ := getUserID(ctx)
	profile := pc.ensureProfile(userID)
	render(ctx, http.StatusOK, "profile_edit.html", gin.H{"Profile": profile})
}

// Edit updates bio, location, website and optionally the avatar. The avatar
// file is stored under a random name and shrunk to 400x400 best-effort; a
// resize failure never rolls back the save.
func (pc *ProfileController) Edit(ctx *gin.Context) {
	userID, _ := getUserID(ctx)
	profile := pc.ensureProfile(userID)

	profile.Bio = strings.TrimSpace(ctx.PostForm("bio"))
	profile.Location = strings.TrimSpace(ctx.PostForm("location"))
	profile.Website = strings.TrimSpace(ctx.PostForm("website"))

	if file, err := ctx.FormFile("avatar"); err == nil && file != nil {
		if !utils.AllowedAvatarExt(file.Filename) {
			render(ctx, http.StatusBadRequest, "profile_edit.html", gin.H{
				"Error":   "avatar must be a jpeg or png image",
				"Profile": profile,
			})
			return
		}
		name := uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
		dir := filepath.Join(config.Get().UploadDir, "avatars")
		dst := filepath.Join(dir, name)
		if err := ctx.SaveUploadedFile(file, dst); err != nil {
			utils.Sugar.Errorf("avatar save failed for user %d: %v", userID, err)
			renderError(ctx, http.StatusInternalServerError, "failed to store avatar")
			return
		}
		if err := utils.ResizeAvatar(dst); err != nil {
			// best-effort: keep the original file, keep the save going
			utils.Sugar.Warnf("avatar resize failed for user %d: %v", userID, err)
		}
		profile.Avatar = "/" + filepath.ToSlash(dst)
	}

	if err := pc.db.Save(profile).Error; err != nil {
		renderError(ctx, http.StatusInternalServerError, "failed to save profile")
		return
	}
	ctx.Redirect(http.StatusSeeOther, "/profile")
}

func (pc *ProfileController) ensureProfile(userID uint) *models.Profile {
	var profile models.Profile
	pc.db.Where(models.Profile{UserID: userID}).FirstOrCreate(&profile)
	return &profile
}
