package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/honeybarrel/forum/models"
	"github.com/honeybarrel/forum/utils"
)

// ThreadController serves the index, thread pages and thread lifecycle.
type ThreadController struct {
	db *gorm.DB
}

// NewThreadController creates a new ThreadController instance.
func NewThreadController(db *gorm.DB) *ThreadController {
	return &ThreadController{db: db}
}

// Index renders the forum landing page: paginated threads, popular threads,
// recent posts and the category sidebar.
func (t *ThreadController) Index(ctx *gin.Context) {
	const perPage = 20
	page := queryPage(ctx)

	var total int64
	if err := t.db.Model(&models.Thread{}).Count(&total).Error; err != nil {
		renderError(ctx, http.StatusInternalServerError, "failed to count threads")
		return
	}

	var threads []models.Thread
	if err := t.db.Preload("Author").Preload("Category").
		Order("pinned DESC, updated_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&threads).Error; err != nil {
		renderError(ctx, http.StatusInternalServerError, "failed to load threads")
		return
	}
	attachPostCounts(t.db, threads)

	var popular []models.Thread
	if err := t.db.Preload("Author").Order("views DESC, updated_at DESC").Limit(5).Find(&popular).Error; err != nil {
		renderError(ctx, http.StatusInternalServerError, "failed to load popular threads")
		return
	}

	var recent []models.Post
	if err := t.db.Preload("Author").Preload("Thread").
		Order("created_at DESC").Limit(5).Find(&recent).Error; err != nil {
		renderError(ctx, http.StatusInternalServerError, "failed to load recent posts")
		return
	}

	categories, err := loadCategories(t.db)
	if err != nil {
		renderError(ctx, http.StatusInternalServerError, "failed to load categories")
		return
	}

	render(ctx, http.StatusOK, "index.html", gin.H{
		"Threads":    threads,
		"Popular":    popular,
		"Recent":     recent,
		"Categories": categories,
		"Online":     utils.OnlineUsernames(),
		"Page":       page,
		"LastPage":   utils.LastPage(int(total), perPage),
	})
}

// Page renders one thread with its posts, 10 per page, oldest first. The view
// counter is bumped atomically per request.
func (t *ThreadController) Page(ctx *gin.Context) {
	var thread models.Thread
	if err := t.db.Preload("Author").Preload("Category").First(&thread, ctx.Param("id")).Error; err != nil {
		renderError(ctx, http.StatusNotFound, "thread not found")
		return
	}

	t.db.Model(&models.Thread{}).Where("id = ?", thread.ID).
		UpdateColumn("views", gorm.Expr("views + ?", 1))

	page := queryPage(ctx)

	var total int64
	if err := t.db.Model(&models.Post{}).Where("thread_id = ?", thread.ID).Count(&total).Error; err != nil {
		renderError(ctx, http.StatusInternalServerError, "failed to count posts")
		return
	}

	var posts []models.Post
	if err := t.db.Where("thread_id = ?", thread.ID).
		Preload("Author").
		Order("created_at ASC, id ASC").
		Offset((page - 1) * utils.PostsPerPage).Limit(utils.PostsPerPage).
		Find(&posts).Error; err != nil {
		renderError(ctx, http.StatusInternalServerError, "failed to load posts")
		return
	}

	viewerID, authed := getUserID(ctx)
	admin := isAdmin(ctx)
	attachLikeState(t.db, posts, viewerID)
	for i := range posts {
		posts[i].CanEdit = authed && (posts[i].AuthorID == viewerID || admin)
	}

	render(ctx, http.StatusOK, "thread.html", gin.H{
		"Thread":      &thread,
		"Posts":       posts,
		"Page":        page,
		"LastPage":    utils.LastPage(int(total), utils.PostsPerPage),
		"CanEdit":     authed && (thread.AuthorID == viewerID || admin),
		"CanReply":    authed && !thread.Closed,
		"CurrentPage": page,
	})
}

// NewPage renders the thread creation form.
func (t *ThreadController) NewPage(ctx *gin.Context) {
	categories, err := loadCategories(t.db)
	if err != nil {
		renderError(ctx, http.StatusInternalServerError, "failed to load categories")
		return
	}
	render(ctx, http.StatusOK, "new_thread.html", gin.H{
		"Categories": categories,
		"Title":      "",
		"Content":    "",
		"CategoryID": 0,
	})
}

// Create makes a thread together with its first post in one transaction. The
// slug is generated from the title and retried with numeric suffixes under
// the unique index until an insert succeeds.
func (t *ThreadController) Create(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		renderError(ctx, http.StatusUnauthorized, "authentication required")
		return
	}

	title := strings.TrimSpace(ctx.PostForm("title"))
	rawContent := ctx.PostForm("content")
	categoryID := formInt(ctx, "category_id", 0)

	fail := func(msg string) {
		categories, _ := loadCategories(t.db)
		render(ctx, http.StatusBadRequest, "new_thread.html", gin.H{
			"Error":      msg,
			"Title":      title,
			"Content":    rawContent,
			"CategoryID": categoryID,
			"Categories": categories,
		})
	}

	if title == "" {
		fail("title cannot be empty")
		return
	}
	if strings.TrimSpace(rawContent) == "" {
		fail("the first post cannot be empty")
		return
	}
	content := utils.SanitizeHTML(rawContent)
	if utils.IsBlankHTML(content) {
		fail("content contains no allowed elements")
		return
	}

	var category models.Category
	if err := t.db.First(&category, categoryID).Error; err != nil {
		fail("please choose a category")
		return
	}

	thread := models.Thread{
		CategoryID: category.ID,
		Title:      title,
		AuthorID:   userID,
	}
	base := utils.Slugify(title)
	if base == "" {
		base = "thread"
	}

	err := t.db.Transaction(func(tx *gorm.DB) error {
		for attempt := 0; ; attempt++ {
			thread.Slug = utils.SlugCandidate(base, attempt)
			err := tx.Create(&thread).Error
			if err == nil {
				break
			}
			if utils.IsDuplicateKeyErr(err) && attempt < 60 {
				thread.ID = 0
				continue
			}
			return err
		}
		post := models.Post{ThreadID: thread.ID, AuthorID: userID, Content: content}
		return tx.Create(&post).Error
	})
	if err != nil {
		utils.Sugar.Errorf("create thread failed: %v", err)
		renderError(ctx, http.StatusInternalServerError, "failed to create thread")
		return
	}

	utils.InvalidateByPrefix(categoriesCacheKey)
	ctx.Redirect(http.StatusSeeOther, thread.URL())
}

// EditPage renders the thread edit form for the author or an admin.
func (t *ThreadController) EditPage(ctx *gin.Context) {
	thread, ok := t.loadOwned(ctx)
	if !ok {
		return
	}
	categories, _ := loadCategories(t.db)
	render(ctx, http.StatusOK, "edit_thread.html", gin.H{
		"Thread":     thread,
		"Categories": categories,
	})
}

// Edit updates a thread's title, category and flags.
func (t *ThreadController) Edit(ctx *gin.Context) {
	thread, ok := t.loadOwned(ctx)
	if !ok {
		return
	}

	title := strings.TrimSpace(ctx.PostForm("title"))
	if title == "" {
		categories, _ := loadCategories(t.db)
		render(ctx, http.StatusBadRequest, "edit_thread.html", gin.H{
			"Error":      "title cannot be empty",
			"Thread":     thread,
			"Categories": categories,
		})
		return
	}

	if categoryID := formInt(ctx, "category_id", 0); categoryID > 0 {
		var category models.Category
		if err := t.db.First(&category, categoryID).Error; err == nil {
			thread.CategoryID = category.ID
		}
	}
	thread.Title = title
	if isAdmin(ctx) {
		thread.Pinned = formBool(ctx, "pinned")
		thread.Closed = formBool(ctx, "closed")
	}

	if err := t.db.Save(thread).Error; err != nil {
		renderError(ctx, http.StatusInternalServerError, "failed to update thread")
		return
	}
	ctx.Redirect(http.StatusSeeOther, thread.URL())
}

// Delete removes a thread with its posts and their likes.
func (t *ThreadController) Delete(ctx *gin.Context) {
	thread, ok := t.loadOwned(ctx)
	if !ok {
		return
	}

	var category models.Category
	redirect := "/categories"
	if err := t.db.First(&category, thread.CategoryID).Error; err == nil {
		redirect = category.URL()
	}

	err := t.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id IN (?)",
			tx.Model(&models.Post{}).Select("id").Where("thread_id = ?", thread.ID),
		).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("thread_id = ?", thread.ID).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		return tx.Delete(thread).Error
	})
	if err != nil {
		utils.Sugar.Errorf("delete thread %d failed: %v", thread.ID, err)
		renderError(ctx, http.StatusInternalServerError, "failed to delete thread")
		return
	}

	utils.InvalidateByPrefix(categoriesCacheKey)
	ctx.Redirect(http.StatusSeeOther, redirect)
}

// loadOwned fetches the thread and checks the caller may manage it.
func (t *ThreadController) loadOwned(ctx *gin.Context) (*models.Thread, bool) {
	var thread models.Thread
	if err := t.db.First(&thread, ctx.Param("id")).Error; err != nil {
		renderError(ctx, http.StatusNotFound, "thread not found")
		return nil, false
	}
	viewerID, _ := getUserID(ctx)
	if thread.AuthorID != viewerID && !isAdmin(ctx) {
		renderError(ctx, http.StatusForbidden, "you cannot manage this thread")
		return nil, false
	}
	return &thread, true
}

// attachLikeState fills Liked and LikesCount for a page of posts in two
// grouped queries.
func attachLikeState(db *gorm.DB, posts []models.Post, viewerID uint) {
	if len(posts) == 0 {
		return
	}
	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	type pair struct {
		PostID uint
		N      int64
	}
	var counts []pair
	if err := db.Model(&models.Like{}).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&counts).Error; err != nil {
		return
	}
	byPost := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byPost[c.PostID] = c.N
	}

	liked := map[uint]bool{}
	if viewerID != 0 {
		var likedIDs []uint
		if err := db.Model(&models.Like{}).
			Where("user_id = ? AND post_id IN ?", viewerID, ids).
			Pluck("post_id", &likedIDs).Error; err == nil {
			for _, id := range likedIDs {
				liked[id] = true
			}
		}
	}

	for i := range posts {
		posts[i].LikesCount = byPost[posts[i].ID]
		posts[i].Liked = liked[posts[i].ID]
	}
}
