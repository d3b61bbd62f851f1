package controllers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/honeybarrel/forum/models"
	"github.com/honeybarrel/forum/utils"
)

const categoriesCacheKey = "cache:categories"

// CategoryController serves category pages and the admin-only category
// management endpoints.
type CategoryController struct {
	db *gorm.DB
}

// NewCategoryController creates a new CategoryController instance.
func NewCategoryController(db *gorm.DB) *CategoryController {
	return &CategoryController{db: db}
}

// loadCategories returns all categories with thread counts, cached in Redis.
func loadCategories(db *gorm.DB) ([]models.Category, error) {
	if b, ok := utils.CacheGetBytes(categoriesCacheKey); ok {
		var cached []models.Category
		if err := json.Unmarshal(b, &cached); err == nil {
			return cached, nil
		}
	}

	var categories []models.Category
	if err := db.Order("title").Find(&categories).Error; err != nil {
		return nil, err
	}
	type pair struct {
		CategoryID uint
		N          int64
	}
	var counts []pair
	if err := db.Model(&models.Thread{}).
		Select("category_id, COUNT(*) AS n").
		Group("category_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	byCat := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byCat[c.CategoryID] = c.N
	}
	for i := range categories {
		categories[i].ThreadsCount = byCat[categories[i].ID]
	}

	utils.CacheSetJSON(categoriesCacheKey, categories, time.Hour)
	return categories, nil
}

// ListPage renders the categories overview.
func (c *CategoryController) ListPage(ctx *gin.Context) {
	categories, err := loadCategories(c.db)
	if err != nil {
		renderError(ctx, http.StatusInternalServerError, "failed to load categories")
		return
	}
	render(ctx, http.StatusOK, "categories.html", gin.H{"Categories": categories})
}

// Page renders one category with its threads, 15 per page, pinned first.
func (c *CategoryController) Page(ctx *gin.Context) {
	slug := ctx.Param("slug")

	var category models.Category
	if err := c.db.Where("slug = ?", slug).First(&category).Error; err != nil {
		renderError(ctx, http.StatusNotFound, "category not found")
		return
	}

	const perPage = 15
	page := queryPage(ctx)

	var total int64
	if err := c.db.Model(&models.Thread{}).Where("category_id = ?", category.ID).Count(&total).Error; err != nil {
		renderError(ctx, http.StatusInternalServerError, "failed to count threads")
		return
	}

	var threads []models.Thread
	if err := c.db.Where("category_id = ?", category.ID).
		Preload("Author").
		Order("pinned DESC, updated_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&threads).Error; err != nil {
		renderError(ctx, http.StatusInternalServerError, "failed to load threads")
		return
	}
	attachPostCounts(c.db, threads)

	render(ctx, http.StatusOK, "category.html", gin.H{
		"Category": &category,
		"Threads":  threads,
		"Page":     page,
		"LastPage": utils.LastPage(int(total), perPage),
	})
}

// Create adds a category. Admin only; slug derives from the title and
// collisions retry under the unique index.
func (c *CategoryController) Create(ctx *gin.Context) {
	if !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40310, "admin privileges required")
		return
	}

	var req struct {
		Title       string `json:"title" binding:"required,min=1,max=120"`
		Slug        string `json:"slug"`
		Description string `json:"description"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid request payload")
		return
	}

	base := strings.TrimSpace(req.Slug)
	if base == "" {
		base = utils.Slugify(req.Title)
	}
	if base == "" {
		base = "category"
	}

	category := models.Category{Title: strings.TrimSpace(req.Title), Description: req.Description}
	for attempt := 0; ; attempt++ {
		category.Slug = utils.SlugCandidate(base, attempt)
		err := c.db.Create(&category).Error
		if err == nil {
			break
		}
		if utils.IsDuplicateKeyErr(err) && attempt < 60 {
			category.ID = 0
			continue
		}
		if utils.IsDuplicateKeyErr(err) {
			utils.Error(ctx, http.StatusConflict, 40940, "category slug already exists")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to create category")
		return
	}

	utils.InvalidateByPrefix(categoriesCacheKey)
	utils.Success(ctx, gin.H{"category": category})
}

// Update edits a category's title and description. Admin only; the slug is
// immutable once assigned.
func (c *CategoryController) Update(ctx *gin.Context) {
	if !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40311, "admin privileges required")
		return
	}

	var category models.Category
	if err := c.db.First(&category, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40440, "category not found")
		return
	}

	var req struct {
		Title       string `json:"title" binding:"required,min=1,max=120"`
		Description string `json:"description"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40041, "invalid request payload")
		return
	}

	category.Title = strings.TrimSpace(req.Title)
	category.Description = req.Description
	if err := c.db.Save(&category).Error; err != nil {
		if utils.IsDuplicateKeyErr(err) {
			utils.Error(ctx, http.StatusConflict, 40941, "category slug already exists")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to update category")
		return
	}

	utils.InvalidateByPrefix(categoriesCacheKey)
	utils.Success(ctx, gin.H{"category": category})
}

// Delete removes an empty category. Deletion is blocked while threads still
// reference it.
func (c *CategoryController) Delete(ctx *gin.Context) {
	if !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40312, "admin privileges required")
		return
	}

	var category models.Category
	if err := c.db.First(&category, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40441, "category not found")
		return
	}

	var threads int64
	if err := c.db.Model(&models.Thread{}).Where("category_id = ?", category.ID).Count(&threads).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to check category usage")
		return
	}
	if threads > 0 {
		utils.Error(ctx, http.StatusConflict, 40942, "category still has threads")
		return
	}

	if err := c.db.Delete(&category).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to delete category")
		return
	}

	utils.InvalidateByPrefix(categoriesCacheKey)
	utils.Success(ctx, gin.H{"message": "category deleted"})
}

// attachPostCounts fills Thread.PostsCount for a page of threads in one
// grouped query.
func attachPostCounts(db *gorm.DB, threads []models.Thread) {
	if len(threads) == 0 {
		return
	}
	ids := make([]uint, len(threads))
	for i, t := range threads {
		ids[i] = t.ID
	}
	type pair struct {
		ThreadID uint
		N        int64
	}
	var counts []pair
	if err := db.Model(&models.Post{}).
		Select("thread_id, COUNT(*) AS n").
		Where("thread_id IN ?", ids).
		Group("thread_id").
		Scan(&counts).Error; err != nil {
		return
	}
	byThread := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byThread[c.ThreadID] = c.N
	}
	for i := range threads {
		threads[i].PostsCount = byThread[threads[i].ID]
	}
}
