package controllers

import (
	"fmt"
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/honeybarrel/forum/config"
	"github.com/honeybarrel/forum/middleware"
	"github.com/honeybarrel/forum/models"
	"github.com/honeybarrel/forum/utils"
)

var testDBSeq atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	config.SetForTesting(config.AppConfig{
		JWTSecret:      "test-secret",
		AdminUsernames: []string{"admin"},
	})
}

// newTestDB opens a fresh in-memory database per test. A shared cache with a
// single connection lets concurrent goroutines see the same data without
// tripping over sqlite's writer lock.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:test%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Profile{}, &models.Category{},
		&models.Thread{}, &models.Post{}, &models.Like{},
	))
	return db
}

// asUser returns a middleware that injects an authenticated identity the way
// the JWT middleware would after verifying a session token.
func asUser(user *models.User) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if user != nil {
			ctx.Set(middleware.ContextUserIDKey, user.ID)
			ctx.Set(middleware.ContextUsernameKey, user.Username)
		}
		ctx.Next()
	}
}

// newTestRouter wires the forum routes against db, with every request
// authenticated as user (nil means anonymous).
func newTestRouter(db *gorm.DB, user *models.User) *gin.Engine {
	r := gin.New()
	r.SetFuncMap(template.FuncMap{
		"safe": func(s string) template.HTML { return template.HTML(s) },
		"add":  func(a, b int) int { return a + b },
		"sub":  func(a, b int) int { return a - b },
		"dict": func(pairs ...interface{}) map[string]interface{} {
			m := make(map[string]interface{}, len(pairs)/2)
			for i := 0; i+1 < len(pairs); i += 2 {
				key, ok := pairs[i].(string)
				if !ok {
					continue
				}
				m[key] = pairs[i+1]
			}
			return m
		},
		"formatDate": func(tm time.Time) string {
			if tm.IsZero() {
				return ""
			}
			return tm.Format("02 Jan 2006, 15:04")
		},
	})
	r.LoadHTMLGlob("../templates/*.html")
	r.Use(asUser(user))

	auth := NewAuthController(db)
	categories := NewCategoryController(db)
	threads := NewThreadController(db)
	posts := NewPostController(db)
	likes := NewLikeController(db)
	profiles := NewProfileController(db)

	r.GET("/", threads.Index)
	r.GET("/categories", categories.ListPage)
	r.GET("/c/:slug", categories.Page)
	r.GET("/t/:id/:slug", threads.Page)
	r.POST("/new-thread", threads.Create)
	r.POST("/threads/:id/edit", threads.Edit)
	r.POST("/threads/:id/delete", threads.Delete)
	r.POST("/t/:id/posts", posts.Create)
	r.POST("/posts/:id/edit", posts.Edit)
	r.POST("/posts/:id/delete", posts.Delete)
	r.POST("/posts/:id/like", likes.Toggle)
	r.POST("/register", auth.Register)
	r.GET("/profile/:username", profiles.View)
	r.POST("/api/v1/categories", categories.Create)
	r.DELETE("/api/v1/categories/:id", categories.Delete)
	return r
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	hash, err := utils.HashPassword("correct horse battery")
	require.NoError(t, err)
	user := &models.User{Username: username, Email: username + "@example.com", PasswordHash: hash}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Create(&models.Profile{UserID: user.ID}).Error)
	return user
}

func createCategory(t *testing.T, db *gorm.DB, title string) *models.Category {
	t.Helper()
	c := &models.Category{Title: title, Slug: utils.Slugify(title)}
	require.NoError(t, db.Create(c).Error)
	return c
}

func createThread(t *testing.T, db *gorm.DB, cat *models.Category, author *models.User, title string) *models.Thread {
	t.Helper()
	th := &models.Thread{
		Title:      title,
		Slug:       utils.Slugify(title),
		CategoryID: cat.ID,
		AuthorID:   author.ID,
	}
	require.NoError(t, db.Create(th).Error)
	return th
}

func createPost(t *testing.T, db *gorm.DB, thread *models.Thread, author *models.User, content string) *models.Post {
	t.Helper()
	p := &models.Post{ThreadID: thread.ID, AuthorID: author.ID, Content: content}
	require.NoError(t, db.Create(p).Error)
	return p
}

// postForm submits an urlencoded form, optionally flagged as an HTMX request.
func postForm(r *gin.Engine, path string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
