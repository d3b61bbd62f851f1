package routes

import (
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/honeybarrel/forum/config"
	"github.com/honeybarrel/forum/controllers"
	"github.com/honeybarrel/forum/middleware"
	"github.com/honeybarrel/forum/utils"
)

// SetupRouter wires routes, middlewares, templates and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access log goes to its own rolling file; panics recover through zap.
	if gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress); err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "HX-Request", "HX-Current-URL"},
		ExposeHeaders:    []string{"Content-Length", "HX-Redirect"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.SetFuncMap(template.FuncMap{
		// content is sanitized before it is stored; rendering trusts it
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
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006, 15:04")
		},
	})
	r.LoadHTMLGlob("templates/*.html")
	r.Static("/static", "./static")

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db)
	categoryController := controllers.NewCategoryController(db)
	threadController := controllers.NewThreadController(db)
	postController := controllers.NewPostController(db)
	likeController := controllers.NewLikeController(db)
	profileController := controllers.NewProfileController(db)

	// Public pages render login state when a session cookie is present.
	pages := r.Group("", middleware.CurrentUser())
	pages.GET("/", threadController.Index)
	pages.GET("/about", func(ctx *gin.Context) { ctx.HTML(http.StatusOK, "about.html", gin.H{}) })
	pages.GET("/rules", func(ctx *gin.Context) { ctx.HTML(http.StatusOK, "rules.html", gin.H{}) })
	pages.GET("/faq", func(ctx *gin.Context) { ctx.HTML(http.StatusOK, "faq.html", gin.H{}) })
	pages.GET("/categories", categoryController.ListPage)
	pages.GET("/c/:slug", categoryController.Page)
	pages.GET("/t/:id/:slug", threadController.Page)
	pages.GET("/profile/:username", profileController.View)
	pages.GET("/register", authController.RegisterPage)
	pages.GET("/login", authController.LoginPage)

	authLimited := r.Group("", middleware.RateLimitMiddleware())
	authLimited.POST("/register", authController.Register)
	authLimited.POST("/login", authController.Login)

	authed := r.Group("", middleware.AuthRequired())
	authed.POST("/logout", authController.Logout)
	authed.GET("/profile", profileController.Own)
	authed.GET("/profile/edit", profileController.EditPage)
	authed.POST("/profile/edit", profileController.Edit)
	authed.GET("/new-thread", threadController.NewPage)
	authed.GET("/threads/:id/edit", threadController.EditPage)
	authed.POST("/threads/:id/edit", threadController.Edit)
	authed.POST("/threads/:id/delete", threadController.Delete)
	authed.GET("/posts/:id/edit", postController.EditPage)
	authed.POST("/posts/:id/edit", postController.Edit)
	authed.POST("/posts/:id/delete", postController.Delete)
	authed.POST("/posts/:id/like", likeController.Toggle)

	writeLimited := r.Group("", middleware.AuthRequired(), middleware.RateLimitMiddleware())
	writeLimited.POST("/new-thread", threadController.Create)
	writeLimited.POST("/t/:id/posts", postController.Create)

	// Category management stays JSON; there is no admin UI.
	admin := r.Group("/api/v1", middleware.AuthRequired())
	admin.POST("/categories", categoryController.Create)
	admin.PUT("/categories/:id", categoryController.Update)
	admin.DELETE("/categories/:id", categoryController.Delete)

	r.NoRoute(middleware.CurrentUser(), func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		ctx.HTML(http.StatusNotFound, "error.html", gin.H{"Status": 404, "Message": "page not found"})
	})

	return r
}
